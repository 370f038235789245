/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package control provides the live input a single entity field is bound to.
//
// An Input is the headless counterpart of a form control: it carries the displayed text,
// a checked state for switches and a step hint for number fields. User edits arrive through
// Input or Toggle, which update the state and fire the input listeners in registration order.
// Programmatic writes through SetValue and SetChecked do not fire input listeners; they only
// notify display watchers so a renderer can repaint.
//
// Inputs are not safe for concurrent use; all calls are expected on the UI goroutine.
package control

// Input is a single interactive control.
type Input struct {
	value   string
	checked bool
	step    float64

	listeners []func()
	watchers  []func()
}

// New returns an input displaying value.
func New(value string) *Input {
	return &Input{value: value}
}

// NewSwitch returns an input whose checked state is checked.
func NewSwitch(checked bool) *Input {
	return &Input{checked: checked}
}

// Value returns the displayed text.
func (in *Input) Value() string { return in.value }

// Checked returns the switch state.
func (in *Input) Checked() bool { return in.checked }

// Step returns the increment hint for number controls, zero when unset.
func (in *Input) Step() float64 { return in.step }

// SetStep sets the increment hint.
func (in *Input) SetStep(step float64) { in.step = step }

// SetValue replaces the displayed text without firing input listeners.
func (in *Input) SetValue(v string) {
	if in.value == v {
		return
	}
	in.value = v
	in.notify()
}

// SetChecked replaces the switch state without firing input listeners.
func (in *Input) SetChecked(v bool) {
	if in.checked == v {
		return
	}
	in.checked = v
	in.notify()
}

// OnInput registers fn to run after every user edit.
func (in *Input) OnInput(fn func()) {
	in.listeners = append(in.listeners, fn)
}

// Watch registers fn to run whenever the displayed state changes, whatever the cause.
// It returns a function that removes the watcher.
func (in *Input) Watch(fn func()) (cancel func()) {
	in.watchers = append(in.watchers, fn)
	idx := len(in.watchers) - 1
	return func() {
		if idx < len(in.watchers) {
			in.watchers[idx] = nil
		}
	}
}

// Input delivers a text edit: the value becomes raw and every listener fires.
func (in *Input) Input(raw string) {
	changed := in.value != raw
	in.value = raw
	in.fire()
	if changed {
		in.notify()
	}
}

// Toggle delivers a switch edit: the checked state becomes v and every listener fires.
func (in *Input) Toggle(v bool) {
	changed := in.checked != v
	in.checked = v
	in.fire()
	if changed {
		in.notify()
	}
}

func (in *Input) fire() {
	for _, fn := range in.listeners {
		fn()
	}
}

func (in *Input) notify() {
	for _, fn := range in.watchers {
		if fn != nil {
			fn()
		}
	}
}
