/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputFiresListenersInOrder(t *testing.T) {
	in := New("1")
	var order []string
	in.OnInput(func() { order = append(order, "a:"+in.Value()) })
	in.OnInput(func() { order = append(order, "b:"+in.Value()) })

	in.Input("7")
	assert.Equal(t, []string{"a:7", "b:7"}, order)
}

func TestSetValueDoesNotFireListeners(t *testing.T) {
	in := New("1")
	fired := 0
	watched := 0
	in.OnInput(func() { fired++ })
	in.Watch(func() { watched++ })

	in.SetValue("2")
	in.SetValue("2")
	assert.Equal(t, 0, fired)
	assert.Equal(t, 1, watched)
	assert.Equal(t, "2", in.Value())
}

func TestToggle(t *testing.T) {
	in := NewSwitch(false)
	var seen []bool
	in.OnInput(func() { seen = append(seen, in.Checked()) })
	in.Toggle(true)
	in.Toggle(true)
	assert.Equal(t, []bool{true, true}, seen)
}

func TestWatchCancel(t *testing.T) {
	in := New("")
	n := 0
	cancel := in.Watch(func() { n++ })
	in.Input("x")
	cancel()
	in.Input("y")
	assert.Equal(t, 1, n)
}

func TestWatcherSeesListenerCorrection(t *testing.T) {
	in := New("0")
	in.OnInput(func() {
		if in.Value() == "-1" {
			in.SetValue("0")
		}
	})
	var shown []string
	in.Watch(func() { shown = append(shown, in.Value()) })

	in.Input("-1")
	assert.Equal(t, "0", in.Value())
	assert.Equal(t, "0", shown[len(shown)-1])
}
