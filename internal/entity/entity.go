/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package entity builds the editable level entities and binds their fields to controls.
//
// A factory creates an entity's canonical and derived fields, one control per editable field
// with a listener that keeps the field current, and the property tree presenting those
// controls. Derived fields (packed colour strings) are recomputed by the listeners whenever a
// field they depend on changes and are never edited directly.
package entity

import (
	"errors"
	"fmt"
	"strconv"

	"skapeditor/internal/control"
	"skapeditor/internal/property"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrUnknownKind  = errors.New("unknown object kind")
	ErrInvalidValue = errors.New("invalid value")
)

// Entity is implemented by every editable level entity.
type Entity interface {
	// Element is the property tree to render.
	Element() property.Node
	// Inputs exposes the controls other editor code reads or resets.
	Inputs() map[string]*control.Input
	// Control returns the control bound to field, including ones not exposed by Inputs.
	Control(field string) (*control.Input, bool)
}

// SetField changes field as if the user had entered raw into its control, so the entity,
// its derived fields and the displayed value all update through the same path. Switch fields
// accept strconv.ParseBool syntax.
func SetField(e Entity, field, raw string) error {
	in, ok := e.Control(field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	if isSwitch(e.Element(), in) {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w for %s: %q", ErrInvalidValue, field, raw)
		}
		in.Toggle(v)
		return nil
	}
	in.Input(raw)
	return nil
}

func isSwitch(root property.Node, in *control.Input) bool {
	for _, l := range property.Leaves(root) {
		if l.Control == in {
			return l.Kind == property.Switch
		}
	}
	return false
}
