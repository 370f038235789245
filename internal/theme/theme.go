/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package theme holds the document-level custom properties the editor's stylesheet reads,
// and keeps them in step with area colours.
package theme

import (
	"log/slog"
	"sort"
	"sync"

	"skapeditor/internal/entity"
	applog "skapeditor/internal/log"
	"skapeditor/internal/palette"
)

// ObstacleProperty is the custom property obstacles are painted with.
const ObstacleProperty = "--obstacle"

// Sheet is a set of custom properties. It implements entity.ColorListener so it can be
// registered on areas directly.
type Sheet struct {
	mu    sync.RWMutex
	props map[string]string
	subs  []func(name, value string)
	log   *slog.Logger
}

// NewSheet returns an empty sheet.
func NewSheet() *Sheet {
	return &Sheet{props: make(map[string]string), log: applog.WithComponent("theme")}
}

// Set assigns a property and notifies subscribers when the value changed.
func (s *Sheet) Set(name, value string) {
	s.mu.Lock()
	if s.props[name] == value {
		s.mu.Unlock()
		return
	}
	s.props[name] = value
	subs := append([]func(string, string){}, s.subs...)
	s.mu.Unlock()

	s.log.Debug("property set", slog.String("name", name), slog.String("value", value))
	for _, fn := range subs {
		fn(name, value)
	}
}

// Get returns a property value.
func (s *Sheet) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.props[name]
	return v, ok
}

// Names returns the assigned property names, sorted.
func (s *Sheet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.props))
	for k := range s.props {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Subscribe registers fn for property changes.
func (s *Sheet) Subscribe(fn func(name, value string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// AreaColorChanged paints obstacles with the area's colour at the area's opacity.
func (s *Sheet) AreaColorChanged(a *entity.Area) {
	s.Set(ObstacleProperty, palette.RGBAWithAlpha(a.ColorArr, a.Opacity))
}

// ApplyArea sets the properties for a, e.g. when the area becomes the one being edited.
func (s *Sheet) ApplyArea(a *entity.Area) { s.AreaColorChanged(a) }
