/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders level areas to PNG, SVG and PDF.
package export

import (
	"encoding/json"
	"sort"
	"strings"
	"unicode"

	"skapeditor/internal/domain"
	"skapeditor/internal/entity"
	"skapeditor/internal/palette"
)

// Shape is one drawable rectangle of an area in world units.
type Shape struct {
	Kind       string
	X, Y, W, H float64
	Color      palette.RGB
	Opacity    float64
	Collide    bool
	Layer      int
}

// Scene is an area reduced to what the renderers draw.
type Scene struct {
	Name       string
	W, H       float64
	Background palette.RGB
	Shapes     []Shape
	Counts     map[string]int
}

// objectGeometry is the subset of object fields the renderers understand.
// Kinds without pos/size are counted but not drawn.
type objectGeometry struct {
	Pos      *domain.Vec `json:"pos"`
	Size     *domain.Vec `json:"size"`
	ColorArr *[3]uint8   `json:"colorArr"`
	Opacity  *float64    `json:"opacity"`
	Collide  bool        `json:"collide"`
	Layer    int         `json:"layer"`
}

// SceneOf builds the scene for a. Objects without their own colour take the area colour,
// which is what the game uses for obstacles. Shapes are ordered by layer, then by kind order.
func SceneOf(a domain.Area) Scene {
	s := Scene{
		Name:       a.Name,
		W:          a.Size[0],
		H:          a.Size[1],
		Background: a.BackgroundArr,
		Counts:     map[string]int{},
	}
	for _, name := range kindOrder(a.Objects) {
		for _, raw := range a.Objects[name] {
			s.Counts[name]++
			var g objectGeometry
			if err := json.Unmarshal(raw, &g); err != nil || g.Pos == nil || g.Size == nil {
				continue
			}
			sh := Shape{
				Kind:    name,
				X:       g.Pos.X,
				Y:       g.Pos.Y,
				W:       g.Size.X,
				H:       g.Size.Y,
				Color:   a.ColorArr,
				Opacity: a.Opacity,
				Collide: g.Collide,
				Layer:   g.Layer,
			}
			if g.ColorArr != nil {
				sh.Color = *g.ColorArr
			}
			if g.Opacity != nil {
				sh.Opacity = *g.Opacity
			}
			s.Shapes = append(s.Shapes, sh)
		}
	}
	sort.SliceStable(s.Shapes, func(i, j int) bool { return s.Shapes[i].Layer < s.Shapes[j].Layer })
	return s
}

// kindOrder lists the object kinds of m in catalogue order; unknown names follow sorted.
func kindOrder[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	seen := map[string]bool{}
	for _, k := range entity.Kinds() {
		if _, ok := m[k.String()]; ok {
			out = append(out, k.String())
			seen[k.String()] = true
		}
	}
	var rest []string
	for name := range m {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Slug turns an area name into a file name fragment.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "area"
	}
	return s
}
