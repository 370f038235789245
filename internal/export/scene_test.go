/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"encoding/json"
	"strings"
	"testing"

	"skapeditor/internal/domain"
)

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func block(x, y, w, h float64, c [3]uint8, opacity float64, collide bool, layer int) domain.Block {
	return domain.Block{
		Type:     "block",
		Pos:      domain.Vec{X: x, Y: y},
		Size:     domain.Vec{X: w, Y: h},
		ColorArr: c,
		Opacity:  opacity,
		Collide:  collide,
		Layer:    layer,
	}
}

// sampleArea is 100x60 on a light grey background with one red block at (10,10) 20x20 and a
// lava strip without its own colour.
func sampleArea(t *testing.T) domain.Area {
	t.Helper()
	return domain.Area{
		ID:            "a1",
		Name:          "Main Hall",
		ColorArr:      [3]uint8{0, 10, 87},
		BackgroundArr: [3]uint8{230, 230, 230},
		Opacity:       0.8,
		Size:          [2]float64{100, 60},
		Objects: map[string][]json.RawMessage{
			"block": {raw(t, block(10, 10, 20, 20, [3]uint8{255, 0, 0}, 1, true, 0))},
			"lava":  {raw(t, map[string]any{"pos": map[string]float64{"x": 50, "y": 40}, "size": map[string]float64{"x": 30, "y": 10}})},
			"text":  {raw(t, map[string]any{"text": "hi"})},
			"slime": {},
		},
	}
}

func sampleLevel(t *testing.T) domain.Level {
	t.Helper()
	second := sampleArea(t)
	second.ID = "a2"
	second.Name = "Cellar"
	second.Size = [2]float64{200, 50}
	return domain.Level{Version: domain.CurrentVersion, Name: "Castle Run", Areas: []domain.Area{sampleArea(t), second}}
}

func TestSceneOfDrawsPlacedObjectsAndCountsAll(t *testing.T) {
	s := SceneOf(sampleArea(t))
	if s.W != 100 || s.H != 60 {
		t.Fatalf("scene size = %gx%g", s.W, s.H)
	}
	if len(s.Shapes) != 2 {
		t.Fatalf("shapes = %d, want 2 (text has no geometry)", len(s.Shapes))
	}
	if s.Counts["block"] != 1 || s.Counts["lava"] != 1 || s.Counts["text"] != 1 {
		t.Fatalf("counts = %v", s.Counts)
	}
	if _, ok := s.Counts["slime"]; ok {
		t.Fatalf("empty kinds should not be counted: %v", s.Counts)
	}
	var lava Shape
	for _, sh := range s.Shapes {
		if sh.Kind == "lava" {
			lava = sh
		}
	}
	if lava.Color != [3]uint8{0, 10, 87} || lava.Opacity != 0.8 {
		t.Fatalf("lava should inherit area colour, got %v @ %g", lava.Color, lava.Opacity)
	}
}

func TestSceneOfOrdersByLayer(t *testing.T) {
	a := sampleArea(t)
	a.Objects = map[string][]json.RawMessage{
		"block": {
			raw(t, block(0, 0, 10, 10, [3]uint8{255, 0, 0}, 1, false, 3)),
			raw(t, block(0, 0, 10, 10, [3]uint8{0, 0, 255}, 1, false, -1)),
			raw(t, block(0, 0, 10, 10, [3]uint8{0, 255, 0}, 1, false, 0)),
		},
	}
	s := SceneOf(a)
	got := []int{s.Shapes[0].Layer, s.Shapes[1].Layer, s.Shapes[2].Layer}
	if got[0] != -1 || got[1] != 0 || got[2] != 3 {
		t.Fatalf("layers = %v", got)
	}
}

func TestKindOrderCatalogueThenUnknown(t *testing.T) {
	m := map[string][]json.RawMessage{"zeta": nil, "block": nil, "obstacle": nil, "alpha": nil}
	got := kindOrder(m)
	want := []string{"obstacle", "block", "alpha", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("kindOrder = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kindOrder = %v, want %v", got, want)
		}
	}

	counts := map[string]int{"text": 1, "lava": 2, "block": 3}
	if got := strings.Join(kindOrder(counts), ","); got != "lava,block,text" {
		t.Fatalf("kindOrder(counts) = %s", got)
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Main Hall":      "main-hall",
		"  Spaced  Out ": "spaced-out",
		"Level #2!":      "level-2",
		"":               "area",
		"***":            "area",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
