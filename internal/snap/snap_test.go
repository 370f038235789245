/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign_EdgesAndAbutting(t *testing.T) {
	anchor := Rect{X: 100, Y: 100, W: 50, H: 20}
	cases := []struct {
		name       string
		moving     Rect
		wantX      float64
		wantY      float64
		wantGuides int
	}{
		{"left to left", Rect{X: 103, Y: 300, W: 10, H: 10}, 100, 300, 1},
		{"right to right", Rect{X: 138, Y: 300, W: 10, H: 10}, 140, 300, 1},
		{"abut right edge", Rect{X: 152, Y: 300, W: 10, H: 10}, 150, 300, 1},
		{"top to bottom", Rect{X: 400, Y: 118, W: 10, H: 10}, 400, 120, 1},
		{"both axes", Rect{X: 97, Y: 96, W: 10, H: 10}, 100, 100, 2},
		{"too far", Rect{X: 300, Y: 300, W: 10, H: 10}, 300, 300, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opt := DefaultOptions()
			opt.Centers = false
			got, guides := Align(tc.moving, []Rect{anchor}, opt)
			assert.Equal(t, tc.wantX, got.X)
			assert.Equal(t, tc.wantY, got.Y)
			assert.Equal(t, tc.moving.W, got.W)
			assert.Equal(t, tc.moving.H, got.H)
			assert.Len(t, guides, tc.wantGuides)
		})
	}
}

func TestAlign_CentersAndNearestWins(t *testing.T) {
	anchors := []Rect{
		{X: 0, Y: 0, W: 100, H: 100},
		{X: 200, Y: 0, W: 10, H: 10},
	}
	got, guides := Align(Rect{X: 46, Y: 500, W: 10, H: 10}, anchors, Options{Threshold: 5, Centers: true})
	assert.Equal(t, 45.0, got.X)
	require.Len(t, guides, 1)
	assert.Equal(t, Vertical, guides[0].Axis)
	assert.True(t, guides[0].Center)
	assert.Equal(t, 50.0, guides[0].Pos)
	assert.Equal(t, 0.0, guides[0].From)
	assert.Equal(t, 510.0, guides[0].To)

	// abutting the right edge (2 away) beats right-to-right (4 away)
	got, _ = Align(Rect{X: 98, Y: 500, W: 6, H: 6}, anchors, Options{Threshold: 5, Edges: true})
	assert.Equal(t, 100.0, got.X)
}

func TestAlign_GridFallback(t *testing.T) {
	got, guides := Align(Rect{X: 23, Y: 38, W: 10, H: 10}, nil, Options{Grid: 10})
	assert.Equal(t, 20.0, got.X)
	assert.Equal(t, 40.0, got.Y)
	require.Len(t, guides, 2)
	assert.True(t, guides[0].Grid)
	assert.Equal(t, Horizontal, guides[1].Axis)

	got, guides = Align(Rect{X: 23, Y: 38, W: 10, H: 10}, nil, Options{})
	assert.Equal(t, Rect{X: 23, Y: 38, W: 10, H: 10}, got)
	assert.Empty(t, guides)
}

func TestRect_Union(t *testing.T) {
	u := Rect{X: 10, Y: 10, W: 5, H: 5}.Union(Rect{X: 0, Y: 12, W: 2, H: 20})
	assert.Equal(t, Rect{X: 0, Y: 10, W: 15, H: 22}, u)
}
