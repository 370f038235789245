/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package snap aligns a rectangle being dragged to nearby reference rectangles and reports the
// guide lines to draw. Everything is in area units and independent of the UI toolkit.
package snap

import "math"

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct{ X, Y, W, H float64 }

func (r Rect) Right() float64   { return r.X + r.W }
func (r Rect) Bottom() float64  { return r.Y + r.H }
func (r Rect) CenterX() float64 { return r.X + r.W/2 }
func (r Rect) CenterY() float64 { return r.Y + r.H/2 }

// Union returns the smallest rect containing both.
func (r Rect) Union(o Rect) Rect {
	x, y := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	return Rect{X: x, Y: y, W: math.Max(r.Right(), o.Right()) - x, H: math.Max(r.Bottom(), o.Bottom()) - y}
}

type Axis int

const (
	// Vertical guides fix an x position.
	Vertical Axis = iota
	// Horizontal guides fix a y position.
	Horizontal
)

// Guide is one alignment line. Pos is the fixed coordinate; From and To span the other axis.
type Guide struct {
	Axis   Axis
	Center bool
	Grid   bool
	Pos    float64
	From   float64
	To     float64
}

type Options struct {
	// Threshold is the largest distance that still snaps.
	Threshold float64
	Edges     bool
	Centers   bool
	// Grid, when > 0, rounds an axis that found no anchor to multiples of Grid.
	Grid float64
}

func DefaultOptions() Options { return Options{Threshold: 5, Edges: true, Centers: true} }

type candidate struct {
	delta float64
	guide Guide
	ok    bool
}

func (c *candidate) consider(delta, threshold float64, g Guide) {
	d := math.Abs(delta)
	if d > threshold {
		return
	}
	if !c.ok || d < math.Abs(c.delta) {
		*c = candidate{delta: delta, guide: g, ok: true}
	}
}

// Align snaps moving against anchors, x and y independently, and returns the adjusted rect
// with the guides that caused each adjustment. The size of moving never changes.
func Align(moving Rect, anchors []Rect, opt Options) (Rect, []Guide) {
	if opt.Threshold <= 0 {
		opt.Threshold = DefaultOptions().Threshold
	}
	var cx, cy candidate
	for _, a := range anchors {
		vspan := func(x float64, center bool) Guide {
			u := moving.Union(a)
			return Guide{Axis: Vertical, Center: center, Pos: round3(x), From: u.Y, To: u.Bottom()}
		}
		hspan := func(y float64, center bool) Guide {
			u := moving.Union(a)
			return Guide{Axis: Horizontal, Center: center, Pos: round3(y), From: u.X, To: u.Right()}
		}
		if opt.Edges {
			cx.consider(moving.X-a.X, opt.Threshold, vspan(a.X, false))
			cx.consider(moving.Right()-a.Right(), opt.Threshold, vspan(a.Right(), false))
			cx.consider(moving.X-a.Right(), opt.Threshold, vspan(a.Right(), false))
			cx.consider(moving.Right()-a.X, opt.Threshold, vspan(a.X, false))

			cy.consider(moving.Y-a.Y, opt.Threshold, hspan(a.Y, false))
			cy.consider(moving.Bottom()-a.Bottom(), opt.Threshold, hspan(a.Bottom(), false))
			cy.consider(moving.Y-a.Bottom(), opt.Threshold, hspan(a.Bottom(), false))
			cy.consider(moving.Bottom()-a.Y, opt.Threshold, hspan(a.Y, false))
		}
		if opt.Centers {
			cx.consider(moving.CenterX()-a.CenterX(), opt.Threshold, vspan(a.CenterX(), true))
			cy.consider(moving.CenterY()-a.CenterY(), opt.Threshold, hspan(a.CenterY(), true))
		}
	}

	out := moving
	var guides []Guide
	switch {
	case cx.ok:
		out.X = round3(moving.X - cx.delta)
		guides = append(guides, cx.guide)
	case opt.Grid > 0:
		out.X = math.Round(moving.X/opt.Grid) * opt.Grid
		guides = append(guides, Guide{Axis: Vertical, Grid: true, Pos: out.X, From: out.Y, To: out.Bottom()})
	}
	switch {
	case cy.ok:
		out.Y = round3(moving.Y - cy.delta)
		guides = append(guides, cy.guide)
	case opt.Grid > 0:
		out.Y = math.Round(moving.Y/opt.Grid) * opt.Grid
		guides = append(guides, Guide{Axis: Horizontal, Grid: true, Pos: out.Y, From: out.X, To: out.Right()})
	}
	return out, guides
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
