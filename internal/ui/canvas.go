//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"sort"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"skapeditor/internal/entity"
	"skapeditor/internal/export"
	"skapeditor/internal/palette"
	"skapeditor/internal/snap"
)

// AreaCanvas draws an area and its objects and lets the user pick blocks.
type AreaCanvas struct {
	widget.BaseWidget
	// Interaction
	zoom    float32
	offsetX float32
	offsetY float32

	scene    export.Scene
	boxes    []blockBox // block hit boxes, bottom layer first
	selected int        // index into the area's blocks, -1 if none

	// drag state: a drag that starts on the selected block moves it, any other drag pans
	dragStarted  bool
	moving       bool
	dragX, dragY float32
	guides       []snap.Guide

	// OnSelect is called with the tapped block index, -1 for empty space.
	OnSelect func(i int)
	// OnMove is called while the selected block i is dragged to x, y in area units. It returns
	// the alignment guides to show.
	OnMove func(i int, x, y float64) []snap.Guide
}

type blockBox struct {
	x, y, w, h float32
	layer      int
	index      int
}

func NewAreaCanvas() *AreaCanvas {
	c := &AreaCanvas{zoom: 1, selected: -1}
	c.ExtendBaseWidget(c)
	return c
}

// SetArea shows a. Passing nil clears the canvas.
func (c *AreaCanvas) SetArea(a *entity.Area) {
	c.scene = export.Scene{}
	c.boxes = c.boxes[:0]
	if a != nil {
		if doc, err := a.Doc(); err == nil {
			c.scene = export.SceneOf(doc)
		}
		for i, b := range a.Objects.Blocks() {
			c.boxes = append(c.boxes, blockBox{
				x: float32(b.Pos.X), y: float32(b.Pos.Y),
				w: float32(b.Size.X), h: float32(b.Size.Y),
				layer: b.Layer, index: i,
			})
		}
		sort.SliceStable(c.boxes, func(i, j int) bool { return c.boxes[i].layer < c.boxes[j].layer })
	}
	if c.selected >= len(c.boxes) {
		c.selected = -1
	}
	c.Refresh()
}

// Select highlights block i; -1 clears the highlight.
func (c *AreaCanvas) Select(i int) {
	c.selected = i
	c.Refresh()
}

// CreateRenderer builds the rectangles we position manually in Layout.
func (c *AreaCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	area := canvas.NewRectangle(color.White)
	area.StrokeColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	area.StrokeWidth = 2

	sel := canvas.NewRectangle(color.RGBA{0, 0, 0, 0})
	sel.StrokeColor = color.RGBA{R: 0, G: 170, B: 255, A: 255}
	sel.StrokeWidth = 2
	sel.Hide()

	r := &areaCanvasRenderer{ac: c, bg: bg, area: area, sel: sel}
	r.objects = []fyne.CanvasObject{bg, area}
	for i := range r.guides {
		ln := canvas.NewLine(color.RGBA{R: 255, G: 0, B: 170, A: 255})
		ln.StrokeWidth = 1
		ln.Hide()
		r.guides[i] = ln
		r.objects = append(r.objects, ln)
	}
	r.objects = append(r.objects, sel)
	return r
}

// PreferredSize sets a decent default size for the widget.
func (c *AreaCanvas) PreferredSize() fyne.Size { return fyne.NewSize(800, 600) }

func (c *AreaCanvas) origin() (x, y float32) {
	sz := c.Size()
	x = sz.Width/2 - float32(c.scene.W)*c.zoom/2 + c.offsetX
	y = sz.Height/2 - float32(c.scene.H)*c.zoom/2 + c.offsetY
	return x, y
}

func (c *AreaCanvas) toScreen(x, y float32) fyne.Position {
	ox, oy := c.origin()
	return fyne.NewPos(ox+x*c.zoom, oy+y*c.zoom)
}

func (c *AreaCanvas) toArea(pos fyne.Position) (x, y float32) {
	ox, oy := c.origin()
	return (pos.X - ox) / c.zoom, (pos.Y - oy) / c.zoom
}

// hitTest returns the topmost block under the area point, -1 if none.
func (c *AreaCanvas) hitTest(x, y float32) int {
	for i := len(c.boxes) - 1; i >= 0; i-- {
		b := c.boxes[i]
		if x >= b.x && x <= b.x+b.w && y >= b.y && y <= b.y+b.h {
			return b.index
		}
	}
	return -1
}

// Tapped selects the block under the pointer.
func (c *AreaCanvas) Tapped(e *fyne.PointEvent) {
	c.selected = c.hitTest(c.toArea(e.Position))
	if c.OnSelect != nil {
		c.OnSelect(c.selected)
	}
	c.Refresh()
}

// Dragged moves the selected block when the drag started on it and pans the view otherwise.
func (c *AreaCanvas) Dragged(e *fyne.DragEvent) {
	if !c.dragStarted {
		c.dragStarted = true
		start := e.Position.Subtract(e.Dragged)
		if i := c.hitTest(c.toArea(start)); i >= 0 && i == c.selected && c.OnMove != nil {
			for _, b := range c.boxes {
				if b.index == i {
					c.moving, c.dragX, c.dragY = true, b.x, b.y
				}
			}
		}
	}
	if !c.moving {
		c.offsetX += e.Dragged.DX
		c.offsetY += e.Dragged.DY
		c.Refresh()
		return
	}
	c.dragX += e.Dragged.DX / c.zoom
	c.dragY += e.Dragged.DY / c.zoom
	c.guides = c.OnMove(c.selected, float64(c.dragX), float64(c.dragY))
	c.Refresh()
}

func (c *AreaCanvas) DragEnd() {
	c.dragStarted, c.moving, c.guides = false, false, nil
	c.Refresh()
}

// Scrolled zooms.
func (c *AreaCanvas) Scrolled(e *fyne.ScrollEvent) {
	c.zoom += e.Scrolled.DY * 0.05
	if c.zoom < 0.1 {
		c.zoom = 0.1
	}
	if c.zoom > 8 {
		c.zoom = 8
	}
	c.Refresh()
}

type areaCanvasRenderer struct {
	ac       *AreaCanvas
	objects  []fyne.CanvasObject
	bg, area *canvas.Rectangle
	rects    []*canvas.Rectangle
	guides   [2]*canvas.Line // one per axis
	sel      *canvas.Rectangle
}

func (r *areaCanvasRenderer) Destroy()                     {}
func (r *areaCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *areaCanvasRenderer) MinSize() fyne.Size           { return fyne.NewSize(200, 150) }
func (r *areaCanvasRenderer) Refresh()                     { r.Layout(r.ac.Size()); canvas.Refresh(r.ac) }

func (r *areaCanvasRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))

	s := r.ac.scene
	z := r.ac.zoom
	r.area.FillColor = palette.NRGBA(s.Background, 1)
	r.area.Resize(fyne.NewSize(float32(s.W)*z, float32(s.H)*z))
	r.area.Move(r.ac.toScreen(0, 0))
	r.area.Refresh()

	// grow the rectangle pool below the guides and the selection outline
	for len(r.rects) < len(s.Shapes) {
		rc := canvas.NewRectangle(color.Transparent)
		r.rects = append(r.rects, rc)
		n := 2 + len(r.rects) - 1
		r.objects = append(r.objects[:n], append([]fyne.CanvasObject{rc}, r.objects[n:]...)...)
	}
	for i, sh := range s.Shapes {
		rc := r.rects[i]
		rc.FillColor = palette.NRGBA(sh.Color, sh.Opacity)
		if sh.Collide {
			rc.StrokeColor = color.RGBA{R: 20, G: 20, B: 20, A: 255}
			rc.StrokeWidth = 1
		} else {
			rc.StrokeWidth = 0
		}
		rc.Resize(fyne.NewSize(float32(sh.W)*z, float32(sh.H)*z))
		rc.Move(r.ac.toScreen(float32(sh.X), float32(sh.Y)))
		rc.Show()
		rc.Refresh()
	}
	for j := len(s.Shapes); j < len(r.rects); j++ {
		r.rects[j].Hide()
	}

	for i, ln := range r.guides {
		if i >= len(r.ac.guides) {
			ln.Hide()
			continue
		}
		g := r.ac.guides[i]
		if g.Axis == snap.Vertical {
			ln.Position1 = r.ac.toScreen(float32(g.Pos), float32(g.From))
			ln.Position2 = r.ac.toScreen(float32(g.Pos), float32(g.To))
		} else {
			ln.Position1 = r.ac.toScreen(float32(g.From), float32(g.Pos))
			ln.Position2 = r.ac.toScreen(float32(g.To), float32(g.Pos))
		}
		ln.Show()
		ln.Refresh()
	}

	r.sel.Hide()
	for _, b := range r.ac.boxes {
		if b.index == r.ac.selected {
			r.sel.Resize(fyne.NewSize(b.w*z, b.h*z))
			r.sel.Move(r.ac.toScreen(b.x, b.y))
			r.sel.Show()
			break
		}
	}
}
