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
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"skapeditor/internal/control"
	"skapeditor/internal/palette"
	"skapeditor/internal/property"
)

// Panel renders a property tree with fyne widgets. Widget edits reach the control as user
// input; control changes, including the clamped value a handler writes back, repaint the widget.
type Panel struct {
	Content fyne.CanvasObject

	fields  map[string]fyne.CanvasObject
	cancels []func()
}

// NewPanel builds the widgets for root. A nil root renders a placeholder.
func NewPanel(root property.Node) *Panel {
	p := &Panel{fields: map[string]fyne.CanvasObject{}}
	switch n := root.(type) {
	case *property.Group:
		p.Content = widget.NewCard(n.Label(), "", p.group(nil, n))
	case *property.Leaf:
		form := widget.NewForm()
		form.Append(n.Label(), p.leaf(nil, n))
		p.Content = form
	default:
		p.Content = widget.NewLabel("Nothing selected")
	}
	return p
}

// group lays out children in order; runs of leaves share one form, sub folders become
// open accordion items.
func (p *Panel) group(path []string, g *property.Group) *fyne.Container {
	box := container.NewVBox()
	var form *widget.Form
	for _, c := range g.Children {
		switch c := c.(type) {
		case *property.Leaf:
			if form == nil {
				form = widget.NewForm()
				box.Add(form)
			}
			form.Append(c.Label(), p.leaf(path, c))
		case *property.Group:
			form = nil
			sub := append(path[:len(path):len(path)], c.Label())
			acc := widget.NewAccordion(widget.NewAccordionItem(c.Label(), p.group(sub, c)))
			acc.Open(0)
			box.Add(acc)
		}
	}
	return box
}

func (p *Panel) leaf(path []string, l *property.Leaf) fyne.CanvasObject {
	key := strings.Join(append(path[:len(path):len(path)], l.Label()), "/")
	if l.Kind == property.Switch {
		check := p.check(l.Control)
		p.fields[key] = check
		return check
	}
	entry, swatch := p.entry(l.Control, l.Kind == property.Color)
	p.fields[key] = entry
	if swatch != nil {
		return container.NewBorder(nil, nil, nil, swatch, entry)
	}
	return entry
}

func (p *Panel) check(in *control.Input) *widget.Check {
	check := widget.NewCheck("", nil)
	check.SetChecked(in.Checked())
	syncing := false
	check.OnChanged = func(v bool) {
		if syncing {
			return
		}
		in.Toggle(v)
	}
	p.cancels = append(p.cancels, in.Watch(func() {
		if check.Checked == in.Checked() {
			return
		}
		syncing = true
		check.SetChecked(in.Checked())
		syncing = false
	}))
	return check
}

func (p *Panel) entry(in *control.Input, withSwatch bool) (*widget.Entry, *canvas.Rectangle) {
	entry := widget.NewEntry()
	entry.SetText(in.Value())
	var swatch *canvas.Rectangle
	if withSwatch {
		swatch = canvas.NewRectangle(swatchColor(in.Value()))
		swatch.SetMinSize(fyne.NewSize(24, 24))
	}
	syncing := false
	entry.OnChanged = func(s string) {
		if syncing {
			return
		}
		in.Input(s)
	}
	p.cancels = append(p.cancels, in.Watch(func() {
		if swatch != nil {
			swatch.FillColor = swatchColor(in.Value())
			swatch.Refresh()
		}
		if entry.Text == in.Value() {
			return
		}
		syncing = true
		entry.SetText(in.Value())
		syncing = false
	}))
	return entry, swatch
}

func swatchColor(hex string) color.Color {
	if !palette.ValidHex(hex) {
		return color.Transparent
	}
	return palette.NRGBA(palette.ParseHex(hex), 1)
}

// Entry returns the entry rendered for the leaf at path, relative to the root folder.
func (p *Panel) Entry(path ...string) (*widget.Entry, bool) {
	e, ok := p.fields[strings.Join(path, "/")].(*widget.Entry)
	return e, ok
}

// Check returns the check box rendered for the switch leaf at path.
func (p *Panel) Check(path ...string) (*widget.Check, bool) {
	c, ok := p.fields[strings.Join(path, "/")].(*widget.Check)
	return c, ok
}

// Close detaches the widgets from their controls.
func (p *Panel) Close() {
	for _, c := range p.cancels {
		c()
	}
	p.cancels = nil
}
