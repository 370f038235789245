/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package entity

import (
	"github.com/google/uuid"

	"skapeditor/internal/binding"
	"skapeditor/internal/control"
	"skapeditor/internal/palette"
	"skapeditor/internal/property"
)

// ColorListener is told when an area's colour or opacity changed through its controls.
type ColorListener interface {
	AreaColorChanged(a *Area)
}

// ColorListenerFunc adapts a plain function to ColorListener.
type ColorListenerFunc func(a *Area)

func (f ColorListenerFunc) AreaColorChanged(a *Area) { f(a) }

// Area is one level region and the objects placed in it.
type Area struct {
	ID            string
	Name          string
	Color         string
	ColorArr      palette.RGB
	Background    string
	BackgroundArr palette.RGB
	Opacity       float64
	Size          [2]float64
	Objects       Objects

	element  *property.Group
	controls map[string]*control.Input
	listener ColorListener
}

type areaParams struct {
	id         string
	name       string
	color      palette.RGB
	opacity    float64
	background palette.RGB
	w, h       float64
	listener   ColorListener
}

// AreaOption overrides one of NewArea's defaults.
type AreaOption func(*areaParams)

func WithAreaID(id string) AreaOption { return func(p *areaParams) { p.id = id } }
func WithName(name string) AreaOption { return func(p *areaParams) { p.name = name } }

func WithAreaColor(c palette.RGB) AreaOption {
	return func(p *areaParams) { p.color = c }
}

func WithAreaOpacity(o float64) AreaOption { return func(p *areaParams) { p.opacity = o } }

func WithBackground(c palette.RGB) AreaOption {
	return func(p *areaParams) { p.background = c }
}

func WithAreaSize(w, h float64) AreaOption {
	return func(p *areaParams) { p.w, p.h = w, h }
}

// WithColorListener registers l for colour changes made through the area's controls.
func WithColorListener(l ColorListener) AreaOption {
	return func(p *areaParams) { p.listener = l }
}

// DefaultAreaColor and DefaultAreaBackground are the colours of a new area.
var (
	DefaultAreaColor      = palette.RGB{0, 10, 87}
	DefaultAreaBackground = palette.RGB{230, 230, 230}
)

// NewArea creates an area with its controls and property tree. Defaults: name "New Area",
// colour [0,10,87] at opacity 0.8, background [230,230,230], size 100x100, no objects.
func NewArea(opts ...AreaOption) *Area {
	p := areaParams{
		name:       "New Area",
		color:      DefaultAreaColor,
		opacity:    0.8,
		background: DefaultAreaBackground,
		w:          100,
		h:          100,
	}
	for _, o := range opts {
		o(&p)
	}
	if p.id == "" {
		p.id = uuid.NewString()
	}

	a := &Area{
		ID:            p.id,
		Name:          p.name,
		Color:         palette.Blend240(p.color, p.opacity),
		ColorArr:      p.color,
		Background:    palette.RGBA(p.background),
		BackgroundArr: p.background,
		Opacity:       p.opacity,
		Size:          [2]float64{p.w, p.h},
		listener:      p.listener,
	}

	nameInput := control.New(p.name)
	binding.Text(nameInput, func(s string) { a.Name = s })

	colorInput := control.New(palette.Hex(p.color))
	binding.Color(colorInput, func() palette.RGB { return a.ColorArr }, func(c palette.RGB) {
		a.ColorArr = c
		a.Color = palette.Blend240(a.ColorArr, a.Opacity)
		a.colorChanged()
	})

	opacityInput := control.New(binding.FormatNumber(p.opacity))
	opacityInput.SetStep(binding.OpacityStep)
	binding.Number(opacityInput, func() float64 { return a.Opacity }, func(v float64) {
		a.Opacity = v
		a.Color = palette.Blend240(a.ColorArr, a.Opacity)
		a.colorChanged()
	}, binding.Opacity)

	backgroundInput := control.New(palette.Hex(p.background))
	binding.Color(backgroundInput, func() palette.RGB { return a.BackgroundArr }, func(c palette.RGB) {
		a.BackgroundArr = c
		a.Background = palette.RGBA(c)
	})

	wInput := control.New(binding.FormatNumber(p.w))
	binding.Number(wInput, func() float64 { return a.Size[0] }, func(v float64) { a.Size[0] = v }, binding.NonNegative)

	hInput := control.New(binding.FormatNumber(p.h))
	binding.Number(hInput, func() float64 { return a.Size[1] }, func(v float64) { a.Size[1] = v }, binding.NonNegative)

	a.element = property.Folder("Area Properties",
		property.Property("name", nameInput, property.Text),
		property.Property("color", colorInput, property.Color),
		property.Property("opacity", opacityInput, property.Number),
		property.Property("background", backgroundInput, property.Color),
		property.Folder("Size",
			property.Property("width", wInput, property.Number),
			property.Property("height", hInput, property.Number),
		),
	)
	a.controls = map[string]*control.Input{
		"name":       nameInput,
		"color":      colorInput,
		"opacity":    opacityInput,
		"background": backgroundInput,
		"w":          wInput,
		"h":          hInput,
	}
	return a
}

func (a *Area) colorChanged() {
	if a.listener != nil {
		a.listener.AreaColorChanged(a)
	}
}

func (a *Area) Element() property.Node { return a.element }

// Inputs exposes the name, width and height controls.
func (a *Area) Inputs() map[string]*control.Input {
	return map[string]*control.Input{
		"name": a.controls["name"],
		"w":    a.controls["w"],
		"h":    a.controls["h"],
	}
}

func (a *Area) Control(field string) (*control.Input, bool) {
	in, ok := a.controls[field]
	return in, ok
}

// SetColorListener replaces the colour listener.
func (a *Area) SetColorListener(l ColorListener) { a.listener = l }

func (a *Area) SetName(name string) { a.controls["name"].Input(name) }

func (a *Area) SetColor(c palette.RGB) { a.controls["color"].Input(palette.Hex(c)) }

func (a *Area) SetOpacity(o float64) { a.controls["opacity"].Input(binding.FormatNumber(o)) }

func (a *Area) SetBackground(c palette.RGB) { a.controls["background"].Input(palette.Hex(c)) }

func (a *Area) SetSize(w, h float64) {
	a.controls["w"].Input(binding.FormatNumber(w))
	a.controls["h"].Input(binding.FormatNumber(h))
}

// AddObject places obj in the area.
func (a *Area) AddObject(obj Object) { a.Objects.Append(obj) }
