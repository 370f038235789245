/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package entity

import (
	"encoding/json"
	"strconv"

	"github.com/google/uuid"

	"skapeditor/internal/binding"
	"skapeditor/internal/control"
	"skapeditor/internal/domain"
	"skapeditor/internal/palette"
	"skapeditor/internal/property"
)

// BlockType is the type tag written for blocks.
const BlockType = "block"

// Vec is a 2D position or extent.
type Vec struct {
	X, Y float64
}

// Block is a positioned rectangle.
type Block struct {
	ID       string
	Pos      Vec
	Size     Vec
	ColorArr palette.RGB
	Color    string
	Opacity  float64
	Collide  bool
	Layer    int
	Type     string

	element *property.Group
	inputs  map[string]*control.Input
}

type blockParams struct {
	id      string
	x, y    float64
	w, h    float64
	color   palette.RGB
	opacity float64
	collide bool
	layer   int
}

// BlockOption overrides one of NewBlock's defaults.
type BlockOption func(*blockParams)

func WithBlockID(id string) BlockOption { return func(p *blockParams) { p.id = id } }

func WithPos(x, y float64) BlockOption {
	return func(p *blockParams) { p.x, p.y = x, y }
}

func WithSize(w, h float64) BlockOption {
	return func(p *blockParams) { p.w, p.h = w, h }
}

func WithColor(c palette.RGB) BlockOption  { return func(p *blockParams) { p.color = c } }
func WithOpacity(o float64) BlockOption    { return func(p *blockParams) { p.opacity = o } }
func WithCollide(collide bool) BlockOption { return func(p *blockParams) { p.collide = collide } }
func WithLayer(layer int) BlockOption      { return func(p *blockParams) { p.layer = layer } }

// NewBlock creates a block with its controls and property tree. Defaults: at 0,0, 10x10,
// black, opaque, not colliding, layer 0. The block is not placed in any area.
func NewBlock(opts ...BlockOption) *Block {
	p := blockParams{w: 10, h: 10, opacity: 1}
	for _, o := range opts {
		o(&p)
	}
	if p.id == "" {
		p.id = uuid.NewString()
	}

	b := &Block{
		ID:       p.id,
		Pos:      Vec{X: p.x, Y: p.y},
		Size:     Vec{X: p.w, Y: p.h},
		ColorArr: p.color,
		Color:    palette.RGBA(p.color),
		Opacity:  p.opacity,
		Collide:  p.collide,
		Layer:    p.layer,
		Type:     BlockType,
	}

	xInput := numberInput(p.x, func() float64 { return b.Pos.X }, func(v float64) { b.Pos.X = v })
	yInput := numberInput(p.y, func() float64 { return b.Pos.Y }, func(v float64) { b.Pos.Y = v })
	wInput := numberInput(p.w, func() float64 { return b.Size.X }, func(v float64) { b.Size.X = v })
	hInput := numberInput(p.h, func() float64 { return b.Size.Y }, func(v float64) { b.Size.Y = v })

	colorInput := control.New(palette.Hex(p.color))
	binding.Color(colorInput, func() palette.RGB { return b.ColorArr }, func(c palette.RGB) {
		b.ColorArr = c
		b.Color = palette.RGBA(c)
	})

	opacityInput := control.New(binding.FormatNumber(p.opacity))
	opacityInput.SetStep(binding.OpacityStep)
	binding.Number(opacityInput, func() float64 { return b.Opacity }, func(v float64) { b.Opacity = v }, binding.Opacity)

	collideInput := control.NewSwitch(p.collide)
	binding.Switch(collideInput, func() bool { return b.Collide }, func(v bool) { b.Collide = v })

	layerInput := control.New(strconv.Itoa(p.layer))
	binding.Int(layerInput, func() int { return b.Layer }, func(v int) { b.Layer = v }, binding.Layer)

	b.element = property.Folder("Block Properties",
		property.Folder("Position",
			property.Property("x", xInput, property.Number),
			property.Property("y", yInput, property.Number),
		),
		property.Folder("Size",
			property.Property("width", wInput, property.Number),
			property.Property("height", hInput, property.Number),
		),
		property.Property("color", colorInput, property.Color),
		property.Property("opacity", opacityInput, property.Number),
		property.Property("collide", collideInput, property.Switch),
		property.Property("layer", layerInput, property.Number),
	)
	b.inputs = map[string]*control.Input{
		"x":       xInput,
		"y":       yInput,
		"w":       wInput,
		"h":       hInput,
		"color":   colorInput,
		"opacity": opacityInput,
		"collide": collideInput,
		"layer":   layerInput,
	}
	return b
}

func numberInput(v float64, get func() float64, set func(float64)) *control.Input {
	in := control.New(binding.FormatNumber(v))
	binding.Number(in, get, set, binding.NonNegative)
	return in
}

func (b *Block) Kind() Kind { return KindBlock }

func (b *Block) Element() property.Node { return b.element }

// Inputs exposes every control of the block.
func (b *Block) Inputs() map[string]*control.Input {
	out := make(map[string]*control.Input, len(b.inputs))
	for k, v := range b.inputs {
		out[k] = v
	}
	return out
}

func (b *Block) Control(field string) (*control.Input, bool) {
	in, ok := b.inputs[field]
	return in, ok
}

func (b *Block) SetPos(x, y float64) {
	b.inputs["x"].Input(binding.FormatNumber(x))
	b.inputs["y"].Input(binding.FormatNumber(y))
}

func (b *Block) SetSize(w, h float64) {
	b.inputs["w"].Input(binding.FormatNumber(w))
	b.inputs["h"].Input(binding.FormatNumber(h))
}

func (b *Block) SetColor(c palette.RGB)  { b.inputs["color"].Input(palette.Hex(c)) }
func (b *Block) SetOpacity(o float64)    { b.inputs["opacity"].Input(binding.FormatNumber(o)) }
func (b *Block) SetCollide(collide bool) { b.inputs["collide"].Toggle(collide) }
func (b *Block) SetLayer(layer int)      { b.inputs["layer"].Input(strconv.Itoa(layer)) }

// Doc returns the level file form of the block.
func (b *Block) Doc() domain.Block {
	return domain.Block{
		ID:       b.ID,
		Type:     b.Type,
		Pos:      domain.Vec{X: b.Pos.X, Y: b.Pos.Y},
		Size:     domain.Vec{X: b.Size.X, Y: b.Size.Y},
		Color:    b.Color,
		ColorArr: b.ColorArr,
		Opacity:  b.Opacity,
		Collide:  b.Collide,
		Layer:    b.Layer,
	}
}

func (b *Block) MarshalJSON() ([]byte, error) { return json.Marshal(b.Doc()) }

// BlockFromDoc rebuilds a block from its level file form.
func BlockFromDoc(d domain.Block) *Block {
	return NewBlock(
		WithBlockID(d.ID),
		WithPos(d.Pos.X, d.Pos.Y),
		WithSize(d.Size.X, d.Size.Y),
		WithColor(d.ColorArr),
		WithOpacity(d.Opacity),
		WithCollide(d.Collide),
		WithLayer(d.Layer),
	)
}
