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
	"errors"
	"fmt"

	"skapeditor/internal/domain"
)

// ErrNoArea is returned when an area lookup fails.
var ErrNoArea = errors.New("no such area")

// Level is the editor's in-memory level: metadata plus its areas in order.
type Level struct {
	Name    string
	Creator string
	Spawn   Vec
	Areas   []*Area
}

// NewLevel returns a level holding a single default area.
func NewLevel(name string, opts ...AreaOption) *Level {
	return &Level{Name: name, Areas: []*Area{NewArea(opts...)}}
}

// AddArea appends a new area built from opts and returns it.
func (l *Level) AddArea(opts ...AreaOption) *Area {
	a := NewArea(opts...)
	l.Areas = append(l.Areas, a)
	return a
}

// Area finds an area by name or ID.
func (l *Level) Area(ref string) (*Area, error) {
	for _, a := range l.Areas {
		if a.Name == ref || a.ID == ref {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoArea, ref)
}

// RemoveArea deletes the area with the given ID.
func (l *Level) RemoveArea(id string) bool {
	for i, a := range l.Areas {
		if a.ID == id {
			l.Areas = append(l.Areas[:i], l.Areas[i+1:]...)
			return true
		}
	}
	return false
}

// Doc serialises the level with canonical and derived fields.
func (l *Level) Doc() (domain.Level, error) {
	doc := domain.Level{
		Version: domain.CurrentVersion,
		Name:    l.Name,
		Creator: l.Creator,
		Spawn:   domain.Vec{X: l.Spawn.X, Y: l.Spawn.Y},
		Areas:   make([]domain.Area, 0, len(l.Areas)),
	}
	for _, a := range l.Areas {
		ad, err := a.Doc()
		if err != nil {
			return domain.Level{}, fmt.Errorf("area %q: %w", a.Name, err)
		}
		doc.Areas = append(doc.Areas, ad)
	}
	return doc, nil
}

// LevelFromDoc rebuilds a level through the entity factories. listener, if not nil, is
// registered on every area.
func LevelFromDoc(doc domain.Level, listener ColorListener) (*Level, error) {
	l := &Level{
		Name:    doc.Name,
		Creator: doc.Creator,
		Spawn:   Vec{X: doc.Spawn.X, Y: doc.Spawn.Y},
	}
	for i, ad := range doc.Areas {
		a, err := AreaFromDoc(ad, listener)
		if err != nil {
			return nil, fmt.Errorf("area %d: %w", i, err)
		}
		l.Areas = append(l.Areas, a)
	}
	return l, nil
}

// Doc returns the level file form of the area. Every object kind is present in Objects.
func (a *Area) Doc() (domain.Area, error) {
	d := domain.Area{
		ID:            a.ID,
		Name:          a.Name,
		Color:         a.Color,
		ColorArr:      a.ColorArr,
		Background:    a.Background,
		BackgroundArr: a.BackgroundArr,
		Opacity:       a.Opacity,
		Size:          a.Size,
		Objects:       make(map[string][]json.RawMessage, kindCount),
	}
	for _, k := range Kinds() {
		objs := a.Objects.Of(k)
		raws := make([]json.RawMessage, 0, len(objs))
		for _, obj := range objs {
			b, err := obj.MarshalJSON()
			if err != nil {
				return domain.Area{}, fmt.Errorf("marshal %s: %w", k, err)
			}
			raws = append(raws, b)
		}
		d.Objects[k.String()] = raws
	}
	return d, nil
}

// AreaFromDoc rebuilds an area and its objects. Blocks become live entities; other kinds are
// kept as RawObject.
func AreaFromDoc(d domain.Area, listener ColorListener) (*Area, error) {
	a := NewArea(
		WithAreaID(d.ID),
		WithName(d.Name),
		WithAreaColor(d.ColorArr),
		WithAreaOpacity(d.Opacity),
		WithBackground(d.BackgroundArr),
		WithAreaSize(d.Size[0], d.Size[1]),
		WithColorListener(listener),
	)
	// objects are placed in enumeration order so repeated saves are stable
	for _, k := range Kinds() {
		for i, raw := range d.Objects[k.String()] {
			if k != KindBlock {
				a.Objects.Append(NewRawObject(k, raw))
				continue
			}
			var bd domain.Block
			if err := json.Unmarshal(raw, &bd); err != nil {
				return nil, fmt.Errorf("block %d: %w", i, err)
			}
			a.Objects.Append(BlockFromDoc(bd))
		}
	}
	for name := range d.Objects {
		if _, err := ParseKind(name); err != nil {
			return nil, err
		}
	}
	return a, nil
}
