/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"skapeditor/internal/config"
	"skapeditor/internal/crash"
	"skapeditor/internal/entity"
	"skapeditor/internal/export"
	applog "skapeditor/internal/log"
	"skapeditor/internal/property"
	"skapeditor/internal/snap"
	"skapeditor/internal/storage"
	"skapeditor/internal/theme"
)

var (
	ErrNoLevel = errors.New("no level open")
	ErrUnsaved = errors.New("level has unsaved edits")
)

// Session is the editor state behind the window: the open level file, the area being edited
// and the entity shown in the inspector. It does not depend on fyne and is driven by the
// window's callbacks on the UI goroutine.
type Session struct {
	cfg   config.AppConfig
	log   *slog.Logger
	Sheet *theme.Sheet

	handle   *storage.LevelHandle
	level    *entity.Level
	area     int
	selected *entity.Block
	dirty    bool
	cancels  []func()

	// Snap controls how MoveSelected aligns a dragged block.
	Snap snap.Options

	// OnChange runs after every edit of the open level.
	OnChange func()
	// BeforeWrite runs with the level path right before the file is written.
	BeforeWrite func(path string)
}

func NewSession(cfg config.AppConfig) *Session {
	return &Session{cfg: cfg, log: applog.WithComponent("editor"), Sheet: theme.NewSheet(), Snap: snap.DefaultOptions()}
}

// Level returns the open level, nil when none is open.
func (s *Session) Level() *entity.Level { return s.level }

// Handle returns the open level file, nil when none is open.
func (s *Session) Handle() *storage.LevelHandle { return s.handle }

// Dirty reports unsaved edits.
func (s *Session) Dirty() bool { return s.dirty }

// Title is the window title for the current state.
func (s *Session) Title() string {
	if s.level == nil {
		return "skapeditor"
	}
	mark := ""
	if s.dirty {
		mark = "*"
	}
	return fmt.Sprintf("skapeditor - %s%s", s.level.Name, mark)
}

// Current returns what a crash must autosave. It fits crash.RecoverCurrent.
func (s *Session) Current() (*storage.LevelHandle, crash.Snapshot) {
	if s.level == nil {
		return s.handle, nil
	}
	return s.handle, s.level.Doc
}

func (s *Session) areaOptions() []entity.AreaOption {
	return []entity.AreaOption{
		entity.WithAreaColor(s.cfg.Editor.AreaColorRGB()),
		entity.WithBackground(s.cfg.Editor.AreaBackgroundRGB()),
		entity.WithAreaOpacity(s.cfg.Editor.AreaOpacity),
		entity.WithColorListener(s.Sheet),
	}
}

// New creates a level file at path holding one default area and opens it.
func (s *Session) New(path, name string) error {
	lvl := entity.NewLevel(name, s.areaOptions()...)
	doc, err := lvl.Doc()
	if err != nil {
		return err
	}
	path = storage.LevelPath(path)
	if s.BeforeWrite != nil {
		s.BeforeWrite(path)
	}
	h, err := storage.Create(path, doc)
	if err != nil {
		return err
	}
	s.log.Info("level created", slog.String("path", h.Path))
	s.load(h, lvl, 0)
	return nil
}

// Open loads the level file at path.
func (s *Session) Open(path string) error {
	h, err := storage.Open(path)
	if err != nil {
		return err
	}
	lvl, err := entity.LevelFromDoc(h.Level, s.Sheet)
	if err != nil {
		return fmt.Errorf("load %s: %w", h.Path, err)
	}
	s.log.Info("level opened", slog.String("path", h.Path), slog.Int("areas", len(lvl.Areas)))
	s.load(h, lvl, 0)
	return nil
}

// Reload re-reads the open file after an external change. Unsaved edits are never dropped;
// ErrUnsaved is returned instead.
func (s *Session) Reload() error {
	if s.handle == nil {
		return ErrNoLevel
	}
	if s.dirty {
		return ErrUnsaved
	}
	h, err := storage.Open(s.handle.Path)
	if err != nil {
		return err
	}
	lvl, err := entity.LevelFromDoc(h.Level, s.Sheet)
	if err != nil {
		return fmt.Errorf("reload %s: %w", h.Path, err)
	}
	s.load(h, lvl, s.area)
	s.log.Info("level reloaded", slog.String("path", h.Path))
	return nil
}

func (s *Session) load(h *storage.LevelHandle, lvl *entity.Level, area int) {
	s.Close()
	s.handle, s.level = h, lvl
	s.selected, s.dirty = nil, false
	for _, a := range lvl.Areas {
		a.SetColorListener(s.Sheet)
		s.watch(a.Element())
		for _, b := range a.Objects.Blocks() {
			s.watch(b.Element())
		}
	}
	s.area = 0
	if area > 0 && area < len(lvl.Areas) {
		s.area = area
	}
	if a := s.Area(); a != nil {
		s.Sheet.ApplyArea(a)
	}
	s.updateIndex()
}

// Close forgets the open level.
func (s *Session) Close() {
	for _, c := range s.cancels {
		c()
	}
	s.cancels = nil
	s.handle, s.level, s.selected = nil, nil, nil
	s.dirty = false
}

func (s *Session) watch(n property.Node) {
	for _, leaf := range property.Leaves(n) {
		s.cancels = append(s.cancels, leaf.Control.Watch(s.touch))
	}
}

func (s *Session) touch() {
	s.dirty = true
	if s.OnChange != nil {
		s.OnChange()
	}
}

// Area returns the area being edited.
func (s *Session) Area() *entity.Area {
	if s.level == nil || s.area >= len(s.level.Areas) {
		return nil
	}
	return s.level.Areas[s.area]
}

// AreaIndex returns the position of the area being edited.
func (s *Session) AreaIndex() int { return s.area }

// SelectArea switches the edited area and clears the block selection.
func (s *Session) SelectArea(i int) error {
	if s.level == nil {
		return ErrNoLevel
	}
	if i < 0 || i >= len(s.level.Areas) {
		return fmt.Errorf("%w: index %d", entity.ErrNoArea, i)
	}
	s.area, s.selected = i, nil
	s.Sheet.ApplyArea(s.level.Areas[i])
	return nil
}

// AddArea appends a default area named name and selects it.
func (s *Session) AddArea(name string) (*entity.Area, error) {
	if s.level == nil {
		return nil, ErrNoLevel
	}
	a := s.level.AddArea(append(s.areaOptions(), entity.WithName(name))...)
	s.watch(a.Element())
	if err := s.SelectArea(len(s.level.Areas) - 1); err != nil {
		return nil, err
	}
	s.touch()
	return a, nil
}

// AddBlock places a block in the edited area and selects it. The configured block colour
// applies unless opts set one.
func (s *Session) AddBlock(opts ...entity.BlockOption) (*entity.Block, error) {
	a := s.Area()
	if a == nil {
		return nil, ErrNoLevel
	}
	b := entity.NewBlock(append([]entity.BlockOption{entity.WithColor(s.cfg.Editor.BlockColorRGB())}, opts...)...)
	// replay position and size through the controls so they are clamped like panel edits
	b.SetPos(b.Pos.X, b.Pos.Y)
	b.SetSize(b.Size.X, b.Size.Y)
	a.AddObject(b)
	s.watch(b.Element())
	s.selected = b
	s.touch()
	return b, nil
}

// Select shows b in the inspector; nil shows the area.
func (s *Session) Select(b *entity.Block) { s.selected = b }

// Selected returns the selected block or nil.
func (s *Session) Selected() *entity.Block { return s.selected }

// RemoveSelected deletes the selected block from the edited area.
func (s *Session) RemoveSelected() bool {
	a := s.Area()
	if a == nil || s.selected == nil {
		return false
	}
	for i, obj := range a.Objects.Of(entity.KindBlock) {
		if obj == entity.Object(s.selected) {
			a.Objects.Remove(entity.KindBlock, i)
			s.selected = nil
			s.touch()
			return true
		}
	}
	return false
}

// MoveSelected places the selected block at x, y, aligned to the area bounds and the other
// blocks of the area. It returns the guides that applied.
func (s *Session) MoveSelected(x, y float64) ([]snap.Guide, error) {
	a, b := s.Area(), s.selected
	if a == nil || b == nil {
		return nil, ErrNoLevel
	}
	anchors := []snap.Rect{{W: a.Size[0], H: a.Size[1]}}
	for _, o := range a.Objects.Blocks() {
		if o != b {
			anchors = append(anchors, snap.Rect{X: o.Pos.X, Y: o.Pos.Y, W: o.Size.X, H: o.Size.Y})
		}
	}
	r, guides := snap.Align(snap.Rect{X: x, Y: y, W: b.Size.X, H: b.Size.Y}, anchors, s.Snap)
	if r.X != b.Pos.X || r.Y != b.Pos.Y {
		b.SetPos(r.X, r.Y)
	}
	return guides, nil
}

// Target is the entity the inspector edits: the selected block, else the area.
func (s *Session) Target() entity.Entity {
	if s.selected != nil {
		return s.selected
	}
	if a := s.Area(); a != nil {
		return a
	}
	return nil
}

// Inspector returns the property tree of Target, nil when no level is open.
func (s *Session) Inspector() property.Node {
	if t := s.Target(); t != nil {
		return t.Element()
	}
	return nil
}

// SetField edits a field of Target through its control.
func (s *Session) SetField(field, raw string) error {
	t := s.Target()
	if t == nil {
		return ErrNoLevel
	}
	return entity.SetField(t, field, raw)
}

// Save writes the open level to its file and refreshes the index.
func (s *Session) Save() error {
	if s.handle == nil || s.level == nil {
		return ErrNoLevel
	}
	doc, err := s.level.Doc()
	if err != nil {
		return err
	}
	s.handle.Level = doc
	if s.BeforeWrite != nil {
		s.BeforeWrite(s.handle.Path)
	}
	if err := storage.Save(s.handle); err != nil {
		return err
	}
	s.dirty = false
	s.log.Info("level saved", slog.String("path", s.handle.Path))
	s.updateIndex()
	return nil
}

// SaveAs writes the open level to path and continues editing there.
func (s *Session) SaveAs(path string) error {
	if s.handle == nil || s.level == nil {
		return ErrNoLevel
	}
	doc, err := s.level.Doc()
	if err != nil {
		return err
	}
	s.handle.Level = doc
	path = storage.LevelPath(path)
	if s.BeforeWrite != nil {
		s.BeforeWrite(path)
	}
	if err := storage.SaveAs(s.handle, path); err != nil {
		return err
	}
	s.dirty = false
	s.updateIndex()
	return nil
}

// AutosaveIfDirty saves when there are unsaved edits and reports whether it did.
func (s *Session) AutosaveIfDirty() (bool, error) {
	if !s.dirty || s.handle == nil {
		return false, nil
	}
	if err := s.Save(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Session) updateIndex() {
	if s.handle == nil {
		return
	}
	if err := storage.UpdateIndex(context.Background(), s.handle); err != nil {
		s.log.Warn("index update failed", slog.String("path", s.handle.Path), slog.Any("err", err))
	}
}

// Thumbnail returns a PNG of area i fitted in maxW x maxH, cached in the level index until
// the area changes.
func (s *Session) Thumbnail(ctx context.Context, i, maxW, maxH int) ([]byte, error) {
	if s.handle == nil || s.level == nil {
		return nil, ErrNoLevel
	}
	if i < 0 || i >= len(s.level.Areas) {
		return nil, fmt.Errorf("%w: index %d", entity.ErrNoArea, i)
	}
	doc, err := s.level.Areas[i].Doc()
	if err != nil {
		return nil, err
	}
	key := storage.PreviewKey{
		File:   s.handle.Base(),
		AreaID: doc.ID,
		Kind:   storage.PreviewKindThumb,
		W:      maxW,
		H:      maxH,
		Rev:    storage.AreaRevision(doc),
	}
	opt := export.PNGOptions{Scale: s.cfg.Export.PNGScale, Outline: true, MaxW: maxW, MaxH: maxH}
	return storage.GetOrCreatePreview(ctx, s.handle.Dir, key, func(context.Context) ([]byte, error) {
		return export.AreaPNGBytes(doc, opt)
	})
}
