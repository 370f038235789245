/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skapeditor/internal/domain"
	"skapeditor/internal/entity"
	"skapeditor/internal/palette"
)

// sampleLevel returns a level with one area holding two blocks and a raw lava object.
func sampleLevel(t *testing.T) domain.Level {
	t.Helper()
	lvl := entity.NewLevel("Castle", entity.WithName("Hall"))
	hall := lvl.Areas[0]
	hall.AddObject(entity.NewBlock(entity.WithPos(5, 5), entity.WithSize(20, 20), entity.WithColor(palette.RGB{255, 0, 0}), entity.WithCollide(true), entity.WithLayer(2)))
	hall.AddObject(entity.NewBlock(entity.WithPos(40, 10)))
	hall.AddObject(entity.NewRawObject(entity.KindLava, json.RawMessage(`{"pos":{"x":1,"y":2},"size":{"x":3,"y":4}}`)))
	lvl.AddArea(entity.WithName("Cellar"))
	doc, err := lvl.Doc()
	if err != nil {
		t.Fatalf("level doc: %v", err)
	}
	return doc
}

func TestCreateWritesValidLevelFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), LevelPath("castle"))
	h, err := Create(path, sampleLevel(t))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if h.Dir != filepath.Dir(path) {
		t.Fatalf("Dir mismatch: %q", h.Dir)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read level: %v", err)
	}
	if err := Validate(b); err != nil {
		t.Fatalf("written level does not validate: %v", err)
	}
	var got domain.Level
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal level: %v", err)
	}
	if got.Name != "Castle" || len(got.Areas) != 2 || got.Version != domain.CurrentVersion {
		t.Fatalf("level content mismatch: %+v", got)
	}
	if n := len(got.Areas[0].Objects); n != 20 {
		t.Fatalf("expected all 20 object kinds in area, got %d", n)
	}
}

func TestCreateRefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.skap.json")
	if _, err := Create(path, sampleLevel(t)); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := Create(path, sampleLevel(t)); !errors.Is(err, os.ErrExist) {
		t.Fatalf("expected ErrExist, got %v", err)
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.skap.json")
	h, err := Create(path, sampleLevel(t))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	h.Level.Creator = "changed"
	if err := Save(h); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	baks, err := Backups(h)
	if err != nil {
		t.Fatalf("Backups error: %v", err)
	}
	if len(baks) == 0 {
		t.Fatalf("expected at least one backup file, found 0")
	}
	if !strings.HasPrefix(filepath.Base(baks[0]), "backup.skap.json.") {
		t.Fatalf("unexpected backup name %s", baks[0])
	}
}

func TestOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt.skap.json")
	want := sampleLevel(t)
	if _, err := Create(path, want); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	lvl, err := entity.LevelFromDoc(h.Level, nil)
	if err != nil {
		t.Fatalf("LevelFromDoc error: %v", err)
	}
	hall, err := lvl.Area("Hall")
	if err != nil {
		t.Fatalf("area lookup: %v", err)
	}
	blocks := hall.Objects.Blocks()
	if len(blocks) != 2 || blocks[0].Pos.X != 5 || !blocks[0].Collide || blocks[0].Layer != 2 {
		t.Fatalf("blocks not restored: %+v", blocks)
	}
	if n := len(hall.Objects.Of(entity.KindLava)); n != 1 {
		t.Fatalf("raw lava object lost, got %d", n)
	}
}

func TestOpenFallsBackToLatestBackupOnCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fallback.skap.json")
	h, err := Create(path, sampleLevel(t))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	// Force a backup to exist by saving
	h.Level.Creator = "touch"
	if err := Save(h); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := os.WriteFile(path, []byte("{ this is not json"), 0o644); err != nil {
		t.Fatalf("corrupt level: %v", err)
	}
	opened, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if opened.Level.Name != "Castle" {
		t.Fatalf("opened level name mismatch: got %q", opened.Level.Name)
	}
	if opened.RecoveredFrom == "" || filepath.Dir(opened.RecoveredFrom) != filepath.Join(filepath.Dir(path), BackupsDirName) {
		t.Fatalf("fallback backup not recorded: %q", opened.RecoveredFrom)
	}
}

func TestSaveRejectsInvalidLevelAndKeepsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guard.skap.json")
	h, err := Create(path, sampleLevel(t))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	lvl, err := entity.LevelFromDoc(h.Level, nil)
	if err != nil {
		t.Fatalf("LevelFromDoc error: %v", err)
	}
	lvl.Areas[0].AddObject(entity.NewBlock(entity.WithPos(-4, 1)))
	if h.Level, err = lvl.Doc(); err != nil {
		t.Fatalf("level doc: %v", err)
	}
	if err := Save(h); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatalf("rejected save changed the level file")
	}
	if baks, _ := Backups(h); len(baks) != 0 {
		t.Fatalf("rejected save left backups: %v", baks)
	}
	if _, err := Create(filepath.Join(filepath.Dir(path), "neg.skap.json"), h.Level); !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("Create with invalid level: expected ErrInvalidLevel, got %v", err)
	}
}

func TestSavedLevelsReopenUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edits.skap.json")
	h, err := Create(path, sampleLevel(t))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	for i := 1; i <= 3; i++ {
		lvl, err := entity.LevelFromDoc(h.Level, nil)
		if err != nil {
			t.Fatalf("LevelFromDoc error: %v", err)
		}
		lvl.Areas[0].AddObject(entity.NewBlock(entity.WithPos(float64(i), 1)))
		if h.Level, err = lvl.Doc(); err != nil {
			t.Fatalf("level doc: %v", err)
		}
		if err := Save(h); err != nil {
			t.Fatalf("Save %d error: %v", i, err)
		}
		opened, err := Open(path)
		if err != nil {
			t.Fatalf("Open after save %d: %v", i, err)
		}
		if opened.RecoveredFrom != "" {
			t.Fatalf("save %d reopened from backup %s", i, opened.RecoveredFrom)
		}
		want, _ := json.Marshal(h.Level)
		got, _ := json.Marshal(opened.Level)
		if string(want) != string(got) {
			t.Fatalf("save %d did not reopen unchanged:\nwant %s\ngot  %s", i, want, got)
		}
	}
}

func TestOpenRejectsSchemaViolationWithoutBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.skap.json")
	bad := `{"name":"x","areas":[{"name":"a","colorArr":[0,0,0],"backgroundArr":[0,0,0],"opacity":2,"size":[1,1],"objects":{}}]}`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path)
	if !errors.Is(err, ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
}

func TestOpenRejectsNewerFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.skap.json")
	if err := os.WriteFile(path, []byte(`{"version":99,"name":"x","areas":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); !errors.Is(err, ErrNewerFormat) {
		t.Fatalf("expected ErrNewerFormat, got %v", err)
	}
}

func TestOpenDefaultsMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.skap.json")
	if err := os.WriteFile(path, []byte(`{"name":"old","areas":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	h, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if h.Level.Version != domain.CurrentVersion {
		t.Fatalf("version not defaulted: %d", h.Level.Version)
	}
}

func TestSaveAsMovesHandle(t *testing.T) {
	dir := t.TempDir()
	h, err := Create(filepath.Join(dir, "one.skap.json"), sampleLevel(t))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	target := filepath.Join(dir, "sub", "two.skap.json")
	if err := SaveAs(h, target); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	if h.Path != target || h.Dir != filepath.Dir(target) {
		t.Fatalf("handle not updated: %+v", h)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("target missing: %v", err)
	}
}

func TestAutosaveCrashSnapshotWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crash.skap.json")
	h, err := Create(path, sampleLevel(t))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	h.Level.Name = "Unsaved"
	snap, err := AutosaveCrashSnapshot(h)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot error: %v", err)
	}
	b, err := os.ReadFile(snap)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var got domain.Level
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if got.Name != "Unsaved" {
		t.Fatalf("snapshot content mismatch: got %q", got.Name)
	}
	// the level file itself is untouched
	onDisk, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if onDisk.Level.Name != "Castle" {
		t.Fatalf("level file changed by snapshot: %q", onDisk.Level.Name)
	}
}

func TestLevelPath(t *testing.T) {
	if got := LevelPath("castle"); got != "castle.skap.json" {
		t.Fatalf("LevelPath = %q", got)
	}
	if got := LevelPath("castle.SKAP.json"); got != "castle.SKAP.json" {
		t.Fatalf("LevelPath kept suffix wrong: %q", got)
	}
}
