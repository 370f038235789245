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
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"skapeditor/internal/domain"
	applog "skapeditor/internal/log"
)

const (
	LevelFileExt   = ".skap.json"
	BackupsDirName = "backups"
)

// ErrNewerFormat is returned when a level file was written by a newer editor.
var ErrNewerFormat = errors.New("level file format is newer than this editor")

// LevelHandle keeps track of a level file loaded/saved from disk.
// Dir is the directory holding the file, its backups folder and the index.
type LevelHandle struct {
	Path  string
	Dir   string
	Level domain.Level
	// RecoveredFrom is the backup Open fell back to because the level file was unusable.
	RecoveredFrom string
}

// Base returns the file name without directory.
func (h *LevelHandle) Base() string { return filepath.Base(h.Path) }

// LevelPath appends the level file extension to name unless it is already present.
func LevelPath(name string) string {
	if strings.HasSuffix(strings.ToLower(name), LevelFileExt) {
		return name
	}
	return name + LevelFileExt
}

// Create writes a new level file at path (creating parent directories) and returns its handle.
// An existing file is not overwritten.
func Create(path string, lvl domain.Level) (*LevelHandle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("level path is required")
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("create %s: %w", path, os.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create level dir: %w", err)
	}
	if lvl.Version == 0 {
		lvl.Version = domain.CurrentVersion
	}
	h := &LevelHandle{Path: path, Dir: filepath.Dir(path), Level: lvl}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open loads and validates an existing level file.
// If the file cannot be read, parsed or validated, it will attempt the latest backup.
func Open(path string) (*LevelHandle, error) {
	h := &LevelHandle{Path: path, Dir: filepath.Dir(path)}
	lvl, err := readLevel(path)
	if err != nil {
		if errors.Is(err, ErrNewerFormat) {
			return nil, err
		}
		blvl, bpath, berr := openFromLatestBackup(h)
		if berr != nil {
			return nil, fmt.Errorf("open level: %w; backup attempt: %v", err, berr)
		}
		applog.WithComponent("storage").Warn("level file unusable; opened latest backup",
			slog.String("path", path), slog.String("backup", bpath), slog.Any("err", err))
		lvl = blvl
		h.RecoveredFrom = bpath
	}
	h.Level = *lvl
	return h, nil
}

func readLevel(path string) (*domain.Level, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(b); err != nil {
		return nil, err
	}
	var lvl domain.Level
	if err := json.Unmarshal(b, &lvl); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	switch {
	case lvl.Version > domain.CurrentVersion:
		return nil, fmt.Errorf("%s has version %d: %w", path, lvl.Version, ErrNewerFormat)
	case lvl.Version == 0:
		lvl.Version = domain.CurrentVersion
	}
	return &lvl, nil
}

// Save writes h.Level to disk with transactional semantics
// and a timestamped backup of the previous file (if present).
// A level that would not pass Validate is rejected before anything is written.
func Save(h *LevelHandle) error {
	if h == nil {
		return errors.New("nil LevelHandle")
	}
	if h.Path == "" {
		return errors.New("invalid LevelHandle: missing path")
	}
	if h.Dir == "" {
		h.Dir = filepath.Dir(h.Path)
	}
	data, err := json.MarshalIndent(h.Level, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal level: %w", err)
	}
	data = append(data, '\n')
	if err := Validate(data); err != nil {
		return fmt.Errorf("save %s: %w", h.Base(), err)
	}

	if _, statErr := os.Stat(h.Path); statErr == nil {
		bdir := filepath.Join(h.Dir, BackupsDirName)
		if err := os.MkdirAll(bdir, 0o755); err != nil {
			return fmt.Errorf("ensure backups dir: %w", err)
		}
		stamp := time.Now().Format("20060102-150405.000")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", h.Base(), stamp))
		if cerr := copyFile(h.Path, bpath); cerr != nil {
			return fmt.Errorf("backup current level: %w", cerr)
		}
	}
	return writeAtomic(h.Path, data)
}

// SaveAs writes the level to a new path and updates the handle.
func SaveAs(h *LevelHandle, newPath string) error {
	if h == nil {
		return errors.New("nil LevelHandle")
	}
	if newPath == "" {
		return errors.New("new path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return fmt.Errorf("create level dir: %w", err)
	}
	h.Path = newPath
	h.Dir = filepath.Dir(newPath)
	return Save(h)
}

// AutosaveCrashSnapshot writes h.Level next to the backups without touching the level file.
// It returns the snapshot path.
func AutosaveCrashSnapshot(h *LevelHandle) (string, error) {
	if h == nil || h.Path == "" {
		return "", errors.New("invalid LevelHandle")
	}
	bdir := filepath.Join(filepath.Dir(h.Path), BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	data, err := json.MarshalIndent(h.Level, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal level: %w", err)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("%s.crash-%s.json", h.Base(), stamp))
	if err := writeAtomic(path, append(data, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

// Backups lists the timestamped backups of the level file, oldest first.
func Backups(h *LevelHandle) ([]string, error) {
	bdir := filepath.Join(h.Dir, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, h.Base()+".") && strings.HasSuffix(name, ".bak") {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

// openFromLatestBackup returns the newest backup that still reads and validates.
func openFromLatestBackup(h *LevelHandle) (*domain.Level, string, error) {
	candidates, err := Backups(h)
	if err != nil {
		return nil, "", err
	}
	if len(candidates) == 0 {
		return nil, "", errors.New("no backups found")
	}
	var lastErr error
	for i := len(candidates) - 1; i >= 0; i-- {
		lvl, err := readLevel(candidates[i])
		if err == nil {
			return lvl, candidates[i], nil
		}
		lastErr = err
	}
	return nil, "", fmt.Errorf("no usable backup: %w", lastErr)
}

// writeAtomic writes to a temp file in the same directory, then renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if rerr := os.Rename(temp, path); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), rerr)
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
