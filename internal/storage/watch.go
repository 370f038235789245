/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	applog "skapeditor/internal/log"
)

// DefaultDebounce drops repeated events for the same file inside this window.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports level files changed on disk by other programs.
// It watches directories (editors replace files by rename) and filters to *.skap.json.
type Watcher struct {
	watcher  *fsnotify.Watcher
	Events   chan string
	Errors   chan error
	closeCh  chan struct{}
	once     sync.Once
	debounce time.Duration

	mu     sync.Mutex
	ignore map[string]time.Time
}

// NewWatcher watches the given directories for level file changes.
func NewWatcher(dirs ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	watcher := &Watcher{
		watcher:  w,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		debounce: DefaultDebounce,
		ignore:   map[string]time.Time{},
	}
	go watcher.run()
	return watcher, nil
}

// IgnoreNext suppresses events for path until d has passed, so the editor's own saves are not reported back.
func (w *Watcher) IgnoreNext(path string, d time.Duration) {
	w.mu.Lock()
	w.ignore[cleanPath(path)] = time.Now().Add(d)
	w.mu.Unlock()
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Events)
	defer close(w.Errors)
	l := applog.WithComponent("watcher")
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !IsLevelFile(event.Name) || isTempFile(event.Name) {
				continue
			}
			name := cleanPath(event.Name)
			now := time.Now()
			if w.ignored(name, now) {
				continue
			}
			if t, ok := last[name]; ok && now.Sub(t) < w.debounce {
				continue
			}
			last[name] = now
			l.Debug("level changed on disk", slog.String("path", name), slog.String("op", event.Op.String()))
			select {
			case w.Events <- name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
				l.Warn("watcher error dropped", slog.Any("err", err))
			}
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) ignored(path string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	until, ok := w.ignore[path]
	if !ok {
		return false
	}
	if now.After(until) {
		delete(w.ignore, path)
		return false
	}
	return true
}

// IsLevelFile reports whether path names a level file.
func IsLevelFile(path string) bool {
	return strings.HasSuffix(strings.ToLower(filepath.Base(path)), LevelFileExt)
}

func isTempFile(path string) bool { return strings.HasPrefix(filepath.Base(path), ".") }

func cleanPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	if resolved, err := filepath.EvalSymlinks(filepath.Dir(p)); err == nil {
		p = filepath.Join(resolved, filepath.Base(p))
	}
	return filepath.Clean(p)
}

// SamePath reports whether a and b name the same file once made absolute and symlink free.
func SamePath(a, b string) bool { return cleanPath(a) == cleanPath(b) }

// ListLevels returns the level files in dir, sorted by name.
func ListLevels(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		if !e.IsDir() && IsLevelFile(e.Name()) && !isTempFile(e.Name()) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}
