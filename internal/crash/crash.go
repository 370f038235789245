/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report and an autosave of the open level.
package crash

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"skapeditor/internal/domain"
	applog "skapeditor/internal/log"
	"skapeditor/internal/storage"
	"skapeditor/internal/telemetry"
	"skapeditor/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// stderr receives the user-facing crash message.
var stderr io.Writer = os.Stderr

// Snapshot returns the live level to autosave. (*entity.Level).Doc fits.
type Snapshot func() (domain.Level, error)

// Recover captures a panic, logs an error with stacktrace, writes an error report file,
// and autosaves the live level next to h's backups (if h is provided).
//
// Usage: defer crash.Recover(h, lvl.Doc)
func Recover(h *storage.LevelHandle, snap Snapshot) {
	r := recover()
	if r == nil {
		return
	}
	handle(r, h, snap)
}

// RecoverCurrent is Recover for callers whose open level changes while they run, such as the
// editor window. current is only consulted after a panic.
//
// Usage: defer crash.RecoverCurrent(session.current)
func RecoverCurrent(current func() (*storage.LevelHandle, Snapshot)) {
	r := recover()
	if r == nil {
		return
	}
	var h *storage.LevelHandle
	var snap Snapshot
	if current != nil {
		h, snap = current()
	}
	handle(r, h, snap)
}

func handle(r any, h *storage.LevelHandle, snap Snapshot) {
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	report := buildReport(h, r, stack)
	reportPath, err := writeReport(h, report)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	telemetry.UploadCrash(report)
	if h != nil {
		if path, err := autosave(h, snap); err != nil {
			l.Error("autosave crash snapshot failed", slog.Any("err", err))
		} else {
			l.Info("autosave crash snapshot written", slog.String("path", path))
		}
	}

	if _, err := fmt.Fprintf(stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	if _, err := fmt.Fprintf(stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
		l.Error("failed to write version info to stderr", slog.Any("err", err))
	}
	// non-zero code marks the failure for scripts driving the CLI
	exitFn(2)
}

// autosave refreshes h.Level from snap and writes a crash snapshot. A snapshot that fails or
// panics itself leaves the last loaded level in place.
func autosave(h *storage.LevelHandle, snap Snapshot) (string, error) {
	if snap != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					applog.WithComponent("crash").Warn("live level unavailable", slog.Any("panic", r))
				}
			}()
			if lvl, err := snap(); err == nil {
				h.Level = lvl
			} else {
				applog.WithComponent("crash").Warn("live level unavailable", slog.Any("err", err))
			}
		}()
	}
	return storage.AutosaveCrashSnapshot(h)
}

func buildReport(h *storage.LevelHandle, panicVal any, stack []byte) []byte {
	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "skapeditor Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if h != nil {
		_, _ = fmt.Fprintf(&buf, "Level: %s\n", h.Path)
		_, _ = fmt.Fprintf(&buf, "Areas: %d\n", len(h.Level.Areas))
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))
	return buf.Bytes()
}

func writeReport(h *storage.LevelHandle, report []byte) (string, error) {
	dir := os.TempDir()
	if h != nil && h.Path != "" {
		dir = filepath.Join(filepath.Dir(h.Path), storage.BackupsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()
	if _, err := f.Write(report); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}
