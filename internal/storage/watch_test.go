/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitEvent(t *testing.T, w *Watcher, timeout time.Duration) (string, bool) {
	t.Helper()
	select {
	case p, ok := <-w.Events:
		return p, ok
	case <-time.After(timeout):
		return "", false
	}
}

func TestWatcherReportsLevelWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	target := filepath.Join(dir, "castle.skap.json")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(target, []byte("{}"), 0o644))

	got, ok := waitEvent(t, w, 2*time.Second)
	require.True(t, ok, "no event for level file")
	assert.Equal(t, cleanPath(target), got)
}

func TestWatcherIgnoreNext(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	own := filepath.Join(dir, "own.skap.json")
	w.IgnoreNext(own, time.Second)
	require.NoError(t, os.WriteFile(own, []byte("{}"), 0o644))

	other := filepath.Join(dir, "other.skap.json")
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(other, []byte("{}"), 0o644))

	got, ok := waitEvent(t, w, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, cleanPath(other), got)
}

func TestWatcherCloseClosesEvents(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, ok := waitEvent(t, w, time.Second)
	assert.False(t, ok)
}

func TestListLevels(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.skap.json", "a.skap.json", "readme.md", ".a.skap.json.tmp-1-2"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("{}"), 0o644))
	}
	got, err := ListLevels(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.skap.json"), filepath.Join(dir, "b.skap.json")}, got)
}

func TestSamePath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.skap.json")
	assert.True(t, SamePath(p, filepath.Join(dir, "sub", "..", "a.skap.json")))
	assert.False(t, SamePath(p, filepath.Join(dir, "b.skap.json")))
}
