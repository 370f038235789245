/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skapeditor/internal/storage"
	"skapeditor/internal/version"
)

func setup(t *testing.T) string {
	t.Helper()
	t.Setenv("SKAP_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("SKAP_LOG_LEVEL", "error")
	return t.TempDir()
}

func runOut(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var buf bytes.Buffer
	code := run(args, &buf)
	return code, buf.String()
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	setup(t)
	code, out := runOut(t)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Usage:")
}

func TestRun_Version(t *testing.T) {
	setup(t)
	code, out := runOut(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, version.Version)
}

func TestRun_UnknownCommand(t *testing.T) {
	setup(t)
	code, out := runOut(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, out, `unknown command "frobnicate"`)
}

func TestRun_MissingArgs(t *testing.T) {
	setup(t)
	for _, cmd := range []string{"new", "open", "add-block", "set", "export-png", "export-pdf", "export", "thumb", "index", "find", "validate"} {
		code, out := runOut(t, cmd)
		assert.Equal(t, 2, code, cmd)
		assert.Contains(t, out, cmd+" requires", cmd)
	}
}

func TestRun_EditFlow(t *testing.T) {
	dir := setup(t)
	file := filepath.Join(dir, "castle")

	code, out := runOut(t, "new", file, "Castle Run")
	require.Equal(t, 0, code, out)
	path := file + storage.LevelFileExt
	require.FileExists(t, path)

	code, out = runOut(t, "new", file)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Error:")

	code, out = runOut(t, "open", path)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Level: Castle Run")
	assert.Contains(t, out, "Areas: 1")
	assert.Contains(t, out, "New Area  100x100  objects=0")

	code, out = runOut(t, "add-block", path, "New Area", "5", "5", "20", "20")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "at (5,5) size 20x20")

	code, out = runOut(t, "add-block", path, "New Area", "-4", "1", "2", "3")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "at (0,1) size 2x3")

	code, out = runOut(t, "set", path, "New Area", "block.0.x", "-3")
	require.Equal(t, 0, code, out)
	assert.Equal(t, "block.0.x = 0\n", out)

	code, out = runOut(t, "set", path, "New Area", "block.0.collide", "true")
	require.Equal(t, 0, code, out)
	assert.Equal(t, "block.0.collide = true\n", out)

	code, out = runOut(t, "set", path, "New Area", "opacity", "1.7")
	require.Equal(t, 0, code, out)
	assert.Equal(t, "opacity = 1\n", out)

	code, out = runOut(t, "set", path, "New Area", "w", "250")
	require.Equal(t, 0, code, out)

	code, out = runOut(t, "open", path)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "New Area  250x100  objects=2")
	assert.NotContains(t, out, "Warning:")

	code, out = runOut(t, "find", path, "block")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "2 objects")
	assert.Contains(t, out, "collide=true")

	code, out = runOut(t, "index", path)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "block: 2")

	code, out = runOut(t, "validate", path)
	require.Equal(t, 0, code, out)
	assert.Equal(t, "OK\n", out)
}

func TestRun_SetErrors(t *testing.T) {
	dir := setup(t)
	path := filepath.Join(dir, "l"+storage.LevelFileExt)
	code, out := runOut(t, "new", path)
	require.Equal(t, 0, code, out)

	code, out = runOut(t, "set", path, "New Area", "gravity", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "unknown field")

	code, out = runOut(t, "set", path, "New Area", "block.3.x", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "no block 3")

	code, out = runOut(t, "set", path, "Nowhere", "w", "1")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "no such area")

	code, out = runOut(t, "add-block", path, "New Area", "a", "1", "1", "1")
	assert.Equal(t, 2, code)
	assert.Contains(t, out, `not a number: "a"`)

	code, out = runOut(t, "find", path, "dragon")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "unknown")
}

func TestRun_Exports(t *testing.T) {
	dir := setup(t)
	path := filepath.Join(dir, "l"+storage.LevelFileExt)
	code, out := runOut(t, "new", path, "Exported")
	require.Equal(t, 0, code, out)
	code, out = runOut(t, "add-block", path, "New Area", "10", "10", "30", "30")
	require.Equal(t, 0, code, out)

	png := filepath.Join(dir, "out", "area.png")
	code, out = runOut(t, "export-png", path, "New Area", png)
	require.Equal(t, 0, code, out)
	data, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	pdf := filepath.Join(dir, "out", "level.pdf")
	code, out = runOut(t, "export-pdf", path, pdf)
	require.Equal(t, 0, code, out)
	data, err = os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	code, out = runOut(t, "export", path, "web")
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, filepath.Join("exports", "web"))
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.FileExists(t, strings.TrimPrefix(line, "Wrote "))
	}

	code, out = runOut(t, "export", path, "poster")
	assert.Equal(t, 2, code)
	assert.Contains(t, out, "unknown preset")
}

func TestRun_ThumbUsesCache(t *testing.T) {
	dir := setup(t)
	path := filepath.Join(dir, "l"+storage.LevelFileExt)
	code, out := runOut(t, "new", path)
	require.Equal(t, 0, code, out)

	first := filepath.Join(dir, "a.png")
	code, out = runOut(t, "thumb", path, "New Area", first, "32")
	require.Equal(t, 0, code, out)
	second := filepath.Join(dir, "b.png")
	code, out = runOut(t, "thumb", path, "New Area", second, "32")
	require.Equal(t, 0, code, out)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	total, err := storage.TotalPreviewBytes(t.Context(), dir)
	require.NoError(t, err)
	assert.Equal(t, int64(len(a)), total)

	code, _ = runOut(t, "thumb", path, "New Area", first, "0")
	assert.Equal(t, 2, code)
}

func TestRun_OpenReportsBackupFallback(t *testing.T) {
	dir := setup(t)
	path := filepath.Join(dir, "l"+storage.LevelFileExt)
	code, out := runOut(t, "new", path, "Kept")
	require.Equal(t, 0, code, out)
	code, out = runOut(t, "add-block", path, "New Area", "1", "1", "5", "5")
	require.Equal(t, 0, code, out)
	require.NoError(t, os.WriteFile(path, []byte("{ broken"), 0o644))

	code, out = runOut(t, "open", path)
	require.Equal(t, 0, code, out)
	assert.Contains(t, out, "Warning: level file unusable, loaded backup")
	assert.Contains(t, out, "Level: Kept")
}

func TestRun_ValidateRejectsGarbage(t *testing.T) {
	dir := setup(t)
	bad := filepath.Join(dir, "bad"+storage.LevelFileExt)
	require.NoError(t, os.WriteFile(bad, []byte(`{"name": 3}`), 0o644))
	code, out := runOut(t, "validate", bad)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Error:")
}
