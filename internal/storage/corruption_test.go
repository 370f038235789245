/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDetectAndRebuildIndex_OnCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.skap.json")
	h, err := Create(path, sampleLevel(t))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := UpdateIndex(ctx, h); err != nil {
		t.Fatalf("UpdateIndex: %v", err)
	}
	// Corrupt the DB file by writing junk
	idx := IndexPath(h.Dir)
	removeIndexFiles(idx)
	if err := os.WriteFile(idx, []byte("THIS IS NOT SQLITE"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	rebuilt, err := DetectAndRebuildIndex(ctx, h)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if !rebuilt {
		t.Fatalf("expected rebuild to occur")
	}
	counts, err := CountByKind(ctx, h.Dir, h.Base())
	if err != nil {
		t.Fatalf("CountByKind after rebuild: %v", err)
	}
	if counts["block"] != 2 {
		t.Fatalf("rebuilt index lost rows: %v", counts)
	}
	bdir := filepath.Join(h.Dir, IndexDirName, "backups")
	entries, _ := os.ReadDir(bdir)
	if len(entries) == 0 {
		t.Fatalf("expected backup file in %s", bdir)
	}
}

func TestDetectAndRebuildIndex_HealthyIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ok.skap.json")
	h, err := Create(path, sampleLevel(t))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	ctx := context.Background()
	if err := UpdateIndex(ctx, h); err != nil {
		t.Fatalf("UpdateIndex: %v", err)
	}
	rebuilt, err := DetectAndRebuildIndex(ctx, h)
	if err != nil {
		t.Fatalf("DetectAndRebuildIndex: %v", err)
	}
	if rebuilt {
		t.Fatalf("healthy index should not be rebuilt")
	}
}
