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
	"testing"
	"time"
)

func TestPreviewsPutGetAndEvict(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Set a tiny cap to force eviction quickly
	t.Setenv("SKAP_PREVIEWS_MAX_BYTES", "64")

	key := func(w int) PreviewKey {
		return PreviewKey{File: "a.skap.json", AreaID: "hall", Kind: PreviewKindThumb, W: w, H: w, Rev: "r1"}
	}
	for _, w := range []int{100, 200, 300} {
		if err := PutPreview(ctx, dir, key(w), make([]byte, 40)); err != nil {
			t.Fatalf("put %d: %v", w, err)
		}
		time.Sleep(10 * time.Millisecond) // different access times
	}
	total, err := TotalPreviewBytes(ctx, dir)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total > 64 {
		t.Fatalf("expected eviction to <=64 bytes, got %d", total)
	}
	// newest survives, oldest is gone
	if b, err := GetPreview(ctx, dir, key(300)); err != nil || b == nil {
		t.Fatalf("newest preview evicted: %v", err)
	}
	if b, _ := GetPreview(ctx, dir, key(100)); b != nil {
		t.Fatalf("oldest preview should have been evicted")
	}
}

func TestGetPreviewIgnoresStaleRevision(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	k := PreviewKey{File: "a.skap.json", AreaID: "hall", Kind: PreviewKindThumb, W: 10, H: 10, Rev: "old"}
	if err := PutPreview(ctx, dir, k, []byte("png")); err != nil {
		t.Fatalf("put: %v", err)
	}
	k.Rev = "new"
	b, err := GetPreview(ctx, dir, k)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b != nil {
		t.Fatalf("stale preview returned: %q", b)
	}
}

func TestGetOrCreatePreview(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	k := PreviewKey{File: "a.skap.json", AreaID: "hall", Kind: PreviewKindPDF, Rev: "r"}
	calls := 0
	gen := func(context.Context) ([]byte, error) { calls++; return []byte("abcd"), nil }
	b, err := GetOrCreatePreview(ctx, dir, k, gen)
	if err != nil {
		t.Fatalf("getOrCreate: %v", err)
	}
	if string(b) != "abcd" {
		t.Fatalf("unexpected data: %q", string(b))
	}
	// Second call should hit cache and not call generator
	if _, err = GetOrCreatePreview(ctx, dir, k, gen); err != nil {
		t.Fatalf("getOrCreate 2: %v", err)
	}
	if calls != 1 {
		t.Fatalf("generator should be called once, got %d", calls)
	}
}

func TestPutPreviewRejectsUnknownKind(t *testing.T) {
	err := PutPreview(context.Background(), t.TempDir(), PreviewKey{Kind: "geom"}, []byte("x"))
	if err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestAreaRevisionTracksContent(t *testing.T) {
	lvl := sampleLevel(t)
	a := lvl.Areas[0]
	r1 := AreaRevision(a)
	if r1 == "" || r1 != AreaRevision(a) {
		t.Fatalf("revision not stable: %q", r1)
	}
	a.Opacity = 0.3
	if AreaRevision(a) == r1 {
		t.Fatalf("revision did not change with content")
	}
}
