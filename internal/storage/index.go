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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"skapeditor/internal/domain"
	applog "skapeditor/internal/log"
	"skapeditor/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-directory index data next to the level files.
	IndexDirName  = ".skap"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	schemaVersion = 2
)

// IndexPath returns the full path to the embedded index database for a level directory.
func IndexPath(dir string) string {
	return filepath.Join(dir, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the SQLite index exists at <dir>/.skap/index.sqlite,
// opens the database, enables WAL mode, and ensures the meta/version tables exist.
// Callers close the returned *sql.DB.
func InitOrOpenIndex(dir string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("dir", dir),
	)
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("level directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, IndexDirName), 0o755); err != nil {
		l.Error("create .skap dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .skap dir: %w", err)
	}

	path := IndexPath(dir)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// keep existing schema for migrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// schema 1 indexes had no kind/layer lookups
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_objects_kind ON objects(kind);`,
				`CREATE INDEX IF NOT EXISTS idx_objects_layer ON objects(layer);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// ensureIndexSchema creates the core index tables if they do not exist.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS areas (
			file     TEXT    NOT NULL,
			area_id  TEXT    NOT NULL,
			ord      INTEGER NOT NULL,
			name     TEXT    NOT NULL,
			color    TEXT,
			opacity  REAL,
			width    REAL,
			height   REAL,
			PRIMARY KEY(file, area_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_areas_name ON areas(name);`,
		`CREATE TABLE IF NOT EXISTS objects (
			id        INTEGER PRIMARY KEY,
			file      TEXT    NOT NULL,
			area_id   TEXT    NOT NULL,
			kind      TEXT    NOT NULL,
			ord       INTEGER NOT NULL,
			object_id TEXT,
			x         REAL,
			y         REAL,
			w         REAL,
			h         REAL,
			layer     INTEGER NOT NULL DEFAULT 0,
			collide   INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY(file, area_id) REFERENCES areas(file, area_id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_objects_area ON objects(file, area_id);`,
		`CREATE INDEX IF NOT EXISTS idx_objects_kind ON objects(kind);`,
		`CREATE INDEX IF NOT EXISTS idx_objects_layer ON objects(layer);`,
		`CREATE TABLE IF NOT EXISTS previews (
			id          INTEGER PRIMARY KEY,
			file        TEXT    NOT NULL,
			area_id     TEXT    NOT NULL,
			kind        TEXT    NOT NULL DEFAULT 'thumb',
			w           INTEGER NOT NULL DEFAULT 0,
			h           INTEGER NOT NULL DEFAULT 0,
			rev         TEXT,
			blob        BLOB    NOT NULL,
			size        INTEGER NOT NULL DEFAULT 0,
			updated_at  TEXT    NOT NULL,
			last_access TEXT
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_previews_variant ON previews(file, area_id, kind, w, h);`,
		`CREATE INDEX IF NOT EXISTS idx_previews_access ON previews(last_access);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	return nil
}

// DetectAndRebuildIndex checks for corruption or missing schema and rebuilds the index if needed.
// It returns true when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, h *LevelHandle) (bool, error) {
	path := IndexPath(h.Dir)
	db, err := InitOrOpenIndex(h.Dir)
	if err != nil {
		backupIndexFile(path)
		removeIndexFiles(path)
		if rbErr := RebuildIndex(ctx, h); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM objects LIMIT 1;`); err != nil {
			needs = true
		}
	}
	_ = db.Close()
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	removeIndexFiles(path)
	if err := RebuildIndex(ctx, h); err != nil {
		return false, err
	}
	return true, nil
}

// backupIndexFile copies the current index file into a timestamped backup in .skap/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

func removeIndexFiles(indexPath string) {
	for _, p := range []string{indexPath, indexPath + "-wal", indexPath + "-shm"} {
		_ = os.Remove(p)
	}
}

// UpdateIndex replaces the rows of h's level file with its current content.
func UpdateIndex(ctx context.Context, h *LevelHandle) error {
	db, err := InitOrOpenIndex(h.Dir)
	if err != nil {
		return err
	}
	defer db.Close()
	return indexLevel(ctx, db, h.Base(), h.Level)
}

// RebuildIndex drops and recreates the index tables and indexes h's level file.
// Meta/version tables are kept. Rows of other level files in the directory are dropped
// too and come back with their next UpdateIndex.
func RebuildIndex(ctx context.Context, h *LevelHandle) error {
	db, err := InitOrOpenIndex(h.Dir)
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, q := range []string{
		"DROP TABLE IF EXISTS objects;",
		"DROP TABLE IF EXISTS areas;",
		"DROP TABLE IF EXISTS previews;",
	} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("drop commit: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		return err
	}
	return indexLevel(ctx, db, h.Base(), h.Level)
}

// placed is the geometry every placeable object carries in the level file.
type placed struct {
	ID      string      `json:"id"`
	Pos     *domain.Vec `json:"pos"`
	Size    *domain.Vec `json:"size"`
	Layer   int         `json:"layer"`
	Collide bool        `json:"collide"`
}

// indexLevel replaces the rows for file inside one transaction.
func indexLevel(ctx context.Context, db *sql.DB, file string, lvl domain.Level) error {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_level")
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	rollback := func(e error) error {
		_ = tx.Rollback()
		return e
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM objects WHERE file=?`, file); err != nil {
		return rollback(fmt.Errorf("clear objects: %w", err))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM areas WHERE file=?`, file); err != nil {
		return rollback(fmt.Errorf("clear areas: %w", err))
	}
	areaStmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO areas(file, area_id, ord, name, color, opacity, width, height) VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		return rollback(fmt.Errorf("prepare area insert: %w", err))
	}
	defer areaStmt.Close()
	objStmt, err := tx.PrepareContext(ctx, `INSERT INTO objects(file, area_id, kind, ord, object_id, x, y, w, h, layer, collide) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return rollback(fmt.Errorf("prepare object insert: %w", err))
	}
	defer objStmt.Close()

	var count int
	for i, a := range lvl.Areas {
		areaID := a.ID
		if areaID == "" {
			areaID = fmt.Sprintf("#%d", i)
		}
		if _, err := areaStmt.ExecContext(ctx, file, areaID, i, a.Name, a.Color, a.Opacity, a.Size[0], a.Size[1]); err != nil {
			return rollback(fmt.Errorf("insert area %q: %w", a.Name, err))
		}
		for kind, objs := range a.Objects {
			for j, raw := range objs {
				var p placed
				if err := json.Unmarshal(raw, &p); err != nil {
					l.Warn("skip unreadable object", slog.String("kind", kind), slog.Int("ord", j), slog.Any("err", err))
					continue
				}
				var x, y, w, hh sql.NullFloat64
				if p.Pos != nil {
					x = sql.NullFloat64{Float64: p.Pos.X, Valid: true}
					y = sql.NullFloat64{Float64: p.Pos.Y, Valid: true}
				}
				if p.Size != nil {
					w = sql.NullFloat64{Float64: p.Size.X, Valid: true}
					hh = sql.NullFloat64{Float64: p.Size.Y, Valid: true}
				}
				if _, err := objStmt.ExecContext(ctx, file, areaID, kind, j, p.ID, x, y, w, hh, p.Layer, p.Collide); err != nil {
					return rollback(fmt.Errorf("insert %s object: %w", kind, err))
				}
				count++
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index: %w", err)
	}
	l.DebugContext(ctx, "indexed level", slog.String("file", file), slog.Int("areas", len(lvl.Areas)), slog.Int("objects", count))
	return nil
}
