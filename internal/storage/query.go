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
	"errors"
	"fmt"
	"strings"
)

// ObjectQuery filters indexed objects. Zero values mean unset.
// Area matches the area name case-insensitively as a substring.
// Within restricts to objects whose position lies inside the rectangle [X, X+W) x [Y, Y+H).
type ObjectQuery struct {
	File    string
	Area    string
	Kinds   []string
	Layer   *int
	Collide *bool
	Within  *Rect
	Limit   int
	Offset  int
}

type Rect struct{ X, Y, W, H float64 }

// ObjectRow is one indexed object. Geometry is zero for kinds without pos/size.
type ObjectRow struct {
	File     string
	AreaID   string
	AreaName string
	Kind     string
	Ord      int
	ObjectID string
	X, Y     float64
	W, H     float64
	Layer    int
	Collide  bool
}

// AreaRow summarizes one indexed area.
type AreaRow struct {
	File    string
	AreaID  string
	Name    string
	Color   string
	Opacity float64
	Width   float64
	Height  float64
	Objects int
}

// QueryObjects runs q against the index of dir.
func QueryObjects(ctx context.Context, dir string, q ObjectQuery) ([]ObjectRow, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("level directory is required")
	}
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return queryObjectsDB(ctx, db, q)
}

func queryObjectsDB(ctx context.Context, db *sql.DB, q ObjectQuery) ([]ObjectRow, error) {
	var args []any
	var sb strings.Builder
	sb.WriteString("SELECT o.file, o.area_id, a.name, o.kind, o.ord, COALESCE(o.object_id,''),\n")
	sb.WriteString(" COALESCE(o.x,0), COALESCE(o.y,0), COALESCE(o.w,0), COALESCE(o.h,0), o.layer, o.collide\n")
	sb.WriteString("FROM objects o JOIN areas a ON a.file = o.file AND a.area_id = o.area_id\n")
	sb.WriteString("WHERE 1=1\n")
	if s := strings.TrimSpace(q.File); s != "" {
		sb.WriteString(" AND o.file = ?\n")
		args = append(args, s)
	}
	if s := strings.TrimSpace(q.Area); s != "" {
		sb.WriteString(" AND lower(a.name) LIKE ?\n")
		args = append(args, likeContains(strings.ToLower(s)))
	}
	if len(q.Kinds) > 0 {
		sb.WriteString(" AND o.kind IN (" + placeholders(len(q.Kinds)) + ")\n")
		for _, k := range q.Kinds {
			args = append(args, k)
		}
	}
	if q.Layer != nil {
		sb.WriteString(" AND o.layer = ?\n")
		args = append(args, *q.Layer)
	}
	if q.Collide != nil {
		sb.WriteString(" AND o.collide = ?\n")
		args = append(args, *q.Collide)
	}
	if r := q.Within; r != nil {
		sb.WriteString(" AND o.x >= ? AND o.x < ? AND o.y >= ? AND o.y < ?\n")
		args = append(args, r.X, r.X+r.W, r.Y, r.Y+r.H)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 500
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	sb.WriteString("ORDER BY o.file, a.ord, o.kind, o.ord\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("object query: %w", err)
	}
	defer rows.Close()
	var out []ObjectRow
	for rows.Next() {
		var r ObjectRow
		if err := rows.Scan(&r.File, &r.AreaID, &r.AreaName, &r.Kind, &r.Ord, &r.ObjectID, &r.X, &r.Y, &r.W, &r.H, &r.Layer, &r.Collide); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListAreas returns the indexed areas of file (all files when empty) in level order.
func ListAreas(ctx context.Context, dir, file string) ([]AreaRow, error) {
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	q := `SELECT a.file, a.area_id, a.name, COALESCE(a.color,''), COALESCE(a.opacity,0), COALESCE(a.width,0), COALESCE(a.height,0),
		(SELECT COUNT(*) FROM objects o WHERE o.file = a.file AND o.area_id = a.area_id)
		FROM areas a`
	var args []any
	if file != "" {
		q += ` WHERE a.file = ?`
		args = append(args, file)
	}
	q += ` ORDER BY a.file, a.ord`
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("area query: %w", err)
	}
	defer rows.Close()
	var out []AreaRow
	for rows.Next() {
		var r AreaRow
		if err := rows.Scan(&r.File, &r.AreaID, &r.Name, &r.Color, &r.Opacity, &r.Width, &r.Height, &r.Objects); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountByKind returns the number of indexed objects per kind for file.
func CountByKind(ctx context.Context, dir, file string) (map[string]int, error) {
	db, err := InitOrOpenIndex(dir)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM objects WHERE file = ? GROUP BY kind`, file)
	if err != nil {
		return nil, fmt.Errorf("count query: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out[kind] = n
	}
	return out, rows.Err()
}

func likeContains(s string) string { return "%" + s + "%" }

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
