/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"skapeditor/internal/config"
	"skapeditor/internal/control"
	"skapeditor/internal/crash"
	"skapeditor/internal/entity"
	"skapeditor/internal/export"
	applog "skapeditor/internal/log"
	"skapeditor/internal/property"
	"skapeditor/internal/storage"
	"skapeditor/internal/telemetry"
	"skapeditor/internal/ui"
	"skapeditor/internal/version"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "skapeditor - level editor for skap")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  skapeditor version|-v|--version                 Show version")
	fmt.Fprintln(w, "  skapeditor new <file> [name]                    Create a level with one default area")
	fmt.Fprintln(w, "  skapeditor open <file>                          Print a summary of the level")
	fmt.Fprintln(w, "  skapeditor validate <file>                      Check the file against the level schema")
	fmt.Fprintln(w, "  skapeditor add-block <file> <area> <x> <y> <w> <h>")
	fmt.Fprintln(w, "                                                  Place a block in an area (name or id)")
	fmt.Fprintln(w, "  skapeditor set <file> <area> <field> <value>    Edit an area field, or block.<n>.<field>")
	fmt.Fprintln(w, "  skapeditor find <file> [kind...]                List indexed objects, optionally by kind")
	fmt.Fprintln(w, "  skapeditor index <file>                         Rebuild the object index")
	fmt.Fprintln(w, "  skapeditor thumb <file> <area> <out> [size]     Write a cached PNG thumbnail")
	fmt.Fprintln(w, "  skapeditor export-png <file> <area> <out>       Render an area to PNG")
	fmt.Fprintln(w, "  skapeditor export-pdf <file> <out>              Write a PDF sheet, one page per area")
	fmt.Fprintln(w, "  skapeditor export <file> web|print              Batch export under <dir>/exports/<preset>")
	fmt.Fprintln(w, "  skapeditor ui [<file>]                          Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run executes one command and returns the process exit code: 0 on success, 1 when the
// command failed and 2 for usage errors.
func run(args []string, out io.Writer) (code int) {
	start := time.Now()
	cfg, cerr := config.Load()
	applog.Init(cfg.Logging.Options())
	l := applog.WithComponent("cli")
	if cerr != nil {
		l.Warn("config load failed; using defaults", slog.Any("err", cerr))
	}

	var h *storage.LevelHandle
	var lvl *entity.Level
	defer crash.RecoverCurrent(func() (*storage.LevelHandle, crash.Snapshot) {
		if lvl == nil {
			return h, nil
		}
		return h, lvl.Doc
	})

	if len(args) == 0 {
		usage(out)
		return 0
	}
	cmd := args[0]
	l.Debug("start", slog.String("cmd", cmd), slog.Int("args", len(args)))
	ctx := applog.ContextWithLevelFile(context.Background(), "")
	defer func() {
		telemetry.Command(cmd, code, time.Since(start))
		telemetry.Flush(ctx)
	}()

	fail := func(err error) int {
		l.Error("command failed", slog.String("cmd", cmd), slog.Any("err", err))
		fmt.Fprintln(out, "Error:", err)
		return 1
	}
	need := func(n int, what string) bool {
		if len(args) < n+1 {
			fmt.Fprintf(out, "%s requires %s\n", cmd, what)
			usage(out)
			return false
		}
		return true
	}
	load := func(path string) error {
		abs, _ := filepath.Abs(path)
		hh, err := storage.Open(abs)
		if err != nil {
			return err
		}
		ll, err := entity.LevelFromDoc(hh.Level, nil)
		if err != nil {
			return err
		}
		h, lvl = hh, ll
		ctx = applog.ContextWithLevelFile(ctx, h.Path)
		if h.RecoveredFrom != "" {
			fmt.Fprintln(out, "Warning: level file unusable, loaded backup", h.RecoveredFrom)
		}
		return nil
	}
	index := func() {
		if err := storage.UpdateIndex(ctx, h); err != nil {
			l.WarnContext(ctx, "index update failed", slog.Any("err", err))
		}
	}
	store := func() error {
		doc, err := lvl.Doc()
		if err != nil {
			return err
		}
		h.Level = doc
		if err := storage.Save(h); err != nil {
			return err
		}
		index()
		return nil
	}

	switch cmd {
	case "version", "--version", "-v":
		fmt.Fprintln(out, "skapeditor", version.String())
	case "new":
		if !need(1, "<file> [name]") {
			return 2
		}
		path, _ := filepath.Abs(storage.LevelPath(args[1]))
		name := strings.TrimSuffix(filepath.Base(path), storage.LevelFileExt)
		if len(args) > 2 {
			name = args[2]
		}
		lvl = entity.NewLevel(name,
			entity.WithAreaColor(cfg.Editor.AreaColorRGB()),
			entity.WithBackground(cfg.Editor.AreaBackgroundRGB()),
			entity.WithAreaOpacity(cfg.Editor.AreaOpacity),
		)
		doc, err := lvl.Doc()
		if err != nil {
			return fail(err)
		}
		hh, err := storage.Create(path, doc)
		if err != nil {
			return fail(err)
		}
		h = hh
		index()
		l.Info("level created", slog.String("path", h.Path), slog.String("name", name))
		fmt.Fprintln(out, "Created level at", h.Path)
	case "open":
		if !need(1, "<file>") {
			return 2
		}
		if err := load(args[1]); err != nil {
			return fail(err)
		}
		index()
		telemetry.LevelStats(h.Level)
		areas, err := storage.ListAreas(ctx, h.Dir, h.Base())
		if err != nil {
			return fail(err)
		}
		fmt.Fprintf(out, "Level: %s\n", h.Level.Name)
		fmt.Fprintf(out, "Areas: %d\n", len(areas))
		for _, a := range areas {
			fmt.Fprintf(out, "  %s  %gx%g  objects=%d  color=%s\n", a.Name, a.Width, a.Height, a.Objects, a.Color)
		}
		fmt.Fprintln(out, "File:", h.Path)
	case "validate":
		if !need(1, "<file>") {
			return 2
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fail(err)
		}
		if err := storage.Validate(data); err != nil {
			return fail(err)
		}
		fmt.Fprintln(out, "OK")
	case "add-block":
		if !need(6, "<file> <area> <x> <y> <w> <h>") {
			return 2
		}
		nums, err := parseFloats(args[3:7])
		if err != nil {
			fmt.Fprintln(out, "Error:", err)
			return 2
		}
		if err := load(args[1]); err != nil {
			return fail(err)
		}
		a, err := lvl.Area(args[2])
		if err != nil {
			return fail(err)
		}
		// typed input goes through the controls so it is clamped like an edit in the panel
		b := entity.NewBlock(entity.WithColor(cfg.Editor.BlockColorRGB()))
		b.SetPos(nums[0], nums[1])
		b.SetSize(nums[2], nums[3])
		a.AddObject(b)
		if err := store(); err != nil {
			return fail(err)
		}
		fmt.Fprintf(out, "Added block %s to %s at (%g,%g) size %gx%g\n", b.ID, a.Name, b.Pos.X, b.Pos.Y, b.Size.X, b.Size.Y)
	case "set":
		if !need(4, "<file> <area> <field> <value>") {
			return 2
		}
		if err := load(args[1]); err != nil {
			return fail(err)
		}
		a, err := lvl.Area(args[2])
		if err != nil {
			return fail(err)
		}
		target, field, err := resolveField(a, args[3])
		if err != nil {
			return fail(err)
		}
		if err := entity.SetField(target, field, args[4]); err != nil {
			return fail(err)
		}
		if err := store(); err != nil {
			return fail(err)
		}
		in, _ := target.Control(field)
		fmt.Fprintf(out, "%s = %s\n", args[3], displayed(target, in))
	case "find":
		if !need(1, "<file> [kind...]") {
			return 2
		}
		for _, k := range args[2:] {
			if _, err := entity.ParseKind(k); err != nil {
				return fail(err)
			}
		}
		if err := load(args[1]); err != nil {
			return fail(err)
		}
		index()
		rows, err := storage.QueryObjects(ctx, h.Dir, storage.ObjectQuery{File: h.Base(), Kinds: args[2:]})
		if err != nil {
			return fail(err)
		}
		for _, r := range rows {
			fmt.Fprintf(out, "%s\t%s\t#%d\t(%g,%g)\t%gx%g\tlayer=%d\tcollide=%t\n", r.AreaName, r.Kind, r.Ord, r.X, r.Y, r.W, r.H, r.Layer, r.Collide)
		}
		fmt.Fprintf(out, "%d objects\n", len(rows))
	case "index":
		if !need(1, "<file>") {
			return 2
		}
		if err := load(args[1]); err != nil {
			return fail(err)
		}
		if err := storage.RebuildIndex(ctx, h); err != nil {
			return fail(err)
		}
		counts, err := storage.CountByKind(ctx, h.Dir, h.Base())
		if err != nil {
			return fail(err)
		}
		kinds := make([]string, 0, len(counts))
		for k := range counts {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Fprintf(out, "%s: %d\n", k, counts[k])
		}
		fmt.Fprintln(out, "Index rebuilt:", storage.IndexPath(h.Dir))
	case "thumb":
		if !need(3, "<file> <area> <out> [size]") {
			return 2
		}
		size := 128
		if len(args) > 4 {
			n, err := strconv.Atoi(args[4])
			if err != nil || n <= 0 {
				fmt.Fprintln(out, "Error: size must be a positive integer")
				return 2
			}
			size = n
		}
		if err := load(args[1]); err != nil {
			return fail(err)
		}
		a, err := lvl.Area(args[2])
		if err != nil {
			return fail(err)
		}
		doc, err := a.Doc()
		if err != nil {
			return fail(err)
		}
		key := storage.PreviewKey{
			File:   h.Base(),
			AreaID: doc.ID,
			Kind:   storage.PreviewKindThumb,
			W:      size,
			H:      size,
			Rev:    storage.AreaRevision(doc),
		}
		data, err := storage.GetOrCreatePreview(ctx, h.Dir, key, func(context.Context) ([]byte, error) {
			return export.AreaPNGBytes(doc, export.PNGOptions{Scale: cfg.Export.PNGScale, Outline: true, MaxW: size, MaxH: size})
		})
		if err != nil {
			return fail(err)
		}
		if err := os.WriteFile(args[3], data, 0o644); err != nil {
			return fail(err)
		}
		fmt.Fprintln(out, "Wrote", args[3])
	case "export-png":
		if !need(3, "<file> <area> <out>") {
			return 2
		}
		if err := load(args[1]); err != nil {
			return fail(err)
		}
		a, err := lvl.Area(args[2])
		if err != nil {
			return fail(err)
		}
		doc, err := a.Doc()
		if err != nil {
			return fail(err)
		}
		if err := export.WriteAreaPNG(args[3], doc, export.PNGOptions{Scale: cfg.Export.PNGScale, Outline: true, Label: true}); err != nil {
			return fail(err)
		}
		fmt.Fprintln(out, "Wrote", args[3])
	case "export-pdf":
		if !need(2, "<file> <out>") {
			return 2
		}
		if err := load(args[1]); err != nil {
			return fail(err)
		}
		if err := export.WriteLevelPDF(args[2], h.Level, export.PDFOptions{PageSize: cfg.Export.PDFPageSize, Outline: true, Legend: true}); err != nil {
			return fail(err)
		}
		fmt.Fprintln(out, "Wrote", args[2])
	case "export":
		if !need(2, "<file> web|print") {
			return 2
		}
		preset := export.PresetName(strings.ToLower(args[2]))
		if preset != export.PresetWeb && preset != export.PresetPrint {
			fmt.Fprintf(out, "Error: unknown preset %q\n", args[2])
			return 2
		}
		if err := load(args[1]); err != nil {
			return fail(err)
		}
		written, err := export.BatchExport(h.Level, h.Dir, export.BatchOptions{Preset: preset, Scale: cfg.Export.PNGScale})
		if err != nil {
			return fail(err)
		}
		for _, p := range written {
			fmt.Fprintln(out, "Wrote", p)
		}
	case "ui":
		var path string
		if len(args) >= 2 {
			path = args[1]
		}
		if err := ui.Run(path); err != nil {
			fmt.Fprintln(out, "Error:", err)
			return 1
		}
	default:
		fmt.Fprintf(out, "unknown command %q\n", cmd)
		usage(out)
		return 2
	}
	return 0
}

func parseFloats(in []string) ([]float64, error) {
	out := make([]float64, len(in))
	for i, s := range in {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", s)
		}
		out[i] = v
	}
	return out, nil
}

// resolveField maps a field reference to its entity: plain names address the area,
// block.<n>.<field> the n-th block of the area.
func resolveField(a *entity.Area, ref string) (entity.Entity, string, error) {
	parts := strings.Split(ref, ".")
	if len(parts) == 1 {
		return a, ref, nil
	}
	if len(parts) != 3 || parts[0] != "block" {
		return nil, "", fmt.Errorf("%w: %q", entity.ErrUnknownField, ref)
	}
	n, err := strconv.Atoi(parts[1])
	blocks := a.Objects.Blocks()
	if err != nil || n < 0 || n >= len(blocks) {
		return nil, "", fmt.Errorf("no block %s in area %q", parts[1], a.Name)
	}
	return blocks[n], parts[2], nil
}

// displayed renders what the control of a field shows after an edit.
func displayed(e entity.Entity, in *control.Input) string {
	for _, leaf := range property.Leaves(e.Element()) {
		if leaf.Control == in && leaf.Kind == property.Switch {
			return strconv.FormatBool(in.Checked())
		}
	}
	return in.Value()
}
