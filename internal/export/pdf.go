/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"skapeditor/internal/domain"
	"skapeditor/internal/palette"
	"skapeditor/internal/version"
)

// PDFOptions controls PDF export behavior.
// Units are points. Each area is fitted inside the page margins and the page is turned to
// landscape when the area is wider than tall.
type PDFOptions struct {
	PageSize string // "A4" (default) or "Letter"
	Margin   float64
	Outline  bool
	Legend   bool
	Areas    []int // if empty, export all areas
}

const (
	defaultMargin = 36.0
	titleHeight   = 24.0
	legendHeight  = 14.0
)

// pageSize returns the portrait page size in points.
func pageSize(name string) (gofpdf.SizeType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "a4":
		return gofpdf.SizeType{Wd: 595.28, Ht: 841.89}, nil
	case "letter":
		return gofpdf.SizeType{Wd: 612, Ht: 792}, nil
	default:
		return gofpdf.SizeType{}, fmt.Errorf("unknown page size %q", name)
	}
}

// LevelPDF writes a sheet with one page per area of lvl to w.
func LevelPDF(w io.Writer, lvl domain.Level, opt PDFOptions) error {
	size, err := pageSize(opt.PageSize)
	if err != nil {
		return err
	}
	margin := opt.Margin
	if margin <= 0 {
		margin = defaultMargin
	}

	pdf := gofpdf.New("P", "pt", "", "")
	pdf.SetTitle(lvl.Name+" - Level Sheet", true)
	pdf.SetCreator("skapeditor "+version.Version, true)
	pdf.SetAutoPageBreak(false, 0)

	areas := areaIndexes(len(lvl.Areas), opt.Areas)
	for _, i := range areas {
		if i < 0 || i >= len(lvl.Areas) {
			continue
		}
		drawAreaPage(pdf, SceneOf(lvl.Areas[i]), size, margin, opt)
	}
	if pdf.PageCount() == 0 {
		// gofpdf refuses to output an empty document
		pdf.AddPageFormat("P", size)
		pdf.SetFont("Helvetica", "", 12)
		pdf.Text(margin, margin+12, "No areas")
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// AreaPDF writes a single page PDF of a to w.
func AreaPDF(w io.Writer, a domain.Area, opt PDFOptions) error {
	return LevelPDF(w, domain.Level{Name: a.Name, Areas: []domain.Area{a}}, PDFOptions{
		PageSize: opt.PageSize,
		Margin:   opt.Margin,
		Outline:  opt.Outline,
		Legend:   opt.Legend,
	})
}

// WriteLevelPDF writes the level sheet to path, creating parent directories.
func WriteLevelPDF(path string, lvl domain.Level, opt PDFOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	if err := LevelPDF(f, lvl, opt); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close pdf: %w", err)
	}
	return nil
}

func drawAreaPage(pdf *gofpdf.Fpdf, s Scene, size gofpdf.SizeType, margin float64, opt PDFOptions) {
	orient := "P"
	pw, ph := size.Wd, size.Ht
	if s.W > s.H {
		orient = "L"
		pw, ph = ph, pw
	}
	pdf.AddPageFormat(orient, size)

	// Title
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(margin, margin+14, s.Name)

	top := margin + titleHeight
	availW := pw - 2*margin
	availH := ph - top - margin
	if opt.Legend {
		availH -= legendHeight
	}
	scale := 1.0
	if s.W > 0 && s.H > 0 {
		scale = math.Min(availW/s.W, availH/s.H)
	}
	ox, oy := margin, top

	setFillColor(pdf, s.Background)
	pdf.Rect(ox, oy, s.W*scale, s.H*scale, "F")

	pdf.SetLineWidth(0.5)
	setDrawColor(pdf, palette.RGB{0, 0, 0})
	for _, sh := range s.Shapes {
		if sh.W <= 0 || sh.H <= 0 {
			continue
		}
		style := "F"
		if opt.Outline && sh.Collide {
			style = "FD"
		}
		pdf.SetAlpha(sh.Opacity, "Normal")
		setFillColor(pdf, sh.Color)
		pdf.Rect(ox+sh.X*scale, oy+sh.Y*scale, sh.W*scale, sh.H*scale, style)
	}
	pdf.SetAlpha(1, "Normal")

	// Frame
	pdf.SetLineWidth(0.2)
	pdf.Rect(ox, oy, s.W*scale, s.H*scale, "D")

	if opt.Legend {
		pdf.SetFont("Helvetica", "", 9)
		pdf.Text(margin, oy+s.H*scale+legendHeight-3, legend(s))
	}
}

func legend(s Scene) string {
	parts := make([]string, 0, len(s.Counts)+1)
	parts = append(parts, fmt.Sprintf("%gx%g", s.W, s.H))
	for _, k := range kindOrder(s.Counts) {
		parts = append(parts, fmt.Sprintf("%s: %d", k, s.Counts[k]))
	}
	return strings.Join(parts, "  ")
}

func areaIndexes(total int, specific []int) []int {
	if len(specific) == 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	return specific
}

func setDrawColor(pdf *gofpdf.Fpdf, c palette.RGB) {
	pdf.SetDrawColor(int(c[0]), int(c[1]), int(c[2]))
}

func setFillColor(pdf *gofpdf.Fpdf, c palette.RGB) {
	pdf.SetFillColor(int(c[0]), int(c[1]), int(c[2]))
}
