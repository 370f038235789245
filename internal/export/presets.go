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
	"path/filepath"
	"strings"

	"skapeditor/internal/domain"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// BatchOptions controls batch export across formats and areas.
//
// Path semantics:
//   - If OutDir is empty or relative, it is created under <root>/exports/<preset>/.
//   - PDF is a single file <level>.pdf in OutDir/pdf.
//   - PNG and SVG are one file per area, <level>-<n>-<area>.(png|svg), in OutDir/png or OutDir/svg.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // allowed: pdf, png, svg; empty means preset defaults
	Areas   []int    // zero-based indices; empty means all areas
	Scale   float64  // when > 0 overrides the preset raster scale
	Outline *bool    // when set, overrides the preset's default for collision outlines
	OutDir  string
}

// BatchExport runs exports of lvl according to the given preset and returns the written paths.
func BatchExport(lvl domain.Level, root string, opt BatchOptions) ([]string, error) {
	if len(lvl.Areas) == 0 {
		return nil, fmt.Errorf("level has no areas")
	}

	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = string(opt.Preset)
	}
	if !filepath.IsAbs(baseOut) {
		baseOut = filepath.Join(root, "exports", baseOut)
	}
	outline := presetOutline(opt.Preset)
	if opt.Outline != nil {
		outline = *opt.Outline
	}
	scale := presetScale(opt.Preset)
	if opt.Scale > 0 {
		scale = opt.Scale
	}
	base := Slug(lvl.Name)

	var written []string
	for _, f := range formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "pdf":
			out := filepath.Join(baseOut, "pdf", base+".pdf")
			po := PDFOptions{Outline: outline, Legend: true, Areas: opt.Areas}
			if err := WriteLevelPDF(out, lvl, po); err != nil {
				return written, fmt.Errorf("pdf: %w", err)
			}
			written = append(written, out)
		case "png":
			for _, i := range areaIndexes(len(lvl.Areas), opt.Areas) {
				if i < 0 || i >= len(lvl.Areas) {
					continue
				}
				a := lvl.Areas[i]
				out := filepath.Join(baseOut, "png", fmt.Sprintf("%s-%d-%s.png", base, i+1, Slug(a.Name)))
				if err := WriteAreaPNG(out, a, PNGOptions{Scale: scale, Outline: outline, Label: true}); err != nil {
					return written, fmt.Errorf("png area %d: %w", i+1, err)
				}
				written = append(written, out)
			}
		case "svg":
			for _, i := range areaIndexes(len(lvl.Areas), opt.Areas) {
				if i < 0 || i >= len(lvl.Areas) {
					continue
				}
				a := lvl.Areas[i]
				out := filepath.Join(baseOut, "svg", fmt.Sprintf("%s-%d-%s.svg", base, i+1, Slug(a.Name)))
				if err := WriteAreaSVG(out, a, SVGOptions{Scale: scale, Outline: outline, Label: true}); err != nil {
					return written, fmt.Errorf("svg area %d: %w", i+1, err)
				}
				written = append(written, out)
			}
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
	}
	return written, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"png", "svg"}
	case PresetPrint:
		return []string{"pdf", "png"}
	default:
		return []string{"pdf"}
	}
}

func presetOutline(p PresetName) bool {
	switch p {
	case PresetWeb:
		return false
	default:
		return true
	}
}

func presetScale(p PresetName) float64 {
	switch p {
	case PresetPrint:
		return 4
	default:
		return 1
	}
}
