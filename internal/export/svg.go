/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"skapeditor/internal/domain"
	"skapeditor/internal/palette"
)

// SVGOptions controls SVG export behavior.
// - Scale sets the width/height attributes in pixels; the viewBox stays in world units.
// - Outline strokes collidable shapes.
type SVGOptions struct {
	Scale   float64
	Outline bool
	Label   bool
}

// AreaSVG writes a as a standalone SVG document to w.
func AreaSVG(w io.Writer, a domain.Area, opt SVGOptions) error {
	s := SceneOf(a)
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	pxW := max(1, int(math.Round(s.W*scale)))
	pxH := max(1, int(math.Round(s.H*scale)))

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"0 0 %g %g\">\n", pxW, pxH, s.W, s.H)
	wf("  <title>%s</title>\n", escText(s.Name))
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"%s\"/>\n", s.W, s.H, palette.Hex(s.Background))
	for _, sh := range s.Shapes {
		if sh.W <= 0 || sh.H <= 0 {
			continue
		}
		stroke := ""
		if opt.Outline && sh.Collide {
			stroke = " stroke=\"#000000\" stroke-width=\"0.5\""
		}
		wf("  <rect class=\"%s\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" fill-opacity=\"%g\"%s/>\n",
			escAttr(sh.Kind), sh.X, sh.Y, sh.W, sh.H, palette.Hex(sh.Color), sh.Opacity, stroke)
	}
	if opt.Label && s.Name != "" {
		wf("  <text x=\"2\" y=\"12\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"10\" fill=\"#000\">%s</text>\n", escText(s.Name))
	}
	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// WriteAreaSVG writes the SVG of a to path, creating parent directories.
func WriteAreaSVG(path string, a domain.Area, opt SVGOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	var buf bytes.Buffer
	if err := AreaSVG(&buf, a, opt); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func escAttr(s string) string {
	// naive escaping sufficient for our simple usage
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, '&', 'q', 'u', 'o', 't', ';')
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '\n':
			out = append(out, ' ')
		case '\r':
			// skip
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '&':
			out = append(out, '&', 'a', 'm', 'p', ';')
		case '<':
			out = append(out, '&', 'l', 't', ';')
		case '>':
			out = append(out, '&', 'g', 't', ';')
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}
