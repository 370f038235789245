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
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"skapeditor/internal/domain"
	"skapeditor/internal/palette"
)

// PNGOptions controls PNG export behavior.
// - Scale: output pixels per world unit, 1 when zero
// - Outline: stroke collidable shapes
// - Label: draw the area name in the top-left corner
// - MaxW/MaxH: when > 0 the rendering is scaled down to fit (thumbnails)
type PNGOptions struct {
	Scale   float64
	Outline bool
	Label   bool
	MaxW    int
	MaxH    int
}

var outlineColor = color.RGBA{0, 0, 0, 255}

// RenderArea rasterizes a into a new image.
func RenderArea(a domain.Area, opt PNGOptions) *image.RGBA {
	s := SceneOf(a)
	scale := opt.Scale
	if scale <= 0 {
		scale = 1
	}
	pixW := max(1, int(math.Round(s.W*scale)))
	pixH := max(1, int(math.Round(s.H*scale)))
	img := image.NewRGBA(image.Rect(0, 0, pixW, pixH))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(palette.Over(s.Background, 1, s.Background)), image.Point{}, xdraw.Src)

	for _, sh := range s.Shapes {
		r := pixelRect(sh, scale)
		if r.Empty() {
			continue
		}
		xdraw.Draw(img, r, image.NewUniform(palette.NRGBA(sh.Color, sh.Opacity)), image.Point{}, xdraw.Over)
		if opt.Outline && sh.Collide {
			strokeRect(img, r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1, outlineColor)
		}
	}
	if opt.Label && s.Name != "" {
		drawLabel(img, s.Name)
	}
	if opt.MaxW > 0 || opt.MaxH > 0 {
		return fit(img, opt.MaxW, opt.MaxH)
	}
	return img
}

func pixelRect(sh Shape, scale float64) image.Rectangle {
	x0 := int(math.Round(sh.X * scale))
	y0 := int(math.Round(sh.Y * scale))
	x1 := int(math.Round((sh.X + sh.W) * scale))
	y1 := int(math.Round((sh.Y + sh.H) * scale))
	return image.Rect(x0, y0, x1, y1)
}

// fit scales img down to fit inside maxW x maxH keeping the aspect ratio. Images already
// inside the box are returned as is.
func fit(img *image.RGBA, maxW, maxH int) *image.RGBA {
	b := img.Bounds()
	f := 1.0
	if maxW > 0 && b.Dx() > maxW {
		f = math.Min(f, float64(maxW)/float64(b.Dx()))
	}
	if maxH > 0 && b.Dy() > maxH {
		f = math.Min(f, float64(maxH)/float64(b.Dy()))
	}
	if f == 1 {
		return img
	}
	w := max(1, int(math.Round(float64(b.Dx())*f)))
	h := max(1, int(math.Round(float64(b.Dy())*f)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func drawLabel(img *image.RGBA, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.RGBA{0, 0, 0, 255}), Face: face}
	w := d.MeasureString(text).Ceil()
	// light plate so the label reads on any background
	xdraw.Draw(img, image.Rect(2, 2, 2+w+4, 2+face.Height+4), image.NewUniform(color.NRGBA{255, 255, 255, 192}), image.Point{}, xdraw.Over)
	d.Dot = fixed.P(4, 4+face.Ascent)
	d.DrawString(text)
}

// AreaPNG encodes the rendering of a as PNG to w.
func AreaPNG(w io.Writer, a domain.Area, opt PNGOptions) error {
	if err := png.Encode(w, RenderArea(a, opt)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// AreaPNGBytes is AreaPNG into memory, for the preview cache.
func AreaPNGBytes(a domain.Area, opt PNGOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := AreaPNG(&buf, a, opt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteAreaPNG writes the PNG of a to path, creating parent directories.
func WriteAreaPNG(path string, a domain.Area, opt PNGOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := AreaPNG(f, a, opt); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}
