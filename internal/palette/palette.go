/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package palette converts between the colour representations used by level files,
// the property panel and the renderer: RGB triples, hex strings and packed CSS strings.
// All functions are pure.
package palette

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// RGB is a colour triple as stored in level files (colorArr, backgroundArr).
type RGB [3]uint8

// blendBase is the grey the game renders translucent area colours against.
const blendBase = 240

// Blend240 mixes c over the base grey with the given opacity and packs the result
// as an opaque CSS colour. Opacity outside [0,1] is not corrected.
func Blend240(c RGB, opacity float64) string {
	var out [3]int64
	for i, v := range c {
		out[i] = int64(math.Round(float64(v)*opacity + blendBase*(1-opacity)))
	}
	return fmt.Sprintf("rgb(%d,%d,%d)", out[0], out[1], out[2])
}

// RGBA packs c as a fully opaque CSS rgba() string.
func RGBA(c RGB) string {
	return fmt.Sprintf("rgba(%d,%d,%d,1)", c[0], c[1], c[2])
}

// RGBAWithAlpha packs c with an explicit alpha, e.g. for theme custom properties.
func RGBAWithAlpha(c RGB, alpha float64) string {
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c[0], c[1], c[2], formatAlpha(alpha))
}

func formatAlpha(a float64) string {
	s := fmt.Sprintf("%.4f", a)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// Hex formats c as a lowercase #rrggbb string, the value a colour control displays.
func Hex(c RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}

// ParseHex parses "#rrggbb", "rrggbb", "#rgb" or "rgb". Digits that are not hex read as zero,
// and a string of any other length yields black.
func ParseHex(s string) RGB {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 3:
		return RGB{nibble(s[0]) * 17, nibble(s[1]) * 17, nibble(s[2]) * 17}
	case 6:
		return RGB{
			nibble(s[0])<<4 | nibble(s[1]),
			nibble(s[2])<<4 | nibble(s[3]),
			nibble(s[4])<<4 | nibble(s[5]),
		}
	default:
		return RGB{}
	}
}

// ValidHex reports whether s is a well-formed hex colour accepted by ParseHex.
func ValidHex(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 3 && len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return true
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func nibble(b byte) uint8 {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}

// NRGBA converts c with opacity into a non-premultiplied image colour.
func NRGBA(c RGB, opacity float64) color.NRGBA {
	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: alphaByte(opacity)}
}

// Over composites c at the given opacity over an opaque background colour.
func Over(c RGB, opacity float64, bg RGB) color.RGBA {
	o := clampUnit(opacity)
	var out [3]uint8
	for i := range c {
		out[i] = uint8(math.Round(float64(c[i])*o + float64(bg[i])*(1-o)))
	}
	return color.RGBA{R: out[0], G: out[1], B: out[2], A: 0xff}
}

func alphaByte(opacity float64) uint8 {
	return uint8(math.Round(clampUnit(opacity) * 255))
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
