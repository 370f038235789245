/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package binding

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"skapeditor/internal/control"
	"skapeditor/internal/palette"
)

func TestCoerce(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"", 0},
		{"  ", 0},
		{"250", 250},
		{" 12.5 ", 12.5},
		{"-3", -3},
		{"1e2", 100},
		{"0x1f", 31},
		{"0b101", 5},
		{"1e400", math.Inf(1)},
		{"-1e400", math.Inf(-1)},
		{"0x10000000000000000", 18446744073709551616},
		{"0x" + strings.Repeat("f", 300), math.Inf(1)},
		{"Infinity", math.Inf(1)},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Coerce(tc.raw), "Coerce(%q)", tc.raw)
	}
	for _, raw := range []string{"abc", "12px", "inf", "NaN", "1_000", "0xzz", "--1"} {
		assert.True(t, math.IsNaN(Coerce(raw)), "Coerce(%q) should be NaN", raw)
	}
}

func TestNonNegativeNeverBelowZero(t *testing.T) {
	for _, raw := range []string{"-3", "-0", "abc", "", "-Infinity", "-1e300", "5"} {
		v := NonNegative(0, raw)
		assert.False(t, math.IsNaN(v), raw)
		assert.GreaterOrEqual(t, v, 0.0, raw)
	}
	assert.Equal(t, 5.0, NonNegative(0, "5"))
}

func TestOpacityRange(t *testing.T) {
	for _, raw := range []string{"-1", "2", "0.35", "abc", "", "Infinity", "-Infinity", "1e9", "0x10"} {
		v := Opacity(0.5, raw)
		assert.GreaterOrEqual(t, v, 0.0, raw)
		assert.LessOrEqual(t, v, 1.0, raw)
	}
	assert.Equal(t, 0.35, Opacity(0, "0.35"))
	assert.Equal(t, 1.0, Opacity(0, "7"))
}

func TestLayer(t *testing.T) {
	assert.Equal(t, 2, Layer(0, "2"))
	assert.Equal(t, -4, Layer(0, "-4.9"))
	assert.Equal(t, 0, Layer(7, "top"))
	assert.Equal(t, 0, Layer(7, "Infinity"))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(math.Copysign(0, -1)))
	assert.Equal(t, "250", FormatNumber(250))
	assert.Equal(t, "0.85", FormatNumber(0.85))
	assert.Equal(t, "Infinity", FormatNumber(math.Inf(1)))
	assert.Equal(t, "100000000000000000000", FormatNumber(1e20))
	assert.Equal(t, "1e+21", FormatNumber(1e21))
	assert.Equal(t, "-2.5e+30", FormatNumber(-2.5e30))
	assert.Equal(t, "0.000001", FormatNumber(1e-6))
	assert.Equal(t, "1.5e-7", FormatNumber(1.5e-7))
}

func TestOverflowClampsToRangeEnds(t *testing.T) {
	assert.Equal(t, 1.0, Opacity(0, "1e400"))
	assert.Equal(t, 0.0, Opacity(0, "-1e400"))
	assert.True(t, math.IsInf(NonNegative(0, "1e400"), 1))
	assert.Equal(t, 0.0, NonNegative(0, "-1e400"))
	assert.Equal(t, 0, Layer(0, "1e400"))
}

func TestNumberWritesClampedValueBack(t *testing.T) {
	in := control.New("5")
	stored := 5.0
	Number(in, func() float64 { return stored }, func(v float64) { stored = v }, NonNegative)

	in.Input("-3")
	assert.Equal(t, "0", in.Value())
	assert.Equal(t, 0.0, stored)

	in.Input("007")
	assert.Equal(t, "7", in.Value())
	assert.Equal(t, 7.0, stored)
}

func TestSetRunsAfterControlCorrected(t *testing.T) {
	in := control.New("0.5")
	var shown string
	Number(in, func() float64 { return 0 }, func(float64) { shown = in.Value() }, Opacity)
	in.Input("9")
	assert.Equal(t, "1", shown)
}

func TestColorAndSwitch(t *testing.T) {
	col := control.New("#000000")
	var rgb palette.RGB
	Color(col, func() palette.RGB { return rgb }, func(v palette.RGB) { rgb = v })
	col.Input("#ff8000")
	assert.Equal(t, palette.RGB{255, 128, 0}, rgb)
	assert.Equal(t, "#ff8000", col.Value())

	sw := control.NewSwitch(false)
	on := false
	Switch(sw, func() bool { return on }, func(v bool) { on = v })
	sw.Toggle(true)
	assert.True(t, on)
	sw.Toggle(false)
	assert.False(t, on)
}

func TestTextAndInt(t *testing.T) {
	name := control.New("a")
	got := ""
	Text(name, func(s string) { got = s })
	name.Input("Lobby")
	assert.Equal(t, "Lobby", got)

	layer := control.New("0")
	n := 0
	Int(layer, func() int { return n }, func(v int) { n = v }, Layer)
	layer.Input("3.7")
	assert.Equal(t, 3, n)
	assert.Equal(t, "3", layer.Value())
}
