/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package binding keeps an entity field in step with the control that edits it.
//
// Each field policy is a pure Transition from the previous value and the raw control text
// to the next value. Bind registers an input listener that runs the transition, writes a
// corrected value back into the control when the field has a display format, and hands the
// result to the entity. Out-of-range input is clamped silently; nothing here returns errors.
package binding

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	"skapeditor/internal/control"
	"skapeditor/internal/palette"
)

// Transition computes a field's next value from its current value and the raw control input.
type Transition[T any] func(old T, raw string) T

// Field describes one bound entity field.
type Field[T any] struct {
	Get  func() T
	Set  func(T)
	Next Transition[T]
	// Show formats the stored value back into the control. Nil leaves the typed text alone.
	Show func(T) string
	// Raw reads the control; nil means the control's text value.
	Raw func(*control.Input) string
}

// Bind attaches f to in. Set runs after the control shows the corrected value, so entity
// listeners observe a consistent control.
func Bind[T any](in *control.Input, f Field[T]) {
	raw := f.Raw
	if raw == nil {
		raw = (*control.Input).Value
	}
	in.OnInput(func() {
		next := f.Next(f.Get(), raw(in))
		if f.Show != nil {
			in.SetValue(f.Show(next))
		}
		f.Set(next)
	})
}

// Number binds a numeric field whose displayed value is forced back into range.
func Number(in *control.Input, get func() float64, set func(float64), next Transition[float64]) {
	Bind(in, Field[float64]{Get: get, Set: set, Next: next, Show: FormatNumber})
}

// Int binds an integer field.
func Int(in *control.Input, get func() int, set func(int), next Transition[int]) {
	Bind(in, Field[int]{Get: get, Set: set, Next: next, Show: strconv.Itoa})
}

// Text binds a free text field.
func Text(in *control.Input, set func(string)) {
	Bind(in, Field[string]{
		Get:  func() string { return "" },
		Set:  set,
		Next: func(_ string, raw string) string { return raw },
	})
}

// Color binds a hex colour control to an RGB field.
func Color(in *control.Input, get func() palette.RGB, set func(palette.RGB)) {
	Bind(in, Field[palette.RGB]{Get: get, Set: set, Next: Hex})
}

// Switch binds a checked-state control to a boolean field.
func Switch(in *control.Input, get func() bool, set func(bool)) {
	Bind(in, Field[bool]{
		Get:  get,
		Set:  set,
		Next: Checked,
		Raw:  func(in *control.Input) string { return strconv.FormatBool(in.Checked()) },
	})
}

// NonNegative coerces raw to a number no smaller than zero. Non-numeric input becomes zero.
func NonNegative(_ float64, raw string) float64 {
	v := Coerce(raw)
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	return v
}

// Opacity coerces raw into [0, 1]. Non-numeric input becomes zero.
func Opacity(_ float64, raw string) float64 {
	v := Coerce(raw)
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

// Layer coerces raw to an integer draw order, truncating fractions. Non-numeric or infinite
// input becomes zero. There is no range limit.
func Layer(_ int, raw string) int {
	v := Coerce(raw)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Trunc(v))
}

// Hex parses the control's hex colour.
func Hex(_ palette.RGB, raw string) palette.RGB { return palette.ParseHex(raw) }

// Checked reads a switch state rendered as "true"/"false".
func Checked(_ bool, raw string) bool { return raw == "true" }

// OpacityStep is the increment offered by opacity controls.
const OpacityStep = 0.05

// Coerce converts control text to a number the way a browser number field does: surrounding
// space is ignored, empty text is zero, 0x/0o/0b prefixes select a radix, Infinity is accepted
// and anything else that is not a decimal literal is NaN.
func Coerce(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if errors.Is(err, strconv.ErrRange) {
				return bigRadix(s[2:], base)
			}
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune("0123456789.+-eE", rune(s[i])) {
			return math.NaN()
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if errors.Is(err, strconv.ErrRange) {
		// overflow yields ±Inf, like a browser
		return v
	}
	if err != nil {
		return math.NaN()
	}
	return v
}

// bigRadix converts a radix literal too long for uint64 to the nearest float64, +Inf past
// the largest finite value.
func bigRadix(digits string, base int) float64 {
	n, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return math.NaN()
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return f
}

// FormatNumber renders a stored number the way the control should display it.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	if v == 0 {
		return "0"
	}
	if a := math.Abs(v); a >= 1e21 || a < 1e-6 {
		// exponent form with the shortest exponent, 1e+21 and 1e-7
		mant, exp, _ := strings.Cut(strconv.FormatFloat(v, 'e', -1, 64), "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
