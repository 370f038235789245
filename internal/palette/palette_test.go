/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package palette

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexRoundTrip(t *testing.T) {
	for _, h := range []string{"#000000", "#ffffff", "#000a57", "#e6e6e6", "#ff0000", "#12ab9c"} {
		require.Equal(t, h, Hex(ParseHex(h)), "round trip of %s", h)
	}
}

func TestParseHexForms(t *testing.T) {
	assert.Equal(t, RGB{255, 0, 0}, ParseHex("#f00"))
	assert.Equal(t, RGB{0, 10, 87}, ParseHex("000A57"))
	assert.Equal(t, RGB{}, ParseHex("#12345"))
	assert.Equal(t, RGB{0, 0x0a, 0}, ParseHex("#zz0azz"))
}

func TestValidHex(t *testing.T) {
	assert.True(t, ValidHex("#abc"))
	assert.True(t, ValidHex("A0B0C0"))
	assert.False(t, ValidHex("#abcd"))
	assert.False(t, ValidHex("#ggg"))
}

func TestBlend240(t *testing.T) {
	assert.Equal(t, "rgb(0,10,87)", Blend240(RGB{0, 10, 87}, 1))
	assert.Equal(t, "rgb(240,240,240)", Blend240(RGB{0, 10, 87}, 0))
	assert.Equal(t, "rgb(48,56,118)", Blend240(RGB{0, 10, 87}, 0.8))
}

func TestBlend240Idempotent(t *testing.T) {
	c := RGB{12, 200, 33}
	assert.Equal(t, Blend240(c, 0.35), Blend240(c, 0.35))
}

func TestRGBAStrings(t *testing.T) {
	assert.Equal(t, "rgba(230,230,230,1)", RGBA(RGB{230, 230, 230}))
	assert.Equal(t, "rgba(0,10,87,0.8)", RGBAWithAlpha(RGB{0, 10, 87}, 0.8))
	assert.Equal(t, "rgba(0,10,87,0)", RGBAWithAlpha(RGB{0, 10, 87}, 0))
}

func TestOver(t *testing.T) {
	got := Over(RGB{255, 0, 0}, 0.5, RGB{0, 0, 255})
	assert.Equal(t, uint8(128), got.R)
	assert.Equal(t, uint8(128), got.B)
	assert.Equal(t, uint8(0xff), got.A)
	assert.Equal(t, uint8(255), NRGBA(RGB{}, 3).A)
}
