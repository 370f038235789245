/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skapeditor/internal/control"
)

func sampleTree() (*Group, *control.Input, *control.Input) {
	name := control.New("n")
	w := control.New("1")
	tree := Folder("Props",
		Property("name", name, Text),
		Folder("Size",
			Property("width", w, Number),
			Property("height", control.New("2"), Number),
		),
	)
	return tree, name, w
}

func TestFind(t *testing.T) {
	tree, name, w := sampleTree()

	l, ok := Find(tree, "name")
	require.True(t, ok)
	assert.Same(t, name, l.Control)
	assert.Equal(t, Text, l.Kind)

	l, ok = Find(tree, "Size", "width")
	require.True(t, ok)
	assert.Same(t, w, l.Control)

	_, ok = Find(tree, "width")
	assert.False(t, ok)
}

func TestLeavesOrder(t *testing.T) {
	tree, _, _ := sampleTree()
	var labels []string
	for _, l := range Leaves(tree) {
		labels = append(labels, l.Label())
	}
	assert.Equal(t, []string{"name", "width", "height"}, labels)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "switch", Switch.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
