/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package property composes labelled controls into the tree shown in the property panel.
// The tree only references controls; it never reads or writes entity fields.
package property

import (
	"strings"

	"skapeditor/internal/control"
)

// Kind selects how a leaf control is rendered.
type Kind int

const (
	Text Kind = iota
	Number
	Color
	Switch
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Number:
		return "number"
	case Color:
		return "color"
	case Switch:
		return "switch"
	default:
		return "unknown"
	}
}

// Node is either a *Group or a *Leaf.
type Node interface {
	Label() string
	node()
}

// Group is a named folder of child nodes.
type Group struct {
	label    string
	Children []Node
}

// Leaf is a labelled control.
type Leaf struct {
	label   string
	Control *control.Input
	Kind    Kind
}

func (g *Group) Label() string { return g.label }
func (*Group) node()           {}
func (l *Leaf) Label() string  { return l.label }
func (*Leaf) node()            {}

// Folder creates a group node.
func Folder(label string, children ...Node) *Group {
	return &Group{label: label, Children: children}
}

// Property creates a leaf node for in rendered as kind.
func Property(label string, in *control.Input, kind Kind) *Leaf {
	return &Leaf{label: label, Control: in, Kind: kind}
}

// Walk visits n and its descendants depth first. path holds the labels of the enclosing
// groups, excluding n itself. Returning false from fn stops the walk.
func Walk(n Node, fn func(path []string, n Node) bool) {
	walk(nil, n, fn)
}

func walk(path []string, n Node, fn func([]string, Node) bool) bool {
	if !fn(path, n) {
		return false
	}
	g, ok := n.(*Group)
	if !ok {
		return true
	}
	sub := append(append([]string(nil), path...), g.label)
	for _, c := range g.Children {
		if !walk(sub, c, fn) {
			return false
		}
	}
	return true
}

// Find resolves a leaf by its labels below root, e.g. Find(tree, "Size", "width").
func Find(root Node, labels ...string) (*Leaf, bool) {
	want := strings.Join(labels, "/")
	var found *Leaf
	Walk(root, func(path []string, n Node) bool {
		l, ok := n.(*Leaf)
		if !ok {
			return true
		}
		rel := path
		if len(rel) > 0 {
			rel = rel[1:] // drop the root folder
		}
		if strings.Join(append(append([]string(nil), rel...), l.label), "/") == want {
			found = l
			return false
		}
		return true
	})
	return found, found != nil
}

// Leaves returns every leaf below n in display order.
func Leaves(n Node) []*Leaf {
	var out []*Leaf
	Walk(n, func(_ []string, n Node) bool {
		if l, ok := n.(*Leaf); ok {
			out = append(out, l)
		}
		return true
	})
	return out
}
