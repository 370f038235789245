/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package entity

import (
	"encoding/json"
	"fmt"
)

// Kind enumerates the object kinds an area can hold. The set is closed; its order is the
// order kinds appear in level files and in the editor's object list.
type Kind int

const (
	KindObstacle Kind = iota
	KindTeleporter
	KindLava
	KindRotatingLava
	KindMovingLava
	KindIce
	KindSlime
	KindButton
	KindSwitch
	KindDoor
	KindBlock
	KindText
	KindTurret
	KindGravityZone
	KindReward
	KindHatReward
	KindBox
	KindImage0
	KindImage1
	KindSpawner

	kindCount
)

var kindNames = [kindCount]string{
	"obstacle", "teleporter", "lava", "rotatingLava", "movingLava", "ice", "slime", "button",
	"switch", "door", "block", "text", "turret", "gravityZone", "reward", "hatReward", "box",
	"image0", "image1", "spawner",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds returns every kind in enumeration order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// ParseKind resolves a level file kind name.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Object is anything placed in an area.
type Object interface {
	Kind() Kind
	json.Marshaler
}

// Objects maps every Kind to the ordered objects of that kind. The zero value is ready to use
// and already holds an empty sequence for each kind.
type Objects struct {
	seqs [kindCount][]Object
}

// Of returns the objects of kind k. The slice must not be modified.
func (o *Objects) Of(k Kind) []Object {
	if k < 0 || k >= kindCount {
		return nil
	}
	return o.seqs[k]
}

// Append places obj at the end of its kind's sequence.
func (o *Objects) Append(obj Object) {
	k := obj.Kind()
	o.seqs[k] = append(o.seqs[k], obj)
}

// Remove deletes the i-th object of kind k and reports whether it existed.
func (o *Objects) Remove(k Kind, i int) bool {
	if k < 0 || k >= kindCount || i < 0 || i >= len(o.seqs[k]) {
		return false
	}
	o.seqs[k] = append(o.seqs[k][:i], o.seqs[k][i+1:]...)
	return true
}

// Len returns the number of objects across all kinds.
func (o *Objects) Len() int {
	n := 0
	for _, s := range o.seqs {
		n += len(s)
	}
	return n
}

// Blocks returns the block objects in order.
func (o *Objects) Blocks() []*Block {
	out := make([]*Block, 0, len(o.seqs[KindBlock]))
	for _, obj := range o.seqs[KindBlock] {
		if b, ok := obj.(*Block); ok {
			out = append(out, b)
		}
	}
	return out
}

// RawObject is an object of a kind the editor has no factory for. Its level file entry is
// preserved byte for byte.
type RawObject struct {
	kind Kind
	Raw  json.RawMessage
}

// NewRawObject wraps a level file entry of kind k.
func NewRawObject(k Kind, raw json.RawMessage) *RawObject {
	return &RawObject{kind: k, Raw: append(json.RawMessage(nil), raw...)}
}

func (r *RawObject) Kind() Kind { return r.kind }

func (r *RawObject) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}
