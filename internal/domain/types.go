/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "encoding/json"

// This file defines the level file document. Level files are human-readable JSON read by the
// game and by the editor; the editor writes canonical fields together with the derived,
// render-ready strings so the game never has to recompute them.

// CurrentVersion is the level file format written by this editor.
const CurrentVersion = 1

// Level is the root of a level file.
type Level struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
	Creator string `json:"creator,omitempty"`
	Spawn   Vec    `json:"spawn"`
	Areas   []Area `json:"areas"`
}

// Area is one level region. Objects maps every object kind name to its placed objects;
// entries of kinds the editor has no factory for are kept verbatim.
type Area struct {
	ID            string                       `json:"id,omitempty"`
	Name          string                       `json:"name"`
	Color         string                       `json:"color"`
	ColorArr      [3]uint8                     `json:"colorArr"`
	Background    string                       `json:"background"`
	BackgroundArr [3]uint8                     `json:"backgroundArr"`
	Opacity       float64                      `json:"opacity"`
	Size          [2]float64                   `json:"size"`
	Objects       map[string][]json.RawMessage `json:"objects"`
}

// Block is a solid or decorative rectangle.
type Block struct {
	ID       string   `json:"id,omitempty"`
	Type     string   `json:"type"`
	Pos      Vec      `json:"pos"`
	Size     Vec      `json:"size"`
	Color    string   `json:"color"`
	ColorArr [3]uint8 `json:"colorArr"`
	Opacity  float64  `json:"opacity"`
	Collide  bool     `json:"collide"`
	Layer    int      `json:"layer"`
}

// Vec is a 2D position or extent.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
