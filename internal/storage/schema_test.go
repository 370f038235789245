/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

func TestLevelConformsToSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.skap.json")
	h, err := Create(path, sampleLevel(t))
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	data, err := os.ReadFile(h.Path)
	if err != nil {
		t.Fatalf("read level: %v", err)
	}
	schemaLoader := gojsonschema.NewBytesLoader(SchemaJSON())
	docLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		t.Fatalf("schema validate error: %v", err)
	}
	if !result.Valid() {
		for _, e := range result.Errors() {
			t.Logf("schema error: %s", e)
		}
		t.Fatalf("level does not conform to schema")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := map[string]string{
		"not json":         `{ nope`,
		"missing areas":    `{"name":"x"}`,
		"negative size":    `{"name":"x","areas":[{"name":"a","colorArr":[0,0,0],"backgroundArr":[0,0,0],"opacity":1,"size":[-1,1],"objects":{}}]}`,
		"colour range":     `{"name":"x","areas":[{"name":"a","colorArr":[0,0,300],"backgroundArr":[0,0,0],"opacity":1,"size":[1,1],"objects":{}}]}`,
		"block negative x": `{"name":"x","areas":[{"name":"a","colorArr":[0,0,0],"backgroundArr":[0,0,0],"opacity":1,"size":[1,1],"objects":{"block":[{"type":"block","pos":{"x":-1,"y":0},"size":{"x":1,"y":1},"colorArr":[0,0,0],"opacity":1}]}}]}`,
		"object not obj":   `{"name":"x","areas":[{"name":"a","colorArr":[0,0,0],"backgroundArr":[0,0,0],"opacity":1,"size":[1,1],"objects":{"lava":[3]}}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if err := Validate([]byte(doc)); !errors.Is(err, ErrInvalidLevel) {
				t.Fatalf("expected ErrInvalidLevel, got %v", err)
			}
		})
	}
}
