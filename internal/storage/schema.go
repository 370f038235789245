/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed level.schema.json
var levelSchemaJSON []byte

// ErrInvalidLevel wraps schema violations found in a level file.
var ErrInvalidLevel = errors.New("invalid level file")

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func levelSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(levelSchemaJSON))
	})
	return schema, schemaErr
}

// SchemaJSON returns the embedded level file schema.
func SchemaJSON() []byte { return append([]byte(nil), levelSchemaJSON...) }

// Validate checks a level document against the embedded schema.
// Violations are reported in one error wrapping ErrInvalidLevel.
func Validate(data []byte) error {
	s, err := levelSchema()
	if err != nil {
		return fmt.Errorf("load level schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidLevel, strings.Join(msgs, "; "))
}
