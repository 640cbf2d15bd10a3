// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
)

// Schema returns an openapi3.SchemaRef describing the result type of a
// diagnostic run, for consumers that want to interpret the API output.
func Schema() (*openapi3.SchemaRef, error) {
	gen := openapi3gen.NewGenerator(openapi3gen.UseAllExportedFields())
	ref, err := gen.NewSchemaRefForValue(RunResult{}, openapi3.Schemas{})
	if err != nil {
		return nil, fmt.Errorf("failed to generate run result schema: %w", err)
	}
	return ref, nil
}
