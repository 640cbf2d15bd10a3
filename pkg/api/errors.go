// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package api

import "fmt"

// ErrCreateOpenapiSchema is returned when the result schema cannot be generated
type ErrCreateOpenapiSchema struct {
	err error
}

func (e ErrCreateOpenapiSchema) Error() string {
	return fmt.Sprintf("failed to generate openapi schema: %v", e.err)
}

func (e ErrCreateOpenapiSchema) Unwrap() error {
	return e.err
}
