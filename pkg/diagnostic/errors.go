// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package diagnostic

import (
	"fmt"
)

// ErrInvalidConfig is returned when a diagnostic configuration is invalid
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid configuration field %q: %s", e.Field, e.Reason)
}

// ErrResolution is returned when a target is neither a literal address nor resolvable
type ErrResolution struct {
	Target string
	Err    error
}

func (e ErrResolution) Error() string {
	return fmt.Sprintf("failed to resolve target %q: %v", e.Target, e.Err)
}

func (e ErrResolution) Unwrap() error {
	return e.Err
}

// ErrProcessing is returned when a raw hop event is malformed.
// With a well-formed discovery capability this should not occur,
// so it is treated as a bug signal and fails the current run.
type ErrProcessing struct {
	Reason string
}

func (e ErrProcessing) Error() string {
	return fmt.Sprintf("malformed hop data: %s", e.Reason)
}

// ErrSessionNotFound is returned when a session id is not registered
type ErrSessionNotFound struct {
	ID string
}

func (e ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session %q not found", e.ID)
}

// ErrMetricNotFound is returned when a metric is not found
type ErrMetricNotFound struct {
	Label string
}

func (e ErrMetricNotFound) Error() string {
	return fmt.Sprintf("metric %q not found", e.Label)
}
