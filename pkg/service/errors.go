// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package service

import "errors"

// ErrFinalShutdown is returned when the service has shut down for good
var ErrFinalShutdown = errors.New("service was shut down")

// ErrShutdown holds any errors that may
// have occurred during shutdown of the service
type ErrShutdown struct {
	errAPI     error
	errMetrics error
}

// HasError returns true if any of the errors are set
func (e ErrShutdown) HasError() bool {
	return e.errAPI != nil || e.errMetrics != nil
}
