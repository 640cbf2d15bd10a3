// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"errors"
	"fmt"
	"time"
)

// ErrExecutor is returned when the discovery process could not be started.
type ErrExecutor struct {
	Err error
}

func (e ErrExecutor) Error() string {
	return fmt.Sprintf("failed to start discovery process: %v", e.Err)
}

func (e ErrExecutor) Unwrap() error {
	return e.Err
}

// ErrDiscoveryFailed is returned when the discovery process exited with a
// failure before any hop was collected.
type ErrDiscoveryFailed struct {
	ExitCode int
	Stderr   string
}

func (e ErrDiscoveryFailed) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("discovery failed with exit code %d: %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("discovery failed with exit code %d", e.ExitCode)
}

// ErrDiscoveryTimeout is returned when the configured overall timeout elapsed
// before the discovery process finished.
type ErrDiscoveryTimeout struct {
	Timeout time.Duration
}

func (e ErrDiscoveryTimeout) Error() string {
	return fmt.Sprintf("discovery timed out after %v", e.Timeout)
}

// IsTimeout reports whether the error is a discovery timeout.
func IsTimeout(err error) bool {
	var te ErrDiscoveryTimeout
	return errors.As(err, &te)
}
