// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"

	"github.com/pathwatch/pathwatch/pkg/monitor"
)

// Loader loads the runtime monitor configuration and pushes updates to the
// service.
type Loader interface {
	// Run starts the loader routine.
	// The loader should be able
	// to handle all errors by itself and retry if necessary.
	// If the context is canceled,
	// the Run method returns an error.
	Run(context.Context) error
	// Shutdown stops the loader routine.
	Shutdown(context.Context)
}

// NewLoader creates a new monitor configuration loader
func NewLoader(cfg *Config, cMonitors chan<- monitor.Config) Loader {
	return NewFileLoader(cfg, cMonitors)
}
