// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

// Package monitor defines the runtime configuration of pathwatch: the set of
// continuous diagnostics the service keeps running. It is reloadable at
// runtime, unlike the startup configuration.
package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/pathwatch/pathwatch/internal/logger"
	"github.com/pathwatch/pathwatch/pkg/diagnostic"
)

// Config is the runtime configuration holding the monitors to keep running.
type Config struct {
	Monitors []Monitor `yaml:"monitors" json:"monitors" mapstructure:"monitors"`
}

// Monitor is one named continuous diagnostic.
type Monitor struct {
	// Name identifies the monitor across configuration reloads.
	Name string `yaml:"name" json:"name" mapstructure:"name"`
	// Diagnostic is the diagnostic configuration the monitor runs with.
	Diagnostic diagnostic.Config `yaml:"diagnostic" json:"diagnostic" mapstructure:"diagnostic"`
}

// Empty reports whether no monitors are configured.
func (c Config) Empty() bool {
	return len(c.Monitors) == 0
}

// Validate validates the runtime configuration. All monitors are checked so
// one bad monitor does not mask the others.
func (c Config) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)

	seen := make(map[string]bool, len(c.Monitors))
	for i, m := range c.Monitors {
		if m.Name == "" {
			log.ErrorContext(ctx, "Monitor has no name", "index", i)
			err = errors.Join(err, fmt.Errorf("monitor %d: %w", i, ErrMissingName))
			continue
		}
		if seen[m.Name] {
			log.ErrorContext(ctx, "Duplicate monitor name", "name", m.Name)
			err = errors.Join(err, fmt.Errorf("monitor %q: %w", m.Name, ErrDuplicateName))
		}
		seen[m.Name] = true

		if _, vErr := m.Diagnostic.ValidateContinuous(); vErr != nil {
			log.ErrorContext(ctx, "Invalid monitor configuration", "name", m.Name, "error", vErr)
			err = errors.Join(err, fmt.Errorf("monitor %q: %w", m.Name, vErr))
		}
	}
	return err
}

var (
	// ErrMissingName is returned when a monitor has no name
	ErrMissingName = errors.New("monitor name must not be empty")
	// ErrDuplicateName is returned when two monitors share a name
	ErrDuplicateName = errors.New("monitor name already in use")
)
