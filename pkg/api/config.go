// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"net"
)

// defaultListeningAddress is used when no address is configured.
const defaultListeningAddress = ":8080"

// Config is the configuration of the api server
type Config struct {
	// ListeningAddress is the address the api server listens on
	ListeningAddress string `yaml:"address" mapstructure:"address"`
}

// Validate validates the api configuration
func (c *Config) Validate() error {
	if c.ListeningAddress == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.ListeningAddress); err != nil {
		return fmt.Errorf("invalid api listening address %q: %w", c.ListeningAddress, err)
	}
	return nil
}

// address returns the configured listening address or the default.
func (c *Config) address() string {
	if c.ListeningAddress == "" {
		return defaultListeningAddress
	}
	return c.ListeningAddress
}
