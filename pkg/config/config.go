// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"time"

	"github.com/pathwatch/pathwatch/pkg/api"
	"github.com/pathwatch/pathwatch/pkg/service/metrics"
)

// Metadata holds optional ownership and platform information for the
// pathwatch instance. Exposed via the pathwatch_instance_info prometheus
// metric for alert routing and multi-team operability.
type Metadata struct {
	// Team holds team ownership information
	Team TeamMetadata `yaml:"team" mapstructure:"team"`
	// Platform identifies the deployment platform (e.g. k8s-prod-eu, aws-eu-west-1)
	Platform string `yaml:"platform" mapstructure:"platform"`
}

// TeamMetadata holds team name and contact for ownership
type TeamMetadata struct {
	Name  string `yaml:"name" mapstructure:"name"`
	Email string `yaml:"email" mapstructure:"email"`
}

// Config is the startup configuration of pathwatch. It is immutable after
// startup; the monitors it points to are reloadable at runtime.
type Config struct {
	// Name is the DNS name of this pathwatch instance
	Name string `yaml:"name" mapstructure:"name"`
	// Metadata is optional ownership and platform metadata (exposed as pathwatch_instance_info)
	Metadata Metadata `yaml:"metadata" mapstructure:"metadata"`
	// Loader is the configuration for the monitor loader
	Loader LoaderConfig `yaml:"loader" mapstructure:"loader"`
	// Api is the configuration for the api server
	Api api.Config `yaml:"api" mapstructure:"api"`
	// Telemetry is the configuration for the telemetry
	Telemetry metrics.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// LoaderConfig is the configuration for the monitor loader
type LoaderConfig struct {
	// Interval is how often the monitor file is reloaded.
	// Zero loads the file once and disables reloading.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// File is the configuration for the file loader
	File FileLoaderConfig `yaml:"file" mapstructure:"file"`
}

// FileLoaderConfig is the configuration for the file loader
type FileLoaderConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// HasMonitorFile returns true if a monitor file is configured
func (c *Config) HasMonitorFile() bool {
	return c.Loader.File.Path != ""
}

// HasTelemetry returns true if the config has telemetry enabled
func (c *Config) HasTelemetry() bool {
	return c.Telemetry.Enabled
}
