// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pathwatch/pathwatch/internal/logger"
	"github.com/pathwatch/pathwatch/pkg/monitor"
)

var _ Loader = (*FileLoader)(nil)

// FileLoader loads the monitor configuration from a local yaml file and
// reloads it periodically.
type FileLoader struct {
	config    LoaderConfig
	cMonitors chan<- monitor.Config
	done      chan struct{}
	fsys      fs.FS
}

func NewFileLoader(cfg *Config, cMonitors chan<- monitor.Config) *FileLoader {
	return &FileLoader{
		config:    cfg.Loader,
		cMonitors: cMonitors,
		done:      make(chan struct{}, 1),
		fsys:      os.DirFS(filepath.Dir(cfg.Loader.File.Path)),
	}
}

// Run loads the monitor configuration from the local file. The config is
// reloaded periodically per the loader interval configuration. If the
// interval is 0, the configuration is only loaded once and the loader is
// disabled.
func (f *FileLoader) Run(ctx context.Context) error {
	ctx, cancel := logger.NewContextWithLogger(ctx)
	defer cancel()
	log := logger.FromContext(ctx)

	// Load the monitor configuration once on startup
	cfg, err := f.getMonitorConfig(ctx)
	if err != nil {
		log.Warn("Could not load monitor configuration", "error", err)
		err = fmt.Errorf("could not load monitor configuration: %w", err)
	}
	f.cMonitors <- cfg

	if f.config.Interval == 0 {
		log.Info("File Loader disabled")
		return err
	}

	tick := time.NewTicker(f.config.Interval)
	defer tick.Stop()

	for {
		select {
		case <-f.done:
			log.Info("File Loader terminated")
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			monitorCfg, err := f.getMonitorConfig(ctx)
			if err != nil {
				log.Warn("Could not load monitor configuration", "error", err)
				tick.Reset(f.config.Interval)
				continue
			}

			log.Info("Successfully loaded monitor configuration")
			f.cMonitors <- monitorCfg
			tick.Reset(f.config.Interval)
		}
	}
}

// getMonitorConfig reads the monitor configuration from the configured file.
func (f *FileLoader) getMonitorConfig(ctx context.Context) (cfg monitor.Config, err error) {
	log := logger.FromContext(ctx).With("path", f.config.File.Path)

	file, err := f.fsys.Open(filepath.Base(f.config.File.Path))
	if err != nil {
		log.Error("Failed to open monitor file", "error", err)
		return cfg, fmt.Errorf("failed to open monitor file: %w", err)
	}
	defer func() {
		cerr := file.Close()
		if cerr != nil {
			log.Error("Failed to close monitor file", "error", cerr)
		}
		err = errors.Join(cerr, err)
	}()

	b, err := io.ReadAll(file)
	if err != nil {
		log.Error("Failed to read monitor file", "error", err)
		return cfg, fmt.Errorf("failed to read monitor file: %w", err)
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		log.Error("Failed to parse monitor file", "error", err)
		return cfg, fmt.Errorf("failed to parse monitor file: %w", err)
	}

	return cfg, nil
}

func (f *FileLoader) Shutdown(ctx context.Context) {
	log := logger.FromContext(ctx)
	select {
	case f.done <- struct{}{}:
		log.Debug("Sending signal to shut down file loader")
	default:
	}
}
