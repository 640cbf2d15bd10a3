// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"io/fs"
	"reflect"
	"testing"
	"time"

	"github.com/pathwatch/pathwatch/pkg/config/test"
	"github.com/pathwatch/pathwatch/pkg/diagnostic"
	"github.com/pathwatch/pathwatch/pkg/monitor"
)

func wantMonitors() monitor.Config {
	return monitor.Config{
		Monitors: []monitor.Monitor{
			{
				Name: "upstream",
				Diagnostic: diagnostic.Config{
					Target:       "example.com",
					MaxHops:      16,
					ResolveHosts: true,
					PingHops:     true,
					Interval:     5 * time.Second,
				},
			},
		},
	}
}

func TestNewFileLoader(t *testing.T) {
	l := NewFileLoader(&Config{Loader: LoaderConfig{File: FileLoaderConfig{Path: "config.yaml"}}}, make(chan monitor.Config, 1))

	if l.config.File.Path != "config.yaml" {
		t.Errorf("Expected path to be config.yaml, got %s", l.config.File.Path)
	}
	if l.cMonitors == nil {
		t.Errorf("Expected channel to be not nil")
	}
	if l.fsys == nil {
		t.Errorf("Expected filesystem to be not nil")
	}
}

func TestFileLoader_Run(t *testing.T) {
	tests := []struct {
		name    string
		config  LoaderConfig
		want    monitor.Config
		wantErr bool
	}{
		{
			name: "Loads monitors from file",
			config: LoaderConfig{
				Interval: 1 * time.Second,
				File: FileLoaderConfig{
					Path: "test/data/config.yaml",
				},
			},
			want:    wantMonitors(),
			wantErr: false,
		},
		{
			name: "Continuous loading disabled",
			config: LoaderConfig{
				Interval: 0,
				File: FileLoaderConfig{
					Path: "test/data/config.yaml",
				},
			},
			want:    wantMonitors(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := t.Context()
			result := make(chan monitor.Config, 1)
			f := NewFileLoader(&Config{
				Loader: tt.config,
			}, result)

			go func(wantErr bool) {
				defer close(result)
				err := f.Run(ctx)
				if (err != nil) != wantErr {
					t.Errorf("Run() error %v, want %v", err, tt.wantErr)
				}
			}(tt.wantErr)
			defer f.Shutdown(ctx)

			if !tt.wantErr {
				cfg := <-result
				if !reflect.DeepEqual(cfg, tt.want) {
					t.Errorf("Expected config to be %v, got %v", tt.want, cfg)
				}
			}
		})
	}
}

func TestFileLoader_getMonitorConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  LoaderConfig
		mockFS  func(t *testing.T) fs.FS
		want    monitor.Config
		wantErr bool
	}{
		{
			name: "Invalid File Path",
			config: LoaderConfig{
				Interval: 1 * time.Second,
				File: FileLoaderConfig{
					Path: "test/data/nonexistent.yaml",
				},
			},
			wantErr: true,
		},
		{
			name: "Malformed Config File",
			config: LoaderConfig{
				Interval: 1 * time.Second,
				File: FileLoaderConfig{
					Path: "test/data/malformed.yaml",
				},
			},
			mockFS: func(_ *testing.T) fs.FS {
				return &test.MockFS{
					OpenFunc: func(name string) (fs.File, error) {
						content := []byte("this is not a valid yaml content")
						return &test.MockFile{Content: content}, nil
					},
				}
			},
			wantErr: true,
		},
		{
			name: "Failed to close file",
			config: LoaderConfig{
				Interval: 1 * time.Second,
				File: FileLoaderConfig{
					Path: "test/data/valid.yaml",
				},
			},
			mockFS: func(t *testing.T) fs.FS {
				return &test.MockFS{
					OpenFunc: func(name string) (fs.File, error) {
						return &test.MockFile{
							Content: []byte("monitors: []"),
							CloseFunc: func() error {
								return fmt.Errorf("failed to close file")
							},
						}, nil
					},
				}
			},
			wantErr: true,
		},
		{
			name: "Malformed config file and failed to close file",
			config: LoaderConfig{
				Interval: 1 * time.Second,
				File: FileLoaderConfig{
					Path: "test/data/malformed.yaml",
				},
			},
			mockFS: func(t *testing.T) fs.FS {
				return &test.MockFS{
					OpenFunc: func(name string) (fs.File, error) {
						return &test.MockFile{
							Content: []byte("this is not a valid yaml content"),
							CloseFunc: func() error {
								return fmt.Errorf("failed to close file")
							},
						}, nil
					},
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := make(chan monitor.Config, 1)
			defer close(res)
			f := NewFileLoader(&Config{
				Loader: tt.config,
			}, res)
			if tt.mockFS != nil {
				f.fsys = tt.mockFS(t)
			}

			cfg, err := f.getMonitorConfig(t.Context())
			if (err != nil) != tt.wantErr {
				t.Errorf("getMonitorConfig() error %v, want %v", err, tt.wantErr)
			}

			if !tt.wantErr {
				if !reflect.DeepEqual(cfg, tt.want) {
					t.Errorf("Expected config to be %v, got %v", tt.want, cfg)
				}
			}
		})
	}
}
