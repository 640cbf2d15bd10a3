// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		enabled slog.Level
	}{
		{name: "defaults to info", level: "", enabled: slog.LevelInfo},
		{name: "honors LOG_LEVEL", level: "DEBUG", enabled: slog.LevelDebug},
		{name: "unknown level falls back to info", level: "verbose", enabled: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.level)

			log := NewLogger()

			require.NotNil(t, log)
			assert.True(t, log.Enabled(t.Context(), tt.enabled))
		})
	}
}

func TestNewLogger_CustomHandler(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(slog.NewTextHandler(&buf, nil))

	log.Info("session started", "target", "example.com")

	assert.Contains(t, buf.String(), "session started")
	assert.Contains(t, buf.String(), "target=example.com")
}

func TestNewContextWithLogger(t *testing.T) {
	tests := []struct {
		name   string
		parent context.Context
	}{
		{name: "plain parent", parent: t.Context()},
		{name: "parent already carries a logger", parent: IntoContext(t.Context(), NewLogger())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := NewContextWithLogger(tt.parent)
			defer cancel()

			_, ok := ctx.Value(logger{}).(*slog.Logger)
			assert.True(t, ok, "derived context must carry a logger")
			assert.NotEqual(t, tt.parent, ctx)
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Run("returns the stored logger", func(t *testing.T) {
		var buf bytes.Buffer
		stored := NewLogger(slog.NewJSONHandler(&buf, nil))
		ctx := IntoContext(t.Context(), stored)

		assert.Same(t, stored, FromContext(ctx))
	})

	t.Run("falls back to a fresh logger", func(t *testing.T) {
		assert.NotNil(t, FromContext(t.Context()))
	})

	t.Run("tolerates a nil context", func(t *testing.T) {
		assert.NotNil(t, FromContext(nil)) //nolint:staticcheck // nil context is the case under test
	})
}

func TestMiddleware(t *testing.T) {
	ctx := IntoContext(t.Context(), NewLogger())

	seen := false
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = true
		_, ok := r.Context().Value(logger{}).(*slog.Logger)
		assert.True(t, ok, "request context must carry the logger")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/sessions", http.NoBody)
	Middleware(ctx)(next).ServeHTTP(rec, req)

	assert.True(t, seen, "middleware must call the wrapped handler")
}

func TestNewHandler_Format(t *testing.T) {
	tests := []struct {
		name   string
		format string
		level  string
		text   bool
		want   slog.Level
	}{
		{name: "json by default", want: slog.LevelInfo},
		{name: "text on request", format: "TEXT", level: "DEBUG", text: true, want: slog.LevelDebug},
		{name: "json with warn level", format: "JSON", level: "WARN", want: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_FORMAT", tt.format)
			t.Setenv("LOG_LEVEL", tt.level)

			h := newHandler()

			if tt.text {
				assert.IsType(t, &slog.TextHandler{}, h)
			} else {
				assert.IsType(t, &slog.JSONHandler{}, h)
			}
			assert.True(t, h.Enabled(t.Context(), tt.want))
		})
	}
}

func TestGetLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "", want: slog.LevelInfo},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "WARN", want: slog.LevelWarn},
		{input: "WARNING", want: slog.LevelWarn},
		{input: "ERROR", want: slog.LevelError},
		{input: "loud", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, getLevel(tt.input), "getLevel(%q)", tt.input)
	}
}
