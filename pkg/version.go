// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

// Package pkg contains metadata about pathwatch.
package pkg

// Version is the current version of pathwatch.
// It is set at build time by using -ldflags "-X main.version=x.x.x".
var Version string
