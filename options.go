// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gdata

import (
	"log/slog"
	"math"
)

// Option configures a Registry during creation.
//
// Example:
//
//	reg := gdata.NewRegistry(
//	    gdata.WithInitialCapacity(256),
//	    gdata.WithLogger(slog.Default()),
//	)
type Option func(*options)

// options holds optional configuration for Registry creation.
type options struct {
	maxKeys         uint32
	initialCapacity int
	logger          *slog.Logger
}

// defaultOptions returns the default registry options.
func defaultOptions() options {
	return options{
		maxKeys:         math.MaxUint32,
		initialCapacity: 64,
	}
}

// WithMaxKeys caps the number of slot indices the registry may allocate.
// Once every index is in use Create fails with ErrOutOfKeys.
func WithMaxKeys(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxKeys = n
		}
	}
}

// WithInitialCapacity preallocates slot storage.
func WithInitialCapacity(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.initialCapacity = n
		}
	}
}

// WithLogger sets a registry-specific logger. Without it the registry logs
// through the package logger (see SetLogger).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// CreateOption configures a single Create call.
type CreateOption func(*createOptions)

type createOptions struct {
	name  string
	named bool
	args  any
	deps  []Key
}

// WithName requests a named key instead of a numeric one.
func WithName(name string) CreateOption {
	return func(o *createOptions) {
		o.name = name
		o.named = true
	}
}

// WithArgs passes v to the type's constructor.
func WithArgs(v any) CreateOption {
	return func(o *createOptions) {
		o.args = v
	}
}

// WithDependencies pins keys for the lifetime of the new resource. Each key
// must be live when Create is called; they cannot be destroyed while the
// constructor runs or while the resource exists.
func WithDependencies(keys ...Key) CreateOption {
	return func(o *createOptions) {
		o.deps = append(o.deps, keys...)
	}
}
