// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gdata

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler drops every record. Enabled reports false, so registry hot
// paths (Create, Destroy) pay only the level check when logging is off.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// loggerPtr is shared by every Registry without WithLogger and by the
// gpudevice and shader modules.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger routes registry and resource-module logs to l. Nil silences
// them again, which is also the initial state.
//
// Messages are prefixed with the emitting package ("gdata:", "gpudevice:",
// "shader:") and carry "type" and "key" attributes where a resource is
// involved. Levels:
//   - [slog.LevelDebug]: type registration, every create and destroy
//   - [slog.LevelInfo]: adapter chosen for a new GPU device
//   - [slog.LevelWarn]: destructor failures and skipped native releases
//
// A Registry built with WithLogger ignores this setting.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the logger set by SetLogger.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
