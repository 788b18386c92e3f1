// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gogpu/gdata/internal/config"
)

const fillWGSL = `
@group(0) @binding(0) var<storage, read_write> data: array<u32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = id.x;
}
`

func TestZapHandlerForwards(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := slog.New(newZapHandler(zap.New(core)))

	l.Debug("dropped")
	l.With("backend", "noop").WithGroup("dev").Info("opened", "index", 3, "err", errors.New("boom"))
	l.Warn("slow", slog.Group("timing", slog.Float64("ms", 1.5)))

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	first := entries[0]
	if first.Message != "opened" || first.Level != zapcore.InfoLevel {
		t.Errorf("first = %q at %v", first.Message, first.Level)
	}
	ctx := first.ContextMap()
	if ctx["backend"] != "noop" {
		t.Errorf("backend = %v", ctx["backend"])
	}
	if ctx["dev.index"] != int64(3) {
		t.Errorf("dev.index = %v (%T)", ctx["dev.index"], ctx["dev.index"])
	}
	if ctx["dev.err"] != "boom" {
		t.Errorf("dev.err = %v", ctx["dev.err"])
	}

	second := entries[1]
	if second.Level != zapcore.WarnLevel {
		t.Errorf("second level = %v", second.Level)
	}
	if second.ContextMap()["timing.ms"] != 1.5 {
		t.Errorf("timing.ms = %v", second.ContextMap()["timing.ms"])
	}
}

func TestZapLevel(t *testing.T) {
	tests := []struct {
		in   slog.Level
		want zapcore.Level
	}{
		{slog.LevelDebug, zapcore.DebugLevel},
		{slog.LevelDebug - 4, zapcore.DebugLevel},
		{slog.LevelInfo, zapcore.InfoLevel},
		{slog.LevelWarn, zapcore.WarnLevel},
		{slog.LevelError, zapcore.ErrorLevel},
		{slog.LevelError + 4, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		if got := zapLevel(tt.in); got != tt.want {
			t.Errorf("zapLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := newLogger(config.LoggingConfig{Level: "nonsense", Format: format})
		if err != nil {
			t.Fatalf("newLogger(%s): %v", format, err)
		}
		if !l.Core().Enabled(zapcore.InfoLevel) || l.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("newLogger(%s) should fall back to info", format)
		}
	}
}

func TestRunDefaults(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), config.Defaults(), ".", zap.NewNop(), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{"backend: noop (1 open devices)", "resources: 1 live", "GPUDevice"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunWithShaders(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "fill.wgsl"), []byte(fillWGSL), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Parse(`
[[devices]]
name = "main"

[[shaders]]
name = "fill"
device = "main"
path = "fill.wgsl"
`)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), cfg, dir, zap.NewNop(), &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{"resources: 2 live", "device @main", "shader @fill", "on @main"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunMissingShader(t *testing.T) {
	cfg, err := config.Parse(`
[[devices]]
name = "main"

[[shaders]]
name = "gone"
device = "main"
path = "gone.wgsl"
`)
	if err != nil {
		t.Fatal(err)
	}
	err = run(context.Background(), cfg, t.TempDir(), zap.NewNop(), &bytes.Buffer{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("run() = %v, want ErrNotExist", err)
	}
}

func TestOpenBackendUnknown(t *testing.T) {
	if _, err := openBackend("metal"); err == nil {
		t.Error("openBackend(metal) = nil error")
	}
}
