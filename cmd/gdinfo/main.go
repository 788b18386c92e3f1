// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command gdinfo builds a resource registry from a TOML file, creates the
// configured GPU devices and shader modules, reports what was created and
// tears everything down again.
//
// Usage:
//
//	gdinfo [-config gdinfo.toml]
//
// Without -config a single device is created on the noop backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
	"go.uber.org/zap"

	"github.com/gogpu/gdata"
	"github.com/gogpu/gdata/gpudevice"
	"github.com/gogpu/gdata/internal/config"
	"github.com/gogpu/gdata/shader"
)

func main() {
	cfgPath := flag.String("config", "", "path to TOML configuration")
	flag.Parse()

	cfg := config.Defaults()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintf(os.Stderr, "gdinfo: %v\n", err)
			os.Exit(1)
		}
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gdinfo: logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, filepath.Dir(*cfgPath), log, os.Stdout); err != nil {
		log.Error("gdinfo failed", zap.Error(err))
		stop()
		_ = log.Sync()
		os.Exit(1)
	}
}

// run executes one bootstrap cycle. Shader paths are resolved against dir.
func run(ctx context.Context, cfg *config.Config, dir string, log *zap.Logger, out io.Writer) (err error) {
	gdata.SetLogger(slogFrom(log))
	defer gdata.SetLogger(nil)

	backend, err := openBackend(cfg.GPU.Backend)
	if err != nil {
		return err
	}
	defer backend.Close()

	pref, err := gpudevice.ParsePowerPreference(cfg.GPU.PowerPreference)
	if err != nil {
		return err
	}

	reg := gdata.NewRegistry(
		gdata.WithMaxKeys(cfg.Registry.MaxKeys),
		gdata.WithInitialCapacity(cfg.Registry.InitialCapacity),
	)
	defer func() {
		if cerr := reg.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = fmt.Errorf("close registry: %w", cerr)
		}
	}()

	if err := gpudevice.TypeInit(reg, backend); err != nil {
		return err
	}
	if err := shader.TypeInit(reg); err != nil {
		return err
	}

	devices := cfg.Devices
	if len(devices) == 0 {
		devices = []config.DeviceConfig{{Label: "default"}}
	}
	byName := make(map[string]gdata.Key, len(devices))
	for _, d := range devices {
		opts := []gpudevice.Option{
			gpudevice.WithLabel(d.Label),
			gpudevice.WithPowerPreference(pref),
		}
		if d.Name != "" {
			opts = append(opts, gpudevice.WithName(d.Name))
		}
		key, err := gpudevice.Create(ctx, reg, opts...)
		if err != nil {
			return fmt.Errorf("device %q: %w", d.Name, err)
		}
		byName[d.Name] = key
	}

	for _, s := range cfg.Shaders {
		path := s.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("shader %q: %w", s.Name, err)
		}
		var opts []shader.Option
		if s.Name != "" {
			opts = append(opts, shader.WithName(s.Name))
		}
		source := shader.Source{Label: s.Name, WGSL: string(src)}
		if _, err := shader.Create(ctx, reg, byName[s.Device], source, opts...); err != nil {
			return fmt.Errorf("shader %q: %w", s.Name, err)
		}
	}

	report(out, backend, reg)
	return nil
}

func openBackend(name string) (*gpudevice.HALBackend, error) {
	switch name {
	case "noop":
		return gpudevice.NewHALBackend("noop", &noop.API{}), nil
	case "vulkan":
		return gpudevice.BackendFor(gputypes.BackendVulkan)
	}
	return nil, fmt.Errorf("unknown backend %q", name)
}

func report(out io.Writer, backend *gpudevice.HALBackend, reg *gdata.Registry) {
	st := reg.Stats()
	fmt.Fprintf(out, "backend: %s (%d open devices)\n", backend.Name(), backend.OpenDevices())
	fmt.Fprintf(out, "resources: %d live, %d free slots, %d bytes\n", st.Live, st.Free, st.Bytes)

	tags := make([]gdata.TypeTag, 0, len(st.ByType))
	for tag := range st.ByType {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	for _, tag := range tags {
		fmt.Fprintf(out, "  %-14s %d\n", tag, st.ByType[tag])
	}

	for _, key := range reg.Keys(gpudevice.TypeTag) {
		dev, err := gpudevice.Lookup(reg, key)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "device %s: %s\n", key, dev.Info())
	}
	for _, key := range reg.Keys(shader.TypeTag) {
		m, err := shader.Lookup(reg, key)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "shader %s: %d SPIR-V words on %s\n", key, len(m.SPIRV()), m.Device())
	}
}
