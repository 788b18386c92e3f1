// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads the bootstrap configuration of gdinfo.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the root of the TOML file.
type Config struct {
	Registry RegistryConfig `toml:"registry"`
	GPU      GPUConfig      `toml:"gpu"`
	Logging  LoggingConfig  `toml:"logging"`
	Devices  []DeviceConfig `toml:"devices"`
	Shaders  []ShaderConfig `toml:"shaders"`
}

type RegistryConfig struct {
	MaxKeys         uint32 `toml:"max_keys"` // 0 = unlimited
	InitialCapacity int    `toml:"initial_capacity"`
}

type GPUConfig struct {
	Backend         string `toml:"backend"`          // "noop" or "vulkan"
	PowerPreference string `toml:"power_preference"` // "default", "low-power", "high-performance"
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// DeviceConfig is one device to create at startup.
type DeviceConfig struct {
	Name  string `toml:"name"`
	Label string `toml:"label"`
}

// ShaderConfig is one shader module to compile on a named device.
type ShaderConfig struct {
	Name   string `toml:"name"`
	Device string `toml:"device"`
	Path   string `toml:"path"`
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults and validates the result.
func Parse(text string) (*Config, error) {
	cfg := Defaults()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns a configuration that creates one device on the noop
// backend.
func Defaults() *Config {
	return &Config{
		Registry: RegistryConfig{
			InitialCapacity: 64,
		},
		GPU: GPUConfig{
			Backend:         "noop",
			PowerPreference: "default",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks enumerations and cross references.
func (c *Config) Validate() error {
	switch c.GPU.Backend {
	case "noop", "vulkan":
	default:
		return fmt.Errorf("gpu.backend: unknown backend %q", c.GPU.Backend)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	if c.Registry.InitialCapacity < 0 {
		return fmt.Errorf("registry.initial_capacity: must not be negative")
	}

	names := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("devices[%d]: name is required", i)
		}
		if names[d.Name] {
			return fmt.Errorf("devices[%d]: duplicate name %q", i, d.Name)
		}
		names[d.Name] = true
	}
	for i, s := range c.Shaders {
		if s.Path == "" {
			return fmt.Errorf("shaders[%d]: path is required", i)
		}
		if !names[s.Device] {
			return fmt.Errorf("shaders[%d]: unknown device %q", i, s.Device)
		}
	}
	return nil
}
