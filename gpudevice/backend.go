// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import (
	"context"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Backend creates and destroys native GPU devices.
//
// Implementations report their own release failures (log, panic); the
// registry cannot act on them.
type Backend interface {
	// Name returns the backend identifier (e.g., "vulkan", "noop").
	Name() string

	// CreateDevice opens a new logical device.
	CreateDevice(ctx context.Context, desc *Descriptor) (*NativeDevice, error)

	// DestroyDevice releases a device returned by CreateDevice.
	DestroyDevice(dev *NativeDevice)
}

// PowerPreference selects between adapters when several are available.
type PowerPreference uint8

const (
	// PowerPreferenceDefault takes the first discrete or integrated GPU.
	PowerPreferenceDefault PowerPreference = iota

	// PowerPreferenceLowPower prefers integrated GPUs.
	PowerPreferenceLowPower

	// PowerPreferenceHighPerformance prefers discrete GPUs.
	PowerPreferenceHighPerformance
)

// String returns the preference name.
func (p PowerPreference) String() string {
	switch p {
	case PowerPreferenceLowPower:
		return "low-power"
	case PowerPreferenceHighPerformance:
		return "high-performance"
	default:
		return "default"
	}
}

// ParsePowerPreference parses the names returned by String.
func ParsePowerPreference(s string) (PowerPreference, error) {
	switch s {
	case "", "default":
		return PowerPreferenceDefault, nil
	case "low-power", "low":
		return PowerPreferenceLowPower, nil
	case "high-performance", "high":
		return PowerPreferenceHighPerformance, nil
	}
	return PowerPreferenceDefault, fmt.Errorf("gpudevice: unknown power preference %q", s)
}

// Descriptor describes the device to create.
type Descriptor struct {
	// Label is an optional debug label.
	Label string

	// PowerPreference picks the adapter.
	PowerPreference PowerPreference

	// Features are the required device features.
	Features gputypes.Features

	// Limits are the required limits. Nil means gputypes.DefaultLimits().
	Limits *gputypes.Limits
}

// Info describes the adapter a device was opened on.
type Info struct {
	// Name is the adapter name (e.g., "NVIDIA GeForce RTX 3080").
	Name string

	// DeviceType is discrete, integrated, CPU, etc.
	DeviceType gputypes.DeviceType

	// Backend is the name of the Backend that created the device.
	Backend string
}

// String returns a human-readable description of the adapter.
func (i Info) String() string {
	return fmt.Sprintf("%s (%v, %s)", i.Name, i.DeviceType, i.Backend)
}

// NativeDevice is the backend-owned device handle.
type NativeDevice struct {
	Device hal.Device
	Queue  hal.Queue
	Info   Info
}
