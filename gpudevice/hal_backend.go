// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import (
	"context"
	"fmt"
	"sync"

	"github.com/gogpu/gdata"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// instanceCreator is the part of hal.Backend HALBackend needs.
type instanceCreator interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// HALBackend creates devices through a gogpu/wgpu hal backend. One
// hal.Instance is created lazily and shared by every device it opens.
//
// HALBackend is safe for concurrent use.
type HALBackend struct {
	mu       sync.Mutex
	name     string
	api      instanceCreator
	instance hal.Instance
	open     int
	closed   bool
}

var _ Backend = (*HALBackend)(nil)

// NewHALBackend wraps api, typically a hal.Backend or &noop.API{}.
func NewHALBackend(name string, api instanceCreator) *HALBackend {
	return &HALBackend{name: name, api: api}
}

// BackendFor returns a HALBackend for a registered hal backend variant.
// The variant's package must be imported for its init to register it:
//
//	import _ "github.com/gogpu/wgpu/hal/vulkan"
func BackendFor(variant gputypes.Backend) (*HALBackend, error) {
	b, ok := hal.GetBackend(variant)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrNoHALBackend, variant)
	}
	return NewHALBackend(fmt.Sprint(variant), b), nil
}

// Name returns the backend identifier.
func (b *HALBackend) Name() string { return b.name }

// CreateDevice selects an adapter according to desc and opens a device on it.
func (b *HALBackend) CreateDevice(ctx context.Context, desc *Descriptor) (*NativeDevice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if desc == nil {
		desc = &Descriptor{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBackendClosed
	}
	if b.instance == nil {
		instance, err := b.api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		if err != nil {
			return nil, fmt.Errorf("create instance: %w", err)
		}
		b.instance = instance
	}

	adapters := b.instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, ErrNoAdapter
	}
	selected := selectAdapter(adapters, desc.PowerPreference)

	limits := gputypes.DefaultLimits()
	if desc.Limits != nil {
		limits = *desc.Limits
	}
	openDev, err := selected.Adapter.Open(desc.Features, limits)
	if err != nil {
		return nil, fmt.Errorf("open device: %w", err)
	}
	b.open++

	gdata.Logger().Info("gpudevice: adapter selected",
		"backend", b.name,
		"adapter", selected.Info.Name,
		"preference", desc.PowerPreference.String(),
		"label", desc.Label)

	return &NativeDevice{
		Device: openDev.Device,
		Queue:  openDev.Queue,
		Info: Info{
			Name:       selected.Info.Name,
			DeviceType: selected.Info.DeviceType,
			Backend:    b.name,
		},
	}, nil
}

// DestroyDevice releases dev. Nil devices are ignored.
func (b *HALBackend) DestroyDevice(dev *NativeDevice) {
	if dev == nil || dev.Device == nil {
		return
	}
	dev.Device.Destroy()
	dev.Device = nil
	dev.Queue = nil

	b.mu.Lock()
	b.open--
	b.mu.Unlock()
}

// OpenDevices returns the number of devices not yet destroyed.
func (b *HALBackend) OpenDevices() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Close destroys the shared instance. Devices must be destroyed first.
func (b *HALBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	if b.open > 0 {
		gdata.Logger().Warn("gpudevice: closing backend with open devices", "backend", b.name, "open", b.open)
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
}

// selectAdapter picks an adapter by preference, falling back to the first.
func selectAdapter(adapters []hal.ExposedAdapter, pref PowerPreference) *hal.ExposedAdapter {
	var order []gputypes.DeviceType
	switch pref {
	case PowerPreferenceLowPower:
		order = []gputypes.DeviceType{gputypes.DeviceTypeIntegratedGPU, gputypes.DeviceTypeDiscreteGPU}
	case PowerPreferenceHighPerformance:
		order = []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU}
	default:
		for i := range adapters {
			if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
				adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
				return &adapters[i]
			}
		}
		return &adapters[0]
	}

	for _, want := range order {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}
