// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import (
	"context"
	"fmt"

	"github.com/gogpu/gdata"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// TypeTag is the registry tag of GPU devices.
const TypeTag gdata.TypeTag = "GPUDevice"

// GPUDevice is a registered GPU device. It exclusively owns its native
// device, which is released when the device is destroyed through the
// registry.
type GPUDevice struct {
	gdata.BaseNode

	native  *NativeDevice
	backend Backend
	label   string
}

// Device returns the hal device, or nil once destroyed.
func (d *GPUDevice) Device() hal.Device {
	if d.native == nil {
		return nil
	}
	return d.native.Device
}

// Queue returns the device's queue, or nil once destroyed.
func (d *GPUDevice) Queue() hal.Queue {
	if d.native == nil {
		return nil
	}
	return d.native.Queue
}

// HalDevice returns the hal.Device as any. Together with HalQueue this lets a
// GPUDevice be handed to gg accelerators as a shared device provider.
func (d *GPUDevice) HalDevice() any { return d.Device() }

// HalQueue returns the hal.Queue as any.
func (d *GPUDevice) HalQueue() any { return d.Queue() }

// Info describes the adapter the device was opened on.
func (d *GPUDevice) Info() Info {
	if d.native == nil {
		return Info{}
	}
	return d.native.Info
}

// Label returns the debug label given at creation.
func (d *GPUDevice) Label() string { return d.label }

// TypeInit registers the GPUDevice type with reg. Devices are created and
// destroyed through backend. Call it once at startup, before Create.
func TypeInit(reg *gdata.Registry, backend Backend) error {
	if backend == nil {
		return ErrNilBackend
	}
	return reg.RegisterType(gdata.TypeDescriptor{
		Tag:       TypeTag,
		Construct: constructor(backend),
		Destruct:  destructor(backend),
		Size:      gdata.SizeOf[GPUDevice](),
	})
}

func constructor(backend Backend) gdata.Constructor {
	return func(ctx context.Context, base gdata.BaseNode, args any) (gdata.Node, error) {
		desc, _ := args.(*Descriptor)
		if desc == nil {
			desc = &Descriptor{}
		}

		native, err := backend.CreateDevice(ctx, desc)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBackendInitFailed, err)
		}
		if native == nil || native.Device == nil {
			// Release whatever else came back, such as a queue.
			backend.DestroyDevice(native)
			return nil, fmt.Errorf("%w: %s returned no device", ErrBackendInitFailed, backend.Name())
		}

		return &GPUDevice{
			BaseNode: base,
			native:   native,
			backend:  backend,
			label:    desc.Label,
		}, nil
	}
}

func destructor(backend Backend) gdata.Destructor {
	return func(_ context.Context, node gdata.Node) error {
		dev, ok := node.(*GPUDevice)
		if !ok {
			return fmt.Errorf("%w: %T is not a GPUDevice", gdata.ErrTypeMismatch, node)
		}
		backend.DestroyDevice(dev.native)
		dev.native = nil
		return nil
	}
}

// Option configures Create.
type Option func(*createConfig)

type createConfig struct {
	desc Descriptor
	name string
}

// WithLabel sets the device debug label.
func WithLabel(label string) Option {
	return func(c *createConfig) { c.desc.Label = label }
}

// WithName registers the device under a named key.
func WithName(name string) Option {
	return func(c *createConfig) { c.name = name }
}

// WithPowerPreference selects the adapter preference.
func WithPowerPreference(p PowerPreference) Option {
	return func(c *createConfig) { c.desc.PowerPreference = p }
}

// WithFeatures sets the required device features.
func WithFeatures(f gputypes.Features) Option {
	return func(c *createConfig) { c.desc.Features = f }
}

// WithLimits sets the required device limits.
func WithLimits(l gputypes.Limits) Option {
	return func(c *createConfig) { c.desc.Limits = &l }
}

// Create acquires a native device from the backend given to TypeInit and
// registers it. It fails with gdata.ErrUnknownType before TypeInit and with
// ErrBackendInitFailed when the backend cannot produce a device; in both
// cases nothing is registered.
func Create(ctx context.Context, reg *gdata.Registry, opts ...Option) (gdata.Key, error) {
	var c createConfig
	for _, opt := range opts {
		opt(&c)
	}

	cos := []gdata.CreateOption{gdata.WithArgs(&c.desc)}
	if c.name != "" {
		cos = append(cos, gdata.WithName(c.name))
	}
	key, err := reg.Create(ctx, TypeTag, cos...)
	if err != nil {
		return gdata.Key{}, err
	}
	gdata.Logger().Debug("gpudevice: created", "key", key.String(), "label", c.desc.Label)
	return key, nil
}

// Destroy releases the device at key and removes it from reg. A missing or
// already destroyed key fails with gdata.ErrNotFound; a key holding another
// type fails with gdata.ErrTypeMismatch.
func Destroy(ctx context.Context, reg *gdata.Registry, key gdata.Key, isNumber bool) error {
	return reg.DestroyOf(ctx, TypeTag, key, isNumber)
}

// Lookup returns the device at key.
func Lookup(reg *gdata.Registry, key gdata.Key) (*GPUDevice, error) {
	return gdata.LookupAs[*GPUDevice](reg, key, TypeTag)
}
