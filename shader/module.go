// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"context"
	"fmt"

	"github.com/gogpu/gdata"
	"github.com/gogpu/gdata/gpudevice"
	"github.com/gogpu/wgpu/hal"
)

// TypeTag is the registry tag of shader modules.
const TypeTag gdata.TypeTag = "ShaderModule"

// Source is the shader to compile.
type Source struct {
	Label string
	WGSL  string
}

// Module is a registered shader module.
type Module struct {
	gdata.BaseNode

	device gdata.Key
	dev    hal.Device
	module hal.ShaderModule
	spirv  []uint32
	label  string
}

// Dependencies reports the device the module was created on.
func (m *Module) Dependencies() []gdata.Key { return []gdata.Key{m.device} }

// Device returns the key of the owning GPU device.
func (m *Module) Device() gdata.Key { return m.device }

// HalModule returns the hal shader module, or nil once destroyed.
func (m *Module) HalModule() hal.ShaderModule { return m.module }

// SPIRV returns the compiled code.
func (m *Module) SPIRV() []uint32 { return m.spirv }

// Label returns the debug label.
func (m *Module) Label() string { return m.label }

type createArgs struct {
	device gdata.Key
	src    Source
}

// TypeInit registers the ShaderModule type with reg. The GPUDevice type
// should be registered as well, or every Create fails with a type mismatch
// or not-found error on the device key.
func TypeInit(reg *gdata.Registry) error {
	return reg.RegisterType(gdata.TypeDescriptor{
		Tag:       TypeTag,
		Construct: constructor(reg),
		Destruct:  destructor(reg),
		Size:      gdata.SizeOf[Module](),
	})
}

func constructor(reg *gdata.Registry) gdata.Constructor {
	return func(_ context.Context, base gdata.BaseNode, args any) (gdata.Node, error) {
		a, ok := args.(*createArgs)
		if !ok {
			return nil, fmt.Errorf("shader: unexpected constructor args %T", args)
		}

		spirv, err := Compile(a.src.WGSL)
		if err != nil {
			return nil, err
		}
		dev, err := gpudevice.Lookup(reg, a.device)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", a.device, err)
		}
		halDevice := dev.Device()
		if halDevice == nil {
			return nil, fmt.Errorf("device %s: %w", a.device, gdata.ErrNotFound)
		}

		module, err := halDevice.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label: a.src.Label,
			Source: hal.ShaderSource{
				SPIRV: spirv,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModuleCreation, err)
		}

		return &Module{
			BaseNode: base,
			device:   a.device,
			dev:      halDevice,
			module:   module,
			spirv:    spirv,
			label:    a.src.Label,
		}, nil
	}
}

func destructor(reg *gdata.Registry) gdata.Destructor {
	return func(_ context.Context, node gdata.Node) error {
		m, ok := node.(*Module)
		if !ok {
			return fmt.Errorf("%w: %T is not a shader Module", gdata.ErrTypeMismatch, node)
		}
		if m.module == nil {
			return nil
		}
		// The registry pins the device until this returns; this only
		// triggers when a device destructor outside the registry ran first.
		if !reg.Contains(m.device) {
			gdata.Logger().Warn("shader: device gone before module release", "module", m.label, "device", m.device.String())
			m.module = nil
			return nil
		}
		m.dev.DestroyShaderModule(m.module)
		m.module = nil
		return nil
	}
}

// Option configures Create.
type Option func(*createConfig)

type createConfig struct {
	name string
}

// WithName registers the module under a named key.
func WithName(name string) Option {
	return func(c *createConfig) { c.name = name }
}

// Create compiles src and creates a shader module on the device at device.
// The device stays pinned until the module is destroyed.
func Create(ctx context.Context, reg *gdata.Registry, device gdata.Key, src Source, opts ...Option) (gdata.Key, error) {
	var c createConfig
	for _, opt := range opts {
		opt(&c)
	}

	cos := []gdata.CreateOption{
		gdata.WithArgs(&createArgs{device: device, src: src}),
		gdata.WithDependencies(device),
	}
	if c.name != "" {
		cos = append(cos, gdata.WithName(c.name))
	}
	return reg.Create(ctx, TypeTag, cos...)
}

// Destroy releases the module at key.
func Destroy(ctx context.Context, reg *gdata.Registry, key gdata.Key, isNumber bool) error {
	return reg.DestroyOf(ctx, TypeTag, key, isNumber)
}

// Lookup returns the module at key.
func Lookup(reg *gdata.Registry, key gdata.Key) (*Module, error) {
	return gdata.LookupAs[*Module](reg, key, TypeTag)
}
