// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gogpu/gdata"
	"github.com/gogpu/gdata/gpudevice"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// gatedBackend hands out noop devices whose CreateShaderModule parks until
// released, and records whether a module was created after the device was
// destroyed.
type gatedBackend struct {
	*gpudevice.HALBackend

	entered chan struct{}
	release chan struct{}

	destroyed     atomic.Bool
	usedDestroyed atomic.Bool
}

func (g *gatedBackend) CreateDevice(ctx context.Context, desc *gpudevice.Descriptor) (*gpudevice.NativeDevice, error) {
	native, err := g.HALBackend.CreateDevice(ctx, desc)
	if err != nil {
		return nil, err
	}
	native.Device = &gatedDevice{Device: native.Device, backend: g}
	return native, nil
}

func (g *gatedBackend) DestroyDevice(dev *gpudevice.NativeDevice) {
	g.destroyed.Store(true)
	if gd, ok := dev.Device.(*gatedDevice); ok {
		dev.Device = gd.Device
	}
	g.HALBackend.DestroyDevice(dev)
}

type gatedDevice struct {
	hal.Device
	backend *gatedBackend
}

func (d *gatedDevice) CreateShaderModule(desc *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	close(d.backend.entered)
	<-d.backend.release
	if d.backend.destroyed.Load() {
		d.backend.usedDestroyed.Store(true)
	}
	return d.Device.CreateShaderModule(desc)
}

func TestDeviceDestroyDuringModuleCreation(t *testing.T) {
	ctx := context.Background()
	gb := &gatedBackend{
		HALBackend: gpudevice.NewHALBackend("noop", &noop.API{}),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	t.Cleanup(gb.Close)

	reg := gdata.NewRegistry()
	if err := gpudevice.TypeInit(reg, gb); err != nil {
		t.Fatal(err)
	}
	if err := TypeInit(reg); err != nil {
		t.Fatal(err)
	}
	dev, err := gpudevice.Create(ctx, reg)
	if err != nil {
		t.Fatal(err)
	}

	type result struct {
		key gdata.Key
		err error
	}
	done := make(chan result, 1)
	go func() {
		k, err := Create(ctx, reg, dev, Source{Label: "fill", WGSL: fillWGSL})
		done <- result{k, err}
	}()
	<-gb.entered

	if err := gpudevice.Destroy(ctx, reg, dev, true); !errors.Is(err, gdata.ErrInUse) {
		t.Errorf("device Destroy during module creation = %v, want ErrInUse", err)
	}
	close(gb.release)

	res := <-done
	if res.err != nil {
		t.Fatalf("Create: %v", res.err)
	}
	if gb.usedDestroyed.Load() {
		t.Fatal("shader module created on a destroyed device")
	}
	if err := reg.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !gb.destroyed.Load() {
		t.Error("device not released by Close")
	}
}
