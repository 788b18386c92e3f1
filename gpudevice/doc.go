// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpudevice stores GPU devices in a gdata.Registry.
//
// The package is a thin adapter between the registry lifecycle and a
// graphics [Backend]. [HALBackend] implements Backend on top of
// gogpu/wgpu/hal; any hal backend works, including the noop backend used in
// tests:
//
//	import "github.com/gogpu/wgpu/hal/noop"
//
//	backend := gpudevice.NewHALBackend("noop", &noop.API{})
//	defer backend.Close()
//
//	reg := gdata.NewRegistry()
//	if err := gpudevice.TypeInit(reg, backend); err != nil {
//	    return err
//	}
//	key, err := gpudevice.Create(ctx, reg, gpudevice.WithLabel("main"))
//	if err != nil {
//	    return err
//	}
//	dev, _ := gpudevice.Lookup(reg, key)
//	_ = dev.Device() // hal.Device
//
// Creation is all-or-nothing: if the backend cannot produce a device,
// Create fails with [ErrBackendInitFailed] and the registry is unchanged.
package gpudevice
