// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader stores compiled shader modules in a gdata.Registry.
//
// A shader module is created on a registered GPU device and pins it: the
// device cannot be destroyed while any of its shader modules is live.
//
//	if err := shader.TypeInit(reg); err != nil {
//	    return err
//	}
//	sk, err := shader.Create(ctx, reg, deviceKey, shader.Source{
//	    Label: "blit",
//	    WGSL:  blitWGSL,
//	})
//
// WGSL is compiled to SPIR-V with gogpu/naga before the hal module is
// created.
package shader
