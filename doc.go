// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gdata provides a keyed registry for heterogeneous engine
// resources such as GPU devices and shader modules.
//
// # Overview
//
// Every stored resource embeds a [BaseNode] carrying its [Key] and
// [TypeTag]. Resource modules register a [TypeDescriptor] once at startup;
// the [Registry] then issues keys, stores nodes and routes destruction back
// to the owning module's destructor without knowing concrete layouts.
//
//	reg := gdata.NewRegistry()
//	if err := gpudevice.TypeInit(reg, backend); err != nil {
//	    return err
//	}
//	key, err := gpudevice.Create(ctx, reg)
//	...
//	err = gpudevice.Destroy(ctx, reg, key, key.IsNumber())
//
// # Keys
//
// A Key is numeric or named. Numeric keys pack a slot index and a
// generation; indices are recycled, generations are not, so a key kept past
// its Destroy is rejected with [ErrNotFound] rather than resolving to
// whatever reuses the slot. Named keys are NFC-normalized and interned.
//
// # Teardown
//
// Nodes implementing [Dependent] pin the resources they reference:
// destroying a pinned resource fails with [ErrInUse]. [Registry.DestroyAll]
// and [Registry.Close] destroy newest first.
package gdata
