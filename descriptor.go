// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gdata

import (
	"context"
	"unsafe"
)

// Constructor builds a concrete resource around base. The returned node must
// embed base unchanged; args are whatever the module's Create passed through
// WithArgs.
type Constructor func(ctx context.Context, base BaseNode, args any) (Node, error)

// Destructor releases everything node owns. It is called exactly once per
// resource.
type Destructor func(ctx context.Context, node Node) error

// TypeDescriptor is the per-type function table held by a Registry.
type TypeDescriptor struct {
	Tag       TypeTag
	Construct Constructor
	Destruct  Destructor

	// Size is the payload size accounted in Stats.Bytes.
	Size uintptr
}

// SizeOf returns the in-memory size of T for TypeDescriptor.Size.
func SizeOf[T any]() uintptr {
	var v T
	return unsafe.Sizeof(v)
}

func (d *TypeDescriptor) validate() error {
	if d.Tag == "" || d.Construct == nil || d.Destruct == nil {
		return ErrInvalidDescriptor
	}
	return nil
}
