// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gdata

// TypeTag names a resource type, e.g. "GPUDevice".
type TypeTag string

// BaseNode is the common header of every stored resource.
//
// Concrete resources embed BaseNode as their first field:
//
//	type GPUDevice struct {
//	    gdata.BaseNode
//	    device hal.Device
//	}
//
// The promoted Base method makes *GPUDevice a Node. A BaseNode is only ever
// produced by a Registry and handed to the type's constructor; its zero value
// is not a valid record.
type BaseNode struct {
	key Key
	tag TypeTag
}

// Base returns the header itself. Embedding types inherit it and thereby
// implement Node.
func (b *BaseNode) Base() *BaseNode { return b }

// Key returns the key the resource is registered under.
func (b *BaseNode) Key() Key { return b.key }

// Tag returns the resource's type tag.
func (b *BaseNode) Tag() TypeTag { return b.tag }

// Node is any stored resource.
type Node interface {
	Base() *BaseNode
}

// Dependent is implemented by nodes that hold keys of other resources.
// A resource listed by a live Dependent cannot be destroyed.
type Dependent interface {
	Dependencies() []Key
}
