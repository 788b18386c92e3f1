// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import "errors"

// Package errors for shader.
var (
	// ErrEmptySource is returned when no WGSL source is given.
	ErrEmptySource = errors.New("shader: empty source")

	// ErrCompileFailed is returned when WGSL does not compile to SPIR-V.
	ErrCompileFailed = errors.New("shader: compile failed")

	// ErrModuleCreation is returned when the device rejects the module.
	ErrModuleCreation = errors.New("shader: module creation failed")
)
