// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpudevice

import "errors"

// Package errors for gpudevice.
var (
	// ErrBackendInitFailed is returned when the backend cannot create a
	// native device. No registry entry is left behind.
	ErrBackendInitFailed = errors.New("gpudevice: backend init failed")

	// ErrNilBackend is returned by TypeInit without a backend.
	ErrNilBackend = errors.New("gpudevice: nil backend")

	// ErrNoHALBackend is returned when the requested hal backend is not
	// compiled in.
	ErrNoHALBackend = errors.New("gpudevice: hal backend not available")

	// ErrNoAdapter is returned when the hal instance exposes no adapters.
	ErrNoAdapter = errors.New("gpudevice: no GPU adapters found")

	// ErrBackendClosed is returned by CreateDevice after Close.
	ErrBackendClosed = errors.New("gpudevice: backend closed")
)
