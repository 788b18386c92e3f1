// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gdata

import "errors"

// Registry errors. Every failure is reported to the immediate caller; the
// registry never retries.
var (
	// ErrUnknownType is returned when a type tag was never registered.
	ErrUnknownType = errors.New("gdata: unknown type")

	// ErrDuplicateType is returned when a type tag is registered twice.
	ErrDuplicateType = errors.New("gdata: duplicate type")

	// ErrInvalidDescriptor is returned for a descriptor with an empty tag or
	// missing constructor or destructor.
	ErrInvalidDescriptor = errors.New("gdata: invalid type descriptor")

	// ErrNotFound is returned when a key is absent, stale or already destroyed.
	ErrNotFound = errors.New("gdata: not found")

	// ErrInvalidKey is returned for the zero Key or an empty name.
	ErrInvalidKey = errors.New("gdata: invalid key")

	// ErrInvalidKeyKind is returned when the isNumber discriminator does not
	// match the key's tag.
	ErrInvalidKeyKind = errors.New("gdata: invalid key kind")

	// ErrTypeMismatch is returned when a node is accessed as the wrong type.
	ErrTypeMismatch = errors.New("gdata: type mismatch")

	// ErrOutOfKeys is returned when the numeric key space is exhausted.
	// It is fatal for the registry instance.
	ErrOutOfKeys = errors.New("gdata: out of keys")

	// ErrKeyInUse is returned when a named key is already live.
	ErrKeyInUse = errors.New("gdata: key in use")

	// ErrInUse is returned when destroying a resource other live resources
	// depend on.
	ErrInUse = errors.New("gdata: resource has live dependents")

	// ErrBaseMismatch is returned when a constructor returns a node that
	// does not carry the base record it was given.
	ErrBaseMismatch = errors.New("gdata: constructor did not embed its base node")

	// ErrClosed is returned by Create after Close.
	ErrClosed = errors.New("gdata: registry closed")
)
