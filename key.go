// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gdata

import (
	"fmt"
	"strconv"
	"unique"

	"golang.org/x/text/unicode/norm"
)

// KeyKind is the tag of a Key.
type KeyKind uint8

const (
	// KeyInvalid is the kind of the zero Key.
	KeyInvalid KeyKind = iota

	// KeyNumeric identifies a resource by a dense slot handle.
	KeyNumeric

	// KeyNamed identifies a resource by an interned symbolic name.
	KeyNamed
)

// String returns the kind name.
func (k KeyKind) String() string {
	switch k {
	case KeyNumeric:
		return "numeric"
	case KeyNamed:
		return "named"
	default:
		return "invalid"
	}
}

// Handle is a numeric key value: the slot generation in the high 32 bits and
// the slot index in the low 32 bits. Generations start at 1, so the zero
// Handle is never issued.
type Handle uint64

// NewHandle packs a slot index and generation into a Handle.
func NewHandle(index, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

// Index returns the slot index.
func (h Handle) Index() uint32 { return uint32(h) }

// Generation returns the slot generation.
func (h Handle) Generation() uint32 { return uint32(h >> 32) }

// Key is a tagged identity addressing one resource in a Registry.
//
// Keys are plain values. Copies do not track the resource: once the resource
// is destroyed every copy is dangling, and a Registry rejects it with
// ErrNotFound even if the slot index has been reused since.
//
// Key is comparable and may be used as a map key.
type Key struct {
	kind   KeyKind
	handle Handle
	name   unique.Handle[string]
}

// MakeNumeric returns a numeric Key for h.
func MakeNumeric(h Handle) Key {
	return Key{kind: KeyNumeric, handle: h}
}

// MakeNamed returns a named Key. The name is NFC-normalized and interned,
// so two spellings of the same text compare equal.
func MakeNamed(name string) Key {
	return Key{kind: KeyNamed, name: unique.Make(norm.NFC.String(name))}
}

// Kind returns the key's tag.
func (k Key) Kind() KeyKind { return k.kind }

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool { return k.kind == KeyInvalid }

// IsNumber reports whether k is a numeric key.
func (k Key) IsNumber() bool { return k.kind == KeyNumeric }

// Handle returns the numeric value, or 0 for named keys.
func (k Key) Handle() Handle { return k.handle }

// Index returns the slot index of a numeric key.
func (k Key) Index() uint32 { return k.handle.Index() }

// Generation returns the slot generation of a numeric key.
func (k Key) Generation() uint32 { return k.handle.Generation() }

// Name returns the symbolic name, or "" for numeric keys.
func (k Key) Name() string {
	if k.kind != KeyNamed {
		return ""
	}
	return k.name.Value()
}

// Equal reports whether k and o denote the same identity.
// Keys of different kinds are never equal.
func (k Key) Equal(o Key) bool {
	return k == o
}

// String returns a printable form: "#index.generation" for numeric keys and
// "@name" for named keys.
func (k Key) String() string {
	switch k.kind {
	case KeyNumeric:
		return "#" + strconv.FormatUint(uint64(k.Index()), 10) + "." + strconv.FormatUint(uint64(k.Generation()), 10)
	case KeyNamed:
		return "@" + k.name.Value()
	default:
		return "<invalid>"
	}
}

// CheckKind verifies that the caller's discriminator matches the key's tag.
func CheckKind(k Key, isNumber bool) error {
	if k.IsZero() {
		return ErrInvalidKey
	}
	if k.IsNumber() != isNumber {
		return fmt.Errorf("%w: %s key passed with isNumber=%t", ErrInvalidKeyKind, k.kind, isNumber)
	}
	return nil
}
