// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/naga"

	"github.com/gogpu/gdata/internal/lru"
)

// compiled maps WGSL source to SPIR-V so modules created from the same
// source on several devices compile once.
var compiled = lru.New[string, []uint32](256, 16, lru.StringHasher)

// CacheStats reports the compile cache counters.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// CompileCacheStats returns the compile cache counters.
func CompileCacheStats() CacheStats {
	st := compiled.Stats()
	return CacheStats{Entries: st.Len, Hits: st.Hits, Misses: st.Misses}
}

// PurgeCompileCache empties the compile cache.
func PurgeCompileCache() {
	compiled.Purge()
}

// Compile compiles WGSL source to SPIR-V words. Results are cached by
// source; the returned slice is owned by the caller.
func Compile(wgsl string) ([]uint32, error) {
	if strings.TrimSpace(wgsl) == "" {
		return nil, ErrEmptySource
	}
	words, err := compiled.GetOrCreate(wgsl, func() ([]uint32, error) {
		return compile(wgsl)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(words), nil
}

func compile(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}
	if len(spirvBytes) == 0 || len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not whole SPIR-V words", ErrCompileFailed, len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}
