// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gdata"
	"github.com/gogpu/gdata/gpudevice"
	"github.com/gogpu/wgpu/hal/noop"
)

const fillWGSL = `
@group(0) @binding(0) var<storage, read_write> data: array<u32>;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    data[id.x] = id.x;
}
`

func setup(t *testing.T) (*gdata.Registry, gdata.Key) {
	t.Helper()
	backend := gpudevice.NewHALBackend("noop", &noop.API{})
	t.Cleanup(backend.Close)

	reg := gdata.NewRegistry()
	if err := gpudevice.TypeInit(reg, backend); err != nil {
		t.Fatal(err)
	}
	if err := TypeInit(reg); err != nil {
		t.Fatal(err)
	}
	dev, err := gpudevice.Create(context.Background(), reg, gpudevice.WithLabel("shader-test"))
	if err != nil {
		t.Fatal(err)
	}
	return reg, dev
}

func TestCompile(t *testing.T) {
	words, err := Compile(fillWGSL)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(words) == 0 {
		t.Fatal("Compile returned no words")
	}
	const spirvMagic = 0x07230203
	if words[0] != spirvMagic {
		t.Errorf("first word = %#x, want SPIR-V magic %#x", words[0], spirvMagic)
	}
}

func TestCompileCache(t *testing.T) {
	PurgeCompileCache()
	t.Cleanup(PurgeCompileCache)

	first, err := Compile(fillWGSL)
	if err != nil {
		t.Fatal(err)
	}
	first[0] = 0 // caller owns the slice

	second, err := Compile(fillWGSL)
	if err != nil {
		t.Fatal(err)
	}
	if second[0] != 0x07230203 {
		t.Errorf("cached words were modified through a returned slice")
	}

	st := CompileCacheStats()
	if st.Entries != 1 || st.Hits != 1 || st.Misses != 1 {
		t.Errorf("CompileCacheStats() = %+v, want 1 entry, 1 hit, 1 miss", st)
	}

	if _, err := Compile("fn main( {"); err == nil {
		t.Fatal("invalid source compiled")
	}
	if got := CompileCacheStats().Entries; got != 1 {
		t.Errorf("failed compile was cached: %d entries", got)
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile("  \n\t"); !errors.Is(err, ErrEmptySource) {
		t.Errorf("Compile(blank) = %v, want ErrEmptySource", err)
	}
	if _, err := Compile("fn main( {"); !errors.Is(err, ErrCompileFailed) {
		t.Errorf("Compile(invalid) = %v, want ErrCompileFailed", err)
	}
}

func TestCreateLookupDestroy(t *testing.T) {
	ctx := context.Background()
	reg, dev := setup(t)

	k, err := Create(ctx, reg, dev, Source{Label: "fill", WGSL: fillWGSL})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	m, err := Lookup(reg, k)
	if err != nil {
		t.Fatal(err)
	}
	if m.HalModule() == nil {
		t.Error("HalModule() is nil")
	}
	if !m.Device().Equal(dev) {
		t.Errorf("Device() = %s, want %s", m.Device(), dev)
	}
	if m.Label() != "fill" || len(m.SPIRV()) == 0 {
		t.Errorf("label=%q spirv=%d words", m.Label(), len(m.SPIRV()))
	}

	if err := Destroy(ctx, reg, k, true); err != nil {
		t.Fatal(err)
	}
	if m.HalModule() != nil {
		t.Error("module not released")
	}
	if err := Destroy(ctx, reg, k, true); !errors.Is(err, gdata.ErrNotFound) {
		t.Errorf("second Destroy = %v, want ErrNotFound", err)
	}
}

func TestModulePinsDevice(t *testing.T) {
	ctx := context.Background()
	reg, dev := setup(t)

	k, err := Create(ctx, reg, dev, Source{WGSL: fillWGSL}, WithName("fill"))
	if err != nil {
		t.Fatal(err)
	}
	if err := gpudevice.Destroy(ctx, reg, dev, true); !errors.Is(err, gdata.ErrInUse) {
		t.Fatalf("destroying pinned device = %v, want ErrInUse", err)
	}
	if _, err := gpudevice.Lookup(reg, dev); err != nil {
		t.Fatalf("device gone after rejected destroy: %v", err)
	}

	if err := Destroy(ctx, reg, k, false); err != nil {
		t.Fatal(err)
	}
	if err := gpudevice.Destroy(ctx, reg, dev, true); err != nil {
		t.Errorf("device destroy after module released: %v", err)
	}
}

func TestCreateOnMissingDevice(t *testing.T) {
	ctx := context.Background()
	reg, dev := setup(t)
	if err := gpudevice.Destroy(ctx, reg, dev, true); err != nil {
		t.Fatal(err)
	}

	_, err := Create(ctx, reg, dev, Source{WGSL: fillWGSL})
	if !errors.Is(err, gdata.ErrNotFound) {
		t.Fatalf("Create on destroyed device = %v, want ErrNotFound", err)
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d", reg.Len())
	}
}

func TestCreateOnNonDevice(t *testing.T) {
	ctx := context.Background()
	reg, dev := setup(t)

	k, err := Create(ctx, reg, dev, Source{WGSL: fillWGSL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Create(ctx, reg, k, Source{WGSL: fillWGSL}); !errors.Is(err, gdata.ErrTypeMismatch) {
		t.Errorf("Create on a shader key = %v, want ErrTypeMismatch", err)
	}
}

func TestCreateCompileFailureLeavesNothing(t *testing.T) {
	ctx := context.Background()
	reg, dev := setup(t)

	if _, err := Create(ctx, reg, dev, Source{WGSL: "not wgsl at all {"}); !errors.Is(err, ErrCompileFailed) {
		t.Fatalf("Create = %v, want ErrCompileFailed", err)
	}
	if n := len(reg.Keys(TypeTag)); n != 0 {
		t.Errorf("%d shader modules registered after failure", n)
	}
}

func TestDestroyAllReleasesModulesBeforeDevice(t *testing.T) {
	ctx := context.Background()
	reg, dev := setup(t)

	for i := 0; i < 3; i++ {
		if _, err := Create(ctx, reg, dev, Source{WGSL: fillWGSL}); err != nil {
			t.Fatal(err)
		}
	}
	if err := reg.DestroyAll(ctx); err != nil {
		t.Fatalf("DestroyAll: %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("Len() = %d", reg.Len())
	}
}
