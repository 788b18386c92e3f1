// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gdata

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"reflect"
	"slices"
	"sync"
	"unique"
)

type slotState uint8

const (
	slotFree slotState = iota
	slotReserved
	slotLive
	slotDestroying
)

// slot is one entry of the dense slot table. A slot's index is recycled
// through the free list; its generation is bumped on every release so keys
// issued for an earlier occupant no longer resolve.
type slot struct {
	node  Node
	desc  *TypeDescriptor
	name  unique.Handle[string]
	named bool
	gen   uint32
	state slotState

	// seq is the commit order, used by DestroyAll.
	seq uint64

	// deps are slot indices this node pins; dependents counts reserved and
	// live slots pinning this one.
	deps       []uint32
	dependents int
}

// Registry is the keyed store owning every resource lifecycle: key issuance
// and recycling, slot storage, and dispatch to per-type constructors and
// destructors.
//
// A Registry is safe for concurrent use. Type registration is expected to
// finish during startup, before resource traffic begins.
type Registry struct {
	mu sync.Mutex

	types map[TypeTag]*TypeDescriptor
	slots []slot
	free  []uint32
	names map[unique.Handle[string]]uint32

	maxKeys uint32
	seq     uint64
	closed  bool
	log     *slog.Logger

	// inflight counts creates between reserve and their final commit or
	// release. Close waits on it.
	inflight sync.WaitGroup
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		types:   make(map[TypeTag]*TypeDescriptor),
		slots:   make([]slot, 0, o.initialCapacity),
		free:    make([]uint32, 0, o.initialCapacity/4),
		names:   make(map[unique.Handle[string]]uint32),
		maxKeys: o.maxKeys,
		log:     o.logger,
	}
}

func (r *Registry) logger() *slog.Logger {
	if r.log != nil {
		return r.log
	}
	return Logger()
}

// RegisterType records desc. Each tag may be registered once.
func (r *Registry) RegisterType(desc TypeDescriptor) error {
	if err := desc.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.types[desc.Tag]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateType, desc.Tag)
	}
	d := desc
	r.types[desc.Tag] = &d
	r.logger().Debug("gdata: type registered", "type", desc.Tag, "size", desc.Size)
	return nil
}

// IsRegistered reports whether tag has a descriptor.
func (r *Registry) IsRegistered(tag TypeTag) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.types[tag]
	return ok
}

// Types returns the registered tags, sorted.
func (r *Registry) Types() []TypeTag {
	r.mu.Lock()
	defer r.mu.Unlock()

	tags := make([]TypeTag, 0, len(r.types))
	for tag := range r.types {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// Create allocates a key for a new resource of type tag, runs the type's
// constructor and stores the result. The key is numeric unless WithName is
// given.
//
// Keys passed with WithDependencies are pinned before the constructor runs
// and stay pinned for the resource's lifetime, so the constructor may use
// them without racing their destruction.
//
// On any failure nothing stays registered: a node whose constructor
// succeeded but that could not be committed is handed back to the type's
// destructor while its dependencies are still pinned, then the reserved
// slot is released.
func (r *Registry) Create(ctx context.Context, tag TypeTag, opts ...CreateOption) (Key, error) {
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}

	key, idx, desc, err := r.reserve(tag, o)
	if err != nil {
		return Key{}, err
	}
	defer r.inflight.Done()

	base := BaseNode{key: key, tag: tag}
	node, err := desc.Construct(ctx, base, o.args)
	built := err == nil && !isNilNode(node)
	if err == nil {
		if !built || node.Base() == nil || *node.Base() != base {
			err = ErrBaseMismatch
		} else {
			err = r.commit(idx, node)
		}
	}
	if err != nil {
		if built {
			r.discard(ctx, desc, node)
		}
		r.mu.Lock()
		r.releaseLocked(idx)
		r.mu.Unlock()
		return Key{}, fmt.Errorf("gdata: create %s: %w", tag, err)
	}

	r.logger().Debug("gdata: created", "type", tag, "key", key.String())
	return key, nil
}

// isNilNode reports whether node is nil or a typed nil pointer.
func isNilNode(node Node) bool {
	if node == nil {
		return true
	}
	v := reflect.ValueOf(node)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// reserve picks the key and slot for a new resource and pins its declared
// dependencies.
func (r *Registry) reserve(tag TypeTag, o createOptions) (Key, uint32, *TypeDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Key{}, 0, nil, ErrClosed
	}
	desc, ok := r.types[tag]
	if !ok {
		return Key{}, 0, nil, fmt.Errorf("%w: %s", ErrUnknownType, tag)
	}

	var key Key
	if o.named {
		if o.name == "" {
			return Key{}, 0, nil, fmt.Errorf("%w: empty name", ErrInvalidKey)
		}
		key = MakeNamed(o.name)
		if _, live := r.names[key.name]; live {
			return Key{}, 0, nil, fmt.Errorf("%w: %s", ErrKeyInUse, key)
		}
	}

	deps := make([]uint32, 0, len(o.deps))
	for _, k := range o.deps {
		di, ok := r.resolveLocked(k)
		if !ok {
			return Key{}, 0, nil, fmt.Errorf("%w: dependency %s", ErrNotFound, k)
		}
		deps = append(deps, di)
	}

	idx, err := r.allocLocked()
	if err != nil {
		return Key{}, 0, nil, err
	}

	s := &r.slots[idx]
	s.state = slotReserved
	s.desc = desc
	s.deps = deps
	for _, di := range deps {
		r.slots[di].dependents++
	}
	if o.named {
		s.named = true
		s.name = key.name
		r.names[key.name] = idx
	} else {
		key = MakeNumeric(NewHandle(idx, s.gen))
	}
	r.inflight.Add(1)
	return key, idx, desc, nil
}

// commit pins dependencies the node reports itself and publishes it. After
// Close it refuses, so Create discards the node.
func (r *Registry) commit(idx uint32, node Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	s := &r.slots[idx]
	var extra []uint32
	if d, ok := node.(Dependent); ok {
		for _, k := range d.Dependencies() {
			di, ok := r.resolveLocked(k)
			if !ok {
				return fmt.Errorf("%w: dependency %s", ErrNotFound, k)
			}
			if !slices.Contains(s.deps, di) && !slices.Contains(extra, di) {
				extra = append(extra, di)
			}
		}
	}
	for _, di := range extra {
		r.slots[di].dependents++
	}

	r.seq++
	s.node = node
	s.deps = append(s.deps, extra...)
	s.seq = r.seq
	s.state = slotLive
	return nil
}

// discard tears down a node that never became visible.
func (r *Registry) discard(ctx context.Context, desc *TypeDescriptor, node Node) {
	if err := desc.Destruct(ctx, node); err != nil {
		r.logger().Warn("gdata: discarding uncommitted node failed", "type", desc.Tag, "error", err)
	}
}

func (r *Registry) allocLocked() (uint32, error) {
	if n := len(r.free); n > 0 {
		idx := r.free[n-1]
		r.free = r.free[:n-1]
		return idx, nil
	}
	if uint64(len(r.slots)) >= uint64(r.maxKeys) {
		return 0, ErrOutOfKeys
	}
	r.slots = append(r.slots, slot{gen: 1})
	return uint32(len(r.slots) - 1), nil
}

// releaseLocked unpins the slot's dependencies, empties it and returns its
// index to the free list with the next generation. A slot whose generation
// is exhausted is retired.
func (r *Registry) releaseLocked(idx uint32) {
	s := &r.slots[idx]
	for _, di := range s.deps {
		r.slots[di].dependents--
	}
	if s.named {
		delete(r.names, s.name)
	}
	gen := s.gen
	*s = slot{gen: gen}
	if gen == math.MaxUint32 {
		return
	}
	s.gen = gen + 1
	r.free = append(r.free, idx)
}

// resolveLocked finds the live slot for k.
func (r *Registry) resolveLocked(k Key) (uint32, bool) {
	var idx uint32
	switch k.kind {
	case KeyNumeric:
		idx = k.Index()
		if int(idx) >= len(r.slots) || r.slots[idx].gen != k.Generation() || r.slots[idx].named {
			return 0, false
		}
	case KeyNamed:
		i, ok := r.names[k.name]
		if !ok {
			return 0, false
		}
		idx = i
	default:
		return 0, false
	}
	if r.slots[idx].state != slotLive {
		return 0, false
	}
	return idx, true
}

// Destroy tears down the resource at key. isNumber must match the key's
// tag. Destroying an absent or already destroyed key fails with ErrNotFound.
//
// The type's destructor runs exactly once. If it fails the entry is removed
// anyway and the error is returned.
func (r *Registry) Destroy(ctx context.Context, key Key, isNumber bool) error {
	return r.destroy(ctx, "", key, isNumber)
}

// DestroyOf is Destroy restricted to resources of type tag.
func (r *Registry) DestroyOf(ctx context.Context, tag TypeTag, key Key, isNumber bool) error {
	return r.destroy(ctx, tag, key, isNumber)
}

func (r *Registry) destroy(ctx context.Context, want TypeTag, key Key, isNumber bool) error {
	if err := CheckKind(key, isNumber); err != nil {
		return err
	}

	r.mu.Lock()
	idx, ok := r.resolveLocked(key)
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	s := &r.slots[idx]
	if want != "" && s.desc.Tag != want {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s is %s, not %s", ErrTypeMismatch, key, s.desc.Tag, want)
	}
	if s.dependents > 0 {
		n := s.dependents
		r.mu.Unlock()
		return fmt.Errorf("%w: %s has %d", ErrInUse, key, n)
	}
	s.state = slotDestroying
	node, desc := s.node, s.desc
	r.mu.Unlock()

	err := desc.Destruct(ctx, node)

	r.mu.Lock()
	r.releaseLocked(idx)
	r.mu.Unlock()

	if err != nil {
		r.logger().Warn("gdata: destructor failed", "type", desc.Tag, "key", key.String(), "error", err)
		return fmt.Errorf("gdata: destroy %s: %w", key, err)
	}
	r.logger().Debug("gdata: destroyed", "type", desc.Tag, "key", key.String())
	return nil
}

// Lookup returns the live node stored under key.
func (r *Registry) Lookup(key Key) (Node, error) {
	if key.IsZero() {
		return nil, ErrInvalidKey
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.resolveLocked(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return r.slots[idx].node, nil
}

// LookupAs returns the node under key as T after checking that its stored
// type tag is tag.
func LookupAs[T Node](r *Registry, key Key, tag TypeTag) (T, error) {
	var zero T
	node, err := r.Lookup(key)
	if err != nil {
		return zero, err
	}
	if got := node.Base().Tag(); got != tag {
		return zero, fmt.Errorf("%w: %s is %s, not %s", ErrTypeMismatch, key, got, tag)
	}
	t, ok := node.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T", ErrTypeMismatch, key, node)
	}
	return t, nil
}

// Contains reports whether key resolves to a live resource.
func (r *Registry) Contains(key Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.resolveLocked(key)
	return ok
}

// Len returns the number of live resources.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for i := range r.slots {
		if r.slots[i].state == slotLive {
			n++
		}
	}
	return n
}

type entry struct {
	key  Key
	node Node
	seq  uint64
}

func (r *Registry) snapshot(tag TypeTag) []entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entry, 0, len(r.slots)-len(r.free))
	for i := range r.slots {
		s := &r.slots[i]
		if s.state != slotLive || (tag != "" && s.desc.Tag != tag) {
			continue
		}
		out = append(out, entry{key: s.node.Base().Key(), node: s.node, seq: s.seq})
	}
	return out
}

// Each calls fn for every live resource in slot order until fn returns
// false. fn runs without the registry lock and may call back into it.
func (r *Registry) Each(fn func(Key, Node) bool) {
	for _, e := range r.snapshot("") {
		if !fn(e.key, e.node) {
			return
		}
	}
}

// Keys returns the keys of all live resources of type tag.
func (r *Registry) Keys(tag TypeTag) []Key {
	entries := r.snapshot(tag)
	keys := make([]Key, len(entries))
	for i, e := range entries {
		keys[i] = e.key
	}
	return keys
}

// Stats is a point-in-time summary of a Registry.
type Stats struct {
	// Live is the number of committed resources.
	Live int
	// Pending counts slots reserved for a running constructor or destructor.
	Pending int
	// Free is the number of recyclable slot indices.
	Free int
	// Bytes sums TypeDescriptor.Size over live resources.
	Bytes uintptr
	// ByType counts live resources per tag.
	ByType map[TypeTag]int
}

// Stats returns current counters.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stats{Free: len(r.free), ByType: make(map[TypeTag]int, len(r.types))}
	for i := range r.slots {
		s := &r.slots[i]
		switch s.state {
		case slotLive:
			st.Live++
			st.Bytes += s.desc.Size
			st.ByType[s.desc.Tag]++
		case slotReserved, slotDestroying:
			st.Pending++
		}
	}
	return st
}

// DestroyAll destroys every live resource, newest first, so dependents are
// torn down before what they depend on. Errors are joined.
func (r *Registry) DestroyAll(ctx context.Context) error {
	entries := r.snapshot("")
	slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(b.seq, a.seq) })

	var errs []error
	for _, e := range entries {
		err := r.Destroy(ctx, e.key, e.key.IsNumber())
		if err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close rejects further Create calls, waits for creates already running to
// finish (they fail with ErrClosed and are discarded) and destroys every
// live resource. Close must not be called from a constructor.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.inflight.Wait()
	return r.DestroyAll(ctx)
}
