// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pagemm

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/ashwch/pagemm/internal/block"
	"github.com/ashwch/pagemm/internal/dbg"
	"github.com/ashwch/pagemm/internal/pagesource"
	"github.com/ashwch/pagemm/internal/typereg"
	"github.com/ashwch/pagemm/internal/xunsafe"
)

// Manager is the public API (component F): it resolves a registered
// type's name to its TypeRecord, asks that type's free-block index for
// a fit, and falls back to spawning a fresh arena through the page
// source when nothing fits. There is no package-level mutable state;
// each Manager holds its own (see the package
// doc's Concurrency section for what that means for callers).
type Manager struct {
	pageSize int
	registry typereg.Registry
}

// New constructs a Manager, capturing the host's virtual-memory page
// size. This is the Go realization of the specification's init(): it is
// naturally idempotent because the page size is a host constant, so
// calling New any number of times (even in the same process) always
// captures the same value.
func New() *Manager {
	return &Manager{pageSize: pagesource.Size()}
}

// PageSize returns the page size captured at construction (S in the
// specification).
func (m *Manager) PageSize() int { return m.pageSize }

// Register adds a new record type to the catalog. It fails with
// ErrSizeTooLarge if size exceeds the page size, or ErrDuplicateName if
// name is already registered.
func (m *Manager) Register(name string, size int) error {
	_, err := m.registry.Register(name, size)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, typereg.ErrSizeTooLarge):
		return ErrSizeTooLarge
	case errors.Is(err, typereg.ErrDuplicateName):
		return ErrDuplicateName
	default:
		return fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}
}

// Alloc returns a pointer to units zero-initialized instances of the
// record type registered as name (i.e. units*size bytes, contiguous).
// It fails with ErrNotRegistered if name is unknown, ErrRequestExceedsArena
// if units*size exceeds what a single arena's sole block can hold (the
// arena payload minus one block header; this allocator never spans an
// allocation across arenas), or
// ErrOutOfMemory if a fresh arena was needed and the OS refused to map
// one.
//
// The returned pointer must eventually be passed to Free exactly once.
// Passing any other pointer to Free is undefined behavior (the
// specification does not require detecting it, though Free makes a
// best-effort attempt via a magic tag).
func (m *Manager) Alloc(name string, units int) (unsafe.Pointer, error) {
	if units <= 0 {
		return nil, fmt.Errorf("pagemm: units must be positive, got %d", units)
	}

	tr := m.registry.Lookup(name)
	if tr == nil {
		return nil, ErrNotRegistered
	}

	bytes := units * tr.Size
	if bytes > block.PayloadSize()-block.HeaderSize() {
		return nil, ErrRequestExceedsArena
	}

	owner := xunsafe.AddrOf(xunsafe.Cast[byte](tr))
	b, err := block.AllocFor(&tr.FreeIndex, &tr.ArenaHead, owner, tr.Size, bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
	}

	ptr := block.PointerFor(b)
	xunsafe.Clear(ptr.AssertValid(), bytes)

	dbg.Log(nil, "alloc", "%s, units=%d, bytes=%d -> %v", name, units, bytes, ptr)
	return unsafe.Pointer(ptr.AssertValid()), nil
}

// Free releases a pointer previously returned by Alloc, recovering its
// owning arena and type purely from in-page metadata (§4.5: the
// block's offset to its arena, and the arena's owner back-reference to
// its TypeRecord) — never through a separately heap-allocated
// back-pointer. Freeing marks the block FREE, eagerly coalesces it with
// any FREE physical neighbor, and releases the whole arena back to the
// OS if the result spans the arena's entire payload.
func (m *Manager) Free(p unsafe.Pointer) error {
	addr := xunsafe.AddrOf((*byte)(p))
	b := block.HeaderFromPointer(addr)
	if err := b.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPointer, err)
	}

	arena := block.OwnerArena(b)
	tr := xunsafe.Cast[typereg.TypeRecord](arena.Owner.AssertValid())

	dbg.Log(nil, "free", "%v (type=%s)", addr, tr.NameString())
	block.FreeBlock(b, &tr.FreeIndex, &tr.ArenaHead)
	return nil
}
