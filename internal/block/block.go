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

// Package block implements the per-arena split/coalesce engine: one OS
// page (an [Arena]) holds a physically contiguous, address-ordered chain
// of [BlockHeader]s, each immediately followed by its own payload bytes.
// Allocation carves a block out of the largest free block of its type
// (splitting the remainder back into the chain); freeing flips a block
// back to free and eagerly merges it with any free physical neighbor,
// tearing down the arena entirely once nothing in it is left allocated.
//
// A per-type [FreeIndex] keeps every free block of a type reachable in
// descending-size order without a separate allocation: the link fields
// live inside BlockHeader itself (its Glue field), following the same
// intrusive-node discipline as github.com/ashwch/pagemm/internal/glthread.
//
// Everything here operates on raw, GC-invisible addresses
// (github.com/ashwch/pagemm/internal/xunsafe.Addr) because arenas live in
// anonymous mmap'd pages, never the Go heap.
package block

import (
	"fmt"
	"unsafe"

	"github.com/ashwch/pagemm/internal/dbg"
	"github.com/ashwch/pagemm/internal/glthread"
	"github.com/ashwch/pagemm/internal/pagesource"
	"github.com/ashwch/pagemm/internal/xunsafe"
)

// magic tags a live BlockHeader so that Validate can reject an obviously
// bogus pointer passed to free. It does not change behavior on valid
// input; the specification this was built from leaves this optional.
const magic = 0x4d4d424b // "MMBK"

// State is the lifecycle state of a BlockHeader. There is no third state:
// a block is born FREE and every transition is FREE<->ALLOCATED.
type State uint8

const (
	StateFree State = iota
	StateAllocated
)

func (s State) String() string {
	if s == StateAllocated {
		return "ALLOCATED"
	}
	return "FREE"
}

// BlockHeader is the metadata embedded immediately before every
// allocation's payload. Neighbors are tracked by physical address order
// within the arena, not by size; Glue is the link used only when State
// is FREE, to thread this block into its type's FreeIndex.
type BlockHeader struct {
	magic      uint32
	State      State
	DataSize   int
	PrevBlock  xunsafe.Addr[BlockHeader]
	NextBlock  xunsafe.Addr[BlockHeader]
	Offset     uintptr
	Glue       glthread.Node
}

// GlueOffset is the byte offset of the Glue field within BlockHeader,
// precomputed once for glthread.BaseOf/PriorityInsert calls.
var GlueOffset = unsafe.Offsetof(BlockHeader{}.Glue)

// HeaderSize is sizeof(BlockHeader), used throughout the split/coalesce
// arithmetic exactly as the specification's sizeof(BlockHeader) is.
func HeaderSize() int {
	size, _ := xunsafe.Layout[BlockHeader]()
	return size
}

// Validate reports whether b looks like a live BlockHeader. A mismatch
// means the pointer handed to free was never returned by an allocation
// this package made (or the memory has since been corrupted); it is not
// a substitute for real double-free detection, which this package does
// not attempt.
func (b *BlockHeader) Validate() error {
	if b.magic != magic {
		return fmt.Errorf("pagemm: invalid block header (bad magic): %w", ErrCorruptHeader)
	}
	return nil
}

// Arena is one OS page: a fixed header (arena chain links, a back-pointer
// to the owning type, and the embedded first block) followed by a
// payload region holding the rest of the block chain.
//
// Owner is deliberately untyped (an opaque byte address) rather than a
// pointer to a TypeRecord: block has no notion of the type registry, and
// must not import it (the registry is built on top of block, not the
// other way around). Callers that create arenas are responsible for
// interpreting Owner.
type Arena struct {
	Prev, Next xunsafe.Addr[Arena]
	Owner      xunsafe.Addr[byte]
	FirstBlock BlockHeader
}

var arenaHeaderOffset = unsafe.Offsetof(Arena{}.FirstBlock)

// ArenaHeaderOffset is O: the byte offset from an Arena's base address to
// its embedded first block. Every BlockHeader.Offset in that arena's
// chain is measured relative to the same base.
func ArenaHeaderOffset() uintptr { return arenaHeaderOffset }

// PayloadSize is S - O: the number of bytes available, across an arena's
// entire block chain (headers and data alike), starting at
// ArenaHeaderOffset.
func PayloadSize() int {
	return pagesource.Size() - int(arenaHeaderOffset)
}

// emptyDataSize is the DataSize a solitary, unsplit block has: the whole
// payload region minus the one header describing it. A coalesced block
// reaching this size, with no physical neighbors, is exactly the "empty
// arena" the specification's free+coalesce step (§4.3.3) tears down.
func emptyDataSize() int {
	return PayloadSize() - HeaderSize()
}

func castArena(p xunsafe.Addr[byte]) *Arena {
	return xunsafe.Cast[Arena](p.AssertValid())
}

// SpawnArena acquires one fresh OS page and initializes it as an Arena
// whose sole block spans the entire payload, FREE, and not yet linked
// into any FreeIndex (callers splitting it are responsible for that).
func SpawnArena(owner xunsafe.Addr[byte]) (*Arena, error) {
	base, err := pagesource.Acquire(1)
	if err != nil {
		return nil, err
	}

	arena := castArena(base)
	arena.Owner = owner
	b := &arena.FirstBlock
	b.magic = magic
	b.State = StateFree
	b.DataSize = emptyDataSize()
	b.Offset = arenaHeaderOffset
	glthread.InitNode(&b.Glue)

	dbg.Log(nil, "spawn-arena", "%v, payload=%d", xunsafe.AddrOf(arena), PayloadSize())
	return arena, nil
}

// ReleaseArena returns a's page to the OS. It does not touch any arena
// chain or free index; callers must unlink a first.
func ReleaseArena(a *Arena) {
	pagesource.Release(xunsafe.AddrOf(xunsafe.Cast[byte](a)), 1)
}

// PrependArena spawns a new arena for owner and splices it onto the head
// of the chain rooted at *head, the way arenas attach to a type's
// arena_head in the specification's §4.3.1.
func PrependArena(head *xunsafe.Addr[Arena], owner xunsafe.Addr[byte]) (*Arena, error) {
	a, err := SpawnArena(owner)
	if err != nil {
		return nil, err
	}

	addr := xunsafe.AddrOf(a)
	a.Next = *head
	if !head.IsZero() {
		head.AssertValid().Prev = addr
	}
	*head = addr
	return a, nil
}

func unlinkArena(a *Arena, head *xunsafe.Addr[Arena]) {
	addr := xunsafe.AddrOf(a)
	if *head == addr {
		*head = a.Next
	}
	if !a.Prev.IsZero() {
		a.Prev.AssertValid().Next = a.Next
	}
	if !a.Next.IsZero() {
		a.Next.AssertValid().Prev = a.Prev
	}
	a.Prev, a.Next = 0, 0
}

// OwnerArena recovers the Arena containing b using only b.Offset — the
// sole mechanism by which free(ptr) can find the owning type, per §4.5.
// No heap-allocated back-pointer is ever involved.
func OwnerArena(b *BlockHeader) *Arena {
	base := unsafe.Pointer(uintptr(unsafe.Pointer(b)) - b.Offset)
	return (*Arena)(base)
}

// HeaderFromPointer recovers the BlockHeader immediately preceding a
// pointer returned by an allocation.
func HeaderFromPointer(p xunsafe.Addr[byte]) *BlockHeader {
	return xunsafe.Cast[BlockHeader](xunsafe.ByteAdd(p.AssertValid(), -HeaderSize()))
}

// PointerFor returns the address of the payload immediately following b,
// i.e. the address an allocation returns to its caller.
func PointerFor(b *BlockHeader) xunsafe.Addr[byte] {
	return xunsafe.AddrOf(xunsafe.ByteAdd(xunsafe.Cast[byte](b), HeaderSize()))
}

// WalkArenas visits every Arena in the chain rooted at head, in
// head-to-tail order, the ordering §6.4's introspection contract
// requires. Iteration stops early if fn returns false.
func WalkArenas(head xunsafe.Addr[Arena], fn func(*Arena) bool) {
	cur := head
	for !cur.IsZero() {
		arena := cur.AssertValid()
		next := arena.Next
		if !fn(arena) {
			return
		}
		cur = next
	}
}

// WalkBlocks visits every BlockHeader in arena's physical chain,
// starting at FirstBlock, in ascending-address order. Iteration stops
// early if fn returns false.
func WalkBlocks(arena *Arena, fn func(*BlockHeader) bool) {
	b := &arena.FirstBlock
	for {
		next := b.NextBlock
		if !fn(b) {
			return
		}
		if next.IsZero() {
			return
		}
		b = next.AssertValid()
	}
}
