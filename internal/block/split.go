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

package block

import (
	"github.com/ashwch/pagemm/internal/dbg"
	"github.com/ashwch/pagemm/internal/xunsafe"
)

// FragKind labels which of the four split cases a request fell into. It
// is purely an accounting label reproduced from the original allocator's
// split routine, returned by split and shown in its debug trace; the
// introspection functions do not report it. It never changes what bytes end up
// where (the operative predicate is always remainder < HeaderSize()).
type FragKind int

const (
	FragExact FragKind = iota
	FragHard
	FragSoft
	FragClean
)

func (k FragKind) String() string {
	switch k {
	case FragExact:
		return "exact"
	case FragHard:
		return "hard-fragmentation"
	case FragSoft:
		return "soft-fragmentation"
	case FragClean:
		return "clean-split"
	default:
		return "unknown"
	}
}

func classify(remainder, recordSize int) FragKind {
	switch {
	case remainder == 0:
		return FragExact
	case remainder < HeaderSize():
		return FragHard
	case remainder < HeaderSize()+recordSize:
		return FragSoft
	default:
		return FragClean
	}
}

// split carves bytes out of b, which must currently be FREE. split itself
// removes b from idx first (a harmless no-op for a block that was never
// indexed, e.g. a freshly spawned arena's first block). See the
// specification's §4.3.2 for the four cases; only remainder==0 and
// remainder<HeaderSize() are functionally distinct — soft and clean
// split take the identical code path and differ only in FragKind.
func split(b *BlockHeader, idx *FreeIndex, recordSize, bytes int) FragKind {
	idx.Remove(b)
	b.State = StateAllocated

	remainder := b.DataSize - bytes
	kind := classify(remainder, recordSize)

	switch kind {
	case FragExact:
		b.DataSize = bytes
	case FragHard:
		// remainder too small to host a header: left as unreachable
		// waste inside this allocation. DataSize is left unchanged.
	default: // FragSoft, FragClean
		f := xunsafe.Cast[BlockHeader](xunsafe.ByteAdd(xunsafe.Cast[byte](b), HeaderSize()+bytes))
		f.magic = magic
		f.State = StateFree
		f.DataSize = remainder - HeaderSize()
		f.Offset = b.Offset + uintptr(HeaderSize()+bytes)

		fAddr := xunsafe.AddrOf(f)
		f.NextBlock = b.NextBlock
		f.PrevBlock = xunsafe.AddrOf(b)
		if !b.NextBlock.IsZero() {
			b.NextBlock.AssertValid().PrevBlock = fAddr
		}
		b.NextBlock = fAddr
		b.DataSize = bytes

		idx.Insert(f)
	}

	dbg.Log(nil, "split", "%v, bytes=%d, remainder=%d, kind=%s", xunsafe.AddrOf(b), bytes, remainder, kind)
	return kind
}

// AllocFor satisfies a bytes-sized request for a type whose per-record
// size is recordSize (used only to classify soft vs. clean splits). It
// takes the largest block in idx if it fits; otherwise it spawns and
// prepends a fresh arena onto *arenaHead and carves the request out of
// that arena's sole block instead.
func AllocFor(idx *FreeIndex, arenaHead *xunsafe.Addr[Arena], owner xunsafe.Addr[byte], recordSize, bytes int) (*BlockHeader, error) {
	b := idx.PeekLargest()
	if b == nil || b.DataSize < bytes {
		a, err := PrependArena(arenaHead, owner)
		if err != nil {
			return nil, err
		}
		b = &a.FirstBlock
	}

	split(b, idx, recordSize, bytes)
	return b, nil
}
