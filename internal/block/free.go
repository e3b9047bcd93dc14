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

// mergeRight absorbs second into first. Both must be FREE and physically
// adjacent (first.NextBlock == second). This is the corrected neighbor
// fixup: the original allocator this was adapted from only patched
// second.next.prev when second.next was nil, which is backwards and
// leaves a dangling prev pointer whenever a merged block still has a
// right neighbor. The condition here is deliberately on second's next,
// not some other field, and is the only sanctioned behavior.
func mergeRight(first, second *BlockHeader) {
	first.DataSize += HeaderSize() + second.DataSize
	first.NextBlock = second.NextBlock
	if !second.NextBlock.IsZero() {
		second.NextBlock.AssertValid().PrevBlock = xunsafe.AddrOf(first)
	}
}

// FreeBlock marks b FREE, coalesces it with any FREE physical neighbors,
// and tears the whole arena down if the result spans the arena's entire
// payload. arenaHead must point at the arena_head field of b's owning
// type, so the arena can be unlinked from that type's chain; it is
// otherwise untouched by this package. Reports whether the arena was
// released.
func FreeBlock(b *BlockHeader, idx *FreeIndex, arenaHead *xunsafe.Addr[Arena]) bool {
	b.State = StateFree
	idx.Insert(b)

	if !b.NextBlock.IsZero() {
		next := b.NextBlock.AssertValid()
		if next.State == StateFree {
			idx.Remove(b)
			idx.Remove(next)
			mergeRight(b, next)
			idx.Insert(b)
		}
	}

	if !b.PrevBlock.IsZero() {
		prev := b.PrevBlock.AssertValid()
		if prev.State == StateFree {
			idx.Remove(b)
			idx.Remove(prev)
			mergeRight(prev, b)
			idx.Insert(prev)
			b = prev
		}
	}

	if b.PrevBlock.IsZero() && b.NextBlock.IsZero() && b.DataSize == emptyDataSize() {
		idx.Remove(b)
		arena := OwnerArena(b)
		dbg.Log(nil, "release-arena", "%v", xunsafe.AddrOf(arena))
		unlinkArena(arena, arenaHead)
		ReleaseArena(arena)
		return true
	}

	return false
}
