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
	"unsafe"

	"github.com/ashwch/pagemm/internal/glthread"
)

// FreeIndex is a per-type priority list of FREE blocks, largest DataSize
// first. It owns no memory: blocks live in their arena, and FreeIndex
// only threads them together through BlockHeader.Glue.
//
// This is the specification's component D; it is folded into this
// package rather than split into its own because its entire
// implementation is a comparator over BlockHeader.DataSize plumbed
// through glthread — there is no independent data structure to justify a
// separate package.
type FreeIndex struct {
	list glthread.List
}

func sizeCompare(a, b unsafe.Pointer) int {
	x := (*BlockHeader)(a).DataSize
	y := (*BlockHeader)(b).DataSize
	switch {
	case x > y:
		return -1
	case x < y:
		return 1
	default:
		return 0
	}
}

// Insert links b into the index in descending-DataSize order. b must be
// FREE.
func (idx *FreeIndex) Insert(b *BlockHeader) {
	glthread.PriorityInsert(&idx.list, &b.Glue, sizeCompare, GlueOffset)
}

// Remove unlinks b from the index. It is a no-op if b is not currently
// linked (e.g. a freshly spawned arena's block, never inserted).
func (idx *FreeIndex) Remove(b *BlockHeader) {
	glthread.Remove(&idx.list, &b.Glue)
}

// PeekLargest returns the largest FREE block in the index, or nil if it
// is empty.
func (idx *FreeIndex) PeekLargest() *BlockHeader {
	if idx.list.Head.IsZero() {
		return nil
	}
	node := idx.list.Head.AssertValid()
	return (*BlockHeader)(glthread.BaseOf(node, GlueOffset))
}

// Iterate calls fn for every block in the index, largest first. Safe
// under removal of the current block, per glthread.Iterate.
func (idx *FreeIndex) Iterate(fn func(*BlockHeader) bool) {
	glthread.Iterate(&idx.list, func(n *glthread.Node) bool {
		return fn((*BlockHeader)(glthread.BaseOf(n, GlueOffset)))
	})
}

// Len counts the blocks currently in the index. It is O(n); callers
// exercising this often should track counts themselves instead.
func (idx *FreeIndex) Len() int {
	n := 0
	idx.Iterate(func(*BlockHeader) bool { n++; return true })
	return n
}
