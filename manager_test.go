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

package pagemm_test

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/ashwch/pagemm"
	"github.com/ashwch/pagemm/internal/block"
)

func TestRegisterDuplicateName(t *testing.T) {
	t.Parallel()

	m := pagemm.New()
	require.NoError(t, m.Register("widget", 36))
	require.ErrorIs(t, m.Register("widget", 36), pagemm.ErrDuplicateName)
}

func TestRegisterSizeExactlyPageSizeSucceeds(t *testing.T) {
	t.Parallel()

	m := pagemm.New()
	require.NoError(t, m.Register("fullpage", m.PageSize()))
}

func TestRegisterSizeTooLarge(t *testing.T) {
	t.Parallel()

	m := pagemm.New()
	err := m.Register("toobig", m.PageSize()+1)
	require.ErrorIs(t, err, pagemm.ErrSizeTooLarge)
}

func TestAllocNotRegistered(t *testing.T) {
	t.Parallel()

	m := pagemm.New()
	_, err := m.Alloc("ghost", 1)
	require.ErrorIs(t, err, pagemm.ErrNotRegistered)
}

func TestAllocRequestExceedsArena(t *testing.T) {
	t.Parallel()

	m := pagemm.New()
	require.NoError(t, m.Register("small", 16))

	// Any number of units large enough to exceed a single arena's
	// payload must be rejected, never silently spread across arenas.
	_, err := m.Alloc("small", m.PageSize())
	require.ErrorIs(t, err, pagemm.ErrRequestExceedsArena)
}

func TestAllocReturnsZeroedMemory(t *testing.T) {
	t.Parallel()

	m := pagemm.New()
	require.NoError(t, m.Register("rec", 64))

	p, err := m.Alloc("rec", 1)
	require.NoError(t, err)

	got := unsafe.Slice((*byte)(p), 64)
	require.True(t, bytes.Equal(got, make([]byte, 64)))

	for i := range got {
		got[i] = 0xAB
	}
	require.NoError(t, m.Free(p))
}

// TestFreeCoalesceAndReleaseCycle mirrors the specification's end-to-end
// scenarios 2-5: three same-sized allocations land on one arena; freeing
// the middle isolates it, freeing the first coalesces it with the
// middle, and freeing the last coalesces everything and releases the
// arena.
func TestFreeCoalesceAndReleaseCycle(t *testing.T) {
	t.Parallel()

	m := pagemm.New()
	require.NoError(t, m.Register("e", 36))
	require.NoError(t, m.Register("s2", 61))

	e1, err := m.Alloc("e", 1)
	require.NoError(t, err)
	s1, err := m.Alloc("s2", 1)
	require.NoError(t, err)
	e2, err := m.Alloc("e", 1)
	require.NoError(t, err)
	s2, err := m.Alloc("s2", 1)
	require.NoError(t, err)
	e3, err := m.Alloc("e", 1)
	require.NoError(t, err)

	// Each of the three E allocations splits the current largest free
	// block, leaving one trailing residual free block behind the third
	// allocated block (the page is far larger than 3*36 bytes).
	snap := m.Snapshot()
	require.Len(t, findType(snap, "e").Arenas, 1)
	require.Len(t, findType(snap, "s2").Arenas, 1)
	eBlocks := findType(snap, "e").Arenas[0].Blocks
	require.Len(t, eBlocks, 4)
	require.Equal(t, []string{"ALLOCATED", "ALLOCATED", "ALLOCATED", "FREE"}, statesOf(eBlocks))

	// Scenario 3: free the middle E-block - isolated, no coalesce
	// (both physical neighbors are ALLOCATED).
	require.NoError(t, m.Free(e2))
	snap = m.Snapshot()
	eBlocks = findType(snap, "e").Arenas[0].Blocks
	require.Len(t, eBlocks, 4)
	require.Equal(t, []string{"ALLOCATED", "FREE", "ALLOCATED", "FREE"}, statesOf(eBlocks))

	// Scenario 4: free the first E-block - coalesces with the now-free
	// middle block into one larger free block.
	require.NoError(t, m.Free(e1))
	snap = m.Snapshot()
	eBlocks = findType(snap, "e").Arenas[0].Blocks
	require.Len(t, eBlocks, 3, "the first two blocks should have merged")
	require.Equal(t, []string{"FREE", "ALLOCATED", "FREE"}, statesOf(eBlocks))
	require.Equal(t, 36*2+block.HeaderSize(), eBlocks[0].DataSize)

	// Scenario 5: free the last E-block too - it coalesces with both
	// of its free neighbors, the merged block spans the entire
	// payload, and the arena is released.
	require.NoError(t, m.Free(e3))
	snap = m.Snapshot()
	require.Empty(t, findType(snap, "e").Arenas, "E's arena should have been released")

	// S2's arena is untouched throughout.
	require.Len(t, findType(snap, "s2").Arenas, 1)
	require.Len(t, findType(snap, "s2").Arenas[0].Blocks, 3)

	require.NoError(t, m.Free(s1))
	require.NoError(t, m.Free(s2))
	snap = m.Snapshot()
	require.Empty(t, findType(snap, "s2").Arenas)
}

func TestFreeInvalidPointer(t *testing.T) {
	t.Parallel()

	m := pagemm.New()
	require.NoError(t, m.Register("rec", 32))

	var garbage [256]byte
	err := m.Free(unsafe.Pointer(&garbage[128]))
	require.ErrorIs(t, err, pagemm.ErrInvalidPointer)
}

func TestNewPageSizeIsIdempotent(t *testing.T) {
	t.Parallel()

	a := pagemm.New()
	b := pagemm.New()
	require.Equal(t, a.PageSize(), b.PageSize())
}

func statesOf(blocks []pagemm.BlockSnapshot) []string {
	s := make([]string, len(blocks))
	for i, b := range blocks {
		s[i] = b.State
	}
	return s
}
