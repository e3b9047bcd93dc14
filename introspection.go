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
	"fmt"
	"io"

	"github.com/ashwch/pagemm/internal/block"
	"github.com/ashwch/pagemm/internal/typereg"
)

// PrintRegisteredTypes writes one line per registered type, in registry
// order (pages head-first, slots prefix-first; a page spawned once the
// others are full is prepended, so its types come first), in the form
// "name: size". This is §6.4's print_registered_types.
func (m *Manager) PrintRegisteredTypes(w io.Writer) error {
	var err error
	m.registry.Iterate(func(tr *typereg.TypeRecord) bool {
		_, err = fmt.Fprintf(w, "%s: %d\n", tr.NameString(), tr.Size)
		return err == nil
	})
	return err
}

// PrintMemoryUsage writes an arena-level dump: for every arena of
// name (or of every registered type, if name is empty), one line per
// block with columns {block pointer, index within arena, state,
// data size, offset, prev pointer, next pointer}. Column spacing is not
// part of the contract, only the ordering is: per TypeRecordPage
// head-first, per slot prefix-first, per arena head-first, per block
// ascending address — §6.4's print_memory_usage.
func (m *Manager) PrintMemoryUsage(w io.Writer, name string) error {
	var err error
	visit := func(tr *typereg.TypeRecord) bool {
		if _, e := fmt.Fprintf(w, "type %s (size=%d):\n", tr.NameString(), tr.Size); e != nil {
			err = e
			return false
		}

		arenaIdx := 0
		block.WalkArenas(tr.ArenaHead, func(a *block.Arena) bool {
			if _, e := fmt.Fprintf(w, "  arena[%d]:\n", arenaIdx); e != nil {
				err = e
				return false
			}
			arenaIdx++

			blockIdx := 0
			block.WalkBlocks(a, func(b *block.BlockHeader) bool {
				_, e := fmt.Fprintf(w, "    %p idx=%d state=%s data_size=%d offset=%d prev=%p next=%p\n",
					b, blockIdx, b.State, b.DataSize, b.Offset, prevOrNil(b), nextOrNil(b))
				blockIdx++
				if e != nil {
					err = e
					return false
				}
				return true
			})
			return err == nil
		})
		return err == nil
	}

	if name != "" {
		tr := m.registry.Lookup(name)
		if tr == nil {
			return ErrNotRegistered
		}
		visit(tr)
		return err
	}

	m.registry.Iterate(visit)
	return err
}

func nextOrNil(b *block.BlockHeader) *block.BlockHeader {
	if b.NextBlock.IsZero() {
		return nil
	}
	return b.NextBlock.AssertValid()
}

func prevOrNil(b *block.BlockHeader) *block.BlockHeader {
	if b.PrevBlock.IsZero() {
		return nil
	}
	return b.PrevBlock.AssertValid()
}

// BlockUsage is one type's row of §6.4's print_block_usage: total,
// free, and allocated block counts across all of a type's arenas, plus
// AppMemory, computed as allocated blocks × (header size + record size)
// regardless of how many units each allocation actually holds.
type BlockUsage struct {
	Name            string
	TotalBlocks     int
	FreeBlocks      int
	AllocatedBlocks int
	AppMemory       int
}

// PrintBlockUsage writes one line per registered type with its
// BlockUsage counts, in registry order.
func (m *Manager) PrintBlockUsage(w io.Writer) error {
	var err error
	m.registry.Iterate(func(tr *typereg.TypeRecord) bool {
		u := blockUsageFor(tr)
		_, err = fmt.Fprintf(w, "%s: total=%d free=%d allocated=%d app_memory=%d\n",
			u.Name, u.TotalBlocks, u.FreeBlocks, u.AllocatedBlocks, u.AppMemory)
		return err == nil
	})
	return err
}

func blockUsageFor(tr *typereg.TypeRecord) BlockUsage {
	u := BlockUsage{Name: tr.NameString()}
	headerSize := block.HeaderSize()

	block.WalkArenas(tr.ArenaHead, func(a *block.Arena) bool {
		block.WalkBlocks(a, func(b *block.BlockHeader) bool {
			u.TotalBlocks++
			if b.State == block.StateFree {
				u.FreeBlocks++
			} else {
				u.AllocatedBlocks++
			}
			return true
		})
		return true
	})

	u.AppMemory = u.AllocatedBlocks * (headerSize + tr.Size)
	return u
}
