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
	"github.com/ashwch/pagemm/internal/block"
	"github.com/ashwch/pagemm/internal/typereg"
)

// BlockSnapshot is one block of one arena, in the same ascending-address
// order WalkBlocks visits them.
type BlockSnapshot struct {
	State    string `yaml:"state"`
	DataSize int    `yaml:"data_size"`
	Offset   uintptr `yaml:"offset"`
}

// ArenaSnapshot is one arena of one type, in arena-chain (head-first)
// order.
type ArenaSnapshot struct {
	Blocks []BlockSnapshot `yaml:"blocks"`
}

// TypeSnapshot is one registered type, in registry order.
type TypeSnapshot struct {
	Name   string          `yaml:"name"`
	Size   int             `yaml:"size"`
	Arenas []ArenaSnapshot `yaml:"arenas"`
}

// Snapshot is a structured, YAML-serializable view of the same data
// §6.4's plain-text traversals expose. It exists so scenario tests can
// assert on structure directly instead of scraping formatted output;
// the plain-text PrintRegisteredTypes/PrintMemoryUsage/PrintBlockUsage
// functions remain the primary, specification-mandated surface. This is
// a supplemental feature, not a replacement for them.
type Snapshot struct {
	Types []TypeSnapshot `yaml:"types"`
}

// Snapshot captures the manager's entire current state: every
// registered type, in registry order, each with its arenas (head-first)
// and each arena's blocks (ascending address).
func (m *Manager) Snapshot() Snapshot {
	var snap Snapshot
	m.registry.Iterate(func(tr *typereg.TypeRecord) bool {
		ts := TypeSnapshot{Name: tr.NameString(), Size: tr.Size}

		block.WalkArenas(tr.ArenaHead, func(a *block.Arena) bool {
			var as ArenaSnapshot
			block.WalkBlocks(a, func(b *block.BlockHeader) bool {
				as.Blocks = append(as.Blocks, BlockSnapshot{
					State:    b.State.String(),
					DataSize: b.DataSize,
					Offset:   b.Offset,
				})
				return true
			})
			ts.Arenas = append(ts.Arenas, as)
			return true
		})

		snap.Types = append(snap.Types, ts)
		return true
	})
	return snap
}
