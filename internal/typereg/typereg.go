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

// Package typereg is the page-backed type catalog: component E of the
// allocator. Each registered record type owns its own arena chain
// (github.com/ashwch/pagemm/internal/block.Arena) and free-block index
// (block.FreeIndex); the catalog itself lives inside OS pages acquired
// from github.com/ashwch/pagemm/internal/pagesource, the same way every
// other piece of this allocator's own book-keeping does. A hashmap would
// be the obvious choice for a name->record lookup, but it would have to
// live on the Go heap this allocator exists to bypass, and the catalog
// is small and rarely mutated, so a dense-prefix array scan is the
// better fit.
package typereg

import (
	"bytes"

	"github.com/ashwch/pagemm/internal/block"
	"github.com/ashwch/pagemm/internal/dbg"
	"github.com/ashwch/pagemm/internal/pagesource"
	"github.com/ashwch/pagemm/internal/xunsafe"
)

// NameSize is the fixed width of a TypeRecord's name, in bytes.
const NameSize = 32

// TypeRecord describes one registered record type: its name, the
// per-record byte size clients request multiples of, the head of its
// arena chain, and the priority index of its own free blocks. It is
// never heap-allocated on its own — every live TypeRecord is a slot
// inside a TypeRecordPage.
type TypeRecord struct {
	Name      [NameSize]byte
	Size      int
	ArenaHead xunsafe.Addr[block.Arena]
	FreeIndex block.FreeIndex
}

// occupied reports whether this slot holds a live record: per the
// dense-prefix contract, a slot is occupied iff its Size field is
// non-zero.
func (tr *TypeRecord) occupied() bool { return tr.Size != 0 }

// NameString decodes Name for human-readable output, stopping at the
// first zero byte (or the full 32 bytes, for a name that fills it).
func (tr *TypeRecord) NameString() string {
	if i := bytes.IndexByte(tr.Name[:], 0); i >= 0 {
		return string(tr.Name[:i])
	}
	return string(tr.Name[:])
}

func encodeName(name string) [NameSize]byte {
	var buf [NameSize]byte
	copy(buf[:], name)
	return buf
}

// TypeRecordPage is one OS page holding a singly-linked chain pointer
// plus a dense-prefix array of TypeRecords (the array itself is a
// struct-hack VLA immediately following this header, recovered via
// xunsafe.Beyond — see capacity and records below).
type TypeRecordPage struct {
	Next xunsafe.Addr[TypeRecordPage]
}

// Capacity is K: the number of TypeRecord slots that fit in one page
// alongside the Next pointer.
func Capacity() int {
	headerSize, _ := xunsafe.Layout[TypeRecordPage]()
	recordSize, _ := xunsafe.Layout[TypeRecord]()
	return (pagesource.Size() - headerSize) / recordSize
}

func records(page *TypeRecordPage) []TypeRecord {
	return xunsafe.Beyond[TypeRecord](page).Slice(Capacity())
}

func castPage(p xunsafe.Addr[byte]) *TypeRecordPage {
	return xunsafe.Cast[TypeRecordPage](p.AssertValid())
}

func spawnPage() (*TypeRecordPage, error) {
	base, err := pagesource.Acquire(1)
	if err != nil {
		return nil, err
	}
	page := castPage(base)
	dbg.Log(nil, "spawn-typepage", "%v, capacity=%d", base, Capacity())
	return page, nil
}

// Registry is the page-backed catalog of registered types, chained head
// to tail through TypeRecordPage.Next. The zero Registry is ready to use
// (an empty catalog).
type Registry struct {
	head xunsafe.Addr[TypeRecordPage]
}

// Iterate visits every registered TypeRecord in registry order: pages
// head-first, slots prefix-first within each page, stopping at the
// first unoccupied slot (the dense-prefix contract guarantees nothing
// occupied follows it). This is the ordering §6.4's introspection
// contract requires. Iteration stops early if fn returns false.
func (r *Registry) Iterate(fn func(*TypeRecord) bool) {
	cur := r.head
	for !cur.IsZero() {
		page := cur.AssertValid()
		recs := records(page)
		for i := range recs {
			tr := &recs[i]
			if !tr.occupied() {
				break
			}
			if !fn(tr) {
				return
			}
		}
		cur = page.Next
	}
}

// Lookup scans the registry for a byte-exact name match. Shorter names
// are zero-padded on encoding, so a short name always compares equal to
// itself regardless of how it was originally registered.
func (r *Registry) Lookup(name string) *TypeRecord {
	key := encodeName(name)
	var found *TypeRecord
	r.Iterate(func(tr *TypeRecord) bool {
		if tr.Name == key {
			found = tr
			return false
		}
		return true
	})
	return found
}

// Register validates size, rejects a duplicate name, and otherwise
// claims the first free slot in the registry (spawning and prepending a
// fresh TypeRecordPage if every existing page is full), per §4.2.
//
// size must fit in a single page (0 < size <= pagesource.Size()); the
// stricter per-arena-payload bound from the data model's invariant 1 is
// not enforced here, because §4.2's registration algorithm and §8's
// boundary test ("register size == S succeeds") both describe the
// looser check — a type registered at exactly S can simply never be
// satisfied by Alloc (every request for it trips RequestExceedsArena).
// See DESIGN.md.
func (r *Registry) Register(name string, size int) (*TypeRecord, error) {
	if size <= 0 || size > pagesource.Size() {
		return nil, ErrSizeTooLarge
	}

	key := encodeName(name)

	var target *TypeRecord
	cur := r.head
	for !cur.IsZero() {
		page := cur.AssertValid()
		recs := records(page)
		for i := range recs {
			tr := &recs[i]
			if !tr.occupied() {
				if target == nil {
					target = tr
				}
				break
			}
			if tr.Name == key {
				return nil, ErrDuplicateName
			}
		}
		cur = page.Next
	}

	if target == nil {
		page, err := spawnPage()
		if err != nil {
			return nil, err
		}
		page.Next = r.head
		r.head = xunsafe.AddrOf(page)
		target = &records(page)[0]
	}

	target.Name = key
	target.Size = size
	target.ArenaHead = 0
	target.FreeIndex = block.FreeIndex{}

	dbg.Log(nil, "register", "%s, size=%d", target.NameString(), size)
	return target, nil
}
