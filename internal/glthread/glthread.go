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

// Package glthread is an intrusive, generic-free doubly-linked list: the
// link fields live inside the objects being linked (e.g. a BlockHeader's
// free-index glue), not in separately allocated nodes. A [Node] carries no
// information about the type it is embedded in; recovering the containing
// object is the caller's job, via [BaseOf] and a known byte offset.
//
// Nodes live inside mmap'd arenas, not the Go heap, so links are stored as
// [xunsafe.Addr] rather than ordinary pointers: see the package doc of
// github.com/ashwch/pagemm/internal/xunsafe for why.
//
// This mirrors the glthread.c/.h pair this allocator's design was adapted
// from: init_list/init_node, insert-at-head, O(1) remove, and a linear-scan
// priority_insert driven by a caller-supplied comparator evaluated on the
// *containing* objects, not the link nodes themselves.
package glthread

import (
	"unsafe"

	"github.com/ashwch/pagemm/internal/xunsafe"
)

// Node is an intrusive link. Embed it as a field of the type being linked.
type Node struct {
	Prev, Next xunsafe.Addr[Node]
}

// List is an intrusive doubly-linked list, identified only by its head.
type List struct {
	Head xunsafe.Addr[Node]
}

// InitNode resets a node to the unlinked state.
func InitNode(n *Node) {
	n.Prev, n.Next = 0, 0
}

// InsertAtHead prepends n to list.
func InsertAtHead(list *List, n *Node) {
	InitNode(n)
	addr := xunsafe.AddrOf(n)
	if !list.Head.IsZero() {
		head := list.Head.AssertValid()
		n.Next = list.Head
		head.Prev = addr
	}
	list.Head = addr
}

// Remove unlinks n from list. n must currently be linked in list (or at
// least have prev/next consistent with being linked in it); this is O(1).
func Remove(list *List, n *Node) {
	addr := xunsafe.AddrOf(n)
	if list.Head == addr {
		list.Head = n.Next
	}
	if !n.Prev.IsZero() {
		n.Prev.AssertValid().Next = n.Next
	}
	if !n.Next.IsZero() {
		n.Next.AssertValid().Prev = n.Prev
	}
	n.Prev, n.Next = 0, 0
}

// Comparator orders two containing objects (not link nodes) for
// [PriorityInsert]. It must return a negative number if a sorts before b, a
// positive number if a sorts after b, and zero if they are equivalent for
// ordering purposes.
type Comparator func(a, b unsafe.Pointer) int

// BaseOf recovers a pointer to the object containing n, given the byte
// offset of n's field within that object's type.
func BaseOf(n *Node, offset uintptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(unsafe.Pointer(n)) - offset)
}

// PriorityInsert inserts n into list in priority order, as determined by cmp
// applied to the objects containing each node (recovered via offset).
//
// This is a linear scan: it walks from the head looking for the first
// existing node whose containing object sorts strictly after n's
// containing object, and splices n in immediately before it. Ties are
// broken by insertion order: a newly-inserted node with an equivalent key
// is placed after all existing nodes with that same key, never before, so a
// reinsert of an equal-priority item is stable.
func PriorityInsert(list *List, n *Node, cmp Comparator, offset uintptr) {
	InitNode(n)

	nAddr := xunsafe.AddrOf(n)
	nBase := BaseOf(n, offset)
	if list.Head.IsZero() {
		list.Head = nAddr
		return
	}

	var prev xunsafe.Addr[Node]
	cur := list.Head
	for !cur.IsZero() {
		curNode := cur.AssertValid()
		if cmp(BaseOf(curNode, offset), nBase) > 0 {
			break
		}
		prev = cur
		cur = curNode.Next
	}

	n.Next = cur
	n.Prev = prev
	if !cur.IsZero() {
		cur.AssertValid().Prev = nAddr
	}
	if !prev.IsZero() {
		prev.AssertValid().Next = nAddr
	} else {
		list.Head = nAddr
	}
}

// Iterate calls fn for every node in list, head to tail. It is safe to
// remove the node passed to fn from list during the callback (the next
// pointer is cached before fn runs). Iteration stops early if fn returns
// false.
func Iterate(list *List, fn func(*Node) bool) {
	cur := list.Head
	for !cur.IsZero() {
		node := cur.AssertValid()
		next := node.Next
		if !fn(node) {
			return
		}
		cur = next
	}
}
