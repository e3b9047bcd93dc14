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

// Package xunsafe provides a more convenient interface for performing the
// pointer-arithmetic operations that the allocator needs than Go's built-in
// package unsafe.
//
// Everything here operates on raw addresses, not Go pointers: the memory the
// allocator manages lives in anonymous mmap'd pages, not the Go heap, and the
// garbage collector must never be handed something that looks like a live
// pointer into it. [Addr] exists specifically to keep that memory invisible
// to the GC until [Addr.AssertValid] deliberately reconstitutes a pointer for
// the duration of a single field access.
package xunsafe

import "unsafe"

// Int is any integer type usable as a pointer offset.
type Int interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Layout returns the size and alignment of T.
func Layout[T any]() (size, align int) {
	var z T
	return int(unsafe.Sizeof(z)), int(unsafe.Alignof(z))
}

// Cast reinterprets a pointer to one type as a pointer to another.
func Cast[To, From any](p *From) *To {
	return (*To)(unsafe.Pointer(p))
}

// Add adds the given offset to p, scaled by the size of E.
func Add[P ~*E, E any, I Int](p P, n I) P {
	size, _ := Layout[E]()
	return P(unsafe.Add(unsafe.Pointer(p), uintptr(size)*uintptr(n)))
}

// ByteAdd adds the given unscaled byte offset to p.
func ByteAdd[P ~*E, E any, I Int](p P, n I) P {
	return P(unsafe.Add(unsafe.Pointer(p), n))
}

// Slice builds a slice of length and capacity n over p without a bounds
// check on creation.
func Slice[P ~*E, E any, I Int](p P, n I) []E {
	return unsafe.Slice(p, n)
}

// Clear zeros n elements starting at p.
func Clear[P ~*E, E any, I Int](p P, n I) {
	clear(Slice(p, n))
}
