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

package xunsafe

import (
	"fmt"
	"unsafe"
)

// Addr is a typed raw address: a uintptr wearing the type of the value it
// points to, so that it is not a Go pointer as far as the garbage collector
// is concerned.
//
// The zero Addr represents "none" (nil).
type Addr[T any] uintptr

// AddrOf gets the address of a pointer.
func AddrOf[P ~*E, E any](p P) Addr[E] {
	return Addr[E](unsafe.Pointer(p))
}

// IsZero reports whether a is the "none" address.
func (a Addr[T]) IsZero() bool { return a == 0 }

// AssertValid reconstitutes a real pointer from this address.
//
// The caller is asserting that the memory at this address is both mapped and
// alive; the allocator only ever does this for addresses it mapped itself
// and has not yet released.
//
//go:nosplit
func (a Addr[T]) AssertValid() *T {
	return (*T)(unsafe.Pointer(a)) //nolint:govet // deliberate raw conversion
}

// Add adds the given offset to this address, scaled by the size of T.
func (a Addr[T]) Add(n int) Addr[T] {
	size, _ := Layout[T]()
	return a + Addr[T](n*size)
}

// Sub computes, in units of T, the distance from b to a.
func (a Addr[T]) Sub(b Addr[T]) int {
	size, _ := Layout[T]()
	return int(a-b) / size
}

// Format implements [fmt.Formatter].
func (a Addr[T]) Format(state fmt.State, verb rune) {
	if verb == 'v' {
		fmt.Fprintf(state, "%#x", uintptr(a))
		return
	}
	fmt.Fprintf(state, fmt.FormatString(state, verb), uintptr(a))
}
