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

// VLA is a marker type for accessing a variable-length array that follows
// some struct, emulating C's "struct hack" (`T records[]` as the last
// field). It occupies zero space in the struct it's embedded in.
type VLA[T any] [0]T

// Beyond obtains the VLA immediately following the Header value at p.
func Beyond[T, Header any](p *Header) *VLA[T] {
	size, _ := Layout[Header]()
	return Cast[VLA[T]](ByteAdd(p, size))
}

// Get returns a pointer to the nth element of this array.
func (a *VLA[T]) Get(n int) *T {
	return Add(Cast[T](a), n)
}

// Slice converts this VLA into a slice of the given length.
func (a *VLA[T]) Slice(n int) []T {
	return Slice(a.Get(0), n)
}
