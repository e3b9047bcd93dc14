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

// Package pagesource is the sole memory source for the allocator: it hands
// out and takes back whole, anonymous, zero-filled virtual-memory pages
// straight from the OS, bypassing Go's own heap (and therefore its garbage
// collector) entirely.
//
// Every address this package returns must be treated by callers as a raw,
// non-GC-visible address (see [github.com/ashwch/pagemm/internal/xunsafe.Addr])
// until the moment it is dereferenced.
package pagesource

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/ashwch/pagemm/internal/dbg"
	"github.com/ashwch/pagemm/internal/xunsafe"
)

// Size returns the host's virtual-memory page size in bytes.
//
// This is a thin wrapper over a single call into the OS. The root package's
// New captures it once for Manager.PageSize; internal/block and
// internal/typereg call Size again each time they need it.
func Size() int {
	return unix.Getpagesize()
}

// Error reports a failure in a page-source operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pagemm: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Acquire requests units contiguous, anonymous, private, read+write pages
// from the OS, zero-filled, and returns the address of the first byte.
//
// The core never requests units != 1 (see §4.1 of the specification); the
// parameter exists because the contract itself is phrased in units of
// pages, not because any caller exercises values other than 1.
func Acquire(units int) (xunsafe.Addr[byte], error) {
	size := Size() * units
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, &Error{Op: "acquire", Err: err}
	}

	addr := xunsafe.AddrOf(&data[0])
	dbg.Log(nil, "acquire", "%v, %d unit(s)", addr, units)
	return addr, nil
}

// Release returns units pages starting at base to the OS. base and units
// must be exactly the values returned together by a prior call to Acquire:
// munmap operates on the mapping as a whole.
//
// A failure here is fatal: the caller has already updated its own
// book-keeping on the assumption that the page is gone. Release panics
// rather than returning an error that might be silently ignored.
func Release(base xunsafe.Addr[byte], units int) {
	size := Size() * units
	data := xunsafe.Slice(base.AssertValid(), size)
	dbg.Log(nil, "release", "%v, %d unit(s)", base, units)

	if err := unix.Munmap(data); err != nil {
		panic(&Error{Op: "release", Err: err})
	}
}
