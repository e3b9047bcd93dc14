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

// Package pagemm is a structure-aware page allocator: it services
// fixed-size-record allocation requests on top of raw virtual-memory
// pages acquired directly from the OS, bypassing the Go heap entirely.
//
// Clients first [Manager.Register] each record type they intend to
// allocate (a name plus a per-record byte size), then call
// [Manager.Alloc] for N zero-initialized instances of a registered
// type. The manager carves instances out of page-sized arenas it owns,
// splitting and coalescing free regions as allocations and frees come
// in, and releases a whole page back to the OS once its arena becomes
// entirely free.
//
// # Layout
//
//   - internal/pagesource acquires and releases whole anonymous pages.
//   - internal/block splits and coalesces the blocks within one arena
//     page, and keeps each type's free blocks in a largest-first index.
//   - internal/typereg is the page-backed catalog of registered types.
//   - internal/glthread is the intrusive linked-list primitive that
//     internal/block builds each type's free-block priority index on.
//
// # Concurrency
//
// A [Manager] is not safe for concurrent use. It holds its own mutable
// state (a type registry and the page size captured at construction)
// with no internal locking, matching the single-threaded model this
// allocator was designed for; callers that need concurrent access must
// wrap a *Manager in their own sync.Mutex or shard managers across
// goroutine groups.
//
// # What this is not
//
// This is not a general-purpose allocator: there is no realloc, no
// user-specified alignment, no cross-type pooling, and no allocation
// larger than a single arena's payload region. See [Manager.Alloc] for
// the exact size limit.
package pagemm
