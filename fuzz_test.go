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
	"errors"
	"testing"

	"github.com/ashwch/pagemm"
)

// FuzzRegisterAlloc exercises Register and Alloc with arbitrary names
// and sizes, checking only properties that must hold no matter what:
// errors are always one of the documented sentinels, a successful
// Alloc's pointer always frees cleanly, and nothing ever panics for
// input this fuzzer can reach (Free is exercised only on pointers this
// package itself returned, since passing it arbitrary bytes is
// documented as undefined behavior, not a property to fuzz).
func FuzzRegisterAlloc(f *testing.F) {
	f.Add("widget", 36, 1)
	f.Add("", 0, 1)
	f.Add("exact", 4096, 1)
	f.Add("neg", -1, 1)
	f.Add("huge", 1<<20, 1)

	f.Fuzz(func(t *testing.T, name string, size int, units int) {
		if units <= 0 {
			units = 1 // negative/zero units is a caller bug, not a property under test here
		}

		m := pagemm.New()

		err := m.Register(name, size)
		if err != nil {
			if !errors.Is(err, pagemm.ErrSizeTooLarge) {
				t.Fatalf("unexpected Register error: %v", err)
			}
			return
		}

		p, err := m.Alloc(name, units)
		if err != nil {
			switch {
			case errors.Is(err, pagemm.ErrRequestExceedsArena):
			case errors.Is(err, pagemm.ErrOutOfMemory):
			default:
				t.Fatalf("unexpected Alloc error: %v", err)
			}
			return
		}

		if err := m.Free(p); err != nil {
			t.Fatalf("Free of a pointer Alloc just returned must succeed: %v", err)
		}
	})
}

// FuzzLookupUnregisteredName checks that Alloc on a name nothing ever
// registered always reports ErrNotRegistered, regardless of what the
// name looks like.
func FuzzLookupUnregisteredName(f *testing.F) {
	f.Add("missing")
	f.Add("")
	f.Add("this-name-is-longer-than-thirty-two-bytes-for-sure")

	f.Fuzz(func(t *testing.T, name string) {
		m := pagemm.New()
		_, err := m.Alloc(name, 1)
		if !errors.Is(err, pagemm.ErrNotRegistered) {
			t.Fatalf("expected ErrNotRegistered, got %v", err)
		}
	})
}
