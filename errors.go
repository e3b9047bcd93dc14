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
	"errors"

	"github.com/ashwch/pagemm/internal/typereg"
)

// ErrSizeTooLarge is returned by Register when the requested record
// size exceeds the host page size.
var ErrSizeTooLarge = typereg.ErrSizeTooLarge

// ErrDuplicateName is returned by Register when the name is already
// registered.
var ErrDuplicateName = typereg.ErrDuplicateName

// ErrNotRegistered is returned by Alloc when name has no registered
// TypeRecord.
var ErrNotRegistered = errors.New("pagemm: type not registered")

// ErrRequestExceedsArena is returned by Alloc when units*size exceeds
// the payload a single arena can hold; this allocator never spans an
// allocation across more than one arena.
var ErrRequestExceedsArena = errors.New("pagemm: requested size exceeds a single arena's payload")

// ErrOutOfMemory wraps a page-acquisition failure surfaced from Alloc
// or Register.
var ErrOutOfMemory = errors.New("pagemm: out of memory (page acquisition failed)")

// ErrInvalidPointer is returned by Free when p does not look like a
// pointer this package handed out. This check is best-effort: the
// specification explicitly leaves freeing an unrecognized pointer as
// undefined behavior, but a magic-tagged header (internal/block) lets a
// corrupted or foreign pointer be caught in the common case instead of
// silently corrupting arena metadata.
var ErrInvalidPointer = errors.New("pagemm: pointer was not allocated by this package")
