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

//go:build !debug

// Package dbg includes debugging helpers that are compiled out entirely
// unless the "debug" build tag is set.
package dbg

// Enabled is true if the binary was built with the debug tag.
const Enabled = false

// Log is a no-op in non-debug builds.
func Log(context []any, operation string, format string, args ...any) {}

// Assert is a no-op in non-debug builds. Its arguments are still
// evaluated at the call site, so callers should keep cond cheap.
func Assert(cond bool, format string, args ...any) {}
