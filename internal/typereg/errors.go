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

package typereg

import "errors"

// ErrSizeTooLarge is returned by Register when size exceeds the host
// page size.
var ErrSizeTooLarge = errors.New("pagemm: record size exceeds page size")

// ErrDuplicateName is returned by Register when name is already present
// in the registry.
var ErrDuplicateName = errors.New("pagemm: type name already registered")
