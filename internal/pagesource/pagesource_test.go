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

package pagesource_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ashwch/pagemm/internal/pagesource"
	"github.com/ashwch/pagemm/internal/xunsafe"
)

func TestAcquireIsZeroFilledAndWritable(t *testing.T) {
	t.Parallel()

	base, err := pagesource.Acquire(1)
	require.NoError(t, err)
	require.False(t, base.IsZero())

	size := pagesource.Size()
	page := base.AssertValid()
	buf := xunsafe.Slice(page, size)
	for _, b := range buf {
		require.Equal(t, byte(0), b)
	}

	buf[0] = 0xAB
	require.Equal(t, byte(0xAB), *xunsafe.Add(page, 0))

	pagesource.Release(base, 1)
}

func TestSizeIsConsistent(t *testing.T) {
	t.Parallel()

	a := pagesource.Size()
	b := pagesource.Size()
	require.Equal(t, a, b)
	require.Greater(t, a, 0)
}
