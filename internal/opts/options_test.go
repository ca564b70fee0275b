/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package opts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptions_Defaults(t *testing.T) {
	o := GetDefaultOptions()
	require.Equal(t, 8, o.MaxUnrollCount)
	require.Equal(t, 32, o.UnrollSizeThreshold)
	require.Equal(t, 100, o.MaxInlineSize)
	require.Equal(t, 5, o.MaxInlineDepth)
	require.Equal(t, 5, o.MaxDSERounds)
	require.True(t, o.Verify)
}

func TestOptions_CanUnroll(t *testing.T) {
	o := GetDefaultOptions()
	require.True(t, o.CanUnroll(5, 6))
	require.True(t, o.CanUnroll(8, 4))
	require.False(t, o.CanUnroll(9, 1))
	require.False(t, o.CanUnroll(5, 7))
	require.False(t, o.CanUnroll(0, 1))
}

func TestOptions_ParseOrDefault(t *testing.T) {
	t.Setenv("SSAOPT_TEST_KNOB", "")
	require.Equal(t, 3, parseOrDefault("SSAOPT_TEST_KNOB", 3, 1))
	t.Setenv("SSAOPT_TEST_KNOB", "0x10")
	require.Equal(t, 16, parseOrDefault("SSAOPT_TEST_KNOB", 3, 1))
	t.Setenv("SSAOPT_TEST_KNOB", "0")
	require.Panics(t, func() { parseOrDefault("SSAOPT_TEST_KNOB", 3, 1) })
	t.Setenv("SSAOPT_TEST_KNOB", "abc")
	require.Panics(t, func() { parseOrDefault("SSAOPT_TEST_KNOB", 3, 1) })
}
