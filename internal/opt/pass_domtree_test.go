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

package opt

import (
    `testing`

    `github.com/stretchr/testify/require`
    `github.com/cloudwego/ssaopt/ir`
)

func TestDomTreeInfo_Report(t *testing.T) {
    m, _ := counterLoop(t, 0, 1, ir.EQ, 4)
    ctx, buf := newTestContext()
    ctx.Debug = true
    before := m.String()

    /* analysis only */
    require.False(t, DomTreeInfo{}.Apply(ctx, m))
    require.Equal(t, before, m.String())
    require.Contains(t, buf.String(), "domtree: @f: 3 reachable blocks, loop headers: [loop]")
    require.Contains(t, buf.String(), "dominator tree of @f:")
    require.Contains(t, buf.String(), "frontier")
}
