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

    `github.com/stretchr/testify/assert`
    `github.com/stretchr/testify/require`
    `github.com/cloudwego/ssaopt/ir`
)

func TestTDCE_RemovesDeadChains(t *testing.T) {
    ctx, buf := newTestContext()
    m, fn, b := newTestFunc(ir.Void, ir.I32, ir.Ptr)
    pure := m.NewFunction("pure", ir.I32, ir.I32)
    pure.Pure = true
    ext := m.NewFunction("ext", ir.I32, ir.I32)

    /* a dead chain of depth 3 and some live side effects */
    a := b.Add(fn.Param(0), i32(1))
    c := b.Mul(a, a)
    p := b.Call(pure, c)
    b.Call(ext, fn.Param(0))
    b.Store(fn.Param(0), fn.Param(1))
    b.Load(ir.I32, fn.Param(1)).Flags = ir.Volatile
    b.Ret(nil)

    /* each run peels one level off the chain */
    for i, v := range []*ir.Instr { p, c, a } {
        buf.Reset()
        require.True(t, TDCE{}.Apply(ctx, m), "run %d", i)
        assert.True(t, v.Erased(), "run %d", i)
        assert.Equal(t, "dce: @f: removed 1 dead instructions\n", buf.String())
    }

    /* the effects stay */
    assert.Equal(t, 1, countOps(fn, ir.OpCall))
    assert.Equal(t, 1, countOps(fn, ir.OpStore))
    assert.Equal(t, 1, countOps(fn, ir.OpLoad))

    /* no more dead code */
    require.False(t, TDCE{}.Apply(ctx, m))
    require.NoError(t, ir.Verify(fn))
}
