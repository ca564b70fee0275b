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

func TestStrengthReduce(t *testing.T) {
    ctx, buf := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.I32)
    x := fn.Param(0)
    v1 := b.Mul(i32(8), x)
    v2 := b.UDiv(v1, i32(16))
    v3 := b.URem(v2, i32(4))
    v4 := b.SDiv(v3, i32(2))
    v5 := b.Mul(v4, i32(6))
    b.Ret(v5)

    /* powers of two only, signed division is kept */
    require.True(t, StrengthReduce{}.Apply(ctx, m))
    ins := fn.Entry().Instrs()
    require.Len(t, ins, 6)
    assert.Equal(t, "%7 = shl i32 %a0, 3", ins[0].String())
    assert.Equal(t, "%8 = lshr i32 %7, 4", ins[1].String())
    assert.Equal(t, "%9 = and i32 %8, 3", ins[2].String())
    assert.Equal(t, ir.OpSDiv, ins[3].Op)
    assert.Equal(t, ir.OpMul, ins[4].Op)
    assert.Contains(t, buf.String(), "strength: @f: reduced 3 operations")
}

func TestStrengthReduce_Log2(t *testing.T) {
    k, ok := log2(i32(1))
    assert.True(t, ok)
    assert.Equal(t, int64(0), k)
    k, ok = log2(ir.ConstInt(ir.I64, -1 << 63))
    assert.True(t, ok)
    assert.Equal(t, int64(63), k)
    _, ok = log2(i32(0))
    assert.False(t, ok)
    _, ok = log2(i32(12))
    assert.False(t, ok)
}
