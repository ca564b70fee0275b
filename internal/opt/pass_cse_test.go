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

func TestCSE_Duplicates(t *testing.T) {
    ctx, buf := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.I32, ir.I32)
    x, y := fn.Param(0), fn.Param(1)
    a1 := b.Add(x, y)
    a2 := b.Add(y, x)
    m1 := b.Mul(a1, a2)
    c1 := b.ICmp(ir.SLT, x, y)
    c2 := b.ICmp(ir.SLT, x, y)
    c3 := b.ICmp(ir.SGT, x, y)
    s := b.Select(c1, m1, x)
    s = b.Select(c2, s, y)
    s = b.Select(c3, s, a2)
    b.Ret(s)

    /* commutative operands and equal compares are merged */
    require.True(t, CSE{}.Apply(ctx, m))
    assert.True(t, a2.Erased())
    assert.True(t, c2.Erased())
    assert.False(t, c3.Erased())
    assert.Equal(t, ir.Value(a1), m1.Operand(1))
    assert.Contains(t, buf.String(), "cse: @f: eliminated 2 common sub-expressions")

    /* nothing left to do */
    require.False(t, CSE{}.Apply(ctx, m))
}

func TestCSE_KeepsDifferentFlags(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.I32)
    x := fn.Param(0)
    a1 := b.Add(x, i32(1))
    a2 := b.AddNSW(x, i32(1))
    b.Ret(b.Xor(a1, a2))
    require.False(t, CSE{}.Apply(ctx, m))
    assert.False(t, a2.Erased())
}

func TestCSE_BlockLocal(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.I32)
    x := fn.Param(0)
    next := fn.NewBlock("next")
    a1 := b.Sub(x, i32(3))
    b.Br(next)
    b.SetBlock(next)
    a2 := b.Sub(x, i32(3))
    b.Ret(b.Add(a1, a2))

    /* the same expression in another block is kept */
    require.False(t, CSE{}.Apply(ctx, m))
    assert.False(t, a2.Erased())
}

func TestCSE_UnusedLoads(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.Ptr)
    gv := m.NewGlobal("g", ir.I32, i32(1))
    l1 := b.Load(ir.I32, gv)
    l2 := b.Load(ir.I32, fn.Param(0))
    l2.Flags = ir.Volatile
    l3 := b.Load(ir.I32, gv)
    b.Ret(l3)

    /* only the plain unused load goes */
    require.True(t, CSE{}.Apply(ctx, m))
    assert.True(t, l1.Erased())
    assert.False(t, l2.Erased())
    assert.False(t, l3.Erased())
}

func TestCSE_Phis(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.I1, ir.I32)
    left := fn.NewBlock("left")
    merge := fn.NewBlock("merge")
    b.CondBr(fn.Param(0), left, merge)
    ir.NewBuilder(left).Br(merge)

    /* two identical phis */
    b.SetBlock(merge)
    p1 := b.Phi(ir.I32)
    p2 := b.Phi(ir.I32)
    p1.AddIncoming(i32(1), left)
    p1.AddIncoming(fn.Param(1), fn.Entry())
    p2.AddIncoming(fn.Param(1), fn.Entry())
    p2.AddIncoming(i32(1), left)
    b.Ret(b.Add(p1, p2))

    /* incoming pairs are compared regardless of order */
    require.True(t, CSE{}.Apply(ctx, m))
    assert.True(t, p2.Erased())
    assert.Equal(t, 1, countOps(fn, ir.OpPhi))
}
