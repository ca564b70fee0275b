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

func retOperand(fn *ir.Function) *ir.Instr {
    return fn.Entry().Term().Operand(0).(*ir.Instr)
}

func TestInstCombine_Reassociate(t *testing.T) {
    ctx, buf := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.I32)
    x := fn.Param(0)
    b.Ret(b.Sub(b.Add(b.Add(i32(3), x), i32(4)), i32(2)))

    /* ((3 + x) + 4) - 2 => x + 5 */
    require.True(t, InstCombine{}.Apply(ctx, m))
    v := retOperand(fn)
    assert.Equal(t, ir.OpAdd, v.Op)
    assert.Equal(t, ir.Value(x), v.Operand(0))
    assert.Equal(t, ir.Value(i32(5)), v.Operand(1))
    assert.Equal(t, 2, len(fn.Entry().Instrs()))
    assert.Contains(t, buf.String(), "instcombine: @f: combined 2 instructions")
}

func TestInstCombine_CancelOut(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.I32)
    x := fn.Param(0)
    b.Ret(b.Sub(b.Add(x, i32(7)), i32(7)))
    require.True(t, InstCombine{}.Apply(ctx, m))
    assert.Equal(t, ir.Value(x), fn.Entry().Term().Operand(0))
}

func TestInstCombine_Canonicalize(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I1, ir.I32)
    x := fn.Param(0)
    c := b.ICmp(ir.SLT, i32(5), x)
    b.Ret(c)

    /* the constant moves to the right, the predicate flips */
    require.True(t, InstCombine{}.Apply(ctx, m))
    assert.Equal(t, ir.SGT, c.Pred)
    assert.Equal(t, ir.Value(x), c.Operand(0))
    assert.Equal(t, ir.Value(i32(5)), c.Operand(1))
    require.False(t, InstCombine{}.Apply(ctx, m))
}

func TestInstCombine_MulDiv(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.I32, ir.I32)
    x, y := fn.Param(0), fn.Param(1)
    p := b.SDiv(b.BinaryFlags(ir.OpMul, x, i32(6), ir.NSW), i32(3))
    q := b.SDiv(b.Mul(y, i32(6)), i32(3))
    b.Ret(b.Xor(p, q))

    /* only the non-wrapping product is divided */
    require.True(t, InstCombine{}.Apply(ctx, m))
    v := retOperand(fn)
    mul := v.Operand(0).(*ir.Instr)
    assert.Equal(t, ir.OpMul, mul.Op)
    assert.Equal(t, ir.Value(i32(2)), mul.Operand(1))
    assert.Equal(t, ir.OpSDiv, v.Operand(1).(*ir.Instr).Op)
}

func TestInstCombine_Shifts(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.I32)
    x := fn.Param(0)
    s1 := b.Shl(b.Shl(x, i32(3)), i32(4))
    s2 := b.LShr(b.LShr(x, i32(20)), i32(20))
    b.Ret(b.Or(s1, s2))

    /* combined amounts must stay below the width */
    require.True(t, InstCombine{}.Apply(ctx, m))
    v := retOperand(fn)
    shl := v.Operand(0).(*ir.Instr)
    assert.Equal(t, ir.Value(x), shl.Operand(0))
    assert.Equal(t, ir.Value(i32(7)), shl.Operand(1))
    assert.False(t, s2.Erased())
}

func TestInstCombine_Compare(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I1, ir.I32)
    x := fn.Param(0)
    c1 := b.ICmp(ir.SLT, b.AddNSW(x, i32(5)), i32(10))
    c2 := b.ICmp(ir.SLT, b.Add(x, i32(5)), i32(10))
    c3 := b.ICmp(ir.EQ, b.Sub(x, i32(5)), i32(10))
    b.Ret(b.Select(c1, c2, c3))

    /* the wrapping relational compare is left alone */
    require.True(t, InstCombine{}.Apply(ctx, m))
    sel := fn.Entry().Term().Operand(0).(*ir.Instr)
    n1 := sel.Operand(0).(*ir.Instr)
    n3 := sel.Operand(2).(*ir.Instr)
    assert.True(t, c1.Erased())
    assert.False(t, c2.Erased())
    assert.Equal(t, ir.Value(x), n1.Operand(0))
    assert.Equal(t, ir.Value(i32(5)), n1.Operand(1))
    assert.Equal(t, ir.EQ, n3.Pred)
    assert.Equal(t, ir.Value(i32(15)), n3.Operand(1))
}

func TestInstCombine_CompareOverflow(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I1, ir.I8)
    x := fn.Param(0)
    c := b.ICmp(ir.SGT, b.BinaryFlags(ir.OpAdd, x, ir.ConstInt(ir.I8, 100), ir.NSW), ir.ConstInt(ir.I8, -100))
    b.Ret(c)

    /* -100 - 100 does not fit in i8 */
    require.False(t, InstCombine{}.Apply(ctx, m))
    assert.False(t, c.Erased())
}

func TestInstCombine_AddChain(t *testing.T) {
    ctx, buf := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.I32, ir.I32)
    base, x := fn.Param(0), fn.Param(1)
    t1 := b.AddNSW(base, x)
    t2 := b.AddNSW(t1, x)
    t3 := b.AddNSW(x, t2)
    t4 := b.AddNSW(t3, x)
    b.Ret(t4)

    /* base + x + x + x + x => base + x * 4 */
    require.True(t, InstCombine{}.Apply(ctx, m))
    v := retOperand(fn)
    assert.Equal(t, ir.OpAdd, v.Op)
    assert.Equal(t, ir.Flags(0), v.Flags)
    assert.Equal(t, ir.Value(base), v.Operand(0))
    mul := v.Operand(1).(*ir.Instr)
    assert.Equal(t, ir.OpMul, mul.Op)
    assert.Equal(t, ir.Value(x), mul.Operand(0))
    assert.Equal(t, ir.Value(i32(4)), mul.Operand(1))
    assert.Equal(t, 3, len(fn.Entry().Instrs()))
    assert.Contains(t, buf.String(), "reduced 1 add chains")
}

func TestInstCombine_AddChainShared(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.I32, ir.I32)
    base, x := fn.Param(0), fn.Param(1)
    t1 := b.AddNSW(base, x)
    t2 := b.AddNSW(t1, x)
    b.Ret(b.Xor(t1, t2))

    /* the intermediate is used elsewhere */
    require.False(t, InstCombine{}.Apply(ctx, m))
    assert.False(t, t2.Erased())
}

func TestInstCombine_ForwardLoads(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.Ptr)
    g := m.NewGlobal("g", ir.I32, i32(1))
    h := m.NewGlobal("h", ir.I32, i32(2))
    ext := m.NewFunction("ext", ir.Void)
    slot := b.Alloca(ir.I32)

    /* loads of g, with various stores and calls in between */
    l1 := b.Load(ir.I32, g)
    l2 := b.Load(ir.I32, g)
    b.Store(i32(5), h)
    b.Store(i32(6), slot)
    l3 := b.Load(ir.I32, g)
    l4 := b.Load(ir.I8, g)
    b.Call(ext)
    l5 := b.Load(ir.I32, g)
    b.Store(i32(7), fn.Param(0))
    l6 := b.Load(ir.I32, g)
    sum := b.Add(b.Add(b.Add(l1, l2), b.Add(l3, l5)), l6)
    b.Ret(b.Add(sum, b.Cast(ir.OpZExt, l4, ir.I32)))

    /* only the loads with nothing clobbering in between are forwarded */
    require.True(t, InstCombine{}.Apply(ctx, m))
    assert.False(t, l1.Erased())
    assert.True(t, l2.Erased())
    assert.True(t, l3.Erased())
    assert.False(t, l4.Erased())
    assert.False(t, l5.Erased())
    assert.False(t, l6.Erased())
}

func TestInstCombine_SelectSameArms(t *testing.T) {
    ctx, buf := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.I1, ir.I32)
    c, x := fn.Param(0), fn.Param(1)
    s1 := b.Select(c, x, x)
    s2 := b.Select(c, i32(7), i32(7))
    s3 := b.Select(c, x, i32(7))
    b.Ret(b.Add(b.Add(s1, s2), s3))

    /* select(c, x, x) => x, select(c, 7, 7) => 7 */
    require.True(t, InstCombine{}.Apply(ctx, m))
    assert.True(t, s1.Erased())
    assert.True(t, s2.Erased())
    assert.False(t, s3.Erased())
    assert.Equal(t, 1, countOps(fn, ir.OpSelect))
    assert.Contains(t, buf.String(), "combined 2 instructions")
    require.NoError(t, ir.Verify(fn))
}

func TestInstCombine_ForwardLoadsSameGlobal(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I32)
    g := m.NewGlobal("g", ir.I32, i32(1))
    l1 := b.Load(ir.I32, g)
    b.Store(i32(5), g)
    l2 := b.Load(ir.I32, g)
    b.Ret(b.Add(l1, l2))

    /* the store to g in between invalidates the first load */
    require.False(t, InstCombine{}.Apply(ctx, m))
    assert.False(t, l1.Erased())
    assert.False(t, l2.Erased())
    assert.Equal(t, 2, countOps(fn, ir.OpLoad))
}
