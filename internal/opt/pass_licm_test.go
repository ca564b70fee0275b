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

func TestLICM_Hoist(t *testing.T) {
    ctx, buf := newTestContext()
    m, fn, b := newTestFunc(ir.I32, ir.I32, ir.I32)
    x, y := fn.Param(0), fn.Param(1)
    entry := b.Block()
    loop := fn.NewBlock("loop")
    exit := fn.NewBlock("exit")
    b.Br(loop)

    /* loop body */
    b.SetBlock(loop)
    iv := b.Phi(ir.I32)
    k1 := b.Mul(x, i32(3))
    k2 := b.Add(k1, i32(1))
    d1 := b.SDiv(x, y)
    d2 := b.UDiv(x, i32(4))
    d3 := b.SRem(x, i32(-1))
    s := b.Add(iv, k2)
    next := b.Add(s, d1)
    cmp := b.ICmp(ir.SLT, next, i32(100))
    b.CondBr(cmp, loop, exit)
    iv.AddIncoming(i32(0), entry)
    iv.AddIncoming(next, loop)

    /* exit */
    b.SetBlock(exit)
    b.Ret(b.Add(d2, d3))
    require.NoError(t, ir.Verify(fn))

    /* the safe invariants move to the preheader */
    require.True(t, LICM{}.Apply(ctx, m))
    assert.Equal(t, entry, k1.Parent())
    assert.Equal(t, entry, k2.Parent())
    assert.Equal(t, entry, d2.Parent())
    assert.Equal(t, loop, d1.Parent())
    assert.Equal(t, loop, d3.Parent())
    assert.Equal(t, loop, s.Parent())
    assert.Equal(t, []*ir.Instr { k1, k2, d2, entry.Term() }, entry.Instrs())
    assert.Contains(t, buf.String(), "licm: @f: hoisted 3 instructions from loop to entry")

    /* nothing more to hoist */
    require.False(t, LICM{}.Apply(ctx, m))
}

func TestLICM_TwoBlockLoop(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.Void, ir.I32, ir.I1)
    x := fn.Param(0)
    entry := b.Block()
    head := fn.NewBlock("head")
    latch := fn.NewBlock("latch")
    exit := fn.NewBlock("exit")
    gv := m.NewGlobal("g", ir.I32, nil)
    b.Br(head)

    /* header with an invariant, a trivial latch */
    b.SetBlock(head)
    k := b.Xor(x, i32(-1))
    b.Store(k, gv)
    b.CondBr(fn.Param(1), latch, exit)
    ir.NewBuilder(latch).Br(head)
    ir.NewBuilder(exit).Ret(nil)

    /* the loop is recognized with its latch */
    dt := BuildDominatorTree(fn)
    lps := FindLoops(dt)
    require.Len(t, lps, 1)
    assert.Equal(t, latch, lps[0].Latch)
    assert.Equal(t, []*ir.Block { exit }, lps[0].Exits)

    /* the store stays */
    require.True(t, LICM{}.Apply(ctx, m))
    assert.Equal(t, entry, k.Parent())
    assert.Equal(t, 1, countOps(fn, ir.OpStore))
    assert.Equal(t, head, fn.Blocks()[1])
}

func TestLICM_NoPreheader(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.Void, ir.I32, ir.I1)
    other := fn.NewBlock("other")
    loop := fn.NewBlock("loop")
    exit := fn.NewBlock("exit")
    b.CondBr(fn.Param(1), other, loop)
    ir.NewBuilder(other).Br(loop)

    /* two entries into the loop */
    b.SetBlock(loop)
    k := b.Mul(fn.Param(0), i32(2))
    b.Store(k, m.NewGlobal("g", ir.I32, nil))
    b.CondBr(fn.Param(1), loop, exit)
    ir.NewBuilder(exit).Ret(nil)
    require.False(t, LICM{}.Apply(ctx, m))
    assert.Equal(t, loop, k.Parent())
}
