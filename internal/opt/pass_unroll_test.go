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

func TestLoopUnroll_Induction(t *testing.T) {
    _, fn := counterLoop(t, 0, 1, ir.SGE, 5)
    lps := FindLoops(BuildDominatorTree(fn))
    require.Len(t, lps, 1)

    /* exits when next >= 5, so it keeps going while next < 5 */
    iv, ok := LoopUnroll{}.induction(lps[0])
    require.True(t, ok)
    assert.Equal(t, ir.SLT, iv.Pred)
    assert.True(t, iv.OnNext)
    assert.Equal(t, int64(1), iv.Start())
    assert.Equal(t, fn.Blocks()[2], iv.Exit)

    /* five trips */
    trips, ok := iv.TripCount()
    require.True(t, ok)
    assert.Equal(t, int64(5), trips)
}

func TestLoopUnroll_Full(t *testing.T) {
    ctx, buf := newTestContext()
    m, fn := counterLoop(t, 0, 1, ir.SGE, 5)
    loop, exit := fn.Blocks()[1], fn.Blocks()[2]

    /* unrolled in place */
    require.True(t, LoopUnroll{}.Apply(ctx, m))
    assert.Empty(t, loop.Phis())
    assert.Equal(t, []*ir.Block { exit }, loop.Succs())
    assert.Equal(t, []*ir.Block { loop }, exit.Preds())
    assert.Equal(t, 5, countOps(fn, ir.OpStore))
    assert.Equal(t, 0, countOps(fn, ir.OpICmp))
    assert.Contains(t, buf.String(), "unroll: @f: unrolled loop 5 times")

    /* the stores see the counter values in order */
    var vals []ir.Value
    for _, ins := range loop.Instrs() {
        if ins.Op == ir.OpStore {
            vals = append(vals, ins.StoredValue())
        }
    }
    assert.Equal(t, []ir.Value { i32(0), i32(1), i32(2), i32(3), i32(4) }, vals)

    /* the exit sees the last sum: 0 + 1 + 2 + 3 + 4 */
    require.True(t, ConstFold{}.Apply(ctx, m))
    assert.Equal(t, ir.Value(i32(10)), exit.Term().Operand(0))
    require.False(t, LoopUnroll{}.Apply(ctx, m))
}

func TestLoopUnroll_CompareOnPhi(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.I32)
    gv := m.NewGlobal("g", ir.I32, nil)
    entry := b.Block()
    loop := fn.NewBlock("loop")
    exit := fn.NewBlock("exit")
    b.Br(loop)

    /* for (i = 10; 4 < i; i -= 2) */
    b.SetBlock(loop)
    iv := b.Phi(ir.I32)
    b.Store(iv, gv)
    next := b.Sub(iv, i32(2))
    cmp := b.ICmp(ir.SLT, i32(4), iv)
    b.CondBr(cmp, loop, exit)
    iv.AddIncoming(i32(10), entry)
    iv.AddIncoming(next, loop)
    b.SetBlock(exit)
    b.Ret(iv)

    /* 10, 8, 6, 4 */
    require.True(t, LoopUnroll{}.Apply(ctx, m))
    assert.Equal(t, 4, countOps(fn, ir.OpStore))
    assert.Equal(t, ir.Value(i32(4)), exit.Term().Operand(0))
}

func TestLoopUnroll_TooManyTrips(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn := counterLoop(t, 0, 1, ir.SGE, 100)
    require.False(t, LoopUnroll{}.Apply(ctx, m))
    assert.Equal(t, 2, countOps(fn, ir.OpPhi))
}

func TestLoopUnroll_SizeThreshold(t *testing.T) {
    ctx, _ := newTestContext()
    ctx.UnrollSizeThreshold = 16
    m, _ := counterLoop(t, 0, 1, ir.SGE, 5)
    require.False(t, LoopUnroll{}.Apply(ctx, m))
}

func TestLoopUnroll_UnknownBound(t *testing.T) {
    ctx, _ := newTestContext()
    m, fn, b := newTestFunc(ir.Void, ir.I32)
    entry := b.Block()
    loop := fn.NewBlock("loop")
    exit := fn.NewBlock("exit")
    b.Br(loop)

    /* compared against a parameter */
    b.SetBlock(loop)
    iv := b.Phi(ir.I32)
    next := b.Add(iv, i32(1))
    b.CondBr(b.ICmp(ir.SLT, next, fn.Param(0)), loop, exit)
    iv.AddIncoming(i32(0), entry)
    iv.AddIncoming(next, loop)
    ir.NewBuilder(exit).Ret(nil)
    require.False(t, LoopUnroll{}.Apply(ctx, m))
}

func TestLoopUnroll_PartialNoChange(t *testing.T) {
    ctx, buf := newTestContext()
    m, fn := counterLoop(t, 0, 1, ir.SGE, 16)
    before := m.String()
    lps := FindLoops(BuildDominatorTree(fn))
    require.Len(t, lps, 1)

    /* 16 trips is over the cap, but 8 divides it and fits the budget */
    size := LoopUnroll{}.size(lps[0].Header)
    require.Equal(t, 4, size)
    require.False(t, ctx.CanUnroll(16, size))
    require.Equal(t, 8, LoopUnroll{}.factor(ctx, 16, size))
    require.False(t, LoopUnroll{}.partial(lps[0], 8))

    /* the loop is left as is */
    require.False(t, LoopUnroll{}.Apply(ctx, m))
    assert.Equal(t, before, m.String())
    assert.Empty(t, buf.String())
}
