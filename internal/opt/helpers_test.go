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
    `bytes`
    `testing`

    `github.com/stretchr/testify/require`
    `github.com/cloudwego/ssaopt/internal/opts`
    `github.com/cloudwego/ssaopt/ir`
)

func newTestContext() (*Context, *bytes.Buffer) {
    buf := new(bytes.Buffer)
    opt := opts.GetDefaultOptions()
    opt.Report = buf
    return NewContext(opt), buf
}

func newTestFunc(ret ir.Type, params ...ir.Type) (*ir.Module, *ir.Function, *ir.Builder) {
    m := ir.NewModule("test")
    fn := m.NewFunction("f", ret, params...)
    return m, fn, ir.NewBuilder(fn.NewBlock("entry"))
}

func countOps(fn *ir.Function, op ir.Opcode) int {
    n := 0
    for _, ins := range fn.Instrs() {
        if ins.Op == op {
            n++
        }
    }
    return n
}

func i32(v int64) *ir.Const {
    return ir.ConstInt(ir.I32, v)
}

// counterLoop builds
//
//     entry:  br loop
//     loop:   i = phi [init, entry], [next, loop]
//             acc = phi [0, entry], [sum, loop]
//             sum = add acc, i
//             store i, @g
//             next = add i, step
//             c = icmp pred next, bound
//             br c, exit, loop
//     exit:   ret sum
func counterLoop(t *testing.T, init int64, step int64, pred ir.Predicate, bound int64) (*ir.Module, *ir.Function) {
    m, fn, b := newTestFunc(ir.I32)
    gv := m.NewGlobal("g", ir.I32, i32(0))
    entry := b.Block()
    loop := fn.NewBlock("loop")
    exit := fn.NewBlock("exit")
    b.Br(loop)

    /* loop body */
    b.SetBlock(loop)
    iv := b.Phi(ir.I32)
    acc := b.Phi(ir.I32)
    sum := b.Add(acc, iv)
    b.Store(iv, gv)
    next := b.Add(iv, i32(step))
    cmp := b.ICmp(pred, next, i32(bound))
    b.CondBr(cmp, exit, loop)

    /* incoming values */
    iv.AddIncoming(i32(init), entry)
    iv.AddIncoming(next, loop)
    acc.AddIncoming(i32(0), entry)
    acc.AddIncoming(sum, loop)

    /* exit */
    b.SetBlock(exit)
    b.Ret(sum)
    require.NoError(t, ir.Verify(fn))
    return m, fn
}
