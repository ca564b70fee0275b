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
    `math/bits`

    `github.com/cloudwego/ssaopt/ir`
)

// StrengthReduce replaces multiplications and unsigned divisions by powers of
// two with shifts and masks.
type StrengthReduce struct{}

func (self StrengthReduce) Apply(ctx *Context, m *ir.Module) bool {
    return applyFuncs(ctx, m, "strength", self)
}

func log2(cc *ir.Const) (int64, bool) {
    if v := cc.Uint(); v == 0 || v & (v - 1) != 0 {
        return 0, false
    } else {
        return int64(bits.TrailingZeros64(v)), true
    }
}

func (self StrengthReduce) reduce(ins *ir.Instr) ir.Value {
    x := ins.Operand(0)
    cc, ok := ins.Operand(1).(*ir.Const)

    /* multiplication is commutative */
    if !ok && ins.Op == ir.OpMul {
        x = ins.Operand(1)
        cc, ok = ins.Operand(0).(*ir.Const)
    }

    /* must be a power of two */
    if !ok {
        return nil
    }
    k, ok := log2(cc)
    if !ok {
        return nil
    }

    /* rewrite by operator */
    switch ins.Op {
        case ir.OpMul  : if k != 0 { return ir.Before(ins).Shl(x, ir.ConstInt(ins.Ty, k)) }
        case ir.OpUDiv : return ir.Before(ins).LShr(x, ir.ConstInt(ins.Ty, k))
        case ir.OpURem : return ir.Before(ins).And(x, ir.ConstInt(ins.Ty, cc.V - 1))
    }

    /* cannot reduce */
    return nil
}

func (self StrengthReduce) ApplyFunc(ctx *Context, fn *ir.Function) bool {
    n := 0
    for _, ins := range fn.Instrs() {
        if ins.IsBinary() {
            if v := self.reduce(ins); v != nil {
                n++
                ins.ReplaceAllUsesWith(v)
                ins.Erase()
            }
        }
    }

    /* report the result */
    if n != 0 {
        count(&CombinedCount, n)
        ctx.logf("strength", fn, "reduced %d operations", n)
    }

    /* all done */
    return n != 0
}
