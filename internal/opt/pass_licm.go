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
    `github.com/cloudwego/ssaopt/ir`
)

// LICM hoists loop-invariant arithmetic out of loop headers into the
// preheaders.
type LICM struct{}

func (self LICM) Apply(ctx *Context, m *ir.Module) bool {
    return applyFuncs(ctx, m, "licm", self)
}

func (self LICM) ApplyFunc(ctx *Context, fn *ir.Function) bool {
    n := 0
    dt := BuildDominatorTree(fn)

    /* process every simple loop */
    for _, lp := range FindLoops(dt) {
        if nh := self.hoist(lp); nh != 0 {
            n += nh
            ctx.logf("licm", fn, "hoisted %d instructions from %s to %s", nh, lp.Header.Name, lp.Preheader.Name)
        }
    }

    /* all done */
    count(&HoistedCount, n)
    return n != 0
}

// isSafe reports whether ins may execute even if the loop body would not.
func (self LICM) isSafe(ins *ir.Instr) bool {
    if !ins.IsBinary() && !ins.IsCast() {
        return false
    }

    /* only division by a known non-trapping constant */
    if ins.Op.IsDivRem() {
        cc, ok := ins.Operand(1).(*ir.Const)
        if !ok || cc.IsZero() {
            return false
        }
        if (ins.Op == ir.OpSDiv || ins.Op == ir.OpSRem) && cc.V == -1 {
            return false
        }
    }

    /* all other arithmetic is fine */
    return true
}

func (self LICM) isInvariant(lp *Loop, ins *ir.Instr, inv map[*ir.Instr]bool) bool {
    for _, v := range ins.Operands() {
        if p, ok := v.(*ir.Instr); ok && lp.Contains(p.Parent()) && !inv[p] {
            return false
        }
    }
    return true
}

func (self LICM) hoist(lp *Loop) int {
    var mv []*ir.Instr
    inv := make(map[*ir.Instr]bool)

    /* find the invariants in program order */
    for _, ins := range lp.Header.Instrs() {
        if self.isSafe(ins) && self.isInvariant(lp, ins, inv) {
            inv[ins] = true
            mv = append(mv, ins)
        }
    }

    /* move them before the preheader's terminator */
    for _, ins := range mv {
        ins.MoveBefore(lp.Preheader.Term())
    }

    /* all done */
    return len(mv)
}
