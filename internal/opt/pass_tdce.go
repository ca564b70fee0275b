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

// TDCE removes instructions that have no uses and no side effects.
type TDCE struct{}

func (TDCE) isDead(ins *ir.Instr) bool {
    return !ins.HasUses() && !ins.HasSideEffects()
}

func (self TDCE) Apply(ctx *Context, m *ir.Module) bool {
    return applyFuncs(ctx, m, "dce", self)
}

func (self TDCE) ApplyFunc(ctx *Context, fn *ir.Function) bool {
    var dead []*ir.Instr
    for _, ins := range fn.Instrs() {
        if self.isDead(ins) {
            dead = append(dead, ins)
        }
    }

    /* later instructions may use earlier ones */
    for i := len(dead) - 1; i >= 0; i-- {
        dead[i].Erase()
    }

    /* report the result */
    if len(dead) != 0 {
        count(&RemovedCount, len(dead))
        ctx.logf("dce", fn, "removed %d dead instructions", len(dead))
    }

    /* all done */
    return len(dead) != 0
}
