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

// ConstFold replaces operations on constants with their results.
type ConstFold struct{}

func (self ConstFold) Apply(ctx *Context, m *ir.Module) bool {
    return applyFuncs(ctx, m, "constfold", self)
}

func (self ConstFold) ApplyFunc(ctx *Context, fn *ir.Function) bool {
    var dead []*ir.Instr
    for _, ins := range fn.Instrs() {
        if v, ok := foldInstr(ins); ok {
            ins.ReplaceAllUsesWith(v)
            dead = append(dead, ins)
        }
    }

    /* folded instructions no longer have users */
    for _, ins := range dead {
        ins.Erase()
    }

    /* report the result */
    if len(dead) != 0 {
        count(&FoldedCount, len(dead))
        ctx.logf("constfold", fn, "folded %d instructions", len(dead))
    }

    /* all done */
    return len(dead) != 0
}
