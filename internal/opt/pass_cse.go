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
    `fmt`
    `sort`
    `strings`

    `github.com/cloudwego/ssaopt/ir`
)

func vid(v ir.Value) string {
    switch p := v.(type) {
        case *ir.Instr    : return fmt.Sprintf("%%%d", p.Id())
        case *ir.Argument : return fmt.Sprintf("#%d", p.Index)
        case *ir.Const    : return fmt.Sprintf("$%s:%d", p.Ty, p.V)
        case *ir.Global   : return "@" + p.Name
        case *ir.Function : return "@" + p.Name + "()"
        default           : panic("cse: invalid value: " + v.String())
    }
}

// CSE eliminates common sub-expressions within each basic block, using
// structural keys as value numbers.
type CSE struct{}

func (CSE) key(ins *ir.Instr) (string, bool) {
    switch {
        default: {
            return "", false
        }

        /* binary operators, commutative ones are normalized */
        case ins.IsBinary(): {
            x, y := vid(ins.Operand(0)), vid(ins.Operand(1))
            if ins.Op.IsCommutative() && x > y {
                x, y = y, x
            }
            return fmt.Sprintf("(%s %s %d %s %s)", ins.Ty, ins.Op, ins.Flags, x, y), true
        }

        /* comparisons */
        case ins.Op == ir.OpICmp: {
            return fmt.Sprintf("(icmp %s %s %s)", ins.Pred, vid(ins.Operand(0)), vid(ins.Operand(1))), true
        }

        /* casts */
        case ins.IsCast(): {
            return fmt.Sprintf("(%s %s to %s)", ins.Op, vid(ins.Operand(0)), ins.Ty), true
        }

        /* phi nodes are keyed by their (sorted) incoming pairs */
        case ins.Op == ir.OpPhi: {
            var sb []string
            for i := 0; i < ins.NumIncoming(); i++ {
                v, bb := ins.Incoming(i)
                sb = append(sb, fmt.Sprintf("[%s block:%d]", vid(v), bb.Id))
            }
            sort.Strings(sb)
            return fmt.Sprintf("(phi %s %s)", ins.Ty, strings.Join(sb, " ")), true
        }
    }
}

func (self CSE) Apply(ctx *Context, m *ir.Module) bool {
    return applyFuncs(ctx, m, "cse", self)
}

func (self CSE) ApplyFunc(ctx *Context, fn *ir.Function) bool {
    nl := 0
    nr := 0

    /* value numbering is local to each block */
    for _, bb := range fn.Blocks() {
        var dead []*ir.Instr
        vals := make(map[string]*ir.Instr)

        /* scan in program order */
        for _, ins := range bb.Instrs() {
            if ins.Op == ir.OpLoad {
                if !ins.HasUses() && !ins.HasSideEffects() {
                    nl++
                    dead = append(dead, ins)
                }
                continue
            }

            /* compute the value number */
            key, ok := self.key(ins)
            if !ok {
                continue
            }

            /* first occurance is the leader */
            if _, ok := vals[key]; !ok {
                vals[key] = ins
                continue
            }

            /* redirect to the leader before marking */
            nr++
            ins.ReplaceAllUsesWith(vals[key])
            dead = append(dead, ins)
        }

        /* delete in reverse order */
        for i := len(dead) - 1; i >= 0; i-- {
            dead[i].Erase()
        }
    }

    /* nothing changed */
    if nl + nr == 0 {
        return false
    }

    /* report the result */
    count(&RemovedCount, nl + nr)
    ctx.logf("cse", fn, "eliminated %d common sub-expressions and %d unused loads", nr, nl)
    return true
}
