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
    `sync/atomic`

    `github.com/cloudwego/ssaopt/ir`
)

// ConstProp replaces loads from storage that provably always holds one
// constant: initialized globals that are never written, and stack slots that
// are written exactly once with a constant.
//
// Globals are assumed to be private to the module unless their address
// escapes, in which case they are treated as written.
type ConstProp struct{}

func (self ConstProp) Apply(ctx *Context, m *ir.Module) bool {
    ret := false
    atomic.AddUint64(&PassCount, 1)

    /* find all the constant storage */
    consts := self.identify(m, self.writes(m))
    if len(consts) == 0 {
        return false
    }

    /* replace the loads in every function */
    for _, fn := range m.Functions() {
        if !fn.IsDeclaration() {
            if n := self.replace(fn, consts); n != 0 {
                ret = true
                count(&FoldedCount, n)
                ctx.logf("constprop", fn, "propagated %d constant loads", n)
            }
            ctx.verify("constprop", fn)
        }
    }

    /* all done */
    return ret
}

// writes collects every storage object that is the target of a store.
func (self ConstProp) writes(m *ir.Module) map[ir.Value]bool {
    ret := make(map[ir.Value]bool)
    for _, fn := range m.Functions() {
        for _, ins := range fn.Instrs() {
            if ins.Op == ir.OpStore || ins.Op == ir.OpAtomicRMW {
                ret[baseObject(ins.Pointer())] = true
            }
        }
    }
    return ret
}

func (self ConstProp) identify(m *ir.Module, written map[ir.Value]bool) map[ir.Value]*ir.Const {
    ret := make(map[ir.Value]*ir.Const)
    for _, gv := range m.Globals() {
        if gv.Init != nil && !written[gv] && !mayEscape(gv) {
            ret[gv] = gv.Init
        }
    }

    /* stack slots with a single constant store */
    for _, fn := range m.Functions() {
        for _, ins := range fn.Instrs() {
            if ins.Op == ir.OpAlloca {
                if cc, ok := self.storedOnce(ins); ok {
                    ret[ins] = cc
                }
            }
        }
    }

    /* all done */
    return ret
}

func (self ConstProp) storedOnce(a *ir.Instr) (*ir.Const, bool) {
    var st *ir.Instr
    for _, u := range a.Uses() {
        switch {
            default: {
                return nil, false
            }

            /* reads of any kind */
            case u.User.Op == ir.OpLoad: {
                continue
            }

            /* only one plain store is allowed */
            case u.User.Op == ir.OpStore && u.Index == 1 && st == nil: {
                st = u.User
            }
        }
    }

    /* the stored value must be a constant */
    if st == nil || st.IsVolatile() || st.IsAtomic() {
        return nil, false
    } else {
        return ir.AsConst(st.StoredValue())
    }
}

// constLoad returns the constant read by v, if v is such a load.
func (self ConstProp) constLoad(v ir.Value, consts map[ir.Value]*ir.Const) (*ir.Const, *ir.Instr) {
    ld, ok := v.(*ir.Instr)
    if !ok || ld.Op != ir.OpLoad || ld.IsVolatile() || ld.IsAtomic() {
        return nil, nil
    }

    /* must be a load from a constant storage */
    cc, ok := consts[ld.Pointer()]
    if !ok {
        return nil, nil
    }

    /* adapt to the loaded type */
    if cc = convertConst(cc, ld.Ty); cc == nil {
        return nil, nil
    } else {
        return cc, ld
    }
}

func (self ConstProp) replace(fn *ir.Function, consts map[ir.Value]*ir.Const) int {
    n := 0
    loads := make(map[*ir.Instr]bool)

    /* replace the loads, or substitute the operands */
    for _, ins := range fn.Instrs() {
        if ins.Erased() {
            continue
        }

        /* the load itself */
        if cc, ld := self.constLoad(ins, consts); ld != nil {
            n++
            loads[ld] = true
            ld.ReplaceAllUsesWith(cc)
            continue
        }

        /* only value operands of arithmetic, compares and calls */
        if !ins.IsBinary() && ins.Op != ir.OpICmp && ins.Op != ir.OpCall {
            continue
        }

        /* substitute the operands */
        for i := 0; i < ins.NumOperands(); i++ {
            if ins.Op == ir.OpCall && !ins.IsCallArg(i) {
                continue
            }
            if cc, ld := self.constLoad(ins.Operand(i), consts); ld != nil {
                n++
                loads[ld] = true
                ins.SetOperand(i, cc)
            }
        }
    }

    /* remove the dead loads */
    for ld := range loads {
        if !ld.HasUses() {
            ld.Erase()
        }
    }

    /* all done */
    return n
}

// convertConst reinterprets cc as a value of type ty, or returns nil.
func convertConst(cc *ir.Const, ty ir.Type) *ir.Const {
    switch {
        case cc.Ty == ty                 : return cc
        case cc.Ty.IsInt() && ty.IsInt() : return ir.ConstInt(ty, int64(cc.Uint()))
        case ty.IsPtr() && cc.IsZero()   : return ir.ConstNull()
        case cc.Ty.IsPtr() && ty.IsInt() : return ir.ConstInt(ty, 0)
        default                          : return nil
    }
}
