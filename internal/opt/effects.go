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
    `github.com/oleiade/lane`
    `github.com/cloudwego/ssaopt/ir`
)

// baseObject strips address computations and pointer casts.
func baseObject(v ir.Value) ir.Value {
    for {
        if p, ok := v.(*ir.Instr); !ok || (p.Op != ir.OpGEP && p.Op != ir.OpBitCast) {
            return v
        } else {
            v = p.Operand(0)
        }
    }
}

// asAlloca returns v as a stack allocation, if it is one.
func asAlloca(v ir.Value) (*ir.Instr, bool) {
    if p, ok := v.(*ir.Instr); ok && p.Op == ir.OpAlloca {
        return p, true
    } else {
        return nil, false
    }
}

// isGloballyVisible reports whether the memory at ptr may be observed outside
// the function: globals, parameters, call results, or anything derived from
// them. Only stack allocations are known to be private.
func isGloballyVisible(ptr ir.Value) bool {
    _, ok := asAlloca(baseObject(ptr))
    return !ok
}

// mayEscape reports whether the address v may leak out of the function. The
// address escapes when it is passed to a call, returned, stored as a value,
// merged through phi or select, or converted to an integer. Addresses derived
// through getelementptr or bitcast are followed.
func mayEscape(v ir.Value) bool {
    st := lane.NewStack()
    seen := map[ir.Value]bool { v: true }

    /* follow the derived addresses */
    for st.Push(v); !st.Empty(); {
        p := st.Pop().(ir.Value)
        for _, u := range ir.UsesOf(p) {
            switch u.User.Op {
                default: {
                    return true
                }

                /* comparing an address does not leak it */
                case ir.OpICmp: {
                    continue
                }

                /* reading from the address */
                case ir.OpLoad: {
                    continue
                }

                /* writing to the address is fine, writing the address is not */
                case ir.OpStore, ir.OpAtomicRMW: {
                    if u.User.Pointer() != p || u.Index != indexOfPointer(u.User) {
                        return true
                    }
                }

                /* derived addresses */
                case ir.OpGEP, ir.OpBitCast: {
                    if u.Index != 0 {
                        return true
                    }
                    if !seen[u.User] {
                        seen[u.User] = true
                        st.Push(u.User)
                    }
                }
            }
        }
    }

    /* all uses are harmless */
    return false
}

func indexOfPointer(ins *ir.Instr) int {
    if ins.Op == ir.OpStore {
        return 1
    } else {
        return 0
    }
}
