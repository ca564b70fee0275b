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

// evalBinary computes `x op y` in type ty. Operations that are undefined or
// trap at runtime are not evaluated.
func evalBinary(op ir.Opcode, ty ir.Type, x int64, y int64) (int64, bool) {
    ux := ty.Zext(x)
    uy := ty.Zext(y)

    /* division by zero, and the one overflowing signed division */
    if op.IsDivRem() {
        if y == 0 {
            return 0, false
        }
        if (op == ir.OpSDiv || op == ir.OpSRem) && x == ty.MinInt() && y == -1 {
            return 0, false
        }
    }

    /* shift amounts must be within the width */
    if op.IsShift() && uy >= uint64(ty.Width()) {
        return 0, false
    }

    /* evaluate the operator */
    switch op {
        case ir.OpAdd  : return ty.Sext(x + y), true
        case ir.OpSub  : return ty.Sext(x - y), true
        case ir.OpMul  : return ty.Sext(x * y), true
        case ir.OpSDiv : return ty.Sext(x / y), true
        case ir.OpUDiv : return ty.Sext(int64(ux / uy)), true
        case ir.OpSRem : return ty.Sext(x % y), true
        case ir.OpURem : return ty.Sext(int64(ux % uy)), true
        case ir.OpShl  : return ty.Sext(x << uy), true
        case ir.OpLShr : return ty.Sext(int64(ux >> uy)), true
        case ir.OpAShr : return ty.Sext(x >> uy), true
        case ir.OpAnd  : return ty.Sext(x & y), true
        case ir.OpOr   : return ty.Sext(x | y), true
        case ir.OpXor  : return ty.Sext(x ^ y), true
        default        : return 0, false
    }
}

// evalCast converts an integer constant between integer types.
func evalCast(op ir.Opcode, from ir.Type, to ir.Type, x int64) (int64, bool) {
    if !from.IsInt() || !to.IsInt() {
        return 0, false
    }

    /* integer conversions */
    switch op {
        case ir.OpTrunc : return to.Sext(x), true
        case ir.OpZExt  : return to.Sext(int64(from.Zext(x))), true
        case ir.OpSExt  : return to.Sext(x), true
        default         : return 0, false
    }
}

// foldInstr evaluates ins if all of its operands are constants.
func foldInstr(ins *ir.Instr) (*ir.Const, bool) {
    switch {
        case ins.IsBinary(): {
            x, ok1 := ins.Operand(0).(*ir.Const)
            y, ok2 := ins.Operand(1).(*ir.Const)

            /* both must be constants */
            if !ok1 || !ok2 {
                return nil, false
            }

            /* evaluate the operator */
            if v, ok := evalBinary(ins.Op, ins.Ty, x.V, y.V); ok {
                return ir.ConstInt(ins.Ty, v), true
            } else {
                return nil, false
            }
        }

        case ins.Op == ir.OpICmp: {
            x, ok1 := ins.Operand(0).(*ir.Const)
            y, ok2 := ins.Operand(1).(*ir.Const)

            /* both must be constants */
            if !ok1 || !ok2 {
                return nil, false
            } else {
                return ir.ConstBool(ins.Pred.Eval(x.Ty, x.V, y.V)), true
            }
        }

        case ins.IsCast(): {
            x, ok := ins.Operand(0).(*ir.Const)
            if !ok {
                return nil, false
            }

            /* integer conversions only */
            if v, ok := evalCast(ins.Op, x.Ty, ins.Ty, x.V); ok {
                return ir.ConstInt(ins.Ty, v), true
            } else {
                return nil, false
            }
        }

        default: {
            return nil, false
        }
    }
}
