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

package ir

import (
    `strings`
)

type Opcode uint8

const (
    OpInvalid Opcode = iota

    /* binary operators */
    OpAdd
    OpSub
    OpMul
    OpSDiv
    OpUDiv
    OpSRem
    OpURem
    OpShl
    OpLShr
    OpAShr
    OpAnd
    OpOr
    OpXor

    /* other value operations */
    OpICmp
    OpSelect
    OpPhi
    OpGEP

    /* casts */
    OpTrunc
    OpZExt
    OpSExt
    OpBitCast
    OpPtrToInt
    OpIntToPtr

    /* memory and calls */
    OpAlloca
    OpLoad
    OpStore
    OpCall
    OpFence
    OpAtomicRMW

    /* terminators */
    OpBr
    OpCondBr
    OpRet
    OpUnreachable
)

func (self Opcode) IsBinary() bool {
    return self >= OpAdd && self <= OpXor
}

func (self Opcode) IsCast() bool {
    return self >= OpTrunc && self <= OpIntToPtr
}

func (self Opcode) IsTerminator() bool {
    return self >= OpBr && self <= OpUnreachable
}

func (self Opcode) IsShift() bool {
    return self == OpShl || self == OpLShr || self == OpAShr
}

// IsDivRem reports whether the operator may trap on its divisor.
func (self Opcode) IsDivRem() bool {
    return self >= OpSDiv && self <= OpURem
}

func (self Opcode) IsCommutative() bool {
    switch self {
        case OpAdd, OpMul, OpAnd, OpOr, OpXor : return true
        default                               : return false
    }
}

func (self Opcode) IsAssociative() bool {
    return self.IsCommutative()
}

func (self Opcode) String() string {
    switch self {
        case OpAdd         : return "add"
        case OpSub         : return "sub"
        case OpMul         : return "mul"
        case OpSDiv        : return "sdiv"
        case OpUDiv        : return "udiv"
        case OpSRem        : return "srem"
        case OpURem        : return "urem"
        case OpShl         : return "shl"
        case OpLShr        : return "lshr"
        case OpAShr        : return "ashr"
        case OpAnd         : return "and"
        case OpOr          : return "or"
        case OpXor         : return "xor"
        case OpICmp        : return "icmp"
        case OpSelect      : return "select"
        case OpPhi         : return "phi"
        case OpGEP         : return "getelementptr"
        case OpTrunc       : return "trunc"
        case OpZExt        : return "zext"
        case OpSExt        : return "sext"
        case OpBitCast     : return "bitcast"
        case OpPtrToInt    : return "ptrtoint"
        case OpIntToPtr    : return "inttoptr"
        case OpAlloca      : return "alloca"
        case OpLoad        : return "load"
        case OpStore       : return "store"
        case OpCall        : return "call"
        case OpFence       : return "fence"
        case OpAtomicRMW   : return "atomicrmw"
        case OpBr          : return "br"
        case OpCondBr      : return "br"
        case OpRet         : return "ret"
        case OpUnreachable : return "unreachable"
        default            : return "<invalid>"
    }
}

// Predicate is the condition of an icmp instruction.
type Predicate uint8

const (
    EQ Predicate = iota
    NE
    SLT
    SLE
    SGT
    SGE
    ULT
    ULE
    UGT
    UGE
)

func (self Predicate) IsSigned() bool   { return self >= SLT && self <= SGE }
func (self Predicate) IsUnsigned() bool { return self >= ULT && self <= UGE }
func (self Predicate) IsEquality() bool { return self == EQ || self == NE }

// Swapped returns the predicate that holds for (y, x) whenever self holds for (x, y).
func (self Predicate) Swapped() Predicate {
    switch self {
        case SLT : return SGT
        case SLE : return SGE
        case SGT : return SLT
        case SGE : return SLE
        case ULT : return UGT
        case ULE : return UGE
        case UGT : return ULT
        case UGE : return ULE
        default  : return self
    }
}

// Inverse returns the logical negation of the predicate.
func (self Predicate) Inverse() Predicate {
    switch self {
        case EQ  : return NE
        case NE  : return EQ
        case SLT : return SGE
        case SLE : return SGT
        case SGT : return SLE
        case SGE : return SLT
        case ULT : return UGE
        case ULE : return UGT
        case UGT : return ULE
        case UGE : return ULT
        default  : panic("unreachable")
    }
}

// Eval evaluates the predicate on two canonical (sign-extended) values of type ty.
func (self Predicate) Eval(ty Type, x int64, y int64) bool {
    ux, uy := ty.Zext(x), ty.Zext(y)
    switch self {
        case EQ  : return x == y
        case NE  : return x != y
        case SLT : return x < y
        case SLE : return x <= y
        case SGT : return x > y
        case SGE : return x >= y
        case ULT : return ux < uy
        case ULE : return ux <= uy
        case UGT : return ux > uy
        case UGE : return ux >= uy
        default  : panic("unreachable")
    }
}

func (self Predicate) String() string {
    switch self {
        case EQ  : return "eq"
        case NE  : return "ne"
        case SLT : return "slt"
        case SLE : return "sle"
        case SGT : return "sgt"
        case SGE : return "sge"
        case ULT : return "ult"
        case ULE : return "ule"
        case UGT : return "ugt"
        case UGE : return "uge"
        default  : return "<invalid>"
    }
}

// Flags are instruction attributes.
type Flags uint8

const (
    NSW Flags = 1 << iota
    NUW
    Volatile
    Atomic
)

func (self Flags) Has(f Flags) bool {
    return self & f == f
}

func (self Flags) String() string {
    var sb []string
    if self.Has(NUW)      { sb = append(sb, "nuw") }
    if self.Has(NSW)      { sb = append(sb, "nsw") }
    if self.Has(Volatile) { sb = append(sb, "volatile") }
    if self.Has(Atomic)   { sb = append(sb, "atomic") }
    return strings.Join(sb, " ")
}
