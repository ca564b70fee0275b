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
    `fmt`
)

// Builder creates instructions at an insertion point: either at the end of a
// block, or right before a given instruction.
type Builder struct {
    bb  *Block
    pos *Instr
}

func NewBuilder(bb *Block) *Builder {
    return &Builder { bb: bb }
}

// Before returns a builder that inserts right before pos.
func Before(pos *Instr) *Builder {
    return &Builder { bb: pos.bb, pos: pos }
}

func (self *Builder) Block() *Block {
    return self.bb
}

// SetBlock moves the insertion point to the end of bb.
func (self *Builder) SetBlock(bb *Block) *Builder {
    self.bb, self.pos = bb, nil
    return self
}

// SetBefore moves the insertion point right before pos.
func (self *Builder) SetBefore(pos *Instr) *Builder {
    self.bb, self.pos = pos.bb, pos
    return self
}

// Insert places ins at the insertion point.
func (self *Builder) Insert(ins *Instr) *Instr {
    if self.pos != nil {
        ins.InsertBefore(self.pos)
    } else {
        ins.InsertAtEnd(self.bb)
    }
    return ins
}

func sametype(op fmt.Stringer, x Value, y Value) {
    if x.Type() != y.Type() {
        panic(fmt.Sprintf("ir: %s with mismatched operand types: %s, %s", op, x, y))
    }
}

// Binary creates a binary operator.
func (self *Builder) Binary(op Opcode, x Value, y Value) *Instr {
    if !op.IsBinary() {
        panic("ir: not a binary operator: " + op.String())
    }
    if !x.Type().IsInt() {
        panic("ir: binary operator on non-integer value: " + x.String())
    }
    sametype(op, x, y)
    return self.Insert(newInstr(op, x.Type(), x, y))
}

// BinaryFlags creates a binary operator with nsw / nuw flags.
func (self *Builder) BinaryFlags(op Opcode, x Value, y Value, flags Flags) *Instr {
    ins := self.Binary(op, x, y)
    ins.Flags = flags
    return ins
}

func (self *Builder) Add(x Value, y Value) *Instr  { return self.Binary(OpAdd, x, y) }
func (self *Builder) Sub(x Value, y Value) *Instr  { return self.Binary(OpSub, x, y) }
func (self *Builder) Mul(x Value, y Value) *Instr  { return self.Binary(OpMul, x, y) }
func (self *Builder) SDiv(x Value, y Value) *Instr { return self.Binary(OpSDiv, x, y) }
func (self *Builder) UDiv(x Value, y Value) *Instr { return self.Binary(OpUDiv, x, y) }
func (self *Builder) SRem(x Value, y Value) *Instr { return self.Binary(OpSRem, x, y) }
func (self *Builder) URem(x Value, y Value) *Instr { return self.Binary(OpURem, x, y) }
func (self *Builder) Shl(x Value, y Value) *Instr  { return self.Binary(OpShl, x, y) }
func (self *Builder) LShr(x Value, y Value) *Instr { return self.Binary(OpLShr, x, y) }
func (self *Builder) AShr(x Value, y Value) *Instr { return self.Binary(OpAShr, x, y) }
func (self *Builder) And(x Value, y Value) *Instr  { return self.Binary(OpAnd, x, y) }
func (self *Builder) Or(x Value, y Value) *Instr   { return self.Binary(OpOr, x, y) }
func (self *Builder) Xor(x Value, y Value) *Instr  { return self.Binary(OpXor, x, y) }

// AddNSW creates an add with the no-signed-wrap flag.
func (self *Builder) AddNSW(x Value, y Value) *Instr {
    return self.BinaryFlags(OpAdd, x, y, NSW)
}

func (self *Builder) ICmp(pred Predicate, x Value, y Value) *Instr {
    sametype(OpICmp, x, y)
    ins := newInstr(OpICmp, I1, x, y)
    ins.Pred = pred
    return self.Insert(ins)
}

func (self *Builder) Select(cond Value, x Value, y Value) *Instr {
    if cond.Type() != I1 {
        panic("ir: select condition is not i1: " + cond.String())
    }
    sametype(OpSelect, x, y)
    return self.Insert(newInstr(OpSelect, x.Type(), cond, x, y))
}

// Phi creates an empty phi node, to be filled with AddIncoming.
func (self *Builder) Phi(ty Type) *Instr {
    return self.Insert(newInstr(OpPhi, ty))
}

// Cast creates a conversion of v to type ty.
func (self *Builder) Cast(op Opcode, v Value, ty Type) *Instr {
    if !op.IsCast() {
        panic("ir: not a cast operator: " + op.String())
    } else {
        return self.Insert(newInstr(op, ty, v))
    }
}

func (self *Builder) Alloca(elem Type) *Instr {
    ins := newInstr(OpAlloca, Ptr)
    ins.Elem = elem
    return self.Insert(ins)
}

func (self *Builder) Load(ty Type, ptr Value) *Instr {
    if !ptr.Type().IsPtr() {
        panic("ir: load from non-pointer value: " + ptr.String())
    } else {
        return self.Insert(newInstr(OpLoad, ty, ptr))
    }
}

func (self *Builder) Store(v Value, ptr Value) *Instr {
    if !ptr.Type().IsPtr() {
        panic("ir: store to non-pointer value: " + ptr.String())
    } else {
        return self.Insert(newInstr(OpStore, Void, v, ptr))
    }
}

// GEP computes the address of an element of type elem.
func (self *Builder) GEP(elem Type, base Value, idx ...Value) *Instr {
    if !base.Type().IsPtr() {
        panic("ir: address computation on non-pointer value: " + base.String())
    }
    ins := newInstr(OpGEP, Ptr, append([]Value { base }, idx...)...)
    ins.Elem = elem
    return self.Insert(ins)
}

// Call creates a direct call to fn.
func (self *Builder) Call(fn *Function, args ...Value) *Instr {
    if len(args) != len(fn.params) {
        panic(fmt.Sprintf("ir: calling @%s with %d arguments, expected %d", fn.Name, len(args), len(fn.params)))
    }
    for i, v := range args {
        if v.Type() != fn.params[i].Ty {
            panic(fmt.Sprintf("ir: argument %d of @%s is %s, expected %s", i, fn.Name, v.Type(), fn.params[i].Ty))
        }
    }
    return self.Insert(newInstr(OpCall, fn.Ret, append([]Value { fn }, args...)...))
}

// CallIndirect creates a call through a function pointer.
func (self *Builder) CallIndirect(ret Type, target Value, args ...Value) *Instr {
    if !target.Type().IsPtr() {
        panic("ir: call through non-pointer value: " + target.String())
    } else {
        return self.Insert(newInstr(OpCall, ret, append([]Value { target }, args...)...))
    }
}

func (self *Builder) Fence() *Instr {
    return self.Insert(newInstr(OpFence, Void))
}

// AtomicRMW creates an atomic add of v to *ptr, yielding the old value.
func (self *Builder) AtomicRMW(ptr Value, v Value) *Instr {
    ins := newInstr(OpAtomicRMW, v.Type(), ptr, v)
    ins.Flags = Atomic
    return self.Insert(ins)
}

func (self *Builder) Br(dst *Block) *Instr {
    ins := newInstr(OpBr, Void)
    ins.blocks = []*Block { dst }
    return self.Insert(ins)
}

func (self *Builder) CondBr(cond Value, t *Block, f *Block) *Instr {
    if cond.Type() != I1 {
        panic("ir: branch condition is not i1: " + cond.String())
    }
    ins := newInstr(OpCondBr, Void, cond)
    ins.blocks = []*Block { t, f }
    return self.Insert(ins)
}

// Ret creates a return; a nil value returns void.
func (self *Builder) Ret(v Value) *Instr {
    if v == nil {
        return self.Insert(newInstr(OpRet, Void))
    } else {
        return self.Insert(newInstr(OpRet, Void, v))
    }
}

func (self *Builder) Unreachable() *Instr {
    return self.Insert(newInstr(OpUnreachable, Void))
}
