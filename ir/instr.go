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
    `strconv`
    `strings`
)

// Instr is a single instruction. The opcode selects which of the payload
// fields are meaningful:
//
//   - Pred    icmp
//   - Flags   binary operators (nsw, nuw), load / store / atomicrmw (volatile, atomic)
//   - Elem    alloca (allocated type), gep (element type)
//   - blocks  br / condbr targets, phi incoming blocks (parallel to the operands)
//
// A call keeps its callee in operand 0 and the arguments after it.
type Instr struct {
    Users
    Op     Opcode
    Ty     Type
    Pred   Predicate
    Flags  Flags
    Elem   Type
    id     int
    ops    []Value
    blocks []*Block
    bb     *Block
    erased bool
}

func newInstr(op Opcode, ty Type, ops ...Value) *Instr {
    ret := &Instr {
        Op : op,
        Ty : ty,
    }

    /* register all the operands */
    for _, v := range ops {
        ret.appendOperand(v)
    }

    /* all done */
    return ret
}

func (self *Instr) Id() int           { return self.id }
func (self *Instr) Type() Type        { return self.Ty }
func (self *Instr) Parent() *Block    { return self.bb }
func (self *Instr) Erased() bool      { return self.erased }
func (self *Instr) Ident() string     { return "%" + strconv.Itoa(self.id) }
func (self *Instr) NumOperands() int  { return len(self.ops) }
func (self *Instr) Operand(i int) Value { return self.ops[i] }

// Func returns the function containing this instruction, or nil if detached.
func (self *Instr) Func() *Function {
    if self.bb == nil {
        return nil
    } else {
        return self.bb.fn
    }
}

// Operands returns a snapshot of the operand list.
func (self *Instr) Operands() []Value {
    return append([]Value(nil), self.ops...)
}

// SetOperand replaces operand i, keeping both use lists in sync.
func (self *Instr) SetOperand(i int, v Value) {
    if old := self.ops[i]; old != nil {
        removeUse(old, self, i)
    }
    if self.ops[i] = v; v != nil {
        addUse(v, self, i)
    }
}

func (self *Instr) appendOperand(v Value) {
    self.ops = append(self.ops, v)
    addUse(v, self, len(self.ops) - 1)
}

// removeOperand deletes operand i and renumbers the use edges of the operands after it.
func (self *Instr) removeOperand(i int) {
    vals := append([]Value(nil), self.ops[i + 1:]...)
    for j := i; j < len(self.ops); j++ {
        self.SetOperand(j, nil)
    }

    /* shift the tail */
    self.ops = self.ops[:i]

    /* re-register with the new indices */
    for _, v := range vals {
        self.appendOperand(v)
    }
}

// ReplaceAllUsesWith retargets every use of this instruction to v.
func (self *Instr) ReplaceAllUsesWith(v Value) {
    ReplaceAllUsesWith(self, v)
}

/** Kind-specific accessors **/

func (self *Instr) IsTerminator() bool { return self.Op.IsTerminator() }
func (self *Instr) IsBinary() bool     { return self.Op.IsBinary() }
func (self *Instr) IsCast() bool       { return self.Op.IsCast() }
func (self *Instr) IsPhi() bool        { return self.Op == OpPhi }
func (self *Instr) IsVolatile() bool   { return self.Flags.Has(Volatile) }
func (self *Instr) IsAtomic() bool     { return self.Flags.Has(Atomic) || self.Op == OpAtomicRMW }

// Pointer returns the address operand of a memory instruction.
func (self *Instr) Pointer() Value {
    switch self.Op {
        case OpLoad      : return self.ops[0]
        case OpStore     : return self.ops[1]
        case OpGEP       : return self.ops[0]
        case OpAtomicRMW : return self.ops[0]
        default          : panic("ir: no pointer operand: " + self.String())
    }
}

// StoredValue returns the value operand of a store.
func (self *Instr) StoredValue() Value {
    if self.Op != OpStore {
        panic("ir: not a store: " + self.String())
    } else {
        return self.ops[0]
    }
}

// Callee returns the called function, or nil for an indirect call.
func (self *Instr) Callee() *Function {
    if self.Op != OpCall {
        panic("ir: not a call: " + self.String())
    } else if fn, ok := self.ops[0].(*Function); ok {
        return fn
    } else {
        return nil
    }
}

// Args returns a snapshot of the call arguments.
func (self *Instr) Args() []Value {
    if self.Op != OpCall {
        panic("ir: not a call: " + self.String())
    } else {
        return append([]Value(nil), self.ops[1:]...)
    }
}

// IsCallArg reports whether operand i of a call is an argument, as opposed to the callee.
func (self *Instr) IsCallArg(i int) bool {
    return self.Op == OpCall && i > 0
}

// Cond returns the condition of a conditional branch or a select.
func (self *Instr) Cond() Value {
    switch self.Op {
        case OpCondBr, OpSelect : return self.ops[0]
        default                 : panic("ir: no condition: " + self.String())
    }
}

/** Control flow **/

func (self *Instr) NumSuccs() int {
    if self.Op == OpPhi {
        return 0
    } else {
        return len(self.blocks)
    }
}

func (self *Instr) Succ(i int) *Block {
    if self.Op == OpPhi {
        panic("ir: phi has no successors")
    } else {
        return self.blocks[i]
    }
}

func (self *Instr) SetSucc(i int, bb *Block) {
    if self.Op == OpPhi {
        panic("ir: phi has no successors")
    } else {
        self.blocks[i] = bb
    }
}

// ReplaceSucc retargets every edge to old to point at bb.
func (self *Instr) ReplaceSucc(old *Block, bb *Block) bool {
    ok := false
    for i := 0; i < self.NumSuccs(); i++ {
        if self.blocks[i] == old {
            ok = true
            self.blocks[i] = bb
        }
    }
    return ok
}

/** Phi nodes **/

func (self *Instr) NumIncoming() int {
    return len(self.blocks)
}

func (self *Instr) Incoming(i int) (Value, *Block) {
    return self.ops[i], self.blocks[i]
}

func (self *Instr) IncomingBlock(i int) *Block {
    return self.blocks[i]
}

func (self *Instr) SetIncomingBlock(i int, bb *Block) {
    self.blocks[i] = bb
}

// AddIncoming adds an incoming (value, predecessor) pair to a phi node.
func (self *Instr) AddIncoming(v Value, bb *Block) {
    if self.Op != OpPhi {
        panic("ir: not a phi: " + self.String())
    } else if v.Type() != self.Ty {
        panic(fmt.Sprintf("ir: incoming %s value for %s phi", v.Type(), self.Ty))
    } else {
        self.appendOperand(v)
        self.blocks = append(self.blocks, bb)
    }
}

// IncomingFor returns the value flowing in from bb.
func (self *Instr) IncomingFor(bb *Block) (Value, bool) {
    for i, p := range self.blocks {
        if p == bb {
            return self.ops[i], true
        }
    }
    return nil, false
}

// RemoveIncoming deletes the i-th incoming pair.
func (self *Instr) RemoveIncoming(i int) {
    self.removeOperand(i)
    self.blocks = append(self.blocks[:i], self.blocks[i + 1:]...)
}

/** Effects **/

// HasSideEffects reports whether the instruction must be kept even without uses.
func (self *Instr) HasSideEffects() bool {
    switch self.Op {
        case OpStore, OpFence, OpAtomicRMW : return true
        case OpLoad                        : return self.IsVolatile() || self.IsAtomic()
        case OpCall                        : fn := self.Callee(); return fn == nil || !fn.Pure
        default                            : return self.IsTerminator()
    }
}

// MayWriteMemory reports whether the instruction may modify memory.
func (self *Instr) MayWriteMemory() bool {
    switch self.Op {
        case OpStore, OpFence, OpAtomicRMW : return true
        case OpLoad                        : return self.IsVolatile() || self.IsAtomic()
        case OpCall                        : fn := self.Callee(); return fn == nil || !fn.Pure
        default                            : return false
    }
}

/** Placement **/

// InsertBefore places a detached instruction right before pos.
func (self *Instr) InsertBefore(pos *Instr) {
    if self.bb != nil {
        panic("ir: instruction is already placed: " + self.String())
    } else if pos.bb == nil {
        panic("ir: insertion point is detached: " + pos.String())
    } else {
        pos.bb.insert(pos.bb.index(pos), self)
    }
}

// InsertAtEnd appends a detached instruction to bb.
func (self *Instr) InsertAtEnd(bb *Block) {
    if self.bb != nil {
        panic("ir: instruction is already placed: " + self.String())
    } else {
        bb.insert(len(bb.ins), self)
    }
}

// MoveBefore relocates the instruction right before pos, possibly into another block.
func (self *Instr) MoveBefore(pos *Instr) {
    if self == pos {
        return
    }
    if self.bb != nil {
        self.bb.remove(self)
    }
    self.InsertBefore(pos)
}

// DropAllReferences clears every operand slot. Used before erasing groups of
// instructions that reference each other.
func (self *Instr) DropAllReferences() {
    for i := range self.ops {
        self.SetOperand(i, nil)
    }
}

// Erase removes the instruction from its block. The instruction must not have any uses left.
func (self *Instr) Erase() {
    if self.erased {
        panic("ir: instruction erased twice: " + self.String())
    }

    /* replace-before-erase */
    if n := self.NumUses(); n != 0 {
        panic(fmt.Sprintf("ir: erasing %s while it still has %d uses", self, n))
    }

    /* unlink from everything */
    self.DropAllReferences()
    self.erased = true

    /* remove from block */
    if self.bb != nil {
        self.bb.remove(self)
    }
}

/** Printing **/

func opstr(v Value) string {
    if v == nil {
        return "<null>"
    } else {
        return v.Type().String() + " " + v.Ident()
    }
}

func idstr(v Value) string {
    if v == nil {
        return "<null>"
    } else {
        return v.Ident()
    }
}

func bbstr(bb *Block) string {
    if bb == nil {
        return "<null>"
    } else {
        return bb.Ident()
    }
}

func (self *Instr) flagstr() string {
    if self.Flags == 0 {
        return ""
    } else {
        return self.Flags.String() + " "
    }
}

func (self *Instr) body() string {
    switch self.Op {
        case OpAlloca: {
            return "alloca " + self.Elem.String()
        }

        /* memory operations */
        case OpLoad: {
            return fmt.Sprintf("load %s%s, %s", self.flagstr(), self.Ty, opstr(self.ops[0]))
        }
        case OpStore: {
            return fmt.Sprintf("store %s%s, %s", self.flagstr(), opstr(self.ops[0]), opstr(self.ops[1]))
        }
        case OpAtomicRMW: {
            return fmt.Sprintf("atomicrmw %s, %s", opstr(self.ops[0]), opstr(self.ops[1]))
        }
        case OpFence: {
            return "fence"
        }

        /* value operations */
        case OpICmp: {
            return fmt.Sprintf("icmp %s %s, %s", self.Pred, opstr(self.ops[0]), idstr(self.ops[1]))
        }
        case OpSelect: {
            return fmt.Sprintf("select %s, %s, %s", opstr(self.ops[0]), opstr(self.ops[1]), opstr(self.ops[2]))
        }
        case OpPhi: {
            var sb []string
            for i, v := range self.ops {
                sb = append(sb, fmt.Sprintf("[ %s, %s ]", idstr(v), bbstr(self.blocks[i])))
            }
            return fmt.Sprintf("phi %s %s", self.Ty, strings.Join(sb, ", "))
        }
        case OpGEP: {
            var sb []string
            for _, v := range self.ops {
                sb = append(sb, opstr(v))
            }
            return fmt.Sprintf("getelementptr %s, %s", self.Elem, strings.Join(sb, ", "))
        }

        /* calls */
        case OpCall: {
            var sb []string
            for _, v := range self.ops[1:] {
                sb = append(sb, opstr(v))
            }
            return fmt.Sprintf("call %s %s(%s)", self.Ty, idstr(self.ops[0]), strings.Join(sb, ", "))
        }

        /* terminators */
        case OpBr: {
            return "br label " + bbstr(self.blocks[0])
        }
        case OpCondBr: {
            return fmt.Sprintf("br %s, label %s, label %s", opstr(self.ops[0]), bbstr(self.blocks[0]), bbstr(self.blocks[1]))
        }
        case OpRet: {
            if len(self.ops) == 0 {
                return "ret void"
            } else {
                return "ret " + opstr(self.ops[0])
            }
        }
        case OpUnreachable: {
            return "unreachable"
        }
    }

    /* casts */
    if self.Op.IsCast() {
        return fmt.Sprintf("%s %s to %s", self.Op, opstr(self.ops[0]), self.Ty)
    }

    /* binary operators */
    if self.Op.IsBinary() {
        return fmt.Sprintf("%s %s%s, %s", self.Op, self.flagstr(), opstr(self.ops[0]), idstr(self.ops[1]))
    }

    /* should not happen */
    return fmt.Sprintf("<invalid opcode %d>", self.Op)
}

func (self *Instr) String() string {
    if self.Ty.IsVoid() {
        return self.body()
    } else {
        return self.Ident() + " = " + self.body()
    }
}
