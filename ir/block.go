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

    `golang.org/x/exp/slices`
)

// Block is a basic block: an ordered list of instructions ending with a terminator.
type Block struct {
    Id   int
    Name string
    ins  []*Instr
    fn   *Function
}

func (self *Block) Parent() *Function { return self.fn }
func (self *Block) Ident() string     { return "%" + self.Name }
func (self *Block) Len() int          { return len(self.ins) }
func (self *Block) Empty() bool       { return len(self.ins) == 0 }

// Instrs returns a snapshot of the instruction list.
func (self *Block) Instrs() []*Instr {
    return append([]*Instr(nil), self.ins...)
}

// Term returns the terminator, or nil if the block is not terminated yet.
func (self *Block) Term() *Instr {
    if n := len(self.ins); n == 0 || !self.ins[n - 1].IsTerminator() {
        return nil
    } else {
        return self.ins[n - 1]
    }
}

// Phis returns the leading phi nodes.
func (self *Block) Phis() []*Instr {
    var ret []*Instr
    for _, v := range self.ins {
        if v.Op != OpPhi {
            break
        }
        ret = append(ret, v)
    }
    return ret
}

// FirstNonPhi returns the first instruction that is not a phi node.
func (self *Block) FirstNonPhi() *Instr {
    for _, v := range self.ins {
        if v.Op != OpPhi {
            return v
        }
    }
    return nil
}

// Succs returns the distinct successors, in terminator order.
func (self *Block) Succs() []*Block {
    var ret []*Block
    if tr := self.Term(); tr != nil {
        for i := 0; i < tr.NumSuccs(); i++ {
            if bb := tr.Succ(i); !slices.Contains(ret, bb) {
                ret = append(ret, bb)
            }
        }
    }
    return ret
}

// Preds returns the distinct predecessors, in function block order.
func (self *Block) Preds() []*Block {
    var ret []*Block
    for _, bb := range self.fn.blocks {
        if slices.Contains(bb.Succs(), self) {
            ret = append(ret, bb)
        }
    }
    return ret
}

// HasSucc reports whether there is an edge from this block to bb.
func (self *Block) HasSucc(bb *Block) bool {
    return slices.Contains(self.Succs(), bb)
}

func (self *Block) index(ins *Instr) int {
    if i := slices.Index(self.ins, ins); i < 0 {
        panic("ir: instruction not in block " + self.Name + ": " + ins.String())
    } else {
        return i
    }
}

func (self *Block) insert(i int, ins *Instr) {
    if ins.erased {
        panic("ir: inserting an erased instruction: " + ins.String())
    }
    if ins.id == 0 {
        ins.id = self.fn.newId()
    }
    ins.bb = self
    self.ins = slices.Insert(self.ins, i, ins)
}

func (self *Block) remove(ins *Instr) {
    i := self.index(ins)
    ins.bb = nil
    self.ins = slices.Delete(self.ins, i, i + 1)
}

// SplitAt moves ins and everything after it into a new block placed right
// after this one, and returns it. Phi nodes in the successors are updated to
// name the new block. This block is left without a terminator.
func (self *Block) SplitAt(ins *Instr, name string) *Block {
    i := self.index(ins)
    nb := self.fn.NewBlockAfter(self, name)

    /* move the tail */
    for _, v := range self.ins[i:] {
        v.bb = nb
        nb.ins = append(nb.ins, v)
    }

    /* truncate this block */
    self.ins = self.ins[:i:i]

    /* the successors now see the new block as their predecessor */
    for _, succ := range nb.Succs() {
        for _, phi := range succ.Phis() {
            for j := 0; j < phi.NumIncoming(); j++ {
                if phi.IncomingBlock(j) == self {
                    phi.SetIncomingBlock(j, nb)
                }
            }
        }
    }

    /* all done */
    return nb
}

func (self *Block) String() string {
    sb := []string { self.Name + ":" }
    for _, v := range self.ins {
        sb = append(sb, "    " + v.String())
    }
    return strings.Join(sb, "\n")
}
