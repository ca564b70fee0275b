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

    `golang.org/x/exp/slices`
)

// VerifyError occures when the IR breaks one of its structural invariants.
type VerifyError struct {
    Func   string
    Block  string
    Instr  string
    Reason string
}

func (self VerifyError) Error() string {
    switch {
        case self.Instr != "" : return fmt.Sprintf("VerifyError(@%s, %s): %s: %s", self.Func, self.Block, self.Reason, self.Instr)
        case self.Block != "" : return fmt.Sprintf("VerifyError(@%s, %s): %s", self.Func, self.Block, self.Reason)
        default               : return fmt.Sprintf("VerifyError(@%s): %s", self.Func, self.Reason)
    }
}

type _Verifier struct {
    fn  *Function
    bb  *Block
    pos map[*Instr]int
}

func (self *_Verifier) fail(ins *Instr, reason string, args ...interface{}) error {
    ret := VerifyError {
        Func   : self.fn.Name,
        Reason : fmt.Sprintf(reason, args...),
    }

    /* add the location if any */
    if self.bb != nil {
        ret.Block = self.bb.Name
    }
    if ins != nil {
        ret.Instr = ins.String()
    }

    /* all done */
    return ret
}

// VerifyModule checks every function of the module.
func VerifyModule(m *Module) error {
    for _, fn := range m.funcs {
        if err := Verify(fn); err != nil {
            return err
        }
    }
    return nil
}

// Verify checks the structural invariants of a function: every block is
// non-empty and properly terminated, phi nodes lead their blocks and match the
// predecessors, operands are live values of the same function, and the use
// lists agree with the operand slots.
func Verify(fn *Function) error {
    vf := &_Verifier {
        fn  : fn,
        pos : make(map[*Instr]int),
    }

    /* number all the instructions */
    for _, bb := range fn.blocks {
        for i, v := range bb.ins {
            vf.pos[v] = i
        }
    }

    /* the entry block cannot be a branch target */
    if len(fn.blocks) != 0 && len(fn.blocks[0].Preds()) != 0 {
        vf.bb = fn.blocks[0]
        return vf.fail(nil, "entry block has predecessors")
    }

    /* check every block */
    for _, bb := range fn.blocks {
        vf.bb = bb
        if err := vf.block(bb); err != nil {
            return err
        }
    }

    /* check the use lists of the arguments */
    vf.bb = nil
    for _, p := range fn.params {
        if err := vf.uses(p, &p.Users); err != nil {
            return err
        }
    }

    /* all done */
    return nil
}

func (self *_Verifier) block(bb *Block) error {
    if bb.fn != self.fn {
        return self.fail(nil, "block belongs to another function")
    }
    if len(bb.ins) == 0 {
        return self.fail(nil, "empty block")
    }

    /* must end with a terminator */
    if !bb.ins[len(bb.ins) - 1].IsTerminator() {
        return self.fail(bb.ins[len(bb.ins) - 1], "block is not terminated")
    }

    /* check every instruction */
    phi := true
    preds := bb.Preds()

    /* phi nodes must lead the block, terminators must end it */
    for i, v := range bb.ins {
        if v.bb != bb || v.erased {
            return self.fail(v, "instruction is not attached to this block")
        }
        if v.IsTerminator() && i != len(bb.ins) - 1 {
            return self.fail(v, "terminator in the middle of a block")
        }
        if v.Op == OpPhi && !phi {
            return self.fail(v, "phi node after non-phi instructions")
        }
        if phi = phi && v.Op == OpPhi; phi {
            if err := self.phi(v, preds); err != nil {
                return err
            }
        }
        if err := self.instr(v); err != nil {
            return err
        }
    }

    /* all done */
    return nil
}

func (self *_Verifier) phi(ins *Instr, preds []*Block) error {
    if len(ins.blocks) != len(ins.ops) {
        return self.fail(ins, "%d incoming blocks for %d values", len(ins.blocks), len(ins.ops))
    }

    /* every incoming block must be a predecessor */
    for _, bb := range ins.blocks {
        if !slices.Contains(preds, bb) {
            return self.fail(ins, "incoming block %s is not a predecessor", bbstr(bb))
        }
    }

    /* every predecessor must have an incoming value */
    for _, bb := range preds {
        if !slices.Contains(ins.blocks, bb) {
            return self.fail(ins, "no incoming value for predecessor %s", bbstr(bb))
        }
    }

    /* all done */
    return nil
}

func (self *_Verifier) instr(ins *Instr) error {
    for i := 0; i < ins.NumSuccs(); i++ {
        if bb := ins.Succ(i); bb == nil || bb.fn != self.fn {
            return self.fail(ins, "branch to a block of another function")
        }
    }

    /* check every operand */
    for i, v := range ins.ops {
        if err := self.operand(ins, i, v); err != nil {
            return err
        }
    }

    /* check the use list */
    return self.uses(ins, &ins.Users)
}

func (self *_Verifier) operand(ins *Instr, i int, v Value) error {
    switch p := v.(type) {
        case nil: {
            return self.fail(ins, "operand %d is empty", i)
        }

        /* other instructions */
        case *Instr: {
            if p.erased {
                return self.fail(ins, "operand %d is an erased instruction", i)
            }
            if p.Func() != self.fn {
                return self.fail(ins, "operand %d is defined in another function", i)
            }
            if p.Ty.IsVoid() {
                return self.fail(ins, "operand %d does not produce a value", i)
            }

            /* definition must precede the use within a block, except for phi nodes */
            if ins.Op != OpPhi && p.bb == ins.bb && self.pos[p] >= self.pos[ins] {
                return self.fail(ins, "operand %d is used before its definition", i)
            }
        }

        /* function arguments */
        case *Argument: {
            if p.fn != self.fn {
                return self.fail(ins, "operand %d is an argument of another function", i)
            }
        }

        /* module level values */
        case *Global: {
            if p.mod != self.fn.mod {
                return self.fail(ins, "operand %d is a global of another module", i)
            }
        }

        /* function addresses */
        case *Function: {
            if p.mod != self.fn.mod {
                return self.fail(ins, "operand %d is a function of another module", i)
            }
        }
    }

    /* the operand must know about this use */
    if t, ok := v.(_Tracked); ok && !slices.Contains(t.useList().uses, Use { User: ins, Index: i }) {
        return self.fail(ins, "operand %d is missing from the use list of %s", i, v.Ident())
    }

    /* all done */
    return nil
}

func (self *_Verifier) uses(v Value, ul *Users) error {
    for _, u := range ul.uses {
        if u.User.erased || u.User.bb == nil || u.User.Func() != self.fn {
            return self.fail(u.User, "%s is used by a detached instruction", v.Ident())
        }
        if u.Index >= len(u.User.ops) || u.User.ops[u.Index] != v {
            return self.fail(u.User, "stale use edge of %s", v.Ident())
        }
    }
    return nil
}
