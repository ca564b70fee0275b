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

    `golang.org/x/exp/slices`
)

// Function is either a declaration (no blocks) or a definition. As an operand
// it stands for its own address. Functions are visible outside the module
// unless marked Internal.
type Function struct {
    Users
    Name     string
    Ret      Type
    Pure     bool
    Internal bool
    params   []*Argument
    blocks   []*Block
    names    map[string]bool
    mod      *Module
    nid      int
    nbb      int
}

func (self *Function) Type() Type             { return Ptr }
func (self *Function) Ident() string          { return "@" + self.Name }
func (self *Function) Parent() *Module        { return self.mod }
func (self *Function) NumParams() int         { return len(self.params) }
func (self *Function) Param(i int) *Argument  { return self.params[i] }
func (self *Function) NumBlocks() int         { return len(self.blocks) }
func (self *Function) IsDeclaration() bool    { return len(self.blocks) == 0 }

// Params returns a snapshot of the formal parameters.
func (self *Function) Params() []*Argument {
    return append([]*Argument(nil), self.params...)
}

// Blocks returns a snapshot of the block list.
func (self *Function) Blocks() []*Block {
    return append([]*Block(nil), self.blocks...)
}

// Entry returns the entry block, or nil for a declaration.
func (self *Function) Entry() *Block {
    if len(self.blocks) == 0 {
        return nil
    } else {
        return self.blocks[0]
    }
}

// Instrs returns a snapshot of every instruction, in block order.
func (self *Function) Instrs() []*Instr {
    var ret []*Instr
    for _, bb := range self.blocks {
        ret = append(ret, bb.ins...)
    }
    return ret
}

// AddressTaken reports whether the function is used other than as a direct callee.
func (self *Function) AddressTaken() bool {
    for _, u := range self.uses {
        if u.User.Op != OpCall || u.Index != 0 {
            return true
        }
    }
    return false
}

// CallSites returns the calls that invoke this function directly.
func (self *Function) CallSites() []*Instr {
    var ret []*Instr
    for _, u := range self.uses {
        if u.User.Op == OpCall && u.Index == 0 {
            ret = append(ret, u.User)
        }
    }
    return ret
}

func (self *Function) newId() int {
    self.nid++
    return self.nid
}

func (self *Function) newBlock(name string) *Block {
    if name == "" {
        name = "bb"
    }

    /* block names must be unique */
    if self.names[name] {
        for i := 1;; i++ {
            if nn := name + "." + strconv.Itoa(i); !self.names[nn] {
                name = nn
                break
            }
        }
    }

    /* allocate a new block */
    self.nbb++
    self.names[name] = true
    return &Block { Id: self.nbb, Name: name, fn: self }
}

// NewBlock appends a new empty block. The name is made unique within the function.
func (self *Function) NewBlock(name string) *Block {
    bb := self.newBlock(name)
    self.blocks = append(self.blocks, bb)
    return bb
}

// NewBlockAfter inserts a new empty block right after pos.
func (self *Function) NewBlockAfter(pos *Block, name string) *Block {
    i := slices.Index(self.blocks, pos)
    if i < 0 {
        panic("ir: block does not belong to " + self.Name)
    }

    /* insert after pos */
    bb := self.newBlock(name)
    self.blocks = slices.Insert(self.blocks, i + 1, bb)
    return bb
}

func (self *Function) String() string {
    var ps []string
    for _, p := range self.params {
        ps = append(ps, p.String())
    }

    /* declarations have no body */
    sig := fmt.Sprintf("%s @%s(%s)", self.Ret, self.Name, strings.Join(ps, ", "))
    if self.IsDeclaration() {
        return "declare " + sig
    }

    /* dump every block */
    sb := []string { "define " + sig + " {" }
    if self.Internal {
        sb[0] = "define internal " + sig + " {"
    }
    for _, bb := range self.blocks {
        sb = append(sb, bb.String())
    }

    /* all done */
    sb = append(sb, "}")
    return strings.Join(sb, "\n")
}

// Module is a set of functions and global variables.
type Module struct {
    Name    string
    funcs   []*Function
    globals []*Global
}

func NewModule(name string) *Module {
    return &Module { Name: name }
}

// Functions returns a snapshot of the function list.
func (self *Module) Functions() []*Function {
    return append([]*Function(nil), self.funcs...)
}

// Globals returns a snapshot of the global variable list.
func (self *Module) Globals() []*Global {
    return append([]*Global(nil), self.globals...)
}

func (self *Module) Function(name string) *Function {
    for _, fn := range self.funcs {
        if fn.Name == name {
            return fn
        }
    }
    return nil
}

func (self *Module) Global(name string) *Global {
    for _, gv := range self.globals {
        if gv.Name == name {
            return gv
        }
    }
    return nil
}

// NewFunction declares a function. Parameters are named a0, a1, ...
func (self *Module) NewFunction(name string, ret Type, params ...Type) *Function {
    if self.Function(name) != nil {
        panic("ir: duplicated function: " + name)
    }

    /* create the function */
    fn := &Function {
        Name  : name,
        Ret   : ret,
        names : make(map[string]bool),
        mod   : self,
    }

    /* add the parameters */
    for i, ty := range params {
        fn.params = append(fn.params, &Argument {
            Name  : "a" + strconv.Itoa(i),
            Ty    : ty,
            Index : i,
            fn    : fn,
        })
    }

    /* add to module */
    self.funcs = append(self.funcs, fn)
    return fn
}

// NewGlobal defines a global variable. A nil initializer makes it external.
func (self *Module) NewGlobal(name string, elem Type, init *Const) *Global {
    if self.Global(name) != nil {
        panic("ir: duplicated global: " + name)
    }

    /* the initializer must match */
    if init != nil && init.Ty != elem {
        panic(fmt.Sprintf("ir: %s initializer for %s global %s", init.Ty, elem, name))
    }

    /* create the global */
    gv := &Global {
        Name : name,
        Elem : elem,
        Init : init,
        mod  : self,
    }

    /* add to module */
    self.globals = append(self.globals, gv)
    return gv
}

// RemoveFunction deletes fn from the module. The function must not be referenced.
func (self *Module) RemoveFunction(fn *Function) {
    if fn.HasUses() {
        panic(fmt.Sprintf("ir: removing function @%s which still has %d uses", fn.Name, fn.NumUses()))
    }

    /* drop the body */
    for _, v := range fn.Instrs() {
        v.DropAllReferences()
    }
    for _, v := range fn.Instrs() {
        v.Erase()
    }

    /* remove from module */
    fn.blocks = nil
    i := slices.Index(self.funcs, fn)
    self.funcs = slices.Delete(self.funcs, i, i + 1)
    fn.mod = nil
}

func (self *Module) String() string {
    var sb []string
    for _, gv := range self.globals {
        sb = append(sb, gv.String())
    }
    for _, fn := range self.funcs {
        sb = append(sb, fn.String())
    }
    return strings.Join(sb, "\n\n")
}
