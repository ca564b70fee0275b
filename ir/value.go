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
    `sync`
)

// Value is anything that can appear as an instruction operand.
type Value interface {
    fmt.Stringer
    Type() Type
    Ident() string
}

// Use is a single use edge: operand Index of instruction User.
type Use struct {
    User  *Instr
    Index int
}

// Users is the use list embedded in every value that tracks its uses.
type Users struct {
    uses []Use
}

type _Tracked interface {
    Value
    useList() *Users
}

func (self *Users) useList() *Users {
    return self
}

// Uses returns a snapshot of the use edges.
func (self *Users) Uses() []Use {
    return append([]Use(nil), self.uses...)
}

// UserList returns the distinct instructions that use this value, in use order.
func (self *Users) UserList() []*Instr {
    ret := make([]*Instr, 0, len(self.uses))
    met := make(map[*Instr]bool, len(self.uses))

    /* deduplicate the users */
    for _, u := range self.uses {
        if !met[u.User] {
            met[u.User] = true
            ret = append(ret, u.User)
        }
    }

    /* all done */
    return ret
}

func (self *Users) NumUses() int    { return len(self.uses) }
func (self *Users) HasUses() bool   { return len(self.uses) != 0 }
func (self *Users) HasOneUse() bool { return len(self.uses) == 1 }

func (self *Users) add(user *Instr, idx int) {
    self.uses = append(self.uses, Use { User: user, Index: idx })
}

func (self *Users) remove(user *Instr, idx int) {
    for i, u := range self.uses {
        if u.User == user && u.Index == idx {
            self.uses = append(self.uses[:i], self.uses[i + 1:]...)
            return
        }
    }
    panic(fmt.Sprintf("ir: dangling use edge: operand %d of %s", idx, user))
}

// UsesOf returns the use edges of v, or nil if v does not track uses (constants).
func UsesOf(v Value) []Use {
    if t, ok := v.(_Tracked); ok {
        return t.useList().Uses()
    } else {
        return nil
    }
}

// NumUses returns the number of use edges of v.
func NumUses(v Value) int {
    if t, ok := v.(_Tracked); ok {
        return t.useList().NumUses()
    } else {
        return 0
    }
}

// ReplaceAllUsesWith retargets every use of old to v.
func ReplaceAllUsesWith(old Value, v Value) {
    if old == v {
        return
    }

    /* constants do not have use lists */
    t, ok := old.(_Tracked)
    if !ok {
        panic("ir: replacing uses of untracked value " + old.String())
    }

    /* type check */
    if old.Type() != v.Type() {
        panic(fmt.Sprintf("ir: replacing %s value %s with %s value %s", old.Type(), old, v.Type(), v))
    }

    /* walk over a snapshot, SetOperand modifies the use list */
    for _, u := range t.useList().Uses() {
        u.User.SetOperand(u.Index, v)
    }
}

func addUse(v Value, user *Instr, idx int) {
    if t, ok := v.(_Tracked); ok {
        t.useList().add(user, idx)
    }
}

func removeUse(v Value, user *Instr, idx int) {
    if t, ok := v.(_Tracked); ok {
        t.useList().remove(user, idx)
    }
}

/** Constants **/

// Const is an integer (or null pointer) constant. Constants are interned,
// two constants are equal iff they are the same pointer.
type Const struct {
    Ty Type
    V  int64
}

type _ConstKey struct {
    ty Type
    v  int64
}

var (
    constLock  sync.Mutex
    constTable = make(map[_ConstKey]*Const)
)

// ConstInt returns the interned constant of type ty with value v truncated to the type width.
func ConstInt(ty Type, v int64) *Const {
    if !ty.IsInt() && !ty.IsPtr() {
        panic("ir: constant of type " + ty.String())
    }

    /* null is the only pointer constant */
    if ty.IsPtr() && v != 0 {
        panic(fmt.Sprintf("ir: non-null pointer constant: %#x", v))
    }

    /* canonical form */
    key := _ConstKey { ty, ty.Sext(v) }
    constLock.Lock()
    defer constLock.Unlock()

    /* lookup the table */
    if cc, ok := constTable[key]; ok {
        return cc
    }

    /* add a new constant */
    cc := &Const { Ty: key.ty, V: key.v }
    constTable[key] = cc
    return cc
}

// ConstBool returns the i1 constant for b.
func ConstBool(b bool) *Const {
    if b {
        return ConstInt(I1, 1)
    } else {
        return ConstInt(I1, 0)
    }
}

// ConstNull returns the null pointer constant.
func ConstNull() *Const {
    return ConstInt(Ptr, 0)
}

func (self *Const) Type() Type    { return self.Ty }
func (self *Const) Int() int64    { return self.V }
func (self *Const) Uint() uint64  { return self.Ty.Zext(self.V) }
func (self *Const) IsZero() bool  { return self.V == 0 }
func (self *Const) String() string { return self.Ty.String() + " " + self.Ident() }

func (self *Const) Ident() string {
    switch {
        case self.Ty.IsPtr()      : return "null"
        case self.Ty.Width() == 1 : if self.V != 0 { return "true" } else { return "false" }
        default                   : return strconv.FormatInt(self.V, 10)
    }
}

// AsConst returns v as a constant, if it is one.
func AsConst(v Value) (*Const, bool) {
    cc, ok := v.(*Const)
    return cc, ok
}

/** Arguments **/

// Argument is a formal parameter of a function.
type Argument struct {
    Users
    Name  string
    Ty    Type
    Index int
    fn    *Function
}

func (self *Argument) Type() Type           { return self.Ty }
func (self *Argument) Ident() string        { return "%" + self.Name }
func (self *Argument) Parent() *Function    { return self.fn }
func (self *Argument) String() string       { return self.Ty.String() + " " + self.Ident() }

/** Global Variables **/

// Global is a module-level variable. Its value as an operand is its address.
type Global struct {
    Users
    Name     string
    Elem     Type
    Init     *Const
    Constant bool
    mod      *Module
}

func (self *Global) Type() Type        { return Ptr }
func (self *Global) Ident() string     { return "@" + self.Name }
func (self *Global) Parent() *Module   { return self.mod }

func (self *Global) String() string {
    kw := "global"
    if self.Constant {
        kw = "constant"
    }

    /* external globals have no initializer */
    if self.Init == nil {
        return fmt.Sprintf("@%s = external %s %s", self.Name, kw, self.Elem)
    } else {
        return fmt.Sprintf("@%s = %s %s", self.Name, kw, self.Init)
    }
}
