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

    `github.com/oleiade/lane`
    `github.com/cloudwego/ssaopt/ir`
)

const (
    _InlineAlways = 10
)

// Inline substitutes the bodies of small non-recursive callees into their
// call sites, smallest callees first, then removes the internal functions
// that are no longer referenced.
type Inline struct{}

func (self Inline) Apply(ctx *Context, m *ir.Module) bool {
    nb := 0
    inlined := make(map[*ir.Function]int)
    atomic.AddUint64(&PassCount, 1)

    /* each round may expose new opportunities */
    for depth := 0; depth < ctx.MaxInlineDepth; depth++ {
        n := self.round(ctx, m, depth, inlined)
        if nb += n; n == 0 {
            break
        }
    }

    /* report per caller */
    for _, fn := range m.Functions() {
        if n := inlined[fn]; n != 0 {
            ctx.logf("inline", fn, "inlined %d call sites", n)
            ctx.verify("inline", fn)
        }
    }

    /* remove the unreferenced functions */
    nr := self.removeUnused(ctx, m)
    count(&InlinedCount, nb)
    return nb + nr != 0
}

func (self Inline) shouldInline(ctx *Context, depth int, caller *ir.Function, node *CallGraphNode) bool {
    switch {
        case node.Func == caller        : return false
        case node.Func.IsDeclaration()  : return false
        case node.Recursive             : return false
        case node.Func.AddressTaken()   : return false
        case node.Size <= _InlineAlways : return true
        case len(node.Callers) == 1     : return node.Size <= ctx.MaxInlineSize
        default                         : return ctx.CanInline(depth, node.Size)
    }
}

func (self Inline) round(ctx *Context, m *ir.Module, depth int, inlined map[*ir.Function]int) int {
    n := 0
    cg := BuildCallGraph(m)
    pq := lane.NewPQueue(lane.MINPQ)

    /* collect the candidates, smallest callees first */
    for _, fn := range m.Functions() {
        for _, site := range cg.Nodes[fn].Sites {
            if node := cg.Nodes[site.Callee()]; self.shouldInline(ctx, depth, fn, node) {
                pq.Push(site, node.Size)
            }
        }
    }

    /* inline them one by one */
    for pq.Size() != 0 {
        v, _ := pq.Pop()
        site := v.(*ir.Instr)

        /* the call site may have been removed */
        if site.Erased() {
            continue
        }

        /* substitute the callee */
        n++
        inlined[site.Func()]++
        self.inline(site)
    }

    /* all done */
    return n
}

// inline replaces one call site with a copy of the callee's body.
func (self Inline) inline(site *ir.Instr) {
    var rets []*ir.Instr
    vm := make(ir.ValueMap)
    bm := make(ir.BlockMap)

    /* split the block right before the call */
    bb := site.Parent()
    fn := bb.Parent()
    callee := site.Callee()
    cont := bb.SplitAt(site, bb.Name + ".cont")

    /* parameters become the arguments */
    for i, v := range site.Args() {
        vm[callee.Param(i)] = v
    }

    /* create the blocks */
    pos := bb
    for _, p := range callee.Blocks() {
        pos = fn.NewBlockAfter(pos, callee.Name + "." + p.Name)
        bm[p] = pos
    }

    /* clone the instructions */
    for _, p := range callee.Blocks() {
        for _, ins := range p.Instrs() {
            cc := ir.Clone(ins, vm, bm)
            cc.InsertAtEnd(bm[p])
            vm[ins] = cc
        }
    }

    /* forward references within the callee */
    for _, p := range callee.Blocks() {
        for _, ins := range bm[p].Instrs() {
            for i, v := range ins.Operands() {
                if nv, ok := vm[v]; ok && nv != v {
                    ins.SetOperand(i, nv)
                }
            }
        }
    }

    /* enter the callee */
    ir.NewBuilder(bb).Br(bm[callee.Entry()])

    /* returns jump to the continuation */
    for _, p := range callee.Blocks() {
        if term := bm[p].Term(); term.Op == ir.OpRet {
            rets = append(rets, term)
        }
    }

    /* merge the returned values */
    if !site.Ty.IsVoid() {
        site.ReplaceAllUsesWith(self.result(site, cont, rets))
    }

    /* convert the returns */
    for _, ret := range rets {
        ir.Before(ret).Br(cont)
        ret.Erase()
    }

    /* the call is gone */
    site.Erase()
}

func (self Inline) result(site *ir.Instr, cont *ir.Block, rets []*ir.Instr) ir.Value {
    switch len(rets) {
        case 0: {
            if site.Ty.IsPtr() {
                return ir.ConstNull()
            } else {
                return ir.ConstInt(site.Ty, 0)
            }
        }

        /* a single return needs no merging */
        case 1: {
            return rets[0].Operand(0)
        }

        /* merge them with a phi */
        default: {
            phi := ir.Before(cont.FirstNonPhi()).Phi(site.Ty)
            for _, ret := range rets {
                phi.AddIncoming(ret.Operand(0), ret.Parent())
            }
            return phi
        }
    }
}

// removeUnused deletes internal functions that are never referenced. Functions
// without the Internal mark may be called from outside the module and are kept,
// as is the program entry "main".
func (self Inline) removeUnused(ctx *Context, m *ir.Module) int {
    n := 0
    for done := false; !done; {
        done = true
        for _, fn := range m.Functions() {
            if fn.Internal && fn.Name != "main" && !fn.IsDeclaration() && !fn.HasUses() {
                n++
                done = false
                ctx.logf("inline", fn, "removed unused function")
                m.RemoveFunction(fn)
            }
        }
    }
    return n
}
