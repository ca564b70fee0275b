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

// LoopUnroll fully unrolls self loops with a small constant trip count.
type LoopUnroll struct{}

func (self LoopUnroll) Apply(ctx *Context, m *ir.Module) bool {
    return applyFuncs(ctx, m, "unroll", self)
}

func (self LoopUnroll) ApplyFunc(ctx *Context, fn *ir.Function) bool {
    n := 0
    dt := BuildDominatorTree(fn)

    /* only self loops with a recognizable counter */
    for _, lp := range FindLoops(dt) {
        if !lp.IsSelfLoop() {
            continue
        }

        /* find the induction variable */
        iv, ok := self.induction(lp)
        if !ok {
            continue
        }

        /* compute the trip count */
        trips, ok := iv.TripCount()
        if !ok {
            continue
        }

        /* full unrolling if the budget allows */
        size := self.size(lp.Header)
        if ctx.CanUnroll(int(trips), size) {
            n++
            self.unroll(lp, iv, int(trips))
            ctx.logf("unroll", fn, "unrolled %s %d times", lp.Header.Name, trips)
            continue
        }

        /* otherwise try partially */
        if k := self.factor(ctx, trips, size); k > 1 && self.partial(lp, k) {
            n++
            ctx.logf("unroll", fn, "partially unrolled %s by %d", lp.Header.Name, k)
        }
    }

    /* all done */
    count(&UnrolledCount, n)
    return n != 0
}

// size estimates the per-iteration cost, phi nodes and terminators are free.
func (self LoopUnroll) size(bb *ir.Block) int {
    n := 0
    for _, ins := range bb.Instrs() {
        if !ins.IsPhi() && !ins.IsTerminator() {
            n++
        }
    }
    return n
}

// factor picks the largest partial unroll factor that divides the trip count
// and fits the budget.
func (self LoopUnroll) factor(ctx *Context, trips int64, size int) int {
    for k := ctx.MaxUnrollCount; k > 1; k-- {
        if trips % int64(k) == 0 && ctx.CanUnroll(k, size) {
            return k
        }
    }
    return 0
}

// partial is where unrolling by a factor k with the back edge kept would go.
// Partial unrolling is not performed: loops that cannot be fully unrolled are
// left untouched, and this always reports no change.
func (self LoopUnroll) partial(_ *Loop, _ int) bool {
    return false
}

// induction recognizes the loop counter that controls the exit branch.
func (self LoopUnroll) induction(lp *Loop) (*InductionVar, bool) {
    var exit *ir.Block
    var cont bool

    /* the header must end with a two-way branch */
    h := lp.Header
    br := h.Term()
    if br.Op != ir.OpCondBr {
        return nil, false
    }

    /* one edge loops back, the other one leaves */
    switch {
        case br.Succ(0) == h && br.Succ(1) != h : exit, cont = br.Succ(1), true
        case br.Succ(1) == h && br.Succ(0) != h : exit, cont = br.Succ(0), false
        default                                 : return nil, false
    }

    /* the condition must be a compare within the loop */
    cmp, ok := br.Cond().(*ir.Instr)
    if !ok || cmp.Op != ir.OpICmp || cmp.Parent() != h {
        return nil, false
    }

    /* try every phi */
    for _, phi := range h.Phis() {
        if iv, ok := self.counter(lp, phi, cmp); ok {
            if iv.Exit = exit; !cont {
                iv.Pred = iv.Pred.Inverse()
            }
            return iv, true
        }
    }

    /* no counters found */
    return nil, false
}

// counter matches `phi [C, preheader], [next, header]` with `next = phi +/- C`,
// compared against a constant.
func (self LoopUnroll) counter(lp *Loop, phi *ir.Instr, cmp *ir.Instr) (*InductionVar, bool) {
    if phi.NumIncoming() != 2 || !phi.Ty.IsInt() {
        return nil, false
    }

    /* initial value */
    v, ok := phi.IncomingFor(lp.Preheader)
    init, isc := v.(*ir.Const)
    if !ok || !isc {
        return nil, false
    }

    /* value from the back edge */
    v, _ = phi.IncomingFor(lp.Header)
    next, ok := v.(*ir.Instr)
    if !ok || next.Parent() != lp.Header {
        return nil, false
    }

    /* match the step */
    step, ok := self.step(phi, next)
    if !ok {
        return nil, false
    }

    /* build the induction variable */
    iv := &InductionVar {
        Phi  : phi,
        Next : next,
        Cmp  : cmp,
        Init : init.V,
        Step : step,
    }

    /* match the comparison, with the constant on either side */
    x, y := cmp.Operand(0), cmp.Operand(1)
    if bc, ok := y.(*ir.Const); ok && (x == ir.Value(phi) || x == ir.Value(next)) {
        iv.Pred, iv.Bound, iv.OnNext = cmp.Pred, bc.V, x == ir.Value(next)
        return iv, true
    }
    if bc, ok := x.(*ir.Const); ok && (y == ir.Value(phi) || y == ir.Value(next)) {
        iv.Pred, iv.Bound, iv.OnNext = cmp.Pred.Swapped(), bc.V, y == ir.Value(next)
        return iv, true
    }

    /* not compared against a constant */
    return nil, false
}

func (self LoopUnroll) step(phi *ir.Instr, next *ir.Instr) (int64, bool) {
    x, y := next.Operand(0), next.Operand(1)
    switch next.Op {
        case ir.OpAdd: {
            if cc, ok := y.(*ir.Const); ok && x == ir.Value(phi) {
                return cc.V, true
            }
            if cc, ok := x.(*ir.Const); ok && y == ir.Value(phi) {
                return cc.V, true
            }
        }
        case ir.OpSub: {
            if cc, ok := y.(*ir.Const); ok && x == ir.Value(phi) {
                return phi.Ty.Sext(-cc.V), true
            }
        }
    }
    return 0, false
}

// unroll replicates the body once per iteration in place, then turns the
// back edge into a branch to the exit.
func (self LoopUnroll) unroll(lp *Loop, iv *InductionVar, trips int) {
    var body []*ir.Instr
    var last ir.ValueMap

    /* the exit compare is only needed when used elsewhere */
    h := lp.Header
    br := h.Term()
    phis := h.Phis()

    /* collect the body */
    for _, ins := range h.Instrs() {
        if !ins.IsPhi() && !ins.IsTerminator() && (ins != iv.Cmp || ins.NumUses() != 1) {
            body = append(body, ins)
        }
    }

    /* replicate the body, threading the phi values through */
    for k := 0; k < trips; k++ {
        vm := make(ir.ValueMap, len(phis) + len(body))
        for _, phi := range phis {
            switch {
                case phi == iv.Phi : vm[phi] = ir.ConstInt(phi.Ty, iv.Init + int64(k) * iv.Step)
                case k == 0        : vm[phi], _ = phi.IncomingFor(lp.Preheader)
                default            : v, _ := phi.IncomingFor(h); vm[phi] = last.Lookup(v)
            }
        }

        /* clone every instruction */
        for _, ins := range body {
            cc := ir.Clone(ins, vm, nil)
            cc.InsertBefore(br)
            vm[ins] = cc
        }

        /* values of this iteration */
        last = vm
    }

    /* uses outside of the loop see the values of the last iteration */
    orig := append(append([]*ir.Instr(nil), phis...), body...)
    for _, v := range orig {
        for _, u := range v.Uses() {
            if u.User.Parent() != h {
                u.User.SetOperand(u.Index, last.Lookup(v))
            }
        }
    }

    /* leave the loop unconditionally */
    ir.Before(br).Br(iv.Exit)
    br.Erase()

    /* drop the original instructions */
    if iv.Cmp.NumUses() == 0 && !iv.Cmp.Erased() && !containsInstr(orig, iv.Cmp) {
        orig = append(orig, iv.Cmp)
    }
    for _, ins := range orig {
        ins.DropAllReferences()
    }
    for _, ins := range orig {
        ins.Erase()
    }
}

func containsInstr(ins []*ir.Instr, v *ir.Instr) bool {
    for _, p := range ins {
        if p == v {
            return true
        }
    }
    return false
}
