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
    `github.com/oleiade/lane`
    `github.com/cloudwego/ssaopt/ir`
)

// InstCombine performs local algebraic simplifications until a fixed point
// is reached: re-association of constant operands, isolation of compares,
// add-chain reduction, and forwarding of repeated global loads.
type InstCombine struct{}

func (self InstCombine) Apply(ctx *Context, m *ir.Module) bool {
    return applyFuncs(ctx, m, "instcombine", self)
}

func (self InstCombine) ApplyFunc(ctx *Context, fn *ir.Function) bool {
    nc := 0
    nl := 0
    na := 0
    ret := false

    /* iterate until nothing changes */
    for done := false; !done; {
        done = true
        for _, bb := range fn.Blocks() {
            l := self.forwardLoads(bb)
            s, c := self.combine(bb)
            a := self.reduceChains(bb)

            /* accumulate the counters */
            nl += l
            nc += c
            na += a

            /* need another round if anything changed */
            if l + s + c + a != 0 {
                ret = true
                done = false
            }
        }
    }

    /* report the result */
    if nc + nl + na != 0 {
        count(&CombinedCount, nc + nl + na)
        ctx.logf("instcombine", fn, "combined %d instructions, forwarded %d loads, reduced %d add chains", nc, nl, na)
    }

    /* all done */
    return ret
}

/** Canonicalization **/

// canonicalize moves the constant operand of commutative operators and
// compares to the right-hand side.
func (self InstCombine) canonicalize(ins *ir.Instr) bool {
    if ins.NumOperands() != 2 || (!ins.Op.IsCommutative() && ins.Op != ir.OpICmp) {
        return false
    }

    /* check for constants */
    x, y := ins.Operand(0), ins.Operand(1)
    _, cx := x.(*ir.Const)
    _, cy := y.(*ir.Const)

    /* only swap when the left one is the sole constant */
    if !cx || cy {
        return false
    }

    /* swap the operands, and the predicate if any */
    ins.SetOperand(0, y)
    ins.SetOperand(1, x)

    /* comparison predicates need swapping too */
    if ins.Op == ir.OpICmp {
        ins.Pred = ins.Pred.Swapped()
    }

    /* all done */
    return true
}

/** Combining **/

func (self InstCombine) combine(bb *ir.Block) (int, int) {
    ns := 0
    nc := 0
    q := lane.NewQueue()

    /* seed the worklist */
    for _, ins := range bb.Instrs() {
        q.Enqueue(ins)
    }

    /* process until empty */
    for !q.Empty() {
        ins := q.Dequeue().(*ir.Instr)
        if ins.Erased() || ins.Parent() != bb {
            continue
        }

        /* canonicalize first */
        if self.canonicalize(ins) {
            ns++
        }

        /* try to find a simpler form */
        v := self.simplify(ins)
        if v == nil {
            continue
        }

        /* the users of ins may simplify further */
        nc++
        users := ins.UserList()
        inner := ins.Operands()

        /* replace-before-erase */
        ins.ReplaceAllUsesWith(v)
        ins.Erase()

        /* the inner expressions may be dead now */
        for _, p := range inner {
            if op, ok := p.(*ir.Instr); ok && !op.Erased() && !op.HasUses() && !op.HasSideEffects() {
                op.Erase()
            }
        }

        /* revisit the new instruction and the users */
        if nv, ok := v.(*ir.Instr); ok {
            q.Enqueue(nv)
        }
        for _, u := range users {
            q.Enqueue(u)
        }
    }

    /* all done */
    return ns, nc
}

func (self InstCombine) simplify(ins *ir.Instr) ir.Value {
    switch {
        case ins.IsBinary()        : return self.binary(ins)
        case ins.Op == ir.OpICmp   : return self.compare(ins)
        case ins.Op == ir.OpSelect : return self.choose(ins)
        default                    : return nil
    }
}

// choose folds a select whose arms are the same value. Constants are
// interned, so equal constant arms are identical too.
func (self InstCombine) choose(ins *ir.Instr) ir.Value {
    if x := ins.Operand(1); x == ins.Operand(2) {
        return x
    } else {
        return nil
    }
}

func (self InstCombine) binary(ins *ir.Instr) ir.Value {
    c2, ok := ins.Operand(1).(*ir.Const)
    if !ok {
        return nil
    }

    /* shift by zero */
    if ins.Op.IsShift() && c2.IsZero() {
        return ins.Operand(0)
    }

    /* the inner expression must be `a op C1` with no other users */
    p, ok := ins.Operand(0).(*ir.Instr)
    if !ok || !p.IsBinary() || !p.HasOneUse() {
        return nil
    }

    /* check for the constant */
    c1, ok := p.Operand(1).(*ir.Const)
    if !ok {
        return nil
    }

    /* rewrite by operator */
    a := p.Operand(0)
    ty := ins.Ty

    /* match the pattern */
    switch ins.Op {
        case ir.OpAdd: {
            switch p.Op {
                case ir.OpAdd : return self.offset(ins, ir.OpAdd, a, c1.V + c2.V)
                case ir.OpSub : return self.offset(ins, ir.OpAdd, a, c2.V - c1.V)
            }
        }

        case ir.OpSub: {
            switch p.Op {
                case ir.OpAdd : return self.offset(ins, ir.OpAdd, a, c1.V - c2.V)
                case ir.OpSub : return self.offset(ins, ir.OpSub, a, c1.V + c2.V)
            }
        }

        case ir.OpMul: {
            if p.Op == ir.OpMul {
                return self.build(ins, ir.OpMul, a, c1.V * c2.V)
            }
        }

        /* exact signed division of a non-wrapping product */
        case ir.OpSDiv: {
            if p.Op == ir.OpMul && p.Flags.Has(ir.NSW) && !c2.IsZero() && !(c2.V == -1 && c1.V == ty.MinInt()) && c1.V % c2.V == 0 {
                return self.build(ins, ir.OpMul, a, c1.V / c2.V)
            }
        }

        /* exact unsigned division of a non-wrapping product */
        case ir.OpUDiv: {
            if p.Op == ir.OpMul && p.Flags.Has(ir.NUW) && !c2.IsZero() && c1.Uint() % c2.Uint() == 0 {
                return self.build(ins, ir.OpMul, a, int64(c1.Uint() / c2.Uint()))
            }
        }

        /* combined shift amounts */
        case ir.OpShl, ir.OpLShr, ir.OpAShr: {
            if w := uint64(ty.Width()); p.Op == ins.Op && c1.Uint() < w && c2.Uint() < w && c1.Uint() + c2.Uint() < w {
                return self.build(ins, ins.Op, a, int64(c1.Uint() + c2.Uint()))
            }
        }

        /* bitwise operators are associative */
        case ir.OpAnd, ir.OpOr, ir.OpXor: {
            if p.Op == ins.Op {
                v, _ := evalBinary(ins.Op, ty, c1.V, c2.V)
                return self.build(ins, ins.Op, a, v)
            }
        }
    }

    /* no patterns matched */
    return nil
}

// offset builds `a op k`, or yields a itself when k is zero.
func (self InstCombine) offset(pos *ir.Instr, op ir.Opcode, a ir.Value, k int64) ir.Value {
    if pos.Ty.Sext(k) == 0 {
        return a
    } else {
        return self.build(pos, op, a, k)
    }
}

// build creates `a op k` without any wrapping flags, right before pos.
func (self InstCombine) build(pos *ir.Instr, op ir.Opcode, a ir.Value, k int64) ir.Value {
    return ir.Before(pos).Binary(op, a, ir.ConstInt(pos.Ty, k))
}

// compare isolates the variable of `(a +/- C1) pred C2` into `a pred C`.
func (self InstCombine) compare(ins *ir.Instr) ir.Value {
    c2, ok := ins.Operand(1).(*ir.Const)
    if !ok {
        return nil
    }

    /* the inner expression must be `a +/- C1` with no other users */
    p, ok := ins.Operand(0).(*ir.Instr)
    if !ok || (p.Op != ir.OpAdd && p.Op != ir.OpSub) || !p.HasOneUse() {
        return nil
    }

    /* check for the constant */
    c1, ok := p.Operand(1).(*ir.Const)
    if !ok {
        return nil
    }

    /* compute the adjusted constant */
    k, ok := self.adjust(ins.Pred, p, c1, c2)
    if !ok {
        return nil
    }

    /* build the new comparison */
    return ir.Before(ins).ICmp(ins.Pred, p.Operand(0), ir.ConstInt(c2.Ty, k))
}

func (self InstCombine) adjust(pred ir.Predicate, p *ir.Instr, c1 *ir.Const, c2 *ir.Const) (int64, bool) {
    ty := c2.Ty
    add := p.Op == ir.OpAdd

    /* equality holds in modular arithmetic */
    if pred.IsEquality() {
        if add {
            return ty.Sext(c2.V - c1.V), true
        } else {
            return ty.Sext(c2.V + c1.V), true
        }
    }

    /* signed compares need a non-wrapping inner expression */
    if pred.IsSigned() {
        if !p.Flags.Has(ir.NSW) {
            return 0, false
        } else if add {
            return subSigned(ty, c2.V, c1.V)
        } else {
            return addSigned(ty, c2.V, c1.V)
        }
    }

    /* so do unsigned ones */
    if !p.Flags.Has(ir.NUW) {
        return 0, false
    } else if add {
        return subUnsigned(ty, c2.Uint(), c1.Uint())
    } else {
        return addUnsigned(ty, c2.Uint(), c1.Uint())
    }
}

func addSigned(ty ir.Type, x int64, y int64) (int64, bool) {
    if r := x + y; ty.Width() == 64 {
        return r, (x ^ r) & (y ^ r) >= 0
    } else {
        return r, r >= ty.MinInt() && r <= ty.MaxInt()
    }
}

func subSigned(ty ir.Type, x int64, y int64) (int64, bool) {
    if r := x - y; ty.Width() == 64 {
        return r, (x ^ y) & (x ^ r) >= 0
    } else {
        return r, r >= ty.MinInt() && r <= ty.MaxInt()
    }
}

func addUnsigned(ty ir.Type, x uint64, y uint64) (int64, bool) {
    r := x + y
    return ty.Sext(int64(r)), r >= x && r <= ty.Mask()
}

func subUnsigned(ty ir.Type, x uint64, y uint64) (int64, bool) {
    return ty.Sext(int64(x - y)), x >= y
}

/** Add-chain Reduction **/

// isLink checks for `t = add nsw u, x`, where x is not a constant.
func (self InstCombine) isLink(ins *ir.Instr, x ir.Value) (ir.Value, bool) {
    if ins.Op != ir.OpAdd || !ins.Flags.Has(ir.NSW) {
        return nil, false
    }

    /* match either operand */
    switch {
        case ins.Operand(1) == x : return ins.Operand(0), true
        case ins.Operand(0) == x : return ins.Operand(1), true
        default                  : return nil, false
    }
}

// chain collects the links ending at tail that add x each time.
func (self InstCombine) chain(tail *ir.Instr, x ir.Value) ([]*ir.Instr, ir.Value) {
    if _, ok := x.(*ir.Const); ok {
        return nil, nil
    }

    /* the tail itself */
    base, ok := self.isLink(tail, x)
    if !ok {
        return nil, nil
    }

    /* walk up the running totals */
    ret := []*ir.Instr { tail }
    for {
        p, ok := base.(*ir.Instr)
        if !ok || p == x || p.Parent() != tail.Parent() || !p.HasOneUse() {
            break
        }

        /* must add the same value */
        next, ok := self.isLink(p, x)
        if !ok {
            break
        }

        /* extend the chain */
        base = next
        ret = append(ret, p)
    }

    /* all done */
    return ret, base
}

// reduceChains rewrites N >= 2 consecutive `add nsw` of the same value x into
// `add base, (mul x, N)`.
func (self InstCombine) reduceChains(bb *ir.Block) int {
    n := 0
    ins := bb.Instrs()

    /* start from the tails */
    for i := len(ins) - 1; i >= 0; i-- {
        var x ir.Value
        var base ir.Value
        var links []*ir.Instr

        /* skip erased ones */
        tail := ins[i]
        if tail.Erased() || tail.Op != ir.OpAdd {
            continue
        }

        /* try both operands as the increment, keep the longer chain */
        for j := 0; j < 2; j++ {
            if c, b := self.chain(tail, tail.Operand(j)); len(c) > len(links) {
                x, base, links = tail.Operand(j), b, c
            }
        }

        /* need at least two links */
        if len(links) < 2 {
            continue
        }

        /* build the reduced form */
        k := ir.ConstInt(tail.Ty, int64(len(links)))
        v := ir.Before(tail).Add(base, ir.Before(tail).Mul(x, k))

        /* replace the tail, then the links from last to first */
        n++
        tail.ReplaceAllUsesWith(v)
        for _, p := range links {
            p.Erase()
        }
    }

    /* all done */
    return n
}

/** Global Load Forwarding **/

// forwardLoads reuses the value of an earlier load from the same global within
// bb, as long as nothing in between may have written to it.
func (self InstCombine) forwardLoads(bb *ir.Block) int {
    var dead []*ir.Instr
    vals := make(map[*ir.Global]*ir.Instr)

    /* scan in program order */
    for _, ins := range bb.Instrs() {
        switch ins.Op {
            case ir.OpLoad: {
                gv, ok := ins.Pointer().(*ir.Global)
                if !ok {
                    continue
                }

                /* volatile and atomic loads must be kept, and they order memory */
                if ins.IsVolatile() || ins.IsAtomic() {
                    vals = make(map[*ir.Global]*ir.Instr)
                    continue
                }

                /* reuse the previous load if the type matches */
                if prev := vals[gv]; prev != nil && prev.Ty == ins.Ty {
                    ins.ReplaceAllUsesWith(prev)
                    dead = append(dead, ins)
                } else {
                    vals[gv] = ins
                }
            }

            /* stores to a global only clobber that global, stack slots clobber nothing */
            case ir.OpStore: {
                if gv, ok := ins.Pointer().(*ir.Global); ok && !ins.IsVolatile() && !ins.IsAtomic() {
                    delete(vals, gv)
                } else if ins.IsVolatile() || ins.IsAtomic() || isGloballyVisible(ins.Pointer()) {
                    vals = make(map[*ir.Global]*ir.Instr)
                }
            }

            /* calls that may write memory clobber everything */
            case ir.OpCall: {
                if ins.MayWriteMemory() {
                    vals = make(map[*ir.Global]*ir.Instr)
                }
            }

            /* so do memory barriers */
            case ir.OpFence, ir.OpAtomicRMW: {
                vals = make(map[*ir.Global]*ir.Instr)
            }
        }
    }

    /* remove the forwarded loads */
    for _, ins := range dead {
        ins.Erase()
    }

    /* all done */
    return len(dead)
}
