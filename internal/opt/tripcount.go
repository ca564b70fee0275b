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

// InductionVar describes the counter of a bottom-tested self loop:
//
//     iv   = phi [init, preheader], [next, header]
//     next = add iv, step
//     cond = icmp pred (iv|next), bound
//
// Pred is normalized so that the loop keeps running while `v pred bound`
// holds, with v being the compared value.
type InductionVar struct {
    Phi    *ir.Instr
    Next   *ir.Instr
    Cmp    *ir.Instr
    Init   int64
    Step   int64
    Bound  int64
    Pred   ir.Predicate
    OnNext bool
    Exit   *ir.Block
}

// Start returns the compared value of the first iteration.
func (self *InductionVar) Start() int64 {
    if self.OnNext {
        return self.Phi.Ty.Sext(self.Init + self.Step)
    } else {
        return self.Init
    }
}

// TripCount computes how many times the loop body runs.
func (self *InductionVar) TripCount() (int64, bool) {
    return tripCount(self.Phi.Ty, self.Start(), self.Step, self.Pred, self.Bound)
}

// tripCount evaluates a bottom-tested loop over v_k = start + k * step that
// continues while `v_k pred bound` holds. The body always runs once, then
// once more for each leading k satisfying the predicate. Counts that depend on
// wrapping around the type range are unknown.
func tripCount(ty ir.Type, start int64, step int64, pred ir.Predicate, bound int64) (int64, bool) {
    var n uint64
    var ok bool

    /* only relational predicates have a closed form */
    if step == 0 {
        return 0, false
    }

    /* signed or unsigned counting */
    switch {
        case pred.IsSigned()   : n, ok = countSigned(ty, start, step, pred, bound)
        case pred.IsUnsigned() : n, ok = countUnsigned(ty, ty.Zext(start), step, pred, ty.Zext(bound))
        default                : return 0, false
    }

    /* the result must fit */
    if !ok || n >= 1 << 62 {
        return 0, false
    } else {
        return int64(n) + 1, true
    }
}

// steps computes how many steps of size s it takes to cover dist, and how far
// the last one overshoots. Inclusive bounds need one more step.
func steps(dist uint64, s uint64, inclusive bool) (uint64, uint64) {
    q, r := dist / s, dist % s
    switch {
        case inclusive : return q + 1, s - r
        case r == 0    : return q, 0
        default        : return q + 1, s - r
    }
}

func countSigned(ty ir.Type, start int64, step int64, pred ir.Predicate, bound int64) (uint64, bool) {
    var n, over uint64
    up := pred == ir.SLT || pred == ir.SLE

    /* the loop exits right after the first iteration */
    if !pred.Eval(ty, start, bound) {
        return 0, true
    }

    /* must move towards the bound */
    if up != (step > 0) {
        return 0, false
    }

    /* count, then check that the last value stays in range */
    if up {
        n, over = steps(uint64(bound) - uint64(start), uint64(step), pred == ir.SLE)
        return n, over <= uint64(ty.MaxInt()) - uint64(bound)
    } else {
        n, over = steps(uint64(start) - uint64(bound), uint64(-step), pred == ir.SGE)
        return n, over <= uint64(bound) - uint64(ty.MinInt())
    }
}

func countUnsigned(ty ir.Type, start uint64, step int64, pred ir.Predicate, bound uint64) (uint64, bool) {
    var n, over uint64
    up := pred == ir.ULT || pred == ir.ULE

    /* the loop exits right after the first iteration */
    if !pred.Eval(ty, int64(start), int64(bound)) {
        return 0, true
    }

    /* must move towards the bound */
    if up != (step > 0) {
        return 0, false
    }

    /* count, then check that the last value stays in range */
    if up {
        n, over = steps(bound - start, uint64(step), pred == ir.ULE)
        return n, over <= ty.Mask() - bound
    } else {
        n, over = steps(start - bound, uint64(-step), pred == ir.UGE)
        return n, over <= bound
    }
}
