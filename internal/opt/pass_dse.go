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
    `golang.org/x/exp/slices`
    `github.com/cloudwego/ssaopt/ir`
)

// DSE removes stack allocations that are never read, and stores that can
// never be observed.
type DSE struct{}

func (self DSE) Apply(ctx *Context, m *ir.Module) bool {
    return applyFuncs(ctx, m, "dse", self)
}

func (self DSE) ApplyFunc(ctx *Context, fn *ir.Function) bool {
    na := 0
    ns := 0

    /* each round may expose more dead allocations */
    for i := 0; i < ctx.MaxDSERounds; i++ {
        a := self.removeAllocas(fn)
        s := self.removeStores(fn)

        /* stop when nothing changes */
        if na, ns = na + a, ns + s; a + s == 0 {
            break
        }
    }

    /* nothing changed */
    if na + ns == 0 {
        return false
    }

    /* report the result */
    count(&RemovedCount, na + ns)
    ctx.logf("dse", fn, "removed %d dead allocations and %d dead stores", na, ns)
    return true
}

func (self DSE) isDeadAlloca(a *ir.Instr) bool {
    if mayEscape(a) {
        return false
    }

    /* only plain stores into it are allowed */
    for _, u := range a.Uses() {
        if u.User.Op != ir.OpStore || u.Index != 1 || u.User.IsVolatile() || u.User.IsAtomic() {
            return false
        }
    }

    /* write-only storage */
    return true
}

func (self DSE) removeAllocas(fn *ir.Function) int {
    var dead []*ir.Instr
    for _, ins := range fn.Instrs() {
        if ins.Op == ir.OpAlloca && self.isDeadAlloca(ins) {
            dead = append(dead, ins)
        }
    }

    /* the stores go first */
    for _, a := range dead {
        for _, st := range a.UserList() {
            st.Erase()
        }
        a.Erase()
    }

    /* all done */
    return len(dead)
}

func (self DSE) removeStores(fn *ir.Function) int {
    var dead []*ir.Instr
    for _, ins := range fn.Instrs() {
        if ins.Op == ir.OpStore && !self.isUseful(ins) {
            dead = append(dead, ins)
        }
    }

    /* stores have no users */
    for _, st := range dead {
        st.Erase()
    }

    /* all done */
    return len(dead)
}

// isUseful reports whether the value written by st may be observed.
func (self DSE) isUseful(st *ir.Instr) bool {
    if st.IsVolatile() || st.IsAtomic() {
        return true
    }

    /* only direct stores into private stack slots are candidates */
    a, ok := asAlloca(st.Pointer())
    if !ok || mayEscape(a) {
        return true
    }

    /* derived addresses may read the slot in ways we do not track */
    for _, u := range a.Uses() {
        if u.User.Op != ir.OpLoad && u.User.Op != ir.OpStore {
            return true
        }
    }

    /* look for a read or an overwrite later in the same block */
    bb := st.Parent()
    ins := bb.Instrs()

    /* the first access after the store decides */
    for _, v := range ins[slices.Index(ins, st) + 1:] {
        if v.Op == ir.OpLoad && v.Pointer() == ir.Value(a) {
            return true
        }
        if v.Op == ir.OpStore && v.Pointer() == ir.Value(a) {
            return false
        }
    }

    /* otherwise some reachable block must read it */
    return self.reachesLoad(bb, a)
}

// reachesLoad searches the blocks reachable from bb's successors for a load of
// a. The starting block counts only if it sits on a cycle.
func (self DSE) reachesLoad(bb *ir.Block, a *ir.Instr) bool {
    q := lane.NewQueue()
    vis := make(map[*ir.Block]bool)

    /* start from the successors */
    for _, p := range bb.Succs() {
        vis[p] = true
        q.Enqueue(p)
    }

    /* breadth first search */
    for !q.Empty() {
        p := q.Dequeue().(*ir.Block)

        /* check for loads */
        for _, v := range p.Instrs() {
            if v.Op == ir.OpLoad && v.Pointer() == ir.Value(a) {
                return true
            }
        }

        /* add the successors */
        for _, s := range p.Succs() {
            if !vis[s] {
                vis[s] = true
                q.Enqueue(s)
            }
        }
    }

    /* no reads at all */
    return false
}
