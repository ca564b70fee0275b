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
    `fmt`

    `github.com/oleiade/lane`
    `github.com/cloudwego/ssaopt/ir`
)

// Edge is a control flow edge.
type Edge struct {
    From *ir.Block
    To   *ir.Block
}

// DominatorTree is the dominator information of the blocks reachable from the
// entry block. Unreachable blocks are neither dominated nor dominating.
type DominatorTree struct {
    Root              *ir.Block
    DominatedBy       map[*ir.Block]*ir.Block
    DominatorOf       map[*ir.Block][]*ir.Block
    DominanceFrontier map[*ir.Block][]*ir.Block
    Level             map[*ir.Block]int
    order             []*ir.Block
    index             map[*ir.Block]int
    doms              []bitset
}

// BuildDominatorTree computes the dominator sets with the iterative data-flow
// algorithm, then derives the immediate dominators, the tree levels and the
// dominance frontiers from them.
func BuildDominatorTree(fn *ir.Function) *DominatorTree {
    if fn.IsDeclaration() {
        panic("domtree: function is not defined: " + fn.Name)
    }

    /* order the blocks */
    order := reversePostOrder(fn)
    preds := predecessors(fn)

    /* number the reachable blocks */
    nb := len(order)
    index := make(map[*ir.Block]int, nb)
    for i, bb := range order {
        index[bb] = i
    }

    /* entry is dominated by itself only, everything else starts with the universe */
    doms := make([]bitset, nb)
    for i := range doms {
        if doms[i] = newBitset(nb); i == 0 {
            doms[i].set(0)
        } else {
            doms[i].fill(nb)
        }
    }

    /* iterate until no set changes */
    for done := false; !done; {
        done = true
        for i := 1; i < nb; i++ {
            ds := newBitset(nb)
            ds.fill(nb)

            /* intersect over the reachable predecessors */
            for _, p := range preds[order[i]] {
                if j, ok := index[p]; ok {
                    ds.intersect(doms[j])
                }
            }

            /* every block dominates itself */
            if ds.set(i); !ds.equal(doms[i]) {
                doms[i] = ds
                done = false
            }
        }
    }

    /* build the tree */
    dt := &DominatorTree {
        Root              : order[0],
        DominatedBy       : make(map[*ir.Block]*ir.Block, nb),
        DominatorOf       : make(map[*ir.Block][]*ir.Block, nb),
        DominanceFrontier : make(map[*ir.Block][]*ir.Block, nb),
        Level             : make(map[*ir.Block]int, nb),
        order             : order,
        index             : index,
        doms              : doms,
    }

    /* link every block to its immediate dominator */
    for i := 1; i < nb; i++ {
        idom := dt.immediate(i)
        dt.DominatedBy[order[i]] = order[idom]
        dt.DominatorOf[order[idom]] = append(dt.DominatorOf[order[idom]], order[i])
    }

    /* compute the levels and frontiers */
    dt.levels()
    dt.frontiers()
    return dt
}

// immediate finds the strict dominator of block i that all other strict dominators of i dominate.
func (self *DominatorTree) immediate(i int) int {
    idom := -1
    sdom := self.doms[i].clone()
    sdom.unset(i)

    /* the closest strict dominator is dominated by the others */
    sdom.each(func(d int) {
        if idom < 0 && sdom.subsetOf(self.doms[d]) {
            idom = d
        }
    })

    /* reachable non-entry blocks always have one */
    if idom < 0 {
        panic("domtree: no immediate dominator for block " + self.order[i].Name)
    } else {
        return idom
    }
}

func (self *DominatorTree) levels() {
    q := lane.NewQueue()
    self.Level[self.Root] = 0

    /* BFS over the tree */
    for q.Enqueue(self.Root); !q.Empty(); {
        p := q.Dequeue().(*ir.Block)
        for _, c := range self.DominatorOf[p] {
            self.Level[c] = self.Level[p] + 1
            q.Enqueue(c)
        }
    }
}

func (self *DominatorTree) frontiers() {
    for _, bb := range self.order {
        for _, succ := range bb.Succs() {
            for r := bb; r != nil && !self.StrictlyDominates(r, succ); r = self.DominatedBy[r] {
                if !containsBlock(self.DominanceFrontier[r], succ) {
                    self.DominanceFrontier[r] = append(self.DominanceFrontier[r], succ)
                }
            }
        }
    }
}

func containsBlock(bbs []*ir.Block, bb *ir.Block) bool {
    for _, v := range bbs {
        if v == bb {
            return true
        }
    }
    return false
}

// Reachable reports whether bb is reachable from the entry block.
func (self *DominatorTree) Reachable(bb *ir.Block) bool {
    _, ok := self.index[bb]
    return ok
}

// Order returns the reachable blocks in reverse post-order.
func (self *DominatorTree) Order() []*ir.Block {
    return append([]*ir.Block(nil), self.order...)
}

// Dominates reports whether every path from the entry to b passes through a.
func (self *DominatorTree) Dominates(a *ir.Block, b *ir.Block) bool {
    ia, ok1 := self.index[a]
    ib, ok2 := self.index[b]
    return ok1 && ok2 && self.doms[ib].test(ia)
}

func (self *DominatorTree) StrictlyDominates(a *ir.Block, b *ir.Block) bool {
    return a != b && self.Dominates(a, b)
}

// Dominators returns the full dominator set of bb, in reverse post-order.
func (self *DominatorTree) Dominators(bb *ir.Block) []*ir.Block {
    var ret []*ir.Block
    if i, ok := self.index[bb]; ok {
        self.doms[i].each(func(d int) {
            ret = append(ret, self.order[d])
        })
    }
    return ret
}

// BackEdges returns every edge whose target dominates its source.
func (self *DominatorTree) BackEdges() []Edge {
    var ret []Edge
    for _, bb := range self.order {
        for _, succ := range bb.Succs() {
            if self.Dominates(succ, bb) {
                ret = append(ret, Edge { From: bb, To: succ })
            }
        }
    }
    return ret
}

// LoopHeaders returns the targets of back edges, in reverse post-order.
func (self *DominatorTree) LoopHeaders() []*ir.Block {
    var ret []*ir.Block
    for _, e := range self.BackEdges() {
        if !containsBlock(ret, e.To) {
            ret = append(ret, e.To)
        }
    }
    return ret
}

// Dump converts the tree into plain maps keyed by block names, for debugging.
func (self *DominatorTree) Dump() map[string]interface{} {
    idom := make(map[string]string)
    level := make(map[string]int)
    front := make(map[string][]string)

    /* collect by names */
    for _, bb := range self.order {
        level[bb.Name] = self.Level[bb]
        if p, ok := self.DominatedBy[bb]; ok {
            idom[bb.Name] = p.Name
        }
        for _, f := range self.DominanceFrontier[bb] {
            front[bb.Name] = append(front[bb.Name], f.Name)
        }
    }

    /* all done */
    return map[string]interface{} {
        "idom"     : idom,
        "level"    : level,
        "frontier" : front,
    }
}

func (self *DominatorTree) String() string {
    return fmt.Sprintf("DominatorTree(root=%s, blocks=%d)", self.Root.Name, len(self.order))
}
