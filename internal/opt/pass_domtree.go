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
    `strings`

    `gonum.org/v1/gonum/graph/flow`
    `gonum.org/v1/gonum/graph/simple`
    `github.com/cloudwego/ssaopt/ir`
)

// DomTreeInfo builds the dominator tree of every function and reports the
// loop headers. It never changes the module.
type DomTreeInfo struct{}

func (self DomTreeInfo) Apply(ctx *Context, m *ir.Module) bool {
    return applyFuncs(ctx, m, "domtree", self)
}

func (self DomTreeInfo) ApplyFunc(ctx *Context, fn *ir.Function) bool {
    var hs []string
    dt := BuildDominatorTree(fn)

    /* collect the loop headers */
    for _, bb := range dt.LoopHeaders() {
        hs = append(hs, bb.Name)
    }

    /* report the tree */
    ctx.logf("domtree", fn, "%d reachable blocks, loop headers: [%s]", len(dt.Order()), strings.Join(hs, ", "))
    ctx.dump("dominator tree of @" + fn.Name, dt.Dump())

    /* cross check with an independent algorithm */
    if ctx.Verify {
        if err := CheckDominators(dt); err != nil {
            panic("domtree: " + err.Error())
        }
    }

    /* analysis only */
    return false
}

// CheckDominators compares the immediate dominators against the
// Lengauer-Tarjan implementation of gonum.
func CheckDominators(dt *DominatorTree) error {
    order := dt.Order()
    g := simple.NewDirectedGraph()

    /* the reachable sub-graph */
    for i := range order {
        g.AddNode(simple.Node(i))
    }
    for i, bb := range order {
        for _, succ := range bb.Succs() {
            if j, ok := dt.index[succ]; ok && j != i {
                g.SetEdge(g.NewEdge(simple.Node(i), simple.Node(j)))
            }
        }
    }

    /* compare every block */
    ref := flow.Dominators(simple.Node(0), g)
    for i, bb := range order[1:] {
        idom := dt.DominatedBy[bb]
        want := ref.DominatorOf(int64(i + 1))

        /* must agree with the reference */
        if want == nil || order[want.ID()] != idom {
            return fmt.Errorf("immediate dominator mismatch for block %s: %s", bb.Name, idom.Name)
        }
    }

    /* all done */
    return nil
}
