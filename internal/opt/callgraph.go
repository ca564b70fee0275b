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
    `gonum.org/v1/gonum/graph/simple`
    `gonum.org/v1/gonum/graph/topo`
    `github.com/cloudwego/ssaopt/ir`
)

// CallGraphNode summarizes the direct calls made by and to one function.
type CallGraphNode struct {
    Func      *ir.Function
    Size      int
    Sites     []*ir.Instr
    Callers   []*ir.Function
    Callees   []*ir.Function
    Calls     int
    Recursive bool
}

type CallGraph struct {
    Nodes map[*ir.Function]*CallGraphNode
}

// BuildCallGraph collects the direct call edges of a module, and marks every
// function that takes part in a cycle as recursive.
func BuildCallGraph(m *ir.Module) *CallGraph {
    fns := m.Functions()
    ids := make(map[*ir.Function]int64, len(fns))
    cg := &CallGraph { Nodes: make(map[*ir.Function]*CallGraphNode, len(fns)) }

    /* one graph node per function */
    g := simple.NewDirectedGraph()
    for i, fn := range fns {
        ids[fn] = int64(i)
        g.AddNode(simple.Node(i))
        cg.Nodes[fn] = &CallGraphNode { Func: fn, Size: estimateSize(fn) }
    }

    /* add the call edges */
    for _, fn := range fns {
        caller := cg.Nodes[fn]
        for _, ins := range fn.Instrs() {
            if ins.Op != ir.OpCall {
                continue
            }

            /* indirect calls are opaque */
            callee := ins.Callee()
            if callee == nil {
                continue
            }

            /* record the call site */
            node := cg.Nodes[callee]
            node.Calls++
            caller.Sites = append(caller.Sites, ins)

            /* deduplicated edges */
            if !containsFunc(caller.Callees, callee) {
                node.Callers = append(node.Callers, fn)
                caller.Callees = append(caller.Callees, callee)
            }

            /* self edges are not allowed in simple graphs */
            if callee == fn {
                caller.Recursive = true
            } else {
                g.SetEdge(g.NewEdge(simple.Node(ids[fn]), simple.Node(ids[callee])))
            }
        }
    }

    /* mutual recursion */
    for _, scc := range topo.TarjanSCC(g) {
        if len(scc) > 1 {
            for _, v := range scc {
                cg.Nodes[fns[v.ID()]].Recursive = true
            }
        }
    }

    /* all done */
    return cg
}

// estimateSize weights calls and memory accesses higher than plain instructions.
func estimateSize(fn *ir.Function) int {
    n := 0
    for _, ins := range fn.Instrs() {
        switch ins.Op {
            case ir.OpCall             : n += 3
            case ir.OpLoad, ir.OpStore : n += 2
            default                    : n += 1
        }
    }
    return n
}

func containsFunc(fns []*ir.Function, fn *ir.Function) bool {
    for _, v := range fns {
        if v == fn {
            return true
        }
    }
    return false
}
