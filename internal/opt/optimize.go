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

    `github.com/cloudwego/ssaopt/ir`
)

// Pass transforms a module and reports whether anything changed.
type Pass interface {
    Apply(ctx *Context, m *ir.Module) bool
}

// FuncPass is a pass that works on one function at a time.
type FuncPass interface {
    ApplyFunc(ctx *Context, fn *ir.Function) bool
}

type PassDescriptor struct {
    Pass Pass
    Name string
    Desc string
}

var Passes = [...]PassDescriptor {
    { Name: "inline"      , Desc: "Function Inlining"                 , Pass: new(Inline) },
    { Name: "constprop"   , Desc: "Constant Propagation"              , Pass: new(ConstProp) },
    { Name: "constfold"   , Desc: "Constant Folding"                  , Pass: new(ConstFold) },
    { Name: "instcombine" , Desc: "Instruction Combining"             , Pass: new(InstCombine) },
    { Name: "strength"    , Desc: "Strength Reduction"                , Pass: new(StrengthReduce) },
    { Name: "cse"         , Desc: "Common Sub-expression Elimination" , Pass: new(CSE) },
    { Name: "licm"        , Desc: "Loop Invariant Code Motion"        , Pass: new(LICM) },
    { Name: "unroll"      , Desc: "Loop Unrolling"                    , Pass: new(LoopUnroll) },
    { Name: "dse"         , Desc: "Dead Storage Elimination"          , Pass: new(DSE) },
    { Name: "dce"         , Desc: "Trivial Dead Code Elimination"     , Pass: new(TDCE) },
    { Name: "domtree"     , Desc: "Dominator Tree Analysis"           , Pass: new(DomTreeInfo) },
    { Name: "callcount"   , Desc: "Static Call Counter"               , Pass: new(CallCounter) },
}

// DefaultPipeline is the pass sequence used by ssaopt.Optimize.
var DefaultPipeline = [...]string {
    "inline",
    "constprop",
    "constfold",
    "instcombine",
    "strength",
    "cse",
    "licm",
    "unroll",
    "constfold",
    "instcombine",
    "cse",
    "dse",
    "dce",
    "dce",
}

// Lookup finds a pass by its short name.
func Lookup(name string) (PassDescriptor, bool) {
    for _, p := range Passes {
        if p.Name == name {
            return p, true
        }
    }
    return PassDescriptor{}, false
}

// Execute runs the passes in order and reports whether any of them changed the module.
func Execute(ctx *Context, m *ir.Module, passes []PassDescriptor) bool {
    ret := false
    for _, p := range passes {
        if p.Pass.Apply(ctx, m) {
            ret = true
        }
    }
    return ret
}

// applyFuncs runs a function pass over every defined function of m.
func applyFuncs(ctx *Context, m *ir.Module, name string, p FuncPass) bool {
    ret := false
    atomic.AddUint64(&PassCount, 1)

    /* declarations are opaque */
    for _, fn := range m.Functions() {
        if !fn.IsDeclaration() {
            if p.ApplyFunc(ctx, fn) {
                ret = true
            }
            ctx.verify(name, fn)
        }
    }

    /* all done */
    return ret
}
