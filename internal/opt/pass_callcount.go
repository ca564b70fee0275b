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

    `golang.org/x/exp/maps`
    `golang.org/x/exp/slices`
    `github.com/cloudwego/ssaopt/ir`
)

// CallCounter reports the number of direct call sites of every function.
// It never changes the module.
type CallCounter struct{}

// Count returns the number of direct call sites per callee name.
func (CallCounter) Count(m *ir.Module) map[string]int {
    ret := make(map[string]int)
    for fn, node := range BuildCallGraph(m).Nodes {
        if node.Calls != 0 {
            ret[fn.Name] = node.Calls
        }
    }
    return ret
}

func (self CallCounter) Apply(ctx *Context, m *ir.Module) bool {
    nb := self.Count(m)
    atomic.AddUint64(&PassCount, 1)

    /* report in name order */
    keys := maps.Keys(nb)
    slices.Sort(keys)

    /* one line per callee */
    for _, name := range keys {
        ctx.logf("callcount", m.Function(name), "%d direct call sites", nb[name])
    }

    /* analysis only */
    return false
}
