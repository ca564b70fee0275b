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

type _DFSFrame struct {
    bb   *ir.Block
    succ []*ir.Block
    next int
}

// reversePostOrder returns the blocks reachable from the entry in reverse post-order.
func reversePostOrder(fn *ir.Function) []*ir.Block {
    var post []*ir.Block
    root := fn.Entry()
    seen := map[*ir.Block]bool { root: true }

    /* iterative DFS */
    st := lane.NewStack()
    st.Push(&_DFSFrame { bb: root, succ: root.Succs() })

    /* walk until the stack drains */
    for !st.Empty() {
        fr := st.Head().(*_DFSFrame)

        /* all successors visited */
        if fr.next == len(fr.succ) {
            st.Pop()
            post = append(post, fr.bb)
            continue
        }

        /* descend into the next successor */
        bb := fr.succ[fr.next]
        fr.next++

        /* visit each block once */
        if !seen[bb] {
            seen[bb] = true
            st.Push(&_DFSFrame { bb: bb, succ: bb.Succs() })
        }
    }

    /* reverse the post-order */
    for i, j := 0, len(post) - 1; i < j; i, j = i + 1, j - 1 {
        post[i], post[j] = post[j], post[i]
    }

    /* all done */
    return post
}

// predecessors computes the predecessor lists of every block in one scan.
func predecessors(fn *ir.Function) map[*ir.Block][]*ir.Block {
    ret := make(map[*ir.Block][]*ir.Block, fn.NumBlocks())
    for _, bb := range fn.Blocks() {
        for _, succ := range bb.Succs() {
            ret[succ] = append(ret[succ], bb)
        }
    }
    return ret
}
