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

// Loop is a natural loop with a single back edge, made of a header and at
// most one separate latch block.
type Loop struct {
    Header    *ir.Block
    Latch     *ir.Block
    Preheader *ir.Block
    Exits     []*ir.Block
}

func (self *Loop) IsSelfLoop() bool {
    return self.Header == self.Latch
}

func (self *Loop) Contains(bb *ir.Block) bool {
    return bb == self.Header || bb == self.Latch
}

func (self *Loop) Blocks() []*ir.Block {
    if self.IsSelfLoop() {
        return []*ir.Block { self.Header }
    } else {
        return []*ir.Block { self.Header, self.Latch }
    }
}

// Exit returns the first exit block, or nil.
func (self *Loop) Exit() *ir.Block {
    if len(self.Exits) == 0 {
        return nil
    } else {
        return self.Exits[0]
    }
}

// FindLoops recognizes the simple loops of a function. A loop qualifies when
// its header has exactly one back edge, the latch is either the header itself
// or a block that only goes back to the header, and exactly one predecessor of
// the header lies outside of the loop.
func FindLoops(dt *DominatorTree) []*Loop {
    var ret []*Loop
    latches := make(map[*ir.Block][]*ir.Block)

    /* group the back edges by header */
    for _, e := range dt.BackEdges() {
        latches[e.To] = append(latches[e.To], e.From)
    }

    /* check every header */
    for _, h := range dt.LoopHeaders() {
        if len(latches[h]) != 1 {
            continue
        }

        /* the latch must be trivial */
        lp := &Loop { Header: h, Latch: latches[h][0] }
        if !lp.IsSelfLoop() && !isTrivialLatch(lp.Latch, h) {
            continue
        }

        /* find the preheader */
        for _, p := range h.Preds() {
            if !lp.Contains(p) {
                if lp.Preheader != nil {
                    lp.Preheader = nil
                    break
                }
                lp.Preheader = p
            }
        }

        /* the preheader must be unique */
        if lp.Preheader == nil {
            continue
        }

        /* collect the exits */
        for _, bb := range lp.Blocks() {
            for _, s := range bb.Succs() {
                if !lp.Contains(s) && !containsBlock(lp.Exits, s) {
                    lp.Exits = append(lp.Exits, s)
                }
            }
        }

        /* add to the result */
        ret = append(ret, lp)
    }

    /* all done */
    return ret
}

func isTrivialLatch(bb *ir.Block, h *ir.Block) bool {
    preds := bb.Preds()
    succs := bb.Succs()
    return len(preds) == 1 && preds[0] == h && len(succs) == 1 && succs[0] == h
}
