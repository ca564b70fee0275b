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

package ir

// ValueMap maps original values to their replacements.
type ValueMap map[Value]Value

// BlockMap maps original blocks to their replacements.
type BlockMap map[*Block]*Block

// Lookup returns the replacement of v, or v itself.
func (self ValueMap) Lookup(v Value) Value {
    if nv, ok := self[v]; ok {
        return nv
    } else {
        return v
    }
}

// Lookup returns the replacement of bb, or bb itself.
func (self BlockMap) Lookup(bb *Block) *Block {
    if nb, ok := self[bb]; ok {
        return nb
    } else {
        return bb
    }
}

// Clone returns a detached copy of ins, with operands and block references
// remapped through vm and bm. Either map may be nil.
func Clone(ins *Instr, vm ValueMap, bm BlockMap) *Instr {
    ret := &Instr {
        Op    : ins.Op,
        Ty    : ins.Ty,
        Pred  : ins.Pred,
        Flags : ins.Flags,
        Elem  : ins.Elem,
    }

    /* remap the operands */
    for _, v := range ins.ops {
        ret.appendOperand(vm.Lookup(v))
    }

    /* remap the blocks */
    for _, bb := range ins.blocks {
        ret.blocks = append(ret.blocks, bm.Lookup(bb))
    }

    /* all done */
    return ret
}
