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
    `math/bits`
)

// bitset is a dense set of block indices.
type bitset []uint64

func newBitset(n int) bitset {
    return make(bitset, (n + 63) / 64)
}

func (self bitset) set(i int) {
    x, y := i >> 6, i & 63
    self[x] |= 1 << y
}

func (self bitset) unset(i int) {
    x, y := i >> 6, i & 63
    self[x] &= ^(1 << y)
}

func (self bitset) test(i int) bool {
    x, y := i >> 6, i & 63
    return (self[x] & (1 << y)) != 0
}

// fill sets the first n bits.
func (self bitset) fill(n int) {
    for i := 0; i < n; i++ {
        self.set(i)
    }
}

func (self bitset) clone() bitset {
    return append(bitset(nil), self...)
}

func (self bitset) intersect(o bitset) {
    for i := range self {
        self[i] &= o[i]
    }
}

func (self bitset) equal(o bitset) bool {
    for i := range self {
        if self[i] != o[i] {
            return false
        }
    }
    return true
}

// subsetOf reports whether every bit set here is also set in o.
func (self bitset) subsetOf(o bitset) bool {
    for i := range self {
        if self[i] &^ o[i] != 0 {
            return false
        }
    }
    return true
}

func (self bitset) count() int {
    n := 0
    for _, w := range self {
        n += bits.OnesCount64(w)
    }
    return n
}

// each calls fn for every set bit in ascending order.
func (self bitset) each(fn func(i int)) {
    for x, w := range self {
        for w != 0 {
            y := bits.TrailingZeros64(w)
            fn(x << 6 | y)
            w &= w - 1
        }
    }
}
