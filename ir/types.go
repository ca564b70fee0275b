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

import (
    `fmt`
)

type Kind uint8

const (
    K_void Kind = iota
    K_int
    K_ptr
)

// Type is the type of an IR value. Types are comparable with ==.
type Type struct {
    Kind Kind
    Bits uint8
}

var (
    Void = Type { Kind: K_void }
    I1   = Type { Kind: K_int, Bits: 1 }
    I8   = Type { Kind: K_int, Bits: 8 }
    I16  = Type { Kind: K_int, Bits: 16 }
    I32  = Type { Kind: K_int, Bits: 32 }
    I64  = Type { Kind: K_int, Bits: 64 }
    Ptr  = Type { Kind: K_ptr, Bits: 64 }
)

// Int returns the integer type of the given bit width.
func Int(bits int) Type {
    if bits <= 0 || bits > 64 {
        panic(fmt.Sprintf("ir: invalid integer width: %d", bits))
    } else {
        return Type { Kind: K_int, Bits: uint8(bits) }
    }
}

func (self Type) IsInt() bool  { return self.Kind == K_int }
func (self Type) IsPtr() bool  { return self.Kind == K_ptr }
func (self Type) IsVoid() bool { return self.Kind == K_void }

// Width returns the bit width of the type, 0 for void.
func (self Type) Width() int {
    return int(self.Bits)
}

// Mask returns the bit mask that covers the type width.
func (self Type) Mask() uint64 {
    if self.Bits >= 64 {
        return ^uint64(0)
    } else {
        return (1 << self.Bits) - 1
    }
}

// MinInt and MaxInt are the signed range of an integer type.
func (self Type) MinInt() int64 { return -1 << (self.Bits - 1) }
func (self Type) MaxInt() int64 { return int64(self.Mask() >> 1) }

// Sext truncates v to the type width and sign-extends it back to 64 bits,
// which is the canonical form of every integer constant.
func (self Type) Sext(v int64) int64 {
    if self.Bits >= 64 || self.Bits == 0 {
        return v
    } else {
        s := 64 - uint(self.Bits)
        return (v << s) >> s
    }
}

// Zext truncates v to the type width, as an unsigned value.
func (self Type) Zext(v int64) uint64 {
    return uint64(v) & self.Mask()
}

func (self Type) String() string {
    switch self.Kind {
        case K_void : return "void"
        case K_int  : return fmt.Sprintf("i%d", self.Bits)
        case K_ptr  : return "ptr"
        default     : panic("unreachable")
    }
}
