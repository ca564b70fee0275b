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

package opts

import (
	"io"
)

type Options struct {
	MaxUnrollCount      int
	UnrollSizeThreshold int
	MaxInlineSize       int
	MaxInlineDepth      int
	MaxDSERounds        int
	Verify              bool
	Debug               bool
	Report              io.Writer
}

// CanUnroll reports whether a loop of the given trip count and body size may be fully unrolled.
func (self *Options) CanUnroll(trips int, size int) bool {
	return trips > 0 && trips <= self.MaxUnrollCount && size*trips <= self.UnrollSizeThreshold
}

// CanInline reports whether a callee of the given size may be inlined at the given nesting depth.
func (self *Options) CanInline(depth int, size int) bool {
	return depth < self.MaxInlineDepth && size <= self.MaxInlineSize
}

func GetDefaultOptions() Options {
	return Options{
		MaxUnrollCount:      MaxUnrollCount,
		UnrollSizeThreshold: UnrollSizeThreshold,
		MaxInlineSize:       MaxInlineSize,
		MaxInlineDepth:      MaxInlineDepth,
		MaxDSERounds:        MaxDSERounds,
		Verify:              true,
		Report:              io.Discard,
	}
}
