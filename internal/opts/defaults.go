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
	"os"
	"strconv"
)

const (
	_DefaultMaxUnrollCount      = 8   // fully unroll loops of at most 8 iterations
	_DefaultUnrollSizeThreshold = 32  // cutoff at 32 instructions after unrolling
	_DefaultMaxInlineSize       = 100 // cutoff at callees of 100 weighted instructions
	_DefaultMaxInlineDepth      = 5   // cutoff at 5 levels of nested inlining
	_DefaultMaxDSERounds        = 5   // dead storage elimination rounds per function
)

var (
	MaxUnrollCount      = parseOrDefault("SSAOPT_MAX_UNROLL_COUNT", _DefaultMaxUnrollCount, 1)
	UnrollSizeThreshold = parseOrDefault("SSAOPT_UNROLL_SIZE_THRESHOLD", _DefaultUnrollSizeThreshold, 1)
	MaxInlineSize       = parseOrDefault("SSAOPT_MAX_INLINE_SIZE", _DefaultMaxInlineSize, 1)
	MaxInlineDepth      = parseOrDefault("SSAOPT_MAX_INLINE_DEPTH", _DefaultMaxInlineDepth, 1)
	MaxDSERounds        = parseOrDefault("SSAOPT_MAX_DSE_ROUNDS", _DefaultMaxDSERounds, 1)
)

func parseOrDefault(key string, def int, min int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseUint(env, 0, 64); err != nil {
		panic("ssaopt: invalid value for " + key)
	} else if ret := int(val); ret < min {
		panic("ssaopt: value too small for " + key)
	} else {
		return ret
	}
}
