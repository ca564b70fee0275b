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

package ssaopt

import (
	"fmt"
	"io"

	"github.com/cloudwego/ssaopt/internal/opts"
)

// Option is ssaopt configuration option.
type Option func(*opts.Options)

func positive(name string, v int) {
	if v < 1 {
		panic(fmt.Sprintf("ssaopt: invalid %s: %d", name, v))
	}
}

// WithMaxUnrollCount sets the maximum trip count of a fully unrolled loop.
func WithMaxUnrollCount(count int) Option {
	positive("unroll count", count)
	return func(o *opts.Options) { o.MaxUnrollCount = count }
}

// WithUnrollSizeThreshold sets the maximum size of a loop body after full unrolling.
func WithUnrollSizeThreshold(size int) Option {
	positive("unroll size threshold", size)
	return func(o *opts.Options) { o.UnrollSizeThreshold = size }
}

// WithMaxInlineSize sets the size limit of callees eligible for inlining.
// Callees of at most 10 instructions are always inlined regardless of this value.
func WithMaxInlineSize(size int) Option {
	positive("inline size", size)
	return func(o *opts.Options) { o.MaxInlineSize = size }
}

// WithMaxInlineDepth sets the maximum number of inlining rounds.
func WithMaxInlineDepth(depth int) Option {
	positive("inline depth", depth)
	return func(o *opts.Options) { o.MaxInlineDepth = depth }
}

// WithMaxDSERounds sets the maximum number of dead store elimination rounds.
func WithMaxDSERounds(rounds int) Option {
	positive("DSE rounds", rounds)
	return func(o *opts.Options) { o.MaxDSERounds = rounds }
}

// WithVerify enables or disables IR verification before and after each pass.
func WithVerify(verify bool) Option {
	return func(o *opts.Options) { o.Verify = verify }
}

// WithDebug enables dumping internal analysis results into the report.
func WithDebug(debug bool) Option {
	return func(o *opts.Options) { o.Debug = debug }
}

// WithReport sets the writer that receives the per-pass report lines.
func WithReport(w io.Writer) Option {
	if w == nil {
		w = io.Discard
	}
	return func(o *opts.Options) { o.Report = w }
}

// SetMaxUnrollCount sets the default maximum unroll count, and returns the old value.
//
// The default value of this option can also be set via the `SSAOPT_MAX_UNROLL_COUNT` environment variable.
func SetMaxUnrollCount(count int) int {
	positive("unroll count", count)
	count, opts.MaxUnrollCount = opts.MaxUnrollCount, count
	return count
}

// SetUnrollSizeThreshold sets the default unroll size threshold, and returns the old value.
//
// The default value of this option can also be set via the `SSAOPT_UNROLL_SIZE_THRESHOLD` environment variable.
func SetUnrollSizeThreshold(size int) int {
	positive("unroll size threshold", size)
	size, opts.UnrollSizeThreshold = opts.UnrollSizeThreshold, size
	return size
}

// SetMaxInlineSize sets the default inline size limit, and returns the old value.
//
// The default value of this option can also be set via the `SSAOPT_MAX_INLINE_SIZE` environment variable.
func SetMaxInlineSize(size int) int {
	positive("inline size", size)
	size, opts.MaxInlineSize = opts.MaxInlineSize, size
	return size
}

// SetMaxInlineDepth sets the default inline depth, and returns the old value.
//
// The default value of this option can also be set via the `SSAOPT_MAX_INLINE_DEPTH` environment variable.
func SetMaxInlineDepth(depth int) int {
	positive("inline depth", depth)
	depth, opts.MaxInlineDepth = opts.MaxInlineDepth, depth
	return depth
}

// SetMaxDSERounds sets the default number of DSE rounds, and returns the old value.
//
// The default value of this option can also be set via the `SSAOPT_MAX_DSE_ROUNDS` environment variable.
func SetMaxDSERounds(rounds int) int {
	positive("DSE rounds", rounds)
	rounds, opts.MaxDSERounds = opts.MaxDSERounds, rounds
	return rounds
}
