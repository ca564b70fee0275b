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

package debug

import (
	"sync/atomic"

	"github.com/cloudwego/ssaopt/internal/opt"
)

// A Stats records cumulative statistics about the optimizer.
type Stats struct {
	Passes   int
	Removed  int
	Folded   int
	Combined int
	Hoisted  int
	Unrolled int
	Inlined  int
}

// GetStats returns statistics of the optimizer since the process started.
func GetStats() Stats {
	return Stats{
		Passes:   int(atomic.LoadUint64(&opt.PassCount)),
		Removed:  int(atomic.LoadUint64(&opt.RemovedCount)),
		Folded:   int(atomic.LoadUint64(&opt.FoldedCount)),
		Combined: int(atomic.LoadUint64(&opt.CombinedCount)),
		Hoisted:  int(atomic.LoadUint64(&opt.HoistedCount)),
		Unrolled: int(atomic.LoadUint64(&opt.UnrolledCount)),
		Inlined:  int(atomic.LoadUint64(&opt.InlinedCount)),
	}
}
