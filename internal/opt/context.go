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
    `fmt`
    `io`

    `github.com/davecgh/go-spew/spew`
    `github.com/cloudwego/ssaopt/internal/opts`
    `github.com/cloudwego/ssaopt/ir`
)

var _Dumper = spew.ConfigState {
    Indent                  : "    ",
    SortKeys                : true,
    DisableCapacities       : true,
    DisablePointerAddresses : true,
}

// Context carries the options of one optimizer run.
type Context struct {
    opts.Options
}

func NewContext(o opts.Options) *Context {
    if o.Report == nil {
        o.Report = io.Discard
    }
    return &Context { o }
}

// logf writes one report line for a pass over a function.
func (self *Context) logf(pass string, fn *ir.Function, msg string, args ...interface{}) {
    fmt.Fprintf(self.Report, "%s: @%s: %s\n", pass, fn.Name, fmt.Sprintf(msg, args...))
}

// dump writes a structural dump of v when debugging is enabled.
func (self *Context) dump(title string, v interface{}) {
    if self.Debug {
        fmt.Fprintf(self.Report, "%s:\n%s", title, _Dumper.Sdump(v))
    }
}

// verify checks fn after a pass touched it; a broken function is a bug in the pass.
func (self *Context) verify(pass string, fn *ir.Function) {
    if self.Verify {
        if err := ir.Verify(fn); err != nil {
            panic(pass + ": broken IR: " + err.Error())
        }
    }
}
