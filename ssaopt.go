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

// Package ssaopt is a pass-based optimizer for a small SSA intermediate
// representation. Modules are built with package ir and rewritten in place.
package ssaopt

import (
	"github.com/cloudwego/ssaopt/internal/opt"
	"github.com/cloudwego/ssaopt/internal/opts"
	"github.com/cloudwego/ssaopt/ir"
)

// Optimize runs the default pipeline over m, and reports whether the module changed.
//
// When verification is enabled (the default), m is checked before any pass
// runs, and a malformed module is rejected with a VerifyError.
func Optimize(m *ir.Module, options ...Option) (bool, error) {
	return Run(m, opt.DefaultPipeline[:], options...)
}

// Run applies the named passes to m, in the order given.
// A pass may appear more than once.
func Run(m *ir.Module, passes []string, options ...Option) (bool, error) {
	var err error
	var ps []opt.PassDescriptor

	/* resolve the passes first, nothing is touched on failure */
	if ps, err = resolve(passes); err != nil {
		return false, err
	}

	/* apply the options over the defaults */
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}

	/* reject malformed input up front */
	if o.Verify {
		if err = ir.VerifyModule(m); err != nil {
			return false, err
		}
	}

	/* run the pipeline */
	return opt.Execute(opt.NewContext(o), m, ps), nil
}

// Passes returns the names of all available passes.
func Passes() []string {
	ret := make([]string, 0, len(opt.Passes))
	for _, p := range opt.Passes {
		ret = append(ret, p.Name)
	}
	return ret
}

// DefaultPipeline returns the pass sequence used by Optimize.
func DefaultPipeline() []string {
	return append([]string(nil), opt.DefaultPipeline[:]...)
}

func resolve(names []string) ([]opt.PassDescriptor, error) {
	ret := make([]opt.PassDescriptor, 0, len(names))
	for _, name := range names {
		if p, ok := opt.Lookup(name); !ok {
			return nil, PassError{Name: name}
		} else {
			ret = append(ret, p)
		}
	}
	return ret, nil
}
