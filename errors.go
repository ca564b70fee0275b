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
	"errors"
	"fmt"

	"github.com/cloudwego/ssaopt/ir"
)

// ErrUnknownPass is matched by every PassError.
var ErrUnknownPass = errors.New("unknown pass")

// VerifyError occures when the input module is malformed.
type VerifyError = ir.VerifyError

// PassError occures when a pipeline names a pass that does not exist.
type PassError struct {
	Name string
}

func (self PassError) Error() string {
	return fmt.Sprintf("PassError(%q): %s", self.Name, ErrUnknownPass)
}

func (self PassError) Unwrap() error {
	return ErrUnknownPass
}
