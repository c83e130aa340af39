/*
 * Copyright 2025 Gopocl Authors
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

package gopocl

import (
    `fmt`
)

// ModuleError occurs when whole-module processing cannot proceed at all,
// such as a module without a kernel list.
type ModuleError struct {
    Note string
}

func (self ModuleError) Error() string {
    return "ModuleError: " + self.Note
}

// KernelError occurs when one kernel fails to compile or launch. Other
// kernels of the same module are unaffected.
type KernelError struct {
    Kernel string
    Reason error
}

func (self KernelError) Error() string {
    return fmt.Sprintf("KernelError(%s): %v", self.Kernel, self.Reason)
}

func (self KernelError) Unwrap() error {
    return self.Reason
}
