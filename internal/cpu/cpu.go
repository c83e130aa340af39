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

package cpu

import (
    `runtime`

    `github.com/klauspost/cpuid/v2`
)

// WorkerCount is the number of workers the group dispatcher runs: the
// physical logical-core count when the CPU reports one, the runtime's view
// otherwise.
func WorkerCount() int {
    if n := cpuid.CPU.LogicalCores; n > 0 {
        return n
    }
    return runtime.NumCPU()
}
