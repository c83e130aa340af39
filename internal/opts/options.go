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

package opts

type Options struct {
    LocalSize      [3]uint32
    MaxInlineDepth int
    Kernels        []string
}

// WantKernel reports whether a kernel was selected for compilation. An empty
// selection means every kernel in the module.
func (self *Options) WantKernel(name string) bool {
    if len(self.Kernels) == 0 {
        return true
    }
    for _, k := range self.Kernels {
        if k == name {
            return true
        }
    }
    return false
}

func GetDefaultOptions() Options {
    return Options {
        LocalSize      : [3]uint32{1, 1, 1},
        MaxInlineDepth : MaxInlineDepth,
    }
}
