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

    `github.com/gopocl/gopocl/internal/opts`
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithLocalSize sets the work-group dimensions used for kernels that do not
// declare a size hint of their own. A declared hint always wins.
//
// The default value of this option is "1x1x1".
func WithLocalSize(x uint32, y uint32, z uint32) Option {
    if x == 0 || y == 0 || z == 0 {
        panic(fmt.Sprintf("gopocl: invalid local size: %dx%dx%d", x, y, z))
    } else {
        return func(o *opts.Options) { o.LocalSize = [3]uint32{x, y, z} }
    }
}

// WithMaxInlineDepth sets the maximum helper inlining depth.
//
// Set this option to "0" disables this limit, which means inlining
// everything. Kernels that exceed the limit fail to compile.
//
// This value can also be configured with the `GOPOCL_MAX_INLINE_DEPTH`
// environment variable.
//
// The default value of this option is "8".
func WithMaxInlineDepth(depth int) Option {
    if depth < 0 {
        panic(fmt.Sprintf("gopocl: invalid inline depth: %d", depth))
    } else {
        return func(o *opts.Options) { o.MaxInlineDepth = depth }
    }
}

// WithKernels restricts compilation to the named kernels. Names not present
// in the module's kernel list are ignored.
func WithKernels(names ...string) Option {
    return func(o *opts.Options) { o.Kernels = append(o.Kernels, names...) }
}
