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

package rt

import (
    `fmt`
    `unsafe`

    `github.com/gopocl/gopocl/internal/emu`
    `github.com/gopocl/gopocl/internal/hir`
    `github.com/gopocl/gopocl/internal/wgc`
)

// Value is one untyped argument cell of the uniform work-group ABI. Scalar
// arguments live in U, buffer arguments in P.
type Value = emu.Value

// WorkgroupFn executes one work-group: argv must match the kernel's declared
// parameters one to one, ctx tells the body where in the grid it runs.
type WorkgroupFn func(ctx *PoclContext, argv []Value)

// CompiledKernel binds a work-group program to the launch machinery.
type CompiledKernel struct {
    meta *wgc.Kernel
}

func NewCompiledKernel(meta *wgc.Kernel) (*CompiledKernel, error) {
    if len(meta.Params) + len(meta.Locals) + 1 > emu.MaxArgs {
        return nil, fmt.Errorf("kernel %q: %d argument slots exceed the limit of %d",
            meta.Name, len(meta.Params) + len(meta.Locals) + 1, emu.MaxArgs)
    }
    for i, n := range meta.Locals {
        if n < 0 {
            return nil, fmt.Errorf("kernel %q: local buffer %d has negative size %d", meta.Name, i, n)
        }
    }
    return &CompiledKernel { meta: meta }, nil
}

func (self *CompiledKernel) Name() string          { return self.meta.Name }
func (self *CompiledKernel) Params() []hir.Param   { return self.meta.Params }
func (self *CompiledKernel) LocalSize() hir.LocalSize { return self.meta.Ls }
func (self *CompiledKernel) Locals() []int64       { return self.meta.Locals }

// Workgroup returns the launcher for one group. Every call allocates fresh
// group-shared buffers, so concurrent groups never share local memory, and
// scalar arguments are narrowed to their declared width before the body sees
// them.
func (self *CompiledKernel) Workgroup() WorkgroupFn {
    return func(ctx *PoclContext, argv []Value) {
        if len(argv) != len(self.meta.Params) {
            panic(fmt.Sprintf("kernel %q takes %d arguments, got %d", self.meta.Name, len(self.meta.Params), len(argv)))
        }

        /* declared parameters */
        e := emu.LoadProgram(self.meta.Prog, self.meta.Ls)
        for i, p := range self.meta.Params {
            switch p.Kind {
                case hir.KindI8  : e.Au(i, uint64(int8(argv[i].U)))
                case hir.KindI16 : e.Au(i, uint64(int16(argv[i].U)))
                case hir.KindI32 : e.Au(i, uint64(int32(argv[i].U)))
                case hir.KindI64 : e.Au(i, argv[i].U)
                case hir.KindPtr : e.Ap(i, argv[i].P)
            }
        }

        /* group-shared buffers, then the context in the trailing slot */
        base := len(self.meta.Params)
        for j, n := range self.meta.Locals {
            if n == 0 {
                e.Ap(base + j, nil)
                continue
            }
            buf := make([]byte, n)
            e.Ap(base + j, unsafe.Pointer(&buf[0]))
        }
        e.Ap(base + len(self.meta.Locals), unsafe.Pointer(ctx))

        /* run the group to completion */
        e.Run()
        e.Free()
    }
}
