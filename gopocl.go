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

// Package gopocl compiles single-item kernels into work-group functions: the
// kernel body is flattened, split at barriers, and unrolled once per item of
// the work-group, so the result runs a whole group to completion on one
// plain call, with no fibers or per-item stacks at run time.
package gopocl

import (
    `io`

    `github.com/gopocl/gopocl/internal/hir`
    `github.com/gopocl/gopocl/internal/opts`
    `github.com/gopocl/gopocl/internal/rt`
    `github.com/gopocl/gopocl/internal/wgc`
)

// Re-exported runtime types: the launch surface of a compiled module.
type (
    Value       = rt.Value
    Grid        = rt.Grid
    PoclContext = rt.PoclContext
    Kernel      = rt.CompiledKernel
    WorkgroupFn = rt.WorkgroupFn
)

// CompiledModule holds the per-kernel results of one Compile call. A kernel
// that failed keeps its fault here without affecting its siblings.
type CompiledModule struct {
    order   []string
    metas   map[string]*wgc.Kernel
    faults  map[string]error
    kernels map[string]*rt.CompiledKernel
}

// Compile processes every kernel named by the module's kernel list. The list
// itself is required; a kernel that fails to compile is recorded as a fault
// and the remaining kernels still compile.
func Compile(mod *hir.Module, options ...Option) (*CompiledModule, error) {
    o := opts.GetDefaultOptions()
    for _, fn := range options {
        fn(&o)
    }

    /* the kernel list is the one piece of metadata that cannot default */
    if mod == nil || len(mod.Kernels) == 0 {
        return nil, ModuleError { Note: "module carries no kernel list" }
    }

    ret := &CompiledModule {
        metas   : make(map[string]*wgc.Kernel),
        faults  : make(map[string]error),
        kernels : make(map[string]*rt.CompiledKernel),
    }

    /* compile each selected kernel independently */
    for _, name := range mod.Kernels {
        if !o.WantKernel(name) {
            continue
        }
        k, err := wgc.CompileKernel(mod, name, o)
        if err != nil {
            ret.faults[name] = KernelError { Kernel: name, Reason: err }
            continue
        }
        ck, err := rt.NewCompiledKernel(k)
        if err != nil {
            ret.faults[name] = KernelError { Kernel: name, Reason: err }
            continue
        }
        ret.order = append(ret.order, name)
        ret.metas[name] = k
        ret.kernels[name] = ck
    }
    return ret, nil
}

// Kernel returns the compiled form of one kernel, or the fault that stopped
// it from compiling.
func (self *CompiledModule) Kernel(name string) (*Kernel, error) {
    if ck, ok := self.kernels[name]; ok {
        return ck, nil
    }
    if err, ok := self.faults[name]; ok {
        return nil, err
    }
    return nil, KernelError { Kernel: name, Reason: ModuleError { Note: "kernel was not compiled" } }
}

// Kernels lists the successfully compiled kernels in kernel list order.
func (self *CompiledModule) Kernels() []string {
    return append([]string(nil), self.order...)
}

// Faults maps each failed kernel to its compile error.
func (self *CompiledModule) Faults() map[string]error {
    ret := make(map[string]error, len(self.faults))
    for k, v := range self.faults {
        ret[k] = v
    }
    return ret
}

// EmitHeader writes the host-side stub defines of every compiled kernel, in
// kernel list order.
func (self *CompiledModule) EmitHeader(w io.Writer) error {
    for _, name := range self.order {
        if err := wgc.WriteDefines(w, self.metas[name]); err != nil {
            return err
        }
    }
    return nil
}

// Launch runs one kernel over the grid and blocks until every group is done.
func (self *CompiledModule) Launch(name string, g Grid, argv []Value) error {
    ck, err := self.Kernel(name)
    if err != nil {
        return err
    }
    if err := rt.Dispatch(g, ck.Workgroup(), argv); err != nil {
        return KernelError { Kernel: name, Reason: err }
    }
    return nil
}
