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

package wgc

import (
    `fmt`

    `github.com/gopocl/gopocl/internal/hir`
    `github.com/gopocl/gopocl/internal/opts`
)

type Pass interface {
    Apply(*CFG) error
}

type PassDescriptor struct {
    Pass Pass
    Name string
}

var Passes = [...]PassDescriptor {
    { Name: "Barrier Splitting"     , Pass: SplitBarriers{} },
    { Name: "Loop Verification"     , Pass: VerifyLoops{}   },
    { Name: "Region Splitting"      , Pass: SplitRegions{}  },
    { Name: "Work-Item Replication" , Pass: Replicate{}     },
}

func executePasses(cfg *CFG) error {
    for _, p := range Passes {
        if err := p.Pass.Apply(cfg); err != nil {
            return fmt.Errorf("%s: %w", p.Name, err)
        }
    }
    return nil
}

// Kernel is the result of compiling one kernel function: the flattened
// work-group body with every work-item unrolled, plus the metadata the
// runtime needs to bind arguments and size group-shared buffers.
type Kernel struct {
    Name   string
    Ls     hir.LocalSize
    Prog   hir.Program
    Params []hir.Param
    Locals []int64
}

// CompileKernel turns a single-item kernel function into its work-group
// form. The local size comes from the kernel's declared size hint when the
// module carries one, and from the options otherwise.
func CompileKernel(mod *hir.Module, name string, o opts.Options) (*Kernel, error) {
    fn := mod.Funcs[name]
    if fn == nil {
        return nil, fmt.Errorf("kernel %q is not defined in the module", name)
    }

    /* resolve the work-group dimensions */
    ls, ok := mod.WGSizes[name]
    if !ok {
        ls = hir.LocalSize(o.LocalSize)
    }
    if ls.Volume() == 0 {
        return nil, fmt.Errorf("local size %s has zero volume", ls)
    }

    /* flatten helper calls, then transform the control flow */
    p, err := Inline(mod, fn, o.MaxInlineDepth)
    if err != nil {
        return nil, err
    }

    /* the graph copies every instruction, the inlined body can go */
    cfg := BuildCFG(name, ls, p)
    p.Free()

    if err := executePasses(cfg); err != nil {
        return nil, err
    }

    /* pointer parameters carry the no-overlap contract */
    params := make([]hir.Param, len(fn.Params))
    for i, v := range fn.Params {
        params[i] = v
        params[i].NoAlias = v.Kind == hir.KindPtr
    }

    return &Kernel {
        Name   : name,
        Ls     : ls,
        Prog   : Linearize(cfg),
        Params : params,
        Locals : mod.Locals[name],
    }, nil
}
