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
)

// Inline flattens every helper call reachable from the kernel body into one
// self-contained program. Helpers share the caller's register file, so
// inlining is pure control-flow splicing: the call site becomes a fall
// through into the callee copy, and every return of the copy becomes a jump
// to the continuation.
func Inline(mod *hir.Module, fn *hir.Function, maxDepth int) (hir.Program, error) {
    p := fn.Body.Clone()
    if err := inlineInto(mod, p, make(map[string]bool), maxDepth); err != nil {
        p.Free()
        return hir.Program{}, err
    }
    return p, nil
}

func inlineInto(mod *hir.Module, p hir.Program, active map[string]bool, depth int) error {
    for v := p.Head; v != nil; v = v.Ln {
        if v.Op != hir.OP_call {
            continue
        }

        /* the callee must exist, and must not be recursive */
        callee := mod.Funcs[v.Fn]
        if callee == nil {
            return fmt.Errorf("call to undefined function %q", v.Fn)
        }
        if active[v.Fn] {
            return fmt.Errorf("recursive helper %q cannot be inlined", v.Fn)
        }
        if depth == 1 {
            return fmt.Errorf("inline depth exceeded at call to %q", v.Fn)
        }

        /* inline the callee's own calls first */
        body := callee.Body.Clone()
        active[v.Fn] = true
        err := inlineInto(mod, body, active, depth - 1)
        delete(active, v.Fn)
        if err != nil {
            return err
        }

        /* every return of the copy jumps to the continuation; a call in
         * tail position keeps the halts as they are */
        cont := v.Ln
        tail := body.Head
        for q := body.Head; q != nil; q = q.Ln {
            if q.Op == hir.OP_halt && cont != nil {
                q.Op = hir.OP_jmp
                q.Br = cont
            }
            tail = q
        }

        /* splice the copy over the call site */
        v.Op = hir.OP_nop
        v.Fn = ""
        v.Ln = body.Head
        tail.Ln = cont
    }
    return nil
}
