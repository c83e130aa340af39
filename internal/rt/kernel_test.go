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
    `testing`
    `unsafe`

    `github.com/gopocl/gopocl/internal/emu`
    `github.com/gopocl/gopocl/internal/hir`
    `github.com/gopocl/gopocl/internal/opts`
    `github.com/gopocl/gopocl/internal/wgc`
    `github.com/stretchr/testify/require`
)

func testKernel(t *testing.T, ls hir.LocalSize, params []hir.Param, locals []int64, build func(p *hir.Builder)) *CompiledKernel {
    t.Helper()
    pb := hir.CreateBuilder()
    build(pb)
    mod := hir.NewModule()
    mod.AddKernel("k", params, pb.Build())
    pb.Free()
    mod.SetWGSize("k", ls)
    mod.SetLocals("k", locals)

    k, err := wgc.CompileKernel(mod, "k", opts.GetDefaultOptions())
    require.NoError(t, err)
    ck, err := NewCompiledKernel(k)
    require.NoError(t, err)
    return ck
}

func TestCompiledKernel_GlobalIds(t *testing.T) {
    out := [8]int64{}
    ck := testKernel(t, hir.LocalSize{2, 1, 1}, []hir.Param {{ Kind: hir.KindPtr }}, nil, func(p *hir.Builder) {
        p.LDAP(0, hir.P0)                   // out
        p.LDAP(1, hir.P1)                   // context
        p.LL(hir.P1, CtxOffGroupID, hir.R0) // group_id[0]
        p.LSIZ(0, hir.R1)
        p.MUL(hir.R0, hir.R1, hir.R2)
        p.LIDX(0, hir.R3)
        p.ADD(hir.R2, hir.R3, hir.R4)       // global id
        p.SHLI(hir.R4, 3, hir.R5)
        p.ADDP(hir.P0, hir.R5, hir.P2)
        p.SQ(hir.R4, hir.P2, 0)
        p.HALT()
    })

    g := Grid { WorkDim: 1, NumGroups: [3]uint32{4, 1, 1} }
    err := Dispatch(g, ck.Workgroup(), []Value {{ P: unsafe.Pointer(&out) }})
    require.NoError(t, err)
    for i := range out {
        require.EqualValues(t, i, out[i])
    }
}

func TestCompiledKernel_LocalMemory(t *testing.T) {
    out := [4]int64{}
    ck := testKernel(t, hir.LocalSize{2, 1, 1}, []hir.Param {{ Kind: hir.KindPtr }}, []int64{16}, func(p *hir.Builder) {
        p.LDAP(0, hir.P0)                   // out
        p.LDAP(1, hir.P1)                   // group-shared scratch
        p.LDAP(2, hir.P3)                   // context

        /* scratch[x] = x + 1 */
        p.LIDX(0, hir.R0)
        p.SHLI(hir.R0, 3, hir.R1)
        p.ADDP(hir.P1, hir.R1, hir.P2)
        p.ADDI(hir.R0, 1, hir.R2)
        p.SQ(hir.R2, hir.P2, 0)
        p.BARRIER()

        /* out[g*2 + x] = scratch[(x + 1) % 2] */
        p.ADDI(hir.R0, 1, hir.R3)
        p.ANDI(hir.R3, 1, hir.R3)
        p.SHLI(hir.R3, 3, hir.R4)
        p.ADDP(hir.P1, hir.R4, hir.P2)
        p.LQ(hir.P2, 0, hir.R5)
        p.LL(hir.P3, CtxOffGroupID, hir.R6)
        p.SHLI(hir.R6, 1, hir.R7)
        p.ADD(hir.R7, hir.R0, hir.R7)
        p.SHLI(hir.R7, 3, hir.R7)
        p.ADDP(hir.P0, hir.R7, hir.P2)
        p.SQ(hir.R5, hir.P2, 0)
        p.HALT()
    })
    require.Equal(t, []int64{16}, ck.Locals())

    /* two concurrent groups, each with a private scratch buffer */
    g := Grid { WorkDim: 1, NumGroups: [3]uint32{2, 1, 1} }
    err := Dispatch(g, ck.Workgroup(), []Value {{ P: unsafe.Pointer(&out) }})
    require.NoError(t, err)
    require.Equal(t, [4]int64{2, 1, 2, 1}, out)
}

func TestCompiledKernel_ScalarNarrowing(t *testing.T) {
    var out int64
    params := []hir.Param {
        { Kind: hir.KindI8 },
        { Kind: hir.KindPtr },
    }
    ck := testKernel(t, hir.LocalSize{1, 1, 1}, params, nil, func(p *hir.Builder) {
        p.LDAQ(0, hir.R0)
        p.LDAP(1, hir.P0)
        p.SQ(hir.R0, hir.P0, 0)
        p.HALT()
    })

    fn := ck.Workgroup()
    fn(&PoclContext{ WorkDim: 1, NumGroups: [3]uint32{1, 1, 1} }, []Value {
        { U: 300 },
        { P: unsafe.Pointer(&out) },
    })
    require.EqualValues(t, int8(44), out)
}

func TestCompiledKernel_ArgcMismatch(t *testing.T) {
    ck := testKernel(t, hir.LocalSize{1, 1, 1}, []hir.Param {{ Kind: hir.KindPtr }}, nil, func(p *hir.Builder) {
        p.HALT()
    })
    fn := ck.Workgroup()
    require.Panics(t, func() { fn(&PoclContext{}, nil) })
}

func TestCompiledKernel_ZeroSizedLocal(t *testing.T) {
    var out int64
    ck := testKernel(t, hir.LocalSize{1, 1, 1}, []hir.Param {{ Kind: hir.KindPtr }}, []int64{0}, func(p *hir.Builder) {
        p.LDAP(0, hir.P0)
        p.IQ(9, hir.R0)
        p.SQ(hir.R0, hir.P0, 0)
        p.HALT()
    })
    require.Equal(t, []int64{0}, ck.Locals())

    /* an empty scratch declaration gets an empty slot, not a crash */
    fn := ck.Workgroup()
    fn(&PoclContext{ WorkDim: 1, NumGroups: [3]uint32{1, 1, 1} }, []Value {
        { P: unsafe.Pointer(&out) },
    })
    require.EqualValues(t, 9, out)
}

func TestNewCompiledKernel_NegativeLocal(t *testing.T) {
    _, err := NewCompiledKernel(&wgc.Kernel {
        Name   : "neg",
        Locals : []int64{-8},
    })
    require.Error(t, err)
    require.Contains(t, err.Error(), "negative size")
}

func TestNewCompiledKernel_TooManyArgs(t *testing.T) {
    _, err := NewCompiledKernel(&wgc.Kernel {
        Name   : "big",
        Params : make([]hir.Param, emu.MaxArgs),
    })
    require.Error(t, err)
}
