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
    `bytes`
    `os`
    `path/filepath`
    `strings`
    `testing`
    `unsafe`

    `github.com/gopocl/gopocl/internal/emu`
    `github.com/gopocl/gopocl/internal/hir`
    `github.com/gopocl/gopocl/internal/opts`
    `github.com/stretchr/testify/require`
)

func testCompile(t *testing.T, ls hir.LocalSize, params []hir.Param, build func(p *hir.Builder)) (*Kernel, error) {
    t.Helper()
    mod := hir.NewModule()
    mod.AddKernel("k", params, buildProgram(build))
    mod.SetWGSize("k", ls)
    return CompileKernel(mod, "k", opts.GetDefaultOptions())
}

func runCompiled(k *Kernel, init func(e *emu.Emulator)) {
    e := emu.LoadProgram(k.Prog, k.Ls)
    init(e)
    e.Run()
    e.Free()
}

var ptrParams = []hir.Param {
    { Kind: hir.KindPtr },
    { Kind: hir.KindPtr },
}

func TestCompile_RotateAcrossBarrier(t *testing.T) {
    k, err := testCompile(t, hir.LocalSize{4, 1, 1}, ptrParams, func(p *hir.Builder) {
        p.LDAP(0, hir.P0)       // buf
        p.LDAP(1, hir.P1)       // out
        p.LIDX(0, hir.R0)
        p.SHLI(hir.R0, 3, hir.R1)
        p.ADDP(hir.P0, hir.R1, hir.P2)
        p.SQ(hir.R0, hir.P2, 0) // buf[x] = x
        p.BARRIER()
        p.ADDI(hir.R0, 1, hir.R2)
        p.ANDI(hir.R2, 3, hir.R2)
        p.SHLI(hir.R2, 3, hir.R3)
        p.ADDP(hir.P0, hir.R3, hir.P2)
        p.LQ(hir.P2, 0, hir.R4) // buf[(x + 1) % 4]
        p.SHLI(hir.R0, 3, hir.R1)
        p.ADDP(hir.P1, hir.R1, hir.P2)
        p.SQ(hir.R4, hir.P2, 0) // out[x]
        p.HALT()
    })
    require.NoError(t, err)
    require.Equal(t, hir.LocalSize{4, 1, 1}, k.Ls)
    require.True(t, k.Params[0].NoAlias)
    require.True(t, k.Params[1].NoAlias)

    /* two regions, four items each */
    asm := k.Prog.Disassemble()
    require.Equal(t, 8, strings.Count(asm, "wibank"))

    /* every phase-1 write must land before any phase-2 read */
    buf := [4]int64{-1, -1, -1, -1}
    out := [4]int64{}
    runCompiled(k, func(e *emu.Emulator) {
        e.Ap(0, unsafe.Pointer(&buf)).Ap(1, unsafe.Pointer(&out))
    })
    require.Equal(t, [4]int64{0, 1, 2, 3}, buf)
    require.Equal(t, [4]int64{1, 2, 3, 0}, out, "program:\n%s", asm)
}

func TestCompile_UniformDivergentBarriers(t *testing.T) {
    params := []hir.Param {
        { Kind: hir.KindI64 },
        { Kind: hir.KindPtr },
    }
    k, err := testCompile(t, hir.LocalSize{2, 1, 1}, params, func(p *hir.Builder) {
        p.LDAQ(0, hir.R0)       // uniform selector
        p.LDAP(1, hir.P0)       // out
        p.BNE(hir.R0, hir.Rz, "pathB")
        p.BARRIER()
        p.JMP("tail")
        p.Label("pathB")
        p.BARRIER()
        p.Label("tail")
        p.LIDX(0, hir.R2)
        p.SHLI(hir.R2, 3, hir.R3)
        p.ADDP(hir.P0, hir.R3, hir.P1)
        p.ADD(hir.R2, hir.R0, hir.R4)
        p.SQ(hir.R4, hir.P1, 0) // out[x] = x + selector
        p.HALT()
    })
    require.NoError(t, err)

    /* both barriers continue into the same tail region, both paths must
     * rendezvous correctly */
    for _, sel := range []int64{0, 5} {
        out := [2]int64{}
        runCompiled(k, func(e *emu.Emulator) {
            e.Au(0, uint64(sel)).Ap(1, unsafe.Pointer(&out))
        })
        require.Equal(t, [2]int64{sel, sel + 1}, out)
    }
}

func TestCompile_BarrierIntoClaimedBlock(t *testing.T) {
    params := []hir.Param {
        { Kind: hir.KindI64 },
        { Kind: hir.KindPtr },
    }
    k, err := testCompile(t, hir.LocalSize{2, 1, 1}, params, func(p *hir.Builder) {
        p.LDAQ(0, hir.R0)
        p.LDAP(1, hir.P0)
        p.BNE(hir.R0, hir.Rz, "skip")
        p.BARRIER()
        p.Label("skip")
        p.LIDX(0, hir.R1)
        p.SHLI(hir.R1, 3, hir.R2)
        p.ADDP(hir.P0, hir.R2, hir.P1)
        p.ADDI(hir.R1, 7, hir.R3)
        p.SQ(hir.R3, hir.P1, 0)
        p.HALT()
    })
    require.NoError(t, err)

    /* two regions, two items each: the recloned continuation must carry
     * its own replicas, not borrow the entry region's */
    require.Equal(t, 4, strings.Count(k.Prog.Disassemble(), "wibank"))

    /* the barrier continuation was already swallowed by the entry region
     * and must be recloned, with or without the barrier taken */
    for _, sel := range []int64{0, 1} {
        out := [2]int64{}
        runCompiled(k, func(e *emu.Emulator) {
            e.Au(0, uint64(sel)).Ap(1, unsafe.Pointer(&out))
        })
        require.Equal(t, [2]int64{7, 8}, out)
    }
}

func TestCompile_UniformBarrierLoop(t *testing.T) {
    k, err := testCompile(t, hir.LocalSize{2, 1, 1}, ptrParams[:1], func(p *hir.Builder) {
        p.LDAP(0, hir.P0)
        p.LIDX(0, hir.R1)
        p.SHLI(hir.R1, 3, hir.R2)
        p.ADDP(hir.P0, hir.R2, hir.P1) // &cells[x], survives the barrier
        p.IQ(0, hir.R3)
        p.IQ(3, hir.R4)
        p.Label("loop")
        p.BARRIER()
        p.LQ(hir.P1, 0, hir.R5)
        p.ADDI(hir.R5, 1, hir.R5)
        p.SQ(hir.R5, hir.P1, 0)
        p.ADDI(hir.R3, 1, hir.R3)
        p.BLT(hir.R3, hir.R4, "loop")
        p.HALT()
    })
    require.NoError(t, err)

    cells := [2]int64{}
    runCompiled(k, func(e *emu.Emulator) {
        e.Ap(0, unsafe.Pointer(&cells))
    })
    require.Equal(t, [2]int64{3, 3}, cells)
}

func TestCompile_RejectNonUniformLoop(t *testing.T) {
    _, err := testCompile(t, hir.LocalSize{2, 1, 1}, ptrParams[:1], func(p *hir.Builder) {
        p.LIDX(0, hir.R0)
        p.IQ(4, hir.R1)
        p.Label("loop")
        p.BARRIER()
        p.ADDI(hir.R0, 1, hir.R0)
        p.BLT(hir.R0, hir.R1, "loop")
        p.HALT()
    })
    require.Error(t, err)
    require.Contains(t, err.Error(), "non-uniform trip")
}

func TestCompile_RejectIrreducible(t *testing.T) {
    _, err := testCompile(t, hir.LocalSize{1, 1, 1}, nil, func(p *hir.Builder) {
        p.LDAQ(0, hir.R0)
        p.BEQ(hir.R0, hir.Rz, "b")
        p.Label("a")
        p.ADDI(hir.R0, 1, hir.R0)
        p.JMP("b")
        p.Label("b")
        p.ADDI(hir.R0, 2, hir.R0)
        p.JMP("a")
    })
    require.Error(t, err)
    require.Contains(t, err.Error(), "irreducible")
}

func TestCompile_InlineHelper(t *testing.T) {
    mod := hir.NewModule()
    mod.AddFunction("plus5", buildProgram(func(p *hir.Builder) {
        p.ADDI(hir.R0, 5, hir.R0)
        p.HALT()
    }))
    mod.AddKernel("k", ptrParams[:1], buildProgram(func(p *hir.Builder) {
        p.LDAP(0, hir.P0)
        p.LIDX(0, hir.R0)
        p.SHLI(hir.R0, 3, hir.R2)
        p.ADDP(hir.P0, hir.R2, hir.P1)
        p.CALL("plus5")
        p.SQ(hir.R0, hir.P1, 0)
        p.HALT()
    }))
    mod.SetWGSize("k", hir.LocalSize{2, 1, 1})

    k, err := CompileKernel(mod, "k", opts.GetDefaultOptions())
    require.NoError(t, err)
    require.NotContains(t, k.Prog.Disassemble(), "call")

    out := [2]int64{}
    runCompiled(k, func(e *emu.Emulator) {
        e.Ap(0, unsafe.Pointer(&out))
    })
    require.Equal(t, [2]int64{5, 6}, out)
}

func TestCompile_RejectRecursiveHelper(t *testing.T) {
    mod := hir.NewModule()
    mod.AddFunction("rec", buildProgram(func(p *hir.Builder) {
        p.CALL("rec")
        p.HALT()
    }))
    mod.AddKernel("k", nil, buildProgram(func(p *hir.Builder) {
        p.CALL("rec")
        p.HALT()
    }))
    mod.SetWGSize("k", hir.LocalSize{1, 1, 1})

    _, err := CompileKernel(mod, "k", opts.GetDefaultOptions())
    require.Error(t, err)
    require.Contains(t, err.Error(), "recursive")
}

func TestCompile_RejectUndefinedHelper(t *testing.T) {
    _, err := testCompile(t, hir.LocalSize{1, 1, 1}, nil, func(p *hir.Builder) {
        p.CALL("ghost")
        p.HALT()
    })
    require.Error(t, err)
    require.Contains(t, err.Error(), "undefined")
}

func TestCompile_InlineDepthLimit(t *testing.T) {
    mod := hir.NewModule()
    mod.AddFunction("f2", buildProgram(func(p *hir.Builder) {
        p.ADDI(hir.R0, 1, hir.R0)
        p.HALT()
    }))
    mod.AddFunction("f1", buildProgram(func(p *hir.Builder) {
        p.CALL("f2")
        p.HALT()
    }))
    mod.AddKernel("k", nil, buildProgram(func(p *hir.Builder) {
        p.CALL("f1")
        p.HALT()
    }))
    mod.SetWGSize("k", hir.LocalSize{1, 1, 1})

    o := opts.GetDefaultOptions()
    o.MaxInlineDepth = 2
    _, err := CompileKernel(mod, "k", o)
    require.Error(t, err)
    require.Contains(t, err.Error(), "inline depth exceeded")

    /* unlimited depth takes the same chain */
    o.MaxInlineDepth = 0
    _, err = CompileKernel(mod, "k", o)
    require.NoError(t, err)
}

func TestCompile_UnknownKernel(t *testing.T) {
    mod := hir.NewModule()
    mod.Kernels = append(mod.Kernels, "nope")
    _, err := CompileKernel(mod, "nope", opts.GetDefaultOptions())
    require.Error(t, err)
    require.Contains(t, err.Error(), "not defined")
}

func TestCompile_ZeroVolume(t *testing.T) {
    _, err := testCompile(t, hir.LocalSize{0, 1, 1}, nil, func(p *hir.Builder) {
        p.HALT()
    })
    require.Error(t, err)
    require.Contains(t, err.Error(), "zero volume")
}

func TestCompile_Deterministic(t *testing.T) {
    build := func(p *hir.Builder) {
        p.LDAP(0, hir.P0)
        p.LIDX(0, hir.R0)
        p.BARRIER()
        p.SHLI(hir.R0, 3, hir.R1)
        p.ADDP(hir.P0, hir.R1, hir.P1)
        p.SQ(hir.R0, hir.P1, 0)
        p.HALT()
    }
    k1, err := testCompile(t, hir.LocalSize{3, 1, 1}, ptrParams[:1], build)
    require.NoError(t, err)
    k2, err := testCompile(t, hir.LocalSize{3, 1, 1}, ptrParams[:1], build)
    require.NoError(t, err)
    require.Equal(t, k1.Prog.Disassemble(), k2.Prog.Disassemble())
}

func TestCompile_SingleItemEquivalence(t *testing.T) {
    ls := hir.LocalSize{2, 2, 2}
    build := func(p *hir.Builder) {
        p.LDAP(0, hir.P0)
        p.LIDX(0, hir.R0)
        p.LIDX(1, hir.R1)
        p.LIDX(2, hir.R2)
        p.LSIZ(0, hir.R3)
        p.LSIZ(1, hir.R4)
        p.MUL(hir.R4, hir.R2, hir.R5)
        p.ADD(hir.R1, hir.R5, hir.R5)
        p.MUL(hir.R3, hir.R5, hir.R5)
        p.ADD(hir.R0, hir.R5, hir.R5) // linear id
        p.MULI(hir.R5, 3, hir.R6)
        p.ADDI(hir.R6, 1, hir.R6)
        p.SHLI(hir.R5, 3, hir.R7)
        p.ADDP(hir.P0, hir.R7, hir.P1)
        p.SQ(hir.R6, hir.P1, 0) // out[id] = 3 * id + 1
        p.HALT()
    }

    /* one work-group call */
    k, err := testCompile(t, ls, ptrParams[:1], build)
    require.NoError(t, err)
    grouped := [8]int64{}
    runCompiled(k, func(e *emu.Emulator) {
        e.Ap(0, unsafe.Pointer(&grouped))
    })

    /* eight untransformed single-item runs */
    single := [8]int64{}
    body := buildProgram(build)
    for i := uint64(0); i < ls.Volume(); i++ {
        x, y, z := ls.Coords(i)
        e := emu.LoadProgram(body, ls)
        e.Ap(0, unsafe.Pointer(&single)).At(x, y, z)
        e.Run()
        e.Free()
    }
    body.Free()
    require.Equal(t, single, grouped)
}

func TestWriteDefines(t *testing.T) {
    var buf bytes.Buffer
    require.NoError(t, WriteDefines(&buf, &Kernel {
        Name   : "conv",
        Ls     : hir.LocalSize{8, 8, 1},
        Locals : []int64{64, 128},
    }))
    require.Equal(t, "#define _conv_NUM_LOCALS 2\n#define _conv_LOCAL_SIZE {64, 128}\n", buf.String())

    buf.Reset()
    require.NoError(t, WriteDefines(&buf, &Kernel { Name: "empty" }))
    require.Equal(t, "#define _empty_NUM_LOCALS 0\n#define _empty_LOCAL_SIZE {}\n", buf.String())
}

func TestDrawRegions(t *testing.T) {
    r := buildProgram(func(p *hir.Builder) {
        p.LDAP(0, hir.P0)
        p.LIDX(0, hir.R0)
        p.BARRIER()
        p.SHLI(hir.R0, 3, hir.R1)
        p.ADDP(hir.P0, hir.R1, hir.P1)
        p.SQ(hir.R0, hir.P1, 0)
        p.HALT()
    })
    cfg := BuildCFG("draw", hir.LocalSize{2, 1, 1}, r)
    r.Free()
    require.NoError(t, SplitBarriers{}.Apply(cfg))
    require.NoError(t, VerifyLoops{}.Apply(cfg))
    require.NoError(t, SplitRegions{}.Apply(cfg))

    fn := filepath.Join(t.TempDir(), "regions.svg")
    DrawRegions(fn, cfg)
    fi, err := os.Stat(fn)
    require.NoError(t, err)
    require.NotZero(t, fi.Size())
}
