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
    `testing`

    `github.com/gopocl/gopocl/internal/hir`
    `github.com/stretchr/testify/require`
)

func buildProgram(build func(p *hir.Builder)) hir.Program {
    pb := hir.CreateBuilder()
    build(pb)
    r := pb.Build()
    pb.Free()
    return r
}

func diamondProgram() hir.Program {
    return buildProgram(func(p *hir.Builder) {
        p.LDAQ(0, hir.R0)
        p.BEQ(hir.R0, hir.Rz, "b")
        p.ADDI(hir.R0, 1, hir.R1)
        p.JMP("join")
        p.Label("b")
        p.ADDI(hir.R0, 2, hir.R1)
        p.Label("join")
        p.HALT()
    })
}

func TestCFG_Diamond(t *testing.T) {
    r := diamondProgram()
    cfg := BuildCFG("diamond", hir.LocalSize{1, 1, 1}, r)
    r.Free()

    /* entry, two arms and the join */
    require.Len(t, cfg.Reachable(), 4)

    /* the entry branches two ways */
    root := cfg.Block(cfg.Root)
    require.Equal(t, hir.OP_beq, root.Term.Op)
    require.Len(t, root.Successors(), 2)

    /* both arms merge at the join */
    arm0 := cfg.Block(root.Successors()[0])
    arm1 := cfg.Block(root.Successors()[1])
    require.Len(t, arm0.Successors(), 1)
    require.Len(t, arm1.Successors(), 1)
    join := arm0.Successors()[0]
    require.Equal(t, join, arm1.Successors()[0])
    require.Len(t, cfg.Block(join).Pred, 2)
    require.Equal(t, hir.OP_halt, cfg.Block(join).Term.Op)
}

func TestCFG_Deterministic(t *testing.T) {
    r1 := diamondProgram()
    r2 := diamondProgram()
    c1 := BuildCFG("d", hir.LocalSize{1, 1, 1}, r1)
    c2 := BuildCFG("d", hir.LocalSize{1, 1, 1}, r2)
    r1.Free()
    r2.Free()
    require.Equal(t, c1.String(), c2.String())
    require.Equal(t, c1.Reachable(), c2.Reachable())
    require.Equal(t, c1.ReversePostOrder(), c2.ReversePostOrder())
}

func TestCFG_ReversePostOrder(t *testing.T) {
    r := diamondProgram()
    cfg := BuildCFG("d", hir.LocalSize{1, 1, 1}, r)
    r.Free()

    /* the root comes first, the join last */
    rpo := cfg.ReversePostOrder()
    require.Equal(t, cfg.Root, rpo[0])
    require.Equal(t, hir.OP_halt, cfg.Block(rpo[len(rpo) - 1]).Term.Op)
}

func TestDominatorTree_Diamond(t *testing.T) {
    r := diamondProgram()
    cfg := BuildCFG("d", hir.LocalSize{1, 1, 1}, r)
    r.Free()

    dom := BuildDominatorTree(cfg)
    root := cfg.Root
    join := -1
    for _, id := range cfg.Reachable() {
        if cfg.Block(id).Term.Op == hir.OP_halt {
            join = id
        }
    }
    require.NotEqual(t, -1, join)

    /* neither arm dominates the join, the root dominates everything */
    require.Equal(t, root, dom.DominatedBy[join])
    for _, id := range cfg.Reachable() {
        require.True(t, dom.Dominates(root, id))
    }
    for _, s := range cfg.Block(root).Successors() {
        require.False(t, dom.Dominates(s, join))
    }
}

func TestSplitBarriers_Normalize(t *testing.T) {
    r := buildProgram(func(p *hir.Builder) {
        p.LDAQ(0, hir.R0)
        p.ADDI(hir.R0, 1, hir.R0)
        p.BARRIER()
        p.ADDI(hir.R0, 2, hir.R0)
        p.BARRIER()
        p.ADDI(hir.R0, 3, hir.R0)
        p.HALT()
    })
    cfg := BuildCFG("bar", hir.LocalSize{1, 1, 1}, r)
    r.Free()
    require.NoError(t, SplitBarriers{}.Apply(cfg))

    /* every barrier alone in its block, exactly one empty exit block */
    bars := 0
    exits := 0
    for _, id := range cfg.Reachable() {
        bb := cfg.Block(id)
        if bb.isBarrier() {
            bars++
        }
        if bb.isExit() {
            exits++
        }
        if n := barrierIndex(bb); n >= 0 {
            require.True(t, bb.isBarrier())
        }
    }
    require.Equal(t, 2, bars)
    require.Equal(t, 1, exits)
}
