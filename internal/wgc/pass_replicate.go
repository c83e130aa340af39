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

// Replicate unrolls every region once per work-item. The copies of one
// region are chained: every region-leaving edge of copy i is redirected to
// the entry of copy i+1, and only the last copy keeps the real successors,
// so all item-replicas of region r complete before control can reach any
// replica of region r+1. Each copy starts with a register bank switch and
// has its OP_lidx / OP_lsiz instructions folded to the item's constants, so
// index-derived values are recomputed per replica, never shared.
type Replicate struct{}

func (Replicate) Apply(cfg *CFG) error {
    n := cfg.Ls.Volume()
    if n == 0 {
        return fmt.Errorf("local size %s has zero volume", cfg.Ls)
    }
    for _, e := range cfg.entries {
        replicateRegion(cfg, e, n)
    }
    cfg.RebuildPreds()
    return nil
}

func replicateRegion(cfg *CFG, e int, n uint64) {
    var blocks []int

    /* collect the region body before the arena grows */
    for _, id := range cfg.Reachable() {
        if own, ok := cfg.owner[id]; ok && own == e {
            blocks = append(blocks, id)
        }
    }

    /* copy 0 is the original body; clone the rest */
    maps := make([]map[int]int, n)
    for i := uint64(1); i < n; i++ {
        maps[i] = make(map[int]int, len(blocks))
        for _, b := range blocks {
            maps[i][b] = cfg.CloneBlock(b).Id
        }
    }

    /* mapped resolves block b of the original body in copy i */
    mapped := func(i uint64, b int) int {
        if i == 0 {
            return b
        }
        if c, ok := maps[i][b]; ok {
            return c
        }
        panic(fmt.Sprintf("replicate: bb_%d of region bb_%d has no copy for item %d", b, e, i))
    }

    /* rewire every copy: in-region edges stay inside the copy, leaving
     * edges chain to the next copy's entry, the last copy leaves */
    for i := uint64(0); i < n; i++ {
        for _, b := range blocks {
            bb := cfg.Block(mapped(i, b))
            if bb.Term.Op == hir.OP_halt {
                continue
            }
            bb.Term.To = replicaTarget(cfg, e, i, n, bb.Term.To, mapped)
            if bb.Term.Op != hir.OP_jmp {
                bb.Term.Else = replicaTarget(cfg, e, i, n, bb.Term.Else, mapped)
            }
        }
    }

    /* specialize each copy for its item and switch the register bank on
     * entry */
    for i := uint64(0); i < n; i++ {
        x, y, z := cfg.Ls.Coords(i)
        for _, b := range blocks {
            foldItem(cfg.Block(mapped(i, b)), cfg.Ls, x, y, z)
        }
        entry := cfg.Block(mapped(i, e))
        entry.Ins = append([]hir.Instr {{ Op: hir.OP_wibank, Iv: int64(i) }}, entry.Ins...)
    }
}

func replicaTarget(cfg *CFG, e int, i uint64, n uint64, t int, mapped func(uint64, int) int) int {
    if own, ok := cfg.owner[t]; ok && own == e {
        return mapped(i, t)
    }

    /* region-leaving edge */
    if i < n - 1 {
        return mapped(i + 1, e)
    }
    return t
}

func foldItem(bb *BasicBlock, ls hir.LocalSize, x uint32, y uint32, z uint32) {
    idx := [3]uint32{x, y, z}
    for k := range bb.Ins {
        switch bb.Ins[k].Op {
            case hir.OP_lidx:
                bb.Ins[k] = hir.Instr { Op: hir.OP_iq, Rx: bb.Ins[k].Rx, Iv: int64(idx[bb.Ins[k].Iv]) }
            case hir.OP_lsiz:
                bb.Ins[k] = hir.Instr { Op: hir.OP_iq, Rx: bb.Ins[k].Rx, Iv: int64(ls[bb.Ins[k].Iv]) }
        }
    }
}
