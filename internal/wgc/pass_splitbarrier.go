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
    `github.com/gopocl/gopocl/internal/hir`
)

// SplitBarriers cuts every block containing a barrier into a clean
// (head, barrier, tail) sequence so that afterwards a barrier is always the
// sole instruction of its own block, and no two barriers share one. Exit
// blocks are normalized the same way: every halt terminator ends up on an
// otherwise empty block, so that kernel exit is a region boundary just like
// a barrier.
type SplitBarriers struct{}

func (SplitBarriers) Apply(cfg *CFG) error {
    /* the arena grows while splitting, iterate by index */
    for i := 0; i < len(cfg.Blocks); i++ {
        splitBarrier(cfg, cfg.Blocks[i])
    }

    /* normalize the exit blocks */
    for i := 0; i < len(cfg.Blocks); i++ {
        splitExit(cfg, cfg.Blocks[i])
    }

    /* edges changed */
    cfg.RebuildPreds()
    return nil
}

func splitBarrier(cfg *CFG, bb *BasicBlock) {
    k := barrierIndex(bb)
    if k < 0 || bb.isBarrier() {
        return
    }

    /* tail block takes everything after the barrier, and the terminator */
    tail := cfg.CreateBlock()
    tail.Ins = append(tail.Ins, bb.Ins[k + 1:]...)
    tail.Term = bb.Term

    /* barrier becomes a block of its own */
    bar := cfg.CreateBlock()
    bar.Ins = append(bar.Ins, hir.Instr { Op: hir.OP_barrier })
    bar.Term = Terminator { Op: hir.OP_jmp, To: tail.Id }

    /* head keeps the prefix */
    bb.Ins = bb.Ins[:k]
    bb.Term = Terminator { Op: hir.OP_jmp, To: bar.Id }

    /* the tail may contain further barriers */
    splitBarrier(cfg, tail)
}

func splitExit(cfg *CFG, bb *BasicBlock) {
    if bb.Term.Op != hir.OP_halt || len(bb.Ins) == 0 {
        return
    }

    /* empty halt block after the code */
    exit := cfg.CreateBlock()
    exit.Term = Terminator { Op: hir.OP_halt }
    bb.Term = Terminator { Op: hir.OP_jmp, To: exit.Id }
}

func barrierIndex(bb *BasicBlock) int {
    for i := range bb.Ins {
        if bb.Ins[i].Op == hir.OP_barrier {
            return i
        }
    }
    return -1
}
