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

// Linearize lays the graph back out as a linear program, in reverse
// post-order so that fall-through edges need no jump. Each block gets a NOP
// anchor that branch targets resolve through; the anchors are forwarded and
// stripped before the program is returned, the same normalization the
// label-based builder performs.
func Linearize(cfg *CFG) hir.Program {
    var head *hir.Instr
    var tail *hir.Instr

    /* chain helper */
    emit := func(v *hir.Instr) {
        if head == nil {
            head = v
        } else {
            tail.Ln = v
        }
        tail = v
    }

    /* one anchor per block */
    order := cfg.ReversePostOrder()
    anchor := make(map[int]*hir.Instr, len(order))
    for _, id := range order {
        anchor[id] = hir.NewInstr(hir.OP_nop)
    }

    /* lay out the blocks */
    for k, id := range order {
        bb := cfg.Block(id)
        emit(anchor[id])

        /* block body */
        for i := range bb.Ins {
            v := hir.NewInstr(bb.Ins[i].Op)
            *v = bb.Ins[i]
            v.Ln, v.Br = nil, nil
            emit(v)
        }

        /* the block that follows in the layout, if any */
        next := -1
        if k + 1 < len(order) {
            next = order[k + 1]
        }

        /* terminator */
        switch bb.Term.Op {
            case hir.OP_halt: {
                emit(hir.NewInstr(hir.OP_halt))
            }
            case hir.OP_jmp: {
                if bb.Term.To != next {
                    v := hir.NewInstr(hir.OP_jmp)
                    v.Br = anchor[bb.Term.To]
                    emit(v)
                }
            }
            default: {
                v := hir.NewInstr(bb.Term.Op)
                v.Rx, v.Ry = bb.Term.Rx, bb.Term.Ry
                v.Br = anchor[bb.Term.To]
                emit(v)
                if bb.Term.Else != next {
                    j := hir.NewInstr(hir.OP_jmp)
                    j.Br = anchor[bb.Term.Else]
                    emit(j)
                }
            }
        }
    }

    /* adjust branches to point at actual instructions; every anchor is
     * followed by at least a terminator, so the walk always lands */
    for v := head; v != nil; v = v.Ln {
        if v.IsBranch() {
            for v.Br.Op == hir.OP_nop && v.Br.Ln != nil {
                v.Br = v.Br.Ln
            }
        }
    }

    /* strip the anchors */
    for head != nil && head.Op == hir.OP_nop && head.Ln != nil {
        v := head
        head = v.Ln
        v.Free()
    }
    for v := head; v != nil && v.Ln != nil; {
        if v.Ln.Op != hir.OP_nop {
            v = v.Ln
        } else {
            q := v.Ln
            v.Ln = q.Ln
            q.Free()
        }
    }
    return hir.Program { Head: head }
}
