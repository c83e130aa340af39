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
    `github.com/oleiade/lane`
)

// VerifyLoops rejects kernels the barrier transformation cannot express:
// irreducible control flow, and barriers inside loops whose trip condition
// depends on the work-item index. Both are kernel-fatal, per the source
// language contract that every item executes the same barrier sequence.
type VerifyLoops struct{}

func (VerifyLoops) Apply(cfg *CFG) error {
    cfg.RebuildPreds()
    dom := BuildDominatorTree(cfg)

    /* find the retreating edges with a DFS */
    edges, err := retreatingEdges(cfg, dom)
    if err != nil {
        return err
    }

    /* nothing to verify without loops */
    if len(edges) == 0 {
        return nil
    }

    /* item-index taint, flow-insensitive over the whole kernel */
    tg, _ := taintedRegs(cfg)

    /* check every natural loop that contains a barrier */
    for _, e := range edges {
        body := naturalLoop(cfg, e.head, e.tail)
        if !loopHasBarrier(cfg, body) {
            continue
        }
        for id := range body {
            t := cfg.Block(id).Term
            if t.Op == hir.OP_jmp || t.Op == hir.OP_halt {
                continue
            }
            if tg[t.Rx] || tg[t.Ry] {
                return fmt.Errorf(
                    "barrier inside loop with non-uniform trip count: branch at bb_%d, loop header bb_%d",
                    id, e.head,
                )
            }
        }
    }
    return nil
}

type _LoopEdge struct {
    head int
    tail int
}

func retreatingEdges(cfg *CFG, dom DominatorTree) ([]_LoopEdge, error) {
    var ret []_LoopEdge

    /* DFS colors: 0 unvisited, 1 on stack, 2 done */
    color := make(map[int]int, len(cfg.Blocks))

    /* iterative DFS, stack holds (block, next successor index) */
    type frame struct { id, si int }
    stk := []frame {{ cfg.Root, 0 }}
    color[cfg.Root] = 1

    for len(stk) != 0 {
        f := &stk[len(stk) - 1]
        succ := cfg.Block(f.id).Successors()

        /* all successors visited */
        if f.si >= len(succ) {
            color[f.id] = 2
            stk = stk[:len(stk) - 1]
            continue
        }

        /* pick the next edge */
        s := succ[f.si]
        f.si++

        switch color[s] {
            case 0: {
                color[s] = 1
                stk = append(stk, frame { s, 0 })
            }
            case 1: {
                /* retreating edge: reducible iff the header dominates the tail */
                if !dom.Dominates(s, f.id) {
                    return nil, fmt.Errorf("irreducible control flow: edge bb_%d -> bb_%d", f.id, s)
                }
                ret = append(ret, _LoopEdge { head: s, tail: f.id })
            }
        }
    }
    return ret, nil
}

// naturalLoop collects the body of the loop of back edge tail -> head:
// head plus every block that reaches tail without passing through head.
func naturalLoop(cfg *CFG, head int, tail int) map[int]struct{} {
    body := map[int]struct{} { head: {} }

    q := lane.NewQueue()
    if _, ok := body[tail]; !ok {
        body[tail] = struct{}{}
        q.Enqueue(tail)
    }

    for !q.Empty() {
        id := q.Dequeue().(int)
        for _, p := range cfg.Block(id).Pred {
            if _, ok := body[p]; !ok {
                body[p] = struct{}{}
                q.Enqueue(p)
            }
        }
    }
    return body
}

func loopHasBarrier(cfg *CFG, body map[int]struct{}) bool {
    for id := range body {
        if barrierIndex(cfg.Block(id)) >= 0 {
            return true
        }
    }
    return false
}

// taintedRegs computes the registers that may carry values derived from the
// implicit work-item index. Flow-insensitive: a register tainted anywhere is
// tainted everywhere, which errs on the side of rejection. Loads taint their
// destination only when the address is tainted; racy same-address cases are
// the source program's contract, not this analysis'.
func taintedRegs(cfg *CFG) (map[hir.GenericRegister]bool, map[hir.PointerRegister]bool) {
    tg := make(map[hir.GenericRegister]bool)
    tp := make(map[hir.PointerRegister]bool)

    for changed := true; changed; {
        changed = false
        for _, id := range cfg.Reachable() {
            for _, v := range cfg.Block(id).Ins {
                switch v.Op {
                    case hir.OP_lidx:
                        changed = taintG(tg, v.Rx) || changed
                    case hir.OP_mov:
                        if tg[v.Rx] { changed = taintG(tg, v.Ry) || changed }
                    case hir.OP_movp:
                        if tp[v.Ps] { changed = taintP(tp, v.Pd) || changed }
                    case hir.OP_add, hir.OP_sub, hir.OP_mul:
                        if tg[v.Rx] || tg[v.Ry] { changed = taintG(tg, v.Rz) || changed }
                    case hir.OP_addi, hir.OP_subi, hir.OP_muli, hir.OP_andi, hir.OP_xori, hir.OP_shli, hir.OP_shri:
                        if tg[v.Rx] { changed = taintG(tg, v.Ry) || changed }
                    case hir.OP_lb, hir.OP_lw, hir.OP_ll, hir.OP_lq:
                        if tp[v.Ps] { changed = taintG(tg, v.Rx) || changed }
                    case hir.OP_lp:
                        if tp[v.Ps] { changed = taintP(tp, v.Pd) || changed }
                    case hir.OP_addp, hir.OP_subp:
                        if tp[v.Ps] || tg[v.Rx] { changed = taintP(tp, v.Pd) || changed }
                    case hir.OP_addpi:
                        if tp[v.Ps] { changed = taintP(tp, v.Pd) || changed }
                }
            }
        }
    }
    return tg, tp
}

func taintG(m map[hir.GenericRegister]bool, r hir.GenericRegister) bool {
    if r == hir.Rz || m[r] {
        return false
    }
    m[r] = true
    return true
}

func taintP(m map[hir.PointerRegister]bool, r hir.PointerRegister) bool {
    if r == hir.Pn || m[r] {
        return false
    }
    m[r] = true
    return true
}
