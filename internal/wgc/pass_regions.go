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

// SplitRegions partitions the block arena into barrier-delimited regions and
// performs tail replication: a block reachable from two different region
// entries is cloned, together with its reachable intra-region subgraph, so
// that every region ends up with a single entry and a private body. Barrier
// blocks and exit blocks are region boundaries and belong to no region.
//
// This is what makes per-item specialization well defined: after the pass,
// no control-flow path can enter a region's code with an ambiguous preceding
// region.
type SplitRegions struct{}

func (SplitRegions) Apply(cfg *CFG) error {
    s := &_RegionSplitter {
        cfg    : cfg,
        owner  : make(map[int]int),
        clones : make(map[_CloneKey]int),
    }

    /* region entries, in deterministic discovery order: the kernel entry
     * first, then the continuation of every barrier */
    entries := []int{}
    if !boundary(cfg.Block(cfg.Root)) {
        entries = append(entries, cfg.Root)
    }
    for _, id := range cfg.Reachable() {
        if bb := cfg.Block(id); bb.isBarrier() {
            if to := bb.Term.To; !boundary(cfg.Block(to)) {
                entries = append(entries, to)
            }
        }
    }

    /* claim or clone every region body; an entry block may itself have
     * been swallowed by an earlier region, in which case it is cloned and
     * the entry remaps to the clone */
    remap := make(map[int]int, len(entries))
    for _, e := range entries {
        remap[e] = s.claim(e, e)
    }

    /* a cloned entry heads a region of its own, but its body was tagged
     * with the original entry id during the walk; move the tags over so
     * the region is addressed by the id the entry list carries */
    for _, e := range entries {
        if c := remap[e]; c != e {
            for id, own := range s.owner {
                if own == e {
                    s.owner[id] = c
                }
            }
        }
    }

    /* the barrier edge defines the entry, re-point it at the remap */
    for _, id := range cfg.Reachable() {
        if bb := cfg.Block(id); bb.isBarrier() {
            if to, ok := remap[bb.Term.To]; ok {
                bb.Term.To = to
            }
        }
    }

    /* record the final entry ids; two barriers may share one continuation,
     * the region must still be replicated once */
    seen := make(map[int]bool, len(entries))
    final := entries[:0]
    for _, e := range entries {
        if id := remap[e]; !seen[id] {
            seen[id] = true
            final = append(final, id)
        }
    }
    cfg.entries = final
    cfg.owner = s.owner
    cfg.RebuildPreds()
    return nil
}

func boundary(bb *BasicBlock) bool {
    return bb.isBarrier() || bb.isExit()
}

type _CloneKey struct {
    entry int
    block int
}

type _RegionSplitter struct {
    cfg    *CFG
    owner  map[int]int
    clones map[_CloneKey]int
}

// claim walks the region of entry e from block id, taking ownership of
// unclaimed blocks and cloning blocks already owned by another region.
// It returns the (possibly remapped) id the caller should link to.
func (self *_RegionSplitter) claim(e int, id int) int {
    bb := self.cfg.Block(id)

    /* boundaries are shared and never cloned */
    if boundary(bb) {
        return id
    }

    /* first visit: take ownership and walk the successors in place */
    if own, ok := self.owner[id]; !ok {
        self.owner[id] = e
        self.rewire(e, bb)
        return id
    } else if own == e {
        return id
    }

    /* owned by another region: clone for this entry */
    if c, ok := self.clones[_CloneKey{e, id}]; ok {
        return c
    }

    /* memoize before descending, loops inside a region are legal */
    nb := self.cfg.CloneBlock(id)
    self.clones[_CloneKey{e, id}] = nb.Id
    self.owner[nb.Id] = e
    self.rewire(e, nb)
    return nb.Id
}

func (self *_RegionSplitter) rewire(e int, bb *BasicBlock) {
    if bb.Term.Op == hir.OP_halt {
        return
    }
    bb.Term.To = self.claim(e, bb.Term.To)
    if bb.Term.Op != hir.OP_jmp {
        bb.Term.Else = self.claim(e, bb.Term.Else)
    }
}
