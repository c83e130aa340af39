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

// Terminator is the explicit exit of a basic block: an unconditional jump,
// a two-way conditional branch, or a return. Targets are block ids into the
// owning CFG's arena, never raw pointers.
type Terminator struct {
    Op   hir.OpCode
    Rx   hir.GenericRegister
    Ry   hir.GenericRegister
    To   int
    Else int
}

func (self Terminator) String() string {
    switch self.Op {
        case hir.OP_jmp  : return fmt.Sprintf("jmp bb_%d", self.To)
        case hir.OP_halt : return "halt"
        default          : return fmt.Sprintf("b?? %%%s, %%%s, bb_%d else bb_%d", self.Rx, self.Ry, self.To, self.Else)
    }
}

type BasicBlock struct {
    Id   int
    Ins  []hir.Instr
    Term Terminator
    Pred []int
}

// Successors lists the outgoing edges, branch target first.
func (self *BasicBlock) Successors() []int {
    switch self.Term.Op {
        case hir.OP_halt : return nil
        case hir.OP_jmp  : return []int { self.Term.To }
        default          : return []int { self.Term.To, self.Term.Else }
    }
}

func (self *BasicBlock) isBarrier() bool {
    return len(self.Ins) == 1 && self.Ins[0].Op == hir.OP_barrier
}

func (self *BasicBlock) isExit() bool {
    return len(self.Ins) == 0 && self.Term.Op == hir.OP_halt
}

// CFG is an arena of basic blocks addressed by dense integer ids. Block
// duplication allocates new ids and copies edge lists; nothing aliases.
type CFG struct {
    Name    string
    Ls      hir.LocalSize
    Root    int
    Blocks  []*BasicBlock
    entries []int
    owner   map[int]int
}

func (self *CFG) Block(id int) *BasicBlock {
    return self.Blocks[id]
}

func (self *CFG) CreateBlock() *BasicBlock {
    bb := &BasicBlock { Id: len(self.Blocks) }
    self.Blocks = append(self.Blocks, bb)
    return bb
}

// CloneBlock duplicates a block's body and terminator into a fresh id. The
// terminator still refers to the source's successors; callers rewire it.
func (self *CFG) CloneBlock(id int) *BasicBlock {
    bb := self.CreateBlock()
    src := self.Blocks[id]
    bb.Ins = append(bb.Ins[:0], src.Ins...)
    bb.Term = src.Term
    return bb
}

// RebuildPreds recomputes every reachable block's predecessor list.
func (self *CFG) RebuildPreds() {
    for _, bb := range self.Blocks {
        bb.Pred = bb.Pred[:0]
    }
    for _, id := range self.Reachable() {
        for _, s := range self.Blocks[id].Successors() {
            self.Blocks[s].Pred = append(self.Blocks[s].Pred, id)
        }
    }
}

// Reachable returns the ids of blocks reachable from the root, in a
// deterministic depth-first order.
func (self *CFG) Reachable() []int {
    var ret []int

    /* DFS from the root */
    s := lane.NewStack()
    v := make(map[int]bool, len(self.Blocks))

    /* traverse the graph */
    for s.Push(self.Root); !s.Empty(); {
        id := s.Pop().(int)
        if v[id] {
            continue
        }

        /* mark and visit */
        v[id] = true
        ret = append(ret, id)

        /* push successors in reverse so the branch target pops first */
        succ := self.Blocks[id].Successors()
        for i := len(succ) - 1; i >= 0; i-- {
            if !v[succ[i]] {
                s.Push(succ[i])
            }
        }
    }
    return ret
}

// ReversePostOrder yields a layout order in which every block precedes its
// non-back-edge successors.
func (self *CFG) ReversePostOrder() []int {
    var post []int
    v := make(map[int]bool, len(self.Blocks))
    self.postorder(self.Root, v, &post)
    reverse(post)
    return post
}

func (self *CFG) postorder(id int, v map[int]bool, out *[]int) {
    v[id] = true
    for _, s := range self.Blocks[id].Successors() {
        if !v[s] {
            self.postorder(s, v, out)
        }
    }
    *out = append(*out, id)
}

func (self *CFG) String() string {
    buf := fmt.Sprintf("CFG(%s) root=bb_%d\n", self.Name, self.Root)
    for _, id := range self.Reachable() {
        bb := self.Blocks[id]
        buf += fmt.Sprintf("bb_%d:\n", id)
        for i := range bb.Ins {
            buf += "    " + bb.Ins[i].Disassemble(nil) + "\n"
        }
        buf += "    " + bb.Term.String() + "\n"
    }
    return buf
}

func reverse(v []int) {
    for i, j := 0, len(v) - 1; i < j; i, j = i + 1, j - 1 {
        v[i], v[j] = v[j], v[i]
    }
}

type _GraphBuilder struct {
    pin map[*hir.Instr]bool
    ids map[*hir.Instr]int
}

func newGraphBuilder() *_GraphBuilder {
    return &_GraphBuilder {
        pin: make(map[*hir.Instr]bool),
        ids: make(map[*hir.Instr]int),
    }
}

// build converts a linear program into a CFG, splitting at branch targets
// the way the source instruction stream dictates.
func (self *_GraphBuilder) build(cfg *CFG, p hir.Program) {
    for v := p.Head; v != nil; v = v.Ln {
        if v.IsBranch() {
            self.pin[v.Br] = true
        }
    }
    cfg.Root = self.branch(cfg, p.Head)
}

func (self *_GraphBuilder) branch(cfg *CFG, p *hir.Instr) int {
    if id, ok := self.ids[p]; ok {
        return id
    }

    /* create a new block */
    bb := cfg.CreateBlock()
    self.ids[p] = bb.Id

    /* process the new block */
    self.block(cfg, p, bb)
    return bb.Id
}

func (self *_GraphBuilder) block(cfg *CFG, p *hir.Instr, bb *BasicBlock) {
    for {
        /* ran off the end of the program */
        if p == nil {
            bb.Term = Terminator { Op: hir.OP_halt }
            return
        }

        /* explicit end of execution */
        if p.Op == hir.OP_halt {
            bb.Term = Terminator { Op: hir.OP_halt }
            return
        }

        /* branch instructions terminate the block */
        if p.IsBranch() {
            if p.Op == hir.OP_jmp {
                bb.Term = Terminator { Op: hir.OP_jmp, To: self.branch(cfg, p.Br) }
            } else {
                to := self.branch(cfg, p.Br)
                ln := self.branch(cfg, p.Ln)
                bb.Term = Terminator { Op: p.Op, Rx: p.Rx, Ry: p.Ry, To: to, Else: ln }
            }
            return
        }

        /* ordinary instruction, copy it into the block */
        if p.Op != hir.OP_nop {
            v := *p
            v.Br, v.Ln = nil, nil
            bb.Ins = append(bb.Ins, v)
        }

        /* hit a merge point, close the block */
        if p = p.Ln; p != nil && self.pin[p] {
            bb.Term = Terminator { Op: hir.OP_jmp, To: self.branch(cfg, p) }
            return
        }
    }
}

// BuildCFG builds the control-flow graph of an inlined kernel body.
func BuildCFG(name string, ls hir.LocalSize, p hir.Program) *CFG {
    cfg := &CFG { Name: name, Ls: ls }
    newGraphBuilder().build(cfg, p)
    cfg.RebuildPreds()
    return cfg
}
