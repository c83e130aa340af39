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

/** This is an implementation of the Lengauer-Tarjan algorithm described in
 *  https://doi.org/10.1145%2F357062.357071
 */

package wgc

type _LtNode struct {
    semi     int
    block    int
    dom      *_LtNode
    label    *_LtNode
    parent   *_LtNode
    ancestor *_LtNode
    pred     []*_LtNode
    bucket   map[*_LtNode]struct{}
}

type _LengauerTarjan struct {
    cfg    *CFG
    nodes  []*_LtNode
    vertex map[int]int
}

func newLengauerTarjan(cfg *CFG) *_LengauerTarjan {
    return &_LengauerTarjan {
        cfg    : cfg,
        vertex : make(map[int]int),
    }
}

func (self *_LengauerTarjan) dfs(id int) {
    i := len(self.nodes)
    self.vertex[id] = i

    /* create a new node */
    p := &_LtNode {
        semi   : i,
        block  : id,
        bucket : make(map[*_LtNode]struct{}),
    }

    /* add to node list */
    p.label = p
    self.nodes = append(self.nodes, p)

    /* traverse the successors */
    for _, w := range self.cfg.Block(id).Successors() {
        idx, ok := self.vertex[w]

        /* not visited yet */
        if !ok {
            self.dfs(w)
            idx = self.vertex[w]
            self.nodes[idx].parent = p
        }

        /* add predecessors */
        q := self.nodes[idx]
        q.pred = append(q.pred, p)
    }
}

func (self *_LengauerTarjan) eval(p *_LtNode) *_LtNode {
    if p.ancestor == nil {
        return p
    } else {
        self.compress(p)
        return p.label
    }
}

func (self *_LengauerTarjan) link(p *_LtNode, q *_LtNode) {
    q.ancestor = p
}

func (self *_LengauerTarjan) compress(p *_LtNode) {
    if p.ancestor.ancestor != nil {
        self.compress(p.ancestor)
        if p.label.semi > p.ancestor.label.semi { p.label = p.ancestor.label }
        p.ancestor = p.ancestor.ancestor
    }
}

// DominatorTree maps every reachable block to its immediate dominator.
type DominatorTree struct {
    Root        int
    DominatedBy map[int]int
    DominatorOf map[int][]int
}

// Dominates reports whether block a dominates block b.
func (self DominatorTree) Dominates(a int, b int) bool {
    for {
        if a == b {
            return true
        }
        p, ok := self.DominatedBy[b]
        if !ok {
            return false
        }
        b = p
    }
}

func minInt(a int, b int) int {
    if a < b {
        return a
    } else {
        return b
    }
}

// BuildDominatorTree runs Lengauer-Tarjan over the CFG from its root.
func BuildDominatorTree(cfg *CFG) DominatorTree {
    domby := make(map[int]int)
    domof := make(map[int][]int)

    /* Step 1: Carry out a depth-first search of the problem graph. Number the vertices
     * from 1 to n as they are reached during the search. Initialize the variables used
     * in succeeding steps. */
    lt := newLengauerTarjan(cfg)
    lt.dfs(cfg.Root)

    /* perform Step 2 and Step 3 simultaneously */
    for i := len(lt.nodes) - 1; i > 0; i-- {
        p := lt.nodes[i]
        q := (*_LtNode)(nil)

        /* Step 2: Compute the semidominators of all vertices by applying Theorem 4.
         * Carry out the computation vertex by vertex in decreasing order by number. */
        for _, v := range p.pred {
            q = lt.eval(v)
            p.semi = minInt(p.semi, q.semi)
        }

        /* link the ancestor */
        lt.link(p.parent, p)
        lt.nodes[p.semi].bucket[p] = struct{}{}

        /* Step 3: Implicitly define the immediate dominator of each vertex by applying Corollary 1 */
        for v := range p.parent.bucket {
            if q = lt.eval(v); q.semi < v.semi {
                v.dom = q
            } else {
                v.dom = p.parent
            }
        }

        /* clear the bucket */
        for v := range p.parent.bucket {
            delete(p.parent.bucket, v)
        }
    }

    /* Step 4: Explicitly define the immediate dominator of each vertex, carrying out the
     * computation vertex by vertex in increasing order by number. */
    for _, p := range lt.nodes[1:] {
        if p.dom.block != lt.nodes[p.semi].block {
            p.dom = p.dom.dom
        }
    }

    /* map the dominator relations */
    for _, p := range lt.nodes[1:] {
        domby[p.block] = p.dom.block
        domof[p.dom.block] = append(domof[p.dom.block], p.block)
    }

    /* construct the dominator tree */
    return DominatorTree {
        Root        : cfg.Root,
        DominatorOf : domof,
        DominatedBy : domby,
    }
}
