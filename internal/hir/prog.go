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

package hir

import (
    `fmt`
    `strings`
)

type Program struct {
    Head *Instr
}

func (self Program) Free() {
    for p, q := self.Head, (*Instr)(nil); p != nil; p = q {
        q = p.Ln
        freeInstr(p)
    }
}

// Len counts the instructions of the program.
func (self Program) Len() (n int) {
    for p := self.Head; p != nil; p = p.Ln {
        n++
    }
    return
}

// Clone copies the whole instruction list, remapping internal branch targets.
func (self Program) Clone() Program {
    var p *Instr
    var q *Instr
    var r *Instr

    /* copy the list */
    m := make(map[*Instr]*Instr)
    for p = self.Head; p != nil; p = p.Ln {
        v := newInstr(p.Op)
        i := *p
        i.Br, i.Ln = nil, nil
        *v, v.Br, v.Ln = i, p.Br, nil
        m[p] = v
    }

    /* link and patch the branch targets */
    for p = self.Head; p != nil; p = p.Ln {
        q = m[p]
        if p.Ln != nil {
            q.Ln = m[p.Ln]
        }
        if q.Br != nil {
            if r = m[q.Br]; r == nil {
                panic("hir: branch target outside of program")
            } else {
                q.Br = r
            }
        }
    }

    /* head of the copy */
    return Program { Head: m[self.Head] }
}

func (self Program) Disassemble() string {
    var p *Instr
    var i int

    /* assign a name to every branch target */
    refs := make(map[*Instr]string)
    for p = self.Head; p != nil; p = p.Ln {
        if p.IsBranch() && refs[p.Br] == "" {
            refs[p.Br] = fmt.Sprintf("L_%d", i)
            i++
        }
    }

    /* dump every instruction */
    buf := make([]string, 0, self.Len())
    for p = self.Head; p != nil; p = p.Ln {
        if lb, ok := refs[p]; ok {
            buf = append(buf, lb + ":")
        }
        buf = append(buf, "    " + p.Disassemble(refs))
    }

    /* join them together */
    return strings.Join(buf, "\n")
}
