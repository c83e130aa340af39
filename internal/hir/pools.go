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
    `sync`
)

var (
    instrPool   sync.Pool
    builderPool sync.Pool
)

func newInstr(op OpCode) *Instr {
    if v := instrPool.Get(); v == nil {
        return allocInstr(op)
    } else {
        return resetInstr(op, v.(*Instr))
    }
}

func freeInstr(p *Instr) {
    instrPool.Put(p)
}

func allocInstr(op OpCode) (p *Instr) {
    p = new(Instr)
    p.Op = op
    return
}

func resetInstr(op OpCode, p *Instr) *Instr {
    *p = Instr{Op: op}
    return p
}

// NewInstr allocates a pooled instruction for compiler-synthesized code.
func NewInstr(op OpCode) *Instr {
    return newInstr(op)
}

// Free returns a single unlinked instruction to the pool.
func (self *Instr) Free() {
    freeInstr(self)
}

func newBuilder() *Builder {
    if v := builderPool.Get(); v == nil {
        return allocBuilder()
    } else {
        return resetBuilder(v.(*Builder))
    }
}

func freeBuilder(p *Builder) {
    builderPool.Put(p)
}

func allocBuilder() (p *Builder) {
    p       = new(Builder)
    p.refs  = make(map[string]*Instr, 64)
    p.pends = make(map[string][]*Instr, 64)
    return
}

func resetBuilder(p *Builder) *Builder {
    p.i    = 0
    p.head = nil
    p.tail = nil
    mapclears(p.refs)
    mapclearp(p.pends)
    return p
}

func (self *Builder) Free() {
    freeBuilder(self)
}

func mapclears(m map[string]*Instr) {
    for k := range m {
        delete(m, k)
    }
}

func mapclearp(m map[string][]*Instr) {
    for k := range m {
        delete(m, k)
    }
}
