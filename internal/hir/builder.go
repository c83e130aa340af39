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
    `strconv`
    `strings`
    `unsafe`
)

type Builder struct {
    i     int
    head  *Instr
    tail  *Instr
    refs  map[string]*Instr
    pends map[string][]*Instr
}

func CreateBuilder() *Builder {
    return newBuilder()
}

func (self *Builder) add(ins *Instr) *Instr {
    self.push(ins)
    return ins
}

func (self *Builder) jmp(p *Instr, to string) *Instr {
    var ok bool
    var lb *Instr

    /* placeholder substitution */
    if strings.Contains(to, "{n}") {
        to = strings.ReplaceAll(to, "{n}", strconv.Itoa(self.i))
    }

    /* check for backward jumps */
    if lb, ok = self.refs[to]; !ok {
        self.pends[to] = append(self.pends[to], p)
    }

    /* add to instruction buffer */
    p.Br = lb
    return self.add(p)
}

func (self *Builder) push(ins *Instr) {
    if self.head == nil {
        self.head = ins
        self.tail = ins
    } else {
        self.tail.Ln = ins
        self.tail    = ins
    }
}

func (self *Builder) Label(to string) {
    var p *Instr
    var v []*Instr

    /* placeholder substitution */
    if strings.Contains(to, "{n}") {
        to = strings.ReplaceAll(to, "{n}", strconv.Itoa(self.i))
    }

    /* check for duplications */
    if _, ok := self.refs[to]; ok {
        panic("label " + to + " has already been linked")
    }

    /* get the pending links */
    p = self.NOP()
    v = self.pends[to]

    /* patch all the pending jumps */
    for _, q := range v {
        q.Br = p
    }

    /* mark the label as resolved */
    self.refs[to] = p
    delete(self.pends, to)
}

func (self *Builder) Build() (r Program) {
    var p *Instr

    /* check for unresolved labels */
    for key := range self.pends {
        panic("labels are not fully resolved: " + key)
    }

    /* a label at the very end has no instruction to land on; falling off
     * the end of the program means halt, so give it one */
    if self.tail != nil && self.tail.Op == OP_nop {
        self.HALT()
    }

    /* adjust jumps to point at actual instructions */
    for p = self.head; p != nil; p = p.Ln {
        if p.IsBranch() {
            for p.Br.Ln != nil && p.Br.Op == OP_nop {
                p.Br = p.Br.Ln
            }
        }
    }

    /* remove NOPs at the front */
    for self.head != nil && self.head.Op == OP_nop {
        p         = self.head
        self.head = p.Ln
        freeInstr(p)
    }

    /* no instructions left */
    if self.head == nil {
        return Program { Head: self.HALT() }
    }

    /* remove all the instructions that are not reachable from the head */
    for p = self.head; p.Ln != nil; {
        if p.Ln.Op != OP_nop {
            p = p.Ln
        } else {
            q := p.Ln
            p.Ln = q.Ln
            freeInstr(q)
        }
    }

    /* the head of the program */
    self.tail = p
    return Program { Head: self.head }
}

func (self *Builder) NOP() *Instr {
    return self.add(newInstr(OP_nop))
}

func (self *Builder) IB(v int8, rx GenericRegister) *Instr {
    return self.add(newInstr(OP_ib).iv(int64(v)).rx(rx))
}

func (self *Builder) IW(v int16, rx GenericRegister) *Instr {
    return self.add(newInstr(OP_iw).iv(int64(v)).rx(rx))
}

func (self *Builder) IL(v int32, rx GenericRegister) *Instr {
    return self.add(newInstr(OP_il).iv(int64(v)).rx(rx))
}

func (self *Builder) IQ(v int64, rx GenericRegister) *Instr {
    return self.add(newInstr(OP_iq).iv(v).rx(rx))
}

func (self *Builder) IP(v unsafe.Pointer, pd PointerRegister) *Instr {
    return self.add(newInstr(OP_ip).pr(v).pd(pd))
}

func (self *Builder) LB(ps PointerRegister, disp int64, rx GenericRegister) *Instr {
    return self.add(newInstr(OP_lb).ps(ps).iv(disp).rx(rx))
}

func (self *Builder) LW(ps PointerRegister, disp int64, rx GenericRegister) *Instr {
    return self.add(newInstr(OP_lw).ps(ps).iv(disp).rx(rx))
}

func (self *Builder) LL(ps PointerRegister, disp int64, rx GenericRegister) *Instr {
    return self.add(newInstr(OP_ll).ps(ps).iv(disp).rx(rx))
}

func (self *Builder) LQ(ps PointerRegister, disp int64, rx GenericRegister) *Instr {
    return self.add(newInstr(OP_lq).ps(ps).iv(disp).rx(rx))
}

func (self *Builder) LP(ps PointerRegister, disp int64, pd PointerRegister) *Instr {
    return self.add(newInstr(OP_lp).ps(ps).iv(disp).pd(pd))
}

func (self *Builder) SB(rx GenericRegister, pd PointerRegister, disp int64) *Instr {
    return self.add(newInstr(OP_sb).rx(rx).pd(pd).iv(disp))
}

func (self *Builder) SW(rx GenericRegister, pd PointerRegister, disp int64) *Instr {
    return self.add(newInstr(OP_sw).rx(rx).pd(pd).iv(disp))
}

func (self *Builder) SL(rx GenericRegister, pd PointerRegister, disp int64) *Instr {
    return self.add(newInstr(OP_sl).rx(rx).pd(pd).iv(disp))
}

func (self *Builder) SQ(rx GenericRegister, pd PointerRegister, disp int64) *Instr {
    return self.add(newInstr(OP_sq).rx(rx).pd(pd).iv(disp))
}

func (self *Builder) SP(ps PointerRegister, pd PointerRegister, disp int64) *Instr {
    return self.add(newInstr(OP_sp).ps(ps).pd(pd).iv(disp))
}

func (self *Builder) MOV(rx GenericRegister, ry GenericRegister) *Instr {
    return self.add(newInstr(OP_mov).rx(rx).ry(ry))
}

func (self *Builder) MOVP(ps PointerRegister, pd PointerRegister) *Instr {
    return self.add(newInstr(OP_movp).ps(ps).pd(pd))
}

func (self *Builder) LDAQ(id int, rx GenericRegister) *Instr {
    return self.add(newInstr(OP_ldaq).iv(int64(id)).rx(rx))
}

func (self *Builder) LDAP(id int, pd PointerRegister) *Instr {
    return self.add(newInstr(OP_ldap).iv(int64(id)).pd(pd))
}

func (self *Builder) ADDP(ps PointerRegister, rx GenericRegister, pd PointerRegister) *Instr {
    return self.add(newInstr(OP_addp).ps(ps).rx(rx).pd(pd))
}

func (self *Builder) SUBP(ps PointerRegister, rx GenericRegister, pd PointerRegister) *Instr {
    return self.add(newInstr(OP_subp).ps(ps).rx(rx).pd(pd))
}

func (self *Builder) ADDPI(ps PointerRegister, disp int64, pd PointerRegister) *Instr {
    return self.add(newInstr(OP_addpi).ps(ps).iv(disp).pd(pd))
}

func (self *Builder) ADD(rx GenericRegister, ry GenericRegister, rz GenericRegister) *Instr {
    return self.add(newInstr(OP_add).rx(rx).ry(ry).rz(rz))
}

func (self *Builder) SUB(rx GenericRegister, ry GenericRegister, rz GenericRegister) *Instr {
    return self.add(newInstr(OP_sub).rx(rx).ry(ry).rz(rz))
}

func (self *Builder) MUL(rx GenericRegister, ry GenericRegister, rz GenericRegister) *Instr {
    return self.add(newInstr(OP_mul).rx(rx).ry(ry).rz(rz))
}

func (self *Builder) ADDI(rx GenericRegister, im int64, ry GenericRegister) *Instr {
    return self.add(newInstr(OP_addi).rx(rx).iv(im).ry(ry))
}

func (self *Builder) SUBI(rx GenericRegister, im int64, ry GenericRegister) *Instr {
    return self.add(newInstr(OP_subi).rx(rx).iv(im).ry(ry))
}

func (self *Builder) MULI(rx GenericRegister, im int64, ry GenericRegister) *Instr {
    return self.add(newInstr(OP_muli).rx(rx).iv(im).ry(ry))
}

func (self *Builder) ANDI(rx GenericRegister, im int64, ry GenericRegister) *Instr {
    return self.add(newInstr(OP_andi).rx(rx).iv(im).ry(ry))
}

func (self *Builder) XORI(rx GenericRegister, im int64, ry GenericRegister) *Instr {
    return self.add(newInstr(OP_xori).rx(rx).iv(im).ry(ry))
}

func (self *Builder) SHLI(rx GenericRegister, im int64, ry GenericRegister) *Instr {
    return self.add(newInstr(OP_shli).rx(rx).iv(im).ry(ry))
}

func (self *Builder) SHRI(rx GenericRegister, im int64, ry GenericRegister) *Instr {
    return self.add(newInstr(OP_shri).rx(rx).iv(im).ry(ry))
}

func (self *Builder) BEQ(rx GenericRegister, ry GenericRegister, to string) *Instr {
    return self.jmp(newInstr(OP_beq).rx(rx).ry(ry), to)
}

func (self *Builder) BNE(rx GenericRegister, ry GenericRegister, to string) *Instr {
    return self.jmp(newInstr(OP_bne).rx(rx).ry(ry), to)
}

func (self *Builder) BLT(rx GenericRegister, ry GenericRegister, to string) *Instr {
    return self.jmp(newInstr(OP_blt).rx(rx).ry(ry), to)
}

func (self *Builder) BGE(rx GenericRegister, ry GenericRegister, to string) *Instr {
    return self.jmp(newInstr(OP_bge).rx(rx).ry(ry), to)
}

func (self *Builder) BLTU(rx GenericRegister, ry GenericRegister, to string) *Instr {
    return self.jmp(newInstr(OP_bltu).rx(rx).ry(ry), to)
}

func (self *Builder) BGEU(rx GenericRegister, ry GenericRegister, to string) *Instr {
    return self.jmp(newInstr(OP_bgeu).rx(rx).ry(ry), to)
}

func (self *Builder) JMP(to string) *Instr {
    return self.jmp(newInstr(OP_jmp), to)
}

func (self *Builder) CALL(fn string) *Instr {
    return self.add(newInstr(OP_call).fn(fn))
}

func (self *Builder) BARRIER() *Instr {
    return self.add(newInstr(OP_barrier))
}

func (self *Builder) LIDX(dim int, rx GenericRegister) *Instr {
    return self.add(newInstr(OP_lidx).iv(int64(dim)).rx(rx))
}

func (self *Builder) LSIZ(dim int, rx GenericRegister) *Instr {
    return self.add(newInstr(OP_lsiz).iv(int64(dim)).rx(rx))
}

func (self *Builder) WIBANK(item int) *Instr {
    return self.add(newInstr(OP_wibank).iv(int64(item)))
}

func (self *Builder) HALT() *Instr {
    return self.add(newInstr(OP_halt))
}
