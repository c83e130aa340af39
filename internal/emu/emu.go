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

package emu

import (
    `fmt`
    `unsafe`

    `github.com/gopocl/gopocl/internal/hir`
)

// MaxArgs bounds the argument slots of one invocation: declared parameters,
// local buffer pointers and the trailing context pointer all live here.
const MaxArgs = 32

type Value struct {
    U uint64
    P unsafe.Pointer
}

// RegBank is the private register file of one work-item. Values held across
// a barrier stay in the item's bank; replicas never read another bank.
type RegBank struct {
    Gr [hir.NumRegs]uint64
    Pr [hir.NumRegs]unsafe.Pointer
}

type Emulator struct {
    PC *hir.Instr
    Ar [MaxArgs]Value
    Ln bool
    bk []RegBank
    cb int
    it [3]uint32
    ls hir.LocalSize
}

// LoadProgram prepares an emulator over p with one register bank per
// work-item of ls. A zero-volume ls gets a single bank.
func LoadProgram(p hir.Program, ls hir.LocalSize) (e *Emulator) {
    nb := int(ls.Volume())
    if nb < 1 {
        nb = 1
        ls = hir.LocalSize{1, 1, 1}
    }
    e    = newEmulator(nb)
    e.PC = p.Head
    e.ls = ls
    return
}

var dispatchTab = [...]func(e *Emulator, p *hir.Instr) {
    hir.OP_nop     : (*Emulator).emu_OP_nop,
    hir.OP_ib      : (*Emulator).emu_OP_ib,
    hir.OP_iw      : (*Emulator).emu_OP_iw,
    hir.OP_il      : (*Emulator).emu_OP_il,
    hir.OP_iq      : (*Emulator).emu_OP_iq,
    hir.OP_ip      : (*Emulator).emu_OP_ip,
    hir.OP_lb      : (*Emulator).emu_OP_lb,
    hir.OP_lw      : (*Emulator).emu_OP_lw,
    hir.OP_ll      : (*Emulator).emu_OP_ll,
    hir.OP_lq      : (*Emulator).emu_OP_lq,
    hir.OP_lp      : (*Emulator).emu_OP_lp,
    hir.OP_sb      : (*Emulator).emu_OP_sb,
    hir.OP_sw      : (*Emulator).emu_OP_sw,
    hir.OP_sl      : (*Emulator).emu_OP_sl,
    hir.OP_sq      : (*Emulator).emu_OP_sq,
    hir.OP_sp      : (*Emulator).emu_OP_sp,
    hir.OP_mov     : (*Emulator).emu_OP_mov,
    hir.OP_movp    : (*Emulator).emu_OP_movp,
    hir.OP_ldaq    : (*Emulator).emu_OP_ldaq,
    hir.OP_ldap    : (*Emulator).emu_OP_ldap,
    hir.OP_addp    : (*Emulator).emu_OP_addp,
    hir.OP_subp    : (*Emulator).emu_OP_subp,
    hir.OP_addpi   : (*Emulator).emu_OP_addpi,
    hir.OP_add     : (*Emulator).emu_OP_add,
    hir.OP_sub     : (*Emulator).emu_OP_sub,
    hir.OP_mul     : (*Emulator).emu_OP_mul,
    hir.OP_addi    : (*Emulator).emu_OP_addi,
    hir.OP_subi    : (*Emulator).emu_OP_subi,
    hir.OP_muli    : (*Emulator).emu_OP_muli,
    hir.OP_andi    : (*Emulator).emu_OP_andi,
    hir.OP_xori    : (*Emulator).emu_OP_xori,
    hir.OP_shli    : (*Emulator).emu_OP_shli,
    hir.OP_shri    : (*Emulator).emu_OP_shri,
    hir.OP_beq     : (*Emulator).emu_OP_beq,
    hir.OP_bne     : (*Emulator).emu_OP_bne,
    hir.OP_blt     : (*Emulator).emu_OP_blt,
    hir.OP_bge     : (*Emulator).emu_OP_bge,
    hir.OP_bltu    : (*Emulator).emu_OP_bltu,
    hir.OP_bgeu    : (*Emulator).emu_OP_bgeu,
    hir.OP_jmp     : (*Emulator).emu_OP_jmp,
    hir.OP_barrier : (*Emulator).emu_OP_barrier,
    hir.OP_lidx    : (*Emulator).emu_OP_lidx,
    hir.OP_lsiz    : (*Emulator).emu_OP_lsiz,
    hir.OP_wibank  : (*Emulator).emu_OP_wibank,
    hir.OP_halt    : (*Emulator).emu_OP_halt,
}

//go:nosplit
func (self *Emulator) emu_OP_nop(_ *hir.Instr) {
    /* no operation */
}

//go:nosplit
func (self *Emulator) emu_OP_ib(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rx] = uint64(int8(p.Iv))
}

//go:nosplit
func (self *Emulator) emu_OP_iw(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rx] = uint64(int16(p.Iv))
}

//go:nosplit
func (self *Emulator) emu_OP_il(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rx] = uint64(int32(p.Iv))
}

//go:nosplit
func (self *Emulator) emu_OP_iq(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rx] = uint64(p.Iv)
}

//go:nosplit
func (self *Emulator) emu_OP_ip(p *hir.Instr) {
    self.bk[self.cb].Pr[p.Pd] = p.Pr
}

//go:nosplit
func (self *Emulator) emu_OP_lb(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rx] = uint64(*(*int8)(self.mem(p.Ps, p.Iv)))
}

//go:nosplit
func (self *Emulator) emu_OP_lw(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rx] = uint64(*(*int16)(self.mem(p.Ps, p.Iv)))
}

//go:nosplit
func (self *Emulator) emu_OP_ll(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rx] = uint64(*(*int32)(self.mem(p.Ps, p.Iv)))
}

//go:nosplit
func (self *Emulator) emu_OP_lq(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rx] = uint64(*(*int64)(self.mem(p.Ps, p.Iv)))
}

//go:nosplit
func (self *Emulator) emu_OP_lp(p *hir.Instr) {
    self.bk[self.cb].Pr[p.Pd] = *(*unsafe.Pointer)(self.mem(p.Ps, p.Iv))
}

//go:nosplit
func (self *Emulator) emu_OP_sb(p *hir.Instr) {
    *(*int8)(self.mem(p.Pd, p.Iv)) = int8(self.bk[self.cb].Gr[p.Rx])
}

//go:nosplit
func (self *Emulator) emu_OP_sw(p *hir.Instr) {
    *(*int16)(self.mem(p.Pd, p.Iv)) = int16(self.bk[self.cb].Gr[p.Rx])
}

//go:nosplit
func (self *Emulator) emu_OP_sl(p *hir.Instr) {
    *(*int32)(self.mem(p.Pd, p.Iv)) = int32(self.bk[self.cb].Gr[p.Rx])
}

//go:nosplit
func (self *Emulator) emu_OP_sq(p *hir.Instr) {
    *(*int64)(self.mem(p.Pd, p.Iv)) = int64(self.bk[self.cb].Gr[p.Rx])
}

//go:nosplit
func (self *Emulator) emu_OP_sp(p *hir.Instr) {
    *(*unsafe.Pointer)(self.mem(p.Pd, p.Iv)) = self.bk[self.cb].Pr[p.Ps]
}

//go:nosplit
func (self *Emulator) emu_OP_mov(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Ry] = self.bk[self.cb].Gr[p.Rx]
}

//go:nosplit
func (self *Emulator) emu_OP_movp(p *hir.Instr) {
    self.bk[self.cb].Pr[p.Pd] = self.bk[self.cb].Pr[p.Ps]
}

//go:nosplit
func (self *Emulator) emu_OP_ldaq(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rx] = self.Ar[p.Iv].U
}

//go:nosplit
func (self *Emulator) emu_OP_ldap(p *hir.Instr) {
    self.bk[self.cb].Pr[p.Pd] = self.Ar[p.Iv].P
}

//go:nosplit
func (self *Emulator) emu_OP_addp(p *hir.Instr) {
    self.bk[self.cb].Pr[p.Pd] = unsafe.Pointer(uintptr(self.bk[self.cb].Pr[p.Ps]) + uintptr(self.bk[self.cb].Gr[p.Rx]))
}

//go:nosplit
func (self *Emulator) emu_OP_subp(p *hir.Instr) {
    self.bk[self.cb].Pr[p.Pd] = unsafe.Pointer(uintptr(self.bk[self.cb].Pr[p.Ps]) - uintptr(self.bk[self.cb].Gr[p.Rx]))
}

//go:nosplit
func (self *Emulator) emu_OP_addpi(p *hir.Instr) {
    self.bk[self.cb].Pr[p.Pd] = unsafe.Pointer(uintptr(self.bk[self.cb].Pr[p.Ps]) + uintptr(p.Iv))
}

//go:nosplit
func (self *Emulator) emu_OP_add(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rz] = self.bk[self.cb].Gr[p.Rx] + self.bk[self.cb].Gr[p.Ry]
}

//go:nosplit
func (self *Emulator) emu_OP_sub(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rz] = self.bk[self.cb].Gr[p.Rx] - self.bk[self.cb].Gr[p.Ry]
}

//go:nosplit
func (self *Emulator) emu_OP_mul(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rz] = self.bk[self.cb].Gr[p.Rx] * self.bk[self.cb].Gr[p.Ry]
}

//go:nosplit
func (self *Emulator) emu_OP_addi(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Ry] = self.bk[self.cb].Gr[p.Rx] + uint64(p.Iv)
}

//go:nosplit
func (self *Emulator) emu_OP_subi(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Ry] = self.bk[self.cb].Gr[p.Rx] - uint64(p.Iv)
}

//go:nosplit
func (self *Emulator) emu_OP_muli(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Ry] = self.bk[self.cb].Gr[p.Rx] * uint64(p.Iv)
}

//go:nosplit
func (self *Emulator) emu_OP_andi(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Ry] = self.bk[self.cb].Gr[p.Rx] & uint64(p.Iv)
}

//go:nosplit
func (self *Emulator) emu_OP_xori(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Ry] = self.bk[self.cb].Gr[p.Rx] ^ uint64(p.Iv)
}

//go:nosplit
func (self *Emulator) emu_OP_shli(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Ry] = self.bk[self.cb].Gr[p.Rx] << uint64(p.Iv)
}

//go:nosplit
func (self *Emulator) emu_OP_shri(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Ry] = self.bk[self.cb].Gr[p.Rx] >> uint64(p.Iv)
}

//go:nosplit
func (self *Emulator) emu_OP_beq(p *hir.Instr) {
    if self.bk[self.cb].Gr[p.Rx] == self.bk[self.cb].Gr[p.Ry] {
        self.PC = p.Br
        self.Ln = false
    }
}

//go:nosplit
func (self *Emulator) emu_OP_bne(p *hir.Instr) {
    if self.bk[self.cb].Gr[p.Rx] != self.bk[self.cb].Gr[p.Ry] {
        self.PC = p.Br
        self.Ln = false
    }
}

//go:nosplit
func (self *Emulator) emu_OP_blt(p *hir.Instr) {
    if int64(self.bk[self.cb].Gr[p.Rx]) < int64(self.bk[self.cb].Gr[p.Ry]) {
        self.PC = p.Br
        self.Ln = false
    }
}

//go:nosplit
func (self *Emulator) emu_OP_bge(p *hir.Instr) {
    if int64(self.bk[self.cb].Gr[p.Rx]) >= int64(self.bk[self.cb].Gr[p.Ry]) {
        self.PC = p.Br
        self.Ln = false
    }
}

//go:nosplit
func (self *Emulator) emu_OP_bltu(p *hir.Instr) {
    if self.bk[self.cb].Gr[p.Rx] < self.bk[self.cb].Gr[p.Ry] {
        self.PC = p.Br
        self.Ln = false
    }
}

//go:nosplit
func (self *Emulator) emu_OP_bgeu(p *hir.Instr) {
    if self.bk[self.cb].Gr[p.Rx] >= self.bk[self.cb].Gr[p.Ry] {
        self.PC = p.Br
        self.Ln = false
    }
}

//go:nosplit
func (self *Emulator) emu_OP_jmp(p *hir.Instr) {
    self.PC = p.Br
    self.Ln = false
}

//go:nosplit
func (self *Emulator) emu_OP_barrier(_ *hir.Instr) {
    /* pure marker: by the time a barrier executes, region sequencing
     * already enforces the rendezvous */
}

//go:nosplit
func (self *Emulator) emu_OP_lidx(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rx] = uint64(self.it[p.Iv])
}

//go:nosplit
func (self *Emulator) emu_OP_lsiz(p *hir.Instr) {
    self.bk[self.cb].Gr[p.Rx] = uint64(self.ls[p.Iv])
}

//go:nosplit
func (self *Emulator) emu_OP_wibank(p *hir.Instr) {
    self.cb = int(p.Iv)
    self.it[0], self.it[1], self.it[2] = self.ls.Coords(uint64(p.Iv))
}

//go:nosplit
func (self *Emulator) emu_OP_halt(_ *hir.Instr) {
    self.PC = nil
    self.Ln = false
}

func (self *Emulator) mem(r hir.PointerRegister, disp int64) unsafe.Pointer {
    return unsafe.Pointer(uintptr(self.bk[self.cb].Pr[r]) + uintptr(disp))
}

// At positions the current work-item for direct single-item execution of an
// untransformed kernel body.
func (self *Emulator) At(x uint32, y uint32, z uint32) *Emulator {
    self.it = [3]uint32{x, y, z}
    return self
}

func (self *Emulator) Au(i int, v uint64)         *Emulator { self.Ar[i].U = v; return self }
func (self *Emulator) Ap(i int, v unsafe.Pointer) *Emulator { self.Ar[i].P = v; return self }

func (self *Emulator) Run() {
    var ip *hir.Instr
    var fn func(e *Emulator, p *hir.Instr)

    /* run until end */
    for self.PC != nil {
        ip = self.PC
        if int(ip.Op) < len(dispatchTab) {
            fn = dispatchTab[ip.Op]
        } else {
            fn = nil
        }

        /* move cold path outside of the loop */
        if fn == nil {
            break
        }

        /* clear certain registers every cycle */
        self.Ln = true
        self.bk[self.cb].Gr[hir.Rz] = 0
        self.bk[self.cb].Pr[hir.Pn] = nil

        /* execute and advance the PC if needed */
        if fn(self, ip); self.Ln {
            self.PC = self.PC.Ln
        }
    }

    /* check for exceptions */
    if self.PC != nil {
        panic(fmt.Sprintf("emu: illegal OpCode: %#02x", self.PC.Op))
    }
}

func (self *Emulator) Free() {
    freeEmulator(self)
}
