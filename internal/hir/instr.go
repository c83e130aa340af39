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
    `unsafe`
)

type OpCode byte

const (
    OP_nop OpCode = iota    // no operation
    OP_ib                   //  i8(Iv) -> Rx
    OP_iw                   // i16(Iv) -> Rx
    OP_il                   // i32(Iv) -> Rx
    OP_iq                   // i64(Iv) -> Rx
    OP_ip                   // ptr(Pr) -> Pd
    OP_lb                   // i64(*(* i8)(Ps + Iv)) -> Rx
    OP_lw                   // i64(*(*i16)(Ps + Iv)) -> Rx
    OP_ll                   // i64(*(*i32)(Ps + Iv)) -> Rx
    OP_lq                   //     *(*i64)(Ps + Iv)  -> Rx
    OP_lp                   //     *(*ptr)(Ps + Iv)  -> Pd
    OP_sb                   //  i8(Rx) -> *(* i8)(Pd + Iv)
    OP_sw                   // i16(Rx) -> *(*i16)(Pd + Iv)
    OP_sl                   // i32(Rx) -> *(*i32)(Pd + Iv)
    OP_sq                   //     Rx  -> *(*i64)(Pd + Iv)
    OP_sp                   //     Ps  -> *(*ptr)(Pd + Iv)
    OP_mov                  // Rx -> Ry
    OP_movp                 // Ps -> Pd
    OP_ldaq                 // arg[Iv] -> Rx
    OP_ldap                 // arg[Iv] -> Pd
    OP_addp                 // Ps + Rx -> Pd
    OP_subp                 // Ps - Rx -> Pd
    OP_addpi                // Ps + Iv -> Pd
    OP_add                  // Rx + Ry -> Rz
    OP_sub                  // Rx - Ry -> Rz
    OP_mul                  // Rx * Ry -> Rz
    OP_addi                 // Rx + Iv -> Ry
    OP_subi                 // Rx - Iv -> Ry
    OP_muli                 // Rx * Iv -> Ry
    OP_andi                 // Rx & Iv -> Ry
    OP_xori                 // Rx ^ Iv -> Ry
    OP_shli                 // Rx << Iv -> Ry
    OP_shri                 // Rx >> Iv -> Ry
    OP_beq                  // if (Rx == Ry) Br.PC -> PC
    OP_bne                  // if (Rx != Ry) Br.PC -> PC
    OP_blt                  // if (Rx <  Ry) Br.PC -> PC
    OP_bge                  // if (Rx >= Ry) Br.PC -> PC
    OP_bltu                 // if (u(Rx) <  u(Ry)) Br.PC -> PC
    OP_bgeu                 // if (u(Rx) >= u(Ry)) Br.PC -> PC
    OP_jmp                  // Br.PC -> PC
    OP_call                 // inline the named helper function, removed by the inliner
    OP_barrier              // work-group rendezvous marker
    OP_lidx                 // work-item index along dimension Iv -> Rx, consumed by replication
    OP_lsiz                 // local size along dimension Iv -> Rx, consumed by replication
    OP_wibank               // switch to the register bank of work-item Iv, emitted by replication
    OP_halt                 // stop execution
)

type Instr struct {
    Op OpCode
    Rx GenericRegister
    Ry GenericRegister
    Rz GenericRegister
    Ps PointerRegister
    Pd PointerRegister
    Iv int64
    Fn string
    Pr unsafe.Pointer
    Br *Instr
    Ln *Instr
}

func (self *Instr) iv(v int64)           *Instr { self.Iv = v; return self }
func (self *Instr) fn(v string)          *Instr { self.Fn = v; return self }
func (self *Instr) pr(v unsafe.Pointer)  *Instr { self.Pr = v; return self }
func (self *Instr) rx(v GenericRegister) *Instr { self.Rx = v; return self }
func (self *Instr) ry(v GenericRegister) *Instr { self.Ry = v; return self }
func (self *Instr) rz(v GenericRegister) *Instr { self.Rz = v; return self }
func (self *Instr) ps(v PointerRegister) *Instr { self.Ps = v; return self }
func (self *Instr) pd(v PointerRegister) *Instr { self.Pd = v; return self }

// IsBranch reports whether the instruction transfers control through Br.
func (self *Instr) IsBranch() bool {
    return self.Op >= OP_beq && self.Op <= OP_jmp
}

// IsTerm reports whether the instruction never falls through to Ln.
func (self *Instr) IsTerm() bool {
    return self.Op == OP_jmp || self.Op == OP_halt
}

func (self *Instr) Disassemble(refs map[*Instr]string) string {
    switch self.Op {
        case OP_nop     : return "nop"
        case OP_ib      : return fmt.Sprintf("ib      $%d, %%%s", self.Iv, self.Rx)
        case OP_iw      : return fmt.Sprintf("iw      $%d, %%%s", self.Iv, self.Rx)
        case OP_il      : return fmt.Sprintf("il      $%d, %%%s", self.Iv, self.Rx)
        case OP_iq      : return fmt.Sprintf("iq      $%d, %%%s", self.Iv, self.Rx)
        case OP_ip      : return fmt.Sprintf("ip      $%p, %%%s", self.Pr, self.Pd)
        case OP_lb      : return fmt.Sprintf("lb      %d(%%%s), %%%s", self.Iv, self.Ps, self.Rx)
        case OP_lw      : return fmt.Sprintf("lw      %d(%%%s), %%%s", self.Iv, self.Ps, self.Rx)
        case OP_ll      : return fmt.Sprintf("ll      %d(%%%s), %%%s", self.Iv, self.Ps, self.Rx)
        case OP_lq      : return fmt.Sprintf("lq      %d(%%%s), %%%s", self.Iv, self.Ps, self.Rx)
        case OP_lp      : return fmt.Sprintf("lp      %d(%%%s), %%%s", self.Iv, self.Ps, self.Pd)
        case OP_sb      : return fmt.Sprintf("sb      %%%s, %d(%%%s)", self.Rx, self.Iv, self.Pd)
        case OP_sw      : return fmt.Sprintf("sw      %%%s, %d(%%%s)", self.Rx, self.Iv, self.Pd)
        case OP_sl      : return fmt.Sprintf("sl      %%%s, %d(%%%s)", self.Rx, self.Iv, self.Pd)
        case OP_sq      : return fmt.Sprintf("sq      %%%s, %d(%%%s)", self.Rx, self.Iv, self.Pd)
        case OP_sp      : return fmt.Sprintf("sp      %%%s, %d(%%%s)", self.Ps, self.Iv, self.Pd)
        case OP_mov     : return fmt.Sprintf("mov     %%%s, %%%s", self.Rx, self.Ry)
        case OP_movp    : return fmt.Sprintf("mov     %%%s, %%%s", self.Ps, self.Pd)
        case OP_ldaq    : return fmt.Sprintf("lda     $%d, %%%s", self.Iv, self.Rx)
        case OP_ldap    : return fmt.Sprintf("lda     $%d, %%%s", self.Iv, self.Pd)
        case OP_addp    : return fmt.Sprintf("add     %%%s, %%%s, %%%s", self.Ps, self.Rx, self.Pd)
        case OP_subp    : return fmt.Sprintf("sub     %%%s, %%%s, %%%s", self.Ps, self.Rx, self.Pd)
        case OP_addpi   : return fmt.Sprintf("add     %%%s, %d, %%%s", self.Ps, self.Iv, self.Pd)
        case OP_add     : return fmt.Sprintf("add     %%%s, %%%s, %%%s", self.Rx, self.Ry, self.Rz)
        case OP_sub     : return fmt.Sprintf("sub     %%%s, %%%s, %%%s", self.Rx, self.Ry, self.Rz)
        case OP_mul     : return fmt.Sprintf("mul     %%%s, %%%s, %%%s", self.Rx, self.Ry, self.Rz)
        case OP_addi    : return fmt.Sprintf("add     %%%s, %d, %%%s", self.Rx, self.Iv, self.Ry)
        case OP_subi    : return fmt.Sprintf("sub     %%%s, %d, %%%s", self.Rx, self.Iv, self.Ry)
        case OP_muli    : return fmt.Sprintf("mul     %%%s, %d, %%%s", self.Rx, self.Iv, self.Ry)
        case OP_andi    : return fmt.Sprintf("and     %%%s, %d, %%%s", self.Rx, self.Iv, self.Ry)
        case OP_xori    : return fmt.Sprintf("xor     %%%s, %d, %%%s", self.Rx, self.Iv, self.Ry)
        case OP_shli    : return fmt.Sprintf("shl     %%%s, %d, %%%s", self.Rx, self.Iv, self.Ry)
        case OP_shri    : return fmt.Sprintf("shr     %%%s, %d, %%%s", self.Rx, self.Iv, self.Ry)
        case OP_beq     : return fmt.Sprintf("beq     %%%s, %%%s, %s", self.Rx, self.Ry, refs[self.Br])
        case OP_bne     : return fmt.Sprintf("bne     %%%s, %%%s, %s", self.Rx, self.Ry, refs[self.Br])
        case OP_blt     : return fmt.Sprintf("blt     %%%s, %%%s, %s", self.Rx, self.Ry, refs[self.Br])
        case OP_bge     : return fmt.Sprintf("bge     %%%s, %%%s, %s", self.Rx, self.Ry, refs[self.Br])
        case OP_bltu    : return fmt.Sprintf("bltu    %%%s, %%%s, %s", self.Rx, self.Ry, refs[self.Br])
        case OP_bgeu    : return fmt.Sprintf("bgeu    %%%s, %%%s, %s", self.Rx, self.Ry, refs[self.Br])
        case OP_jmp     : return fmt.Sprintf("jmp     %s", refs[self.Br])
        case OP_call    : return fmt.Sprintf("call    %s", self.Fn)
        case OP_barrier : return "barrier"
        case OP_lidx    : return fmt.Sprintf("lidx    $%d, %%%s", self.Iv, self.Rx)
        case OP_lsiz    : return fmt.Sprintf("lsiz    $%d, %%%s", self.Iv, self.Rx)
        case OP_wibank  : return fmt.Sprintf("wibank  $%d", self.Iv)
        case OP_halt    : return "halt"
        default         : panic(fmt.Sprintf("invalid OpCode: 0x%02x", self.Op))
    }
}
