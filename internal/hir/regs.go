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
)

type (
    GenericRegister uint8
    PointerRegister uint8
)

const (
    R0 GenericRegister = iota
    R1
    R2
    R3
    R4
    R5
    R6
    R7
    R8
    R9
    R10
    R11
    R12
    R13
    R14
    R15
    Rz      // zero register, reads as 0, writes are discarded
)

const (
    P0 PointerRegister = iota
    P1
    P2
    P3
    P4
    P5
    P6
    P7
    P8
    P9
    P10
    P11
    P12
    P13
    P14
    P15
    Pn      // nil pointer register
)

// NumRegs is the size of one register bank, zero / nil registers included.
const NumRegs = 17

func (self GenericRegister) String() string {
    if self == Rz {
        return "z"
    } else if self < Rz {
        return fmt.Sprintf("r%d", uint8(self))
    } else {
        panic(fmt.Sprintf("invalid generic register: 0x%02x", uint8(self)))
    }
}

func (self PointerRegister) String() string {
    if self == Pn {
        return "nil"
    } else if self < Pn {
        return fmt.Sprintf("p%d", uint8(self))
    } else {
        panic(fmt.Sprintf("invalid pointer register: 0x%02x", uint8(self)))
    }
}
