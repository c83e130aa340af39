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
    `sync`
)

var (
    emulatorPool sync.Pool
)

func newEmulator(nb int) (e *Emulator) {
    if v := emulatorPool.Get(); v == nil {
        e = new(Emulator)
    } else {
        e = resetEmulator(v.(*Emulator))
    }
    e.banks(nb)
    return
}

func freeEmulator(p *Emulator) {
    emulatorPool.Put(p)
}

func resetEmulator(p *Emulator) *Emulator {
    bk := p.bk[:0]
    *p = Emulator{}
    p.bk = bk
    return p
}

func (self *Emulator) banks(nb int) {
    if cap(self.bk) >= nb {
        self.bk = self.bk[:nb]
        for i := range self.bk {
            self.bk[i] = RegBank{}
        }
    } else {
        self.bk = make([]RegBank, nb)
    }
}
