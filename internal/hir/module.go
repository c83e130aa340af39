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

type Kind uint8

const (
    KindI8 Kind = iota
    KindI16
    KindI32
    KindI64
    KindPtr
)

func (self Kind) String() string {
    switch self {
        case KindI8  : return "i8"
        case KindI16 : return "i16"
        case KindI32 : return "i32"
        case KindI64 : return "i64"
        case KindPtr : return "ptr"
        default      : panic(fmt.Sprintf("invalid Kind: 0x%02x", uint8(self)))
    }
}

// Param describes one declared kernel parameter. NoAlias is set by the
// compiler on every pointer parameter, matching the no-overlap contract of
// buffer arguments.
type Param struct {
    Kind    Kind
    NoAlias bool
}

// LocalSize is the (x, y, z) dimensions of a work-group.
type LocalSize [3]uint32

func (self LocalSize) Volume() uint64 {
    return uint64(self[0]) * uint64(self[1]) * uint64(self[2])
}

func (self LocalSize) String() string {
    return fmt.Sprintf("%dx%dx%d", self[0], self[1], self[2])
}

// Linear maps (x, y, z) to the canonical work-item order, x varying fastest.
func (self LocalSize) Linear(x uint32, y uint32, z uint32) uint64 {
    return uint64(x) + uint64(self[0]) * (uint64(y) + uint64(self[1]) * uint64(z))
}

// Coords is the inverse of Linear.
func (self LocalSize) Coords(i uint64) (x uint32, y uint32, z uint32) {
    x = uint32(i % uint64(self[0]))
    y = uint32(i / uint64(self[0]) % uint64(self[1]))
    z = uint32(i / uint64(self[0]) / uint64(self[1]))
    return
}

type Function struct {
    Name   string
    Params []Param
    Body   Program
}

// Module is one compilation unit: a function table plus the two metadata
// channels the workgroup compiler consumes. Kernels is the required list of
// kernel functions to process; WGSizes and Locals are per-kernel side tables
// keyed by kernel name.
type Module struct {
    Funcs   map[string]*Function
    Kernels []string
    WGSizes map[string]LocalSize
    Locals  map[string][]int64
}

func NewModule() *Module {
    return &Module {
        Funcs   : make(map[string]*Function),
        WGSizes : make(map[string]LocalSize),
        Locals  : make(map[string][]int64),
    }
}

// AddFunction registers a helper function callable from kernels via OP_call.
func (self *Module) AddFunction(name string, body Program) *Function {
    fn := &Function { Name: name, Body: body }
    self.Funcs[name] = fn
    return fn
}

// AddKernel registers fn as a kernel and appends it to the kernel list.
func (self *Module) AddKernel(name string, params []Param, body Program) *Function {
    fn := &Function { Name: name, Params: params, Body: body }
    self.Funcs[name] = fn
    self.Kernels = append(self.Kernels, name)
    return fn
}

// SetWGSize records the reqd_work_group_size hint for a kernel.
func (self *Module) SetWGSize(name string, ls LocalSize) {
    self.WGSizes[name] = ls
}

// SetLocals records the sizes of the group-shared buffers a kernel declares.
func (self *Module) SetLocals(name string, sizes []int64) {
    self.Locals[name] = sizes
}
