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

package rt

import (
    `unsafe`
)

// PoclContext carries the per-group launch state a work-group body reads at
// run time. It is passed by pointer in the trailing argument slot, and its
// layout is frozen: kernels address the fields with the displacement
// constants below, never through Go field access.
type PoclContext struct {
    WorkDim      uint32
    NumGroups    [3]uint32
    GroupID      [3]uint32
    GlobalOffset [3]uint32
}

const (
    CtxOffWorkDim      = int64(unsafe.Offsetof(PoclContext{}.WorkDim))
    CtxOffNumGroups    = int64(unsafe.Offsetof(PoclContext{}.NumGroups))
    CtxOffGroupID      = int64(unsafe.Offsetof(PoclContext{}.GroupID))
    CtxOffGlobalOffset = int64(unsafe.Offsetof(PoclContext{}.GlobalOffset))
    CtxSize            = int64(unsafe.Sizeof(PoclContext{}))
)
