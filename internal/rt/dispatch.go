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
    `fmt`
    `sync`

    `github.com/bytedance/gopkg/util/gopool`
    `github.com/gopocl/gopocl/internal/cpu`
)

var dispatchPool = gopool.NewPool("gopocl-dispatch", int32(cpu.WorkerCount()), gopool.NewConfig())

// Grid describes one enqueued launch: how many groups to run in each
// dimension and where the global id space starts.
type Grid struct {
    WorkDim      uint32
    NumGroups    [3]uint32
    GlobalOffset [3]uint32
}

func (self Grid) groups() uint64 {
    return uint64(self.NumGroups[0]) * uint64(self.NumGroups[1]) * uint64(self.NumGroups[2])
}

// Dispatch runs fn once per group of the grid, each invocation with its own
// PoclContext, and returns when every group has finished. Groups run
// concurrently on the shared worker pool; argv is shared across groups, the
// way global buffers are.
func Dispatch(g Grid, fn WorkgroupFn, argv []Value) error {
    if g.groups() == 0 {
        return fmt.Errorf("dispatch over empty grid %dx%dx%d", g.NumGroups[0], g.NumGroups[1], g.NumGroups[2])
    }

    var wg sync.WaitGroup
    for z := uint32(0); z < g.NumGroups[2]; z++ {
        for y := uint32(0); y < g.NumGroups[1]; y++ {
            for x := uint32(0); x < g.NumGroups[0]; x++ {
                gx, gy, gz := x, y, z
                wg.Add(1)
                dispatchPool.Go(func() {
                    defer wg.Done()
                    fn(&PoclContext {
                        WorkDim      : g.WorkDim,
                        NumGroups    : g.NumGroups,
                        GroupID      : [3]uint32{gx, gy, gz},
                        GlobalOffset : g.GlobalOffset,
                    }, argv)
                })
            }
        }
    }

    wg.Wait()
    return nil
}
