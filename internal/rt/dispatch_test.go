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
    `sync`
    `testing`

    `github.com/stretchr/testify/require`
)

func TestDispatch_CoversEveryGroup(t *testing.T) {
    var mu sync.Mutex
    seen := make(map[[3]uint32]int)

    g := Grid {
        WorkDim      : 3,
        NumGroups    : [3]uint32{2, 3, 2},
        GlobalOffset : [3]uint32{0, 16, 0},
    }
    ctxs := make([]PoclContext, 0, 12)
    err := Dispatch(g, func(ctx *PoclContext, _ []Value) {
        mu.Lock()
        seen[ctx.GroupID]++
        ctxs = append(ctxs, *ctx)
        mu.Unlock()
    }, nil)
    require.NoError(t, err)

    /* every group exactly once, each with the full grid description */
    require.Len(t, seen, 12)
    for id, n := range seen {
        require.Equal(t, 1, n, "group %v", id)
        require.Less(t, id[0], uint32(2))
        require.Less(t, id[1], uint32(3))
        require.Less(t, id[2], uint32(2))
    }
    for _, c := range ctxs {
        require.EqualValues(t, 3, c.WorkDim)
        require.Equal(t, g.NumGroups, c.NumGroups)
        require.Equal(t, g.GlobalOffset, c.GlobalOffset)
    }
}

func TestDispatch_EmptyGrid(t *testing.T) {
    err := Dispatch(Grid { WorkDim: 1 }, func(*PoclContext, []Value) {
        t.Fatal("must not run")
    }, nil)
    require.Error(t, err)
}
