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

package wgc

import (
    `fmt`
    `io`
    `strconv`
    `strings`
)

// WriteDefines emits the host-side stub constants for one compiled kernel:
// the number of group-shared allocations it declares and their byte sizes.
// A kernel without local memory gets 0 and an empty initializer.
func WriteDefines(w io.Writer, k *Kernel) error {
    var sb strings.Builder
    for i, n := range k.Locals {
        if i != 0 {
            sb.WriteString(", ")
        }
        sb.WriteString(strconv.FormatInt(n, 10))
    }
    if _, err := fmt.Fprintf(w, "#define _%s_NUM_LOCALS %d\n", k.Name, len(k.Locals)); err != nil {
        return err
    }
    if _, err := fmt.Fprintf(w, "#define _%s_LOCAL_SIZE {%s}\n", k.Name, sb.String()); err != nil {
        return err
    }
    return nil
}
