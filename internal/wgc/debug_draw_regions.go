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
    `os`

    `github.com/ajstarks/svgo`
)

var _RegionPalette = []string {
    "#a6cee3",
    "#b2df8a",
    "#fb9a99",
    "#fdbf6f",
    "#cab2d6",
    "#ffff99",
}

// draw_regions renders the block arena as one box per reachable block,
// tinted by the region that owns it; barrier and exit blocks stay white.
// Only called from debugging sessions and tests.
func draw_regions(fn string, cfg *CFG) {
    maxw := 0
    rows := 0
    slot := make(map[int]int, len(cfg.entries))
    for i, e := range cfg.entries {
        slot[e] = i
    }

    /* size the canvas from the disassembly */
    blocks := cfg.Reachable()
    for _, id := range blocks {
        bb := cfg.Block(id)
        rows += len(bb.Ins) + 3
        for i := range bb.Ins {
            if n := len(bb.Ins[i].Disassemble(nil)); n > maxw {
                maxw = n
            }
        }
        if n := len(bb.Term.String()); n > maxw {
            maxw = n
        }
    }

    boxw := maxw * 9 + 60
    fp, err := os.OpenFile(fn, os.O_RDWR | os.O_CREATE | os.O_TRUNC, 0644)
    if err != nil {
        panic(err)
    }

    p := svg.New(fp)
    p.Start(boxw + 100, rows * 24 + 100)
    if _, err = fp.WriteString(`<rect width="100%" height="100%" fill="white" />` + "\n"); err != nil {
        panic(err)
    }

    row := 0
    for _, id := range blocks {
        bb := cfg.Block(id)
        tag := "boundary"
        fill := "white"

        /* owned blocks take their region's tint */
        if e, ok := cfg.owner[id]; ok {
            tag = fmt.Sprintf("region bb_%d", e)
            fill = _RegionPalette[slot[e] % len(_RegionPalette)]
        }

        /* block box */
        top := 50 + row * 24
        p.Rect(20, top, boxw, (len(bb.Ins) + 2) * 24 + 12, "fill:" + fill + ";stroke:gray")
        p.Text(30, top + 20, fmt.Sprintf("bb_%d (%s)", id, tag), "fill:gray;font-size:16px;font-family:monospace")
        row++

        /* body and terminator */
        for i := range bb.Ins {
            p.Text(40, 50 + row * 24 + 20, bb.Ins[i].Disassemble(nil), "fill:black;font-size:16px;font-family:monospace")
            row++
        }
        p.Text(40, 50 + row * 24 + 20, bb.Term.String(), "fill:black;font-size:16px;font-family:monospace")
        row += 2
    }

    p.End()
    if err = fp.Close(); err != nil {
        panic(err)
    }
}

// DrawRegions is the exported entry used by tests and debugging sessions.
func DrawRegions(fn string, cfg *CFG) {
    draw_regions(fn, cfg)
}
