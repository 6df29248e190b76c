// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/dupescan/console"
	"github.com/grailbio/dupescan/data"
	"github.com/grailbio/dupescan/log"
	"github.com/grailbio/dupescan/scan"
)

// walkProgress renders the path currently being enumerated.
type walkProgress struct {
	line *console.StatusLine
}

func newWalkProgress(w io.Writer) *walkProgress {
	return &walkProgress{line: console.NewStatusLine(w, 78, "..")}
}

func (p *walkProgress) Progress(path string) { p.line.Set(path) }

func (p *walkProgress) Complete() { p.line.Clear() }

// compareProgress renders the candidate groups of the bucket under
// comparison: one glyph per group encoding its population, a bar for
// the position within the file, and the file size.
type compareProgress struct {
	line *console.StatusLine
}

func newCompareProgress(w io.Writer) *compareProgress {
	return &compareProgress{line: console.NewStatusLine(w, 78, "...")}
}

var (
	countGlyphs = []rune("⠀⡀⣀⣄⣤⣦⣶⣷⣿")
	barFilled   = "█"
	barEmpty    = "░"
)

func (p *compareProgress) Progress(sets []scan.Set, pos, size int64) {
	groups := make([]string, len(sets))
	for i, s := range sets {
		if n := len(s); n < len(countGlyphs) {
			groups[i] = string(countGlyphs[n])
		} else {
			groups[i] = strconv.Itoa(len(s))
		}
	}
	vis := "[" + strings.Join(groups, "|") + "]"
	sizeText := data.Size(size).String()

	room := p.line.Width() - len([]rune(vis)) - len(sizeText) - 2
	if room < 2 {
		p.line.Set(vis + " " + sizeText)
		return
	}
	filled := room
	if size > 0 {
		filled = int(float64(room)*float64(pos)/float64(size) + 0.5)
	}
	if filled > room {
		filled = room
	}
	bar := strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, room-filled)
	p.line.Set(vis + " " + bar + " " + sizeText)
}

func (p *compareProgress) Clear() { p.line.Clear() }

// clearingOutputter clears transient status lines before letting a
// log line through, so the two kinds of stderr output do not
// interleave.
type clearingOutputter struct {
	inner log.Outputter
	clear func()
}

func (o clearingOutputter) Level() log.Level { return o.inner.Level() }

func (o clearingOutputter) Output(calldepth int, level log.Level, s string) error {
	o.clear()
	return o.inner.Output(calldepth+1, level, s)
}
