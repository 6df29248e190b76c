// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/dupescan/criteria"
	"github.com/grailbio/dupescan/data"
	"github.com/grailbio/dupescan/fsentry"
	"github.com/grailbio/dupescan/log"
	"github.com/grailbio/dupescan/report"
	"github.com/grailbio/dupescan/scan"
	"github.com/grailbio/dupescan/walker"
)

func scanAndReport(ctx context.Context, a *args) error {
	minSize := int64(1)
	switch {
	case a.zero:
		minSize = 0
	case a.minSizeSet:
		minSize = a.minSize.Bytes()
	}

	var (
		walkStatus    *walkProgress
		compareStatus *compareProgress
	)
	if !a.noProgress && (a.progress || stderrIsTerminal()) {
		walkStatus = newWalkProgress(os.Stderr)
		compareStatus = newCompareProgress(os.Stderr)
		// Log lines share stderr with the status line; clear it
		// before each one.
		old := log.GetOutputter()
		log.SetOutputter(clearingOutputter{inner: old, clear: func() {
			walkStatus.line.Clear()
			compareStatus.line.Clear()
		}})
		defer log.SetOutputter(old)
	}

	w, err := walker.New(walker.Config{
		Recurse:         a.recurse,
		IncludeSymlinks: a.symlinks,
		MinSize:         minSize,
		Exclude:         a.exclude,
		OnError: func(err error, path string) {
			log.Errorf("%v", err)
		},
	})
	if err != nil {
		return err
	}

	var selector *criteria.Selector
	if a.prefer != "" {
		selector, err = criteria.Parse(a.prefer)
		if err != nil {
			var perr *criteria.ParseError
			if errors.As(err, &perr) {
				highlightSample(os.Stderr, a.prefer, 78, perr.Position, perr.Length)
			}
			return err
		}
	}

	cfg := scan.Config{
		MaxMemory:     a.maxMemory,
		MaxBufferSize: a.maxBufferSize,
	}
	if a.aliases {
		cfg.StorageID = fsentry.PosixID
	}
	if a.onlyMixedRoots {
		cfg.Cancel = allShareRoot
	}
	if walkStatus != nil {
		cfg.WalkProgress = walkStatus
		cfg.CompareProgress = compareStatus
	}
	finder, err := scan.New(cfg)
	if err != nil {
		return err
	}

	out := report.NewWriter(os.Stdout)
	rep := &reporter{w: out, selector: selector}
	for set := range finder.Find(ctx, w.Entries(a.paths)) {
		if err := rep.handle(set); err != nil {
			return err
		}
		if err := out.Flush(); err != nil {
			return err
		}
	}
	return out.Flush()
}

// allShareRoot is the only-mixed-roots cancel predicate: a candidate
// group whose members all come from one root path cannot produce a
// cross-root duplicate.
func allShareRoot(set scan.Set) bool {
	index := -1
	for _, entry := range set.Entries() {
		switch {
		case index == -1:
			index = entry.Root().Index
		case index != entry.Root().Index:
			return false
		}
	}
	return true
}

type reporter struct {
	w        *report.Writer
	selector *criteria.Selector
}

func (r *reporter) handle(set scan.Set) error {
	instanceSize := data.Size(set.InstanceSize())
	comments := []string{fmt.Sprintf(
		"Size: %s Instances: %d Excess: %s Names: %d",
		instanceSize, len(set),
		data.Size(set.TotalSize())-instanceSize,
		set.EntryCount(),
	)}

	// Selection is evaluated per entry, but marks apply per
	// instance: if any entry of an instance is picked, its aliases
	// are marked too, and uniqueness is judged by instance.
	marked := make(map[*fsentry.Instance]bool)
	if r.selector != nil {
		picked, err := r.selector.Pick(set.Entries())
		if err != nil {
			comments = append(comments, fmt.Sprintf("Skipping selection due to error: %v", err))
		} else {
			byEntry := make(map[*fsentry.Entry]*fsentry.Instance)
			for _, inst := range set {
				for _, e := range inst.Entries {
					byEntry[e] = inst
				}
			}
			for _, e := range picked {
				marked[byEntry[e]] = true
			}
		}
	}
	glyph := report.Picked
	if len(marked) != 1 {
		glyph = report.Ambiguous
	}

	var rset report.Set
	for _, inst := range set {
		var paths []report.Path
		for _, e := range inst.Entries {
			mark := report.Unmarked
			if marked[inst] {
				mark = glyph
			}
			paths = append(paths, report.Path{Path: []byte(e.Path()), Mark: mark})
		}
		rset.Instances = append(rset.Instances, report.Instance{Paths: paths})
	}
	return r.w.Set(rset, comments)
}

// highlightSample prints the expression with a caret or tilde run
// under the offending span.
func highlightSample(w *os.File, sample string, width, pos, length int) {
	if pos < 0 {
		return
	}
	start := 0
	if pos > width/2 {
		start = pos - width/2
	}
	end := start + width
	if end > len(sample) {
		end = len(sample)
		if end-width > 0 {
			start = end - width
		} else {
			start = 0
		}
	}
	fmt.Fprintln(w, sample[start:end])

	offset := pos - start
	run := length
	if run < 1 {
		run = 1
	}
	if offset+run > width {
		run = width - offset
	}
	marker := "^"
	if run > 1 {
		marker = strings.Repeat("~", run)
	}
	fmt.Fprintln(w, strings.Repeat(" ", offset)+marker)
}

func stderrIsTerminal() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

const preferHelp = `The -p/--prefer option marks one file from each duplicate set for
preservation. Its argument is a comma-separated list of criteria,
evaluated in order: each criterion narrows the candidates, and later
criteria only break ties left by earlier ones. Files that survive
every round are marked in the report; everything else is a candidate
for -x/--delete.

A criterion is either a boolean statement or a comparative.

Boolean statements take the form

    PROPERTY OPERATOR ARGUMENT [ignoring case]

where PROPERTY is one of: path, name, dir (or directory), dir name,
ext (or extension), mtime (or modification time), index; and
OPERATOR is one of: is, is not, contains, not contains, starts with,
ends with, not starts with, not ends with, matches regex, not
matches regex. Files for which the statement holds are preferred.

Comparatives take the form

    ADJECTIVE PROPERTY [ignoring case]

where ADJECTIVE is one of: shorter, longer, shallower, deeper,
earlier, later, lower, higher.

Arguments containing spaces or commas can be quoted with single or
double quotes; backslash escapes including \xNN, \uNNNN and
\UNNNNNN are recognized.

Examples:

    finddupes -r -p 'shallower path, earlier mtime' DIR
    finddupes -r -p 'name not ends with .bak ignoring case' DIR
    finddupes -r -o -p 'index is 1' KEEP-DIR OTHER-DIR
`
