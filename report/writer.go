// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package report

import (
	"bufio"
	"fmt"
	"io"
)

// A Writer emits reports. Sets are written as they are handed in;
// Flush must be called before the underlying writer is used again.
type Writer struct {
	w *bufio.Writer
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Comment writes a comment line.
func (w *Writer) Comment(text string) error {
	_, err := fmt.Fprintf(w.w, "# %s\n", text)
	return err
}

// Set writes one set followed by the blank line that closes it.
// Instances with multiple paths become numbered Instance blocks;
// single-path instances are grouped under one Singletons block, all
// in set order.
func (w *Writer) Set(set Set, comments []string) error {
	for _, c := range comments {
		if err := w.Comment(c); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w.w, "Set"); err != nil {
		return err
	}
	n := 0
	for _, inst := range set.Instances {
		if len(inst.Paths) < 2 {
			continue
		}
		n++
		if _, err := fmt.Fprintf(w.w, "Instance # %d\n", n); err != nil {
			return err
		}
		if err := w.paths(inst.Paths); err != nil {
			return err
		}
	}
	first := true
	for _, inst := range set.Instances {
		if len(inst.Paths) >= 2 {
			continue
		}
		if first {
			if _, err := fmt.Fprintln(w.w, "Singletons"); err != nil {
				return err
			}
			first = false
		}
		if err := w.paths(inst.Paths); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w.w)
	return err
}

func (w *Writer) paths(paths []Path) error {
	for _, p := range paths {
		mark := p.Mark
		if mark == 0 {
			mark = Unmarked
		}
		if _, err := fmt.Fprintf(w.w, "%c %s\n", mark, FormatPath(p.Path)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes buffered output.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
