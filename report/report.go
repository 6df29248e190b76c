// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package report reads and writes the line-oriented duplicate-set
// report format.
//
// A report is a sequence of sets. `Set` opens a set; within it,
// `Instance` (optionally `Instance # N`) opens a hardlink-alias
// group whose following path lines all name one storage object, and
// `Singletons` opens a region where each path line is its own
// single-alias instance. A path line is a mark glyph followed by a
// space and a quoted path literal; the glyph `>` marks the picked
// instance, `?` marks an ambiguous pick, and a space marks an
// unselected candidate for deletion. Lines beginning with `#` are
// comments; a blank line or end of input closes the current set.
package report

// A Mark is the selection glyph attached to a path line.
type Mark byte

// Mark glyphs.
const (
	Unmarked  Mark = ' ' // candidate for deletion
	Picked    Mark = '>' // exactly one instance was picked
	Ambiguous Mark = '?' // zero or multiple instances were picked
)

// A Path is one path line of a report: an opaque byte-string path
// and its mark.
type Path struct {
	Path []byte
	Mark Mark
}

// Marked tells whether the path carries any selection glyph.
func (p Path) Marked() bool { return p.Mark != Unmarked }

// An Instance is one alias group within a set: every path names the
// same storage object. Singleton region paths parse as one-path
// instances.
type Instance struct {
	Paths []Path
}

// A Set is one duplicate set of a report.
type Set struct {
	Instances []Instance
}

// Paths returns every path of every instance, in order.
func (s Set) Paths() []Path {
	var out []Path
	for _, inst := range s.Instances {
		out = append(out, inst.Paths...)
	}
	return out
}

// Marked tells whether any path in the set carries a glyph.
func (s Set) Marked() bool {
	for _, inst := range s.Instances {
		for _, p := range inst.Paths {
			if p.Marked() {
				return true
			}
		}
	}
	return false
}
