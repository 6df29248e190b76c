// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scan

import "github.com/grailbio/dupescan/fsentry"

// A Set is an immutable collection of file instances whose content
// has been proved identical over its full length, or a single
// instance with two or more aliasing entries (reported so the
// aliasing can be surfaced).
type Set []*fsentry.Instance

// InstanceSize returns the common size of every file in the set.
func (s Set) InstanceSize() int64 {
	for _, inst := range s {
		if e := inst.Entry(); e != nil {
			size, _ := e.Size()
			return size
		}
	}
	return 0
}

// TotalSize returns the total size on disk of the files in the set.
func (s Set) TotalSize() int64 {
	return s.InstanceSize() * int64(len(s))
}

// EntryCount returns the total number of entries across every
// instance in the set.
func (s Set) EntryCount() int {
	n := 0
	for _, inst := range s {
		n += len(inst.Entries)
	}
	return n
}

// Entries returns every entry of every instance in the set, in set
// order.
func (s Set) Entries() []*fsentry.Entry {
	entries := make([]*fsentry.Entry, 0, s.EntryCount())
	for _, inst := range s {
		entries = append(entries, inst.Entries...)
	}
	return entries
}

// qualifies tells whether s may be reported: at least two distinct
// instances, or one instance named by at least two entries.
func (s Set) qualifies() bool {
	return len(s) >= 2 || (len(s) == 1 && len(s[0].Entries) >= 2)
}
