// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scan

import (
	"github.com/grailbio/dupescan/data"
	"github.com/grailbio/dupescan/errors"
	"github.com/grailbio/dupescan/fsentry"
)

// Defaults applied by New when the corresponding Config field is
// zero.
const (
	DefaultMaxMemory     = 256 * data.MiB
	DefaultMaxBufferSize = 1 * data.MiB
	DefaultMinBufferSize = 4 * data.KiB
)

// A CompareProgressSink receives comparison progress events. The
// engine calls Clear immediately before a set is yielded and after a
// bucket completes, so terminal UIs can clear status lines before
// other output appears.
type CompareProgressSink interface {
	// Progress reports the current candidate groups, the byte offset
	// of a representative stream, and the common file size. The sets
	// are snapshots; they do not alias engine state.
	Progress(sets []Set, pos, size int64)
	// Clear removes any transient display.
	Clear()
}

// A WalkProgressSink receives a notification per entry considered
// during enumeration, then Complete once enumeration ends.
type WalkProgressSink interface {
	Progress(path string)
	Complete()
}

// An ErrorSink receives recoverable per-file errors together with
// the path involved. The engine logs every error before the sink
// sees it. A sink that panics aborts the run.
type ErrorSink func(err error, path string)

// A CancelFunc prunes a candidate group before any of its streams
// are read. Returning true discards the group and all its handles.
type CancelFunc func(Set) bool

// Config configures a Finder. The zero value selects documented
// defaults.
type Config struct {
	// MaxOpenFiles is the hard cap on file descriptors held by the
	// stream pool. 0 derives a cap from the process's file
	// descriptor limit.
	MaxOpenFiles int

	// MaxMemory bounds the comparison working set: the product of a
	// round's group size and buffer size stays near this cap.
	MaxMemory data.Size

	// MaxBufferSize and MinBufferSize bound the per-stream read size
	// chosen for each refinement round.
	MaxBufferSize data.Size
	MinBufferSize data.Size

	// StorageID, when set, enables hardlink collapse: entries that
	// map to the same identity become aliases of one instance. When
	// nil, every entry is its own instance.
	StorageID fsentry.IDFunc

	// Cancel, when set, is consulted once per work-stack iteration
	// with the current group, before any reads.
	Cancel CancelFunc

	// WalkProgress and CompareProgress receive progress events; nil
	// sinks are ignored.
	WalkProgress    WalkProgressSink
	CompareProgress CompareProgressSink

	// OnError receives recoverable per-file errors.
	OnError ErrorSink

	// Index, when set, overrides the in-memory size index, e.g. with
	// a disk-backed one. The Finder owns it and closes it at the end
	// of a run.
	Index Index
}

func (c *Config) fillDefaults() error {
	if c.MaxOpenFiles == 0 {
		c.MaxOpenFiles = defaultMaxOpenFiles()
	}
	if c.MaxOpenFiles < 1 {
		return errors.E(errors.Config, "max open files must be at least 1")
	}
	if c.MaxMemory == 0 {
		c.MaxMemory = DefaultMaxMemory
	}
	if c.MaxBufferSize == 0 {
		c.MaxBufferSize = DefaultMaxBufferSize
	}
	if c.MinBufferSize == 0 {
		c.MinBufferSize = DefaultMinBufferSize
	}
	if c.MinBufferSize < 1 || c.MaxBufferSize < c.MinBufferSize {
		return errors.E(errors.Config, "buffer size bounds are inverted")
	}
	if c.MaxMemory < c.MinBufferSize {
		return errors.E(errors.Config, "max memory is smaller than the minimum buffer")
	}
	return nil
}
