// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package scan identifies sets of regular files whose byte contents
// are identical. Candidates are bucketed by size, then refined one
// buffer at a time: each refinement round reads the next block from
// every member of a candidate group and splits the group by the
// bytes observed, so distinct files diverge as early as possible and
// nothing is ever hashed. A stream pool suspends and resumes the
// underlying descriptors so arbitrarily many candidates compare
// under a fixed descriptor budget, and a memory cap adapts buffer
// sizes to group populations.
package scan

import (
	"bytes"
	"context"
	"io"
	"iter"

	"github.com/grailbio/dupescan/fsentry"
	"github.com/grailbio/dupescan/log"
	"github.com/grailbio/dupescan/streampool"
)

// progressEvery is the minimum number of bytes read between compare
// progress events.
const progressEvery = 1 << 20

// A Finder detects files with duplicate content in a set of entries.
type Finder struct {
	cfg    Config
	policy resourcePolicy
}

// New returns a Finder for the given configuration. Configuration
// errors are reported here, before any work starts.
func New(cfg Config) (*Finder, error) {
	if err := cfg.fillDefaults(); err != nil {
		return nil, err
	}
	return &Finder{
		cfg: cfg,
		policy: resourcePolicy{
			maxMemory:    cfg.MaxMemory.Bytes(),
			maxBuffer:    cfg.MaxBufferSize.Bytes(),
			minBuffer:    cfg.MinBufferSize.Bytes(),
			maxOpenFiles: cfg.MaxOpenFiles,
		},
	}, nil
}

// Find examines entries for duplicate content and streams the sets
// it proves. Buckets are visited in descending size order, so the
// biggest wins appear first. Dropping the iterator early closes
// every open stream and discards accumulated state. Per-file errors
// are logged, sent to the error sink, and do not stop the run;
// canceling ctx does.
func (f *Finder) Find(ctx context.Context, entries iter.Seq[*fsentry.Entry]) iter.Seq[Set] {
	return func(yield func(Set) bool) {
		index := f.cfg.Index
		if index == nil {
			index = newMemIndex(f.cfg.StorageID)
		}
		defer func() {
			if err := index.Close(); err != nil {
				f.report(err, "")
			}
		}()

		files, errs := 0, 0
		log.Debugf("start file enumeration")
		for e := range entries {
			if ctx.Err() != nil {
				return
			}
			files++
			if f.cfg.WalkProgress != nil {
				f.cfg.WalkProgress.Progress(e.Path())
			}
			if err := index.Add(e); err != nil {
				errs++
				f.report(err, e.Path())
			}
		}
		if f.cfg.WalkProgress != nil {
			f.cfg.WalkProgress.Complete()
		}
		log.Debugf("end file enumeration: files=%d errors=%d", files, errs)

		err := index.Buckets(func(size int64, instances []*fsentry.Instance) bool {
			if ctx.Err() != nil {
				return false
			}
			return f.compareBucket(ctx, size, instances, yield)
		})
		if err != nil {
			f.report(err, "")
		}
	}
}

// streamPair binds an instance to its stream for the duration of a
// bucket's run. Pairs are owned by exactly one group at a time.
type streamPair struct {
	inst   *fsentry.Instance
	stream *streampool.Stream
}

func setOf(pairs []streamPair) Set {
	s := make(Set, len(pairs))
	for i, p := range pairs {
		s[i] = p.inst
	}
	return s
}

// compareBucket refines one size bucket until every candidate group
// is proved duplicate (read to end with all bytes equal), reduced to
// an uninteresting singleton, or canceled. It reports false when the
// consumer stopped the iteration.
func (f *Finder) compareBucket(ctx context.Context, size int64, instances []*fsentry.Instance, yield func(Set) bool) bool {
	pool := streampool.New(f.cfg.MaxOpenFiles)
	initial := make([]streamPair, len(instances))
	for i, inst := range instances {
		initial[i] = streamPair{inst, pool.Open(inst.Entry().Path(), 0)}
	}
	work := [][]streamPair{initial}

	var bytesRead, lastProgress int64
	var completed, earlyOut, canceled int

	f.progress(nil, work, 0, size)

	for len(work) > 0 {
		group := work[len(work)-1]
		work = work[:len(work)-1]

		if ctx.Err() != nil {
			f.closeGroup(group)
			f.closeGroups(work)
			f.clearProgress()
			return false
		}

		if f.cfg.Cancel != nil && f.cfg.Cancel(setOf(group)) {
			canceled++
			f.closeGroup(group)
			continue
		}

		if size == 0 || len(group) == 1 {
			// Zero-length members all compare equal with no reads.
			// A singleton is only still in play because it has
			// multiple aliases; there is nothing left to refine.
			if size == 0 {
				completed++
			} else {
				earlyOut++
			}
			set := setOf(group)
			f.closeGroup(group)
			if set.qualifies() {
				f.clearProgress()
				if !yield(set) {
					f.closeGroups(work)
					return false
				}
			}
			continue
		}

		bufSize, fds := f.policy.round(len(group), group[0].stream.Tell() == 0)
		if err := pool.SetLimit(fds); err != nil {
			f.report(err, "")
		}

		// Read the next block from every member and split the group
		// by observed bytes, keeping first-observation order.
		var buffers [][]byte
		var subGroups [][]streamPair
		for _, pair := range group {
			buf := make([]byte, bufSize)
			n, err := pair.stream.Read(buf)
			if err != nil && err != io.EOF {
				f.report(err, pair.stream.Path())
				if cerr := pair.stream.Close(); cerr != nil {
					f.report(cerr, pair.stream.Path())
				}
				continue
			}
			bytesRead += int64(n)
			if bytesRead-lastProgress > progressEvery {
				lastProgress = bytesRead
				f.progress(group, work, pair.stream.Tell(), size)
			}
			buf = buf[:n]
			slot := -1
			for i := range buffers {
				if bytes.Equal(buffers[i], buf) {
					slot = i
					break
				}
			}
			if slot < 0 {
				buffers = append(buffers, buf)
				subGroups = append(subGroups, nil)
				slot = len(buffers) - 1
			}
			subGroups[slot] = append(subGroups[slot], pair)
		}

		for i, buf := range buffers {
			sub := subGroups[i]
			complete := len(buf) == 0

			closeSet := false
			switch {
			case complete:
				closeSet = true
				completed++
			case len(sub) <= 1:
				closeSet = true
				earlyOut++
			}

			ofInterest := (len(sub) > 1 && complete) ||
				(len(sub) == 1 && len(sub[0].inst.Entries) > 1)
			if ofInterest {
				f.clearProgress()
				if !yield(setOf(sub)) {
					for j := i; j < len(subGroups); j++ {
						f.closeGroup(subGroups[j])
					}
					f.closeGroups(work)
					return false
				}
			}

			if closeSet {
				f.closeGroup(sub)
			} else {
				work = append(work, sub)
			}
		}
	}

	f.progress(nil, nil, size, size)
	f.clearProgress()
	log.Debugf("content comparison end: bytes_read=%d completed=%d early_out=%d canceled=%d",
		bytesRead, completed, earlyOut, canceled)
	return true
}

func (f *Finder) closeGroup(group []streamPair) {
	for _, pair := range group {
		if err := pair.stream.Close(); err != nil {
			f.report(err, pair.stream.Path())
		}
	}
}

func (f *Finder) closeGroups(groups [][]streamPair) {
	for _, g := range groups {
		f.closeGroup(g)
	}
}

// progress snapshots the current group populations for the compare
// sink. The snapshot does not alias engine state.
func (f *Finder) progress(current []streamPair, pending [][]streamPair, pos, size int64) {
	if f.cfg.CompareProgress == nil {
		return
	}
	sets := make([]Set, 0, len(pending)+1)
	if current != nil {
		sets = append(sets, setOf(current))
	}
	for _, g := range pending {
		sets = append(sets, setOf(g))
	}
	f.cfg.CompareProgress.Progress(sets, pos, size)
}

func (f *Finder) clearProgress() {
	if f.cfg.CompareProgress != nil {
		f.cfg.CompareProgress.Clear()
	}
}

// report logs err and forwards it to the error sink, if any.
func (f *Finder) report(err error, path string) {
	if path != "" {
		log.Errorf("%s: %v", path, err)
	} else {
		log.Errorf("%v", err)
	}
	if f.cfg.OnError != nil {
		f.cfg.OnError(err, path)
	}
}
