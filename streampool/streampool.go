// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package streampool hands out byte-stream handles that
// transparently close and reopen underlying OS file descriptors so
// that arbitrarily many streams can be read under a fixed
// descriptor budget. A stream's identity and logical position are
// preserved across the pool's internal close/reopen cycles.
//
// When a stream needs a descriptor and the pool is at its limit, the
// pool suspends the stream that has held a descriptor the longest
// (FIFO over the insertion-ordered open set). The comparison engine
// touches streams in a single pass per refinement round, so FIFO
// gives every stream one turn per pass before any are evicted.
//
// The pool is owned by one engine run and is not safe for concurrent
// use.
package streampool

import (
	"container/list"
	"io"
	"os"

	"github.com/grailbio/dupescan/errors"
)

// Pool tracks every stream currently holding an OS file descriptor
// and enforces the descriptor budget.
type Pool struct {
	limit int
	open  *list.List // *Stream, oldest first
}

// New returns a pool that will hold at most maxOpenFiles descriptors
// at any moment. maxOpenFiles must be at least 1.
func New(maxOpenFiles int) *Pool {
	if maxOpenFiles < 1 {
		maxOpenFiles = 1
	}
	return &Pool{limit: maxOpenFiles, open: list.New()}
}

// Limit returns the pool's current descriptor budget.
func (p *Pool) Limit() int { return p.limit }

// SetLimit adjusts the descriptor budget, suspending the oldest open
// streams if the pool currently exceeds n. n is clamped to 1.
func (p *Pool) SetLimit(n int) error {
	if n < 1 {
		n = 1
	}
	p.limit = n
	for p.open.Len() > p.limit {
		if err := p.open.Front().Value.(*Stream).Suspend(); err != nil {
			return err
		}
	}
	return nil
}

// NumOpen returns the number of descriptors currently held.
func (p *Pool) NumOpen() int { return p.open.Len() }

// Open returns a stream over the file at path, positioned at offset.
// No descriptor is acquired until the first read or seek that needs
// one.
func (p *Pool) Open(path string, offset int64) *Stream {
	return &Stream{pool: p, path: path, offset: offset}
}

// A Stream is a pooled byte stream. Its position advances
// monotonically across reads and survives suspension.
type Stream struct {
	pool   *Pool
	path   string
	offset int64
	f      *os.File
	elem   *list.Element
	closed bool
}

// Path returns the path the stream reads from.
func (s *Stream) Path() string { return s.path }

// resume acquires a descriptor, first making room in the pool by
// suspending its oldest member if the pool is at its limit.
func (s *Stream) resume() error {
	if s.closed {
		return errors.E(errors.Invalid, "read from closed stream", errors.Path(s.path))
	}
	for s.pool.open.Len() >= s.pool.limit {
		oldest := s.pool.open.Front().Value.(*Stream)
		if err := oldest.Suspend(); err != nil {
			return err
		}
	}
	f, err := os.Open(s.path)
	if err != nil {
		return errors.E(errors.Open, err, errors.Path(s.path))
	}
	if s.offset != 0 {
		if _, err := f.Seek(s.offset, io.SeekStart); err != nil {
			_ = f.Close()
			return errors.E(errors.Open, err, errors.Path(s.path))
		}
	}
	s.f = f
	s.elem = s.pool.open.PushBack(s)
	return nil
}

// Suspend checkpoints the stream's position and releases its
// descriptor, if it holds one. The stream remains readable; the next
// read reopens the file and seeks back.
func (s *Stream) Suspend() error {
	if s.f == nil {
		return nil
	}
	f := s.f
	s.f = nil
	s.pool.open.Remove(s.elem)
	s.elem = nil
	if err := f.Close(); err != nil {
		return errors.E(errors.Close, err, errors.Path(s.path))
	}
	return nil
}

// Read fills p with up to len(p) bytes, advancing the stream's
// position. Short counts occur only at end of file; a read at end of
// file returns (0, io.EOF).
func (s *Stream) Read(p []byte) (int, error) {
	if s.f == nil {
		if err := s.resume(); err != nil {
			return 0, err
		}
	}
	total := 0
	for total < len(p) {
		n, err := s.f.Read(p[total:])
		total += n
		s.offset += int64(n)
		if err == io.EOF {
			if total == 0 {
				return 0, io.EOF
			}
			break
		}
		if err != nil {
			return total, errors.E(errors.Read, err, errors.Path(s.path))
		}
	}
	return total, nil
}

// Tell returns the stream's current byte offset.
func (s *Stream) Tell() int64 { return s.offset }

// Seek moves the stream's position. Seeking relative to the start or
// the current position needs no descriptor; seeking from the end
// resumes the stream to consult the file's length.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		if offset < 0 {
			return s.offset, errors.E(errors.Invalid, "negative seek", errors.Path(s.path))
		}
		s.offset = offset
	case io.SeekCurrent:
		if s.offset+offset < 0 {
			return s.offset, errors.E(errors.Invalid, "negative seek", errors.Path(s.path))
		}
		s.offset += offset
	case io.SeekEnd:
		if s.f == nil {
			if err := s.resume(); err != nil {
				return s.offset, err
			}
		}
		pos, err := s.f.Seek(offset, io.SeekEnd)
		if err != nil {
			return s.offset, errors.E(errors.Read, err, errors.Path(s.path))
		}
		s.offset = pos
		return s.offset, nil
	default:
		return s.offset, errors.E(errors.Invalid, "bad whence", errors.Path(s.path))
	}
	if s.f != nil {
		if _, err := s.f.Seek(s.offset, io.SeekStart); err != nil {
			return s.offset, errors.E(errors.Read, err, errors.Path(s.path))
		}
	}
	return s.offset, nil
}

// Close releases the stream permanently. A closed stream cannot be
// resumed.
func (s *Stream) Close() error {
	err := s.Suspend()
	s.closed = true
	s.offset = 0
	return err
}
