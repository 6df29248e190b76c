// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scan

import "math/bits"

// resourcePolicy chooses a per-round buffer size and descriptor
// budget from the configured memory cap. Memory used by a round is
// roughly group size times buffer size, so larger groups get smaller
// buffers and more descriptors, while small groups drain their files
// with big reads.
type resourcePolicy struct {
	maxMemory    int64
	maxBuffer    int64
	minBuffer    int64
	maxOpenFiles int
}

// round returns the buffer size and open-descriptor budget for one
// refinement round over a group of groupSize members. The first read
// of a bucket always uses the minimum buffer: most buckets split or
// complete on their first block, so first-read latency stays low.
func (r resourcePolicy) round(groupSize int, firstRead bool) (bufSize int64, fds int) {
	if firstRead {
		bufSize = r.minBuffer
	} else {
		bufSize = pow2Near(r.maxMemory / int64(groupSize))
		if bufSize > r.maxBuffer {
			bufSize = r.maxBuffer
		}
		if bufSize < r.minBuffer {
			bufSize = r.minBuffer
		}
	}
	fds = int(r.maxMemory / bufSize)
	if fds > r.maxOpenFiles {
		fds = r.maxOpenFiles
	}
	if fds < 1 {
		fds = 1
	}
	return bufSize, fds
}

// pow2Near snaps x to the nearest power of two, preferring the
// larger on ties.
func pow2Near(x int64) int64 {
	if x <= 1 {
		return 1
	}
	lo := int64(1) << uint(bits.Len64(uint64(x))-1)
	if lo == x {
		return x
	}
	hi := lo << 1
	if x-lo < hi-x {
		return lo
	}
	return hi
}
