// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPow2Near(t *testing.T) {
	for _, tc := range []struct{ in, want int64 }{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 4},
		{6, 8},
		{1000, 1024},
		{1536, 2048},
		{1535, 1024},
		{1 << 20, 1 << 20},
	} {
		assert.Equal(t, tc.want, pow2Near(tc.in), "pow2Near(%d)", tc.in)
	}
}

func TestRoundBudget(t *testing.T) {
	policy := resourcePolicy{
		maxMemory:    1 << 20, // 1 MiB
		maxBuffer:    1 << 18,
		minBuffer:    1 << 12,
		maxOpenFiles: 64,
	}

	// First read always uses the minimum buffer.
	buf, fds := policy.round(1000, true)
	assert.Equal(t, policy.minBuffer, buf)
	assert.Equal(t, 64, fds)

	// Large groups get small buffers and many descriptors.
	buf, fds = policy.round(512, false)
	assert.Equal(t, policy.minBuffer, buf) // 1MiB/512 = 2KiB, clamped up
	assert.Equal(t, 64, fds)

	// Small groups get big buffers, fewer descriptors.
	buf, fds = policy.round(2, false)
	assert.Equal(t, policy.maxBuffer, buf) // 512KiB snapped, clamped to max
	assert.Equal(t, 4, fds)

	// The memory bound holds: a round's group times its buffer stays
	// within 2x the cap.
	for _, g := range []int{1, 2, 3, 7, 64, 1000, 100000} {
		buf, fds := policy.round(g, false)
		assert.GreaterOrEqual(t, fds, 1)
		assert.LessOrEqual(t, fds, policy.maxOpenFiles)
		if int64(g)*buf > 2*policy.maxMemory {
			// Only the minimum-buffer clamp may exceed the cap.
			assert.Equal(t, policy.minBuffer, buf, "group %d", g)
		}
	}
}
