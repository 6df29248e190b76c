// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build unix

package scan

import "golang.org/x/sys/unix"

const (
	absoluteMaxOpenFiles = 32768
	fallbackMaxOpenFiles = 64
)

// defaultMaxOpenFiles derives a descriptor budget from the process's
// soft RLIMIT_NOFILE, leaving headroom for the rest of the program.
func defaultMaxOpenFiles() int {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		return fallbackMaxOpenFiles
	}
	if lim.Cur == unix.RLIM_INFINITY {
		return absoluteMaxOpenFiles
	}
	n := int(lim.Cur * 3 / 4)
	if n < 1 {
		return 1
	}
	if n > absoluteMaxOpenFiles {
		return absoluteMaxOpenFiles
	}
	return n
}
