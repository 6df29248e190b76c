// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build unix

package main

import (
	"os"
	"syscall"
)

type devKey struct {
	dev  uint64
	size int64
	mode uint32
	uid  uint32
	gid  uint32
}

// linkKey groups files that may legally share an inode: same device,
// size, permissions, and ownership.
func linkKey(info os.FileInfo) interface{} {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return devKey{size: info.Size()}
	}
	return devKey{
		dev:  uint64(st.Dev),
		size: info.Size(),
		mode: uint32(st.Mode),
		uid:  st.Uid,
		gid:  st.Gid,
	}
}
