// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package log

import (
	"flag"
	golog "log"
)

type gologOutputter struct{}

var gologLevel = Info

// AddFlags registers the -log_level flag with the flag package's
// default flag set. It must be called before flag.Parse.
func AddFlags() {
	flag.Var(&gologLevel, "log_level", "level of logging: off, error, info, debug")
}

func (gologOutputter) Level() Level { return gologLevel }

func (gologOutputter) Output(calldepth int, level Level, s string) error {
	if gologLevel < level {
		return nil
	}
	return golog.Output(calldepth+1, s)
}

// SetLevel sets the level of the default outputter. It has no
// effect when another outputter is installed.
func SetLevel(l Level) {
	gologLevel = l
}

// SetFlags sets the output flags of the standard Go logger used by
// the default outputter.
func SetFlags(flag int) {
	golog.SetFlags(flag)
}

// SetPrefix sets the output prefix of the standard Go logger used by
// the default outputter.
func SetPrefix(prefix string) {
	golog.SetPrefix(prefix)
}
