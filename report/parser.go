// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/dupescan/errors"
)

type region int

const (
	regionNone region = iota
	regionInstance
	regionSingletons
)

// Parse reads a report in its entirety. Malformed input aborts with
// an error naming the offending line number.
func Parse(r io.Reader) ([]Set, error) {
	var (
		sets    []Set
		cur     *Set
		reg     region
		scanner = bufio.NewScanner(r)
		lineno  = 0
	)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fail := func(format string, args ...interface{}) error {
		return errors.E(errors.Parse, fmt.Sprintf("line %d: %s", lineno, fmt.Sprintf(format, args...)))
	}
	closeSet := func() {
		if cur != nil && len(cur.Instances) > 0 {
			sets = append(sets, *cur)
		}
		cur = nil
		reg = regionNone
	}

	for scanner.Scan() {
		lineno++
		line := scanner.Text()

		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			closeSet()
			continue
		}

		keyword := line
		if i := strings.Index(line, "#"); i >= 0 {
			keyword = line[:i]
		}
		switch strings.TrimSpace(keyword) {
		case "Set":
			if line[0] == ' ' {
				break // an indented literal, not a keyword
			}
			closeSet()
			cur = &Set{}
			continue
		case "Instance":
			if cur == nil {
				return nil, fail("Instance outside a set")
			}
			cur.Instances = append(cur.Instances, Instance{})
			reg = regionInstance
			continue
		case "Singletons":
			if cur == nil {
				return nil, fail("Singletons outside a set")
			}
			reg = regionSingletons
			continue
		}

		// Path line: mark glyph, a space, then the quoted literal.
		if cur == nil {
			return nil, fail("path outside a set")
		}
		if reg == regionNone {
			return nil, fail("path before Instance or Singletons")
		}
		if len(line) < 2 {
			return nil, fail("truncated path line")
		}
		// A byte literal may appear with no mark column at all.
		if line[0] == 'b' && (line[1] == '\'' || line[1] == '"') {
			line = "  " + line
		}
		mark := Mark(line[0])
		if mark != Unmarked && mark != Picked && mark != Ambiguous {
			return nil, fail("bad mark %q", line[0])
		}
		if line[1] != ' ' {
			return nil, fail("missing separator after mark")
		}
		literal := strings.TrimSpace(line[2:])
		if literal == "" {
			return nil, fail("missing path")
		}
		path, err := ParsePath(literal)
		if err != nil {
			return nil, fail("%v", err)
		}
		p := Path{Path: path, Mark: mark}
		switch reg {
		case regionInstance:
			inst := &cur.Instances[len(cur.Instances)-1]
			inst.Paths = append(inst.Paths, p)
		case regionSingletons:
			cur.Instances = append(cur.Instances, Instance{Paths: []Path{p}})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(errors.Parse, err)
	}
	closeSet()
	return sets, nil
}
