// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package criteria

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/grailbio/dupescan/fsentry"
)

// A Comparator orders two entries under one criterion: negative
// prefers a, zero ties, positive prefers b.
type Comparator func(a, b *fsentry.Entry) (int, error)

// A Selector applies parsed criteria as successive tie-breaker
// rounds.
type Selector struct {
	criteria []Comparator
}

// Pick narrows candidates criterion by criterion. Each round keeps
// the entries the criterion prefers; later criteria only break ties
// left by earlier ones. The survivors are returned in input order.
func (s *Selector) Pick(candidates []*fsentry.Entry) ([]*fsentry.Entry, error) {
	round := append([]*fsentry.Entry(nil), candidates...)
	for _, decide := range s.criteria {
		if len(round) < 2 {
			break
		}
		next := []*fsentry.Entry{round[0]}
		for _, candidate := range round[1:] {
			outcome, err := decide(candidate, next[0])
			if err != nil {
				return nil, err
			}
			if outcome < 0 {
				next = []*fsentry.Entry{candidate}
			} else if outcome == 0 {
				next = append(next, candidate)
			}
		}
		round = next
	}
	return round, nil
}

// value is a property evaluation result: string, int64, or
// time.Time.
type value interface{}

type property struct {
	patterns []string
	eval     func(e *fsentry.Entry) (value, error)
}

var properties = []property{
	{[]string{"path"}, func(e *fsentry.Entry) (value, error) { return e.Path(), nil }},
	{[]string{"name"}, func(e *fsentry.Entry) (value, error) { return e.Basename(), nil }},
	{[]string{"dir/ectory"}, func(e *fsentry.Entry) (value, error) { return e.Dirname(), nil }},
	{[]string{"dir/ectory name"}, func(e *fsentry.Entry) (value, error) { return e.Parent().Basename(), nil }},
	{[]string{"ext/ension"}, func(e *fsentry.Entry) (value, error) { return e.Extension(), nil }},
	{[]string{"mtime", "modification time?"}, func(e *fsentry.Entry) (value, error) {
		t, err := e.ModTime()
		if err != nil {
			return nil, err
		}
		return t, nil
	}},
	{[]string{"index"}, func(e *fsentry.Entry) (value, error) { return int64(e.Root().Index + 1), nil }},
}

// evalContext carries the case-folding behavior selected by a
// modifier.
type evalContext struct {
	foldCase bool
}

func (c evalContext) fold(s string) string {
	if c.foldCase {
		return strings.ToLower(s)
	}
	return s
}

func (c evalContext) str(v value, what string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s expects a string property, not %T", what, v)
	}
	return s, nil
}

// compare orders two property values. Mixed int/string operands are
// coerced: if the string parses as an integer both compare as
// integers, otherwise both compare as strings.
func (c evalContext) compare(a, b value) (int, error) {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt), nil
		}
	}
	ai, aInt := toInt(a)
	bi, bInt := toInt(b)
	if aInt && bInt {
		return cmp64(ai, bi), nil
	}
	as := c.fold(toString(a))
	bs := c.fold(toString(b))
	return strings.Compare(as, bs), nil
}

func toInt(v value) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func toString(v value) string {
	switch v := v.(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}

func cmp64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// operator is a boolean test: property OP argument. Entries for
// which the test holds sort ahead of those for which it does not.
type operator struct {
	name     string
	patterns []string
	eval     func(c evalContext, a value, arg string) (bool, error)
	negate   bool
}

func opEquals(c evalContext, a value, arg string) (bool, error) {
	r, err := c.compare(a, arg)
	return r == 0, err
}

func opContains(c evalContext, a value, arg string) (bool, error) {
	s, err := c.str(a, "contains")
	if err != nil {
		return false, err
	}
	return strings.Contains(c.fold(s), c.fold(arg)), nil
}

func opStartsWith(c evalContext, a value, arg string) (bool, error) {
	s, err := c.str(a, "starts with")
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(c.fold(s), c.fold(arg)), nil
}

func opEndsWith(c evalContext, a value, arg string) (bool, error) {
	s, err := c.str(a, "ends with")
	if err != nil {
		return false, err
	}
	return strings.HasSuffix(c.fold(s), c.fold(arg)), nil
}

func opMatchesRegex(c evalContext, a value, arg string) (bool, error) {
	s, err := c.str(a, "matches regex")
	if err != nil {
		return false, err
	}
	if c.foldCase {
		arg = "(?i)" + arg
	}
	re, err := regexp.Compile(arg)
	if err != nil {
		return false, err
	}
	// Anchored at the start, as a match (not a search).
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0, nil
}

var operators = []operator{
	{"is", []string{"is"}, opEquals, false},
	{"is not", []string{"is not", "isnt"}, opEquals, true},
	{"contains", []string{"contain/s"}, opContains, false},
	{"not contains", []string{"not contain/s"}, opContains, true},
	{"starts with", []string{"start/s with?"}, opStartsWith, false},
	{"not starts with", []string{"not start/s with?"}, opStartsWith, true},
	{"ends with", []string{"end/s with?"}, opEndsWith, false},
	{"not ends with", []string{"not end/s with?"}, opEndsWith, true},
	{"matches regex", []string{"match/es re|regex/p"}, opMatchesRegex, false},
	{"not matches regex", []string{"not match/es re|regex/p"}, opMatchesRegex, true},
}

// adjective is a comparative: "<adjective> <property>". A negative
// result prefers the first operand.
type adjective struct {
	name   string
	eval   func(c evalContext, a, b value) (int, error)
	negate bool
}

func adjLength(c evalContext, a, b value) (int, error) {
	as, err := c.str(a, "shorter/longer")
	if err != nil {
		return 0, err
	}
	bs, err := c.str(b, "shorter/longer")
	if err != nil {
		return 0, err
	}
	return len(as) - len(bs), nil
}

func adjDepth(c evalContext, a, b value) (int, error) {
	as, err := c.str(a, "shallower/deeper")
	if err != nil {
		return 0, err
	}
	bs, err := c.str(b, "shallower/deeper")
	if err != nil {
		return 0, err
	}
	sep := string(pathSeparator)
	return strings.Count(as, sep) - strings.Count(bs, sep), nil
}

func adjCompare(c evalContext, a, b value) (int, error) {
	return c.compare(a, b)
}

var adjectives = []struct {
	positive, negative string
	eval               func(c evalContext, a, b value) (int, error)
}{
	{"shorter", "longer", adjLength},
	{"shallower", "deeper", adjDepth},
	{"earlier", "later", adjCompare},
	{"lower", "higher", adjCompare},
}

// modifier adjusts evaluation context; "ignoring case" is the only
// one.
type modifier struct {
	foldCase bool
}
