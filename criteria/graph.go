// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package criteria

import (
	"sort"
	"strings"
)

// A tokenGraph is a word-level DFA over criterion phrases. Phrase
// patterns use a compact notation: words are separated by spaces, a
// trailing "?" makes a word optional, "|" separates alternatives,
// and "/" appends optional suffixes to a stem, so "dir/ectory name"
// accepts both "dir name" and "directory name".
type tokenGraph struct {
	root *graphNode
}

type graphNode struct {
	accept bool
	data   interface{}
	out    map[string]*graphNode
}

func (n *graphNode) join(label string) *graphNode {
	if n.out == nil {
		n.out = make(map[string]*graphNode)
	}
	next := n.out[label]
	if next == nil {
		next = &graphNode{}
		n.out[label] = next
	}
	return next
}

func newTokenGraph() *tokenGraph {
	return &tokenGraph{root: &graphNode{}}
}

func (g *tokenGraph) add(patterns []string, data interface{}) {
	for _, p := range patterns {
		g.addPattern(p, data)
	}
}

func (g *tokenGraph) addPattern(pattern string, data interface{}) {
	current := []*graphNode{g.root}
	for _, word := range strings.Split(pattern, " ") {
		var next []*graphNode
		if strings.HasSuffix(word, "?") {
			word = word[:len(word)-1]
			next = append(next, current...)
		}
		for _, alt := range strings.Split(word, "|") {
			suffixes := strings.Split(alt, "/")
			stem := suffixes[0]
			suffixes[0] = ""
			for _, suffix := range suffixes {
				for _, node := range current {
					next = append(next, node.join(stem+suffix))
				}
			}
		}
		current = next
	}
	for _, node := range current {
		node.accept = true
		node.data = data
	}
}

// A navigator walks the graph one accepted token at a time.
type navigator struct {
	node *graphNode
}

func (g *tokenGraph) navigator() *navigator {
	return &navigator{node: g.root}
}

func (n *navigator) canGo(t token) bool {
	if t.typ != tokenString {
		return false
	}
	_, ok := n.node.out[t.value]
	return ok
}

func (n *navigator) advance(t token) {
	n.node = n.node.out[t.value]
}

func (n *navigator) accept() bool { return n.node.accept }

func (n *navigator) data() interface{} { return n.node.data }

func (n *navigator) edges() []string {
	var edges []string
	if n.node.accept {
		edges = append(edges, "end")
	}
	var labels []string
	for label := range n.node.out {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return append(edges, labels...)
}
