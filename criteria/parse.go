// Copyright 2026 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package criteria implements the selection language used by the
// -p/--prefer flag: a comma-separated list of criteria, each either
// a boolean statement ("name ends with .bak ignoring case") or a
// comparative ("earlier mtime"), evaluated as successive tie-breaker
// rounds over the entries of a duplicate set.
package criteria

import (
	"os"
	"sync"

	"github.com/grailbio/dupescan/fsentry"
)

const pathSeparator = os.PathSeparator

var (
	graphsOnce     sync.Once
	propertyGraph  *tokenGraph
	operatorGraph  *tokenGraph
	adjectiveGraph *tokenGraph
	modifierGraph  *tokenGraph
)

func initGraphs() {
	graphsOnce.Do(func() {
		propertyGraph = newTokenGraph()
		for i := range properties {
			propertyGraph.add(properties[i].patterns, &properties[i])
		}
		operatorGraph = newTokenGraph()
		for i := range operators {
			operatorGraph.add(operators[i].patterns, &operators[i])
		}
		adjectiveGraph = newTokenGraph()
		for i := range adjectives {
			adj := adjectives[i]
			adjectiveGraph.add([]string{adj.positive}, &adjective{name: adj.positive, eval: adj.eval})
			adjectiveGraph.add([]string{adj.negative}, &adjective{name: adj.negative, eval: adj.eval, negate: true})
		}
		modifierGraph = newTokenGraph()
		modifierGraph.add([]string{"ignoring case"}, &modifier{foldCase: true})
	})
}

type parser struct {
	lex   *lexer
	token token
}

// Parse compiles a selection expression into a Selector. Errors are
// *ParseError values carrying the offending span.
func Parse(text string) (*Selector, error) {
	initGraphs()
	p := &parser{lex: newLexer(text)}
	if err := p.consume(); err != nil {
		return nil, err
	}
	criteria, err := p.criteria()
	if err != nil {
		return nil, err
	}
	return &Selector{criteria: criteria}, nil
}

func (p *parser) consume() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.token = t
	return nil
}

func (p *parser) errExpected(expected []string) error {
	desc := "nothing"
	switch len(expected) {
	case 0:
	case 1:
		desc = expected[0]
	default:
		desc = "one of " + join(expected)
	}
	return parseErrorf(p.token.position, len(p.token.text), "expected %s", desc)
}

func join(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += ", "
		}
		out += w
	}
	return out
}

func (p *parser) criteria() ([]Comparator, error) {
	var criteria []Comparator
	for {
		c, err := p.criterion()
		if err != nil {
			return nil, err
		}
		criteria = append(criteria, c)
		switch p.token.typ {
		case tokenEnd:
			return criteria, nil
		case tokenComma:
			if err := p.consume(); err != nil {
				return nil, err
			}
		default:
			return nil, p.errExpected([]string{`","`, "end"})
		}
	}
}

func (p *parser) criterion() (Comparator, error) {
	if propertyGraph.navigator().canGo(p.token) {
		return p.booleanStatement()
	}
	if adjectiveGraph.navigator().canGo(p.token) {
		return p.comparativeStatement()
	}
	expected := propertyGraph.navigator().edges()
	expected = append(expected, adjectiveGraph.navigator().edges()...)
	return nil, p.errExpected(expected)
}

func (p *parser) booleanStatement() (Comparator, error) {
	propData, err := p.parseUsing(propertyGraph)
	if err != nil {
		return nil, err
	}
	opData, err := p.parseUsing(operatorGraph)
	if err != nil {
		return nil, err
	}
	arg, err := p.argument()
	if err != nil {
		return nil, err
	}
	ctx, err := p.modifier()
	if err != nil {
		return nil, err
	}
	prop := propData.(*property)
	op := opData.(*operator)

	evaluate := func(e *fsentry.Entry) (bool, error) {
		v, err := prop.eval(e)
		if err != nil {
			return false, err
		}
		ok, err := op.eval(ctx, v, arg)
		if err != nil {
			return false, err
		}
		if op.negate {
			ok = !ok
		}
		return ok, nil
	}
	return func(a, b *fsentry.Entry) (int, error) {
		av, err := evaluate(a)
		if err != nil {
			return 0, err
		}
		bv, err := evaluate(b)
		if err != nil {
			return 0, err
		}
		return btoi(bv) - btoi(av), nil
	}, nil
}

func (p *parser) comparativeStatement() (Comparator, error) {
	adjData, err := p.parseUsing(adjectiveGraph)
	if err != nil {
		return nil, err
	}
	propData, err := p.parseUsing(propertyGraph)
	if err != nil {
		return nil, err
	}
	ctx, err := p.modifier()
	if err != nil {
		return nil, err
	}
	adj := adjData.(*adjective)
	prop := propData.(*property)

	return func(a, b *fsentry.Entry) (int, error) {
		av, err := prop.eval(a)
		if err != nil {
			return 0, err
		}
		bv, err := prop.eval(b)
		if err != nil {
			return 0, err
		}
		r, err := adj.eval(ctx, av, bv)
		if err != nil {
			return 0, err
		}
		if adj.negate {
			r = -r
		}
		return r, nil
	}, nil
}

func (p *parser) modifier() (evalContext, error) {
	if modifierGraph.navigator().canGo(p.token) {
		data, err := p.parseUsing(modifierGraph)
		if err != nil {
			return evalContext{}, err
		}
		return evalContext{foldCase: data.(*modifier).foldCase}, nil
	}
	return evalContext{}, nil
}

func (p *parser) argument() (string, error) {
	if p.token.typ != tokenString {
		return "", p.errExpected([]string{"string"})
	}
	val := p.token.value
	if err := p.consume(); err != nil {
		return "", err
	}
	return val, nil
}

func (p *parser) parseUsing(g *tokenGraph) (interface{}, error) {
	nav := g.navigator()
	for nav.canGo(p.token) {
		nav.advance(p.token)
		if err := p.consume(); err != nil {
			return nil, err
		}
	}
	if nav.accept() {
		return nav.data(), nil
	}
	return nil, p.errExpected(nav.edges())
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
