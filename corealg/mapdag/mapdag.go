// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mapdag applies a function to every node of an expression graph.
//
// The graph is traversed bottom-up: a node is transformed after its
// operands and the function receives the transformed operands. Every
// distinct node is transformed once per pass, even if it is shared by
// several parents.
package mapdag

import (
	"github.com/pkg/errors"

	"github.com/gx-org/varform/expr"
	"github.com/gx-org/varform/expr/exprerr"
)

// Function transforms nodes of an expression graph.
type Function interface {
	// Cutoff returns true if the operands of nodes of a given kind must not be
	// transformed. Apply is then called without any operand result.
	Cutoff(kind expr.Kind) bool

	// Apply transforms a node given the results of its operands.
	// Apply panics with an *exprerr.Panic if the node cannot be transformed.
	Apply(o *expr.Expr, ops []*expr.Expr) *expr.Expr
}

// Stats counts the nodes processed by a pass.
type Stats struct {
	// Visited is the number of distinct nodes transformed.
	Visited int
	// Reused is the number of times a node was reached again
	// and its result read from the cache.
	Reused int
}

// Pass transforms expression graphs with a function.
// All graphs mapped by the same pass share the cache of transformed nodes.
type Pass struct {
	f          Function
	cache      map[expr.ID]*expr.Expr
	inProgress map[expr.ID]bool
	stats      Stats
}

// New returns a new pass applying a function.
func New(f Function) *Pass {
	return &Pass{
		f:          f,
		cache:      make(map[expr.ID]*expr.Expr),
		inProgress: make(map[expr.ID]bool),
	}
}

// Stats returns the statistics of all the graphs mapped so far.
func (p *Pass) Stats() Stats {
	return p.stats
}

// Map transforms a list of graphs. The transformation stops at the first error.
func (p *Pass) Map(roots ...*expr.Expr) (rs []*expr.Expr, err error) {
	rs = make([]*expr.Expr, len(roots))
	for i, root := range roots {
		if rs[i], err = p.mapRoot(root); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

func (p *Pass) mapRoot(root *expr.Expr) (r *expr.Expr, err error) {
	if root == nil {
		return nil, exprerr.Errorf(exprerr.ErrStructural, "cannot map a nil expression")
	}
	defer func() {
		if err != nil {
			clear(p.inProgress)
		}
	}()
	defer exprerr.Recover(&err)
	return p.visit(root), nil
}

func (p *Pass) visit(o *expr.Expr) *expr.Expr {
	if r, ok := p.cache[o.ID()]; ok {
		p.stats.Reused++
		return r
	}
	if p.inProgress[o.ID()] {
		exprerr.Panicf(exprerr.ErrStructural, "cycle detected at %s node", o.Kind())
	}
	p.inProgress[o.ID()] = true
	var ops []*expr.Expr
	if !p.f.Cutoff(o.Kind()) {
		ops = make([]*expr.Expr, len(o.Operands()))
		for i, op := range o.Operands() {
			ops[i] = p.visit(op)
		}
	}
	r := p.apply(o, ops)
	if r == nil {
		exprerr.Panicf(exprerr.ErrInternal, "no result for %s node", o.Kind())
	}
	delete(p.inProgress, o.ID())
	p.cache[o.ID()] = r
	p.stats.Visited++
	return r
}

func (p *Pass) apply(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		pnc, ok := r.(*exprerr.Panic)
		if !ok {
			panic(r)
		}
		panic(&exprerr.Panic{Err: errors.WithMessagef(pnc.Err, "%s node", o.Kind())})
	}()
	return p.f.Apply(o, ops)
}

// Map transforms a single graph with a new pass.
func Map(f Function, root *expr.Expr) (*expr.Expr, error) {
	rs, err := New(f).Map(root)
	if err != nil {
		return nil, err
	}
	return rs[0], nil
}

// MapList transforms several graphs with a single pass:
// nodes shared between the graphs are transformed once.
func MapList(f Function, roots ...*expr.Expr) ([]*expr.Expr, error) {
	return New(f).Map(roots...)
}
