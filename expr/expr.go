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

// Package expr implements immutable expression graphs describing the
// integrands of variational forms.
//
// An expression is a node of a directed acyclic graph: a node may be an
// operand of several other nodes. Nodes are never modified once built:
// transformations build new nodes or reuse existing ones. Every node is
// identified by a unique ID which algorithms use as a key to process shared
// nodes only once.
//
// Constructors validate the shape and the free indices of their operands and
// panic with an *exprerr.Panic if they are invalid. Use exprerr.Try or
// exprerr.Recover to convert these panics into errors.
package expr

import (
	"sync/atomic"

	"github.com/gx-org/varform/expr/exprerr"
)

// ID identifies an expression node.
type ID uint64

var nextID atomic.Uint64

// Expr is a node of an expression graph.
type Expr struct {
	id       ID
	kind     Kind
	shape    Shape
	free     FreeIndices
	operands []*Expr

	// Payload of the node depending on its kind.
	value   float64
	count   int
	name    string
	domain  *Domain
	space   *Space
	indices MultiIndex
}

func newExpr(kind Kind, shape Shape, free FreeIndices, operands ...*Expr) *Expr {
	for _, op := range operands {
		if op == nil {
			exprerr.Panicf(exprerr.ErrStructural, "nil operand for %s", kind)
		}
	}
	return &Expr{
		id:       ID(nextID.Add(1)),
		kind:     kind,
		shape:    shape,
		free:     free,
		operands: operands,
	}
}

func panicShape(format string, a ...any) {
	exprerr.Panicf(exprerr.ErrShape, format, a...)
}

// ID returns the unique identifier of the node.
func (e *Expr) ID() ID {
	return e.id
}

// Kind returns the kind of the node.
func (e *Expr) Kind() Kind {
	return e.kind
}

// Shape returns the tensor shape of the expression.
func (e *Expr) Shape() Shape {
	return e.shape
}

// Rank returns the number of axes of the expression.
func (e *Expr) Rank() int {
	return len(e.shape)
}

// FreeIndices returns the indices which are not bound in the expression.
func (e *Expr) FreeIndices() FreeIndices {
	return e.free
}

// IndexDimensions returns the dimension of every free index of the expression.
func (e *Expr) IndexDimensions() map[int]int {
	dims := make(map[int]int, len(e.free))
	for _, fi := range e.free {
		dims[fi.Count] = fi.Dim
	}
	return dims
}

// Operands returns the operands of the node.
// The slice must not be modified.
func (e *Expr) Operands() []*Expr {
	return e.operands
}

// Operand returns the i-th operand of the node.
func (e *Expr) Operand(i int) *Expr {
	return e.operands[i]
}

// IsTerminal returns true if the node has no operand.
func (e *Expr) IsTerminal() bool {
	return e.kind.IsTerminal()
}

// IsZero returns true if the node is a zero.
func (e *Expr) IsZero() bool {
	return e.kind == KindZero
}

// IsScalar returns true if the expression has no axis.
// It may still have free indices.
func (e *Expr) IsScalar() bool {
	return len(e.shape) == 0
}

// IsTrueScalar returns true if the expression has no axis and no free indices.
func (e *Expr) IsTrueScalar() bool {
	return len(e.shape) == 0 && len(e.free) == 0
}

// Value returns the value of a scalar literal.
func (e *Expr) Value() float64 {
	return e.value
}

// Indices returns the multi-index of Indexed, ComponentTensor and IndexSum nodes.
func (e *Expr) Indices() MultiIndex {
	return e.indices
}

// Count returns the number identifying a coefficient, an argument or a label.
func (e *Expr) Count() int {
	return e.count
}

// Space returns the function space of a form argument.
func (e *Expr) Space() *Space {
	return e.space
}

// Domain returns the domain of the expression: the unique domain of its terminals,
// nil if the expression is not defined on any domain.
func (e *Expr) Domain() *Domain {
	if e.IsTerminal() {
		return e.domain
	}
	var dom *Domain
	for t := range Terminals(e) {
		if t.domain == nil {
			continue
		}
		if dom == nil {
			dom = t.domain
			continue
		}
		if !dom.Equal(t.domain) {
			exprerr.Panicf(exprerr.ErrShape, "expression %s is defined on multiple domains: %s and %s", e, dom, t.domain)
		}
	}
	return dom
}

// Reconstruct returns a node of the same kind and payload with new operands.
// The node itself is returned if the operands are unchanged.
func (e *Expr) Reconstruct(operands ...*Expr) *Expr {
	if len(operands) != len(e.operands) {
		exprerr.Panicf(exprerr.ErrStructural, "%s expects %d operands but got %d", e.kind, len(e.operands), len(operands))
	}
	same := true
	for i, op := range operands {
		if op != e.operands[i] {
			same = false
			break
		}
	}
	if same {
		return e
	}
	build, ok := builders[e.kind]
	if !ok {
		exprerr.Panicf(exprerr.ErrInternal, "cannot reconstruct %s", e.kind)
	}
	return build(e, operands)
}

// DomainOf returns the unique domain of an expression or an error
// if its terminals are defined on different domains.
func DomainOf(e *Expr) (*Domain, error) {
	return exprerr.Try(e.Domain)
}
