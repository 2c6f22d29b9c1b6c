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

package expr

import "sync/atomic"

// Zero returns a zero tensor with a given shape and free indices.
func Zero(shape Shape, free FreeIndices) *Expr {
	return newExpr(KindZero, shape, free)
}

// ZeroLike returns a zero with the shape and the free indices of an expression.
func ZeroLike(e *Expr) *Expr {
	return Zero(e.shape, e.free)
}

// Scalar returns a scalar literal. A zero value returns a zero.
func Scalar(v float64) *Expr {
	if v == 0 {
		return Zero(nil, nil)
	}
	e := newExpr(KindScalarValue, nil, nil)
	e.value = v
	return e
}

// IsScalarValue returns true if the expression is a scalar literal (zero included).
func IsScalarValue(e *Expr) bool {
	return e.kind == KindScalarValue || (e.kind == KindZero && e.IsTrueScalar())
}

// Identity returns the identity matrix of dimension dim.
func Identity(dim int) *Expr {
	return newExpr(KindIdentity, Shape{dim, dim}, nil)
}

var labelCount atomic.Int64

// NewLabel returns a label, distinct from any other label.
// Labels identify variables.
func NewLabel() *Expr {
	e := newExpr(KindLabel, nil, nil)
	e.count = int(labelCount.Add(1))
	return e
}

// Mapping from a reference value to a physical value of a function.
type Mapping string

// Mappings from reference values to physical values.
const (
	IdentityMapping      Mapping = "identity"
	CovariantPiola       Mapping = "covariant Piola"
	ContravariantPiola   Mapping = "contravariant Piola"
	DoubleCovariantPiola Mapping = "double covariant Piola"
)

// Space is a finite element function space on a domain.
type Space struct {
	Domain *Domain
	Family string
	Degree int
	// ValueShape is the shape of the functions in physical space.
	ValueShape Shape
	// ReferenceShape is the shape of the functions on the reference cell.
	// ValueShape is used if nil.
	ReferenceShape Shape
	Mapping        Mapping
}

// NewSpace returns a space of functions with an identity mapping.
func NewSpace(domain *Domain, family string, degree int, shape ...int) *Space {
	return &Space{
		Domain:     domain,
		Family:     family,
		Degree:     degree,
		ValueShape: shape,
		Mapping:    IdentityMapping,
	}
}

// RefShape returns the shape of the functions on the reference cell.
func (s *Space) RefShape() Shape {
	if s.ReferenceShape != nil {
		return s.ReferenceShape
	}
	return s.ValueShape
}

// IsCellwiseConstant returns true if the functions in the space are constant on each cell.
func (s *Space) IsCellwiseConstant() bool {
	return s.Degree == 0
}

var formArgumentCount atomic.Int64

func formArgument(kind Kind, space *Space, name string) *Expr {
	if space == nil {
		panicShape("%s requires a function space", kind)
	}
	e := newExpr(kind, space.ValueShape, nil)
	e.space = space
	e.domain = space.Domain
	e.name = name
	return e
}

// Coefficient returns a known function of a space.
func Coefficient(space *Space, name string) *Expr {
	e := formArgument(KindCoefficient, space, name)
	e.count = int(formArgumentCount.Add(1))
	return e
}

// Constant returns a coefficient constant over the whole domain.
func Constant(domain *Domain, name string, shape ...int) *Expr {
	return Coefficient(NewSpace(domain, "Real", 0, shape...), name)
}

// Argument returns an unknown function of a space.
// Test functions have the number 0 and trial functions the number 1.
func Argument(space *Space, number int) *Expr {
	e := formArgument(KindArgument, space, "")
	e.count = number
	return e
}

// TestFunction returns the argument number 0 of a space.
func TestFunction(space *Space) *Expr {
	return Argument(space, 0)
}

// TrialFunction returns the argument number 1 of a space.
func TrialFunction(space *Space) *Expr {
	return Argument(space, 1)
}

// TerminalKey identifies a terminal independently of the node holding it:
// two terminal nodes with the same key represent the same quantity.
type TerminalKey struct {
	Kind  Kind
	Count int
	Space *Space
}

// Key returns the key of a form argument or a label.
func (e *Expr) Key() TerminalKey {
	switch e.kind {
	case KindCoefficient, KindLabel:
		return TerminalKey{Kind: e.kind, Count: e.count}
	case KindArgument:
		return TerminalKey{Kind: e.kind, Count: e.count, Space: e.space}
	}
	return TerminalKey{Kind: e.kind, Count: int(e.id)}
}
