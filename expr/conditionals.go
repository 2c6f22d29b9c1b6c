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

import "math"

func binaryCondition(kind Kind, left, right *Expr) *Expr {
	if !left.IsTrueScalar() || !right.IsTrueScalar() {
		panicShape("expecting scalar arguments to %s but got %s and %s", kind, left, right)
	}
	return newExpr(kind, nil, nil, left, right)
}

// EQ returns the condition left == right.
func EQ(left, right *Expr) *Expr { return binaryCondition(KindEQ, left, right) }

// NE returns the condition left != right.
func NE(left, right *Expr) *Expr { return binaryCondition(KindNE, left, right) }

// LT returns the condition left < right.
func LT(left, right *Expr) *Expr { return binaryCondition(KindLT, left, right) }

// GT returns the condition left > right.
func GT(left, right *Expr) *Expr { return binaryCondition(KindGT, left, right) }

// LE returns the condition left <= right.
func LE(left, right *Expr) *Expr { return binaryCondition(KindLE, left, right) }

// GE returns the condition left >= right.
func GE(left, right *Expr) *Expr { return binaryCondition(KindGE, left, right) }

func checkCondition(c *Expr) {
	if !c.kind.Is(KindCondition) {
		panicShape("expecting a condition but got %s", c)
	}
}

// And returns the condition left && right.
func And(left, right *Expr) *Expr {
	checkCondition(left)
	checkCondition(right)
	return newExpr(KindAndCondition, nil, nil, left, right)
}

// Or returns the condition left || right.
func Or(left, right *Expr) *Expr {
	checkCondition(left)
	checkCondition(right)
	return newExpr(KindOrCondition, nil, nil, left, right)
}

// Not returns the negation of a condition.
func Not(c *Expr) *Expr {
	checkCondition(c)
	return newExpr(KindNotCondition, nil, nil, c)
}

// Conditional returns t if the condition holds, f otherwise.
// Both values must have the same shape and free indices.
func Conditional(c, t, f *Expr) *Expr {
	checkCondition(c)
	if !t.shape.Equal(f.shape) {
		panicShape("shape mismatch between conditional branches: %s and %s", t.shape, f.shape)
	}
	if !t.free.Equal(f.free) {
		panicShape("free index mismatch between conditional branches: %s and %s", t.free, f.free)
	}
	return newExpr(KindConditional, t.shape, t.free, c, t, f)
}

func extremum(kind Kind, a, b *Expr, fold func(float64, float64) float64) *Expr {
	if !a.IsTrueScalar() || !b.IsTrueScalar() {
		panicShape("expecting scalar arguments to %s but got %s and %s", kind, a, b)
	}
	if IsScalarValue(a) && IsScalarValue(b) {
		return Scalar(fold(a.value, b.value))
	}
	return newExpr(kind, nil, nil, a, b)
}

// MaxValue returns the maximum of two scalars.
func MaxValue(a, b *Expr) *Expr { return extremum(KindMaxValue, a, b, math.Max) }

// MinValue returns the minimum of two scalars.
func MinValue(a, b *Expr) *Expr { return extremum(KindMinValue, a, b, math.Min) }

// Side of an interior facet.
type Side byte

// Sides of an interior facet.
const (
	Plus  Side = '+'
	Minus Side = '-'
)

func (s Side) String() string {
	return string(s)
}

// Restricted returns the restriction of f to one side of interior facets.
func Restricted(f *Expr, side Side) *Expr {
	switch side {
	case Plus:
		return newExpr(KindPositiveRestricted, f.shape, f.free, f)
	case Minus:
		return newExpr(KindNegativeRestricted, f.shape, f.free, f)
	}
	panicShape("invalid side %q", byte(side))
	return nil
}

// Side returns the side of a restriction node.
func (e *Expr) Side() Side {
	if e.kind == KindNegativeRestricted {
		return Minus
	}
	return Plus
}
