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

// Variable labels an expression so that it can be used as a differentiation variable.
func Variable(f *Expr) *Expr {
	return LabeledVariable(f, NewLabel())
}

// LabeledVariable labels an expression with a given label.
func LabeledVariable(f, label *Expr) *Expr {
	if label.kind != KindLabel {
		panicShape("expecting a label but got %s", label)
	}
	return newExpr(KindVariable, f.shape, f.free, f, label)
}

// Inner returns the inner product a : b of two tensors with the same shape.
func Inner(a, b *Expr) *Expr {
	if !a.shape.Equal(b.shape) {
		panicShape("shapes %s and %s do not match in inner product", a.shape, b.shape)
	}
	free := a.free.Disjoint(b.free)
	if a.IsScalar() {
		return Mul(a, b)
	}
	if a.IsZero() || b.IsZero() {
		return Zero(nil, free)
	}
	return newExpr(KindInner, nil, free, a, b)
}

// Dot returns the contraction of the last axis of a with the first axis of b.
func Dot(a, b *Expr) *Expr {
	if a.IsScalar() && b.IsScalar() {
		return Mul(a, b)
	}
	if a.IsScalar() || b.IsScalar() {
		panicShape("dot product requires non-scalar arguments but got shapes %s and %s", a.shape, b.shape)
	}
	if a.shape[a.Rank()-1] != b.shape[0] {
		panicShape("dimension mismatch in dot product of shapes %s and %s", a.shape, b.shape)
	}
	free := a.free.Disjoint(b.free)
	shape := a.shape[:a.Rank()-1].Concat(b.shape[1:])
	if a.IsZero() || b.IsZero() {
		return Zero(shape, free)
	}
	return newExpr(KindDot, shape, free, a, b)
}

// ReferenceValue returns the value of a form argument on the reference cell.
func ReferenceValue(f *Expr) *Expr {
	if !f.kind.Is(KindFormArgument) {
		panicShape("reference value can only wrap a form argument, got %s", f)
	}
	return newExpr(KindReferenceValue, f.space.RefShape(), nil, f)
}

// CellAvg returns the average of f over each cell.
func CellAvg(f *Expr) *Expr {
	return newExpr(KindCellAvg, f.shape, f.free, f)
}

// FacetAvg returns the average of f over each facet.
func FacetAvg(f *Expr) *Expr {
	return newExpr(KindFacetAvg, f.shape, f.free, f)
}

// ExprList groups expressions in a single node.
func ExprList(ops ...*Expr) *Expr {
	return newExpr(KindExprList, nil, nil, ops...)
}

// ExprMapping groups pairs of expressions in a single node:
// operands are ordered as key0, value0, key1, value1, ...
func ExprMapping(pairs ...*Expr) *Expr {
	if len(pairs)%2 != 0 {
		panicShape("expression mapping requires an even number of operands, got %d", len(pairs))
	}
	return newExpr(KindExprMapping, nil, nil, pairs...)
}
