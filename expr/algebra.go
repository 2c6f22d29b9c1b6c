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

import (
	"math"

	"github.com/gx-org/varform/expr/exprerr"
)

// Sum returns a + b. Both operands must have the same shape and free indices.
func Sum(a, b *Expr) *Expr {
	if !a.shape.Equal(b.shape) {
		panicShape("cannot add expressions of shapes %s and %s", a.shape, b.shape)
	}
	if !a.free.Equal(b.free) {
		panicShape("cannot add expressions with free indices %s and %s", a.free, b.free)
	}
	switch {
	case a.IsZero():
		return b
	case b.IsZero():
		return a
	case a.kind == KindScalarValue && b.kind == KindScalarValue:
		return Scalar(a.value + b.value)
	}
	return newExpr(KindSum, a.shape, a.free, a, b)
}

// Product returns the product of two scalar expressions.
// Free indices shared by the operands are not summed.
func Product(a, b *Expr) *Expr {
	if !a.IsScalar() || !b.IsScalar() {
		panicShape("product can only represent products of scalars but got shapes %s and %s", a.shape, b.shape)
	}
	free := a.free.Union(b.free)
	if a.IsZero() || b.IsZero() {
		return Zero(nil, free)
	}
	sa, sb := a.kind == KindScalarValue, b.kind == KindScalarValue
	switch {
	case sa && sb:
		return Scalar(a.value * b.value)
	case sa && a.value == 1:
		return b
	case sb && b.value == 1:
		return a
	case sb:
		a, b = b, a
	}
	return newExpr(KindProduct, nil, free, a, b)
}

// Division returns a / b. The numerator must be scalar valued
// and the denominator must be a scalar without free indices.
func Division(a, b *Expr) *Expr {
	if !a.IsScalar() {
		panicShape("expecting scalar numerator in division but got shape %s", a.shape)
	}
	if !b.IsTrueScalar() {
		panicShape("division by non-scalar %s is undefined", b)
	}
	switch {
	case b.IsZero():
		exprerr.Panicf(exprerr.ErrDivisionByZero, "%s / %s", a, b)
	case a.IsZero():
		return a
	case b.kind == KindScalarValue && b.value == 1:
		return a
	case a.kind == KindScalarValue && b.kind == KindScalarValue:
		return Scalar(a.value / b.value)
	}
	return newExpr(KindDivision, nil, a.free, a, b)
}

// Power returns a ** b. Both operands must be scalars without free indices.
func Power(a, b *Expr) *Expr {
	if !a.IsTrueScalar() {
		panicShape("cannot take the power of non-scalar expression %s", a)
	}
	if !b.IsTrueScalar() {
		panicShape("cannot raise an expression to the non-scalar power %s", b)
	}
	switch {
	case IsScalarValue(a) && IsScalarValue(b):
		if a.IsZero() && b.kind == KindScalarValue && b.value < 0 {
			exprerr.Panicf(exprerr.ErrDivisionByZero, "%s ** %s", a, b)
		}
		return Scalar(math.Pow(a.value, b.value))
	case b.IsZero():
		return Scalar(1)
	case a.IsZero() && b.kind == KindScalarValue:
		if b.value < 0 {
			exprerr.Panicf(exprerr.ErrDivisionByZero, "%s ** %s", a, b)
		}
		return a
	case b.kind == KindScalarValue && b.value == 1:
		return a
	}
	return newExpr(KindPower, nil, nil, a, b)
}

// Mul returns a * b.
//
// Scalar operands are multiplied, a scalar times a tensor is computed
// component-wise and a matrix times a vector or a matrix is a contraction
// over the last axis of a and the first axis of b. Free indices found in
// both operands are summed over.
func Mul(a, b *Expr) *Expr {
	repeated := a.free.Intersection(b.free)
	free := a.free.Union(b.free)
	for _, fi := range repeated {
		free = free.Remove(fi.Count)
	}
	ra, rb := a.Rank(), b.Rank()
	var p *Expr
	var ti MultiIndex
	switch {
	case ra == 0 && rb == 0:
		p = Product(a, b)
	case ra == 0 || rb == 0:
		if rb == 0 {
			a, b = b, a
		}
		if a.IsZero() || b.IsZero() {
			return Zero(b.shape, free)
		}
		ti = Indices(b.Rank())
		p = Product(a, Indexed(b, ti))
	case ra == 2 && (rb == 1 || rb == 2):
		if len(repeated) > 0 {
			panicShape("not expecting repeated indices in non-scalar product")
		}
		if a.shape[1] != b.shape[0] {
			panicShape("dimension mismatch in matrix product of shapes %s and %s", a.shape, b.shape)
		}
		if a.IsZero() || b.IsZero() {
			return Zero(a.shape[:1].Concat(b.shape[1:]), free)
		}
		ai := Indices(1)
		bi := Indices(rb - 1)
		k := NewIndex()
		p = Mul(Indexed(a, Concat(ai, MultiIndex{k})), Indexed(b, Concat(MultiIndex{k}, bi)))
		ti = Concat(ai, bi)
	default:
		panicShape("invalid ranks %d and %d in product", ra, rb)
	}
	p = AsTensor(p, ti)
	for _, fi := range repeated {
		p = IndexSum(p, fi.Index())
	}
	return p
}

// Quo returns a / b where b is a scalar without free indices.
// A tensor numerator is divided component-wise.
func Quo(a, b *Expr) *Expr {
	if a.IsScalar() {
		return Division(a, b)
	}
	ii := Indices(a.Rank())
	return AsTensor(Division(Indexed(a, ii), b), ii)
}

// Neg returns -a.
func Neg(a *Expr) *Expr {
	return Mul(Scalar(-1), a)
}

// Sub returns a - b.
func Sub(a, b *Expr) *Expr {
	return Sum(a, Neg(b))
}

// Add returns the sum of all its operands.
func Add(a *Expr, bs ...*Expr) *Expr {
	for _, b := range bs {
		a = Sum(a, b)
	}
	return a
}

// Abs returns |a|, component-wise for tensors.
func Abs(a *Expr) *Expr {
	switch a.kind {
	case KindZero:
		return a
	case KindScalarValue:
		return Scalar(math.Abs(a.value))
	}
	return newExpr(KindAbs, a.shape, a.free, a)
}

// Sign returns the sign of a scalar expression.
func Sign(a *Expr) *Expr {
	if !a.IsScalar() {
		panicShape("expecting scalar argument to sign but got shape %s", a.shape)
	}
	if a.kind == KindScalarValue {
		return Scalar(math.Copysign(1, a.value))
	}
	return newExpr(KindSign, nil, a.free, a)
}
