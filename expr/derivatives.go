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

func domainOf(kind Kind, f *Expr) *Domain {
	dom := f.Domain()
	if dom == nil {
		panicShape("cannot build %s of %s: the expression is not defined on a domain", kind, f)
	}
	return dom
}

// Grad returns the gradient of f with respect to the physical coordinates.
// The gradient axis is appended to the shape of f.
func Grad(f *Expr) *Expr {
	dim := domainOf(KindGrad, f).GeometricDim
	shape := f.shape.Concat(Shape{dim})
	if IsCellwiseConstant(f) {
		return Zero(shape, f.free)
	}
	return newExpr(KindGrad, shape, f.free, f)
}

// NablaGrad returns the gradient of f with the gradient axis first.
func NablaGrad(f *Expr) *Expr {
	dim := domainOf(KindNablaGrad, f).GeometricDim
	shape := Shape{dim}.Concat(f.shape)
	if IsCellwiseConstant(f) {
		return Zero(shape, f.free)
	}
	return newExpr(KindNablaGrad, shape, f.free, f)
}

// Div returns the divergence of f, contracting its last axis.
func Div(f *Expr) *Expr {
	if f.IsScalar() {
		panicShape("cannot take the divergence of scalar expression %s", f)
	}
	if len(f.free) > 0 {
		panicShape("free indices in the divergence argument %s are not allowed", f)
	}
	shape := f.shape[:f.Rank()-1]
	if IsCellwiseConstant(f) {
		return Zero(shape, nil)
	}
	return newExpr(KindDiv, shape, nil, f)
}

// Curl returns the curl of f: a scalar field in 2D for a 2D vector,
// a vector in 2D for a scalar and a vector for a 3D vector.
func Curl(f *Expr) *Expr {
	var shape Shape
	switch {
	case f.IsScalar():
		shape = Shape{2}
	case f.shape.Equal(Shape{2}):
		shape = nil
	case f.shape.Equal(Shape{3}):
		shape = Shape{3}
	default:
		panicShape("expecting a scalar, 2D vector or 3D vector to take the curl but got shape %s", f.shape)
	}
	if len(f.free) > 0 {
		panicShape("free indices in the curl argument %s are not allowed", f)
	}
	if IsCellwiseConstant(f) {
		return Zero(shape, nil)
	}
	return newExpr(KindCurl, shape, nil, f)
}

// ReferenceGrad returns the gradient of f with respect to the reference coordinates.
func ReferenceGrad(f *Expr) *Expr {
	dim := domainOf(KindReferenceGrad, f).TopologicalDim()
	shape := f.shape.Concat(Shape{dim})
	if IsCellwiseConstant(f) {
		return Zero(shape, f.free)
	}
	return newExpr(KindReferenceGrad, shape, f.free, f)
}

// VariableDerivative returns the derivative of f with respect to a variable
// or a coefficient v. The shape of v is appended to the shape of f.
func VariableDerivative(f, v *Expr) *Expr {
	if v.kind != KindVariable && v.kind != KindCoefficient {
		panicShape("expecting a variable or a coefficient to differentiate with respect to but got %s", v)
	}
	shape := f.shape.Concat(v.shape)
	if f.IsZero() {
		return Zero(shape, f.free)
	}
	return newExpr(KindVariableDerivative, shape, f.free, f, v)
}

// Diff returns the derivative of f with respect to v: the gradient if v
// is the spatial coordinate, a variable derivative otherwise.
func Diff(f, v *Expr) *Expr {
	if v.kind == KindSpatialCoordinate {
		return Grad(f)
	}
	return VariableDerivative(f, v)
}

// CoefficientDerivative returns the Gateaux derivative of f with respect to the
// coefficients in the list w in the directions of the arguments in the list v.
// cd is a mapping from coefficients to their derivatives with respect to w.
func CoefficientDerivative(f, w, v, cd *Expr) *Expr {
	if w.kind != KindExprList || v.kind != KindExprList {
		panicShape("expecting lists of coefficients and arguments but got %s and %s", w.kind, v.kind)
	}
	if len(w.operands) != len(v.operands) {
		panicShape("got %d coefficients but %d arguments", len(w.operands), len(v.operands))
	}
	if cd.kind != KindExprMapping {
		panicShape("expecting a coefficient-coefficient mapping but got %s", cd.kind)
	}
	if f.IsZero() {
		return f
	}
	return newExpr(KindCoefficientDerivative, f.shape, f.free, f, w, v, cd)
}

// Derivative returns the Gateaux derivative of f with respect to a coefficient w
// in the direction of v.
func Derivative(f, w, v *Expr) *Expr {
	if !w.shape.Equal(v.shape) {
		panicShape("coefficient of shape %s and direction of shape %s do not match", w.shape, v.shape)
	}
	return CoefficientDerivative(f, ExprList(w), ExprList(v), ExprMapping())
}
