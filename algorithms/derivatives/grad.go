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

package derivatives

import (
	"github.com/gx-org/varform/expr"
	"github.com/gx-org/varform/expr/exprerr"
)

// gradRuleset computes the gradient of expressions with respect to the
// physical coordinates. The gradient axis is appended to the shape.
type gradRuleset struct {
	*ruleset
	gdim int
}

func newGradRuleset(cfg *config, gdim int) *gradRuleset {
	r := &gradRuleset{
		ruleset: newRuleset("grad", cfg, expr.Shape{gdim}),
		gdim:    gdim,
	}
	f := r.Function
	f.HandleCutoff(r.geometricQuantity, expr.KindGeometricQuantity)
	f.HandleCutoff(r.jacobianInverse, expr.KindJacobianInverse)
	f.HandleCutoff(r.spatialCoordinate, expr.KindSpatialCoordinate)
	f.HandleCutoff(r.cellCoordinate, expr.KindCellCoordinate)
	f.HandleCutoff(r.coefficient, expr.KindCoefficient)
	f.HandleCutoff(r.argument, expr.KindArgument)
	f.HandleCutoff(r.referenceValue, expr.KindReferenceValue)
	f.HandleCutoff(r.referenceGrad, expr.KindReferenceGrad)
	f.HandleCutoff(r.grad, expr.KindGrad)
	f.HandleCutoff(r.independentOperator, expr.KindCellAvg, expr.KindFacetAvg)
	f.Handle(r.dot, expr.KindDot)
	f.Handle(r.inner, expr.KindInner)
	return r
}

func (r *gradRuleset) geometricQuantity(o *expr.Expr) *expr.Expr {
	if expr.IsCellwiseConstant(o) {
		return r.independentTerminal(o)
	}
	return expr.Grad(o)
}

// contractReferenceGrad returns K[j,i]*ReferenceGrad(o)[r..., j] as a tensor
// with axes (r..., i) where K is the inverse of the Jacobian.
func contractReferenceGrad(k, o *expr.Expr) *expr.Expr {
	r := expr.Indices(o.Rank())
	i, j := expr.NewIndex(), expr.NewIndex()
	return expr.AsTensor(
		expr.Mul(
			expr.At(k, j, i),
			expr.Indexed(expr.ReferenceGrad(o), expr.Concat(r, expr.MultiIndex{j})),
		),
		expr.Concat(r, expr.MultiIndex{i}),
	)
}

func (r *gradRuleset) jacobianInverse(o *expr.Expr) *expr.Expr {
	// grad(K) == K_ji rgrad(K)_rj
	if expr.IsCellwiseConstant(o) {
		return r.independentTerminal(o)
	}
	return contractReferenceGrad(o, o)
}

func (r *gradRuleset) spatialCoordinate(o *expr.Expr) *expr.Expr {
	return expr.Identity(r.gdim)
}

func (r *gradRuleset) cellCoordinate(o *expr.Expr) *expr.Expr {
	return expr.JacobianInverse(o.Domain())
}

func (r *gradRuleset) coefficient(o *expr.Expr) *expr.Expr {
	if expr.IsCellwiseConstant(o) {
		return r.independentTerminal(o)
	}
	return expr.Grad(o)
}

func (r *gradRuleset) argument(o *expr.Expr) *expr.Expr {
	return expr.Grad(o)
}

func (r *gradRuleset) referenceValue(o *expr.Expr) *expr.Expr {
	// grad(rv(f)) -> K_ji*rgrad(rv(f))_rj
	f := o.Operand(0)
	if !f.IsTerminal() {
		exprerr.Panicf(exprerr.ErrUnexpectedType, "reference value can only wrap a terminal, got %s", f.Kind())
	}
	return contractReferenceGrad(expr.JacobianInverse(f.Domain()), o)
}

func isInReferenceFrame(o *expr.Expr) bool {
	switch o.Kind() {
	case expr.KindReferenceValue, expr.KindReferenceGrad:
		return true
	}
	return false
}

func (r *gradRuleset) referenceGrad(o *expr.Expr) *expr.Expr {
	// grad(rgrad(rv(f))) -> K_ji*rgrad(rgrad(rv(f)))_rj
	f := o.Operand(0)
	switch {
	case isInReferenceFrame(f):
	case f.Kind() == expr.KindJacobianInverse, f.Kind() == expr.KindSpatialCoordinate:
	default:
		exprerr.Panicf(exprerr.ErrUnexpectedType, "reference grad can only wrap a reference frame type, got %s", f.Kind())
	}
	return contractReferenceGrad(expr.JacobianInverse(f.Domain()), o)
}

// checkDifferentialTerminal checks that a derivative is only applied to a
// terminal or to a derivative in the given kinds.
func checkDifferentialTerminal(o *expr.Expr, kinds ...expr.Kind) {
	f := o.Operand(0)
	if f.IsTerminal() {
		return
	}
	for _, kind := range kinds {
		if f.Kind() == kind {
			return
		}
	}
	exprerr.Panicf(exprerr.ErrUnexpectedType, "expecting only %s applied to a terminal but got %s of %s", o.Kind(), o.Kind(), f.Kind())
}

func (r *gradRuleset) grad(o *expr.Expr) *expr.Expr {
	// grad(grad(f)) is represented as Grad(Grad(f)).
	checkDifferentialTerminal(o, expr.KindGrad)
	return expr.Grad(o)
}

func (r *gradRuleset) dot(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f, g := o.Operand(0), o.Operand(1)
	gradF, gradG := ops[0], ops[1]
	fi := expr.Indices(f.Rank() - 1)
	gi := expr.Indices(g.Rank() - 1)
	gradIndex := expr.MultiIndex{expr.NewIndex()}
	sumIndex := expr.MultiIndex{expr.NewIndex()}
	term1 := expr.Mul(
		expr.Indexed(gradF, expr.Concat(fi, sumIndex, gradIndex)),
		expr.Indexed(g, expr.Concat(sumIndex, gi)),
	)
	term2 := expr.Mul(
		expr.Indexed(f, expr.Concat(fi, sumIndex)),
		expr.Indexed(gradG, expr.Concat(sumIndex, gi, gradIndex)),
	)
	return expr.AsTensor(expr.Sum(term1, term2), expr.Concat(fi, gi, gradIndex))
}

func (r *gradRuleset) inner(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f, g := o.Operand(0), o.Operand(1)
	gradF, gradG := ops[0], ops[1]
	ii := expr.Indices(f.Rank())
	gradIndex := expr.MultiIndex{expr.NewIndex()}
	term1 := expr.Mul(expr.Indexed(gradF, expr.Concat(ii, gradIndex)), expr.Indexed(g, ii))
	term2 := expr.Mul(expr.Indexed(f, ii), expr.Indexed(gradG, expr.Concat(ii, gradIndex)))
	return expr.AsTensor(expr.Sum(term1, term2), gradIndex)
}

// nablaGradRuleset computes the gradient of expressions with respect to the
// physical coordinates with the gradient axis first.
type nablaGradRuleset struct {
	*ruleset
	gdim int
}

func newNablaGradRuleset(cfg *config, gdim int) *nablaGradRuleset {
	r := &nablaGradRuleset{
		ruleset: newRuleset("nabla_grad", cfg, expr.Shape{gdim}),
		gdim:    gdim,
	}
	r.derivativeShape = r.prependVarShape
	f := r.Function
	f.HandleCutoff(r.geometricQuantity, expr.KindGeometricQuantity)
	f.HandleCutoff(r.spatialCoordinate, expr.KindSpatialCoordinate)
	f.HandleCutoff(r.cellCoordinate, expr.KindCellCoordinate)
	f.HandleCutoff(r.coefficient, expr.KindCoefficient)
	f.HandleCutoff(r.argument, expr.KindArgument)
	f.HandleCutoff(r.nablaGrad, expr.KindNablaGrad)
	f.HandleCutoff(r.independentOperator, expr.KindCellAvg, expr.KindFacetAvg)
	f.Handle(r.indexed, expr.KindIndexed)
	f.Handle(r.componentTensor, expr.KindComponentTensor)
	f.Handle(r.listTensor, expr.KindListTensor)
	f.Handle(r.dot, expr.KindDot)
	f.Handle(r.inner, expr.KindInner)
	return r
}

func (r *nablaGradRuleset) prependVarShape(o *expr.Expr) expr.Shape {
	return r.varShape.Concat(o.Shape())
}

func (r *nablaGradRuleset) geometricQuantity(o *expr.Expr) *expr.Expr {
	if expr.IsCellwiseConstant(o) {
		return r.independentTerminal(o)
	}
	return expr.NablaGrad(o)
}

func (r *nablaGradRuleset) spatialCoordinate(o *expr.Expr) *expr.Expr {
	return expr.Identity(r.gdim)
}

func (r *nablaGradRuleset) cellCoordinate(o *expr.Expr) *expr.Expr {
	return expr.JacobianInverse(o.Domain())
}

func (r *nablaGradRuleset) coefficient(o *expr.Expr) *expr.Expr {
	if expr.IsCellwiseConstant(o) {
		return r.independentTerminal(o)
	}
	return expr.NablaGrad(o)
}

func (r *nablaGradRuleset) argument(o *expr.Expr) *expr.Expr {
	return expr.NablaGrad(o)
}

func (r *nablaGradRuleset) nablaGrad(o *expr.Expr) *expr.Expr {
	checkDifferentialTerminal(o, expr.KindNablaGrad)
	return expr.NablaGrad(o)
}

// indexed moves the leading gradient axis of the derivative out of the way
// before indexing the axes of the operand.
func (r *nablaGradRuleset) indexed(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	ap := ops[0]
	if ap.IsZero() {
		return r.independentOperator(o)
	}
	k := expr.MultiIndex{expr.NewIndex()}
	return expr.AsTensor(expr.Indexed(ap, expr.Concat(k, o.Indices())), k)
}

func (r *nablaGradRuleset) componentTensor(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	if ops[0].IsZero() {
		return r.independentOperator(o)
	}
	ap, jj := expr.AsScalar(ops[0])
	return expr.AsTensor(ap, expr.Concat(jj, o.Indices()))
}

// listTensor swaps the list axis and the gradient axis of the list of derivatives.
func (r *nablaGradRuleset) listTensor(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	lt := expr.ListTensor(ops...)
	ii := expr.Indices(lt.Rank())
	swapped := expr.Concat(expr.MultiIndex{ii[1], ii[0]}, ii[2:])
	return expr.AsTensor(expr.Indexed(lt, ii), swapped)
}

func (r *nablaGradRuleset) dot(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f, g := o.Operand(0), o.Operand(1)
	gradF, gradG := ops[0], ops[1]
	fi := expr.Indices(f.Rank() - 1)
	gi := expr.Indices(g.Rank() - 1)
	gradIndex := expr.MultiIndex{expr.NewIndex()}
	sumIndex := expr.MultiIndex{expr.NewIndex()}
	term1 := expr.Mul(
		expr.Indexed(gradF, expr.Concat(gradIndex, fi, sumIndex)),
		expr.Indexed(g, expr.Concat(sumIndex, gi)),
	)
	term2 := expr.Mul(
		expr.Indexed(f, expr.Concat(fi, sumIndex)),
		expr.Indexed(gradG, expr.Concat(gradIndex, sumIndex, gi)),
	)
	return expr.AsTensor(expr.Sum(term1, term2), expr.Concat(gradIndex, fi, gi))
}

func (r *nablaGradRuleset) inner(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f, g := o.Operand(0), o.Operand(1)
	gradF, gradG := ops[0], ops[1]
	ii := expr.Indices(f.Rank())
	gradIndex := expr.MultiIndex{expr.NewIndex()}
	term1 := expr.Mul(expr.Indexed(gradF, expr.Concat(gradIndex, ii)), expr.Indexed(g, ii))
	term2 := expr.Mul(expr.Indexed(f, ii), expr.Indexed(gradG, expr.Concat(gradIndex, ii)))
	return expr.AsTensor(expr.Sum(term1, term2), gradIndex)
}
