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
	"github.com/gx-org/varform/base/ordered"
	"github.com/gx-org/varform/expr"
	"github.com/gx-org/varform/expr/exprerr"
)

// gateauxRuleset computes the Gateaux derivative D_w[v](e) = d/dtau e(w+tau v)|tau=0
// of expressions with respect to coefficients w in the directions v.
type gateauxRuleset struct {
	*ruleset
	// v are the directions of the perturbations.
	v []*expr.Expr
	// w2v maps the coefficients to their perturbation.
	w2v *ordered.Map[expr.TerminalKey, *expr.Expr]
	// cd maps coefficients f to the non-zero derivatives df/dw.
	cd *ordered.Map[expr.TerminalKey, *expr.Expr]
}

func newGateauxRuleset(cfg *config, w, v, cd *expr.Expr) *gateauxRuleset {
	if w.Kind() != expr.KindExprList {
		exprerr.Panicf(exprerr.ErrShape, "expecting a list of coefficients but got %s", w.Kind())
	}
	if v.Kind() != expr.KindExprList {
		exprerr.Panicf(exprerr.ErrShape, "expecting a list of arguments but got %s", v.Kind())
	}
	if cd.Kind() != expr.KindExprMapping {
		exprerr.Panicf(exprerr.ErrShape, "expecting a coefficient-coefficient mapping but got %s", cd.Kind())
	}
	r := &gateauxRuleset{
		ruleset: newRuleset("gateaux", cfg, nil),
		v:       v.Operands(),
		w2v:     ordered.NewMap[expr.TerminalKey, *expr.Expr](),
		cd:      ordered.NewMap[expr.TerminalKey, *expr.Expr](),
	}
	for i, wi := range w.Operands() {
		r.w2v.Store(wi.Key(), r.v[i])
	}
	pairs := cd.Operands()
	for i := 0; i < len(pairs); i += 2 {
		r.cd.Store(pairs[i].Key(), pairs[i+1])
	}
	f := r.Function
	f.HandleCutoff(r.independentTerminal, expr.KindGeometricQuantity, expr.KindArgument)
	f.HandleCutoff(r.coefficient, expr.KindCoefficient)
	f.Handle(r.cellAvg, expr.KindCellAvg)
	f.Handle(r.facetAvg, expr.KindFacetAvg)
	f.HandleCutoff(f.Fixme, expr.KindReferenceValue, expr.KindReferenceGrad)
	f.Handle(r.grad, expr.KindGrad)
	f.Handle(r.nablaGrad, expr.KindNablaGrad)
	f.Handle(r.div, expr.KindDiv)
	f.Handle(r.curl, expr.KindCurl)
	f.Handle(r.dot, expr.KindDot)
	f.Handle(r.inner, expr.KindInner)
	return r
}

// cellAvg commutes the cell average and the derivative:
// D_f[v](cell_avg(f)) = cell_avg(v).
func (r *gateauxRuleset) cellAvg(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return expr.CellAvg(ops[0])
}

func (r *gateauxRuleset) facetAvg(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return expr.FacetAvg(ops[0])
}

// coefficient returns the perturbation v of w (dw/dw := d/ds [w + s v] = v)
// or, for a coefficient o depending on w, the contraction of do/dw with v.
func (r *gateauxRuleset) coefficient(o *expr.Expr) *expr.Expr {
	if v, ok := r.w2v.Load(o.Key()); ok {
		return v
	}
	dos, ok := r.cd.Load(o.Key())
	if !ok {
		return expr.Zero(o.Shape(), nil)
	}
	// Compute do/dw_j = do/dw_h : v, summing over all the coefficients
	// of a mixed space. shape(do/dw) == shape(o) + shape(v)
	doList := []*expr.Expr{dos}
	if dos.Kind() == expr.KindExprList {
		doList = dos.Operands()
	}
	if len(doList) != len(r.v) {
		exprerr.Panicf(exprerr.ErrShape, "got %d coefficient derivatives for %s but %d arguments", len(doList), o, len(r.v))
	}
	dosum := expr.Zero(o.Shape(), nil)
	for i, do := range doList {
		v := r.v[i]
		so, oi := expr.AsScalar(do)
		split := len(oi) - v.Rank()
		if split < 0 {
			exprerr.Panicf(exprerr.ErrShape, "derivative %s of shape %s cannot be contracted with %s of shape %s", do, do.Shape(), v, v.Shape())
		}
		prod := expr.Mul(so, expr.Indexed(v, oi[split:]))
		dosum = expr.Sum(dosum, expr.AsTensor(prod, oi[:split]))
	}
	return dosum
}

// nested applies all the derivatives of an expression built from the
// derivative of the operand of a derivative node.
func (r *gateauxRuleset) nested(o, op *expr.Expr, build func(*expr.Expr) *expr.Expr) *expr.Expr {
	if expr.IsCellwiseConstant(op) {
		return r.independentOperator(o)
	}
	res, err := r.cfg.apply(build(op))
	if err != nil {
		panic(&exprerr.Panic{Err: err})
	}
	return res
}

func (r *gateauxRuleset) grad(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	// D_w[v](grad(f)) = grad(D_w[v](f)): the gradient of the derivative
	// of the operand may include gradients of nested expressions.
	return r.nested(o, ops[0], expr.Grad)
}

func (r *gateauxRuleset) nablaGrad(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return r.nested(o, ops[0], expr.NablaGrad)
}

func (r *gateauxRuleset) div(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	if expr.IsCellwiseConstant(ops[0]) {
		return r.independentOperator(o)
	}
	return expr.Div(ops[0])
}

func (r *gateauxRuleset) curl(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return r.nested(o, ops[0], expr.Curl)
}

func (r *gateauxRuleset) dot(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f, g := o.Operand(0), o.Operand(1)
	return expr.Sum(expr.Dot(ops[0], g), expr.Dot(f, ops[1]))
}

func (r *gateauxRuleset) inner(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f, g := o.Operand(0), o.Operand(1)
	return expr.Sum(expr.Inner(ops[0], g), expr.Inner(f, ops[1]))
}
