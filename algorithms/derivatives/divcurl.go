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

// divRuleset computes the divergence of expressions.
// The divergence contracts the last axis: derivatives have the shape of
// the differentiated node without its last axis.
type divRuleset struct {
	*ruleset
}

func newDivRuleset(cfg *config) *divRuleset {
	r := &divRuleset{ruleset: newRuleset("div", cfg, nil)}
	r.derivativeShape = r.truncateShape
	f := r.Function
	f.HandleCutoff(r.geometricQuantity, expr.KindGeometricQuantity)
	f.HandleCutoff(r.coefficient, expr.KindCoefficient)
	f.HandleCutoff(r.argument, expr.KindArgument)
	f.HandleCutoff(r.grad, expr.KindGrad)
	f.HandleCutoff(r.independentOperator, expr.KindCellAvg, expr.KindFacetAvg)
	return r
}

func (r *divRuleset) truncateShape(o *expr.Expr) expr.Shape {
	if o.IsScalar() {
		exprerr.Panicf(exprerr.ErrShape, "cannot take the divergence of scalar %s %s", o.Kind(), o)
	}
	return o.Shape()[:o.Rank()-1]
}

func (r *divRuleset) geometricQuantity(o *expr.Expr) *expr.Expr {
	if expr.IsCellwiseConstant(o) {
		return r.independentTerminal(o)
	}
	return expr.Div(o)
}

func (r *divRuleset) coefficient(o *expr.Expr) *expr.Expr {
	if expr.IsCellwiseConstant(o) {
		return r.independentTerminal(o)
	}
	return expr.Div(o)
}

func (r *divRuleset) argument(o *expr.Expr) *expr.Expr {
	return expr.Div(o)
}

func (r *divRuleset) grad(o *expr.Expr) *expr.Expr {
	return expr.Div(o)
}

// curlRuleset computes the curl of expressions.
type curlRuleset struct {
	*ruleset
}

func newCurlRuleset(cfg *config) *curlRuleset {
	r := &curlRuleset{ruleset: newRuleset("curl", cfg, nil)}
	r.derivativeShape = r.curlShape
	f := r.Function
	f.HandleCutoff(r.geometricQuantity, expr.KindGeometricQuantity)
	f.HandleCutoff(r.coefficient, expr.KindCoefficient)
	f.HandleCutoff(r.argument, expr.KindArgument)
	f.HandleCutoff(r.grad, expr.KindGrad)
	f.HandleCutoff(r.independentOperator, expr.KindCellAvg, expr.KindFacetAvg)
	return r
}

// curlShape returns the shape of the curl of a node: a 2D vector for a
// scalar, a scalar for a 2D vector and a 3D vector for a 3D vector.
func (r *curlRuleset) curlShape(o *expr.Expr) expr.Shape {
	switch {
	case o.IsScalar():
		return expr.Shape{2}
	case o.Shape().Equal(expr.Shape{2}):
		return nil
	case o.Shape().Equal(expr.Shape{3}):
		return expr.Shape{3}
	}
	exprerr.Panicf(exprerr.ErrShape, "cannot take the curl of %s of shape %s", o.Kind(), o.Shape())
	return nil
}

func (r *curlRuleset) geometricQuantity(o *expr.Expr) *expr.Expr {
	if expr.IsCellwiseConstant(o) {
		return r.independentTerminal(o)
	}
	return expr.Curl(o)
}

func (r *curlRuleset) coefficient(o *expr.Expr) *expr.Expr {
	if expr.IsCellwiseConstant(o) {
		return r.independentTerminal(o)
	}
	return expr.Curl(o)
}

func (r *curlRuleset) argument(o *expr.Expr) *expr.Expr {
	return expr.Curl(o)
}

// grad returns a zero: the curl of a gradient vanishes.
func (r *curlRuleset) grad(o *expr.Expr) *expr.Expr {
	return r.independentOperator(o)
}
