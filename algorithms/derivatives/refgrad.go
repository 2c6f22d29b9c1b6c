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

// referenceGradRuleset computes the gradient of expressions with respect to
// the reference cell coordinates. Form arguments must have been wrapped in
// reference values beforehand.
type referenceGradRuleset struct {
	*ruleset
	tdim int
}

func newReferenceGradRuleset(cfg *config, tdim int) *referenceGradRuleset {
	r := &referenceGradRuleset{
		ruleset: newRuleset("reference_grad", cfg, expr.Shape{tdim}),
		tdim:    tdim,
	}
	f := r.Function
	f.HandleCutoff(r.geometricQuantity, expr.KindGeometricQuantity)
	f.HandleCutoff(r.spatialCoordinate, expr.KindSpatialCoordinate)
	f.HandleCutoff(r.cellCoordinate, expr.KindCellCoordinate)
	f.HandleCutoff(r.referenceValue, expr.KindReferenceValue)
	f.HandleCutoff(f.Unexpected, expr.KindFormArgument, expr.KindGrad)
	f.HandleCutoff(r.referenceGrad, expr.KindReferenceGrad)
	f.HandleCutoff(r.independentOperator, expr.KindCellAvg, expr.KindFacetAvg)
	return r
}

func (r *referenceGradRuleset) geometricQuantity(o *expr.Expr) *expr.Expr {
	if expr.IsCellwiseConstant(o) {
		return r.independentTerminal(o)
	}
	return expr.ReferenceGrad(o)
}

// spatialCoordinate returns ReferenceGrad(x) and not the Jacobian:
// the Jacobian is defined from that gradient.
func (r *referenceGradRuleset) spatialCoordinate(o *expr.Expr) *expr.Expr {
	return expr.ReferenceGrad(o)
}

func (r *referenceGradRuleset) cellCoordinate(o *expr.Expr) *expr.Expr {
	return expr.Identity(r.tdim)
}

func (r *referenceGradRuleset) referenceValue(o *expr.Expr) *expr.Expr {
	if f := o.Operand(0); !f.IsTerminal() {
		exprerr.Panicf(exprerr.ErrUnexpectedType, "reference value can only wrap a terminal, got %s", f.Kind())
	}
	return expr.ReferenceGrad(o)
}

func (r *referenceGradRuleset) referenceGrad(o *expr.Expr) *expr.Expr {
	// ref_grad(ref_grad(f)) is represented as ReferenceGrad(ReferenceGrad(f)).
	checkDifferentialTerminal(o, expr.KindReferenceGrad, expr.KindReferenceValue)
	return expr.ReferenceGrad(o)
}
