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

// variableRuleset computes the derivative of expressions with respect to a
// variable or a coefficient. The shape of the variable is appended to the shape.
type variableRuleset struct {
	*ruleset
	v  *expr.Expr
	id *expr.Expr
}

func newVariableRuleset(cfg *config, v *expr.Expr) *variableRuleset {
	if len(v.FreeIndices()) > 0 {
		exprerr.Panicf(exprerr.ErrShape, "differentiation variable %s cannot have free indices", v)
	}
	r := &variableRuleset{
		ruleset: newRuleset("variable", cfg, v.Shape()),
		v:       v,
		id:      identityTensor(v.Shape()),
	}
	f := r.Function
	f.HandleCutoff(r.independentTerminal, expr.KindGeometricQuantity, expr.KindArgument)
	f.HandleCutoff(r.coefficient, expr.KindCoefficient)
	f.Handle(r.variable, expr.KindVariable)
	f.HandleCutoff(r.grad, expr.KindGrad)
	f.HandleCutoff(r.referenceValue, expr.KindReferenceValue)
	f.HandleCutoff(r.referenceGrad, expr.KindReferenceGrad)
	f.HandleCutoff(r.independentOperator, expr.KindCellAvg, expr.KindFacetAvg)
	return r
}

// identityTensor returns dv/dv: a tensor of rank 2*len(shape) equal to 1
// when the first half of its indices is equal to the second half.
func identityTensor(shape expr.Shape) *expr.Expr {
	switch len(shape) {
	case 0:
		return expr.Scalar(1)
	case 1:
		return expr.Identity(shape[0])
	}
	var res *expr.Expr
	var ind1, ind2 expr.MultiIndex
	for _, d := range shape {
		i, j := expr.NewIndex(), expr.NewIndex()
		dij := expr.At(expr.Identity(d), i, j)
		if res == nil {
			res = dij
		} else {
			res = expr.Mul(res, dij)
		}
		ind1 = append(ind1, i)
		ind2 = append(ind2, j)
	}
	return expr.AsTensor(res, expr.Concat(ind1, ind2))
}

func (r *variableRuleset) isVariableCoefficient(o *expr.Expr) bool {
	return r.v.Kind() == expr.KindCoefficient && o.Key() == r.v.Key()
}

// coefficient returns the identity if the coefficient is the variable.
// If the variable wraps the coefficient, the derivative is zero.
func (r *variableRuleset) coefficient(o *expr.Expr) *expr.Expr {
	if r.isVariableCoefficient(o) {
		return r.id
	}
	return r.independentTerminal(o)
}

func (r *variableRuleset) variable(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	df, label := ops[0], ops[1]
	if r.v.Kind() == expr.KindVariable && r.v.Operand(1).Key() == label.Key() {
		return r.id
	}
	return df
}

// grad returns a zero: the gradient of a terminal does not depend on a variable.
func (r *variableRuleset) grad(o *expr.Expr) *expr.Expr {
	checkDifferentialTerminal(o, expr.KindGrad)
	return r.independentTerminal(o)
}

func (r *variableRuleset) referenceValue(o *expr.Expr) *expr.Expr {
	f := o.Operand(0)
	if !r.isVariableCoefficient(f) {
		return r.independentTerminal(o)
	}
	if f.Space().Mapping != expr.IdentityMapping {
		exprerr.Panicf(exprerr.ErrUnsupported, "derivative of the reference value of %s with respect to itself for a %s mapped space", f, f.Space().Mapping)
	}
	return r.id
}

func (r *variableRuleset) referenceGrad(o *expr.Expr) *expr.Expr {
	if !isInReferenceFrame(o.Operand(0)) {
		exprerr.Panicf(exprerr.ErrUnexpectedType, "unexpected argument %s to reference grad", o.Operand(0).Kind())
	}
	return r.independentTerminal(o)
}
