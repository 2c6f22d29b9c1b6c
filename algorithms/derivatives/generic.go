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
	"math"
	"slices"

	"github.com/gx-org/varform/corealg/multifunc"
	"github.com/gx-org/varform/expr"
	"github.com/gx-org/varform/expr/exprerr"
)

// ruleset holds the rules shared by all the derivative operators.
// A specialized rule set registers its own rules on top of them.
type ruleset struct {
	*multifunc.Function
	cfg      *config
	varShape expr.Shape

	// derivativeShape returns the shape of the derivative of a node.
	derivativeShape func(o *expr.Expr) expr.Shape
}

func newRuleset(name string, cfg *config, varShape expr.Shape) *ruleset {
	r := &ruleset{
		Function: multifunc.New(name),
		cfg:      cfg,
		varShape: varShape,
	}
	r.derivativeShape = r.appendVarShape
	f := r.Function
	f.HandleCutoff(f.Override,
		expr.KindGrad,
		expr.KindCellAvg,
		expr.KindFacetAvg,
		expr.KindFormArgument,
		expr.KindGeometricQuantity,
	)
	f.HandleCutoff(f.Derivative, expr.KindDerivative)
	f.HandleCutoff(multifunc.Identity, expr.KindLabel)
	f.HandleCutoff(r.independentTerminal, expr.KindConstantValue)
	// Conditions select values but have no derivative themselves.
	f.HandleCutoff(multifunc.Identity, expr.KindCondition)

	f.Handle(r.variable, expr.KindVariable)
	f.Handle(r.indexed, expr.KindIndexed)
	f.Handle(r.componentTensor, expr.KindComponentTensor)
	f.Handle(r.listTensor, expr.KindListTensor)
	f.Handle(r.indexSum, expr.KindIndexSum)
	f.Handle(r.sum, expr.KindSum)
	f.Handle(r.product, expr.KindProduct)
	f.Handle(r.division, expr.KindDivision)
	f.Handle(r.power, expr.KindPower)
	f.Handle(r.abs, expr.KindAbs)
	f.HandleCutoff(r.independentOperator, expr.KindSign)

	f.HandleCutoff(r.unknownMathFunction, expr.KindMathFunction)
	f.Handle(r.sqrt, expr.KindSqrt)
	f.Handle(r.exp, expr.KindExp)
	f.Handle(r.ln, expr.KindLn)
	f.Handle(r.cos, expr.KindCos)
	f.Handle(r.sin, expr.KindSin)
	f.Handle(r.tan, expr.KindTan)
	f.Handle(r.cosh, expr.KindCosh)
	f.Handle(r.sinh, expr.KindSinh)
	f.Handle(r.tanh, expr.KindTanh)
	f.Handle(r.acos, expr.KindAcos)
	f.Handle(r.asin, expr.KindAsin)
	f.Handle(r.atan, expr.KindAtan)
	f.Handle(r.atan2, expr.KindAtan2)
	f.Handle(r.erf, expr.KindErf)

	f.Handle(r.besselJ, expr.KindBesselJ)
	f.Handle(r.besselY, expr.KindBesselY)
	f.Handle(r.besselI, expr.KindBesselI)
	f.Handle(r.besselK, expr.KindBesselK)

	f.Handle(r.restricted, expr.KindRestricted)
	f.Handle(r.conditional, expr.KindConditional)
	f.Handle(r.maxValue, expr.KindMaxValue)
	f.Handle(r.minValue, expr.KindMinValue)
	return r
}

func (r *ruleset) appendVarShape(o *expr.Expr) expr.Shape {
	return o.Shape().Concat(r.varShape)
}

// independentTerminal returns the derivative of a terminal independent of
// the differentiation variable.
func (r *ruleset) independentTerminal(o *expr.Expr) *expr.Expr {
	return expr.Zero(r.derivativeShape(o), nil)
}

// independentOperator returns the derivative of an operator independent of
// the differentiation variable. Its free indices are kept.
func (r *ruleset) independentOperator(o *expr.Expr) *expr.Expr {
	return expr.Zero(r.derivativeShape(o), o.FreeIndices())
}

func (r *ruleset) unknownMathFunction(o *expr.Expr) *expr.Expr {
	exprerr.Panicf(exprerr.ErrMissingHandler, "%s: unknown math function %s", r.Name(), o.Kind())
	return nil
}

func (r *ruleset) variable(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return ops[0]
}

// untangleIndexed returns ap[ii] with the trailing axes of ap not indexed by ii
// kept as axes of the result. as_tensor(C[kk], jj)[ii] is simplified into C[ll]
// when all the indices of jj are in kk.
func untangleIndexed(ap *expr.Expr, ii expr.MultiIndex) *expr.Expr {
	if ap.Kind() == expr.KindComponentTensor && len(ap.Indices()) == len(ii) {
		b, jj := ap.Operand(0), ap.Indices()
		if b.Kind() == expr.KindIndexed && b.Indices().Contains(jj...) {
			kk := b.Indices()
			cind := slices.Clone(kk)
			for n, j := range jj {
				cind[kk.Find(j)] = ii[n]
			}
			return expr.Indexed(b.Operand(0), cind)
		}
	}
	if rest := ap.Rank() - len(ii); rest > 0 {
		kk := expr.Indices(rest)
		return expr.AsTensor(expr.Indexed(ap, expr.Concat(ii, kk)), kk)
	}
	return expr.Indexed(ap, ii)
}

func (r *ruleset) indexed(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	if ops[0].IsZero() {
		return r.independentOperator(o)
	}
	return untangleIndexed(ops[0], o.Indices())
}

func (r *ruleset) componentTensor(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	if ops[0].IsZero() {
		return r.independentOperator(o)
	}
	ap, jj := expr.AsScalar(ops[0])
	return expr.AsTensor(ap, expr.Concat(o.Indices(), jj))
}

func (r *ruleset) listTensor(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return expr.ListTensor(ops...)
}

func (r *ruleset) indexSum(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return expr.IndexSum(ops[0], o.Indices()[0])
}

func (r *ruleset) sum(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return expr.Sum(ops[0], ops[1])
}

func (r *ruleset) product(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	a, b := o.Operand(0), o.Operand(1)
	// Operands of a product are scalars but their derivatives may not be.
	dops, ii := expr.AsScalars(ops[0], ops[1])
	s := expr.Sum(expr.Product(dops[0], b), expr.Product(a, dops[1]))
	return expr.AsTensor(s, ii)
}

func (r *ruleset) division(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f, g := o.Operand(0), o.Operand(1)
	fp, gp := ops[0], ops[1]
	if !f.IsScalar() {
		exprerr.Panicf(exprerr.ErrShape, "not expecting non-scalar numerator %s", f)
	}
	if !g.IsTrueScalar() {
		exprerr.Panicf(exprerr.ErrShape, "not expecting non-scalar denominator %s", g)
	}
	// (f/g)' = (fp - o*gp) / g
	so, oi := expr.AsScalar(o)
	sgp, gi := expr.AsScalar(gp)
	oGp := expr.AsTensor(expr.Mul(so, sgp), expr.Concat(oi, gi))
	return expr.Quo(expr.Sub(fp, oGp), g)
}

func (r *ruleset) power(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f, g := o.Operand(0), o.Operand(1)
	fp, gp := ops[0], ops[1]
	if !f.IsTrueScalar() {
		exprerr.Panicf(exprerr.ErrShape, "expecting scalar expression f in f**g but got %s", f)
	}
	if !g.IsTrueScalar() {
		exprerr.Panicf(exprerr.ErrShape, "expecting scalar expression g in f**g but got %s", g)
	}
	gMinusOne := expr.Sub(g, expr.Scalar(1))
	if gp.IsZero() {
		// fp*g*f**(g-1)
		return expr.Mul(expr.Mul(fp, g), expr.Power(f, gMinusOne))
	}
	// f**(g-1)*(g*fp + f*ln(f)*gp) instead of the equivalent o*(g*fp/f + ln(f)*gp).
	return expr.Mul(
		expr.Power(f, gMinusOne),
		expr.Sum(
			expr.Mul(g, fp),
			expr.Mul(expr.Mul(f, expr.Ln(f)), gp),
		),
	)
}

// abs keeps the free indices of f apart from the summation performed by Mul.
func (r *ruleset) abs(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	df, ii := expr.AsScalar(ops[0])
	return expr.AsTensor(expr.Product(expr.Sign(o.Operand(0)), df), ii)
}

func two() *expr.Expr {
	return expr.Scalar(2)
}

func one() *expr.Expr {
	return expr.Scalar(1)
}

func square(f *expr.Expr) *expr.Expr {
	return expr.Power(f, two())
}

func (r *ruleset) sqrt(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return expr.Quo(ops[0], expr.Mul(two(), o))
}

func (r *ruleset) exp(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return expr.Mul(ops[0], o)
}

func (r *ruleset) ln(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f := o.Operand(0)
	if f.IsZero() {
		exprerr.Panicf(exprerr.ErrDivisionByZero, "derivative of %s", o)
	}
	return expr.Quo(ops[0], f)
}

func (r *ruleset) cos(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return expr.Mul(ops[0], expr.Neg(expr.Sin(o.Operand(0))))
}

func (r *ruleset) sin(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return expr.Mul(ops[0], expr.Cos(o.Operand(0)))
}

func (r *ruleset) tan(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f := o.Operand(0)
	return expr.Quo(
		expr.Mul(two(), ops[0]),
		expr.Sum(expr.Cos(expr.Mul(two(), f)), one()),
	)
}

func (r *ruleset) cosh(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return expr.Mul(ops[0], expr.Sinh(o.Operand(0)))
}

func (r *ruleset) sinh(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return expr.Mul(ops[0], expr.Cosh(o.Operand(0)))
}

func (r *ruleset) tanh(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f := o.Operand(0)
	sech := expr.Division(
		expr.Mul(two(), expr.Cosh(f)),
		expr.Sum(expr.Cosh(expr.Mul(two(), f)), one()),
	)
	return expr.Mul(ops[0], square(sech))
}

func (r *ruleset) acos(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f := o.Operand(0)
	return expr.Quo(expr.Neg(ops[0]), expr.Sqrt(expr.Sub(one(), square(f))))
}

func (r *ruleset) asin(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f := o.Operand(0)
	return expr.Quo(ops[0], expr.Sqrt(expr.Sub(one(), square(f))))
}

func (r *ruleset) atan(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f := o.Operand(0)
	return expr.Quo(ops[0], expr.Sum(one(), square(f)))
}

func (r *ruleset) atan2(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f, g := o.Operand(0), o.Operand(1)
	fp, gp := ops[0], ops[1]
	return expr.Quo(
		expr.Sub(expr.Mul(g, fp), expr.Mul(f, gp)),
		expr.Sum(square(f), square(g)),
	)
}

func (r *ruleset) erf(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f := o.Operand(0)
	return expr.Mul(ops[0], expr.Mul(
		expr.Scalar(2/math.Sqrt(math.Pi)),
		expr.Exp(expr.Neg(square(f))),
	))
}

type besselBuilder func(nu, f *expr.Expr) *expr.Expr

// bessel returns the derivative of a Bessel function given the derivative of
// its argument. zeroOrder is the derivative for the order 0, scale and
// combine the factor and the operator applied to the neighbouring orders.
func (r *ruleset) bessel(o *expr.Expr, ops []*expr.Expr, fn besselBuilder, zeroOrder *expr.Expr, scale float64, combine func(a, b *expr.Expr) *expr.Expr) *expr.Expr {
	nu, f := o.Operand(0), o.Operand(1)
	nup, fp := ops[0], ops[1]
	if !nup.IsZero() {
		exprerr.Panicf(exprerr.ErrUnsupported, "differentiation of %s with respect to its order", o.Kind())
	}
	var op *expr.Expr
	if nu.IsZero() {
		op = zeroOrder
	} else {
		op = expr.Mul(expr.Scalar(scale), combine(
			fn(expr.Sub(nu, one()), f),
			fn(expr.Sum(nu, one()), f),
		))
	}
	return expr.Mul(op, fp)
}

func (r *ruleset) besselJ(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f := o.Operand(1)
	return r.bessel(o, ops, expr.BesselJ, expr.Neg(expr.BesselJ(one(), f)), 0.5, expr.Sub)
}

func (r *ruleset) besselY(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f := o.Operand(1)
	return r.bessel(o, ops, expr.BesselY, expr.Neg(expr.BesselY(one(), f)), 0.5, expr.Sub)
}

func (r *ruleset) besselI(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f := o.Operand(1)
	return r.bessel(o, ops, expr.BesselI, expr.BesselI(one(), f), 0.5, expr.Sum)
}

func (r *ruleset) besselK(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f := o.Operand(1)
	return r.bessel(o, ops, expr.BesselK, expr.Neg(expr.BesselK(one(), f)), -0.5, expr.Sum)
}

func (r *ruleset) restricted(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	fp := ops[0]
	if fp.Kind().Is(expr.KindConstantValue) {
		return fp
	}
	return expr.Restricted(fp, o.Side())
}

// convexCombination returns dc*dt + (1-dc)*df where dc is 1 if c holds and 0 otherwise.
func convexCombination(c, dt, df *expr.Expr) *expr.Expr {
	dc := expr.Conditional(c, one(), expr.Scalar(0))
	return expr.Sum(expr.Mul(dc, dt), expr.Mul(expr.Sub(one(), dc), df))
}

func (r *ruleset) conditional(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	dt, df := ops[1], ops[2]
	if dt.IsZero() && df.IsZero() {
		return dt
	}
	c := o.Operand(0)
	if r.cfg.conditionalWorkaround {
		return convexCombination(c, dt, df)
	}
	return expr.Conditional(c, dt, df)
}

func (r *ruleset) maxValue(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f, g := o.Operand(0), o.Operand(1)
	return convexCombination(expr.GT(f, g), ops[0], ops[1])
}

func (r *ruleset) minValue(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	f, g := o.Operand(0), o.Operand(1)
	return convexCombination(expr.LT(f, g), ops[0], ops[1])
}
