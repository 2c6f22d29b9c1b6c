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

package derivatives_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/varform/algorithms/derivatives"
	"github.com/gx-org/varform/expr"
	"github.com/gx-org/varform/expr/exprerr"
	"github.com/gx-org/varform/expr/exprtest"
	"github.com/pkg/errors"
)

var (
	triangle = expr.NewDomain(expr.Triangle, "omega")
	p1       = expr.NewSpace(triangle, "Lagrange", 1)
	p1Vec    = expr.NewSpace(triangle, "Lagrange", 1, 2)
	dg0      = expr.NewSpace(triangle, "Discontinuous Lagrange", 0)
)

func apply(t *testing.T, e *expr.Expr, opts ...derivatives.Option) *expr.Expr {
	t.Helper()
	got, err := derivatives.Apply(e, opts...)
	if err != nil {
		t.Fatalf("cannot compute the derivatives of %s:\n%+v", e, err)
	}
	return got
}

func countKind(e *expr.Expr, kind expr.Kind) int {
	n := 0
	for node := range expr.PostOrder(e) {
		if node.Kind() == kind {
			n++
		}
	}
	return n
}

func TestVariableDerivativeMatchesFiniteDifferences(t *testing.T) {
	c := expr.Coefficient(p1, "c")
	g := expr.Coefficient(p1, "g")
	values := expr.Values{c: {0.3}, g: {0.7}}
	two := expr.Scalar(2)
	tests := []struct {
		name string
		f    *expr.Expr
	}{
		{"product", expr.Mul(c, c)},
		{"product with independent", expr.Mul(expr.Sin(c), g)},
		{"division", expr.Quo(g, c)},
		{"division numerator", expr.Quo(c, g)},
		{"constant power", expr.Power(c, expr.Scalar(3))},
		{"coefficient power", expr.Power(c, g)},
		{"exponent", expr.Power(g, c)},
		{"general power", expr.Power(c, expr.Mul(c, two))},
		{"abs", expr.Abs(expr.Sub(c, g))},
		{"sign", expr.Mul(expr.Sign(c), c)},
		{"sqrt", expr.Sqrt(c)},
		{"exp", expr.Exp(expr.Mul(c, two))},
		{"ln", expr.Ln(c)},
		{"cos", expr.Cos(c)},
		{"sin", expr.Sin(c)},
		{"tan", expr.Tan(c)},
		{"cosh", expr.Cosh(c)},
		{"sinh", expr.Sinh(c)},
		{"tanh", expr.Tanh(c)},
		{"acos", expr.Acos(c)},
		{"asin", expr.Asin(c)},
		{"atan", expr.Atan(c)},
		{"atan2", expr.Atan2(c, g)},
		{"atan2 denominator", expr.Atan2(g, c)},
		{"erf", expr.Erf(c)},
		{"bessel J0", expr.BesselJ(expr.Zero(nil, nil), c)},
		{"bessel J2", expr.BesselJ(two, c)},
		{"bessel Y1", expr.BesselY(expr.Scalar(1), c)},
		{"max", expr.MaxValue(expr.Mul(c, c), g)},
		{"min", expr.MinValue(expr.Mul(c, c), g)},
		{"conditional", expr.Conditional(expr.LT(c, g), expr.Mul(c, c), g)},
		{"variable", expr.Variable(expr.Mul(c, g))},
		{"list", expr.At(expr.AsVector(expr.Sin(c), g), expr.FixedIndex(0))},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			df := apply(t, expr.VariableDerivative(test.f, c))
			exprtest.CheckDerivative(t, test.f, df, c, values)
			ws := apply(t, expr.VariableDerivative(test.f, c), derivatives.WithConditionalWorkaround(true))
			exprtest.CheckDerivative(t, test.f, ws, c, values)
		})
	}
}

func TestVectorVariableDerivative(t *testing.T) {
	u := expr.Coefficient(p1Vec, "u")
	i := expr.NewIndex()
	f := expr.Mul(expr.At(u, i), expr.At(u, i))
	df := apply(t, expr.VariableDerivative(f, u))
	if diff := cmp.Diff(expr.Shape{2}, df.Shape()); diff != "" {
		t.Fatalf("unexpected shape:\n%s", diff)
	}
	values := expr.Values{u: {1, 2}}
	for comp, want := range []float64{2, 4} {
		got, err := expr.Evaluate(df, values, comp)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("component %d of %s = %g but want %g", comp, df, got, want)
		}
	}
	exprtest.AssertEqual(t, apply(t, expr.VariableDerivative(u, u)), expr.Identity(2))
}

func TestAbsKeepsFreeIndices(t *testing.T) {
	u := expr.Coefficient(p1Vec, "u")
	w := expr.Coefficient(p1Vec, "w")
	i := expr.NewIndex()
	f := expr.Mul(expr.Abs(expr.At(u, i)), expr.At(w, i))
	df := apply(t, expr.VariableDerivative(f, u))
	values := expr.Values{u: {1, -2}, w: {3, 5}}
	for comp, want := range []float64{3, -5} {
		got, err := expr.Evaluate(df, values, comp)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("component %d of %s = %g but want %g", comp, df, got, want)
		}
	}
}

func TestLabeledVariable(t *testing.T) {
	c := expr.Coefficient(p1, "c")
	v := expr.Variable(expr.Sin(c))
	f := expr.Mul(v, v)
	df := apply(t, expr.VariableDerivative(f, v))
	values := expr.Values{c: {0.4}}
	got, err := expr.Evaluate(df, values)
	if err != nil {
		t.Fatal(err)
	}
	want, err := expr.Evaluate(expr.Mul(two(), expr.Sin(c)), values)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("d(v*v)/dv = %g but want %g", got, want)
	}
	// The derivative with respect to c goes through the variable.
	exprtest.CheckDerivative(t, f, apply(t, expr.VariableDerivative(f, c)), c, values)
}

func two() *expr.Expr {
	return expr.Scalar(2)
}

func TestShapes(t *testing.T) {
	f := expr.Coefficient(p1, "f")
	g := expr.Coefficient(p1, "g")
	u := expr.Coefficient(p1Vec, "u")
	w := expr.Coefficient(p1Vec, "w")
	x := expr.SpatialCoordinate(triangle)
	tests := []struct {
		name string
		e    *expr.Expr
		want expr.Shape
	}{
		{"grad of a scalar", expr.Grad(expr.Mul(f, g)), expr.Shape{2}},
		{"grad of a vector", expr.Grad(expr.Mul(f, u)), expr.Shape{2, 2}},
		{"grad of x", expr.Grad(x), expr.Shape{2, 2}},
		{"grad of grad", expr.Grad(expr.Grad(expr.Sin(f))), expr.Shape{2, 2}},
		{"grad of a dot product", expr.Grad(expr.Dot(u, w)), expr.Shape{2}},
		{"grad of an inner product", expr.Grad(expr.Inner(u, w)), expr.Shape{2}},
		{"nabla grad of a vector", expr.NablaGrad(expr.Mul(f, u)), expr.Shape{2, 2}},
		{"nabla grad of a component", expr.NablaGrad(expr.At(u, expr.FixedIndex(1))), expr.Shape{2}},
		{"div of a sum", expr.Div(expr.Sum(u, w)), nil},
		{"div of a gradient", expr.Div(expr.Sum(u, expr.Grad(f))), nil},
		{"curl of a vector", expr.Curl(expr.Sum(u, w)), nil},
		{"curl of a scalar", expr.Curl(expr.Mul(f, g)), expr.Shape{2}},
		{"variable derivative", expr.VariableDerivative(expr.Mul(f, u), u), expr.Shape{2, 2}},
		{"reference grad", expr.ReferenceGrad(expr.Mul(expr.ReferenceValue(f), expr.ReferenceValue(g))), expr.Shape{2}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := apply(t, test.e)
			if diff := cmp.Diff(test.want, got.Shape()); diff != "" {
				t.Errorf("unexpected shape for %s:\n%s", got, diff)
			}
			if diff := cmp.Diff(test.e.Shape(), got.Shape()); diff != "" {
				t.Errorf("derivative node and its result have different shapes:\n%s", diff)
			}
			for node := range expr.PostOrder(got) {
				if !node.Kind().Is(expr.KindDerivative) {
					continue
				}
				op := node.Operand(0)
				if !op.IsTerminal() && !op.Kind().Is(expr.KindDerivative) && op.Kind() != expr.KindReferenceValue {
					t.Errorf("derivative %s of a non-terminal left in %s", node.Kind(), got)
				}
			}
		})
	}
}

func TestZeros(t *testing.T) {
	c := expr.Coefficient(p1, "c")
	g := expr.Coefficient(p1, "g")
	v := expr.TestFunction(p1)
	i := expr.NewIndex()
	u := expr.Coefficient(p1Vec, "u")
	tests := []struct {
		name string
		e    *expr.Expr
	}{
		{"independent coefficient", expr.VariableDerivative(expr.Sin(g), c)},
		{"argument", expr.VariableDerivative(expr.Mul(v, g), c)},
		{"geometry", expr.VariableDerivative(expr.At(expr.SpatialCoordinate(triangle), expr.FixedIndex(0)), c)},
		{"indexed", expr.VariableDerivative(expr.At(u, i), c)},
		{"cell average", expr.VariableDerivative(expr.CellAvg(c), c)},
		{"unrelated gateaux", expr.Derivative(expr.Exp(g), c, v)},
		{"curl of grad", expr.Curl(expr.Grad(g))},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := apply(t, test.e)
			if !got.IsZero() {
				t.Errorf("got %s but want a zero", got)
			}
			if diff := cmp.Diff(test.e.Shape(), got.Shape()); diff != "" {
				t.Errorf("unexpected shape:\n%s", diff)
			}
			if diff := cmp.Diff(test.e.FreeIndices(), got.FreeIndices()); diff != "" {
				t.Errorf("unexpected free indices:\n%s", diff)
			}
		})
	}
}

func TestLinearity(t *testing.T) {
	f := expr.Coefficient(p1, "f")
	g := expr.Coefficient(p1, "g")
	u := expr.Coefficient(p1Vec, "u")
	w := expr.Coefficient(p1Vec, "w")
	exprtest.AssertEqual(t, apply(t, expr.Grad(expr.Sum(f, g))), expr.Sum(expr.Grad(f), expr.Grad(g)))
	exprtest.AssertEqual(t, apply(t, expr.Div(expr.Sum(u, w))), expr.Sum(expr.Div(u), expr.Div(w)))
	exprtest.AssertEqual(t, apply(t, expr.NablaGrad(expr.Sum(u, w))), expr.Sum(expr.NablaGrad(u), expr.NablaGrad(w)))
}

func TestChainRule(t *testing.T) {
	f := expr.Coefficient(p1, "f")
	exprtest.AssertEqual(t, apply(t, expr.Grad(expr.Sin(f))), expr.Mul(expr.Grad(f), expr.Cos(f)))
	exprtest.AssertEqual(t, apply(t, expr.Grad(expr.Ln(f))), expr.Quo(expr.Grad(f), f))

	_, err := derivatives.Apply(expr.VariableDerivative(expr.Ln(expr.Zero(nil, nil)), f))
	if !errors.Is(err, exprerr.ErrDivisionByZero) {
		t.Errorf("got error %v but want %v", err, exprerr.ErrDivisionByZero)
	}
}

func TestPowerBranches(t *testing.T) {
	f := expr.Coefficient(p1, "f")
	g := expr.Coefficient(p1, "g")
	constant := apply(t, expr.Grad(expr.Power(f, expr.Scalar(3))))
	if countKind(constant, expr.KindLn) != 0 {
		t.Errorf("derivative of f**3 uses the general power rule: %s", constant)
	}
	general := apply(t, expr.Grad(expr.Power(f, g)))
	if countKind(general, expr.KindLn) != 1 {
		t.Errorf("derivative of f**g does not use the general power rule: %s", general)
	}
}

func TestNestedGrad(t *testing.T) {
	f := expr.Coefficient(p1, "f")
	u := expr.Coefficient(p1Vec, "u")
	exprtest.AssertEqual(t, apply(t, expr.Grad(expr.Grad(f))), expr.Grad(expr.Grad(f)))
	got := apply(t, expr.Grad(expr.Grad(expr.Mul(f, u))))
	if diff := cmp.Diff(expr.Shape{2, 2, 2}, got.Shape()); diff != "" {
		t.Errorf("unexpected shape:\n%s", diff)
	}
	for node := range expr.PostOrder(got) {
		if node.Kind() != expr.KindGrad {
			continue
		}
		if op := node.Operand(0); !op.IsTerminal() && op.Kind() != expr.KindGrad {
			t.Errorf("gradient of %s left in %s", op.Kind(), got)
		}
	}
}

func TestReferenceFrame(t *testing.T) {
	f := expr.Coefficient(p1, "f")
	got := apply(t, expr.Grad(expr.ReferenceValue(f)))
	if n := countKind(got, expr.KindJacobianInverse); n != 1 {
		t.Errorf("got %d Jacobian inverses but want 1 in %s", n, got)
	}
	if n := countKind(got, expr.KindReferenceGrad); n != 1 {
		t.Errorf("got %d reference gradients but want 1 in %s", n, got)
	}
	if len(got.FreeIndices()) != 0 {
		t.Errorf("unexpected free indices %v", got.FreeIndices())
	}
	if diff := cmp.Diff(expr.Shape{2}, got.Shape()); diff != "" {
		t.Errorf("unexpected shape:\n%s", diff)
	}

	i := expr.NewIndex()
	k := expr.JacobianInverse(triangle)
	rv := expr.ReferenceValue(expr.Coefficient(p1Vec, "u"))
	got = apply(t, expr.Grad(expr.At(rv, i)))
	if diff := cmp.Diff(expr.FreeIndices{{Count: i.Count(), Dim: 2}}, got.FreeIndices()); diff != "" {
		t.Errorf("unexpected free indices:\n%s", diff)
	}
	if countKind(got, expr.KindJacobianInverse) != 1 || !expr.Contains(got, expr.KindReferenceGrad) {
		t.Errorf("%s is not contracted with %s once", got, k)
	}
}

func TestGateaux(t *testing.T) {
	w := expr.Coefficient(p1, "w")
	g := expr.Coefficient(p1, "g")
	v := expr.TestFunction(p1)
	exprtest.AssertEqual(t, apply(t, expr.Derivative(w, w, v)), v)
	exprtest.AssertEqual(t, apply(t, expr.Derivative(g, w, v)), expr.Zero(nil, nil))

	f := expr.Sum(expr.Mul(w, expr.Mul(w, g)), g)
	df := apply(t, expr.Derivative(f, w, v))
	values := expr.Values{w: {0.3}, g: {2}, v: {0.5}}
	got, err := expr.Evaluate(df, values)
	if err != nil {
		t.Fatal(err)
	}
	if want := 2 * 0.3 * 2 * 0.5; math.Abs(got-want) > 1e-12 {
		t.Errorf("%s = %g but want %g", df, got, want)
	}

	gw := expr.Grad(w)
	gv := expr.Grad(v)
	exprtest.AssertEqual(t,
		apply(t, expr.Derivative(expr.Inner(gw, gw), w, v)),
		expr.Sum(expr.Inner(gv, gw), expr.Inner(gw, gv)),
	)
}

func TestGateauxCoefficientDerivatives(t *testing.T) {
	w := expr.Coefficient(p1, "w")
	h := expr.Coefficient(p1, "h")
	dhdw := expr.Coefficient(p1, "dhdw")
	v := expr.TestFunction(p1)
	e := expr.CoefficientDerivative(expr.Mul(h, h), expr.ExprList(w), expr.ExprList(v), expr.ExprMapping(h, dhdw))
	df := apply(t, e)
	values := expr.Values{w: {1}, h: {3}, dhdw: {5}, v: {0.5}}
	got, err := expr.Evaluate(df, values)
	if err != nil {
		t.Fatal(err)
	}
	if want := 2 * 3 * 5 * 0.5; got != want {
		t.Errorf("%s = %g but want %g", df, got, want)
	}
}

func TestScenarios(t *testing.T) {
	f := expr.Coefficient(p1, "f")
	g := expr.Coefficient(p1, "g")
	t.Run("square", func(t *testing.T) {
		got := apply(t, expr.Grad(expr.Power(f, two())))
		exprtest.AssertEqual(t, got, expr.Mul(expr.Mul(expr.Grad(f), two()), f))
	})
	t.Run("product", func(t *testing.T) {
		got := apply(t, expr.Grad(expr.Mul(expr.Sin(f), g)))
		dsin := expr.Mul(expr.Grad(f), expr.Cos(f))
		dops, ii := expr.AsScalars(dsin, expr.Grad(g))
		want := expr.AsTensor(expr.Sum(
			expr.Product(dops[0], g),
			expr.Product(expr.Sin(f), dops[1]),
		), ii)
		exprtest.AssertEqual(t, got, want)
	})
	t.Run("conditional", func(t *testing.T) {
		c := expr.GT(f, expr.Zero(nil, nil))
		got := apply(t, expr.Grad(expr.Conditional(c, f, expr.Neg(f))))
		want := expr.Conditional(expr.GT(f, expr.Zero(nil, nil)), expr.Grad(f), expr.Neg(expr.Grad(f)))
		exprtest.AssertEqual(t, got, want)
	})
}

func TestConditionalWorkaround(t *testing.T) {
	f := expr.Coefficient(p1, "f")
	e := expr.Grad(expr.Conditional(expr.GT(f, expr.Zero(nil, nil)), f, expr.Neg(f)))
	if got := apply(t, e); got.Kind() != expr.KindConditional {
		t.Errorf("got %s but want a conditional", got.Kind())
	}
	got := apply(t, e, derivatives.WithConditionalWorkaround(true))
	if got.Kind() == expr.KindConditional {
		t.Errorf("got a conditional of derivatives with the workaround enabled: %s", got)
	}
	if n := countKind(got, expr.KindConditional); n != 1 {
		t.Errorf("got %d conditionals but want 1 in %s", n, got)
	}
}

func TestErrors(t *testing.T) {
	f := expr.Coefficient(p1, "f")
	c := expr.Coefficient(p1, "c")
	w := expr.Coefficient(p1, "w")
	v := expr.TestFunction(p1)
	tests := []struct {
		name string
		e    *expr.Expr
		want error
	}{
		{"bessel order", expr.VariableDerivative(expr.BesselJ(c, f), c), exprerr.ErrUnsupported},
		{"modified bessel order", expr.VariableDerivative(expr.BesselK(expr.Mul(c, c), f), c), exprerr.ErrUnsupported},
		{"reference grad of a coefficient", expr.ReferenceGrad(expr.Mul(f, c)), exprerr.ErrUnexpectedType},
		{"reference value in gateaux", expr.Derivative(expr.ReferenceValue(w), w, v), exprerr.ErrUnsupported},
		{"variable with free indices", expr.VariableDerivative(f, expr.Variable(expr.At(expr.Coefficient(p1Vec, "u"), expr.NewIndex()))), exprerr.ErrShape},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := derivatives.Apply(test.e)
			if !errors.Is(err, test.want) {
				t.Errorf("got error %v but want %v", err, test.want)
			}
		})
	}
}

func TestNilExpression(t *testing.T) {
	if _, err := derivatives.Apply(nil); !errors.Is(err, exprerr.ErrStructural) {
		t.Errorf("got error %v but want %v", err, exprerr.ErrStructural)
	}
}
