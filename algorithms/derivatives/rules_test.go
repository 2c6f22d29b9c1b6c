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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/varform/corealg/mapdag"
	"github.com/gx-org/varform/expr"
	"github.com/gx-org/varform/expr/exprerr"
	"github.com/gx-org/varform/expr/exprtest"
	"github.com/pkg/errors"
)

var (
	domain = expr.NewDomain(expr.Triangle, "")
	scalar = expr.NewSpace(domain, "Lagrange", 1)
	vector = expr.NewSpace(domain, "Lagrange", 1, 2)
)

func TestRulesetErrors(t *testing.T) {
	cfg := newConfig(nil)
	f := expr.Coefficient(scalar, "f")
	g := expr.Coefficient(scalar, "g")
	u := expr.Coefficient(vector, "u")
	w := expr.Coefficient(vector, "w")
	c0 := expr.Constant(domain, "c0")
	tests := []struct {
		name string
		rs   mapdag.Function
		e    *expr.Expr
		want error
	}{
		{"grad of a non-terminal", newGradRuleset(cfg, 2), expr.Grad(expr.Sum(f, g)), exprerr.ErrUnexpectedType},
		{"nabla grad of a non-terminal", newNablaGradRuleset(cfg, 2), expr.NablaGrad(expr.Sum(f, g)), exprerr.ErrUnexpectedType},
		{"grad of an unwrapped reference grad", newGradRuleset(cfg, 2), expr.ReferenceGrad(f), exprerr.ErrUnexpectedType},
		{"divergence of a scalar", newDivRuleset(cfg), c0, exprerr.ErrShape},
		{"curl of a matrix", newCurlRuleset(cfg), expr.Grad(u), exprerr.ErrShape},
		{"physical gradient in the reference frame", newReferenceGradRuleset(cfg, 2), expr.Grad(f), exprerr.ErrUnexpectedType},
		{"form argument in the reference frame", newReferenceGradRuleset(cfg, 2), expr.Sum(f, g), exprerr.ErrUnexpectedType},
		{"inner product of variables", newVariableRuleset(cfg, u), expr.Inner(u, w), exprerr.ErrMissingHandler},
		{"unprocessed derivative", newVariableRuleset(cfg, f), expr.Div(u), exprerr.ErrNestedDerivative},
		{"form argument in the generic rule set", newRuleset("generic", cfg, nil), f, exprerr.ErrOverrideRequired},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := mapdag.Map(test.rs, test.e)
			if !errors.Is(err, test.want) {
				t.Errorf("got error %v but want %v", err, test.want)
			}
		})
	}
}

func TestUntangleIndexed(t *testing.T) {
	a := expr.Coefficient(expr.NewSpace(domain, "Lagrange", 1, 2, 2), "A")
	i, j, k := expr.NewIndex(), expr.NewIndex(), expr.NewIndex()
	// A[i,j] as a tensor over (j, i) then indexed with k and i.
	ct := expr.ComponentTensor(expr.At(a, i, j), expr.MultiIndex{j, i})
	l := expr.NewIndex()
	got := untangleIndexed(ct, expr.MultiIndex{k, l})
	exprtest.AssertEqual(t, got, expr.At(a, l, k))

	// Fewer indices than axes keep the trailing axes.
	partial := untangleIndexed(ct, expr.MultiIndex{k})
	if diff := cmp.Diff(expr.Shape{2}, partial.Shape()); diff != "" {
		t.Errorf("unexpected shape:\n%s", diff)
	}
	if !partial.FreeIndices().Contains(k.Count()) {
		t.Errorf("free indices %v of %s do not contain %s", partial.FreeIndices(), partial, k)
	}
}

func TestIdentityTensor(t *testing.T) {
	exprtest.AssertEqual(t, identityTensor(nil), expr.Scalar(1))
	exprtest.AssertEqual(t, identityTensor(expr.Shape{3}), expr.Identity(3))
	id := identityTensor(expr.Shape{2, 2})
	if diff := cmp.Diff(expr.Shape{2, 2, 2, 2}, id.Shape()); diff != "" {
		t.Fatalf("unexpected shape:\n%s", diff)
	}
	for _, test := range []struct {
		comp []int
		want float64
	}{
		{[]int{0, 1, 0, 1}, 1},
		{[]int{1, 1, 1, 1}, 1},
		{[]int{0, 1, 1, 0}, 0},
		{[]int{1, 0, 0, 0}, 0},
	} {
		got, err := expr.Evaluate(id, nil, test.comp...)
		if err != nil {
			t.Fatal(err)
		}
		if got != test.want {
			t.Errorf("identity%v = %g but want %g", test.comp, got, test.want)
		}
	}
}

func TestCurlShapes(t *testing.T) {
	rs := newCurlRuleset(newConfig(nil))
	for _, test := range []struct {
		shape expr.Shape
		want  expr.Shape
	}{
		{nil, expr.Shape{2}},
		{expr.Shape{2}, nil},
		{expr.Shape{3}, expr.Shape{3}},
	} {
		o := expr.Zero(test.shape, nil)
		if diff := cmp.Diff(test.want, rs.curlShape(o)); diff != "" {
			t.Errorf("unexpected curl shape for %s:\n%s", test.shape, diff)
		}
	}
}
