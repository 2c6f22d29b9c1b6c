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

package multifunc_test

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/varform/corealg/multifunc"
	"github.com/gx-org/varform/expr"
	"github.com/gx-org/varform/expr/exprerr"
	"github.com/pkg/errors"
)

var (
	domain = expr.NewDomain(expr.Triangle, "")
	f      = expr.Coefficient(expr.NewSpace(domain, "Lagrange", 1), "f")
)

func tag(name string) multifunc.Handler {
	return func(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
		return expr.Coefficient(expr.NewSpace(domain, name, 1), name)
	}
}

func nameOf(e *expr.Expr) string {
	return e.String()
}

func TestDispatchToClosestAncestor(t *testing.T) {
	mf := multifunc.New("test")
	mf.Handle(tag("operator"), expr.KindOperator)
	mf.Handle(tag("math"), expr.KindMathFunction)
	mf.Handle(tag("sin"), expr.KindSin)
	tests := []struct {
		e    *expr.Expr
		want string
	}{
		{expr.Sin(f), "sin"},
		{expr.Cos(f), "math"},
		{expr.Sum(f, f), "operator"},
	}
	for _, test := range tests {
		got, err := exprerr.Try(func() *expr.Expr { return mf.Apply(test.e, nil) })
		if err != nil {
			t.Errorf("%s: %v", test.e.Kind(), err)
			continue
		}
		if nameOf(got) != test.want {
			t.Errorf("%s dispatched to %s but want %s", test.e.Kind(), nameOf(got), test.want)
		}
	}
	if _, err := exprerr.Try(func() *expr.Expr { return mf.Apply(f, nil) }); !errors.Is(err, exprerr.ErrMissingHandler) {
		t.Errorf("got error %v but want %v", err, exprerr.ErrMissingHandler)
	}
}

func TestCutoff(t *testing.T) {
	mf := multifunc.New("test")
	mf.Handle(multifunc.ReuseIfUntouched, expr.KindOperator)
	mf.HandleCutoff(multifunc.Identity, expr.KindTerminal, expr.KindVariable)
	tests := []struct {
		kind expr.Kind
		want bool
	}{
		{expr.KindSum, false},
		{expr.KindCoefficient, true},
		{expr.KindVariable, true},
		{expr.KindExpr, true},
	}
	for _, test := range tests {
		if got := mf.Cutoff(test.kind); got != test.want {
			t.Errorf("Cutoff(%s) = %t but want %t", test.kind, got, test.want)
		}
	}
	want := []expr.Kind{expr.KindExpr, expr.KindTerminal, expr.KindOperator, expr.KindVariable}
	slices.Sort(want)
	if diff := cmp.Diff(want, mf.Handled()); diff != "" {
		t.Errorf("unexpected handled kinds (-want +got):\n%s", diff)
	}
}

func TestErrorTiers(t *testing.T) {
	mf := multifunc.New("rules")
	tests := []struct {
		name    string
		handler multifunc.CutoffHandler
		want    error
	}{
		{"unexpected", mf.Unexpected, exprerr.ErrUnexpectedType},
		{"override", mf.Override, exprerr.ErrOverrideRequired},
		{"derivative", mf.Derivative, exprerr.ErrNestedDerivative},
		{"fixme", mf.Fixme, exprerr.ErrUnsupported},
		{"missing", mf.Missing, exprerr.ErrMissingHandler},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := exprerr.Try(func() *expr.Expr { return test.handler(f) })
			if !errors.Is(err, test.want) {
				t.Errorf("got error %v but want %v", err, test.want)
			}
		})
	}
}

func TestReuseIfUntouched(t *testing.T) {
	g := expr.Coefficient(expr.NewSpace(domain, "Lagrange", 1), "g")
	s := expr.Sum(f, g)
	if got := multifunc.ReuseIfUntouched(s, []*expr.Expr{f, g}); got != s {
		t.Errorf("got a new node %s for unchanged operands", got)
	}
	if got := multifunc.ReuseIfUntouched(s, []*expr.Expr{f, f}); got == s {
		t.Errorf("got the original node for changed operands")
	}
}
