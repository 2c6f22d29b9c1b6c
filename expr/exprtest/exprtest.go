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

// Package exprtest provides helpers to test expression transformations.
package exprtest

import (
	"maps"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/gx-org/varform/expr"
)

// AssertEqual reports a test error if two expressions are not equal
// up to a renaming of their indices.
func AssertEqual(t testing.TB, got, want *expr.Expr) bool {
	t.Helper()
	if got == nil || want == nil {
		if got != want {
			t.Errorf("got %v but want %v", got, want)
			return false
		}
		return true
	}
	if expr.Equal(got, want) {
		return true
	}
	t.Errorf("got:\n%s\nbut want:\n%s\ndiff (-want +got):\n%s",
		got, want, cmp.Diff(expr.Graph(want), expr.Graph(got)))
	return false
}

// Step is the default step of finite differences.
const Step = 1e-6

// FiniteDifference approximates the derivative of a scalar expression with
// respect to a scalar terminal x with a central difference around the value
// of x found in values.
func FiniteDifference(f, x *expr.Expr, values expr.Values, h float64) (float64, error) {
	x0 := values[x][0]
	shifted := maps.Clone(values)
	shifted[x] = []float64{x0 + h}
	fPlus, err := expr.Evaluate(f, shifted)
	if err != nil {
		return 0, err
	}
	shifted[x] = []float64{x0 - h}
	fMinus, err := expr.Evaluate(f, shifted)
	if err != nil {
		return 0, err
	}
	return (fPlus - fMinus) / (2 * h), nil
}

// CheckDerivative compares the value of a derivative df of f with respect
// to x to its finite difference approximation.
func CheckDerivative(t testing.TB, f, df, x *expr.Expr, values expr.Values) {
	t.Helper()
	got, err := expr.Evaluate(df, values)
	if err != nil {
		t.Errorf("cannot evaluate %s: %+v", df, err)
		return
	}
	want, err := FiniteDifference(f, x, values, Step)
	if err != nil {
		t.Errorf("cannot evaluate %s: %+v", f, err)
		return
	}
	if !cmp.Equal(got, want, cmpopts.EquateApprox(1e-5, 1e-7)) {
		t.Errorf("derivative %s of %s evaluates to %g but its finite difference is %g", df, f, got, want)
	}
}
