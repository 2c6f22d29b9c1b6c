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

package mapdag_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/varform/corealg/mapdag"
	"github.com/gx-org/varform/expr"
	"github.com/gx-org/varform/expr/exprerr"
	"github.com/gx-org/varform/expr/exprtest"
	"github.com/pkg/errors"
)

// replace substitutes a terminal and counts the nodes it is applied to.
type replace struct {
	from, to *expr.Expr
	calls    map[expr.Kind]int
	fail     expr.Kind
}

func newReplace(from, to *expr.Expr) *replace {
	return &replace{from: from, to: to, calls: make(map[expr.Kind]int)}
}

func (r *replace) Cutoff(kind expr.Kind) bool {
	return kind == expr.KindVariable
}

func (r *replace) Apply(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	r.calls[o.Kind()]++
	if o.Kind() == r.fail {
		exprerr.Panicf(exprerr.ErrUnsupported, "cannot process %s", o)
	}
	if o == r.from {
		return r.to
	}
	if o.IsTerminal() || r.Cutoff(o.Kind()) {
		return o
	}
	return o.Reconstruct(ops...)
}

var (
	domain = expr.NewDomain(expr.Triangle, "")
	space  = expr.NewSpace(domain, "Lagrange", 1)
)

func TestMapSharedNodes(t *testing.T) {
	f := expr.Coefficient(space, "f")
	g := expr.Coefficient(space, "g")
	s := expr.Sum(f, expr.Scalar(1))
	root := expr.Product(s, expr.Sin(s))
	r := newReplace(f, g)
	pass := mapdag.New(r)
	got, err := pass.Map(root)
	if err != nil {
		t.Fatal(err)
	}
	gs := expr.Sum(g, expr.Scalar(1))
	exprtest.AssertEqual(t, got[0], expr.Product(gs, expr.Sin(gs)))
	if got[0].Operand(0) != got[0].Operand(1).Operand(0) {
		t.Errorf("shared node has been transformed into different nodes")
	}
	wantCalls := map[expr.Kind]int{
		expr.KindCoefficient: 1,
		expr.KindScalarValue: 1,
		expr.KindSum:         1,
		expr.KindSin:         1,
		expr.KindProduct:     1,
	}
	if diff := cmp.Diff(wantCalls, r.calls); diff != "" {
		t.Errorf("unexpected number of calls (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(mapdag.Stats{Visited: 5, Reused: 1}, pass.Stats()); diff != "" {
		t.Errorf("unexpected stats (-want +got):\n%s", diff)
	}
}

func TestMapReusesUntouchedGraphs(t *testing.T) {
	f := expr.Coefficient(space, "f")
	g := expr.Coefficient(space, "g")
	root := expr.Cos(expr.Product(g, g))
	got, err := mapdag.Map(newReplace(f, g), root)
	if err != nil {
		t.Fatal(err)
	}
	if got != root {
		t.Errorf("got a new graph %s but no node has been changed", got)
	}
}

func TestMapCutoff(t *testing.T) {
	f := expr.Coefficient(space, "f")
	g := expr.Coefficient(space, "g")
	v := expr.Variable(f)
	root := expr.Sum(v, f)
	r := newReplace(f, g)
	got, err := mapdag.Map(r, root)
	if err != nil {
		t.Fatal(err)
	}
	exprtest.AssertEqual(t, got, expr.Sum(v, g))
	if r.calls[expr.KindLabel] != 0 {
		t.Errorf("operands of a cutoff node have been transformed")
	}
}

func TestMapList(t *testing.T) {
	f := expr.Coefficient(space, "f")
	g := expr.Coefficient(space, "g")
	shared := expr.Exp(f)
	r := newReplace(f, g)
	got, err := mapdag.MapList(r, expr.Sin(shared), expr.Cos(shared))
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Operand(0) != got[1].Operand(0) {
		t.Errorf("node shared between graphs has been transformed into different nodes")
	}
	if r.calls[expr.KindExp] != 1 {
		t.Errorf("exp has been transformed %d times but want 1", r.calls[expr.KindExp])
	}
}

func TestMapErrors(t *testing.T) {
	f := expr.Coefficient(space, "f")
	r := newReplace(f, f)
	r.fail = expr.KindSin
	_, err := mapdag.Map(r, expr.Exp(expr.Sin(f)))
	if !errors.Is(err, exprerr.ErrUnsupported) {
		t.Fatalf("got error %v but want %v", err, exprerr.ErrUnsupported)
	}
	if !strings.Contains(err.Error(), expr.KindSin.String()) {
		t.Errorf("error %q does not name the failing node", err)
	}
	if r.calls[expr.KindExp] != 0 {
		t.Errorf("mapping continued after an error")
	}
	if _, err := mapdag.Map(r, nil); !errors.Is(err, exprerr.ErrStructural) {
		t.Errorf("got error %v but want %v", err, exprerr.ErrStructural)
	}
}
