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

// Package form represents variational forms as sums of integrals of scalar expressions.
package form

import (
	"fmt"
	"strings"

	vffmt "github.com/gx-org/varform/base/fmt"
	"github.com/gx-org/varform/base/ordered"
	"github.com/gx-org/varform/expr"
	"github.com/gx-org/varform/expr/exprerr"
)

// IntegralType is the type of entities an integral runs over.
type IntegralType string

// Integral types.
const (
	Cell          IntegralType = "cell"
	ExteriorFacet IntegralType = "exterior_facet"
	InteriorFacet IntegralType = "interior_facet"
)

var measureSymbols = map[IntegralType]string{
	Cell:          "dx",
	ExteriorFacet: "ds",
	InteriorFacet: "dS",
}

// Measure over which an integrand is integrated.
type Measure struct {
	Type   IntegralType
	Domain expr.Domain
	// Subdomain restricts the integration to a marked subdomain.
	// Empty means everywhere.
	Subdomain string
}

// DX returns the cell measure of a domain.
func DX(domain *expr.Domain) Measure {
	return Measure{Type: Cell, Domain: *domain}
}

// DS returns the exterior facet measure of a domain.
func DS(domain *expr.Domain) Measure {
	return Measure{Type: ExteriorFacet, Domain: *domain}
}

// DSInterior returns the interior facet measure of a domain.
func DSInterior(domain *expr.Domain) Measure {
	return Measure{Type: InteriorFacet, Domain: *domain}
}

// Sub returns the measure restricted to a subdomain.
func (m Measure) Sub(id string) Measure {
	m.Subdomain = id
	return m
}

func (m Measure) String() string {
	s := measureSymbols[m.Type]
	if m.Subdomain != "" {
		s += "(" + m.Subdomain + ")"
	}
	if m.Domain.Label != "" {
		s += "[" + m.Domain.Label + "]"
	}
	return s
}

// Integral of a scalar integrand over a measure.
type Integral struct {
	integrand *expr.Expr
	measure   Measure
}

// NewIntegral returns the integral of an integrand over a measure.
// The integrand must be a scalar without free indices.
func NewIntegral(integrand *expr.Expr, m Measure) (*Integral, error) {
	if integrand == nil {
		return nil, exprerr.Errorf(exprerr.ErrStructural, "nil integrand")
	}
	if !integrand.IsTrueScalar() {
		return nil, exprerr.Errorf(exprerr.ErrShape, "cannot integrate %s of shape %s and free indices %s over %s: integrands must be scalars", integrand, integrand.Shape(), integrand.FreeIndices(), m)
	}
	return &Integral{integrand: integrand, measure: m}, nil
}

// Integrand returns the expression being integrated.
func (itg *Integral) Integrand() *expr.Expr {
	return itg.integrand
}

// Measure returns the measure of the integral.
func (itg *Integral) Measure() Measure {
	return itg.measure
}

// WithIntegrand returns a copy of the integral with a different integrand.
func (itg *Integral) WithIntegrand(integrand *expr.Expr) *Integral {
	return &Integral{integrand: integrand, measure: itg.measure}
}

func (itg *Integral) String() string {
	return fmt.Sprintf("{ %s } * %s", itg.integrand, itg.measure)
}

// Form is a sum of integrals.
type Form struct {
	integrals []*Integral
}

// New returns a form summing the given integrals.
func New(integrals ...*Integral) *Form {
	return &Form{integrals: integrals}
}

// Integrate returns the form integrating an integrand over a measure.
func Integrate(integrand *expr.Expr, m Measure) (*Form, error) {
	itg, err := NewIntegral(integrand, m)
	if err != nil {
		return nil, err
	}
	return New(itg), nil
}

// Integrals returns the integrals of the form.
func (f *Form) Integrals() []*Integral {
	return f.integrals
}

// Empty returns true if the form has no integrals.
func (f *Form) Empty() bool {
	return len(f.integrals) == 0
}

// Add returns the sum of the form with other forms.
func (f *Form) Add(others ...*Form) *Form {
	all := append([]*Integral{}, f.integrals...)
	for _, other := range others {
		all = append(all, other.integrals...)
	}
	return New(all...)
}

// ByMeasure sums the integrands sharing the same measure.
// Measures are returned in the order they first appear in the form.
func (f *Form) ByMeasure() *ordered.Map[Measure, *expr.Expr] {
	byMeasure := ordered.NewMap[Measure, *expr.Expr]()
	for _, itg := range f.integrals {
		sum, ok := byMeasure.Load(itg.measure)
		if ok {
			sum = expr.Sum(sum, itg.integrand)
		} else {
			sum = itg.integrand
		}
		byMeasure.Store(itg.measure, sum)
	}
	return byMeasure
}

func (f *Form) String() string {
	if f.Empty() {
		return "form {}"
	}
	var s strings.Builder
	s.WriteString("form {\n")
	for i, itg := range f.integrals {
		line := itg.String() + "\n"
		if i > 0 {
			line = "+ " + line
		}
		s.WriteString(vffmt.Indent(line))
	}
	s.WriteString("}")
	return s.String()
}
