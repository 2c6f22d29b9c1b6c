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

package expr

import "fmt"

// Cell is the reference cell of a domain.
type Cell struct {
	Name           string
	TopologicalDim int
	Simplex        bool
}

// Reference cells.
var (
	Vertex        = Cell{Name: "vertex", TopologicalDim: 0, Simplex: true}
	Interval      = Cell{Name: "interval", TopologicalDim: 1, Simplex: true}
	Triangle      = Cell{Name: "triangle", TopologicalDim: 2, Simplex: true}
	Tetrahedron   = Cell{Name: "tetrahedron", TopologicalDim: 3, Simplex: true}
	Quadrilateral = Cell{Name: "quadrilateral", TopologicalDim: 2}
	Hexahedron    = Cell{Name: "hexahedron", TopologicalDim: 3}
)

// Domain is a geometric domain: a mesh of cells embedded in a space
// of geometric dimension GeometricDim, with coordinates of a given polynomial degree.
type Domain struct {
	Cell         Cell
	GeometricDim int
	Degree       int
	Label        string
}

// NewDomain returns a domain of affine cells embedded in a space
// with the same dimension as the cells.
func NewDomain(cell Cell, label string) *Domain {
	return &Domain{
		Cell:         cell,
		GeometricDim: cell.TopologicalDim,
		Degree:       1,
		Label:        label,
	}
}

// TopologicalDim returns the dimension of the cells.
func (d *Domain) TopologicalDim() int {
	return d.Cell.TopologicalDim
}

// IsAffine returns true if the map from the reference cell to the physical cell is affine.
func (d *Domain) IsAffine() bool {
	return d.Cell.Simplex && d.Degree <= 1
}

// Equal returns true if two domains describe the same geometry.
func (d *Domain) Equal(other *Domain) bool {
	if d == other {
		return true
	}
	if d == nil || other == nil {
		return false
	}
	return *d == *other
}

func (d *Domain) String() string {
	if d.Label != "" {
		return fmt.Sprintf("Domain(%s, %q)", d.Cell.Name, d.Label)
	}
	return fmt.Sprintf("Domain(%s)", d.Cell.Name)
}

func geometricQuantity(kind Kind, domain *Domain, shape func(*Domain) Shape) *Expr {
	if domain == nil {
		panicShape("%s requires a domain", kind)
	}
	e := newExpr(kind, shape(domain), nil)
	e.domain = domain
	return e
}

// SpatialCoordinate returns the physical coordinate x.
func SpatialCoordinate(domain *Domain) *Expr {
	return geometricQuantity(KindSpatialCoordinate, domain, func(d *Domain) Shape { return Shape{d.GeometricDim} })
}

// CellCoordinate returns the reference coordinate X.
func CellCoordinate(domain *Domain) *Expr {
	return geometricQuantity(KindCellCoordinate, domain, func(d *Domain) Shape { return Shape{d.TopologicalDim()} })
}

// FacetNormal returns the outward normal of the facets.
func FacetNormal(domain *Domain) *Expr {
	return geometricQuantity(KindFacetNormal, domain, func(d *Domain) Shape { return Shape{d.GeometricDim} })
}

// Jacobian returns J = dx/dX.
func Jacobian(domain *Domain) *Expr {
	return geometricQuantity(KindJacobian, domain, func(d *Domain) Shape { return Shape{d.GeometricDim, d.TopologicalDim()} })
}

// JacobianInverse returns K = dX/dx.
func JacobianInverse(domain *Domain) *Expr {
	return geometricQuantity(KindJacobianInverse, domain, func(d *Domain) Shape { return Shape{d.TopologicalDim(), d.GeometricDim} })
}

// JacobianDeterminant returns det(J).
func JacobianDeterminant(domain *Domain) *Expr {
	return geometricQuantity(KindJacobianDeterminant, domain, scalarShape)
}

// CellVolume returns the volume of the cells.
func CellVolume(domain *Domain) *Expr {
	return geometricQuantity(KindCellVolume, domain, scalarShape)
}

// Circumradius returns the circumradius of the cells.
func Circumradius(domain *Domain) *Expr {
	return geometricQuantity(KindCircumradius, domain, scalarShape)
}

// FacetArea returns the area of the facets.
func FacetArea(domain *Domain) *Expr {
	return geometricQuantity(KindFacetArea, domain, scalarShape)
}

func scalarShape(*Domain) Shape {
	return nil
}
