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

import "iter"

// PostOrder returns an iterator over the unique nodes of an expression graph:
// each node is visited once, after all its operands.
func PostOrder(root *Expr) iter.Seq[*Expr] {
	return func(yield func(*Expr) bool) {
		visited := make(map[ID]bool)
		var visit func(e *Expr) bool
		visit = func(e *Expr) bool {
			if visited[e.id] {
				return true
			}
			visited[e.id] = true
			for _, op := range e.operands {
				if !visit(op) {
					return false
				}
			}
			return yield(e)
		}
		visit(root)
	}
}

// Terminals returns an iterator over the unique terminals of an expression graph.
func Terminals(root *Expr) iter.Seq[*Expr] {
	return func(yield func(*Expr) bool) {
		for e := range PostOrder(root) {
			if !e.IsTerminal() {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// Contains returns true if the graph contains a node of the given kind.
func Contains(root *Expr, kind Kind) bool {
	for e := range PostOrder(root) {
		if e.kind.Is(kind) {
			return true
		}
	}
	return false
}

// IsCellwiseConstant returns true if the expression is constant on each cell,
// that is if all its terminals are.
func IsCellwiseConstant(e *Expr) bool {
	for t := range Terminals(e) {
		if !isCellwiseConstantTerminal(t) {
			return false
		}
	}
	return true
}

func isCellwiseConstantTerminal(t *Expr) bool {
	switch t.kind {
	case KindCoefficient, KindArgument:
		return t.space.IsCellwiseConstant()
	case KindSpatialCoordinate, KindCellCoordinate:
		return t.domain.TopologicalDim() == 0
	case KindJacobian, KindJacobianInverse, KindJacobianDeterminant:
		return t.domain.IsAffine()
	case KindFacetNormal:
		return t.domain.Degree <= 1 && (t.domain.Cell.Simplex || t.domain.TopologicalDim() <= 2)
	}
	return true
}
