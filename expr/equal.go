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

// Equal returns true if two expressions are structurally equal up to a
// consistent renaming of their free indices.
//
// Shared nodes are compared each time they are reached: the cost grows
// with the size of the expressions as trees, not as graphs.
func Equal(a, b *Expr) bool {
	eq := &equality{fwd: make(map[int]int), bwd: make(map[int]int)}
	return eq.equal(a, b)
}

type equality struct {
	fwd, bwd map[int]int
}

func (q *equality) index(i, j Index) bool {
	if i.IsFixed() || j.IsFixed() {
		return i == j
	}
	mj, iMapped := q.fwd[i.Count()]
	mi, jMapped := q.bwd[j.Count()]
	if iMapped || jMapped {
		return iMapped && jMapped && mj == j.Count() && mi == i.Count()
	}
	q.fwd[i.Count()] = j.Count()
	q.bwd[j.Count()] = i.Count()
	return true
}

func (q *equality) multiIndex(ii, jj MultiIndex) bool {
	if len(ii) != len(jj) {
		return false
	}
	for k := range ii {
		if !q.index(ii[k], jj[k]) {
			return false
		}
	}
	return true
}

// freeIndices matches the free indices of two terminals: indices already
// mapped must correspond, the others are paired in order.
func (q *equality) freeIndices(a, b FreeIndices) bool {
	if len(a) != len(b) {
		return false
	}
	var unmappedA, unmappedB FreeIndices
	for _, x := range a {
		mapped, ok := q.fwd[x.Count]
		if !ok {
			unmappedA = append(unmappedA, x)
			continue
		}
		if dim, found := b.Dim(mapped); !found || dim != x.Dim {
			return false
		}
	}
	for _, y := range b {
		if _, ok := q.bwd[y.Count]; !ok {
			unmappedB = append(unmappedB, y)
		}
	}
	if len(unmappedA) != len(unmappedB) {
		return false
	}
	for k := range unmappedA {
		if unmappedA[k].Dim != unmappedB[k].Dim || !q.index(unmappedA[k].Index(), unmappedB[k].Index()) {
			return false
		}
	}
	return true
}

func (q *equality) equal(a, b *Expr) bool {
	if a.kind != b.kind || !a.shape.Equal(b.shape) || len(a.free) != len(b.free) || len(a.operands) != len(b.operands) {
		return false
	}
	switch a.kind {
	case KindZero:
		return q.freeIndices(a.free, b.free)
	case KindScalarValue:
		return a.value == b.value
	case KindCoefficient, KindArgument, KindLabel:
		return a.Key() == b.Key()
	}
	if a.kind.Is(KindGeometricQuantity) && !a.domain.Equal(b.domain) {
		return false
	}
	if !q.multiIndex(a.indices, b.indices) {
		return false
	}
	for i := range a.operands {
		if !q.equal(a.operands[i], b.operands[i]) {
			return false
		}
	}
	return true
}
