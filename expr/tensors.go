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

import "slices"

// Indexed returns the component a[ii] of a tensor expression.
// The multi-index must index all the axes of a.
func Indexed(a *Expr, ii MultiIndex) *Expr {
	if len(ii) != a.Rank() {
		panicShape("invalid number of indices (%d) for tensor expression of rank %d", len(ii), a.Rank())
	}
	if len(ii) == 0 {
		return a
	}
	free := a.free
	for axis, i := range ii {
		dim := a.shape[axis]
		if i.IsFixed() {
			if i.Value() < 0 || i.Value() >= dim {
				panicShape("fixed index %s out of bounds for axis of dimension %d", i, dim)
			}
			continue
		}
		if free.Contains(i.Count()) {
			panicShape("repeated index %s in %s%s", i, a, ii)
		}
		free = free.Insert(FreeIndex{Count: i.Count(), Dim: dim})
	}
	if a.IsZero() {
		return Zero(nil, free)
	}
	e := newExpr(KindIndexed, nil, free, a)
	e.indices = slices.Clone(ii)
	return e
}

// At returns the component a[ii...] of a tensor expression.
func At(a *Expr, ii ...Index) *Expr {
	return Indexed(a, ii)
}

// ComponentTensor builds a tensor from a scalar expression by binding
// some of its free indices to the axes of the tensor.
func ComponentTensor(a *Expr, ii MultiIndex) *Expr {
	if !a.IsScalar() {
		panicShape("expecting a scalar valued expression to build a tensor but got shape %s", a.shape)
	}
	if len(ii) == 0 {
		return a
	}
	shape := make(Shape, len(ii))
	free := a.free
	for axis, i := range ii {
		if i.IsFixed() {
			panicShape("expecting free indices to build a tensor but got %s", ii)
		}
		dim, ok := free.Dim(i.Count())
		if !ok {
			panicShape("index %s is not a free index of %s", i, a)
		}
		shape[axis] = dim
		free = free.Remove(i.Count())
	}
	if a.IsZero() {
		return Zero(shape, free)
	}
	e := newExpr(KindComponentTensor, shape, free, a)
	e.indices = slices.Clone(ii)
	return e
}

// AsTensor builds a tensor from a scalar expression given indices.
// as_tensor(A[ii], ii) is simplified into A.
func AsTensor(a *Expr, ii MultiIndex) *Expr {
	if len(ii) == 0 {
		return a
	}
	if a.kind == KindIndexed && a.indices.Equal(ii) {
		return a.operands[0]
	}
	return ComponentTensor(a, ii)
}

// AsScalar returns a scalar component of an expression together with
// the indices introduced to index it. Scalar expressions are returned as is.
func AsScalar(a *Expr) (*Expr, MultiIndex) {
	if a.IsScalar() {
		return a, nil
	}
	ii := Indices(a.Rank())
	return Indexed(a, ii), ii
}

// AsScalars indexes expressions of the same shape with the same new indices.
func AsScalars(as ...*Expr) ([]*Expr, MultiIndex) {
	if len(as) == 0 {
		return nil, nil
	}
	shape := as[0].shape
	for _, a := range as[1:] {
		if !a.shape.Equal(shape) {
			panicShape("expecting expressions with the same shape but got %s and %s", shape, a.shape)
		}
	}
	if len(shape) == 0 {
		return as, nil
	}
	ii := Indices(len(shape))
	r := make([]*Expr, len(as))
	for i, a := range as {
		r[i] = Indexed(a, ii)
	}
	return r, ii
}

// ListTensor builds a tensor whose first axis enumerates the operands.
func ListTensor(ops ...*Expr) *Expr {
	if len(ops) == 0 {
		panicShape("cannot build an empty list tensor")
	}
	sub, free := ops[0].shape, ops[0].free
	allZero := true
	for _, op := range ops {
		if !op.shape.Equal(sub) {
			panicShape("list tensor components must have the same shape but got %s and %s", sub, op.shape)
		}
		if !op.free.Equal(free) {
			panicShape("list tensor components must have the same free indices but got %s and %s", free, op.free)
		}
		allZero = allZero && op.IsZero()
	}
	shape := Shape{len(ops)}.Concat(sub)
	if allZero {
		return Zero(shape, free)
	}
	return newExpr(KindListTensor, shape, free, ops...)
}

// AsVector builds a vector from scalar components.
func AsVector(ops ...*Expr) *Expr {
	for _, op := range ops {
		if !op.IsScalar() {
			panicShape("vector components must be scalar but got shape %s", op.shape)
		}
	}
	return ListTensor(ops...)
}

// IndexSum sums an expression over the range of one of its free indices.
func IndexSum(a *Expr, i Index) *Expr {
	if i.IsFixed() {
		panicShape("cannot sum over fixed index %s", i)
	}
	if !a.free.Contains(i.Count()) {
		panicShape("index %s is not a free index of %s", i, a)
	}
	free := a.free.Remove(i.Count())
	if a.IsZero() {
		return Zero(a.shape, free)
	}
	e := newExpr(KindIndexSum, a.shape, free, a)
	e.indices = MultiIndex{i}
	return e
}

// SumDim returns the dimension of the index summed by an IndexSum node.
func (e *Expr) SumDim() int {
	dim, _ := e.operands[0].free.Dim(e.indices[0].Count())
	return dim
}
