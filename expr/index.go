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

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
)

// Shape of a tensor expression: the dimension of every axis.
type Shape []int

// Rank returns the number of axes.
func (s Shape) Rank() int {
	return len(s)
}

// Equal returns true if both shapes have the same axes.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Concat returns a new shape with the axes of other appended to s.
func (s Shape) Concat(other Shape) Shape {
	r := make(Shape, 0, len(s)+len(other))
	r = append(r, s...)
	return append(r, other...)
}

// Size returns the number of components of a tensor with that shape.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

func (s Shape) String() string {
	dims := make([]string, len(s))
	for i, d := range s {
		dims[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(dims, ", ") + ")"
}

var indexCount atomic.Int64

// Index is an index in a multi-index.
// It is either a free index, symbolic and identified by a count,
// or a fixed index with a concrete value.
type Index struct {
	n     int
	fixed bool
}

// NewIndex returns a new free index, distinct from all other indices.
func NewIndex() Index {
	return Index{n: int(indexCount.Add(1))}
}

// FixedIndex returns an index with a fixed value.
func FixedIndex(v int) Index {
	return Index{n: v, fixed: true}
}

// IsFixed returns true if the index has a concrete value.
func (i Index) IsFixed() bool {
	return i.fixed
}

// Count returns the identifier of a free index.
func (i Index) Count() int {
	return i.n
}

// Value returns the value of a fixed index.
func (i Index) Value() int {
	return i.n
}

func (i Index) String() string {
	if i.fixed {
		return fmt.Sprint(i.n)
	}
	return fmt.Sprintf("i_%d", i.n)
}

// MultiIndex is an ordered tuple of indices.
type MultiIndex []Index

// Indices returns a multi-index of n new free indices.
func Indices(n int) MultiIndex {
	ii := make(MultiIndex, n)
	for i := range ii {
		ii[i] = NewIndex()
	}
	return ii
}

// Concat concatenates multi-indices into a new multi-index.
func Concat(iis ...MultiIndex) MultiIndex {
	var r MultiIndex
	for _, ii := range iis {
		r = append(r, ii...)
	}
	return r
}

// Find returns the position of an index in the multi-index, -1 if absent.
func (ii MultiIndex) Find(i Index) int {
	return slices.Index(ii, i)
}

// Contains returns true if the multi-index contains all the indices in jj.
func (ii MultiIndex) Contains(jj ...Index) bool {
	for _, j := range jj {
		if ii.Find(j) < 0 {
			return false
		}
	}
	return true
}

// Equal returns true if both multi-indices have the same indices in the same order.
func (ii MultiIndex) Equal(jj MultiIndex) bool {
	return slices.Equal(ii, jj)
}

func (ii MultiIndex) String() string {
	ss := make([]string, len(ii))
	for i, index := range ii {
		ss[i] = index.String()
	}
	return "(" + strings.Join(ss, ", ") + ")"
}

// FreeIndex is a free index of an expression together with its dimension.
type FreeIndex struct {
	Count int
	Dim   int
}

// Index returns the free index as an index of a multi-index.
func (fi FreeIndex) Index() Index {
	return Index{n: fi.Count}
}

// FreeIndices is a set of free indices, sorted by count.
type FreeIndices []FreeIndex

// Dim returns the dimension of a free index given its count.
func (fi FreeIndices) Dim(count int) (int, bool) {
	pos, found := fi.find(count)
	if !found {
		return 0, false
	}
	return fi[pos].Dim, true
}

// Contains returns true if the index is in the set.
func (fi FreeIndices) Contains(count int) bool {
	_, found := fi.find(count)
	return found
}

func (fi FreeIndices) find(count int) (int, bool) {
	return slices.BinarySearchFunc(fi, count, func(x FreeIndex, c int) int {
		return x.Count - c
	})
}

// Insert returns a new set with the index added.
// The dimension of an index already in the set must match.
func (fi FreeIndices) Insert(x FreeIndex) FreeIndices {
	pos, found := fi.find(x.Count)
	if found {
		if fi[pos].Dim != x.Dim {
			panicShape("index %s has dimensions %d and %d", x.Index(), fi[pos].Dim, x.Dim)
		}
		return fi
	}
	return slices.Insert(slices.Clone(fi), pos, x)
}

// Remove returns a new set without the index.
func (fi FreeIndices) Remove(count int) FreeIndices {
	pos, found := fi.find(count)
	if !found {
		return fi
	}
	return slices.Delete(slices.Clone(fi), pos, pos+1)
}

// Equal returns true if both sets have the same indices with the same dimensions.
func (fi FreeIndices) Equal(other FreeIndices) bool {
	return slices.Equal(fi, other)
}

// Union returns the union of two sets. Indices present in both sets
// must have the same dimension.
func (fi FreeIndices) Union(other FreeIndices) FreeIndices {
	r := fi
	for _, x := range other {
		r = r.Insert(x)
	}
	return r
}

// Intersection returns the indices present in both sets.
func (fi FreeIndices) Intersection(other FreeIndices) FreeIndices {
	var r FreeIndices
	for _, x := range fi {
		if other.Contains(x.Count) {
			r = append(r, x)
		}
	}
	return r
}

// Disjoint returns the union of two sets which must not share any index.
func (fi FreeIndices) Disjoint(other FreeIndices) FreeIndices {
	for _, x := range other {
		if fi.Contains(x.Count) {
			panicShape("repeated index %s is not allowed", x.Index())
		}
	}
	return fi.Union(other)
}

// Indices returns the free indices as a multi-index.
func (fi FreeIndices) Indices() MultiIndex {
	ii := make(MultiIndex, len(fi))
	for i, x := range fi {
		ii[i] = x.Index()
	}
	return ii
}

func (fi FreeIndices) String() string {
	return fi.Indices().String()
}
