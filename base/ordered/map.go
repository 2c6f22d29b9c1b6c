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

// Package ordered provides a map remembering the order in which keys were first stored.
package ordered

// Map is a map iterating over its keys in insertion order.
// The zero value is not usable: use NewMap.
type Map[K comparable, V any] struct {
	pos  map[K]int
	keys []K
	vals []V
}

// NewMap returns a new empty map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{pos: make(map[K]int)}
}

// Store a key,value pair. Storing an existing key replaces its value
// but keeps its position.
func (m *Map[K, V]) Store(k K, v V) {
	if i, ok := m.pos[k]; ok {
		m.vals[i] = v
		return
	}
	m.pos[k] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

// Load returns a value given a key.
func (m *Map[K, V]) Load(k K) (v V, ok bool) {
	i, ok := m.pos[k]
	if !ok {
		return v, false
	}
	return m.vals[i], true
}

// Iter returns an iterator over the elements of the map.
func (m *Map[K, V]) Iter() func(func(K, V) bool) {
	return func(yield func(K, V) bool) {
		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				return
			}
		}
	}
}

// Keys returns an iterator over the keys of the map.
func (m *Map[K, V]) Keys() func(func(K) bool) {
	return func(yield func(K) bool) {
		for _, k := range m.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Values returns an iterator over the values of the map.
func (m *Map[K, V]) Values() func(func(V) bool) {
	return func(yield func(V) bool) {
		for _, v := range m.vals {
			if !yield(v) {
				return
			}
		}
	}
}

// Size returns the number of elements in the map.
func (m *Map[K, V]) Size() int {
	return len(m.keys)
}
