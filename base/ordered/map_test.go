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

package ordered_test

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/varform/base/ordered"
)

type entry struct {
	k string
	v int
}

func TestMap(t *testing.T) {
	tests := []struct {
		stored []entry
		want   []entry
	}{
		{
			stored: []entry{{"u", 1}, {"w", 2}, {"f", 3}},
			want:   []entry{{"u", 1}, {"w", 2}, {"f", 3}},
		},
		{
			stored: []entry{{"w", 1}, {"u", 2}, {"w", 3}},
			want:   []entry{{"w", 3}, {"u", 2}},
		},
		{
			stored: []entry{{"u", 1}, {"u", 2}, {"u", 3}},
			want:   []entry{{"u", 3}},
		},
		{},
	}
	for i, test := range tests {
		m := ordered.NewMap[string, int]()
		for _, e := range test.stored {
			m.Store(e.k, e.v)
		}
		if m.Size() != len(test.want) {
			t.Errorf("test %d: map has %d entries but want %d", i, m.Size(), len(test.want))
			continue
		}
		var got []entry
		for k, v := range m.Iter() {
			got = append(got, entry{k: k, v: v})
		}
		if !slices.Equal(got, test.want) {
			t.Errorf("test %d: got %v but want %v", i, got, test.want)
		}
		wantKeys := make([]string, len(test.want))
		wantValues := make([]int, len(test.want))
		for n, e := range test.want {
			wantKeys[n], wantValues[n] = e.k, e.v
			if v, ok := m.Load(e.k); !ok || v != e.v {
				t.Errorf("test %d: Load(%q) = %d, %v but want %d, true", i, e.k, v, ok, e.v)
			}
		}
		if diff := cmp.Diff(wantKeys, slices.Collect(m.Keys())); diff != "" {
			t.Errorf("test %d: unexpected keys:\n%s", i, diff)
		}
		if diff := cmp.Diff(wantValues, slices.Collect(m.Values())); diff != "" {
			t.Errorf("test %d: unexpected values:\n%s", i, diff)
		}
		if _, ok := m.Load("missing"); ok {
			t.Errorf("test %d: found a value for a missing key", i)
		}
	}
}
