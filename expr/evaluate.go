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
	"maps"
	"math"

	"github.com/gx-org/varform/expr/exprerr"
)

// Values binds terminals to their numerical values.
// Tensor values are flattened in row-major order.
type Values map[*Expr][]float64

// Evaluate computes a component of an expression given the values of its terminals.
// The expression must not have free indices and the component must index all its axes.
func Evaluate(e *Expr, values Values, component ...int) (v float64, err error) {
	defer exprerr.Recover(&err)
	if len(e.free) > 0 {
		return 0, exprerr.Errorf(exprerr.ErrShape, "cannot evaluate %s: free indices %s", e, e.free)
	}
	if len(component) != e.Rank() {
		return 0, exprerr.Errorf(exprerr.ErrShape, "component %v does not index the shape %s of %s", component, e.shape, e)
	}
	for axis, c := range component {
		if c < 0 || c >= e.shape[axis] {
			return 0, exprerr.Errorf(exprerr.ErrShape, "component %v out of bounds for shape %s", component, e.shape)
		}
	}
	ev := &evaluator{values: values}
	return ev.eval(e, component, nil), nil
}

type evaluator struct {
	values Values
}

func flatIndex(shape Shape, comp []int) int {
	flat := 0
	for axis, c := range comp {
		flat = flat*shape[axis] + c
	}
	return flat
}

func forEachComponent(shape Shape, f func(comp []int)) {
	comp := make([]int, len(shape))
	for range shape.Size() {
		f(comp)
		for axis := len(comp) - 1; axis >= 0; axis-- {
			comp[axis]++
			if comp[axis] < shape[axis] {
				break
			}
			comp[axis] = 0
		}
	}
}

func bind(idx map[int]int, ii MultiIndex, values []int) map[int]int {
	r := maps.Clone(idx)
	if r == nil {
		r = make(map[int]int)
	}
	for k, i := range ii {
		r[i.Count()] = values[k]
	}
	return r
}

func (ev *evaluator) terminal(e *Expr, comp []int) float64 {
	vals, ok := ev.values[e]
	if !ok {
		exprerr.Panicf(exprerr.ErrUnsupported, "no value for terminal %s", e)
	}
	if len(vals) != e.shape.Size() {
		exprerr.Panicf(exprerr.ErrShape, "terminal %s of shape %s has %d values", e, e.shape, len(vals))
	}
	return vals[flatIndex(e.shape, comp)]
}

func (ev *evaluator) eval(e *Expr, comp []int, idx map[int]int) float64 {
	ops := e.operands
	switch e.kind {
	case KindZero:
		return 0
	case KindScalarValue:
		return e.value
	case KindIdentity:
		if comp[0] == comp[1] {
			return 1
		}
		return 0
	case KindVariable, KindPositiveRestricted, KindNegativeRestricted:
		return ev.eval(ops[0], comp, idx)
	case KindIndexed:
		sub := make([]int, len(e.indices))
		for k, i := range e.indices {
			if i.IsFixed() {
				sub[k] = i.Value()
				continue
			}
			v, ok := idx[i.Count()]
			if !ok {
				exprerr.Panicf(exprerr.ErrStructural, "index %s is not bound in %s", i, e)
			}
			sub[k] = v
		}
		return ev.eval(ops[0], sub, idx)
	case KindComponentTensor:
		return ev.eval(ops[0], nil, bind(idx, e.indices, comp))
	case KindListTensor:
		return ev.eval(ops[comp[0]], comp[1:], idx)
	case KindIndexSum:
		sum := 0.0
		for v := range e.SumDim() {
			sum += ev.eval(ops[0], comp, bind(idx, e.indices, []int{v}))
		}
		return sum
	case KindSum:
		return ev.eval(ops[0], comp, idx) + ev.eval(ops[1], comp, idx)
	case KindProduct:
		return ev.eval(ops[0], comp, idx) * ev.eval(ops[1], comp, idx)
	case KindDivision:
		return ev.eval(ops[0], comp, idx) / ev.eval(ops[1], comp, idx)
	case KindPower:
		return math.Pow(ev.eval(ops[0], comp, idx), ev.eval(ops[1], comp, idx))
	case KindAbs:
		return math.Abs(ev.eval(ops[0], comp, idx))
	case KindSign:
		return math.Copysign(1, ev.eval(ops[0], comp, idx))
	case KindAtan2:
		return math.Atan2(ev.eval(ops[0], nil, idx), ev.eval(ops[1], nil, idx))
	case KindBesselJ, KindBesselY:
		nu := ev.eval(ops[0], nil, idx)
		n := int(nu)
		if float64(n) != nu {
			exprerr.Panicf(exprerr.ErrUnsupported, "cannot evaluate %s of non-integer order %g", e.kind, nu)
		}
		x := ev.eval(ops[1], nil, idx)
		if e.kind == KindBesselJ {
			return math.Jn(n, x)
		}
		return math.Yn(n, x)
	case KindConditional:
		if ev.condition(ops[0], idx) {
			return ev.eval(ops[1], comp, idx)
		}
		return ev.eval(ops[2], comp, idx)
	case KindMaxValue:
		return math.Max(ev.eval(ops[0], nil, idx), ev.eval(ops[1], nil, idx))
	case KindMinValue:
		return math.Min(ev.eval(ops[0], nil, idx), ev.eval(ops[1], nil, idx))
	case KindInner:
		sum := 0.0
		forEachComponent(ops[0].shape, func(c []int) {
			sum += ev.eval(ops[0], c, idx) * ev.eval(ops[1], c, idx)
		})
		return sum
	case KindDot:
		ra := ops[0].Rank()
		ca, cb := comp[:ra-1], comp[ra-1:]
		sum := 0.0
		for k := range ops[1].shape[0] {
			sum += ev.eval(ops[0], append(append([]int{}, ca...), k), idx) *
				ev.eval(ops[1], append([]int{k}, cb...), idx)
		}
		return sum
	}
	if f, ok := mathFuncs[e.kind]; ok {
		return f(ev.eval(ops[0], nil, idx))
	}
	if e.kind.Is(KindFormArgument) || e.kind.Is(KindGeometricQuantity) {
		return ev.terminal(e, comp)
	}
	exprerr.Panicf(exprerr.ErrUnsupported, "cannot evaluate %s", e.kind)
	return 0
}

func (ev *evaluator) condition(c *Expr, idx map[int]int) bool {
	ops := c.operands
	switch c.kind {
	case KindAndCondition:
		return ev.condition(ops[0], idx) && ev.condition(ops[1], idx)
	case KindOrCondition:
		return ev.condition(ops[0], idx) || ev.condition(ops[1], idx)
	case KindNotCondition:
		return !ev.condition(ops[0], idx)
	}
	l, r := ev.eval(ops[0], nil, idx), ev.eval(ops[1], nil, idx)
	switch c.kind {
	case KindEQ:
		return l == r
	case KindNE:
		return l != r
	case KindLT:
		return l < r
	case KindGT:
		return l > r
	case KindLE:
		return l <= r
	case KindGE:
		return l >= r
	}
	exprerr.Panicf(exprerr.ErrUnsupported, "cannot evaluate condition %s", c.kind)
	return false
}
