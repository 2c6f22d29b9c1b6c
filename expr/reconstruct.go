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

type builder func(e *Expr, ops []*Expr) *Expr

func unary(f func(*Expr) *Expr) builder {
	return func(_ *Expr, ops []*Expr) *Expr { return f(ops[0]) }
}

func binary(f func(*Expr, *Expr) *Expr) builder {
	return func(_ *Expr, ops []*Expr) *Expr { return f(ops[0], ops[1]) }
}

func sameKind(f func(Kind, *Expr) *Expr) builder {
	return func(e *Expr, ops []*Expr) *Expr { return f(e.kind, ops[0]) }
}

func sameKind2(f func(Kind, *Expr, *Expr) *Expr) builder {
	return func(e *Expr, ops []*Expr) *Expr { return f(e.kind, ops[0], ops[1]) }
}

var builders = map[Kind]builder{
	KindVariable: binary(LabeledVariable),
	KindIndexed: func(e *Expr, ops []*Expr) *Expr {
		return Indexed(ops[0], e.indices)
	},
	KindComponentTensor: func(e *Expr, ops []*Expr) *Expr {
		return ComponentTensor(ops[0], e.indices)
	},
	KindListTensor: func(_ *Expr, ops []*Expr) *Expr {
		return ListTensor(ops...)
	},
	KindIndexSum: func(e *Expr, ops []*Expr) *Expr {
		return IndexSum(ops[0], e.indices[0])
	},
	KindSum:      binary(Sum),
	KindProduct:  binary(Product),
	KindDivision: binary(Division),
	KindPower:    binary(Power),
	KindAbs:      unary(Abs),
	KindSign:     unary(Sign),
	KindSqrt:     sameKind(mathFunction),
	KindExp:      sameKind(mathFunction),
	KindLn:       sameKind(mathFunction),
	KindCos:      sameKind(mathFunction),
	KindSin:      sameKind(mathFunction),
	KindTan:      sameKind(mathFunction),
	KindCosh:     sameKind(mathFunction),
	KindSinh:     sameKind(mathFunction),
	KindTanh:     sameKind(mathFunction),
	KindAcos:     sameKind(mathFunction),
	KindAsin:     sameKind(mathFunction),
	KindAtan:     sameKind(mathFunction),
	KindErf:      sameKind(mathFunction),
	KindAtan2:    binary(Atan2),
	KindBesselJ:  sameKind2(besselFunction),
	KindBesselY:  sameKind2(besselFunction),
	KindBesselI:  sameKind2(besselFunction),
	KindBesselK:  sameKind2(besselFunction),
	KindPositiveRestricted: func(e *Expr, ops []*Expr) *Expr {
		return Restricted(ops[0], Plus)
	},
	KindNegativeRestricted: func(e *Expr, ops []*Expr) *Expr {
		return Restricted(ops[0], Minus)
	},
	KindEQ:           sameKind2(binaryCondition),
	KindNE:           sameKind2(binaryCondition),
	KindLT:           sameKind2(binaryCondition),
	KindGT:           sameKind2(binaryCondition),
	KindLE:           sameKind2(binaryCondition),
	KindGE:           sameKind2(binaryCondition),
	KindAndCondition: binary(And),
	KindOrCondition:  binary(Or),
	KindNotCondition: unary(Not),
	KindConditional: func(_ *Expr, ops []*Expr) *Expr {
		return Conditional(ops[0], ops[1], ops[2])
	},
	KindMaxValue:           binary(MaxValue),
	KindMinValue:           binary(MinValue),
	KindInner:              binary(Inner),
	KindDot:                binary(Dot),
	KindGrad:               unary(Grad),
	KindNablaGrad:          unary(NablaGrad),
	KindDiv:                unary(Div),
	KindCurl:               unary(Curl),
	KindReferenceGrad:      unary(ReferenceGrad),
	KindVariableDerivative: binary(VariableDerivative),
	KindCoefficientDerivative: func(_ *Expr, ops []*Expr) *Expr {
		return CoefficientDerivative(ops[0], ops[1], ops[2], ops[3])
	},
	KindReferenceValue: unary(ReferenceValue),
	KindCellAvg:        unary(CellAvg),
	KindFacetAvg:       unary(FacetAvg),
	KindExprList: func(_ *Expr, ops []*Expr) *Expr {
		return ExprList(ops...)
	},
	KindExprMapping: func(_ *Expr, ops []*Expr) *Expr {
		return ExprMapping(ops...)
	},
}
