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
	"strconv"
	"strings"
)

var terminalNames = map[Kind]string{
	KindIdentity:            "I",
	KindSpatialCoordinate:   "x",
	KindCellCoordinate:      "X",
	KindFacetNormal:         "n",
	KindJacobian:            "J",
	KindJacobianInverse:     "K",
	KindJacobianDeterminant: "detJ",
	KindCellVolume:          "volume",
	KindCircumradius:        "circumradius",
	KindFacetArea:           "facetarea",
}

var binaryOps = map[Kind]struct {
	op   string
	prec int
}{
	KindOrCondition:  {"||", 1},
	KindAndCondition: {"&&", 2},
	KindEQ:           {"==", 3},
	KindNE:           {"!=", 3},
	KindLT:           {"<", 3},
	KindGT:           {">", 3},
	KindLE:           {"<=", 3},
	KindGE:           {">=", 3},
	KindSum:          {"+", 4},
	KindProduct:      {"*", 5},
	KindDivision:     {"/", 5},
	KindInner:        {":", 5},
	KindDot:          {".", 5},
	KindPower:        {"**", 6},
}

const atomPrec = 10

func precedence(e *Expr) int {
	if op, ok := binaryOps[e.kind]; ok {
		return op.prec
	}
	if e.kind == KindConditional {
		return 0
	}
	if e.kind == KindScalarValue && e.value < 0 {
		return 5
	}
	return atomPrec
}

func operandString(op *Expr, prec int) string {
	s := op.String()
	if precedence(op) <= prec && precedence(op) < atomPrec {
		return "(" + s + ")"
	}
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (e *Expr) terminalString() string {
	switch e.kind {
	case KindZero:
		if e.IsTrueScalar() {
			return "0"
		}
		return fmt.Sprintf("0<%s%s>", e.shape, e.free)
	case KindScalarValue:
		return formatFloat(e.value)
	case KindCoefficient:
		if e.name != "" {
			return e.name
		}
		return fmt.Sprintf("w_%d", e.count)
	case KindArgument:
		return fmt.Sprintf("v_%d", e.count)
	case KindLabel:
		return fmt.Sprintf("l_%d", e.count)
	}
	return terminalNames[e.kind]
}

// String returns a human readable representation of the expression.
// Shared nodes are printed every time they are referenced.
func (e *Expr) String() string {
	if e.IsTerminal() {
		return e.terminalString()
	}
	if op, ok := binaryOps[e.kind]; ok {
		return operandString(e.operands[0], op.prec) + " " + op.op + " " + operandString(e.operands[1], op.prec)
	}
	ops := e.operands
	switch e.kind {
	case KindIndexed:
		return operandString(ops[0], atomPrec-1) + "[" + strings.Trim(e.indices.String(), "()") + "]"
	case KindComponentTensor:
		return fmt.Sprintf("as_tensor(%s, %s)", ops[0], e.indices)
	case KindIndexSum:
		return fmt.Sprintf("sum_{%s} %s", e.indices[0], operandString(ops[0], 4))
	case KindListTensor:
		return "[" + joinOperands(ops) + "]"
	case KindAbs:
		return "|" + ops[0].String() + "|"
	case KindNotCondition:
		return "!(" + ops[0].String() + ")"
	case KindConditional:
		return fmt.Sprintf("%s ? %s : %s", operandString(ops[0], 3), operandString(ops[1], 3), operandString(ops[2], 3))
	case KindPositiveRestricted, KindNegativeRestricted:
		return fmt.Sprintf("(%s)('%s')", ops[0], e.Side())
	case KindVariable:
		return fmt.Sprintf("var%d(%s)", ops[1].count, ops[0])
	case KindVariableDerivative:
		return fmt.Sprintf("d[%s]/d[%s]", ops[0], ops[1])
	case KindCoefficientDerivative:
		return fmt.Sprintf("d/d%s { %s } in direction %s", ops[1], ops[0], ops[2])
	case KindBesselJ, KindBesselY, KindBesselI, KindBesselK:
		return fmt.Sprintf("bessel_%s(%s, %s)", strings.ToUpper(e.kind.String()[len("bessel_"):]), ops[0], ops[1])
	}
	return e.kind.String() + "(" + joinOperands(ops) + ")"
}

func joinOperands(ops []*Expr) string {
	ss := make([]string, len(ops))
	for i, op := range ops {
		ss[i] = op.String()
	}
	return strings.Join(ss, ", ")
}
