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

// Kind is the tag identifying the variant of an expression node.
//
// Kinds form a hierarchy: each kind has a parent, up to KindExpr which is the
// root of all kinds. Abstract kinds are never carried by a node but are used
// by rule dispatchers to register handlers for a whole family of nodes.
type Kind int

// Abstract kinds.
const (
	KindExpr Kind = iota
	KindTerminal
	KindOperator
	KindConstantValue
	KindFormArgument
	KindGeometricQuantity
	KindMathFunction
	KindBesselFunction
	KindRestricted
	KindCondition
	KindBinaryCondition
	KindDerivative
)

// Terminal kinds.
const (
	KindZero Kind = iota + KindDerivative + 1
	KindScalarValue
	KindIdentity
	KindCoefficient
	KindArgument
	KindSpatialCoordinate
	KindCellCoordinate
	KindFacetNormal
	KindJacobian
	KindJacobianInverse
	KindJacobianDeterminant
	KindCellVolume
	KindCircumradius
	KindFacetArea
	KindLabel
)

// Operator kinds.
const (
	KindVariable Kind = iota + KindLabel + 1
	KindIndexed
	KindComponentTensor
	KindListTensor
	KindIndexSum
	KindSum
	KindProduct
	KindDivision
	KindPower
	KindAbs
	KindSign
	KindSqrt
	KindExp
	KindLn
	KindCos
	KindSin
	KindTan
	KindCosh
	KindSinh
	KindTanh
	KindAcos
	KindAsin
	KindAtan
	KindErf
	KindAtan2
	KindBesselJ
	KindBesselY
	KindBesselI
	KindBesselK
	KindPositiveRestricted
	KindNegativeRestricted
	KindEQ
	KindNE
	KindLT
	KindGT
	KindLE
	KindGE
	KindAndCondition
	KindOrCondition
	KindNotCondition
	KindConditional
	KindMaxValue
	KindMinValue
	KindInner
	KindDot
	KindGrad
	KindNablaGrad
	KindDiv
	KindCurl
	KindReferenceGrad
	KindVariableDerivative
	KindCoefficientDerivative
	KindReferenceValue
	KindCellAvg
	KindFacetAvg
	KindExprList
	KindExprMapping

	numKinds
)

type kindInfo struct {
	name   string
	parent Kind
}

var kinds = [numKinds]kindInfo{
	KindExpr:              {"expr", KindExpr},
	KindTerminal:          {"terminal", KindExpr},
	KindOperator:          {"operator", KindExpr},
	KindConstantValue:     {"constant_value", KindTerminal},
	KindFormArgument:      {"form_argument", KindTerminal},
	KindGeometricQuantity: {"geometric_quantity", KindTerminal},
	KindMathFunction:      {"math_function", KindOperator},
	KindBesselFunction:    {"bessel_function", KindOperator},
	KindRestricted:        {"restricted", KindOperator},
	KindCondition:         {"condition", KindOperator},
	KindBinaryCondition:   {"binary_condition", KindCondition},
	KindDerivative:        {"derivative", KindOperator},

	KindZero:                {"zero", KindConstantValue},
	KindScalarValue:         {"scalar_value", KindConstantValue},
	KindIdentity:            {"identity", KindConstantValue},
	KindCoefficient:         {"coefficient", KindFormArgument},
	KindArgument:            {"argument", KindFormArgument},
	KindSpatialCoordinate:   {"spatial_coordinate", KindGeometricQuantity},
	KindCellCoordinate:      {"cell_coordinate", KindGeometricQuantity},
	KindFacetNormal:         {"facet_normal", KindGeometricQuantity},
	KindJacobian:            {"jacobian", KindGeometricQuantity},
	KindJacobianInverse:     {"jacobian_inverse", KindGeometricQuantity},
	KindJacobianDeterminant: {"jacobian_determinant", KindGeometricQuantity},
	KindCellVolume:          {"cell_volume", KindGeometricQuantity},
	KindCircumradius:        {"circumradius", KindGeometricQuantity},
	KindFacetArea:           {"facet_area", KindGeometricQuantity},
	KindLabel:               {"label", KindTerminal},

	KindVariable:              {"variable", KindOperator},
	KindIndexed:               {"indexed", KindOperator},
	KindComponentTensor:       {"component_tensor", KindOperator},
	KindListTensor:            {"list_tensor", KindOperator},
	KindIndexSum:              {"index_sum", KindOperator},
	KindSum:                   {"sum", KindOperator},
	KindProduct:               {"product", KindOperator},
	KindDivision:              {"division", KindOperator},
	KindPower:                 {"power", KindOperator},
	KindAbs:                   {"abs", KindOperator},
	KindSign:                  {"sign", KindOperator},
	KindSqrt:                  {"sqrt", KindMathFunction},
	KindExp:                   {"exp", KindMathFunction},
	KindLn:                    {"ln", KindMathFunction},
	KindCos:                   {"cos", KindMathFunction},
	KindSin:                   {"sin", KindMathFunction},
	KindTan:                   {"tan", KindMathFunction},
	KindCosh:                  {"cosh", KindMathFunction},
	KindSinh:                  {"sinh", KindMathFunction},
	KindTanh:                  {"tanh", KindMathFunction},
	KindAcos:                  {"acos", KindMathFunction},
	KindAsin:                  {"asin", KindMathFunction},
	KindAtan:                  {"atan", KindMathFunction},
	KindErf:                   {"erf", KindMathFunction},
	KindAtan2:                 {"atan_2", KindOperator},
	KindBesselJ:               {"bessel_j", KindBesselFunction},
	KindBesselY:               {"bessel_y", KindBesselFunction},
	KindBesselI:               {"bessel_i", KindBesselFunction},
	KindBesselK:               {"bessel_k", KindBesselFunction},
	KindPositiveRestricted:    {"positive_restricted", KindRestricted},
	KindNegativeRestricted:    {"negative_restricted", KindRestricted},
	KindEQ:                    {"eq", KindBinaryCondition},
	KindNE:                    {"ne", KindBinaryCondition},
	KindLT:                    {"lt", KindBinaryCondition},
	KindGT:                    {"gt", KindBinaryCondition},
	KindLE:                    {"le", KindBinaryCondition},
	KindGE:                    {"ge", KindBinaryCondition},
	KindAndCondition:          {"and_condition", KindBinaryCondition},
	KindOrCondition:           {"or_condition", KindBinaryCondition},
	KindNotCondition:          {"not_condition", KindCondition},
	KindConditional:           {"conditional", KindOperator},
	KindMaxValue:              {"max_value", KindOperator},
	KindMinValue:              {"min_value", KindOperator},
	KindInner:                 {"inner", KindOperator},
	KindDot:                   {"dot", KindOperator},
	KindGrad:                  {"grad", KindDerivative},
	KindNablaGrad:             {"nabla_grad", KindDerivative},
	KindDiv:                   {"div", KindDerivative},
	KindCurl:                  {"curl", KindDerivative},
	KindReferenceGrad:         {"reference_grad", KindDerivative},
	KindVariableDerivative:    {"variable_derivative", KindDerivative},
	KindCoefficientDerivative: {"coefficient_derivative", KindDerivative},
	KindReferenceValue:        {"reference_value", KindOperator},
	KindCellAvg:               {"cell_avg", KindOperator},
	KindFacetAvg:              {"facet_avg", KindOperator},
	KindExprList:              {"expr_list", KindOperator},
	KindExprMapping:           {"expr_mapping", KindOperator},
}

// NumKinds returns the number of kinds, abstract kinds included.
func NumKinds() int {
	return int(numKinds)
}

// String returns the name of the kind.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "invalid_kind"
	}
	return kinds[k].name
}

// Parent returns the parent of a kind in the hierarchy.
// The parent of KindExpr is KindExpr.
func (k Kind) Parent() Kind {
	return kinds[k].parent
}

// IsAbstract returns true if no node can carry the kind.
func (k Kind) IsAbstract() bool {
	return k <= KindDerivative
}

// Is returns true if k is equal to other or if other is an ancestor of k.
func (k Kind) Is(other Kind) bool {
	for {
		if k == other {
			return true
		}
		if k == KindExpr {
			return false
		}
		k = k.Parent()
	}
}

// IsTerminal returns true if nodes of that kind have no operands.
func (k Kind) IsTerminal() bool {
	return k.Is(KindTerminal)
}
