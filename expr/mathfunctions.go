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

import "math"

var mathFuncs = map[Kind]func(float64) float64{
	KindSqrt: math.Sqrt,
	KindExp:  math.Exp,
	KindLn:   math.Log,
	KindCos:  math.Cos,
	KindSin:  math.Sin,
	KindTan:  math.Tan,
	KindCosh: math.Cosh,
	KindSinh: math.Sinh,
	KindTanh: math.Tanh,
	KindAcos: math.Acos,
	KindAsin: math.Asin,
	KindAtan: math.Atan,
	KindErf:  math.Erf,
}

func mathFunction(kind Kind, f *Expr) *Expr {
	if !f.IsTrueScalar() {
		panicShape("expecting scalar argument to %s but got %s", kind, f)
	}
	if IsScalarValue(f) {
		// Constant arguments are folded unless the result is not a number (e.g. ln(0)).
		if v := mathFuncs[kind](f.value); !math.IsNaN(v) && !math.IsInf(v, 0) {
			return Scalar(v)
		}
	}
	return newExpr(kind, nil, nil, f)
}

// Sqrt returns the square root of f.
func Sqrt(f *Expr) *Expr { return mathFunction(KindSqrt, f) }

// Exp returns the exponential of f.
func Exp(f *Expr) *Expr { return mathFunction(KindExp, f) }

// Ln returns the natural logarithm of f.
func Ln(f *Expr) *Expr { return mathFunction(KindLn, f) }

// Cos returns the cosine of f.
func Cos(f *Expr) *Expr { return mathFunction(KindCos, f) }

// Sin returns the sine of f.
func Sin(f *Expr) *Expr { return mathFunction(KindSin, f) }

// Tan returns the tangent of f.
func Tan(f *Expr) *Expr { return mathFunction(KindTan, f) }

// Cosh returns the hyperbolic cosine of f.
func Cosh(f *Expr) *Expr { return mathFunction(KindCosh, f) }

// Sinh returns the hyperbolic sine of f.
func Sinh(f *Expr) *Expr { return mathFunction(KindSinh, f) }

// Tanh returns the hyperbolic tangent of f.
func Tanh(f *Expr) *Expr { return mathFunction(KindTanh, f) }

// Acos returns the arccosine of f.
func Acos(f *Expr) *Expr { return mathFunction(KindAcos, f) }

// Asin returns the arcsine of f.
func Asin(f *Expr) *Expr { return mathFunction(KindAsin, f) }

// Atan returns the arctangent of f.
func Atan(f *Expr) *Expr { return mathFunction(KindAtan, f) }

// Erf returns the error function of f.
func Erf(f *Expr) *Expr { return mathFunction(KindErf, f) }

// Atan2 returns the arctangent of f1/f2 using the signs of both to find the quadrant.
func Atan2(f1, f2 *Expr) *Expr {
	if !f1.IsTrueScalar() || !f2.IsTrueScalar() {
		panicShape("expecting scalar arguments to atan_2 but got %s and %s", f1, f2)
	}
	if IsScalarValue(f1) && IsScalarValue(f2) {
		return Scalar(math.Atan2(f1.value, f2.value))
	}
	return newExpr(KindAtan2, nil, nil, f1, f2)
}

func besselFunction(kind Kind, nu, f *Expr) *Expr {
	if !nu.IsTrueScalar() {
		panicShape("expecting scalar order for %s but got %s", kind, nu)
	}
	if !f.IsTrueScalar() {
		panicShape("expecting scalar argument to %s but got %s", kind, f)
	}
	return newExpr(kind, nil, nil, nu, f)
}

// BesselJ returns the Bessel function of the first kind J_nu(f).
func BesselJ(nu, f *Expr) *Expr { return besselFunction(KindBesselJ, nu, f) }

// BesselY returns the Bessel function of the second kind Y_nu(f).
func BesselY(nu, f *Expr) *Expr { return besselFunction(KindBesselY, nu, f) }

// BesselI returns the modified Bessel function of the first kind I_nu(f).
func BesselI(nu, f *Expr) *Expr { return besselFunction(KindBesselI, nu, f) }

// BesselK returns the modified Bessel function of the second kind K_nu(f).
func BesselK(nu, f *Expr) *Expr { return besselFunction(KindBesselK, nu, f) }
