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

// Package exprerr defines the errors reported when building or transforming expressions.
//
// All errors are fatal for the operation reporting them: symbolic
// transformations have no transient failures. Each error wraps one of the
// sentinel values below so that callers can classify it with errors.Is.
package exprerr

import "github.com/pkg/errors"

var (
	// ErrMissingHandler is reported when a node kind reaches a rule set
	// without any applicable rule. This is always a bug in the rule set.
	ErrMissingHandler = errors.New("missing handler")

	// ErrUnexpectedType is reported when a node kind reaches a rule set
	// which assumes it cannot occur there.
	ErrUnexpectedType = errors.New("unexpected type")

	// ErrOverrideRequired is reported when a rule set does not provide
	// a rule every concrete rule set must provide.
	ErrOverrideRequired = errors.New("rule must be overridden")

	// ErrNestedDerivative is reported when a derivative node has not been
	// handled by a nested differentiation.
	ErrNestedDerivative = errors.New("unhandled derivative")

	// ErrShape is reported when the shape or the free indices of an operand
	// do not satisfy the precondition of an operation.
	ErrShape = errors.New("shape mismatch")

	// ErrUnsupported is reported for well-defined operations which are
	// deliberately not implemented.
	ErrUnsupported = errors.New("not supported")

	// ErrDivisionByZero is reported when an operation divides by a literal zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrStructural is reported when the expression graph is malformed.
	ErrStructural = errors.New("malformed expression graph")

	// ErrInternal is reported when an invariant of the package itself is broken.
	ErrInternal = errors.New("internal error")
)

// Errorf returns an error wrapping a sentinel error with a formatted message.
func Errorf(sentinel error, format string, a ...any) error {
	return errors.Wrapf(sentinel, format, a...)
}

// Panic is the value used to panic when an expression constructor
// receives invalid operands.
type Panic struct {
	Err error
}

func (p *Panic) Error() string {
	return p.Err.Error()
}

// Unwrap returns the error carried by the panic.
func (p *Panic) Unwrap() error {
	return p.Err
}

// Panicf panics with an error wrapping a sentinel error.
func Panicf(sentinel error, format string, a ...any) {
	panic(&Panic{Err: Errorf(sentinel, format, a...)})
}

// Recover converts a panic raised by Panicf into an error stored in err.
// Other panics are propagated. Recover must be called with defer.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	p, ok := r.(*Panic)
	if !ok {
		panic(r)
	}
	*err = p.Err
}

// Try calls f and returns its result, or the error if f panicked with Panicf.
func Try[T any](f func() T) (t T, err error) {
	defer Recover(&err)
	return f(), nil
}
