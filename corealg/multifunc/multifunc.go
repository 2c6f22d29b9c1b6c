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

// Package multifunc dispatches expression nodes to handlers given their kind.
//
// Handlers are registered for concrete or abstract kinds. A node whose kind
// has no handler is dispatched to the handler of the closest ancestor of its
// kind in the kind hierarchy. The root kind is handled by Missing, which
// reports an error naming the kind: a function never silently ignores a
// node it does not know about.
package multifunc

import (
	"slices"

	"golang.org/x/exp/maps"

	"github.com/gx-org/varform/expr"
	"github.com/gx-org/varform/expr/exprerr"
)

type (
	// Handler transforms a node given the results of its operands.
	Handler func(o *expr.Expr, ops []*expr.Expr) *expr.Expr

	// CutoffHandler transforms a node without transforming its operands first.
	CutoffHandler func(o *expr.Expr) *expr.Expr
)

type rule struct {
	handler Handler
	cutoff  bool
}

// Function maps node kinds to handlers.
type Function struct {
	name  string
	rules map[expr.Kind]rule
}

// New returns a function with no handler other than Missing for the root kind.
// The name is used in error messages.
func New(name string) *Function {
	f := &Function{
		name:  name,
		rules: make(map[expr.Kind]rule),
	}
	f.HandleCutoff(f.Missing, expr.KindExpr)
	return f
}

// Name of the function.
func (f *Function) Name() string {
	return f.name
}

// Handle registers a handler for some kinds.
// Operands are transformed before the handler is called.
func (f *Function) Handle(h Handler, kinds ...expr.Kind) {
	for _, kind := range kinds {
		f.rules[kind] = rule{handler: h}
	}
}

// HandleCutoff registers a handler for some kinds.
// Operands are not transformed before the handler is called.
func (f *Function) HandleCutoff(h CutoffHandler, kinds ...expr.Kind) {
	for _, kind := range kinds {
		f.rules[kind] = rule{
			handler: func(o *expr.Expr, _ []*expr.Expr) *expr.Expr { return h(o) },
			cutoff:  true,
		}
	}
}

func (f *Function) lookup(kind expr.Kind) rule {
	for {
		if r, ok := f.rules[kind]; ok {
			return r
		}
		kind = kind.Parent()
	}
}

// Handled returns the kinds for which a handler has been registered, sorted.
func (f *Function) Handled() []expr.Kind {
	kinds := maps.Keys(f.rules)
	slices.Sort(kinds)
	return kinds
}

// Cutoff returns true if the operands of a node of a given kind are not
// transformed before its handler is called.
func (f *Function) Cutoff(kind expr.Kind) bool {
	return f.lookup(kind).cutoff
}

// Apply calls the handler of a node.
func (f *Function) Apply(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return f.lookup(o.Kind()).handler(o, ops)
}

// Missing reports a node without any rule: the function is incomplete.
func (f *Function) Missing(o *expr.Expr) *expr.Expr {
	exprerr.Panicf(exprerr.ErrMissingHandler, "%s: missing handler for type %s: has a new type been added?", f.name, o.Kind())
	return nil
}

// Unexpected reports a node which is not expected to reach the function.
func (f *Function) Unexpected(o *expr.Expr) *expr.Expr {
	exprerr.Panicf(exprerr.ErrUnexpectedType, "%s: unexpected type %s", f.name, o.Kind())
	return nil
}

// Override reports a node whose rule must be provided by a specialized function.
func (f *Function) Override(o *expr.Expr) *expr.Expr {
	exprerr.Panicf(exprerr.ErrOverrideRequired, "%s: type %s must be overridden in specialized rule set", f.name, o.Kind())
	return nil
}

// Derivative reports a derivative node which has not been processed.
func (f *Function) Derivative(o *expr.Expr) *expr.Expr {
	exprerr.Panicf(exprerr.ErrNestedDerivative, "%s: unhandled derivative type %s, nested differentiation has failed", f.name, o.Kind())
	return nil
}

// Fixme reports a node whose rule has not been implemented yet.
func (f *Function) Fixme(o *expr.Expr) *expr.Expr {
	exprerr.Panicf(exprerr.ErrUnsupported, "%s: unimplemented handler for type %s", f.name, o.Kind())
	return nil
}

// ReuseIfUntouched reconstructs a node with the results of its operands.
// The node itself is returned if its operands are unchanged.
func ReuseIfUntouched(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return o.Reconstruct(ops...)
}

// Identity returns the node itself.
func Identity(o *expr.Expr) *expr.Expr {
	return o
}
