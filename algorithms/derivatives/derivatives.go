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

// Package derivatives computes the derivatives of expressions.
//
// Apply replaces every derivative node of an expression graph (Grad,
// NablaGrad, Div, Curl, ReferenceGrad, VariableDerivative and
// CoefficientDerivative) with an expression computing the derivative.
// Derivatives are propagated through the operands of a derivative node by a
// rule set specialized for the derivative operator: the rule set maps every
// node of the operand to its derivative, from the terminals up to the
// operand itself. Gradients of terminals, such as Grad(u) for a
// coefficient u, are kept in the result.
//
// Nested derivatives are computed from the innermost to the outermost.
package derivatives

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	vffmt "github.com/gx-org/varform/base/fmt"
	"github.com/gx-org/varform/corealg/mapdag"
	"github.com/gx-org/varform/corealg/multifunc"
	"github.com/gx-org/varform/expr"
	"github.com/gx-org/varform/expr/exprerr"
	"github.com/gx-org/varform/form"
)

// Apply computes all the derivatives in an expression.
func Apply(e *expr.Expr, opts ...Option) (*expr.Expr, error) {
	return newConfig(opts).apply(e)
}

// ApplyForm computes all the derivatives in the integrands of a form.
// Integrands are processed independently of each other.
func ApplyForm(f *form.Form, opts ...Option) (*form.Form, error) {
	cfg := newConfig(opts)
	return form.MapIntegrands(f, cfg.apply,
		form.WithWorkers(cfg.workers),
		form.WithLogger(cfg.logger),
	)
}

func (cfg *config) apply(e *expr.Expr) (*expr.Expr, error) {
	return mapdag.Map(newDispatcher(cfg), e)
}

// dispatcher finds the derivative nodes of an expression and applies
// the rule set of each derivative operator to its operand.
type dispatcher struct {
	*multifunc.Function
	cfg *config
}

func newDispatcher(cfg *config) *dispatcher {
	d := &dispatcher{
		Function: multifunc.New("derivative dispatcher"),
		cfg:      cfg,
	}
	f := d.Function
	f.Handle(multifunc.ReuseIfUntouched, expr.KindExpr)
	f.HandleCutoff(multifunc.Identity, expr.KindTerminal)
	f.HandleCutoff(f.Derivative, expr.KindDerivative)
	f.Handle(d.grad, expr.KindGrad)
	f.Handle(d.nablaGrad, expr.KindNablaGrad)
	f.Handle(d.div, expr.KindDiv)
	f.Handle(d.curl, expr.KindCurl)
	f.Handle(d.referenceGrad, expr.KindReferenceGrad)
	f.Handle(d.variableDerivative, expr.KindVariableDerivative)
	f.Handle(d.coefficientDerivative, expr.KindCoefficientDerivative)
	f.Handle(d.indexed, expr.KindIndexed)
	return d
}

// rules is a rule set computing the derivative of expressions.
type rules interface {
	mapdag.Function
	Name() string
}

// differentiate maps the operand of a derivative node with a rule set.
func (d *dispatcher) differentiate(rs rules, o, op *expr.Expr) *expr.Expr {
	logger := d.cfg.logger.WithFields(log.Fields{
		"rules": rs.Name(),
		"shape": fmt.Sprint(o.Shape()),
	})
	logger.Debugf("differentiating %s", op.Kind())
	pass := mapdag.New(rs)
	res, err := pass.Map(op)
	if err != nil {
		panic(&exprerr.Panic{Err: err})
	}
	stats := pass.Stats()
	logger.WithFields(log.Fields{
		"visited": stats.Visited,
		"reused":  stats.Reused,
	}).Debug("derivative computed")
	if logger.Logger.IsLevelEnabled(log.TraceLevel) {
		logger.Tracef("derivative graph:\n%s", vffmt.Number(expr.Graph(res[0])))
	}
	return res[0]
}

func (d *dispatcher) grad(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	gdim := o.Shape()[o.Rank()-1]
	return d.differentiate(newGradRuleset(d.cfg, gdim), o, ops[0])
}

func (d *dispatcher) nablaGrad(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	gdim := o.Shape()[0]
	return d.differentiate(newNablaGradRuleset(d.cfg, gdim), o, ops[0])
}

func (d *dispatcher) div(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return d.differentiate(newDivRuleset(d.cfg), o, ops[0])
}

func (d *dispatcher) curl(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return d.differentiate(newCurlRuleset(d.cfg), o, ops[0])
}

func (d *dispatcher) referenceGrad(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	tdim := o.Shape()[o.Rank()-1]
	return d.differentiate(newReferenceGradRuleset(d.cfg, tdim), o, ops[0])
}

func (d *dispatcher) variableDerivative(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	return d.differentiate(newVariableRuleset(d.cfg, o.Operand(1)), o, ops[0])
}

func (d *dispatcher) coefficientDerivative(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	rs := newGateauxRuleset(d.cfg, o.Operand(1), o.Operand(2), o.Operand(3))
	return d.differentiate(rs, o, ops[0])
}

func (d *dispatcher) indexed(o *expr.Expr, ops []*expr.Expr) *expr.Expr {
	if ops[0] == o.Operand(0) {
		return o
	}
	return untangleIndexed(ops[0], o.Indices())
}
