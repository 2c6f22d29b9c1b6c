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

package derivatives

import (
	log "github.com/sirupsen/logrus"
)

// Option configures the computation of derivatives.
type Option interface {
	apply(*config)
}

type config struct {
	conditionalWorkaround bool
	logger                log.FieldLogger
	workers               int
}

func newConfig(opts []Option) *config {
	cfg := &config{
		logger:  log.StandardLogger(),
		workers: 1,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}

type conditionalWorkaround bool

func (o conditionalWorkaround) apply(cfg *config) {
	cfg.conditionalWorkaround = bool(o)
}

// WithConditionalWorkaround selects how the derivative of a conditional is written.
// When enabled, conditional(c, t, f) is differentiated as dc*dt + (1-dc)*df
// where dc is conditional(c, 1, 0), keeping the derivatives out of the
// conditional. When disabled (the default), the derivative is
// conditional(c, dt, df).
func WithConditionalWorkaround(enabled bool) Option {
	return conditionalWorkaround(enabled)
}

type loggerOption struct {
	logger log.FieldLogger
}

func (o loggerOption) apply(cfg *config) {
	cfg.logger = o.logger
}

// WithLogger sets the logger used to report the rule sets being applied.
// The standard logrus logger is used by default.
func WithLogger(logger log.FieldLogger) Option {
	return loggerOption{logger: logger}
}

type workersOption int

func (o workersOption) apply(cfg *config) {
	cfg.workers = int(o)
}

// WithWorkers sets the maximum number of integrands of a form
// differentiated concurrently by ApplyForm.
func WithWorkers(n int) Option {
	return workersOption(n)
}
