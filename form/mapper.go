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

package form

import (
	"context"
	"sync"

	"github.com/gx-org/varform/expr"
	"github.com/gx-org/varform/expr/exprerr"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"
)

type (
	// Option of the integrand mapper.
	Option interface {
		apply(*mapConfig)
	}

	optionFunc func(*mapConfig)

	mapConfig struct {
		ctx     context.Context
		logger  log.FieldLogger
		workers int
	}
)

func (f optionFunc) apply(cfg *mapConfig) { f(cfg) }

// WithWorkers sets the maximum number of integrands mapped concurrently.
func WithWorkers(n int) Option {
	return optionFunc(func(cfg *mapConfig) {
		if n > 0 {
			cfg.workers = n
		}
	})
}

// WithLogger sets the logger reporting the progress of the mapper.
func WithLogger(logger log.FieldLogger) Option {
	return optionFunc(func(cfg *mapConfig) {
		if logger != nil {
			cfg.logger = logger
		}
	})
}

// WithContext sets a context to cancel the scheduling of integrands.
func WithContext(ctx context.Context) Option {
	return optionFunc(func(cfg *mapConfig) {
		cfg.ctx = ctx
	})
}

// Mapper transforms an integrand.
type Mapper func(*expr.Expr) (*expr.Expr, error)

type asyncErrors struct {
	locker sync.Mutex
	errs   error
}

func (ae *asyncErrors) add(err error) {
	ae.locker.Lock()
	defer ae.locker.Unlock()
	ae.errs = multierr.Append(ae.errs, err)
}

func (ae *asyncErrors) errors() error {
	ae.locker.Lock()
	defer ae.locker.Unlock()
	return ae.errs
}

// MapIntegrands applies a mapper to the integrand of every integral of a form.
// Integrals whose integrand becomes zero are removed from the returned form.
// Errors of all the integrals are reported together.
func MapIntegrands(f *Form, mapper Mapper, opts ...Option) (*Form, error) {
	cfg := &mapConfig{
		ctx:     context.Background(),
		logger:  log.StandardLogger(),
		workers: 1,
	}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	mapped := make([]*Integral, len(f.integrals))
	sem := semaphore.NewWeighted(int64(cfg.workers))
	var wg sync.WaitGroup
	var errs asyncErrors
	for i, itg := range f.integrals {
		if err := sem.Acquire(cfg.ctx, 1); err != nil {
			errs.add(errors.Wrapf(err, "cannot schedule integral %d over %s", i, itg.measure))
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			logger := cfg.logger.WithFields(log.Fields{
				"integral": i,
				"measure":  itg.measure.String(),
			})
			logger.Debug("mapping integrand")
			integrand, err := mapper(itg.integrand)
			if err != nil {
				errs.add(errors.WithMessagef(err, "integral %d over %s", i, itg.measure))
				return
			}
			if !integrand.IsTrueScalar() {
				errs.add(exprerr.Errorf(exprerr.ErrShape, "integral %d over %s: mapped integrand %s is not a scalar", i, itg.measure, integrand))
				return
			}
			mapped[i] = itg.WithIntegrand(integrand)
		}()
	}
	wg.Wait()
	if err := errs.errors(); err != nil {
		return nil, err
	}
	var nonZero []*Integral
	for i, itg := range mapped {
		if itg.integrand.IsZero() {
			cfg.logger.WithField("integral", i).Debug("dropping zero integral")
			continue
		}
		nonZero = append(nonZero, itg)
	}
	return New(nonZero...), nil
}
