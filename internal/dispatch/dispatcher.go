package dispatch

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"afdaudit/internal/infra"
	"afdaudit/internal/metrics"
)

// Dispatcher runs inbound events as independent tasks with bounded
// concurrency. Tasks run on a context detached from the caller so a request
// keeps going after the webhook that delivered it has returned.
type Dispatcher struct {
	group   errgroup.Group
	base    context.Context
	closed  atomic.Bool
	metrics *metrics.Collector
	logger  infra.Logger
}

// New returns a dispatcher allowing at most limit concurrent tasks. A
// non-positive limit means unbounded.
func New(base context.Context, limit int, m *metrics.Collector, logger infra.Logger) *Dispatcher {
	d := &Dispatcher{base: context.WithoutCancel(base), metrics: m, logger: logger}
	if limit > 0 {
		d.group.SetLimit(limit)
	}
	return d
}

// Go schedules fn. It blocks while the concurrency limit is reached and
// reports false once Wait has been called.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) bool {
	if d.closed.Load() {
		d.logger.Warn().Str("task", name).Msg("dispatch: dropped after shutdown")
		return false
	}
	d.group.Go(func() error {
		done := d.metrics.TrackEvent()
		defer done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error().Str("task", name).Interface("panic", r).Msg("dispatch: task panicked")
			}
		}()
		if err := fn(d.base); err != nil {
			d.logger.Error().Err(err).Str("task", name).Msg("dispatch: task failed")
		}
		return nil
	})
	return true
}

// Wait stops accepting tasks and blocks until running ones finish.
func (d *Dispatcher) Wait() {
	d.closed.Store(true)
	_ = d.group.Wait()
}
