// Package layout measures board entities. Dispatcher fans measurement
// requests out to a Provider; Grid is a Provider for fixed-size lanes and cards.
package layout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/evanschultz/dragboard/internal/domain"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownEntity = errors.New("entity is not laid out")

// defaultConcurrency bounds in-flight Provider calls per request.
const defaultConcurrency = 8

// Provider measures the on-screen rectangle of an entity. Results may be stale.
type Provider interface {
	Measure(ctx context.Context, ref domain.EntityRef) (domain.Rect, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, ref domain.EntityRef) (domain.Rect, error)

// Measure calls f.
func (f ProviderFunc) Measure(ctx context.Context, ref domain.EntityRef) (domain.Rect, error) {
	return f(ctx, ref)
}

// DeliverFunc receives one measured rectangle. Implementations hop back onto
// whatever loop owns the board before touching it.
type DeliverFunc func(ref domain.EntityRef, rect domain.Rect)

// Dispatcher runs measurements in the background and delivers each result as
// it arrives. Requests are never cancelled by later ones; the last delivery wins.
type Dispatcher struct {
	provider    Provider
	deliver     DeliverFunc
	concurrency int
	onError     func(error)
	logger      *log.Logger
	base        context.Context
	inflight    sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithConcurrency bounds concurrent Provider calls per request.
func WithConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithErrorHandler receives failures of background requests.
func WithErrorHandler(fn func(error)) DispatcherOption {
	return func(d *Dispatcher) {
		d.onError = fn
	}
}

// WithBaseContext sets the context background requests run on. Without it a
// request keeps the caller's values but not its cancellation.
func WithBaseContext(ctx context.Context) DispatcherOption {
	return func(d *Dispatcher) {
		d.base = ctx
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *log.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(provider Provider, deliver DeliverFunc, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		provider:    provider,
		deliver:     deliver,
		concurrency: defaultConcurrency,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RequestMeasure starts measuring refs in the background and returns at once.
// The request outlives ctx.
func (d *Dispatcher) RequestMeasure(ctx context.Context, refs []domain.EntityRef) {
	if d == nil || d.provider == nil || len(refs) == 0 {
		return
	}
	refs = append([]domain.EntityRef(nil), refs...)
	if d.base != nil {
		ctx = d.base
	} else {
		ctx = context.WithoutCancel(ctx)
	}
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		if err := d.Measure(ctx, refs); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				d.logger.Debug("layout measurement stopped", "refs", len(refs))
				return
			}
			d.logger.Warn("layout measurement failed", "refs", len(refs), "err", err)
			if d.onError != nil {
				d.onError(err)
			}
		}
	}()
}

// Measure measures refs and delivers every successful result before returning.
// Refs the provider no longer knows are skipped. The first failure is
// returned; other results are still delivered.
func (d *Dispatcher) Measure(ctx context.Context, refs []domain.EntityRef) error {
	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for _, ref := range refs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rect, err := d.provider.Measure(ctx, ref)
			if errors.Is(err, ErrUnknownEntity) {
				d.logger.Debug("measurement target gone", "ref", ref.String())
				return nil
			}
			if err != nil {
				return fmt.Errorf("measure %s: %w", ref, err)
			}
			if d.deliver != nil {
				d.deliver(ref, rect)
			}
			return nil
		})
	}
	return g.Wait()
}

// Wait blocks until every background request has finished delivering.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}
