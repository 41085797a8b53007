package drag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/evanschultz/dragboard/internal/domain"
)

var ErrLoopStopped = errors.New("loop stopped")

// defaultQueue is the task buffer of a Loop.
const defaultQueue = 256

// Loop runs tasks one at a time on a single goroutine. Everything that touches
// a Board or Session from concurrent code goes through it.
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	once   sync.Once
	logger *log.Logger
}

// NewLoop constructs a loop with a task buffer of size queue.
func NewLoop(queue int, logger *log.Logger) *Loop {
	if queue <= 0 {
		queue = defaultQueue
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Loop{
		tasks:  make(chan func(), queue),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run executes tasks until ctx is done. Call it once.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post enqueues fn without waiting for it. Tasks run in posting order.
// It reports false when the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for its result. Never call it from a loop task.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	task := func() { errc <- fn() }
	select {
	case l.tasks <- task:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-l.done:
		select {
		case err := <-errc:
			return err
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until every task posted before it has run.
func (l *Loop) Flush(ctx context.Context) error {
	return l.Do(ctx, func() error { return nil })
}

// SampleKind names a pointer event.
type SampleKind string

const (
	SampleBegin  SampleKind = "begin"
	SampleMove   SampleKind = "move"
	SampleEnd    SampleKind = "end"
	SampleCancel SampleKind = "cancel"
)

// Sample is one pointer event. Ref is only read by begin samples.
type Sample struct {
	Kind SampleKind       `json:"kind" yaml:"kind"`
	X    float64          `json:"x" yaml:"x"`
	Y    float64          `json:"y" yaml:"y"`
	Ref  domain.EntityRef `json:"ref" yaml:"ref,omitempty"`
}

// Handle applies one sample to s. End and cancel samples return the drag result.
func (s *Session) Handle(ctx context.Context, sample Sample) (domain.DragResult, error) {
	at := domain.Point{X: sample.X, Y: sample.Y}
	switch sample.Kind {
	case SampleBegin:
		switch sample.Ref.Kind {
		case domain.EntityRow:
			return domain.DragResult{}, s.BeginRow(ctx, sample.Ref.ID, at)
		case domain.EntityColumn:
			return domain.DragResult{}, s.BeginColumn(ctx, sample.Ref.ID, at)
		default:
			return domain.DragResult{}, fmt.Errorf("begin %q: %w", sample.Ref.Kind, domain.ErrInvalidDragKind)
		}
	case SampleMove:
		return domain.DragResult{}, s.Track(ctx, sample.X, sample.Y)
	case SampleEnd:
		if sample.X != 0 || sample.Y != 0 {
			if err := s.Track(ctx, sample.X, sample.Y); err != nil && !errors.Is(err, ErrNotDragging) {
				s.logger.Warn("final sample failed", "err", err)
			}
		}
		return s.End()
	case SampleCancel:
		return s.Cancel()
	default:
		return domain.DragResult{}, fmt.Errorf("sample kind %q: %w", sample.Kind, domain.ErrInvalidDragKind)
	}
}

// Feed applies samples to s on the loop, one at a time, until the channel
// closes or ctx is done. A failing sample is reported to onError and skipped.
func (l *Loop) Feed(ctx context.Context, s *Session, samples <-chan Sample, onError func(Sample, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample, ok := <-samples:
			if !ok {
				return nil
			}
			err := l.Do(ctx, func() error {
				_, err := s.Handle(ctx, sample)
				return err
			})
			if errors.Is(err, ErrLoopStopped) || (err != nil && ctx.Err() != nil) {
				return err
			}
			if err != nil {
				l.logger.Debug("sample skipped", "kind", sample.Kind, "x", sample.X, "y", sample.Y, "err", err)
				if onError != nil {
					onError(sample, err)
				}
			}
		}
	}
}
