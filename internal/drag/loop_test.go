package drag

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/evanschultz/dragboard/internal/domain"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop(0, nil)
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(cancel)
	return loop, cancel
}

func TestLoopFeedAppliesSamplesInOrder(t *testing.T) {
	f := newFixture(t, DefaultTuning(0), []string{"a", "r0", "r1", "r2"})
	loop, _ := startLoop(t)

	samples := make(chan Sample)
	go func() {
		defer close(samples)
		for _, s := range []Sample{
			{Kind: SampleBegin, X: 50, Y: 25, Ref: domain.RowRef("r0")},
			{Kind: "bogus"},
			{Kind: SampleMove, X: 50, Y: 125},
			{Kind: SampleEnd},
		} {
			samples <- s
		}
	}()

	var failed []SampleKind
	err := loop.Feed(context.Background(), f.s, samples, func(s Sample, err error) {
		if !errors.Is(err, domain.ErrInvalidDragKind) {
			t.Errorf("unexpected sample error %v", err)
		}
		failed = append(failed, s.Kind)
	})
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}
	if !slices.Equal(failed, []SampleKind{"bogus"}) {
		t.Fatalf("unexpected failed samples %v", failed)
	}
	if len(f.ended) != 1 || f.ended[0].To.Index != 2 {
		t.Fatalf("unexpected drag results %#v", f.ended)
	}
	if got := rowIDs(f.b, "a"); !slices.Equal(got, []string{"r1", "r2", "r0"}) {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestLoopDoReturnsTaskError(t *testing.T) {
	loop, _ := startLoop(t)
	boom := errors.New("boom")
	if err := loop.Do(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected task error, got %v", err)
	}
	ran := false
	if !loop.Post(func() { ran = true }) {
		t.Fatal("expected post accepted")
	}
	if err := loop.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if !ran {
		t.Fatal("expected posted task to run before flush returned")
	}
}

func TestLoopStopsWithContext(t *testing.T) {
	loop, cancel := startLoop(t)
	cancel()
	<-loop.Done()
	if loop.Post(func() {}) {
		t.Fatal("expected post rejected after stop")
	}
	if err := loop.Do(context.Background(), func() error { return nil }); !errors.Is(err, ErrLoopStopped) {
		t.Fatalf("expected ErrLoopStopped, got %v", err)
	}
}

func TestHandleRejectsUnknownBeginKind(t *testing.T) {
	f := newFixture(t, DefaultTuning(0), []string{"a", "r0"})
	_, err := f.s.Handle(context.Background(), Sample{Kind: SampleBegin, Ref: domain.EntityRef{Kind: "board", ID: "x"}})
	if !errors.Is(err, domain.ErrInvalidDragKind) {
		t.Fatalf("expected ErrInvalidDragKind, got %v", err)
	}
	res, err := f.s.Handle(context.Background(), Sample{Kind: SampleBegin, X: 5, Y: 5, Ref: domain.ColumnRef("a")})
	if err != nil || res.ItemID != "" {
		t.Fatalf("unexpected begin result %#v %v", res, err)
	}
	res, err = f.s.Handle(context.Background(), Sample{Kind: SampleCancel})
	if err != nil || res.Kind != domain.DragColumn {
		t.Fatalf("unexpected cancel result %#v %v", res, err)
	}
}
