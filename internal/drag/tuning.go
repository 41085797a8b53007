package drag

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Tuning holds the knobs of one drag session. Distances share the host's units.
type Tuning struct {
	ViewportWidth    float64       `toml:"viewport_width"`
	XScrollThreshold float64       `toml:"x_scroll_threshold"`
	YScrollThreshold float64       `toml:"y_scroll_threshold"`
	HorizontalStep   float64       `toml:"horizontal_step"`
	VerticalStep     float64       `toml:"vertical_step"`
	DragSpeedFactor  float64       `toml:"drag_speed_factor"`
	HitThreshold     float64       `toml:"hit_threshold"`
	DelayRow         time.Duration `toml:"delay_row"`
	DelayColumn      time.Duration `toml:"delay_column"`
}

// DefaultTuning derives thresholds and steps from the viewport width.
func DefaultTuning(viewportWidth float64) Tuning {
	return Tuning{
		ViewportWidth:    viewportWidth,
		XScrollThreshold: viewportWidth * 0.15,
		YScrollThreshold: viewportWidth * 0.15,
		HorizontalStep:   viewportWidth * 0.10,
		VerticalStep:     viewportWidth * 0.10,
		DragSpeedFactor:  1,
		HitThreshold:     35,
		DelayRow:         time.Second,
		DelayColumn:      time.Second,
	}
}

// Resize rescales thresholds and steps that were left at their width-relative defaults.
func (t Tuning) Resize(viewportWidth float64) Tuning {
	old := DefaultTuning(t.ViewportWidth)
	next := DefaultTuning(viewportWidth)
	if t.XScrollThreshold == old.XScrollThreshold {
		t.XScrollThreshold = next.XScrollThreshold
	}
	if t.YScrollThreshold == old.YScrollThreshold {
		t.YScrollThreshold = next.YScrollThreshold
	}
	if t.HorizontalStep == old.HorizontalStep {
		t.HorizontalStep = next.HorizontalStep
	}
	if t.VerticalStep == old.VerticalStep {
		t.VerticalStep = next.VerticalStep
	}
	t.ViewportWidth = viewportWidth
	return t
}

// ErrInvalidTuning wraps every tuning validation failure.
var ErrInvalidTuning = errors.New("invalid drag tuning")

// Validate rejects negative distances and a non-positive speed factor.
func (t Tuning) Validate() error {
	switch {
	case t.ViewportWidth < 0:
		return fmt.Errorf("%w: viewport_width must be >= 0", ErrInvalidTuning)
	case t.XScrollThreshold < 0 || t.YScrollThreshold < 0:
		return fmt.Errorf("%w: scroll thresholds must be >= 0", ErrInvalidTuning)
	case t.HorizontalStep < 0 || t.VerticalStep < 0:
		return fmt.Errorf("%w: scroll steps must be >= 0", ErrInvalidTuning)
	case t.DragSpeedFactor <= 0:
		return fmt.Errorf("%w: drag_speed_factor must be positive", ErrInvalidTuning)
	case t.HitThreshold < 0:
		return fmt.Errorf("%w: hit_threshold must be >= 0", ErrInvalidTuning)
	case t.DelayRow < 0 || t.DelayColumn < 0:
		return fmt.Errorf("%w: long-press delays must be >= 0", ErrInvalidTuning)
	}
	return nil
}

// Delay returns the long-press delay that starts a drag of kind.
func (t Tuning) Delay(kind State) time.Duration {
	if kind == StateDraggingColumn {
		return t.DelayColumn
	}
	return t.DelayRow
}

// ScrollTarget names a scroll container. The zero value is the board container.
type ScrollTarget struct {
	ColumnID string
}

// ScrollController moves scroll containers on the host.
type ScrollController interface {
	ScrollTo(ctx context.Context, target ScrollTarget, offset float64, animated bool) error
}

// ScrollFunc adapts a function to ScrollController.
type ScrollFunc func(ctx context.Context, target ScrollTarget, offset float64, animated bool) error

// ScrollTo calls f.
func (f ScrollFunc) ScrollTo(ctx context.Context, target ScrollTarget, offset float64, animated bool) error {
	return f(ctx, target, offset, animated)
}
