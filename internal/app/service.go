package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/evanschultz/dragboard/internal/board"
	"github.com/evanschultz/dragboard/internal/domain"
	"github.com/evanschultz/dragboard/internal/drag"
	"github.com/evanschultz/dragboard/internal/layout"
	"github.com/google/uuid"
)

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	SeedColumns        []domain.ColumnData
	Tuning             drag.Tuning
	MeasureConcurrency int
	LoopQueue          int
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. The board, session and dispatcher share it.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLayout sets the measurement provider and the scroll controller of the host.
func WithLayout(provider layout.Provider, scroller drag.ScrollController) Option {
	return func(s *Service) {
		s.provider = provider
		s.scroller = scroller
	}
}

// WithGrid uses g as the layout host: it measures, scrolls and follows the board.
func WithGrid(g *layout.Grid) Option {
	return func(s *Service) {
		s.provider = g
		s.scroller = g
		s.grid = g
	}
}

// Service owns one board and its drag session. Every board access runs on the
// service loop; public methods are safe for concurrent use once Start returns.
type Service struct {
	repo   Repository
	idGen  IDGenerator
	clock  Clock
	cfg    ServiceConfig
	logger *log.Logger

	provider layout.Provider
	scroller drag.ScrollController
	grid     *layout.Grid

	runCtx     context.Context
	loop       *drag.Loop
	board      *board.Board
	session    *drag.Session
	dispatcher *layout.Dispatcher

	subsMu  sync.Mutex
	subs    map[uint64]func(Event)
	nextSub uint64
}

// NewService constructs a new value for this package.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig, opts ...Option) *Service {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.Tuning == (drag.Tuning{}) {
		cfg.Tuning = drag.DefaultTuning(0)
	}
	s := &Service{
		repo:   repo,
		idGen:  idGen,
		clock:  clock,
		cfg:    cfg,
		logger: log.New(io.Discard),
		subs:   map[uint64]func(Event){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the board, seeding default columns on first run, and starts the
// service loop. The loop stops when ctx is done.
func (s *Service) Start(ctx context.Context) error {
	if s.loop != nil {
		return ErrAlreadyStarted
	}
	snap, err := s.repo.LoadBoard(ctx)
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	if len(snap.Columns) == 0 && len(s.cfg.SeedColumns) > 0 {
		snap = s.seed()
		if err := s.repo.SaveBoard(ctx, snap); err != nil {
			return fmt.Errorf("save seeded board: %w", err)
		}
		s.logger.Info("seeded board", "columns", len(snap.Columns))
	}

	opts := []board.Option{
		board.WithLogger(s.logger),
		board.WithIDGenerator(s.idGen),
		board.WithOriginalDataHook(s.persistOrigin),
	}
	if s.provider != nil {
		s.dispatcher = layout.NewDispatcher(s.provider, s.deliver,
			layout.WithConcurrency(s.cfg.MeasureConcurrency),
			layout.WithLogger(s.logger),
			layout.WithBaseContext(ctx),
			layout.WithErrorHandler(func(err error) { s.emit(Event{Kind: EventError, Err: err}) }),
		)
		opts = append(opts, board.WithMeasurer(s.dispatcher))
	}
	b, err := board.New(snap, opts...)
	if err != nil {
		return fmt.Errorf("build board: %w", err)
	}

	sessionOpts := []drag.Option{
		drag.WithTuning(s.cfg.Tuning),
		drag.WithLogger(s.logger),
		drag.WithDragStart(s.dragStarted),
		drag.WithDragEnd(s.dragEnded),
	}
	if s.scroller != nil {
		sessionOpts = append(sessionOpts, drag.WithScrollController(scrollRelay{s: s}))
	}
	s.runCtx = ctx
	s.board = b
	s.session = drag.NewSession(b, sessionOpts...)
	s.loop = drag.NewLoop(s.cfg.LoopQueue, s.logger)
	go func() {
		if err := s.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("service loop stopped", "err", err)
		}
	}()
	return s.loop.Do(ctx, func() error {
		s.wire()
		b.MeasureColumnLayouts(ctx)
		return nil
	})
}

// Done is closed once the service loop has stopped.
func (s *Service) Done() <-chan struct{} {
	if s.loop == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return s.loop.Done()
}

func (s *Service) seed() domain.Snapshot {
	snap := domain.Snapshot{Columns: make([]domain.ColumnSnapshot, 0, len(s.cfg.SeedColumns))}
	for _, data := range s.cfg.SeedColumns {
		snap.Columns = append(snap.Columns, domain.ColumnSnapshot{ID: s.idGen(), Data: data})
	}
	return snap
}

// wire connects board observers to service events. Runs on the loop.
func (s *Service) wire() {
	if s.grid != nil {
		s.grid.Attach(s.board)
	}
	var reloads []func()
	rewire := func() {
		for _, unsubscribe := range reloads {
			unsubscribe()
		}
		reloads = reloads[:0]
		for _, id := range s.board.ColumnIDs() {
			reloads = append(reloads, s.board.AddListener(id, board.EventReload, func() {
				if col, ok := s.board.Column(id); ok {
					s.emit(Event{Kind: EventColumnReload, ColumnID: id, Column: col})
				}
			}))
		}
		s.emit(Event{Kind: EventStructure, Columns: s.board.Columns()})
	}
	s.board.OnStructureChange(rewire)
	rewire()
}

// deliver hops a measurement back onto the loop.
func (s *Service) deliver(ref domain.EntityRef, rect domain.Rect) {
	s.loop.Post(func() {
		s.session.ApplyMeasurement(ref, rect)
	})
}

func (s *Service) do(ctx context.Context, fn func() error) error {
	if s.loop == nil {
		return ErrNotStarted
	}
	return s.loop.Do(ctx, fn)
}

// remeasure requests fresh layouts after a structural mutation. Runs on the loop.
func (s *Service) remeasure() {
	s.board.MeasureColumnLayouts(s.runCtx)
}

func (s *Service) save(ctx context.Context) error {
	if err := s.repo.SaveBoard(ctx, s.board.Snapshot()); err != nil {
		return fmt.Errorf("save board: %w", err)
	}
	return nil
}

// persistOrigin stores the board after a drag. Runs on the loop.
func (s *Service) persistOrigin(snap domain.Snapshot) {
	if err := s.repo.SaveBoard(s.runCtx, snap); err != nil {
		s.logger.Error("save board after drag failed", "err", err)
		s.emit(Event{Kind: EventError, Err: fmt.Errorf("save board: %w", err)})
	}
}

func (s *Service) dragStarted(item domain.HoverItem) {
	s.emit(Event{Kind: EventDragStart, Hover: item})
}

// dragEnded records moved drags in the history. Runs on the loop.
func (s *Service) dragEnded(res domain.DragResult) {
	s.emit(Event{Kind: EventDragEnd, Drag: res})
	if !res.Moved() {
		return
	}
	if _, err := s.recordMove(s.runCtx, res); err != nil {
		s.logger.Error("record drag event failed", "item_id", res.ItemID, "err", err)
		s.emit(Event{Kind: EventError, Err: err})
	}
}

func (s *Service) recordMove(ctx context.Context, res domain.DragResult) (domain.DragEvent, error) {
	ev, err := domain.NewDragEvent(res, s.clock())
	if err != nil {
		return domain.DragEvent{}, err
	}
	ev, err = s.repo.AppendDragEvent(ctx, ev)
	if err != nil {
		return domain.DragEvent{}, fmt.Errorf("append drag event: %w", err)
	}
	s.logger.Debug("drag committed", "kind", ev.Kind, "item_id", ev.ItemID, "to_column_id", ev.ToColumnID, "to_index", ev.ToIndex)
	return ev, nil
}

// scrollRelay forwards autoscroll to the host and reports it to subscribers.
type scrollRelay struct {
	s *Service
}

func (r scrollRelay) ScrollTo(ctx context.Context, target drag.ScrollTarget, offset float64, animated bool) error {
	if err := r.s.scroller.ScrollTo(ctx, target, offset, animated); err != nil {
		return err
	}
	r.s.emit(Event{Kind: EventScroll, ColumnID: target.ColumnID, Offset: offset})
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, board.ErrNotFound) && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}

// Columns returns every column with its rows, in board order.
func (s *Service) Columns(ctx context.Context) ([]domain.Column, error) {
	var out []domain.Column
	err := s.do(ctx, func() error {
		out = s.board.Columns()
		return nil
	})
	return out, err
}

// Column returns one column.
func (s *Service) Column(ctx context.Context, columnID string) (domain.Column, error) {
	var out domain.Column
	err := s.do(ctx, func() error {
		col, ok := s.board.Column(columnID)
		if !ok {
			return fmt.Errorf("column %q: %w", columnID, ErrNotFound)
		}
		out = col
		return nil
	})
	return out, err
}

// Row returns one row.
func (s *Service) Row(ctx context.Context, rowID string) (domain.Row, error) {
	var out domain.Row
	err := s.do(ctx, func() error {
		row, ok := s.board.Row(rowID)
		if !ok {
			return fmt.Errorf("row %q: %w", rowID, ErrNotFound)
		}
		out = row
		return nil
	})
	return out, err
}

// BoardScroll returns the board container offset and its maximum.
func (s *Service) BoardScroll(ctx context.Context) (float64, float64, error) {
	var offset, maxOffset float64
	err := s.do(ctx, func() error {
		offset, maxOffset = s.board.BoardScroll()
		return nil
	})
	return offset, maxOffset, err
}

// AddRowInput holds input values for add row operations.
type AddRowInput struct {
	ColumnID    string
	Title       string
	Description string
	Labels      []string
}

// AddRow appends a row to a column.
func (s *Service) AddRow(ctx context.Context, in AddRowInput) (domain.Row, error) {
	data, err := domain.NewRowData(in.Title, in.Description, in.Labels)
	if err != nil {
		return domain.Row{}, err
	}
	var out domain.Row
	err = s.do(ctx, func() error {
		row, err := s.board.AddRow(in.ColumnID, domain.RowInput{Data: data})
		if err != nil {
			return mapErr(err)
		}
		out = row
		s.remeasure()
		return s.save(ctx)
	})
	return out, err
}

// UpdateRow applies patch to a row.
func (s *Service) UpdateRow(ctx context.Context, rowID string, patch domain.RowPatch) (domain.Row, error) {
	var out domain.Row
	err := s.do(ctx, func() error {
		row, err := s.board.UpdateRow(rowID, patch)
		if err != nil {
			return mapErr(err)
		}
		out = row
		return s.save(ctx)
	})
	return out, err
}

// DeleteRow removes a row.
func (s *Service) DeleteRow(ctx context.Context, rowID string) error {
	return s.do(ctx, func() error {
		if err := s.busy(); err != nil {
			return err
		}
		if err := s.board.DeleteRow(rowID); err != nil {
			return mapErr(err)
		}
		s.remeasure()
		return s.save(ctx)
	})
}

// AddColumn appends a column.
func (s *Service) AddColumn(ctx context.Context, name string, wipLimit int) (domain.Column, error) {
	data, err := domain.NewColumnData(name, wipLimit)
	if err != nil {
		return domain.Column{}, err
	}
	var out domain.Column
	err = s.do(ctx, func() error {
		if err := s.busy(); err != nil {
			return err
		}
		col, err := s.board.AddColumn(domain.ColumnInput{Data: data})
		if err != nil {
			return err
		}
		out = col
		s.remeasure()
		return s.save(ctx)
	})
	return out, err
}

// UpdateColumn applies patch to a column.
func (s *Service) UpdateColumn(ctx context.Context, columnID string, patch domain.ColumnPatch) (domain.Column, error) {
	var out domain.Column
	err := s.do(ctx, func() error {
		col, err := s.board.UpdateColumn(columnID, patch)
		if err != nil {
			return mapErr(err)
		}
		out = col
		return s.save(ctx)
	})
	return out, err
}

// DeleteColumn removes a column and its rows.
func (s *Service) DeleteColumn(ctx context.Context, columnID string) error {
	return s.do(ctx, func() error {
		if err := s.busy(); err != nil {
			return err
		}
		if err := s.board.DeleteColumn(columnID); err != nil {
			return mapErr(err)
		}
		s.remeasure()
		return s.save(ctx)
	})
}

// MoveRow places a row at toIndex of toColumnID and records the move.
func (s *Service) MoveRow(ctx context.Context, rowID, toColumnID string, toIndex int) (domain.Row, error) {
	var out domain.Row
	err := s.do(ctx, func() error {
		if err := s.busy(); err != nil {
			return err
		}
		before, ok := s.board.Row(rowID)
		if !ok {
			return fmt.Errorf("row %q: %w", rowID, ErrNotFound)
		}
		if err := s.board.MoveRow(rowID, toColumnID, toIndex); err != nil {
			return mapErr(err)
		}
		out, _ = s.board.Row(rowID)
		s.remeasure()
		if err := s.save(ctx); err != nil {
			return err
		}
		return s.recordProgrammatic(ctx, domain.DragRow, rowID,
			domain.Position{ColumnID: before.ColumnID, Index: before.Index},
			domain.Position{ColumnID: out.ColumnID, Index: out.Index})
	})
	return out, err
}

// MoveColumn places a column at board position toIndex and records the move.
func (s *Service) MoveColumn(ctx context.Context, columnID string, toIndex int) (domain.Column, error) {
	var out domain.Column
	err := s.do(ctx, func() error {
		if err := s.busy(); err != nil {
			return err
		}
		before, ok := s.board.Column(columnID)
		if !ok {
			return fmt.Errorf("column %q: %w", columnID, ErrNotFound)
		}
		if err := s.board.MoveColumn(before.Index, toIndex); err != nil {
			return mapErr(err)
		}
		out, _ = s.board.Column(columnID)
		s.remeasure()
		if err := s.save(ctx); err != nil {
			return err
		}
		return s.recordProgrammatic(ctx, domain.DragColumn, columnID,
			domain.Position{ColumnID: columnID, Index: before.Index},
			domain.Position{ColumnID: columnID, Index: out.Index})
	})
	return out, err
}

// busy rejects structural edits while a pointer drag owns the board.
func (s *Service) busy() error {
	if s.session.State() != drag.StateIdle {
		return drag.ErrDragInProgress
	}
	return nil
}

func (s *Service) recordProgrammatic(ctx context.Context, kind domain.DragKind, id string, from, to domain.Position) error {
	res := domain.DragResult{Kind: kind, ItemID: id, From: from, To: to}
	if !res.Moved() {
		return nil
	}
	_, err := s.recordMove(ctx, res)
	return err
}

// ListDragEvents returns the newest drag commits first.
func (s *Service) ListDragEvents(ctx context.Context, limit int) ([]domain.DragEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListDragEvents(ctx, limit)
}

// BeginDrag picks up a row or column pressed at the given point.
func (s *Service) BeginDrag(ctx context.Context, ref domain.EntityRef, at domain.Point) error {
	_, err := s.HandleSample(ctx, drag.Sample{Kind: drag.SampleBegin, X: at.X, Y: at.Y, Ref: ref})
	return err
}

// Track feeds one pointer position to the active drag.
func (s *Service) Track(ctx context.Context, x, y float64) error {
	_, err := s.HandleSample(ctx, drag.Sample{Kind: drag.SampleMove, X: x, Y: y})
	return err
}

// EndDrag drops the dragged entity.
func (s *Service) EndDrag(ctx context.Context) (domain.DragResult, error) {
	return s.HandleSample(ctx, drag.Sample{Kind: drag.SampleEnd})
}

// CancelDrag stops the active drag.
func (s *Service) CancelDrag(ctx context.Context) (domain.DragResult, error) {
	return s.HandleSample(ctx, drag.Sample{Kind: drag.SampleCancel})
}

// HandleSample applies one pointer sample and waits for it.
func (s *Service) HandleSample(ctx context.Context, sample drag.Sample) (domain.DragResult, error) {
	var res domain.DragResult
	err := s.do(ctx, func() error {
		var err error
		res, err = s.session.Handle(ctx, sample)
		return mapErr(err)
	})
	return res, err
}

// PostSample queues one pointer sample without waiting. Samples run in
// posting order; failures are reported as EventError.
func (s *Service) PostSample(sample drag.Sample) bool {
	if s.loop == nil {
		return false
	}
	return s.loop.Post(func() {
		if _, err := s.session.Handle(s.runCtx, sample); err != nil {
			if sample.Kind == drag.SampleMove && errors.Is(err, drag.ErrNotDragging) {
				return
			}
			s.emit(Event{Kind: EventError, Err: err})
		}
	})
}

// Hover returns the floating preview of the active drag.
func (s *Service) Hover(ctx context.Context) (drag.HoverView, error) {
	var out drag.HoverView
	err := s.do(ctx, func() error {
		out = s.session.Hover()
		return nil
	})
	return out, err
}

// Resize updates the viewport width used by autoscroll and, with a grid host,
// the grid viewport. Layouts are re-measured.
func (s *Service) Resize(ctx context.Context, width, height float64) error {
	return s.do(ctx, func() error {
		if s.grid != nil {
			s.grid.Resize(width, height)
			s.grid.Publish(s.board)
		}
		s.session.SetTuning(s.session.Tuning().Resize(width))
		s.board.MeasureColumnLayouts(ctx)
		return nil
	})
}

// SetTuning replaces drag tuning, keeping the current viewport width.
func (s *Service) SetTuning(ctx context.Context, t drag.Tuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.do(ctx, func() error {
		t.ViewportWidth = s.session.Tuning().ViewportWidth
		s.session.SetTuning(t)
		return nil
	})
}

// Tuning returns the active drag tuning.
func (s *Service) Tuning(ctx context.Context) (drag.Tuning, error) {
	var out drag.Tuning
	err := s.do(ctx, func() error {
		out = s.session.Tuning()
		return nil
	})
	return out, err
}

// ScrollBoard scrolls the board container by hand, outside of a drag.
func (s *Service) ScrollBoard(ctx context.Context, offset float64) (float64, error) {
	err := s.do(ctx, func() error {
		if s.scroller != nil {
			if err := s.scroller.ScrollTo(ctx, drag.ScrollTarget{}, offset, false); err != nil {
				return fmt.Errorf("scroll board: %w", err)
			}
		}
		if s.grid != nil {
			offset = s.grid.BoardScroll()
		}
		s.session.SyncBoardScroll(ctx, offset)
		return nil
	})
	if err == nil {
		s.emit(Event{Kind: EventScroll, Offset: offset})
	}
	return offset, err
}

// Settle waits until outstanding measurements have landed on the board.
func (s *Service) Settle(ctx context.Context) error {
	if s.loop == nil {
		return ErrNotStarted
	}
	if s.dispatcher != nil {
		s.dispatcher.Wait()
	}
	return s.loop.Flush(ctx)
}
