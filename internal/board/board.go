// Package board holds the in-memory two-level board: columns, their rows,
// ordering, visibility, measured rectangles and the per-board observer registry.
//
// A Board is not safe for concurrent use. Callers serialize access, normally
// through drag.Loop or a single UI event loop.
package board

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/evanschultz/dragboard/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidIndex  = errors.New("invalid index")
	ErrMissingLayout = errors.New("missing layout")
	ErrSameColumn    = errors.New("source and destination column are the same")
)

type rowHandle int

type columnHandle int

// rowEntry is one arena slot for a row. Handles stay valid for the board's lifetime.
type rowEntry struct {
	id       string
	data     domain.RowData
	columnID string
	hidden   bool
	dead     bool
}

// columnEntry is one arena slot for a column. order is the column's row order
// table; slots holds the rectangle measured for each position in it.
type columnEntry struct {
	id           string
	data         domain.ColumnData
	order        []rowHandle
	slots        []*domain.Rect
	scrollOffset float64
	maxScroll    float64
	hidden       bool
	dead         bool
}

// Board owns columns and rows. Rectangles belong to positions, not identities:
// reordering moves identities between positions and leaves rectangles in place.
type Board struct {
	rows     []rowEntry
	columns  []columnEntry
	rowByID  map[string]rowHandle
	colByID  map[string]columnHandle
	colOrder []columnHandle
	colSlots []*domain.Rect

	boardScroll    float64
	boardMaxScroll float64
	boardMaxKnown  bool

	listeners *registry
	measurer  Measurer
	onOrigin  func(domain.Snapshot)
	idGen     func() string
	logger    *log.Logger
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the debug logger.
func WithLogger(logger *log.Logger) Option {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMeasurer sets the layout measurement capability.
func WithMeasurer(m Measurer) Option {
	return func(b *Board) {
		b.measurer = m
	}
}

// WithOriginalDataHook sets the callback UpdateOriginalData hands the current ordering to.
func WithOriginalDataHook(fn func(domain.Snapshot)) Option {
	return func(b *Board) {
		b.onOrigin = fn
	}
}

// WithIDGenerator sets the id source used when an add omits the id.
func WithIDGenerator(fn func() string) Option {
	return func(b *Board) {
		if fn != nil {
			b.idGen = fn
		}
	}
}

// New builds a board from an ordered snapshot.
func New(snap domain.Snapshot, opts ...Option) (*Board, error) {
	b := &Board{
		listeners: newRegistry(),
		idGen:     uuid.NewString,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.load(snap); err != nil {
		return nil, err
	}
	return b, nil
}

// load resets storage from snap. Listeners are kept.
func (b *Board) load(snap domain.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("invalid snapshot: %w", err)
	}
	b.rows = nil
	b.columns = nil
	b.rowByID = map[string]rowHandle{}
	b.colByID = map[string]columnHandle{}
	b.colOrder = nil
	b.colSlots = nil
	for _, cs := range snap.Columns {
		data, _ := domain.NewColumnData(cs.Data.Name, cs.Data.WIPLimit)
		ch := b.newColumn(strings.TrimSpace(cs.ID), data)
		for _, rs := range cs.Rows {
			rowData, _ := domain.NewRowData(rs.Data.Title, rs.Data.Description, rs.Data.Labels)
			b.appendRow(ch, b.newRow(strings.TrimSpace(rs.ID), rowData))
		}
	}
	return nil
}

// Replace swaps the board contents for snap and tells every observer.
func (b *Board) Replace(snap domain.Snapshot) error {
	previous := b.ColumnIDs()
	if err := b.load(snap); err != nil {
		return err
	}
	b.fireStructure()
	for _, id := range previous {
		b.Notify(id, EventReload)
	}
	for _, id := range b.ColumnIDs() {
		if !slices.Contains(previous, id) {
			b.Notify(id, EventReload)
		}
	}
	return nil
}

func (b *Board) newColumn(id string, data domain.ColumnData) columnHandle {
	h := columnHandle(len(b.columns))
	b.columns = append(b.columns, columnEntry{id: id, data: data})
	b.colByID[id] = h
	b.colOrder = append(b.colOrder, h)
	b.colSlots = append(b.colSlots, nil)
	return h
}

func (b *Board) newRow(id string, data domain.RowData) rowHandle {
	h := rowHandle(len(b.rows))
	b.rows = append(b.rows, rowEntry{id: id, data: data})
	b.rowByID[id] = h
	return h
}

// appendRow places h at the end of column ch; the new slot has no rectangle yet.
func (b *Board) appendRow(ch columnHandle, h rowHandle) {
	col := &b.columns[ch]
	col.order = append(col.order, h)
	col.slots = append(col.slots, nil)
	b.rows[h].columnID = col.id
}

func (b *Board) column(id string) (columnHandle, error) {
	h, ok := b.colByID[strings.TrimSpace(id)]
	if !ok {
		return 0, fmt.Errorf("column %q: %w", id, ErrNotFound)
	}
	return h, nil
}

func (b *Board) row(id string) (rowHandle, error) {
	h, ok := b.rowByID[strings.TrimSpace(id)]
	if !ok {
		return 0, fmt.Errorf("row %q: %w", id, ErrNotFound)
	}
	return h, nil
}

// columnPos returns the board position of ch.
func (b *Board) columnPos(ch columnHandle) int {
	for i, h := range b.colOrder {
		if h == ch {
			return i
		}
	}
	return -1
}

// rowPos returns the owning column and slot of h.
func (b *Board) rowPos(h rowHandle) (columnHandle, int) {
	ch := b.colByID[b.rows[h].columnID]
	for i, rh := range b.columns[ch].order {
		if rh == h {
			return ch, i
		}
	}
	return ch, -1
}

func (b *Board) nextID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		id = strings.TrimSpace(b.idGen())
	}
	if id == "" {
		return "", domain.ErrInvalidID
	}
	_, rowTaken := b.rowByID[id]
	_, colTaken := b.colByID[id]
	if rowTaken || colTaken {
		return "", fmt.Errorf("id %q: %w", id, domain.ErrDuplicateID)
	}
	return id, nil
}

func (b *Board) rowView(ch columnHandle, slot int) domain.Row {
	col := &b.columns[ch]
	e := b.rows[col.order[slot]]
	return domain.Row{
		ID:       e.id,
		Index:    slot,
		ColumnID: col.id,
		Data:     e.data.Clone(),
		Layout:   domain.CloneRect(col.slots[slot]),
		Hidden:   e.hidden,
	}
}

func (b *Board) columnView(pos int) domain.Column {
	ch := b.colOrder[pos]
	col := &b.columns[ch]
	rows := make([]domain.Row, 0, len(col.order))
	for slot := range col.order {
		rows = append(rows, b.rowView(ch, slot))
	}
	return domain.Column{
		ID:              col.id,
		Index:           pos,
		Data:            col.data,
		Rows:            rows,
		Layout:          domain.CloneRect(b.colSlots[pos]),
		ScrollOffset:    col.scrollOffset,
		MaxScrollOffset: col.maxScroll,
		Hidden:          col.hidden,
	}
}

// Columns returns every column in board order.
func (b *Board) Columns() []domain.Column {
	out := make([]domain.Column, 0, len(b.colOrder))
	for pos := range b.colOrder {
		out = append(out, b.columnView(pos))
	}
	return out
}

// ColumnIDs returns column ids in board order.
func (b *Board) ColumnIDs() []string {
	out := make([]string, 0, len(b.colOrder))
	for _, h := range b.colOrder {
		out = append(out, b.columns[h].id)
	}
	return out
}

// Column returns one column view.
func (b *Board) Column(id string) (domain.Column, bool) {
	ch, err := b.column(id)
	if err != nil {
		return domain.Column{}, false
	}
	return b.columnView(b.columnPos(ch)), true
}

// ColumnAt returns the column at a board position.
func (b *Board) ColumnAt(pos int) (domain.Column, bool) {
	if pos < 0 || pos >= len(b.colOrder) {
		return domain.Column{}, false
	}
	return b.columnView(pos), true
}

// Rows returns the rows of one column in order.
func (b *Board) Rows(columnID string) []domain.Row {
	ch, err := b.column(columnID)
	if err != nil {
		return nil
	}
	out := make([]domain.Row, 0, len(b.columns[ch].order))
	for slot := range b.columns[ch].order {
		out = append(out, b.rowView(ch, slot))
	}
	return out
}

// Row returns one row view.
func (b *Board) Row(id string) (domain.Row, bool) {
	h, err := b.row(id)
	if err != nil {
		return domain.Row{}, false
	}
	ch, slot := b.rowPos(h)
	if slot < 0 {
		return domain.Row{}, false
	}
	return b.rowView(ch, slot), true
}

// RowAt returns whatever row currently occupies a slot.
func (b *Board) RowAt(columnID string, slot int) (domain.Row, bool) {
	ch, err := b.column(columnID)
	if err != nil || slot < 0 || slot >= len(b.columns[ch].order) {
		return domain.Row{}, false
	}
	return b.rowView(ch, slot), true
}

// ColumnCount returns the number of columns.
func (b *Board) ColumnCount() int {
	return len(b.colOrder)
}

// RowCount returns the number of rows across all columns.
func (b *Board) RowCount() int {
	total := 0
	for _, h := range b.colOrder {
		total += len(b.columns[h].order)
	}
	return total
}

// Snapshot returns the layout-free ordering of the board.
func (b *Board) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{Columns: make([]domain.ColumnSnapshot, 0, len(b.colOrder))}
	for _, ch := range b.colOrder {
		col := b.columns[ch]
		cs := domain.ColumnSnapshot{ID: col.id, Data: col.data, Rows: make([]domain.RowSnapshot, 0, len(col.order))}
		for _, rh := range col.order {
			cs.Rows = append(cs.Rows, domain.RowSnapshot{ID: b.rows[rh].id, Data: b.rows[rh].data.Clone()})
		}
		snap.Columns = append(snap.Columns, cs)
	}
	return snap
}

// UpdateOriginalData hands the current ordering to the original-data hook.
func (b *Board) UpdateOriginalData() {
	if b.onOrigin == nil {
		return
	}
	b.logger.Debug("original data updated", "columns", len(b.colOrder), "rows", b.RowCount())
	b.onOrigin(b.Snapshot())
}

// SetBoardScroll records the board container scroll state. A negative max keeps the current one.
func (b *Board) SetBoardScroll(offset, maxOffset float64) {
	b.boardScroll = offset
	if maxOffset >= 0 {
		b.boardMaxScroll = maxOffset
		b.boardMaxKnown = true
	}
}

// BoardScroll returns the board container scroll offset and its maximum.
func (b *Board) BoardScroll() (float64, float64) {
	return b.boardScroll, b.boardMaxScroll
}

// BoardScrollLimit returns the board maximum offset and whether a host has published one.
func (b *Board) BoardScrollLimit() (float64, bool) {
	return b.boardMaxScroll, b.boardMaxKnown
}

// SetColumnScroll records one column's scroll state. A negative max keeps the current one.
func (b *Board) SetColumnScroll(columnID string, offset, maxOffset float64) error {
	ch, err := b.column(columnID)
	if err != nil {
		return err
	}
	b.columns[ch].scrollOffset = offset
	if maxOffset >= 0 {
		b.columns[ch].maxScroll = maxOffset
	}
	return nil
}

// Validate checks ordering, ownership and visibility invariants.
func (b *Board) Validate() error {
	if len(b.colSlots) != len(b.colOrder) {
		return fmt.Errorf("column slots %d != columns %d", len(b.colSlots), len(b.colOrder))
	}
	seenRows := map[rowHandle]struct{}{}
	seenCols := map[columnHandle]struct{}{}
	hidden := 0
	for pos, ch := range b.colOrder {
		col := b.columns[ch]
		if col.dead {
			return fmt.Errorf("column position %d holds a deleted column", pos)
		}
		if _, dup := seenCols[ch]; dup {
			return fmt.Errorf("column %q appears twice", col.id)
		}
		seenCols[ch] = struct{}{}
		if b.colByID[col.id] != ch {
			return fmt.Errorf("column %q index out of sync", col.id)
		}
		if col.hidden {
			hidden++
		}
		if len(col.slots) != len(col.order) {
			return fmt.Errorf("column %q slots %d != rows %d", col.id, len(col.slots), len(col.order))
		}
		for slot, rh := range col.order {
			e := b.rows[rh]
			if e.dead {
				return fmt.Errorf("column %q slot %d holds a deleted row", col.id, slot)
			}
			if _, dup := seenRows[rh]; dup {
				return fmt.Errorf("row %q appears twice", e.id)
			}
			seenRows[rh] = struct{}{}
			if e.columnID != col.id {
				return fmt.Errorf("row %q points at column %q but lives in %q", e.id, e.columnID, col.id)
			}
			if e.hidden {
				hidden++
			}
		}
	}
	if len(seenCols) != len(b.colByID) {
		return fmt.Errorf("column index has %d ids for %d columns", len(b.colByID), len(seenCols))
	}
	if len(seenRows) != len(b.rowByID) {
		return fmt.Errorf("row index has %d ids for %d rows", len(b.rowByID), len(seenRows))
	}
	if hidden > 1 {
		return fmt.Errorf("%d hidden entities, want at most 1", hidden)
	}
	return nil
}
