// Package tui renders the board in a terminal and drives drag sessions from
// mouse press, motion and release events.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/evanschultz/dragboard/internal/app"
	"github.com/evanschultz/dragboard/internal/domain"
	"github.com/evanschultz/dragboard/internal/drag"
)

// Service is the board surface the terminal UI drives.
type Service interface {
	Columns(context.Context) ([]domain.Column, error)
	BoardScroll(context.Context) (float64, float64, error)
	Hover(context.Context) (drag.HoverView, error)
	AddRow(context.Context, app.AddRowInput) (domain.Row, error)
	DeleteRow(context.Context, string) error
	MoveRow(context.Context, string, string, int) (domain.Row, error)
	MoveColumn(context.Context, string, int) (domain.Column, error)
	BeginDrag(context.Context, domain.EntityRef, domain.Point) error
	PostSample(drag.Sample) bool
	EndDrag(context.Context) (domain.DragResult, error)
	CancelDrag(context.Context) (domain.DragResult, error)
	Resize(context.Context, float64, float64) error
	SetTuning(context.Context, drag.Tuning) error
	Tuning(context.Context) (drag.Tuning, error)
	ScrollBoard(context.Context, float64) (float64, error)
	Settle(context.Context) error
	Subscribe(func(app.Event)) func()
}

// requestTimeout bounds one service call issued from a command.
const requestTimeout = 5 * time.Second

// eventBuffer sizes the service event queue. Every event triggers a full
// reload, so dropped events only cost a stale frame.
const eventBuffer = 64

// inputMode represents a selectable mode.
type inputMode int

const (
	modeNone inputMode = iota
	modeAddRow
)

// pendingPress is a press waiting for its long-press delay.
type pendingPress struct {
	seq uint64
	ref domain.EntityRef
	at  domain.Point
}

// Model is the bubbletea model of the board.
type Model struct {
	svc       Service
	keys      keyMap
	help      help.Model
	cards     CardConfig
	tuningFor func(float64) drag.Tuning
	tuning    drag.Tuning
	copyText  func(string) error
	logger    *log.Logger
	markdown  *markdownRenderer

	events      chan app.Event
	unsubscribe func()

	ready  bool
	width  int
	height int
	err    error
	status string

	columns        []domain.Column
	scroll         float64
	maxScroll      float64
	hover          drag.HoverView
	selectedColumn int
	selectedRow    int
	focusRowID     string
	focusColumnID  string
	showDetails    bool

	mode  inputMode
	input textinput.Model

	press    *pendingPress
	pressSeq uint64
	dragging bool
	pointer  domain.Point
}

// boardLoadedMsg carries one consistent read of the board.
type boardLoadedMsg struct {
	columns   []domain.Column
	scroll    float64
	maxScroll float64
	hover     drag.HoverView
	err       error
}

// serviceEventMsg wraps one service notification.
type serviceEventMsg struct {
	event app.Event
}

// longPressMsg fires when a press has been held for the pickup delay.
type longPressMsg struct {
	seq uint64
}

type dragBeganMsg struct {
	ref domain.EntityRef
	err error
}

type dragEndedMsg struct {
	result    domain.DragResult
	cancelled bool
	err       error
}

type hoverMsg struct {
	hover drag.HoverView
	err   error
}

type resizedMsg struct {
	tuning drag.Tuning
	err    error
}

// actionMsg reports one finished board action; the board reloads after it.
type actionMsg struct {
	status        string
	focusRowID    string
	focusColumnID string
	err           error
}

// TuningReloadedMsg swaps the tuning source, typically after the config file changed.
type TuningReloadedMsg struct {
	Tuning func(viewportWidth float64) drag.Tuning
}

// NewModel constructs the board model and subscribes it to svc events.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:      svc,
		keys:     newKeyMap(),
		help:     h,
		cards:    DefaultCardConfig(),
		copyText: clipboard.WriteAll,
		logger:   log.New(io.Discard),
		markdown: &markdownRenderer{},
		status:   "loading...",
		input:    newRowInput(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	events := make(chan app.Event, eventBuffer)
	m.events = events
	m.unsubscribe = svc.Subscribe(func(ev app.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	return m
}

func newRowInput() textinput.Model {
	in := textinput.New()
	in.Prompt = "new row: "
	in.Placeholder = "title"
	in.CharLimit = 200
	return in
}

// Init loads the board and starts listening for service events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadBoard, m.waitForEvent)
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, m.resize(msg.Width, msg.Height)

	case resizedMsg:
		if msg.err != nil {
			m.status = "resize failed: " + msg.err.Error()
			return m, nil
		}
		m.tuning = msg.tuning
		return m, m.loadBoard

	case TuningReloadedMsg:
		if msg.Tuning != nil {
			m.tuningFor = msg.Tuning
		}
		m.status = "config reloaded"
		return m, m.resize(m.width, m.height)

	case boardLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.columns = msg.columns
		m.scroll = msg.scroll
		m.maxScroll = msg.maxScroll
		m.hover = msg.hover
		m.applyFocus()
		m.clampSelection()
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case serviceEventMsg:
		if msg.event.Kind == app.EventError && msg.event.Err != nil {
			m.status = "error: " + msg.event.Err.Error()
		}
		return m, tea.Batch(m.loadBoard, m.waitForEvent)

	case longPressMsg:
		if m.press == nil || m.press.seq != msg.seq || m.dragging {
			return m, nil
		}
		p := *m.press
		m.press = nil
		return m, m.beginDrag(p)

	case dragBeganMsg:
		if isBusy(msg.err) {
			m.status = "another drag owns the board"
			return m, nil
		}
		if msg.err != nil {
			m.status = "drag: " + msg.err.Error()
			return m, nil
		}
		m.dragging = true
		m.status = "dragging " + string(msg.ref.Kind)
		return m, m.loadHover

	case hoverMsg:
		if msg.err == nil {
			m.hover = msg.hover
		}
		return m, nil

	case dragEndedMsg:
		m.dragging = false
		m.hover = drag.HoverView{}
		if msg.err != nil {
			m.status = "drag: " + msg.err.Error()
			return m, m.loadBoard
		}
		m.status = describeResult(msg.result, msg.cancelled)
		switch msg.result.Kind {
		case domain.DragRow:
			m.focusRowID = msg.result.ItemID
		case domain.DragColumn:
			m.focusColumnID = msg.result.ItemID
		}
		return m, m.loadBoard

	case actionMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.focusRowID != "" {
			m.focusRowID = msg.focusRowID
		}
		if msg.focusColumnID != "" {
			m.focusColumnID = msg.focusColumnID
		}
		return m, m.loadBoard

	case tea.KeyPressMsg:
		if m.mode == modeAddRow {
			return m.handleAddRowKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		if m.mode == modeAddRow {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

// loadBoard reads columns, scroll and hover once pending measurements have landed.
func (m Model) loadBoard() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := m.svc.Settle(ctx); err != nil {
		return boardLoadedMsg{err: err}
	}
	columns, err := m.svc.Columns(ctx)
	if err != nil {
		return boardLoadedMsg{err: err}
	}
	scroll, maxScroll, err := m.svc.BoardScroll(ctx)
	if err != nil {
		return boardLoadedMsg{err: err}
	}
	hover, err := m.svc.Hover(ctx)
	if err != nil {
		return boardLoadedMsg{err: err}
	}
	return boardLoadedMsg{columns: columns, scroll: scroll, maxScroll: maxScroll, hover: hover}
}

// waitForEvent blocks until the service emits.
func (m Model) waitForEvent() tea.Msg {
	ev, ok := <-m.events
	if !ok {
		return nil
	}
	return serviceEventMsg{event: ev}
}

func (m Model) loadHover() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	hover, err := m.svc.Hover(ctx)
	return hoverMsg{hover: hover, err: err}
}

// resize pushes the board viewport and cell tuning for a width x height terminal.
func (m Model) resize(width, height int) tea.Cmd {
	if width <= 0 || height <= 0 {
		return nil
	}
	grid := m.cards.GridConfig(width, height)
	svc, tuningFor := m.svc, m.tuningFor
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := svc.Resize(ctx, grid.ViewportWidth, grid.ViewportHeight); err != nil {
			return resizedMsg{err: err}
		}
		if tuningFor != nil {
			if err := svc.SetTuning(ctx, tuningFor(grid.ViewportWidth)); err != nil {
				return resizedMsg{err: err}
			}
		}
		t, err := svc.Tuning(ctx)
		return resizedMsg{tuning: t, err: err}
	}
}

func (m Model) beginDrag(p pendingPress) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return dragBeganMsg{ref: p.ref, err: svc.BeginDrag(ctx, p.ref, p.at)}
	}
}

func (m Model) endDrag(cancelled bool) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var (
			res domain.DragResult
			err error
		)
		if cancelled {
			res, err = svc.CancelDrag(ctx)
		} else {
			res, err = svc.EndDrag(ctx)
		}
		return dragEndedMsg{result: res, cancelled: cancelled, err: err}
	}
}

// action runs fn against the service and reports the outcome as an actionMsg.
func (m Model) action(fn func(ctx context.Context, svc Service) actionMsg) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return fn(ctx, svc)
	}
}

// handleNormalModeKey handles keys while no prompt is open.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.cancel):
		switch {
		case m.dragging:
			return m, m.endDrag(true)
		case m.help.ShowAll:
			m.help.ShowAll = false
		case m.showDetails:
			m.showDetails = false
		}
		m.press = nil
		return m, nil
	case m.dragging:
		return m, nil
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadBoard
	case key.Matches(msg, m.keys.focusLeft):
		m.selectedColumn--
		m.clampSelection()
		return m, m.revealSelectedColumn()
	case key.Matches(msg, m.keys.focusRight):
		m.selectedColumn++
		m.clampSelection()
		return m, m.revealSelectedColumn()
	case key.Matches(msg, m.keys.focusUp):
		m.selectedRow--
		m.clampSelection()
		return m, nil
	case key.Matches(msg, m.keys.focusDown):
		m.selectedRow++
		m.clampSelection()
		return m, nil
	case key.Matches(msg, m.keys.scrollLeft):
		return m, m.scrollBoardBy(-m.columnStride())
	case key.Matches(msg, m.keys.scrollRight):
		return m, m.scrollBoardBy(m.columnStride())
	case key.Matches(msg, m.keys.details):
		if _, ok := m.selectedRowView(); ok {
			m.showDetails = !m.showDetails
		}
		return m, nil
	case key.Matches(msg, m.keys.addRow):
		col, ok := m.selectedColumnView()
		if !ok {
			m.status = "no column selected"
			return m, nil
		}
		m.mode = modeAddRow
		m.input.SetValue("")
		m.status = "add row to " + col.Data.Name
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.deleteRow):
		return m.deleteSelectedRow()
	case key.Matches(msg, m.keys.yank):
		return m.yankSelectedRow()
	case key.Matches(msg, m.keys.rowUp):
		return m.moveSelectedRow(0, -1)
	case key.Matches(msg, m.keys.rowDown):
		return m.moveSelectedRow(0, 1)
	case key.Matches(msg, m.keys.moveLeft):
		return m.moveSelectedRow(-1, 0)
	case key.Matches(msg, m.keys.moveRight):
		return m.moveSelectedRow(1, 0)
	case key.Matches(msg, m.keys.columnLeft):
		return m.moveSelectedColumn(-1)
	case key.Matches(msg, m.keys.columnRight):
		return m.moveSelectedColumn(1)
	}
	return m, nil
}

// handleAddRowKey handles keys while the add-row prompt is open.
func (m Model) handleAddRowKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.input.Blur()
		m.status = "ready"
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.input.Value())
		m.mode = modeNone
		m.input.Blur()
		col, ok := m.selectedColumnView()
		if !ok || title == "" {
			m.status = "row title required"
			return m, nil
		}
		columnID := col.ID
		return m, m.action(func(ctx context.Context, svc Service) actionMsg {
			row, err := svc.AddRow(ctx, app.AddRowInput{ColumnID: columnID, Title: title})
			if err != nil {
				return actionMsg{err: fmt.Errorf("add row: %w", err)}
			}
			return actionMsg{status: "added " + row.Data.Title, focusRowID: row.ID}
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) deleteSelectedRow() (tea.Model, tea.Cmd) {
	row, ok := m.selectedRowView()
	if !ok {
		return m, nil
	}
	m.showDetails = false
	rowID, title := row.ID, row.Data.Title
	return m, m.action(func(ctx context.Context, svc Service) actionMsg {
		if err := svc.DeleteRow(ctx, rowID); err != nil {
			return actionMsg{err: fmt.Errorf("delete row: %w", err)}
		}
		return actionMsg{status: "deleted " + title}
	})
}

func (m Model) yankSelectedRow() (tea.Model, tea.Cmd) {
	row, ok := m.selectedRowView()
	if !ok {
		return m, nil
	}
	if err := m.copyText(row.Data.Markdown()); err != nil {
		m.status = "clipboard: " + err.Error()
		return m, nil
	}
	m.status = "copied " + row.Data.Title
	return m, nil
}

// moveSelectedRow moves the selected row dCol columns sideways or dRow slots
// within its column.
func (m Model) moveSelectedRow(dCol, dRow int) (tea.Model, tea.Cmd) {
	row, ok := m.selectedRowView()
	if !ok {
		return m, nil
	}
	targetCol := m.selectedColumn + dCol
	targetIdx := row.Index + dRow
	if targetCol < 0 || targetCol >= len(m.columns) || targetIdx < 0 {
		return m, nil
	}
	dst := m.columns[targetCol]
	if dCol == 0 && targetIdx >= len(dst.Rows) {
		return m, nil
	}
	if dCol != 0 {
		targetIdx = min(row.Index, len(dst.Rows))
	}
	rowID, columnID := row.ID, dst.ID
	return m, m.action(func(ctx context.Context, svc Service) actionMsg {
		moved, err := svc.MoveRow(ctx, rowID, columnID, targetIdx)
		if err != nil {
			return actionMsg{err: fmt.Errorf("move row: %w", err)}
		}
		return actionMsg{status: fmt.Sprintf("moved %s to %d", moved.Data.Title, moved.Index), focusRowID: moved.ID}
	})
}

func (m Model) moveSelectedColumn(delta int) (tea.Model, tea.Cmd) {
	col, ok := m.selectedColumnView()
	if !ok {
		return m, nil
	}
	to := col.Index + delta
	if to < 0 || to >= len(m.columns) {
		return m, nil
	}
	columnID := col.ID
	return m, m.action(func(ctx context.Context, svc Service) actionMsg {
		moved, err := svc.MoveColumn(ctx, columnID, to)
		if err != nil {
			return actionMsg{err: fmt.Errorf("move column: %w", err)}
		}
		return actionMsg{status: fmt.Sprintf("moved %s to %d", moved.Data.Name, moved.Index), focusColumnID: moved.ID}
	})
}

// columnStride is the horizontal distance between two column origins.
func (m Model) columnStride() float64 {
	return float64(max(8, m.cards.ColumnWidth) + columnGap)
}

func (m Model) scrollBoardBy(delta float64) tea.Cmd {
	offset := m.scroll + delta
	return m.action(func(ctx context.Context, svc Service) actionMsg {
		if _, err := svc.ScrollBoard(ctx, offset); err != nil {
			return actionMsg{err: fmt.Errorf("scroll: %w", err)}
		}
		return actionMsg{}
	})
}

// revealSelectedColumn scrolls the board until the selected column is fully visible.
func (m Model) revealSelectedColumn() tea.Cmd {
	col, ok := m.selectedColumnView()
	if !ok || col.Layout == nil || m.width <= 0 {
		return nil
	}
	switch {
	case col.Layout.X < 0:
		return m.scrollBoardBy(col.Layout.X)
	case col.Layout.Right() > float64(m.width):
		return m.scrollBoardBy(col.Layout.Right() - float64(m.width))
	}
	return nil
}

// handleMouseClick selects what was pressed and arms the long-press pickup.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if msg.Button != tea.MouseLeft || m.mode != modeNone || m.help.ShowAll || m.dragging {
		return m, nil
	}
	at := domain.Point{X: float64(msg.X), Y: float64(msg.Y)}
	colIdx, rowIdx, header, ok := m.hitTest(at)
	if !ok {
		m.press = nil
		return m, nil
	}
	m.selectedColumn = colIdx
	col := m.columns[colIdx]
	var ref domain.EntityRef
	switch {
	case header:
		ref = domain.ColumnRef(col.ID)
	case rowIdx >= 0:
		m.selectedRow = rowIdx
		ref = domain.RowRef(col.Rows[rowIdx].ID)
	default:
		m.press = nil
		return m, nil
	}
	m.pressSeq++
	seq := m.pressSeq
	m.press = &pendingPress{seq: seq, ref: ref, at: at}
	m.pointer = at
	kind := drag.StateDraggingRow
	if ref.Kind == domain.EntityColumn {
		kind = drag.StateDraggingColumn
	}
	return m, tea.Tick(m.tuning.Delay(kind), func(time.Time) tea.Msg {
		return longPressMsg{seq: seq}
	})
}

// handleMouseMotion feeds pointer motion to the active drag. Samples are
// posted inline so they reach the service loop in pointer order.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	at := domain.Point{X: float64(msg.X), Y: float64(msg.Y)}
	if m.press != nil && at != m.press.at {
		m.press = nil
	}
	if !m.dragging || at == m.pointer {
		return m, nil
	}
	m.pointer = at
	if !m.svc.PostSample(drag.Sample{Kind: drag.SampleMove, X: at.X, Y: at.Y}) {
		m.logger.Warn("pointer sample dropped", "x", at.X, "y", at.Y)
		return m, nil
	}
	return m, m.loadHover
}

// handleMouseRelease drops an active drag. A release before the long-press
// delay is a plain press: the selection already moved there.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if m.press != nil {
		m.press = nil
		if row, ok := m.selectedRowView(); ok {
			m.status = row.Data.Title
		}
		return m, nil
	}
	if !m.dragging {
		return m, nil
	}
	at := domain.Point{X: float64(msg.X), Y: float64(msg.Y)}
	if at != m.pointer {
		m.pointer = at
		m.svc.PostSample(drag.Sample{Kind: drag.SampleMove, X: at.X, Y: at.Y})
	}
	return m, m.endDrag(false)
}

func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.dragging || m.mode != modeNone {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp, tea.MouseWheelLeft:
		return m, m.scrollBoardBy(-m.columnStride())
	case tea.MouseWheelDown, tea.MouseWheelRight:
		return m, m.scrollBoardBy(m.columnStride())
	}
	return m, nil
}

// hitTest finds the column under at, and either its header or the row under at.
// rowIdx is -1 when at is over empty column body.
func (m Model) hitTest(at domain.Point) (colIdx, rowIdx int, header, ok bool) {
	for ci, col := range m.columns {
		if col.Layout == nil || col.Hidden || !col.Layout.Contains(at) {
			continue
		}
		if at.Y < col.Layout.Y+columnHeaderHeight {
			return ci, -1, true, true
		}
		for ri, row := range col.Rows {
			if row.Layout == nil || row.Hidden || !m.rowVisible(col, row) {
				continue
			}
			if row.Layout.Contains(at) {
				return ci, ri, false, true
			}
		}
		return ci, -1, false, true
	}
	return 0, -1, false, false
}

// rowVisible reports whether the row's card fits inside its column body.
func (m Model) rowVisible(col domain.Column, row domain.Row) bool {
	if col.Layout == nil || row.Layout == nil {
		return false
	}
	top := col.Layout.Y + columnHeaderHeight
	bottom := col.Layout.Bottom() - 1
	return row.Layout.Y >= top && row.Layout.Bottom() <= bottom
}

func (m Model) selectedColumnView() (domain.Column, bool) {
	if m.selectedColumn < 0 || m.selectedColumn >= len(m.columns) {
		return domain.Column{}, false
	}
	return m.columns[m.selectedColumn], true
}

func (m Model) selectedRowView() (domain.Row, bool) {
	col, ok := m.selectedColumnView()
	if !ok || m.selectedRow < 0 || m.selectedRow >= len(col.Rows) {
		return domain.Row{}, false
	}
	return col.Rows[m.selectedRow], true
}

// applyFocus moves the selection onto an entity named by the last action.
func (m *Model) applyFocus() {
	if m.focusColumnID != "" {
		for ci, col := range m.columns {
			if col.ID == m.focusColumnID {
				m.selectedColumn = ci
				break
			}
		}
		m.focusColumnID = ""
	}
	if m.focusRowID != "" {
		for ci, col := range m.columns {
			for ri, row := range col.Rows {
				if row.ID == m.focusRowID {
					m.selectedColumn = ci
					m.selectedRow = ri
				}
			}
		}
		m.focusRowID = ""
	}
}

// clampSelection clamps selections.
func (m *Model) clampSelection() {
	if len(m.columns) == 0 {
		m.selectedColumn = 0
		m.selectedRow = 0
		m.showDetails = false
		return
	}
	m.selectedColumn = clamp(m.selectedColumn, 0, len(m.columns)-1)
	rows := m.columns[m.selectedColumn].Rows
	if len(rows) == 0 {
		m.selectedRow = 0
		m.showDetails = false
		return
	}
	m.selectedRow = clamp(m.selectedRow, 0, len(rows)-1)
}

// describeResult formats a finished drag for the status line.
func describeResult(res domain.DragResult, cancelled bool) string {
	switch {
	case res.ItemID == "":
		return "drag ended"
	case cancelled:
		return fmt.Sprintf("drag cancelled: %s at %d", res.Kind, res.To.Index)
	case !res.Moved():
		return fmt.Sprintf("%s unchanged", res.Kind)
	case res.Kind == domain.DragRow && res.From.ColumnID != res.To.ColumnID:
		return fmt.Sprintf("row moved to column %s at %d", res.To.ColumnID, res.To.Index)
	default:
		return fmt.Sprintf("%s moved %d -> %d", res.Kind, res.From.Index, res.To.Index)
	}
}

// isBusy reports whether err means another drag owns the board.
func isBusy(err error) bool {
	return errors.Is(err, drag.ErrDragInProgress)
}

// clamp clamps v into [minV, maxV].
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
