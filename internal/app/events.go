package app

import (
	"slices"

	"github.com/evanschultz/dragboard/internal/domain"
)

// EventKind names a service notification.
type EventKind string

// EventStructure and related constants name what changed.
const (
	EventStructure    EventKind = "structure"
	EventColumnReload EventKind = "column_reload"
	EventScroll       EventKind = "scroll"
	EventDragStart    EventKind = "drag_start"
	EventDragEnd      EventKind = "drag_end"
	EventError        EventKind = "error"
)

// Event carries a copy of whatever a renderer needs for the change, so
// subscribers never reach back into the board.
type Event struct {
	Kind     EventKind
	ColumnID string
	Column   domain.Column
	Columns  []domain.Column
	Offset   float64
	Hover    domain.HoverItem
	Drag     domain.DragResult
	Err      error
}

// Subscribe registers fn for every event. Callbacks run on the service loop
// and must not call back into the service synchronously.
func (s *Service) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Service) emit(ev Event) {
	s.subsMu.Lock()
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subsMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
