package board

import "strings"

// Event names a per-column notification.
type Event string

const (
	// EventReload asks renderers of one column to re-read it.
	EventReload Event = "reload"
)

// structureKey is the registry key of board-level structural observers.
var structureKey = listenerKey{event: "structure"}

type listenerKey struct {
	columnID string
	event    Event
}

type listener struct {
	id uint64
	fn func()
}

// registry maps (column, event) to callbacks in registration order.
type registry struct {
	nextID    uint64
	byKey     map[listenerKey][]listener
	notifying map[listenerKey]bool
	pending   map[listenerKey]bool
}

func newRegistry() *registry {
	return &registry{
		byKey:     map[listenerKey][]listener{},
		notifying: map[listenerKey]bool{},
		pending:   map[listenerKey]bool{},
	}
}

func (r *registry) add(key listenerKey, fn func()) func() {
	if fn == nil {
		return func() {}
	}
	r.nextID++
	id := r.nextID
	r.byKey[key] = append(r.byKey[key], listener{id: id, fn: fn})
	return func() {
		r.remove(key, id)
	}
}

func (r *registry) remove(key listenerKey, id uint64) {
	list := r.byKey[key]
	for i, l := range list {
		if l.id != id {
			continue
		}
		list = append(list[:i:i], list[i+1:]...)
		if len(list) == 0 {
			delete(r.byKey, key)
		} else {
			r.byKey[key] = list
		}
		return
	}
}

func (r *registry) registered(key listenerKey, id uint64) bool {
	for _, l := range r.byKey[key] {
		if l.id == id {
			return true
		}
	}
	return false
}

// fire runs the callbacks for key. A fire for the same key from inside one of
// its callbacks is deferred and delivered once after the current pass.
func (r *registry) fire(key listenerKey) {
	if r.notifying[key] {
		r.pending[key] = true
		return
	}
	r.notifying[key] = true
	defer delete(r.notifying, key)
	for {
		snapshot := append([]listener(nil), r.byKey[key]...)
		for _, l := range snapshot {
			if !r.registered(key, l.id) {
				continue
			}
			l.fn()
		}
		if !r.pending[key] {
			return
		}
		delete(r.pending, key)
	}
}

func (r *registry) dropColumn(columnID string) {
	for key := range r.byKey {
		if key.columnID == columnID && key != structureKey {
			delete(r.byKey, key)
		}
	}
}

func (r *registry) count(key listenerKey) int {
	return len(r.byKey[key])
}

// AddListener registers fn for event on one column and returns its unsubscribe func.
func (b *Board) AddListener(columnID string, event Event, fn func()) func() {
	columnID = strings.TrimSpace(columnID)
	if columnID == "" {
		return func() {}
	}
	return b.listeners.add(listenerKey{columnID: columnID, event: event}, fn)
}

// Notify runs the callbacks registered for event on one column, synchronously
// and in registration order. Callbacks get no payload; they re-read the board.
func (b *Board) Notify(columnID string, event Event) {
	b.listeners.fire(listenerKey{columnID: strings.TrimSpace(columnID), event: event})
}

// ListenerCount returns how many callbacks are registered for event on one column.
func (b *Board) ListenerCount(columnID string, event Event) int {
	return b.listeners.count(listenerKey{columnID: columnID, event: event})
}

// OnStructureChange registers fn for column adds, deletes and reorders.
func (b *Board) OnStructureChange(fn func()) func() {
	return b.listeners.add(structureKey, fn)
}

func (b *Board) fireStructure() {
	b.listeners.fire(structureKey)
}
