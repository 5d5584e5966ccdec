package chat

import "sync"

// EventKind identifies a state change published by the Synchronizer.
type EventKind int

const (
	EventSessions  EventKind = iota // session list replaced or changed
	EventActive                     // active session changed
	EventMessages                   // messages of a session changed
	EventInputLock                  // input locked/unlocked
	EventPolling                    // polling started/stopped
	EventAlert                      // user-visible error
)

func (k EventKind) String() string {
	switch k {
	case EventSessions:
		return "sessions"
	case EventActive:
		return "active"
	case EventMessages:
		return "messages"
	case EventInputLock:
		return "input_lock"
	case EventPolling:
		return "polling"
	case EventAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// Event describes a state change. Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	SessionID int64
	Locked    bool
	Polling   bool
	Text      string
}

// Handler receives events. Handlers run on the goroutine that made the
// change, never while the Synchronizer holds its lock, so they may call
// Snapshot.
type Handler func(Event)

type emitter struct {
	mu        sync.RWMutex
	listeners map[EventKind][]Handler
}

// On registers a handler for an event kind.
func (e *emitter) On(kind EventKind, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[EventKind][]Handler)
	}
	e.listeners[kind] = append(e.listeners[kind], h)
}

func (e *emitter) emit(events ...Event) {
	for _, ev := range events {
		e.mu.RLock()
		handlers := e.listeners[ev.Kind]
		e.mu.RUnlock()
		for _, h := range handlers {
			func() {
				defer func() { _ = recover() }() // swallow panics in handlers
				h(ev)
			}()
		}
	}
}

func (e *emitter) removeAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = nil
}
