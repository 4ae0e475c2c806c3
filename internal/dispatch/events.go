package dispatch

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EventType classifies notifications.
type EventType string

const (
	EventAction       EventType = "action"
	EventSystem       EventType = "system"
	EventError        EventType = "error"
	EventNotification EventType = "notification"

	// Wildcard subscribes to every type.
	Wildcard EventType = "*"
)

// Event is delivered to listeners.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// ActionEvent is the Data of action and error events emitted by the
// dispatcher.
type ActionEvent struct {
	Request  ActionRequest  `json:"request"`
	Response ActionResponse `json:"response"`
	Context  ActionContext  `json:"context,omitempty"`
}

// NewEvent stamps an event with a fresh id.
func NewEvent(t EventType, source string, data any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// Listener receives events synchronously on the emitting goroutine.
type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

// Bus fans events out to per-type and wildcard listeners.
type Bus struct {
	mu        sync.RWMutex
	listeners map[EventType][]subscription
	nextID    int
	log       logrus.FieldLogger
}

// NewBus returns an empty bus. A nil logger discards listener panics silently.
func NewBus(log logrus.FieldLogger) *Bus {
	return &Bus{listeners: make(map[EventType][]subscription), log: log}
}

// Subscribe registers fn for events of type t, or every event when t is
// Wildcard. The returned func unsubscribes.
func (b *Bus) Subscribe(t EventType, fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.listeners[t] = append(b.listeners[t], subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.listeners[t]
		for i, s := range subs {
			if s.id == id {
				b.listeners[t] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers e to the listeners of its type, then to wildcard listeners.
// A panicking listener is logged and skipped.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	targets := make([]Listener, 0, len(b.listeners[e.Type])+len(b.listeners[Wildcard]))
	for _, s := range b.listeners[e.Type] {
		targets = append(targets, s.fn)
	}
	if e.Type != Wildcard {
		for _, s := range b.listeners[Wildcard] {
			targets = append(targets, s.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range targets {
		b.deliver(fn, e)
	}
}

func (b *Bus) deliver(fn Listener, e Event) {
	defer func() {
		if r := recover(); r != nil && b.log != nil {
			b.log.WithFields(logrus.Fields{"event_id": e.ID, "type": e.Type}).Errorf("event listener panicked: %v", r)
		}
	}()
	fn(e)
}

// Clear drops every listener.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = make(map[EventType][]subscription)
}

// Count returns the number of registered listeners.
func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, subs := range b.listeners {
		n += len(subs)
	}
	return n
}
