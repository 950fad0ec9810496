// Package events provides an in-memory event bus using Go channels.
package events

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Session lifecycle
	EventSessionCreated     EventType = "session.created"
	EventSessionModeChanged EventType = "session.mode_changed"
	EventSessionExpired     EventType = "session.expired"
	EventSessionClosed      EventType = "session.closed"

	// Child ↔ companion
	EventUserMessage       EventType = "user.message"
	EventAssistantMessage  EventType = "assistant.message"
	EventModerationBlocked EventType = "moderation.blocked"

	// Exercises
	EventExerciseStarted  EventType = "exercise.started"
	EventExerciseFeedback EventType = "exercise.feedback"
	EventExerciseReset    EventType = "exercise.reset"

	// Internal (analytics/tracing)
	EventLLMCall EventType = "internal.llm.call"
)

// EventSource identifies the component that emitted an event.
type EventSource string

const (
	SourceCompanion EventSource = "companion"
	SourceModel     EventSource = "model"
	SourceSessions  EventSource = "sessions"
	SourceGateway   EventSource = "gateway"
)

// Event represents an event in the system.
type Event struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id,omitempty"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    EventSource    `json:"source"`
	Payload   map[string]any `json:"payload"`
}

// eventIDCounter is used to generate sequential event IDs.
var eventIDCounter uint64

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType EventType, source EventSource, payload map[string]any) Event {
	return Event{
		ID:        generateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    source,
		Payload:   payload,
	}
}

func generateEventID() string {
	seq := atomic.AddUint64(&eventIDCounter, 1)
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), seq)
}

// Subscriber is a function that receives events.
type Subscriber func(Event)

type subscription struct {
	id         int
	sessionID  string
	eventTypes []EventType
	handler    Subscriber
	inline     bool // called on the dispatch goroutine, in publish order
}

// Bus is an in-memory event bus using Go channels.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]*subscription
	nextID      int
	eventChan   chan Event
	bufferSize  int
	ringBuffer  *RingBuffer
	closed      bool
	done        chan struct{}
}

// NewBus creates a new event bus.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	b := &Bus{
		subscribers: make(map[int]*subscription),
		eventChan:   make(chan Event, bufferSize),
		bufferSize:  bufferSize,
		ringBuffer:  NewRingBuffer(bufferSize),
		done:        make(chan struct{}),
	}
	go b.dispatch()
	return b
}

func (b *Bus) dispatch() {
	for {
		select {
		case event := <-b.eventChan:
			b.ringBuffer.Add(event)
			b.notifySubscribers(event)
		case <-b.done:
			return
		}
	}
}

func (b *Bus) notifySubscribers(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subscribers {
		if !b.matches(sub, event) {
			continue
		}
		if sub.inline {
			sub.handler(event)
		} else {
			go sub.handler(event)
		}
	}
}

func (b *Bus) matches(sub *subscription, event Event) bool {
	if sub.sessionID != "" && sub.sessionID != event.SessionID {
		return false
	}
	if len(sub.eventTypes) == 0 {
		return true
	}
	for _, t := range sub.eventTypes {
		if t == event.Type {
			return true
		}
	}
	return false
}

// Publish sends an event to the bus.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()

	if closed {
		return
	}

	select {
	case b.eventChan <- event:
	default:
		slog.Warn("event bus full, dropping event", "type", event.Type, "session", event.SessionID)
	}
}

// Subscribe registers a handler for specific event types.
// Returns an unsubscribe function.
func (b *Bus) Subscribe(handler Subscriber, eventTypes ...EventType) func() {
	return b.subscribe("", handler, eventTypes, false)
}

// SubscribeSession registers a handler that only sees events of one session.
func (b *Bus) SubscribeSession(sessionID string, handler Subscriber, eventTypes ...EventType) func() {
	return b.subscribe(sessionID, handler, eventTypes, false)
}

func (b *Bus) subscribe(sessionID string, handler Subscriber, eventTypes []EventType, inline bool) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	b.subscribers[id] = &subscription{
		id:         id,
		sessionID:  sessionID,
		eventTypes: eventTypes,
		handler:    handler,
		inline:     inline,
	}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, id)
	}
}

// SubscribeChan returns a channel that receives events of one session,
// or of all sessions when sessionID is empty. Events arrive in publish
// order; when the channel is full they are dropped.
func (b *Bus) SubscribeChan(sessionID string, bufSize int, eventTypes ...EventType) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)
	var once sync.Once
	var mu sync.Mutex
	closed := false

	unsubscribe := b.subscribe(sessionID, func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- e:
		default:
			slog.Warn("event channel full, dropping event", "type", e.Type, "session", e.SessionID)
		}
	}, eventTypes, true)

	return ch, func() {
		once.Do(func() {
			unsubscribe()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
}

// History returns recent events from the ring buffer.
func (b *Bus) History(limit int) []Event {
	return b.ringBuffer.Get(limit)
}

// SessionHistory returns up to limit recent events of one session, oldest first.
func (b *Bus) SessionHistory(sessionID string, limit int) []Event {
	all := b.ringBuffer.Get(b.bufferSize)
	var out []Event
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if all[i].SessionID == sessionID {
			out = append(out, all[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Close shuts down the event bus. Pending events are discarded.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	close(b.done)
}

// RingBuffer is a circular buffer for storing recent events.
type RingBuffer struct {
	mu     sync.RWMutex
	events []Event
	size   int
	pos    int
	count  int
}

// NewRingBuffer creates a new ring buffer.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		events: make([]Event, size),
		size:   size,
	}
}

func (r *RingBuffer) Add(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[r.pos] = event
	r.pos = (r.pos + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

func (r *RingBuffer) Get(n int) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > r.count {
		n = r.count
	}
	if n <= 0 {
		return nil
	}

	result := make([]Event, n)
	start := (r.pos - n + r.size) % r.size
	for i := 0; i < n; i++ {
		result[i] = r.events[(start+i)%r.size]
	}
	return result
}

func (r *RingBuffer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pos = 0
	r.count = 0
}
