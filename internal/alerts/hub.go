// Package alerts is the ephemeral user-facing notification channel.
//
// Components push short-lived messages here instead of printing directly;
// each alert removes itself after its ttl unless dismissed first.
package alerts

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity classifies an alert for display purposes
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DefaultTTL is how long an alert stays visible unless dismissed
const DefaultTTL = 5 * time.Second

// Alert is a single user-facing message
type Alert struct {
	ID        string
	Message   string
	Severity  Severity
	ExpiresAt time.Time
}

// EventType describes what happened to an alert
type EventType int

const (
	// EventPushed means a new alert became active
	EventPushed EventType = iota
	// EventExpired means an alert's ttl elapsed
	EventExpired
	// EventDismissed means an alert was removed by hand
	EventDismissed
)

// Event is delivered to subscribers on every alert state change
type Event struct {
	Type  EventType
	Alert Alert
}

// Hub owns the active alerts and their expiry timers.
// Safe for concurrent use.
type Hub struct {
	mu     sync.Mutex
	active map[string]Alert
	timers map[string]*time.Timer
	subs   map[int]chan Event
	nextID int
}

// NewHub creates an empty alert hub
func NewHub() *Hub {
	return &Hub{
		active: make(map[string]Alert),
		timers: make(map[string]*time.Timer),
		subs:   make(map[int]chan Event),
	}
}

// Push adds an alert and schedules its expiry.
// Returns the alert id so the caller may dismiss it early.
func (h *Hub) Push(message string, severity Severity, ttl time.Duration) string {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	alert := Alert{
		ID:        uuid.NewString(),
		Message:   message,
		Severity:  severity,
		ExpiresAt: time.Now().Add(ttl),
	}

	h.mu.Lock()
	h.active[alert.ID] = alert
	h.timers[alert.ID] = time.AfterFunc(ttl, func() {
		h.expire(alert.ID)
	})
	h.notifyLocked(Event{Type: EventPushed, Alert: alert})
	h.mu.Unlock()

	return alert.ID
}

// Info pushes an informational alert with the default ttl
func (h *Hub) Info(message string) string {
	return h.Push(message, SeverityInfo, DefaultTTL)
}

// Success pushes a success alert with the default ttl
func (h *Hub) Success(message string) string {
	return h.Push(message, SeveritySuccess, DefaultTTL)
}

// Error pushes an error alert with the default ttl
func (h *Hub) Error(message string) string {
	return h.Push(message, SeverityError, DefaultTTL)
}

// Dismiss removes an alert before its ttl and cancels the pending
// expiry so no timer leaks. Unknown ids are ignored.
func (h *Hub) Dismiss(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	alert, ok := h.active[id]
	if !ok {
		return
	}
	if timer, ok := h.timers[id]; ok {
		timer.Stop()
		delete(h.timers, id)
	}
	delete(h.active, id)
	h.notifyLocked(Event{Type: EventDismissed, Alert: alert})
}

// Active returns the alerts that have not yet expired.
// Order is unspecified.
func (h *Hub) Active() []Alert {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Alert, 0, len(h.active))
	for _, alert := range h.active {
		out = append(out, alert)
	}
	return out
}

// Subscribe returns a channel of alert events and a cancel function.
// The channel is buffered; a slow subscriber drops events rather than
// blocking the components pushing alerts.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, 16)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// expire is the timer callback for a single alert
func (h *Hub) expire(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	alert, ok := h.active[id]
	if !ok {
		// already dismissed
		return
	}
	delete(h.active, id)
	delete(h.timers, id)
	h.notifyLocked(Event{Type: EventExpired, Alert: alert})
}

func (h *Hub) notifyLocked(ev Event) {
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
