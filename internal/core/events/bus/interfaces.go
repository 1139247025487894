package bus

import "time"

// EventBus is an in-process, synchronous pub/sub bus.
//
// Handlers subscribe by event type, or to every type with Wildcard. Publish runs handlers
// in the caller goroutine and joins their errors. All methods are safe for concurrent use.
type EventBus interface {
	Publish(event Event) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	Unsubscribe(Subscription) error
	Metrics() Metrics
}

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// Event is an immutable message. Data is owned by the publisher and must be treated as
// read-only by handlers.
type Event struct {
	Type      string
	Source    string
	Timestamp time.Time
	Data      any
}

// NewEvent stamps an event with the current time.
func NewEvent(typ, source string, data any) Event {
	return Event{Type: typ, Source: source, Timestamp: time.Now(), Data: data}
}

type EventHandler func(event Event) error

// Subscription is a registered handler. Cancel is idempotent.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	Cancel() error
}

type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	Subscribers       uint64
}
