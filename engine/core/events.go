package core

// Event represents a scene event
type Event struct {
	Type    EventType
	Tick    uint64
	Entity  EntityID
	Payload interface{}
}

type EventType uint16

const (
	EvtActivated EventType = iota
	EvtDeactivated
	EvtDestroyed
	EvtJumped
	EvtLanded
	EvtOrderChanged
	EvtInteracted
	EvtTextHidden
)

func (t EventType) String() string {
	switch t {
	case EvtActivated:
		return "activated"
	case EvtDeactivated:
		return "deactivated"
	case EvtDestroyed:
		return "destroyed"
	case EvtJumped:
		return "jumped"
	case EvtLanded:
		return "landed"
	case EvtOrderChanged:
		return "order_changed"
	case EvtInteracted:
		return "interacted"
	case EvtTextHidden:
		return "text_hidden"
	}
	return "unknown"
}

// EventBus dispatches events to listeners
type EventBus struct {
	listeners map[EventType][]EventHandler
	queue     []Event
}

type EventHandler func(e Event)

func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[EventType][]EventHandler),
	}
}

// On registers a handler for an event type
func (eb *EventBus) On(t EventType, h EventHandler) {
	eb.listeners[t] = append(eb.listeners[t], h)
}

// Emit queues an event for dispatch
func (eb *EventBus) Emit(e Event) {
	eb.queue = append(eb.queue, e)
}

// Pending returns the number of queued events.
func (eb *EventBus) Pending() int { return len(eb.queue) }

// Dispatch processes all queued events, including events emitted by
// handlers while dispatching.
func (eb *EventBus) Dispatch() {
	for len(eb.queue) > 0 {
		batch := eb.queue
		eb.queue = nil
		for _, e := range batch {
			for _, h := range eb.listeners[e.Type] {
				h(e)
			}
		}
	}
}
