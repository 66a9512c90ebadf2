package stream

import (
	"time"

	"streamkit/internal/core/domain"
)

// EventHandler receives lifecycle-adjacent events.
type EventHandler func(domain.Event)

// On registers a handler for an event type. Multiple handlers per type
// are permitted and invoked in registration order.
func (s *Stream) On(eventType domain.EventType, handler EventHandler) {
	if handler == nil {
		return
	}
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers[eventType] = append(s.handlers[eventType], handler)
}

// dispatch delivers an event to every registered handler in order. It is
// the engine's event sink and also receives stream-originated events.
func (s *Stream) dispatch(event domain.Event) {
	s.handlersMu.Lock()
	handlers := make([]EventHandler, len(s.handlers[event.Type]))
	copy(handlers, s.handlers[event.Type])
	s.handlersMu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// emit publishes a stream-originated event. Delivery happens off the
// stream lock so handlers may call back into the stream.
func (s *Stream) emit(eventType domain.EventType, kind domain.MediaKind, detail string) {
	event := domain.Event{
		Type:      eventType,
		StreamID:  s.id,
		Kind:      kind,
		Detail:    detail,
		Timestamp: time.Now(),
	}
	go s.dispatch(event)
}
