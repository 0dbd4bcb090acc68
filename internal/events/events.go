// Package events is an in-process pub/sub bus for booking domain events.
package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the booking engine.
const (
	TypeAppointmentBooked      = "appointment.booked"
	TypeAppointmentStatus      = "appointment.status_changed"
	TypeAppointmentRescheduled = "appointment.rescheduled"
	TypeSlotCreated            = "slot.created"
	TypeSlotAvailability       = "slot.availability_changed"
)

// Event represents a lightweight domain event.
type Event struct {
	ID        int64
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// AppointmentPayload describes an appointment change.
type AppointmentPayload struct {
	AppointmentID  string `json:"appointment_id"`
	UserID         string `json:"user_id"`
	ServiceID      string `json:"service_id"`
	SlotID         string `json:"slot_id"`
	PreviousSlotID string `json:"previous_slot_id,omitempty"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
}

// SlotPayload describes a slot change made by an administrator.
type SlotPayload struct {
	SlotID    string `json:"slot_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Available bool   `json:"available"`
}

// EventHandler reacts to an event.
type EventHandler func(event Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	seq         atomic.Int64
	onError     func(event Event, err error)
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// OnError installs a callback for handler failures.
func (b *EventBus) OnError(fn func(event Event, err error)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onError = fn
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every given event type.
func (b *EventBus) SubscribeAll(handler EventHandler, eventTypes ...string) {
	for _, et := range eventTypes {
		b.Subscribe(et, handler)
	}
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	onError := b.onError
	b.mu.RUnlock()

	if event.ID == 0 {
		event.ID = b.seq.Add(1)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Delivery is synchronous, in subscription order.
		if err := handler(event); err != nil && onError != nil {
			onError(event, err)
		}
	}
}

// PublishJSON marshals payload and publishes it under eventType.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	b.Publish(Event{Type: eventType, Payload: data})
	return nil
}

// AllTypes lists every event type the engine publishes.
func AllTypes() []string {
	return []string{
		TypeAppointmentBooked,
		TypeAppointmentStatus,
		TypeAppointmentRescheduled,
		TypeSlotCreated,
		TypeSlotAvailability,
	}
}
