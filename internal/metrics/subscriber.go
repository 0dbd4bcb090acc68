package metrics

import (
	"encoding/json"

	"appointease/internal/events"
)

// Subscribe updates the booking counters from engine events.
func Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.TypeAppointmentBooked, func(e events.Event) error {
		var p events.AppointmentPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		IncBooked(p.ServiceID)
		return nil
	})
	bus.Subscribe(events.TypeAppointmentStatus, func(e events.Event) error {
		var p events.AppointmentPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		IncStatusChange(p.Status)
		return nil
	})
	bus.Subscribe(events.TypeAppointmentRescheduled, func(events.Event) error {
		IncRescheduled()
		return nil
	})
	bus.Subscribe(events.TypeSlotCreated, func(events.Event) error {
		IncSlotOperation("create")
		return nil
	})
	bus.Subscribe(events.TypeSlotAvailability, func(e events.Event) error {
		var p events.SlotPayload
		if err := json.Unmarshal(e.Payload, &p); err != nil {
			return err
		}
		if p.Available {
			IncSlotOperation("release")
		} else {
			IncSlotOperation("block")
		}
		return nil
	})
}
