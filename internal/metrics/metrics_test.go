package metrics

import (
	"testing"

	"appointease/internal/events"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeCountsEvents(t *testing.T) {
	Register()
	Register()

	bus := events.NewEventBus()
	Subscribe(bus)

	bookedBefore := testutil.ToFloat64(appointmentsBooked.WithLabelValues("s9"))
	cancelledBefore := testutil.ToFloat64(statusChanges.WithLabelValues("cancelled"))
	blockedBefore := testutil.ToFloat64(slotOps.WithLabelValues("block"))
	movedBefore := testutil.ToFloat64(reschedules)

	require.NoError(t, bus.PublishJSON(events.TypeAppointmentBooked, events.AppointmentPayload{ServiceID: "s9"}))
	require.NoError(t, bus.PublishJSON(events.TypeAppointmentStatus, events.AppointmentPayload{Status: "cancelled"}))
	require.NoError(t, bus.PublishJSON(events.TypeSlotAvailability, events.SlotPayload{Available: false}))
	require.NoError(t, bus.PublishJSON(events.TypeAppointmentRescheduled, events.AppointmentPayload{}))

	assert.Equal(t, bookedBefore+1, testutil.ToFloat64(appointmentsBooked.WithLabelValues("s9")))
	assert.Equal(t, cancelledBefore+1, testutil.ToFloat64(statusChanges.WithLabelValues("cancelled")))
	assert.Equal(t, blockedBefore+1, testutil.ToFloat64(slotOps.WithLabelValues("block")))
	assert.Equal(t, movedBefore+1, testutil.ToFloat64(reschedules))
}

func TestSubscribeReportsMalformedPayload(t *testing.T) {
	bus := events.NewEventBus()
	Subscribe(bus)

	var failed bool
	bus.OnError(func(events.Event, error) { failed = true })
	bus.Publish(events.Event{Type: events.TypeAppointmentBooked, Payload: []byte("{")})
	assert.True(t, failed)
}
