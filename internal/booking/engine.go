package booking

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"appointease/internal/appointments"
	"appointease/internal/catalog"
	"appointease/internal/clock"
	"appointease/internal/events"
	"appointease/internal/models"
	"appointease/internal/slots"

	"github.com/rs/zerolog"
)

// Engine coordinates the catalog, slot and appointment stores.
// Every read-check-write sequence runs under mu, so concurrent callers never
// observe or produce a double booking. A successful mutation hands mu over to
// pubMu before publishing, so events leave in commit order while subscribers
// run outside mu. Subscribers must not call engine mutators.
type Engine struct {
	mu    sync.Mutex
	pubMu sync.Mutex

	catalog      *catalog.Store
	slots        *slots.Store
	appointments *appointments.Store
	clock        clock.Clock
	bus          *events.EventBus
	fsm          *FSM
	notice       time.Duration
	logger       zerolog.Logger
}

// Options tunes engine behaviour.
type Options struct {
	CancelNotice time.Duration
}

// NewEngine wires an engine over the given stores. bus may be nil.
func NewEngine(
	cat *catalog.Store,
	slotStore *slots.Store,
	apptStore *appointments.Store,
	clk clock.Clock,
	bus *events.EventBus,
	opts Options,
	logger *zerolog.Logger,
) *Engine {
	if opts.CancelNotice <= 0 {
		opts.CancelNotice = DefaultCancelNotice
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "booking").Logger()
	}
	return &Engine{
		catalog:      cat,
		slots:        slotStore,
		appointments: apptStore,
		clock:        clk,
		bus:          bus,
		fsm:          NewFSM(),
		notice:       opts.CancelNotice,
		logger:       l,
	}
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// CancelNotice returns the configured minimum notice for user cancellations.
func (e *Engine) CancelNotice() time.Duration {
	return e.notice
}

// NextStatuses lists the statuses an appointment in status may move to.
func (e *Engine) NextStatuses(status models.AppointmentStatus) []models.AppointmentStatus {
	return e.fsm.Next(status)
}

// Seed fills the slot inventory starting at startDate.
func (e *Engine) Seed(startDate time.Time, days int, hours slots.BusinessHours, intervalMinutes int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, err := e.slots.Seed(startDate, days, hours, intervalMinutes)
	if err != nil {
		return 0, fmt.Errorf("seed slots: %w", err)
	}
	e.logger.Info().Int("slots", n).Str("from", startDate.Format(models.DateLayout)).Int("days", days).Msg("slot inventory seeded")
	return n, nil
}

// ListServices returns the service catalog.
func (e *Engine) ListServices() []models.Service {
	return e.catalog.List()
}

// FindService returns a service by id.
func (e *Engine) FindService(id string) (models.Service, error) {
	return e.catalog.FindByID(id)
}

// FindSlot returns a slot by id.
func (e *Engine) FindSlot(id string) (models.TimeSlot, error) {
	return e.slots.FindByID(id)
}

// ListAvailableSlots yields bookable slots in chronological order. An empty date means all dates.
func (e *Engine) ListAvailableSlots(date string) iter.Seq[models.TimeSlot] {
	return e.slots.ListAvailable(date)
}

// ListSlots yields every slot regardless of availability.
func (e *Engine) ListSlots(date string) iter.Seq[models.TimeSlot] {
	return e.slots.List(date)
}

// GetAppointment returns an appointment by id.
func (e *Engine) GetAppointment(id string) (models.Appointment, error) {
	return e.appointments.FindByID(id)
}

// ListAppointmentsForUser yields the user's appointments.
func (e *Engine) ListAppointmentsForUser(userID string) iter.Seq[models.Appointment] {
	return e.appointments.ListByUser(userID)
}

// ListAllAppointments yields every appointment.
func (e *Engine) ListAllAppointments() iter.Seq[models.Appointment] {
	return e.appointments.ListAll()
}

// Book reserves slotID for userID and creates a pending appointment.
func (e *Engine) Book(ctx context.Context, userID, serviceID, slotID, notes string) (models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return models.Appointment{}, err
	}
	if strings.TrimSpace(userID) == "" {
		return models.Appointment{}, fmt.Errorf("%w: user id is required", models.ErrValidation)
	}

	e.mu.Lock()
	service, err := e.catalog.FindByID(serviceID)
	if err != nil {
		e.mu.Unlock()
		return models.Appointment{}, err
	}
	slot, err := e.slots.FindByID(slotID)
	if err != nil || !slot.IsAvailable {
		e.mu.Unlock()
		return models.Appointment{}, fmt.Errorf("%w: slot %s", models.ErrSlotUnavailable, slotID)
	}
	if _, err := e.slots.SetAvailability(slot.ID, false); err != nil {
		e.mu.Unlock()
		return models.Appointment{}, err
	}
	appt := e.appointments.Create(models.Appointment{
		UserID:    userID,
		ServiceID: service.ID,
		SlotID:    slot.ID,
		Notes:     strings.TrimSpace(notes),
	})
	e.handoff()
	defer e.pubMu.Unlock()

	e.logger.Info().
		Str("appointment_id", appt.ID).
		Str("user_id", userID).
		Str("service_id", service.ID).
		Str("slot", slot.SortKey()).
		Msg("appointment booked")
	e.publish(events.TypeAppointmentBooked, appointmentPayload(appt, "", ""))
	return appt, nil
}

// Cancel moves an appointment to cancelled and frees its slot.
func (e *Engine) Cancel(ctx context.Context, id string) (models.Appointment, error) {
	return e.UpdateStatus(ctx, id, models.StatusCancelled)
}

// UpdateStatus applies a lifecycle transition. Entering cancelled frees the slot.
func (e *Engine) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) (models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return models.Appointment{}, err
	}

	e.mu.Lock()
	current, err := e.appointments.FindByID(id)
	if err != nil {
		e.mu.Unlock()
		return models.Appointment{}, err
	}
	if !e.fsm.CanTransition(current.Status, status) {
		e.mu.Unlock()
		return models.Appointment{}, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, current.Status, status)
	}
	if status == models.StatusCancelled {
		if _, err := e.slots.SetAvailability(current.SlotID, true); err != nil {
			e.mu.Unlock()
			return models.Appointment{}, fmt.Errorf("%w: appointment %s references missing slot %s", models.ErrIntegrity, id, current.SlotID)
		}
	}
	updated, err := e.appointments.UpdateStatus(id, status)
	if err != nil {
		e.mu.Unlock()
		return models.Appointment{}, err
	}
	e.handoff()
	defer e.pubMu.Unlock()

	e.logger.Info().
		Str("appointment_id", id).
		Str("from", string(current.Status)).
		Str("to", string(status)).
		Msg("appointment status changed")
	e.publish(events.TypeAppointmentStatus, appointmentPayload(updated, "", current.Status))
	return updated, nil
}

// Reschedule moves a live appointment to newSlotID. On failure nothing changes.
func (e *Engine) Reschedule(ctx context.Context, id, newSlotID string) (models.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return models.Appointment{}, err
	}

	e.mu.Lock()
	current, err := e.appointments.FindByID(id)
	if err != nil {
		e.mu.Unlock()
		return models.Appointment{}, err
	}
	if current.Status.IsTerminal() {
		e.mu.Unlock()
		return models.Appointment{}, fmt.Errorf("%w: cannot reschedule %s appointment", models.ErrInvalidTransition, current.Status)
	}
	target, err := e.slots.FindByID(newSlotID)
	if err != nil || !target.IsAvailable {
		e.mu.Unlock()
		return models.Appointment{}, fmt.Errorf("%w: slot %s", models.ErrSlotUnavailable, newSlotID)
	}
	if _, err := e.slots.FindByID(current.SlotID); err != nil {
		e.mu.Unlock()
		return models.Appointment{}, fmt.Errorf("%w: appointment %s references missing slot %s", models.ErrIntegrity, id, current.SlotID)
	}
	// Both slots exist, so neither write below can fail.
	_, _ = e.slots.SetAvailability(current.SlotID, true)
	_, _ = e.slots.SetAvailability(target.ID, false)
	updated, err := e.appointments.UpdateSlot(id, target.ID)
	if err != nil {
		e.mu.Unlock()
		return models.Appointment{}, err
	}
	e.handoff()
	defer e.pubMu.Unlock()

	e.logger.Info().
		Str("appointment_id", id).
		Str("from_slot", current.SlotID).
		Str("to_slot", target.ID).
		Msg("appointment rescheduled")
	e.publish(events.TypeAppointmentRescheduled, appointmentPayload(updated, current.SlotID, ""))
	return updated, nil
}

// CanCancel reports whether the appointment is still inside the cancellation window.
func (e *Engine) CanCancel(id string) (bool, error) {
	appt, err := e.appointments.FindByID(id)
	if err != nil {
		return false, err
	}
	slot, err := e.slots.FindByID(appt.SlotID)
	if err != nil {
		return false, fmt.Errorf("%w: appointment %s references missing slot %s", models.ErrIntegrity, id, appt.SlotID)
	}
	return CancellationAllowed(appt.Status, slot, e.clock.Now(), e.notice), nil
}

// CreateSlot adds a new available slot.
func (e *Engine) CreateSlot(ctx context.Context, date, startTime, endTime string) (models.TimeSlot, error) {
	if err := ctx.Err(); err != nil {
		return models.TimeSlot{}, err
	}

	e.mu.Lock()
	slot, err := e.slots.Create(date, startTime, endTime)
	if err != nil {
		e.mu.Unlock()
		return models.TimeSlot{}, err
	}
	e.handoff()
	defer e.pubMu.Unlock()

	e.logger.Info().Str("slot_id", slot.ID).Str("slot", slot.SortKey()).Msg("slot created")
	e.publish(events.TypeSlotCreated, slotPayload(slot))
	return slot, nil
}

// SetSlotAvailability blocks or releases a slot. A slot held by a live
// appointment cannot be released this way; cancel or reschedule instead.
// Setting the value a slot already has changes nothing and publishes no event.
func (e *Engine) SetSlotAvailability(ctx context.Context, id string, available bool) (models.TimeSlot, error) {
	if err := ctx.Err(); err != nil {
		return models.TimeSlot{}, err
	}

	e.mu.Lock()
	before, err := e.slots.FindByID(id)
	if err != nil {
		e.mu.Unlock()
		return models.TimeSlot{}, err
	}
	if before.IsAvailable == available {
		e.mu.Unlock()
		return before, nil
	}
	if available {
		for appt := range e.appointments.ListBySlot(id) {
			if appt.HoldsSlot() {
				e.mu.Unlock()
				return models.TimeSlot{}, fmt.Errorf("%w: slot %s is held by appointment %s", models.ErrValidation, id, appt.ID)
			}
		}
	}
	slot, err := e.slots.SetAvailability(id, available)
	if err != nil {
		e.mu.Unlock()
		return models.TimeSlot{}, err
	}
	e.handoff()
	defer e.pubMu.Unlock()

	e.logger.Info().Str("slot_id", id).Bool("available", available).Msg("slot availability set")
	e.publish(events.TypeSlotAvailability, slotPayload(slot))
	return slot, nil
}

// handoff releases mu while holding pubMu. The caller releases pubMu after publishing.
func (e *Engine) handoff() {
	e.pubMu.Lock()
	e.mu.Unlock()
}

func (e *Engine) publish(eventType string, payload interface{}) {
	if e.bus == nil {
		return
	}
	if err := e.bus.PublishJSON(eventType, payload); err != nil {
		e.logger.Warn().Err(err).Str("event", eventType).Msg("publish event")
	}
}

func appointmentPayload(a models.Appointment, previousSlot string, previousStatus models.AppointmentStatus) events.AppointmentPayload {
	return events.AppointmentPayload{
		AppointmentID:  a.ID,
		UserID:         a.UserID,
		ServiceID:      a.ServiceID,
		SlotID:         a.SlotID,
		PreviousSlotID: previousSlot,
		Status:         string(a.Status),
		PreviousStatus: string(previousStatus),
	}
}

func slotPayload(s models.TimeSlot) events.SlotPayload {
	return events.SlotPayload{
		SlotID:    s.ID,
		Date:      s.Date,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Available: s.IsAvailable,
	}
}
