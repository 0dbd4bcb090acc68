// Package booking implements the scheduling engine: the single writer of
// slot availability and appointment state.
package booking

import "appointease/internal/models"

// FSM holds the allowed appointment status transitions.
type FSM struct {
	transitions map[models.AppointmentStatus][]models.AppointmentStatus
}

// NewFSM creates the appointment lifecycle machine.
// Completed and cancelled have no outgoing edges.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[models.AppointmentStatus][]models.AppointmentStatus{
			models.StatusPending:   {models.StatusConfirmed, models.StatusCompleted, models.StatusCancelled},
			models.StatusConfirmed: {models.StatusCompleted, models.StatusCancelled},
		},
	}
}

// CanTransition checks if transition is allowed.
func (f *FSM) CanTransition(from, to models.AppointmentStatus) bool {
	allowed, ok := f.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Next lists the statuses reachable from from.
func (f *FSM) Next(from models.AppointmentStatus) []models.AppointmentStatus {
	return append([]models.AppointmentStatus{}, f.transitions[from]...)
}
