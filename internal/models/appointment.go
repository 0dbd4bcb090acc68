package models

import (
	"fmt"
	"time"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// AllStatuses lists statuses in lifecycle order.
var AllStatuses = []AppointmentStatus{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

// ParseStatus validates a status string.
func ParseStatus(s string) (AppointmentStatus, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
}

// IsTerminal reports whether no further transitions are possible.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment is a user's claim on a service within a slot.
type Appointment struct {
	ID        string            `json:"id"`
	UserID    string            `json:"user_id"`
	ServiceID string            `json:"service_id"`
	SlotID    string            `json:"slot_id"`
	Status    AppointmentStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Notes     string            `json:"notes,omitempty"`
}

// HoldsSlot reports whether the appointment keeps its slot unavailable.
func (a *Appointment) HoldsSlot() bool {
	return a.Status != StatusCancelled
}

// AppointmentWithDetails is an appointment joined with its service, slot and user identity.
type AppointmentWithDetails struct {
	Appointment
	Service   Service  `json:"service"`
	TimeSlot  TimeSlot `json:"time_slot"`
	UserName  string   `json:"user_name"`
	UserEmail string   `json:"user_email"`
}

// StartAt returns the joined slot start in loc.
func (a *AppointmentWithDetails) StartAt(loc *time.Location) (time.Time, error) {
	return a.TimeSlot.StartAt(loc)
}
