// Package query joins appointments with their service, slot and user identity for display.
package query

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"

	"appointease/internal/models"

	"github.com/rs/zerolog"
)

const (
	UnknownUserName  = "Unknown User"
	UnknownUserEmail = "unknown@example.com"
)

// Source is the read side of the booking engine.
type Source interface {
	GetAppointment(id string) (models.Appointment, error)
	ListAppointmentsForUser(userID string) iter.Seq[models.Appointment]
	ListAllAppointments() iter.Seq[models.Appointment]
	FindService(id string) (models.Service, error)
	FindSlot(id string) (models.TimeSlot, error)
}

// Identity resolves users by id.
type Identity interface {
	Lookup(ctx context.Context, userID string) (models.User, error)
}

// Projector builds AppointmentWithDetails views.
type Projector struct {
	source   Source
	identity Identity
	logger   zerolog.Logger
}

// NewProjector creates a projector. identity may be nil, in which case every user is unknown.
func NewProjector(source Source, identity Identity, logger *zerolog.Logger) *Projector {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "query").Logger()
	}
	return &Projector{source: source, identity: identity, logger: l}
}

// Get projects a single appointment.
func (p *Projector) Get(ctx context.Context, id string) (models.AppointmentWithDetails, error) {
	appt, err := p.source.GetAppointment(id)
	if err != nil {
		return models.AppointmentWithDetails{}, err
	}
	return p.project(ctx, appt, make(map[string]models.User))
}

// ByUser projects the user's appointments, latest slot first.
func (p *Projector) ByUser(ctx context.Context, userID string) ([]models.AppointmentWithDetails, error) {
	return p.collect(ctx, p.source.ListAppointmentsForUser(userID))
}

// All projects every appointment, latest slot first.
func (p *Projector) All(ctx context.Context) ([]models.AppointmentWithDetails, error) {
	return p.collect(ctx, p.source.ListAllAppointments())
}

func (p *Projector) collect(ctx context.Context, seq iter.Seq[models.Appointment]) ([]models.AppointmentWithDetails, error) {
	users := make(map[string]models.User)
	out := []models.AppointmentWithDetails{}
	for appt := range seq {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		view, err := p.project(ctx, appt, users)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	SortLatestFirst(out)
	return out, nil
}

func (p *Projector) project(ctx context.Context, appt models.Appointment, users map[string]models.User) (models.AppointmentWithDetails, error) {
	service, err := p.source.FindService(appt.ServiceID)
	if err != nil {
		return models.AppointmentWithDetails{}, fmt.Errorf("%w: appointment %s references service %s", models.ErrIntegrity, appt.ID, appt.ServiceID)
	}
	slot, err := p.source.FindSlot(appt.SlotID)
	if err != nil {
		return models.AppointmentWithDetails{}, fmt.Errorf("%w: appointment %s references slot %s", models.ErrIntegrity, appt.ID, appt.SlotID)
	}

	user, ok := users[appt.UserID]
	if !ok {
		user = p.lookup(ctx, appt.UserID)
		users[appt.UserID] = user
	}

	return models.AppointmentWithDetails{
		Appointment: appt,
		Service:     service,
		TimeSlot:    slot,
		UserName:    user.Name,
		UserEmail:   user.Email,
	}, nil
}

func (p *Projector) lookup(ctx context.Context, userID string) models.User {
	unknown := models.User{ID: userID, Name: UnknownUserName, Email: UnknownUserEmail}
	if p.identity == nil {
		return unknown
	}
	user, err := p.identity.Lookup(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			p.logger.Warn().Err(err).Str("user_id", userID).Msg("identity lookup failed")
		}
		return unknown
	}
	if user.Name == "" {
		user.Name = UnknownUserName
	}
	if user.Email == "" {
		user.Email = UnknownUserEmail
	}
	return user
}

// SortLatestFirst orders by slot date and start time descending, then by creation time descending.
func SortLatestFirst(list []models.AppointmentWithDetails) {
	sort.SliceStable(list, func(i, j int) bool {
		ki, kj := list[i].TimeSlot.SortKey(), list[j].TimeSlot.SortKey()
		if ki != kj {
			return ki > kj
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
