// Package appointments owns appointment records and their status field.
package appointments

import (
	"fmt"
	"iter"
	"sync"

	"appointease/internal/clock"
	"appointease/internal/models"

	"github.com/google/uuid"
)

// Store is an in-memory appointment store. Records are never removed.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*models.Appointment
	order []string
	clock clock.Clock
	newID func() string
}

// NewStore creates an empty store stamping records with clk.
func NewStore(clk clock.Clock) *Store {
	return &Store{
		byID:  make(map[string]*models.Appointment),
		clock: clk,
		newID: uuid.NewString,
	}
}

// Create appends a new pending appointment. ID, status and timestamps of rec are overwritten.
func (s *Store) Create(rec models.Appointment) models.Appointment {
	now := s.clock.Now()
	rec.ID = s.newID()
	rec.Status = models.StatusPending
	rec.CreatedAt = now
	rec.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[rec.ID] = &rec
	s.order = append(s.order, rec.ID)
	return rec
}

// FindByID returns a copy of the appointment or ErrNotFound.
func (s *Store) FindByID(id string) (models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return models.Appointment{}, fmt.Errorf("%w: appointment %s", models.ErrNotFound, id)
	}
	return *a, nil
}

// ListByUser yields the user's appointments in creation order.
func (s *Store) ListByUser(userID string) iter.Seq[models.Appointment] {
	return s.filter(func(a *models.Appointment) bool { return a.UserID == userID })
}

// ListAll yields every appointment in creation order.
func (s *Store) ListAll() iter.Seq[models.Appointment] {
	return s.filter(func(*models.Appointment) bool { return true })
}

// ListBySlot yields appointments that reference slotID.
func (s *Store) ListBySlot(slotID string) iter.Seq[models.Appointment] {
	return s.filter(func(a *models.Appointment) bool { return a.SlotID == slotID })
}

// UpdateStatus sets the status and refreshes UpdatedAt.
func (s *Store) UpdateStatus(id string, status models.AppointmentStatus) (models.Appointment, error) {
	return s.update(id, func(a *models.Appointment) { a.Status = status })
}

// UpdateSlot points the appointment at newSlotID and refreshes UpdatedAt.
func (s *Store) UpdateSlot(id, newSlotID string) (models.Appointment, error) {
	return s.update(id, func(a *models.Appointment) { a.SlotID = newSlotID })
}

// Len returns the number of stored appointments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) update(id string, mutate func(*models.Appointment)) (models.Appointment, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return models.Appointment{}, fmt.Errorf("%w: appointment %s", models.ErrNotFound, id)
	}
	mutate(a)
	a.UpdatedAt = now
	return *a, nil
}

func (s *Store) filter(keep func(*models.Appointment) bool) iter.Seq[models.Appointment] {
	return func(yield func(models.Appointment) bool) {
		s.mu.RLock()
		ids := make([]string, len(s.order))
		copy(ids, s.order)
		s.mu.RUnlock()

		for _, id := range ids {
			s.mu.RLock()
			a := s.byID[id]
			var snapshot models.Appointment
			match := keep(a)
			if match {
				snapshot = *a
			}
			s.mu.RUnlock()

			if match && !yield(snapshot) {
				return
			}
		}
	}
}
