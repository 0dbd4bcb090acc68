// Package slots owns the time slot inventory.
package slots

import (
	"fmt"
	"iter"
	"sort"
	"sync"
	"time"

	"appointease/internal/models"

	"github.com/google/uuid"
)

// Store is an in-memory slot inventory kept in chronological order.
type Store struct {
	mu    sync.RWMutex
	slots map[string]*models.TimeSlot
	order []string
	newID func() string
}

// NewStore creates an empty slot store.
func NewStore() *Store {
	return &Store{
		slots: make(map[string]*models.TimeSlot),
		newID: uuid.NewString,
	}
}

// Seed generates the initial inventory and returns the number of slots added.
func (s *Store) Seed(startDate time.Time, days int, hours BusinessHours, intervalMinutes int) (int, error) {
	generated, err := GenerateSlots(startDate, days, hours, intervalMinutes, s.newID)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range generated {
		s.insertLocked(generated[i])
	}
	return len(generated), nil
}

// Create adds an available slot after validating its times.
func (s *Store) Create(date, startTime, endTime string) (models.TimeSlot, error) {
	if err := models.ValidateSlotTimes(date, startTime, endTime); err != nil {
		return models.TimeSlot{}, err
	}

	slot := models.TimeSlot{
		ID:          s.newID(),
		Date:        date,
		StartTime:   startTime,
		EndTime:     endTime,
		IsAvailable: true,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertLocked(slot)
	return slot, nil
}

// FindByID returns a copy of the slot or ErrNotFound.
func (s *Store) FindByID(id string) (models.TimeSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[id]
	if !ok {
		return models.TimeSlot{}, fmt.Errorf("%w: time slot %s", models.ErrNotFound, id)
	}
	return *slot, nil
}

// SetAvailability sets the availability flag. Setting the current value again is a no-op.
func (s *Store) SetAvailability(id string, available bool) (models.TimeSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok {
		return models.TimeSlot{}, fmt.Errorf("%w: time slot %s", models.ErrNotFound, id)
	}
	slot.IsAvailable = available
	return *slot, nil
}

// ListAvailable yields available slots in chronological order, optionally restricted to date.
// Each range over the sequence re-reads the store.
func (s *Store) ListAvailable(date string) iter.Seq[models.TimeSlot] {
	return s.filter(func(slot *models.TimeSlot) bool {
		return slot.IsAvailable && (date == "" || slot.Date == date)
	})
}

// List yields every slot in chronological order, optionally restricted to date.
func (s *Store) List(date string) iter.Seq[models.TimeSlot] {
	return s.filter(func(slot *models.TimeSlot) bool {
		return date == "" || slot.Date == date
	})
}

// Len returns the number of slots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) filter(keep func(*models.TimeSlot) bool) iter.Seq[models.TimeSlot] {
	return func(yield func(models.TimeSlot) bool) {
		s.mu.RLock()
		ids := make([]string, len(s.order))
		copy(ids, s.order)
		s.mu.RUnlock()

		for _, id := range ids {
			s.mu.RLock()
			slot, ok := s.slots[id]
			var snapshot models.TimeSlot
			match := ok && keep(slot)
			if match {
				snapshot = *slot
			}
			s.mu.RUnlock()

			if match && !yield(snapshot) {
				return
			}
		}
	}
}

func (s *Store) insertLocked(slot models.TimeSlot) {
	key := slot.SortKey()
	idx := sort.Search(len(s.order), func(i int) bool {
		return s.slots[s.order[i]].SortKey() > key
	})
	s.order = append(s.order, "")
	copy(s.order[idx+1:], s.order[idx:])
	s.order[idx] = slot.ID
	s.slots[slot.ID] = &slot
}
