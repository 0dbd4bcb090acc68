package slots

import (
	"slices"
	"testing"
	"time"

	"appointease/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	s := NewStore()
	s.newID = sequentialIDs()
	return s
}

func TestStore_Seed(t *testing.T) {
	s := newTestStore()
	n, err := s.Seed(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 14, DefaultBusinessHours, 30)
	require.NoError(t, err)
	assert.Equal(t, 160, n)
	assert.Equal(t, 160, s.Len())

	day := slices.Collect(s.ListAvailable("2025-03-12"))
	assert.Len(t, day, 16)
	assert.Empty(t, slices.Collect(s.ListAvailable("2025-03-15")))
}

func TestStore_CreateAndFind(t *testing.T) {
	s := newTestStore()

	slot, err := s.Create("2025-03-10", "09:00", "09:30")
	require.NoError(t, err)
	assert.True(t, slot.IsAvailable)

	found, err := s.FindByID(slot.ID)
	require.NoError(t, err)
	assert.Equal(t, slot, found)

	_, err = s.FindByID("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_CreateRejectsEndBeforeStart(t *testing.T) {
	s := newTestStore()
	_, err := s.Create("2025-03-11", "10:00", "09:00")
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 0, s.Len())
}

func TestStore_CreateRejectsUnpaddedTimes(t *testing.T) {
	s := newTestStore()
	late, err := s.Create("2025-03-10", "16:00", "16:30")
	require.NoError(t, err)

	_, err = s.Create("2025-03-10", "9:00", "9:30")
	assert.ErrorIs(t, err, models.ErrValidation)
	_, err = s.Create("2025-03-10", "09:00", "9:30")
	assert.ErrorIs(t, err, models.ErrValidation)

	early, err := s.Create("2025-03-10", "09:00", "09:30")
	require.NoError(t, err)

	day := slices.Collect(s.ListAvailable("2025-03-10"))
	require.Len(t, day, 2)
	assert.Equal(t, early.ID, day[0].ID)
	assert.Equal(t, late.ID, day[1].ID)
}

func TestStore_SetAvailability(t *testing.T) {
	s := newTestStore()
	slot, err := s.Create("2025-03-10", "09:00", "09:30")
	require.NoError(t, err)

	updated, err := s.SetAvailability(slot.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsAvailable)

	// idempotent
	updated, err = s.SetAvailability(slot.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsAvailable)
	assert.Empty(t, slices.Collect(s.ListAvailable("")))

	_, err = s.SetAvailability("missing", true)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_ListOrderAndRestart(t *testing.T) {
	s := newTestStore()
	_, err := s.Create("2025-03-11", "10:00", "10:30")
	require.NoError(t, err)
	_, err = s.Create("2025-03-10", "14:00", "14:30")
	require.NoError(t, err)
	_, err = s.Create("2025-03-10", "09:00", "09:30")
	require.NoError(t, err)

	seq := s.List("")
	first := slices.Collect(seq)
	require.Len(t, first, 3)
	assert.Equal(t, "2025-03-10T09:00", first[0].SortKey())
	assert.Equal(t, "2025-03-10T14:00", first[1].SortKey())
	assert.Equal(t, "2025-03-11T10:00", first[2].SortKey())

	// the same sequence can be ranged again and sees later writes
	_, err = s.SetAvailability(first[0].ID, false)
	require.NoError(t, err)
	assert.Len(t, slices.Collect(seq), 3)
	assert.Len(t, slices.Collect(s.ListAvailable("")), 2)
}

func TestStore_ListAvailableEarlyStop(t *testing.T) {
	s := newTestStore()
	_, err := s.Seed(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 1, DefaultBusinessHours, 30)
	require.NoError(t, err)

	count := 0
	for range s.ListAvailable("") {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}
