package query

import (
	"context"
	"testing"
	"time"

	"appointease/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projected(t *testing.T) []models.AppointmentWithDetails {
	t.Helper()
	list, err := NewProjector(newSource(), nil, nil).All(context.Background())
	require.NoError(t, err)
	return list
}

func TestFilters(t *testing.T) {
	list := projected(t)
	// Monday 09:45: mon-09 has started, mon-10 and tue-09 are ahead.
	now := time.Date(2025, 3, 10, 9, 45, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"all", "all", []string{"a2", "a4", "a3", "a1"}},
		{"empty means all", "", []string{"a2", "a4", "a3", "a1"}},
		{"today", "today", []string{"a4", "a3", "a1"}},
		{"upcoming skips cancelled", "upcoming", []string{"a2", "a4"}},
		{"past includes completed", "past", []string{"a4", "a3", "a1"}},
		{"status", "confirmed", []string{"a3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFilter(tt.filter, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(Apply(list, f)))
		})
	}

	_, err := ParseFilter("someday", now)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestApplyCombinesFilters(t *testing.T) {
	list := projected(t)
	got := Apply(list, OnDate("2025-03-10"), ByStatus(models.StatusCancelled))
	assert.Equal(t, []string{"a1"}, ids(got))
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(projected(t), time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, Stats{Total: 4, Pending: 1, Confirmed: 1, Completed: 1, Cancelled: 1, Today: 1}, stats)
}
