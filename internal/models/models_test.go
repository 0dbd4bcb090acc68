package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSlotTimes(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		start   string
		end     string
		wantErr bool
	}{
		{"valid", "2025-03-10", "09:00", "09:30", false},
		{"end before start", "2025-03-11", "10:00", "09:00", true},
		{"equal times", "2025-03-11", "10:00", "10:00", true},
		{"bad date", "10.03.2025", "09:00", "09:30", true},
		{"bad start", "2025-03-10", "9am", "09:30", true},
		{"bad end", "2025-03-10", "09:00", "25:00", true},
		{"single-digit hour", "2025-03-10", "9:00", "09:30", true},
		{"single-digit end hour", "2025-03-10", "08:00", "9:30", true},
		{"seconds", "2025-03-10", "09:00:00", "09:30", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlotTimes(tt.date, tt.start, tt.end)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTimeSlot_StartAtAndDuration(t *testing.T) {
	slot := TimeSlot{Date: "2025-03-10", StartTime: "09:00", EndTime: "09:30"}

	start, err := slot.StartAt(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), start)

	end, err := slot.EndAt(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, end.Sub(start))
	assert.Equal(t, 30*time.Minute, slot.Duration())
	assert.Equal(t, "2025-03-10T09:00", slot.SortKey())

	_, err = ParseDateTime("2025-03-10", "9:00", time.UTC)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("confirmed")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, st)

	_, err = ParseStatus("rejected")
	assert.ErrorIs(t, err, ErrValidation)

	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
}

func TestService_Validate(t *testing.T) {
	ok := Service{ID: "s1", Name: "Consultation", DurationMinutes: 30, Price: 50}
	assert.NoError(t, ok.Validate())

	zeroDuration := ok
	zeroDuration.DurationMinutes = 0
	assert.ErrorIs(t, zeroDuration.Validate(), ErrValidation)

	negativePrice := ok
	negativePrice.Price = -1
	assert.ErrorIs(t, negativePrice.Validate(), ErrValidation)
}

func TestAppointment_HoldsSlot(t *testing.T) {
	a := Appointment{Status: StatusPending}
	assert.True(t, a.HoldsSlot())
	a.Status = StatusCompleted
	assert.True(t, a.HoldsSlot())
	a.Status = StatusCancelled
	assert.False(t, a.HoldsSlot())
}
