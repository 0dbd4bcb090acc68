package booking

import (
	"testing"

	"appointease/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFSMTransitions(t *testing.T) {
	fsm := NewFSM()

	tests := []struct {
		name        string
		from        models.AppointmentStatus
		to          models.AppointmentStatus
		shouldAllow bool
	}{
		{"pending to confirmed", models.StatusPending, models.StatusConfirmed, true},
		{"pending to completed", models.StatusPending, models.StatusCompleted, true},
		{"pending to cancelled", models.StatusPending, models.StatusCancelled, true},
		{"confirmed to completed", models.StatusConfirmed, models.StatusCompleted, true},
		{"confirmed to cancelled", models.StatusConfirmed, models.StatusCancelled, true},
		// Invalid transitions
		{"confirmed back to pending", models.StatusConfirmed, models.StatusPending, false},
		{"pending to pending", models.StatusPending, models.StatusPending, false},
		{"completed to cancelled", models.StatusCompleted, models.StatusCancelled, false},
		{"cancelled to pending", models.StatusCancelled, models.StatusPending, false},
		{"cancelled to cancelled", models.StatusCancelled, models.StatusCancelled, false},
		{"unknown target", models.StatusPending, models.AppointmentStatus("archived"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.shouldAllow, fsm.CanTransition(tt.from, tt.to))
		})
	}
}

func TestFSMTerminalStatesHaveNoEdges(t *testing.T) {
	fsm := NewFSM()
	for _, st := range models.AllStatuses {
		if st.IsTerminal() {
			assert.Empty(t, fsm.Next(st), st)
		} else {
			assert.NotEmpty(t, fsm.Next(st), st)
		}
	}
}
