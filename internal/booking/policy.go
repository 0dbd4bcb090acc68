package booking

import (
	"time"

	"appointease/internal/models"
)

// DefaultCancelNotice is how far ahead of the slot start a user may still cancel.
const DefaultCancelNotice = 24 * time.Hour

// CancellationAllowed reports whether an appointment in status, booked into slot,
// may still be cancelled at now. The slot is interpreted in now's location.
func CancellationAllowed(status models.AppointmentStatus, slot models.TimeSlot, now time.Time, notice time.Duration) bool {
	if status.IsTerminal() {
		return false
	}
	start, err := slot.StartAt(now.Location())
	if err != nil {
		return false
	}
	return !start.Before(now.Add(notice))
}
