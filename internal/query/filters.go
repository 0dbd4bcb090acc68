package query

import (
	"fmt"
	"time"

	"appointease/internal/models"
)

// Filter selects projected appointments.
type Filter func(a models.AppointmentWithDetails) bool

// Apply returns the appointments matching every filter, preserving order.
func Apply(list []models.AppointmentWithDetails, filters ...Filter) []models.AppointmentWithDetails {
	out := make([]models.AppointmentWithDetails, 0, len(list))
outer:
	for _, a := range list {
		for _, f := range filters {
			if !f(a) {
				continue outer
			}
		}
		out = append(out, a)
	}
	return out
}

func ByStatus(status models.AppointmentStatus) Filter {
	return func(a models.AppointmentWithDetails) bool { return a.Status == status }
}

func OnDate(date string) Filter {
	return func(a models.AppointmentWithDetails) bool { return a.TimeSlot.Date == date }
}

// Today matches appointments whose slot falls on now's calendar date.
func Today(now time.Time) Filter {
	return OnDate(now.Format(models.DateLayout))
}

// Upcoming matches live appointments that start after now.
func Upcoming(now time.Time) Filter {
	return func(a models.AppointmentWithDetails) bool {
		if a.Status == models.StatusCancelled {
			return false
		}
		start, err := a.StartAt(now.Location())
		return err == nil && start.After(now)
	}
}

// Past matches appointments that started before now or are completed.
func Past(now time.Time) Filter {
	return func(a models.AppointmentWithDetails) bool {
		if a.Status == models.StatusCompleted {
			return true
		}
		start, err := a.StartAt(now.Location())
		return err == nil && start.Before(now)
	}
}

// ParseFilter maps a dashboard filter name to a Filter. "all" and "" match everything.
func ParseFilter(name string, now time.Time) (Filter, error) {
	switch name {
	case "", "all":
		return func(models.AppointmentWithDetails) bool { return true }, nil
	case "today":
		return Today(now), nil
	case "upcoming":
		return Upcoming(now), nil
	case "past":
		return Past(now), nil
	}
	status, err := models.ParseStatus(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown filter %q", models.ErrValidation, name)
	}
	return ByStatus(status), nil
}

// Stats summarises appointments for the admin dashboard.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Today     int `json:"today"`
}

// ComputeStats counts appointments per status and those on now's date.
func ComputeStats(list []models.AppointmentWithDetails, now time.Time) Stats {
	today := Today(now)
	var s Stats
	for _, a := range list {
		s.Total++
		switch a.Status {
		case models.StatusPending:
			s.Pending++
		case models.StatusConfirmed:
			s.Confirmed++
		case models.StatusCompleted:
			s.Completed++
		case models.StatusCancelled:
			s.Cancelled++
		}
		if today(a) {
			s.Today++
		}
	}
	return s
}
