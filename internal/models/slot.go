package models

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// TimeSlot is a bookable interval on a calendar date.
type TimeSlot struct {
	ID          string `json:"id"`
	Date        string `json:"date"`       // YYYY-MM-DD
	StartTime   string `json:"start_time"` // HH:MM
	EndTime     string `json:"end_time"`   // HH:MM
	IsAvailable bool   `json:"is_available"`
}

// StartAt returns the slot start as an instant in loc.
func (s *TimeSlot) StartAt(loc *time.Location) (time.Time, error) {
	return ParseDateTime(s.Date, s.StartTime, loc)
}

// EndAt returns the slot end as an instant in loc.
func (s *TimeSlot) EndAt(loc *time.Location) (time.Time, error) {
	return ParseDateTime(s.Date, s.EndTime, loc)
}

// Duration returns the slot length.
func (s *TimeSlot) Duration() time.Duration {
	start, err := ParseClock(s.StartTime)
	if err != nil {
		return 0
	}
	end, err := ParseClock(s.EndTime)
	if err != nil {
		return 0
	}
	return end.Sub(start)
}

// SortKey orders slots chronologically; ISO dates and zero-padded times compare lexically.
func (s *TimeSlot) SortKey() string {
	return s.Date + "T" + s.StartTime
}

// ParseClock parses an HH:MM time of day. Single-digit hours and other
// layouts time.Parse tolerates are rejected, so stored times compare lexically.
func ParseClock(value string) (time.Time, error) {
	return parseStrict(TimeLayout, value)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	return parseStrict(DateLayout, value)
}

func parseStrict(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, err
	}
	if t.Format(layout) != value {
		return time.Time{}, fmt.Errorf("%q is not in %s form", value, layout)
	}
	return t, nil
}

// ValidateSlotTimes checks date and time formats and that start is before end.
func ValidateSlotTimes(date, startTime, endTime string) error {
	if _, err := ParseDate(date); err != nil {
		return fmt.Errorf("%w: invalid date %q; expected YYYY-MM-DD", ErrValidation, date)
	}
	start, err := ParseClock(startTime)
	if err != nil {
		return fmt.Errorf("%w: invalid start time %q; expected HH:MM", ErrValidation, startTime)
	}
	end, err := ParseClock(endTime)
	if err != nil {
		return fmt.Errorf("%w: invalid end time %q; expected HH:MM", ErrValidation, endTime)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start time %s must be before end time %s", ErrValidation, startTime, endTime)
	}
	return nil
}

// ParseDateTime combines a YYYY-MM-DD date and an HH:MM time in loc.
func ParseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date/time %s %s", ErrValidation, date, clock)
	}
	c, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date/time %s %s", ErrValidation, date, clock)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc), nil
}
