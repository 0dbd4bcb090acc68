package slots

import (
	"fmt"
	"time"

	"appointease/internal/models"
)

// BusinessHours describes the bookable window of a working day.
type BusinessHours struct {
	StartTime  string // "09:00"
	EndTime    string // "17:00"
	LunchStart string // optional
	LunchEnd   string // optional
}

// DefaultBusinessHours is the window used when none is configured.
var DefaultBusinessHours = BusinessHours{StartTime: "09:00", EndTime: "17:00"}

// GenerateSlots builds slots for weekdays in [startDate, startDate+days), one per interval inside hours.
// Every generated slot is available.
func GenerateSlots(startDate time.Time, days int, hours BusinessHours, intervalMinutes int, newID func() string) ([]models.TimeSlot, error) {
	if days <= 0 {
		return nil, nil
	}
	if intervalMinutes <= 0 {
		intervalMinutes = 30
	}

	day := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, startDate.Location())
	var slots []models.TimeSlot
	for i := 0; i < days; i++ {
		date := day.AddDate(0, 0, i)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		daySlots, err := generateDay(date, hours, intervalMinutes, newID)
		if err != nil {
			return nil, err
		}
		slots = append(slots, daySlots...)
	}
	return slots, nil
}

func generateDay(date time.Time, hours BusinessHours, intervalMinutes int, newID func() string) ([]models.TimeSlot, error) {
	startTime, err := parseTimeOnDate(date, hours.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parse start time: %w", err)
	}

	endTime, err := parseTimeOnDate(date, hours.EndTime)
	if err != nil {
		return nil, fmt.Errorf("parse end time: %w", err)
	}

	var lunchStart, lunchEnd time.Time
	hasLunch := hours.LunchStart != "" && hours.LunchEnd != ""
	if hasLunch {
		if lunchStart, err = parseTimeOnDate(date, hours.LunchStart); err != nil {
			return nil, fmt.Errorf("parse lunch start: %w", err)
		}
		if lunchEnd, err = parseTimeOnDate(date, hours.LunchEnd); err != nil {
			return nil, fmt.Errorf("parse lunch end: %w", err)
		}
	}

	step := time.Duration(intervalMinutes) * time.Minute
	dateStr := date.Format(models.DateLayout)
	var slots []models.TimeSlot

	for cursor := startTime; !cursor.Add(step).After(endTime); cursor = cursor.Add(step) {
		slotStart := cursor
		slotEnd := cursor.Add(step)

		// Skip lunch break
		if hasLunch && isOverlapping(slotStart, slotEnd, lunchStart, lunchEnd) {
			continue
		}
		// A step that crosses midnight would produce end < start.
		if slotEnd.Day() != slotStart.Day() {
			break
		}

		slots = append(slots, models.TimeSlot{
			ID:          newID(),
			Date:        dateStr,
			StartTime:   slotStart.Format(models.TimeLayout),
			EndTime:     slotEnd.Format(models.TimeLayout),
			IsAvailable: true,
		})
	}

	return slots, nil
}

func parseTimeOnDate(date time.Time, timeStr string) (time.Time, error) {
	clock, err := models.ParseClock(timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", timeStr, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, date.Location()), nil
}

func isOverlapping(start1, end1, start2, end2 time.Time) bool {
	return start1.Before(end2) && start2.Before(end1)
}
