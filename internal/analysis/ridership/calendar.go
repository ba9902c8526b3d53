// Package ridership aggregates passenger load along calendar features.
package ridership

import (
	"github.com/jengzang/shuttle-analytics/internal/models"
)

// MonthWeek buckets a day of month into week-of-month 1-5 using the
// right-closed bins (0,7], (7,14], (14,21], (21,28], (28,31]
func MonthWeek(dayOfMonth int) int {
	switch {
	case dayOfMonth <= 0:
		return 0
	case dayOfMonth > 28:
		return 5
	default:
		return (dayOfMonth-1)/7 + 1
	}
}

// ExtractCalendar returns a copy of loads with the calendar features set.
// Loads without an arrival time keep empty calendar fields.
func ExtractCalendar(loads []models.PassengerLoadEvent) []models.PassengerLoadEvent {
	out := make([]models.PassengerLoadEvent, len(loads))
	copy(out, loads)

	for i := range out {
		e := &out[i]
		if e.ArrivalTime.IsZero() {
			continue
		}
		t := e.ArrivalTime
		e.Date = t.Format(models.DateLayout)
		e.WeekDay = t.Weekday().String()
		e.Month = t.Month().String()
		e.DayOfMonth = t.Day()
		e.MonthWeek = MonthWeek(t.Day())
		e.Hour = t.Hour()
	}
	return out
}
