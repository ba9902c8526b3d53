package temporal

import (
	"github.com/jengzang/shuttle-analytics/internal/models"
)

// TimeBlockFor maps an hour of day (0-23) to its day-part bucket
func TimeBlockFor(hour int) models.TimeBlock {
	return models.TimeBlockOfHour(hour)
}

// AddTimeBlocks returns a copy of events with Hour, ArrivalWeekday and
// TimeBlock set. Events without an arrival time get no time block.
func AddTimeBlocks(events []models.StopEvent) []models.StopEvent {
	out := make([]models.StopEvent, len(events))
	copy(out, events)

	for i := range out {
		e := &out[i]
		if !e.HasArrival() {
			e.TimeBlock = ""
			continue
		}
		e.Hour = e.ArrivalTime.Hour()
		e.ArrivalWeekday = models.MondayWeekday(e.ArrivalTime)
		e.TimeBlock = TimeBlockFor(e.Hour)
	}

	return out
}
