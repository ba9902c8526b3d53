package models

import "time"

// TimeBlock is a coarse day-part bucket derived from the arrival hour
type TimeBlock string

const (
	TimeBlockMorning   TimeBlock = "Morning"   // [5,12)
	TimeBlockAfternoon TimeBlock = "Afternoon" // [12,17)
	TimeBlockEvening   TimeBlock = "Evening"   // [17,21)
	TimeBlockNight     TimeBlock = "Night"     // [21,24) and [0,5)
)

// TimeBlocks lists the buckets in day order
var TimeBlocks = []TimeBlock{TimeBlockMorning, TimeBlockAfternoon, TimeBlockEvening, TimeBlockNight}

// TimeBlockOfHour maps an hour of day (0-23) to its bucket.
// Boundaries are half-open, so every hour lands in exactly one bucket.
func TimeBlockOfHour(hour int) TimeBlock {
	switch {
	case hour >= 5 && hour < 12:
		return TimeBlockMorning
	case hour >= 12 && hour < 17:
		return TimeBlockAfternoon
	case hour >= 17 && hour < 21:
		return TimeBlockEvening
	default:
		return TimeBlockNight
	}
}

// Label returns the display label including the hour range
func (b TimeBlock) Label() string {
	switch b {
	case TimeBlockMorning:
		return "Morning (5AM–12PM)"
	case TimeBlockAfternoon:
		return "Afternoon (12PM–5PM)"
	case TimeBlockEvening:
		return "Evening (5PM–9PM)"
	case TimeBlockNight:
		return "Night (9PM–5AM)"
	}
	return string(b)
}

// TrafficFlag is a per-stop traffic tier from historical event counts
type TrafficFlag string

const (
	TrafficLow  TrafficFlag = "low"
	TrafficMid  TrafficFlag = "mid"
	TrafficHigh TrafficFlag = "high"
)

// StopEvent represents one vehicle stop at one location.
// RouteName, StopName, ArrivalTime, DepartureTime and StopDurationSeconds are
// the raw identity and are never modified after loading. The remaining fields
// are attached by pipeline stages.
type StopEvent struct {
	RouteName           string    `json:"routeName" db:"routeName"`
	StopName            string    `json:"stopName" db:"stopName"`
	ArrivalTime         time.Time `json:"arrivalTime" db:"arrivalTime"`
	DepartureTime       time.Time `json:"departureTime" db:"departureTime"`
	StopDurationSeconds *float64  `json:"stopDurationSeconds" db:"stopDurationSeconds"` // nil when unparseable

	// Enrichment
	Hour           int         `json:"hour"`
	TimeBlock      TimeBlock   `json:"timeBlock,omitempty"`
	TrafficFlag    TrafficFlag `json:"trafficFlag,omitempty"`
	ExpectedFreq   *float64    `json:"expectedFreq"`   // minutes, nil when no schedule rule matched
	ArrivalWeekday int         `json:"arrivalWeekday"` // 0=Monday..6=Sunday
}

// HasArrival reports whether the arrival timestamp was parsed
func (e *StopEvent) HasArrival() bool {
	return !e.ArrivalTime.IsZero()
}

// ServiceDate returns the civil date of the arrival as YYYY-MM-DD
func (e *StopEvent) ServiceDate() string {
	return e.ArrivalTime.Format(DateLayout)
}

// DateLayout is the layout used for calendar-date keys
const DateLayout = "2006-01-02"

// MondayWeekday converts Go's Sunday-based weekday to 0=Monday..6=Sunday
func MondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
