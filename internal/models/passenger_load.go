package models

import "time"

// PassengerLoadEvent is one observation of ridership count
type PassengerLoadEvent struct {
	RouteName     string    `json:"routeName"`
	StopName      string    `json:"stopName,omitempty"`
	ArrivalTime   time.Time `json:"arrivalTime"`
	PassengerLoad *int64    `json:"passengerLoad"` // nil when unparseable

	// Calendar features
	Date       string `json:"date,omitempty"`
	WeekDay    string `json:"week_day,omitempty"`
	Month      string `json:"month,omitempty"`
	DayOfMonth int    `json:"day_of_month,omitempty"`
	MonthWeek  int    `json:"month_week,omitempty"`
	Hour       int    `json:"hour"`
}

// WeekDayOrder is the Monday-first ordering used for pivoting ridership
var WeekDayOrder = []string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
}

// WeekDayIndex returns the Monday-first position of a weekday name, or -1
func WeekDayIndex(name string) int {
	for i, d := range WeekDayOrder {
		if d == name {
			return i
		}
	}
	return -1
}
