package models

// ScheduleRule is one piecewise service window of a route.
// StartHour and EndHour are fractional hours of day; EndHour may exceed 24
// to describe service that continues past midnight.
type ScheduleRule struct {
	Weekdays         []int   `yaml:"weekdays" json:"weekdays" validate:"required,min=1,dive,min=0,max=6"`
	StartHour        float64 `yaml:"start" json:"start" validate:"gte=0,lt=48"`
	EndHour          float64 `yaml:"end" json:"end" validate:"gtfield=StartHour,lte=48"`
	FrequencyMinutes float64 `yaml:"frequency" json:"frequency" validate:"gt=0"`
}

// AppliesOn reports whether the rule is valid on the weekday (0=Monday)
func (r ScheduleRule) AppliesOn(weekday int) bool {
	for _, d := range r.Weekdays {
		if d == weekday {
			return true
		}
	}
	return false
}

// Covers reports whether hourFrac lies in the half-open [StartHour, EndHour)
func (r ScheduleRule) Covers(hourFrac float64) bool {
	return r.StartHour <= hourFrac && hourFrac < r.EndHour
}

// ScheduleTable maps an exact route name to its ordered rules.
// The first matching rule wins.
type ScheduleTable map[string][]ScheduleRule

// HoldoverReference is one row of the manual holdover table
type HoldoverReference struct {
	Route           string  `yaml:"route" json:"route" validate:"required"`
	HoldoverStop    string  `yaml:"holdover_stop" json:"holdover_stop"`
	Duration        string  `yaml:"duration" json:"duration"` // "<N> minutes" or empty
	DurationMinutes float64 `yaml:"-" json:"durationMinutes"`
}
