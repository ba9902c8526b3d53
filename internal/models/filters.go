package models

// AnalysisFilter narrows an analytic view. Filters are applied after
// enrichment, so stage outputs that depend on the full record set (traffic
// tiers) are unaffected by them.
type AnalysisFilter struct {
	Routes       []string `form:"route"`
	Stops        []string `form:"stop"`
	TimeBlocks   []string `form:"timeBlock" binding:"omitempty,dive,oneof=Morning Afternoon Evening Night"`
	TrafficFlags []string `form:"traffic" binding:"omitempty,dive,oneof=low mid high"`
	Weekdays     []int    `form:"weekday" binding:"omitempty,dive,min=0,max=6"`
	StartHour    *int     `form:"startHour" binding:"omitempty,min=0,max=23"` // inclusive
	EndHour      *int     `form:"endHour" binding:"omitempty,min=1,max=24"`   // exclusive; wraps past midnight when < StartHour
	StartDate    string   `form:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate      string   `form:"endDate" binding:"omitempty,datetime=2006-01-02"`
}

// IsEmpty reports whether the filter selects everything
func (f AnalysisFilter) IsEmpty() bool {
	return len(f.Routes) == 0 && len(f.Stops) == 0 && len(f.TimeBlocks) == 0 &&
		len(f.TrafficFlags) == 0 && len(f.Weekdays) == 0 &&
		f.StartHour == nil && f.EndHour == nil && f.StartDate == "" && f.EndDate == ""
}

// Matches reports whether an enriched stop event passes the filter
func (f AnalysisFilter) Matches(e *StopEvent) bool {
	if !containsOrEmpty(f.Routes, e.RouteName) || !containsOrEmpty(f.Stops, e.StopName) {
		return false
	}
	if !containsOrEmpty(f.TimeBlocks, string(e.TimeBlock)) || !containsOrEmpty(f.TrafficFlags, string(e.TrafficFlag)) {
		return false
	}
	if f.constrainsTime() && !e.HasArrival() {
		return false
	}
	if len(f.Weekdays) > 0 && !containsInt(f.Weekdays, e.ArrivalWeekday) {
		return false
	}
	if !f.matchesHour(e.Hour) {
		return false
	}
	return f.matchesDate(e.ServiceDate())
}

// MatchesLoad reports whether a passenger load observation passes the filter.
// Weekday, hour and time block come from the arrival time the same way the
// time classifier derives them for stop events. Traffic flags do not apply
// to loads; see HasTrafficFlags.
func (f AnalysisFilter) MatchesLoad(e *PassengerLoadEvent) bool {
	if !containsOrEmpty(f.Routes, e.RouteName) {
		return false
	}
	if len(f.Stops) > 0 && !containsOrEmpty(f.Stops, e.StopName) {
		return false
	}
	if e.ArrivalTime.IsZero() {
		return !f.constrainsTime() && len(f.TimeBlocks) == 0
	}
	hour := e.ArrivalTime.Hour()
	if !containsOrEmpty(f.TimeBlocks, string(TimeBlockOfHour(hour))) {
		return false
	}
	if len(f.Weekdays) > 0 && !containsInt(f.Weekdays, MondayWeekday(e.ArrivalTime)) {
		return false
	}
	if !f.matchesHour(hour) {
		return false
	}
	return f.matchesDate(e.ArrivalTime.Format(DateLayout))
}

// HasTrafficFlags reports whether the filter selects traffic tiers
func (f AnalysisFilter) HasTrafficFlags() bool {
	return len(f.TrafficFlags) > 0
}

func (f AnalysisFilter) constrainsTime() bool {
	return f.StartHour != nil || f.EndHour != nil || len(f.Weekdays) > 0 || f.StartDate != "" || f.EndDate != ""
}

func (f AnalysisFilter) matchesHour(hour int) bool {
	start, end := 0, 24
	if f.StartHour != nil {
		start = *f.StartHour
	}
	if f.EndHour != nil {
		end = *f.EndHour
	}
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

func (f AnalysisFilter) matchesDate(date string) bool {
	if f.StartDate != "" && date < f.StartDate {
		return false
	}
	if f.EndDate != "" && date > f.EndDate {
		return false
	}
	return true
}

func containsOrEmpty(values []string, v string) bool {
	if len(values) == 0 {
		return true
	}
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(values []int, v int) bool {
	for _, i := range values {
		if i == v {
			return true
		}
	}
	return false
}
