package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/jengzang/shuttle-analytics/internal/models"
)

// DefaultEarlyMorningCutoff is the hour below which an arrival is treated as
// the continuation of the previous evening's service
const DefaultEarlyMorningCutoff = 4.0

// Matcher assigns expected service frequencies from a schedule table.
// It holds no mutable state and is safe for concurrent use.
type Matcher struct {
	table    models.ScheduleTable
	cutoff   float64
	fallback *float64
}

// NewMatcher creates a matcher over table.
// fallback, when non-nil, is used only for routes that have no entry in the
// table at all. A scheduled route whose rules do not cover an arrival stays
// unknown. A cutoff of 0 disables the post-midnight shift.
func NewMatcher(table models.ScheduleTable, cutoff float64, fallback *float64) *Matcher {
	var fb *float64
	if fallback != nil {
		v := *fallback
		fb = &v
	}
	return &Matcher{table: table, cutoff: cutoff, fallback: fb}
}

// HourFrac returns the fractional hour used to test rule intervals.
// 1:30 AM becomes 25.5 so it can match a rule spanning 16-28.
func (m *Matcher) HourFrac(t time.Time) float64 {
	h := float64(t.Hour()) + float64(t.Minute())/60
	if h < m.cutoff {
		h += 24
	}
	return h
}

// Rules returns the ordered rules of a route, nil when it is not scheduled
func (m *Matcher) Rules(route string) []models.ScheduleRule {
	return m.table[strings.TrimSpace(route)]
}

// ExpectedFrequency returns the frequency of the first rule whose weekday set
// and [start, end) window contain the arrival. ok is false when no rule
// matched and no fallback applies.
func (m *Matcher) ExpectedFrequency(route string, arrival time.Time) (float64, bool) {
	if arrival.IsZero() {
		return 0, false
	}

	rules, scheduled := m.table[strings.TrimSpace(route)]
	if !scheduled {
		if m.fallback != nil {
			return *m.fallback, true
		}
		return 0, false
	}

	weekday := models.MondayWeekday(arrival)
	hourFrac := m.HourFrac(arrival)
	for _, rule := range rules {
		if rule.AppliesOn(weekday) && rule.Covers(hourFrac) {
			return rule.FrequencyMinutes, true
		}
	}
	return 0, false
}

// Assign returns a copy of events with ExpectedFreq set. Any value already
// present is recomputed, so assigning twice gives the same result.
func (m *Matcher) Assign(events []models.StopEvent) []models.StopEvent {
	out := make([]models.StopEvent, len(events))
	copy(out, events)

	for i := range out {
		out[i].ExpectedFreq = nil
		if freq, ok := m.ExpectedFrequency(out[i].RouteName, out[i].ArrivalTime); ok {
			f := freq
			out[i].ExpectedFreq = &f
		}
	}
	return out
}

// Coverage counts matched and unmatched events per route
type Coverage struct {
	RouteName string  `json:"routeName"`
	Scheduled bool    `json:"scheduled"`
	Events    int     `json:"events"`
	Matched   int     `json:"matched"`
	MatchRate float64 `json:"match_rate"`
}

// CoverageByRoute summarizes how many events of each route received an
// expected frequency. Rows are sorted by route name.
func (m *Matcher) CoverageByRoute(events []models.StopEvent) []Coverage {
	byRoute := make(map[string]*Coverage)
	var order []string
	for i := range events {
		e := &events[i]
		c, ok := byRoute[e.RouteName]
		if !ok {
			_, scheduled := m.table[strings.TrimSpace(e.RouteName)]
			c = &Coverage{RouteName: e.RouteName, Scheduled: scheduled}
			byRoute[e.RouteName] = c
			order = append(order, e.RouteName)
		}
		c.Events++
		if e.ExpectedFreq != nil {
			c.Matched++
		}
	}

	sort.Strings(order)
	out := make([]Coverage, 0, len(order))
	for _, route := range order {
		c := byRoute[route]
		c.MatchRate = float64(c.Matched) / float64(c.Events)
		out = append(out, *c)
	}
	return out
}
