package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/shuttle-analytics/internal/models"
	"github.com/jengzang/shuttle-analytics/internal/reference"
)

func nightTable() models.ScheduleTable {
	all := []int{0, 1, 2, 3, 4, 5, 6}
	return models.ScheduleTable{
		"North": {
			{Weekdays: all, StartHour: 16, EndHour: 23, FrequencyMinutes: 15},
			{Weekdays: all, StartHour: 23, EndHour: 28, FrequencyMinutes: 30},
		},
		"Weekday Only": {
			{Weekdays: []int{0, 1, 2, 3, 4}, StartHour: 6.5, EndHour: 21, FrequencyMinutes: 10},
			{Weekdays: []int{0, 1, 2, 3, 4}, StartHour: 6.5, EndHour: 21, FrequencyMinutes: 99},
		},
	}
}

func TestHourFrac(t *testing.T) {
	m := NewMatcher(nightTable(), 4, nil)

	assert.InDelta(t, 25.5, m.HourFrac(time.Date(2025, 3, 4, 1, 30, 0, 0, time.UTC)), 1e-9)
	assert.InDelta(t, 4.0, m.HourFrac(time.Date(2025, 3, 4, 4, 0, 0, 0, time.UTC)), 1e-9)
	assert.InDelta(t, 6.5, m.HourFrac(time.Date(2025, 3, 4, 6, 30, 0, 0, time.UTC)), 1e-9)
}

func TestZeroCutoffDisablesShift(t *testing.T) {
	m := NewMatcher(nightTable(), 0, nil)

	assert.InDelta(t, 1.5, m.HourFrac(time.Date(2025, 3, 4, 1, 30, 0, 0, time.UTC)), 1e-9)
	_, ok := m.ExpectedFrequency("North", time.Date(2025, 3, 4, 1, 30, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestExpectedFrequency(t *testing.T) {
	m := NewMatcher(nightTable(), 4, nil)

	tests := []struct {
		name    string
		route   string
		arrival time.Time
		want    float64
		ok      bool
	}{
		// 2025-03-04 is a Tuesday
		{"post-midnight continuation", "North", time.Date(2025, 3, 4, 1, 30, 0, 0, time.UTC), 30, true},
		{"evening block", "North", time.Date(2025, 3, 4, 18, 0, 0, 0, time.UTC), 15, true},
		{"end is exclusive", "North", time.Date(2025, 3, 4, 23, 0, 0, 0, time.UTC), 30, true},
		{"outside service", "North", time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC), 0, false},
		{"route key is trimmed", "  North ", time.Date(2025, 3, 4, 18, 0, 0, 0, time.UTC), 15, true},
		{"first rule wins", "Weekday Only", time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC), 10, true},
		{"weekday not covered", "Weekday Only", time.Date(2025, 3, 8, 8, 0, 0, 0, time.UTC), 0, false},
		{"unscheduled route", "Gleacher Express", time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC), 0, false},
		{"missing arrival", "North", time.Time{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.ExpectedFrequency(tt.route, tt.arrival)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackOnlyForUnscheduledRoutes(t *testing.T) {
	fallback := 30.0
	m := NewMatcher(nightTable(), 4, &fallback)

	got, ok := m.ExpectedFrequency("Gleacher Express", time.Date(2025, 3, 4, 8, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, 30.0, got)

	_, ok = m.ExpectedFrequency("North", time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}

func TestAssignIsIdempotent(t *testing.T) {
	m := NewMatcher(nightTable(), 4, nil)
	events := []models.StopEvent{
		{RouteName: "North", StopName: "A", ArrivalTime: time.Date(2025, 3, 4, 1, 30, 0, 0, time.UTC)},
		{RouteName: "North", StopName: "A", ArrivalTime: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)},
		{RouteName: "Unknown", StopName: "B", ArrivalTime: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)},
	}

	once := m.Assign(events)
	twice := m.Assign(once)

	require.Len(t, once, 3)
	require.NotNil(t, once[0].ExpectedFreq)
	assert.Equal(t, 30.0, *once[0].ExpectedFreq)
	assert.Nil(t, once[1].ExpectedFreq)
	assert.Nil(t, once[2].ExpectedFreq)
	assert.Equal(t, once, twice)
	assert.Nil(t, events[0].ExpectedFreq, "input must not be modified")
}

func TestCoverageByRoute(t *testing.T) {
	m := NewMatcher(nightTable(), 4, nil)
	events := m.Assign([]models.StopEvent{
		{RouteName: "North", ArrivalTime: time.Date(2025, 3, 4, 18, 0, 0, 0, time.UTC)},
		{RouteName: "North", ArrivalTime: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)},
		{RouteName: "Gleacher Express", ArrivalTime: time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)},
	})

	coverage := m.CoverageByRoute(events)

	require.Len(t, coverage, 2)
	assert.Equal(t, Coverage{RouteName: "Gleacher Express", Scheduled: false, Events: 1}, coverage[0])
	assert.Equal(t, Coverage{RouteName: "North", Scheduled: true, Events: 2, Matched: 1, MatchRate: 0.5}, coverage[1])
}

func TestDefaultReferenceSchedule(t *testing.T) {
	tables, err := reference.Default()
	require.NoError(t, err)
	m := NewMatcher(tables.Schedule, DefaultEarlyMorningCutoff, nil)

	// Friday night South Loop Shuttle runs until 00:30
	got, ok := m.ExpectedFrequency("South Loop Shuttle", time.Date(2025, 3, 7, 23, 45, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, 60.0, got)

	got, ok = m.ExpectedFrequency("Midway Metra", time.Date(2025, 3, 4, 6, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, 15.0, got)
}
