package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	"github.com/jengzang/shuttle-analytics/internal/analysis/analysistest"
	"github.com/jengzang/shuttle-analytics/internal/analysis/schedule"
	"github.com/jengzang/shuttle-analytics/internal/config"
	"github.com/jengzang/shuttle-analytics/internal/models"
	"github.com/jengzang/shuttle-analytics/internal/reference"
)

func testEnv(t *testing.T) *analysis.Env {
	t.Helper()
	tables, err := reference.Default()
	require.NoError(t, err)
	return &analysis.Env{Reference: tables, Options: config.DefaultAnalysisConfig()}
}

func TestEnrich(t *testing.T) {
	env := testEnv(t)
	events := []models.StopEvent{
		{RouteName: "North", StopName: "Reynolds Club", ArrivalTime: analysistest.At(2025, time.March, 4, 1, 30)},
		{RouteName: "North", StopName: "Reynolds Club", ArrivalTime: analysistest.At(2025, time.March, 4, 18, 0)},
		{RouteName: "Gleacher Express", StopName: "Gleacher Center", ArrivalTime: analysistest.At(2025, time.March, 4, 8, 0)},
		{RouteName: "North", StopName: "Broken Row"},
	}

	out, summary := Enrich(events, env)

	require.Len(t, out, 4)
	assert.Equal(t, models.TimeBlockNight, out[0].TimeBlock)
	require.NotNil(t, out[0].ExpectedFreq)
	assert.Equal(t, 30.0, *out[0].ExpectedFreq)
	assert.Equal(t, models.TimeBlockEvening, out[1].TimeBlock)
	assert.Equal(t, 15.0, *out[1].ExpectedFreq)
	assert.Nil(t, out[2].ExpectedFreq)
	assert.Equal(t, models.TrafficHigh, out[0].TrafficFlag)
	assert.Empty(t, out[3].TimeBlock)
	assert.Nil(t, out[3].ExpectedFreq)

	assert.Equal(t, 4, summary.Events)
	assert.Equal(t, 3, summary.WithArrival)
	assert.Equal(t, 2, summary.WithExpectedFreq)

	assert.Nil(t, events[0].ExpectedFreq)
	assert.Empty(t, events[0].TimeBlock)
}

func TestEnrichedEventsAnalyzer(t *testing.T) {
	env := testEnv(t)
	events, _ := Enrich([]models.StopEvent{
		{RouteName: "North", StopName: "A", ArrivalTime: analysistest.At(2025, time.March, 4, 18, 0)},
		{RouteName: "South", StopName: "B", ArrivalTime: analysistest.At(2025, time.March, 4, 9, 0)},
	}, env)

	a, err := analysis.GetAnalyzer("enriched_events", env)
	require.NoError(t, err)

	got, err := a.Analyze(context.Background(), &analysistest.Dataset{Events: events},
		models.AnalysisFilter{TimeBlocks: []string{"Morning"}})
	require.NoError(t, err)
	rows := got.([]models.StopEvent)
	require.Len(t, rows, 1)
	assert.Equal(t, "South", rows[0].RouteName)
}

func TestScheduleCoverageAnalyzer(t *testing.T) {
	env := testEnv(t)
	events, _ := Enrich([]models.StopEvent{
		{RouteName: "North", StopName: "A", ArrivalTime: analysistest.At(2025, time.March, 4, 18, 0)},
		{RouteName: "North", StopName: "A", ArrivalTime: analysistest.At(2025, time.March, 4, 12, 0)},
	}, env)

	a, err := analysis.GetAnalyzer("schedule_coverage", env)
	require.NoError(t, err)

	got, err := a.Analyze(context.Background(), &analysistest.Dataset{Events: events}, models.AnalysisFilter{})
	require.NoError(t, err)
	assert.Equal(t, []schedule.Coverage{
		{RouteName: "North", Scheduled: true, Events: 2, Matched: 1, MatchRate: 0.5},
	}, got)
}
