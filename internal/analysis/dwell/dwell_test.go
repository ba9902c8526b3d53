package dwell

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	"github.com/jengzang/shuttle-analytics/internal/analysis/analysistest"
	"github.com/jengzang/shuttle-analytics/internal/config"
	"github.com/jengzang/shuttle-analytics/internal/models"
)

func seconds(s float64) *float64 {
	return &s
}

func fixture() []models.StopEvent {
	return []models.StopEvent{
		{RouteName: "North", StopName: "A", TimeBlock: models.TimeBlockNight, StopDurationSeconds: seconds(30)},
		{RouteName: "North", StopName: "A", TimeBlock: models.TimeBlockMorning, StopDurationSeconds: seconds(90)},
		{RouteName: "South", StopName: "B", TimeBlock: models.TimeBlockMorning, StopDurationSeconds: seconds(120)},
		{RouteName: "South", StopName: "C", TimeBlock: models.TimeBlockEvening},
	}
}

func TestByStop(t *testing.T) {
	out := ByStop(fixture())

	require.Len(t, out, 3)
	assert.Equal(t, "B", out[0].Key)
	assert.Equal(t, 120.0, *out[0].MeanStopDurationSeconds)
	assert.Equal(t, "A", out[1].Key)
	assert.Equal(t, 60.0, *out[1].MeanStopDurationSeconds)
	assert.Equal(t, 2, out[1].Events)
	assert.Equal(t, "C", out[2].Key)
	assert.Nil(t, out[2].MeanStopDurationSeconds)
}

func TestByTimeBlock(t *testing.T) {
	out := ByTimeBlock(fixture())

	require.Len(t, out, 3)
	assert.Equal(t, "Morning", out[0].Key)
	assert.Equal(t, 105.0, *out[0].MeanStopDurationSeconds)
	assert.Equal(t, "Evening", out[1].Key)
	assert.Equal(t, "Night", out[2].Key)
}

func TestByRoute(t *testing.T) {
	out := ByRoute(fixture())

	require.Len(t, out, 2)
	assert.Equal(t, "North", out[0].Key)
	assert.Equal(t, 60.0, *out[0].MeanStopDurationSeconds)
	assert.Equal(t, "South", out[1].Key)
	assert.Equal(t, 120.0, *out[1].MeanStopDurationSeconds)
}

func TestDwellAnalyzer(t *testing.T) {
	env := &analysis.Env{Options: config.DefaultAnalysisConfig()}
	a, err := analysis.GetAnalyzer("dwell", env)
	require.NoError(t, err)

	got, err := a.Analyze(context.Background(), &analysistest.Dataset{Events: fixture()},
		models.AnalysisFilter{Routes: []string{"North"}})
	require.NoError(t, err)
	result := got.(*Result)
	require.Len(t, result.ByRoute, 1)
	assert.Equal(t, "North", result.ByRoute[0].Key)

	sourceErr := errors.New("boom")
	_, err = a.Analyze(context.Background(), &analysistest.Dataset{Err: sourceErr}, models.AnalysisFilter{})
	assert.ErrorIs(t, err, sourceErr)
}
