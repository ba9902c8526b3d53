package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/shuttle-analytics/internal/models"
)

type countAnalyzer struct {
	*BaseAnalyzer
}

func (a *countAnalyzer) Analyze(ctx context.Context, data Dataset, filter models.AnalysisFilter) (interface{}, error) {
	events, err := data.StopEvents(ctx)
	if err != nil {
		return nil, err
	}
	return len(FilterEvents(events, filter)), nil
}

type staticDataset struct {
	events []models.StopEvent
}

func (d staticDataset) StopEvents(context.Context) ([]models.StopEvent, error) {
	return d.events, nil
}

func (d staticDataset) PassengerLoads(context.Context) ([]models.PassengerLoadEvent, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	RegisterAnalyzer("test_count", func(env *Env) Analyzer {
		return &countAnalyzer{BaseAnalyzer: NewBaseAnalyzer(env, "test_count")}
	})
	defer delete(AnalyzerRegistry, "test_count")

	assert.Contains(t, Names(), "test_count")

	a, err := GetAnalyzer("test_count", &Env{})
	require.NoError(t, err)
	assert.Equal(t, "test_count", a.GetName())

	data := staticDataset{events: []models.StopEvent{
		{RouteName: "North", StopName: "A"},
		{RouteName: "South", StopName: "B"},
	}}
	got, err := a.Analyze(context.Background(), data, models.AnalysisFilter{Routes: []string{"North"}})
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	_, err = GetAnalyzer("nope", &Env{})
	assert.ErrorIs(t, err, ErrUnknownAnalyzer)
}

func TestFilterLoads(t *testing.T) {
	loads := []models.PassengerLoadEvent{
		{RouteName: "North", ArrivalTime: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		{RouteName: "North", ArrivalTime: time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)},
		{RouteName: "East", ArrivalTime: time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC)},
	}

	got := FilterLoads(loads, models.AnalysisFilter{Routes: []string{"North"}, StartDate: "2025-03-05"})
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].ArrivalTime.Day())
	assert.Len(t, FilterLoads(loads, models.AnalysisFilter{}), 3)
}
