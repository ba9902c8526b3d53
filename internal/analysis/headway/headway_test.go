package headway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	"github.com/jengzang/shuttle-analytics/internal/analysis/analysistest"
	"github.com/jengzang/shuttle-analytics/internal/config"
	"github.com/jengzang/shuttle-analytics/internal/models"
)

var at = analysistest.At

func arrivals(route, stop string, freq *float64, times ...time.Time) []models.StopEvent {
	out := make([]models.StopEvent, len(times))
	for i, t := range times {
		out[i] = models.StopEvent{RouteName: route, StopName: stop, ArrivalTime: t, ExpectedFreq: freq}
	}
	return out
}

func TestIsBunched(t *testing.T) {
	assert.True(t, IsBunched(8, 20, 0.5))
	assert.False(t, IsBunched(12, 20, 0.5))
	assert.False(t, IsBunched(10, 20, 0.5))
}

func TestComputeHeadways(t *testing.T) {
	events := arrivals("North", "A", analysistest.Freq(20),
		at(2025, time.March, 4, 18, 12),
		at(2025, time.March, 4, 18, 0),
		at(2025, time.March, 4, 18, 20),
	)
	// unknown frequency still serves as a predecessor
	events = append(events, models.StopEvent{RouteName: "North", StopName: "A", ArrivalTime: at(2025, time.March, 4, 18, 40)})
	events = append(events, arrivals("North", "A", analysistest.Freq(20), at(2025, time.March, 4, 19, 0))...)

	got := ComputeHeadways(events, 0.5)

	require.Len(t, got, 3)
	assert.Equal(t, 12.0, got[0].HeadwayMin)
	assert.False(t, got[0].IsBunched)
	assert.Equal(t, 8.0, got[1].HeadwayMin)
	assert.True(t, got[1].IsBunched)
	assert.Equal(t, 20.0, got[2].HeadwayMin)
	assert.Equal(t, "2025-03-04", got[2].Date)
	assert.Equal(t, 19, got[2].Hour)
}

func TestTrimByFrequencyUsesOwnGroup(t *testing.T) {
	var records []models.HeadwayRecord
	for _, h := range []float64{9, 10, 10, 11, 60} {
		records = append(records, models.HeadwayRecord{StopName: "A", HeadwayMin: h, ExpectedFreq: 10})
	}
	for _, h := range []float64{55, 60, 60, 65} {
		records = append(records, models.HeadwayRecord{StopName: "B", HeadwayMin: h, ExpectedFreq: 60})
	}

	kept, bounds := TrimByFrequency(records, 1.5)

	// the 60 minute headway is an outlier for the 10 minute group only
	assert.Len(t, kept, 8)
	assert.False(t, bounds[10].Contains(60))
	assert.True(t, bounds[60].Contains(60))
	for _, r := range kept {
		if r.ExpectedFreq == 10 {
			assert.NotEqual(t, 60.0, r.HeadwayMin)
		}
	}
}

func TestAnalyzeHonorsZeroOptions(t *testing.T) {
	// headways 8, 10, 10, 12, 30: Q1 = 10, Q3 = 12
	events := arrivals("North", "A", analysistest.Freq(20),
		at(2025, time.March, 4, 18, 0),
		at(2025, time.March, 4, 18, 8),
		at(2025, time.March, 4, 18, 18),
		at(2025, time.March, 4, 18, 28),
		at(2025, time.March, 4, 18, 40),
		at(2025, time.March, 4, 19, 10),
	)

	tests := []struct {
		name    string
		opts    Options
		kept    int
		bunched int
	}{
		{"defaults", Options{IQRMultiplier: DefaultIQRMultiplier, BunchingRatio: DefaultBunchingRatio}, 4, 1},
		{"zero multiplier trims to quartiles", Options{IQRMultiplier: 0, BunchingRatio: DefaultBunchingRatio}, 3, 0},
		{"zero ratio flags nothing", Options{IQRMultiplier: DefaultIQRMultiplier, BunchingRatio: 0}, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(events, tt.opts)
			assert.Len(t, got.Headways, tt.kept)
			assert.Equal(t, 5-tt.kept, got.Dropped)
			bunched := 0
			for _, h := range got.Headways {
				if h.IsBunched {
					bunched++
				}
			}
			assert.Equal(t, tt.bunched, bunched)
		})
	}
}

func TestBunchingRates(t *testing.T) {
	rates := BunchingRates([]models.HeadwayRecord{
		{StopName: "A", IsBunched: true},
		{StopName: "A", IsBunched: false},
		{StopName: "B", IsBunched: true},
		{StopName: "C", IsBunched: false},
	})

	assert.Equal(t, []models.BunchingRate{
		{StopName: "B", BunchingRate: 1, Samples: 1},
		{StopName: "A", BunchingRate: 0.5, Samples: 2},
		{StopName: "C", BunchingRate: 0, Samples: 1},
	}, rates)
}

func TestBunchingAnalyzer(t *testing.T) {
	env := &analysis.Env{Options: config.DefaultAnalysisConfig()}
	data := &analysistest.Dataset{Events: arrivals("North", "A", analysistest.Freq(20),
		at(2025, time.March, 4, 18, 0),
		at(2025, time.March, 4, 18, 8),
		at(2025, time.March, 4, 18, 20),
		at(2025, time.March, 4, 18, 40),
	)}

	a, err := analysis.GetAnalyzer("headway_bunching", env)
	require.NoError(t, err)

	got, err := a.Analyze(context.Background(), data, models.AnalysisFilter{})
	require.NoError(t, err)
	result := got.(*Result)
	require.Len(t, result.Headways, 3)
	require.Len(t, result.BunchingRates, 1)
	assert.InDelta(t, 1.0/3.0, result.BunchingRates[0].BunchingRate, 1e-9)
}
