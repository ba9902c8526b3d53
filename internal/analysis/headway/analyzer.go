package headway

import (
	"context"
	"time"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	"github.com/jengzang/shuttle-analytics/internal/models"
)

// BunchingAnalyzer serves the headway_bunching view
type BunchingAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewBunchingAnalyzer creates a new bunching analyzer
func NewBunchingAnalyzer(env *analysis.Env) analysis.Analyzer {
	return &BunchingAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(env, "headway_bunching"),
	}
}

// Analyze computes headways over the filtered events. A time window in the
// filter turns the rates into per stop+hour-range rates.
func (a *BunchingAnalyzer) Analyze(ctx context.Context, data analysis.Dataset, filter models.AnalysisFilter) (interface{}, error) {
	started := time.Now()
	events, err := data.StopEvents(ctx)
	if err != nil {
		return nil, err
	}

	result := Analyze(analysis.FilterEvents(events, filter), Options{
		IQRMultiplier: a.Env.Options.IQRMultiplier,
		BunchingRatio: a.Env.Options.BunchingRatio,
	})
	a.LogCompleted(started, len(events), len(result.Headways))
	return result, nil
}

func init() {
	analysis.RegisterAnalyzer("headway_bunching", NewBunchingAnalyzer)
}
