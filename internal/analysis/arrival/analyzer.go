package arrival

import (
	"context"
	"time"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	"github.com/jengzang/shuttle-analytics/internal/models"
)

// VarianceAnalyzer serves the arrival_variance view
// Skill: 到站间隔一致性 (arrival consistency per route and stop)
type VarianceAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewVarianceAnalyzer creates a new arrival variance analyzer
func NewVarianceAnalyzer(env *analysis.Env) analysis.Analyzer {
	return &VarianceAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(env, "arrival_variance"),
	}
}

// Analyze runs the variance engine over the filtered events
func (a *VarianceAnalyzer) Analyze(ctx context.Context, data analysis.Dataset, filter models.AnalysisFilter) (interface{}, error) {
	started := time.Now()
	events, err := data.StopEvents(ctx)
	if err != nil {
		return nil, err
	}

	result := ProcessArrivalTimes(analysis.FilterEvents(events, filter), a.options())
	a.LogCompleted(started, len(events), len(result.Variances))
	return result, nil
}

func (a *VarianceAnalyzer) options() Options {
	o := a.Env.Options
	return Options{
		LowerPercentile:     o.TrimLowerPercentile,
		UpperPercentile:     o.TrimUpperPercentile,
		RequireExpectedFreq: o.RequireExpectedFreq,
	}
}

func init() {
	analysis.RegisterAnalyzer("arrival_variance", NewVarianceAnalyzer)
}
