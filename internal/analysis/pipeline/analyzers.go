package pipeline

import (
	"context"
	"time"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	"github.com/jengzang/shuttle-analytics/internal/models"
)

// EnrichedEventsAnalyzer returns the enriched stop-event table
type EnrichedEventsAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewEnrichedEventsAnalyzer creates the enriched_events view
func NewEnrichedEventsAnalyzer(env *analysis.Env) analysis.Analyzer {
	return &EnrichedEventsAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(env, "enriched_events"),
	}
}

// Analyze filters the enriched events
func (a *EnrichedEventsAnalyzer) Analyze(ctx context.Context, data analysis.Dataset, filter models.AnalysisFilter) (interface{}, error) {
	started := time.Now()
	events, err := data.StopEvents(ctx)
	if err != nil {
		return nil, err
	}

	out := analysis.FilterEvents(events, filter)
	a.LogCompleted(started, len(events), len(out))
	return out, nil
}

// ScheduleCoverageAnalyzer reports per route how many events matched a
// schedule rule
type ScheduleCoverageAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewScheduleCoverageAnalyzer creates the schedule_coverage view
func NewScheduleCoverageAnalyzer(env *analysis.Env) analysis.Analyzer {
	return &ScheduleCoverageAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(env, "schedule_coverage"),
	}
}

// Analyze computes match rates over the filtered events
func (a *ScheduleCoverageAnalyzer) Analyze(ctx context.Context, data analysis.Dataset, filter models.AnalysisFilter) (interface{}, error) {
	started := time.Now()
	events, err := data.StopEvents(ctx)
	if err != nil {
		return nil, err
	}

	coverage := NewMatcher(a.Env).CoverageByRoute(analysis.FilterEvents(events, filter))
	a.LogCompleted(started, len(events), len(coverage))
	return coverage, nil
}

func init() {
	analysis.RegisterAnalyzer("enriched_events", NewEnrichedEventsAnalyzer)
	analysis.RegisterAnalyzer("schedule_coverage", NewScheduleCoverageAnalyzer)
}
