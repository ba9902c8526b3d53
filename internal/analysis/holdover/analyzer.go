package holdover

import (
	"context"
	"time"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	"github.com/jengzang/shuttle-analytics/internal/models"
)

// Analyzer serves the holdover view
// Skill: 停站对照 (observed dwell vs known holdover stops)
type Analyzer struct {
	*analysis.BaseAnalyzer
}

// NewAnalyzer creates a new holdover analyzer
func NewAnalyzer(env *analysis.Env) analysis.Analyzer {
	return &Analyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(env, "holdover"),
	}
}

// Analyze reconciles the filtered events with the holdover reference
func (a *Analyzer) Analyze(ctx context.Context, data analysis.Dataset, filter models.AnalysisFilter) (interface{}, error) {
	started := time.Now()
	reconciler, err := NewReconciler(a.Env.Reference)
	if err != nil {
		return nil, err
	}

	events, err := data.StopEvents(ctx)
	if err != nil {
		return nil, err
	}

	out := reconciler.Reconcile(analysis.FilterEvents(events, filter))
	a.LogCompleted(started, len(events), len(out))
	return out, nil
}

func init() {
	analysis.RegisterAnalyzer("holdover", NewAnalyzer)
}
