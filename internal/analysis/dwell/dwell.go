// Package dwell summarizes stop durations.
package dwell

import (
	"context"
	"sort"
	"time"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	"github.com/jengzang/shuttle-analytics/internal/models"
	"github.com/jengzang/shuttle-analytics/internal/stats"
)

// Result is the dwell view
type Result struct {
	ByStop      []models.DwellSummary `json:"byStop"`
	ByTimeBlock []models.DwellSummary `json:"byTimeBlock"`
	ByRoute     []models.DwellSummary `json:"byRoute"`
}

func summarize(events []models.StopEvent, keyOf func(*models.StopEvent) (string, bool)) map[string]*models.DwellSummary {
	durations := make(map[string][]float64)
	out := make(map[string]*models.DwellSummary)
	for i := range events {
		e := &events[i]
		k, ok := keyOf(e)
		if !ok {
			continue
		}
		s, seen := out[k]
		if !seen {
			s = &models.DwellSummary{Key: k}
			out[k] = s
		}
		s.Events++
		if e.StopDurationSeconds != nil {
			durations[k] = append(durations[k], *e.StopDurationSeconds)
		}
	}
	for k, s := range out {
		s.MeanStopDurationSeconds = stats.NullableMean(durations[k])
	}
	return out
}

func flatten(m map[string]*models.DwellSummary) []models.DwellSummary {
	out := make([]models.DwellSummary, 0, len(m))
	for _, s := range m {
		out = append(out, *s)
	}
	return out
}

func mean(s models.DwellSummary) float64 {
	if s.MeanStopDurationSeconds == nil {
		return -1
	}
	return *s.MeanStopDurationSeconds
}

// ByStop returns mean stop duration per stop, longest first. Stops with no
// parseable duration sort last.
func ByStop(events []models.StopEvent) []models.DwellSummary {
	out := flatten(summarize(events, func(e *models.StopEvent) (string, bool) {
		return e.StopName, e.StopName != ""
	}))
	sort.Slice(out, func(i, j int) bool {
		if mi, mj := mean(out[i]), mean(out[j]); mi != mj {
			return mi > mj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// ByTimeBlock returns mean stop duration per time block in day order
func ByTimeBlock(events []models.StopEvent) []models.DwellSummary {
	m := summarize(events, func(e *models.StopEvent) (string, bool) {
		return string(e.TimeBlock), e.TimeBlock != ""
	})
	out := make([]models.DwellSummary, 0, len(m))
	for _, b := range models.TimeBlocks {
		if s, ok := m[string(b)]; ok {
			out = append(out, *s)
		}
	}
	return out
}

// ByRoute returns mean stop duration per route sorted by name
func ByRoute(events []models.StopEvent) []models.DwellSummary {
	out := flatten(summarize(events, func(e *models.StopEvent) (string, bool) {
		return e.RouteName, e.RouteName != ""
	}))
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Analyzer serves the dwell view
// Skill: 停站时长分布 (dwell time by stop, day part and route)
type Analyzer struct {
	*analysis.BaseAnalyzer
}

// NewAnalyzer creates a new dwell analyzer
func NewAnalyzer(env *analysis.Env) analysis.Analyzer {
	return &Analyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(env, "dwell"),
	}
}

// Analyze summarizes dwell over the filtered events
func (a *Analyzer) Analyze(ctx context.Context, data analysis.Dataset, filter models.AnalysisFilter) (interface{}, error) {
	started := time.Now()
	events, err := data.StopEvents(ctx)
	if err != nil {
		return nil, err
	}

	filtered := analysis.FilterEvents(events, filter)
	result := &Result{
		ByStop:      ByStop(filtered),
		ByTimeBlock: ByTimeBlock(filtered),
		ByRoute:     ByRoute(filtered),
	}

	a.LogCompleted(started, len(events), len(result.ByStop))
	return result, nil
}

func init() {
	analysis.RegisterAnalyzer("dwell", NewAnalyzer)
}
