// Package pipeline runs the enrichment stages over a loaded record set.
package pipeline

import (
	"log/slog"
	"time"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	"github.com/jengzang/shuttle-analytics/internal/analysis/schedule"
	"github.com/jengzang/shuttle-analytics/internal/analysis/temporal"
	"github.com/jengzang/shuttle-analytics/internal/logging"
	"github.com/jengzang/shuttle-analytics/internal/models"
)

// Summary describes one enrichment run
type Summary struct {
	Events            int                        `json:"events"`
	WithArrival       int                        `json:"withArrival"`
	WithExpectedFreq  int                        `json:"withExpectedFreq"`
	TrafficThresholds temporal.TrafficThresholds `json:"trafficThresholds"`
}

// NewMatcher builds the schedule matcher configured by env
func NewMatcher(env *analysis.Env) *schedule.Matcher {
	return schedule.NewMatcher(env.Reference.Schedule, env.Options.EarlyMorningCutoffHour, env.Options.UnmatchedFrequency)
}

// Enrich attaches time blocks, traffic flags and expected frequencies.
// Every stage works on a copy, so raw events are left untouched. Traffic
// tiers are computed over all events passed in.
func Enrich(events []models.StopEvent, env *analysis.Env) ([]models.StopEvent, Summary) {
	started := time.Now()

	// 1. Time blocks
	enriched := temporal.AddTimeBlocks(events)

	// 2. Traffic tiers
	enriched, thresholds := temporal.AddTrafficFlags(enriched, env.Options.TrafficLowQuantile, env.Options.TrafficHighQuantile)

	// 3. Expected frequency
	enriched = NewMatcher(env).Assign(enriched)

	summary := Summary{Events: len(enriched), TrafficThresholds: thresholds}
	for i := range enriched {
		if enriched[i].HasArrival() {
			summary.WithArrival++
		}
		if enriched[i].ExpectedFreq != nil {
			summary.WithExpectedFreq++
		}
	}

	if env.Logger != nil {
		logging.LogOperation(env.Logger, "enrichment_completed",
			slog.String("component", "pipeline"),
			slog.Int("events", summary.Events),
			slog.Int("with_arrival", summary.WithArrival),
			slog.Int("with_expected_freq", summary.WithExpectedFreq),
			slog.Float64("traffic_low", thresholds.Low),
			slog.Float64("traffic_high", thresholds.High),
			slog.Duration("duration", time.Since(started)))
	}

	return enriched, summary
}
