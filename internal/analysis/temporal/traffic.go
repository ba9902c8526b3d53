package temporal

import (
	"github.com/jengzang/shuttle-analytics/internal/models"
	"github.com/jengzang/shuttle-analytics/internal/stats"
)

// TrafficThresholds holds the per-stop event-count cut points
type TrafficThresholds struct {
	Low  float64 `json:"low"`  // counts <= Low are low traffic
	High float64 `json:"high"` // counts > High are high traffic
}

// Classify buckets a stop's event count. A count equal to a threshold falls
// into the lower tier.
func (t TrafficThresholds) Classify(count int) models.TrafficFlag {
	c := float64(count)
	switch {
	case c <= t.Low:
		return models.TrafficLow
	case c <= t.High:
		return models.TrafficMid
	default:
		return models.TrafficHigh
	}
}

// StopCounts counts events per stop name. Events without a stop name are
// not counted.
func StopCounts(events []models.StopEvent) map[string]int {
	counts := make(map[string]int)
	for i := range events {
		if name := events[i].StopName; name != "" {
			counts[name]++
		}
	}
	return counts
}

// ComputeTrafficThresholds takes the lowQ and highQ quantiles of the
// per-stop count distribution
func ComputeTrafficThresholds(counts map[string]int, lowQ, highQ float64) TrafficThresholds {
	values := make([]float64, 0, len(counts))
	for _, c := range counts {
		values = append(values, float64(c))
	}
	return TrafficThresholds{
		Low:  stats.Quantile(values, lowQ),
		High: stats.Quantile(values, highQ),
	}
}

// AddTrafficFlags returns a copy of events with TrafficFlag joined on stop
// name. Counts are taken over every event passed in, so callers must pass
// the full record set rather than a filtered view.
func AddTrafficFlags(events []models.StopEvent, lowQ, highQ float64) ([]models.StopEvent, TrafficThresholds) {
	counts := StopCounts(events)
	thresholds := ComputeTrafficThresholds(counts, lowQ, highQ)

	flags := make(map[string]models.TrafficFlag, len(counts))
	for stop, c := range counts {
		flags[stop] = thresholds.Classify(c)
	}

	out := make([]models.StopEvent, len(events))
	copy(out, events)
	for i := range out {
		out[i].TrafficFlag = flags[out[i].StopName]
	}

	return out, thresholds
}
