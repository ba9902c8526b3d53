// Package arrival computes inter-arrival gap statistics per route and stop.
package arrival

import (
	"sort"

	"github.com/jengzang/shuttle-analytics/internal/models"
	"github.com/jengzang/shuttle-analytics/internal/stats"
)

// Options controls gap trimming
type Options struct {
	LowerPercentile     float64 // 0-100
	UpperPercentile     float64 // 0-100
	RequireExpectedFreq bool
}

// Result is the output of ProcessArrivalTimes
type Result struct {
	Gaps      []models.ArrivalGap     `json:"gaps"`
	Variances []models.VarianceRecord `json:"variances"`
	Medians   []models.MedianRecord   `json:"medians"`
	Bounds    *stats.Bounds           `json:"bounds"` // nil when there were no gaps
}

type groupKey struct {
	route string
	stop  string
	date  string
}

type pairKey struct {
	route string
	stop  string
}

// ConsecutiveGaps groups events by route, stop and service date, sorts each
// group by arrival and returns the minutes between neighbours. The first
// event of a group has no predecessor and yields no gap. Events without an
// arrival time are skipped.
func ConsecutiveGaps(events []models.StopEvent, requireExpectedFreq bool) []models.ArrivalGap {
	groups := make(map[groupKey][]*models.StopEvent)
	var keys []groupKey
	for i := range events {
		e := &events[i]
		if !e.HasArrival() || (requireExpectedFreq && e.ExpectedFreq == nil) {
			continue
		}
		k := groupKey{route: e.RouteName, stop: e.StopName, date: e.ServiceDate()}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], e)
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].route != keys[j].route {
			return keys[i].route < keys[j].route
		}
		if keys[i].stop != keys[j].stop {
			return keys[i].stop < keys[j].stop
		}
		return keys[i].date < keys[j].date
	})

	var gaps []models.ArrivalGap
	for _, k := range keys {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].ArrivalTime.Before(group[j].ArrivalTime)
		})
		for i := 1; i < len(group); i++ {
			gaps = append(gaps, models.ArrivalGap{
				RouteName:    k.route,
				StopName:     k.stop,
				ServiceDate:  k.date,
				ArrivalTime:  group[i].ArrivalTime,
				ArrivalDiff:  group[i].ArrivalTime.Sub(group[i-1].ArrivalTime).Minutes(),
				ExpectedFreq: group[i].ExpectedFreq,
			})
		}
	}
	return gaps
}

// ProcessArrivalTimes computes per route+stop arrival-gap standard deviation
// and median. Gaps outside the global [lower, upper] percentile band are
// dropped before aggregation. A pair with fewer than two surviving gaps gets
// a nil standard deviation.
func ProcessArrivalTimes(events []models.StopEvent, opts Options) *Result {
	gaps := ConsecutiveGaps(events, opts.RequireExpectedFreq)
	result := &Result{
		Gaps:      []models.ArrivalGap{},
		Variances: []models.VarianceRecord{},
		Medians:   []models.MedianRecord{},
	}
	if len(gaps) == 0 {
		return result
	}

	// 1. Global trim
	diffs := make([]float64, len(gaps))
	for i := range gaps {
		diffs[i] = gaps[i].ArrivalDiff
	}
	bounds := stats.PercentileBounds(diffs, opts.LowerPercentile, opts.UpperPercentile)
	result.Bounds = &bounds

	// 2. Aggregate per route+stop
	perPair := make(map[pairKey][]float64)
	var pairs []pairKey
	for _, g := range gaps {
		if !bounds.Contains(g.ArrivalDiff) {
			continue
		}
		result.Gaps = append(result.Gaps, g)
		k := pairKey{route: g.RouteName, stop: g.StopName}
		if _, ok := perPair[k]; !ok {
			pairs = append(pairs, k)
		}
		perPair[k] = append(perPair[k], g.ArrivalDiff)
	}

	for _, k := range pairs {
		values := perPair[k]
		result.Variances = append(result.Variances, models.VarianceRecord{
			RouteName:    k.route,
			StopName:     k.stop,
			ArrivalStdev: stats.NullableStdDev(values),
			Samples:      len(values),
		})
		result.Medians = append(result.Medians, models.MedianRecord{
			RouteName:     k.route,
			StopName:      k.stop,
			ArrivalMedian: stats.NullableMedian(values),
			Samples:       len(values),
		})
	}

	return result
}
