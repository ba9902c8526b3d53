// Package headway detects bunched arrivals against the scheduled frequency.
package headway

import (
	"sort"

	"github.com/jengzang/shuttle-analytics/internal/models"
	"github.com/jengzang/shuttle-analytics/internal/stats"
)

const (
	// DefaultIQRMultiplier is k in [Q1 - k*IQR, Q3 + k*IQR]
	DefaultIQRMultiplier = 1.5
	// DefaultBunchingRatio flags headways below this share of the expected frequency
	DefaultBunchingRatio = 0.5
)

// Options controls trimming and the bunching threshold
type Options struct {
	IQRMultiplier float64
	BunchingRatio float64
}

// Result is the output of Analyze
type Result struct {
	Headways      []models.HeadwayRecord   `json:"headways"`
	BunchingRates []models.BunchingRate    `json:"bunching_rates"`
	Bounds        map[float64]stats.Bounds `json:"-"`
	Dropped       int                      `json:"dropped"` // rows removed by the IQR trim
}

type groupKey struct {
	route string
	stop  string
	date  string
}

// IsBunched reports whether headway is below ratio times the expected frequency
func IsBunched(headwayMin, expectedFreq, ratio float64) bool {
	return headwayMin < ratio*expectedFreq
}

// ComputeHeadways returns the backward headway of every event that has a
// predecessor on the same route, stop and service date. Events with an
// unknown expected frequency still act as predecessors but produce no row.
func ComputeHeadways(events []models.StopEvent, ratio float64) []models.HeadwayRecord {
	groups := make(map[groupKey][]*models.StopEvent)
	var keys []groupKey
	for i := range events {
		e := &events[i]
		if !e.HasArrival() {
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

	var out []models.HeadwayRecord
	for _, k := range keys {
		group := groups[k]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].ArrivalTime.Before(group[j].ArrivalTime)
		})
		for i := 1; i < len(group); i++ {
			e := group[i]
			if e.ExpectedFreq == nil {
				continue
			}
			h := e.ArrivalTime.Sub(group[i-1].ArrivalTime).Minutes()
			out = append(out, models.HeadwayRecord{
				RouteName:    k.route,
				StopName:     k.stop,
				Date:         k.date,
				ArrivalTime:  e.ArrivalTime,
				Hour:         e.ArrivalTime.Hour(),
				HeadwayMin:   h,
				ExpectedFreq: *e.ExpectedFreq,
				IsBunched:    IsBunched(h, *e.ExpectedFreq, ratio),
			})
		}
	}
	return out
}

// TrimByFrequency drops headways outside the IQR bound of their own
// expected-frequency group
func TrimByFrequency(records []models.HeadwayRecord, k float64) ([]models.HeadwayRecord, map[float64]stats.Bounds) {
	byFreq := make(map[float64][]float64)
	for _, r := range records {
		byFreq[r.ExpectedFreq] = append(byFreq[r.ExpectedFreq], r.HeadwayMin)
	}

	bounds := make(map[float64]stats.Bounds, len(byFreq))
	for freq, values := range byFreq {
		bounds[freq] = stats.IQRBounds(values, k)
	}

	out := make([]models.HeadwayRecord, 0, len(records))
	for _, r := range records {
		if bounds[r.ExpectedFreq].Contains(r.HeadwayMin) {
			out = append(out, r)
		}
	}
	return out, bounds
}

// BunchingRates returns the share of bunched headways per stop, sorted by
// descending rate and then stop name
func BunchingRates(records []models.HeadwayRecord) []models.BunchingRate {
	type tally struct{ bunched, total int }
	perStop := make(map[string]*tally)
	for _, r := range records {
		t, ok := perStop[r.StopName]
		if !ok {
			t = &tally{}
			perStop[r.StopName] = t
		}
		t.total++
		if r.IsBunched {
			t.bunched++
		}
	}

	out := make([]models.BunchingRate, 0, len(perStop))
	for stop, t := range perStop {
		out = append(out, models.BunchingRate{
			StopName:     stop,
			BunchingRate: float64(t.bunched) / float64(t.total),
			Samples:      t.total,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BunchingRate != out[j].BunchingRate {
			return out[i].BunchingRate > out[j].BunchingRate
		}
		return out[i].StopName < out[j].StopName
	})
	return out
}

// Analyze runs headway computation, per-frequency trimming and aggregation.
// Options are used as given: a zero IQRMultiplier trims to [Q1, Q3] and a
// zero BunchingRatio flags nothing.
func Analyze(events []models.StopEvent, opts Options) *Result {
	raw := ComputeHeadways(events, opts.BunchingRatio)
	kept, bounds := TrimByFrequency(raw, opts.IQRMultiplier)

	return &Result{
		Headways:      kept,
		BunchingRates: BunchingRates(kept),
		Bounds:        bounds,
		Dropped:       len(raw) - len(kept),
	}
}
