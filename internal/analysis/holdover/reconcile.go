package holdover

import (
	"fmt"
	"sort"

	"github.com/jengzang/shuttle-analytics/internal/models"
	"github.com/jengzang/shuttle-analytics/internal/reference"
	"github.com/jengzang/shuttle-analytics/internal/stats"
)

type key struct {
	route string
	stop  string
}

// Reconciler joins observed dwell against the holdover reference.
// It is immutable after construction.
type Reconciler struct {
	routeAliases map[string]string
	stopAliases  map[string]string
	minutes      map[key]float64
}

// NewReconciler normalizes the reference side of the join. Alias keys and
// targets must already be in normalized form.
func NewReconciler(tables *reference.Tables) (*Reconciler, error) {
	if err := checkNormalized("route", tables.Aliases.Routes, NormalizeRouteKey); err != nil {
		return nil, err
	}
	if err := checkNormalized("stop", tables.Aliases.Stops, NormalizeStopKey); err != nil {
		return nil, err
	}

	r := &Reconciler{
		routeAliases: tables.Aliases.Routes,
		stopAliases:  tables.Aliases.Stops,
		minutes:      make(map[key]float64, len(tables.Holdovers)),
	}
	for _, h := range tables.Holdovers {
		k := r.joinKey(h.Route, h.HoldoverStop)
		if _, dup := r.minutes[k]; dup {
			continue
		}
		r.minutes[k] = h.DurationMinutes
	}
	return r, nil
}

func checkNormalized(kind string, aliases map[string]string, normalize func(string) string) error {
	for from, to := range aliases {
		if normalize(from) != from {
			return fmt.Errorf("%s alias %q is not normalized", kind, from)
		}
		if normalize(to) != to {
			return fmt.Errorf("%s alias target %q is not normalized", kind, to)
		}
	}
	return nil
}

// RouteKey returns the alias-corrected normalized route key
func (r *Reconciler) RouteKey(route string) string {
	return correct(NormalizeRouteKey(route), r.routeAliases)
}

// StopKey returns the alias-corrected normalized stop key
func (r *Reconciler) StopKey(stop string) string {
	return correct(NormalizeStopKey(stop), r.stopAliases)
}

// joinKey returns the join key of a route and stop
func (r *Reconciler) joinKey(route, stop string) key {
	return key{route: r.RouteKey(route), stop: r.StopKey(stop)}
}

// Lookup returns the reference holdover minutes of a route and stop. found
// is false when the table has no row for them, which is not an error.
func (r *Reconciler) Lookup(route, stop string) (minutes float64, found bool) {
	minutes, found = r.minutes[r.joinKey(route, stop)]
	return
}

type groupKey struct {
	route string
	stop  string
	block models.TimeBlock
}

// Reconcile averages dwell per route, stop and time block and left-joins the
// result against the reference. IsHoldover is true only for a matched row
// with a positive duration.
func (r *Reconciler) Reconcile(events []models.StopEvent) []models.HoldoverComparison {
	type group struct {
		events int
		dwell  []float64
	}
	groups := make(map[groupKey]*group)
	for i := range events {
		e := &events[i]
		if e.TimeBlock == "" {
			continue
		}
		k := groupKey{route: e.RouteName, stop: e.StopName, block: e.TimeBlock}
		g, ok := groups[k]
		if !ok {
			g = &group{}
			groups[k] = g
		}
		g.events++
		if e.StopDurationSeconds != nil {
			g.dwell = append(g.dwell, *e.StopDurationSeconds/60)
		}
	}

	out := make([]models.HoldoverComparison, 0, len(groups))
	for k, g := range groups {
		jk := r.joinKey(k.route, k.stop)
		minutes, found := r.minutes[jk]
		out = append(out, models.HoldoverComparison{
			RouteName:        k.route,
			StopName:         k.stop,
			TimeBlock:        k.block,
			RouteKey:         jk.route,
			StopKey:          jk.stop,
			Events:           g.events,
			MeanDwellMinutes: stats.NullableMean(g.dwell),
			HoldoverMinutes:  minutes,
			IsHoldover:       found && minutes > 0,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.RouteName != b.RouteName {
			return a.RouteName < b.RouteName
		}
		if a.StopName != b.StopName {
			return a.StopName < b.StopName
		}
		return blockIndex(a.TimeBlock) < blockIndex(b.TimeBlock)
	})
	return out
}

func blockIndex(b models.TimeBlock) int {
	for i, tb := range models.TimeBlocks {
		if tb == b {
			return i
		}
	}
	return len(models.TimeBlocks)
}
