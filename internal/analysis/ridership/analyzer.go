package ridership

import (
	"context"
	"fmt"
	"time"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	"github.com/jengzang/shuttle-analytics/internal/analysis/arrival"
	"github.com/jengzang/shuttle-analytics/internal/models"
)

// Result is the ridership view
type Result struct {
	Rows  []models.RidershipRow `json:"rows"`
	Cells []models.CalendarCell  `json:"cells"`
}

// TimeAnalyzer aggregates passenger load along the calendar
// Skill: 客流时间分解 (ridership by month, week and weekday)
type TimeAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewTimeAnalyzer creates the ridership view
func NewTimeAnalyzer(env *analysis.Env) analysis.Analyzer {
	return &TimeAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(env, "ridership"),
	}
}

// Analyze extracts calendar features and sums passenger load
func (a *TimeAnalyzer) Analyze(ctx context.Context, data analysis.Dataset, filter models.AnalysisFilter) (interface{}, error) {
	if err := checkLoadFilter(filter); err != nil {
		return nil, err
	}
	started := time.Now()
	loads, err := data.PassengerLoads(ctx)
	if err != nil {
		return nil, err
	}

	rows := AggregateByTime(ExtractCalendar(analysis.FilterLoads(loads, filter)))
	result := &Result{Rows: rows, Cells: CalendarCells(rows)}

	a.LogCompleted(started, len(loads), len(rows))
	return result, nil
}

// RouteAnalyzer compares arrival consistency with ridership per route
type RouteAnalyzer struct {
	*analysis.BaseAnalyzer
}

// NewRouteAnalyzer creates the route_ridership view
func NewRouteAnalyzer(env *analysis.Env) analysis.Analyzer {
	return &RouteAnalyzer{
		BaseAnalyzer: analysis.NewBaseAnalyzer(env, "route_ridership"),
	}
}

// Analyze joins per-route arrival variance with average daily boardings
// Both sides of the join see the same filter.
func (a *RouteAnalyzer) Analyze(ctx context.Context, data analysis.Dataset, filter models.AnalysisFilter) (interface{}, error) {
	if err := checkLoadFilter(filter); err != nil {
		return nil, err
	}
	started := time.Now()
	events, err := data.StopEvents(ctx)
	if err != nil {
		return nil, err
	}
	loads, err := data.PassengerLoads(ctx)
	if err != nil {
		return nil, err
	}

	o := a.Env.Options
	variance := arrival.ProcessArrivalTimes(analysis.FilterEvents(events, filter), arrival.Options{
		LowerPercentile:     o.TrimLowerPercentile,
		UpperPercentile:     o.TrimUpperPercentile,
		RequireExpectedFreq: o.RequireExpectedFreq,
	})
	routes := RouteRidershipVsVariance(analysis.FilterLoads(loads, filter), variance.Variances)
	out := Correlate(routes)

	a.LogCompleted(started, len(events)+len(loads), len(routes))
	return out, nil
}

// 客流没有交通等级
func checkLoadFilter(filter models.AnalysisFilter) error {
	if filter.HasTrafficFlags() {
		return fmt.Errorf("%w: traffic flags do not apply to passenger loads", analysis.ErrUnsupportedFilter)
	}
	return nil
}

func init() {
	analysis.RegisterAnalyzer("ridership", NewTimeAnalyzer)
	analysis.RegisterAnalyzer("route_ridership", NewRouteAnalyzer)
}
