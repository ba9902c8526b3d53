package ridership

import (
	"sort"
	"time"

	"github.com/jengzang/shuttle-analytics/internal/models"
	"github.com/jengzang/shuttle-analytics/internal/stats"
)

type rowKey struct {
	month     string
	monthWeek int
	weekDay   string
	route     string
	date      string
}

func load(e *models.PassengerLoadEvent) int64 {
	if e.PassengerLoad == nil {
		return 0
	}
	return *e.PassengerLoad
}

func monthNumber(name string) int {
	for m := time.January; m <= time.December; m++ {
		if m.String() == name {
			return int(m)
		}
	}
	return 0
}

// AggregateByTime sums passenger load per (month, month_week, week_day,
// routeName, date). Loads must already carry calendar features; rows without
// a date are skipped. Unparseable loads count as zero. Rows are ordered by
// month, week of month, Monday-first weekday, route and date.
func AggregateByTime(loads []models.PassengerLoadEvent) []models.RidershipRow {
	sums := make(map[rowKey]int64)
	for i := range loads {
		e := &loads[i]
		if e.Date == "" {
			continue
		}
		k := rowKey{month: e.Month, monthWeek: e.MonthWeek, weekDay: e.WeekDay, route: e.RouteName, date: e.Date}
		sums[k] += load(e)
	}

	rows := make([]models.RidershipRow, 0, len(sums))
	for k, sum := range sums {
		rows = append(rows, models.RidershipRow{
			Month:         k.month,
			MonthWeek:     k.monthWeek,
			WeekDay:       k.weekDay,
			RouteName:     k.route,
			Date:          k.date,
			PassengerLoad: sum,
		})
	}
	sortRows(rows)
	return rows
}

func sortRows(rows []models.RidershipRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if ma, mb := monthNumber(a.Month), monthNumber(b.Month); ma != mb {
			return ma < mb
		}
		if a.MonthWeek != b.MonthWeek {
			return a.MonthWeek < b.MonthWeek
		}
		if wa, wb := models.WeekDayIndex(a.WeekDay), models.WeekDayIndex(b.WeekDay); wa != wb {
			return wa < wb
		}
		if a.RouteName != b.RouteName {
			return a.RouteName < b.RouteName
		}
		return a.Date < b.Date
	})
}

// CalendarCells collapses dated rows into one cell per (month, month_week,
// week_day, route). The earliest date stands in for the cell and every
// contributing date is listed.
func CalendarCells(rows []models.RidershipRow) []models.CalendarCell {
	type cellKey struct {
		month     string
		monthWeek int
		weekDay   string
		route     string
	}

	sorted := make([]models.RidershipRow, len(rows))
	copy(sorted, rows)
	sortRows(sorted)

	index := make(map[cellKey]int)
	var cells []models.CalendarCell
	for _, r := range sorted {
		k := cellKey{month: r.Month, monthWeek: r.MonthWeek, weekDay: r.WeekDay, route: r.RouteName}
		i, ok := index[k]
		if !ok {
			i = len(cells)
			index[k] = i
			cells = append(cells, models.CalendarCell{
				Month:              r.Month,
				MonthWeek:          r.MonthWeek,
				WeekDay:            r.WeekDay,
				RouteName:          r.RouteName,
				RepresentativeDate: r.Date,
			})
		}
		cells[i].Dates = append(cells[i].Dates, r.Date)
		cells[i].PassengerLoad += r.PassengerLoad
	}
	if cells == nil {
		cells = []models.CalendarCell{}
	}
	return cells
}

// AverageDailyBoardings returns, per route, the mean over dates of the daily
// summed passenger load
func AverageDailyBoardings(loads []models.PassengerLoadEvent) map[string]float64 {
	type dayKey struct{ route, date string }
	daily := make(map[dayKey]int64)
	for i := range loads {
		e := &loads[i]
		if e.ArrivalTime.IsZero() {
			continue
		}
		daily[dayKey{route: e.RouteName, date: e.ArrivalTime.Format(models.DateLayout)}] += load(e)
	}

	perRoute := make(map[string][]float64)
	for k, sum := range daily {
		perRoute[k.route] = append(perRoute[k.route], float64(sum))
	}

	out := make(map[string]float64, len(perRoute))
	for route, sums := range perRoute {
		out[route] = stats.Mean(sums)
	}
	return out
}

// RouteRidershipVsVariance pairs each route's mean arrival standard deviation
// (over stops with a defined value) with its average daily boardings. Only
// routes present on both sides are returned, sorted by route name.
func RouteRidershipVsVariance(loads []models.PassengerLoadEvent, variances []models.VarianceRecord) []models.RouteRidership {
	stdevs := make(map[string][]float64)
	seen := make(map[string]bool)
	for _, v := range variances {
		seen[v.RouteName] = true
		if v.ArrivalStdev != nil {
			stdevs[v.RouteName] = append(stdevs[v.RouteName], *v.ArrivalStdev)
		}
	}

	boardings := AverageDailyBoardings(loads)

	out := []models.RouteRidership{}
	for route := range seen {
		avg, ok := boardings[route]
		if !ok {
			continue
		}
		out = append(out, models.RouteRidership{
			RouteName:         route,
			ArrivalStdev:      stats.NullableMean(stdevs[route]),
			AvgDailyBoardings: avg,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RouteName < out[j].RouteName })
	return out
}

// RouteCorrelation is the route_ridership view: per-route rows plus the
// correlation between arrival variability and boardings across routes
type RouteCorrelation struct {
	Routes   []models.RouteRidership `json:"routes"`
	Pearson  *float64                `json:"pearson"`  // nil with fewer than two usable routes
	Spearman *float64                `json:"spearman"` // nil with fewer than two usable routes
}

// Correlate computes the correlations over routes with a defined standard
// deviation
func Correlate(routes []models.RouteRidership) *RouteCorrelation {
	var stdevs, boardings []float64
	for _, r := range routes {
		if r.ArrivalStdev == nil {
			continue
		}
		stdevs = append(stdevs, *r.ArrivalStdev)
		boardings = append(boardings, r.AvgDailyBoardings)
	}
	return &RouteCorrelation{
		Routes:   routes,
		Pearson:  stats.NullablePearson(stdevs, boardings),
		Spearman: stats.NullableSpearman(stdevs, boardings),
	}
}
