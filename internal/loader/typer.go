package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jengzang/shuttle-analytics/internal/models"
)

// Column names of the stop-events export
const (
	ColRouteName           = "routeName"
	ColStopName            = "stopName"
	ColArrivalTime         = "arrivalTime"
	ColDepartureTime       = "departureTime"
	ColStopDurationSeconds = "stopDurationSeconds"
	ColPassengerLoad       = "passengerLoad"
)

// timestamp layouts that carry their own offset
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-07",
	"2006-01-02T15:04:05-07",
	"2006-01-02 15:04:05 -0700 MST",
}

// timestamp layouts read in the source location
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"2006-01-02",
}

// Typer turns raw cells into typed values
type Typer struct {
	// SourceLocation is used for timestamps without an offset
	SourceLocation *time.Location
	// AnalysisLocation is the civil timezone all timestamps are converted to
	AnalysisLocation *time.Location
}

// ParseTimestamp parses a cell, converts it to the analysis timezone and
// drops the offset: the result carries the local wall clock in time.UTC so
// that every downstream comparison is naive-local.
func (t Typer) ParseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	src := t.SourceLocation
	if src == nil {
		src = time.UTC
	}
	dst := t.AnalysisLocation
	if dst == nil {
		dst = time.UTC
	}

	var parsed time.Time
	ok := false
	for _, layout := range zonedLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			parsed, ok = ts, true
			break
		}
	}
	if !ok {
		for _, layout := range naiveLayouts {
			if ts, err := time.ParseInLocation(layout, s, src); err == nil {
				parsed, ok = ts, true
				break
			}
		}
	}
	if !ok {
		return time.Time{}, false
	}

	local := parsed.In(dst)
	return time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), time.UTC), true
}

// ParseDuration coerces a non-negative number of seconds
func ParseDuration(raw string) (*float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return nil, false
	}
	return &v, true
}

// ParseCount coerces a non-negative integer count. Integral floats such as
// "12.0" are accepted.
func ParseCount(raw string) (*int64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, true
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return nil, false
		}
		return &n, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v != math.Trunc(v) || math.IsInf(v, 0) {
		return nil, false
	}
	n := int64(v)
	return &n, true
}

func requireColumns(table *Table, columns ...string) (map[string]int, error) {
	idx := make(map[string]int, len(columns))
	var missing []string
	for _, c := range columns {
		i := table.Index(c)
		if i < 0 {
			missing = append(missing, c)
			continue
		}
		idx[c] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// StopEvents types every row of a stop-events table. Rows are never dropped;
// unparseable cells become null and are reported as warnings.
func (t Typer) StopEvents(table *Table) ([]models.StopEvent, []ParseWarning, error) {
	idx, err := requireColumns(table,
		ColRouteName, ColStopName, ColArrivalTime, ColDepartureTime, ColStopDurationSeconds)
	if err != nil {
		return nil, nil, err
	}

	events := make([]models.StopEvent, 0, len(table.Rows))
	var warnings []ParseWarning

	for n, row := range table.Rows {
		e := models.StopEvent{
			RouteName: cell(row, idx[ColRouteName]),
			StopName:  cell(row, idx[ColStopName]),
		}

		if raw := cell(row, idx[ColArrivalTime]); raw != "" {
			ts, ok := t.ParseTimestamp(raw)
			if !ok {
				warnings = append(warnings, ParseWarning{Row: n + 1, Column: ColArrivalTime, Value: raw})
			}
			e.ArrivalTime = ts
		}
		if raw := cell(row, idx[ColDepartureTime]); raw != "" {
			ts, ok := t.ParseTimestamp(raw)
			if !ok {
				warnings = append(warnings, ParseWarning{Row: n + 1, Column: ColDepartureTime, Value: raw})
			}
			e.DepartureTime = ts
		}

		raw := cell(row, idx[ColStopDurationSeconds])
		d, ok := ParseDuration(raw)
		if !ok {
			warnings = append(warnings, ParseWarning{Row: n + 1, Column: ColStopDurationSeconds, Value: raw})
		}
		e.StopDurationSeconds = d

		events = append(events, e)
	}

	return events, warnings, nil
}

// PassengerLoads types the ridership-bearing variant of the stop-events
// table. stopName is optional.
func (t Typer) PassengerLoads(table *Table) ([]models.PassengerLoadEvent, []ParseWarning, error) {
	idx, err := requireColumns(table, ColRouteName, ColArrivalTime, ColPassengerLoad)
	if err != nil {
		return nil, nil, err
	}
	stopIdx := table.Index(ColStopName)

	events := make([]models.PassengerLoadEvent, 0, len(table.Rows))
	var warnings []ParseWarning

	for n, row := range table.Rows {
		e := models.PassengerLoadEvent{
			RouteName: cell(row, idx[ColRouteName]),
			StopName:  cell(row, stopIdx),
		}

		if raw := cell(row, idx[ColArrivalTime]); raw != "" {
			ts, ok := t.ParseTimestamp(raw)
			if !ok {
				warnings = append(warnings, ParseWarning{Row: n + 1, Column: ColArrivalTime, Value: raw})
			}
			e.ArrivalTime = ts
		}

		raw := cell(row, idx[ColPassengerLoad])
		load, ok := ParseCount(raw)
		if !ok {
			warnings = append(warnings, ParseWarning{Row: n + 1, Column: ColPassengerLoad, Value: raw})
		}
		e.PassengerLoad = load

		events = append(events, e)
	}

	return events, warnings, nil
}
