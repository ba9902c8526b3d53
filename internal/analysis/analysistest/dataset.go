// Package analysistest provides in-memory datasets for analyzer tests.
package analysistest

import (
	"context"
	"time"

	"github.com/jengzang/shuttle-analytics/internal/models"
)

// Dataset serves fixed record slices. Err, when set, is returned by both
// streams.
type Dataset struct {
	Events []models.StopEvent
	Loads  []models.PassengerLoadEvent
	Err    error
}

// StopEvents returns the fixed stop events
func (d *Dataset) StopEvents(context.Context) ([]models.StopEvent, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Events, nil
}

// PassengerLoads returns the fixed passenger loads
func (d *Dataset) PassengerLoads(context.Context) ([]models.PassengerLoadEvent, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Loads, nil
}

// At builds a naive wall-clock timestamp in UTC
func At(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}

// Freq returns a pointer to an expected frequency
func Freq(minutes float64) *float64 {
	return &minutes
}
