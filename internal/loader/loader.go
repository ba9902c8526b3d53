package loader

import (
	"context"
	"fmt"

	"github.com/jengzang/shuttle-analytics/internal/models"
)

// StopEventResult is a typed stop-events table
type StopEventResult struct {
	Events   []models.StopEvent
	Warnings []ParseWarning
}

// PassengerLoadResult is a typed passenger-load table
type PassengerLoadResult struct {
	Events   []models.PassengerLoadEvent
	Warnings []ParseWarning
}

// Loader reads sources and types their rows
type Loader struct {
	Typer Typer
}

// New creates a loader
func New(typer Typer) *Loader {
	return &Loader{Typer: typer}
}

// LoadStopEvents reads and types a stop-events source. A missing source is
// returned as *MissingSourceError.
func (l *Loader) LoadStopEvents(ctx context.Context, src Source) (*StopEventResult, error) {
	table, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}

	events, warnings, err := l.Typer.StopEvents(table)
	if err != nil {
		return nil, fmt.Errorf("failed to type %s: %w", src.Name(), err)
	}

	return &StopEventResult{Events: events, Warnings: warnings}, nil
}

// LoadPassengerLoads reads and types a ridership-bearing source
func (l *Loader) LoadPassengerLoads(ctx context.Context, src Source) (*PassengerLoadResult, error) {
	table, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}

	events, warnings, err := l.Typer.PassengerLoads(table)
	if err != nil {
		return nil, fmt.Errorf("failed to type %s: %w", src.Name(), err)
	}

	return &PassengerLoadResult{Events: events, Warnings: warnings}, nil
}
