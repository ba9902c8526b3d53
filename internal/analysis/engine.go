package analysis

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/jengzang/shuttle-analytics/internal/config"
	"github.com/jengzang/shuttle-analytics/internal/logging"
	"github.com/jengzang/shuttle-analytics/internal/models"
	"github.com/jengzang/shuttle-analytics/internal/reference"
)

// ErrUnknownAnalyzer is returned for view names nobody registered
var ErrUnknownAnalyzer = errors.New("unknown analyzer")

// ErrUnsupportedFilter is returned when a view cannot apply part of a filter
var ErrUnsupportedFilter = errors.New("unsupported filter")

// Dataset gives analyzers access to the record streams they need. Stop
// events are already enriched (time block, traffic flag, expected
// frequency) over the full input set.
type Dataset interface {
	StopEvents(ctx context.Context) ([]models.StopEvent, error)
	PassengerLoads(ctx context.Context) ([]models.PassengerLoadEvent, error)
}

// Analyzer is the interface that every analytic view implements
type Analyzer interface {
	// Analyze computes the view from scratch. It must not modify the
	// records returned by the dataset.
	Analyze(ctx context.Context, data Dataset, filter models.AnalysisFilter) (interface{}, error)

	// GetName returns the name of the analyzer
	GetName() string
}

// Env holds the read-only collaborators shared by analyzers
type Env struct {
	Reference *reference.Tables
	Options   config.AnalysisConfig
	Logger    *slog.Logger
}

// BaseAnalyzer provides common functionality for all analyzers
type BaseAnalyzer struct {
	Env  *Env
	Name string
}

// NewBaseAnalyzer creates a new base analyzer
func NewBaseAnalyzer(env *Env, name string) *BaseAnalyzer {
	return &BaseAnalyzer{
		Env:  env,
		Name: name,
	}
}

// GetName returns the analyzer name
func (a *BaseAnalyzer) GetName() string {
	return a.Name
}

// Logger returns the env logger or the default one
func (a *BaseAnalyzer) Logger() *slog.Logger {
	if a.Env != nil && a.Env.Logger != nil {
		return a.Env.Logger
	}
	return slog.Default()
}

// LogCompleted logs one line summarizing a finished run
func (a *BaseAnalyzer) LogCompleted(started time.Time, inputRows, outputRows int) {
	logging.LogOperation(a.Logger(), "analysis_completed",
		slog.String("component", "analysis"),
		slog.String("analyzer", a.Name),
		slog.Int("input_rows", inputRows),
		slog.Int("output_rows", outputRows),
		slog.Duration("duration", time.Since(started)))
}

// FilterEvents returns the events that pass the filter. The input slice is
// never modified.
func FilterEvents(events []models.StopEvent, filter models.AnalysisFilter) []models.StopEvent {
	if filter.IsEmpty() {
		return events
	}
	out := make([]models.StopEvent, 0, len(events))
	for i := range events {
		if filter.Matches(&events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}

// FilterLoads returns the passenger loads that pass the filter
func FilterLoads(events []models.PassengerLoadEvent, filter models.AnalysisFilter) []models.PassengerLoadEvent {
	if filter.IsEmpty() {
		return events
	}
	out := make([]models.PassengerLoadEvent, 0, len(events))
	for i := range events {
		if filter.MatchesLoad(&events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}

// AnalyzerFactory is a function that creates an analyzer instance
type AnalyzerFactory func(env *Env) Analyzer

// AnalyzerRegistry maps view names to analyzer factories
var AnalyzerRegistry = make(map[string]AnalyzerFactory)

// RegisterAnalyzer registers an analyzer factory for a view name
func RegisterAnalyzer(name string, factory AnalyzerFactory) {
	AnalyzerRegistry[name] = factory
}

// GetAnalyzer creates the analyzer registered under name
func GetAnalyzer(name string, env *Env) (Analyzer, error) {
	factory, ok := AnalyzerRegistry[name]
	if !ok {
		return nil, ErrUnknownAnalyzer
	}
	return factory(env), nil
}

// Names returns the registered view names in sorted order
func Names() []string {
	names := make([]string, 0, len(AnalyzerRegistry))
	for name := range AnalyzerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
