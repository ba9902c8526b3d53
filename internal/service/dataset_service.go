package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	"github.com/jengzang/shuttle-analytics/internal/analysis/pipeline"
	"github.com/jengzang/shuttle-analytics/internal/loader"
	"github.com/jengzang/shuttle-analytics/internal/logging"
	"github.com/jengzang/shuttle-analytics/internal/metrics"
	"github.com/jengzang/shuttle-analytics/internal/models"
)

const (
	streamStopEvents     = "stop_events"
	streamPassengerLoads = "passenger_loads"
)

// StreamStatus describes the last load of one input stream
type StreamStatus struct {
	Source     string            `json:"source"`
	Rows       int               `json:"rows"`
	Warnings   map[string]int    `json:"warnings"`
	LoadedAt   time.Time         `json:"loadedAt"`
	Enrichment *pipeline.Summary `json:"enrichment,omitempty"`
}

// Status is the dataset status view
type Status struct {
	StopEvents     *StreamStatus `json:"stopEvents"`
	PassengerLoads *StreamStatus `json:"passengerLoads"`
}

// DatasetService loads, enriches and memoizes the record streams and runs
// analyzers against them
type DatasetService struct {
	stopSource loader.Source
	loadSource loader.Source // nil when no ridership source is configured
	loader     *loader.Loader
	env        *analysis.Env
	metrics    *metrics.Collector

	cache gcache.Cache
	group singleflight.Group

	mu         sync.RWMutex
	status     Status
	generation uint64 // bumped by Reload; loads started before it are discarded
}

// Options for NewDatasetService
type Options struct {
	CacheSize int
	CacheTTL  time.Duration // 0 keeps entries until Reload
	Metrics   *metrics.Collector
}

// NewDatasetService creates a new dataset service
func NewDatasetService(stopSource, loadSource loader.Source, ld *loader.Loader, env *analysis.Env, opts Options) *DatasetService {
	size := opts.CacheSize
	if size <= 0 {
		size = 8
	}
	builder := gcache.New(size).LRU()
	if opts.CacheTTL > 0 {
		builder = builder.Expiration(opts.CacheTTL)
	}

	return &DatasetService{
		stopSource: stopSource,
		loadSource: loadSource,
		loader:     ld,
		env:        env,
		metrics:    opts.Metrics,
		cache:      builder.Build(),
	}
}

func (s *DatasetService) logger() *slog.Logger {
	if s.env != nil && s.env.Logger != nil {
		return s.env.Logger
	}
	return slog.Default()
}

// StopEvents returns the enriched stop events. The slice is shared between
// callers and must not be modified.
func (s *DatasetService) StopEvents(ctx context.Context) ([]models.StopEvent, error) {
	v, err := s.cached(ctx, streamStopEvents, s.loadStopEvents)
	if err != nil {
		return nil, err
	}
	return v.([]models.StopEvent), nil
}

// PassengerLoads returns the typed passenger load observations
func (s *DatasetService) PassengerLoads(ctx context.Context) ([]models.PassengerLoadEvent, error) {
	v, err := s.cached(ctx, streamPassengerLoads, s.loadPassengerLoads)
	if err != nil {
		return nil, err
	}
	return v.([]models.PassengerLoadEvent), nil
}

// loadFunc reads one stream and reports its status
type loadFunc func(ctx context.Context) (interface{}, *StreamStatus, error)

// cached serves a stream from the cache or loads it once for all concurrent
// callers. The load runs detached from the caller's context, so one
// cancelled request only abandons its own wait.
func (s *DatasetService) cached(ctx context.Context, key string, load loadFunc) (interface{}, error) {
	if v, err := s.cache.Get(key); err == nil {
		s.metrics.CacheHit()
		return v, nil
	}
	s.metrics.CacheMiss()

	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(fmt.Sprintf("%s#%d", key, gen), func() (interface{}, error) {
		started := time.Now()
		v, st, err := load(loadCtx)
		if err != nil {
			s.metrics.SourceError(key)
			logging.LogError(s.logger(), "failed to load dataset", err,
				slog.String("component", "dataset"),
				slog.String("stream", key))
			return nil, err
		}
		if err := s.store(key, gen, v, st); err != nil {
			return nil, err
		}
		logging.LogOperation(s.logger(), "dataset_loaded",
			slog.String("component", "dataset"),
			slog.String("stream", key),
			slog.Duration("duration", time.Since(started)))
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// store publishes a finished load unless Reload ran while it was in flight
func (s *DatasetService) store(key string, gen uint64, v interface{}, st *StreamStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil
	}
	if err := s.cache.Set(key, v); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	switch key {
	case streamStopEvents:
		s.status.StopEvents = st
	case streamPassengerLoads:
		s.status.PassengerLoads = st
	}
	return nil
}

func (s *DatasetService) loadStopEvents(ctx context.Context) (interface{}, *StreamStatus, error) {
	started := time.Now()
	result, err := s.loader.LoadStopEvents(ctx, s.stopSource)
	if err != nil {
		return nil, nil, err
	}
	warnings := s.summarizeWarnings(streamStopEvents, result.Warnings)

	enriched, summary := pipeline.Enrich(result.Events, s.env)

	s.metrics.ObserveLoad(streamStopEvents, len(result.Events), warnings, time.Since(started))
	s.metrics.SetScheduleMatchRate(summary.WithExpectedFreq, summary.Events)

	return enriched, &StreamStatus{
		Source:     s.stopSource.Name(),
		Rows:       len(enriched),
		Warnings:   warnings,
		LoadedAt:   time.Now(),
		Enrichment: &summary,
	}, nil
}

func (s *DatasetService) loadPassengerLoads(ctx context.Context) (interface{}, *StreamStatus, error) {
	if s.loadSource == nil {
		return nil, nil, &loader.MissingSourceError{Source: "passenger loads (RIDERSHIP_PATH is empty)"}
	}

	started := time.Now()
	result, err := s.loader.LoadPassengerLoads(ctx, s.loadSource)
	if err != nil {
		return nil, nil, err
	}
	warnings := s.summarizeWarnings(streamPassengerLoads, result.Warnings)

	s.metrics.ObserveLoad(streamPassengerLoads, len(result.Events), warnings, time.Since(started))

	return result.Events, &StreamStatus{
		Source:   s.loadSource.Name(),
		Rows:     len(result.Events),
		Warnings: warnings,
		LoadedAt: time.Now(),
	}, nil
}

// summarizeWarnings logs one line per stream instead of one per cell
func (s *DatasetService) summarizeWarnings(stream string, warnings []loader.ParseWarning) map[string]int {
	counts := loader.CountByColumn(warnings)
	if len(warnings) == 0 {
		return counts
	}

	attrs := []any{
		slog.String("component", "dataset"),
		slog.String("stream", stream),
		slog.Int("total", len(warnings)),
		slog.String("first", warnings[0].String()),
	}
	for column, n := range counts {
		attrs = append(attrs, slog.Int(column, n))
	}
	s.logger().Warn("parse_warnings", attrs...)
	return counts
}

// Run computes an analytic view over the cached dataset
func (s *DatasetService) Run(ctx context.Context, name string, filter models.AnalysisFilter) (interface{}, error) {
	a, err := analysis.GetAnalyzer(name, s.env)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, name)
	}

	started := time.Now()
	result, err := a.Analyze(ctx, s, filter)
	s.metrics.ObserveAnalyzer(name, err, time.Since(started))
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return result, nil
}

// Views lists the registered analytic views
func (s *DatasetService) Views() []string {
	return analysis.Names()
}

// Reload drops every memoized stream; the next request reads the sources
// again. Loads still in flight finish for their callers but are not cached.
func (s *DatasetService) Reload() {
	s.mu.Lock()
	s.generation++
	s.cache.Purge()
	s.status = Status{}
	s.mu.Unlock()
	logging.LogOperation(s.logger(), "dataset_cache_purged", slog.String("component", "dataset"))
}

// Status returns what is currently loaded
func (s *DatasetService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
