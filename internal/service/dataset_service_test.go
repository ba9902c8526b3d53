package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/shuttle-analytics/internal/analysis"
	_ "github.com/jengzang/shuttle-analytics/internal/analysis/dwell"
	_ "github.com/jengzang/shuttle-analytics/internal/analysis/ridership"
	"github.com/jengzang/shuttle-analytics/internal/config"
	"github.com/jengzang/shuttle-analytics/internal/loader"
	"github.com/jengzang/shuttle-analytics/internal/metrics"
	"github.com/jengzang/shuttle-analytics/internal/models"
	"github.com/jengzang/shuttle-analytics/internal/reference"
)

const header = "routeName\tstopName\tarrivalTime\tdepartureTime\tstopDurationSeconds\tpassengerLoad\n"

func writeEvents(t *testing.T, path string, rows ...string) {
	t.Helper()
	content := header + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newService(t *testing.T, stopPath, loadPath string) (*DatasetService, *metrics.Collector) {
	t.Helper()
	tables, err := reference.Default()
	require.NoError(t, err)
	env := &analysis.Env{Reference: tables, Options: config.DefaultAnalysisConfig()}

	var loadSource loader.Source
	if loadPath != "" {
		loadSource = loader.FileSource{Path: loadPath}
	}
	m := metrics.NewCollector()
	svc := NewDatasetService(
		loader.FileSource{Path: stopPath},
		loadSource,
		loader.New(loader.Typer{SourceLocation: time.UTC, AnalysisLocation: time.UTC}),
		env,
		Options{CacheSize: 4, Metrics: m},
	)
	return svc, m
}

func TestStopEventsAreEnrichedAndCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.tsv")
	writeEvents(t, path,
		"North\tReynolds Club\t2025-03-04 18:00:00\t2025-03-04 18:01:00\t60\t3",
		"North\tReynolds Club\t2025-03-05 01:30:00\t2025-03-05 01:31:00\tabc\t2",
	)
	svc, m := newService(t, path, "")
	ctx := context.Background()

	events, err := svc.StopEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.TimeBlockEvening, events[0].TimeBlock)
	require.NotNil(t, events[1].ExpectedFreq)
	assert.Equal(t, 30.0, *events[1].ExpectedFreq)
	assert.Nil(t, events[1].StopDurationSeconds)

	status := svc.Status()
	require.NotNil(t, status.StopEvents)
	assert.Equal(t, 2, status.StopEvents.Rows)
	assert.Equal(t, map[string]int{"stopDurationSeconds": 1}, status.StopEvents.Warnings)
	assert.Equal(t, 2, status.StopEvents.Enrichment.WithExpectedFreq)

	// the source changes but the cached copy is served until Reload
	writeEvents(t, path, "South\tA\t2025-03-04 18:00:00\t\t\t")
	events, err = svc.StopEvents(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits))

	svc.Reload()
	assert.Nil(t, svc.Status().StopEvents)
	events, err = svc.StopEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "South", events[0].RouteName)
}

// gatedSource blocks every Read until release is closed
type gatedSource struct {
	loader.FileSource
	entered chan struct{}
	release chan struct{}
	reads   atomic.Int32
	aborted atomic.Int32
}

func newGatedSource(path string) *gatedSource {
	return &gatedSource{
		FileSource: loader.FileSource{Path: path},
		entered:    make(chan struct{}, 4),
		release:    make(chan struct{}),
	}
}

func (s *gatedSource) Read(ctx context.Context) (*loader.Table, error) {
	s.reads.Add(1)
	s.entered <- struct{}{}
	<-s.release
	if err := ctx.Err(); err != nil {
		s.aborted.Add(1)
		return nil, err
	}
	return s.FileSource.Read(ctx)
}

func newGatedService(t *testing.T, src loader.Source) *DatasetService {
	t.Helper()
	tables, err := reference.Default()
	require.NoError(t, err)
	env := &analysis.Env{Reference: tables, Options: config.DefaultAnalysisConfig()}
	return NewDatasetService(src, nil,
		loader.New(loader.Typer{SourceLocation: time.UTC, AnalysisLocation: time.UTC}),
		env, Options{CacheSize: 4})
}

func TestReloadDiscardsInFlightLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.tsv")
	writeEvents(t, path, "North\tReynolds Club\t2025-03-04 18:00:00\t\t60\t3")
	src := newGatedSource(path)
	svc := newGatedService(t, src)

	done := make(chan error, 1)
	go func() {
		_, err := svc.StopEvents(context.Background())
		done <- err
	}()
	<-src.entered
	svc.Reload()
	close(src.release)
	require.NoError(t, <-done)

	// the stale result reached its caller but was not cached
	assert.Nil(t, svc.Status().StopEvents)
	_, err := svc.cache.Get(streamStopEvents)
	assert.Error(t, err)

	events, err := svc.StopEvents(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, int32(2), src.reads.Load())
	require.NotNil(t, svc.Status().StopEvents)
}

func TestCancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.tsv")
	writeEvents(t, path, "North\tReynolds Club\t2025-03-04 18:00:00\t\t60\t3")
	src := newGatedSource(path)
	svc := newGatedService(t, src)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := svc.StopEvents(ctx)
		first <- err
	}()
	<-src.entered

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(src.release)
	require.Eventually(t, func() bool { return svc.Status().StopEvents != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), src.aborted.Load())

	events, err := svc.StopEvents(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, int32(1), src.reads.Load())
}

func TestMissingSources(t *testing.T) {
	svc, m := newService(t, filepath.Join(t.TempDir(), "absent.tsv"), "")
	ctx := context.Background()

	_, err := svc.StopEvents(ctx)
	assert.ErrorIs(t, err, loader.ErrMissingSource)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceErrors.WithLabelValues(streamStopEvents)))

	_, err = svc.PassengerLoads(ctx)
	assert.ErrorIs(t, err, loader.ErrMissingSource)

	_, err = svc.Run(ctx, "dwell", models.AnalysisFilter{})
	assert.ErrorIs(t, err, loader.ErrMissingSource)
}

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.tsv")
	writeEvents(t, path,
		"North\tReynolds Club\t2025-03-04 18:00:00\t\t60\t3",
		"South\tA\t2025-03-04 08:00:00\t\t30\t4",
	)
	svc, m := newService(t, path, path)
	ctx := context.Background()

	got, err := svc.Run(ctx, "ridership", models.AnalysisFilter{Routes: []string{"North"}})
	require.NoError(t, err)
	assert.NotNil(t, got)

	_, err = svc.Run(ctx, "does_not_exist", models.AnalysisFilter{})
	assert.ErrorIs(t, err, analysis.ErrUnknownAnalyzer)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalyzerRuns.WithLabelValues("ridership", "ok")))
	assert.Contains(t, svc.Views(), "dwell")
	require.NotNil(t, svc.Status().PassengerLoads)
	assert.Equal(t, 2, svc.Status().PassengerLoads.Rows)
}
