package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry with the service metrics.
// A nil *Collector is valid and records nothing.
type Collector struct {
	reg *prometheus.Registry

	RowsLoaded    *prometheus.CounterVec // stream label: stop_events|passenger_loads
	ParseWarnings *prometheus.CounterVec // column label
	SourceErrors  *prometheus.CounterVec // stream label

	AnalyzerRuns     *prometheus.CounterVec   // analyzer, status labels
	AnalyzerDuration *prometheus.HistogramVec // analyzer label
	LoadDuration     *prometheus.HistogramVec // stream label

	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	ScheduleMatchRate prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_rows_loaded_total",
			Help: "Rows read from input sources.",
		}, []string{"stream"}),
		ParseWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_parse_warnings_total",
			Help: "Cells coerced to null because they could not be parsed.",
		}, []string{"column"}),
		SourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_source_errors_total",
			Help: "Failed reads of an input source.",
		}, []string{"stream"}),
		AnalyzerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_analyzer_runs_total",
			Help: "Analytic view computations.",
		}, []string{"analyzer", "status"}),
		AnalyzerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shuttle_analyzer_duration_seconds",
			Help:    "Duration of analytic view computations.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}, []string{"analyzer"}),
		LoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shuttle_load_duration_seconds",
			Help:    "Duration to read, type and enrich an input source.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"stream"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_dataset_cache_hits_total",
			Help: "Dataset requests served from cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_dataset_cache_misses_total",
			Help: "Dataset requests that triggered a load.",
		}),
		ScheduleMatchRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_schedule_match_ratio",
			Help: "Share of loaded stop events with a known expected frequency.",
		}),
	}

	// Register
	reg.MustRegister(
		c.RowsLoaded, c.ParseWarnings, c.SourceErrors,
		c.AnalyzerRuns, c.AnalyzerDuration, c.LoadDuration,
		c.CacheHits, c.CacheMisses, c.ScheduleMatchRate,
	)

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Registry exposes the private registry for tests
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) ObserveLoad(stream string, rows int, warnings map[string]int, d time.Duration) {
	if c == nil {
		return
	}
	c.RowsLoaded.WithLabelValues(stream).Add(float64(rows))
	for column, n := range warnings {
		c.ParseWarnings.WithLabelValues(column).Add(float64(n))
	}
	c.LoadDuration.WithLabelValues(stream).Observe(d.Seconds())
}

func (c *Collector) SourceError(stream string) {
	if c == nil {
		return
	}
	c.SourceErrors.WithLabelValues(stream).Inc()
}

func (c *Collector) ObserveAnalyzer(name string, err error, d time.Duration) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.AnalyzerRuns.WithLabelValues(name, status).Inc()
	c.AnalyzerDuration.WithLabelValues(name).Observe(d.Seconds())
}

func (c *Collector) CacheHit() {
	if c == nil {
		return
	}
	c.CacheHits.Inc()
}

func (c *Collector) CacheMiss() {
	if c == nil {
		return
	}
	c.CacheMisses.Inc()
}

func (c *Collector) SetScheduleMatchRate(matched, total int) {
	if c == nil || total == 0 {
		return
	}
	c.ScheduleMatchRate.Set(float64(matched) / float64(total))
}
