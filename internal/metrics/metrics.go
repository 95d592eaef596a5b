package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// States a run can end in; mirrors pipeline.State.
var States = []string{"fresh", "relaxed", "stale", "empty"}

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ItemsFetched     int64
	FeedsOK          int64
	FeedsFailed      int64
	ItemsTooOld      int64
	ItemsRejected    int64
	DuplicatesFound  int64
	ItemsWritten     int64
	SnapshotFailures int64

	// Timings
	LastProcessingTime time.Duration

	// Status
	LastState     string
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool

	registry *prometheus.Registry
	state    *prometheus.GaugeVec
}

var Global = New()

// New creates a metrics set backed by its own prometheus registry.
func New() *Metrics {
	m := &Metrics{IsHealthy: true, registry: prometheus.NewRegistry()}
	factory := promauto.With(m.registry)

	counter := func(name, help string, read func() int64) {
		factory.NewCounterFunc(prometheus.CounterOpts{Name: name, Help: help}, func() float64 {
			m.mu.RLock()
			defer m.mu.RUnlock()
			return float64(read())
		})
	}
	counter("teamfeed_items_fetched_total", "Stories read from all sources", func() int64 { return m.ItemsFetched })
	counter("teamfeed_feeds_ok_total", "Sources fetched successfully", func() int64 { return m.FeedsOK })
	counter("teamfeed_feeds_failed_total", "Sources that failed to fetch", func() int64 { return m.FeedsFailed })
	counter("teamfeed_items_too_old_total", "Stories dropped by the age window", func() int64 { return m.ItemsTooOld })
	counter("teamfeed_items_rejected_total", "Stories classified as rejected", func() int64 { return m.ItemsRejected })
	counter("teamfeed_duplicates_total", "Stories folded into another copy", func() int64 { return m.DuplicatesFound })
	counter("teamfeed_items_written_total", "Stories written to the snapshot", func() int64 { return m.ItemsWritten })
	counter("teamfeed_snapshot_failures_total", "Snapshot read or write failures", func() int64 { return m.SnapshotFailures })

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "teamfeed_last_processing_seconds",
		Help: "Duration of the last run",
	}, func() float64 {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.LastProcessingTime.Seconds()
	})
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "teamfeed_last_run_timestamp_seconds",
		Help: "Unix time of the last completed run",
	}, func() float64 {
		m.mu.RLock()
		defer m.mu.RUnlock()
		if m.LastRunTime.IsZero() {
			return 0
		}
		return float64(m.LastRunTime.Unix())
	})

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "teamfeed_healthy",
		Help: "0 after a failed run, 1 after a completed one",
	}, func() float64 {
		m.mu.RLock()
		defer m.mu.RUnlock()
		if m.IsHealthy {
			return 1
		}
		return 0
	})

	m.state = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "teamfeed_last_run_state",
		Help: "1 for the state the last run ended in",
	}, []string{"state"})
	for _, s := range States {
		m.state.WithLabelValues(s).Set(0)
	}

	return m
}

func (m *Metrics) AddFetched(items, ok, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsFetched += int64(items)
	m.FeedsOK += int64(ok)
	m.FeedsFailed += int64(failed)
}

// AddPipeline records what the core dropped and kept.
func (m *Metrics) AddPipeline(tooOld, rejected, duplicates, written int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsTooOld += int64(tooOld)
	m.ItemsRejected += int64(rejected)
	m.DuplicatesFound += int64(duplicates)
	m.ItemsWritten += int64(written)
}

func (m *Metrics) IncrementSnapshotFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SnapshotFailures++
}

func (m *Metrics) SetState(state string) {
	m.mu.Lock()
	m.LastState = state
	m.mu.Unlock()

	for _, s := range States {
		v := 0.0
		if s == state {
			v = 1
		}
		m.state.WithLabelValues(s).Set(v)
	}
}

func (m *Metrics) RecordProcessingTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastProcessingTime = duration
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

// Registry exposes the collectors, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile dumps the metrics in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"items_fetched":           m.ItemsFetched,
		"feeds_ok":                m.FeedsOK,
		"feeds_failed":            m.FeedsFailed,
		"items_too_old":           m.ItemsTooOld,
		"items_rejected":          m.ItemsRejected,
		"duplicates_found":        m.DuplicatesFound,
		"items_written":           m.ItemsWritten,
		"snapshot_failures":       m.SnapshotFailures,
		"last_state":              m.LastState,
		"last_processing_time_ms": m.LastProcessingTime.Milliseconds(),
		"last_run_time":           m.LastRunTime.Format(time.RFC3339),
		"last_error":              m.LastError,
		"is_healthy":              m.IsHealthy,
	}
}
