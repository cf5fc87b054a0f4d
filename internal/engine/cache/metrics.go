package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters recorded by FetchCache.
// Every counter is labelled by category. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	hits         *prometheus.CounterVec
	misses       *prometheus.CounterVec
	bypasses     *prometheus.CounterVec
	remoteCalls  *prometheus.CounterVec
	remoteErrors *prometheus.CounterVec
	coalesced    *prometheus.CounterVec
}

// Counts is a flattened view of the counters of one category.
type Counts struct {
	Hits         float64 `json:"hits"`
	Misses       float64 `json:"misses"`
	Bypasses     float64 `json:"bypasses"`
	RemoteCalls  float64 `json:"remote_calls"`
	RemoteErrors float64 `json:"remote_errors"`
	Coalesced    float64 `json:"coalesced"`
}

func newFetchCounter(name, help string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "youseo",
		Subsystem: "fetch_cache",
		Name:      name,
		Help:      help,
	}, []string{"category"})
}

// NewMetrics creates the counters and registers them with a dedicated
// registry, exposed through Registry for export.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry:     prometheus.NewRegistry(),
		hits:         newFetchCounter("hits_total", "Total number of fetches served from the cache"),
		misses:       newFetchCounter("misses_total", "Total number of fetches that missed the cache"),
		bypasses:     newFetchCounter("bypasses_total", "Total number of fetches that skipped the cache"),
		remoteCalls:  newFetchCounter("remote_calls_total", "Total number of remote calls issued"),
		remoteErrors: newFetchCounter("remote_errors_total", "Total number of remote calls that failed"),
		coalesced:    newFetchCounter("coalesced_total", "Total number of fetches that shared another caller's remote call"),
	}

	for _, c := range []prometheus.Collector{
		m.hits, m.misses, m.bypasses, m.remoteCalls, m.remoteErrors, m.coalesced,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry returns the registry holding the counters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile dumps every counter to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// Snapshot gathers the current counter values per category.
func (m *Metrics) Snapshot() (map[Category]Counts, error) {
	out := make(map[Category]Counts)
	if m == nil {
		return out, nil
	}

	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			category := Category("")
			for _, label := range metric.GetLabel() {
				if label.GetName() == "category" {
					category = Category(label.GetValue())
				}
			}
			counts := out[category]
			value := metric.GetCounter().GetValue()
			switch family.GetName() {
			case "youseo_fetch_cache_hits_total":
				counts.Hits = value
			case "youseo_fetch_cache_misses_total":
				counts.Misses = value
			case "youseo_fetch_cache_bypasses_total":
				counts.Bypasses = value
			case "youseo_fetch_cache_remote_calls_total":
				counts.RemoteCalls = value
			case "youseo_fetch_cache_remote_errors_total":
				counts.RemoteErrors = value
			case "youseo_fetch_cache_coalesced_total":
				counts.Coalesced = value
			}
			out[category] = counts
		}
	}
	return out, nil
}

func (m *Metrics) recordHit(c Category) {
	if m != nil {
		m.hits.WithLabelValues(string(c)).Inc()
	}
}

func (m *Metrics) recordMiss(c Category) {
	if m != nil {
		m.misses.WithLabelValues(string(c)).Inc()
	}
}

func (m *Metrics) recordBypass(c Category) {
	if m != nil {
		m.bypasses.WithLabelValues(string(c)).Inc()
	}
}

func (m *Metrics) recordRemote(c Category, err error) {
	if m == nil {
		return
	}
	m.remoteCalls.WithLabelValues(string(c)).Inc()
	if err != nil {
		m.remoteErrors.WithLabelValues(string(c)).Inc()
	}
}

func (m *Metrics) recordCoalesced(c Category) {
	if m != nil {
		m.coalesced.WithLabelValues(string(c)).Inc()
	}
}
