package birthday

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Phase names used in logs and the phase duration metric.
const (
	phaseGenerate = "generate"
	phaseSort     = "sort"
	phaseSpill    = "spill"
	phaseMerge    = "merge"
)

// searchMetrics holds the Prometheus collectors for one search.
// Collectors are never nil. They are exported only when a Registerer is
// supplied.
type searchMetrics struct {
	samples    prometheus.Counter
	duplicates prometheus.Counter
	scanned    prometheus.Counter
	collisions prometheus.Counter
	phase      *prometheus.SummaryVec
	poolBytes  prometheus.Gauge
}

func newSearchMetrics(reg prometheus.Registerer) (*searchMetrics, error) {
	m := &searchMetrics{
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "birthday_samples_generated_total",
			Help: "Messages generated, hashed and packed.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "birthday_duplicate_samples_total",
			Help: "Adjacent equal keys skipped during the merge scan (same message drawn twice).",
		}),
		scanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "birthday_keys_scanned_total",
			Help: "Keys emitted by the k-way merge.",
		}),
		collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "birthday_collisions_found_total",
			Help: "Prefix collisions found.",
		}),
		phase: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "birthday_phase_duration_seconds",
			Help:       "Duration of search phases in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"phase"}),
		poolBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "birthday_pool_bytes",
			Help: "Bytes held by the in-memory key pool.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	if m.samples, err = register(reg, m.samples); err != nil {
		return nil, err
	}
	if m.duplicates, err = register(reg, m.duplicates); err != nil {
		return nil, err
	}
	if m.scanned, err = register(reg, m.scanned); err != nil {
		return nil, err
	}
	if m.collisions, err = register(reg, m.collisions); err != nil {
		return nil, err
	}
	if m.phase, err = register(reg, m.phase); err != nil {
		return nil, err
	}
	if m.poolBytes, err = register(reg, m.poolBytes); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c with reg. If an identical collector is already
// registered (a previous search on the same registry) the existing one is
// returned so counts accumulate across searches.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register metrics: %w", err)
	}
	return c, nil
}

func (m *searchMetrics) observePhase(phase string, d time.Duration) {
	m.phase.WithLabelValues(phase).Observe(d.Seconds())
}
