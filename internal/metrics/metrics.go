// Package metrics exposes Prometheus counters for tracker operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder records operation outcomes, fallbacks and logins. A nil *Recorder
// records nothing.
type Recorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	fallbacks  *prometheus.CounterVec
	replayed   prometheus.Counter
	logins     *prometheus.CounterVec
}

// New creates a recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "equipd",
			Name:      "operations_total",
			Help:      "Coordinator operations by operation and result.",
		}, []string{"operation", "result"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "equipd",
			Name:      "operation_duration_seconds",
			Help:      "Coordinator operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "equipd",
			Name:      "memory_fallbacks_total",
			Help:      "Mutations applied to the in-memory mirror because the durable store failed.",
		}, []string{"operation"}),
		replayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "equipd",
			Name:      "replayed_changes_total",
			Help:      "In-memory changes written to the durable store after it came back.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "equipd",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{r.operations, r.durations, r.fallbacks, r.replayed, r.logins} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records one operation outcome.
func (r *Recorder) Observe(operation string, success bool, duration time.Duration) {
	if r == nil || operation == "" {
		return
	}
	result := "error"
	if success {
		result = "success"
	}
	r.operations.WithLabelValues(operation, result).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// Fallback records a mutation that landed only in the in-memory mirror.
func (r *Recorder) Fallback(operation string) {
	if r == nil {
		return
	}
	r.fallbacks.WithLabelValues(operation).Inc()
}

// Replayed records n journaled changes written to the durable store.
func (r *Recorder) Replayed(n int) {
	if r == nil {
		return
	}
	r.replayed.Add(float64(n))
}

// Login records a login attempt; result is "success", "failure" or "locked".
func (r *Recorder) Login(result string) {
	if r == nil {
		return
	}
	r.logins.WithLabelValues(result).Inc()
}
