package prometheus

import (
	"errors"
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/Swind/go-osthread/core"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	threadsStartedTotal   *prom.CounterVec
	threadDurationSeconds *prom.HistogramVec
	threadPanicTotal      *prom.CounterVec
	spawnFailuresTotal    *prom.CounterVec
	priorityRejectedTotal *prom.CounterVec
	joinTimeoutsTotal     prom.Counter
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "osthread"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	startedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "threads_started_total",
		Help:      "Total number of started threads.",
	}, []string{"priority"})
	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "thread_duration_seconds",
		Help:      "Thread run duration in seconds.",
		Buckets:   buckets,
	}, []string{"priority"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "thread_panic_total",
		Help:      "Total number of recovered runnable panics.",
	}, []string{"priority"})
	spawnVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "spawn_failures_total",
		Help:      "Total number of failed thread spawns.",
	}, []string{"reason"})
	priorityVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "priority_rejected_total",
		Help:      "Total number of priority changes the platform did not apply.",
	}, []string{"priority"})
	joinTimeouts := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "join_timeouts_total",
		Help:      "Total number of timed joins that expired.",
	})

	var err error
	if startedVec, err = registerCollector(reg, startedVec); err != nil {
		return nil, err
	}
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if spawnVec, err = registerCollector(reg, spawnVec); err != nil {
		return nil, err
	}
	if priorityVec, err = registerCollector(reg, priorityVec); err != nil {
		return nil, err
	}
	if joinTimeouts, err = registerCollector(reg, joinTimeouts); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		threadsStartedTotal:   startedVec,
		threadDurationSeconds: durationVec,
		threadPanicTotal:      panicVec,
		spawnFailuresTotal:    spawnVec,
		priorityRejectedTotal: priorityVec,
		joinTimeoutsTotal:     joinTimeouts,
	}, nil
}

// RecordThreadStarted records a started thread.
func (m *MetricsExporter) RecordThreadStarted(priority core.Priority) {
	if m == nil {
		return
	}
	m.threadsStartedTotal.WithLabelValues(priorityLabel(priority)).Inc()
}

// RecordThreadFinished records thread run duration and panics.
func (m *MetricsExporter) RecordThreadFinished(priority core.Priority, duration time.Duration, panicked bool) {
	if m == nil {
		return
	}
	label := priorityLabel(priority)
	m.threadDurationSeconds.WithLabelValues(label).Observe(duration.Seconds())
	if panicked {
		m.threadPanicTotal.WithLabelValues(label).Inc()
	}
}

// RecordSpawnFailure records a failed spawn.
func (m *MetricsExporter) RecordSpawnFailure(reason string) {
	if m == nil {
		return
	}
	m.spawnFailuresTotal.WithLabelValues(normalizeLabel(reason, "unknown")).Inc()
}

// RecordPriorityRejected records a priority change the platform refused.
func (m *MetricsExporter) RecordPriorityRejected(priority core.Priority) {
	if m == nil {
		return
	}
	m.priorityRejectedTotal.WithLabelValues(priorityLabel(priority)).Inc()
}

// RecordJoinTimeout records an expired timed join.
func (m *MetricsExporter) RecordJoinTimeout() {
	if m == nil {
		return
	}
	m.joinTimeoutsTotal.Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func priorityLabel(priority core.Priority) string {
	if !priority.Valid() {
		return "unknown"
	}
	return priority.String()
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
