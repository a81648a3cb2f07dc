package prometheus

import (
	"context"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/Swind/go-osthread/core"
)

// RuntimeSnapshotProvider provides current runtime stats snapshots.
// *core.Runtime implements it.
type RuntimeSnapshotProvider interface {
	Stats() core.RuntimeStats
}

// SnapshotPoller periodically exports runtime Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	runtimesMu sync.RWMutex
	runtimes   map[string]RuntimeSnapshotProvider

	live             *prom.GaugeVec
	started          *prom.GaugeVec
	finished         *prom.GaugeVec
	spawnFailures    *prom.GaugeVec
	priorityRejected *prom.GaugeVec
	joinTimeouts     *prom.GaugeVec
	panics           *prom.GaugeVec
	lastFinished     *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(namespace string, reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if namespace == "" {
		namespace = "osthread"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	gauge := func(name, help string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      name,
			Help:      help,
		}, []string{"runtime"})
	}

	p := &SnapshotPoller{
		interval:         interval,
		runtimes:         make(map[string]RuntimeSnapshotProvider),
		live:             gauge("threads_live", "Number of registered running threads."),
		started:          gauge("threads_started", "Started thread count snapshot."),
		finished:         gauge("threads_finished", "Finished thread count snapshot."),
		spawnFailures:    gauge("spawn_failures", "Failed spawn count snapshot."),
		priorityRejected: gauge("priority_rejected", "Rejected priority change count snapshot."),
		joinTimeouts:     gauge("join_timeouts", "Expired timed join count snapshot."),
		panics:           gauge("panics", "Recovered panic count snapshot."),
		lastFinished:     gauge("last_thread_finished_timestamp_seconds", "Unix time the most recent thread finished."),
	}

	for _, g := range []**prom.GaugeVec{
		&p.live, &p.started, &p.finished, &p.spawnFailures,
		&p.priorityRejected, &p.joinTimeouts, &p.panics, &p.lastFinished,
	} {
		registered, err := registerCollector(reg, *g)
		if err != nil {
			return nil, err
		}
		*g = registered
	}
	return p, nil
}

// AddRuntime adds or replaces a runtime snapshot provider by name.
func (p *SnapshotPoller) AddRuntime(name string, provider RuntimeSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "default")
	p.runtimesMu.Lock()
	p.runtimes[name] = provider
	p.runtimesMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.CollectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.CollectOnce()
		}
	}
}

// CollectOnce exports one snapshot of every registered runtime.
func (p *SnapshotPoller) CollectOnce() {
	p.runtimesMu.RLock()
	defer p.runtimesMu.RUnlock()

	for name, provider := range p.runtimes {
		stats := provider.Stats()
		p.live.WithLabelValues(name).Set(float64(stats.Live))
		p.started.WithLabelValues(name).Set(float64(stats.Started))
		p.finished.WithLabelValues(name).Set(float64(stats.Finished))
		p.spawnFailures.WithLabelValues(name).Set(float64(stats.SpawnFailures))
		p.priorityRejected.WithLabelValues(name).Set(float64(stats.PriorityRejected))
		p.joinTimeouts.WithLabelValues(name).Set(float64(stats.JoinTimeouts))
		p.panics.WithLabelValues(name).Set(float64(stats.Panics))
		if !stats.LastThreadEndedAt.IsZero() {
			p.lastFinished.WithLabelValues(name).Set(float64(stats.LastThreadEndedAt.UnixNano()) / 1e9)
		}
	}
}
