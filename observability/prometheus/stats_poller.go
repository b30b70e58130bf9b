package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/loomkit/loom/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// PoolStatsProvider provides current pool stats snapshots.
// *loom.Scheduler satisfies it.
type PoolStatsProvider interface {
	Stats() core.PoolStats
}

// StatsPoller periodically exports pool Stats() snapshots into Prometheus
// gauges. Rates and counters flow through Exporter as they happen; the
// poller covers the state that is only observable by sampling (queue depth,
// pool size, running state).
type StatsPoller struct {
	interval time.Duration

	poolsMu sync.RWMutex
	pools   map[string]PoolStatsProvider

	poolQueued    *prom.GaugeVec
	poolWorkers   *prom.GaugeVec
	poolProcessed *prom.GaugeVec
	poolRunning   *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewStatsPoller creates a stats poller and registers its collectors.
func NewStatsPoller(reg prom.Registerer, interval time.Duration) (*StatsPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	poolQueued := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "loom",
		Name:      "pool_queued",
		Help:      "Queued tasks across the pool.",
	}, []string{"pool"})
	poolWorkers := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "loom",
		Name:      "pool_workers",
		Help:      "Worker count per pool.",
	}, []string{"pool"})
	poolProcessed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "loom",
		Name:      "pool_processed",
		Help:      "Processed task count snapshot per pool.",
	}, []string{"pool"})
	poolRunning := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "loom",
		Name:      "pool_running",
		Help:      "Pool running state (1=running, 0=stopped).",
	}, []string{"pool"})

	var err error
	if poolQueued, err = registerCollector(reg, poolQueued); err != nil {
		return nil, err
	}
	if poolWorkers, err = registerCollector(reg, poolWorkers); err != nil {
		return nil, err
	}
	if poolProcessed, err = registerCollector(reg, poolProcessed); err != nil {
		return nil, err
	}
	if poolRunning, err = registerCollector(reg, poolRunning); err != nil {
		return nil, err
	}

	return &StatsPoller{
		interval:      interval,
		pools:         make(map[string]PoolStatsProvider),
		poolQueued:    poolQueued,
		poolWorkers:   poolWorkers,
		poolProcessed: poolProcessed,
		poolRunning:   poolRunning,
	}, nil
}

// AddPool adds or replaces a pool snapshot provider by name.
func (p *StatsPoller) AddPool(name string, provider PoolStatsProvider) {
	if p == nil || provider == nil {
		return
	}
	if name == "" {
		name = "pool"
	}
	p.poolsMu.Lock()
	p.pools[name] = provider
	p.poolsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *StatsPoller) Start(ctx context.Context) {
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
func (p *StatsPoller) Stop() {
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

func (p *StatsPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *StatsPoller) collectOnce() {
	p.poolsMu.RLock()
	defer p.poolsMu.RUnlock()

	for name, provider := range p.pools {
		stats := provider.Stats()
		p.poolQueued.WithLabelValues(name).Set(float64(stats.Queued))
		p.poolWorkers.WithLabelValues(name).Set(float64(stats.Workers))
		p.poolProcessed.WithLabelValues(name).Set(float64(stats.Processed))
		if stats.Running {
			p.poolRunning.WithLabelValues(name).Set(1)
		} else {
			p.poolRunning.WithLabelValues(name).Set(0)
		}
	}
}
