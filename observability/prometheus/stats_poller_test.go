package prometheus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/loomkit/loom/core"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeStatsProvider struct {
	mu    sync.Mutex
	stats core.PoolStats
}

func (p *fakeStatsProvider) Stats() core.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *fakeStatsProvider) set(s core.PoolStats) {
	p.mu.Lock()
	p.stats = s
	p.mu.Unlock()
}

// TestStatsPoller_CollectsSnapshots tests the sampling loop
// Main test items:
// 1. The first collection happens immediately on Start
// 2. Gauge values track the provider's snapshot
// 3. Stop halts the loop and is idempotent
func TestStatsPoller_CollectsSnapshots(t *testing.T) {
	reg := prom.NewRegistry()
	p, err := NewStatsPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewStatsPoller: %v", err)
	}

	provider := &fakeStatsProvider{}
	provider.set(core.PoolStats{Workers: 4, Queued: 7, Processed: 42, Running: true})
	p.AddPool("test", provider)

	p.Start(context.Background())
	defer p.Stop()

	waitGauge := func(g *prom.GaugeVec, want float64) {
		t.Helper()
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			if testutil.ToFloat64(g.WithLabelValues("test")) == want {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Fatalf("gauge never reached %v, at %v", want, testutil.ToFloat64(g.WithLabelValues("test")))
	}

	waitGauge(p.poolWorkers, 4)
	waitGauge(p.poolQueued, 7)
	waitGauge(p.poolProcessed, 42)
	waitGauge(p.poolRunning, 1)

	provider.set(core.PoolStats{Workers: 4, Queued: 0, Processed: 50, Running: false})
	waitGauge(p.poolQueued, 0)
	waitGauge(p.poolProcessed, 50)
	waitGauge(p.poolRunning, 0)

	p.Stop()
	p.Stop()
}

// TestStatsPoller_StartTwice tests that repeated Start calls are no-ops
func TestStatsPoller_StartTwice(t *testing.T) {
	reg := prom.NewRegistry()
	p, err := NewStatsPoller(reg, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	p.Start(context.Background())
	p.Start(context.Background())
	p.Stop()
}
