// Package prometheus exports scheduler metrics as Prometheus collectors.
package prometheus

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/loomkit/loom/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// Exporter adapts core.Metrics to Prometheus collectors: per-worker fps/qps
// gauges, per-worker and pool-wide processed counters, and rejection/panic
// counters.
type Exporter struct {
	workerFPS          *prom.GaugeVec
	workerQPS          *prom.GaugeVec
	tasksProcessed     *prom.CounterVec
	poolTasksProcessed prom.Counter
	tasksRejected      *prom.CounterVec
	callbackPanics     *prom.CounterVec
}

var _ core.Metrics = (*Exporter)(nil)

// NewExporter creates and registers the Prometheus collectors for core.Metrics.
func NewExporter(namespace string, reg prom.Registerer) (*Exporter, error) {
	if namespace == "" {
		namespace = "loom"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	fpsVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "worker_fps",
		Help:      "Loop iterations per second, per worker.",
	}, []string{"worker"})
	qpsVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "worker_qps",
		Help:      "Tasks executed per second, per worker.",
	}, []string{"worker"})
	processedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_processed_total",
		Help:      "Total tasks executed, per worker.",
	}, []string{"worker"})
	poolProcessed := prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "pool_tasks_processed_total",
		Help:      "Total tasks executed across the pool.",
	})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_rejected_total",
		Help:      "Total tasks dropped at admission.",
	}, []string{"worker", "reason"})
	panicsVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "callback_panics_total",
		Help:      "Total panics recovered from task and timer callbacks.",
	}, []string{"worker"})

	var err error
	if fpsVec, err = registerCollector(reg, fpsVec); err != nil {
		return nil, err
	}
	if qpsVec, err = registerCollector(reg, qpsVec); err != nil {
		return nil, err
	}
	if processedVec, err = registerCollector(reg, processedVec); err != nil {
		return nil, err
	}
	if poolProcessed, err = registerCollector(reg, poolProcessed); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if panicsVec, err = registerCollector(reg, panicsVec); err != nil {
		return nil, err
	}

	return &Exporter{
		workerFPS:          fpsVec,
		workerQPS:          qpsVec,
		tasksProcessed:     processedVec,
		poolTasksProcessed: poolProcessed,
		tasksRejected:      rejectedVec,
		callbackPanics:     panicsVec,
	}, nil
}

// RecordRates publishes a worker's per-second rates.
func (m *Exporter) RecordRates(workerID int, fps, qps int) {
	if m == nil {
		return
	}
	w := workerLabel(workerID)
	m.workerFPS.WithLabelValues(w).Set(float64(fps))
	m.workerQPS.WithLabelValues(w).Set(float64(qps))
}

// RecordTaskProcessed counts one executed task for both the worker and the pool.
func (m *Exporter) RecordTaskProcessed(workerID int) {
	if m == nil {
		return
	}
	m.tasksProcessed.WithLabelValues(workerLabel(workerID)).Inc()
	m.poolTasksProcessed.Inc()
}

// RecordTaskRejected counts one task dropped at admission.
func (m *Exporter) RecordTaskRejected(workerID int, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.tasksRejected.WithLabelValues(workerLabel(workerID), reason).Inc()
}

// RecordCallbackPanic counts one recovered callback panic.
func (m *Exporter) RecordCallbackPanic(workerID int, panicInfo any) {
	if m == nil {
		return
	}
	m.callbackPanics.WithLabelValues(workerLabel(workerID)).Inc()
}

func workerLabel(id int) string {
	return strconv.Itoa(id)
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
