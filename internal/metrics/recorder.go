// Package metrics records service metrics in a Prometheus registry.
package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Recorder registers and updates the service's Prometheus metrics.
type Recorder struct {
	registry        *prom.Registry
	requestsTotal   *prom.CounterVec
	requestDuration *prom.HistogramVec
	deductionsTotal *prom.CounterVec
	batchesLogged   prom.Counter
	lowStockGauge   prom.Gauge
	eventsPublished *prom.CounterVec
}

// NewRecorder constructs and registers the service metrics. A nil registry
// gets its own private one, which keeps tests isolated.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}

	r := &Recorder{registry: reg}
	r.requestsTotal = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "materials",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})
	r.requestDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "materials",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route",
		Buckets:   prom.DefBuckets,
	}, []string{"method", "route"})
	r.deductionsTotal = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "materials",
		Name:      "sale_deductions_total",
		Help:      "Sale deduction items by outcome",
	}, []string{"outcome"})
	r.batchesLogged = prom.NewCounter(prom.CounterOpts{
		Namespace: "materials",
		Name:      "batches_logged_total",
		Help:      "Restock batches logged",
	})
	r.lowStockGauge = prom.NewGauge(prom.GaugeOpts{
		Namespace: "materials",
		Name:      "low_stock_materials",
		Help:      "Materials currently in Low Stock",
	})
	r.eventsPublished = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "materials",
		Name:      "events_published_total",
		Help:      "Broker events published by topic and result",
	}, []string{"topic", "result"})

	reg.MustRegister(r.requestsTotal, r.requestDuration, r.deductionsTotal,
		r.batchesLogged, r.lowStockGauge, r.eventsPublished)
	return r
}

// Registry exposes the backing registry for the /metrics handler.
func (r *Recorder) Registry() *prom.Registry {
	return r.registry
}

// ObserveRequest records one handled HTTP request.
func (r *Recorder) ObserveRequest(method, route, status string, d time.Duration) {
	r.requestsTotal.WithLabelValues(method, route, status).Inc()
	r.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// CountDeduction records sale deduction item outcomes.
func (r *Recorder) CountDeduction(outcome string, n int) {
	r.deductionsTotal.WithLabelValues(outcome).Add(float64(n))
}

// CountBatchLogged records a logged restock batch.
func (r *Recorder) CountBatchLogged() {
	r.batchesLogged.Inc()
}

// SetLowStockCount tracks how many materials sit in Low Stock.
func (r *Recorder) SetLowStockCount(n int64) {
	r.lowStockGauge.Set(float64(n))
}

// CountEventPublished records a broker publish attempt.
func (r *Recorder) CountEventPublished(topic, result string) {
	r.eventsPublished.WithLabelValues(topic, result).Inc()
}
