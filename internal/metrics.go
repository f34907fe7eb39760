package internal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics is nil when the runtime was built without a registerer, every method is then a no-op.
type metrics struct {
	registerer prometheus.Registerer
	collectors []prometheus.Collector

	signalsPublished prometheus.Counter
	handlerCalls     prometheus.Counter
	flushes          prometheus.Counter
	jobsExecuted     prometheus.Counter
	jobsDiscarded    prometheus.Counter
	jobErrors        prometheus.Counter
	stores           prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer, namespace string) *metrics {
	if reg == nil {
		return nil
	}

	factory := promauto.With(reg)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
	}

	m := &metrics{
		registerer: reg,

		signalsPublished: counter("signals_published_total", "Total number of signals published on the bus"),
		handlerCalls:     counter("handler_calls_total", "Total number of bus handler invocations"),
		flushes:          counter("flushes_total", "Total number of flushes that applied at least one job"),
		jobsExecuted:     counter("jobs_executed_total", "Total number of mutation jobs applied"),
		jobsDiscarded:    counter("jobs_discarded_total", "Total number of mutation jobs dropped after a failed handler"),
		jobErrors:        counter("job_errors_total", "Total number of mutation jobs that returned an error"),
		stores: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stores",
			Help:      "Number of live stores",
		}),
	}
	m.collectors = []prometheus.Collector{
		m.signalsPublished,
		m.handlerCalls,
		m.flushes,
		m.jobsExecuted,
		m.jobsDiscarded,
		m.jobErrors,
		m.stores,
	}

	return m
}

func (m *metrics) published() {
	if m != nil {
		m.signalsPublished.Inc()
	}
}

func (m *metrics) delivered() {
	if m != nil {
		m.handlerCalls.Inc()
	}
}

func (m *metrics) flushed(jobs, failed int) {
	if m != nil {
		m.flushes.Inc()
		m.jobsExecuted.Add(float64(jobs))
		m.jobErrors.Add(float64(failed))
	}
}

func (m *metrics) discarded(jobs int) {
	if m != nil {
		m.jobsDiscarded.Add(float64(jobs))
	}
}

func (m *metrics) storeAdded() {
	if m != nil {
		m.stores.Inc()
	}
}

func (m *metrics) storeRemoved() {
	if m != nil {
		m.stores.Dec()
	}
}

func (m *metrics) unregister() {
	if m == nil {
		return
	}

	for _, c := range m.collectors {
		m.registerer.Unregister(c)
	}
}
