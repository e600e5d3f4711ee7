// Package metrics exposes cart engine instrumentation in the Prometheus
// exposition format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cartview"

// CartEngine counts cart engine outcomes across every session in the process.
type CartEngine struct {
	LoadDuration      prometheus.Histogram
	LoadFailures      prometheus.Counter
	StaleDiscards     prometheus.Counter
	Mutations         prometheus.Counter
	MutationFailures  prometheus.Counter
	DroppedDuplicates prometheus.Counter
	Broadcasts        prometheus.Counter
}

func counter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cart",
		Name:      name,
		Help:      help,
	})
}

func NewCartEngine() *CartEngine {
	return &CartEngine{
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "load_duration_seconds",
			Help:      "Time spent fetching the server cart.",
			Buckets:   prometheus.DefBuckets,
		}),
		LoadFailures:      counter("load_failures_total", "Cart loads that failed upstream."),
		StaleDiscards:     counter("stale_discards_total", "Results discarded as superseded or after close."),
		Mutations:         counter("mutations_total", "Remove and quantity writes sent upstream."),
		MutationFailures:  counter("mutation_failures_total", "Writes rejected upstream."),
		DroppedDuplicates: counter("dropped_duplicates_total", "Writes dropped while the item was already in flight."),
		Broadcasts:        counter("broadcasts_total", "Cart-changed signals published."),
	}
}

// Cart is the process-wide cart engine instrumentation.
var Cart = NewCartEngine()

// LoadTimer starts timing one cart load; call ObserveDuration when it returns.
func (e *CartEngine) LoadTimer() *prometheus.Timer {
	return prometheus.NewTimer(e.LoadDuration)
}

func (e *CartEngine) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(e, ch)
}

func (e *CartEngine) Collect(ch chan<- prometheus.Metric) {
	for _, c := range []prometheus.Collector{
		e.LoadDuration,
		e.LoadFailures,
		e.StaleDiscards,
		e.Mutations,
		e.MutationFailures,
		e.DroppedDuplicates,
		e.Broadcasts,
	} {
		c.Collect(ch)
	}
}

// Gauges are sampled on every scrape.
type Gauges struct {
	OpenSessions   func() int
	BusSubscribers func() int
}

func gaugeFunc(name, help string, fn func() int) prometheus.Collector {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, func() float64 { return float64(fn()) })
}

// NewRegistry builds a registry with the runtime collectors, engine and the
// process's live gauges.
func NewRegistry(engine *CartEngine, g Gauges) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		engine,
	)
	if g.OpenSessions != nil {
		reg.MustRegister(gaugeFunc("open_sessions", "Cart view sessions held by this instance.", g.OpenSessions))
	}
	if g.BusSubscribers != nil {
		reg.MustRegister(gaugeFunc("bus_subscribers", "Live cart event subscriptions.", g.BusSubscribers))
	}
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
