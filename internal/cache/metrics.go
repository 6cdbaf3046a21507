package cache

import "github.com/prometheus/client_golang/prometheus"

var (
	loadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "alignd",
		Subsystem: "cache",
		Name:      "loads_total",
		Help:      "Total number of successful asset loads",
	})

	loadFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "alignd",
		Subsystem: "cache",
		Name:      "load_failures_total",
		Help:      "Total number of failed asset loads",
	})

	evictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "alignd",
		Subsystem: "cache",
		Name:      "evictions_total",
		Help:      "Total number of assets disposed by eviction",
	})

	residentAssets = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "alignd",
		Subsystem: "cache",
		Name:      "resident_assets",
		Help:      "Number of assets currently resident in the cache",
	})

	usedCost = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "alignd",
		Subsystem: "cache",
		Name:      "used_cost",
		Help:      "Sum of resident asset costs charged against the budget",
	})
)

func init() {
	prometheus.MustRegister(loadsTotal, loadFailuresTotal, evictionsTotal, residentAssets, usedCost)
}
