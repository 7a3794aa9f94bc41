/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package pool

import "github.com/prometheus/client_golang/prometheus"

// metrics are the pool's Prometheus gauges, registered once per Pool so
// multiple pools (e.g. one per object adapter) can coexist with distinct
// "name" label values instead of colliding on a package-global registry.
type metrics struct {
	threads prometheus.Gauge
	busy    prometheus.Gauge
	size    prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer, name string) *metrics {
	labels := prometheus.Labels{"pool": name}
	m := &metrics{
		threads: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "corerpc",
			Subsystem:   "threadpool",
			Name:        "threads",
			Help:        "current number of goroutines in the leader/follower pool",
			ConstLabels: labels,
		}),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "corerpc",
			Subsystem:   "threadpool",
			Name:        "busy",
			Help:        "goroutines currently executing a dispatched callback",
			ConstLabels: labels,
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "corerpc",
			Subsystem:   "threadpool",
			Name:        "size_max",
			Help:        "configured elastic ceiling for this pool",
			ConstLabels: labels,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.threads, m.busy, m.size)
	}
	return m
}
