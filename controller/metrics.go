// SPDX-FileCopyrightText: 2023 Weston Schmidt <weston_schmidt@alumni.purdue.edu>
// SPDX-License-Identifier: Apache-2.0

package controller

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	writes   *prometheus.CounterVec
	failures *prometheus.CounterVec
	wiper    *prometheus.GaugeVec
	shutdown *prometheus.GaugeVec
	resets   *prometheus.CounterVec
}

func newMetrics(namespace string, r prometheus.Registerer) (*metrics, error) {
	m := metrics{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "physical",
			Name:      "wiper_writes",
			Help:      "Number of wiper codes latched.",
		}, []string{"device", "channel"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "physical",
			Name:      "failures",
			Help:      "Number of failed operations.",
		}, []string{"device", "op"}),
		wiper: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "physical",
			Name:      "wiper_code",
			Help:      "Wiper code (0-255) at this moment.",
		}, []string{"device", "channel"}),
		shutdown: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "physical",
			Name:      "shutdown",
			Help:      "Shutdown state (0 = normal, 1 = low power) at this moment.",
		}, []string{"device"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "physical",
			Name:      "resets",
			Help:      "Number of midscale resets, by method (line or spi).",
		}, []string{"device", "method"}),
	}

	for _, c := range []prometheus.Collector{m.writes, m.failures, m.wiper, m.shutdown, m.resets} {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}

	return &m, nil
}
