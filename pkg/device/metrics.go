// Copyright (c) 2023 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package device

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/open-source-firmware/go-atadev/pkg/ata"
	"github.com/open-source-firmware/go-atadev/pkg/unit"
)

const namespace = "atadev"

type metrics struct {
	requests     *prometheus.CounterVec
	errors       *prometheus.CounterVec
	mediaChanges *prometheus.CounterVec
	queueDepth   prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "I/O requests received, by command",
		}, []string{"command"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_errors_total",
			Help:      "I/O requests completed with an error, by error code",
		}, []string{"command", "error"}),
		mediaChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "media_changes_total",
			Help:      "Media insertions and removals seen, by unit",
		}, []string{"unit"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Requests waiting for the I/O task",
		}),
	}
}

func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.requests, m.errors, m.mediaChanges, m.queueDepth}
}

func (m *metrics) register(r prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *metrics) unregister(r prometheus.Registerer) {
	for _, c := range m.collectors() {
		r.Unregister(c)
	}
}

func (m *metrics) request(c Command) {
	m.requests.WithLabelValues(c.String()).Inc()
}

func (m *metrics) completed(c Command, e ata.Errno) {
	if e != ata.OK {
		m.errors.WithLabelValues(c.String(), strconv.Itoa(int(e))).Inc()
	}
}

func (m *metrics) mediaChange(u *unit.Unit) {
	m.mediaChanges.WithLabelValues(strconv.Itoa(u.Index)).Inc()
}
