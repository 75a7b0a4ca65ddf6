// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package reconciler

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "beszel_operator"

// Metrics is a prometheus.Collector that collects metrics about
// reconciliation passes.
type Metrics struct {
	passes  *prometheus.CounterVec
	applies *prometheus.CounterVec
	phase   *prometheus.GaugeVec
}

// NewMetrics returns a new Metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "reconcile_passes_total",
				Help:      "The number of reconciliation passes by trigger and resulting phase.",
			}, []string{"trigger", "phase"},
		),
		applies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "spec_applies_total",
				Help:      "The number of service spec applications by result.",
			}, []string{"result"},
		),
		phase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "phase",
				Help:      "Set to 1 for the controller's current phase.",
			}, []string{"phase"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.passes.Describe(ch)
	m.applies.Describe(ch)
	m.phase.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.passes.Collect(ch)
	m.applies.Collect(ch)
	m.phase.Collect(ch)
}

func (m *Metrics) observePass(trigger Trigger, phase Phase) {
	m.passes.WithLabelValues(string(trigger), string(phase)).Inc()
	for _, p := range allPhases {
		value := 0.0
		if p == phase {
			value = 1
		}
		m.phase.WithLabelValues(string(p)).Set(value)
	}
}

func (m *Metrics) observeApply(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.applies.WithLabelValues(result).Inc()
}
