// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: © 2017 LabStack and Echo contributors

package modelbind

import (
	"github.com/prometheus/client_golang/prometheus"
)

const defaultSubsystem = "modelbind"

// elementBuckets spans small forms through collections near the default element cap.
var elementBuckets = []float64{0, 1, 2, 5, 10, 25, 50, 100, 500, 1000, 10000}

// MetricsConfig contains the configuration for creating bind metrics.
type MetricsConfig struct {
	// Namespace is components of the fully-qualified name of the Metric (created by joining Namespace,Subsystem and Name components with "_")
	// Optional
	Namespace string

	// Subsystem is components of the fully-qualified name of the Metric (created by joining Namespace,Subsystem and Name components with "_")
	// Defaults to: "modelbind"
	Subsystem string

	// Registerer sets the prometheus.Registerer instance the metrics are registered with.
	// Defaults to: prometheus.DefaultRegisterer
	Registerer prometheus.Registerer
}

// Metrics observes collection binds.
type Metrics struct {
	binds            *prometheus.CounterVec
	elements         *prometheus.HistogramVec
	validationErrors *prometheus.CounterVec
}

// NewMetrics creates and registers the bind collectors.
func NewMetrics(config MetricsConfig) (*Metrics, error) {
	if config.Subsystem == "" {
		config.Subsystem = defaultSubsystem
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		binds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "binds_total",
			Help:      "How many collection binds ran, partitioned by index mode and outcome.",
		}, []string{"mode", "outcome"}),
		elements: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "bound_elements",
			Help:      "The number of elements resolved per collection bind.",
			Buckets:   elementBuckets,
		}, []string{"mode"}),
		validationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Subsystem: config.Subsystem,
			Name:      "validation_errors_total",
			Help:      "How many model state errors binds produced, partitioned by error code.",
		}, []string{"code"}),
	}

	for _, c := range []prometheus.Collector{m.binds, m.elements, m.validationErrors} {
		if err := config.Registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(res *Result, err error) {
	if m == nil {
		return
	}
	mode := res.Mode.String()
	outcome := "valid"
	switch {
	case err != nil:
		outcome = "error"
	case res.Mode == IndexNone:
		outcome = "empty"
	case !res.ModelState.IsValid():
		outcome = "invalid"
	}
	m.binds.WithLabelValues(mode, outcome).Inc()
	if err != nil {
		return
	}
	m.elements.WithLabelValues(mode).Observe(float64(res.Elements))
	for _, e := range res.ModelState.Invalid() {
		for _, ve := range e.Errors {
			m.validationErrors.WithLabelValues(ve.Code).Inc()
		}
	}
}
