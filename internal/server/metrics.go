// Copyright 2025 Stefan Prodan.
// SPDX-License-Identifier: AGPL-3.0

package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultValid   = "valid"
	resultInvalid = "invalid"
	resultError   = "error"
)

// Metrics holds the collectors of the validation service.
type Metrics struct {
	validations *prometheus.CounterVec
	duration    prometheus.Histogram
}

// NewMetrics creates the validation collectors and registers them
// with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "license_file_validations_total",
				Help: "The total number of license file validations by result.",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "license_file_validation_duration_seconds",
				Help:    "The duration of license file validations in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
		),
	}

	// Initialise the result series so that they are exported from the start.
	for _, result := range []string{resultValid, resultInvalid, resultError} {
		m.validations.WithLabelValues(result)
	}

	reg.MustRegister(m.validations, m.duration)
	return m
}

// RecordValidation records the result and duration of a validation.
func (m *Metrics) RecordValidation(result string, start time.Time) {
	m.validations.WithLabelValues(result).Inc()
	m.duration.Observe(time.Since(start).Seconds())
}
