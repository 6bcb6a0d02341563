// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability defines the Prometheus metrics for the
// courtroom service. Metrics register on the default registry; the
// /metrics route exposes them.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts resolved turns by role and outcome
	// ("generated" or "fallback").
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courtsim",
		Name:      "turns_total",
		Help:      "Resolved simulation turns by role and outcome.",
	}, []string{"role", "outcome"})

	// TurnDuration observes end-to-end turn resolution latency,
	// including retries and fallback selection.
	TurnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "courtsim",
		Name:      "turn_duration_seconds",
		Help:      "Turn resolution latency in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 70},
	}, []string{"role"})

	// GatewayExhaustions counts retry loops that ran out of attempts.
	GatewayExhaustions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "courtsim",
		Name:      "gateway_exhaustions_total",
		Help:      "Generation gateway calls that exhausted the retry policy.",
	})

	// ActiveSimulations gauges simulations currently in the running or
	// paused states.
	ActiveSimulations = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "courtsim",
		Name:      "active_simulations",
		Help:      "Simulations currently running or paused.",
	})

	// ObjectionsTotal counts objection rulings by disposition.
	ObjectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courtsim",
		Name:      "objections_total",
		Help:      "Objection rulings by disposition.",
	}, []string{"disposition"})

	// PhaseTransitions counts phase changes by target phase.
	PhaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "courtsim",
		Name:      "phase_transitions_total",
		Help:      "Phase transitions by target phase.",
	}, []string{"phase"})

	// EventsDropped counts live-feed events dropped on slow consumers.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "courtsim",
		Name:      "events_dropped_total",
		Help:      "Live feed events dropped because the buffer was full.",
	})
)
