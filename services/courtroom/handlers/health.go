// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the HTTP and websocket surface of the
// courtroom service. Handlers are factories over their dependencies;
// all state lives in the simulation manager and the case library.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/CourtSim/services/courtroom/simulation"
	"github.com/AleutianAI/CourtSim/services/llm"
)

// HealthCheck reports service liveness and generation gateway
// connectivity. Gateway loss is a degraded status, never an error: the
// service keeps simulating on fallbacks.
func HealthCheck(health *llm.HealthTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := llm.StatusConnected
		var exhaustions int64
		if health != nil {
			status = health.Status()
			exhaustions = health.Exhaustions()
		}
		c.JSON(http.StatusOK, gin.H{
			"status":              "ok",
			"gateway":             status.String(),
			"gateway_exhaustions": exhaustions,
		})
	}
}

// statusFor maps simulation errors to HTTP status codes. Contention
// and sequencing conflicts are 409s: the request was well-formed, the
// state just does not admit it right now.
func statusFor(err error) int {
	switch {
	case errors.Is(err, simulation.ErrCaseNotFound),
		errors.Is(err, simulation.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, simulation.ErrTurnInFlight),
		errors.Is(err, simulation.ErrInvalidTransition),
		errors.Is(err, simulation.ErrNotRunning),
		errors.Is(err, simulation.ErrStopped),
		errors.Is(err, simulation.ErrCompleted),
		errors.Is(err, simulation.ErrNoSidebar),
		errors.Is(err, simulation.ErrNothingToObjectTo),
		errors.Is(err, simulation.ErrNotHumanControlled):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
