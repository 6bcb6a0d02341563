// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/CourtSim/pkg/validation"
	"github.com/AleutianAI/CourtSim/services/courtroom/caselib"
	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
	"github.com/AleutianAI/CourtSim/services/courtroom/simulation"
)

// CreateSimulationRequest starts a simulation from a library case.
// Omitting jurors falls back to the configured default panel size.
type CreateSimulationRequest struct {
	CaseSlug string `json:"case_slug" binding:"required"`
	Jurors   *int   `json:"jurors" binding:"omitempty,gte=0,lte=12"`
}

// CreateSimulation materializes a case file and registers a controller
// for it. The simulation is created, not started; the start command
// comes separately.
func CreateSimulation(manager *simulation.Manager, library *caselib.Library, defaultJurors int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSimulationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := validation.ValidateSlug(req.CaseSlug); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		jurors := defaultJurors
		if req.Jurors != nil {
			jurors = *req.Jurors
		}
		kase, err := library.Materialize(req.CaseSlug, jurors)
		if err != nil {
			slog.Warn("materialize failed", "slug", req.CaseSlug, "error", err)
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		ctrl, err := manager.CreateSimulation(kase)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}

		slog.Info("simulation created", "case", kase.ID, "slug", req.CaseSlug)
		c.JSON(http.StatusCreated, gin.H{
			"case_id": ctrl.CaseID(),
			"title":   kase.Title,
			"type":    kase.Type,
			"phase":   kase.Phase,
			"state":   ctrl.State(),
		})
	}
}

// ListSimulations returns a summary of every registered simulation.
func ListSimulations(manager *simulation.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"simulations": manager.List()})
	}
}

// GetSimulation returns the full case snapshot for one simulation.
func GetSimulation(manager *simulation.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caseParam(c)
		if !ok {
			return
		}
		ctrl, err := manager.Get(id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		snap := ctrl.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"state": ctrl.State(),
			"case":  snap,
		})
	}
}

// GetTranscript returns the transcript only, optionally excluding
// sidebar content with ?public=true.
func GetTranscript(manager *simulation.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caseParam(c)
		if !ok {
			return
		}
		ctrl, err := manager.Get(id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		snap := ctrl.Snapshot()
		entries := snap.Transcript
		if c.Query("public") == "true" {
			filtered := make([]datatypes.TranscriptEntry, 0, len(entries))
			for _, e := range entries {
				if !e.Sidebar {
					filtered = append(filtered, e)
				}
			}
			entries = filtered
		}
		c.JSON(http.StatusOK, gin.H{
			"case_id":    snap.ID,
			"phase":      snap.Phase,
			"transcript": entries,
			"rulings":    snap.Rulings,
		})
	}
}

// DeleteSimulation stops and removes a simulation.
func DeleteSimulation(manager *simulation.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caseParam(c)
		if !ok {
			return
		}
		if err := manager.Remove(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		slog.Info("simulation removed", "case", id)
		c.JSON(http.StatusOK, gin.H{"status": "removed", "case_id": id})
	}
}

// Command applies a control command to a simulation. Sequencing and
// contention conflicts come back as 409; the client retries or backs
// off.
func Command(manager *simulation.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caseParam(c)
		if !ok {
			return
		}
		var cmd datatypes.SimCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := manager.Dispatch(c.Request.Context(), id, cmd); err != nil {
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				slog.Error("command failed", "case", id, "action", cmd.Action, "error", err)
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		ctrl, err := manager.Get(id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"state":  ctrl.State(),
			"phase":  ctrl.Phase(),
		})
	}
}

// ProcessPhase runs every scripted turn of the current phase, then
// returns the updated state. Long-running: each turn may take the full
// retry budget.
func ProcessPhase(manager *simulation.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := caseParam(c)
		if !ok {
			return
		}
		ctrl, err := manager.Get(id)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err := ctrl.ProcessPhase(c.Request.Context()); err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"state":  ctrl.State(),
			"phase":  ctrl.Phase(),
		})
	}
}
