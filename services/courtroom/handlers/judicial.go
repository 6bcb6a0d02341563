// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/CourtSim/services/courtroom/simulation"
)

// ExportJudicialMemory returns the judge's full memory snapshot as
// JSON, suitable for re-import.
func ExportJudicialMemory(manager *simulation.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		judgeID, ok := judgeParam(c)
		if !ok {
			return
		}
		store := manager.MemoryFor(judgeID)
		blob, err := store.Export()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json", blob)
	}
}

// ImportJudicialMemory replaces the judge's memory with the posted
// snapshot. Full replace: nothing is merged.
func ImportJudicialMemory(manager *simulation.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		judgeID, ok := judgeParam(c)
		if !ok {
			return
		}
		blob, err := io.ReadAll(io.LimitReader(c.Request.Body, 16<<20))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		store := manager.MemoryFor(judgeID)
		if err := store.Import(blob); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Info("judicial memory imported", "judge", judgeID)
		c.JSON(http.StatusOK, gin.H{"status": "imported", "judge": judgeID})
	}
}

// GetJudicialPatterns returns the judge's ruling statistics and
// experience counters. ?kind narrows the pattern analysis to one
// decision kind (objection, verdict, sentence); the default aggregates
// everything.
func GetJudicialPatterns(manager *simulation.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		judgeID, ok := judgeParam(c)
		if !ok {
			return
		}
		store := manager.MemoryFor(judgeID)
		c.JSON(http.StatusOK, gin.H{
			"judge":      store.JudgeID(),
			"enabled":    store.Enabled(),
			"experience": store.ExperienceSummary(),
			"patterns":   store.Patterns(c.Query("kind")),
			"cases":      store.CaseCount(),
		})
	}
}

// CleanupJudicialMemory drops case records older than the retention
// window. Retention never runs implicitly; this endpoint is the only
// trigger. ?days overrides the five-year default.
func CleanupJudicialMemory(manager *simulation.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		judgeID, ok := judgeParam(c)
		if !ok {
			return
		}
		store := manager.MemoryFor(judgeID)

		var maxAge time.Duration
		if days := c.Query("days"); days != "" {
			n, err := strconv.Atoi(days)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
				return
			}
			maxAge = time.Duration(n) * 24 * time.Hour
		}

		removed := store.CleanupOldCases(maxAge)
		c.JSON(http.StatusOK, gin.H{
			"removed":  removed,
			"retained": store.CaseCount(),
		})
	}
}
