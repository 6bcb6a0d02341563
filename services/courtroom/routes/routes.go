// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/CourtSim/services/courtroom/caselib"
	"github.com/AleutianAI/CourtSim/services/courtroom/handlers"
	"github.com/AleutianAI/CourtSim/services/courtroom/simulation"
	"github.com/AleutianAI/CourtSim/services/llm"
)

// SetupRoutes wires the courtroom API onto the router. defaultJurors
// is the panel size applied when a create request does not name one.
func SetupRoutes(router *gin.Engine, manager *simulation.Manager, library *caselib.Library,
	health *llm.HealthTracker, defaultJurors int) {

	router.GET("/health", handlers.HealthCheck(health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	hub := handlers.NewHub()

	v1 := router.Group("/v1")
	{
		cases := v1.Group("/cases")
		{
			cases.GET("", handlers.ListCases(library))
			cases.GET("/:slug", handlers.GetCase(library))
		}

		sims := v1.Group("/simulations")
		{
			sims.POST("", handlers.CreateSimulation(manager, library, defaultJurors))
			sims.GET("", handlers.ListSimulations(manager))
			sims.GET("/:caseId", handlers.GetSimulation(manager))
			sims.GET("/:caseId/transcript", handlers.GetTranscript(manager))
			sims.DELETE("/:caseId", handlers.DeleteSimulation(manager))
			sims.POST("/:caseId/command", handlers.Command(manager))
			sims.POST("/:caseId/phase", handlers.ProcessPhase(manager))
			sims.GET("/:caseId/ws", handlers.SimulationSocket(manager, hub))
		}

		judges := v1.Group("/judicial")
		{
			judges.GET("/:judgeId", handlers.GetJudicialPatterns(manager))
			judges.GET("/:judgeId/export", handlers.ExportJudicialMemory(manager))
			judges.POST("/:judgeId/import", handlers.ImportJudicialMemory(manager))
			judges.POST("/:judgeId/cleanup", handlers.CleanupJudicialMemory(manager))
		}
	}
}
