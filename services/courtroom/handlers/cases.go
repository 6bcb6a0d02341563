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
)

// ListCases returns the loaded case library.
func ListCases(library *caselib.Library) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"cases": library.List()})
	}
}

// GetCase returns one case file by slug.
func GetCase(library *caselib.Library) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		if err := validation.ValidateSlug(slug); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cf, ok := library.Get(slug)
		if !ok {
			slog.Warn("case lookup failed", "slug", slug)
			c.JSON(http.StatusNotFound, gin.H{"error": "case not found"})
			return
		}
		c.JSON(http.StatusOK, cf)
	}
}
