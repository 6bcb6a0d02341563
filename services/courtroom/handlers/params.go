// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/CourtSim/pkg/validation"
)

// caseParam validates the :caseId path parameter. On failure it writes
// the 400 response and returns ok=false; the handler should return.
func caseParam(c *gin.Context) (string, bool) {
	id := c.Param("caseId")
	if err := validation.ValidateCaseID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return id, true
}

// judgeParam validates and normalizes the :judgeId path parameter.
// Judge names key the judicial memory registry, and MemoryFor creates
// a store on first use, so arbitrary input must not reach it.
func judgeParam(c *gin.Context) (string, bool) {
	name, err := validation.SanitizeJudgeName(c.Param("judgeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return name, true
}
