// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation provides input validation for identifiers that
// arrive from URLs and client payloads.
//
// Case slugs, case IDs, and judge names are used as map keys, storage
// keys, and log attributes. Validating them at the handler boundary
// keeps arbitrary client input out of those places.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// slugPattern matches case library slugs: the case file name without
// extension. Lowercase alphanumerics plus separators, 1-64 characters.
var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._\-]{0,63}$`)

// caseIDPattern matches simulation case IDs, which are UUIDs.
var caseIDPattern = regexp.MustCompile(`^[a-zA-Z0-9\-]{1,64}$`)

// judgeNamePattern matches judge display names, which double as
// judicial memory keys. Letters, digits, spaces, and common name
// punctuation, 1-128 characters.
var judgeNamePattern = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} .,'\-]{0,127}$`)

// ValidateSlug validates a case library slug.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug cannot be empty")
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("invalid slug format: %q (must be 1-64 lowercase alphanumeric chars, dots, hyphens, or underscores)", slug)
	}
	return nil
}

// ValidateCaseID validates a simulation case identifier.
func ValidateCaseID(id string) error {
	if id == "" {
		return fmt.Errorf("case id cannot be empty")
	}
	if !caseIDPattern.MatchString(id) {
		return fmt.Errorf("invalid case id format: %q", id)
	}
	return nil
}

// ValidateJudgeName validates a judge name used as a judicial memory
// key.
func ValidateJudgeName(name string) error {
	if name == "" {
		return fmt.Errorf("judge name cannot be empty")
	}
	if !judgeNamePattern.MatchString(name) {
		return fmt.Errorf("invalid judge name: %q", name)
	}
	return nil
}

// SanitizeJudgeName normalizes and validates a judge name. Returns the
// trimmed name if valid.
func SanitizeJudgeName(name string) (string, error) {
	normalized := strings.TrimSpace(name)
	if err := ValidateJudgeName(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
