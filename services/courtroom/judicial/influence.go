// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package judicial

import (
	"sort"

	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
)

// Influence is the advisory lean the store computes for a pending
// decision. A disabled or empty store always returns NeutralInfluence.
type Influence struct {
	// ParticipantBias in [-1,1]: positive means the parties have been
	// credible before this judge, negative means the opposite.
	ParticipantBias float64 `json:"participant_bias"`
	// PrecedentStrength in [0,1]: how strongly past similar cases bear
	// on this one.
	PrecedentStrength float64 `json:"precedent_strength"`
	// ExperienceWeight in [0,1]: how much total history backs the lean.
	ExperienceWeight float64 `json:"experience_weight"`
	// Confidence on the 1-10 judicial scale; 5.0 is neutral.
	Confidence float64 `json:"confidence"`
}

// NeutralInfluence is the baseline for judges without memory: zero lean
// and mid-scale confidence.
func NeutralInfluence() Influence {
	return Influence{Confidence: 5.0}
}

// SimilarCase pairs a past case with its similarity to the current one.
type SimilarCase struct {
	Record     CaseRecord `json:"record"`
	Similarity float64    `json:"similarity"`
}

// FindSimilarCases returns up to limit past cases of the same type,
// ranked by participant overlap. Case type is a hard filter: a civil
// matter never informs a criminal one. Ties break toward more recent
// cases.
func (s *Store) FindSimilarCases(caseType datatypes.CaseType, participants []string, limit int) []SimilarCase {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || limit <= 0 {
		return nil
	}

	want := make(map[string]bool, len(participants))
	for _, name := range participants {
		want[nameKey(name)] = true
	}

	var out []SimilarCase
	for _, rec := range s.cases {
		if rec.Type != caseType {
			continue
		}
		overlap := 0
		for _, name := range rec.Participants {
			if want[nameKey(name)] {
				overlap++
			}
		}
		sim := 0.2 // same type alone counts for a little
		if len(want) > 0 {
			sim += 0.8 * float64(overlap) / float64(len(want))
		}
		out = append(out, SimilarCase{Record: *rec, Similarity: sim})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Record.RecordedAt.After(out[j].Record.RecordedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// DecisionPatterns summarizes how the judge has ruled historically on
// one decision kind: total count, mean confidence, the most frequent
// contributing factors, and the distribution of outcomes.
type DecisionPatterns struct {
	Kind           string         `json:"kind,omitempty"`
	TotalDecisions int            `json:"total_decisions"`
	MeanConfidence float64        `json:"mean_confidence"`
	TopFactors     []string       `json:"top_factors,omitempty"`
	Outcomes       map[string]int `json:"outcomes"`
}

// maxTopFactors caps the factor list in a patterns summary.
const maxTopFactors = 5

// Patterns computes ruling statistics across all retained cases for one
// decision kind. An empty kind aggregates every decision.
func (s *Store) Patterns(kind string) DecisionPatterns {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := DecisionPatterns{Kind: kind, Outcomes: make(map[string]int)}
	if !s.enabled {
		return p
	}

	var confidenceSum float64
	factorCounts := make(map[string]int)
	for _, rec := range s.cases {
		for _, d := range rec.Decisions {
			if kind != "" && d.Kind != kind {
				continue
			}
			p.TotalDecisions++
			confidenceSum += d.Confidence
			p.Outcomes[d.Decision]++
			for _, f := range d.ContributingFactors {
				factorCounts[f]++
			}
		}
	}
	if p.TotalDecisions > 0 {
		p.MeanConfidence = confidenceSum / float64(p.TotalDecisions)
	}

	factors := make([]string, 0, len(factorCounts))
	for f := range factorCounts {
		factors = append(factors, f)
	}
	sort.Slice(factors, func(i, j int) bool {
		if factorCounts[factors[i]] != factorCounts[factors[j]] {
			return factorCounts[factors[i]] > factorCounts[factors[j]]
		}
		return factors[i] < factors[j]
	})
	if len(factors) > maxTopFactors {
		factors = factors[:maxTopFactors]
	}
	p.TopFactors = factors
	return p
}

// ComputeInfluence derives the advisory lean for a pending decision
// involving the named participants. Returns NeutralInfluence when the
// store is disabled or holds nothing relevant; influence only ever
// shades confidence and phrasing, it never decides.
func (s *Store) ComputeInfluence(participants []string, caseType datatypes.CaseType, subject string) Influence {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return NeutralInfluence()
	}

	// Participant lean: mean deviation of known parties' credibility
	// from the 5.0 midpoint, scaled to [-1,1].
	var lean float64
	known := 0
	for _, name := range participants {
		if p, ok := s.participants[nameKey(name)]; ok && p.Appearances > 0 {
			lean += (p.Credibility - 5.0) / 4.0
			known++
		}
	}
	if known > 0 {
		lean /= float64(known)
	}
	if lean > 1 {
		lean = 1
	} else if lean < -1 {
		lean = -1
	}

	totalCases := s.experience.TotalCases
	s.mu.Unlock()

	similar := s.FindSimilarCases(caseType, participants, 5)
	var precedent float64
	if len(similar) > 0 {
		var avg float64
		for _, sc := range similar {
			avg += sc.Similarity
		}
		avg /= float64(len(similar))
		coverage := float64(len(similar)) / 5.0
		precedent = avg * coverage
	}

	experience := float64(totalCases) / 50.0
	if experience > 1 {
		experience = 1
	}

	conf := 5.0 + 2.5*precedent + 1.5*experience
	if conf > 10 {
		conf = 10
	}

	return Influence{
		ParticipantBias:   lean,
		PrecedentStrength: precedent,
		ExperienceWeight:  experience,
		Confidence:        conf,
	}
}
