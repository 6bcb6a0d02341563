// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import "sync"

// Emotional dimensions tracked per unit. All values live in [0,1].
const (
	EmotionStress       = "stress"
	EmotionConfidence   = "confidence"
	EmotionFrustration  = "frustration"
	EmotionSatisfaction = "satisfaction"
)

// Courtroom events that move emotional state. The deltas are fixed per
// event type; callers scale them with an impact factor in [0,1].
const (
	EventObjectionSustained   = "objection_sustained" // against the speaker
	EventObjectionOverruled   = "objection_overruled" // against the objector
	EventObjectionWon         = "objection_won"
	EventObjectionLost        = "objection_lost"
	EventEvidenceAdmitted     = "evidence_admitted"
	EventWitnessContradiction = "witness_contradiction"
	EventFavorableRuling      = "favorable_ruling"
	EventAdverseRuling        = "adverse_ruling"
)

var emotionDeltas = map[string]map[string]float64{
	EventObjectionSustained: {
		EmotionStress: +0.10, EmotionConfidence: -0.10, EmotionFrustration: +0.15,
	},
	EventObjectionOverruled: {
		EmotionStress: +0.05, EmotionConfidence: -0.05, EmotionFrustration: +0.10,
	},
	EventObjectionWon: {
		EmotionConfidence: +0.10, EmotionSatisfaction: +0.10, EmotionStress: -0.05,
	},
	EventObjectionLost: {
		EmotionConfidence: -0.05, EmotionFrustration: +0.10,
	},
	EventEvidenceAdmitted: {
		EmotionConfidence: +0.05, EmotionSatisfaction: +0.05,
	},
	EventWitnessContradiction: {
		EmotionStress: +0.15, EmotionConfidence: -0.15, EmotionFrustration: +0.10,
	},
	EventFavorableRuling: {
		EmotionConfidence: +0.15, EmotionSatisfaction: +0.15, EmotionStress: -0.10,
	},
	EventAdverseRuling: {
		EmotionStress: +0.15, EmotionConfidence: -0.10, EmotionFrustration: +0.15,
	},
}

// EmotionalState tracks the four mood dimensions of a participant.
//
// # Thread Safety
//
// Safe for concurrent use. Updates are applied atomically per event.
type EmotionalState struct {
	mu     sync.Mutex
	values map[string]float64
}

// NewEmotionalState returns a state at courtroom-neutral baselines.
func NewEmotionalState() *EmotionalState {
	return &EmotionalState{
		values: map[string]float64{
			EmotionStress:       0.2,
			EmotionConfidence:   0.6,
			EmotionFrustration:  0.1,
			EmotionSatisfaction: 0.5,
		},
	}
}

// Apply adjusts the state for a courtroom event. impact scales the
// event's fixed deltas and is clamped to [0,1]; unknown events are
// ignored. Every dimension stays within [0,1] after the update.
func (e *EmotionalState) Apply(event string, impact float64) {
	deltas, ok := emotionDeltas[event]
	if !ok {
		return
	}
	impact = clamp01(impact)

	e.mu.Lock()
	defer e.mu.Unlock()
	for dim, d := range deltas {
		e.values[dim] = clamp01(e.values[dim] + d*impact)
	}
}

// Get returns the current value of one dimension.
func (e *EmotionalState) Get(dimension string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values[dimension]
}

// Snapshot returns a copy of all dimensions.
func (e *EmotionalState) Snapshot() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]float64, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// Mood folds the four dimensions into a single composure score in
// [0,1]: high confidence and satisfaction raise it, stress and
// frustration pull it down.
func (e *EmotionalState) Mood() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return (e.values[EmotionConfidence] + e.values[EmotionSatisfaction] +
		(1 - e.values[EmotionStress]) + (1 - e.values[EmotionFrustration])) / 4
}
