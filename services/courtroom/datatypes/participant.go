// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// Role identifies a participant's function in the proceeding.
type Role string

const (
	RoleJudge            Role = "judge"
	RoleProsecutor       Role = "prosecutor"
	RoleDefenseCounsel   Role = "defense_counsel"
	RolePlaintiffCounsel Role = "plaintiff_counsel"
	RoleDefendant        Role = "defendant"
	RolePlaintiff        Role = "plaintiff"
	RoleWitness          Role = "witness"
	RoleJuror            Role = "juror"
	RoleBailiff          Role = "bailiff"
	RoleClerk            Role = "clerk"
	RoleObserver         Role = "observer"
)

// Valid reports whether the role is one of the fixed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleJudge, RoleProsecutor, RoleDefenseCounsel, RolePlaintiffCounsel,
		RoleDefendant, RolePlaintiff, RoleWitness, RoleJuror,
		RoleBailiff, RoleClerk, RoleObserver:
		return true
	}
	return false
}

// Counsel reports whether the role argues a side of the case.
func (r Role) Counsel() bool {
	return r == RoleProsecutor || r == RoleDefenseCounsel || r == RolePlaintiffCounsel
}

// PersonalityProfile holds the behavioral weights for an agent, each on
// a [0,1] scale. The weights bias prompt construction and fallback
// behavior; they are set at roster creation and never mutated.
type PersonalityProfile struct {
	Assertiveness     float64 `json:"assertiveness"`
	Empathy           float64 `json:"empathy"`
	Analytical        float64 `json:"analytical_thinking"`
	Stability         float64 `json:"emotional_stability"`
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Persuasiveness    float64 `json:"persuasiveness"`
}

// Background is the free-text biography attached to a participant.
type Background struct {
	Age          int    `json:"age,omitempty"`
	Occupation   string `json:"occupation,omitempty"`
	Organization string `json:"organization,omitempty"`
	Education    string `json:"education,omitempty"`
	Bio          string `json:"bio,omitempty"`
}

// Participant is one actor in a case. Owned by the Case; behavioral
// state beyond Mood lives in the agent unit bound to it.
type Participant struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Role        Role               `json:"role"`
	Personality PersonalityProfile `json:"personality"`
	Background  Background         `json:"background"`

	// Mood is a [0,1] scalar mutated only by the bound agent unit.
	Mood float64 `json:"mood"`

	// HumanControlled marks a participant whose turns come from user
	// input instead of the generation gateway.
	HumanControlled bool `json:"human_controlled"`
}
