// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package caselib

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
)

// Personality presets per courtroom function. Witness and juror
// profiles get per-participant variation in buildRoster.
var rolePresets = map[datatypes.Role]datatypes.PersonalityProfile{
	datatypes.RoleJudge: {
		Assertiveness: 0.8, Empathy: 0.5, Analytical: 0.9,
		Stability: 0.9, Openness: 0.4, Conscientiousness: 0.9, Persuasiveness: 0.6,
	},
	datatypes.RoleProsecutor: {
		Assertiveness: 0.85, Empathy: 0.3, Analytical: 0.8,
		Stability: 0.7, Openness: 0.4, Conscientiousness: 0.8, Persuasiveness: 0.85,
	},
	datatypes.RolePlaintiffCounsel: {
		Assertiveness: 0.8, Empathy: 0.45, Analytical: 0.75,
		Stability: 0.7, Openness: 0.5, Conscientiousness: 0.8, Persuasiveness: 0.85,
	},
	datatypes.RoleDefenseCounsel: {
		Assertiveness: 0.8, Empathy: 0.6, Analytical: 0.8,
		Stability: 0.75, Openness: 0.6, Conscientiousness: 0.8, Persuasiveness: 0.9,
	},
	datatypes.RoleDefendant: {
		Assertiveness: 0.4, Empathy: 0.5, Analytical: 0.5,
		Stability: 0.4, Openness: 0.5, Conscientiousness: 0.5, Persuasiveness: 0.4,
	},
	datatypes.RolePlaintiff: {
		Assertiveness: 0.5, Empathy: 0.6, Analytical: 0.5,
		Stability: 0.5, Openness: 0.5, Conscientiousness: 0.6, Persuasiveness: 0.5,
	},
	datatypes.RoleWitness: {
		Assertiveness: 0.5, Empathy: 0.5, Analytical: 0.5,
		Stability: 0.5, Openness: 0.5, Conscientiousness: 0.6, Persuasiveness: 0.5,
	},
	datatypes.RoleJuror: {
		Assertiveness: 0.45, Empathy: 0.6, Analytical: 0.6,
		Stability: 0.6, Openness: 0.6, Conscientiousness: 0.7, Persuasiveness: 0.4,
	},
	datatypes.RoleBailiff: {
		Assertiveness: 0.7, Empathy: 0.4, Analytical: 0.4,
		Stability: 0.9, Openness: 0.3, Conscientiousness: 0.9, Persuasiveness: 0.3,
	},
	datatypes.RoleClerk: {
		Assertiveness: 0.4, Empathy: 0.5, Analytical: 0.7,
		Stability: 0.8, Openness: 0.4, Conscientiousness: 0.95, Persuasiveness: 0.3,
	},
}

// defaultNames are the stock court officers used when a case file does
// not name its own.
var defaultNames = map[datatypes.Role]string{
	datatypes.RoleJudge:            "Hon. Patricia Reyes",
	datatypes.RoleProsecutor:       "ADA Marcus Okafor",
	datatypes.RolePlaintiffCounsel: "Elena Vasquez, Esq.",
	datatypes.RoleDefenseCounsel:   "Lawrence Marsh, Esq.",
	datatypes.RoleBailiff:          "Deputy R. Ortiz",
	datatypes.RoleClerk:            "C. Winters",
}

func newParticipant(name string, role datatypes.Role) *datatypes.Participant {
	if name == "" {
		name = defaultNames[role]
	}
	return &datatypes.Participant{
		ID:          uuid.NewString(),
		Name:        name,
		Role:        role,
		Personality: rolePresets[role],
	}
}

// buildRoster materializes the full participant list for a case file:
// court officers, the parties, the file's witnesses, and the requested
// number of jurors.
func buildRoster(cf *CaseFile, jurors int) []*datatypes.Participant {
	var roster []*datatypes.Participant

	roster = append(roster,
		newParticipant(cf.Judge, datatypes.RoleJudge),
		newParticipant("", datatypes.RoleBailiff),
		newParticipant("", datatypes.RoleClerk),
	)

	if cf.Type == datatypes.CaseCivil {
		roster = append(roster,
			newParticipant(cf.PlaintiffCounsel, datatypes.RolePlaintiffCounsel),
			newParticipant(cf.DefenseCounsel, datatypes.RoleDefenseCounsel),
			newParticipant(cf.Plaintiff, datatypes.RolePlaintiff),
			newParticipant(cf.Defendant, datatypes.RoleDefendant),
		)
	} else {
		roster = append(roster,
			newParticipant(cf.Prosecutor, datatypes.RoleProsecutor),
			newParticipant(cf.DefenseCounsel, datatypes.RoleDefenseCounsel),
			newParticipant(cf.Defendant, datatypes.RoleDefendant),
		)
	}

	for _, w := range cf.Witnesses {
		p := newParticipant(w.Name, datatypes.RoleWitness)
		p.Background.Bio = w.Background
		// Nudge profiles apart so witnesses do not speak identically.
		p.Personality.Assertiveness = wrap01(p.Personality.Assertiveness + 0.07*float64(len(roster)%5))
		roster = append(roster, p)
	}

	for i := 0; i < jurors; i++ {
		p := newParticipant(fmt.Sprintf("Juror %d", i+1), datatypes.RoleJuror)
		p.Personality.Openness = wrap01(p.Personality.Openness + 0.05*float64(i))
		roster = append(roster, p)
	}
	return roster
}

func wrap01(v float64) float64 {
	if v > 1 {
		return v - 1
	}
	return v
}
