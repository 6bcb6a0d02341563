// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"math/rand"

	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
)

// Fallback statement classes. When the language gateway is exhausted
// the unit selects a canned statement by role and class so proceedings
// never stall on infrastructure failure.
const (
	classOpening       = "opening"
	classClosing       = "closing"
	classWitnessDirect = "witness-direct"
	classWitnessCross  = "witness-cross"
	classRuling        = "ruling"
	classDefault       = "default"
)

// statementClass maps the current phase to a fallback class.
func statementClass(phase datatypes.Phase) string {
	switch phase {
	case datatypes.PhaseOpeningStatements:
		return classOpening
	case datatypes.PhaseClosingArguments:
		return classClosing
	case datatypes.PhaseProsecutionCase:
		return classWitnessDirect
	case datatypes.PhaseDefenseCase:
		return classWitnessCross
	case datatypes.PhaseVerdict, datatypes.PhaseSentencing:
		return classRuling
	default:
		return classDefault
	}
}

var fallbackStatements = map[datatypes.Role]map[string][]string{
	datatypes.RoleJudge: {
		classOpening: {
			"Counsel, you may proceed with your opening statement.",
			"We are on the record. Counsel may begin.",
		},
		classClosing: {
			"Counsel, the court will hear your closing argument.",
		},
		classRuling: {
			"The court has considered the matter and will issue its ruling.",
			"Having weighed the evidence presented, the court is prepared to rule.",
		},
		classDefault: {
			"The court notes the point. Let us proceed.",
			"Very well. The proceeding will continue.",
			"Counsel, please continue.",
		},
	},
	datatypes.RoleProsecutor: {
		classOpening: {
			"Ladies and gentlemen, the evidence will show that the defendant committed the acts charged.",
			"The People will prove each element of the charges beyond a reasonable doubt.",
		},
		classClosing: {
			"The evidence you have heard leaves no reasonable doubt of the defendant's guilt.",
		},
		classWitnessDirect: {
			"Please tell the court, in your own words, what you observed.",
			"And what happened next?",
		},
		classWitnessCross: {
			"Isn't it true that your account has changed since your first statement?",
		},
		classDefault: {
			"The prosecution is prepared to proceed, Your Honor.",
			"Nothing further at this time, Your Honor.",
		},
	},
	datatypes.RolePlaintiffCounsel: {
		classOpening: {
			"The evidence will show that the defendant's conduct caused real and measurable harm to my client.",
		},
		classClosing: {
			"The weight of the evidence supports a finding for the plaintiff.",
		},
		classWitnessDirect: {
			"Please describe for the court what you experienced.",
		},
		classDefault: {
			"Plaintiff is ready to proceed, Your Honor.",
		},
	},
	datatypes.RoleDefenseCounsel: {
		classOpening: {
			"The evidence will not support these charges. My client is presumed innocent, and that presumption will hold.",
			"Keep an open mind. The state's story has gaps the evidence cannot fill.",
		},
		classClosing: {
			"The burden of proof has not been met. The only just result is a finding for my client.",
		},
		classWitnessCross: {
			"You can't be certain of what you saw that day, can you?",
			"Isn't it possible you were mistaken?",
		},
		classWitnessDirect: {
			"Please tell the court where you were at the time in question.",
		},
		classDefault: {
			"The defense is ready, Your Honor.",
			"No further questions, Your Honor.",
		},
	},
	datatypes.RoleWitness: {
		classDefault: {
			"I can only tell you what I remember.",
			"To the best of my recollection, that is what happened.",
			"I'm not sure I can answer that with certainty.",
		},
	},
	datatypes.RoleDefendant: {
		classDefault: {
			"I understand, Your Honor.",
			"On the advice of counsel, I have nothing to add.",
		},
	},
	datatypes.RolePlaintiff: {
		classDefault: {
			"I've told the court everything I know.",
		},
	},
	datatypes.RoleJuror: {
		classDefault: {
			"I've been listening carefully to the evidence.",
			"I need to weigh what we've heard before deciding.",
		},
	},
	datatypes.RoleBailiff: {
		classDefault: {
			"All rise.",
			"Order in the court.",
		},
	},
	datatypes.RoleClerk: {
		classDefault: {
			"So noted for the record.",
		},
	},
}

// genericFallbacks is the last resort for roles without a bank entry.
var genericFallbacks = []string{
	"I would like a moment to collect my thoughts.",
	"May we proceed, Your Honor?",
}

// fallbackStatement picks a canned line for role in the given phase.
// Lookup degrades from the phase class to the role's default class to
// the generic bank, so it always returns something sayable.
func fallbackStatement(role datatypes.Role, phase datatypes.Phase, rng *rand.Rand) string {
	bank := fallbackStatements[role]
	lines := bank[statementClass(phase)]
	if len(lines) == 0 {
		lines = bank[classDefault]
	}
	if len(lines) == 0 {
		lines = genericFallbacks
	}
	return lines[rng.Intn(len(lines))]
}
