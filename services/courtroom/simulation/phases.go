// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package simulation

import "github.com/AleutianAI/CourtSim/services/courtroom/datatypes"

// phaseOrder is the forward sequence of main phases. Sidebar and recess
// are sub-states, not sequence members.
var phaseOrder = []datatypes.Phase{
	datatypes.PhasePreTrial,
	datatypes.PhaseJurySelection,
	datatypes.PhaseOpeningStatements,
	datatypes.PhaseProsecutionCase,
	datatypes.PhaseDefenseCase,
	datatypes.PhaseClosingArguments,
	datatypes.PhaseJuryDeliberation,
	datatypes.PhaseVerdict,
	datatypes.PhaseSentencing,
}

func phaseIndex(p datatypes.Phase) int {
	for i, ph := range phaseOrder {
		if ph == p {
			return i
		}
	}
	return -1
}

// nextPhase computes the phase after current for the given case shape.
// Jury phases are skipped for bench trials; sentencing runs only for
// criminal cases that ended in a guilty verdict. ok is false when the
// proceeding is over.
func nextPhase(current datatypes.Phase, caseType datatypes.CaseType, hasJurors, guilty bool) (next datatypes.Phase, ok bool) {
	i := phaseIndex(current)
	if i < 0 {
		return "", false
	}
	for j := i + 1; j < len(phaseOrder); j++ {
		candidate := phaseOrder[j]
		switch candidate {
		case datatypes.PhaseJurySelection, datatypes.PhaseJuryDeliberation:
			if !hasJurors {
				continue
			}
		case datatypes.PhaseSentencing:
			if caseType != datatypes.CaseCriminal || !guilty {
				return "", false
			}
		}
		return candidate, true
	}
	return "", false
}

// phaseScript returns the speaker role sequence for a phase. The
// prosecution side maps to plaintiff's counsel in civil cases.
func phaseScript(phase datatypes.Phase, caseType datatypes.CaseType) []datatypes.Role {
	pros := caseType.ProsecutionRole()
	switch phase {
	case datatypes.PhasePreTrial:
		return []datatypes.Role{datatypes.RoleBailiff, datatypes.RoleJudge}
	case datatypes.PhaseJurySelection:
		return []datatypes.Role{datatypes.RoleJudge, pros, datatypes.RoleDefenseCounsel}
	case datatypes.PhaseOpeningStatements:
		return []datatypes.Role{datatypes.RoleJudge, pros, datatypes.RoleDefenseCounsel}
	case datatypes.PhaseProsecutionCase:
		return []datatypes.Role{pros, datatypes.RoleWitness, datatypes.RoleDefenseCounsel, datatypes.RoleWitness}
	case datatypes.PhaseDefenseCase:
		return []datatypes.Role{datatypes.RoleDefenseCounsel, datatypes.RoleWitness, pros, datatypes.RoleWitness}
	case datatypes.PhaseClosingArguments:
		return []datatypes.Role{pros, datatypes.RoleDefenseCounsel}
	case datatypes.PhaseJuryDeliberation:
		return []datatypes.Role{datatypes.RoleJuror, datatypes.RoleJuror, datatypes.RoleJuror}
	case datatypes.PhaseVerdict:
		return []datatypes.Role{datatypes.RoleJudge}
	case datatypes.PhaseSentencing:
		return []datatypes.Role{datatypes.RoleJudge}
	default:
		return nil
	}
}

// turnInstruction returns phase-specific speaking guidance for a role.
func turnInstruction(phase datatypes.Phase, role datatypes.Role, caseType datatypes.CaseType) string {
	pros := caseType.ProsecutionRole()
	switch phase {
	case datatypes.PhasePreTrial:
		if role == datatypes.RoleJudge {
			return "Open the proceeding: state the case, confirm the parties are present, and address any preliminary matters briefly."
		}
	case datatypes.PhaseJurySelection:
		if role == datatypes.RoleJudge {
			return "Address the jury pool and explain the selection process briefly."
		}
		return "Ask the jury pool one or two voir dire questions relevant to your side of the case."
	case datatypes.PhaseOpeningStatements:
		if role == datatypes.RoleJudge {
			return "Instruct the jury on the purpose of opening statements, then invite counsel to begin."
		}
		return "Deliver your opening statement. Preview your theory of the case without arguing it."
	case datatypes.PhaseProsecutionCase, datatypes.PhaseDefenseCase:
		if role == datatypes.RoleWitness {
			return "Answer the most recent question truthfully, as your character remembers events."
		}
		if role == pros && phase == datatypes.PhaseProsecutionCase || role == datatypes.RoleDefenseCounsel && phase == datatypes.PhaseDefenseCase {
			return "Examine your witness: ask one clear question advancing your case."
		}
		return "Cross-examine the witness: ask one pointed question testing their account."
	case datatypes.PhaseClosingArguments:
		return "Deliver your closing argument. Tie the evidence to the verdict you seek."
	case datatypes.PhaseJuryDeliberation:
		return "Share your view of the evidence with your fellow jurors and where you currently lean."
	}
	return ""
}
