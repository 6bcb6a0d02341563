// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"testing"
	"time"
)

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{
		RoleJudge, RoleProsecutor, RoleDefenseCounsel, RolePlaintiffCounsel,
		RoleDefendant, RolePlaintiff, RoleWitness, RoleJuror,
		RoleBailiff, RoleClerk, RoleObserver,
	} {
		if !r.Valid() {
			t.Errorf("role %q should be valid", r)
		}
	}
	if Role("paralegal").Valid() {
		t.Error("unknown role should be invalid")
	}
}

func TestCaseType_ProsecutionRole(t *testing.T) {
	if got := CaseCriminal.ProsecutionRole(); got != RoleProsecutor {
		t.Errorf("criminal prosecution role = %q, want prosecutor", got)
	}
	if got := CaseCivil.ProsecutionRole(); got != RolePlaintiffCounsel {
		t.Errorf("civil prosecution role = %q, want plaintiff_counsel", got)
	}
}

func TestPhase_DisplayName_CaseTypeAware(t *testing.T) {
	if got := PhaseProsecutionCase.DisplayName(CaseCriminal); got != "Prosecution's Case" {
		t.Errorf("criminal display = %q", got)
	}
	if got := PhaseProsecutionCase.DisplayName(CaseCivil); got != "Plaintiff's Case" {
		t.Errorf("civil display = %q", got)
	}
}

func TestCase_Lookups(t *testing.T) {
	c := &Case{
		Participants: []*Participant{
			{ID: "p1", Name: "Hon. Reyes", Role: RoleJudge},
			{ID: "p2", Name: "A. Stone", Role: RoleJuror},
			{ID: "p3", Name: "B. Lake", Role: RoleJuror},
		},
	}

	if got := c.ParticipantByID("p1"); got == nil || got.Name != "Hon. Reyes" {
		t.Errorf("ParticipantByID(p1) = %+v", got)
	}
	if got := c.ParticipantByID("missing"); got != nil {
		t.Errorf("ParticipantByID(missing) = %+v, want nil", got)
	}

	jurors := c.ParticipantsByRole(RoleJuror)
	if len(jurors) != 2 || jurors[0].ID != "p2" {
		t.Errorf("ParticipantsByRole(juror) = %+v, want roster order p2,p3", jurors)
	}
}

func TestCase_LastStatement(t *testing.T) {
	now := time.Now()
	c := &Case{}
	if c.LastStatement() != nil {
		t.Fatal("empty transcript should have no last statement")
	}

	c.Transcript = []TranscriptEntry{
		{ID: "e1", Type: EntryStatement, Content: "first", Timestamp: now},
		{ID: "e2", Type: EntryStatement, Content: "second", Timestamp: now},
		{ID: "e3", Type: EntryRuling, Content: "sustained", Timestamp: now},
	}
	got := c.LastStatement()
	if got == nil || got.ID != "e2" {
		t.Errorf("LastStatement = %+v, want e2 (rulings skipped)", got)
	}
}
