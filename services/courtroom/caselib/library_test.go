// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package caselib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
)

const criminalCase = `{
	"number": "CR-2025-014",
	"title": "State v. Doe",
	"type": "criminal",
	"summary": "Alleged theft of trade secrets.",
	"defendant": "Jordan Doe",
	"evidence": [
		{"id": "ev-1", "type": "forensic", "title": "Access logs", "description": "Badge reader records"}
	],
	"witnesses": [
		{"name": "Avery Stone", "background": "Facilities manager", "testimony": "Saw the defendant after hours"},
		{"name": "Blake Lake", "background": "Coworker", "for_defense": true}
	]
}`

const civilCase = `{
	"number": "CV-2025-102",
	"title": "Nguyen v. Harbor Freight Lines",
	"type": "civil",
	"summary": "Negligence claim over a dockside injury.",
	"plaintiff": "T. Nguyen"
}`

func writeCase(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func openLibrary(t *testing.T, dir string) *Library {
	t.Helper()
	l, err := Open(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLibrary_LoadsAndLists(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "state-v-doe.json", criminalCase)
	writeCase(t, dir, "nguyen.json", civilCase)
	writeCase(t, dir, "notes.txt", "not a case")
	writeCase(t, dir, "broken.json", "{nope")

	l := openLibrary(t, dir)
	list := l.List()
	require.Len(t, list, 2, "non-JSON and malformed files are skipped")
	assert.Equal(t, "nguyen", list[0].Slug)
	assert.Equal(t, "state-v-doe", list[1].Slug)

	cf, ok := l.Get("state-v-doe")
	require.True(t, ok)
	assert.Equal(t, datatypes.CaseCriminal, cf.Type)
	assert.Len(t, cf.Witnesses, 2)
}

func TestLibrary_RejectsUnknownType(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "weird.json", `{"title": "X v. Y", "type": "maritime"}`)

	l := openLibrary(t, dir)
	assert.Empty(t, l.List())
}

func TestLibrary_MaterializeCriminalRoster(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "state-v-doe.json", criminalCase)
	l := openLibrary(t, dir)

	kase, err := l.Materialize("state-v-doe", 6)
	require.NoError(t, err)

	assert.NotEmpty(t, kase.ID)
	assert.Equal(t, datatypes.PhasePreTrial, kase.Phase)
	assert.Len(t, kase.ParticipantsByRole(datatypes.RoleJudge), 1)
	assert.Len(t, kase.ParticipantsByRole(datatypes.RoleProsecutor), 1)
	assert.Empty(t, kase.ParticipantsByRole(datatypes.RolePlaintiffCounsel))
	assert.Len(t, kase.ParticipantsByRole(datatypes.RoleWitness), 2)
	assert.Len(t, kase.ParticipantsByRole(datatypes.RoleJuror), 6)

	defendants := kase.ParticipantsByRole(datatypes.RoleDefendant)
	require.Len(t, defendants, 1)
	assert.Equal(t, "Jordan Doe", defendants[0].Name)

	// Two materializations are independent cases.
	again, err := l.Materialize("state-v-doe", 0)
	require.NoError(t, err)
	assert.NotEqual(t, kase.ID, again.ID)
	assert.Empty(t, again.ParticipantsByRole(datatypes.RoleJuror), "bench trial")
}

func TestLibrary_MaterializeCivilRoster(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "nguyen.json", civilCase)
	l := openLibrary(t, dir)

	kase, err := l.Materialize("nguyen", 0)
	require.NoError(t, err)

	assert.Len(t, kase.ParticipantsByRole(datatypes.RolePlaintiffCounsel), 1)
	assert.Empty(t, kase.ParticipantsByRole(datatypes.RoleProsecutor))
	plaintiffs := kase.ParticipantsByRole(datatypes.RolePlaintiff)
	require.Len(t, plaintiffs, 1)
	assert.Equal(t, "T. Nguyen", plaintiffs[0].Name)
}

func TestLibrary_MaterializeUnknownSlug(t *testing.T) {
	l := openLibrary(t, t.TempDir())
	_, err := l.Materialize("ghost", 0)
	assert.Error(t, err)
}

func TestLibrary_HotReload(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "nguyen.json", civilCase)
	l := openLibrary(t, dir)
	require.Len(t, l.List(), 1)

	// New file appears.
	writeCase(t, dir, "state-v-doe.json", criminalCase)
	require.Eventually(t, func() bool {
		_, ok := l.Get("state-v-doe")
		return ok
	}, 3*time.Second, 20*time.Millisecond, "created case file must be picked up")

	// Existing file edited in place.
	writeCase(t, dir, "nguyen.json", `{"title": "Nguyen v. HFL (amended)", "type": "civil"}`)
	require.Eventually(t, func() bool {
		cf, ok := l.Get("nguyen")
		return ok && cf.Title == "Nguyen v. HFL (amended)"
	}, 3*time.Second, 20*time.Millisecond)

	// File deleted.
	require.NoError(t, os.Remove(filepath.Join(dir, "state-v-doe.json")))
	require.Eventually(t, func() bool {
		_, ok := l.Get("state-v-doe")
		return !ok
	}, 3*time.Second, 20*time.Millisecond)
}

func TestLibrary_MalformedEditKeepsPreviousVersion(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "nguyen.json", civilCase)
	l := openLibrary(t, dir)

	writeCase(t, dir, "nguyen.json", "{broken")
	time.Sleep(200 * time.Millisecond)

	cf, ok := l.Get("nguyen")
	require.True(t, ok, "bad edit must not evict the working version")
	assert.Equal(t, "Nguyen v. Harbor Freight Lines", cf.Title)
}
