// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package judicial

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
	"github.com/AleutianAI/CourtSim/services/courtroom/storage"
)

func newEnabledStore(t *testing.T) *Store {
	t.Helper()
	return NewStore("judge-1", true, nil)
}

func TestInteractionTier_Scores(t *testing.T) {
	cases := map[InteractionTier]float64{
		TierExcellent:          9,
		TierGood:               7,
		TierNeutral:            5,
		TierPoor:               3,
		TierProblematic:        1,
		InteractionTier("wat"): 5,
	}
	for tier, want := range cases {
		assert.Equal(t, want, tier.Score(), string(tier))
	}
}

func TestStore_CredibilityRunningMean(t *testing.T) {
	s := newEnabledStore(t)

	s.RecordParticipantInteraction("A. Stone", TierExcellent, nil, "")
	s.RecordParticipantInteraction("A. Stone", TierGood, nil, "")

	p, ok := s.Participant("A. Stone")
	require.True(t, ok)
	assert.Equal(t, 2, p.Appearances)
	assert.InDelta(t, 8.0, p.Credibility, 1e-9, "(9+7)/2")

	// Name matching is case-insensitive.
	_, ok = s.Participant("a. stone")
	assert.True(t, ok)
}

func TestStore_RelationshipTagsDeduplicated(t *testing.T) {
	s := newEnabledStore(t)
	s.RecordParticipantInteraction("B. Lake", TierNeutral, []string{"expert_witness"}, "")
	s.RecordParticipantInteraction("B. Lake", TierNeutral, []string{"expert_witness", "repeat"}, "interrupted proceedings")

	p, _ := s.Participant("B. Lake")
	assert.Equal(t, []string{"expert_witness", "repeat"}, p.Relationship)
	assert.Equal(t, []string{"interrupted proceedings"}, p.Notes)
}

func TestStore_DisabledAcceptsNoWrites(t *testing.T) {
	s := NewStore("judge-1", false, nil)

	s.RecordCase(CaseRecord{CaseID: "c1", Type: datatypes.CaseCriminal, Outcome: "guilty"})
	s.RecordParticipantInteraction("A. Stone", TierExcellent, nil, "")
	s.RecordDecision("c1", DecisionRecord{Kind: "objection", Decision: "sustained"})

	assert.Equal(t, 0, s.CaseCount())
	_, ok := s.Participant("A. Stone")
	assert.False(t, ok)
}

func TestStore_DisabledInfluenceIsNeutral(t *testing.T) {
	s := NewStore("judge-1", true, nil)
	s.RecordCase(CaseRecord{CaseID: "c1", Type: datatypes.CaseCriminal, Participants: []string{"A. Stone"}, Outcome: "guilty"})
	s.RecordParticipantInteraction("A. Stone", TierProblematic, nil, "")

	s.SetEnabled(false)
	inf := s.ComputeInfluence([]string{"A. Stone"}, datatypes.CaseCriminal, "verdict")
	assert.Equal(t, NeutralInfluence(), inf, "disabled memory must not lean")
	assert.Equal(t, 5.0, inf.Confidence)
}

func TestStore_InfluenceLeansWithCredibility(t *testing.T) {
	s := newEnabledStore(t)
	s.RecordParticipantInteraction("A. Stone", TierExcellent, nil, "")
	s.RecordParticipantInteraction("A. Stone", TierExcellent, nil, "")

	inf := s.ComputeInfluence([]string{"A. Stone"}, datatypes.CaseCriminal, "verdict")
	assert.InDelta(t, 1.0, inf.ParticipantBias, 1e-9, "(9-5)/4")

	s.RecordParticipantInteraction("C. Vex", TierProblematic, nil, "")
	inf = s.ComputeInfluence([]string{"C. Vex"}, datatypes.CaseCriminal, "verdict")
	assert.InDelta(t, -1.0, inf.ParticipantBias, 1e-9)

	// Unknown participants contribute nothing.
	inf = s.ComputeInfluence([]string{"Nobody"}, datatypes.CaseCriminal, "verdict")
	assert.Zero(t, inf.ParticipantBias)
}

func TestStore_FindSimilarCasesHardTypeFilter(t *testing.T) {
	s := newEnabledStore(t)
	s.RecordCase(CaseRecord{CaseID: "crim-1", Type: datatypes.CaseCriminal, Participants: []string{"A. Stone"}})
	s.RecordCase(CaseRecord{CaseID: "civ-1", Type: datatypes.CaseCivil, Participants: []string{"A. Stone"}})

	got := s.FindSimilarCases(datatypes.CaseCriminal, []string{"A. Stone"}, 10)
	require.Len(t, got, 1, "civil cases must never inform criminal ones")
	assert.Equal(t, "crim-1", got[0].Record.CaseID)
}

func TestStore_FindSimilarCasesRanksByOverlap(t *testing.T) {
	s := newEnabledStore(t)
	s.RecordCase(CaseRecord{CaseID: "c-none", Type: datatypes.CaseCivil, Participants: []string{"X"}})
	s.RecordCase(CaseRecord{CaseID: "c-both", Type: datatypes.CaseCivil, Participants: []string{"A. Stone", "B. Lake"}})
	s.RecordCase(CaseRecord{CaseID: "c-one", Type: datatypes.CaseCivil, Participants: []string{"A. Stone"}})

	got := s.FindSimilarCases(datatypes.CaseCivil, []string{"A. Stone", "B. Lake"}, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "c-both", got[0].Record.CaseID)
	assert.Equal(t, "c-one", got[1].Record.CaseID)
	assert.Greater(t, got[0].Similarity, got[1].Similarity)
}

func TestStore_RecordCaseIdempotentExperience(t *testing.T) {
	s := newEnabledStore(t)
	s.RecordCase(CaseRecord{CaseID: "c1", Type: datatypes.CaseCriminal})
	s.RecordCase(CaseRecord{CaseID: "c1", Type: datatypes.CaseCriminal, Outcome: "guilty"})

	exp := s.ExperienceSummary()
	assert.Equal(t, 1, exp.TotalCases, "re-recording a case must not double-count")
	assert.Equal(t, 1, exp.ByType[datatypes.CaseCriminal])
}

func TestStore_RecordCaseKeepsEarlierDecisions(t *testing.T) {
	s := newEnabledStore(t)

	// Rulings land first, while the trial runs; the close-out record
	// arrives later with the outcome and type.
	s.RecordDecision("c1", DecisionRecord{Kind: "verdict", Decision: "guilty", Confidence: 8})
	s.RecordCase(CaseRecord{CaseID: "c1", Type: datatypes.CaseCriminal, Outcome: "guilty"})

	p := s.Patterns("")
	assert.Equal(t, 1, p.TotalDecisions, "close-out must not discard recorded rulings")
	assert.Equal(t, 1, p.Outcomes["guilty"])

	exp := s.ExperienceSummary()
	assert.Equal(t, 1, exp.TotalCases)
	assert.Equal(t, 1, exp.ByType[datatypes.CaseCriminal], "type counted once it becomes known")
}

func TestStore_CleanupOldCasesRetention(t *testing.T) {
	s := newEnabledStore(t)
	now := time.Now()
	s.RecordCase(CaseRecord{CaseID: "ancient", Type: datatypes.CaseCriminal, RecordedAt: now.Add(-2000 * 24 * time.Hour)})
	s.RecordCase(CaseRecord{CaseID: "recent", Type: datatypes.CaseCriminal, RecordedAt: now.Add(-100 * 24 * time.Hour)})

	removed := s.CleanupOldCases(0) // 0 means DefaultRetention (1825 days)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.CaseCount())

	got := s.FindSimilarCases(datatypes.CaseCriminal, nil, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].Record.CaseID)

	exp := s.ExperienceSummary()
	assert.Equal(t, 2, exp.TotalCases, "experience survives cleanup")
}

func TestStore_DecisionPatterns(t *testing.T) {
	s := newEnabledStore(t)
	s.RecordDecision("c1", DecisionRecord{Kind: "objection", Decision: "sustained", Confidence: 8, ContributingFactors: []string{"leading"}})
	s.RecordDecision("c1", DecisionRecord{Kind: "objection", Decision: "overruled", Confidence: 6, ContributingFactors: []string{"hearsay"}})
	s.RecordDecision("c1", DecisionRecord{Kind: "objection", Decision: "sustained", Confidence: 7, ContributingFactors: []string{"leading"}})
	s.RecordDecision("c1", DecisionRecord{Kind: "verdict", Decision: "guilty", Confidence: 9, ContributingFactors: []string{"precedent"}})

	p := s.Patterns("objection")
	assert.Equal(t, "objection", p.Kind)
	assert.Equal(t, 3, p.TotalDecisions)
	assert.InDelta(t, 7.0, p.MeanConfidence, 1e-9)
	assert.Equal(t, 2, p.Outcomes["sustained"])
	assert.Equal(t, 1, p.Outcomes["overruled"])
	require.NotEmpty(t, p.TopFactors)
	assert.Equal(t, "leading", p.TopFactors[0], "most frequent factor first")

	all := s.Patterns("")
	assert.Equal(t, 4, all.TotalDecisions)
	assert.Equal(t, 1, all.Outcomes["guilty"])

	disabled := NewStore("j2", false, nil)
	assert.Zero(t, disabled.Patterns("").TotalDecisions)
}

func TestSnapshot_ExportImportRoundTrip(t *testing.T) {
	s := newEnabledStore(t)
	s.RecordCase(CaseRecord{CaseID: "c1", Type: datatypes.CaseCivil, Participants: []string{"A. Stone"}, Outcome: "for the plaintiff"})
	s.RecordParticipantInteraction("A. Stone", TierGood, []string{"counsel"}, "")

	blob, err := s.Export()
	require.NoError(t, err)

	restored := NewStore("judge-1", true, nil)
	require.NoError(t, restored.Import(blob))

	assert.Equal(t, 1, restored.CaseCount())
	p, ok := restored.Participant("A. Stone")
	require.True(t, ok)
	assert.Equal(t, 7.0, p.Credibility)
	assert.Equal(t, s.ExperienceSummary(), restored.ExperienceSummary())
}

func TestSnapshot_ImportIsFullReplace(t *testing.T) {
	donor := newEnabledStore(t)
	donor.RecordCase(CaseRecord{CaseID: "donor-case", Type: datatypes.CaseCriminal})
	blob, err := donor.Export()
	require.NoError(t, err)

	s := newEnabledStore(t)
	s.RecordCase(CaseRecord{CaseID: "existing", Type: datatypes.CaseCivil})
	s.RecordParticipantInteraction("Old Name", TierPoor, nil, "")

	require.NoError(t, s.Import(blob))
	assert.Equal(t, 1, s.CaseCount(), "import replaces, never merges")
	_, ok := s.Participant("Old Name")
	assert.False(t, ok)
}

func TestSnapshot_ImportRejectsWrongJudge(t *testing.T) {
	donor := NewStore("judge-2", true, nil)
	blob, err := donor.Export()
	require.NoError(t, err)

	s := newEnabledStore(t)
	s.RecordCase(CaseRecord{CaseID: "keep", Type: datatypes.CaseCivil})
	assert.Error(t, s.Import(blob))
	assert.Equal(t, 1, s.CaseCount(), "failed import leaves store untouched")
}

func TestSnapshot_ImportRejectsMalformed(t *testing.T) {
	s := newEnabledStore(t)
	s.RecordCase(CaseRecord{CaseID: "keep", Type: datatypes.CaseCivil})
	assert.Error(t, s.Import([]byte("{not json")))
	assert.Equal(t, 1, s.CaseCount())
}

func TestSnapshot_SaveLoadThroughBlobStore(t *testing.T) {
	blob, err := storage.Open(storage.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = blob.Close() })
	ctx := context.Background()

	s := newEnabledStore(t)
	s.RecordCase(CaseRecord{CaseID: "c1", Type: datatypes.CaseCriminal, Outcome: "guilty"})
	require.NoError(t, s.SaveTo(ctx, blob))

	restored := NewStore("judge-1", true, nil)
	require.NoError(t, restored.LoadFrom(ctx, blob))
	assert.Equal(t, 1, restored.CaseCount())
}

func TestSnapshot_LoadMissingIsNotError(t *testing.T) {
	blob, err := storage.Open(storage.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = blob.Close() })

	s := newEnabledStore(t)
	require.NoError(t, s.LoadFrom(context.Background(), blob))
	assert.Equal(t, 0, s.CaseCount())
}
