// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/CourtSim/pkg/retry"
	"github.com/AleutianAI/CourtSim/services/courtroom/agent"
	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
	"github.com/AleutianAI/CourtSim/services/courtroom/judicial"
	"github.com/AleutianAI/CourtSim/services/llm"
)

// stubClient returns a fixed line, optionally failing or blocking until
// released.
type stubClient struct {
	text    string
	fail    bool
	started chan struct{} // when non-nil, receives once per Chat entry
	release chan struct{} // when non-nil, Chat blocks until closed
}

func (c *stubClient) Chat(ctx context.Context, msgs []llm.Message, _ llm.Params) (*llm.Result, error) {
	if c.started != nil {
		select {
		case c.started <- struct{}{}:
		default:
		}
	}
	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.fail {
		return nil, errors.New("connection refused")
	}
	return &llm.Result{Text: c.text}, nil
}

func (c *stubClient) Provider() string { return "stub" }

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Unit.Seed = 99
	cfg.Unit.Retry = retry.Config{
		MaxAttempts:    3,
		AttemptTimeout: time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		BackoffFactor:  2.0,
	}
	return cfg
}

func testCase(caseType datatypes.CaseType, jurors int) *datatypes.Case {
	kase := &datatypes.Case{
		ID:      "case-1",
		Title:   "State v. Doe",
		Summary: "Alleged theft of trade secrets.",
		Type:    caseType,
		Participants: []*datatypes.Participant{
			{ID: "judge-1", Name: "Hon. Reyes", Role: datatypes.RoleJudge},
			{ID: "pros-1", Name: "M. Okafor", Role: caseType.ProsecutionRole()},
			{ID: "def-1", Name: "L. Marsh", Role: datatypes.RoleDefenseCounsel},
			{ID: "dfdt-1", Name: "J. Doe", Role: datatypes.RoleDefendant},
			{ID: "wit-1", Name: "A. Stone", Role: datatypes.RoleWitness},
			{ID: "wit-2", Name: "B. Lake", Role: datatypes.RoleWitness},
			{ID: "bail-1", Name: "R. Ortiz", Role: datatypes.RoleBailiff},
		},
		Evidence: []datatypes.Evidence{
			{ID: "ev-1", Type: datatypes.EvidenceForensic, Title: "Access logs", Description: "Badge reader records"},
		},
		CreatedAt: time.Now(),
	}
	for i := 0; i < jurors; i++ {
		kase.Participants = append(kase.Participants, &datatypes.Participant{
			ID: fmt.Sprintf("juror-%d", i+1), Name: fmt.Sprintf("Juror %d", i+1), Role: datatypes.RoleJuror,
		})
	}
	return kase
}

func startedController(t *testing.T, client llm.Client, kase *datatypes.Case) *Controller {
	t.Helper()
	c := NewController(kase, client, nil, nil, nil, testConfig())
	require.NoError(t, c.Start(context.Background()))
	return c
}

func TestController_TranscriptOrderIsResolutionOrder(t *testing.T) {
	kase := testCase(datatypes.CaseCriminal, 0)
	c := startedController(t, &stubClient{text: "As the court pleases."}, kase)
	ctx := context.Background()

	order := []string{"judge-1", "pros-1", "def-1", "wit-1"}
	for _, id := range order {
		require.NoError(t, c.ProcessTurn(ctx, id))
	}

	snap := c.Snapshot()
	require.Len(t, snap.Transcript, len(order))
	for i, id := range order {
		assert.Equal(t, id, snap.Transcript[i].SpeakerID, "entry %d", i)
	}
	for i := 1; i < len(snap.Transcript); i++ {
		assert.False(t, snap.Transcript[i].Timestamp.Before(snap.Transcript[i-1].Timestamp))
	}
}

func TestController_AtMostOneTurnInFlight(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	client := &stubClient{text: "Proceeding.", started: started, release: release}
	c := startedController(t, client, testCase(datatypes.CaseCriminal, 0))
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() { firstDone <- c.ProcessTurn(ctx, "pros-1") }()

	// Wait until the first turn holds the guard, then race a second.
	<-started
	assert.ErrorIs(t, c.ProcessTurn(ctx, "def-1"), ErrTurnInFlight,
		"second turn must be rejected while first is in flight")

	close(release)
	require.NoError(t, <-firstDone)

	// Guard released: turns are accepted again.
	require.NoError(t, c.ProcessTurn(ctx, "def-1"))
	assert.Len(t, c.Snapshot().Transcript, 2)
}

func TestController_PauseDiscardsInFlightResult(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	client := &stubClient{text: "Belated words.", started: started, release: release}
	c := startedController(t, client, testCase(datatypes.CaseCriminal, 0))

	done := make(chan error, 1)
	go func() { done <- c.ProcessTurn(context.Background(), "pros-1") }()

	<-started
	require.NoError(t, c.Pause())
	close(release)
	require.NoError(t, <-done)

	assert.Empty(t, c.Snapshot().Transcript, "result resolved after pause must be discarded")

	require.NoError(t, c.Resume())
	require.NoError(t, c.ProcessTurn(context.Background(), "pros-1"))
	assert.Len(t, c.Snapshot().Transcript, 1)
}

func TestController_GatewayFailureNeverStallsProceeding(t *testing.T) {
	c := startedController(t, &stubClient{fail: true}, testCase(datatypes.CaseCriminal, 0))
	require.NoError(t, c.ProcessTurn(context.Background(), "pros-1"))

	snap := c.Snapshot()
	require.Len(t, snap.Transcript, 1, "fallback statement must still land")
	assert.NotEmpty(t, snap.Transcript[0].Content)
}

func TestController_RunCompletesBenchTrial(t *testing.T) {
	kase := testCase(datatypes.CaseCriminal, 0)
	c := startedController(t, &stubClient{text: "VERDICT: not guilty\nThe burden was not met."}, kase)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, StateCompleted, c.State())

	snap := c.Snapshot()
	assert.NotEmpty(t, snap.Transcript)
	require.NotEmpty(t, snap.Rulings)
	verdict := snap.Rulings[len(snap.Rulings)-1]
	assert.Equal(t, "verdict", verdict.Kind)
	assert.Equal(t, "not guilty", verdict.Decision)
	for _, r := range snap.Rulings {
		assert.NotEqual(t, "sentence", r.Kind, "acquittal must not sentence")
	}
}

func TestController_PhaseSkipsJuryPhasesWithoutJurors(t *testing.T) {
	kase := testCase(datatypes.CaseCriminal, 0)
	c := startedController(t, &stubClient{text: "x"}, kase)
	ctx := context.Background()

	require.Equal(t, datatypes.PhasePreTrial, c.Phase())
	require.NoError(t, c.NextPhase(ctx))
	assert.Equal(t, datatypes.PhaseOpeningStatements, c.Phase(), "jury selection skipped for bench trial")
}

func TestController_CivilCaseNeverSentences(t *testing.T) {
	kase := testCase(datatypes.CaseCivil, 0)
	c := startedController(t, &stubClient{text: "VERDICT: for the plaintiff\nCredible testimony."}, kase)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, StateCompleted, c.State())
	for _, r := range c.Snapshot().Rulings {
		assert.NotEqual(t, "sentence", r.Kind)
	}
}

func TestController_GuiltyVerdictReachesSentencing(t *testing.T) {
	kase := testCase(datatypes.CaseCriminal, 0)
	c := startedController(t, &stubClient{text: "VERDICT: guilty\nThe evidence was overwhelming."}, kase)

	require.NoError(t, c.Run(context.Background()))

	var kinds []string
	for _, r := range c.Snapshot().Rulings {
		kinds = append(kinds, r.Kind)
	}
	assert.Contains(t, kinds, "verdict")
	assert.Contains(t, kinds, "sentence")
}

func TestController_SidebarHiddenFromJurors(t *testing.T) {
	kase := testCase(datatypes.CaseCriminal, 3)
	c := startedController(t, &stubClient{text: "On the record."}, kase)
	ctx := context.Background()

	require.NoError(t, c.ProcessTurn(ctx, "pros-1"))
	require.NoError(t, c.RequestSidebar("def-1"))
	assert.Equal(t, datatypes.PhaseSidebar, c.Phase())

	require.NoError(t, c.ProcessTurn(ctx, "def-1"))
	require.NoError(t, c.EndSidebar())
	assert.Equal(t, datatypes.PhasePreTrial, c.Phase(), "sidebar returns to the interrupted phase")

	snap := c.Snapshot()
	require.Len(t, snap.Transcript, 2)
	assert.False(t, snap.Transcript[0].Sidebar)
	assert.True(t, snap.Transcript[1].Sidebar)

	// A juror's view of recent proceedings excludes the sidebar entry.
	juror := kase.ParticipantByID("juror-1")
	tctx := c.trialContext(juror)
	for _, e := range tctx.Recent {
		assert.False(t, e.Sidebar, "juror context must not include sidebar content")
	}
}

func TestController_SidebarBlocksPhaseAdvance(t *testing.T) {
	c := startedController(t, &stubClient{text: "x"}, testCase(datatypes.CaseCriminal, 0))
	require.NoError(t, c.RequestSidebar("judge-1"))
	assert.ErrorIs(t, c.NextPhase(context.Background()), ErrInvalidTransition)

	require.NoError(t, c.EndSidebar())
	assert.ErrorIs(t, c.EndSidebar(), ErrNoSidebar, "ending twice must fail")
}

func TestController_ObjectionFlow(t *testing.T) {
	kase := testCase(datatypes.CaseCriminal, 0)
	c := startedController(t, &stubClient{text: "SUSTAINED. The question was leading."}, kase)
	ctx := context.Background()

	_, err := c.TriggerObjection(ctx, "def-1", "leading")
	assert.ErrorIs(t, err, ErrNothingToObjectTo)

	require.NoError(t, c.ProcessTurn(ctx, "wit-1"))
	ruling, err := c.TriggerObjection(ctx, "def-1", "leading")
	require.NoError(t, err)
	require.NotNil(t, ruling)
	assert.Equal(t, "sustained", ruling.Decision)

	snap := c.Snapshot()
	require.Len(t, snap.Transcript, 3) // statement, objection, ruling
	assert.Equal(t, datatypes.EntryObjection, snap.Transcript[1].Type)
	assert.Equal(t, datatypes.EntryRuling, snap.Transcript[2].Type)
	require.Len(t, snap.Rulings, 1)

	// Emotional fallout reached both sides.
	witUnit, _ := c.Unit("wit-1")
	assert.Greater(t, witUnit.Emotions().Get(agent.EmotionStress), 0.2)
	defUnit, _ := c.Unit("def-1")
	assert.Greater(t, defUnit.Emotions().Get(agent.EmotionSatisfaction), 0.5)
}

func TestController_ObjectionRejectsInvalidInputs(t *testing.T) {
	c := startedController(t, &stubClient{text: "x"}, testCase(datatypes.CaseCriminal, 0))
	ctx := context.Background()
	require.NoError(t, c.ProcessTurn(ctx, "wit-1"))

	_, err := c.TriggerObjection(ctx, "def-1", "vibes")
	assert.Error(t, err, "unknown objection kind")

	_, err = c.TriggerObjection(ctx, "wit-1", "hearsay")
	assert.Error(t, err, "witnesses cannot object")

	_, err = c.TriggerObjection(ctx, "ghost", "hearsay")
	assert.ErrorIs(t, err, ErrParticipantNotFound)
}

func TestController_HumanControlledTurns(t *testing.T) {
	kase := testCase(datatypes.CaseCriminal, 0)
	c := startedController(t, &stubClient{text: "generated"}, kase)
	ctx := context.Background()

	require.NoError(t, c.SetHumanControl(datatypes.RoleDefenseCounsel, true))

	// The agent turn becomes an input request, not a statement.
	require.NoError(t, c.ProcessTurn(ctx, "def-1"))
	assert.Empty(t, c.Snapshot().Transcript)

	var sawRequest bool
	for len(c.Events()) > 0 {
		if ev := <-c.Events(); ev.Type == datatypes.EventInputRequested {
			sawRequest = true
		}
	}
	assert.True(t, sawRequest)

	entry, err := c.InjectStatement("def-1", "Your Honor, we move to dismiss.")
	require.NoError(t, err)
	assert.Equal(t, "Your Honor, we move to dismiss.", entry.Content)

	_, err = c.InjectStatement("pros-1", "not allowed")
	assert.ErrorIs(t, err, ErrNotHumanControlled)

	require.NoError(t, c.SetHumanControl(datatypes.RoleDefenseCounsel, false))
	require.NoError(t, c.ProcessTurn(ctx, "def-1"))
	snap := c.Snapshot()
	assert.Len(t, snap.Transcript, 2)
}

func TestController_PresentEvidenceReachesUnits(t *testing.T) {
	c := startedController(t, &stubClient{text: "x"}, testCase(datatypes.CaseCriminal, 0))

	entry, err := c.PresentEvidence("pros-1", "ev-1")
	require.NoError(t, err)
	assert.Equal(t, datatypes.EntryExhibit, entry.Type)
	assert.Equal(t, "ev-1", entry.EvidenceID)

	judgeUnit, _ := c.Unit("judge-1")
	w, ok := judgeUnit.Memory().Working("evidence:ev-1")
	require.True(t, ok)
	assert.Equal(t, 0.9, w)

	_, err = c.PresentEvidence("pros-1", "ev-missing")
	assert.Error(t, err)
}

func TestController_StopIsTerminal(t *testing.T) {
	c := startedController(t, &stubClient{text: "x"}, testCase(datatypes.CaseCriminal, 0))
	require.NoError(t, c.Stop())
	assert.Equal(t, StateStopped, c.State())

	assert.ErrorIs(t, c.ProcessTurn(context.Background(), "pros-1"), ErrStopped)
	assert.ErrorIs(t, c.NextPhase(context.Background()), ErrStopped)
	require.NoError(t, c.Stop(), "stopping twice is fine")
}

func TestController_EventFeedDropsOldestWhenFull(t *testing.T) {
	c := NewController(testCase(datatypes.CaseCriminal, 0), &stubClient{text: "x"}, nil, nil, nil, testConfig())

	for i := 0; i < eventBufferSize+10; i++ {
		c.publish(datatypes.EventActionGenerated, datatypes.PhasePreTrial, nil, map[string]any{"i": i})
	}
	assert.Len(t, c.events, eventBufferSize)

	// The oldest events were shed; the first one left is newer.
	first := <-c.Events()
	assert.Equal(t, 10, first.Detail["i"])
}

func TestController_CompletionRecordsJudicialMemory(t *testing.T) {
	memory := judicial.NewStore("Hon. Reyes", true, nil)
	kase := testCase(datatypes.CaseCriminal, 0)
	c := NewController(kase, &stubClient{text: "VERDICT: guilty\nOverwhelming evidence."}, nil, memory, nil, testConfig())
	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, 1, memory.CaseCount())
	similar := memory.FindSimilarCases(datatypes.CaseCriminal, []string{"A. Stone"}, 5)
	require.NotEmpty(t, similar)
	assert.Equal(t, "guilty", similar[0].Record.Outcome)

	_, ok := memory.Participant("A. Stone")
	assert.True(t, ok, "participants graded at completion")
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(&stubClient{text: "x"}, nil, nil, ManagerConfig{Controller: testConfig(), JudicialMemory: true})

	kase := testCase(datatypes.CaseCriminal, 0)
	c, err := m.CreateSimulation(kase)
	require.NoError(t, err)

	_, err = m.CreateSimulation(kase)
	assert.Error(t, err, "duplicate case ID rejected")

	got, err := m.Get("case-1")
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = m.Get("nope")
	assert.ErrorIs(t, err, ErrCaseNotFound)

	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, "case-1", list[0].CaseID)
	assert.Equal(t, StateCreated, list[0].State)

	require.NoError(t, m.Remove("case-1"))
	assert.ErrorIs(t, m.Remove("case-1"), ErrCaseNotFound)
	assert.Equal(t, StateStopped, c.State())
}

func TestManager_SharedJudicialMemoryAcrossCases(t *testing.T) {
	m := NewManager(&stubClient{text: "VERDICT: guilty\nClear record."}, nil, nil,
		ManagerConfig{Controller: testConfig(), JudicialMemory: true})

	first := testCase(datatypes.CaseCriminal, 0)
	c1, err := m.CreateSimulation(first)
	require.NoError(t, err)
	require.NoError(t, c1.Start(context.Background()))
	require.NoError(t, c1.Run(context.Background()))

	second := testCase(datatypes.CaseCriminal, 0)
	second.ID = "case-2"
	c2, err := m.CreateSimulation(second)
	require.NoError(t, err)
	_ = c2

	memory := m.MemoryFor("Hon. Reyes")
	assert.Equal(t, 1, memory.CaseCount(), "the same judge carries memory into the next case")
}

func TestManager_DispatchCommands(t *testing.T) {
	m := NewManager(&stubClient{text: "x"}, nil, nil, ManagerConfig{Controller: testConfig()})
	kase := testCase(datatypes.CaseCriminal, 0)
	_, err := m.CreateSimulation(kase)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, m.Dispatch(ctx, "case-1", datatypes.SimCommand{Action: datatypes.ActionStart}))
	require.NoError(t, m.Dispatch(ctx, "case-1", datatypes.SimCommand{Action: datatypes.ActionPause}))
	require.NoError(t, m.Dispatch(ctx, "case-1", datatypes.SimCommand{Action: datatypes.ActionResume}))
	require.NoError(t, m.Dispatch(ctx, "case-1", datatypes.SimCommand{
		Action: datatypes.ActionSetRole, Role: "defense_counsel", Enabled: true,
	}))
	assert.Error(t, m.Dispatch(ctx, "case-1", datatypes.SimCommand{Action: "teleport"}))
	assert.ErrorIs(t, m.Dispatch(ctx, "missing", datatypes.SimCommand{Action: datatypes.ActionStart}), ErrCaseNotFound)
}

func TestNextPhase_Table(t *testing.T) {
	tests := []struct {
		name     string
		current  datatypes.Phase
		caseType datatypes.CaseType
		jurors   bool
		guilty   bool
		want     datatypes.Phase
		done     bool
	}{
		{"pretrial to jury selection", datatypes.PhasePreTrial, datatypes.CaseCriminal, true, false, datatypes.PhaseJurySelection, false},
		{"pretrial skips jury", datatypes.PhasePreTrial, datatypes.CaseCriminal, false, false, datatypes.PhaseOpeningStatements, false},
		{"closing skips deliberation", datatypes.PhaseClosingArguments, datatypes.CaseCriminal, false, false, datatypes.PhaseVerdict, false},
		{"guilty verdict sentences", datatypes.PhaseVerdict, datatypes.CaseCriminal, false, true, datatypes.PhaseSentencing, false},
		{"acquittal completes", datatypes.PhaseVerdict, datatypes.CaseCriminal, false, false, "", true},
		{"civil never sentences", datatypes.PhaseVerdict, datatypes.CaseCivil, false, true, "", true},
		{"sentencing completes", datatypes.PhaseSentencing, datatypes.CaseCriminal, false, true, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, ok := nextPhase(tt.current, tt.caseType, tt.jurors, tt.guilty)
			if tt.done {
				assert.False(t, ok)
			} else {
				require.True(t, ok)
				assert.Equal(t, tt.want, next)
			}
		})
	}
}

func TestSpeakerRotation_RoundRobin(t *testing.T) {
	kase := testCase(datatypes.CaseCriminal, 0)
	r := newSpeakerRotation()

	first := r.pick(kase, datatypes.RoleWitness)
	second := r.pick(kase, datatypes.RoleWitness)
	third := r.pick(kase, datatypes.RoleWitness)
	require.NotNil(t, first)
	assert.Equal(t, "wit-1", first.ID)
	assert.Equal(t, "wit-2", second.ID)
	assert.Equal(t, "wit-1", third.ID, "rotation wraps")

	assert.Nil(t, r.pick(kase, datatypes.RoleObserver))
}

func TestController_ConcurrentTurnsNeverCorruptTranscript(t *testing.T) {
	c := startedController(t, &stubClient{text: "Noted."}, testCase(datatypes.CaseCriminal, 0))
	ctx := context.Background()

	var wg sync.WaitGroup
	var accepted, rejected sync.Map
	ids := []string{"judge-1", "pros-1", "def-1", "wit-1", "wit-2"}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := c.ProcessTurn(ctx, ids[i%len(ids)])
			if errors.Is(err, ErrTurnInFlight) {
				rejected.Store(i, true)
			} else if err == nil {
				accepted.Store(i, true)
			}
		}(i)
	}
	wg.Wait()

	count := 0
	accepted.Range(func(_, _ any) bool { count++; return true })
	assert.Len(t, c.Snapshot().Transcript, count, "every accepted turn appends exactly one entry")
	assert.GreaterOrEqual(t, count, 1)
}
