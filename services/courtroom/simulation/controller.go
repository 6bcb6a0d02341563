// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package simulation is the proceeding state machine. A Controller owns
// one case: it sequences phases, resolves turns through agent units,
// arbitrates objections and sidebars, and appends the authoritative
// transcript. The Manager is the registry of live controllers.
package simulation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/CourtSim/pkg/logging"
	"github.com/AleutianAI/CourtSim/services/courtroom/agent"
	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
	"github.com/AleutianAI/CourtSim/services/courtroom/judicial"
	"github.com/AleutianAI/CourtSim/services/courtroom/observability"
	"github.com/AleutianAI/CourtSim/services/llm"
)

// RunState is the controller lifecycle state.
type RunState string

const (
	StateCreated   RunState = "created"
	StateRunning   RunState = "running"
	StatePaused    RunState = "paused"
	StateStopped   RunState = "stopped"
	StateCompleted RunState = "completed"
)

// Config tunes a controller.
type Config struct {
	// Unit is the tuning applied to every agent unit.
	Unit agent.Config

	// TurnDelay paces consecutive turns in Run. Zero means no pacing.
	TurnDelay time.Duration
}

// DefaultConfig returns standard controller tuning.
func DefaultConfig() Config {
	return Config{Unit: agent.DefaultConfig()}
}

// Controller drives one case through the proceeding state machine.
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. At most one turn
// per case is ever in flight: concurrent turn requests are rejected
// with ErrTurnInFlight, never queued. Transcript append order is turn
// resolution order.
type Controller struct {
	caseID string
	cfg    Config
	logger *logging.Logger

	// turnMu is the in-flight guard. Acquired with TryLock only.
	turnMu sync.Mutex

	// mu guards the case record, lifecycle state, and sub-state below.
	mu            sync.Mutex
	kase          *datatypes.Case
	state         RunState
	sidebarReturn datatypes.Phase // phase to restore when the sidebar ends
	verdictGuilty bool

	units    map[string]*agent.Unit
	memory   *judicial.Store
	rotation *speakerRotation
	events   chan datatypes.SimulationEvent
}

// memoryBias adapts the judicial store to the unit-facing bias
// contract.
type memoryBias struct {
	store *judicial.Store
}

func (b memoryBias) Bias(names []string, caseType datatypes.CaseType, subject string) agent.DecisionBias {
	inf := b.store.ComputeInfluence(names, caseType, subject)
	return agent.DecisionBias{
		ParticipantBias:   inf.ParticipantBias,
		PrecedentStrength: inf.PrecedentStrength,
		ExperienceWeight:  inf.ExperienceWeight,
		Confidence:        inf.Confidence,
	}
}

// NewController builds a controller and binds an agent unit to every
// roster participant except observers. memory may be nil when the judge
// runs without accumulated experience; client may be nil in tests,
// which forces every unit onto its fallback bank.
func NewController(kase *datatypes.Case, client llm.Client, health *llm.HealthTracker, memory *judicial.Store, logger *logging.Logger, cfg Config) *Controller {
	if logger == nil {
		logger = logging.Default()
	}
	if kase.Phase == "" {
		kase.Phase = datatypes.PhasePreTrial
	}

	c := &Controller{
		caseID:   kase.ID,
		cfg:      cfg,
		logger:   logger.With("case", kase.ID),
		kase:     kase,
		state:    StateCreated,
		units:    make(map[string]*agent.Unit, len(kase.Participants)),
		memory:   memory,
		rotation: newSpeakerRotation(),
		events:   make(chan datatypes.SimulationEvent, eventBufferSize),
	}

	for i, p := range kase.Participants {
		if p.Role == datatypes.RoleObserver {
			continue
		}
		var bias agent.BiasProvider
		if p.Role == datatypes.RoleJudge && memory != nil {
			bias = memoryBias{store: memory}
		}
		unitCfg := cfg.Unit
		if unitCfg.Seed != 0 {
			unitCfg.Seed += int64(i) // distinct streams per unit
		}
		c.units[p.ID] = agent.NewUnit(p, client, health, bias, logger, unitCfg)
	}
	return c
}

// CaseID returns the bound case's ID.
func (c *Controller) CaseID() string { return c.caseID }

// State returns the lifecycle state.
func (c *Controller) State() RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Phase returns the current phase, including sidebar/recess sub-states.
func (c *Controller) Phase() datatypes.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kase.Phase
}

// Snapshot returns a deep-enough copy of the case for presentation:
// the transcript and rulings slices are copied, participants are
// shared pointers whose mutation rights stay with the units.
func (c *Controller) Snapshot() datatypes.Case {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := *c.kase
	out.Transcript = make([]datatypes.TranscriptEntry, len(c.kase.Transcript))
	copy(out.Transcript, c.kase.Transcript)
	out.Rulings = make([]datatypes.Ruling, len(c.kase.Rulings))
	copy(out.Rulings, c.kase.Rulings)
	return out
}

// Unit returns the agent unit bound to a participant, if any.
func (c *Controller) Unit(participantID string) (*agent.Unit, bool) {
	u, ok := c.units[participantID]
	return u, ok
}

// Start moves the controller from created to running.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateCreated:
	case StateStopped:
		c.mu.Unlock()
		return ErrStopped
	case StateCompleted:
		c.mu.Unlock()
		return ErrCompleted
	default:
		c.mu.Unlock()
		return fmt.Errorf("already started")
	}
	c.state = StateRunning
	phase := c.kase.Phase
	c.mu.Unlock()

	observability.ActiveSimulations.Inc()
	c.logger.Info("simulation started", "phase", phase)
	c.publish(datatypes.EventSimulationStarted, phase, nil, nil)
	return nil
}

// Pause suspends turn resolution. A generation already in flight is
// allowed to finish but its result is discarded.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return ErrNotRunning
	}
	c.state = StatePaused
	c.publishLocked(datatypes.EventSimulationPaused, nil, nil)
	return nil
}

// Resume continues a paused simulation.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePaused {
		return fmt.Errorf("not paused")
	}
	c.state = StateRunning
	c.publishLocked(datatypes.EventSimulationResumed, nil, nil)
	return nil
}

// Stop terminates the simulation. Terminal: a stopped simulation never
// restarts.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateStopped, StateCompleted:
		return nil
	case StateRunning, StatePaused:
		observability.ActiveSimulations.Dec()
	}
	c.state = StateStopped
	c.publishLocked(datatypes.EventSimulationCompleted, nil, map[string]any{"reason": "stopped"})
	c.logger.Info("simulation stopped")
	return nil
}

// publishLocked emits an event using the current phase. Caller holds mu.
func (c *Controller) publishLocked(evType datatypes.EventType, entry *datatypes.TranscriptEntry, detail map[string]any) {
	phase := c.kase.Phase
	// publish never blocks, so emitting under mu is safe.
	c.publish(evType, phase, entry, detail)
}

// ProcessTurn resolves one turn for the named participant. Returns
// ErrTurnInFlight when another turn is resolving; the caller retries
// after the current turn lands.
func (c *Controller) ProcessTurn(ctx context.Context, participantID string) error {
	c.mu.Lock()
	if c.state != StateRunning {
		state := c.state
		c.mu.Unlock()
		return stateError(state)
	}
	p := c.kase.ParticipantByID(participantID)
	c.mu.Unlock()
	if p == nil {
		return fmt.Errorf("%w: %s", ErrParticipantNotFound, participantID)
	}
	return c.takeTurn(ctx, p)
}

func stateError(s RunState) error {
	switch s {
	case StateStopped:
		return ErrStopped
	case StateCompleted:
		return ErrCompleted
	default:
		return ErrNotRunning
	}
}

// takeTurn is the single turn-resolution path. The in-flight guard is
// TryLock: a second caller is rejected, never queued.
func (c *Controller) takeTurn(ctx context.Context, p *datatypes.Participant) error {
	if !c.turnMu.TryLock() {
		return ErrTurnInFlight
	}
	defer c.turnMu.Unlock()
	start := time.Now()

	if p.HumanControlled {
		c.publish(datatypes.EventInputRequested, c.Phase(), nil, map[string]any{
			"participant_id": p.ID,
			"name":           p.Name,
		})
		return nil
	}

	unit, ok := c.units[p.ID]
	if !ok {
		return fmt.Errorf("%w: %s has no unit", ErrParticipantNotFound, p.ID)
	}

	tctx := c.trialContext(p)

	// Verdict and sentencing turns resolve through the judicial
	// decision path instead of plain statement generation.
	if p.Role == datatypes.RoleJudge &&
		(tctx.Phase == datatypes.PhaseVerdict || tctx.Phase == datatypes.PhaseSentencing) {
		return c.resolveJudgment(ctx, unit, p, tctx, start)
	}

	stmt := unit.GenerateStatement(ctx, tctx)

	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		c.logger.Debug("turn result discarded", "participant", p.ID, "state", c.state)
		return nil
	}
	entry := c.appendEntryLocked(p, datatypes.EntryStatement, stmt.Content, "")
	c.mu.Unlock()

	outcome := "generated"
	if stmt.Fallback {
		outcome = "fallback"
		observability.GatewayExhaustions.Inc()
		c.publish(datatypes.EventTurnFailed, tctx.Phase, nil, map[string]any{
			"participant_id": p.ID,
			"recovered":      true,
		})
	}
	observability.TurnsTotal.WithLabelValues(string(p.Role), outcome).Inc()
	observability.TurnDuration.WithLabelValues(string(p.Role)).Observe(time.Since(start).Seconds())

	c.publish(datatypes.EventActionGenerated, tctx.Phase, entry, nil)
	c.observeTurn(p, entry)
	return nil
}

// resolveJudgment handles a judge's verdict or sentencing turn: the
// decision is recorded as a ruling and in judicial memory, and the
// judge's statement lands in the transcript.
func (c *Controller) resolveJudgment(ctx context.Context, unit *agent.Unit, p *datatypes.Participant, tctx agent.TrialContext, start time.Time) error {
	kind := "verdict"
	if tctx.Phase == datatypes.PhaseSentencing {
		kind = "sentence"
		tctx.Instruction = "The defendant has been found guilty. Pronounce the sentence now. Start with exactly one line of the form VERDICT: <sentence>, then explain your reasoning briefly."
	}

	verdict := unit.DecideVerdict(ctx, tctx, c.partyNames())

	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return nil
	}
	if kind == "verdict" {
		c.verdictGuilty = strings.Contains(verdict.Decision, "guilty") &&
			!strings.Contains(verdict.Decision, "not guilty")
	}
	ruling := datatypes.Ruling{
		ID:         uuid.NewString(),
		Kind:       kind,
		Decision:   verdict.Decision,
		Reasoning:  verdict.Reasoning,
		Confidence: verdict.Confidence,
		Timestamp:  time.Now(),
	}
	c.kase.Rulings = append(c.kase.Rulings, ruling)
	entry := c.appendEntryLocked(p, datatypes.EntryRuling, verdict.Statement, "")
	c.mu.Unlock()

	if c.memory != nil {
		c.memory.RecordDecision(c.caseID, judicial.DecisionRecord{
			Kind:                kind,
			Decision:            verdict.Decision,
			Reasoning:           verdict.Reasoning,
			Confidence:          verdict.Confidence,
			ContributingFactors: c.judgmentFactors(),
		})
	}

	outcome := "generated"
	if verdict.Fallback {
		outcome = "fallback"
		observability.GatewayExhaustions.Inc()
	}
	observability.TurnsTotal.WithLabelValues(string(p.Role), outcome).Inc()
	observability.TurnDuration.WithLabelValues(string(p.Role)).Observe(time.Since(start).Seconds())

	c.publish(datatypes.EventActionGenerated, tctx.Phase, entry, map[string]any{
		"kind":     kind,
		"decision": verdict.Decision,
	})
	c.logger.Info("judgment delivered", "kind", kind, "decision", verdict.Decision)
	return nil
}

// appendEntryLocked appends a transcript entry. Caller holds mu; the
// append order under the in-flight guard is the resolution order.
func (c *Controller) appendEntryLocked(p *datatypes.Participant, entryType datatypes.EntryType, content, evidenceID string) *datatypes.TranscriptEntry {
	entry := datatypes.TranscriptEntry{
		ID:          uuid.NewString(),
		SpeakerID:   p.ID,
		SpeakerName: p.Name,
		Role:        p.Role,
		Type:        entryType,
		Content:     content,
		Timestamp:   time.Now(),
		EvidenceID:  evidenceID,
		Sidebar:     c.kase.Phase == datatypes.PhaseSidebar,
	}
	c.kase.Transcript = append(c.kase.Transcript, entry)
	return &c.kase.Transcript[len(c.kase.Transcript)-1]
}

// observeTurn lets every other unit hear what was said.
func (c *Controller) observeTurn(speaker *datatypes.Participant, entry *datatypes.TranscriptEntry) {
	// Jurors never hear sidebar content.
	for id, u := range c.units {
		if id == speaker.ID {
			continue
		}
		if entry.Sidebar && u.Participant().Role == datatypes.RoleJuror {
			continue
		}
		u.Memory().Observe(agent.MemoryItem{
			Content:    fmt.Sprintf("%s (%s) said: %s", entry.SpeakerName, entry.Role, entry.Content),
			Kind:       "utterance",
			Importance: 0.4,
			Timestamp:  entry.Timestamp,
		})
	}
}

// trialContext assembles the proceeding view a unit sees for its turn.
// Jurors get the sidebar-filtered feed.
func (c *Controller) trialContext(p *datatypes.Participant) agent.TrialContext {
	c.mu.Lock()
	defer c.mu.Unlock()

	const recentWindow = 8
	var recent []datatypes.TranscriptEntry
	for i := len(c.kase.Transcript) - 1; i >= 0 && len(recent) < recentWindow; i-- {
		e := c.kase.Transcript[i]
		if e.Sidebar && p.Role == datatypes.RoleJuror {
			continue
		}
		recent = append(recent, e)
	}
	// Reverse back to chronological order.
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}

	return agent.TrialContext{
		CaseID:      c.kase.ID,
		CaseTitle:   c.kase.Title,
		CaseSummary: c.kase.Summary,
		CaseType:    c.kase.Type,
		Phase:       c.kase.Phase,
		Recent:      recent,
		Instruction: turnInstruction(c.kase.Phase, p.Role, c.kase.Type),
	}
}

// judgmentFactors names the memory signals that weighed on a judgment,
// for the decision record. Empty when the judge runs without memory or
// nothing in it bore on the case.
func (c *Controller) judgmentFactors() []string {
	if c.memory == nil {
		return nil
	}
	inf := c.memory.ComputeInfluence(c.partyNames(), c.kase.Type, "verdict")
	var factors []string
	if inf.PrecedentStrength > 0.2 {
		factors = append(factors, "precedent")
	}
	if inf.ParticipantBias > 0.2 || inf.ParticipantBias < -0.2 {
		factors = append(factors, "participant-history")
	}
	if inf.ExperienceWeight > 0.5 {
		factors = append(factors, "experience")
	}
	return factors
}

// partyNames returns the names of all non-observer participants, for
// judicial influence lookups.
func (c *Controller) partyNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var names []string
	for _, p := range c.kase.Participants {
		if p.Role != datatypes.RoleObserver {
			names = append(names, p.Name)
		}
	}
	return names
}

// ProcessPhase resolves every scripted turn of the current phase, in
// script order. Pausing or stopping mid-phase abandons the remaining
// turns.
func (c *Controller) ProcessPhase(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateRunning {
		state := c.state
		c.mu.Unlock()
		return stateError(state)
	}
	phase := c.kase.Phase
	caseType := c.kase.Type
	c.mu.Unlock()

	for _, role := range phaseScript(phase, caseType) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.State() != StateRunning || c.Phase() != phase {
			return nil
		}

		c.mu.Lock()
		p := c.rotation.pick(c.kase, role)
		c.mu.Unlock()
		if p == nil {
			continue // roster has nobody in this role
		}
		if err := c.takeTurn(ctx, p); err != nil {
			return err
		}
		if c.cfg.TurnDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.TurnDelay):
			}
		}
	}
	return nil
}

// NextPhase advances to the next phase in the forward sequence,
// completing the simulation when the sequence is exhausted. Rejected
// during a sidebar or recess.
func (c *Controller) NextPhase(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateRunning {
		state := c.state
		c.mu.Unlock()
		return stateError(state)
	}
	current := c.kase.Phase
	if current == datatypes.PhaseSidebar || current == datatypes.PhaseRecess {
		c.mu.Unlock()
		return fmt.Errorf("%w: cannot advance during %s", ErrInvalidTransition, current)
	}

	hasJurors := len(c.kase.ParticipantsByRole(datatypes.RoleJuror)) > 0
	next, ok := nextPhase(current, c.kase.Type, hasJurors, c.verdictGuilty)
	if !ok {
		c.state = StateCompleted
		c.mu.Unlock()
		observability.ActiveSimulations.Dec()
		c.recordCompletion()
		c.publish(datatypes.EventSimulationCompleted, current, nil, nil)
		c.logger.Info("simulation completed", "final_phase", current)
		return nil
	}

	c.kase.Phase = next
	c.mu.Unlock()

	observability.PhaseTransitions.WithLabelValues(string(next)).Inc()
	c.publish(datatypes.EventPhaseChanged, next, nil, map[string]any{"from": current})
	c.logger.Info("phase changed", "from", current, "to", next)
	return nil
}

// Run drives the simulation from its current phase to completion:
// process the phase, advance, repeat. Returns when the proceeding
// completes, the context is cancelled, or the simulation is stopped or
// paused externally.
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch c.State() {
		case StateCompleted:
			return nil
		case StateStopped:
			return ErrStopped
		case StatePaused:
			return nil
		}
		if err := c.ProcessPhase(ctx); err != nil {
			return err
		}
		if c.State() != StateRunning {
			continue
		}
		if err := c.NextPhase(ctx); err != nil {
			return err
		}
	}
}

// recordCompletion closes the case out in judicial memory: the outcome,
// the participants, and a graded interaction per non-observer
// participant derived from their composure through the proceeding.
func (c *Controller) recordCompletion() {
	if c.memory == nil {
		return
	}

	c.mu.Lock()
	outcome := ""
	for _, r := range c.kase.Rulings {
		if r.Kind == "verdict" {
			outcome = r.Decision
		}
	}
	rec := judicial.CaseRecord{
		CaseID:       c.kase.ID,
		Title:        c.kase.Title,
		Type:         c.kase.Type,
		Summary:      c.kase.Summary,
		Participants: nil,
		Outcome:      outcome,
	}
	type graded struct {
		name string
		mood float64
		role datatypes.Role
	}
	var parties []graded
	for _, p := range c.kase.Participants {
		if p.Role == datatypes.RoleObserver || p.Role == datatypes.RoleJudge {
			continue
		}
		rec.Participants = append(rec.Participants, p.Name)
		parties = append(parties, graded{name: p.Name, mood: p.Mood, role: p.Role})
	}
	c.mu.Unlock()

	c.memory.RecordCase(rec)
	for _, g := range parties {
		tier := judicial.TierNeutral
		switch {
		case g.mood >= 0.7:
			tier = judicial.TierGood
		case g.mood <= 0.3:
			tier = judicial.TierPoor
		}
		c.memory.RecordParticipantInteraction(g.name, tier, []string{string(g.role)}, "")
	}
}
