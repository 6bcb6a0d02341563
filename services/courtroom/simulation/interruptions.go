// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/CourtSim/services/courtroom/agent"
	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
	"github.com/AleutianAI/CourtSim/services/courtroom/judicial"
	"github.com/AleutianAI/CourtSim/services/courtroom/observability"
)

// objectionKinds are the recognized grounds. Unknown kinds are rejected
// before reaching the judge.
var objectionKinds = map[string]bool{
	"relevance":     true,
	"hearsay":       true,
	"speculation":   true,
	"leading":       true,
	"argumentative": true,
	"badgering":     true,
	"foundation":    true,
}

// ValidObjectionKind reports whether kind is a recognized ground.
func ValidObjectionKind(kind string) bool { return objectionKinds[kind] }

// RequestSidebar suspends the main phase sequence and enters the
// sidebar sub-state. Statements made until EndSidebar carry the sidebar
// mark and stay hidden from jurors.
func (c *Controller) RequestSidebar(requesterID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return stateError(c.state)
	}
	if c.kase.Phase == datatypes.PhaseSidebar {
		return fmt.Errorf("sidebar already in progress")
	}
	p := c.kase.ParticipantByID(requesterID)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrParticipantNotFound, requesterID)
	}
	if !p.Role.Counsel() && p.Role != datatypes.RoleJudge {
		return fmt.Errorf("only counsel or the judge may request a sidebar")
	}

	c.sidebarReturn = c.kase.Phase
	c.kase.Phase = datatypes.PhaseSidebar
	c.publishLocked(datatypes.EventSidebarStarted, nil, map[string]any{"requested_by": p.Name})
	c.logger.Info("sidebar started", "requested_by", p.Name)
	return nil
}

// EndSidebar returns to the interrupted phase.
func (c *Controller) EndSidebar() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kase.Phase != datatypes.PhaseSidebar {
		return ErrNoSidebar
	}
	c.kase.Phase = c.sidebarReturn
	c.sidebarReturn = ""
	c.publishLocked(datatypes.EventSidebarEnded, nil, nil)
	return nil
}

// TriggerObjection raises an objection against the most recent
// statement and has the judge rule on it immediately. The objection,
// the ruling, and the emotional fallout all land atomically with
// respect to other turns: the in-flight guard covers the whole
// exchange.
func (c *Controller) TriggerObjection(ctx context.Context, objectorID, kind string) (*datatypes.Ruling, error) {
	if !ValidObjectionKind(kind) {
		return nil, fmt.Errorf("unknown objection kind %q", kind)
	}
	if !c.turnMu.TryLock() {
		return nil, ErrTurnInFlight
	}
	defer c.turnMu.Unlock()

	c.mu.Lock()
	if c.state != StateRunning {
		state := c.state
		c.mu.Unlock()
		return nil, stateError(state)
	}
	objector := c.kase.ParticipantByID(objectorID)
	if objector == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrParticipantNotFound, objectorID)
	}
	if !objector.Role.Counsel() {
		c.mu.Unlock()
		return nil, fmt.Errorf("only counsel may object")
	}
	target := c.kase.LastStatement()
	if target == nil {
		c.mu.Unlock()
		return nil, ErrNothingToObjectTo
	}
	targetCopy := *target
	judges := c.kase.ParticipantsByRole(datatypes.RoleJudge)
	if len(judges) == 0 {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: no judge on roster", ErrParticipantNotFound)
	}
	judge := judges[0]
	c.appendEntryLocked(objector, datatypes.EntryObjection,
		fmt.Sprintf("Objection, %s.", kind), "")
	c.mu.Unlock()

	judgeUnit := c.units[judge.ID]
	sustained, reasoning := judgeUnit.EvaluateObjection(ctx, targetCopy.Content, kind)

	decision := "overruled"
	if sustained {
		decision = "sustained"
	}

	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		return nil, nil
	}
	ruling := datatypes.Ruling{
		ID:         uuid.NewString(),
		Kind:       "objection",
		Subject:    kind,
		Decision:   decision,
		Reasoning:  reasoning,
		Confidence: judgeUnit.Emotions().Get(agent.EmotionConfidence) * 10,
		Timestamp:  time.Now(),
	}
	c.kase.Rulings = append(c.kase.Rulings, ruling)
	entry := c.appendEntryLocked(judge, datatypes.EntryRuling,
		fmt.Sprintf("%s. %s", capitalize(decision), reasoning), "")
	c.mu.Unlock()

	// Emotional fallout: the objector and the speaker feel the ruling
	// from opposite sides.
	if u, ok := c.units[objector.ID]; ok {
		if sustained {
			u.UpdateEmotionalState(agent.EventObjectionWon, 0.8)
		} else {
			u.UpdateEmotionalState(agent.EventObjectionLost, 0.8)
		}
	}
	if u, ok := c.units[targetCopy.SpeakerID]; ok {
		if sustained {
			u.UpdateEmotionalState(agent.EventObjectionSustained, 0.8)
		} else {
			u.UpdateEmotionalState(agent.EventObjectionOverruled, 0.5)
		}
	}

	if c.memory != nil {
		c.memory.RecordDecision(c.caseID, judicial.DecisionRecord{
			Kind:                "objection",
			Subject:             kind,
			Decision:            decision,
			Reasoning:           reasoning,
			Confidence:          ruling.Confidence,
			ContributingFactors: []string{kind},
		})
	}

	observability.ObjectionsTotal.WithLabelValues(decision).Inc()
	c.publish(datatypes.EventObjectionRuled, c.Phase(), entry, map[string]any{
		"kind":     kind,
		"decision": decision,
		"objector": objector.Name,
	})
	c.logger.Info("objection ruled", "kind", kind, "decision", decision)
	return &ruling, nil
}

// InjectStatement lands a human-authored statement for a
// human-controlled participant. The same in-flight guard applies:
// human turns and agent turns serialize identically.
func (c *Controller) InjectStatement(participantID, content string) (*datatypes.TranscriptEntry, error) {
	if !c.turnMu.TryLock() {
		return nil, ErrTurnInFlight
	}
	defer c.turnMu.Unlock()

	c.mu.Lock()
	if c.state != StateRunning {
		state := c.state
		c.mu.Unlock()
		return nil, stateError(state)
	}
	p := c.kase.ParticipantByID(participantID)
	if p == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrParticipantNotFound, participantID)
	}
	if !p.HumanControlled {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotHumanControlled, participantID)
	}
	entry := c.appendEntryLocked(p, datatypes.EntryStatement, content, "")
	entryCopy := *entry
	c.mu.Unlock()

	observability.TurnsTotal.WithLabelValues(string(p.Role), "human").Inc()
	c.publish(datatypes.EventActionGenerated, c.Phase(), &entryCopy, map[string]any{"human": true})
	c.observeTurn(p, &entryCopy)
	return &entryCopy, nil
}

// SetHumanControl hands every participant holding role to the user, or
// back to their agent units.
func (c *Controller) SetHumanControl(role datatypes.Role, enabled bool) error {
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", role)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	holders := c.kase.ParticipantsByRole(role)
	if len(holders) == 0 {
		return fmt.Errorf("%w: no participant holds role %s", ErrParticipantNotFound, role)
	}
	for _, p := range holders {
		p.HumanControlled = enabled
	}
	c.logger.Info("role control changed", "role", role, "human", enabled)
	return nil
}

// PresentEvidence introduces an exhibit into the record and lets every
// unit weigh it.
func (c *Controller) PresentEvidence(presenterID, evidenceID string) (*datatypes.TranscriptEntry, error) {
	c.mu.Lock()
	if c.state != StateRunning {
		state := c.state
		c.mu.Unlock()
		return nil, stateError(state)
	}
	p := c.kase.ParticipantByID(presenterID)
	if p == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrParticipantNotFound, presenterID)
	}
	var ev *datatypes.Evidence
	for i := range c.kase.Evidence {
		if c.kase.Evidence[i].ID == evidenceID {
			ev = &c.kase.Evidence[i]
			break
		}
	}
	if ev == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("evidence %s not found", evidenceID)
	}
	entry := c.appendEntryLocked(p, datatypes.EntryExhibit,
		fmt.Sprintf("%s moves to admit %s: %s", p.Name, ev.Title, ev.Description), ev.ID)
	entryCopy := *entry
	evCopy := *ev
	c.mu.Unlock()

	for _, u := range c.units {
		u.ProcessEvidence(evCopy)
	}
	if u, ok := c.units[p.ID]; ok {
		u.UpdateEmotionalState(agent.EventEvidenceAdmitted, 0.6)
	}
	c.publish(datatypes.EventActionGenerated, c.Phase(), &entryCopy, map[string]any{"evidence_id": ev.ID})
	return &entryCopy, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
