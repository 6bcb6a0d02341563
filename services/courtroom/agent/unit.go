// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package agent implements the decision unit bound to each simulated
// participant. A unit turns proceeding state into utterances and
// decisions through the generation gateway, absorbs gateway failures
// behind a retry policy with deterministic fallbacks, and maintains the
// participant's memory and emotional state across turns.
package agent

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/CourtSim/pkg/logging"
	"github.com/AleutianAI/CourtSim/pkg/retry"
	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
	"github.com/AleutianAI/CourtSim/services/llm"
)

// DecisionBias is the influence a judge's accumulated experience exerts
// on a pending decision. All-zero values with Confidence 5.0 mean no
// influence: the neutral baseline.
type DecisionBias struct {
	// ParticipantBias in [-1,1]; positive favors the parties involved.
	ParticipantBias float64
	// PrecedentStrength in [0,1]; how closely past cases match.
	PrecedentStrength float64
	// ExperienceWeight in [0,1]; how much history backs the bias.
	ExperienceWeight float64
	// Confidence on a 1-10 scale; 5.0 is the neutral baseline.
	Confidence float64
}

// BiasProvider supplies decision influence for judge turns. Implemented
// by the judicial memory layer; units never reach into that layer
// directly.
type BiasProvider interface {
	Bias(participantNames []string, caseType datatypes.CaseType, subject string) DecisionBias
}

// ActionType classifies what a unit plans to do on its turn.
type ActionType string

const (
	ActionStatement ActionType = "statement"
	ActionQuestion  ActionType = "question"
	ActionObjection ActionType = "objection"
	ActionMotion    ActionType = "motion"
)

// PlannedAction is the unit's intent for its turn. Confidence is the
// unit's own estimate in [0,1], separate from judicial confidence.
type PlannedAction struct {
	Type       ActionType `json:"type"`
	Content    string     `json:"content"`
	Confidence float64    `json:"confidence"`
	Fallback   bool       `json:"fallback"`
}

// Statement is a generated utterance plus whether it came from the
// fallback bank rather than the gateway.
type Statement struct {
	Content  string
	Fallback bool
}

// VerdictDecision is a judge unit's resolution of a verdict or
// sentencing turn. Confidence is on the 1-10 judicial scale.
type VerdictDecision struct {
	Decision   string
	Reasoning  string
	Statement  string
	Confidence float64
	Fallback   bool
}

// Config tunes a unit. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	ShortTermCap    int
	PromotionChance float64
	Retry           retry.Config
	// Seed fixes the unit's random stream. Zero seeds from the clock.
	Seed int64
}

// DefaultConfig returns standard unit tuning: a 20-item short-term
// buffer, 30% eviction promotion, and the gateway retry policy.
func DefaultConfig() Config {
	return Config{
		ShortTermCap:    20,
		PromotionChance: 0.30,
		Retry:           retry.DefaultConfig(),
	}
}

// Unit binds one participant to the generation gateway.
//
// # Thread Safety
//
// A unit's generation methods are invoked by the simulation controller,
// which serializes turns per case. Memory and emotional state carry
// their own locks so transport reads stay safe during a turn.
type Unit struct {
	participant *datatypes.Participant
	client      llm.Client
	health      *llm.HealthTracker
	bias        BiasProvider
	memory      *Memory
	emotions    *EmotionalState
	retryCfg    retry.Config
	logger      *logging.Logger

	mu  sync.Mutex // guards rng and participant.Mood writes
	rng *rand.Rand
}

// NewUnit creates a decision unit for the given participant. client may
// be nil for units that only ever speak from the fallback bank (e.g.
// bailiff); health, bias, and logger are optional.
func NewUnit(p *datatypes.Participant, client llm.Client, health *llm.HealthTracker, bias BiasProvider, logger *logging.Logger, cfg Config) *Unit {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if logger == nil {
		logger = logging.Default()
	}
	u := &Unit{
		participant: p,
		client:      client,
		health:      health,
		bias:        bias,
		emotions:    NewEmotionalState(),
		retryCfg:    cfg.Retry,
		logger:      logger.With("participant", p.ID, "role", p.Role),
		rng:         rand.New(rand.NewSource(seed)),
	}
	u.memory = NewMemory(cfg.ShortTermCap, cfg.PromotionChance, rand.New(rand.NewSource(seed+1)))
	p.Mood = u.emotions.Mood()
	if p.Background.Bio != "" {
		u.memory.Remember(MemoryItem{
			Content:    p.Background.Bio,
			Kind:       "fact",
			Importance: 0.9,
			Timestamp:  time.Now(),
		})
	}
	return u
}

// Participant returns the bound participant.
func (u *Unit) Participant() *datatypes.Participant { return u.participant }

// Memory returns the unit's recall model.
func (u *Unit) Memory() *Memory { return u.memory }

// Emotions returns the unit's emotional state.
func (u *Unit) Emotions() *EmotionalState { return u.emotions }

// generate runs one gateway call under the retry policy. Returns the
// trimmed text, or an error after the policy is exhausted. Never
// panics, never blocks past the policy's bounds.
func (u *Unit) generate(ctx context.Context, msgs []llm.Message) (string, error) {
	if u.client == nil {
		return "", fmt.Errorf("no generation client bound")
	}

	var text string
	result, err := retry.Do(ctx, u.retryCfg, func(ctx context.Context, attempt int) error {
		res, err := u.client.Chat(ctx, msgs, llm.Params{})
		if err != nil {
			u.logger.Debug("generation attempt failed", "attempt", attempt, "error", err)
			return err
		}
		text = strings.TrimSpace(res.Text)
		return nil
	})
	if err != nil {
		if u.health != nil {
			u.health.RecordExhaustion()
		}
		u.logger.Warn("generation exhausted, falling back",
			"attempts", result.Attempts, "elapsed", result.TotalDuration, "error", err)
		return "", err
	}
	if u.health != nil {
		u.health.RecordSuccess()
	}
	return text, nil
}

// Think produces the unit's private reflections on the current state.
// Reflections land in short-term memory and are never spoken. On
// gateway failure it degrades to a single deterministic reflection.
func (u *Unit) Think(ctx context.Context, tctx TrialContext) []string {
	tctx.Instruction = "Privately, in one or two short sentences each, list up to three thoughts about where this proceeding stands and what you should do next. One thought per line. Do not speak aloud."

	text, err := u.generate(ctx, u.messages(tctx))
	var thoughts []string
	if err != nil {
		thoughts = []string{fmt.Sprintf("I need to stay focused during %s.", tctx.Phase.DisplayName(tctx.CaseType))}
	} else {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(strings.TrimLeft(line, "-•*0123456789. "))
			if line != "" {
				thoughts = append(thoughts, line)
			}
		}
		if len(thoughts) > 3 {
			thoughts = thoughts[:3]
		}
	}

	now := time.Now()
	for _, th := range thoughts {
		u.memory.Observe(MemoryItem{Content: th, Kind: "thought", Importance: 0.3, Timestamp: now})
	}
	return thoughts
}

// PlanAction decides what the unit does on its turn, choosing from the
// actions the proceeding currently allows. Speaking is preferred when
// the floor is open. On gateway failure the plan degrades to the first
// available action at middling confidence so the turn still resolves.
func (u *Unit) PlanAction(ctx context.Context, tctx TrialContext, available []ActionType) *PlannedAction {
	if len(available) == 0 {
		available = []ActionType{ActionStatement}
	}

	stmt := u.GenerateStatement(ctx, tctx)
	if stmt.Fallback {
		return &PlannedAction{
			Type:       available[0],
			Content:    stmt.Content,
			Confidence: 0.5,
			Fallback:   true,
		}
	}

	action := available[0]
	for _, a := range available {
		if a == ActionStatement {
			action = a
			break
		}
	}
	return &PlannedAction{
		Type:       action,
		Content:    stmt.Content,
		Confidence: u.emotions.Get(EmotionConfidence),
	}
}

// GenerateStatement produces the unit's utterance for the current turn.
// Never fails: gateway exhaustion falls back to the role's canned
// statement bank, keyed by the current phase.
func (u *Unit) GenerateStatement(ctx context.Context, tctx TrialContext) Statement {
	if tctx.Instruction == "" {
		tctx.Instruction = "It is your turn to speak. Give your statement now, in two to five sentences."
	}

	text, err := u.generate(ctx, u.messages(tctx))
	if err != nil || text == "" {
		u.mu.Lock()
		canned := fallbackStatement(u.participant.Role, tctx.Phase, u.rng)
		u.mu.Unlock()
		return Statement{Content: canned, Fallback: true}
	}

	u.memory.Observe(MemoryItem{
		Content:    fmt.Sprintf("I said: %s", text),
		Kind:       "utterance",
		Importance: 0.5,
		Timestamp:  time.Now(),
	})
	return Statement{Content: text}
}

// fallbackSustainChance biases fallback objection rulings toward
// overruling, so a degraded gateway cannot trap the trial in objection
// loops.
const fallbackSustainChance = 0.25

// EvaluateObjection asks a judge unit to rule on an objection. Returns
// sustained=true when the objection is upheld. The fallback ruling is
// a weighted coin favoring overrule.
func (u *Unit) EvaluateObjection(ctx context.Context, statement, kind string) (sustained bool, reasoning string) {
	tctx := TrialContext{
		Phase: datatypes.PhaseSidebar,
		Instruction: fmt.Sprintf(
			"An objection of %q has been raised against this statement: %q. Rule on it. Answer with exactly one word first, SUSTAINED or OVERRULED, then one sentence of reasoning.",
			kind, statement),
	}
	text, err := u.generate(ctx, u.messages(tctx))
	if err != nil {
		u.mu.Lock()
		sustain := u.rng.Float64() < fallbackSustainChance
		u.mu.Unlock()
		if sustain {
			return true, "The form of the question is improper."
		}
		return false, "The objection goes to weight, not admissibility."
	}

	upper := strings.ToUpper(text)
	sustained = strings.Contains(upper, "SUSTAIN")
	if i := strings.IndexAny(text, ".\n"); i >= 0 && i+1 < len(text) {
		reasoning = strings.TrimSpace(text[i+1:])
	}
	if reasoning == "" {
		reasoning = text
	}
	return sustained, reasoning
}

// DecideVerdict resolves a verdict or sentencing turn for a judge unit.
// Judicial influence, when a provider is bound, is folded into the
// prompt; the fallback decision favors the defense, reflecting the
// burden of proof.
func (u *Unit) DecideVerdict(ctx context.Context, tctx TrialContext, participantNames []string) VerdictDecision {
	var bias DecisionBias
	bias.Confidence = 5.0
	if u.bias != nil {
		bias = u.bias.Bias(participantNames, tctx.CaseType, "verdict")
		tctx.Bias = &bias
	}

	if tctx.Instruction == "" {
		tctx.Instruction = "Deliver your verdict now. Start with exactly one line of the form VERDICT: <decision>, then explain your reasoning in two to four sentences."
		if tctx.CaseType == datatypes.CaseCivil {
			tctx.Instruction += " Decide for the plaintiff or for the defendant."
		} else {
			tctx.Instruction += " Find the defendant guilty or not guilty."
		}
	}

	text, err := u.generate(ctx, u.messages(tctx))
	if err != nil || text == "" {
		decision := "not guilty"
		if tctx.CaseType == datatypes.CaseCivil {
			decision = "for the defendant"
		}
		u.mu.Lock()
		canned := fallbackStatement(u.participant.Role, datatypes.PhaseVerdict, u.rng)
		u.mu.Unlock()
		return VerdictDecision{
			Decision:   decision,
			Reasoning:  "The record before the court does not meet the required burden of proof.",
			Statement:  canned,
			Confidence: bias.Confidence,
			Fallback:   true,
		}
	}

	decision, reasoning := parseVerdict(text, tctx.CaseType)
	return VerdictDecision{
		Decision:   decision,
		Reasoning:  reasoning,
		Statement:  text,
		Confidence: bias.Confidence,
	}
}

// parseVerdict extracts the decision from a VERDICT:-prefixed response.
// Free-form responses are scanned for the standard dispositions.
func parseVerdict(text string, caseType datatypes.CaseType) (decision, reasoning string) {
	lines := strings.SplitN(text, "\n", 2)
	first := strings.TrimSpace(lines[0])
	if rest := strings.TrimPrefix(strings.ToUpper(first), "VERDICT:"); rest != strings.ToUpper(first) {
		decision = strings.ToLower(strings.TrimSpace(first[len("VERDICT:"):]))
		if len(lines) > 1 {
			reasoning = strings.TrimSpace(lines[1])
		}
		return decision, reasoning
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "not guilty"):
		decision = "not guilty"
	case strings.Contains(lower, "guilty"):
		decision = "guilty"
	case strings.Contains(lower, "for the plaintiff"):
		decision = "for the plaintiff"
	case strings.Contains(lower, "for the defendant"):
		decision = "for the defendant"
	default:
		if caseType == datatypes.CaseCivil {
			decision = "for the defendant"
		} else {
			decision = "not guilty"
		}
	}
	return decision, text
}

// ProcessEvidence records an exhibit in working and short-term memory.
// The importance weight is fixed per evidence type.
func (u *Unit) ProcessEvidence(ev datatypes.Evidence) {
	u.memory.SetWorking("evidence:"+ev.ID, evidenceWeight(ev.Type))
	u.memory.Observe(MemoryItem{
		Content:    fmt.Sprintf("Evidence presented: %s - %s", ev.Title, ev.Description),
		Kind:       "evidence",
		Importance: evidenceWeight(ev.Type),
		Timestamp:  time.Now(),
	})
}

// evidenceWeight returns the fixed importance for an evidence type.
func evidenceWeight(t datatypes.EvidenceType) float64 {
	switch t {
	case datatypes.EvidenceForensic:
		return 0.9
	case datatypes.EvidenceWeapon:
		return 0.85
	case datatypes.EvidenceDigital:
		return 0.75
	case datatypes.EvidenceDocument:
		return 0.7
	case datatypes.EvidencePhoto:
		return 0.65
	case datatypes.EvidenceTestimonial:
		return 0.6
	default:
		return 0.5
	}
}

// UpdateEmotionalState applies a courtroom event to the unit's mood and
// mirrors the resulting composure onto the participant record.
func (u *Unit) UpdateEmotionalState(event string, impact float64) {
	// Stable personalities feel events less.
	impact *= 1 - 0.5*u.participant.Personality.Stability
	u.emotions.Apply(event, impact)

	u.mu.Lock()
	u.participant.Mood = u.emotions.Mood()
	u.mu.Unlock()

	u.memory.Observe(MemoryItem{
		Content:    fmt.Sprintf("Event: %s", event),
		Kind:       "event",
		Importance: clamp01(impact),
		Timestamp:  time.Now(),
	})
}

// messages assembles the chat turns for a request against current
// memory and emotional state.
func (u *Unit) messages(tctx TrialContext) []llm.Message {
	return buildMessages(u.participant, tctx, u.memory.LongTerm(), u.emotions.Snapshot())
}
