// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package judicial accumulates a judge's experience across cases:
// outcomes, decisions, and per-participant credibility. The store
// shapes future rulings through the influence calculation but never
// decides anything itself, and it can be disabled entirely, in which
// case every query returns the neutral baseline.
package judicial

import (
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/CourtSim/pkg/logging"
	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
)

// DefaultRetention is how long closed cases stay in memory before
// CleanupOldCases will drop them: five years.
const DefaultRetention = 1825 * 24 * time.Hour

// InteractionTier grades one courtroom interaction with a participant.
type InteractionTier string

const (
	TierExcellent   InteractionTier = "excellent"
	TierGood        InteractionTier = "good"
	TierNeutral     InteractionTier = "neutral"
	TierPoor        InteractionTier = "poor"
	TierProblematic InteractionTier = "problematic"
)

// Score maps the tier to the fixed 1-10 credibility contribution.
// Unknown tiers score neutral.
func (t InteractionTier) Score() float64 {
	switch t {
	case TierExcellent:
		return 9
	case TierGood:
		return 7
	case TierNeutral:
		return 5
	case TierPoor:
		return 3
	case TierProblematic:
		return 1
	default:
		return 5
	}
}

// DecisionRecord is one ruling the judge made. ContributingFactors
// names what weighed on it ("precedent", "participant-history", the
// objection kind); Patterns aggregates them.
type DecisionRecord struct {
	CaseID              string    `json:"case_id"`
	Kind                string    `json:"kind"` // "objection", "motion", "verdict", "sentence"
	Subject             string    `json:"subject,omitempty"`
	Decision            string    `json:"decision"`
	Reasoning           string    `json:"reasoning,omitempty"`
	Confidence          float64   `json:"confidence"`
	ContributingFactors []string  `json:"contributing_factors,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

// CaseRecord is the judge's memory of one completed case.
type CaseRecord struct {
	CaseID       string             `json:"case_id"`
	Title        string             `json:"title"`
	Type         datatypes.CaseType `json:"type"`
	Summary      string             `json:"summary,omitempty"`
	Participants []string           `json:"participants"`
	Outcome      string             `json:"outcome"`
	Decisions    []DecisionRecord   `json:"decisions,omitempty"`
	RecordedAt   time.Time          `json:"recorded_at"`
}

// ParticipantRecord is the judge's accumulated impression of one person,
// keyed by normalized name since participant IDs are per-case.
type ParticipantRecord struct {
	Name         string    `json:"name"`
	Appearances  int       `json:"appearances"`
	Credibility  float64   `json:"credibility"` // running mean on the 1-10 scale
	Relationship []string  `json:"relationship,omitempty"`
	Notes        []string  `json:"notes,omitempty"`
	LastSeen     time.Time `json:"last_seen"`
}

// Experience summarizes how much history backs the judge's instincts.
type Experience struct {
	TotalCases int                        `json:"total_cases"`
	ByType     map[datatypes.CaseType]int `json:"by_type"`
}

// Store is one judge's decision memory.
//
// # Thread Safety
//
// Safe for concurrent use. Every exported call is atomic: readers never
// observe a half-applied record.
type Store struct {
	mu           sync.Mutex
	judgeID      string
	enabled      bool
	cases        map[string]*CaseRecord
	participants map[string]*ParticipantRecord
	experience   Experience
	logger       *logging.Logger
	now          func() time.Time
}

// NewStore creates a memory store for the given judge. A disabled store
// accepts no writes and answers every influence query with the neutral
// baseline.
func NewStore(judgeID string, enabled bool, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		judgeID:      judgeID,
		enabled:      enabled,
		cases:        make(map[string]*CaseRecord),
		participants: make(map[string]*ParticipantRecord),
		experience:   Experience{ByType: make(map[datatypes.CaseType]int)},
		logger:       logger.With("judge", judgeID),
		now:          time.Now,
	}
}

// JudgeID returns the judge this store belongs to.
func (s *Store) JudgeID() string { return s.judgeID }

// Enabled reports whether memory accumulation is active.
func (s *Store) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetEnabled toggles memory accumulation. Disabling does not discard
// what was already recorded; it only stops writes and neutralizes
// influence.
func (s *Store) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// nameKey normalizes a participant name for cross-case matching.
func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RecordCase stores the outcome of a completed case and bumps the
// experience counters. Rulings already recorded against the case ID are
// kept ahead of any the record carries; closing out a case whose
// interim record had no type counts the type now. Recording the same
// case ID again never double-counts experience. No-op when disabled.
func (s *Store) RecordCase(rec CaseRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = s.now()
	}
	existing, seen := s.cases[rec.CaseID]
	if !seen {
		s.experience.TotalCases++
		s.experience.ByType[rec.Type]++
	} else {
		if existing.Type == "" && rec.Type != "" {
			s.experience.ByType[rec.Type]++
		}
		rec.Decisions = append(existing.Decisions, rec.Decisions...)
	}
	s.cases[rec.CaseID] = &rec
	s.logger.Debug("case recorded", "case", rec.CaseID, "outcome", rec.Outcome, "decisions", len(rec.Decisions))
}

// RecordParticipantInteraction folds one graded interaction into the
// participant's running credibility mean and appearance count. Optional
// relationship tags and a disruption note accumulate without
// deduplication of notes. No-op when disabled.
func (s *Store) RecordParticipantInteraction(name string, tier InteractionTier, tags []string, note string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || strings.TrimSpace(name) == "" {
		return
	}

	key := nameKey(name)
	p, ok := s.participants[key]
	if !ok {
		p = &ParticipantRecord{Name: name}
		s.participants[key] = p
	}

	score := tier.Score()
	p.Credibility = (p.Credibility*float64(p.Appearances) + score) / float64(p.Appearances+1)
	p.Appearances++
	p.LastSeen = s.now()

	for _, tag := range tags {
		if !containsString(p.Relationship, tag) {
			p.Relationship = append(p.Relationship, tag)
		}
	}
	if note != "" {
		p.Notes = append(p.Notes, note)
	}
}

// RecordDecision appends a ruling to the case's record, creating a
// minimal case record if the case was not yet closed out. No-op when
// disabled.
func (s *Store) RecordDecision(caseID string, d DecisionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	if d.Timestamp.IsZero() {
		d.Timestamp = s.now()
	}
	d.CaseID = caseID

	rec, ok := s.cases[caseID]
	if !ok {
		rec = &CaseRecord{CaseID: caseID, RecordedAt: s.now()}
		s.cases[caseID] = rec
		s.experience.TotalCases++
	}
	rec.Decisions = append(rec.Decisions, d)
}

// Participant returns a copy of the stored record for name, if any.
func (s *Store) Participant(name string) (ParticipantRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[nameKey(name)]
	if !ok {
		return ParticipantRecord{}, false
	}
	return *p, true
}

// CaseCount returns the number of retained case records.
func (s *Store) CaseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cases)
}

// ExperienceSummary returns a copy of the experience counters.
func (s *Store) ExperienceSummary() Experience {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Experience{TotalCases: s.experience.TotalCases, ByType: make(map[datatypes.CaseType]int, len(s.experience.ByType))}
	for k, v := range s.experience.ByType {
		out.ByType[k] = v
	}
	return out
}

// CleanupOldCases drops case records older than maxAge and returns how
// many were removed. Zero maxAge means DefaultRetention. Cleanup only
// runs when explicitly called; nothing ages out on its own. Experience
// counters are not rolled back: the judge keeps the seasoning even when
// the case details are gone.
func (s *Store) CleanupOldCases(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = DefaultRetention
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	removed := 0
	for id, rec := range s.cases {
		if rec.RecordedAt.Before(cutoff) {
			delete(s.cases, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("old cases cleaned up", "removed", removed, "retained", len(s.cases))
	}
	return removed
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
