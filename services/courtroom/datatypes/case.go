// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes defines the shared domain model for the courtroom
// service: cases, participants, transcript entries, and the event and
// command shapes exchanged with the transport layer.
package datatypes

import "time"

// CaseType distinguishes criminal from civil proceedings. It selects
// phase labels, the prosecution-side role, and whether sentencing runs.
type CaseType string

const (
	CaseCriminal CaseType = "criminal"
	CaseCivil    CaseType = "civil"
)

// ProsecutionRole returns the role that carries the case-in-chief:
// prosecutor for criminal cases, plaintiff's counsel for civil ones.
func (t CaseType) ProsecutionRole() Role {
	if t == CaseCivil {
		return RolePlaintiffCounsel
	}
	return RoleProsecutor
}

// Phase is a named stage of the proceeding with its own speaker and
// completion rules. Transitions are strictly forward except for the
// sidebar/recess sub-states, which return to the interrupted phase.
type Phase string

const (
	PhasePreTrial          Phase = "pre_trial"
	PhaseJurySelection     Phase = "jury_selection"
	PhaseOpeningStatements Phase = "opening_statements"
	PhaseProsecutionCase   Phase = "prosecution_case"
	PhaseDefenseCase       Phase = "defense_case"
	PhaseClosingArguments  Phase = "closing_arguments"
	PhaseJuryDeliberation  Phase = "jury_deliberation"
	PhaseVerdict           Phase = "verdict"
	PhaseSentencing        Phase = "sentencing"

	// Sub-states. Not part of the forward sequence.
	PhaseSidebar Phase = "sidebar"
	PhaseRecess  Phase = "recess"
)

// DisplayName returns the user-facing phase label, adjusted for case
// type ("Plaintiff's Case" rather than "Prosecution's Case" in civil
// proceedings).
func (p Phase) DisplayName(caseType CaseType) string {
	switch p {
	case PhasePreTrial:
		return "Pre-Trial"
	case PhaseJurySelection:
		return "Jury Selection"
	case PhaseOpeningStatements:
		return "Opening Statements"
	case PhaseProsecutionCase:
		if caseType == CaseCivil {
			return "Plaintiff's Case"
		}
		return "Prosecution's Case"
	case PhaseDefenseCase:
		return "Defense Case"
	case PhaseClosingArguments:
		return "Closing Arguments"
	case PhaseJuryDeliberation:
		return "Jury Deliberation"
	case PhaseVerdict:
		return "Verdict"
	case PhaseSentencing:
		return "Sentencing"
	case PhaseSidebar:
		return "Sidebar"
	case PhaseRecess:
		return "Recess"
	default:
		return string(p)
	}
}

// EntryType classifies transcript entries.
type EntryType string

const (
	EntryStatement EntryType = "statement"
	EntryObjection EntryType = "objection"
	EntryExhibit   EntryType = "exhibit"
	EntryRuling    EntryType = "ruling"
)

// TranscriptEntry is one turn of the proceeding. Immutable once
// appended; the transcript is strictly time-ordered and append-only.
type TranscriptEntry struct {
	ID          string    `json:"id"`
	SpeakerID   string    `json:"speaker_id"`
	SpeakerName string    `json:"speaker_name"`
	Role        Role      `json:"role"`
	Type        EntryType `json:"type"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`

	// EvidenceID links an exhibit entry to the evidence it introduces.
	EvidenceID string `json:"evidence_id,omitempty"`

	// Sidebar marks entries spoken during a sidebar. They remain in the
	// transcript but are excluded from the juror-visible feed.
	Sidebar bool `json:"sidebar,omitempty"`
}

// Ruling records a judicial decision made during the case.
type Ruling struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // "objection", "motion", "verdict", "sentence"
	Subject    string    `json:"subject"`
	Decision   string    `json:"decision"`
	Reasoning  string    `json:"reasoning,omitempty"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// EvidenceType classifies an item of evidence; each type carries a
// fixed importance weight in agent working memory.
type EvidenceType string

const (
	EvidenceDocument    EvidenceType = "document"
	EvidencePhoto       EvidenceType = "photo"
	EvidenceWeapon      EvidenceType = "weapon"
	EvidenceForensic    EvidenceType = "forensic"
	EvidenceDigital     EvidenceType = "digital"
	EvidenceTestimonial EvidenceType = "testimonial"
	EvidencePhysical    EvidenceType = "physical"
)

// Evidence is a static exhibit attached to the case at creation.
type Evidence struct {
	ID          string       `json:"id"`
	Type        EvidenceType `json:"type"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
}

// Witness is a case-file witness; a Participant is materialized for
// each one when the roster is built.
type Witness struct {
	Name       string `json:"name"`
	Background string `json:"background,omitempty"`
	Testimony  string `json:"testimony,omitempty"`
	ForDefense bool   `json:"for_defense,omitempty"`
}

// Case is one simulated proceeding. The simulation controller holds the
// sole mutation rights to Phase, Transcript, and Rulings.
type Case struct {
	ID           string            `json:"id"`
	Number       string            `json:"number"`
	Title        string            `json:"title"`
	Summary      string            `json:"summary"`
	Type         CaseType          `json:"type"`
	Phase        Phase             `json:"phase"`
	Transcript   []TranscriptEntry `json:"transcript"`
	Rulings      []Ruling          `json:"rulings"`
	Participants []*Participant    `json:"participants"`
	Evidence     []Evidence        `json:"evidence"`
	Witnesses    []Witness         `json:"witnesses"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ParticipantByID returns the participant with the given id, or nil.
func (c *Case) ParticipantByID(id string) *Participant {
	for _, p := range c.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ParticipantsByRole returns all participants holding the given role,
// in roster order.
func (c *Case) ParticipantsByRole(role Role) []*Participant {
	var out []*Participant
	for _, p := range c.Participants {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// LastStatement returns the most recent statement entry, or nil. Used
// by objection handling, which always targets the last thing said.
func (c *Case) LastStatement() *TranscriptEntry {
	for i := len(c.Transcript) - 1; i >= 0; i-- {
		if c.Transcript[i].Type == EntryStatement {
			return &c.Transcript[i]
		}
	}
	return nil
}
