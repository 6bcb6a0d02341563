// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// EventType names the simulation events relayed to observers.
type EventType string

const (
	EventSimulationStarted   EventType = "simulation:started"
	EventSimulationPaused    EventType = "simulation:paused"
	EventSimulationResumed   EventType = "simulation:resumed"
	EventSimulationCompleted EventType = "simulation:completed"
	EventPhaseChanged        EventType = "phase:changed"
	EventActionGenerated     EventType = "action:generated"
	EventObjectionRuled      EventType = "objection:ruled"
	EventSidebarStarted      EventType = "sidebar:started"
	EventSidebarEnded        EventType = "sidebar:ended"
	EventInputRequested      EventType = "input:requested"
	EventTurnFailed          EventType = "turn:failed"
)

// SimulationEvent is the outbound message the state machine emits for
// the presentation/transport layer. The transcript is the durable
// record; events are a lossy live feed.
type SimulationEvent struct {
	Type      EventType        `json:"type"`
	CaseID    string           `json:"case_id"`
	Phase     Phase            `json:"phase,omitempty"`
	Entry     *TranscriptEntry `json:"entry,omitempty"`
	Detail    map[string]any   `json:"detail,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Command actions accepted over the websocket and command endpoints.
const (
	ActionStart     = "start"
	ActionPause     = "pause"
	ActionResume    = "resume"
	ActionStop      = "stop"
	ActionNextPhase = "next_phase"
	ActionSidebar   = "sidebar"
	ActionObjection = "objection"
	ActionUserInput = "user_input"
	ActionSetRole   = "set_role"
)

// SimCommand is an inbound control message. Which fields matter depends
// on Action: Objection needs Kind and ParticipantID, UserInput needs
// ParticipantID and Message, SetRole needs Role and Enabled.
type SimCommand struct {
	Action        string `json:"action"`
	Kind          string `json:"kind,omitempty"`
	ParticipantID string `json:"participant_id,omitempty"`
	Role          string `json:"role,omitempty"`
	Message       string `json:"message,omitempty"`
	Enabled       bool   `json:"enabled,omitempty"`
}
