// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package simulation

import (
	"time"

	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
	"github.com/AleutianAI/CourtSim/services/courtroom/observability"
)

// eventBufferSize bounds the live feed. The transcript is the durable
// record; the feed may drop under pressure.
const eventBufferSize = 256

// publish emits an event to the live feed without ever blocking the
// simulation. When the buffer is full the oldest event is dropped to
// make room.
func (c *Controller) publish(evType datatypes.EventType, phase datatypes.Phase, entry *datatypes.TranscriptEntry, detail map[string]any) {
	ev := datatypes.SimulationEvent{
		Type:      evType,
		CaseID:    c.caseID,
		Phase:     phase,
		Entry:     entry,
		Detail:    detail,
		Timestamp: time.Now(),
	}
	select {
	case c.events <- ev:
		return
	default:
	}
	// Buffer full: shed the oldest, then try once more. A concurrent
	// reader can race both selects; losing that race just drops ev,
	// which the feed's contract allows.
	select {
	case <-c.events:
		observability.EventsDropped.Inc()
	default:
	}
	select {
	case c.events <- ev:
	default:
		observability.EventsDropped.Inc()
	}
}

// Events returns the live feed channel. The channel is never closed;
// consumers should select against their own done signal.
func (c *Controller) Events() <-chan datatypes.SimulationEvent {
	return c.events
}
