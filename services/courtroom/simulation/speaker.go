// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package simulation

import "github.com/AleutianAI/CourtSim/services/courtroom/datatypes"

// speakerRotation assigns turns round-robin within a role so that, for
// roles with several holders (witnesses, jurors), successive turns go
// to successive participants in roster order.
type speakerRotation struct {
	next map[datatypes.Role]int
}

func newSpeakerRotation() *speakerRotation {
	return &speakerRotation{next: make(map[datatypes.Role]int)}
}

// pick returns the next participant holding role, or nil when the
// roster has none. Only called with the controller lock held.
func (r *speakerRotation) pick(c *datatypes.Case, role datatypes.Role) *datatypes.Participant {
	holders := c.ParticipantsByRole(role)
	if len(holders) == 0 {
		return nil
	}
	i := r.next[role] % len(holders)
	r.next[role] = i + 1
	return holders[i]
}
