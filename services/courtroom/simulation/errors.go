// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package simulation

import "errors"

var (
	// ErrTurnInFlight rejects a turn request while another turn for the
	// same case is still resolving. Turns are rejected, never queued.
	ErrTurnInFlight = errors.New("turn already in flight")

	// ErrInvalidTransition rejects a phase change that is not the next
	// step in the forward sequence.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrCaseNotFound is returned by the manager for unknown case IDs.
	ErrCaseNotFound = errors.New("case not found")

	// ErrParticipantNotFound is returned for unknown participant IDs.
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrNotRunning rejects commands that require a running simulation.
	ErrNotRunning = errors.New("simulation is not running")

	// ErrStopped rejects commands against a stopped simulation; stop is
	// terminal.
	ErrStopped = errors.New("simulation is stopped")

	// ErrCompleted rejects commands against a completed simulation.
	ErrCompleted = errors.New("simulation is completed")

	// ErrNoSidebar rejects ending a sidebar that is not active.
	ErrNoSidebar = errors.New("no sidebar in progress")

	// ErrNothingToObjectTo rejects an objection when the transcript has
	// no statement to target.
	ErrNothingToObjectTo = errors.New("no statement to object to")

	// ErrNotHumanControlled rejects injected statements for participants
	// driven by agent units.
	ErrNotHumanControlled = errors.New("participant is not human controlled")
)
