// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package judicial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
	"github.com/AleutianAI/CourtSim/services/courtroom/storage"
)

// snapshot is the wire form of a judge's full memory.
type snapshot struct {
	Version      int                           `json:"version"`
	JudgeID      string                        `json:"judge_id"`
	Enabled      bool                          `json:"enabled"`
	Cases        map[string]*CaseRecord        `json:"cases"`
	Participants map[string]*ParticipantRecord `json:"participants"`
	Experience   Experience                    `json:"experience"`
}

const snapshotVersion = 1

// storageKey is where the judge's snapshot lives in the blob store.
func (s *Store) storageKey() string {
	return "judicial/" + s.judgeID
}

// Export serializes the full memory as JSON.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		Version:      snapshotVersion,
		JudgeID:      s.judgeID,
		Enabled:      s.enabled,
		Cases:        s.cases,
		Participants: s.participants,
		Experience:   s.experience,
	}
	blob, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("export judicial memory: %w", err)
	}
	return blob, nil
}

// Import replaces the store's entire contents with the snapshot.
// Full-replace semantics: nothing is merged, and a malformed snapshot
// leaves the store untouched. The judge ID in the snapshot must match.
func (s *Store) Import(blob []byte) error {
	var snap snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return fmt.Errorf("import judicial memory: %w", err)
	}
	if snap.JudgeID != s.judgeID {
		return fmt.Errorf("import judicial memory: snapshot is for judge %q, store is for %q", snap.JudgeID, s.judgeID)
	}
	if snap.Cases == nil {
		snap.Cases = make(map[string]*CaseRecord)
	}
	if snap.Participants == nil {
		snap.Participants = make(map[string]*ParticipantRecord)
	}
	if snap.Experience.ByType == nil {
		snap.Experience.ByType = make(map[datatypes.CaseType]int)
	}

	s.mu.Lock()
	s.enabled = snap.Enabled
	s.cases = snap.Cases
	s.participants = snap.Participants
	s.experience = snap.Experience
	s.mu.Unlock()

	s.logger.Info("judicial memory imported",
		"cases", len(snap.Cases), "participants", len(snap.Participants))
	return nil
}

// SaveTo persists the memory snapshot to the blob store.
func (s *Store) SaveTo(ctx context.Context, store storage.Store) error {
	blob, err := s.Export()
	if err != nil {
		return err
	}
	if err := store.Put(ctx, s.storageKey(), blob); err != nil {
		return fmt.Errorf("save judicial memory: %w", err)
	}
	return nil
}

// LoadFrom restores the memory snapshot from the blob store. A missing
// snapshot is not an error: a new judge simply starts empty.
func (s *Store) LoadFrom(ctx context.Context, store storage.Store) error {
	blob, err := store.Get(ctx, s.storageKey())
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load judicial memory: %w", err)
	}
	return s.Import(blob)
}
