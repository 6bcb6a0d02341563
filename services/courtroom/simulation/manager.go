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
	"sort"
	"sync"

	"github.com/AleutianAI/CourtSim/pkg/logging"
	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
	"github.com/AleutianAI/CourtSim/services/courtroom/judicial"
	"github.com/AleutianAI/CourtSim/services/courtroom/storage"
	"github.com/AleutianAI/CourtSim/services/llm"
)

// ManagerConfig tunes the registry and everything it creates.
type ManagerConfig struct {
	Controller Config

	// JudicialMemory enables experience accumulation for judges.
	JudicialMemory bool
}

// Manager is the registry of live simulations. Judicial memory stores
// are shared across simulations by judge name, so the same judge
// carries experience from one case into the next.
//
// # Thread Safety
//
// Safe for concurrent use.
type Manager struct {
	mu          sync.RWMutex
	controllers map[string]*Controller
	memories    map[string]*judicial.Store

	client llm.Client
	health *llm.HealthTracker
	logger *logging.Logger
	cfg    ManagerConfig

	// blob, when set, backs judicial memory across restarts.
	blob storage.Store
}

// SetPersistence attaches a blob store; judicial memories restore from
// it on first use and SaveMemories writes back to it.
func (m *Manager) SetPersistence(blob storage.Store) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blob = blob
}

// NewManager creates an empty registry.
func NewManager(client llm.Client, health *llm.HealthTracker, logger *logging.Logger, cfg ManagerConfig) *Manager {
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{
		controllers: make(map[string]*Controller),
		memories:    make(map[string]*judicial.Store),
		client:      client,
		health:      health,
		logger:      logger,
		cfg:         cfg,
	}
}

// memoryForLocked returns the shared judicial store for a judge name,
// creating it on first use. Caller holds mu.
func (m *Manager) memoryForLocked(judgeName string) *judicial.Store {
	if judgeName == "" {
		return nil
	}
	s, ok := m.memories[judgeName]
	if !ok {
		s = judicial.NewStore(judgeName, m.cfg.JudicialMemory, m.logger)
		if m.blob != nil {
			if err := s.LoadFrom(context.Background(), m.blob); err != nil {
				m.logger.Warn("judicial memory restore failed", "judge", judgeName, "error", err)
			}
			// Config wins over whatever the snapshot carried.
			s.SetEnabled(m.cfg.JudicialMemory)
		}
		m.memories[judgeName] = s
	}
	return s
}

// MemoryFor returns the judicial store for a judge name, creating an
// empty one on first use.
func (m *Manager) MemoryFor(judgeName string) *judicial.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.memoryForLocked(judgeName)
}

// Memories returns all judicial stores, sorted by judge name. Used by
// the persistence loop.
func (m *Manager) Memories() []*judicial.Store {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*judicial.Store, 0, len(m.memories))
	for _, s := range m.memories {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JudgeID() < out[j].JudgeID() })
	return out
}

// CreateSimulation registers a controller for the case. The case ID
// must be unique among live simulations.
func (m *Manager) CreateSimulation(kase *datatypes.Case) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.controllers[kase.ID]; exists {
		return nil, fmt.Errorf("simulation for case %s already exists", kase.ID)
	}

	var memory *judicial.Store
	if m.cfg.JudicialMemory {
		if judges := kase.ParticipantsByRole(datatypes.RoleJudge); len(judges) > 0 {
			memory = m.memoryForLocked(judges[0].Name)
		}
	}

	c := NewController(kase, m.client, m.health, memory, m.logger, m.cfg.Controller)
	m.controllers[kase.ID] = c
	m.logger.Info("simulation created", "case", kase.ID, "title", kase.Title)
	return c, nil
}

// Get returns the controller for a case.
func (m *Manager) Get(caseID string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.controllers[caseID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}
	return c, nil
}

// Remove stops and deregisters a simulation.
func (m *Manager) Remove(caseID string) error {
	m.mu.Lock()
	c, ok := m.controllers[caseID]
	if ok {
		delete(m.controllers, caseID)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}
	return c.Stop()
}

// Summary is one row of the simulation listing.
type Summary struct {
	CaseID string             `json:"case_id"`
	Title  string             `json:"title"`
	Type   datatypes.CaseType `json:"type"`
	State  RunState           `json:"state"`
	Phase  datatypes.Phase    `json:"phase"`
}

// List returns a summary of every registered simulation, sorted by
// case ID.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	controllers := make([]*Controller, 0, len(m.controllers))
	for _, c := range m.controllers {
		controllers = append(controllers, c)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(controllers))
	for _, c := range controllers {
		snap := c.Snapshot()
		out = append(out, Summary{
			CaseID: snap.ID,
			Title:  snap.Title,
			Type:   snap.Type,
			State:  c.State(),
			Phase:  snap.Phase,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CaseID < out[j].CaseID })
	return out
}

// SaveMemories persists every judicial store to the blob store.
func (m *Manager) SaveMemories(ctx context.Context, blob storage.Store) error {
	for _, s := range m.Memories() {
		if err := s.SaveTo(ctx, blob); err != nil {
			return err
		}
	}
	return nil
}

// Dispatch routes an inbound control command to the case's controller.
// The command vocabulary mirrors the websocket protocol.
func (m *Manager) Dispatch(ctx context.Context, caseID string, cmd datatypes.SimCommand) error {
	c, err := m.Get(caseID)
	if err != nil {
		return err
	}

	switch cmd.Action {
	case datatypes.ActionStart:
		return c.Start(ctx)
	case datatypes.ActionPause:
		return c.Pause()
	case datatypes.ActionResume:
		return c.Resume()
	case datatypes.ActionStop:
		return c.Stop()
	case datatypes.ActionNextPhase:
		return c.NextPhase(ctx)
	case datatypes.ActionSidebar:
		if cmd.Enabled {
			return c.RequestSidebar(cmd.ParticipantID)
		}
		return c.EndSidebar()
	case datatypes.ActionObjection:
		_, err := c.TriggerObjection(ctx, cmd.ParticipantID, cmd.Kind)
		return err
	case datatypes.ActionUserInput:
		_, err := c.InjectStatement(cmd.ParticipantID, cmd.Message)
		return err
	case datatypes.ActionSetRole:
		return c.SetHumanControl(datatypes.Role(cmd.Role), cmd.Enabled)
	default:
		return fmt.Errorf("unknown action %q", cmd.Action)
	}
}
