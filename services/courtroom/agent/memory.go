// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import (
	"math/rand"
	"sync"
	"time"
)

// MemoryItem is one remembered utterance, event, or fact.
type MemoryItem struct {
	Content    string    `json:"content"`
	Kind       string    `json:"kind"` // "utterance", "event", "evidence", "fact"
	Importance float64   `json:"importance"`
	Timestamp  time.Time `json:"timestamp"`
}

// Memory is the per-unit recall model: a bounded short-term buffer with
// FIFO eviction, an unbounded long-term list, a keyed working map for
// transient annotations, and a belief map of named scalar convictions.
//
// Eviction promotes items into long-term memory with a fixed
// probability; the exact chance is a tunable, not a derived quantity.
// Never shared across units, but the simulation loop and transport
// handlers may read concurrently with agent writes, so access is
// mutex-guarded.
type Memory struct {
	mu        sync.Mutex
	shortTerm []MemoryItem
	longTerm  []MemoryItem
	working   map[string]float64
	beliefs   map[string]float64

	cap             int
	promotionChance float64
	rng             *rand.Rand
}

// NewMemory creates a Memory with the given short-term capacity and
// promotion chance. The rng drives promotion decisions and must not be
// shared with other consumers.
func NewMemory(cap int, promotionChance float64, rng *rand.Rand) *Memory {
	if cap <= 0 {
		cap = 20
	}
	return &Memory{
		working:         make(map[string]float64),
		beliefs:         make(map[string]float64),
		cap:             cap,
		promotionChance: promotionChance,
		rng:             rng,
	}
}

// Observe appends an item to short-term memory, evicting the oldest
// item when the buffer is full. Evicted items are promoted to long-term
// memory with the configured probability; high-importance items (>= 0.8)
// are always promoted.
func (m *Memory) Observe(item MemoryItem) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shortTerm = append(m.shortTerm, item)
	for len(m.shortTerm) > m.cap {
		evicted := m.shortTerm[0]
		m.shortTerm = m.shortTerm[1:]
		if evicted.Importance >= 0.8 || m.rng.Float64() < m.promotionChance {
			m.longTerm = append(m.longTerm, evicted)
		}
	}
}

// Remember adds a fact directly to long-term memory, bypassing the
// short-term buffer. Used for biographical facts and established
// beliefs seeded at construction.
func (m *Memory) Remember(item MemoryItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.longTerm = append(m.longTerm, item)
}

// Recent returns up to n most-recent short-term items, oldest first.
func (m *Memory) Recent(n int) []MemoryItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 || n > len(m.shortTerm) {
		n = len(m.shortTerm)
	}
	out := make([]MemoryItem, n)
	copy(out, m.shortTerm[len(m.shortTerm)-n:])
	return out
}

// ShortTermLen returns the current short-term buffer size.
func (m *Memory) ShortTermLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.shortTerm)
}

// LongTerm returns a copy of long-term memory.
func (m *Memory) LongTerm() []MemoryItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MemoryItem, len(m.longTerm))
	copy(out, m.longTerm)
	return out
}

// SetWorking stores a transient per-topic annotation, such as an
// evidence-importance score.
func (m *Memory) SetWorking(key string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.working[key] = value
}

// Working returns the annotation for key, if present.
func (m *Memory) Working(key string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.working[key]
	return v, ok
}

// SetBelief sets a named scalar conviction, clamped to [0,1].
func (m *Memory) SetBelief(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.beliefs[name] = clamp01(value)
}

// Belief returns the conviction for name, or 0.5 if it was never set.
func (m *Memory) Belief(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.beliefs[name]; ok {
		return v
	}
	return 0.5
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
