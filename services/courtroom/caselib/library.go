// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package caselib loads case files from a directory of JSON documents
// and materializes them into runnable cases with full rosters. The
// library watches its directory and hot-reloads edited files, so case
// authors iterate without restarting the service.
package caselib

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/AleutianAI/CourtSim/pkg/logging"
	"github.com/AleutianAI/CourtSim/services/courtroom/datatypes"
)

// CaseFile is the on-disk authoring format for one case.
type CaseFile struct {
	Number  string             `json:"number"`
	Title   string             `json:"title"`
	Type    datatypes.CaseType `json:"type"`
	Summary string             `json:"summary"`

	// Optional named principals; stock court officers fill any gaps.
	Judge            string `json:"judge,omitempty"`
	Prosecutor       string `json:"prosecutor,omitempty"`
	PlaintiffCounsel string `json:"plaintiff_counsel,omitempty"`
	DefenseCounsel   string `json:"defense_counsel,omitempty"`
	Defendant        string `json:"defendant,omitempty"`
	Plaintiff        string `json:"plaintiff,omitempty"`

	Evidence  []datatypes.Evidence `json:"evidence,omitempty"`
	Witnesses []datatypes.Witness  `json:"witnesses,omitempty"`
}

// validate rejects files that cannot materialize into a runnable case.
func (cf *CaseFile) validate() error {
	if cf.Title == "" {
		return fmt.Errorf("case file missing title")
	}
	if cf.Type != datatypes.CaseCriminal && cf.Type != datatypes.CaseCivil {
		return fmt.Errorf("case file %q: unknown type %q", cf.Title, cf.Type)
	}
	return nil
}

// Summary is one row of the case listing.
type Summary struct {
	Slug    string             `json:"slug"`
	Number  string             `json:"number"`
	Title   string             `json:"title"`
	Type    datatypes.CaseType `json:"type"`
	Summary string             `json:"summary"`
}

// Library holds the loaded case files, keyed by slug (the file name
// without extension).
//
// # Thread Safety
//
// Safe for concurrent use. The watcher goroutine swaps entries under
// the same lock readers take.
type Library struct {
	mu     sync.RWMutex
	dir    string
	cases  map[string]*CaseFile
	logger *logging.Logger

	watcher *fsnotify.Watcher
	done    chan struct{}
	closed  sync.Once
}

// Open loads every *.json case file under dir and starts watching the
// directory for changes. Individual malformed files are logged and
// skipped, not fatal.
func Open(dir string, logger *logging.Logger) (*Library, error) {
	if logger == nil {
		logger = logging.Default()
	}
	l := &Library{
		dir:    dir,
		cases:  make(map[string]*CaseFile),
		logger: logger.With("component", "caselib"),
		done:   make(chan struct{}),
	}
	if err := l.loadAll(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create case watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch case directory %s: %w", dir, err)
	}
	l.watcher = watcher
	go l.watch()
	return l, nil
}

// Close stops the directory watcher.
func (l *Library) Close() error {
	var err error
	l.closed.Do(func() {
		close(l.done)
		if l.watcher != nil {
			err = l.watcher.Close()
		}
	})
	return err
}

func slugOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (l *Library) loadAll() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("read case directory %s: %w", l.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		l.loadFile(filepath.Join(l.dir, e.Name()))
	}
	l.logger.Info("case library loaded", "dir", l.dir, "cases", len(l.cases))
	return nil
}

// loadFile parses one case file and swaps it into the library. Parse
// or validation failures leave any previous version in place.
func (l *Library) loadFile(path string) {
	blob, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("case file unreadable", "path", path, "error", err)
		return
	}
	var cf CaseFile
	if err := json.Unmarshal(blob, &cf); err != nil {
		l.logger.Warn("case file malformed", "path", path, "error", err)
		return
	}
	if err := cf.validate(); err != nil {
		l.logger.Warn("case file invalid", "path", path, "error", err)
		return
	}

	slug := slugOf(path)
	l.mu.Lock()
	l.cases[slug] = &cf
	l.mu.Unlock()
	l.logger.Debug("case file loaded", "slug", slug, "title", cf.Title)
}

func (l *Library) removeFile(path string) {
	slug := slugOf(path)
	l.mu.Lock()
	_, existed := l.cases[slug]
	delete(l.cases, slug)
	l.mu.Unlock()
	if existed {
		l.logger.Info("case file removed", "slug", slug)
	}
}

// watch applies filesystem events to the loaded set until Close.
func (l *Library) watch() {
	for {
		select {
		case <-l.done:
			return
		case ev, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, ".json") {
				continue
			}
			switch {
			case ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create):
				l.loadFile(ev.Name)
			case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
				l.removeFile(ev.Name)
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("case watcher error", "error", err)
		}
	}
}

// List returns the loaded case summaries, sorted by slug.
func (l *Library) List() []Summary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Summary, 0, len(l.cases))
	for slug, cf := range l.cases {
		out = append(out, Summary{
			Slug: slug, Number: cf.Number, Title: cf.Title,
			Type: cf.Type, Summary: cf.Summary,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Get returns the case file for slug.
func (l *Library) Get(slug string) (*CaseFile, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cf, ok := l.cases[slug]
	return cf, ok
}

// Materialize builds a fresh runnable case from the named file: new
// case ID, full roster, evidence and witnesses copied in. jurors sets
// the panel size; zero runs a bench trial.
func (l *Library) Materialize(slug string, jurors int) (*datatypes.Case, error) {
	cf, ok := l.Get(slug)
	if !ok {
		return nil, fmt.Errorf("case %q not in library", slug)
	}

	kase := &datatypes.Case{
		ID:           uuid.NewString(),
		Number:       cf.Number,
		Title:        cf.Title,
		Summary:      cf.Summary,
		Type:         cf.Type,
		Phase:        datatypes.PhasePreTrial,
		Participants: buildRoster(cf, jurors),
		Evidence:     append([]datatypes.Evidence(nil), cf.Evidence...),
		Witnesses:    append([]datatypes.Witness(nil), cf.Witnesses...),
		CreatedAt:    time.Now(),
	}
	return kase, nil
}
