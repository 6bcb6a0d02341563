// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package storage is the persistence boundary for the courtroom service.
//
// Case records and judicial memory snapshots are read and written as
// opaque blobs through the Store interface; the orchestration core is
// agnostic to the backing engine. The shipped implementation is
// BadgerDB, used for local embedded storage with low-latency access.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for missing keys.
var ErrNotFound = errors.New("key not found")

// Store is the key-value contract the core depends on.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the blob stored under id, or ErrNotFound.
	Get(ctx context.Context, id string) ([]byte, error)

	// Put stores blob under id, replacing any existing value.
	Put(ctx context.Context, id string, blob []byte) error

	// Delete removes id. Deleting a missing key is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases the backing resources.
	Close() error
}
