// Package store defines the key-value contract persisted values are written
// through, plus the engines shipped with the module.
//
// A Store keeps opaque blobs keyed by string. Get distinguishes a missing key
// (ok == false) from a present record, including a present record whose blob
// is empty. Engines:
//
//   - Memory: mutex-guarded map, for tests and ephemeral processes.
//   - File: a single JSON preferences document replaced atomically on every
//     write. Default() opens one under the user config directory.
//   - Badger: embedded LSM key-value store.
//   - SQLite: one table in a WAL-mode database.
//   - Redis: a shared Redis database.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")
	// ErrKeyRequired is returned when an empty key is used.
	ErrKeyRequired = errors.New("store: key is required")
	// ErrUnknownDriver is returned by Open for unsupported drivers.
	ErrUnknownDriver = errors.New("store: unknown driver")
)

// Store loads and saves raw records for single keys.
type Store interface {
	// Get returns the record stored under key. ok is false when no record
	// exists; err is reserved for engine failures.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value under key, replacing any previous record. A nil value
	// removes the record.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the record stored under key. Deleting a missing key is
	// not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

func checkKey(key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return nil
}

func cloneBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func wrap(engine, op, key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("store: %s %s %q: %w", engine, op, key, err)
}
