// Package storage persists small pieces of client-side state, such as the
// session token and the signed-in user, across runs of the client.
// Backends: sqlite (default), a JSON file, and memory.
package storage

import (
	"errors"
	"fmt"

	"github.com/granme/caprisystem/pkg/types"
)

// Store is a string key/value store. Implementations are safe for
// concurrent use.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Delete removes the given keys. Absent keys are ignored.
	Delete(keys ...string) error

	// Detach releases backend resources. Idempotent. After Detach, other
	// operations return ErrDetached.
	Detach() error
}

// Store lifecycle errors.
var (
	ErrDetached        = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrEmptyKey        = errors.New("key must not be empty")
)

// Open validates the config, creates the selected backend and attaches it.
func Open(cfg types.Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case types.BackendSQLite:
		s := NewSQLiteStore()
		if err := s.Attach(cfg); err != nil {
			return nil, fmt.Errorf("attach sqlite store: %w", err)
		}
		return s, nil
	case types.BackendFile:
		s := NewFileStore()
		if err := s.Attach(cfg); err != nil {
			return nil, fmt.Errorf("attach file store: %w", err)
		}
		return s, nil
	case types.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, types.ErrBackendUnknown
	}
}
