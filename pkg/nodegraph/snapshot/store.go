// Package snapshot persists graph snapshots.
//
// A snapshot is a JSON Document (see Marshal and Unmarshal) saved under a
// name in a Store. The package knows nothing about graph semantics; turning
// a Document back into a consistent graph is the caller's job.
package snapshot

import (
	"errors"
	"fmt"
	"time"
)

// Store saves and loads snapshot bytes by name.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores data under name, overwriting any previous snapshot.
	Save(name string, data []byte) error

	// Load retrieves a snapshot.
	// Returns ErrNotFound if no snapshot exists under name.
	Load(name string) ([]byte, error)

	// List returns metadata for all snapshots, ordered by name.
	// Returns an empty slice (not an error) if there are none.
	List() ([]Info, error)

	// Delete removes a snapshot.
	// Returns nil if it doesn't exist.
	Delete(name string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info describes a stored snapshot without loading it.
type Info struct {
	Name      string
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a snapshot doesn't exist.
	ErrNotFound = errors.New("snapshot not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("snapshot store closed")

	// ErrUnknownBackend indicates Open was given an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open creates a store for the named backend. path is the directory for
// the file backend and the database file for sqlite; memory ignores it.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile, "":
		return NewFileStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}
