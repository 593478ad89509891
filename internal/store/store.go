// Package store persists validated memory entries in SQLite.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/rcliao/memory-fabric/internal/model"
)

var (
	// ErrNotFound is returned when no live entry has the requested id.
	ErrNotFound = errors.New("entry not found")
	// ErrTypeChanged is returned when a put would change an existing entry's type.
	ErrTypeChanged = errors.New("entry type is immutable")
)

// Record is a stored entry with its bookkeeping.
type Record struct {
	Entry     model.MemoryEntry `json:"entry"`
	Revision  int               `json:"revision"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt *time.Time        `json:"deleted_at,omitempty"`
}

// GetParams holds parameters for retrieving an entry.
type GetParams struct {
	ID      string
	History bool // all revisions, newest first
}

// ListParams holds parameters for listing entries.
type ListParams struct {
	Project string
	Branch  string
	Type    model.EntryType
	Status  model.Status
	Tags    []string
	Limit   int
}

// RmParams holds parameters for deleting an entry.
type RmParams struct {
	ID   string
	Hard bool
}

// Store defines the entry storage interface.
type Store interface {
	// Put validates and stores an entry. An existing id is fully replaced.
	Put(ctx context.Context, e *model.MemoryEntry) (*Record, error)

	// Get retrieves an entry by id.
	// Returns a slice (single element normally, every revision with History=true).
	Get(ctx context.Context, p GetParams) ([]Record, error)

	// List lists live entries matching the given filters, newest first.
	List(ctx context.Context, p ListParams) ([]Record, error)

	// Rm soft-deletes (or hard-deletes) an entry.
	Rm(ctx context.Context, p RmParams) error

	// Close closes the store.
	Close() error
}
