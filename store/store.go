// Package store defines the local persistence contract consumed by the sync
// engine and the presentation layer. Implementations provide predicate-based
// finders and a transactional unit of work whose commit is the single point a
// batch of mutations becomes durable.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/i4ali/macrosnap/domain"
)

// ErrStoreClosed is returned by any operation after Close.
var ErrStoreClosed = errors.New("store is closed")

// Tx is one unit of work. Mutations take effect on commit; a commit failure
// discards all of them.
type Tx interface {
	InsertEntry(e domain.Entry) error
	UpdateEntry(e domain.Entry) error
	DeleteEntry(id uuid.UUID) error

	InsertGoal(g domain.Goal) error
	UpdateGoal(g domain.Goal) error
	DeleteGoal(id uuid.UUID) error

	InsertPreset(p domain.Preset) error
	UpdatePreset(p domain.Preset) error
	DeletePreset(id uuid.UUID) error
}

// Store is the local transactional store over the three entity kinds.
type Store interface {
	// Entries returns all entries, newest occurrence date first.
	Entries(ctx context.Context) ([]domain.Entry, error)

	// EntriesBetween returns entries whose occurrence date falls in [from, to).
	EntriesBetween(ctx context.Context, from, to time.Time) ([]domain.Entry, error)

	// UnsyncedEntries returns entries with no remote identity, i.e. the push set.
	UnsyncedEntries(ctx context.Context) ([]domain.Entry, error)

	// EntryByRemoteID finds the entry carrying the given remote identity.
	EntryByRemoteID(ctx context.Context, remoteID string) (domain.Entry, bool, error)

	// Goals returns all goals.
	Goals(ctx context.Context) ([]domain.Goal, error)

	// UnsyncedGoals returns goals with no remote identity, i.e. the push set.
	UnsyncedGoals(ctx context.Context) ([]domain.Goal, error)

	// GoalByDay finds the goal for one day-of-week value.
	GoalByDay(ctx context.Context, dayOfWeek int) (domain.Goal, bool, error)

	// Presets returns all presets, most recently updated first.
	Presets(ctx context.Context) ([]domain.Preset, error)

	// PresetByRemoteID finds the preset carrying the given remote identity.
	PresetByRemoteID(ctx context.Context, remoteID string) (domain.Preset, bool, error)

	// Update runs fn inside one unit of work and commits it. If fn returns an
	// error or the commit fails, no mutation is applied.
	Update(ctx context.Context, fn func(Tx) error) error

	// Close releases the underlying medium.
	Close() error
}
