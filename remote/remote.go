// Package remote defines the contract for the zone-scoped remote record
// service the sync engine pushes to and pulls from. The service stores flat
// records keyed by (record type, record id) inside a named zone and offers
// batched saves, per-record query results, and single-record deletes.
package remote

import (
	"context"
	"time"

	"github.com/i4ali/macrosnap/record"
)

// MaxBatchSize is the largest number of records one SaveBatch call accepts.
// Callers chunk larger sets.
const MaxBatchSize = 100

// AccountStatus gates all sync activity.
type AccountStatus int

const (
	StatusUnknown AccountStatus = iota
	StatusAvailable
	StatusNoAccount
	StatusRestricted
)

func (s AccountStatus) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusNoAccount:
		return "no_account"
	case StatusRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// Available reports whether sync may proceed.
func (s AccountStatus) Available() bool { return s == StatusAvailable }

// SaveResult is the per-record outcome of a batched save. On success Record
// carries the service-assigned identity.
type SaveResult struct {
	Record record.Record
	Err    error
}

// QueryResult is one record of a query response. A record-level failure must
// not abort processing of the rest.
type QueryResult struct {
	Record record.Record
	Err    error
}

// Store is the remote record service consumed by the sync engine.
type Store interface {
	// AccountStatus reports whether the backing account can be used.
	AccountStatus(ctx context.Context) (AccountStatus, error)

	// EnsureZone creates the record zone if needed. Already-exists is success.
	EnsureZone(ctx context.Context) error

	// SaveBatch upserts up to MaxBatchSize records and returns per-record
	// results, positionally matching the input. Records confirmed in the
	// success set are the only ones the caller may treat as synced.
	SaveBatch(ctx context.Context, records []record.Record) ([]SaveResult, error)

	// Query returns every record of the given type modified since the given
	// time, as per-record results.
	Query(ctx context.Context, recordType string, since time.Time) ([]QueryResult, error)

	// Delete removes a single record by identity.
	Delete(ctx context.Context, recordID string) error

	// Close releases client resources.
	Close() error
}
