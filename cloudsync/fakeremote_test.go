package cloudsync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	syncErrors "github.com/i4ali/macrosnap/errors"
	"github.com/i4ali/macrosnap/record"
	"github.com/i4ali/macrosnap/remote"
)

// fakeRemote is an in-memory record service for engine and controller tests.
// Save results are positional; queries return records sorted by ID.
type fakeRemote struct {
	mu     sync.Mutex
	status remote.AccountStatus

	records map[string]record.Record
	nextID  int
	deleted []string

	// saveBudget limits successful SaveBatch calls; negative means unlimited.
	saveBudget int
	queryErr   map[string]error

	// queryGate, when set, blocks Query until released.
	queryGate chan struct{}
}

var _ remote.Store = (*fakeRemote)(nil)

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		status:     remote.StatusAvailable,
		records:    make(map[string]record.Record),
		saveBudget: -1,
		queryErr:   make(map[string]error),
	}
}

func (f *fakeRemote) put(r record.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[r.ID] = r
}

func (f *fakeRemote) get(id string) (record.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[id]
	return r, ok
}

func (f *fakeRemote) recordCount(recordType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.records {
		if r.Type == recordType {
			n++
		}
	}
	return n
}

func (f *fakeRemote) AccountStatus(ctx context.Context) (remote.AccountStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeRemote) EnsureZone(ctx context.Context) error { return nil }

func (f *fakeRemote) SaveBatch(ctx context.Context, records []record.Record) ([]remote.SaveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveBudget == 0 {
		return nil, syncErrors.NewRetryable(syncErrors.OpPush, fmt.Errorf("simulated network failure"))
	}
	if f.saveBudget > 0 {
		f.saveBudget--
	}

	results := make([]remote.SaveResult, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			f.nextID++
			r.ID = fmt.Sprintf("rec-%04d", f.nextID)
		}
		f.records[r.ID] = r
		results = append(results, remote.SaveResult{Record: r})
	}
	return results, nil
}

func (f *fakeRemote) Query(ctx context.Context, recordType string, since time.Time) ([]remote.QueryResult, error) {
	f.mu.Lock()
	gate := f.queryGate
	err := f.queryErr[recordType]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []record.Record
	for _, r := range f.records {
		if r.Type == recordType {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	results := make([]remote.QueryResult, 0, len(matched))
	for _, r := range matched {
		results = append(results, remote.QueryResult{Record: r})
	}
	return results, nil
}

func (f *fakeRemote) Delete(ctx context.Context, recordID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[recordID]; !ok {
		return &syncErrors.SyncError{
			Op:        syncErrors.OpDelete,
			Component: "remote",
			Kind:      syncErrors.KindNotFound,
			Err:       fmt.Errorf("record %s not found", recordID),
		}
	}
	delete(f.records, recordID)
	f.deleted = append(f.deleted, recordID)
	return nil
}

func (f *fakeRemote) Close() error { return nil }
