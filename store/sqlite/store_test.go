package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i4ali/macrosnap/domain"
	"github.com/i4ali/macrosnap/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewWithDataSource(filepath.Join(t.TempDir(), "macrosnap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEntryRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e, err := domain.NewEntry(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 40, 30, 10, "lunch")
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return tx.InsertEntry(e)
	}))

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, e.ID, entries[0].ID)
	assert.Equal(t, 40.0, entries[0].Protein)
	assert.Equal(t, "lunch", entries[0].Notes)
	assert.True(t, entries[0].Date.Equal(e.Date))
}

func TestUnsyncedEntriesFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	synced, err := domain.NewEntry(time.Now(), 10, 10, 10, "")
	require.NoError(t, err)
	synced.RemoteID = "R1"
	unsynced, err := domain.NewEntry(time.Now(), 20, 20, 20, "")
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		if err := tx.InsertEntry(synced); err != nil {
			return err
		}
		return tx.InsertEntry(unsynced)
	}))

	got, err := s.UnsyncedEntries(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, unsynced.ID, got[0].ID)

	found, ok, err := s.EntryByRemoteID(ctx, "R1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, synced.ID, found.ID)

	_, ok, err = s.EntryByRemoteID(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEntriesBetween(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC) }
	for _, d := range []int{1, 5, 10} {
		e, err := domain.NewEntry(day(d), 10, 10, 10, "")
		require.NoError(t, err)
		require.NoError(t, s.Update(ctx, func(tx store.Tx) error { return tx.InsertEntry(e) }))
	}

	got, err := s.EntriesBetween(ctx, day(2), day(10))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 5, got[0].Date.Day())
}

func TestGoalByDay(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	def, err := domain.NewGoal(150, 200, 60, domain.DefaultDay)
	require.NoError(t, err)
	monday, err := domain.NewGoal(180, 150, 50, 1)
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		if err := tx.InsertGoal(def); err != nil {
			return err
		}
		return tx.InsertGoal(monday)
	}))

	g, ok, err := s.GoalByDay(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, monday.ID, g.ID)

	_, ok, err = s.GoalByDay(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	goals, err := s.Goals(ctx)
	require.NoError(t, err)
	assert.Len(t, goals, 2)
}

func TestPresetsSortedByUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older, err := domain.NewPreset("Older", 10, 10, 10)
	require.NoError(t, err)
	older.UpdatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer, err := domain.NewPreset("Newer", 20, 20, 20)
	require.NoError(t, err)
	newer.UpdatedAt = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		if err := tx.InsertPreset(older); err != nil {
			return err
		}
		return tx.InsertPreset(newer)
	}))

	got, err := s.Presets(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Newer", got[0].Name)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	e, err := domain.NewEntry(time.Now(), 10, 10, 10, "")
	require.NoError(t, err)

	err = s.Update(ctx, func(tx store.Tx) error {
		if err := tx.InsertEntry(e); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed unit of work must not leave partial writes")
}

func TestDeleteInTx(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := domain.NewPreset("Shake", 30, 5, 2)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error { return tx.InsertPreset(p) }))
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error { return tx.DeletePreset(p.ID) }))

	got, err := s.Presets(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClosedStoreRejectsOperations(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.Entries(context.Background())
	assert.ErrorIs(t, err, store.ErrStoreClosed)

	err = s.Update(context.Background(), func(tx store.Tx) error { return nil })
	assert.ErrorIs(t, err, store.ErrStoreClosed)
}
