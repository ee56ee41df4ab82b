package cloudsync

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i4ali/macrosnap/domain"
	"github.com/i4ali/macrosnap/store"
	"github.com/i4ali/macrosnap/store/sqlite"
)

func newTestController(t *testing.T, opts ...Option) (*Controller, *sqlite.Store, *fakeRemote) {
	t.Helper()
	s, err := sqlite.NewWithDataSource(filepath.Join(t.TempDir(), "macrosnap.db"))
	require.NoError(t, err)

	fr := newFakeRemote()
	c, err := NewController(s, fr, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, s, fr
}

func TestPushOnlyThenFullSyncScenario(t *testing.T) {
	c, s, fr := newTestController(t)
	ctx := context.Background()

	entry, err := domain.NewEntry(time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), 40, 30, 10, "")
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return tx.InsertEntry(entry)
	}))

	res, err := c.TriggerPushOnly(ctx)
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	assert.Equal(t, 1, res.Pushed)

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Synced())

	remoteID := entries[0].RemoteID
	_, ok := fr.get(remoteID)
	assert.True(t, ok)

	// The full sync's pull observes the record this device just pushed.
	res, err = c.TriggerFullSync(ctx)
	require.NoError(t, err)
	require.Empty(t, res.Errors)

	entries, err = s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, remoteID, entries[0].RemoteID)
	assert.Equal(t, 40.0, entries[0].Protein)
}

func TestConcurrentTriggerIsRejected(t *testing.T) {
	c, _, fr := newTestController(t)
	ctx := context.Background()

	gate := make(chan struct{})
	fr.queryGate = gate

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.TriggerFullSync(ctx)
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool {
		return c.Status().Syncing
	}, 2*time.Second, 5*time.Millisecond)

	_, err := c.TriggerFullSync(ctx)
	assert.ErrorIs(t, err, ErrSyncInProgress)
	_, err = c.TriggerPushOnly(ctx)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(gate)
	<-done
	assert.False(t, c.Status().Syncing)
}

func TestStatusAfterFullSync(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	before := c.Status()
	assert.True(t, before.LastSyncTime.IsZero())

	_, err := c.TriggerFullSync(ctx)
	require.NoError(t, err)

	after := c.Status()
	assert.False(t, after.Syncing)
	assert.True(t, after.AccountAvailable)
	assert.False(t, after.LastSyncTime.IsZero())
	assert.NoError(t, after.LastError)
}

func TestPushOnlyDoesNotRecordSyncTime(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	_, err := c.TriggerPushOnly(ctx)
	require.NoError(t, err)
	assert.True(t, c.Status().LastSyncTime.IsZero())
}

func TestSubscribersObserveStatusChanges(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []Status
	require.NoError(t, c.Subscribe(func(s Status) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s)
	}))

	_, err := c.TriggerFullSync(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 2
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	sawSyncing, sawIdle := false, false
	for _, s := range seen {
		if s.Syncing {
			sawSyncing = true
		} else {
			sawIdle = true
		}
	}
	assert.True(t, sawSyncing)
	assert.True(t, sawIdle)
}

func TestPanickingSubscriberDoesNotBreakSync(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	require.NoError(t, c.Subscribe(func(Status) {
		panic("subscriber bug")
	}))

	_, err := c.TriggerFullSync(ctx)
	require.NoError(t, err)
	_, err = c.TriggerFullSync(ctx)
	assert.NoError(t, err)
}

func TestDeleteRemote(t *testing.T) {
	c, s, fr := newTestController(t)
	ctx := context.Background()

	preset, err := domain.NewPreset("Snack", 10, 15, 5)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return tx.InsertPreset(preset)
	}))

	_, err = c.TriggerPushOnly(ctx)
	require.NoError(t, err)

	presets, err := s.Presets(ctx)
	require.NoError(t, err)
	require.Len(t, presets, 1)
	remoteID := presets[0].RemoteID
	require.NotEmpty(t, remoteID)

	c.DeleteRemote(ctx, domain.KindPreset, remoteID)
	_, ok := fr.get(remoteID)
	assert.False(t, ok)

	// Deleting an unknown id only logs.
	c.DeleteRemote(ctx, domain.KindPreset, "missing")
	c.DeleteRemote(ctx, domain.KindPreset, "")
}

func TestAutoSync(t *testing.T) {
	c, _, _ := newTestController(t, WithSyncInterval(50*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, c.StartAutoSync(ctx))
	assert.Error(t, c.StartAutoSync(ctx))

	require.Eventually(t, func() bool {
		return !c.Status().LastSyncTime.IsZero()
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, c.StopAutoSync())
	assert.Error(t, c.StopAutoSync())
}

func TestTriggerAfterCloseFails(t *testing.T) {
	c, _, _ := newTestController(t)
	require.NoError(t, c.Close())

	_, err := c.TriggerFullSync(context.Background())
	assert.Error(t, err)
	assert.Error(t, c.Subscribe(func(Status) {}))
}
