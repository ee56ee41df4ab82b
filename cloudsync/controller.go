package cloudsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/i4ali/macrosnap/domain"
	syncErrors "github.com/i4ali/macrosnap/errors"
	"github.com/i4ali/macrosnap/logging"
	"github.com/i4ali/macrosnap/remote"
	"github.com/i4ali/macrosnap/store"
)

// ErrSyncInProgress reports that a trigger arrived while a pass was already
// running. The trigger is a no-op; passes are never queued.
var ErrSyncInProgress = errors.New("sync already in progress")

// Status is the observable sync state surfaced to the presentation layer.
type Status struct {
	Syncing          bool
	AccountAvailable bool
	LastSyncTime     time.Time
	LastError        error
}

// Controller serializes sync passes over one engine and publishes status to
// subscribers. At most one pass is in flight at a time.
type Controller struct {
	engine *Engine
	opts   Options
	logger *logging.Logger

	mu           sync.RWMutex
	status       Status
	subscribers  []func(Status)
	autoSyncStop chan struct{}
	closed       bool
}

// NewController wires a controller, its engine, and their shared options.
func NewController(local store.Store, remoteStore remote.Store, opts ...Option) (*Controller, error) {
	if local == nil || remoteStore == nil {
		return nil, syncErrors.NewValidationError(syncErrors.OpSync,
			fmt.Errorf("both a local store and a remote store are required"))
	}

	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	options.setDefaults()

	return &Controller{
		engine: NewEngine(local, remoteStore, options),
		opts:   options,
		logger: options.Logger.WithComponent(logging.Component("controller")),
	}, nil
}

// Status returns a snapshot of the current sync state.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// Subscribe registers a callback invoked on every status change. Callbacks
// run on their own goroutines; a panicking subscriber does not take the
// controller down.
func (c *Controller) Subscribe(fn func(Status)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return syncErrors.New(syncErrors.OpSync, fmt.Errorf("controller is closed"))
	}
	c.subscribers = append(c.subscribers, fn)
	c.logger.Debug("Subscriber added", slog.Int("total_subscribers", len(c.subscribers)))
	return nil
}

// TriggerFullSync runs push then pull for all three kinds. LastSyncTime is
// recorded on completion even when individual kinds failed.
func (c *Controller) TriggerFullSync(ctx context.Context) (*Result, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}

	syncCtx, cancel := context.WithTimeout(ctx, c.opts.SyncTimeout)
	defer cancel()

	res := c.engine.FullSync(syncCtx)
	c.end(res, true)
	return res, nil
}

// TriggerPushOnly uploads local changes without pulling.
func (c *Controller) TriggerPushOnly(ctx context.Context) (*Result, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}

	syncCtx, cancel := context.WithTimeout(ctx, c.opts.SyncTimeout)
	defer cancel()

	res := c.engine.PushOnly(syncCtx)
	c.end(res, false)
	return res, nil
}

// DeleteRemote removes the remote counterpart of a locally deleted entity.
// Best effort: a failure is logged, never surfaced to the caller.
func (c *Controller) DeleteRemote(ctx context.Context, kind domain.Kind, remoteID string) {
	if remoteID == "" {
		return
	}
	if err := c.engine.DeleteRecord(ctx, remoteID); err != nil {
		c.logger.LogError(ctx, err, "Remote delete failed",
			slog.String("kind", kind.String()),
			slog.String("record_id", remoteID))
		return
	}
	c.logger.Info("Remote record deleted",
		slog.String("kind", kind.String()),
		slog.String("record_id", remoteID))
}

// StartAutoSync begins periodic full syncs at the configured interval.
func (c *Controller) StartAutoSync(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return syncErrors.New(syncErrors.OpSync, fmt.Errorf("controller is closed"))
	}
	if c.autoSyncStop != nil {
		return syncErrors.New(syncErrors.OpSync, fmt.Errorf("auto sync is already running"))
	}

	stopChan := make(chan struct{})
	c.autoSyncStop = stopChan
	c.logger.Info("Starting automatic sync", slog.Duration("interval", c.opts.SyncInterval))

	go func() {
		ticker := time.NewTicker(c.opts.SyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Auto sync stopping, context canceled")
				return
			case <-stopChan:
				c.logger.Info("Auto sync stopped")
				return
			case <-ticker.C:
				if _, err := c.TriggerFullSync(ctx); err != nil {
					// Overlapping with a manual trigger is expected.
					c.logger.Debug("Auto sync tick skipped", slog.String("reason", err.Error()))
				}
			}
		}
	}()

	return nil
}

// StopAutoSync halts periodic syncing. A pass already in flight finishes.
func (c *Controller) StopAutoSync() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.autoSyncStop == nil {
		return syncErrors.New(syncErrors.OpSync, fmt.Errorf("auto sync is not running"))
	}
	close(c.autoSyncStop)
	c.autoSyncStop = nil
	return nil
}

// Close stops auto sync and releases the engine's resources.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.autoSyncStop != nil {
		close(c.autoSyncStop)
		c.autoSyncStop = nil
	}
	c.mu.Unlock()

	c.logger.Info("Closing sync controller")
	return c.engine.Close()
}

// begin claims the single sync slot and publishes the syncing status.
func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return syncErrors.New(syncErrors.OpSync, fmt.Errorf("controller is closed"))
	}
	if c.status.Syncing {
		c.logger.Debug("Sync trigger ignored, pass already running")
		return ErrSyncInProgress
	}
	c.status.Syncing = true
	c.notifyLocked(c.status)
	return nil
}

// end releases the sync slot and publishes the pass outcome.
func (c *Controller) end(res *Result, recordSyncTime bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status.Syncing = false
	c.status.AccountAvailable = res.AccountStatus.Available()
	c.status.LastError = res.LastError()
	if recordSyncTime {
		c.status.LastSyncTime = time.Now()
	}
	c.notifyLocked(c.status)
}

// notifyLocked fans the status out to subscribers. Callers hold c.mu.
func (c *Controller) notifyLocked(status Status) {
	for _, fn := range c.subscribers {
		fn := fn
		go func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("Status subscriber panicked", slog.Any("panic", r))
				}
			}()
			fn(status)
		}()
	}
}
