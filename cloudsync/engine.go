// Package cloudsync reconciles the local store with the remote record
// service. One pass is push then pull, per entity kind: push uploads records
// the remote has never seen, pull merges the full remote set back with
// per-kind conflict rules and restores uniqueness invariants by deleting
// remote duplicates.
package cloudsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/i4ali/macrosnap/domain"
	syncErrors "github.com/i4ali/macrosnap/errors"
	"github.com/i4ali/macrosnap/logging"
	"github.com/i4ali/macrosnap/record"
	"github.com/i4ali/macrosnap/remote"
	"github.com/i4ali/macrosnap/store"
)

// Result summarizes one sync pass. Errors holds every per-kind failure the
// pass absorbed; the pass itself always runs to completion.
type Result struct {
	StartTime         time.Time
	Duration          time.Duration
	AccountStatus     remote.AccountStatus
	Pushed            int
	Pulled            int
	DuplicatesRemoved int
	Errors            []error
}

// LastError returns the most recent failure of the pass, or nil.
func (r *Result) LastError() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[len(r.Errors)-1]
}

// Engine runs push and pull passes. It holds no pass state of its own; the
// controller serializes invocations.
type Engine struct {
	local  store.Store
	remote remote.Store
	opts   Options
	logger *logging.Logger

	// now supplies the merge time for records missing both timestamps.
	now func() time.Time
}

// NewEngine wires an engine over a local store and a remote record service.
func NewEngine(local store.Store, remoteStore remote.Store, opts Options) *Engine {
	opts.setDefaults()
	return &Engine{
		local:  local,
		remote: remoteStore,
		opts:   opts,
		logger: opts.Logger.WithComponent(logging.Component("engine")),
		now:    time.Now,
	}
}

// FullSync pushes then pulls all three kinds. Push for a kind completes,
// including the local commit of returned remote identities, before any pull
// runs, so a pull cannot re-download a record this pass just created.
func (e *Engine) FullSync(ctx context.Context) *Result {
	res := &Result{StartTime: time.Now()}
	defer e.finish(res, "full_sync")

	e.logger.Info("Starting full sync pass")

	if !e.checkAccount(ctx, res) {
		return res
	}
	if !e.ensureZone(ctx, res) {
		return res
	}

	e.pushEntries(ctx, res)
	e.pushGoals(ctx, res)
	e.pushPresets(ctx, res)

	e.pullEntries(ctx, res)
	e.pullGoals(ctx, res)
	e.pullPresets(ctx, res)

	return res
}

// PushOnly uploads local changes without pulling, used right after a local
// mutation to get the change onto the remote promptly.
func (e *Engine) PushOnly(ctx context.Context) *Result {
	res := &Result{StartTime: time.Now()}
	defer e.finish(res, "push_only")

	e.logger.Info("Starting push-only pass")

	if !e.checkAccount(ctx, res) {
		return res
	}
	if !e.ensureZone(ctx, res) {
		return res
	}

	e.pushEntries(ctx, res)
	e.pushGoals(ctx, res)
	e.pushPresets(ctx, res)

	return res
}

// DeleteRecord removes one remote record by identity.
func (e *Engine) DeleteRecord(ctx context.Context, remoteID string) error {
	if remoteID == "" {
		return syncErrors.NewValidationError(syncErrors.OpDelete, fmt.Errorf("remote id is required"))
	}
	return e.remote.Delete(ctx, remoteID)
}

// Close releases the remote client and the local store.
func (e *Engine) Close() error {
	var errs []error
	if err := e.remote.Close(); err != nil {
		errs = append(errs, syncErrors.NewWithComponent(syncErrors.OpClose, "remote", err))
	}
	if err := e.local.Close(); err != nil {
		errs = append(errs, syncErrors.NewWithComponent(syncErrors.OpClose, "store", err))
	}
	if len(errs) > 0 {
		return syncErrors.New(syncErrors.OpClose, fmt.Errorf("close errors: %v", errs))
	}
	return nil
}

func (e *Engine) finish(res *Result, operation string) {
	res.Duration = time.Since(res.StartTime)
	e.opts.MetricsCollector.RecordSyncDuration(operation, res.Duration)
	if res.DuplicatesRemoved > 0 {
		e.opts.MetricsCollector.RecordDuplicatesRemoved(res.DuplicatesRemoved)
	}
	if len(res.Errors) == 0 {
		e.opts.MetricsCollector.RecordSyncRecords(res.Pushed, res.Pulled)
		e.logger.Info("Sync pass completed",
			slog.String("operation", operation),
			slog.Duration("duration", res.Duration),
			slog.Int("pushed", res.Pushed),
			slog.Int("pulled", res.Pulled),
			slog.Int("duplicates_removed", res.DuplicatesRemoved))
	} else {
		e.opts.MetricsCollector.RecordSyncErrors(operation, "sync_failure")
		e.logger.Error("Sync pass completed with errors",
			slog.String("operation", operation),
			slog.Duration("duration", res.Duration),
			slog.Int("error_count", len(res.Errors)))
	}
}

// checkAccount gates the pass on account availability. Unavailability is a
// status, not an error; only the status check failing outright is recorded.
func (e *Engine) checkAccount(ctx context.Context, res *Result) bool {
	status, err := e.remote.AccountStatus(ctx)
	res.AccountStatus = status
	if err != nil {
		e.logger.LogError(ctx, err, "Account status check failed")
		res.Errors = append(res.Errors, err)
		return false
	}
	if !status.Available() {
		e.logger.Info("Account unavailable, skipping sync", slog.String("status", status.String()))
		return false
	}
	return true
}

func (e *Engine) ensureZone(ctx context.Context, res *Result) bool {
	if err := e.remote.EnsureZone(ctx); err != nil {
		e.logger.LogError(ctx, err, "Failed to ensure record zone")
		res.Errors = append(res.Errors, err)
		return false
	}
	return true
}

// --- push ---

func (e *Engine) pushEntries(ctx context.Context, res *Result) {
	entries, err := e.local.UnsyncedEntries(ctx)
	if err != nil {
		res.Errors = append(res.Errors, syncErrors.WrapOpComponentKind(err, syncErrors.OpPush, "store", syncErrors.KindStorage))
		return
	}
	if len(entries) == 0 {
		return
	}
	e.logger.Debug("Pushing entries", slog.Int("count", len(entries)))

	for start := 0; start < len(entries); start += e.opts.BatchSize {
		end := min(start+e.opts.BatchSize, len(entries))
		chunk := entries[start:end]

		records := make([]record.Record, len(chunk))
		for i, en := range chunk {
			records[i] = record.EncodeEntry(en)
		}

		results, err := e.remote.SaveBatch(ctx, records)
		if err != nil {
			e.logger.LogError(ctx, err, "Entry batch save failed", slog.Int("batch_start", start))
			res.Errors = append(res.Errors, err)
			continue
		}

		synced := make([]domain.Entry, 0, len(chunk))
		for i, sr := range results {
			if i >= len(chunk) {
				break
			}
			if sr.Err != nil {
				e.logger.LogError(ctx, sr.Err, "Entry save rejected", slog.String("entry_id", chunk[i].ID.String()))
				continue
			}
			en := chunk[i]
			en.RemoteID = sr.Record.ID
			synced = append(synced, en)
		}
		if len(synced) == 0 {
			continue
		}

		// Committed per chunk so earlier successes survive a later failure.
		err = e.local.Update(ctx, func(tx store.Tx) error {
			for _, en := range synced {
				if err := tx.UpdateEntry(en); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			res.Errors = append(res.Errors, syncErrors.WrapOpComponentKind(err, syncErrors.OpPush, "store", syncErrors.KindStorage))
			return
		}
		res.Pushed += len(synced)
	}
}

func (e *Engine) pushGoals(ctx context.Context, res *Result) {
	goals, err := e.local.UnsyncedGoals(ctx)
	if err != nil {
		res.Errors = append(res.Errors, syncErrors.WrapOpComponentKind(err, syncErrors.OpPush, "store", syncErrors.KindStorage))
		return
	}
	if len(goals) == 0 {
		return
	}
	e.logger.Debug("Pushing goals", slog.Int("count", len(goals)))

	for start := 0; start < len(goals); start += e.opts.BatchSize {
		end := min(start+e.opts.BatchSize, len(goals))
		chunk := goals[start:end]

		records := make([]record.Record, len(chunk))
		for i, g := range chunk {
			records[i] = record.EncodeGoal(g)
		}

		results, err := e.remote.SaveBatch(ctx, records)
		if err != nil {
			e.logger.LogError(ctx, err, "Goal batch save failed", slog.Int("batch_start", start))
			res.Errors = append(res.Errors, err)
			continue
		}

		synced := make([]domain.Goal, 0, len(chunk))
		for i, sr := range results {
			if i >= len(chunk) {
				break
			}
			if sr.Err != nil {
				e.logger.LogError(ctx, sr.Err, "Goal save rejected", slog.Int("day_of_week", chunk[i].DayOfWeek))
				continue
			}
			g := chunk[i]
			g.RemoteID = sr.Record.ID
			synced = append(synced, g)
		}
		if len(synced) == 0 {
			continue
		}

		err = e.local.Update(ctx, func(tx store.Tx) error {
			for _, g := range synced {
				if err := tx.UpdateGoal(g); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			res.Errors = append(res.Errors, syncErrors.WrapOpComponentKind(err, syncErrors.OpPush, "store", syncErrors.KindStorage))
			return
		}
		res.Pushed += len(synced)
	}
}

// pushPresets uploads every preset, never-synced and already-synced alike, so
// local edits reach the remote as in-place upserts. The two groups travel in
// separate batches.
func (e *Engine) pushPresets(ctx context.Context, res *Result) {
	presets, err := e.local.Presets(ctx)
	if err != nil {
		res.Errors = append(res.Errors, syncErrors.WrapOpComponentKind(err, syncErrors.OpPush, "store", syncErrors.KindStorage))
		return
	}
	if len(presets) == 0 {
		return
	}

	var created, existing []domain.Preset
	for _, p := range presets {
		if p.Synced() {
			existing = append(existing, p)
		} else {
			created = append(created, p)
		}
	}
	e.logger.Debug("Pushing presets",
		slog.Int("new", len(created)),
		slog.Int("existing", len(existing)))

	e.pushPresetGroup(ctx, res, created)
	e.pushPresetGroup(ctx, res, existing)
}

func (e *Engine) pushPresetGroup(ctx context.Context, res *Result, presets []domain.Preset) {
	for start := 0; start < len(presets); start += e.opts.BatchSize {
		end := min(start+e.opts.BatchSize, len(presets))
		chunk := presets[start:end]

		records := make([]record.Record, len(chunk))
		for i, p := range chunk {
			records[i] = record.EncodePreset(p)
		}

		results, err := e.remote.SaveBatch(ctx, records)
		if err != nil {
			e.logger.LogError(ctx, err, "Preset batch save failed", slog.Int("batch_start", start))
			res.Errors = append(res.Errors, err)
			continue
		}

		synced := make([]domain.Preset, 0, len(chunk))
		for i, sr := range results {
			if i >= len(chunk) {
				break
			}
			if sr.Err != nil {
				e.logger.LogError(ctx, sr.Err, "Preset save rejected", slog.String("name", chunk[i].Name))
				continue
			}
			p := chunk[i]
			p.RemoteID = sr.Record.ID
			synced = append(synced, p)
		}
		if len(synced) == 0 {
			continue
		}

		err = e.local.Update(ctx, func(tx store.Tx) error {
			for _, p := range synced {
				if err := tx.UpdatePreset(p); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			res.Errors = append(res.Errors, syncErrors.WrapOpComponentKind(err, syncErrors.OpPush, "store", syncErrors.KindStorage))
			return
		}
		res.Pushed += len(synced)
	}
}

// --- pull ---

// remoteEntry pairs a decoded entry with its record and with whether the
// record carried a genuine timestamp. Records missing both timestamps decode
// with a merge-time fallback that must only be persisted on create, never
// re-applied to an existing local row.
type remoteEntry struct {
	rec   record.Record
	entry domain.Entry
	hasTS bool
}

func (e *Engine) pullEntries(ctx context.Context, res *Result) {
	qres, err := e.remote.Query(ctx, domain.KindEntry.RecordType(), time.Time{})
	if err != nil {
		e.recordQueryFailure(ctx, res, domain.KindEntry, err)
		return
	}

	now := e.now()
	decoded := make([]remoteEntry, 0, len(qres))
	for _, qr := range qres {
		if qr.Err != nil {
			e.logger.LogError(ctx, qr.Err, "Skipping unreadable entry record")
			continue
		}
		en, err := record.DecodeEntry(qr.Record, now)
		if err != nil {
			e.logger.LogError(ctx, syncErrors.NewDataError(syncErrors.OpPull, err), "Skipping malformed entry record",
				slog.String("record_id", qr.Record.ID))
			continue
		}
		_, hasTS := qr.Record.Fields.UpdatedAt()
		decoded = append(decoded, remoteEntry{rec: qr.Record, entry: en, hasTS: hasTS})
	}

	locals, err := e.local.Entries(ctx)
	if err != nil {
		res.Errors = append(res.Errors, syncErrors.WrapOpComponentKind(err, syncErrors.OpPull, "store", syncErrors.KindStorage))
		return
	}
	byRemote := make(map[string]domain.Entry, len(locals))
	for _, l := range locals {
		if l.Synced() {
			byRemote[l.RemoteID] = l
		}
	}

	keep, deleteIDs := dedupEntries(decoded, byRemote)

	var inserts, updates []domain.Entry
	for _, re := range keep {
		if local, ok := byRemote[re.rec.ID]; ok {
			merged := local
			merged.Date = re.entry.Date
			merged.Protein = re.entry.Protein
			merged.Carbs = re.entry.Carbs
			merged.Fat = re.entry.Fat
			merged.Notes = re.entry.Notes
			if re.hasTS {
				merged.UpdatedAt = re.entry.UpdatedAt
			}
			if !re.entry.CreatedAt.IsZero() {
				merged.CreatedAt = re.entry.CreatedAt
			}
			updates = append(updates, merged)
		} else {
			en := re.entry
			en.ID = uuid.New()
			if en.CreatedAt.IsZero() {
				en.CreatedAt = en.UpdatedAt
			}
			inserts = append(inserts, en)
		}
	}

	if len(inserts) > 0 || len(updates) > 0 {
		err = e.local.Update(ctx, func(tx store.Tx) error {
			for _, en := range inserts {
				if err := tx.InsertEntry(en); err != nil {
					return err
				}
			}
			for _, en := range updates {
				if err := tx.UpdateEntry(en); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			res.Errors = append(res.Errors, syncErrors.WrapOpComponentKind(err, syncErrors.OpPull, "store", syncErrors.KindStorage))
			return
		}
	}
	res.Pulled += len(inserts) + len(updates)

	e.deleteDuplicates(ctx, res, domain.KindEntry, deleteIDs)
}

type remoteGoal struct {
	rec   record.Record
	goal  domain.Goal
	hasTS bool
}

// pullGoals matches remote goals to local ones by day of week, not by record
// identity, because at most one goal may exist per day. Remote records
// sharing a day are reduced to one winner; the rest are deleted remotely.
func (e *Engine) pullGoals(ctx context.Context, res *Result) {
	qres, err := e.remote.Query(ctx, domain.KindGoal.RecordType(), time.Time{})
	if err != nil {
		e.recordQueryFailure(ctx, res, domain.KindGoal, err)
		return
	}

	now := e.now()
	byDayRemote := make(map[int][]remoteGoal)
	for _, qr := range qres {
		if qr.Err != nil {
			e.logger.LogError(ctx, qr.Err, "Skipping unreadable goal record")
			continue
		}
		g, err := record.DecodeGoal(qr.Record, now)
		if err != nil {
			e.logger.LogError(ctx, syncErrors.NewDataError(syncErrors.OpPull, err), "Skipping malformed goal record",
				slog.String("record_id", qr.Record.ID))
			continue
		}
		_, hasTS := qr.Record.Fields.UpdatedAt()
		byDayRemote[g.DayOfWeek] = append(byDayRemote[g.DayOfWeek], remoteGoal{rec: qr.Record, goal: g, hasTS: hasTS})
	}

	locals, err := e.local.Goals(ctx)
	if err != nil {
		res.Errors = append(res.Errors, syncErrors.WrapOpComponentKind(err, syncErrors.OpPull, "store", syncErrors.KindStorage))
		return
	}
	byDayLocal := make(map[int]domain.Goal, len(locals))
	for _, g := range locals {
		byDayLocal[g.DayOfWeek] = g
	}

	var inserts, updates []domain.Goal
	var deleteIDs []string
	for day, group := range byDayRemote {
		winner := pickGoalWinner(group)
		for _, rg := range group {
			if rg.rec.ID != winner.rec.ID {
				deleteIDs = append(deleteIDs, rg.rec.ID)
			}
		}

		if local, ok := byDayLocal[day]; ok {
			merged := local
			merged.ProteinGoal = winner.goal.ProteinGoal
			merged.CarbGoal = winner.goal.CarbGoal
			merged.FatGoal = winner.goal.FatGoal
			merged.RemoteID = winner.rec.ID
			if winner.hasTS {
				merged.UpdatedAt = winner.goal.UpdatedAt
			}
			if !winner.goal.CreatedAt.IsZero() {
				merged.CreatedAt = winner.goal.CreatedAt
			}
			updates = append(updates, merged)
		} else {
			g := winner.goal
			g.ID = uuid.New()
			if g.CreatedAt.IsZero() {
				g.CreatedAt = g.UpdatedAt
			}
			inserts = append(inserts, g)
		}
	}

	if len(inserts) > 0 || len(updates) > 0 {
		err = e.local.Update(ctx, func(tx store.Tx) error {
			for _, g := range inserts {
				if err := tx.InsertGoal(g); err != nil {
					return err
				}
			}
			for _, g := range updates {
				if err := tx.UpdateGoal(g); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			res.Errors = append(res.Errors, syncErrors.WrapOpComponentKind(err, syncErrors.OpPull, "store", syncErrors.KindStorage))
			return
		}
	}
	res.Pulled += len(inserts) + len(updates)

	e.deleteDuplicates(ctx, res, domain.KindGoal, deleteIDs)
}

// pullPresets applies last-writer-wins per record: the remote copy replaces
// the local one only when its timestamp is strictly newer. A record missing
// both timestamps never overwrites an existing local preset.
func (e *Engine) pullPresets(ctx context.Context, res *Result) {
	qres, err := e.remote.Query(ctx, domain.KindPreset.RecordType(), time.Time{})
	if err != nil {
		e.recordQueryFailure(ctx, res, domain.KindPreset, err)
		return
	}

	locals, err := e.local.Presets(ctx)
	if err != nil {
		res.Errors = append(res.Errors, syncErrors.WrapOpComponentKind(err, syncErrors.OpPull, "store", syncErrors.KindStorage))
		return
	}
	byRemote := make(map[string]domain.Preset, len(locals))
	for _, p := range locals {
		if p.Synced() {
			byRemote[p.RemoteID] = p
		}
	}

	now := e.now()
	var inserts, updates []domain.Preset
	for _, qr := range qres {
		if qr.Err != nil {
			e.logger.LogError(ctx, qr.Err, "Skipping unreadable preset record")
			continue
		}
		p, err := record.DecodePreset(qr.Record, now)
		if err != nil {
			e.logger.LogError(ctx, syncErrors.NewDataError(syncErrors.OpPull, err), "Skipping malformed preset record",
				slog.String("record_id", qr.Record.ID))
			continue
		}
		remoteTS, hasTS := qr.Record.Fields.UpdatedAt()

		if local, ok := byRemote[qr.Record.ID]; ok {
			if !hasTS || !remoteTS.After(local.UpdatedAt) {
				continue
			}
			merged := local
			merged.Name = p.Name
			merged.Protein = p.Protein
			merged.Carbs = p.Carbs
			merged.Fat = p.Fat
			merged.UpdatedAt = remoteTS
			updates = append(updates, merged)
		} else {
			p.ID = uuid.New()
			if p.CreatedAt.IsZero() {
				p.CreatedAt = p.UpdatedAt
			}
			inserts = append(inserts, p)
		}
	}

	if len(inserts) > 0 || len(updates) > 0 {
		err = e.local.Update(ctx, func(tx store.Tx) error {
			for _, p := range inserts {
				if err := tx.InsertPreset(p); err != nil {
					return err
				}
			}
			for _, p := range updates {
				if err := tx.UpdatePreset(p); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			res.Errors = append(res.Errors, syncErrors.WrapOpComponentKind(err, syncErrors.OpPull, "store", syncErrors.KindStorage))
			return
		}
	}
	res.Pulled += len(inserts) + len(updates)
}

// recordQueryFailure classifies a pull query failure. Schema-not-provisioned
// is the expected first-run state and is suppressed entirely.
func (e *Engine) recordQueryFailure(ctx context.Context, res *Result, kind domain.Kind, err error) {
	if syncErrors.IsSchemaNotProvisioned(err) {
		e.logger.Debug("Record type not provisioned yet, skipping pull",
			slog.String("kind", kind.String()))
		return
	}
	e.logger.LogError(ctx, err, "Pull query failed", slog.String("kind", kind.String()))
	res.Errors = append(res.Errors, err)
}

// deleteDuplicates issues best-effort remote deletes for dedup losers.
// Failures are logged and never fail the pass; already-gone is success.
func (e *Engine) deleteDuplicates(ctx context.Context, res *Result, kind domain.Kind, ids []string) {
	for _, id := range ids {
		if err := e.remote.Delete(ctx, id); err != nil {
			if syncErrors.IsNotFound(err) {
				res.DuplicatesRemoved++
				continue
			}
			e.logger.LogError(ctx, err, "Failed to delete duplicate record",
				slog.String("kind", kind.String()),
				slog.String("record_id", id))
			continue
		}
		e.logger.Info("Deleted duplicate remote record",
			slog.String("kind", kind.String()),
			slog.String("record_id", id))
		res.DuplicatesRemoved++
	}
}
