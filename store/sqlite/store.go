// Package sqlite provides the SQLite implementation of the macrosnap local
// store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	stdSync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/i4ali/macrosnap/domain"
	syncErrors "github.com/i4ali/macrosnap/errors"
	"github.com/i4ali/macrosnap/logging"
	"github.com/i4ali/macrosnap/store"

	// Go SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// Config holds configuration options for the Store.
//
// Production-ready defaults are applied by DefaultConfig() including WAL mode
// and a small connection pool sized for a single-user database.
type Config struct {
	// DataSourceName is the connection string for the SQLite database.
	DataSourceName string

	// EnableWAL enables Write-Ahead Logging mode for better concurrency.
	// Enabled by default; appends "?_journal_mode=WAL" to DataSourceName.
	EnableWAL bool

	// Connection pool settings.
	MaxOpenConns    int           // Default: 4
	MaxIdleConns    int           // Default: 2
	ConnMaxLifetime time.Duration // Default: 1h
	ConnMaxIdleTime time.Duration // Default: 5m
}

func (c *Config) setDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 4
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 2
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.EnableWAL {
		if !strings.Contains(c.DataSourceName, "_journal_mode=") {
			sep := "?"
			if strings.Contains(c.DataSourceName, "?") {
				sep = "&"
			}
			c.DataSourceName += sep + "_journal_mode=WAL"
		}
	}
}

// DefaultConfig returns a Config with production-ready defaults.
func DefaultConfig(dataSourceName string) *Config {
	config := &Config{
		DataSourceName: dataSourceName,
		EnableWAL:      true,
	}
	config.setDefaults()
	return config
}

// Store implements store.Store over a SQLite database.
type Store struct {
	db     *sql.DB
	mu     stdSync.RWMutex
	closed bool
	logger *logging.Logger
}

// Compile-time check that Store satisfies the local store contract.
var _ store.Store = (*Store)(nil)

// New opens the database, configures the pool, and ensures the schema.
func New(config *Config) (*Store, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	config.setDefaults()

	if config.DataSourceName == "" {
		return nil, fmt.Errorf("DataSourceName is required")
	}

	logger := logging.WithComponent(logging.Component("sqlite-store"))
	logger.Info("Opening SQLite database",
		slog.String("data_source", config.DataSourceName),
		slog.Bool("wal_enabled", config.EnableWAL),
	)

	db, err := sql.Open("sqlite3", config.DataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.setupSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database schema: %w", err)
	}

	return s, nil
}

// NewWithDataSource is a convenience constructor using default configuration.
func NewWithDataSource(dataSourceName string) (*Store, error) {
	return New(DefaultConfig(dataSourceName))
}

func (s *Store) setupSchema() error {
	query := `
    CREATE TABLE IF NOT EXISTS entries (
        id          TEXT PRIMARY KEY,
        remote_id   TEXT NOT NULL DEFAULT '',
        date        TIMESTAMP NOT NULL,
        protein     REAL NOT NULL,
        carbs       REAL NOT NULL,
        fat         REAL NOT NULL,
        notes       TEXT NOT NULL DEFAULT '',
        created_at  TIMESTAMP NOT NULL,
        updated_at  TIMESTAMP NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_entries_remote_id ON entries (remote_id);
    CREATE INDEX IF NOT EXISTS idx_entries_date ON entries (date);

    CREATE TABLE IF NOT EXISTS goals (
        id           TEXT PRIMARY KEY,
        remote_id    TEXT NOT NULL DEFAULT '',
        protein_goal REAL NOT NULL,
        carb_goal    REAL NOT NULL,
        fat_goal     REAL NOT NULL,
        day_of_week  INTEGER NOT NULL,
        created_at   TIMESTAMP NOT NULL,
        updated_at   TIMESTAMP NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_goals_day_of_week ON goals (day_of_week);
    CREATE INDEX IF NOT EXISTS idx_goals_remote_id ON goals (remote_id);

    CREATE TABLE IF NOT EXISTS presets (
        id          TEXT PRIMARY KEY,
        remote_id   TEXT NOT NULL DEFAULT '',
        name        TEXT NOT NULL,
        protein     REAL NOT NULL,
        carbs       REAL NOT NULL,
        fat         REAL NOT NULL,
        created_at  TIMESTAMP NOT NULL,
        updated_at  TIMESTAMP NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_presets_remote_id ON presets (remote_id);
    `
	_, err := s.db.Exec(query)
	return err
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrStoreClosed
	}
	return nil
}

// Entries returns all entries, newest occurrence date first.
func (s *Store) Entries(ctx context.Context) ([]domain.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.queryEntries(ctx, `SELECT id, remote_id, date, protein, carbs, fat, notes, created_at, updated_at
		FROM entries ORDER BY date DESC`)
}

// EntriesBetween returns entries whose occurrence date falls in [from, to).
func (s *Store) EntriesBetween(ctx context.Context, from, to time.Time) ([]domain.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.queryEntries(ctx, `SELECT id, remote_id, date, protein, carbs, fat, notes, created_at, updated_at
		FROM entries WHERE date >= ? AND date < ? ORDER BY date DESC`, from, to)
}

// UnsyncedEntries returns entries with no remote identity.
func (s *Store) UnsyncedEntries(ctx context.Context) ([]domain.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.queryEntries(ctx, `SELECT id, remote_id, date, protein, carbs, fat, notes, created_at, updated_at
		FROM entries WHERE remote_id = '' ORDER BY date DESC`)
}

// EntryByRemoteID finds the entry carrying the given remote identity.
func (s *Store) EntryByRemoteID(ctx context.Context, remoteID string) (domain.Entry, bool, error) {
	if err := s.checkOpen(); err != nil {
		return domain.Entry{}, false, err
	}
	entries, err := s.queryEntries(ctx, `SELECT id, remote_id, date, protein, carbs, fat, notes, created_at, updated_at
		FROM entries WHERE remote_id = ? LIMIT 1`, remoteID)
	if err != nil {
		return domain.Entry{}, false, err
	}
	if len(entries) == 0 {
		return domain.Entry{}, false, nil
	}
	return entries[0], true, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...interface{}) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, syncErrors.WrapOpComponentKind(err, syncErrors.OpLoad, "store/sqlite", syncErrors.KindStorage)
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var e domain.Entry
		var id string
		if err := rows.Scan(&id, &e.RemoteID, &e.Date, &e.Protein, &e.Carbs, &e.Fat, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		e.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid entry id %q: %w", id, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during entry row iteration: %w", err)
	}
	return entries, nil
}

// Goals returns all goals.
func (s *Store) Goals(ctx context.Context) ([]domain.Goal, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.queryGoals(ctx, `SELECT id, remote_id, protein_goal, carb_goal, fat_goal, day_of_week, created_at, updated_at
		FROM goals ORDER BY day_of_week ASC`)
}

// UnsyncedGoals returns goals with no remote identity.
func (s *Store) UnsyncedGoals(ctx context.Context) ([]domain.Goal, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.queryGoals(ctx, `SELECT id, remote_id, protein_goal, carb_goal, fat_goal, day_of_week, created_at, updated_at
		FROM goals WHERE remote_id = '' ORDER BY day_of_week ASC`)
}

// GoalByDay finds the goal for one day-of-week value.
func (s *Store) GoalByDay(ctx context.Context, dayOfWeek int) (domain.Goal, bool, error) {
	if err := s.checkOpen(); err != nil {
		return domain.Goal{}, false, err
	}
	goals, err := s.queryGoals(ctx, `SELECT id, remote_id, protein_goal, carb_goal, fat_goal, day_of_week, created_at, updated_at
		FROM goals WHERE day_of_week = ? LIMIT 1`, dayOfWeek)
	if err != nil {
		return domain.Goal{}, false, err
	}
	if len(goals) == 0 {
		return domain.Goal{}, false, nil
	}
	return goals[0], true, nil
}

func (s *Store) queryGoals(ctx context.Context, query string, args ...interface{}) ([]domain.Goal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, syncErrors.WrapOpComponentKind(err, syncErrors.OpLoad, "store/sqlite", syncErrors.KindStorage)
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		var g domain.Goal
		var id string
		if err := rows.Scan(&id, &g.RemoteID, &g.ProteinGoal, &g.CarbGoal, &g.FatGoal, &g.DayOfWeek, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal row: %w", err)
		}
		g.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid goal id %q: %w", id, err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during goal row iteration: %w", err)
	}
	return goals, nil
}

// Presets returns all presets, most recently updated first.
func (s *Store) Presets(ctx context.Context) ([]domain.Preset, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return s.queryPresets(ctx, `SELECT id, remote_id, name, protein, carbs, fat, created_at, updated_at
		FROM presets ORDER BY updated_at DESC`)
}

// PresetByRemoteID finds the preset carrying the given remote identity.
func (s *Store) PresetByRemoteID(ctx context.Context, remoteID string) (domain.Preset, bool, error) {
	if err := s.checkOpen(); err != nil {
		return domain.Preset{}, false, err
	}
	presets, err := s.queryPresets(ctx, `SELECT id, remote_id, name, protein, carbs, fat, created_at, updated_at
		FROM presets WHERE remote_id = ? LIMIT 1`, remoteID)
	if err != nil {
		return domain.Preset{}, false, err
	}
	if len(presets) == 0 {
		return domain.Preset{}, false, nil
	}
	return presets[0], true, nil
}

func (s *Store) queryPresets(ctx context.Context, query string, args ...interface{}) ([]domain.Preset, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, syncErrors.WrapOpComponentKind(err, syncErrors.OpLoad, "store/sqlite", syncErrors.KindStorage)
	}
	defer rows.Close()

	var presets []domain.Preset
	for rows.Next() {
		var p domain.Preset
		var id string
		if err := rows.Scan(&id, &p.RemoteID, &p.Name, &p.Protein, &p.Carbs, &p.Fat, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan preset row: %w", err)
		}
		p.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid preset id %q: %w", id, err)
		}
		presets = append(presets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during preset row iteration: %w", err)
	}
	return presets, nil
}

// Update runs fn inside one transaction. All mutations commit together; a
// failure of fn or of the commit discards them all.
func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return syncErrors.WrapOpComponentKind(err, syncErrors.OpStore, "store/sqlite", syncErrors.KindStorage)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = fn(&sqliteTx{ctx: ctx, tx: tx}); err != nil {
		return syncErrors.WrapOpComponentKind(err, syncErrors.OpStore, "store/sqlite", syncErrors.KindStorage)
	}

	if err = tx.Commit(); err != nil {
		return syncErrors.WrapOpComponentKind(err, syncErrors.OpStore, "store/sqlite", syncErrors.KindStorage)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Stats returns database statistics for monitoring.
func (s *Store) Stats() sql.DBStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return sql.DBStats{}
	}
	return s.db.Stats()
}

// sqliteTx implements store.Tx over one *sql.Tx.
type sqliteTx struct {
	ctx context.Context
	tx  *sql.Tx
}

var _ store.Tx = (*sqliteTx)(nil)

func (t *sqliteTx) InsertEntry(e domain.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO entries (id, remote_id, date, protein, carbs, fat, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.RemoteID, e.Date, e.Protein, e.Carbs, e.Fat, e.Notes, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

func (t *sqliteTx) UpdateEntry(e domain.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx,
		`UPDATE entries SET remote_id = ?, date = ?, protein = ?, carbs = ?, fat = ?, notes = ?, created_at = ?, updated_at = ?
		 WHERE id = ?`,
		e.RemoteID, e.Date, e.Protein, e.Carbs, e.Fat, e.Notes, e.CreatedAt, e.UpdatedAt, e.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return nil
}

func (t *sqliteTx) DeleteEntry(id uuid.UUID) error {
	_, err := t.tx.ExecContext(t.ctx, `DELETE FROM entries WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

func (t *sqliteTx) InsertGoal(g domain.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO goals (id, remote_id, protein_goal, carb_goal, fat_goal, day_of_week, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID.String(), g.RemoteID, g.ProteinGoal, g.CarbGoal, g.FatGoal, g.DayOfWeek, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	return nil
}

func (t *sqliteTx) UpdateGoal(g domain.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx,
		`UPDATE goals SET remote_id = ?, protein_goal = ?, carb_goal = ?, fat_goal = ?, day_of_week = ?, created_at = ?, updated_at = ?
		 WHERE id = ?`,
		g.RemoteID, g.ProteinGoal, g.CarbGoal, g.FatGoal, g.DayOfWeek, g.CreatedAt, g.UpdatedAt, g.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	return nil
}

func (t *sqliteTx) DeleteGoal(id uuid.UUID) error {
	_, err := t.tx.ExecContext(t.ctx, `DELETE FROM goals WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

func (t *sqliteTx) InsertPreset(p domain.Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx,
		`INSERT INTO presets (id, remote_id, name, protein, carbs, fat, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.RemoteID, p.Name, p.Protein, p.Carbs, p.Fat, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert preset: %w", err)
	}
	return nil
}

func (t *sqliteTx) UpdatePreset(p domain.Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(t.ctx,
		`UPDATE presets SET remote_id = ?, name = ?, protein = ?, carbs = ?, fat = ?, created_at = ?, updated_at = ?
		 WHERE id = ?`,
		p.RemoteID, p.Name, p.Protein, p.Carbs, p.Fat, p.CreatedAt, p.UpdatedAt, p.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update preset: %w", err)
	}
	return nil
}

func (t *sqliteTx) DeletePreset(id uuid.UUID) error {
	_, err := t.tx.ExecContext(t.ctx, `DELETE FROM presets WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	return nil
}
