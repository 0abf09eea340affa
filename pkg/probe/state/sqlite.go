package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore persists target states using SQLite.
//
// It uses a write-ahead log (WAL) for better concurrent performance and
// periodic checkpointing to balance write performance with durability. The
// pure-Go driver keeps the state database usable in cgo-free builds.
type SQLiteStore struct {
	db                 *sql.DB
	dbPath             string
	checkpointInterval time.Duration
	done               chan struct{}
	mu                 sync.RWMutex
	closeOnce          sync.Once

	saveStmt   *sql.Stmt
	loadStmt   *sql.Stmt
	listStmt   *sql.Stmt
	deleteStmt *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite state store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a new SQLite state store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{
		DBPath:             dbPath,
		CheckpointInterval: 5 * time.Minute,
		BusyTimeout:        5 * time.Second,
	})
}

// NewSQLiteStoreWithConfig creates a new SQLite state store with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:                 db,
		dbPath:             cfg.DBPath,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go store.checkpointLoop()

	return store, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS target_states (
		target TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		last_updated INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_target_states_last_updated ON target_states(last_updated);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.saveStmt, err = s.db.Prepare(`
		INSERT INTO target_states (target, state, last_updated, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (target) DO UPDATE SET
			state = excluded.state,
			last_updated = excluded.last_updated
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare save statement: %w", err)
	}

	s.loadStmt, err = s.db.Prepare(`
		SELECT state FROM target_states WHERE target = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare load statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT state FROM target_states ORDER BY target
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`
		DELETE FROM target_states WHERE target = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	return nil
}

// Save persists the state for a target.
func (s *SQLiteStore) Save(ctx context.Context, state *TargetState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Target == "" {
		return fmt.Errorf("target cannot be empty")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.saveStmt.ExecContext(ctx,
		state.Target,
		string(data),
		state.UpdatedAt.Unix(),
		state.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	return nil
}

// Load retrieves the state for a target. Returns (nil, nil) when the target
// has no persisted state.
func (s *SQLiteStore) Load(ctx context.Context, target string) (*TargetState, error) {
	if target == "" {
		return nil, fmt.Errorf("target cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.loadStmt.QueryRowContext(ctx, target).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var state TargetState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return &state, nil
}

// List retrieves the states of all known targets.
func (s *SQLiteStore) List(ctx context.Context) ([]*TargetState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	defer rows.Close()

	var states []*TargetState
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}

		var state TargetState
		if err := json.Unmarshal([]byte(data), &state); err != nil {
			return nil, fmt.Errorf("failed to unmarshal state: %w", err)
		}
		states = append(states, &state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}

	return states, nil
}

// Delete removes the persisted state for a target.
func (s *SQLiteStore) Delete(ctx context.Context, target string) error {
	if target == "" {
		return fmt.Errorf("target cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.deleteStmt.ExecContext(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}

	return nil
}

// Close stops the checkpoint loop and closes the database.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		if s.saveStmt != nil {
			s.saveStmt.Close()
		}
		if s.loadStmt != nil {
			s.loadStmt.Close()
		}
		if s.listStmt != nil {
			s.listStmt.Close()
		}
		if s.deleteStmt != nil {
			s.deleteStmt.Close()
		}

		if s.db != nil {
			// Run final checkpoint
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}
