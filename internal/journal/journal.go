package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/k1lightwave/k1-dt/internal/twin"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - observations table with run/kind indexes
const currentSchemaVersion = 1

// Observation kinds recorded by the daemon.
const (
	KindServerStart   = "server_start"
	KindServerStop    = "server_stop"
	KindAssetsLoaded  = "assets_loaded"
	KindSnapshot      = "snapshot"
	KindAutoTickStart = "auto_tick_start"
	KindAutoTickStop  = "auto_tick_stop"
)

// Journal is an append-only observation log for one or more daemon runs.
// Rows within a run share the run id minted at Open.
type Journal struct {
	db    *sql.DB
	ids   IDGenerator
	runID string
}

// Option configures a Journal at open time.
type Option func(*Journal)

// WithIDGenerator overrides the identifier source. Tests use a
// FixedGenerator for stable row and run ids.
func WithIDGenerator(gen IDGenerator) Option {
	return func(j *Journal) {
		j.ids = gen
	}
}

// Open creates or opens a journal database at the given path and mints
// a fresh run id. Applies required pragmas and migrations automatically.
//
// SQLite supports one writer at a time, so the connection pool is
// pinned to a single connection.
func Open(path string, opts ...Option) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	j := &Journal{
		db:  db,
		ids: UUIDv7Generator{},
	}

	for _, opt := range opts {
		opt(j)
	}

	j.runID = j.ids.Generate()

	return j, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// RunID returns the identifier minted for this journal session. Every
// row recorded through this Journal carries it.
func (j *Journal) RunID() string {
	return j.runID
}

// Record appends one observation row. The snapshot pair and the engine
// version are stamped as-is; detail is free text for operator context
// (listen address, asset directory, stop reason).
func (j *Journal) Record(ctx context.Context, kind string, snap twin.Snapshot, detail string) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO observations
		(id, run_id, recorded_at_ms, kind, tick, assets, engine_version, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		j.ids.Generate(),
		j.runID,
		time.Now().UnixMilli(),
		kind,
		snap.Tick,
		snap.Assets,
		twin.Version,
		detail,
	)
	if err != nil {
		return fmt.Errorf("record observation: %w", err)
	}

	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and stamps the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}
