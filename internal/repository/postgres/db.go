package postgres

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/paseoapp/walk-api/internal/config"
)

// NewDB opens a pool for the configured driver and verifies it with a ping.
func NewDB(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "sqlite3" {
		// A single connection keeps :memory: databases alive and serializes writers.
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the schema if it does not exist.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements(db.DriverName()) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func schemaStatements(driver string) []string {
	tsType, jsonType := "TIMESTAMPTZ", "JSONB"
	if driver == "sqlite3" {
		tsType, jsonType = "TIMESTAMP", "TEXT"
	}
	ddl := strings.NewReplacer("{{ts}}", tsType, "{{json}}", jsonType).Replace(schema)

	var stmts []string
	for _, stmt := range strings.Split(ddl, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	role_id INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pets (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL REFERENCES users(id),
	name TEXT NOT NULL,
	zone TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS walker_profiles (
	user_id TEXT PRIMARY KEY REFERENCES users(id),
	balance BIGINT NOT NULL DEFAULT 0,
	zone TEXT NOT NULL DEFAULT '',
	created_at {{ts}} NOT NULL,
	updated_at {{ts}} NOT NULL
);

CREATE TABLE IF NOT EXISTS walks (
	id TEXT PRIMARY KEY,
	walk_type TEXT NOT NULL,
	status TEXT NOT NULL,
	client_id TEXT NOT NULL REFERENCES users(id),
	walker_id TEXT REFERENCES users(id),
	comments TEXT NOT NULL DEFAULT '',
	created_at {{ts}} NOT NULL,
	updated_at {{ts}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_walks_client ON walks(client_id);
CREATE INDEX IF NOT EXISTS idx_walks_walker ON walks(walker_id);

CREATE TABLE IF NOT EXISTS days_walk (
	id TEXT PRIMARY KEY,
	walk_id TEXT NOT NULL REFERENCES walks(id),
	walk_date DATE NOT NULL,
	start_time TEXT NOT NULL,
	duration INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_days_walk_walk ON days_walk(walk_id);

CREATE TABLE IF NOT EXISTS walk_pets (
	walk_id TEXT NOT NULL REFERENCES walks(id),
	pet_id TEXT NOT NULL REFERENCES pets(id),
	PRIMARY KEY (walk_id, pet_id)
);

CREATE TABLE IF NOT EXISTS payments (
	id TEXT PRIMARY KEY,
	walk_id TEXT NOT NULL REFERENCES walks(id),
	kind TEXT NOT NULL,
	amount BIGINT NOT NULL,
	status TEXT NOT NULL,
	walker_assigned BOOLEAN NOT NULL DEFAULT FALSE,
	walker_amount BIGINT,
	commission_amount BIGINT,
	assignment_date {{ts}},
	created_at {{ts}} NOT NULL,
	updated_at {{ts}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_payments_walk ON payments(walk_id);

CREATE TABLE IF NOT EXISTS ratings (
	id TEXT PRIMARY KEY,
	walk_id TEXT NOT NULL REFERENCES walks(id),
	sender_id TEXT NOT NULL REFERENCES users(id),
	receiver_id TEXT NOT NULL REFERENCES users(id),
	value INTEGER NOT NULL CHECK (value BETWEEN 0 AND 5),
	comment TEXT NOT NULL,
	created_at {{ts}} NOT NULL,
	UNIQUE (walk_id, sender_id)
);

CREATE TABLE IF NOT EXISTS outbox_events (
	id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	payload {{json}} NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT,
	retry_count INTEGER NOT NULL DEFAULT 0,
	retry_at {{ts}},
	created_at {{ts}} NOT NULL,
	processed_at {{ts}},
	updated_at {{ts}} NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_events(status, created_at)
`
