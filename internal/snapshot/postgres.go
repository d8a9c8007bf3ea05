package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"regexp"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresStore keeps one row per key in a snapshot table.
type PostgresStore struct {
	db     *sql.DB
	table  string
	closer io.Closer
}

// NewPostgresStore wraps an open database. table must be a plain identifier.
func NewPostgresStore(db *sql.DB, table string) (*PostgresStore, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid snapshot table name %q", table)
	}
	return &PostgresStore{db: db, table: table}, nil
}

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := "CREATE TABLE IF NOT EXISTS " + s.table +
		" (key TEXT PRIMARY KEY, data JSONB NOT NULL, updated_at TIMESTAMPTZ NOT NULL DEFAULT now())"
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create snapshot table: %w", err)
	}
	return nil
}

// Load reads the snapshot for key.
func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM "+s.table+" WHERE key = $1", key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select snapshot %s: %w", key, err)
	}
	return data, nil
}

// Save upserts the snapshot for key.
func (s *PostgresStore) Save(ctx context.Context, key string, data []byte) error {
	query := "INSERT INTO " + s.table + " (key, data, updated_at) VALUES ($1, $2, now())" +
		" ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at"
	if _, err := s.db.ExecContext(ctx, query, key, data); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Close() error { return closeIfSet(s.closer) }
