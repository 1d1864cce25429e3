// Package sqlstore stores blobs in a key/value table through database/sql.
// SQLite (mattn/go-sqlite3) and PostgreSQL (pgx stdlib driver) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/mattn/go-sqlite3"
	"github.com/tendant/roastery-portal/pkg/contentstore"
)

// Dialect selects the SQL flavour.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Backend implements contentstore.BlobStore on a single table:
//
//	portal_blobs(key PRIMARY KEY, value, updated_at)
type Backend struct {
	db      *sql.DB
	dialect Dialect
	owned   bool
}

// Open connects with the dialect's driver and creates the table if needed.
// For SQLite, dsn is a file path; its directory is created.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Backend, error) {
	var driver string
	switch dialect {
	case DialectSQLite:
		driver = "sqlite3"
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, err
		}
	case DialectPostgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unknown sql dialect: %q (supported: sqlite, postgres)", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if dialect == DialectSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, err
		}
	}

	b := &Backend{db: db, dialect: dialect, owned: true}
	if err := b.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// NewWithDB wraps an existing handle. The table is not created; call Migrate.
func NewWithDB(db *sql.DB, dialect Dialect) *Backend {
	return &Backend{db: db, dialect: dialect}
}

// Migrate creates the blob table if it does not exist.
func (b *Backend) Migrate(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS portal_blobs (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`
	if b.dialect == DialectPostgres {
		ddl = `CREATE TABLE IF NOT EXISTS portal_blobs (
		key TEXT PRIMARY KEY,
		value BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`
	}
	if _, err := b.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create portal_blobs: %w", err)
	}
	return nil
}

// Close closes the handle if the backend opened it.
func (b *Backend) Close() error {
	if !b.owned {
		return nil
	}
	return b.db.Close()
}

func (b *Backend) bind(query string) string {
	if b.dialect != DialectPostgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, fmt.Sprintf("$%d", n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx, b.bind("SELECT value FROM portal_blobs WHERE key = ?"), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, contentstore.ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *Backend) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx, b.bind(
		`INSERT INTO portal_blobs (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, value, time.Now().UTC(),
	)
	if err != nil {
		if isCapacityError(err) {
			return fmt.Errorf("%w: %v", contentstore.ErrQuotaExceeded, err)
		}
		return err
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, b.bind("DELETE FROM portal_blobs WHERE key = ?"), key)
	return err
}

func isCapacityError(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrFull || liteErr.Code == sqlite3.ErrTooBig
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// disk_full, program_limit_exceeded
		return pgErr.Code == "53100" || pgErr.Code == "54000"
	}
	return false
}
