package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	pgUndefinedTable = "42P01"

	DefaultDocumentName = "default"
)

var ErrSchemaMissing = errors.New("store_documents table does not exist")

// PostgresBackend keeps the document as jsonb in one row of store_documents.
type PostgresBackend struct {
	db   *sql.DB
	name string
}

func NewPostgresBackend(db *sql.DB, name string) *PostgresBackend {
	if name == "" {
		name = DefaultDocumentName
	}
	return &PostgresBackend{db: db, name: name}
}

func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := b.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS store_documents (
				name       TEXT PRIMARY KEY,
				body       JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`)
		return err
	})
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return b.db.PingContext(ctx)
	})
}

func (b *PostgresBackend) Load(ctx context.Context) (Document, bool, error) {
	var raw []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return b.db.QueryRowContext(ctx, `
			SELECT body
			FROM store_documents
			WHERE name = $1
		`, b.name).Scan(&raw)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, false, nil
	}
	if isUndefinedTable(err) {
		return Document{}, false, ErrSchemaMissing
	}
	if err != nil {
		return Document{}, false, err
	}

	doc, err := DecodeDocument(raw)
	if err != nil {
		return Document{}, false, fmt.Errorf("decode document %q: %w", b.name, err)
	}
	return doc, true, nil
}

func (b *PostgresBackend) Save(ctx context.Context, doc Document) error {
	raw, err := EncodeDocument(doc)
	if err != nil {
		return err
	}

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := b.db.ExecContext(ctx, `
			INSERT INTO store_documents (name, body, updated_at)
			VALUES ($1, $2::jsonb, now())
			ON CONFLICT (name) DO UPDATE
			SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
		`, b.name, string(raw))
		return err
	})
	if isUndefinedTable(err) {
		return ErrSchemaMissing
	}
	return err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable
}
