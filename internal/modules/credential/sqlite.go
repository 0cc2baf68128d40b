package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS client_store (
		namespace  TEXT     NOT NULL,
		key        TEXT     NOT NULL,
		value      TEXT     NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (namespace, key)
	)`

type sqliteRepo struct {
	db        *sql.DB
	namespace string
}

// OpenSQLite opens (or creates) the local credential file and makes sure the table exists.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a single writer avoids SQLITE_BUSY between the session and logout paths
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return db, nil
}

// NewSQLiteRepository stores credentials for one namespace in a local SQLite database.
func NewSQLiteRepository(db *sql.DB, namespace string) Repository {
	return &sqliteRepo{db: db, namespace: namespace}
}

func (r *sqliteRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM client_store WHERE namespace = ? AND key = ?`,
		r.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *sqliteRepo) Put(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO client_store (namespace, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		r.namespace, key, value)
	return err
}

func (r *sqliteRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM client_store WHERE namespace = ? AND key = ?`,
		r.namespace, key)
	return err
}
