package credential

import (
	"context"
	"database/sql"
	"errors"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS client_store (
		namespace  TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		value      TEXT        NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (namespace, key)
	)`

type postgresRepo struct {
	db        *sql.DB
	namespace string
}

// NewPostgresRepository stores credentials for one namespace in a shared PostgreSQL table.
func NewPostgresRepository(db *sql.DB, namespace string) Repository {
	return &postgresRepo{db: db, namespace: namespace}
}

// EnsurePostgresSchema creates the client_store table when it is missing.
func EnsurePostgresSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, postgresSchema)
	return err
}

func (r *postgresRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM client_store WHERE namespace = $1 AND key = $2`,
		r.namespace, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *postgresRepo) Put(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO client_store (namespace, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		r.namespace, key, value)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM client_store WHERE namespace = $1 AND key = $2`,
		r.namespace, key)
	return err
}
