package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectPostgres opens a pgx pool for use with Postgres stores.
func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

const schemaKV = `
CREATE TABLE IF NOT EXISTS kv (
    store TEXT NOT NULL,
    key   TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (store, key)
)`

// EnsureSchema creates the kv table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaKV)
	return err
}

// Postgres backs a Store with one shared kv table, one row per key.
// Update runs inside a database transaction.
type Postgres struct {
	pool  *pgxpool.Pool
	store string
}

func NewPostgres(pool *pgxpool.Pool, store string) *Postgres {
	return &Postgres{pool: pool, store: store}
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM kv WHERE store=$1 AND key=$2`, p.store, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv: pg get %s: %w", key, err)
	}
	return v, true, nil
}

func (p *Postgres) Update(ctx context.Context, fn func(tx Tx) error) error {
	dbtx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("kv: pg begin: %w", err)
	}
	defer func() { _ = dbtx.Rollback(ctx) }()

	tx := &pgTx{ctx: ctx, dbtx: dbtx, store: p.store}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.err != nil {
		return tx.err
	}
	if err := dbtx.Commit(ctx); err != nil {
		return fmt.Errorf("kv: pg commit: %w", err)
	}
	return nil
}

// pgTx executes directly inside the transaction; rollback on abort
// restores atomicity. Errors from the error-less Tx methods are stashed
// and surfaced by Update.
type pgTx struct {
	ctx   context.Context
	dbtx  pgx.Tx
	store string
	err   error
}

func (t *pgTx) Get(key string) (string, bool) {
	var v string
	err := t.dbtx.QueryRow(t.ctx,
		`SELECT value FROM kv WHERE store=$1 AND key=$2`, t.store, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false
	}
	if err != nil {
		if t.err == nil {
			t.err = fmt.Errorf("kv: pg tx get %s: %w", key, err)
		}
		return "", false
	}
	return v, true
}

func (t *pgTx) Set(key, value string) {
	_, err := t.dbtx.Exec(t.ctx,
		`INSERT INTO kv (store, key, value) VALUES ($1,$2,$3)
		 ON CONFLICT (store, key) DO UPDATE SET value=EXCLUDED.value`,
		t.store, key, value)
	if err != nil && t.err == nil {
		t.err = fmt.Errorf("kv: pg tx set %s: %w", key, err)
	}
}

func (t *pgTx) Delete(key string) {
	_, err := t.dbtx.Exec(t.ctx,
		`DELETE FROM kv WHERE store=$1 AND key=$2`, t.store, key)
	if err != nil && t.err == nil {
		t.err = fmt.Errorf("kv: pg tx delete %s: %w", key, err)
	}
}
