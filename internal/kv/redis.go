package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient dials a Redis server for use with Redis stores.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Redis backs a Store with a Redis server. Keys are namespaced as
// <store>:<key>. Staged writes are applied in one MULTI/EXEC pipeline.
type Redis struct {
	rdb   *redis.Client
	store string
}

func NewRedis(rdb *redis.Client, store string) *Redis {
	return &Redis{rdb: rdb, store: store}
}

func (r *Redis) key(k string) string {
	return r.store + ":" + k
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv: redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) Update(ctx context.Context, fn func(tx Tx) error) error {
	tx := &redisTx{ctx: ctx, r: r, writes: map[string]*string{}}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.err != nil {
		return tx.err
	}
	if len(tx.writes) == 0 {
		return nil
	}

	pipe := r.rdb.TxPipeline()
	for k, w := range tx.writes {
		if w == nil {
			pipe.Del(ctx, r.key(k))
			continue
		}
		pipe.Set(ctx, r.key(k), *w, 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("kv: redis exec: %w", err)
	}
	return nil
}

// redisTx reads through to the server and stages writes locally. Tx.Get
// has no error return, so a failed read is remembered and aborts the
// Update after fn runs.
type redisTx struct {
	ctx    context.Context
	r      *Redis
	writes map[string]*string
	err    error
}

func (t *redisTx) Get(key string) (string, bool) {
	if w, ok := t.writes[key]; ok {
		if w == nil {
			return "", false
		}
		return *w, true
	}
	v, ok, err := t.r.Get(t.ctx, key)
	if err != nil && t.err == nil {
		t.err = err
	}
	return v, ok
}

func (t *redisTx) Set(key, value string) {
	v := value
	t.writes[key] = &v
}

func (t *redisTx) Delete(key string) {
	t.writes[key] = nil
}
