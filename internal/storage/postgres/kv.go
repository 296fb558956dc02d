package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xenking/honey-market/internal/domain/session"
)

const (
	getKVSQL = `SELECT value FROM session_kv WHERE key = $1 AND updated_at >= $2`

	setKVSQL = `INSERT INTO session_kv (key, value, updated_at) VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	removeKVSQL = `DELETE FROM session_kv WHERE key = $1`

	sweepKVSQL = `DELETE FROM session_kv WHERE updated_at < $1`
)

var _ session.Store = (*KV)(nil)

// KV is a session.Store kept in the session_kv table. Keys not written for
// longer than ttl read as absent and are removed by Sweep.
type KV struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
}

// NewKV returns a KV that uses the given pool. A zero ttl keeps keys forever.
func NewKV(pool *pgxpool.Pool, ttl time.Duration) *KV {
	return &KV{pool: pool, ttl: ttl, now: time.Now}
}

// cutoff is the oldest write time still considered live.
func (kv *KV) cutoff() time.Time {
	if kv.ttl <= 0 {
		return time.Time{}
	}
	return kv.now().Add(-kv.ttl)
}

// Get implements session.Store.
func (kv *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	if err := kv.pool.QueryRow(ctx, getKVSQL, key, kv.cutoff()).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("getting session key %q: %w", key, err)
	}
	return v, true, nil
}

// Set implements session.Store.
func (kv *KV) Set(ctx context.Context, key, value string) error {
	if _, err := kv.pool.Exec(ctx, setKVSQL, key, value, kv.now()); err != nil {
		return fmt.Errorf("setting session key %q: %w", key, err)
	}
	return nil
}

// Remove implements session.Store.
func (kv *KV) Remove(ctx context.Context, key string) error {
	if _, err := kv.pool.Exec(ctx, removeKVSQL, key); err != nil {
		return fmt.Errorf("removing session key %q: %w", key, err)
	}
	return nil
}

// Sweep deletes expired keys and returns how many were removed.
func (kv *KV) Sweep(ctx context.Context) (int64, error) {
	if kv.ttl <= 0 {
		return 0, nil
	}
	tag, err := kv.pool.Exec(ctx, sweepKVSQL, kv.cutoff())
	if err != nil {
		return 0, fmt.Errorf("sweeping session keys: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RunSweeper calls Sweep every interval until ctx is done. Failed sweeps are
// logged and retried on the next tick.
func (kv *KV) RunSweeper(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := kv.Sweep(ctx)
			if err != nil {
				if ctx.Err() == nil {
					zctx.From(ctx).Warn("Session sweep failed", zap.Error(err))
				}
				continue
			}
			if n > 0 {
				zctx.From(ctx).Debug("Swept expired sessions", zap.Int64("keys", n))
			}
		}
	}
}
