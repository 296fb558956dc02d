package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/honey-market/pkg/httpmiddleware"
)

var _ httpmiddleware.Limiter = (*Limiter)(nil)

// Limiter is a sliding window rate limiter shared by all replicas. Each
// request is a member of a per-key sorted set scored by its timestamp.
type Limiter struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
}

// NewLimiter allows max requests per window for every key.
func NewLimiter(client *redis.Client, max int, window time.Duration) *Limiter {
	return &Limiter{client: client, prefix: "ratelimit:", max: max, window: window}
}

// Allow implements httpmiddleware.Limiter.
func (l *Limiter) Allow(ctx context.Context, key string, now time.Time) (httpmiddleware.Decision, error) {
	k := l.prefix + key
	cutoff := now.Add(-l.window).UnixNano()

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, k, "-inf", strconv.FormatInt(cutoff, 10))
	pipe.ZAdd(ctx, k, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	card := pipe.ZCard(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return httpmiddleware.Decision{}, errors.Wrap(err, "rate limit")
	}

	n := int(card.Val())
	return httpmiddleware.Decision{
		Allowed:   n <= l.max,
		Remaining: max(l.max-n, 0),
		Reset:     now.Add(l.window),
	}, nil
}
