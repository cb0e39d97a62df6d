package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
)

// Decision is the outcome of a single limiter check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Fixed adapts a ulule fixed-window limiter, configured with a formatted rate
// such as "30-M".
type Fixed struct {
	L *limiter.Limiter
}

// NewFixed parses rate and builds a limiter on store.
func NewFixed(store limiter.Store, rate string) (Fixed, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return Fixed{}, fmt.Errorf("parse rate %q: %w", rate, err)
	}
	return Fixed{L: limiter.New(store, parsed)}, nil
}

func (f Fixed) Allow(ctx context.Context, key string) (Decision, error) {
	if f.L == nil {
		return Decision{Allowed: true}, nil
	}
	lc, err := f.L.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !lc.Reached,
		Limit:     int(lc.Limit),
		Remaining: int(lc.Remaining),
		Reset:     time.Unix(lc.Reset, 0),
	}, nil
}

// Sliding is a sliding-window limiter on a Redis sorted set. Every call is
// recorded, so rejected attempts also extend the window.
type Sliding struct {
	Client *redis.Client
	Prefix string
	Window time.Duration
	Max    int
	now    func() time.Time
}

func (l Sliding) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	if l.now != nil {
		now = l.now()
	}
	reset := now.Add(l.Window)
	if l.Client == nil || l.Max <= 0 || l.Window <= 0 {
		return Decision{Allowed: true, Limit: l.Max, Remaining: l.Max, Reset: reset}, nil
	}

	redisKey := l.Prefix + key
	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("%d", now.Add(-l.Window).UnixNano()))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	count := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	current := int(count.Val())
	return Decision{
		Allowed:   current <= l.Max,
		Limit:     l.Max,
		Remaining: max(l.Max-current, 0),
		Reset:     reset,
	}, nil
}
