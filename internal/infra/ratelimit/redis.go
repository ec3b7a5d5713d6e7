package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrLimited = errors.New("ratelimit: limit exceeded")

// incrementLua counts a hit in the fixed window and starts the window TTL on
// the first hit. Running it as a script keeps INCR and PEXPIRE atomic.
const incrementLua = `
	local current = redis.call("INCR", KEYS[1])
	if tonumber(current) == 1 then
		redis.call("PEXPIRE", KEYS[1], ARGV[1])
	end
	return current
`

// FixedWindow is a Redis-backed fixed window rate limiter shared by every
// instance of the service.
type FixedWindow struct {
	client *redis.Client
	script *redis.Script
	max    int64
	window time.Duration
}

type Result struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetIn   time.Duration
}

func NewFixedWindow(client *redis.Client, max int64, window time.Duration) *FixedWindow {
	if max <= 0 {
		max = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &FixedWindow{
		client: client,
		script: redis.NewScript(incrementLua),
		max:    max,
		window: window,
	}
}

// Allow counts one hit for the key and reports whether it fits in the window.
func (l *FixedWindow) Allow(ctx context.Context, key string) (Result, error) {
	res, err := l.script.Run(ctx, l.client, []string{key}, l.window.Milliseconds()).Result()
	if err != nil {
		return Result{}, err
	}
	current, ok := res.(int64)
	if !ok {
		return Result{}, errors.New("ratelimit: unexpected script reply")
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = l.window
	}

	remaining := l.max - current
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   current <= l.max,
		Limit:     l.max,
		Remaining: remaining,
		ResetIn:   ttl,
	}, nil
}
