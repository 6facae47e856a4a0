// Package ratelimit throttles sensitive endpoints per client with a fixed
// window counter kept in redis.
package ratelimit

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
)

// RedisClient is the slice of the redis client the limiter needs.
type RedisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// incr bumps the window counter and starts its expiry on first hit.
const incr = `
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`

type Limiter struct {
	client RedisClient
	limit  int
	window time.Duration
	now    func() time.Time
}

func New(client RedisClient, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window, now: time.Now}
}

// NewRedis connects to addr. Ping failures are returned so callers can
// decide to run without a limiter.
func NewRedis(ctx context.Context, addr, password string, limit int) (*Limiter, *redis.Client, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return New(c, limit, time.Minute), c, nil
}

// Allow counts one hit for key in the current window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	slot := l.now().UnixNano() / int64(l.window)
	k := "ratelimit:" + key + ":" + strconv.FormatInt(slot, 10)
	n, err := l.client.Eval(ctx, incr, []string{k}, l.window.Milliseconds()).Int64()
	if err != nil {
		return true, 0, err
	}
	if n > int64(l.limit) {
		retry := time.Duration((slot+1)*int64(l.window)) - time.Duration(l.now().UnixNano())
		return false, retry, nil
	}
	return true, 0, nil
}

// Middleware limits each client IP on the wrapped routes under name.
// Redis failures let the request through.
func (l *Limiter) Middleware(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry, err := l.Allow(r.Context(), name+":"+clientIP(r))
			if err != nil {
				zlog.Warn().Err(err).Str("limit", name).Msg("rate limiter unavailable")
			}
			if !ok {
				secs := int(retry.Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
