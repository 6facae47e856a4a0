package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeRedis counts keys the way the lua script does.
type fakeRedis struct {
	counts map[string]int64
	err    error
}

func (f *fakeRedis) Eval(ctx context.Context, _ string, keys []string, _ ...interface{}) *redis.Cmd {
	if f.err != nil {
		return redis.NewCmdResult(nil, f.err)
	}
	f.counts[keys[0]]++
	return redis.NewCmdResult(f.counts[keys[0]], nil)
}

func TestAllowWithinWindow(t *testing.T) {
	fr := &fakeRedis{counts: map[string]int64{}}
	l := New(fr, 2, time.Minute)
	at := time.Date(2025, 1, 1, 10, 0, 15, 0, time.UTC)
	l.now = func() time.Time { return at }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, _, err := l.Allow(ctx, "login:1.2.3.4")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, retry, err := l.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 45*time.Second, retry)

	ok, _, err = l.Allow(ctx, "login:5.6.7.8")
	require.NoError(t, err)
	require.True(t, ok)

	at = at.Add(time.Minute)
	ok, _, err = l.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMiddleware(t *testing.T) {
	fr := &fakeRedis{counts: map[string]int64{}}
	h := New(fr, 1, time.Minute).Middleware("checkout")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	require.Equal(t, http.StatusNoContent, do().Code)
	rec := do()
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.JSONEq(t, `{"error":"too many requests"}`, rec.Body.String())

	fr.err = errors.New("connection refused")
	require.Equal(t, http.StatusNoContent, do().Code)
}
