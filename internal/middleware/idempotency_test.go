package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotencyRouter(t *testing.T) (*gin.Engine, *redis.Client, *int64) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	var calls int64
	r := gin.New()
	// Stand-in for JWTAuthMiddleware: the authenticated identity comes from a
	// test header.
	setUser := func(c *gin.Context) {
		if id, err := strconv.Atoi(c.GetHeader("X-Test-User")); err == nil {
			c.Set("userID", uint(id))
		}
	}
	r.POST("/send", setUser, IdempotencyMiddleware(rdb, time.Hour), func(c *gin.Context) {
		n := atomic.AddInt64(&calls, 1)
		c.JSON(http.StatusOK, gin.H{"success": true, "call": strconv.FormatInt(n, 10)})
	})
	return r, rdb, &calls
}

func doSend(r *gin.Engine, user uint, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/send", nil)
	req.Header.Set("X-Test-User", strconv.Itoa(int(user)))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	r, _, calls := newIdempotencyRouter(t)

	first := doSend(r, 1, "key-1")
	require.Equal(t, http.StatusOK, first.Code)

	second := doSend(r, 1, "key-1")
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.EqualValues(t, 1, *calls, "handler must run only once per key")

	// A different key executes the handler again.
	third := doSend(r, 1, "key-2")
	assert.Equal(t, http.StatusOK, third.Code)
	assert.NotEqual(t, first.Body.String(), third.Body.String())
	assert.EqualValues(t, 2, *calls)
}

func TestIdempotencyKeysAreScopedPerUser(t *testing.T) {
	r, _, calls := newIdempotencyRouter(t)

	first := doSend(r, 1, "shared-key")
	require.Equal(t, http.StatusOK, first.Code)

	// The same header value from a different user is a different request:
	// the handler runs again and the first user's response is not replayed.
	second := doSend(r, 2, "shared-key")
	require.Equal(t, http.StatusOK, second.Code)
	assert.NotEqual(t, first.Body.String(), second.Body.String())
	assert.EqualValues(t, 2, *calls)

	// Each user still replays their own stored response.
	assert.Equal(t, first.Body.String(), doSend(r, 1, "shared-key").Body.String())
	assert.Equal(t, second.Body.String(), doSend(r, 2, "shared-key").Body.String())
	assert.EqualValues(t, 2, *calls)
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	r, _, calls := newIdempotencyRouter(t)

	doSend(r, 1, "")
	doSend(r, 1, "")
	assert.EqualValues(t, 2, *calls)
}

func TestIdempotencyInFlightDuplicateConflicts(t *testing.T) {
	r, rdb, _ := newIdempotencyRouter(t)

	// Simulate a still-running first request by planting the marker under
	// the user-scoped key.
	require.NoError(t, rdb.Set(context.Background(),idempotencyPrefix+"7:key-busy", inProgressMarker, time.Hour).Err())

	w := doSend(r, 7, "key-busy")
	assert.Equal(t, http.StatusConflict, w.Code)
}
