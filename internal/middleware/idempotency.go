package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Structured logging
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
)

// storedResponse is the replayable outcome persisted under the key.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

// bodyCapture duplicates the response body while it is written so the
// outcome can be stored for replay.
type bodyCapture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware makes a mutating endpoint safe to resubmit: when the
// client sends an Idempotency-Key header, the first request reserves the key
// in Redis, its response is stored for the TTL, and any resubmission with the
// same key gets the stored response replayed. A duplicate arriving while the
// first request is still in flight is answered with 409. Requests without the
// header pass through untouched.
//
// Keys are scoped to the authenticated user: two users presenting the same
// header value never share a stored response.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyKeyHeader)
		if rdb == nil || key == "" {
			c.Next()
			return
		}
		userID, exists := c.Get("userID") // Set by JWTAuthMiddleware
		if !exists {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		cacheKey := idempotencyPrefix + strconv.FormatUint(uint64(userID.(uint)), 10) + ":" + key

		cached, err := rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			if cached == inProgressMarker {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"success": false, "error": "Duplicate request currently processing"})
				return
			}
			var stored storedResponse
			if err := json.Unmarshal([]byte(cached), &stored); err != nil {
				logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Failed to decode stored idempotent response")
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"success": false, "error": "Duplicate request"})
				return
			}
			c.Data(stored.Status, stored.ContentType, []byte(stored.Body))
			c.Abort()
			return
		}
		if err != redis.Nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Error("Idempotency lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Idempotency store failure"})
			return
		}

		// Reserve the key before running the handler.
		reserved, err := rdb.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
		if err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Error("Idempotency reservation failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Idempotency store failure"})
			return
		}
		if !reserved {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"success": false, "error": "Duplicate request currently processing"})
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		status := capture.Status()
		if status >= http.StatusInternalServerError {
			// Server-side failures are not a final outcome; let the client retry.
			rdb.Del(ctx, cacheKey)
			return
		}
		payload, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: capture.Header().Get("Content-Type"),
			Body:        capture.body.String(),
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Error("Failed to encode idempotent response")
			rdb.Del(ctx, cacheKey)
			return
		}
		if err := rdb.Set(ctx, cacheKey, payload, ttl).Err(); err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Error("Failed to persist idempotent response")
			rdb.Del(ctx, cacheKey)
		}
	}
}
