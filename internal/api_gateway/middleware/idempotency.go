package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyKeyHeader   = "Idempotency-Key"
	IdempotentReplayHeader = "Idempotent-Replayed"

	idempotencyPrefix = "idempotency:v1:"
	inProgressMarker  = "__in_progress__"
	redisOpTimeout    = 2 * time.Second
	maxIdempotencyKey = 255
)

type storedResponse struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// fingerprint reads the request body, restores it for the handler and
// returns its SHA-256 digest.
func fingerprint(c *gin.Context) (string, error) {
	if c.Request.Body == nil {
		sum := sha256.Sum256(nil)
		return hex.EncodeToString(sum[:]), nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", err
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a POST that repeats an
// Idempotency-Key already seen for the same caller. A repeat that arrives
// while the first request is still running gets 409; a repeat with a
// different body gets 422. Requests without the header are not affected.
// Server errors are not stored so the caller may retry.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKey {
			abortWithError(c, http.StatusBadRequest, "BAD_REQUEST", "Idempotency-Key is too long")
			return
		}

		cacheKey := idempotencyPrefix
		if id, ok := GetIdentity(c); ok {
			cacheKey += strconv.FormatInt(id.UserID, 10) + ":"
		}
		cacheKey += c.FullPath() + ":" + key

		digest, err := fingerprint(c)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "BAD_REQUEST", "Failed to read request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), redisOpTimeout)
		defer cancel()

		reserved, err := cache.SetNX(ctx, cacheKey, inProgressMarker+digest, ttl).Result()
		if err != nil {
			logger.Error("idempotency reservation failed", "key", key, "error", err)
			abortWithError(c, http.StatusInternalServerError,
				"INTERNAL_SERVER_ERROR", "An internal server error occurred")
			return
		}
		if !reserved {
			replay(c, cache, cacheKey, key, digest, logger)
			return
		}

		writer := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		persistCtx, persistCancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), redisOpTimeout)
		defer persistCancel()

		status := writer.Status()
		if status >= http.StatusInternalServerError {
			if err := cache.Del(persistCtx, cacheKey).Err(); err != nil {
				logger.Warn("failed to release idempotency key", "key", key, "error", err)
			}
			return
		}

		payload, err := json.Marshal(storedResponse{
			Fingerprint: digest,
			Status:      status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
		})
		if err == nil {
			err = cache.Set(persistCtx, cacheKey, payload, ttl).Err()
		}
		if err != nil {
			logger.Error("failed to persist idempotent response", "key", key, "error", err)
			cache.Del(persistCtx, cacheKey)
		}
	}
}

func replay(c *gin.Context, cache *redis.Client, cacheKey, key, digest string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), redisOpTimeout)
	defer cancel()

	cached, err := cache.Get(ctx, cacheKey).Result()
	if errors.Is(err, redis.Nil) {
		abortWithError(c, http.StatusConflict, "CONFLICT", "A request with this Idempotency-Key is in progress")
		return
	}
	if err != nil {
		logger.Error("idempotency lookup failed", "key", key, "error", err)
		abortWithError(c, http.StatusInternalServerError,
			"INTERNAL_SERVER_ERROR", "An internal server error occurred")
		return
	}

	if running, ok := strings.CutPrefix(cached, inProgressMarker); ok {
		if running != digest {
			keyReused(c, key, logger)
			return
		}
		abortWithError(c, http.StatusConflict, "CONFLICT", "A request with this Idempotency-Key is in progress")
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(cached), &stored); err != nil {
		logger.Warn("failed to decode stored idempotent response", "key", key, "error", err)
		abortWithError(c, http.StatusConflict, "CONFLICT", "Duplicate request")
		return
	}

	if stored.Fingerprint != digest {
		keyReused(c, key, logger)
		return
	}

	logger.Info("replaying idempotent response", "key", key, "status", stored.Status)
	c.Header(IdempotentReplayHeader, "true")
	c.Data(stored.Status, stored.ContentType, stored.Body)
	c.Abort()
}

func keyReused(c *gin.Context, key string, logger *slog.Logger) {
	logger.Warn("idempotency key reused with a different body", "key", key)
	abortWithError(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED",
		"Idempotency-Key was already used with a different request body")
}
