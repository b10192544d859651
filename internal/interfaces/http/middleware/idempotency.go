package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comercia/backend/internal/infrastructure/cache"
	"github.com/comercia/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader carries the client-chosen key for retry-safe posting
const IdempotencyKeyHeader = "Idempotency-Key"

// maxIdempotencyKeyLength bounds the key so it stays usable as a cache key
const maxIdempotencyKeyLength = 128

// Idempotency rejects a request whose Idempotency-Key has already been
// accepted within the TTL. The key is claimed before the handler runs and
// released again when the handler fails, so a client may retry a failed
// request with the same key. Requests without the header pass through.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponse(dto.ErrCodeBadRequest, "Idempotency-Key too long"))
			return
		}

		// Scope the key per tenant so tenants cannot collide
		scoped := GetJWTTenantID(c)
		if scoped == "" {
			scoped = c.GetHeader("X-Tenant-ID")
		}
		scoped = scoped + ":" + key

		claimed, err := store.MarkProcessed(c.Request.Context(), scoped, ttl)
		if err != nil {
			// Fail open: a broken idempotency store must not block sales
			if log != nil {
				log.Error("idempotency store unavailable", zap.Error(err))
			}
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict,
				dto.NewErrorResponse("DUPLICATE_REQUEST", "A request with this Idempotency-Key was already processed"))
			return
		}

		c.Next()

		// The claim only sticks for successful outcomes; a failed request
		// may be retried with the same key.
		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(c.Request.Context(), scoped); err != nil && log != nil {
				log.Warn("failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
