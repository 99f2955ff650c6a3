package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"github.com/yungbote/allthebeans-backend/internal/logger"
)

// ConcurrencyLimiter bounds the number of requests handled at once. Up to
// permitLimit requests run concurrently; up to queueLimit more wait for a
// permit; anything beyond that is rejected with 429.
type ConcurrencyLimiter struct {
	log     *logger.Logger
	permits *semaphore.Weighted
	slots   *semaphore.Weighted
}

func NewConcurrencyLimiter(baseLog *logger.Logger, permitLimit, queueLimit int) *ConcurrencyLimiter {
	if permitLimit < 1 {
		permitLimit = 1
	}
	if queueLimit < 0 {
		queueLimit = 0
	}
	mwLog := baseLog.With("middleware", "ConcurrencyLimiter")
	return &ConcurrencyLimiter{
		log:     mwLog,
		permits: semaphore.NewWeighted(int64(permitLimit)),
		slots:   semaphore.NewWeighted(int64(permitLimit + queueLimit)),
	}
}

func (cl *ConcurrencyLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		// A slot covers both running and queued requests; no slot free
		// means the queue is full.
		if !cl.slots.TryAcquire(1) {
			cl.log.Debug("Rejecting request, concurrency queue full", "path", c.FullPath())
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		defer cl.slots.Release(1)

		if err := cl.permits.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		defer cl.permits.Release(1)

		c.Next()
	}
}
