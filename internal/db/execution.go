package db

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/allthebeans-backend/internal/logger"
)

// ErrConcurrentUpdate marks a transaction body that observed another writer
// winning a race (for example a duplicate ledger row for today). The
// execution strategy re-runs the whole body from scratch.
var ErrConcurrentUpdate = errors.New("concurrent update, retrying transaction")

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = 20 * time.Millisecond
)

// ExecutionStrategy runs a transaction body under serializable isolation and
// retries the whole body on transient failures. Cross-request coordination
// is delegated entirely to the database's conflict detection; there are no
// in-process locks.
type ExecutionStrategy struct {
	db          *gorm.DB
	log         *logger.Logger
	maxAttempts int
	baseDelay   time.Duration
}

func NewExecutionStrategy(db *gorm.DB, baseLog *logger.Logger) *ExecutionStrategy {
	strategyLog := baseLog.With("component", "ExecutionStrategy")
	return &ExecutionStrategy{
		db:          db,
		log:         strategyLog,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
}

// Serializable executes fn inside one serializable transaction. On a
// transient failure the transaction is rolled back and fn is re-executed
// from its first statement; fn must therefore be safe to run repeatedly.
func (s *ExecutionStrategy) Serializable(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		lastErr = s.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{
			Isolation: sql.LevelSerializable,
		})
		if lastErr == nil {
			return nil
		}
		if !IsTransient(lastErr) || attempt == s.maxAttempts {
			return lastErr
		}
		delay := jitteredBackoff(s.baseDelay, attempt)
		s.log.Debug("Transient transaction failure, retrying", "attempt", attempt, "delay", delay, "error", lastErr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// IsTransient reports whether err is worth re-running the transaction for:
// serialization conflicts and deadlocks from Postgres, lock contention from
// sqlite (used in tests), and the explicit concurrent-update marker.
// Cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrConcurrentUpdate) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40001 serialization_failure, 40P01 deadlock_detected
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked") {
		return true
	}
	return false
}

func jitteredBackoff(base time.Duration, attempt int) time.Duration {
	backoff := base << uint(attempt-1)
	jitter := time.Duration(rand.Int63n(int64(base)))
	return backoff + jitter
}
