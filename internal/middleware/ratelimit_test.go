package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/allthebeans-backend/internal/testutil"
)

func limiterRouter(limiter *ConcurrencyLimiter, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/beans", limiter.Limit(), handler)
	return router
}

func TestLimiterPassesThroughWhenIdle(t *testing.T) {
	limiter := NewConcurrencyLimiter(testutil.NewTestLogger(t), 1, 0)
	router := limiterRouter(limiter, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/beans", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status=%d, want 200", i, rec.Code)
		}
	}
}

func TestLimiterRejectsOverflowWith429(t *testing.T) {
	limiter := NewConcurrencyLimiter(testutil.NewTestLogger(t), 1, 0)

	entered := make(chan struct{})
	release := make(chan struct{})
	router := limiterRouter(limiter, func(c *gin.Context) {
		entered <- struct{}{}
		<-release
		c.Status(http.StatusOK)
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/beans", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("held request: status=%d, want 200", rec.Code)
		}
	}()
	<-entered

	// With no queue slots the held request owns the only slot, so any
	// concurrent request is turned away immediately.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/beans", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("overflow request: status=%d, want 429", rec.Code)
	}

	close(release)
	wg.Wait()
}

func TestLimiterQueuedRequestRunsAfterPermitFrees(t *testing.T) {
	limiter := NewConcurrencyLimiter(testutil.NewTestLogger(t), 1, 1)

	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	router := limiterRouter(limiter, func(c *gin.Context) {
		entered <- struct{}{}
		<-release
		c.Status(http.StatusOK)
	})

	first := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/beans", nil))
		first <- rec.Code
	}()
	<-entered

	// The second request takes the queue slot and waits for the permit the
	// first request is still holding.
	second := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/beans", nil))
		second <- rec.Code
	}()

	close(release)
	if code := <-first; code != http.StatusOK {
		t.Fatalf("first request: status=%d, want 200", code)
	}
	if code := <-second; code != http.StatusOK {
		t.Fatalf("queued request: status=%d, want 200", code)
	}
}

func TestNewConcurrencyLimiterClampsInputs(t *testing.T) {
	limiter := NewConcurrencyLimiter(testutil.NewTestLogger(t), 0, -5)
	router := limiterRouter(limiter, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/beans", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", rec.Code)
	}
}
