package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbt/internal/ratelimit/models"
	id "tbt/pkg/domain"
	"tbt/pkg/requestcontext"
)

type stubLimiter struct {
	result     *models.RateLimitResult
	err        error
	userID, ip string
	calls      int
}

func (s *stubLimiter) CheckCodeAttempt(_ context.Context, userID, ip string) (*models.RateLimitResult, error) {
	s.calls++
	s.userID, s.ip = userID, ip
	return s.result, s.err
}

func serve(t *testing.T, m *Middleware, user id.UserID) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	reached := false
	h := m.CodeAttempts(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusCreated)
	}))
	req := httptest.NewRequest(http.MethodPost, "/transfers/claims", nil)
	ctx := requestcontext.WithClientMetadata(req.Context(), "203.0.113.7", "test")
	if !user.IsNil() {
		ctx = requestcontext.WithUserID(ctx, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(ctx))
	return rec, reached
}

func TestCodeAttempts(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reset := time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)
	user := id.UserID(uuid.New())

	t.Run("allowed requests carry headers", func(t *testing.T) {
		limiter := &stubLimiter{result: &models.RateLimitResult{Allowed: true, Limit: 10, Remaining: 9, ResetAt: reset}}
		rec, reached := serve(t, New(limiter, logger), user)

		assert.True(t, reached)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
		assert.Equal(t, "1772366460", rec.Header().Get("X-RateLimit-Reset"))
		assert.Empty(t, rec.Header().Get("X-RateLimit-Status"))
		assert.Equal(t, user.String(), limiter.userID)
		assert.Equal(t, "203.0.113.7", limiter.ip)
	})

	t.Run("exceeded returns 429", func(t *testing.T) {
		limiter := &stubLimiter{result: &models.RateLimitResult{Allowed: false, Limit: 10, ResetAt: reset, RetryAfter: 42}}
		rec, reached := serve(t, New(limiter, logger), user)

		assert.False(t, reached)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "42", rec.Header().Get("Retry-After"))
		var body models.RateLimitExceededResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "rate_limit_exceeded", body.Error)
		assert.Equal(t, 42, body.RetryAfter)
	})

	t.Run("degraded mode is visible", func(t *testing.T) {
		limiter := &stubLimiter{result: &models.RateLimitResult{Allowed: true, Limit: 10, Remaining: 3, ResetAt: reset, Degraded: true}}
		rec, _ := serve(t, New(limiter, logger), user)
		assert.Equal(t, "degraded", rec.Header().Get("X-RateLimit-Status"))
	})

	t.Run("limiter errors fail open", func(t *testing.T) {
		limiter := &stubLimiter{err: errors.New("boom")}
		rec, reached := serve(t, New(limiter, logger), id.UserID{})

		assert.True(t, reached)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Empty(t, limiter.userID)
	})

	t.Run("disabled skips the limiter", func(t *testing.T) {
		limiter := &stubLimiter{}
		_, reached := serve(t, New(limiter, logger, WithDisabled(true)), user)
		assert.True(t, reached)
		assert.Zero(t, limiter.calls)
	})
}
