package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"tbt/internal/ratelimit/models"
	"tbt/pkg/platform/httputil"
	"tbt/pkg/requestcontext"
)

type CodeAttemptLimiter interface {
	CheckCodeAttempt(ctx context.Context, userID, ip string) (*models.RateLimitResult, error)
}

type Middleware struct {
	limiter  CodeAttemptLimiter
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the limiter off (load tests, local demos).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(limiter CodeAttemptLimiter, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter: limiter,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("code attempt rate limiting disabled")
	}
	return m
}

// CodeAttempts throttles transfer-code submissions. It must run after the
// auth and client metadata middleware so both subjects are known.
func (m *Middleware) CodeAttempts(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)
		var userID string
		if uid := requestcontext.UserID(ctx); !uid.IsNil() {
			userID = uid.String()
		}

		result, err := m.limiter.CheckCodeAttempt(ctx, userID, ip)
		if err != nil {
			// Fail open: the code check itself stays generic and the CAS is authoritative.
			m.logger.ErrorContext(ctx, "failed to check code attempt limit",
				"error", err,
				"user_id", userID,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if !result.Allowed {
			writeRateLimitExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	if result.Degraded {
		w.Header().Set("X-RateLimit-Status", "degraded")
	}
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many transfer code attempts. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
