// Package service throttles transfer-code guesses per user and per client IP.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tbt/internal/ratelimit/metrics"
	"tbt/internal/ratelimit/models"
	dErrors "tbt/pkg/domain-errors"
	"tbt/pkg/platform/circuit"
)

const (
	defaultLimit  = 10
	defaultWindow = time.Minute
)

// Store counts attempts in a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// Service checks both windows for a code submission. When a fallback store
// is configured, shared-store failures are absorbed by counting in process
// until the breaker lets a probe through again.
type Service struct {
	primary  Store
	fallback Store
	breaker  *circuit.Breaker
	limit    int
	window   time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLimit sets attempts allowed per window, for each scope.
func WithLimit(limit int, window time.Duration) Option {
	return func(s *Service) {
		if limit > 0 {
			s.limit = limit
		}
		if window > 0 {
			s.window = window
		}
	}
}

// WithFallback counts attempts in store while the primary is failing.
func WithFallback(store Store) Option {
	return func(s *Service) {
		s.fallback = store
	}
}

// WithBreaker replaces the default breaker guarding the primary store.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		if b != nil {
			s.breaker = b
		}
	}
}

func New(primary Store, opts ...Option) (*Service, error) {
	if primary == nil {
		return nil, errors.New("rate limit store is required")
	}
	s := &Service{
		primary: primary,
		limit:   defaultLimit,
		window:  defaultWindow,
		logger:  slog.Default(),
		breaker: circuit.New("ratelimit-store",
			circuit.WithFailureThreshold(5),
			circuit.WithSuccessThreshold(3),
			circuit.WithCooldown(10*time.Second),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CheckCodeAttempt records one guess against the IP window and, for an
// authenticated caller, the user window. A denied IP check does not consume
// the user's budget.
func (s *Service) CheckCodeAttempt(ctx context.Context, userID, ip string) (*models.RateLimitResult, error) {
	var result *models.RateLimitResult
	for _, subject := range []struct {
		scope models.Scope
		id    string
	}{
		{models.ScopeIP, ip},
		{models.ScopeUser, userID},
	} {
		if subject.id == "" {
			continue
		}
		res, err := s.allow(ctx, models.Key(subject.scope, subject.id))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check code attempt limit")
		}
		s.metrics.IncDecision(string(subject.scope), res.Allowed)
		if !res.Allowed {
			s.logger.WarnContext(ctx, "code attempt limit exceeded",
				"scope", subject.scope,
				"limit", res.Limit,
				"retry_after", res.RetryAfter,
			)
			return res, nil
		}
		result = models.MoreRestrictive(result, res)
	}
	if result == nil {
		return &models.RateLimitResult{Allowed: true, Limit: s.limit, Remaining: s.limit}, nil
	}
	return result, nil
}

func (s *Service) allow(ctx context.Context, key string) (*models.RateLimitResult, error) {
	if s.fallback != nil && !s.breaker.Allow() {
		return s.degraded(ctx, key)
	}

	res, err := s.primary.Allow(ctx, key, s.limit, s.window)
	if err == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "rate limit store recovered")
			s.metrics.SetFallback(false)
		}
		return res, nil
	}

	s.metrics.IncStoreError()
	if s.fallback == nil {
		return nil, err
	}
	if _, change := s.breaker.RecordFailure(); change.Opened {
		s.logger.WarnContext(ctx, "rate limit store unavailable, counting in process",
			"error", err,
		)
		s.metrics.SetFallback(true)
	}
	return s.degraded(ctx, key)
}

func (s *Service) degraded(ctx context.Context, key string) (*models.RateLimitResult, error) {
	res, err := s.fallback.Allow(ctx, key, s.limit, s.window)
	if err != nil {
		return nil, err
	}
	res.Degraded = true
	return res, nil
}
