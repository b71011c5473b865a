package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tbt/internal/work/metrics"
	"tbt/internal/work/models"
	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
	"tbt/pkg/platform/sentinel"
	"tbt/pkg/platform/tx"
)

// WorkStore persists works. ClaimByCode must be atomic at the storage level;
// Execute must hold a row lock across validate and mutate.
type WorkStore interface {
	Create(ctx context.Context, w *models.Work) error
	FindByID(ctx context.Context, workID id.WorkID) (*models.Work, error)
	FindByTBTID(ctx context.Context, tbtID string) (*models.Work, error)
	FindActiveByCode(ctx context.Context, code string) (*models.Work, error)
	ListByOwner(ctx context.Context, owner id.UserID) ([]*models.Work, error)
	ClaimByCode(ctx context.Context, code string, claimant id.UserID, now, staleBefore time.Time) (*models.Work, error)
	Execute(ctx context.Context, workID id.WorkID, validate func(*models.Work) error, mutate func(*models.Work)) (*models.Work, error)
	ReleaseExpired(ctx context.Context, cutoff, now time.Time) ([]id.WorkID, error)
}

// TransferLog is the append-only ownership history.
type TransferLog interface {
	Append(ctx context.Context, t *models.Transfer) error
	ListByWork(ctx context.Context, workID id.WorkID) ([]*models.Transfer, error)
}

// ProfileDirectory confirms that an owner resolves to a known profile.
type ProfileDirectory interface {
	Exists(ctx context.Context, userID id.UserID) (bool, error)
}

// SettlementScheduler records the follow-up actions of an ownership change.
// It is called inside the same transaction as the change.
type SettlementScheduler interface {
	Schedule(ctx context.Context, change models.OwnershipChanged) error
}

// CodeSource generates identifiers.
type CodeSource interface {
	TransferCode() (string, error)
	TBTID(year int) (string, error)
}

const (
	defaultPendingTTL = 15 * time.Minute
	maxCodeAttempts   = 5
)

// Service owns the Work/Ownership record: certification, claimability and
// every ownership change.
type Service struct {
	works      WorkStore
	transfers  TransferLog
	profiles   ProfileDirectory
	settlement SettlementScheduler
	codes      CodeSource
	tx         tx.Runner
	logger     *slog.Logger
	metrics    *metrics.Metrics
	pendingTTL time.Duration
	certs      *certificateCache
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

// WithCertificateCache sizes the public certificate cache. A zero size disables it.
func WithCertificateCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		if size <= 0 {
			s.certs = nil
			return
		}
		s.certs = newCertificateCache(size, ttl)
	}
}

// WithPendingTTL sets how long a pending claim blocks other claimants.
func WithPendingTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.pendingTTL = ttl
		}
	}
}

func New(
	works WorkStore,
	transfers TransferLog,
	profiles ProfileDirectory,
	settlement SettlementScheduler,
	codes CodeSource,
	runner tx.Runner,
	opts ...Option,
) (*Service, error) {
	if works == nil {
		return nil, errors.New("work store is required")
	}
	if transfers == nil {
		return nil, errors.New("transfer log is required")
	}
	if profiles == nil {
		return nil, errors.New("profile directory is required")
	}
	if settlement == nil {
		return nil, errors.New("settlement scheduler is required")
	}
	if codes == nil {
		return nil, errors.New("code source is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	s := &Service{
		works:      works,
		transfers:  transfers,
		profiles:   profiles,
		settlement: settlement,
		codes:      codes,
		tx:         runner,
		logger:     slog.Default(),
		pendingTTL: defaultPendingTTL,
		certs:      newCertificateCache(certificateCacheSize, certificateCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PendingTTL is how long a claim stays exclusive without activity.
func (s *Service) PendingTTL() time.Duration {
	return s.pendingTTL
}

// invalidCode is the only error a claimant sees for an unusable code, whether
// it never existed or was already consumed.
func invalidCode() error {
	return dErrors.New(dErrors.CodeInvalidCode, "invalid transfer code")
}

func (s *Service) evictCertificate(tbtID string) {
	if s.certs != nil {
		s.certs.evict(tbtID)
	}
}

func wrapWorkErr(err error, action string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "work not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "work was modified concurrently")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, action+" timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
	}
}
