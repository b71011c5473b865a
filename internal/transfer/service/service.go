package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tbt/internal/platform/tracing"
	"tbt/internal/transfer/metrics"
	"tbt/internal/transfer/models"
	"tbt/internal/transfer/ports"
	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
	"tbt/pkg/platform/sentinel"
	"tbt/pkg/platform/tx"
	"tbt/pkg/requestcontext"
)

// ClaimStore persists claims. Execute must hold a row lock across validate
// and mutate; Create must reject a second open claim for the same work.
type ClaimStore interface {
	Create(ctx context.Context, c *models.Claim) error
	FindByID(ctx context.Context, claimID id.ClaimID) (*models.Claim, error)
	FindOpenByWork(ctx context.Context, workID id.WorkID) (*models.Claim, error)
	FindCompletedByCode(ctx context.Context, claimant id.UserID, code string) (*models.Claim, error)
	Execute(ctx context.Context, claimID id.ClaimID, validate func(*models.Claim) error, mutate func(*models.Claim)) (*models.Claim, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Claim, error)
}

var defaultFee = models.Fee{AmountMinor: 500, Currency: "USD"}

const reapBatchSize = 100

// Service drives one claimant through code, details, payment and commit.
// Every stage is re-checked server-side; nothing is trusted from the client.
type Service struct {
	claims     ClaimStore
	works      ports.WorkService
	payments   ports.PaymentGateway
	settlement ports.SettlementScheduler
	tx         tx.Runner
	warnings   ports.WarningSource
	alerter    ports.Alerter
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	fee        models.Fee
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

// WithFee sets the fixed fee charged per claim.
func WithFee(amountMinor int64, currency string) Option {
	return func(s *Service) {
		s.fee = models.Fee{AmountMinor: amountMinor, Currency: currency}
	}
}

// WithWarnings lets completed claims report settlement problems.
func WithWarnings(source ports.WarningSource) Option {
	return func(s *Service) {
		s.warnings = source
	}
}

// WithAlerter escalates commit and refund failures to operators.
func WithAlerter(a ports.Alerter) Option {
	return func(s *Service) {
		s.alerter = a
	}
}

func New(
	claims ClaimStore,
	works ports.WorkService,
	payments ports.PaymentGateway,
	settlement ports.SettlementScheduler,
	runner tx.Runner,
	opts ...Option,
) (*Service, error) {
	if claims == nil {
		return nil, errors.New("claim store is required")
	}
	if works == nil {
		return nil, errors.New("work service is required")
	}
	if payments == nil {
		return nil, errors.New("payment gateway is required")
	}
	if settlement == nil {
		return nil, errors.New("settlement scheduler is required")
	}
	if runner == nil {
		return nil, errors.New("transaction runner is required")
	}
	s := &Service{
		claims:     claims,
		works:      works,
		payments:   payments,
		settlement: settlement,
		tx:         runner,
		logger:     slog.Default(),
		tracer:     tracing.Tracer("transfer"),
		fee:        defaultFee,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ClaimView is a claim plus the settlement warnings of its transfer.
type ClaimView struct {
	Claim    *models.Claim
	Warnings []models.Warning
}

// ownedClaim loads a claim of the caller. Someone else's claim is reported
// as missing.
func (s *Service) ownedClaim(ctx context.Context, claimID id.ClaimID) (*models.Claim, id.UserID, error) {
	claimant := requestcontext.UserID(ctx)
	if claimant.IsNil() {
		return nil, claimant, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	c, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		return nil, claimant, wrapClaimErr(err, "load claim")
	}
	if c.ClaimantID != claimant {
		return nil, claimant, dErrors.New(dErrors.CodeNotFound, "claim not found")
	}
	return c, claimant, nil
}

// Status returns the caller's claim. Settlement warnings are best effort.
func (s *Service) Status(ctx context.Context, claimID id.ClaimID) (*ClaimView, error) {
	c, _, err := s.ownedClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	view := &ClaimView{Claim: c}
	if c.Stage == models.StageComplete && s.warnings != nil && !c.TransferID.IsNil() {
		warnings, err := s.warnings.Warnings(ctx, c.TransferID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to load settlement warnings",
				"claim_id", c.ID.String(),
				"error", err,
			)
		}
		view.Warnings = warnings
	}
	return view, nil
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func claimExpired() error {
	return dErrors.New(dErrors.CodeConflict, "claim has expired, enter the code again")
}

func wrapClaimErr(err error, action string) error {
	if err == nil {
		return nil
	}
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "claim not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "claim was modified concurrently")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, action+" timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+action)
	}
}
