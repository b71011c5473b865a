// Package bridge carries a committed transfer to the systems outside the
// ownership record: the token ledger, the recipient's phone and inbox, and
// downstream event consumers. Every action is best effort: a failure is
// recorded on the outbox action and never touches the transfer itself.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	profilemodels "tbt/internal/profile/models"
	"tbt/internal/settlement/adapters"
	"tbt/internal/settlement/models"
	workmodels "tbt/internal/work/models"
	id "tbt/pkg/domain"
)

type WorkReader interface {
	FindByID(ctx context.Context, workID id.WorkID) (*workmodels.Work, error)
}

type ProfileReader interface {
	FindByID(ctx context.Context, userID id.UserID) (*profilemodels.Profile, error)
}

type KeyVault interface {
	EnsureKey(ctx context.Context, owner id.UserID) (*models.CustodialKey, error)
	Sign(key *models.CustodialKey, payload []byte) ([]byte, error)
}

type Ledger interface {
	Transfer(ctx context.Context, t adapters.LedgerTransfer) (string, error)
}

type SMSSender interface {
	Send(ctx context.Context, msg adapters.SMS, idempotencyKey string) (string, error)
}

type EmailSender interface {
	Send(ctx context.Context, msg adapters.Email, idempotencyKey string) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte, headers map[string]string) error
}

type CodeRotator interface {
	RotateCode(ctx context.Context, workID id.WorkID) (*workmodels.Work, error)
}

// Result is a finished action: done with an outcome such as the ledger
// signature, or skipped with the reason.
type Result struct {
	Skipped bool
	Outcome string
}

func done(outcome string) Result   { return Result{Outcome: outcome} }
func skipped(reason string) Result { return Result{Skipped: true, Outcome: reason} }

type Bridge struct {
	works    WorkReader
	profiles ProfileReader
	rotator  CodeRotator
	vault    KeyVault
	ledger   Ledger
	sms      SMSSender
	email    EmailSender
	events   EventPublisher
	imageURL string
	logger   *slog.Logger
}

type Option func(*Bridge)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithLedger enables on-chain transfers. Without it ledger actions are skipped.
func WithLedger(ledger Ledger, vault KeyVault) Option {
	return func(b *Bridge) {
		b.ledger = ledger
		b.vault = vault
	}
}

func WithSMS(sender SMSSender) Option {
	return func(b *Bridge) {
		b.sms = sender
	}
}

func WithEmail(sender EmailSender) Option {
	return func(b *Bridge) {
		b.email = sender
	}
}

func WithEvents(publisher EventPublisher) Option {
	return func(b *Bridge) {
		b.events = publisher
	}
}

// WithCertificateImages attaches baseURL/<tbt id>.png to SMS confirmations,
// turning them into MMS.
func WithCertificateImages(baseURL string) Option {
	return func(b *Bridge) {
		b.imageURL = baseURL
	}
}

func New(works WorkReader, profiles ProfileReader, rotator CodeRotator, opts ...Option) (*Bridge, error) {
	if works == nil {
		return nil, errors.New("work reader is required")
	}
	if profiles == nil {
		return nil, errors.New("profile reader is required")
	}
	if rotator == nil {
		return nil, errors.New("code rotator is required")
	}
	b := &Bridge{works: works, profiles: profiles, rotator: rotator, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Execute runs one action.
func (b *Bridge) Execute(ctx context.Context, a *models.Action) (Result, error) {
	switch a.Kind {
	case models.KindLedgerTransfer:
		return b.NotifyLedger(ctx, a)
	case models.KindNotifySMS:
		return b.NotifyRecipient(ctx, a, ChannelSMS)
	case models.KindNotifyEmail:
		return b.NotifyRecipient(ctx, a, ChannelEmail)
	case models.KindPublishEvent:
		return b.PublishEvent(ctx, a)
	case models.KindRotateCode:
		return b.RotateCode(ctx, a)
	default:
		return Result{}, fmt.Errorf("unknown settlement action kind %q", a.Kind)
	}
}

// RotateCode finishes a commit whose in-line code rotation failed.
func (b *Bridge) RotateCode(ctx context.Context, a *models.Action) (Result, error) {
	if _, err := b.rotator.RotateCode(ctx, a.WorkID); err != nil {
		return Result{}, err
	}
	return done("code rotated"), nil
}
