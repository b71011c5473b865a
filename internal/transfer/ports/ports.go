// Package ports declares what the transfer protocol needs from the rest of
// the system. Adapters live with the context that owns the data.
package ports

import (
	"context"
	"time"

	"tbt/internal/payment"
	"tbt/internal/platform/alert"
	"tbt/internal/transfer/models"
	workmodels "tbt/internal/work/models"
	workservice "tbt/internal/work/service"
	id "tbt/pkg/domain"
)

// WorkService is the ownership record. The transfer protocol never writes
// works directly.
type WorkService interface {
	MarkPending(ctx context.Context, raw string, claimant id.UserID) (*workmodels.Work, error)
	RefreshClaim(ctx context.Context, workID id.WorkID, claimant id.UserID) (*workmodels.Work, error)
	MarkActive(ctx context.Context, workID id.WorkID, claimant id.UserID) error
	ReleaseExpired(ctx context.Context) ([]id.WorkID, error)
	RecordTransfer(ctx context.Context, cmd workservice.RecordTransferCommand) (*workmodels.Transfer, *workmodels.Work, error)
	RotateCode(ctx context.Context, workID id.WorkID) (*workmodels.Work, error)
	PendingTTL() time.Duration
}

// PaymentGateway charges the fixed transfer fee.
type PaymentGateway interface {
	Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error)
	Refund(ctx context.Context, reference, reason string) error
}

// SettlementScheduler enqueues the follow-up actions of a committed transfer.
// It runs inside the commit transaction.
type SettlementScheduler interface {
	Schedule(ctx context.Context, change workmodels.OwnershipChanged) error
}

// WarningSource reports settlement problems for a completed transfer.
type WarningSource interface {
	Warnings(ctx context.Context, transferID id.TransferID) ([]models.Warning, error)
}

// Alerter escalates failures that need an operator.
type Alerter interface {
	Send(ctx context.Context, a alert.Alert) error
}
