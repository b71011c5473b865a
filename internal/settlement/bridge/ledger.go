package bridge

import (
	"context"
	"encoding/base64"
	"fmt"

	"tbt/internal/settlement/adapters"
	"tbt/internal/settlement/models"
)

// NotifyLedger moves the work's token from the previous owner's custodial
// account to the new owner's, creating the recipient's key first if needed.
// Works minted before token integration have nothing to move.
func (b *Bridge) NotifyLedger(ctx context.Context, a *models.Action) (Result, error) {
	w, err := b.works.FindByID(ctx, a.WorkID)
	if err != nil {
		return Result{}, fmt.Errorf("load work: %w", err)
	}
	if w.TokenID == "" {
		b.logger.InfoContext(ctx, "ledger transfer skipped",
			"action_id", a.ID, "work_id", a.WorkID, "reason", models.OutcomeNoToken)
		return skipped(models.OutcomeNoToken), nil
	}
	if b.ledger == nil {
		return skipped("ledger not configured"), nil
	}

	transfer, err := payloadParties(a)
	if err != nil {
		return Result{}, err
	}
	from, err := b.vault.EnsureKey(ctx, transfer.from)
	if err != nil {
		return Result{}, fmt.Errorf("sender key: %w", err)
	}
	to, err := b.vault.EnsureKey(ctx, transfer.to)
	if err != nil {
		return Result{}, fmt.Errorf("recipient key: %w", err)
	}

	sig, err := b.vault.Sign(from, adapters.TransferMessage(a.TransferID, w.TokenID, from.PublicKey, to.PublicKey))
	if err != nil {
		return Result{}, fmt.Errorf("sign ledger transfer: %w", err)
	}
	signature, err := b.ledger.Transfer(ctx, adapters.LedgerTransfer{
		TransferID:    a.TransferID,
		TokenID:       w.TokenID,
		FromPublicKey: from.PublicKey,
		ToPublicKey:   to.PublicKey,
		Signature:     base64.StdEncoding.EncodeToString(sig),
	})
	if err != nil {
		return Result{}, err
	}
	b.logger.InfoContext(ctx, "ledger transfer submitted",
		"action_id", a.ID, "work_id", a.WorkID, "signature", signature)
	return done(signature), nil
}
