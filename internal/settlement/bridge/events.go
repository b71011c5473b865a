package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tbt/internal/settlement/models"
)

const EventTransferCompleted = "transfer.completed"

// TransferCompleted is the event value published for downstream consumers.
type TransferCompleted struct {
	Event        string    `json:"event"`
	TransferID   string    `json:"transfer_id"`
	WorkID       string    `json:"work_id"`
	TBTID        string    `json:"tbt_id"`
	TransferType string    `json:"transfer_type"`
	FromOwnerID  string    `json:"from_owner_id"`
	ToOwnerID    string    `json:"to_owner_id"`
	HasToken     bool      `json:"has_token"`
	CompletedAt  time.Time `json:"completed_at"`
}

// PublishEvent announces the transfer, keyed by work so a work's events stay ordered.
func (b *Bridge) PublishEvent(ctx context.Context, a *models.Action) (Result, error) {
	if b.events == nil {
		return skipped("event publishing disabled"), nil
	}
	p := a.Payload
	value, err := json.Marshal(TransferCompleted{
		Event:        EventTransferCompleted,
		TransferID:   a.TransferID.String(),
		WorkID:       a.WorkID.String(),
		TBTID:        p.TBTID,
		TransferType: p.TransferType,
		FromOwnerID:  p.FromOwnerID,
		ToOwnerID:    p.ToOwnerID,
		HasToken:     p.TokenID != "",
		CompletedAt:  p.CompletedAt,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal transfer event: %w", err)
	}
	err = b.events.Publish(ctx, a.WorkID.String(), value, map[string]string{
		"event_type":  EventTransferCompleted,
		"transfer_id": a.TransferID.String(),
	})
	if err != nil {
		return Result{}, err
	}
	return done("published"), nil
}
