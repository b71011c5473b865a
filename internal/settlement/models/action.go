// Package models holds the settlement outbox: the follow-up work queued in
// the same transaction as an ownership change.
package models

import (
	"time"

	transfermodels "tbt/internal/transfer/models"
	id "tbt/pkg/domain"
)

type Kind string

const (
	KindLedgerTransfer Kind = "ledger_transfer"
	KindNotifySMS      Kind = "notify_sms"
	KindNotifyEmail    Kind = "notify_email"
	KindPublishEvent   Kind = "publish_event"
	KindRotateCode     Kind = "rotate_code"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// OutcomeNoToken is recorded when a work has no on-chain token to move.
const OutcomeNoToken = "no token to transfer"

// Payload is the transfer as it stood at commit time. Actions never re-read
// mutable state to decide what to announce.
type Payload struct {
	TransferType     string    `json:"transfer_type"`
	FromOwnerID      string    `json:"from_owner_id"`
	ToOwnerID        string    `json:"to_owner_id"`
	TBTID            string    `json:"tbt_id"`
	Title            string    `json:"title"`
	TokenID          string    `json:"token_id,omitempty"`
	NewOwnerName     string    `json:"new_owner_name,omitempty"`
	NewOwnerPhone    string    `json:"new_owner_phone,omitempty"`
	PriceMinor       int64     `json:"price_minor"`
	Currency         string    `json:"currency"`
	RoyaltyType      string    `json:"royalty_type"`
	RoyaltyValue     int64     `json:"royalty_value"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	CompletedAt      time.Time `json:"completed_at"`
}

// Action is one queued side effect of a transfer.
type Action struct {
	ID            id.ActionID
	TransferID    id.TransferID
	WorkID        id.WorkID
	Kind          Kind
	Payload       Payload
	Status        Status
	Attempts      int
	LastError     string
	Outcome       string
	NextAttemptAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewAction(transferID id.TransferID, workID id.WorkID, kind Kind, payload Payload, now time.Time) *Action {
	return &Action{
		ID:            id.NewActionID(),
		TransferID:    transferID,
		WorkID:        workID,
		Kind:          kind,
		Payload:       payload,
		Status:        StatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (a *Action) ApplyDone(outcome string, now time.Time) {
	a.Status = StatusDone
	a.Outcome = outcome
	a.Attempts++
	a.LastError = ""
	a.UpdatedAt = now
}

func (a *Action) ApplySkipped(outcome string, now time.Time) {
	a.Status = StatusSkipped
	a.Outcome = outcome
	a.UpdatedAt = now
}

// ApplyRetry records a failed attempt and schedules the next one.
func (a *Action) ApplyRetry(cause string, next, now time.Time) {
	a.Attempts++
	a.LastError = cause
	a.NextAttemptAt = next
	a.UpdatedAt = now
}

// ApplyFailed gives up on the action. The transfer itself stands.
func (a *Action) ApplyFailed(cause string, now time.Time) {
	a.Status = StatusFailed
	a.Attempts++
	a.LastError = cause
	a.UpdatedAt = now
}

// Defer pushes the action back without counting an attempt, used while a
// collaborator's circuit is open.
func (a *Action) Defer(next, now time.Time) {
	a.NextAttemptAt = next
	a.UpdatedAt = now
}

// HasWarning reports whether the action should be surfaced to the claimant.
func (a *Action) HasWarning() bool {
	return a.Status == StatusFailed || (a.Status == StatusPending && a.LastError != "")
}

func (a *Action) Warning() transfermodels.Warning {
	return transfermodels.Warning{
		Kind:     string(a.Kind),
		Status:   string(a.Status),
		Message:  a.LastError,
		Attempts: a.Attempts,
	}
}
