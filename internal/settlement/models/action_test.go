package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "tbt/pkg/domain"
)

func TestActionLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	a := NewAction(id.NewTransferID(), id.NewWorkID(), KindNotifySMS, Payload{TBTID: "TBT-2026-AAAAAA"}, now)
	assert.Equal(t, StatusPending, a.Status)
	assert.Equal(t, now, a.NextAttemptAt)
	assert.False(t, a.HasWarning())

	a.ApplyRetry("sms gateway unavailable", now.Add(time.Minute), now)
	assert.Equal(t, 1, a.Attempts)
	assert.True(t, a.HasWarning(), "a pending action with an error is shown")

	a.Defer(now.Add(2*time.Minute), now)
	assert.Equal(t, 1, a.Attempts, "deferral does not count as an attempt")

	a.ApplyDone("msg-1", now)
	assert.Equal(t, StatusDone, a.Status)
	assert.Equal(t, 2, a.Attempts)
	assert.Empty(t, a.LastError)
	assert.False(t, a.HasWarning())
}

func TestActionWarning(t *testing.T) {
	now := time.Now()
	a := NewAction(id.NewTransferID(), id.NewWorkID(), KindLedgerTransfer, Payload{}, now)
	a.ApplyFailed("ledger rejected transfer", now)

	w := a.Warning()
	assert.Equal(t, "ledger_transfer", w.Kind)
	assert.Equal(t, "failed", w.Status)
	assert.Equal(t, "ledger rejected transfer", w.Message)
	assert.Equal(t, 1, w.Attempts)

	skipped := NewAction(id.NewTransferID(), id.NewWorkID(), KindLedgerTransfer, Payload{}, now)
	skipped.ApplySkipped(OutcomeNoToken, now)
	assert.False(t, skipped.HasWarning(), "skipping is not a problem")
}
