package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workmodels "tbt/internal/work/models"
	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
)

func TestValidateDetails(t *testing.T) {
	tests := []struct {
		name, owner, phone, confirm string
		wantErr                     string
	}{
		{"valid", " Ada ", "3001234567", "3001234567", ""},
		{"blank name", "  ", "3001234567", "3001234567", "new owner name is required"},
		{"missing confirmation", "Ada", "3001234567", "", "phone and phone confirmation are required"},
		{"mismatch", "Ada", "3001234567", "3001234568", "phone numbers do not match"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, phone, err := ValidateDetails(tt.owner, tt.phone, tt.confirm)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Ada", name)
				assert.Equal(t, "3001234567", phone)
				return
			}
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSnapshotDisplay(t *testing.T) {
	w := &workmodels.Work{
		Title: "Harbour at Dusk",
		TBTID: "TBT-2026-K7Q2ZD",
		Terms: workmodels.Terms{PriceMinor: 12000, Currency: "USD", RoyaltyType: workmodels.RoyaltyPercentage, RoyaltyValue: 1000},
	}
	snap := SnapshotOf(w)
	assert.Equal(t, "120.00 USD", snap.PriceDisplay())
	assert.Equal(t, "10%", snap.RoyaltyDisplay())
	assert.Equal(t, "12.00 USD", snap.RoyaltyAmountDisplay())

	// Later edits to the work do not leak into the snapshot.
	w.Terms.PriceMinor = 99999
	assert.Equal(t, int64(12000), snap.PriceMinor)
}

func TestClaimLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewClaim(id.NewWorkID(), id.UserID(uuid.New()), "AB3D-7KQM", Snapshot{}, Fee{AmountMinor: 500, Currency: "USD"}, "Chrome on Linux", now, 15*time.Minute)

	assert.Equal(t, StageDetails, c.Stage)
	assert.Equal(t, PaymentUnpaid, c.PaymentStatus)
	assert.False(t, c.IsExpired(now.Add(14*time.Minute)))
	assert.True(t, c.IsExpired(now.Add(15*time.Minute)))

	c.Extend(now.Add(10*time.Minute), 15*time.Minute)
	assert.False(t, c.IsExpired(now.Add(20*time.Minute)))

	c.ApplyDetails("Ada", "3001234567", now)
	assert.Equal(t, StagePayment, c.Stage)

	c.ApplyPaymentFailure("card declined", now)
	assert.Equal(t, StagePayment, c.Stage, "a failed charge leaves the claim in payment")

	c.ApplyPaid("pay_1", now)
	transferID := id.NewTransferID()
	c.ApplyComplete(transferID, now)
	assert.Equal(t, StageComplete, c.Stage)
	assert.False(t, c.Stage.IsOpen())
	assert.False(t, c.IsExpired(now.Add(time.Hour)), "completed claims never expire")
	assert.Equal(t, "5.00 USD", c.Fee.Display())
}

func TestApplyCommitFailure(t *testing.T) {
	now := time.Now()
	c := &Claim{Stage: StagePayment, PaymentStatus: PaymentPaid}
	c.ApplyCommitFailure(true, "work changed", now)
	assert.Equal(t, StageCancelled, c.Stage)
	assert.Equal(t, PaymentRefunded, c.PaymentStatus)

	c.ApplyCommitFailure(false, "work changed", now)
	assert.Equal(t, PaymentRefundFailed, c.PaymentStatus)
}
