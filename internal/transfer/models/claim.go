package models

import (
	"strings"
	"time"

	workmodels "tbt/internal/work/models"
	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
)

// Stage is where a claimant is in the protocol. Authentication and code entry
// happen before a claim exists, so the first persisted stage is details.
type Stage string

const (
	StageDetails   Stage = "details"
	StagePayment   Stage = "payment"
	StageComplete  Stage = "complete"
	StageCancelled Stage = "cancelled"
	StageExpired   Stage = "expired"
)

// IsOpen reports whether the claim still holds the work pending.
func (s Stage) IsOpen() bool {
	return s == StageDetails || s == StagePayment
}

type PaymentState string

const (
	PaymentUnpaid       PaymentState = "unpaid"
	PaymentPaid         PaymentState = "paid"
	PaymentFailed       PaymentState = "failed"
	PaymentRefunded     PaymentState = "refunded"
	PaymentRefundFailed PaymentState = "refund_failed"
)

// Snapshot freezes the commercial terms shown when the code was accepted, so
// later edits to the work do not change what the claimant agreed to.
type Snapshot struct {
	Title              string
	TBTID              string
	PriceMinor         int64
	Currency           string
	RoyaltyType        string
	RoyaltyValue       int64
	RoyaltyAmountMinor int64
}

// SnapshotOf captures w's terms as they stand now.
func SnapshotOf(w *workmodels.Work) Snapshot {
	return Snapshot{
		Title:              w.Title,
		TBTID:              w.TBTID,
		PriceMinor:         w.Terms.PriceMinor,
		Currency:           w.Terms.Currency,
		RoyaltyType:        string(w.Terms.RoyaltyType),
		RoyaltyValue:       w.Terms.RoyaltyValue,
		RoyaltyAmountMinor: w.Terms.RoyaltyAmount(),
	}
}

func (s Snapshot) terms() workmodels.Terms {
	return workmodels.Terms{
		PriceMinor:   s.PriceMinor,
		Currency:     s.Currency,
		RoyaltyType:  workmodels.RoyaltyType(s.RoyaltyType),
		RoyaltyValue: s.RoyaltyValue,
	}
}

// PriceDisplay renders the price, e.g. "120.00 USD".
func (s Snapshot) PriceDisplay() string { return s.terms().PriceDisplay() }

// RoyaltyDisplay renders the royalty term, e.g. "10%".
func (s Snapshot) RoyaltyDisplay() string { return s.terms().RoyaltyDisplay() }

// RoyaltyAmountDisplay renders the royalty owed at the snapshot price.
func (s Snapshot) RoyaltyAmountDisplay() string {
	return workmodels.FormatMoney(s.RoyaltyAmountMinor, s.Currency)
}

// Fee is the flat transfer fee. It is not the royalty.
type Fee struct {
	AmountMinor int64
	Currency    string
}

func (f Fee) Display() string {
	return workmodels.FormatMoney(f.AmountMinor, f.Currency)
}

const maxNameLength = 100

// Claim is one claimant's run through the protocol for one code.
type Claim struct {
	ID               id.ClaimID
	WorkID           id.WorkID
	ClaimantID       id.UserID
	TransferCode     string
	Stage            Stage
	Snapshot         Snapshot
	NewOwnerName     string
	NewOwnerPhone    string
	Fee              Fee
	PaymentReference string
	PaymentStatus    PaymentState
	FailureReason    string
	TransferID       id.TransferID
	ClientDevice     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ExpiresAt        time.Time
}

func NewClaim(workID id.WorkID, claimant id.UserID, code string, snapshot Snapshot, fee Fee, device string, now time.Time, ttl time.Duration) *Claim {
	return &Claim{
		ID:            id.NewClaimID(),
		WorkID:        workID,
		ClaimantID:    claimant,
		TransferCode:  code,
		Stage:         StageDetails,
		Snapshot:      snapshot,
		Fee:           fee,
		PaymentStatus: PaymentUnpaid,
		ClientDevice:  device,
		CreatedAt:     now,
		UpdatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
}

func (c *Claim) IsExpired(now time.Time) bool {
	return c.Stage.IsOpen() && !now.Before(c.ExpiresAt)
}

// Extend pushes the expiry out when the claimant resumes.
func (c *Claim) Extend(now time.Time, ttl time.Duration) {
	c.ExpiresAt = now.Add(ttl)
	c.UpdatedAt = now
}

// ValidateDetails checks the recipient details without touching the claim.
// Phones are compared byte for byte after trimming surrounding space.
func ValidateDetails(name, phone, confirmation string) (string, string, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	confirmation = strings.TrimSpace(confirmation)
	switch {
	case name == "":
		return "", "", dErrors.New(dErrors.CodeValidation, "new owner name is required")
	case len(name) > maxNameLength:
		return "", "", dErrors.New(dErrors.CodeValidation, "new owner name must be at most 100 characters")
	case phone == "" || confirmation == "":
		return "", "", dErrors.New(dErrors.CodeValidation, "phone and phone confirmation are required")
	case phone != confirmation:
		return "", "", dErrors.New(dErrors.CodeValidation, "phone numbers do not match")
	}
	return name, phone, nil
}

// ApplyDetails records recipient details. Details may be corrected until
// payment succeeds.
func (c *Claim) ApplyDetails(name, phone string, now time.Time) {
	c.NewOwnerName = name
	c.NewOwnerPhone = phone
	c.Stage = StagePayment
	c.UpdatedAt = now
}

func (c *Claim) ApplyPaymentFailure(reason string, now time.Time) {
	c.PaymentStatus = PaymentFailed
	c.FailureReason = reason
	c.UpdatedAt = now
}

func (c *Claim) ApplyPaid(reference string, now time.Time) {
	c.PaymentStatus = PaymentPaid
	c.PaymentReference = reference
	c.FailureReason = ""
	c.UpdatedAt = now
}

func (c *Claim) ApplyComplete(transferID id.TransferID, now time.Time) {
	c.Stage = StageComplete
	c.TransferID = transferID
	c.UpdatedAt = now
}

// ApplyCommitFailure closes a paid claim whose ownership change did not
// commit, recording how the refund went.
func (c *Claim) ApplyCommitFailure(refunded bool, reason string, now time.Time) {
	c.Stage = StageCancelled
	c.FailureReason = reason
	if refunded {
		c.PaymentStatus = PaymentRefunded
	} else {
		c.PaymentStatus = PaymentRefundFailed
	}
	c.UpdatedAt = now
}

func (c *Claim) ApplyCancel(now time.Time) {
	c.Stage = StageCancelled
	c.UpdatedAt = now
}

func (c *Claim) ApplyExpire(now time.Time) {
	c.Stage = StageExpired
	c.UpdatedAt = now
}

// Warning is a settlement problem shown on a completed claim. It never
// blocks or reverses the transfer.
type Warning struct {
	Kind     string
	Status   string
	Message  string
	Attempts int
}
