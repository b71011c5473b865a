package models

import (
	"time"

	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
)

// TransferStatus is the claimability state of a work's current transfer code.
type TransferStatus string

const (
	// StatusActive: the code is live and anyone holding it may claim.
	StatusActive TransferStatus = "active"
	// StatusPending: one claimant holds the code while finishing the flow.
	StatusPending TransferStatus = "pending"
	// StatusTransferred: ownership moved; the consumed code awaits rotation.
	StatusTransferred TransferStatus = "transferred"
)

func (s TransferStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusPending, StatusTransferred:
		return true
	}
	return false
}

// Work is a certified artwork and the authoritative record of who owns it.
type Work struct {
	ID             id.WorkID
	TBTID          string
	Title          string
	CreatorID      id.UserID
	CurrentOwnerID id.UserID
	TransferCode   string
	Status         TransferStatus
	ClaimantID     id.UserID // nil unless Status is pending
	ClaimedAt      time.Time // zero unless Status is pending
	Terms          Terms
	TokenID        string // empty for works minted before token integration
	CertifiedAt    time.Time
	UpdatedAt      time.Time
}

// NewWork builds a freshly certified work owned by its creator.
func NewWork(workID id.WorkID, tbtID, title string, creator id.UserID, code string, terms Terms, tokenID string, now time.Time) (*Work, error) {
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if creator.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "creator is required")
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	return &Work{
		ID:             workID,
		TBTID:          tbtID,
		Title:          title,
		CreatorID:      creator,
		CurrentOwnerID: creator,
		TransferCode:   code,
		Status:         StatusActive,
		Terms:          terms,
		TokenID:        tokenID,
		CertifiedAt:    now,
		UpdatedAt:      now,
	}, nil
}

// CanBeClaimedBy reports whether claimant may take the code at now. A pending
// claim can be resumed by its holder or taken over once claimed before staleBefore.
func (w *Work) CanBeClaimedBy(claimant id.UserID, staleBefore time.Time) bool {
	switch w.Status {
	case StatusActive:
		return true
	case StatusPending:
		return w.ClaimantID == claimant || w.ClaimedAt.Before(staleBefore)
	default:
		return false
	}
}

// IsHeldBy reports whether claimant currently holds the pending claim.
func (w *Work) IsHeldBy(claimant id.UserID) bool {
	return w.Status == StatusPending && w.ClaimantID == claimant
}

func (w *Work) ApplyClaim(claimant id.UserID, now time.Time) {
	w.Status = StatusPending
	w.ClaimantID = claimant
	w.ClaimedAt = now
	w.UpdatedAt = now
}

func (w *Work) ApplyRelease(now time.Time) {
	w.Status = StatusActive
	w.ClaimantID = id.UserID{}
	w.ClaimedAt = time.Time{}
	w.UpdatedAt = now
}

// ApplyTransfer moves ownership to the claimant; the consumed code stays until rotated.
func (w *Work) ApplyTransfer(now time.Time) {
	w.CurrentOwnerID = w.ClaimantID
	w.Status = StatusTransferred
	w.ClaimantID = id.UserID{}
	w.ClaimedAt = time.Time{}
	w.UpdatedAt = now
}

func (w *Work) ApplyRotation(code string, now time.Time) {
	w.TransferCode = code
	w.Status = StatusActive
	w.UpdatedAt = now
}

// ApplyReassign changes owner and code together and leaves the work active.
func (w *Work) ApplyReassign(newOwner id.UserID, code string, now time.Time) {
	w.CurrentOwnerID = newOwner
	w.ClaimantID = id.UserID{}
	w.ClaimedAt = time.Time{}
	w.ApplyRotation(code, now)
}

// CanReassign checks the preconditions of an owner-initiated or support reassignment.
func (w *Work) CanReassign(newOwner id.UserID) error {
	if newOwner.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "new owner is required")
	}
	if newOwner == w.CurrentOwnerID {
		return dErrors.New(dErrors.CodeValidation, "work is already owned by this user")
	}
	if w.Status == StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "work has a claim in progress")
	}
	return nil
}

// Certificate is the public view of a work: no transfer code, no claimant.
type Certificate struct {
	TBTID          string
	Title          string
	CreatorID      id.UserID
	CurrentOwnerID id.UserID
	Terms          Terms
	HasToken       bool
	CertifiedAt    time.Time
}

func (w *Work) Certificate() Certificate {
	return Certificate{
		TBTID:          w.TBTID,
		Title:          w.Title,
		CreatorID:      w.CreatorID,
		CurrentOwnerID: w.CurrentOwnerID,
		Terms:          w.Terms,
		HasToken:       w.TokenID != "",
		CertifiedAt:    w.CertifiedAt,
	}
}
