package models

import (
	"time"

	id "tbt/pkg/domain"
)

type TransferType string

const (
	// TransferManual is a claim with a transfer code.
	TransferManual TransferType = "manual"
	// TransferGift is initiated by the current owner; no fee.
	TransferGift TransferType = "gift"
	// TransferAutomatic is performed by support tooling.
	TransferAutomatic TransferType = "automatic"
)

type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "paid"
	PaymentWaived PaymentStatus = "waived"
)

// Transfer is one row of the append-only ownership log.
type Transfer struct {
	ID               id.TransferID
	WorkID           id.WorkID
	FromOwnerID      id.UserID
	ToOwnerID        id.UserID
	Type             TransferType
	TransferCode     string
	NewOwnerName     string
	NewOwnerPhone    string
	PaymentStatus    PaymentStatus
	PaymentReference string
	CompletedAt      time.Time
}

// OwnershipChanged is handed to settlement once a transfer commits.
type OwnershipChanged struct {
	Transfer *Transfer
	Work     *Work
	// CodeRotated is set when the new code was issued in the same transaction.
	CodeRotated bool
}
