package handler

import (
	"time"

	"tbt/internal/transfer/models"
)

// SnapshotResponse is what the claimant agreed to, with display strings.
type SnapshotResponse struct {
	Title              string `json:"title"`
	TBTID              string `json:"tbt_id"`
	MarketPriceMinor   int64  `json:"market_price_minor"`
	Currency           string `json:"currency"`
	MarketPrice        string `json:"market_price"`
	RoyaltyType        string `json:"royalty_type"`
	RoyaltyValue       int64  `json:"royalty_value"`
	Royalty            string `json:"royalty"`
	RoyaltyAmountMinor int64  `json:"royalty_amount_minor"`
	RoyaltyAmount      string `json:"royalty_amount"`
}

type FeeResponse struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Display     string `json:"display"`
}

type WarningResponse struct {
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Attempts int    `json:"attempts"`
}

type ClaimResponse struct {
	ID               string            `json:"id"`
	WorkID           string            `json:"work_id"`
	Stage            string            `json:"stage"`
	Snapshot         SnapshotResponse  `json:"snapshot"`
	NewOwnerName     string            `json:"new_owner_name,omitempty"`
	NewOwnerPhone    string            `json:"new_owner_phone,omitempty"`
	Fee              FeeResponse       `json:"fee"`
	PaymentStatus    string            `json:"payment_status"`
	PaymentReference string            `json:"payment_reference,omitempty"`
	FailureReason    string            `json:"failure_reason,omitempty"`
	TransferID       string            `json:"transfer_id,omitempty"`
	Warnings         []WarningResponse `json:"warnings,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	ExpiresAt        time.Time         `json:"expires_at"`
}

func toClaimResponse(c *models.Claim, warnings []models.Warning) ClaimResponse {
	resp := ClaimResponse{
		ID:     c.ID.String(),
		WorkID: c.WorkID.String(),
		Stage:  string(c.Stage),
		Snapshot: SnapshotResponse{
			Title:              c.Snapshot.Title,
			TBTID:              c.Snapshot.TBTID,
			MarketPriceMinor:   c.Snapshot.PriceMinor,
			Currency:           c.Snapshot.Currency,
			MarketPrice:        c.Snapshot.PriceDisplay(),
			RoyaltyType:        c.Snapshot.RoyaltyType,
			RoyaltyValue:       c.Snapshot.RoyaltyValue,
			Royalty:            c.Snapshot.RoyaltyDisplay(),
			RoyaltyAmountMinor: c.Snapshot.RoyaltyAmountMinor,
			RoyaltyAmount:      c.Snapshot.RoyaltyAmountDisplay(),
		},
		NewOwnerName:  c.NewOwnerName,
		NewOwnerPhone: c.NewOwnerPhone,
		Fee: FeeResponse{
			AmountMinor: c.Fee.AmountMinor,
			Currency:    c.Fee.Currency,
			Display:     c.Fee.Display(),
		},
		PaymentStatus:    string(c.PaymentStatus),
		PaymentReference: c.PaymentReference,
		FailureReason:    c.FailureReason,
		CreatedAt:        c.CreatedAt,
		ExpiresAt:        c.ExpiresAt,
	}
	if !c.TransferID.IsNil() {
		resp.TransferID = c.TransferID.String()
	}
	for _, w := range warnings {
		resp.Warnings = append(resp.Warnings, WarningResponse{
			Kind:     w.Kind,
			Status:   w.Status,
			Message:  w.Message,
			Attempts: w.Attempts,
		})
	}
	return resp
}
