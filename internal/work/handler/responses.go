package handler

import (
	"time"

	"tbt/internal/work/models"
)

// TermsResponse carries both raw amounts and display strings.
type TermsResponse struct {
	MarketPriceMinor   int64  `json:"market_price_minor"`
	Currency           string `json:"currency"`
	MarketPrice        string `json:"market_price"`
	RoyaltyType        string `json:"royalty_type"`
	RoyaltyValue       int64  `json:"royalty_value"`
	Royalty            string `json:"royalty"`
	RoyaltyAmountMinor int64  `json:"royalty_amount_minor"`
}

type WorkResponse struct {
	ID             string        `json:"id"`
	TBTID          string        `json:"tbt_id"`
	Title          string        `json:"title"`
	CreatorID      string        `json:"creator_id"`
	CurrentOwnerID string        `json:"current_owner_id"`
	TransferCode   string        `json:"transfer_code,omitempty"`
	TransferStatus string        `json:"transfer_status"`
	Terms          TermsResponse `json:"terms"`
	HasToken       bool          `json:"has_token"`
	CertifiedAt    time.Time     `json:"certified_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type WorkListResponse struct {
	Works []WorkResponse `json:"works"`
}

// CertificateResponse is the public certificate; it never carries the code.
type CertificateResponse struct {
	TBTID          string        `json:"tbt_id"`
	Title          string        `json:"title"`
	CreatorID      string        `json:"creator_id"`
	CurrentOwnerID string        `json:"current_owner_id"`
	Terms          TermsResponse `json:"terms"`
	HasToken       bool          `json:"has_token"`
	CertifiedAt    time.Time     `json:"certified_at"`
}

type TransferResponse struct {
	ID            string    `json:"id"`
	WorkID        string    `json:"work_id"`
	FromOwnerID   string    `json:"from_owner_id"`
	ToOwnerID     string    `json:"to_owner_id"`
	Type          string    `json:"type"`
	NewOwnerName  string    `json:"new_owner_name,omitempty"`
	PaymentStatus string    `json:"payment_status"`
	CompletedAt   time.Time `json:"completed_at"`
}

type TransferListResponse struct {
	Transfers []TransferResponse `json:"transfers"`
}

func toTermsResponse(t models.Terms) TermsResponse {
	return TermsResponse{
		MarketPriceMinor:   t.PriceMinor,
		Currency:           t.Currency,
		MarketPrice:        t.PriceDisplay(),
		RoyaltyType:        string(t.RoyaltyType),
		RoyaltyValue:       t.RoyaltyValue,
		Royalty:            t.RoyaltyDisplay(),
		RoyaltyAmountMinor: t.RoyaltyAmount(),
	}
}

func toWorkResponse(w *models.Work) WorkResponse {
	return WorkResponse{
		ID:             w.ID.String(),
		TBTID:          w.TBTID,
		Title:          w.Title,
		CreatorID:      w.CreatorID.String(),
		CurrentOwnerID: w.CurrentOwnerID.String(),
		TransferCode:   w.TransferCode,
		TransferStatus: string(w.Status),
		Terms:          toTermsResponse(w.Terms),
		HasToken:       w.TokenID != "",
		CertifiedAt:    w.CertifiedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

func toCertificateResponse(c *models.Certificate) CertificateResponse {
	return CertificateResponse{
		TBTID:          c.TBTID,
		Title:          c.Title,
		CreatorID:      c.CreatorID.String(),
		CurrentOwnerID: c.CurrentOwnerID.String(),
		Terms:          toTermsResponse(c.Terms),
		HasToken:       c.HasToken,
		CertifiedAt:    c.CertifiedAt,
	}
}

func toTransferResponse(t *models.Transfer) TransferResponse {
	return TransferResponse{
		ID:            t.ID.String(),
		WorkID:        t.WorkID.String(),
		FromOwnerID:   t.FromOwnerID.String(),
		ToOwnerID:     t.ToOwnerID.String(),
		Type:          string(t.Type),
		NewOwnerName:  t.NewOwnerName,
		PaymentStatus: string(t.PaymentStatus),
		CompletedAt:   t.CompletedAt,
	}
}
