package handler

import (
	"strings"

	"tbt/internal/work/models"
	"tbt/internal/work/service"
	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
)

const (
	maxTitleLength   = 200
	maxTokenIDLength = 128
)

// CertifyRequest is the body of POST /works.
type CertifyRequest struct {
	Title            string `json:"title"`
	MarketPriceMinor int64  `json:"market_price_minor"`
	Currency         string `json:"currency"`
	RoyaltyType      string `json:"royalty_type"`
	RoyaltyValue     int64  `json:"royalty_value"`
	TokenID          string `json:"token_id"`
}

func (r *CertifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Title) > maxTitleLength {
		return dErrors.New(dErrors.CodeValidation, "title must be at most 200 characters")
	}
	if len(r.TokenID) > maxTokenIDLength {
		return dErrors.New(dErrors.CodeValidation, "token_id must be at most 128 characters")
	}
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	r.RoyaltyType = strings.ToLower(strings.TrimSpace(r.RoyaltyType))
	r.TokenID = strings.TrimSpace(r.TokenID)
	return nil
}

// Command converts the request; terms are validated by the domain.
func (r *CertifyRequest) Command() service.CertifyCommand {
	return service.CertifyCommand{
		Title: r.Title,
		Terms: models.Terms{
			PriceMinor:   r.MarketPriceMinor,
			Currency:     r.Currency,
			RoyaltyType:  models.RoyaltyType(r.RoyaltyType),
			RoyaltyValue: r.RoyaltyValue,
		},
		TokenID: r.TokenID,
	}
}

// ReassignRequest is the body of gift and admin reassignment.
type ReassignRequest struct {
	ToUserID string `json:"to_user_id"`

	parsedToUserID id.UserID
}

func (r *ReassignRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	userID, err := id.ParseUserID(strings.TrimSpace(r.ToUserID))
	if err != nil {
		return err
	}
	r.parsedToUserID = userID
	return nil
}

func (r *ReassignRequest) ParsedToUserID() id.UserID {
	return r.parsedToUserID
}
