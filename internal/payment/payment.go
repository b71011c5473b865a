// Package payment charges the fixed transfer fee through an external gateway.
// The service never handles card data: the gateway owns the payment method and
// returns a reference.
package payment

import (
	"context"
	"net/url"
	"time"

	"tbt/internal/platform/config"
	"tbt/pkg/platform/providers"
)

type ChargeRequest struct {
	AmountMinor    int64
	Currency       string
	IdempotencyKey string // the claim ID; a retried charge must not bill twice
	Description    string
}

type ChargeResult struct {
	Reference   string
	AmountMinor int64
	Currency    string
}

// Gateway is satisfied by both adapters.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, reference, reason string) error
}

// New picks the adapter named by cfg.Mode.
func New(cfg config.PaymentConfig) Gateway {
	if cfg.Mode == config.PaymentModeHTTP {
		return NewHTTPGateway(cfg.URL, cfg.APIKey, cfg.Timeout)
	}
	return NewSandbox()
}

// HTTPGateway talks to the payment provider's JSON API.
type HTTPGateway struct {
	client *providers.JSONClient
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{client: providers.NewJSONClient("payment", baseURL, apiKey, timeout)}
}

type chargeBody struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type chargeResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (g *HTTPGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	var resp chargeResponse
	err := g.client.Post(ctx, "/charges", chargeBody{
		Amount:      req.AmountMinor,
		Currency:    req.Currency,
		Description: req.Description,
	}, &resp, map[string]string{"Idempotency-Key": req.IdempotencyKey})
	if err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, providers.NewProviderError(providers.ErrorBadData, g.client.ProviderID(), "charge response has no id", nil)
	}
	return &ChargeResult{Reference: resp.ID, AmountMinor: resp.Amount, Currency: resp.Currency}, nil
}

func (g *HTTPGateway) Refund(ctx context.Context, reference, reason string) error {
	return g.client.Post(ctx, "/charges/"+url.PathEscape(reference)+"/refunds",
		map[string]string{"reason": reason}, nil,
		map[string]string{"Idempotency-Key": "refund-" + reference})
}
