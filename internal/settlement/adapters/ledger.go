// Package adapters are the HTTP clients for the settlement collaborators:
// the token ledger, the SMS/MMS gateway and the email service.
package adapters

import (
	"context"
	"time"

	id "tbt/pkg/domain"
	"tbt/pkg/platform/providers"
)

// LedgerTransfer moves a work's token between two custodial accounts.
type LedgerTransfer struct {
	TransferID    id.TransferID
	TokenID       string
	FromPublicKey string
	ToPublicKey   string
	Signature     string // base64, by the sending key over TransferMessage
}

// TransferMessage is the byte string the sending key signs.
func TransferMessage(transferID id.TransferID, tokenID, fromPublicKey, toPublicKey string) []byte {
	return []byte(transferID.String() + ":" + tokenID + ":" + fromPublicKey + ":" + toPublicKey)
}

type Ledger struct {
	client *providers.JSONClient
}

func NewLedger(baseURL, apiKey string, timeout time.Duration) *Ledger {
	return &Ledger{client: providers.NewJSONClient("ledger", baseURL, apiKey, timeout)}
}

type ledgerTransferBody struct {
	TokenID       string `json:"token_id"`
	FromPublicKey string `json:"from_public_key"`
	ToPublicKey   string `json:"to_public_key"`
	Signature     string `json:"signature"`
}

type ledgerTransferResponse struct {
	Signature string `json:"signature"`
}

// Transfer submits the move and returns the ledger's transaction signature.
func (l *Ledger) Transfer(ctx context.Context, t LedgerTransfer) (string, error) {
	var resp ledgerTransferResponse
	err := l.client.Post(ctx, "/transfers", ledgerTransferBody{
		TokenID:       t.TokenID,
		FromPublicKey: t.FromPublicKey,
		ToPublicKey:   t.ToPublicKey,
		Signature:     t.Signature,
	}, &resp, map[string]string{"Idempotency-Key": t.TransferID.String()})
	if err != nil {
		return "", err
	}
	if resp.Signature == "" {
		return "", providers.NewProviderError(providers.ErrorBadData, l.client.ProviderID(), "transfer response has no signature", nil)
	}
	return resp.Signature, nil
}

// RegisterAccount is idempotent on the ledger side: re-registering a known
// key succeeds.
func (l *Ledger) RegisterAccount(ctx context.Context, owner id.UserID, publicKey string) error {
	return l.client.Post(ctx, "/accounts", map[string]string{
		"owner_id":   owner.String(),
		"public_key": publicKey,
	}, nil, map[string]string{"Idempotency-Key": "account-" + owner.String()})
}
