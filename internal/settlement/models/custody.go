package models

import (
	"time"

	id "tbt/pkg/domain"
)

// CustodialKey is a ledger keypair held on behalf of a user who has no
// wallet of their own. The private half is only stored sealed.
type CustodialKey struct {
	OwnerID          id.UserID
	PublicKey        string // base64 ed25519 public key
	SealedPrivateKey []byte
	RegisteredAt     *time.Time // set once the ledger knows the account
	CreatedAt        time.Time
}

func (k *CustodialKey) IsRegistered() bool {
	return k.RegisteredAt != nil
}
