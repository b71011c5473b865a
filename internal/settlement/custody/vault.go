// Package custody creates and uses ledger keys on behalf of users who do not
// hold a wallet. Private keys are sealed with a service master key before
// they reach storage and are only opened to sign.
package custody

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	"tbt/internal/settlement/models"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
	"tbt/pkg/requestcontext"
)

const nonceSize = 24

// MasterKey seals custodial private keys.
type MasterKey [32]byte

// ParseMasterKey accepts 32 bytes encoded as base64 or hex.
func ParseMasterKey(value string) (MasterKey, error) {
	var key MasterKey
	if value == "" {
		return key, errors.New("custody master key is required")
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil || len(raw) != len(key) {
		raw, err = hex.DecodeString(value)
	}
	if err != nil || len(raw) != len(key) {
		return key, errors.New("custody master key must be 32 bytes, base64 or hex encoded")
	}
	copy(key[:], raw)
	return key, nil
}

// RandomMasterKey is for in-memory runs where sealed keys never outlive the process.
func RandomMasterKey() (MasterKey, error) {
	var key MasterKey
	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, fmt.Errorf("generate master key: %w", err)
	}
	return key, nil
}

type KeyStore interface {
	Find(ctx context.Context, owner id.UserID) (*models.CustodialKey, error)
	Create(ctx context.Context, key *models.CustodialKey) error
	MarkRegistered(ctx context.Context, owner id.UserID, at time.Time) error
}

// AccountRegistrar makes a public key known to the ledger.
type AccountRegistrar interface {
	RegisterAccount(ctx context.Context, owner id.UserID, publicKey string) error
}

type Vault struct {
	store     KeyStore
	registrar AccountRegistrar
	master    MasterKey
	logger    *slog.Logger
}

type Option func(*Vault)

func WithLogger(logger *slog.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
	}
}

// WithRegistrar registers new keys with the ledger. Without one keys stay
// local until a registrar is configured.
func WithRegistrar(r AccountRegistrar) Option {
	return func(v *Vault) {
		v.registrar = r
	}
}

func NewVault(store KeyStore, master MasterKey, opts ...Option) (*Vault, error) {
	if store == nil {
		return nil, errors.New("key store is required")
	}
	if master == (MasterKey{}) {
		return nil, errors.New("custody master key is required")
	}
	v := &Vault{store: store, master: master, logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// EnsureKey returns owner's key, creating and registering it on first use.
// Safe to call concurrently and after a partial failure.
func (v *Vault) EnsureKey(ctx context.Context, owner id.UserID) (*models.CustodialKey, error) {
	key, err := v.store.Find(ctx, owner)
	switch {
	case err == nil:
	case errors.Is(err, sentinel.ErrNotFound):
		key, err = v.create(ctx, owner)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("find custodial key: %w", err)
	}

	if key.IsRegistered() || v.registrar == nil {
		return key, nil
	}
	if err := v.registrar.RegisterAccount(ctx, owner, key.PublicKey); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := v.store.MarkRegistered(ctx, owner, now); err != nil {
		return nil, fmt.Errorf("mark custodial key registered: %w", err)
	}
	key.RegisteredAt = &now
	return key, nil
}

func (v *Vault) create(ctx context.Context, owner id.UserID) (*models.CustodialKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate custodial key: %w", err)
	}
	sealed, err := v.seal(priv.Seed())
	if err != nil {
		return nil, err
	}
	key := &models.CustodialKey{
		OwnerID:          owner,
		PublicKey:        base64.StdEncoding.EncodeToString(pub),
		SealedPrivateKey: sealed,
		CreatedAt:        requestcontext.Now(ctx),
	}
	err = v.store.Create(ctx, key)
	if errors.Is(err, sentinel.ErrConflict) {
		// Lost a race with another worker; use the winner's key.
		return v.store.Find(ctx, owner)
	}
	if err != nil {
		return nil, fmt.Errorf("create custodial key: %w", err)
	}
	v.logger.InfoContext(ctx, "custodial key created", "owner_id", owner)
	return key, nil
}

// Sign signs payload with the key's private half.
func (v *Vault) Sign(key *models.CustodialKey, payload []byte) ([]byte, error) {
	seed, err := v.open(key.SealedPrivateKey)
	if err != nil {
		return nil, err
	}
	if len(seed) != ed25519.SeedSize {
		return nil, errors.New("invalid custodial key length")
	}
	return ed25519.Sign(ed25519.NewKeyFromSeed(seed), payload), nil
}

// Verify checks sig against a base64 public key.
func Verify(publicKey string, payload, sig []byte) error {
	pub, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return errors.New("invalid ed25519 public key")
	}
	if !ed25519.Verify(pub, payload, sig) {
		return errors.New("signature verification failed")
	}
	return nil
}

// seal prefixes the ciphertext with its random nonce.
func (v *Vault) seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	key := [32]byte(v.master)
	return secretbox.Seal(nonce[:], plaintext, &nonce, &key), nil
}

func (v *Vault) open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, errors.New("sealed key is truncated")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	key := [32]byte(v.master)
	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &key)
	if !ok {
		return nil, errors.New("custodial key cannot be opened with this master key")
	}
	return plaintext, nil
}
