package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"tbt/pkg/platform/providers"
)

const sandboxProvider = "payment-sandbox"

// Sandbox is an in-process gateway for local runs and demos. Charges are
// idempotent per key and always succeed unless declining is switched on.
type Sandbox struct {
	mu        sync.Mutex
	declining bool
	byKey     map[string]ChargeResult
	refunded  map[string]bool
}

func NewSandbox() *Sandbox {
	return &Sandbox{
		byKey:    make(map[string]ChargeResult),
		refunded: make(map[string]bool),
	}
}

// SetDeclining makes subsequent new charges fail as a card decline.
func (s *Sandbox) SetDeclining(declining bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declining = declining
}

func (s *Sandbox) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return &existing, nil
	}
	if req.AmountMinor <= 0 {
		return nil, providers.NewProviderError(providers.ErrorRejected, sandboxProvider, "amount must be positive", nil)
	}
	if s.declining {
		return nil, providers.NewProviderError(providers.ErrorRejected, sandboxProvider, "card declined", nil)
	}
	res := ChargeResult{
		Reference:   "sbx_" + uuid.NewString(),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
	}
	if req.IdempotencyKey != "" {
		s.byKey[req.IdempotencyKey] = res
	}
	return &res, nil
}

func (s *Sandbox) Refund(_ context.Context, reference, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.byKey {
		if c.Reference == reference {
			s.refunded[reference] = true
			return nil
		}
	}
	return providers.NewProviderError(providers.ErrorNotFound, sandboxProvider, "unknown charge", nil)
}

// Refunded reports whether reference was refunded.
func (s *Sandbox) Refunded(reference string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refunded[reference]
}
