// Package custody stores custodial ledger keys.
package custody

import (
	"context"
	"sync"
	"time"

	"tbt/internal/settlement/models"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
)

type InMemory struct {
	mu   sync.RWMutex
	keys map[id.UserID]models.CustodialKey
}

func NewInMemory() *InMemory {
	return &InMemory{keys: make(map[id.UserID]models.CustodialKey)}
}

func (s *InMemory) Find(_ context.Context, owner id.UserID) (*models.CustodialKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[owner]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &k, nil
}

// Create stores a new key. A second key for the same owner is a conflict.
func (s *InMemory) Create(_ context.Context, key *models.CustodialKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key.OwnerID]; ok {
		return sentinel.ErrConflict
	}
	s.keys[key.OwnerID] = *key
	return nil
}

func (s *InMemory) MarkRegistered(_ context.Context, owner id.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[owner]
	if !ok {
		return sentinel.ErrNotFound
	}
	if k.RegisteredAt == nil {
		k.RegisteredAt = &at
		s.keys[owner] = k
	}
	return nil
}
