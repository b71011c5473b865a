// Package claim persists in-flight transfer claims.
package claim

import (
	"context"
	"sort"
	"sync"
	"time"

	"tbt/internal/transfer/models"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
)

// InMemory mirrors the Postgres partial unique index: one open claim per work.
type InMemory struct {
	mu     sync.RWMutex
	claims map[id.ClaimID]models.Claim
	open   map[id.WorkID]id.ClaimID
}

func NewInMemory() *InMemory {
	return &InMemory{
		claims: make(map[id.ClaimID]models.Claim),
		open:   make(map[id.WorkID]id.ClaimID),
	}
}

func (s *InMemory) Create(_ context.Context, c *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[c.ID]; ok {
		return sentinel.ErrConflict
	}
	if c.Stage.IsOpen() {
		if _, ok := s.open[c.WorkID]; ok {
			return sentinel.ErrConflict
		}
		s.open[c.WorkID] = c.ID
	}
	s.claims[c.ID] = *c
	return nil
}

func (s *InMemory) FindByID(_ context.Context, claimID id.ClaimID) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *InMemory) FindOpenByWork(_ context.Context, workID id.WorkID) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claimID, ok := s.open[workID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := s.claims[claimID]
	return &c, nil
}

// FindCompletedByCode finds the claimant's completed claim for a consumed code.
func (s *InMemory) FindCompletedByCode(_ context.Context, claimant id.UserID, code string) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.claims {
		if c.ClaimantID == claimant && c.TransferCode == code && c.Stage == models.StageComplete {
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Execute validates and mutates a copy, then stores it.
func (s *InMemory) Execute(_ context.Context, claimID id.ClaimID, validate func(*models.Claim) error, mutate func(*models.Claim)) (*models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.claims[claimID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := current
	if err := validate(&c); err != nil {
		return nil, err
	}
	mutate(&c)
	if current.Stage.IsOpen() && !c.Stage.IsOpen() {
		delete(s.open, c.WorkID)
	}
	s.claims[claimID] = c
	return &c, nil
}

// ListExpired returns open claims whose expiry is at or before now, oldest first.
func (s *InMemory) ListExpired(_ context.Context, now time.Time, limit int) ([]*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Claim
	for _, claimID := range s.open {
		c := s.claims[claimID]
		if c.IsExpired(now) {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
