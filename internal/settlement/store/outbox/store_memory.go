// Package outbox persists settlement actions until the worker has carried
// them out.
package outbox

import (
	"context"
	"slices"
	"sync"
	"time"

	"tbt/internal/settlement/models"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
)

type actionKey struct {
	transfer id.TransferID
	kind     models.Kind
}

type InMemory struct {
	mu      sync.Mutex
	actions map[id.ActionID]models.Action
	keys    map[actionKey]id.ActionID
}

func NewInMemory() *InMemory {
	return &InMemory{
		actions: make(map[id.ActionID]models.Action),
		keys:    make(map[actionKey]id.ActionID),
	}
}

// Enqueue stores actions, ignoring any whose (transfer, kind) is already queued.
func (s *InMemory) Enqueue(_ context.Context, actions []*models.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range actions {
		key := actionKey{transfer: a.TransferID, kind: a.Kind}
		if _, ok := s.keys[key]; ok {
			continue
		}
		s.actions[a.ID] = *a
		s.keys[key] = a.ID
	}
	return nil
}

// ClaimDue returns up to limit pending actions due at now and leases them
// until now+lease so a concurrent poll does not pick them up again.
func (s *InMemory) ClaimDue(_ context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []models.Action
	for _, a := range s.actions {
		if a.Status == models.StatusPending && !a.NextAttemptAt.After(now) {
			due = append(due, a)
		}
	}
	slices.SortFunc(due, func(a, b models.Action) int {
		return a.NextAttemptAt.Compare(b.NextAttemptAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	out := make([]*models.Action, 0, len(due))
	for _, a := range due {
		a.NextAttemptAt = now.Add(lease)
		s.actions[a.ID] = a
		claimed := a
		out = append(out, &claimed)
	}
	return out, nil
}

func (s *InMemory) Save(_ context.Context, a *models.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actions[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.actions[a.ID] = *a
	return nil
}

// ListByTransfer returns the transfer's actions, optionally restricted to kinds.
func (s *InMemory) ListByTransfer(_ context.Context, transferID id.TransferID, kinds ...models.Kind) ([]*models.Action, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Action
	for _, a := range s.actions {
		if a.TransferID != transferID {
			continue
		}
		if len(kinds) > 0 && !slices.Contains(kinds, a.Kind) {
			continue
		}
		found := a
		out = append(out, &found)
	}
	slices.SortFunc(out, func(a, b *models.Action) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareKind(a.Kind, b.Kind)
	})
	return out, nil
}

func compareKind(a, b models.Kind) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
