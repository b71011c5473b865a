package transferlog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"tbt/internal/work/models"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
)

// InMemory is an append-only transfer log.
type InMemory struct {
	mu     sync.RWMutex
	byWork map[id.WorkID][]*models.Transfer
}

func NewInMemory() *InMemory {
	return &InMemory{byWork: make(map[id.WorkID][]*models.Transfer)}
}

func (s *InMemory) Append(_ context.Context, t *models.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byWork[t.WorkID] {
		if existing.ID == t.ID || existing.TransferCode == t.TransferCode {
			return fmt.Errorf("transfer already recorded: %w", sentinel.ErrConflict)
		}
	}
	cp := *t
	s.byWork[t.WorkID] = append(s.byWork[t.WorkID], &cp)
	return nil
}

func (s *InMemory) ListByWork(_ context.Context, workID id.WorkID) ([]*models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.byWork[workID]
	out := make([]*models.Transfer, 0, len(rows))
	for _, t := range rows {
		cp := *t
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.Before(out[j].CompletedAt) })
	return out, nil
}

func (s *InMemory) FindByID(_ context.Context, transferID id.TransferID) (*models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rows := range s.byWork {
		for _, t := range rows {
			if t.ID == transferID {
				cp := *t
				return &cp, nil
			}
		}
	}
	return nil, sentinel.ErrNotFound
}
