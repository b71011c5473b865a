package work

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tbt/internal/work/models"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
)

// InMemory is a Store for demo mode and unit tests. A single mutex makes the
// conditional claim as atomic as the Postgres UPDATE.
type InMemory struct {
	mu     sync.Mutex
	works  map[id.WorkID]*models.Work
	byCode map[string]id.WorkID
	byTBT  map[string]id.WorkID
}

func NewInMemory() *InMemory {
	return &InMemory{
		works:  make(map[id.WorkID]*models.Work),
		byCode: make(map[string]id.WorkID),
		byTBT:  make(map[string]id.WorkID),
	}
}

func (s *InMemory) Create(_ context.Context, w *models.Work) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.works[w.ID]; ok {
		return fmt.Errorf("work %s: %w", w.ID, sentinel.ErrConflict)
	}
	if _, ok := s.byCode[w.TransferCode]; ok {
		return fmt.Errorf("transfer code in use: %w", sentinel.ErrConflict)
	}
	if _, ok := s.byTBT[w.TBTID]; ok {
		return fmt.Errorf("tbt id in use: %w", sentinel.ErrConflict)
	}
	cp := *w
	s.works[w.ID] = &cp
	s.byCode[w.TransferCode] = w.ID
	s.byTBT[w.TBTID] = w.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, workID id.WorkID) (*models.Work, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.works[workID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *InMemory) FindByTBTID(_ context.Context, tbtID string) (*models.Work, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	workID, ok := s.byTBT[tbtID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.works[workID]
	return &cp, nil
}

func (s *InMemory) FindActiveByCode(_ context.Context, code string) (*models.Work, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	workID, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	w := s.works[workID]
	if w.Status != models.StatusActive {
		return nil, sentinel.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *InMemory) ListByOwner(_ context.Context, owner id.UserID) ([]*models.Work, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Work
	for _, w := range s.works {
		if w.CurrentOwnerID == owner {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CertifiedAt.After(out[j].CertifiedAt) })
	return out, nil
}

func (s *InMemory) ClaimByCode(_ context.Context, code string, claimant id.UserID, now, staleBefore time.Time) (*models.Work, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	workID, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	w := s.works[workID]
	if !w.CanBeClaimedBy(claimant, staleBefore) {
		return nil, sentinel.ErrNotFound
	}
	w.ApplyClaim(claimant, now)
	cp := *w
	return &cp, nil
}

func (s *InMemory) Execute(_ context.Context, workID id.WorkID, validate func(*models.Work) error, mutate func(*models.Work)) (*models.Work, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.works[workID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *w
	if err := validate(&cp); err != nil {
		return nil, err
	}
	mutate(&cp)
	if cp.TransferCode != w.TransferCode {
		if _, taken := s.byCode[cp.TransferCode]; taken {
			return nil, fmt.Errorf("transfer code in use: %w", sentinel.ErrConflict)
		}
		delete(s.byCode, w.TransferCode)
		s.byCode[cp.TransferCode] = workID
	}
	*w = cp
	out := cp
	return &out, nil
}

// ReleaseExpired reverts pending works claimed before cutoff and returns their ids.
func (s *InMemory) ReleaseExpired(_ context.Context, cutoff, now time.Time) ([]id.WorkID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var released []id.WorkID
	for _, w := range s.works {
		if w.Status == models.StatusPending && w.ClaimedAt.Before(cutoff) {
			w.ApplyRelease(now)
			released = append(released, w.ID)
		}
	}
	return released, nil
}
