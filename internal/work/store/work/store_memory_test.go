package work

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tbt/internal/work/models"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
)

type WorkStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func (s *WorkStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestWorkStoreSuite(t *testing.T) {
	suite.Run(t, new(WorkStoreSuite))
}

func (s *WorkStoreSuite) newWork(code, tbtID string) *models.Work {
	w, err := models.NewWork(id.NewWorkID(), tbtID, "Untitled", id.UserID(uuid.New()), code,
		models.Terms{Currency: "USD", RoyaltyType: models.RoyaltyNone}, "", s.now)
	s.Require().NoError(err)
	return w
}

func (s *WorkStoreSuite) TestCreateAndLookups() {
	w := s.newWork("ABCD-EFGH", "TBT-2026-AAAAAA")
	s.Require().NoError(s.store.Create(s.ctx, w))

	s.Run("finds by id, tbt id and active code", func() {
		byID, err := s.store.FindByID(s.ctx, w.ID)
		s.Require().NoError(err)
		s.Equal(w.Title, byID.Title)

		byTBT, err := s.store.FindByTBTID(s.ctx, "TBT-2026-AAAAAA")
		s.Require().NoError(err)
		s.Equal(w.ID, byTBT.ID)

		byCode, err := s.store.FindActiveByCode(s.ctx, "ABCD-EFGH")
		s.Require().NoError(err)
		s.Equal(w.ID, byCode.ID)
	})

	s.Run("duplicate code is a conflict", func() {
		err := s.store.Create(s.ctx, s.newWork("ABCD-EFGH", "TBT-2026-BBBBBB"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("duplicate tbt id is a conflict", func() {
		err := s.store.Create(s.ctx, s.newWork("JKLM-NPQR", "TBT-2026-AAAAAA"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.FindByID(s.ctx, id.NewWorkID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned works are copies", func() {
		got, err := s.store.FindByID(s.ctx, w.ID)
		s.Require().NoError(err)
		got.Title = "mutated"
		again, err := s.store.FindByID(s.ctx, w.ID)
		s.Require().NoError(err)
		s.Equal("Untitled", again.Title)
	})
}

func (s *WorkStoreSuite) TestClaimByCode() {
	w := s.newWork("ABCD-EFGH", "TBT-2026-AAAAAA")
	s.Require().NoError(s.store.Create(s.ctx, w))
	buyer := id.UserID(uuid.New())
	other := id.UserID(uuid.New())
	staleBefore := s.now.Add(-15 * time.Minute)

	s.Run("active work is claimed", func() {
		claimed, err := s.store.ClaimByCode(s.ctx, "ABCD-EFGH", buyer, s.now, staleBefore)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, claimed.Status)
	})

	s.Run("fresh pending work is not claimable by others", func() {
		_, err := s.store.ClaimByCode(s.ctx, "ABCD-EFGH", other, s.now, staleBefore)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("pending work is no longer found by active lookup", func() {
		_, err := s.store.FindActiveByCode(s.ctx, "ABCD-EFGH")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("unknown code is not found", func() {
		_, err := s.store.ClaimByCode(s.ctx, "ZZZZ-ZZZZ", buyer, s.now, staleBefore)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentClaim verifies that exactly one of many simultaneous
// claimants wins the code.
func (s *WorkStoreSuite) TestConcurrentClaim() {
	w := s.newWork("ABCD-EFGH", "TBT-2026-AAAAAA")
	s.Require().NoError(s.store.Create(s.ctx, w))

	const goroutines = 50
	var wg sync.WaitGroup
	var wins atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.ClaimByCode(s.ctx, "ABCD-EFGH", id.UserID(uuid.New()), s.now, s.now.Add(-time.Minute))
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}

func (s *WorkStoreSuite) TestExecute() {
	a := s.newWork("ABCD-EFGH", "TBT-2026-AAAAAA")
	b := s.newWork("JKLM-NPQR", "TBT-2026-BBBBBB")
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	s.Run("validation failure leaves the work untouched", func() {
		_, err := s.store.Execute(s.ctx, a.ID,
			func(*models.Work) error { return sentinel.ErrInvalidState },
			func(w *models.Work) { w.Title = "changed" },
		)
		s.ErrorIs(err, sentinel.ErrInvalidState)
		got, _ := s.store.FindByID(s.ctx, a.ID)
		s.Equal("Untitled", got.Title)
	})

	s.Run("rotating onto a taken code is a conflict", func() {
		_, err := s.store.Execute(s.ctx, a.ID,
			func(*models.Work) error { return nil },
			func(w *models.Work) { w.ApplyRotation("JKLM-NPQR", s.now) },
		)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("rotation re-indexes the code", func() {
		_, err := s.store.Execute(s.ctx, a.ID,
			func(*models.Work) error { return nil },
			func(w *models.Work) { w.ApplyRotation("WXYZ-2345", s.now) },
		)
		s.Require().NoError(err)
		_, err = s.store.FindActiveByCode(s.ctx, "ABCD-EFGH")
		s.ErrorIs(err, sentinel.ErrNotFound)
		got, err := s.store.FindActiveByCode(s.ctx, "WXYZ-2345")
		s.Require().NoError(err)
		s.Equal(a.ID, got.ID)
	})
}
