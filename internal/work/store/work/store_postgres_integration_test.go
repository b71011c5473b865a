//go:build integration

package work_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tbt/internal/work/models"
	"tbt/internal/work/store/work"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
	"tbt/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *work.PostgresStore
	creator  id.UserID
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = work.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))
	s.creator = s.newProfile()
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresStoreSuite) newProfile() id.UserID {
	u := id.UserID(uuid.New())
	s.Require().NoError(s.postgres.InsertProfiles(context.Background(), u.String()))
	return u
}

func (s *PostgresStoreSuite) newWork(code, tbtID string) *models.Work {
	w, err := models.NewWork(id.NewWorkID(), tbtID, "Harbour at Dusk", s.creator, code,
		models.Terms{PriceMinor: 120000, Currency: "USD", RoyaltyType: models.RoyaltyPercentage, RoyaltyValue: 1000},
		"token-1", s.now)
	s.Require().NoError(err)
	return w
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	w := s.newWork("ABCD-EFGH", "TBT-2026-AAAAAA")
	s.Require().NoError(s.store.Create(ctx, w))

	found, err := s.store.FindByID(ctx, w.ID)
	s.Require().NoError(err)
	s.Equal(w.TBTID, found.TBTID)
	s.Equal(w.Terms, found.Terms)
	s.Equal("token-1", found.TokenID)
	s.True(found.ClaimantID.IsNil())

	s.Run("duplicate code violates the unique index", func() {
		err := s.store.Create(ctx, s.newWork("ABCD-EFGH", "TBT-2026-BBBBBB"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("unknown tbt id is not found", func() {
		_, err := s.store.FindByTBTID(ctx, "TBT-2026-ZZZZZZ")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentClaimExactlyOneWinner verifies the conditional UPDATE lets a
// single claimant through when many race for the same code.
func (s *PostgresStoreSuite) TestConcurrentClaimExactlyOneWinner() {
	ctx := context.Background()
	w := s.newWork("ABCD-EFGH", "TBT-2026-AAAAAA")
	s.Require().NoError(s.store.Create(ctx, w))

	const goroutines = 20
	claimants := make([]id.UserID, goroutines)
	for i := range claimants {
		claimants[i] = s.newProfile()
	}

	var wg sync.WaitGroup
	var wins, losses atomic.Int32
	for _, claimant := range claimants {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.ClaimByCode(ctx, "ABCD-EFGH", claimant, s.now, s.now.Add(-15*time.Minute))
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, sentinel.ErrNotFound):
				losses.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load(), "exactly one claim should succeed")
	s.Equal(int32(goroutines-1), losses.Load())
}

func (s *PostgresStoreSuite) TestStaleTakeoverAndResume() {
	ctx := context.Background()
	w := s.newWork("ABCD-EFGH", "TBT-2026-AAAAAA")
	s.Require().NoError(s.store.Create(ctx, w))
	first, second := s.newProfile(), s.newProfile()

	_, err := s.store.ClaimByCode(ctx, "ABCD-EFGH", first, s.now, s.now.Add(-15*time.Minute))
	s.Require().NoError(err)

	s.Run("holder resumes", func() {
		_, err := s.store.ClaimByCode(ctx, "ABCD-EFGH", first, s.now.Add(time.Minute), s.now.Add(-14*time.Minute))
		s.NoError(err)
	})

	s.Run("fresh claim blocks others", func() {
		_, err := s.store.ClaimByCode(ctx, "ABCD-EFGH", second, s.now.Add(2*time.Minute), s.now.Add(-13*time.Minute))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("stale claim is taken over", func() {
		later := s.now.Add(30 * time.Minute)
		claimed, err := s.store.ClaimByCode(ctx, "ABCD-EFGH", second, later, later.Add(-15*time.Minute))
		s.Require().NoError(err)
		s.Equal(second, claimed.ClaimantID)
	})
}

func (s *PostgresStoreSuite) TestExecuteTransferAndRotate() {
	ctx := context.Background()
	w := s.newWork("ABCD-EFGH", "TBT-2026-AAAAAA")
	s.Require().NoError(s.store.Create(ctx, w))
	buyer := s.newProfile()
	_, err := s.store.ClaimByCode(ctx, "ABCD-EFGH", buyer, s.now, s.now.Add(-15*time.Minute))
	s.Require().NoError(err)

	transferred, err := s.store.Execute(ctx, w.ID,
		func(w *models.Work) error { return nil },
		func(w *models.Work) { w.ApplyTransfer(s.now) },
	)
	s.Require().NoError(err)
	s.Equal(buyer, transferred.CurrentOwnerID)
	s.Equal(models.StatusTransferred, transferred.Status)

	other := s.newWork("JKLM-NPQR", "TBT-2026-BBBBBB")
	s.Require().NoError(s.store.Create(ctx, other))

	s.Run("rotation onto a live code conflicts", func() {
		_, err := s.store.Execute(ctx, w.ID,
			func(*models.Work) error { return nil },
			func(w *models.Work) { w.ApplyRotation("JKLM-NPQR", s.now) },
		)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("rotation onto a fresh code activates", func() {
		rotated, err := s.store.Execute(ctx, w.ID,
			func(*models.Work) error { return nil },
			func(w *models.Work) { w.ApplyRotation("WXYZ-2345", s.now) },
		)
		s.Require().NoError(err)
		s.Equal(models.StatusActive, rotated.Status)
	})
}

func (s *PostgresStoreSuite) TestReleaseExpired() {
	ctx := context.Background()
	w := s.newWork("ABCD-EFGH", "TBT-2026-AAAAAA")
	s.Require().NoError(s.store.Create(ctx, w))
	_, err := s.store.ClaimByCode(ctx, "ABCD-EFGH", s.newProfile(), s.now, s.now.Add(-15*time.Minute))
	s.Require().NoError(err)

	released, err := s.store.ReleaseExpired(ctx, s.now.Add(time.Second), s.now.Add(time.Minute))
	s.Require().NoError(err)
	s.Equal([]id.WorkID{w.ID}, released)

	active, err := s.store.FindActiveByCode(ctx, "ABCD-EFGH")
	s.Require().NoError(err)
	s.True(active.ClaimantID.IsNil())
}
