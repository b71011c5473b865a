//go:build integration

package outbox_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tbt/internal/settlement/models"
	"tbt/internal/settlement/store/outbox"
	workmodels "tbt/internal/work/models"
	"tbt/internal/work/store/transferlog"
	workstore "tbt/internal/work/store/work"
	id "tbt/pkg/domain"
	"tbt/pkg/testutil/containers"
)

type PostgresOutboxSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *outbox.PostgresStore
	transfer *workmodels.Transfer
	now      time.Time
}

func TestPostgresOutboxSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresOutboxSuite))
}

func (s *PostgresOutboxSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = outbox.NewPostgres(s.postgres.DB)
}

func (s *PostgresOutboxSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))
	s.now = time.Now().UTC().Truncate(time.Microsecond)

	creator, buyer := id.UserID(uuid.New()), id.UserID(uuid.New())
	s.Require().NoError(s.postgres.InsertProfiles(ctx, creator.String(), buyer.String()))
	w, err := workmodels.NewWork(id.NewWorkID(), "TBT-2026-AAAAAA", "Harbour at Dusk", creator, "ABCD-EFGH",
		workmodels.Terms{PriceMinor: 120000, Currency: "USD", RoyaltyType: workmodels.RoyaltyNone}, "", s.now)
	s.Require().NoError(err)
	s.Require().NoError(workstore.NewPostgres(s.postgres.DB).Create(ctx, w))

	s.transfer = &workmodels.Transfer{
		ID: id.NewTransferID(), WorkID: w.ID, FromOwnerID: creator, ToOwnerID: buyer,
		Type: workmodels.TransferManual, TransferCode: "ABCD-EFGH",
		PaymentStatus: workmodels.PaymentPaid, CompletedAt: s.now,
	}
	s.Require().NoError(transferlog.NewPostgres(s.postgres.DB).Append(ctx, s.transfer))
}

func (s *PostgresOutboxSuite) enqueue(kinds ...models.Kind) []*models.Action {
	out := make([]*models.Action, len(kinds))
	for i, k := range kinds {
		out[i] = models.NewAction(s.transfer.ID, s.transfer.WorkID, k,
			models.Payload{TBTID: "TBT-2026-AAAAAA", Title: "Harbour at Dusk", PriceMinor: 120000, Currency: "USD"}, s.now)
	}
	s.Require().NoError(s.store.Enqueue(context.Background(), out))
	return out
}

func (s *PostgresOutboxSuite) TestEnqueueAndList() {
	ctx := context.Background()
	s.enqueue(models.KindLedgerTransfer, models.KindNotifySMS, models.KindNotifyEmail)
	s.enqueue(models.KindLedgerTransfer)

	all, err := s.store.ListByTransfer(ctx, s.transfer.ID)
	s.Require().NoError(err)
	s.Len(all, 3)

	notifications, err := s.store.ListByTransfer(ctx, s.transfer.ID, models.KindNotifySMS, models.KindNotifyEmail)
	s.Require().NoError(err)
	s.Require().Len(notifications, 2)
	s.Equal("Harbour at Dusk", notifications[0].Payload.Title)
	s.Equal(int64(120000), notifications[0].Payload.PriceMinor)
}

func (s *PostgresOutboxSuite) TestSaveRoundTrip() {
	ctx := context.Background()
	a := s.enqueue(models.KindLedgerTransfer)[0]
	a.ApplyRetry("ledger unavailable", s.now.Add(time.Minute), s.now)
	s.Require().NoError(s.store.Save(ctx, a))

	listed, err := s.store.ListByTransfer(ctx, s.transfer.ID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(1, listed[0].Attempts)
	s.Equal("ledger unavailable", listed[0].LastError)
	s.True(listed[0].HasWarning())
}

// Justification: several worker replicas poll the same table; SKIP LOCKED plus
// the lease must hand each due action to exactly one of them.
func (s *PostgresOutboxSuite) TestConcurrentClaimsDoNotOverlap() {
	s.enqueue(models.KindLedgerTransfer, models.KindNotifySMS, models.KindNotifyEmail,
		models.KindPublishEvent, models.KindRotateCode)

	var (
		mu   sync.Mutex
		seen = map[id.ActionID]int{}
		wg   sync.WaitGroup
	)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := s.store.ClaimDue(context.Background(), s.now, 2, time.Minute)
			s.NoError(err)
			mu.Lock()
			defer mu.Unlock()
			for _, a := range claimed {
				seen[a.ID]++
			}
		}()
	}
	wg.Wait()

	s.Len(seen, 5)
	for actionID, n := range seen {
		s.Equal(1, n, "action %s claimed more than once", actionID)
	}
}
