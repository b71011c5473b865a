//go:build integration

package transferlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tbt/internal/work/models"
	"tbt/internal/work/store/transferlog"
	workstore "tbt/internal/work/store/work"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
	"tbt/pkg/testutil/containers"
)

type PostgresTransferLogSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *transferlog.PostgresStore
	work     *models.Work
	buyer    id.UserID
	now      time.Time
}

func TestPostgresTransferLogSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresTransferLogSuite))
}

func (s *PostgresTransferLogSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = transferlog.NewPostgres(s.postgres.DB)
}

func (s *PostgresTransferLogSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateAll(ctx))
	s.now = time.Now().UTC().Truncate(time.Microsecond)

	creator := id.UserID(uuid.New())
	s.buyer = id.UserID(uuid.New())
	s.Require().NoError(s.postgres.InsertProfiles(ctx, creator.String(), s.buyer.String()))

	w, err := models.NewWork(id.NewWorkID(), "TBT-2026-AAAAAA", "Salt Flats", creator, "ABCD-EFGH",
		models.Terms{PriceMinor: 50000, Currency: "EUR", RoyaltyType: models.RoyaltyNone}, "", s.now)
	s.Require().NoError(err)
	s.Require().NoError(workstore.NewPostgres(s.postgres.DB).Create(ctx, w))
	s.work = w
}

func (s *PostgresTransferLogSuite) transfer(code string, at time.Time) *models.Transfer {
	return &models.Transfer{
		ID:               id.NewTransferID(),
		WorkID:           s.work.ID,
		FromOwnerID:      s.work.CreatorID,
		ToOwnerID:        s.buyer,
		Type:             models.TransferManual,
		TransferCode:     code,
		NewOwnerName:     "Ada Buyer",
		NewOwnerPhone:    "+15550100",
		PaymentStatus:    models.PaymentPaid,
		PaymentReference: "pay_123",
		CompletedAt:      at,
	}
}

func (s *PostgresTransferLogSuite) TestAppendAndList() {
	ctx := context.Background()
	first := s.transfer("ABCD-EFGH", s.now)
	second := s.transfer("JKLM-NPQR", s.now.Add(time.Hour))
	s.Require().NoError(s.store.Append(ctx, second))
	s.Require().NoError(s.store.Append(ctx, first))

	list, err := s.store.ListByWork(ctx, s.work.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(first.ID, list[0].ID)
	s.Equal(second.ID, list[1].ID)
	s.Equal("Ada Buyer", list[0].NewOwnerName)

	found, err := s.store.FindByID(ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(models.PaymentPaid, found.PaymentStatus)
}

func (s *PostgresTransferLogSuite) TestCodeConsumedOncePerWork() {
	ctx := context.Background()
	s.Require().NoError(s.store.Append(ctx, s.transfer("ABCD-EFGH", s.now)))

	err := s.store.Append(ctx, s.transfer("ABCD-EFGH", s.now.Add(time.Minute)))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresTransferLogSuite) TestRowsAreAppendOnly() {
	ctx := context.Background()
	t := s.transfer("ABCD-EFGH", s.now)
	s.Require().NoError(s.store.Append(ctx, t))

	_, err := s.postgres.DB.ExecContext(ctx, `UPDATE transfers SET new_owner_name = 'x' WHERE id = $1`, uuid.UUID(t.ID))
	s.Error(err, "trigger should reject updates")

	_, err = s.postgres.DB.ExecContext(ctx, `DELETE FROM transfers WHERE id = $1`, uuid.UUID(t.ID))
	s.Error(err, "trigger should reject deletes")
}
