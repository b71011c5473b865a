//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tbt/internal/profile/models"
	"tbt/internal/profile/store"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/sentinel"
	"tbt/pkg/testutil/containers"
)

type PostgresProfileSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresProfileSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresProfileSuite))
}

func (s *PostgresProfileSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresProfileSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresProfileSuite) TestLifecycle() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	p, err := models.NewProfile(id.UserID(uuid.New()), "Ada Lovelace", "", "ada@example.com", now)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Create(ctx, p))
	s.ErrorIs(s.store.Create(ctx, p), sentinel.ErrConflict)

	exists, err := s.store.Exists(ctx, p.ID)
	s.Require().NoError(err)
	s.True(exists)

	s.Require().NoError(p.Update("Ada", "+15550100", "", now.Add(time.Minute)))
	s.Require().NoError(s.store.Save(ctx, p))

	found, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Ada", found.DisplayName)
	s.Equal("+15550100", found.Phone)
	s.Empty(found.Email)

	_, err = s.store.FindByID(ctx, id.UserID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}
