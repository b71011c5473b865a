package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"tbt/internal/identity"
	"tbt/internal/work/models"
	"tbt/internal/work/service"
	"tbt/internal/work/store/transferlog"
	workstore "tbt/internal/work/store/work"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/tx"
	"tbt/pkg/testutil"
)

type knownProfiles map[id.UserID]bool

func (k knownProfiles) Exists(_ context.Context, userID id.UserID) (bool, error) {
	return k[userID], nil
}

type discardSettlement struct{}

func (discardSettlement) Schedule(context.Context, models.OwnershipChanged) error { return nil }

// HandlerSuite drives the work endpoints through a real service on in-memory
// stores. Handler tests cover parsing and status mapping.
type HandlerSuite struct {
	suite.Suite
	router  http.Handler
	creator id.UserID
	friend  id.UserID
	admin   id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.creator = id.UserID(uuid.New())
	s.friend = id.UserID(uuid.New())
	s.admin = id.UserID(uuid.New())

	svc, err := service.New(
		workstore.NewInMemory(),
		transferlog.NewInMemory(),
		knownProfiles{s.creator: true, s.friend: true},
		discardSettlement{},
		identity.NewGenerator(),
		tx.NewMemoryRunner(),
	)
	s.Require().NoError(err)

	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterPublic(r)
	h.Register(r)
	h.RegisterAdmin(r)
	s.router = r
}

func (s *HandlerSuite) certify() *WorkResponse {
	req := testutil.AsUser(testutil.NewJSONRequest(s.T(), http.MethodPost, "/works", map[string]any{
		"title":              "  Harbour at Dusk ",
		"market_price_minor": 120000,
		"currency":           "usd",
		"royalty_type":       "percentage",
		"royalty_value":      1000,
	}), s.creator)
	rr := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	return testutil.UnmarshalResponse[WorkResponse](s.T(), rr)
}

// =============================================================================
// Certify
// =============================================================================

func (s *HandlerSuite) TestCertify() {
	s.Run("normalizes and returns the owner view", func() {
		work := s.certify()
		s.Equal("Harbour at Dusk", work.Title)
		s.Equal("USD", work.Terms.Currency)
		s.Equal("1200.00 USD", work.Terms.MarketPrice)
		s.Equal("10%", work.Terms.Royalty)
		s.Equal(int64(12000), work.Terms.RoyaltyAmountMinor)
		s.True(identity.ValidCodeFormat(work.TransferCode))
		s.True(identity.ValidTBTID(work.TBTID))
		s.Equal("active", work.TransferStatus)
	})

	s.Run("unknown royalty type is a validation error", func() {
		req := testutil.AsUser(testutil.NewJSONRequest(s.T(), http.MethodPost, "/works", map[string]any{
			"title": "Untitled", "currency": "USD", "royalty_type": "lifetime",
		}), s.creator)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest, "validation_error")
	})

	s.Run("malformed JSON is a bad request", func() {
		req := testutil.AsUser(testutil.NewRequestWithBody(s.T(), http.MethodPost, "/works", "{"), s.creator)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest, "bad_request")
	})

	s.Run("anonymous caller is rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/works", map[string]any{
			"title": "Untitled", "currency": "USD", "royalty_type": "none",
		})
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusUnauthorized, "unauthorized")
	})
}

// =============================================================================
// Reads
// Justification: the transfer code is a bearer secret; only the current
// owner may see it and the public certificate never carries it.
// =============================================================================

func (s *HandlerSuite) TestReads() {
	work := s.certify()

	s.Run("certificate is public and omits the code", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/certificates/"+work.TBTID, nil))
		s.Require().Equal(http.StatusOK, rr.Code)
		s.NotContains(rr.Body.String(), work.TransferCode)
		cert := testutil.UnmarshalResponse[CertificateResponse](s.T(), rr)
		s.Equal(work.Title, cert.Title)
	})

	s.Run("unknown certificate is 404", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodGet, "/certificates/TBT-2026-ZZZZZZ", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("strangers cannot see the work", func() {
		req := testutil.AsUser(testutil.NewJSONRequest(s.T(), http.MethodGet, "/works/"+work.ID, nil), s.friend)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusNotFound, "not_found")
	})

	s.Run("malformed work id is a bad request", func() {
		req := testutil.AsUser(testutil.NewJSONRequest(s.T(), http.MethodGet, "/works/nope", nil), s.creator)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest, "invalid_input")
	})

	s.Run("owner lists their works", func() {
		req := testutil.AsUser(testutil.NewJSONRequest(s.T(), http.MethodGet, "/works", nil), s.creator)
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code)
		list := testutil.UnmarshalResponse[WorkListResponse](s.T(), rr)
		s.Len(list.Works, 1)
	})
}

// =============================================================================
// Gift and admin reassignment
// =============================================================================

func (s *HandlerSuite) TestGift() {
	work := s.certify()

	s.Run("non-owner is forbidden", func() {
		req := testutil.AsUser(testutil.NewJSONRequest(s.T(), http.MethodPost, "/works/"+work.ID+"/gift",
			map[string]string{"to_user_id": s.friend.String()}), s.friend)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusForbidden, "forbidden")
	})

	s.Run("recipient without a profile is rejected", func() {
		req := testutil.AsUser(testutil.NewJSONRequest(s.T(), http.MethodPost, "/works/"+work.ID+"/gift",
			map[string]string{"to_user_id": uuid.NewString()}), s.creator)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest, "validation_error")
	})

	s.Run("owner gifts and the history records it", func() {
		req := testutil.AsUser(testutil.NewJSONRequest(s.T(), http.MethodPost, "/works/"+work.ID+"/gift",
			map[string]string{"to_user_id": s.friend.String()}), s.creator)
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		transfer := testutil.UnmarshalResponse[TransferResponse](s.T(), rr)
		s.Equal("gift", transfer.Type)
		s.Equal("waived", transfer.PaymentStatus)

		req = testutil.AsUser(testutil.NewJSONRequest(s.T(), http.MethodGet, "/works/"+work.ID+"/transfers", nil), s.friend)
		rr = testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code)
		history := testutil.UnmarshalResponse[TransferListResponse](s.T(), rr)
		s.Require().Len(history.Transfers, 1)
		s.Equal(s.friend.String(), history.Transfers[0].ToOwnerID)
	})
}

func (s *HandlerSuite) TestAdminEndpoints() {
	work := s.certify()

	s.Run("reassign requires the admin role", func() {
		req := testutil.AsUser(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/works/"+work.ID+"/reassign",
			map[string]string{"to_user_id": s.friend.String()}), s.creator)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusForbidden, "forbidden")
	})

	s.Run("admin reassigns", func() {
		req := testutil.AsAdmin(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/works/"+work.ID+"/reassign",
			map[string]string{"to_user_id": s.friend.String()}), s.admin)
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		s.Equal("automatic", testutil.UnmarshalResponse[TransferResponse](s.T(), rr).Type)
	})

	s.Run("admin rotate on an active work keeps it active", func() {
		req := testutil.AsAdmin(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/works/"+work.ID+"/rotate", nil), s.admin)
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		s.Equal("active", testutil.UnmarshalResponse[WorkResponse](s.T(), rr).TransferStatus)
	})
}
