package worker_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tbt/internal/identity"
	"tbt/internal/payment"
	profilemodels "tbt/internal/profile/models"
	profilestore "tbt/internal/profile/store"
	"tbt/internal/settlement/bridge"
	bridgemocks "tbt/internal/settlement/bridge/mocks"
	"tbt/internal/settlement/models"
	"tbt/internal/settlement/store/outbox"
	"tbt/internal/settlement/worker"
	transfermodels "tbt/internal/transfer/models"
	transferservice "tbt/internal/transfer/service"
	claimstore "tbt/internal/transfer/store/claim"
	workmodels "tbt/internal/work/models"
	workservice "tbt/internal/work/service"
	"tbt/internal/work/store/transferlog"
	workstore "tbt/internal/work/store/work"
	id "tbt/pkg/domain"
	"tbt/pkg/platform/providers"
	"tbt/pkg/platform/tx"
	"tbt/pkg/requestcontext"
)

// =============================================================================
// Settlement Scenarios
// =============================================================================
// Justification: a transfer is complete once ownership commits. These tests
// run the whole protocol on in-memory stores and then drain the outbox, to
// show that settlement outcomes never reach back into the finished claim.

type SettlementScenarioSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	sms       *bridgemocks.MockSMSSender
	outbox    *outbox.InMemory
	transfers *transferservice.Service
	works     *workservice.Service
	worker    *worker.Worker

	creator   id.UserID
	buyer     id.UserID
	collector id.UserID
	now       time.Time
}

func TestSettlementScenarioSuite(t *testing.T) {
	suite.Run(t, new(SettlementScenarioSuite))
}

func (s *SettlementScenarioSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.sms = bridgemocks.NewMockSMSSender(s.ctrl)
	s.outbox = outbox.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := tx.NewMemoryRunner()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.creator = id.UserID(uuid.New())
	s.buyer = id.UserID(uuid.New())
	s.collector = id.UserID(uuid.New())

	profiles := profilestore.NewInMemory()
	for _, u := range []id.UserID{s.creator, s.buyer, s.collector} {
		p, err := profilemodels.NewProfile(u, "Member", "", "", s.now)
		s.Require().NoError(err)
		s.Require().NoError(profiles.Create(context.Background(), p))
	}

	scheduler, err := bridge.NewScheduler(s.outbox, bridge.WithSchedulerLogger(logger))
	s.Require().NoError(err)

	workStore := workstore.NewInMemory()
	s.works, err = workservice.New(workStore, transferlog.NewInMemory(), profiles, scheduler,
		identity.NewGenerator(), runner, workservice.WithLogger(logger))
	s.Require().NoError(err)

	s.transfers, err = transferservice.New(claimstore.NewInMemory(), s.works, payment.NewSandbox(), scheduler, runner,
		transferservice.WithLogger(logger),
		transferservice.WithWarnings(scheduler),
	)
	s.Require().NoError(err)

	b, err := bridge.New(workStore, profiles, s.works, bridge.WithLogger(logger), bridge.WithSMS(s.sms))
	s.Require().NoError(err)
	s.worker, err = worker.New(s.outbox, b,
		worker.WithLogger(logger),
		worker.WithClock(func() time.Time { return s.now }),
		worker.WithRateLimit(1000, 100),
	)
	s.Require().NoError(err)
}

func (s *SettlementScenarioSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *SettlementScenarioSuite) as(user id.UserID) context.Context {
	ctx := requestcontext.WithIdentity(context.Background(), requestcontext.Identity{UserID: user})
	return requestcontext.WithTime(ctx, s.now)
}

// completeTransfer certifies a work without a token and runs the buyer
// through every stage.
func (s *SettlementScenarioSuite) completeTransfer() *transfermodels.Claim {
	w, err := s.works.Certify(s.as(s.creator), workservice.CertifyCommand{
		Title: "Harbour at Dusk",
		Terms: workmodels.Terms{PriceMinor: 12000, Currency: "USD", RoyaltyType: workmodels.RoyaltyPercentage, RoyaltyValue: 1000},
	})
	s.Require().NoError(err)
	return s.claimAndPay(s.buyer, w.TransferCode)
}

func (s *SettlementScenarioSuite) claimAndPay(user id.UserID, code string) *transfermodels.Claim {
	c, err := s.transfers.SubmitCode(s.as(user), code)
	s.Require().NoError(err)
	_, err = s.transfers.SubmitDetails(s.as(user), c.ID, transferservice.DetailsCommand{
		Name: "Ada Lovelace", Phone: "3001234567", PhoneConfirmation: "3001234567",
	})
	s.Require().NoError(err)
	c, err = s.transfers.Pay(s.as(user), c.ID)
	s.Require().NoError(err)
	s.Require().Equal(transfermodels.StageComplete, c.Stage)
	return c
}

// currentCode reads the live transfer code as the current owner sees it.
func (s *SettlementScenarioSuite) currentCode(owner id.UserID, workID id.WorkID) string {
	w, err := s.works.Get(s.as(owner), workID)
	s.Require().NoError(err)
	s.Require().NotEmpty(w.TransferCode)
	return w.TransferCode
}

func (s *SettlementScenarioSuite) action(transferID id.TransferID, kind models.Kind) *models.Action {
	list, err := s.outbox.ListByTransfer(context.Background(), transferID, kind)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	return list[0]
}

func (s *SettlementScenarioSuite) TestWorkWithoutTokenStillCompletes() {
	s.sms.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return("msg-1", nil)
	c := s.completeTransfer()

	_, err := s.worker.ProcessDue(context.Background())
	s.Require().NoError(err)

	ledger := s.action(c.TransferID, models.KindLedgerTransfer)
	s.Equal(models.StatusSkipped, ledger.Status)
	s.Equal("no token to transfer", ledger.Outcome)

	view, err := s.transfers.Status(s.as(s.buyer), c.ID)
	s.Require().NoError(err)
	s.Equal(transfermodels.StageComplete, view.Claim.Stage)
	s.Empty(view.Warnings, "a missing token is not a problem for the claimant")
}

func (s *SettlementScenarioSuite) TestNotificationFailureIsRecordedNotRaised() {
	s.sms.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", providers.NewProviderError(providers.ErrorOutage, "sms", "status 503", nil))
	c := s.completeTransfer()

	_, err := s.worker.ProcessDue(context.Background())
	s.Require().NoError(err, "settlement failures do not fail the poll")

	sms := s.action(c.TransferID, models.KindNotifySMS)
	s.Equal(models.StatusPending, sms.Status)
	s.Equal(1, sms.Attempts)

	view, err := s.transfers.Status(s.as(s.buyer), c.ID)
	s.Require().NoError(err)
	s.Equal(transfermodels.StageComplete, view.Claim.Stage)
	s.Require().Len(view.Warnings, 1)
	s.Equal("notify_sms", view.Warnings[0].Kind)
	s.Contains(view.Warnings[0].Message, "status 503")

	s.Equal(models.StatusDone, s.action(c.TransferID, models.KindRotateCode).Status,
		"an already rotated code is not rotated twice")
}

func (s *SettlementScenarioSuite) TestQueuedRotationAfterNewCodeIsClaimed() {
	s.sms.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return("msg-1", nil).AnyTimes()
	c := s.completeTransfer()

	code := s.currentCode(s.buyer, c.WorkID)
	_, err := s.transfers.SubmitCode(s.as(s.collector), code)
	s.Require().NoError(err, "the new owner may pass the fresh code on at once")

	_, err = s.worker.ProcessDue(context.Background())
	s.Require().NoError(err)

	rotate := s.action(c.TransferID, models.KindRotateCode)
	s.Equal(models.StatusDone, rotate.Status)
	s.Empty(rotate.LastError)
	s.False(rotate.HasWarning())

	w, err := s.works.Get(s.as(s.buyer), c.WorkID)
	s.Require().NoError(err)
	s.Equal(workmodels.StatusPending, w.Status)
	s.Equal(code, w.TransferCode, "the claimed code is left alone")
}

// =============================================================================
// Ownership history
// =============================================================================
// Justification: every owner change must be traceable from the creator to the
// current owner. The log is checked across paid transfers and a gift.

func (s *SettlementScenarioSuite) TestHistoryChainsEveryOwner() {
	s.sms.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return("msg-1", nil).AnyTimes()
	first := s.completeTransfer()
	workID := first.WorkID

	s.now = s.now.Add(time.Hour)
	s.claimAndPay(s.collector, s.currentCode(s.buyer, workID))

	s.now = s.now.Add(time.Hour)
	_, err := s.works.Gift(s.as(s.collector), workID, s.creator)
	s.Require().NoError(err)

	_, err = s.worker.ProcessDue(context.Background())
	s.Require().NoError(err)

	current, err := s.works.Get(s.as(s.creator), workID)
	s.Require().NoError(err)
	history, err := s.works.History(s.as(s.creator), workID)
	s.Require().NoError(err)
	s.Require().Len(history, 3)

	s.Equal(current.CreatorID, history[0].FromOwnerID, "the chain starts at the creator")
	for i := 1; i < len(history); i++ {
		s.Equal(history[i-1].ToOwnerID, history[i].FromOwnerID, "gap in ownership chain at %d", i)
	}
	s.Equal(current.CurrentOwnerID, history[len(history)-1].ToOwnerID, "the chain ends at the current owner")

	s.Equal([]id.UserID{s.buyer, s.collector, s.creator},
		[]id.UserID{history[0].ToOwnerID, history[1].ToOwnerID, history[2].ToOwnerID})
	s.Equal([]workmodels.TransferType{workmodels.TransferManual, workmodels.TransferManual, workmodels.TransferGift},
		[]workmodels.TransferType{history[0].Type, history[1].Type, history[2].Type})

	codes := map[string]bool{}
	for _, t := range history {
		s.False(codes[t.TransferCode], "code %s consumed twice", t.TransferCode)
		codes[t.TransferCode] = true
	}
}
