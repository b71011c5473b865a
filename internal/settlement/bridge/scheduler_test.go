package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbt/internal/settlement/metrics"
	"tbt/internal/settlement/models"
	"tbt/internal/settlement/store/outbox"
	workmodels "tbt/internal/work/models"
	id "tbt/pkg/domain"
	"tbt/pkg/requestcontext"
)

func ownershipChange(rotated bool) workmodels.OwnershipChanged {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seller, buyer := id.UserID(uuid.New()), id.UserID(uuid.New())
	w, _ := workmodels.NewWork(id.NewWorkID(), "TBT-2026-AB3D7K", "Harbour at Dusk", seller, "AB3D-7KQM",
		workmodels.Terms{PriceMinor: 12000, Currency: "USD", RoyaltyType: workmodels.RoyaltyNone}, "", now)
	return workmodels.OwnershipChanged{
		Transfer: &workmodels.Transfer{
			ID: id.NewTransferID(), WorkID: w.ID, FromOwnerID: seller, ToOwnerID: buyer,
			Type: workmodels.TransferManual, NewOwnerName: "Ada Lovelace", CompletedAt: now,
		},
		Work:        w,
		CodeRotated: rotated,
	}
}

func TestScheduleQueuesEveryAction(t *testing.T) {
	store := outbox.NewInMemory()
	m := metrics.New(prometheus.NewRegistry())
	s, err := NewScheduler(store, WithSchedulerMetrics(m))
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), at)
	change := ownershipChange(false)
	require.NoError(t, s.Schedule(ctx, change))
	require.NoError(t, s.Schedule(ctx, change), "rescheduling the same transfer is a no-op")

	actions, err := store.ListByTransfer(ctx, change.Transfer.ID)
	require.NoError(t, err)
	kinds := make([]models.Kind, len(actions))
	for i, a := range actions {
		kinds[i] = a.Kind
		assert.Equal(t, models.StatusPending, a.Status)
		assert.Equal(t, at, a.NextAttemptAt)
		assert.Equal(t, "Ada Lovelace", a.Payload.NewOwnerName)
		assert.Equal(t, change.Transfer.ToOwnerID.String(), a.Payload.ToOwnerID)
	}
	assert.ElementsMatch(t, []models.Kind{
		models.KindLedgerTransfer, models.KindNotifySMS, models.KindNotifyEmail,
		models.KindPublishEvent, models.KindRotateCode,
	}, kinds)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActionsScheduled.WithLabelValues("notify_sms")))
}

func TestScheduleSkipsRotationWhenAlreadyRotated(t *testing.T) {
	store := outbox.NewInMemory()
	s, err := NewScheduler(store)
	require.NoError(t, err)

	change := ownershipChange(true)
	require.NoError(t, s.Schedule(context.Background(), change))
	rotations, err := store.ListByTransfer(context.Background(), change.Transfer.ID, models.KindRotateCode)
	require.NoError(t, err)
	assert.Empty(t, rotations)

	assert.Error(t, s.Schedule(context.Background(), workmodels.OwnershipChanged{}))
}

// Justification: warnings are what the claimant sees after completion; only
// user-facing actions with a problem belong there.
func TestWarningsReportOnlyProblems(t *testing.T) {
	ctx := context.Background()
	store := outbox.NewInMemory()
	s, err := NewScheduler(store)
	require.NoError(t, err)
	change := ownershipChange(false)
	require.NoError(t, s.Schedule(ctx, change))

	now := time.Now()
	actions, err := store.ListByTransfer(ctx, change.Transfer.ID)
	require.NoError(t, err)
	for _, a := range actions {
		switch a.Kind {
		case models.KindLedgerTransfer:
			a.ApplySkipped(models.OutcomeNoToken, now)
		case models.KindNotifySMS:
			a.ApplyFailed("sms gateway rejected number", now)
		case models.KindPublishEvent:
			a.ApplyRetry("broker unavailable", now.Add(time.Minute), now)
		case models.KindNotifyEmail:
			a.ApplyDone("email-1", now)
		}
		require.NoError(t, store.Save(ctx, a))
	}

	warnings, err := s.Warnings(ctx, change.Transfer.ID)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "notify_sms", warnings[0].Kind)
	assert.Equal(t, "failed", warnings[0].Status)
	assert.Equal(t, "sms gateway rejected number", warnings[0].Message)
}
