package bridge

import (
	"fmt"

	"tbt/internal/settlement/models"
	workmodels "tbt/internal/work/models"
	id "tbt/pkg/domain"
)

// PayloadOf captures what settlement needs from a committed transfer.
func PayloadOf(change workmodels.OwnershipChanged) models.Payload {
	t, w := change.Transfer, change.Work
	return models.Payload{
		TransferType:     string(t.Type),
		FromOwnerID:      t.FromOwnerID.String(),
		ToOwnerID:        t.ToOwnerID.String(),
		TBTID:            w.TBTID,
		Title:            w.Title,
		TokenID:          w.TokenID,
		NewOwnerName:     t.NewOwnerName,
		NewOwnerPhone:    t.NewOwnerPhone,
		PriceMinor:       w.Terms.PriceMinor,
		Currency:         w.Terms.Currency,
		RoyaltyType:      string(w.Terms.RoyaltyType),
		RoyaltyValue:     w.Terms.RoyaltyValue,
		PaymentReference: t.PaymentReference,
		CompletedAt:      t.CompletedAt,
	}
}

type parties struct {
	from, to id.UserID
}

func payloadParties(a *models.Action) (parties, error) {
	from, err := id.ParseUserID(a.Payload.FromOwnerID)
	if err != nil {
		return parties{}, fmt.Errorf("payload sender: %w", err)
	}
	to, err := id.ParseUserID(a.Payload.ToOwnerID)
	if err != nil {
		return parties{}, fmt.Errorf("payload recipient: %w", err)
	}
	return parties{from: from, to: to}, nil
}

func termsOf(p models.Payload) workmodels.Terms {
	return workmodels.Terms{
		PriceMinor:   p.PriceMinor,
		Currency:     p.Currency,
		RoyaltyType:  workmodels.RoyaltyType(p.RoyaltyType),
		RoyaltyValue: p.RoyaltyValue,
	}
}
