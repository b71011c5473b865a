package bridge

import (
	"context"
	"errors"
	"fmt"

	profilemodels "tbt/internal/profile/models"
	"tbt/internal/settlement/adapters"
	"tbt/internal/settlement/models"
	"tbt/pkg/email"
	"tbt/pkg/platform/sentinel"
)

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// NotifyRecipient sends the new owner a certificate summary. A recipient with
// no destination on the channel is skipped rather than failed.
func (b *Bridge) NotifyRecipient(ctx context.Context, a *models.Action, channel Channel) (Result, error) {
	p := a.Payload
	recipient, err := payloadParties(a)
	if err != nil {
		return Result{}, err
	}
	profile, err := b.profiles.FindByID(ctx, recipient.to)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return Result{}, fmt.Errorf("load recipient profile: %w", err)
	}
	if profile == nil {
		profile = &profilemodels.Profile{}
	}
	owner := p.NewOwnerName
	if owner == "" {
		owner = profile.DisplayName
	}

	switch channel {
	case ChannelSMS:
		if b.sms == nil {
			return skipped("sms gateway not configured"), nil
		}
		// The phone confirmed during the claim wins over the profile's.
		to := p.NewOwnerPhone
		if to == "" {
			to = profile.Phone
		}
		if to == "" {
			return skipped("no phone number on file"), nil
		}
		msg := adapters.SMS{To: to, Body: smsBody(p, owner)}
		if b.imageURL != "" {
			msg.MediaURL = b.imageURL + "/" + p.TBTID + ".png"
		}
		ref, err := b.sms.Send(ctx, msg, a.ID.String())
		if err != nil {
			return Result{}, err
		}
		b.logger.InfoContext(ctx, "transfer confirmation sent", "action_id", a.ID, "channel", channel)
		return done(ref), nil

	case ChannelEmail:
		if b.email == nil {
			return skipped("email service not configured"), nil
		}
		if profile.Email == "" {
			return skipped("no email address on file"), nil
		}
		ref, err := b.email.Send(ctx, adapters.Email{
			To:      profile.Email,
			Subject: "Certificate transferred: " + p.Title,
			Text:    emailText(p, owner),
		}, a.ID.String())
		if err != nil {
			return Result{}, err
		}
		b.logger.InfoContext(ctx, "transfer confirmation sent",
			"action_id", a.ID, "channel", channel, "to", email.Mask(profile.Email))
		return done(ref), nil

	default:
		return Result{}, fmt.Errorf("unknown notification channel %q", channel)
	}
}

func smsBody(p models.Payload, owner string) string {
	terms := termsOf(p)
	return fmt.Sprintf("%s (%s) is now registered to %s. Market price %s, royalty %s.",
		p.Title, p.TBTID, owner, terms.PriceDisplay(), terms.RoyaltyDisplay())
}

func emailText(p models.Payload, owner string) string {
	terms := termsOf(p)
	return fmt.Sprintf(`The certificate below has been transferred to you.

Title:        %s
Certificate:  %s
Owner:        %s
Market price: %s
Royalty:      %s

Keep this message as your record of the transfer.
`, p.Title, p.TBTID, owner, terms.PriceDisplay(), terms.RoyaltyDisplay())
}
