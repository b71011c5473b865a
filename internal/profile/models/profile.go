package models

import (
	"strings"
	"time"

	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
)

const maxDisplayNameLength = 100

// Profile is the public face of a user: creator, owner or claimant.
type Profile struct {
	ID          id.UserID
	DisplayName string
	Phone       string // optional; SMS destination
	Email       string // optional; email destination
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProfile builds a profile. An empty display name is rejected.
func NewProfile(userID id.UserID, displayName, phone, email string, now time.Time) (*Profile, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "profile user ID is required")
	}
	p := &Profile{ID: userID, CreatedAt: now}
	if err := p.Update(displayName, phone, email, now); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the editable fields.
func (p *Profile) Update(displayName, phone, email string, now time.Time) error {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return dErrors.New(dErrors.CodeValidation, "display name is required")
	}
	if len(displayName) > maxDisplayNameLength {
		return dErrors.New(dErrors.CodeValidation, "display name must be at most 100 characters")
	}
	p.DisplayName = displayName
	p.Phone = strings.TrimSpace(phone)
	p.Email = strings.TrimSpace(email)
	p.UpdatedAt = now
	return nil
}

// HasContact reports whether the profile can be reached on any channel.
func (p *Profile) HasContact() bool {
	return p.Phone != "" || p.Email != ""
}
