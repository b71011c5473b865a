// Package service manages profiles: created on first authenticated use,
// edited by their owner, read by settlement for contact details.
package service

import (
	"context"
	"errors"
	"log/slog"

	"tbt/internal/profile/models"
	id "tbt/pkg/domain"
	dErrors "tbt/pkg/domain-errors"
	"tbt/pkg/email"
	"tbt/pkg/platform/sentinel"
	"tbt/pkg/requestcontext"
)

const fallbackDisplayName = "Collector"

type Store interface {
	Create(ctx context.Context, p *models.Profile) error
	Save(ctx context.Context, p *models.Profile) error
	FindByID(ctx context.Context, userID id.UserID) (*models.Profile, error)
	Exists(ctx context.Context, userID id.UserID) (bool, error)
}

type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("profile store is required")
	}
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Ensure returns the caller's profile, creating it from token claims on first
// use. Contact details missing from an existing profile are filled from the
// token; values the user set are never overwritten.
func (s *Service) Ensure(ctx context.Context, ident requestcontext.Identity) (*models.Profile, error) {
	if ident.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)

	p, err := s.store.FindByID(ctx, ident.UserID)
	switch {
	case err == nil:
		return s.backfill(ctx, p, ident)
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}

	name := email.DeriveDisplayName(ident.Email)
	if name == "" {
		name = fallbackDisplayName
	}
	p, err = models.NewProfile(ident.UserID, name, ident.Phone, ident.Email, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent first request.
			return s.Get(ctx, ident.UserID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
	}
	s.logger.InfoContext(ctx, "profile created",
		"user_id", ident.UserID.String(),
		"email", email.Mask(ident.Email),
	)
	return p, nil
}

func (s *Service) backfill(ctx context.Context, p *models.Profile, ident requestcontext.Identity) (*models.Profile, error) {
	phone, mail := p.Phone, p.Email
	if phone == "" {
		phone = ident.Phone
	}
	if mail == "" {
		mail = ident.Email
	}
	if phone == p.Phone && mail == p.Email {
		return p, nil
	}
	if err := p.Update(p.DisplayName, phone, mail, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
	}
	return p, nil
}

type UpdateCommand struct {
	DisplayName string
	Phone       string
	Email       string
}

// UpdateMe replaces the caller's editable profile fields.
func (s *Service) UpdateMe(ctx context.Context, cmd UpdateCommand) (*models.Profile, error) {
	ident, ok := requestcontext.CurrentIdentity(ctx)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	p, err := s.Ensure(ctx, ident)
	if err != nil {
		return nil, err
	}
	if err := p.Update(cmd.DisplayName, cmd.Phone, cmd.Email, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	p, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return p, nil
}

// Exists lets other contexts check a recipient before handing them a work.
func (s *Service) Exists(ctx context.Context, userID id.UserID) (bool, error) {
	return s.store.Exists(ctx, userID)
}
