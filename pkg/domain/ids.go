// Package domain holds identifier types shared across bounded contexts.
//
// Each identifier is a distinct named UUID type so a WorkID can never be passed
// where a UserID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "tbt/pkg/domain-errors"
)

type (
	// UserID identifies a profile (creator, owner or claimant).
	UserID uuid.UUID
	// WorkID is the internal identifier of a certified work.
	WorkID uuid.UUID
	// TransferID identifies one row of the append-only transfer log.
	TransferID uuid.UUID
	// ClaimID identifies a claimant's in-flight transfer protocol state.
	ClaimID uuid.UUID
	// ActionID identifies a settlement outbox action.
	ActionID uuid.UUID
)

func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id WorkID) String() string     { return uuid.UUID(id).String() }
func (id TransferID) String() string { return uuid.UUID(id).String() }
func (id ClaimID) String() string    { return uuid.UUID(id).String() }
func (id ActionID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id WorkID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id TransferID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ClaimID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ActionID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

func NewWorkID() WorkID         { return WorkID(uuid.New()) }
func NewTransferID() TransferID { return TransferID(uuid.New()) }
func NewClaimID() ClaimID       { return ClaimID(uuid.New()) }
func NewActionID() ActionID     { return ActionID(uuid.New()) }

// parseID validates that s is a non-nil UUID.
func parseID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" cannot be nil")
	}
	return parsed, nil
}

func ParseUserID(s string) (UserID, error) {
	id, err := parseID(s, "user ID")
	return UserID(id), err
}

func ParseWorkID(s string) (WorkID, error) {
	id, err := parseID(s, "work ID")
	return WorkID(id), err
}

func ParseTransferID(s string) (TransferID, error) {
	id, err := parseID(s, "transfer ID")
	return TransferID(id), err
}

func ParseClaimID(s string) (ClaimID, error) {
	id, err := parseID(s, "claim ID")
	return ClaimID(id), err
}

func ParseActionID(s string) (ActionID, error) {
	id, err := parseID(s, "action ID")
	return ActionID(id), err
}
