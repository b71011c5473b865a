package handler

import (
	"strings"

	"tbt/internal/transfer/service"
	dErrors "tbt/pkg/domain-errors"
)

const (
	maxCodeLength  = 64
	maxPhoneLength = 32
	maxNameLength  = 256
)

// CodeRequest is the body of POST /transfers/claims. The code is matched
// by the service; malformed codes are reported as invalid codes there.
type CodeRequest struct {
	Code string `json:"code"`
}

func (r *CodeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Code) == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	if len(r.Code) > maxCodeLength {
		return dErrors.New(dErrors.CodeValidation, "code is too long")
	}
	return nil
}

// DetailsRequest is the body of PUT /transfers/claims/{id}/details.
type DetailsRequest struct {
	Name              string `json:"name"`
	Phone             string `json:"phone"`
	PhoneConfirmation string `json:"phone_confirmation"`
}

// Validate only bounds sizes; the domain owns the matching rules.
func (r *DetailsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "name is too long")
	}
	if len(r.Phone) > maxPhoneLength || len(r.PhoneConfirmation) > maxPhoneLength {
		return dErrors.New(dErrors.CodeValidation, "phone must be at most 32 characters")
	}
	return nil
}

func (r *DetailsRequest) Command() service.DetailsCommand {
	return service.DetailsCommand{
		Name:              r.Name,
		Phone:             r.Phone,
		PhoneConfirmation: r.PhoneConfirmation,
	}
}
