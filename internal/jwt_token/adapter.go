package jwttoken

import (
	authmw "tbt/pkg/platform/middleware/auth"
)

// Adapter exposes the service as the auth middleware's TokenValidator.
type Adapter struct {
	service *JWTService
}

func NewAdapter(service *JWTService) *Adapter {
	return &Adapter{service: service}
}

func (a *Adapter) ValidateToken(tokenString string) (*authmw.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &authmw.Claims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Phone:  claims.Phone,
		Role:   claims.Role,
	}, nil
}
