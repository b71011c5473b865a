package models

import (
	"fmt"

	dErrors "tbt/pkg/domain-errors"
)

type RoyaltyType string

const (
	RoyaltyNone       RoyaltyType = "none"
	RoyaltyPercentage RoyaltyType = "percentage"
	RoyaltyFixed      RoyaltyType = "fixed"
)

// Terms are the commercial terms shown to a claimant. Amounts are minor units;
// a percentage royalty is expressed in basis points (1000 = 10%).
type Terms struct {
	PriceMinor   int64
	Currency     string
	RoyaltyType  RoyaltyType
	RoyaltyValue int64
}

const maxBasisPoints = 10000

func (t Terms) Validate() error {
	if t.PriceMinor < 0 {
		return dErrors.New(dErrors.CodeValidation, "market price cannot be negative")
	}
	if !validCurrency(t.Currency) {
		return dErrors.New(dErrors.CodeValidation, "currency must be a three-letter ISO code")
	}
	switch t.RoyaltyType {
	case RoyaltyNone:
		if t.RoyaltyValue != 0 {
			return dErrors.New(dErrors.CodeValidation, "royalty value must be zero when royalty type is none")
		}
	case RoyaltyPercentage:
		if t.RoyaltyValue < 0 || t.RoyaltyValue > maxBasisPoints {
			return dErrors.New(dErrors.CodeValidation, "percentage royalty must be between 0 and 100%")
		}
	case RoyaltyFixed:
		if t.RoyaltyValue < 0 {
			return dErrors.New(dErrors.CodeValidation, "fixed royalty cannot be negative")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "royalty type must be none, percentage or fixed")
	}
	return nil
}

func validCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// RoyaltyAmount is the royalty owed on a resale at the market price, in minor
// units. Display only: the transfer flow does not collect it.
func (t Terms) RoyaltyAmount() int64 {
	switch t.RoyaltyType {
	case RoyaltyPercentage:
		return t.PriceMinor * t.RoyaltyValue / maxBasisPoints
	case RoyaltyFixed:
		return t.RoyaltyValue
	default:
		return 0
	}
}

// PriceDisplay renders the market price, e.g. "120.00 USD".
func (t Terms) PriceDisplay() string {
	return FormatMoney(t.PriceMinor, t.Currency)
}

// RoyaltyDisplay renders the royalty term, e.g. "10%", "12.5%" or "5.00 USD".
func (t Terms) RoyaltyDisplay() string {
	switch t.RoyaltyType {
	case RoyaltyPercentage:
		whole, frac := t.RoyaltyValue/100, t.RoyaltyValue%100
		switch {
		case frac == 0:
			return fmt.Sprintf("%d%%", whole)
		case frac%10 == 0:
			return fmt.Sprintf("%d.%d%%", whole, frac/10)
		default:
			return fmt.Sprintf("%d.%02d%%", whole, frac)
		}
	case RoyaltyFixed:
		return FormatMoney(t.RoyaltyValue, t.Currency)
	default:
		return "none"
	}
}

// zeroDecimal lists currencies without a minor unit.
var zeroDecimal = map[string]bool{"JPY": true, "KRW": true, "VND": true, "CLP": true}

// FormatMoney renders minor units with the currency's exponent.
func FormatMoney(minor int64, currency string) string {
	if zeroDecimal[currency] {
		return fmt.Sprintf("%d %s", minor, currency)
	}
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, minor/100, minor%100, currency)
}
