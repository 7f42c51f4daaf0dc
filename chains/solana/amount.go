package solana

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for non-positive, over-precise or oversized amounts
var ErrInvalidAmount = errors.New("invalid amount")

// exponent bounds for ToBaseUnits; 10^21 already exceeds a uint64
const (
	maxExponent    = 20
	maxExtraDigits = 40
)

// ParseAmount parses a token amount such as "12.5"
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: not a number", ErrInvalidAmount)
	}
	return d, nil
}

// ToBaseUnits converts a token amount into the integer amount stored on the ledger
func ToBaseUnits(amount decimal.Decimal, decimals uint8) (uint64, error) {
	if amount.Sign() <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}

	// bound the exponent before any arithmetic that materializes the digits
	exp := amount.Exponent() + int32(decimals)
	if exp > maxExponent {
		return 0, fmt.Errorf("%w: too large", ErrInvalidAmount)
	}
	if exp < -maxExtraDigits {
		return 0, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, decimals)
	}

	scaled := amount.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, decimals)
	}

	units := scaled.BigInt()
	if !units.IsUint64() {
		return 0, fmt.Errorf("%w: too large", ErrInvalidAmount)
	}

	return units.Uint64(), nil
}

// FromBaseUnits converts a ledger integer amount into token units
func FromBaseUnits(units uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -int32(decimals))
}

// FormatAmount renders base units as a fixed-point string with the mint's precision
func FormatAmount(units uint64, decimals uint8) string {
	return FromBaseUnits(units, decimals).StringFixed(int32(decimals))
}
