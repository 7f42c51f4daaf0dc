package solana

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// ParseAddress parses a base58 public key
func ParseAddress(address string) (solana.PublicKey, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return solana.PublicKey{}, fmt.Errorf("address is empty")
	}

	for i, c := range address {
		// Base58 doesn't use 0, O, I, or l
		if c == '0' || c == 'O' || c == 'I' || c == 'l' {
			return solana.PublicKey{}, fmt.Errorf("invalid character '%c' at position %d in address", c, i)
		}
	}

	decoded, err := base58.Decode(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid address (%s): %w", address, err)
	}
	if len(decoded) != solana.PublicKeyLength {
		return solana.PublicKey{}, fmt.Errorf("invalid address (%s): decoded length %d, expected %d", address, len(decoded), solana.PublicKeyLength)
	}

	return solana.PublicKeyFromBytes(decoded), nil
}

func ValidateAddress(address string) error {
	_, err := ParseAddress(address)
	return err
}
