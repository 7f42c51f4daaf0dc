package token

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	sol "github.com/iTheRudy/solana-token/chains/solana"
)

// MintResult is the outcome of minting new supply
type MintResult struct {
	Signature string          `json:"signature"`
	Supply    decimal.Decimal `json:"supply"`
}

// CurrentSupply returns the circulating supply of the service mint in token units
func (s *Service) CurrentSupply(ctx context.Context) (decimal.Decimal, error) {
	supply, err := s.ledger.TokenSupply(ctx, s.config.Mint)
	if err != nil {
		return decimal.Zero, err
	}
	return sol.FromBaseUnits(supply.Amount, supply.Decimals), nil
}

// CreateSupply mints amount new tokens into the treasury account
func (s *Service) CreateSupply(ctx context.Context, amount decimal.Decimal) (*MintResult, error) {
	before, err := s.ledger.TokenSupply(ctx, s.config.Mint)
	if err != nil {
		return nil, err
	}

	units, err := amountToUnits(amount, before.Decimals)
	if err != nil {
		return nil, err
	}

	sig, err := s.ledger.MintTo(ctx,
		s.config.Keys.Payer,
		s.config.Keys.MintAuthority,
		s.config.Mint,
		s.config.TreasuryAccount,
		units,
	)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"signature": sig.String(),
		"amount":    amount.String(),
	}).Info("supply minted")

	// the mint is final at this point; a failed read must not hide the signature
	supply, err := s.CurrentSupply(ctx)
	if err != nil {
		s.log.WithError(err).WithField("signature", sig.String()).Warn("failed to read supply after mint")
		supply = sol.FromBaseUnits(before.Amount+units, before.Decimals)
	}

	return &MintResult{
		Signature: sig.String(),
		Supply:    supply,
	}, nil
}

func (s *Service) mintDecimals(ctx context.Context) (uint8, error) {
	supply, err := s.ledger.TokenSupply(ctx, s.config.Mint)
	if err != nil {
		return 0, err
	}
	return supply.Decimals, nil
}

// amountToUnits converts a user amount with the mint's precision
func amountToUnits(amount decimal.Decimal, decimals uint8) (uint64, error) {
	units, err := sol.ToBaseUnits(amount, decimals)
	if errors.Is(err, sol.ErrInvalidAmount) {
		return 0, invalid("amount: %v", err)
	}
	return units, err
}
