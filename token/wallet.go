package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	sol "github.com/iTheRudy/solana-token/chains/solana"
	"github.com/iTheRudy/solana-token/wallet"
)

// GeneratedWallet is a new mnemonic and its address
type GeneratedWallet struct {
	Phrase string `json:"phrase"`
	PubKey string `json:"pubKey"`
}

// Balance is one token holding of a wallet
type Balance struct {
	Mint         string          `json:"mint"`
	TokenAccount string          `json:"tokenAccount"`
	Amount       decimal.Decimal `json:"amount"`
	RawAmount    uint64          `json:"rawAmount,string"`
	Decimals     uint8           `json:"decimals"`
}

// GenerateWallet creates a new wallet. It is refused while the ledger is unreachable.
func (s *Service) GenerateWallet(ctx context.Context) (*GeneratedWallet, error) {
	if !s.Available() {
		return nil, ErrLedgerUnavailable
	}

	w, err := wallet.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate wallet: %w", err)
	}

	s.log.WithField("public_key", w.Address()).Info("wallet generated")

	return &GeneratedWallet{
		Phrase: w.Mnemonic,
		PubKey: w.Address(),
	}, nil
}

// PublicKeyFromMnemonic returns the address a mnemonic derives to
func (s *Service) PublicKeyFromMnemonic(mnemonic string) (string, error) {
	key, err := wallet.KeypairFromMnemonic(mnemonic)
	if errors.Is(err, wallet.ErrInvalidMnemonic) {
		return "", invalid("mnemonic is not a valid BIP-39 phrase")
	}
	if err != nil {
		return "", err
	}
	return key.PublicKey().String(), nil
}

// GetOrCreateTokenAccount returns the owner's associated token account for
// the service mint, creating it at the service payer's expense
func (s *Service) GetOrCreateTokenAccount(ctx context.Context, ownerAddress string) (string, error) {
	owner, err := sol.ParseAddress(ownerAddress)
	if err != nil {
		return "", invalid("publicKey: %v", err)
	}

	address, created, err := s.ledger.GetOrCreateAssociatedTokenAccount(ctx, s.config.Keys.Payer, s.config.Mint, owner)
	if err != nil {
		return "", err
	}

	if created {
		s.log.WithFields(logrus.Fields{
			"owner":         owner.String(),
			"token_account": address.String(),
		}).Info("associated token account created")
	}

	return address.String(), nil
}

// Balances lists every token holding of the owner
func (s *Service) Balances(ctx context.Context, ownerAddress string) ([]Balance, error) {
	owner, err := sol.ParseAddress(ownerAddress)
	if err != nil {
		return nil, invalid("publicKey: %v", err)
	}

	holdings, err := s.ledger.TokenBalances(ctx, owner)
	if err != nil {
		return nil, err
	}

	balances := make([]Balance, 0, len(holdings))
	for _, h := range holdings {
		balances = append(balances, Balance{
			Mint:         h.Mint.String(),
			TokenAccount: h.Account.String(),
			Amount:       sol.FromBaseUnits(h.Amount, h.Decimals),
			RawAmount:    h.Amount,
			Decimals:     h.Decimals,
		})
	}
	return balances, nil
}
