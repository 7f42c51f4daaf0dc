package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iTheRudy/solana-token/api"
	sol "github.com/iTheRudy/solana-token/chains/solana"
	"github.com/iTheRudy/solana-token/wallet"
)

// TransferRequest is a user-signed transfer between two token accounts
type TransferRequest struct {
	PayerMnemonic        string
	PayerTokenAccount    string
	ReceiverTokenAccount string
	Amount               decimal.Decimal
}

// CreditAccount sends amount tokens from the treasury to a token account of the service mint
func (s *Service) CreditAccount(ctx context.Context, tokenAccount string, amount decimal.Decimal) (string, error) {
	destination, err := sol.ParseAddress(tokenAccount)
	if err != nil {
		return "", invalid("tokenAccountAddress: %v", err)
	}

	decimals, err := s.mintDecimals(ctx)
	if err != nil {
		return "", err
	}
	units, err := amountToUnits(amount, decimals)
	if err != nil {
		return "", err
	}

	if _, err := s.mintAccount(ctx, destination, "destination"); err != nil {
		return "", err
	}

	treasury, err := s.mintAccount(ctx, s.config.TreasuryAccount, "treasury")
	if err != nil {
		return "", err
	}
	if treasury.Amount < units {
		return "", fmt.Errorf("%w: treasury holds %s", ErrInsufficientFunds, sol.FormatAmount(treasury.Amount, decimals))
	}

	sig, err := s.ledger.Transfer(ctx, api.TransferParams{
		FeePayer:    s.config.Keys.Payer,
		Owner:       s.config.Keys.MintAuthority,
		Source:      s.config.TreasuryAccount,
		Destination: destination,
		Mint:        s.config.Mint,
		Amount:      units,
		Decimals:    decimals,
	})
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"token_account": destination.String(),
		"amount":        amount.String(),
		"signature":     sig.String(),
	}).Info("account credited")

	return sig.String(), nil
}

// TransferTokens moves tokens out of an account owned by the mnemonic's wallet
func (s *Service) TransferTokens(ctx context.Context, req TransferRequest) (string, error) {
	owner, err := wallet.KeypairFromMnemonic(req.PayerMnemonic)
	if errors.Is(err, wallet.ErrInvalidMnemonic) {
		return "", invalid("payerMnemonic is not a valid BIP-39 phrase")
	}
	if err != nil {
		return "", err
	}

	source, err := sol.ParseAddress(req.PayerTokenAccount)
	if err != nil {
		return "", invalid("payerTokenAccount: %v", err)
	}
	destination, err := sol.ParseAddress(req.ReceiverTokenAccount)
	if err != nil {
		return "", invalid("receiverTokenAccount: %v", err)
	}
	if source.Equals(destination) {
		return "", invalid("payer and receiver token accounts must differ")
	}

	decimals, err := s.mintDecimals(ctx)
	if err != nil {
		return "", err
	}
	units, err := amountToUnits(req.Amount, decimals)
	if err != nil {
		return "", err
	}

	from, err := s.mintAccount(ctx, source, "payer")
	if err != nil {
		return "", err
	}
	if !from.Owner.Equals(owner.PublicKey()) {
		return "", invalid("payerTokenAccount %s is not owned by %s", source, owner.PublicKey())
	}
	if from.Amount < units {
		return "", fmt.Errorf("%w: account holds %s", ErrInsufficientFunds, sol.FormatAmount(from.Amount, decimals))
	}

	if _, err := s.mintAccount(ctx, destination, "receiver"); err != nil {
		return "", err
	}

	params := api.TransferParams{
		Owner:       owner,
		Source:      source,
		Destination: destination,
		Mint:        s.config.Mint,
		Amount:      units,
		Decimals:    decimals,
	}
	if s.config.SponsorTransferFees {
		params.FeePayer = s.config.Keys.Payer
	}

	sig, err := s.ledger.Transfer(ctx, params)
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"from":      source.String(),
		"to":        destination.String(),
		"amount":    req.Amount.String(),
		"signature": sig.String(),
	}).Info("tokens transferred")

	return sig.String(), nil
}

// FreezeAccount freezes a token account of the service mint
func (s *Service) FreezeAccount(ctx context.Context, tokenAccount string) (string, error) {
	return s.setFrozen(ctx, tokenAccount, true)
}

// ThawAccount thaws a frozen token account of the service mint
func (s *Service) ThawAccount(ctx context.Context, tokenAccount string) (string, error) {
	return s.setFrozen(ctx, tokenAccount, false)
}

func (s *Service) setFrozen(ctx context.Context, tokenAccount string, freeze bool) (string, error) {
	if !s.config.Keys.HasFreezeAuthority() {
		return "", ErrFreezeAuthorityMissing
	}

	address, err := sol.ParseAddress(tokenAccount)
	if err != nil {
		return "", invalid("tokenAccountAddress: %v", err)
	}

	account, err := s.ledger.TokenAccount(ctx, address)
	if err != nil {
		return "", err
	}
	if !account.Mint.Equals(s.config.Mint) {
		return "", invalid("token account %s belongs to mint %s", address, account.Mint)
	}
	if account.Frozen == freeze {
		state := "thawed"
		if freeze {
			state = "frozen"
		}
		return "", invalid("token account %s is already %s", address, state)
	}

	var sig solana.Signature
	if freeze {
		sig, err = s.ledger.FreezeAccount(ctx, s.config.Keys.Payer, s.config.Keys.FreezeAuthority, address, s.config.Mint)
	} else {
		sig, err = s.ledger.ThawAccount(ctx, s.config.Keys.Payer, s.config.Keys.FreezeAuthority, address, s.config.Mint)
	}
	if err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"token_account": address.String(),
		"frozen":        freeze,
		"signature":     sig.String(),
	}).Info("token account state changed")

	return sig.String(), nil
}

// mintAccount loads a token account and checks it can take part in a transfer of the service mint
func (s *Service) mintAccount(ctx context.Context, address solana.PublicKey, role string) (*api.TokenAccount, error) {
	account, err := s.ledger.TokenAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	if !account.Mint.Equals(s.config.Mint) {
		return nil, invalid("%s token account %s belongs to mint %s", role, address, account.Mint)
	}
	if account.Frozen {
		return nil, fmt.Errorf("%w: %s", ErrAccountFrozen, address)
	}
	return account, nil
}
