// Package token implements the wallet and SPL-token operations exposed by the HTTP API.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/iTheRudy/solana-token/api"
	"github.com/iTheRudy/solana-token/metrics"
	"github.com/iTheRudy/solana-token/wallet"
)

var (
	// ErrLedgerUnavailable is returned while the RPC endpoint is failing its liveness probe
	ErrLedgerUnavailable = errors.New("there was a problem while connecting to the ledger")
	// ErrInvalidRequest wraps every input validation failure
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInsufficientFunds is returned when a source account holds less than requested
	ErrInsufficientFunds = errors.New("insufficient token balance")
	// ErrAccountFrozen is returned when an involved token account is frozen
	ErrAccountFrozen = errors.New("token account is frozen")
	// ErrFreezeAuthorityMissing is returned when no freeze authority is configured
	ErrFreezeAuthorityMissing = errors.New("freeze authority is not configured")
)

// Ledger is the set of ledger operations the service depends on.
// *api.Client satisfies it.
type Ledger interface {
	BlockHeight(ctx context.Context) (uint64, error)
	TokenAccount(ctx context.Context, address solana.PublicKey) (*api.TokenAccount, error)
	GetOrCreateAssociatedTokenAccount(ctx context.Context, payer solana.PrivateKey, mint, owner solana.PublicKey) (solana.PublicKey, bool, error)
	TokenBalances(ctx context.Context, owner solana.PublicKey) ([]api.TokenBalance, error)
	TokenSupply(ctx context.Context, mint solana.PublicKey) (*api.Supply, error)
	MintTo(ctx context.Context, payer, authority solana.PrivateKey, mint, destination solana.PublicKey, amount uint64) (solana.Signature, error)
	Transfer(ctx context.Context, params api.TransferParams) (solana.Signature, error)
	FreezeAccount(ctx context.Context, payer, authority solana.PrivateKey, account, mint solana.PublicKey) (solana.Signature, error)
	ThawAccount(ctx context.Context, payer, authority solana.PrivateKey, account, mint solana.PublicKey) (solana.Signature, error)
}

var _ Ledger = (*api.Client)(nil)

// Config holds the on-ledger identities the service operates on
type Config struct {
	Mint            solana.PublicKey
	TreasuryAccount solana.PublicKey
	Keys            *wallet.Keyring

	// SponsorTransferFees makes the service payer cover fees of user transfers
	SponsorTransferFees bool
	ProbeInterval       time.Duration
}

// Service is safe for concurrent use
type Service struct {
	ledger Ledger
	config Config
	log    *logrus.Entry

	available   atomic.Bool
	blockHeight atomic.Uint64
}

// NewService creates a service; the ledger is assumed reachable until a probe fails
func NewService(ledger Ledger, config Config, log *logrus.Entry) (*Service, error) {
	if config.Keys == nil {
		return nil, fmt.Errorf("service keys are not configured")
	}
	if config.Mint.IsZero() {
		return nil, fmt.Errorf("mint is not configured")
	}
	if config.TreasuryAccount.IsZero() {
		return nil, fmt.Errorf("treasury token account is not configured")
	}
	if config.ProbeInterval <= 0 {
		config.ProbeInterval = 30 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger().WithField("type", "token/service")
	}

	s := &Service{
		ledger: ledger,
		config: config,
		log:    log,
	}
	s.available.Store(true)
	return s, nil
}

// Mint returns the mint this service operates on
func (s *Service) Mint() solana.PublicKey {
	return s.config.Mint
}

// TreasuryAccount returns the token account new supply is minted into
func (s *Service) TreasuryAccount() solana.PublicKey {
	return s.config.TreasuryAccount
}

// Available reports the result of the last liveness probe
func (s *Service) Available() bool {
	return s.available.Load()
}

// LastBlockHeight returns the height seen by the last successful probe
func (s *Service) LastBlockHeight() uint64 {
	return s.blockHeight.Load()
}

// Probe checks the RPC endpoint and updates the liveness flag
func (s *Service) Probe(ctx context.Context) (uint64, error) {
	height, err := s.ledger.BlockHeight(ctx)
	if err != nil {
		if s.available.Swap(false) {
			s.log.WithError(err).Error("error while connecting to the ledger")
		}
		metrics.SetLedgerUp(false, 0)
		return 0, err
	}

	if !s.available.Swap(true) {
		s.log.WithField("block_height", height).Info("ledger connection restored")
	}
	s.blockHeight.Store(height)
	metrics.SetLedgerUp(true, height)
	return height, nil
}

// Run probes the ledger periodically until ctx is done
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.config.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, s.config.ProbeInterval)
			_, _ = s.Probe(probeCtx)
			cancel()
		}
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
