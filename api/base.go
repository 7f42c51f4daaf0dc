package api

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
)

// RPC is the subset of the Solana JSON-RPC API used by the client.
// *rpc.Client satisfies it.
type RPC interface {
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, conf *rpc.GetTokenAccountsConfig, opts *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error)
	GetTokenSupply(ctx context.Context, mint solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenSupplyResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

var _ RPC = (*rpc.Client)(nil)

// Options tune commitment and confirmation behaviour
type Options struct {
	Commitment     rpc.CommitmentType
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	Logger         *logrus.Entry
}

// Client handles calls to a Solana RPC endpoint
type Client struct {
	rpc            RPC
	commitment     rpc.CommitmentType
	confirmTimeout time.Duration
	pollInterval   time.Duration
	log            *logrus.Entry
}

// NewClient creates a client for the given RPC endpoint
func NewClient(endpoint string, opts Options) *Client {
	return NewClientWithRPC(rpc.New(endpoint), opts)
}

// NewClientWithRPC creates a client over an existing RPC implementation
func NewClientWithRPC(r RPC, opts Options) *Client {
	if opts.Commitment == "" {
		opts.Commitment = DefaultCommitment
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = DefaultConfirmTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger().WithField("type", "api/client")
	}

	return &Client{
		rpc:            r,
		commitment:     opts.Commitment,
		confirmTimeout: opts.ConfirmTimeout,
		pollInterval:   opts.PollInterval,
		log:            opts.Logger,
	}
}

// Commitment returns the commitment level used for reads and confirmation
func (c *Client) Commitment() rpc.CommitmentType {
	return c.commitment
}
