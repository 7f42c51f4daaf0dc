package api

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrAccountNotFound is returned when an address holds no SPL token account
	ErrAccountNotFound = errors.New("token account not found")
	// ErrTransactionFailed is returned when the ledger rejects a submitted transaction
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrConfirmationTimeout is returned when a transaction is not confirmed in time
	ErrConfirmationTimeout = errors.New("transaction confirmation timed out")
)

// TokenAccount is a decoded SPL token account
type TokenAccount struct {
	Address solana.PublicKey
	Mint    solana.PublicKey
	Owner   solana.PublicKey
	Amount  uint64
	Frozen  bool
}

// TokenBalance is one holding of an owner
type TokenBalance struct {
	Account  solana.PublicKey
	Mint     solana.PublicKey
	Amount   uint64
	Decimals uint8
}

// Supply is the circulating supply of a mint
type Supply struct {
	Amount   uint64
	Decimals uint8
}

// TransferParams describes an SPL transfer between two token accounts
type TransferParams struct {
	FeePayer    solana.PrivateKey
	Owner       solana.PrivateKey
	Source      solana.PublicKey
	Destination solana.PublicKey
	Mint        solana.PublicKey
	Amount      uint64
	Decimals    uint8
}
