// Package apitest provides an in-memory Solana RPC for tests.
package apitest

import (
	"context"
	"encoding/binary"
	"strconv"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TokenAccountSize is the length of an SPL token account
const TokenAccountSize = 165

// Account states as stored on the ledger
const (
	StateInitialized byte = 1
	StateFrozen      byte = 2
)

// FakeRPC implements api.RPC over in-memory state.
type FakeRPC struct {
	mu sync.Mutex

	Height    uint64
	HeightErr error

	accounts  map[solana.PublicKey]*rpc.Account
	supplies  map[solana.PublicKey]*rpc.UiTokenAmount
	supplyErr error

	Blockhash solana.Hash
	SendErr   error

	// Status returned for every submitted signature; empty means "unknown"
	Status rpc.ConfirmationStatusType
	// TxErr, when set, is reported as the on-chain error of every transaction
	TxErr interface{}

	// OnSend runs after a transaction is accepted
	OnSend func(tx *solana.Transaction)

	Sent []*solana.Transaction
}

// NewFakeRPC returns a fake that confirms every transaction immediately.
func NewFakeRPC() *FakeRPC {
	blockhash := solana.Hash{}
	blockhash[0] = 1

	return &FakeRPC{
		Height:    100,
		accounts:  make(map[solana.PublicKey]*rpc.Account),
		supplies:  make(map[solana.PublicKey]*rpc.UiTokenAmount),
		Blockhash: blockhash,
		Status:    rpc.ConfirmationStatusConfirmed,
	}
}

// EncodeTokenAccount lays out an SPL token account
func EncodeTokenAccount(mint, owner solana.PublicKey, amount uint64, state byte) []byte {
	data := make([]byte, TokenAccountSize)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	data[108] = state
	return data
}

// PutTokenAccount stores a token account at address
func (f *FakeRPC) PutTokenAccount(address, mint, owner solana.PublicKey, amount uint64) {
	f.putTokenAccount(address, mint, owner, amount, StateInitialized)
}

// PutFrozenTokenAccount stores a frozen token account at address
func (f *FakeRPC) PutFrozenTokenAccount(address, mint, owner solana.PublicKey, amount uint64) {
	f.putTokenAccount(address, mint, owner, amount, StateFrozen)
}

func (f *FakeRPC) putTokenAccount(address, mint, owner solana.PublicKey, amount uint64, state byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[address] = &rpc.Account{
		Owner: solana.TokenProgramID,
		Data:  rpc.DataBytesOrJSONFromBytes(EncodeTokenAccount(mint, owner, amount, state)),
	}
}

// PutSystemAccount stores a non-token account at address
func (f *FakeRPC) PutSystemAccount(address solana.PublicKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[address] = &rpc.Account{
		Owner: solana.SystemProgramID,
		Data:  rpc.DataBytesOrJSONFromBytes(nil),
	}
}

// PutMint sets the supply and decimals reported for mint
func (f *FakeRPC) PutMint(mint solana.PublicKey, supply uint64, decimals uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.supplies[mint] = &rpc.UiTokenAmount{
		Amount:   strconv.FormatUint(supply, 10),
		Decimals: decimals,
	}
}

// FailSupply makes every later GetTokenSupply call return err; nil restores it
func (f *FakeRPC) FailSupply(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.supplyErr = err
}

// SentCount returns how many transactions were accepted
func (f *FakeRPC) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}

// LastSent returns the most recently accepted transaction
func (f *FakeRPC) LastSent() *solana.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Sent) == 0 {
		return nil
	}
	return f.Sent[len(f.Sent)-1]
}

func (f *FakeRPC) GetBlockHeight(_ context.Context, _ rpc.CommitmentType) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Height, f.HeightErr
}

func (f *FakeRPC) GetAccountInfoWithOpts(_ context.Context, account solana.PublicKey, _ *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[account]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{Value: acc}, nil
}

func (f *FakeRPC) GetTokenAccountsByOwner(_ context.Context, owner solana.PublicKey, _ *rpc.GetTokenAccountsConfig, _ *rpc.GetTokenAccountsOpts) (*rpc.GetTokenAccountsResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := &rpc.GetTokenAccountsResult{}
	for address, acc := range f.accounts {
		if !acc.Owner.Equals(solana.TokenProgramID) {
			continue
		}
		data := acc.Data.GetBinary()
		if len(data) < 64 || !solana.PublicKeyFromBytes(data[32:64]).Equals(owner) {
			continue
		}
		out.Value = append(out.Value, &rpc.TokenAccount{
			Pubkey:  address,
			Account: *acc,
		})
	}
	return out, nil
}

func (f *FakeRPC) GetTokenSupply(_ context.Context, mint solana.PublicKey, _ rpc.CommitmentType) (*rpc.GetTokenSupplyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.supplyErr != nil {
		return nil, f.supplyErr
	}
	supply, ok := f.supplies[mint]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	copied := *supply
	return &rpc.GetTokenSupplyResult{Value: &copied}, nil
}

func (f *FakeRPC) GetLatestBlockhash(_ context.Context, _ rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &rpc.GetLatestBlockhashResult{
		Value: &rpc.LatestBlockhashResult{
			Blockhash:            f.Blockhash,
			LastValidBlockHeight: f.Height + 150,
		},
	}, nil
}

func (f *FakeRPC) SendTransactionWithOpts(_ context.Context, tx *solana.Transaction, _ rpc.TransactionOpts) (solana.Signature, error) {
	f.mu.Lock()
	if f.SendErr != nil {
		err := f.SendErr
		f.mu.Unlock()
		return solana.Signature{}, err
	}
	f.Sent = append(f.Sent, tx)
	onSend := f.OnSend
	f.mu.Unlock()

	if onSend != nil {
		onSend(tx)
	}
	return tx.Signatures[0], nil
}

func (f *FakeRPC) GetSignatureStatuses(_ context.Context, _ bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := &rpc.GetSignatureStatusesResult{}
	for range signatures {
		if f.Status == "" && f.TxErr == nil {
			out.Value = append(out.Value, nil)
			continue
		}
		out.Value = append(out.Value, &rpc.SignatureStatusesResult{
			ConfirmationStatus: f.Status,
			Err:                f.TxErr,
		})
	}
	return out, nil
}
