package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iTheRudy/solana-token/api/apitest"
	sol "github.com/iTheRudy/solana-token/chains/solana"
)

func newTestClient(t *testing.T) (*Client, *apitest.FakeRPC) {
	t.Helper()
	fake := apitest.NewFakeRPC()
	client := NewClientWithRPC(fake, Options{
		ConfirmTimeout: 200 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
	})
	return client, fake
}

func programOf(tx *solana.Transaction, i int) solana.PublicKey {
	return tx.Message.AccountKeys[tx.Message.Instructions[i].ProgramIDIndex]
}

func TestBlockHeight(t *testing.T) {
	client, fake := newTestClient(t)

	height, err := client.BlockHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), height)

	fake.HeightErr = errors.New("connection refused")
	_, err = client.BlockHeight(context.Background())
	assert.Error(t, err)
}

func TestTokenAccount(t *testing.T) {
	client, fake := newTestClient(t)
	address := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	fake.PutTokenAccount(address, mint, owner, 42)

	account, err := client.TokenAccount(context.Background(), address)
	require.NoError(t, err)
	assert.Equal(t, mint, account.Mint)
	assert.Equal(t, owner, account.Owner)
	assert.Equal(t, uint64(42), account.Amount)
	assert.False(t, account.Frozen)

	frozen := solana.NewWallet().PublicKey()
	fake.PutFrozenTokenAccount(frozen, mint, owner, 1)
	account, err = client.TokenAccount(context.Background(), frozen)
	require.NoError(t, err)
	assert.True(t, account.Frozen)
}

func TestTokenAccount_NotFound(t *testing.T) {
	client, fake := newTestClient(t)

	_, err := client.TokenAccount(context.Background(), solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, ErrAccountNotFound)

	wallet := solana.NewWallet().PublicKey()
	fake.PutSystemAccount(wallet)
	_, err = client.TokenAccount(context.Background(), wallet)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGetOrCreateAssociatedTokenAccount_Existing(t *testing.T) {
	client, fake := newTestClient(t)
	payer := solana.NewWallet().PrivateKey
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	ata, err := sol.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	fake.PutTokenAccount(ata, mint, owner, 0)

	address, created, err := client.GetOrCreateAssociatedTokenAccount(context.Background(), payer, mint, owner)
	require.NoError(t, err)
	assert.Equal(t, ata, address)
	assert.False(t, created)
	assert.Equal(t, 0, fake.SentCount())
}

func TestGetOrCreateAssociatedTokenAccount_Creates(t *testing.T) {
	client, fake := newTestClient(t)
	payer := solana.NewWallet().PrivateKey
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	address, created, err := client.GetOrCreateAssociatedTokenAccount(context.Background(), payer, mint, owner)
	require.NoError(t, err)
	assert.True(t, created)

	ata, err := sol.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)
	assert.Equal(t, ata, address)

	tx := fake.LastSent()
	require.NotNil(t, tx)
	assert.Equal(t, payer.PublicKey(), tx.Message.AccountKeys[0])
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, programOf(tx, 0))
}

func TestGetOrCreateAssociatedTokenAccount_RaceResolved(t *testing.T) {
	client, fake := newTestClient(t)
	payer := solana.NewWallet().PrivateKey
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	ata, err := sol.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)

	fake.TxErr = map[string]interface{}{"InstructionError": []interface{}{0, "IllegalOwner"}}
	fake.OnSend = func(*solana.Transaction) {
		fake.PutTokenAccount(ata, mint, owner, 0)
	}

	address, created, err := client.GetOrCreateAssociatedTokenAccount(context.Background(), payer, mint, owner)
	require.NoError(t, err)
	assert.Equal(t, ata, address)
	assert.False(t, created)
}

func TestTokenBalances(t *testing.T) {
	client, fake := newTestClient(t)
	owner := solana.NewWallet().PublicKey()
	mintA := solana.NewWallet().PublicKey()
	mintB := solana.NewWallet().PublicKey()

	fake.PutMint(mintA, 1_000_000_000_000, 9)
	fake.PutMint(mintB, 500, 2)
	fake.PutTokenAccount(solana.NewWallet().PublicKey(), mintA, owner, 2_500_000_000)
	fake.PutTokenAccount(solana.NewWallet().PublicKey(), mintB, owner, 150)
	fake.PutTokenAccount(solana.NewWallet().PublicKey(), mintB, solana.NewWallet().PublicKey(), 7)

	balances, err := client.TokenBalances(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, balances, 2)

	byMint := map[solana.PublicKey]TokenBalance{}
	for _, b := range balances {
		byMint[b.Mint] = b
	}
	assert.Equal(t, uint64(2_500_000_000), byMint[mintA].Amount)
	assert.Equal(t, uint8(9), byMint[mintA].Decimals)
	assert.Equal(t, uint64(150), byMint[mintB].Amount)
	assert.Equal(t, uint8(2), byMint[mintB].Decimals)
}

func TestTokenBalances_Empty(t *testing.T) {
	client, _ := newTestClient(t)

	balances, err := client.TokenBalances(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.NotNil(t, balances)
	assert.Empty(t, balances)
}

func TestTokenSupply(t *testing.T) {
	client, fake := newTestClient(t)
	mint := solana.NewWallet().PublicKey()
	fake.PutMint(mint, 12345, 3)

	supply, err := client.TokenSupply(context.Background(), mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), supply.Amount)
	assert.Equal(t, uint8(3), supply.Decimals)

	_, err = client.TokenSupply(context.Background(), solana.NewWallet().PublicKey())
	assert.Error(t, err)
}

func TestMintTo(t *testing.T) {
	client, fake := newTestClient(t)
	payer := solana.NewWallet().PrivateKey
	authority := solana.NewWallet().PrivateKey
	mint := solana.NewWallet().PublicKey()
	dest := solana.NewWallet().PublicKey()

	sig, err := client.MintTo(context.Background(), payer, authority, mint, dest, 1000)
	require.NoError(t, err)

	tx := fake.LastSent()
	require.NotNil(t, tx)
	assert.Equal(t, tx.Signatures[0], sig)
	assert.Len(t, tx.Signatures, 2)
	assert.Equal(t, solana.TokenProgramID, programOf(tx, 0))
	assert.Equal(t, fake.Blockhash, tx.Message.RecentBlockhash)
	assert.NoError(t, tx.VerifySignatures())
}

func TestTransfer_OwnerPaysFeesByDefault(t *testing.T) {
	client, fake := newTestClient(t)
	owner := solana.NewWallet().PrivateKey

	_, err := client.Transfer(context.Background(), TransferParams{
		Owner:       owner,
		Source:      solana.NewWallet().PublicKey(),
		Destination: solana.NewWallet().PublicKey(),
		Mint:        solana.NewWallet().PublicKey(),
		Amount:      5,
		Decimals:    9,
	})
	require.NoError(t, err)

	tx := fake.LastSent()
	require.NotNil(t, tx)
	assert.Len(t, tx.Signatures, 1)
	assert.Equal(t, owner.PublicKey(), tx.Message.AccountKeys[0])
}

func TestTransfer_SponsoredFees(t *testing.T) {
	client, fake := newTestClient(t)
	owner := solana.NewWallet().PrivateKey
	sponsor := solana.NewWallet().PrivateKey

	_, err := client.Transfer(context.Background(), TransferParams{
		FeePayer:    sponsor,
		Owner:       owner,
		Source:      solana.NewWallet().PublicKey(),
		Destination: solana.NewWallet().PublicKey(),
		Mint:        solana.NewWallet().PublicKey(),
		Amount:      5,
		Decimals:    9,
	})
	require.NoError(t, err)

	tx := fake.LastSent()
	require.NotNil(t, tx)
	assert.Len(t, tx.Signatures, 2)
	assert.Equal(t, sponsor.PublicKey(), tx.Message.AccountKeys[0])
}

func TestFreezeAndThaw(t *testing.T) {
	client, fake := newTestClient(t)
	payer := solana.NewWallet().PrivateKey
	authority := solana.NewWallet().PrivateKey
	account := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()

	_, err := client.FreezeAccount(context.Background(), payer, authority, account, mint)
	require.NoError(t, err)
	_, err = client.ThawAccount(context.Background(), payer, authority, account, mint)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.SentCount())
}

func TestSubmit_SendError(t *testing.T) {
	client, fake := newTestClient(t)
	fake.SendErr = errors.New("insufficient funds for fee")

	_, err := client.MintTo(context.Background(),
		solana.NewWallet().PrivateKey, solana.NewWallet().PrivateKey,
		solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")
}

func TestSubmit_TransactionFailed(t *testing.T) {
	client, fake := newTestClient(t)
	fake.TxErr = map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}

	_, err := client.MintTo(context.Background(),
		solana.NewWallet().PrivateKey, solana.NewWallet().PrivateKey,
		solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 1)
	assert.ErrorIs(t, err, ErrTransactionFailed)
}

func TestSubmit_ConfirmationTimeout(t *testing.T) {
	client, fake := newTestClient(t)
	fake.Status = ""

	_, err := client.MintTo(context.Background(),
		solana.NewWallet().PrivateKey, solana.NewWallet().PrivateKey,
		solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 1)
	assert.ErrorIs(t, err, ErrConfirmationTimeout)
}

func TestSubmit_WaitsForFinalized(t *testing.T) {
	fake := apitest.NewFakeRPC()
	fake.Status = rpc.ConfirmationStatusConfirmed
	client := NewClientWithRPC(fake, Options{
		Commitment:     rpc.CommitmentFinalized,
		ConfirmTimeout: 50 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
	})

	_, err := client.MintTo(context.Background(),
		solana.NewWallet().PrivateKey, solana.NewWallet().PrivateKey,
		solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), 1)
	assert.ErrorIs(t, err, ErrConfirmationTimeout)
}

func TestCommitmentReached(t *testing.T) {
	assert.True(t, commitmentReached(rpc.ConfirmationStatusProcessed, rpc.CommitmentProcessed))
	assert.False(t, commitmentReached(rpc.ConfirmationStatusProcessed, rpc.CommitmentConfirmed))
	assert.True(t, commitmentReached(rpc.ConfirmationStatusFinalized, rpc.CommitmentConfirmed))
	assert.False(t, commitmentReached(rpc.ConfirmationStatusConfirmed, rpc.CommitmentFinalized))
}

func TestEndpointForNetwork(t *testing.T) {
	endpoint, err := EndpointForNetwork("Devnet")
	require.NoError(t, err)
	assert.Equal(t, DevnetSolanaRPC, endpoint)

	endpoint, err = EndpointForNetwork("")
	require.NoError(t, err)
	assert.Equal(t, TestnetSolanaRPC, endpoint)

	_, err = EndpointForNetwork("localnet")
	assert.Error(t, err)
}

func TestParseCommitment(t *testing.T) {
	c, err := ParseCommitment("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCommitment, c)

	c, err = ParseCommitment("FINALIZED")
	require.NoError(t, err)
	assert.Equal(t, rpc.CommitmentFinalized, c)

	_, err = ParseCommitment("max")
	assert.Error(t, err)
}
