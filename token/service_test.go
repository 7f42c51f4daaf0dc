package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iTheRudy/solana-token/api"
	"github.com/iTheRudy/solana-token/api/apitest"
	"github.com/iTheRudy/solana-token/wallet"
)

const testDecimals = 6

type testEnv struct {
	rpc      *apitest.FakeRPC
	service  *Service
	keys     *wallet.Keyring
	mint     solana.PublicKey
	treasury solana.PublicKey
	hook     *test.Hook
}

func setup(t *testing.T, withFreezeAuthority bool) *testEnv {
	t.Helper()

	payer, err := wallet.GenerateMnemonic()
	require.NoError(t, err)
	mintAuthority, err := wallet.GenerateMnemonic()
	require.NoError(t, err)
	freezeAuthority := ""
	if withFreezeAuthority {
		freezeAuthority, err = wallet.GenerateMnemonic()
		require.NoError(t, err)
	}

	keys, err := wallet.NewKeyring(payer, mintAuthority, freezeAuthority)
	require.NoError(t, err)

	mint := solana.NewWallet().PublicKey()
	treasury := solana.NewWallet().PublicKey()

	fake := apitest.NewFakeRPC()
	fake.PutMint(mint, 1_000_000_000, testDecimals)
	fake.PutTokenAccount(treasury, mint, keys.MintAuthority.PublicKey(), 500_000_000)

	client := api.NewClientWithRPC(fake, api.Options{
		ConfirmTimeout: 200 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
	})

	logger, hook := test.NewNullLogger()
	service, err := NewService(client, Config{
		Mint:            mint,
		TreasuryAccount: treasury,
		Keys:            keys,
	}, logger.WithField("type", "token/service"))
	require.NoError(t, err)

	return &testEnv{
		rpc:      fake,
		service:  service,
		keys:     keys,
		mint:     mint,
		treasury: treasury,
		hook:     hook,
	}
}

func TestNewService_Validation(t *testing.T) {
	env := setup(t, false)
	client := api.NewClientWithRPC(env.rpc, api.Options{})

	_, err := NewService(client, Config{Mint: env.mint, TreasuryAccount: env.treasury}, nil)
	assert.Error(t, err)

	_, err = NewService(client, Config{Keys: env.keys, TreasuryAccount: env.treasury}, nil)
	assert.Error(t, err)

	_, err = NewService(client, Config{Keys: env.keys, Mint: env.mint}, nil)
	assert.Error(t, err)

	s, err := NewService(client, Config{Keys: env.keys, Mint: env.mint, TreasuryAccount: env.treasury}, nil)
	require.NoError(t, err)
	assert.True(t, s.Available())
	assert.Equal(t, 30*time.Second, s.config.ProbeInterval)
	assert.Equal(t, env.mint, s.Mint())
	assert.Equal(t, env.treasury, s.TreasuryAccount())
}

func TestProbe(t *testing.T) {
	env := setup(t, false)
	ctx := context.Background()

	height, err := env.service.Probe(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), height)
	assert.Equal(t, uint64(100), env.service.LastBlockHeight())
	assert.True(t, env.service.Available())

	env.rpc.HeightErr = errors.New("connection refused")
	_, err = env.service.Probe(ctx)
	assert.Error(t, err)
	assert.False(t, env.service.Available())
	assert.Equal(t, logrus.ErrorLevel, env.hook.LastEntry().Level)

	// a second failure does not log again
	env.hook.Reset()
	_, _ = env.service.Probe(ctx)
	assert.Empty(t, env.hook.AllEntries())

	env.rpc.HeightErr = nil
	_, err = env.service.Probe(ctx)
	require.NoError(t, err)
	assert.True(t, env.service.Available())
	assert.Equal(t, "ledger connection restored", env.hook.LastEntry().Message)
}

func TestRun_StopsOnCancel(t *testing.T) {
	env := setup(t, false)
	env.service.config.ProbeInterval = 5 * time.Millisecond
	env.rpc.HeightErr = errors.New("down")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		env.service.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return !env.service.Available() }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestInvalidWrapsErrInvalidRequest(t *testing.T) {
	err := invalid("field %s", "x")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "field x")
}

func TestSupply(t *testing.T) {
	env := setup(t, false)
	ctx := context.Background()

	supply, err := env.service.CurrentSupply(ctx)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(supply), supply.String())

	env.rpc.OnSend = func(*solana.Transaction) {
		env.rpc.PutMint(env.mint, 1_002_500_000, testDecimals)
	}

	result, err := env.service.CreateSupply(ctx, decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	assert.NotEmpty(t, result.Signature)
	assert.True(t, decimal.RequireFromString("1002.5").Equal(result.Supply), result.Supply.String())
	assert.Equal(t, 1, env.rpc.SentCount())

	sent := env.rpc.LastSent()
	assert.Equal(t, env.keys.Payer.PublicKey(), sent.Message.AccountKeys[0])
	assert.Len(t, sent.Signatures, 2)
}

func TestCreateSupply_InvalidAmount(t *testing.T) {
	env := setup(t, false)
	ctx := context.Background()

	for _, amount := range []string{"0", "-1", "0.0000001"} {
		_, err := env.service.CreateSupply(ctx, decimal.RequireFromString(amount))
		assert.ErrorIs(t, err, ErrInvalidRequest, amount)
	}
	assert.Zero(t, env.rpc.SentCount())
}

func TestCreateSupply_SupplyReadFailsAfterMint(t *testing.T) {
	env := setup(t, false)

	env.rpc.OnSend = func(*solana.Transaction) {
		env.rpc.PutMint(env.mint, 1_002_500_000, testDecimals)
		env.rpc.FailSupply(errors.New("node lagging"))
	}

	result, err := env.service.CreateSupply(context.Background(), decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, env.rpc.LastSent().Signatures[0].String(), result.Signature)
	assert.True(t, decimal.RequireFromString("1002.5").Equal(result.Supply), result.Supply.String())
	assert.Equal(t, 1, env.rpc.SentCount())

	entry := env.hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "failed to read supply after mint", entry.Message)
}
