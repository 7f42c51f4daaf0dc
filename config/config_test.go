package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iTheRudy/solana-token/api"
	"github.com/iTheRudy/solana-token/crypto"
	"github.com/iTheRudy/solana-token/wallet"
)

func TestLoad_Defaults(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3000, config.Port)
	assert.Equal(t, ":3000", config.ListenAddr())
	assert.Equal(t, []string{"*"}, config.CORSOrigins)
	assert.Equal(t, api.DefaultConfirmTimeout, config.ConfirmTimeout)

	endpoint, err := config.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, api.TestnetSolanaRPC, endpoint)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("NETWORK", "devnet")
	t.Setenv("COMMITMENT", "finalized")
	t.Setenv("CONFIRM_TIMEOUT", "15s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SPONSOR_TRANSFER_FEES", "true")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, 15*time.Second, config.ConfirmTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, config.CORSOrigins)
	assert.Equal(t, 2.5, config.RateLimitRPS)
	assert.True(t, config.SponsorTransferFees)

	endpoint, err := config.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, api.DevnetSolanaRPC, endpoint)

	opts, err := config.ClientOptions()
	require.NoError(t, err)
	assert.Equal(t, rpc.CommitmentFinalized, opts.Commitment)
	assert.Equal(t, 15*time.Second, opts.ConfirmTimeout)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\nrpc_url: http://localhost:8899\nlog_level: debug\n"), 0600))

	t.Setenv("LOG_LEVEL", "warn")

	config, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, config.Port)
	assert.Equal(t, "warn", config.LogLevel)

	endpoint, err := config.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8899", endpoint)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)
	assert.Error(t, config.Validate())

	config.Mint = solana.NewWallet().PublicKey().String()
	assert.Error(t, config.Validate())

	config.TreasuryAccount = solana.NewWallet().PublicKey().String()
	assert.NoError(t, config.Validate())

	config.Network = "moonnet"
	assert.Error(t, config.Validate())
	config.Network = "mainnet"

	config.Commitment = "eventually"
	assert.Error(t, config.Validate())
	config.Commitment = "confirmed"

	config.Mint = "not-base58-0"
	assert.Error(t, config.Validate())
}

func TestKeyring_FromMnemonics(t *testing.T) {
	payer, err := wallet.GenerateMnemonic()
	require.NoError(t, err)
	mintAuthority, err := wallet.GenerateMnemonic()
	require.NoError(t, err)

	config := &Config{}
	_, err = config.Keyring()
	assert.Error(t, err)

	config.PayerMnemonic = payer
	_, err = config.Keyring()
	assert.Error(t, err)

	config.MintAuthorityMnemonic = mintAuthority
	keys, err := config.Keyring()
	require.NoError(t, err)
	assert.False(t, keys.HasFreezeAuthority())

	expected, err := wallet.KeypairFromMnemonic(payer)
	require.NoError(t, err)
	assert.Equal(t, expected.PublicKey(), keys.Payer.PublicKey())
}

func TestKeyring_KeystoreOverridesEnvironment(t *testing.T) {
	envPayer, err := wallet.GenerateMnemonic()
	require.NoError(t, err)
	storedPayer, err := wallet.GenerateMnemonic()
	require.NoError(t, err)
	mintAuthority, err := wallet.GenerateMnemonic()
	require.NoError(t, err)
	freezeAuthority, err := wallet.GenerateMnemonic()
	require.NoError(t, err)

	vault, err := crypto.NewVault(map[string]string{
		crypto.EntryPayer:           storedPayer,
		crypto.EntryFreezeAuthority: freezeAuthority,
	}, "correct horse")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "keys.vault")
	require.NoError(t, vault.Save(path))

	config := &Config{
		PayerMnemonic:         envPayer,
		MintAuthorityMnemonic: mintAuthority,
		KeystorePath:          path,
		KeystorePassword:      "correct horse",
	}

	keys, err := config.Keyring()
	require.NoError(t, err)

	expected, err := wallet.KeypairFromMnemonic(storedPayer)
	require.NoError(t, err)
	assert.Equal(t, expected.PublicKey(), keys.Payer.PublicKey())
	assert.True(t, keys.HasFreezeAuthority())

	config.KeystorePassword = "wrong"
	_, err = config.Keyring()
	assert.ErrorIs(t, err, crypto.ErrInvalidPassword)
}
