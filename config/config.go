// Package config loads the service configuration from the environment and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"

	"github.com/iTheRudy/solana-token/api"
	sol "github.com/iTheRudy/solana-token/chains/solana"
	"github.com/iTheRudy/solana-token/crypto"
	"github.com/iTheRudy/solana-token/wallet"
)

// Config is the complete service configuration
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Port                int           `mapstructure:"port"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
	CORSOrigins         []string      `mapstructure:"cors_origins"`
	RateLimitRPS        float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst      int           `mapstructure:"rate_limit_burst"`

	// RPCURL takes precedence over Network when set
	RPCURL         string        `mapstructure:"rpc_url"`
	Network        string        `mapstructure:"network"`
	Commitment     string        `mapstructure:"commitment"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
	ProbeInterval  time.Duration `mapstructure:"probe_interval"`

	Mint            string `mapstructure:"mint"`
	TreasuryAccount string `mapstructure:"mint_token_account_address"`

	PayerMnemonic           string `mapstructure:"payer_mnemonic"`
	MintAuthorityMnemonic   string `mapstructure:"mint_authority_mnemonic"`
	FreezeAuthorityMnemonic string `mapstructure:"freeze_authority_mnemonic"`

	// Keystore entries override the mnemonics above
	KeystorePath     string `mapstructure:"keystore_path"`
	KeystorePassword string `mapstructure:"keystore_password"`

	SponsorTransferFees bool `mapstructure:"sponsor_transfer_fees"`
}

var defaultConfig = Config{
	LogLevel:  "info",
	LogFormat: "json",

	Port:                3000,
	ShutdownGracePeriod: 10 * time.Second,
	CORSOrigins:         []string{"*"},
	RateLimitRPS:        0,
	RateLimitBurst:      20,

	Network:        api.NetworkTestnet,
	Commitment:     string(api.DefaultCommitment),
	ConfirmTimeout: api.DefaultConfirmTimeout,
	ProbeInterval:  30 * time.Second,
}

var envBindings = map[string]string{
	"log_level":                  "LOG_LEVEL",
	"log_format":                 "LOG_FORMAT",
	"port":                       "PORT",
	"shutdown_grace_period":      "SHUTDOWN_GRACE_PERIOD",
	"cors_origins":               "CORS_ORIGINS",
	"rate_limit_rps":             "RATE_LIMIT_RPS",
	"rate_limit_burst":           "RATE_LIMIT_BURST",
	"rpc_url":                    "RPC_URL",
	"network":                    "NETWORK",
	"commitment":                 "COMMITMENT",
	"confirm_timeout":            "CONFIRM_TIMEOUT",
	"probe_interval":             "PROBE_INTERVAL",
	"mint":                       "MINT",
	"mint_token_account_address": "MINT_TOKEN_ACCOUNT_ADDRESS",
	"payer_mnemonic":             "PAYER_MNEMONIC",
	"mint_authority_mnemonic":    "MINT_AUTHORITY_MNEMONIC",
	"freeze_authority_mnemonic":  "FREEZE_AUTHORITY_MNEMONIC",
	"keystore_path":              "KEYSTORE_PATH",
	"keystore_password":          "KEYSTORE_PASSWORD",
	"sponsor_transfer_fees":      "SPONSOR_TRANSFER_FEES",
}

// Load reads the environment and, when path names an existing file, the config file.
// Environment variables win over file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	config := defaultConfig
	config.CORSOrigins = append([]string(nil), defaultConfig.CORSOrigins...)
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.CORSOrigins = splitList(config.CORSOrigins)
	return &config, nil
}

// splitList accepts both a list and a single comma-separated value
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Endpoint returns the RPC endpoint to connect to
func (c *Config) Endpoint() (string, error) {
	if c.RPCURL != "" {
		return c.RPCURL, nil
	}
	return api.EndpointForNetwork(c.Network)
}

// ClientOptions returns the ledger client options
func (c *Config) ClientOptions() (api.Options, error) {
	commitment, err := api.ParseCommitment(c.Commitment)
	if err != nil {
		return api.Options{}, err
	}
	return api.Options{
		Commitment:     commitment,
		ConfirmTimeout: c.ConfirmTimeout,
	}, nil
}

// Addresses parses the configured mint and treasury token account
func (c *Config) Addresses() (mint, treasury solana.PublicKey, err error) {
	if c.Mint == "" {
		return mint, treasury, errors.New("MINT is not set")
	}
	if c.TreasuryAccount == "" {
		return mint, treasury, errors.New("MINT_TOKEN_ACCOUNT_ADDRESS is not set")
	}

	mint, err = sol.ParseAddress(c.Mint)
	if err != nil {
		return mint, treasury, fmt.Errorf("invalid MINT: %w", err)
	}
	treasury, err = sol.ParseAddress(c.TreasuryAccount)
	if err != nil {
		return mint, treasury, fmt.Errorf("invalid MINT_TOKEN_ACCOUNT_ADDRESS: %w", err)
	}
	return mint, treasury, nil
}

// Keyring derives the service keys, preferring keystore entries over plain mnemonics
func (c *Config) Keyring() (*wallet.Keyring, error) {
	payer := c.PayerMnemonic
	mintAuthority := c.MintAuthorityMnemonic
	freezeAuthority := c.FreezeAuthorityMnemonic

	if c.KeystorePath != "" {
		entries, err := crypto.OpenVault(c.KeystorePath, c.KeystorePassword)
		if err != nil {
			return nil, fmt.Errorf("failed to open keystore: %w", err)
		}
		if m, ok := entries[crypto.EntryPayer]; ok {
			payer = m
		}
		if m, ok := entries[crypto.EntryMintAuthority]; ok {
			mintAuthority = m
		}
		if m, ok := entries[crypto.EntryFreezeAuthority]; ok {
			freezeAuthority = m
		}
	}

	if payer == "" {
		return nil, errors.New("payer mnemonic is not configured")
	}
	if mintAuthority == "" {
		return nil, errors.New("mint authority mnemonic is not configured")
	}

	return wallet.NewKeyring(payer, mintAuthority, freezeAuthority)
}

// ListenAddr returns the HTTP listen address
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate checks everything the serve command needs, except the keys
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if _, err := c.Endpoint(); err != nil {
		return err
	}
	if _, err := api.ParseCommitment(c.Commitment); err != nil {
		return err
	}
	if _, _, err := c.Addresses(); err != nil {
		return err
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("invalid RATE_LIMIT_RPS %v", c.RateLimitRPS)
	}
	return nil
}
