package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

// network type constants
const (
	NetworkMainnet = "mainnet"
	NetworkDevnet  = "devnet"
	NetworkTestnet = "testnet"
)

// RPC endpoints
const (
	MainnetSolanaRPC = "https://api.mainnet-beta.solana.com"
	DevnetSolanaRPC  = "https://api.devnet.solana.com"
	TestnetSolanaRPC = "https://api.testnet.solana.com"
)

// client defaults
const (
	DefaultCommitment     = rpc.CommitmentConfirmed
	DefaultConfirmTimeout = 60 * time.Second
	DefaultPollInterval   = 500 * time.Millisecond
)

// EndpointForNetwork returns the public RPC URL of a cluster
func EndpointForNetwork(network string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case NetworkMainnet, "mainnet-beta":
		return MainnetSolanaRPC, nil
	case NetworkDevnet:
		return DevnetSolanaRPC, nil
	case NetworkTestnet, "":
		return TestnetSolanaRPC, nil
	default:
		return "", fmt.Errorf("unknown network: %s. Use 'mainnet', 'devnet' or 'testnet'", network)
	}
}

// ParseCommitment maps a config string to an RPC commitment level
func ParseCommitment(s string) (rpc.CommitmentType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultCommitment, nil
	case string(rpc.CommitmentProcessed):
		return rpc.CommitmentProcessed, nil
	case string(rpc.CommitmentConfirmed):
		return rpc.CommitmentConfirmed, nil
	case string(rpc.CommitmentFinalized):
		return rpc.CommitmentFinalized, nil
	default:
		return "", fmt.Errorf("unknown commitment: %s", s)
	}
}
