package wallet

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"
)

const (
	// MnemonicEntropyBits is the entropy size for 12-word mnemonics
	MnemonicEntropyBits = 128

	// seedKeyLength is the number of seed bytes fed into ed25519
	seedKeyLength = ed25519.SeedSize
)

// ErrInvalidMnemonic is returned when a phrase fails BIP-39 validation
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// GenerateMnemonic creates a new 12-word BIP-39 mnemonic
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic: %w", err)
	}

	return mnemonic, nil
}

// NormalizeMnemonic collapses whitespace so copy-pasted phrases still validate
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}

// ValidateMnemonic checks word list membership and checksum
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(NormalizeMnemonic(mnemonic))
}

// KeypairFromMnemonic derives the Solana keypair for a mnemonic.
//
// The BIP-39 seed is computed with an empty passphrase and its first 32
// bytes are used directly as the ed25519 seed. Wallets created by this
// service have always been derived this way, so the scheme must not change.
func KeypairFromMnemonic(mnemonic string) (solana.PrivateKey, error) {
	mnemonic = NormalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, fmt.Errorf("failed to derive seed: %w", err)
	}
	defer clearBytes(seed)

	return deriveSolanaKey(seed)
}

// deriveSolanaKey builds an ed25519 key from the leading bytes of a seed
func deriveSolanaKey(seed []byte) (solana.PrivateKey, error) {
	if len(seed) < seedKeyLength {
		return nil, fmt.Errorf("seed too short: got %d bytes, need %d", len(seed), seedKeyLength)
	}

	privateKey := ed25519.NewKeyFromSeed(seed[:seedKeyLength])
	return solana.PrivateKey(privateKey), nil
}

// SecretKeyBase58 encodes the 64-byte secret key the way Solana wallets import it
func SecretKeyBase58(key solana.PrivateKey) string {
	return base58.Encode(key)
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
