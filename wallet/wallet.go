package wallet

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Wallet is a freshly generated mnemonic together with its keypair
type Wallet struct {
	Mnemonic   string
	PrivateKey solana.PrivateKey
}

// New generates a new wallet
func New() (*Wallet, error) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		return nil, err
	}

	return FromMnemonic(mnemonic)
}

// FromMnemonic restores a wallet from an existing mnemonic
func FromMnemonic(mnemonic string) (*Wallet, error) {
	key, err := KeypairFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		Mnemonic:   NormalizeMnemonic(mnemonic),
		PrivateKey: key,
	}, nil
}

// PublicKey returns the wallet address
func (w *Wallet) PublicKey() solana.PublicKey {
	return w.PrivateKey.PublicKey()
}

// Address returns the base58 wallet address
func (w *Wallet) Address() string {
	return w.PublicKey().String()
}

// Keyring holds the service-side signing keys
type Keyring struct {
	Payer           solana.PrivateKey
	MintAuthority   solana.PrivateKey
	FreezeAuthority solana.PrivateKey // optional
}

// NewKeyring derives the service keys from their mnemonics.
// The freeze authority may be empty.
func NewKeyring(payerMnemonic, mintAuthorityMnemonic, freezeAuthorityMnemonic string) (*Keyring, error) {
	payer, err := KeypairFromMnemonic(payerMnemonic)
	if err != nil {
		return nil, fmt.Errorf("failed to derive payer key: %w", err)
	}

	mintAuthority, err := KeypairFromMnemonic(mintAuthorityMnemonic)
	if err != nil {
		return nil, fmt.Errorf("failed to derive mint authority key: %w", err)
	}

	keyring := &Keyring{
		Payer:         payer,
		MintAuthority: mintAuthority,
	}

	if freezeAuthorityMnemonic != "" {
		freezeAuthority, err := KeypairFromMnemonic(freezeAuthorityMnemonic)
		if err != nil {
			return nil, fmt.Errorf("failed to derive freeze authority key: %w", err)
		}
		keyring.FreezeAuthority = freezeAuthority
	}

	return keyring, nil
}

// HasFreezeAuthority reports whether freeze and thaw can be signed
func (k *Keyring) HasFreezeAuthority() bool {
	return len(k.FreezeAuthority) != 0
}
