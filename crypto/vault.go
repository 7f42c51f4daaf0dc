package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/scrypt"
)

const (
	ScryptN = 32768 // 2^15
	ScryptR = 8
	ScryptP = 1
	KeyLen  = 32 // AES-256 key length

	saltSize  = 32
	nonceSize = 12 // GCM standard nonce

	vaultVersion = 2
)

// Well-known keystore entry names
const (
	EntryPayer           = "payer"
	EntryMintAuthority   = "mint_authority"
	EntryFreezeAuthority = "freeze_authority"
)

// ErrInvalidPassword is returned when the vault cannot be opened
var ErrInvalidPassword = errors.New("invalid password")

// Vault is an encrypted set of named mnemonics
type Vault struct {
	Version int    `json:"version"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Data    []byte `json:"data"`
}

type VaultData struct {
	Entries map[string]string `json:"entries"`
	Version int               `json:"version"`
}

// NewVault seals the given entries under password
func NewVault(entries map[string]string, password string) (*Vault, error) {
	if password == "" {
		return nil, fmt.Errorf("password must not be empty")
	}

	// Generate random salt
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := deriveKey(password, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clearBytes(key)

	data, err := json.Marshal(VaultData{
		Entries: entries,
		Version: vaultVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize vault data: %w", err)
	}
	defer clearBytes(data)

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	encryptedData, err := encrypt(key, nonce, data)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt data: %w", err)
	}

	return &Vault{
		Version: vaultVersion,
		Salt:    salt,
		Nonce:   nonce,
		Data:    encryptedData,
	}, nil
}

// Decrypt opens the vault and returns its entries
func (v *Vault) Decrypt(password string) (map[string]string, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}

	key, err := deriveKey(password, v.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clearBytes(key)

	decryptedData, err := decrypt(key, v.Nonce, v.Data)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	defer clearBytes(decryptedData)

	var vaultData VaultData
	if err := json.Unmarshal(decryptedData, &vaultData); err != nil {
		return nil, fmt.Errorf("failed to deserialize vault data: %w", err)
	}

	if vaultData.Entries == nil {
		vaultData.Entries = map[string]string{}
	}
	return vaultData.Entries, nil
}

// Save writes the vault to path with owner-only permissions
func (v *Vault) Save(path string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal vault: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write vault file: %w", err)
	}

	return nil
}

// LoadVault reads a vault previously written by Save
func LoadVault(path string) (*Vault, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault file: %w", err)
	}

	var vault Vault
	if err := json.Unmarshal(data, &vault); err != nil {
		return nil, fmt.Errorf("failed to unmarshal vault: %w", err)
	}

	if vault.Version != vaultVersion {
		return nil, fmt.Errorf("unsupported vault version %d", vault.Version)
	}
	if err := vault.validate(); err != nil {
		return nil, err
	}

	return &vault, nil
}

func (v *Vault) validate() error {
	if len(v.Salt) == 0 {
		return fmt.Errorf("invalid vault: missing salt")
	}
	if len(v.Nonce) != nonceSize {
		return fmt.Errorf("invalid vault: nonce must be %d bytes, got %d", nonceSize, len(v.Nonce))
	}
	return nil
}

// OpenVault loads and decrypts the vault at path
func OpenVault(path, password string) (map[string]string, error) {
	vault, err := LoadVault(path)
	if err != nil {
		return nil, err
	}
	return vault.Decrypt(password)
}

func deriveKey(password string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, ScryptN, ScryptR, ScryptP, KeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt key derivation failed: %w", err)
	}
	return key, nil
}

func encrypt(key, nonce, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return aesGCM.Seal(nil, nonce, data, nil), nil
}

func decrypt(key, nonce, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(nonce) != aesGCM.NonceSize() {
		return nil, fmt.Errorf("invalid nonce length %d", len(nonce))
	}

	plaintext, err := aesGCM.Open(nil, nonce, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
