package solana

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/scrypt"
)

const DefaultKeystoreDir = "configs/keystore"

const (
	keystoreVersion = 2
	saltSize        = 16

	// scrypt cost parameters for wallet passwords
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// KeyStoreEntry is the on-disk form of an encrypted wallet key
type KeyStoreEntry struct {
	Address      string `json:"address"`
	EncryptedKey string `json:"encrypted_key"`
	Version      int    `json:"version"`
}

// KeyManager keeps market wallets encrypted in a keystore directory.
// The CLI signs API requests with the wallets it loads from here.
type KeyManager struct {
	dir string
}

func NewKeyManager(dir string) *KeyManager {
	if dir == "" {
		dir = DefaultKeystoreDir
	}
	return &KeyManager{dir: dir}
}

func (km *KeyManager) Dir() string {
	return km.dir
}

func (km *KeyManager) GenerateKeyPair() (*types.Account, error) {
	account := types.NewAccount()
	return &account, nil
}

// NewAddress returns a fresh public key with no retained private key.
// Pools and mints are identified by such addresses.
func NewAddress() string {
	return types.NewAccount().PublicKey.ToBase58()
}

// EncryptPrivateKey seals privateKey as base64(salt || nonce || ciphertext)
func (km *KeyManager) EncryptPrivateKey(privateKey []byte, password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	aead, err := sealer(password, salt)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := append(salt, nonce...)
	out = aead.Seal(out, nonce, privateKey, salt)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (km *KeyManager) DecryptPrivateKey(encryptedKey string, password string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encryptedKey)
	if err != nil {
		return nil, fmt.Errorf("invalid keystore payload: %w", err)
	}
	if len(raw) < saltSize {
		return nil, errors.New("keystore payload too short")
	}
	salt, rest := raw[:saltSize], raw[saltSize:]

	aead, err := sealer(password, salt)
	if err != nil {
		return nil, err
	}
	if len(rest) < aead.NonceSize() {
		return nil, errors.New("keystore payload too short")
	}
	plain, err := aead.Open(nil, rest[:aead.NonceSize()], rest[aead.NonceSize():], salt)
	if err != nil {
		return nil, errors.New("wrong password or corrupted keystore entry")
	}
	return plain, nil
}

// SaveKeyStoreEntry writes the wallet to <dir>/<address>.json and returns the path
func (km *KeyManager) SaveKeyStoreEntry(account *types.Account, password string) (string, error) {
	sealed, err := km.EncryptPrivateKey(account.PrivateKey, password)
	if err != nil {
		return "", err
	}
	entry := KeyStoreEntry{
		Address:      account.PublicKey.ToBase58(),
		EncryptedKey: sealed,
		Version:      keystoreVersion,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode keystore entry: %w", err)
	}

	if err := os.MkdirAll(km.dir, 0o700); err != nil {
		return "", fmt.Errorf("create keystore dir: %w", err)
	}
	path := km.entryPath(entry.Address)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write keystore entry: %w", err)
	}
	return path, nil
}

func (km *KeyManager) LoadKeyStoreEntry(address string, password string) (*types.Account, error) {
	data, err := os.ReadFile(km.entryPath(address))
	if err != nil {
		return nil, fmt.Errorf("wallet %s not in keystore: %w", address, err)
	}
	var entry KeyStoreEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode keystore entry: %w", err)
	}
	if entry.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", entry.Version)
	}
	if entry.Address != address {
		return nil, fmt.Errorf("keystore entry holds %s, expected %s", entry.Address, address)
	}

	key, err := km.DecryptPrivateKey(entry.EncryptedKey, password)
	if err != nil {
		return nil, err
	}
	account, err := types.AccountFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet key: %w", err)
	}
	return &account, nil
}

// LoadSigner loads a stored wallet as a request signing key
func (km *KeyManager) LoadSigner(address string, password string) (solana.PrivateKey, error) {
	account, err := km.LoadKeyStoreEntry(address, password)
	if err != nil {
		return nil, err
	}
	return ToPrivateKey(account), nil
}

func ToPrivateKey(account *types.Account) solana.PrivateKey {
	return solana.PrivateKey(append([]byte(nil), account.PrivateKey...))
}

func (km *KeyManager) entryPath(address string) string {
	return filepath.Join(km.dir, address+".json")
}

func sealer(password string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, fmt.Errorf("derive keystore key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
