package solana

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyManager(t *testing.T) {
	km := NewKeyManager(t.TempDir())
	const password = "correct horse"

	wallet, err := km.GenerateKeyPair()
	require.NoError(t, err)
	address := wallet.PublicKey.ToBase58()

	t.Run("Keystore Entry On Disk", func(t *testing.T) {
		path, err := km.SaveKeyStoreEntry(wallet, password)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(km.Dir(), address+".json"), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var entry KeyStoreEntry
		require.NoError(t, json.Unmarshal(data, &entry))
		assert.Equal(t, address, entry.Address)
		assert.Equal(t, keystoreVersion, entry.Version)
		assert.NotContains(t, string(data), string(wallet.PrivateKey), "key is stored encrypted")
	})

	t.Run("Loaded Signer Signs Requests", func(t *testing.T) {
		signer, err := km.LoadSigner(address, password)
		require.NoError(t, err)
		require.Equal(t, address, signer.PublicKey().String())

		msg := RequestMessage("POST", "/sale/sell", 1_700_000_000, []byte(`{"price":100}`))
		sig, err := SignMessage(signer, msg)
		require.NoError(t, err)
		assert.NoError(t, VerifyMessage(signer.PublicKey(), sig, msg))
	})

	t.Run("Wrong Password", func(t *testing.T) {
		_, err := km.LoadSigner(address, "battery staple")
		assert.Error(t, err)
	})

	t.Run("Unknown Wallet", func(t *testing.T) {
		_, err := km.LoadKeyStoreEntry(NewAddress(), password)
		assert.Error(t, err)
	})

	t.Run("Ciphertext Is Salted", func(t *testing.T) {
		a, err := km.EncryptPrivateKey(wallet.PrivateKey, password)
		require.NoError(t, err)
		b, err := km.EncryptPrivateKey(wallet.PrivateKey, password)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)

		plain, err := km.DecryptPrivateKey(b, password)
		require.NoError(t, err)
		assert.Equal(t, []byte(wallet.PrivateKey), plain)

		_, err = km.DecryptPrivateKey("not base64!", password)
		assert.Error(t, err)
	})

	t.Run("Fresh Addresses", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 10; i++ {
			a := NewAddress()
			_, err := ParsePublicKey(a)
			require.NoError(t, err)
			assert.False(t, seen[a], "generated duplicate address")
			seen[a] = true
		}
	})

	t.Run("Default Directory", func(t *testing.T) {
		assert.Equal(t, DefaultKeystoreDir, NewKeyManager("").Dir())
	})
}
