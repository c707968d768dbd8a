package solana

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSignature(t *testing.T) {
	wallet := solana.NewWallet()
	body := []byte(`{"pool":"x"}`)
	msg := RequestMessage("POST", "/sale/buy", 1700000000, body)

	t.Run("Message Layout", func(t *testing.T) {
		assert.Equal(t, "POST\n/sale/buy\n1700000000\n{\"pool\":\"x\"}", string(msg))
	})

	t.Run("Sign And Verify", func(t *testing.T) {
		sig, err := SignMessage(wallet.PrivateKey, msg)
		require.NoError(t, err)
		assert.NoError(t, VerifyMessage(wallet.PublicKey(), sig, msg))
	})

	t.Run("Tampered Message", func(t *testing.T) {
		sig, err := SignMessage(wallet.PrivateKey, msg)
		require.NoError(t, err)
		tampered := RequestMessage("POST", "/sale/buy", 1700000001, body)
		assert.Error(t, VerifyMessage(wallet.PublicKey(), sig, tampered))
	})

	t.Run("Wrong Signer", func(t *testing.T) {
		sig, err := SignMessage(wallet.PrivateKey, msg)
		require.NoError(t, err)
		assert.Error(t, VerifyMessage(solana.NewWallet().PublicKey(), sig, msg))
	})

	t.Run("Bad Encoding", func(t *testing.T) {
		assert.Error(t, VerifyMessage(wallet.PublicKey(), "0OIl", msg))
	})
}
