package solana

import (
	"crypto/ed25519"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
)

// RequestMessage builds the byte string a client signs for an API call
func RequestMessage(method, path string, timestamp int64, body []byte) []byte {
	msg := make([]byte, 0, len(method)+len(path)+len(body)+24)
	msg = append(msg, method...)
	msg = append(msg, '\n')
	msg = append(msg, path...)
	msg = append(msg, '\n')
	msg = strconv.AppendInt(msg, timestamp, 10)
	msg = append(msg, '\n')
	msg = append(msg, body...)
	return msg
}

// SignMessage signs msg and returns the base58 signature
func SignMessage(key solana.PrivateKey, msg []byte) (string, error) {
	sig, err := key.Sign(msg)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	return sig.String(), nil
}

// VerifyMessage checks a base58 signature of msg by signer
func VerifyMessage(signer solana.PublicKey, signature string, msg []byte) error {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if !ed25519.Verify(signer[:], msg, sig[:]) {
		return fmt.Errorf("signature does not match signer %s", signer)
	}
	return nil
}
