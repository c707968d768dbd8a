package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ntsolana "github.com/web-developer77/nifty-tunes-nft/pkg/solana"
)

func newSignedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/sale/buy", SignatureAuth(time.Minute), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"signer": Signer(c)})
	})
	return r
}

func signedRequest(t *testing.T, key solana.PrivateKey, ts int64, signedBody, sentBody string) *http.Request {
	t.Helper()
	sig, err := ntsolana.SignMessage(key, ntsolana.RequestMessage(http.MethodPost, "/sale/buy", ts, []byte(signedBody)))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/sale/buy", bytes.NewBufferString(sentBody))
	req.Header.Set(HeaderSigner, key.PublicKey().String())
	req.Header.Set(HeaderSignature, sig)
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	return req
}

func TestSignatureAuth(t *testing.T) {
	r := newSignedRouter()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	body := `{"pool":"p"}`

	t.Run("Valid Signature", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, signedRequest(t, key, time.Now().Unix(), body, body))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), key.PublicKey().String())
	})

	t.Run("Replay", func(t *testing.T) {
		replayBody := `{"pool":"q"}`
		first := signedRequest(t, key, time.Now().Unix(), replayBody, replayBody)
		second := httptest.NewRequest(http.MethodPost, "/sale/buy", bytes.NewBufferString(replayBody))
		second.Header = first.Header.Clone()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, first)
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		r.ServeHTTP(w, second)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Missing Headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sale/buy", bytes.NewBufferString(body)))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Stale Timestamp", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, signedRequest(t, key, time.Now().Add(-time.Hour).Unix(), body, body))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Tampered Body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, signedRequest(t, key, time.Now().Unix(), body, `{"pool":"x"}`))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Wrong Signer", func(t *testing.T) {
		other, err := solana.NewRandomPrivateKey()
		require.NoError(t, err)
		req := signedRequest(t, key, time.Now().Unix(), `{"pool":"w"}`, `{"pool":"w"}`)
		req.Header.Set(HeaderSigner, other.PublicKey().String())
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
