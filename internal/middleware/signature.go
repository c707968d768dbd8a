package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	ntsolana "github.com/web-developer77/nifty-tunes-nft/pkg/solana"
)

const (
	HeaderSigner    = "X-Signer"
	HeaderSignature = "X-Signature"
	HeaderTimestamp = "X-Timestamp"

	// SignerKey is the gin context key holding the verified signer address
	SignerKey = "signer"

	maxBodyBytes = 1 << 20
)

// SignatureAuth verifies that the request was signed by the wallet in
// X-Signer. The signed message covers method, path, timestamp and body.
// A signature is accepted once within ttl.
func SignatureAuth(ttl time.Duration) gin.HandlerFunc {
	seen := cache.New(2*ttl, 4*ttl)

	return func(c *gin.Context) {
		signer, err := ntsolana.ParsePublicKey(c.GetHeader(HeaderSigner))
		if err != nil {
			abortUnauthorized(c, "missing or invalid signer")
			return
		}
		ts, err := strconv.ParseInt(c.GetHeader(HeaderTimestamp), 10, 64)
		if err != nil {
			abortUnauthorized(c, "missing or invalid timestamp")
			return
		}
		if skew := time.Since(time.Unix(ts, 0)); skew > ttl || skew < -ttl {
			abortUnauthorized(c, "request timestamp outside the allowed window")
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		signature := c.GetHeader(HeaderSignature)
		msg := ntsolana.RequestMessage(c.Request.Method, c.Request.URL.Path, ts, body)
		if err := ntsolana.VerifyMessage(signer, signature, msg); err != nil {
			log.WithField("signer", signer.String()).Warnf("Rejected request signature: %v", err)
			abortUnauthorized(c, "invalid signature")
			return
		}
		if err := seen.Add(signature, struct{}{}, cache.DefaultExpiration); err != nil {
			abortUnauthorized(c, "signature already used")
			return
		}

		c.Set(SignerKey, signer.String())
		c.Next()
	}
}

// Signer returns the verified signer of the request
func Signer(c *gin.Context) string {
	return c.GetString(SignerKey)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
