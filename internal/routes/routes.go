package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/web-developer77/nifty-tunes-nft/internal/market"
	"github.com/web-developer77/nifty-tunes-nft/internal/middleware"
	"github.com/web-developer77/nifty-tunes-nft/internal/stream"
	"github.com/web-developer77/nifty-tunes-nft/pkg/config"
)

// SetupRouter builds the market API router
func SetupRouter(engine *market.Engine, hub *stream.Hub, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.Any("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.Use(corsMiddleware(cfg.AllowedOrigins))

	SetupMarketRoutes(r, engine, cfg)
	if hub != nil {
		SetupStreamRoutes(r, hub)
	}

	return r
}

// requestLogger logs every request with its signer and latency
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		})
		if signer := middleware.Signer(c); signer != "" {
			entry = entry.WithField("signer", signer)
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Info("Request rejected")
		default:
			entry.Debug("Request served")
		}
	}
}

// corsMiddleware echoes allowed origins and answers preflight requests
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	allowHeaders := "Accept, Content-Type, Content-Length, Origin, Cache-Control, " +
		middleware.HeaderSigner + ", " + middleware.HeaderSignature + ", " + middleware.HeaderTimestamp

	return func(c *gin.Context) {
		h := c.Writer.Header()
		if origin := c.GetHeader("Origin"); allowed[origin] {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
		}
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
