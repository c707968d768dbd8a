package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/web-developer77/nifty-tunes-nft/internal/handlers"
	"github.com/web-developer77/nifty-tunes-nft/internal/market"
	"github.com/web-developer77/nifty-tunes-nft/internal/middleware"
	"github.com/web-developer77/nifty-tunes-nft/internal/stream"
	"github.com/web-developer77/nifty-tunes-nft/pkg/config"
)

// SetupMarketRoutes sets up the ledger, pool, sale and auction routes. Every
// POST is rate limited and must be signed by the acting wallet.
func SetupMarketRoutes(r *gin.Engine, engine *market.Engine, cfg *config.Config) {
	h := handlers.NewMarketHandler(engine)
	limit := middleware.RateLimiterMiddleware(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})
	signed := middleware.SignatureAuth(cfg.SignatureTTL)

	tokens := r.Group("/token")
	{
		tokens.GET("/accounts", h.ListTokenAccounts)
		tokens.GET("/accounts/:address", h.GetTokenAccount)
		tokens.GET("/metadata/:mint", h.GetMetadata)
		tokens.POST("/mint", limit, signed, h.CreateMint)
		tokens.POST("/accounts", limit, signed, h.CreateTokenAccount)
		tokens.POST("/mint-to", limit, signed, h.MintTo)
		tokens.POST("/mint-unique", limit, signed, h.MintToken)
	}

	pools := r.Group("/pool")
	{
		pools.GET(":address", h.GetPool)
		pools.GET(":address/listings", h.ListPoolListings)
		pools.POST("", limit, signed, h.CreatePool)
		pools.POST(":address/owner", limit, signed, h.TransferPoolOwnership)
	}

	sales := r.Group("/sale")
	{
		sales.GET("/manager/:pool/:mint", h.GetSaleManager)
		sales.GET("/pots/:address", h.ListSalePots)
		sales.GET("/pot/:address", h.GetSalePot)
		sales.POST("/manager", limit, signed, h.InitSaleManager)
		sales.POST("/sell", limit, signed, h.Sell)
		sales.POST("/buy", limit, signed, h.Buy)
		sales.POST("/redeem", limit, signed, h.Redeem)
		sales.POST("/withdraw", limit, signed, h.Withdraw)
	}

	auctions := r.Group("/auction")
	{
		auctions.GET(":address", h.GetAuction)
		auctions.POST("/sell", limit, signed, h.SellByAuction)
		auctions.POST("/bid", limit, signed, h.PlaceBid)
		auctions.POST("/claim", limit, signed, h.Claim)
		auctions.POST("/finalize", limit, signed, h.FinalizeAuction)
	}

	r.GET("/account/:address", h.GetRawAccount)
}

// SetupStreamRoutes exposes the live market event stream
func SetupStreamRoutes(r *gin.Engine, hub *stream.Hub) {
	r.GET("/ws/events", hub.ServeWS)
}
