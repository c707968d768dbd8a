package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/web-developer77/nifty-tunes-nft/internal/market"
	"github.com/web-developer77/nifty-tunes-nft/internal/middleware"
	"github.com/web-developer77/nifty-tunes-nft/internal/models"
	"github.com/web-developer77/nifty-tunes-nft/pkg/metadata"
)

// MarketHandler serves the marketplace transitions. The acting wallet is
// always the verified request signer.
type MarketHandler struct {
	engine *market.Engine
}

func NewMarketHandler(engine *market.Engine) *MarketHandler {
	return &MarketHandler{engine: engine}
}

// CreatePool creates a pool owned by the signer
func (h *MarketHandler) CreatePool(c *gin.Context) {
	var request CreatePoolRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pool, err := h.engine.CreatePool(c.Request.Context(), middleware.Signer(c), request.SaleMint)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pool)
}

// TransferPoolOwnership hands the pool in the path to a new owner
func (h *MarketHandler) TransferPoolOwnership(c *gin.Context) {
	var request TransferPoolRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pool, err := h.engine.TransferPoolOwnership(c.Request.Context(), middleware.Signer(c), c.Param("address"), request.NewOwner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

// MintToken mints a unique token with metadata and a master edition
func (h *MarketHandler) MintToken(c *gin.Context) {
	var request MintTokenRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	md, err := h.engine.MintUniqueToken(c.Request.Context(), market.MintParams{
		Owner:        middleware.Signer(c),
		Mint:         request.Mint,
		TokenAccount: request.TokenAccount,
		Data: metadata.Data{
			Name:                 request.Name,
			Symbol:               request.Symbol,
			Uri:                  request.Uri,
			SellerFeeBasisPoints: request.SellerFeeBasisPoints,
			Creators:             models.Creators(request.Creators),
			IsMutable:            request.IsMutable,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, md)
}

// InitSaleManager creates the sale manager and escrow accounts of a (pool, mint)
func (h *MarketHandler) InitSaleManager(c *gin.Context) {
	var request SaleManagerRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sm, err := h.engine.InitSaleManager(c.Request.Context(), middleware.Signer(c), request.Pool, request.NftMint)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sm)
}

// Sell lists a token at a fixed price
func (h *MarketHandler) Sell(c *gin.Context) {
	h.list(c, false)
}

// SellByAuction lists a token by auction
func (h *MarketHandler) SellByAuction(c *gin.Context) {
	h.list(c, true)
}

func (h *MarketHandler) list(c *gin.Context, auction bool) {
	var request SellRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	params := market.SellParams{
		Seller:       middleware.Signer(c),
		Pool:         request.Pool,
		NftMint:      request.NftMint,
		SellerToken:  request.SellerToken,
		ManagerToken: request.ManagerToken,
		ManagerPot:   request.ManagerPot,
		Price:        request.Price,
	}

	var (
		receipt *market.Receipt
		err     error
	)
	if auction {
		receipt, err = h.engine.SellByAuction(c.Request.Context(), params, request.Duration)
	} else {
		receipt, err = h.engine.Sell(c.Request.Context(), params)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// Buy purchases a fixed-price listing
func (h *MarketHandler) Buy(c *gin.Context) {
	var request BuyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	receipt, err := h.engine.Buy(c.Request.Context(), market.BuyParams{
		Buyer:         middleware.Signer(c),
		Pool:          request.Pool,
		NftMint:       request.NftMint,
		BuyerNftToken: request.BuyerNftToken,
		BuyerPayToken: request.BuyerPayToken,
		ManagerToken:  request.ManagerToken,
		ManagerPot:    request.ManagerPot,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// Redeem cancels the signer's listing
func (h *MarketHandler) Redeem(c *gin.Context) {
	var request RedeemRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	receipt, err := h.engine.Redeem(c.Request.Context(), market.RedeemParams{
		Seller:      middleware.Signer(c),
		Pool:        request.Pool,
		NftMint:     request.NftMint,
		SellerToken: request.SellerToken,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// Withdraw pays the signer's share of a sale pot
func (h *MarketHandler) Withdraw(c *gin.Context) {
	var request WithdrawRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	receipt, err := h.engine.Withdraw(c.Request.Context(), market.WithdrawParams{
		Payee:         middleware.Signer(c),
		SalePot:       request.SalePot,
		WithdrawToken: request.WithdrawToken,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// PlaceBid bids on an auction
func (h *MarketHandler) PlaceBid(c *gin.Context) {
	var request BidRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	receipt, err := h.engine.PlaceBid(c.Request.Context(), market.BidParams{
		Bidder:          middleware.Signer(c),
		Pool:            request.Pool,
		NftMint:         request.NftMint,
		BidderToken:     request.BidderToken,
		PrevBidderToken: request.PrevBidderToken,
		Amount:          request.Amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// Claim delivers the token of an ended auction to the signer
func (h *MarketHandler) Claim(c *gin.Context) {
	var request ClaimRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	receipt, err := h.engine.Claim(c.Request.Context(), market.ClaimParams{
		Claimant:      middleware.Signer(c),
		Pool:          request.Pool,
		NftMint:       request.NftMint,
		ClaimantToken: request.ClaimantToken,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// FinalizeAuction ends an auction past its deadline. Any signer may call it.
func (h *MarketHandler) FinalizeAuction(c *gin.Context) {
	var request SaleManagerRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	receipt, err := h.engine.FinalizeAuction(c.Request.Context(), request.Pool, request.NftMint)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}
