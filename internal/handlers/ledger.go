package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/web-developer77/nifty-tunes-nft/internal/middleware"
)

// CreateMint registers a mint with the signer as authority
func (h *MarketHandler) CreateMint(c *gin.Context) {
	var request CreateMintRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mint, err := h.engine.CreateMint(c.Request.Context(), middleware.Signer(c), request.Decimals)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mint)
}

// CreateTokenAccount opens an associated token account
func (h *MarketHandler) CreateTokenAccount(c *gin.Context) {
	var request CreateTokenAccountRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	owner := request.Owner
	if owner == "" {
		owner = middleware.Signer(c)
	}
	account, err := h.engine.CreateTokenAccount(c.Request.Context(), owner, request.Mint)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

// MintTo issues fungible supply to a token account
func (h *MarketHandler) MintTo(c *gin.Context) {
	var request MintToRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	account, err := h.engine.MintTo(c.Request.Context(), request.Mint, request.Destination, middleware.Signer(c), request.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// GetTokenAccount returns a token account by address
func (h *MarketHandler) GetTokenAccount(c *gin.Context) {
	account, err := h.engine.GetTokenAccount(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

// ListTokenAccounts returns the token accounts of the owner query parameter
func (h *MarketHandler) ListTokenAccounts(c *gin.Context) {
	owner := c.Query("owner")
	if owner == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner is required"})
		return
	}
	accounts, err := h.engine.ListTokenAccounts(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}
