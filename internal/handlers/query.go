package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetPool returns a pool by address
func (h *MarketHandler) GetPool(c *gin.Context) {
	pool, err := h.engine.GetPool(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}

// ListPoolListings returns the active sale managers of a pool
func (h *MarketHandler) ListPoolListings(c *gin.Context) {
	managers, err := h.engine.ListActiveListings(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, managers)
}

// GetSaleManager returns the sale manager of a (pool, mint) pair
func (h *MarketHandler) GetSaleManager(c *gin.Context) {
	sm, err := h.engine.GetSaleManager(c.Request.Context(), c.Param("pool"), c.Param("mint"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sm)
}

// ListSalePots returns every pot of a sale manager
func (h *MarketHandler) ListSalePots(c *gin.Context) {
	pots, err := h.engine.ListSalePots(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pots)
}

// GetSalePot returns a sale pot by address
func (h *MarketHandler) GetSalePot(c *gin.Context) {
	pot, err := h.engine.GetSalePot(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pot)
}

// GetAuction returns auction data with its effective state
func (h *MarketHandler) GetAuction(c *gin.Context) {
	view, err := h.engine.GetAuction(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetMetadata returns the registry record of a mint
func (h *MarketHandler) GetMetadata(c *gin.Context) {
	md, err := h.engine.GetMetadata(c.Request.Context(), c.Param("mint"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, md)
}

// GetRawAccount returns the fixed binary layout of a marketplace record
func (h *MarketHandler) GetRawAccount(c *gin.Context) {
	raw, err := h.engine.GetRawAccount(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, raw)
}
