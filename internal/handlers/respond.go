package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/web-developer77/nifty-tunes-nft/internal/market"
)

// statusFor maps a market error kind to an HTTP status
func statusFor(kind market.ErrorKind) int {
	switch kind {
	case market.KindAuthorization:
		return http.StatusForbidden
	case market.KindState:
		return http.StatusConflict
	case market.KindEconomic:
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

// respondError writes market errors as 4xx with their code and anything else as 500
func respondError(c *gin.Context, err error) {
	var me *market.Error
	if errors.As(err, &me) {
		c.JSON(statusFor(me.Kind), gin.H{
			"error": me.Msg,
			"code":  me.Code,
			"name":  me.Name,
		})
		return
	}
	if errors.Is(err, market.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
