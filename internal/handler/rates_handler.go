package handler

import (
	"net/http"

	"affiliate-service/pkg/currency"

	"github.com/gin-gonic/gin"
)

// RatesHandler exposes the cached JPY -> IDR rate used for payout estimates.
type RatesHandler struct {
	converter *currency.Converter
}

func NewRatesHandler(converter *currency.Converter) *RatesHandler {
	return &RatesHandler{converter: converter}
}

// GetIDR handles GET /rates/idr.
func (h *RatesHandler) GetIDR(c *gin.Context) {
	rate, fetchedAt := h.converter.Rate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"base":       "JPY",
		"quote":      "IDR",
		"rate":       rate,
		"updated_at": fetchedAt,
	})
}
