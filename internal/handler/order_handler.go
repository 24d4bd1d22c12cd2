package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"affiliate-service/config"
	"affiliate-service/internal/domain"
	"affiliate-service/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderHandler receives checkout webhooks from the storefront and turns
// attributed orders into commission entries.
type OrderHandler struct {
	cfg       *config.Config
	ledgerSvc *service.LedgerService
}

func NewOrderHandler(cfg *config.Config, ledgerSvc *service.LedgerService) *OrderHandler {
	return &OrderHandler{cfg: cfg, ledgerSvc: ledgerSvc}
}

// Create handles POST /orders: the storefront reports a completed checkout.
// Authenticated by a shared-secret header. Re-delivery of the same order id
// is an idempotent success.
func (h *OrderHandler) Create(c *gin.Context) {
	if h.cfg.Order.WebhookSecret != "" {
		secret := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(secret), []byte(h.cfg.Order.WebhookSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}
	}
	var req struct {
		OrderID      string `json:"order_id" binding:"required"`
		VisitorID    string `json:"visitor_id"`
		UserID       *uint  `json:"user_id"`
		OrderTotal   int64  `json:"order_total" binding:"required,min=1"`
		ReferralCode string `json:"referral_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entry, err := h.ledgerSvc.RecordOrder(req.OrderID, req.VisitorID, req.UserID, req.OrderTotal, req.ReferralCode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidReferralCode):
			// Unattributed order: nothing to credit, not an error for the
			// storefront.
			c.JSON(http.StatusOK, gin.H{"attributed": false})
		case errors.Is(err, domain.ErrAffiliateInactive):
			c.JSON(http.StatusOK, gin.H{"attributed": false, "reason": "affiliate inactive"})
		case errors.Is(err, domain.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "order total must be positive"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record order"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"attributed":    true,
		"commission_id": entry.ID,
		"amount":        entry.Amount,
		"status":        entry.Status,
	})
}
