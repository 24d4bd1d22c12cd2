package handler

import (
	"errors"
	"net/http"
	"net/url"

	"affiliate-service/config"
	"affiliate-service/internal/domain"
	"affiliate-service/internal/service"

	"github.com/gin-gonic/gin"
)

// TrackHandler covers the public click-tracking surface hit by the
// storefront.
type TrackHandler struct {
	cfg            *config.Config
	attributionSvc *service.AttributionService
}

func NewTrackHandler(cfg *config.Config, attributionSvc *service.AttributionService) *TrackHandler {
	return &TrackHandler{cfg: cfg, attributionSvc: attributionSvc}
}

// Click handles POST /track/click: the storefront reports a visit that
// carried a ref query parameter.
func (h *TrackHandler) Click(c *gin.Context) {
	var req struct {
		ReferralCode string `json:"referral_code" binding:"required"`
		VisitorID    string `json:"visitor_id" binding:"required"`
		SessionID    string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	attribution, err := h.attributionSvc.TrackClick(req.ReferralCode, req.VisitorID, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidReferralCode):
			c.JSON(http.StatusNotFound, gin.H{"error": "invalid referral code"})
		case errors.Is(err, domain.ErrAffiliateInactive):
			c.JSON(http.StatusConflict, gin.H{"error": "affiliate is not active"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not track click"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"attribution_id": attribution.ID,
		"expires_at":     attribution.ExpiresAt,
	})
}

// Redirect handles GET /r/:code: a shareable short link that records the
// click and forwards to the storefront with the ref parameter attached. The
// visitor id comes from a cookie the storefront sets; without one the click
// is not recorded but the redirect still happens.
func (h *TrackHandler) Redirect(c *gin.Context) {
	code := c.Param("code")
	visitorID, _ := c.Cookie("visitor_id")
	sessionID, _ := c.Cookie("session_id")
	if visitorID != "" {
		// Invalid codes still redirect; the storefront decides what to show.
		_, _ = h.attributionSvc.TrackClick(code, visitorID, sessionID)
	}
	target := h.cfg.Server.StorefrontURL + "/?" + domain.RefQueryParam + "=" + url.QueryEscape(code)
	c.Redirect(http.StatusFound, target)
}

// Bind handles POST /track/bind: the storefront identifies a visitor after
// registration or at checkout.
func (h *TrackHandler) Bind(c *gin.Context) {
	var req struct {
		VisitorID string `json:"visitor_id" binding:"required"`
		UserID    uint   `json:"user_id" binding:"required"`
		Email     string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	attribution, err := h.attributionSvc.Bind(req.VisitorID, req.UserID, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active attribution for visitor"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not bind attribution"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attribution_id": attribution.ID, "bound_at": attribution.BoundAt})
}

// Active handles GET /track/active: checkout pre-fill lookup. The storefront
// may cache the code client-side for UX, but this durable record stays
// authoritative for commission creation.
func (h *TrackHandler) Active(c *gin.Context) {
	visitorID := c.Query("visitor_id")
	if visitorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visitor_id required"})
		return
	}
	attribution, err := h.attributionSvc.ActiveAttribution(visitorID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active attribution"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, attribution)
}
