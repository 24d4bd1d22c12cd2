package handler

import (
	"errors"
	"net/http"
	"strconv"

	"affiliate-service/config"
	"affiliate-service/internal/domain"
	"affiliate-service/internal/middleware"
	"affiliate-service/internal/models"
	"affiliate-service/internal/repository"
	"affiliate-service/internal/service"

	"github.com/gin-gonic/gin"
)

// AffiliateHandler covers the authenticated affiliate's own surface:
// enrollment, stats, commissions, payouts and bank details.
type AffiliateHandler struct {
	cfg            *config.Config
	referralSvc    *service.ReferralService
	payoutSvc      *service.PayoutService
	affiliateRepo  *repository.AffiliateRepository
	commissionRepo *repository.CommissionRepository
	payoutRepo     *repository.PayoutRepository
}

func NewAffiliateHandler(
	cfg *config.Config,
	referralSvc *service.ReferralService,
	payoutSvc *service.PayoutService,
	affiliateRepo *repository.AffiliateRepository,
	commissionRepo *repository.CommissionRepository,
	payoutRepo *repository.PayoutRepository,
) *AffiliateHandler {
	return &AffiliateHandler{
		cfg:            cfg,
		referralSvc:    referralSvc,
		payoutSvc:      payoutSvc,
		affiliateRepo:  affiliateRepo,
		commissionRepo: commissionRepo,
		payoutRepo:     payoutRepo,
	}
}

// Enroll handles POST /affiliate/enroll: joins the referral program.
// Idempotent: re-enrolling returns the existing record.
func (h *AffiliateHandler) Enroll(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		DisplayName string `json:"display_name" binding:"required"`
		Email       string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.referralSvc.Enroll(userID, req.DisplayName, req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enrollment failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"affiliate":     a,
		"referral_link": h.cfg.Server.StorefrontURL + "/?" + domain.RefQueryParam + "=" + a.ReferralCode,
	})
}

// Me handles GET /affiliate/me: profile plus balance breakdown.
func (h *AffiliateHandler) Me(c *gin.Context) {
	a, ok := h.requireAffiliate(c)
	if !ok {
		return
	}
	held, _ := h.payoutRepo.SumOpenByAffiliate(a.ID)
	c.JSON(http.StatusOK, gin.H{
		"affiliate":         a,
		"available_balance": a.AvailableBalance(),
		"held_in_payouts":   held,
		"referral_link":     h.cfg.Server.StorefrontURL + "/?" + domain.RefQueryParam + "=" + a.ReferralCode,
	})
}

// UpdateBankInfo handles PATCH /affiliate/me/bank.
func (h *AffiliateHandler) UpdateBankInfo(c *gin.Context) {
	a, ok := h.requireAffiliate(c)
	if !ok {
		return
	}
	var req struct {
		BankName      string `json:"bank_name" binding:"required"`
		AccountNumber string `json:"account_number" binding:"required"`
		AccountHolder string `json:"account_holder" binding:"required"`
		BranchCode    string `json:"branch_code"`
		SwiftCode     string `json:"swift_code"`
		Currency      string `json:"currency"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fields := map[string]interface{}{
		"bank_name":      req.BankName,
		"account_number": req.AccountNumber,
		"account_holder": req.AccountHolder,
		"branch_code":    req.BranchCode,
		"swift_code":     req.SwiftCode,
	}
	if req.Currency != "" {
		fields["bank_currency"] = req.Currency
	}
	if err := h.affiliateRepo.UpdateBankInfo(a.ID, fields); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update bank details"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// ListCommissions handles GET /affiliate/me/commissions.
func (h *AffiliateHandler) ListCommissions(c *gin.Context) {
	a, ok := h.requireAffiliate(c)
	if !ok {
		return
	}
	page, limit := parsePagination(c)
	status := c.Query("status")
	list, total, err := h.commissionRepo.ListByAffiliate(a.ID, status, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list commissions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ListPayouts handles GET /affiliate/me/payouts.
func (h *AffiliateHandler) ListPayouts(c *gin.Context) {
	a, ok := h.requireAffiliate(c)
	if !ok {
		return
	}
	page, limit := parsePagination(c)
	list, total, err := h.payoutRepo.ListByAffiliate(a.ID, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list payouts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// RequestPayout handles POST /affiliate/me/payouts.
func (h *AffiliateHandler) RequestPayout(c *gin.Context) {
	a, ok := h.requireAffiliate(c)
	if !ok {
		return
	}
	var req struct {
		Amount int64  `json:"amount" binding:"required,min=1"`
		Method string `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payout, err := h.payoutSvc.Request(c.Request.Context(), a.ID, req.Amount, req.Method)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount exceeds available balance"})
		case errors.Is(err, domain.ErrBelowMinimumPayout):
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount below minimum payout"})
		case errors.Is(err, domain.ErrMissingBankInfo):
			c.JSON(http.StatusBadRequest, gin.H{"error": "bank details required before requesting a payout"})
		case errors.Is(err, domain.ErrUnsupportedMethod):
			c.JSON(http.StatusBadRequest, gin.H{"error": "payout method not enabled"})
		case errors.Is(err, domain.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		case errors.Is(err, domain.ErrAffiliateInactive):
			c.JSON(http.StatusForbidden, gin.H{"error": "affiliate is not active"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create payout request"})
		}
		return
	}
	c.JSON(http.StatusCreated, payout)
}

func (h *AffiliateHandler) requireAffiliate(c *gin.Context) (*models.Affiliate, bool) {
	userID := middleware.GetUserID(c)
	rec, err := h.affiliateRepo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not enrolled in the referral program"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return nil, false
	}
	return rec, true
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
