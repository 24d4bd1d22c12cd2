package handler

import (
	"errors"
	"net/http"
	"strconv"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/middleware"
	"affiliate-service/internal/repository"
	"affiliate-service/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler covers the admin console: commission moderation, payout
// processing, affiliate management, program settings and dashboard totals.
type AdminHandler struct {
	ledgerSvc      *service.LedgerService
	payoutSvc      *service.PayoutService
	affiliateRepo  *repository.AffiliateRepository
	commissionRepo *repository.CommissionRepository
	payoutRepo     *repository.PayoutRepository
	settingRepo    *repository.SettingRepository
}

func NewAdminHandler(
	ledgerSvc *service.LedgerService,
	payoutSvc *service.PayoutService,
	affiliateRepo *repository.AffiliateRepository,
	commissionRepo *repository.CommissionRepository,
	payoutRepo *repository.PayoutRepository,
	settingRepo *repository.SettingRepository,
) *AdminHandler {
	return &AdminHandler{
		ledgerSvc:      ledgerSvc,
		payoutSvc:      payoutSvc,
		affiliateRepo:  affiliateRepo,
		commissionRepo: commissionRepo,
		payoutRepo:     payoutRepo,
		settingRepo:    settingRepo,
	}
}

// ListCommissions handles GET /admin/commissions.
func (h *AdminHandler) ListCommissions(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.commissionRepo.ListAll(c.Query("status"), limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list commissions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ApproveCommission handles POST /admin/commissions/:id/approve.
func (h *AdminHandler) ApproveCommission(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	adminID := middleware.GetUserID(c)
	if err := h.ledgerSvc.Approve(id, adminID); err != nil {
		respondTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": domain.CommissionApproved})
}

// RejectCommission handles POST /admin/commissions/:id/reject.
func (h *AdminHandler) RejectCommission(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	adminID := middleware.GetUserID(c)
	if err := h.ledgerSvc.Reject(id, adminID, req.Reason); err != nil {
		respondTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": domain.CommissionRejected})
}

// ListPayouts handles GET /admin/payouts.
func (h *AdminHandler) ListPayouts(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.payoutRepo.ListAll(c.Query("status"), limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list payouts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ApprovePayout handles POST /admin/payouts/:id/approve.
func (h *AdminHandler) ApprovePayout(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.payoutSvc.Approve(id, middleware.GetUserID(c)); err != nil {
		respondTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": domain.PayoutApproved})
}

// ProcessPayout handles POST /admin/payouts/:id/process.
func (h *AdminHandler) ProcessPayout(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.payoutSvc.Process(id); err != nil {
		respondTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": domain.PayoutProcessing})
}

// RejectPayout handles POST /admin/payouts/:id/reject.
func (h *AdminHandler) RejectPayout(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.payoutSvc.Reject(id, middleware.GetUserID(c), req.Reason); err != nil {
		respondTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": domain.PayoutRejected})
}

// CompletePayout handles POST /admin/payouts/:id/complete.
func (h *AdminHandler) CompletePayout(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		TransactionID string `json:"transaction_id"`
	}
	_ = c.ShouldBindJSON(&req)
	if err := h.payoutSvc.Complete(id, middleware.GetUserID(c), req.TransactionID); err != nil {
		respondTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": domain.PayoutCompleted})
}

// MarkPayoutPaid handles POST /admin/payouts/:id/mark-paid: the direct
// shorthand that skips the processing step.
func (h *AdminHandler) MarkPayoutPaid(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.payoutSvc.MarkPaid(id, middleware.GetUserID(c)); err != nil {
		respondTransitionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": domain.PayoutPaid})
}

// ListAffiliates handles GET /admin/affiliates.
func (h *AdminHandler) ListAffiliates(c *gin.Context) {
	page, limit := parsePagination(c)
	activeOnly := c.Query("active") == "true"
	list, total, err := h.affiliateRepo.List(c.Query("search"), activeOnly, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list affiliates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// GetAffiliate handles GET /admin/affiliates/:id.
func (h *AdminHandler) GetAffiliate(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := h.affiliateRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "affiliate not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	held, _ := h.payoutRepo.SumOpenByAffiliate(a.ID)
	c.JSON(http.StatusOK, gin.H{
		"affiliate":         a,
		"available_balance": a.AvailableBalance(),
		"held_in_payouts":   held,
	})
}

// SetAffiliateActive handles PATCH /admin/affiliates/:id/active.
func (h *AdminHandler) SetAffiliateActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.affiliateRepo.SetActive(id, *req.Active); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "affiliate not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": *req.Active})
}

// GetSettings handles GET /admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	s, err := h.settingRepo.Get()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load settings"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateSettings handles PATCH /admin/settings.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req struct {
		CommissionRatePercent *float64 `json:"commission_rate_percent"`
		MinPayoutAmount       *int64   `json:"min_payout_amount"`
		AttributionWindowDays *int     `json:"attribution_window_days"`
		TaxRatePercent        *float64 `json:"tax_rate_percent"`
		EnabledPayoutMethods  *string  `json:"enabled_payout_methods"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fields := map[string]interface{}{}
	if req.CommissionRatePercent != nil {
		if *req.CommissionRatePercent < 0 || *req.CommissionRatePercent > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "commission rate must be between 0 and 100"})
			return
		}
		fields["commission_rate_percent"] = *req.CommissionRatePercent
	}
	if req.MinPayoutAmount != nil {
		if *req.MinPayoutAmount < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "minimum payout cannot be negative"})
			return
		}
		fields["min_payout_amount"] = *req.MinPayoutAmount
	}
	if req.AttributionWindowDays != nil {
		if *req.AttributionWindowDays < 1 || *req.AttributionWindowDays > 90 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "attribution window must be 1-90 days"})
			return
		}
		fields["attribution_window_days"] = *req.AttributionWindowDays
	}
	if req.TaxRatePercent != nil {
		if *req.TaxRatePercent < 0 || *req.TaxRatePercent > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tax rate must be between 0 and 100"})
			return
		}
		fields["tax_rate_percent"] = *req.TaxRatePercent
	}
	if req.EnabledPayoutMethods != nil {
		fields["enabled_payout_methods"] = *req.EnabledPayoutMethods
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}
	s, err := h.settingRepo.UpdateFields(fields)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update settings"})
		return
	}
	c.JSON(http.StatusOK, s)
}

// Dashboard handles GET /admin/dashboard: program-wide counters.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	commissionCounts, err := h.commissionRepo.CountByStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
		return
	}
	payoutCounts, err := h.payoutRepo.CountByStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"commissions_by_status": commissionCounts,
		"payouts_by_status":     payoutCounts,
	})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func respondTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid status transition"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
