package handler

import (
	"errors"
	"net/http"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"
	"affiliate-service/internal/repository"

	"github.com/gin-gonic/gin"
)

// BankAccountHandler manages the company bank accounts shown to customers
// for bank-transfer payment. Admin only, except the public active listing.
type BankAccountHandler struct {
	bankRepo *repository.BankAccountRepository
}

func NewBankAccountHandler(bankRepo *repository.BankAccountRepository) *BankAccountHandler {
	return &BankAccountHandler{bankRepo: bankRepo}
}

// ListPublic handles GET /bank-accounts: active accounts for checkout display.
func (h *BankAccountHandler) ListPublic(c *gin.Context) {
	list, err := h.bankRepo.List(true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list accounts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

// List handles GET /admin/bank-accounts.
func (h *BankAccountHandler) List(c *gin.Context) {
	list, err := h.bankRepo.List(false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list accounts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

type bankAccountRequest struct {
	BankName      string `json:"bank_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	AccountHolder string `json:"account_holder" binding:"required"`
	CountryCode   string `json:"country_code"`
	Currency      string `json:"currency"`
	BranchCode    string `json:"branch_code"`
	SwiftCode     string `json:"swift_code"`
	BankCode      string `json:"bank_code"`
}

// Create handles POST /admin/bank-accounts.
func (h *BankAccountHandler) Create(c *gin.Context) {
	var req bankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	b := &models.BankAccount{
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountHolder: req.AccountHolder,
		CountryCode:   req.CountryCode,
		Currency:      req.Currency,
		BranchCode:    req.BranchCode,
		SwiftCode:     req.SwiftCode,
		BankCode:      req.BankCode,
		IsActive:      true,
	}
	if b.CountryCode == "" {
		b.CountryCode = "JP"
	}
	if b.Currency == "" {
		b.Currency = "JPY"
	}
	if err := h.bankRepo.Create(b); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create account"})
		return
	}
	c.JSON(http.StatusCreated, b)
}

// Update handles PATCH /admin/bank-accounts/:id.
func (h *BankAccountHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		BankName      *string `json:"bank_name"`
		AccountNumber *string `json:"account_number"`
		AccountHolder *string `json:"account_holder"`
		BranchCode    *string `json:"branch_code"`
		SwiftCode     *string `json:"swift_code"`
		BankCode      *string `json:"bank_code"`
		IsActive      *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	fields := map[string]interface{}{}
	if req.BankName != nil {
		fields["bank_name"] = *req.BankName
	}
	if req.AccountNumber != nil {
		fields["account_number"] = *req.AccountNumber
	}
	if req.AccountHolder != nil {
		fields["account_holder"] = *req.AccountHolder
	}
	if req.BranchCode != nil {
		fields["branch_code"] = *req.BranchCode
	}
	if req.SwiftCode != nil {
		fields["swift_code"] = *req.SwiftCode
	}
	if req.BankCode != nil {
		fields["bank_code"] = *req.BankCode
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}
	if err := h.bankRepo.Update(id, fields); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// SetDefault handles POST /admin/bank-accounts/:id/default.
func (h *BankAccountHandler) SetDefault(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.bankRepo.SetDefault(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not set default"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"default": true})
}

// Delete handles DELETE /admin/bank-accounts/:id.
func (h *BankAccountHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.bankRepo.Delete(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
