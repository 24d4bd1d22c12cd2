package service

import (
	"context"
	"math"
	"strings"
	"time"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"
	"affiliate-service/internal/repository"
	"affiliate-service/internal/ws"
	"affiliate-service/pkg/currency"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutService lets an affiliate withdraw from their approved balance and
// drives requests through the admin state machine. The requested amount is
// reserved on the affiliate aggregate at request time, not at completion,
// so overlapping requests can never withdraw more than the balance covers.
type PayoutService struct {
	db             *gorm.DB
	payoutRepo     *repository.PayoutRepository
	affiliateRepo  *repository.AffiliateRepository
	commissionRepo *repository.CommissionRepository
	settingRepo    *repository.SettingRepository
	converter      *currency.Converter
	hub            *ws.Hub
}

func NewPayoutService(
	db *gorm.DB,
	payoutRepo *repository.PayoutRepository,
	affiliateRepo *repository.AffiliateRepository,
	commissionRepo *repository.CommissionRepository,
	settingRepo *repository.SettingRepository,
	converter *currency.Converter,
	hub *ws.Hub,
) *PayoutService {
	return &PayoutService{
		db:             db,
		payoutRepo:     payoutRepo,
		affiliateRepo:  affiliateRepo,
		commissionRepo: commissionRepo,
		settingRepo:    settingRepo,
		converter:      converter,
		hub:            hub,
	}
}

// Request validates and persists a new payout request. Validation happens
// here in the core, not just at the UI boundary: amount positive, at or above
// the minimum, covered by the withdrawable balance, bank details present.
// The reservation is a guarded atomic update, so two concurrent requests
// whose sum exceeds the balance cannot both succeed.
func (s *PayoutService) Request(ctx context.Context, affiliateID uint, amount int64, method string) (*models.PayoutRequest, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	affiliate, err := s.affiliateRepo.GetByID(affiliateID)
	if err != nil {
		return nil, err
	}
	if !affiliate.IsActive {
		return nil, domain.ErrAffiliateInactive
	}
	if !affiliate.HasBankInfo() {
		return nil, domain.ErrMissingBankInfo
	}
	settings, err := s.settingRepo.Get()
	if err != nil {
		return nil, err
	}
	if amount < settings.MinPayoutAmount {
		return nil, domain.ErrBelowMinimumPayout
	}
	if !methodEnabled(settings.EnabledPayoutMethods, method) {
		return nil, domain.ErrUnsupportedMethod
	}

	tax := int64(math.Round(float64(amount) * settings.TaxRatePercent / 100))
	payout := &models.PayoutRequest{
		Reference:     uuid.New().String(),
		AffiliateID:   affiliate.ID,
		Amount:        amount,
		TaxAmount:     tax,
		NetAmount:     amount - tax,
		Method:        method,
		BankName:      affiliate.BankName,
		AccountNumber: affiliate.AccountNumber,
		AccountHolder: affiliate.AccountHolder,
		BranchCode:    affiliate.BranchCode,
		SwiftCode:     affiliate.SwiftCode,
		Currency:      "JPY",
		Status:        domain.PayoutPending,
		RequestedAt:   time.Now(),
	}
	if method == domain.PayoutMethodBankIntl {
		estimate, rate, _ := s.converter.Convert(ctx, payout.NetAmount)
		payout.Currency = "IDR"
		payout.FxRate = &rate
		payout.EstimatedForeign = &estimate
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.affiliateRepo.Reserve(tx, affiliate.ID, amount); err != nil {
			return err
		}
		return s.payoutRepo.Create(tx, payout)
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(ws.Event{
		Type:        "payout.requested",
		AffiliateID: affiliate.ID,
		UserID:      affiliate.UserID,
		Data:        payout,
	})
	return payout, nil
}

// Approve moves a pending payout to approved. No balance side effects.
func (s *PayoutService) Approve(payoutID, adminID uint) error {
	now := time.Now()
	return s.transition(payoutID, []string{domain.PayoutPending}, domain.PayoutApproved,
		map[string]interface{}{"approved_by": adminID, "approved_at": now}, "payout.approved")
}

// Process marks an approved payout as being executed. No balance side effects.
func (s *PayoutService) Process(payoutID uint) error {
	now := time.Now()
	return s.transition(payoutID, []string{domain.PayoutApproved}, domain.PayoutProcessing,
		map[string]interface{}{"processed_at": now}, "payout.processing")
}

// Reject terminates a payout before completion and releases its reservation
// back to the withdrawable balance. Rejecting an already rejected payout is
// an idempotent no-op.
func (s *PayoutService) Reject(payoutID, adminID uint, reason string) error {
	payout, err := s.payoutRepo.GetByID(payoutID)
	if err != nil {
		return err
	}
	if payout.Status == domain.PayoutRejected {
		return nil
	}
	from := []string{domain.PayoutPending, domain.PayoutApproved, domain.PayoutProcessing}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		n, err := s.payoutRepo.Transition(tx, payoutID, from, domain.PayoutRejected,
			map[string]interface{}{"reject_reason": reason, "completed_by": adminID})
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrInvalidTransition
		}
		return s.affiliateRepo.ReleaseReservation(tx, payout.AffiliateID, payout.Amount)
	})
	if err != nil {
		return err
	}
	s.publish(payout.AffiliateID, "payout.rejected", map[string]interface{}{
		"payout_id": payoutID, "amount": payout.Amount, "reason": reason,
	})
	return nil
}

// Complete finalizes a processing payout: the money has moved. In one
// transaction the status flips, the affiliate's approved balance is settled
// into paid, and the oldest approved commission entries fitting within the
// amount are marked paid and linked to this payout. Completing a completed payout is
// an idempotent no-op.
func (s *PayoutService) Complete(payoutID, adminID uint, transactionID string) error {
	return s.finalize(payoutID, adminID, transactionID,
		[]string{domain.PayoutProcessing}, domain.PayoutCompleted, "payout.completed")
}

// MarkPaid is the admin shorthand that jumps a pending or approved payout
// straight to the paid terminal state, with the same ledger effect as
// Complete.
func (s *PayoutService) MarkPaid(payoutID, adminID uint) error {
	return s.finalize(payoutID, adminID, "",
		[]string{domain.PayoutPending, domain.PayoutApproved, domain.PayoutProcessing},
		domain.PayoutPaid, "payout.paid")
}

func (s *PayoutService) finalize(payoutID, adminID uint, transactionID string, from []string, terminal, eventType string) error {
	payout, err := s.payoutRepo.GetByID(payoutID)
	if err != nil {
		return err
	}
	if payout.Status == terminal {
		return nil
	}
	now := time.Now()
	extra := map[string]interface{}{"completed_by": adminID, "completed_at": now}
	if transactionID != "" {
		extra["transaction_id"] = transactionID
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		n, err := s.payoutRepo.Transition(tx, payoutID, from, terminal, extra)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrInvalidTransition
		}
		if err := s.affiliateRepo.SettlePayout(tx, payout.AffiliateID, payout.Amount); err != nil {
			return err
		}
		_, err = s.commissionRepo.MarkPaidUpTo(tx, payout.AffiliateID, payout.Amount, payoutID, now)
		return err
	})
	if err != nil {
		return err
	}
	s.publish(payout.AffiliateID, eventType, map[string]interface{}{
		"payout_id": payoutID, "amount": payout.Amount, "net_amount": payout.NetAmount,
	})
	return nil
}

// transition applies a plain status move with no ledger side effects.
func (s *PayoutService) transition(payoutID uint, from []string, next string, extra map[string]interface{}, eventType string) error {
	payout, err := s.payoutRepo.GetByID(payoutID)
	if err != nil {
		return err
	}
	if payout.Status == next {
		return nil
	}
	n, err := s.payoutRepo.Transition(s.db, payoutID, from, next, extra)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrInvalidTransition
	}
	s.publish(payout.AffiliateID, eventType, map[string]interface{}{
		"payout_id": payoutID, "amount": payout.Amount,
	})
	return nil
}

func (s *PayoutService) publish(affiliateID uint, eventType string, data interface{}) {
	affiliate, err := s.affiliateRepo.GetByID(affiliateID)
	if err != nil {
		return
	}
	s.hub.Publish(ws.Event{
		Type:        eventType,
		AffiliateID: affiliate.ID,
		UserID:      affiliate.UserID,
		Data:        data,
	})
}

func methodEnabled(enabled, method string) bool {
	for _, m := range strings.Split(enabled, ",") {
		if strings.TrimSpace(m) == method {
			return true
		}
	}
	return false
}
