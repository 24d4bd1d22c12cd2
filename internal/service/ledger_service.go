package service

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"
	"affiliate-service/internal/repository"
	"affiliate-service/internal/ws"

	"gorm.io/gorm"
)

// LedgerService converts attributed orders into commission entries and keeps
// the affiliate balance aggregates consistent through approval and rejection.
type LedgerService struct {
	db              *gorm.DB
	commissionRepo  *repository.CommissionRepository
	affiliateRepo   *repository.AffiliateRepository
	attributionRepo *repository.AttributionRepository
	settingRepo     *repository.SettingRepository
	attributionSvc  *AttributionService
	hub             *ws.Hub
}

func NewLedgerService(
	db *gorm.DB,
	commissionRepo *repository.CommissionRepository,
	affiliateRepo *repository.AffiliateRepository,
	attributionRepo *repository.AttributionRepository,
	settingRepo *repository.SettingRepository,
	attributionSvc *AttributionService,
	hub *ws.Hub,
) *LedgerService {
	return &LedgerService{
		db:              db,
		commissionRepo:  commissionRepo,
		affiliateRepo:   affiliateRepo,
		attributionRepo: attributionRepo,
		settingRepo:     settingRepo,
		attributionSvc:  attributionSvc,
		hub:             hub,
	}
}

// RecordOrder credits an attributed order to its referrer. The durable
// attribution record is authoritative; the referral code parameter is only a
// fallback for orders placed without a visitor cookie. Recording the same
// order twice is an idempotent no-op: the existence check catches the common
// case and the unique index on order_id catches the concurrent one. The
// commission insert, the attribution totals and the affiliate aggregates all
// commit in a single transaction.
func (s *LedgerService) RecordOrder(orderID, visitorID string, userID *uint, orderTotal int64, referralCode string) (*models.CommissionEntry, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id required")
	}
	if orderTotal <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if existing, err := s.commissionRepo.GetByOrderID(orderID); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var attribution *models.Attribution
	if visitorID != "" {
		if a, err := s.attributionSvc.ActiveAttribution(visitorID); err == nil {
			attribution = a
		}
	}
	var affiliate *models.Affiliate
	var err error
	if attribution != nil {
		affiliate, err = s.affiliateRepo.GetByID(attribution.AffiliateID)
	} else if referralCode != "" {
		affiliate, err = s.affiliateRepo.GetByCode(referralCode)
	} else {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !affiliate.IsActive {
		return nil, domain.ErrAffiliateInactive
	}

	settings, err := s.settingRepo.Get()
	if err != nil {
		return nil, err
	}
	rate := settings.CommissionRatePercent
	amount := int64(math.Round(float64(orderTotal) * rate / 100))

	now := time.Now()
	entry := &models.CommissionEntry{
		OrderID:     orderID,
		AffiliateID: affiliate.ID,
		OrderTotal:  orderTotal,
		RatePercent: rate,
		Amount:      amount,
		Status:      domain.CommissionPending,
		OrderedAt:   now,
	}
	if attribution != nil {
		entry.AttributionID = &attribution.ID
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.commissionRepo.Create(tx, entry); err != nil {
			return err
		}
		if attribution != nil {
			if err := s.attributionRepo.AddOrderTotals(tx, attribution.ID, orderTotal, amount); err != nil {
				return err
			}
			if userID != nil && attribution.BoundAt == nil {
				if err := s.attributionRepo.Bind(tx, attribution.ID, *userID, "", now); err != nil {
					return err
				}
			}
		}
		return s.affiliateRepo.AddPendingCommission(tx, affiliate.ID, amount, orderTotal)
	})
	if err != nil {
		if isDuplicateKey(err) {
			// Lost the insert race: the other writer's entry stands.
			return s.commissionRepo.GetByOrderID(orderID)
		}
		return nil, err
	}

	s.hub.Publish(ws.Event{
		Type:        "commission.created",
		AffiliateID: affiliate.ID,
		UserID:      affiliate.UserID,
		Data:        entry,
	})
	return entry, nil
}

// Approve moves a pending entry to approved and shifts its amount from the
// pending to the approved bucket; the lifetime total is unchanged. Approving
// an already approved entry is an idempotent no-op.
func (s *LedgerService) Approve(commissionID, adminID uint) error {
	entry, err := s.commissionRepo.GetByID(commissionID)
	if err != nil {
		return err
	}
	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		n, err := s.commissionRepo.TransitionToApproved(tx, commissionID, adminID, now)
		if err != nil {
			return err
		}
		if n == 0 {
			// Lost a race or replayed: decide on the current status.
			current, err := s.commissionRepo.GetByID(commissionID)
			if err != nil {
				return err
			}
			if current.Status == domain.CommissionApproved {
				return nil
			}
			return domain.ErrInvalidTransition
		}
		return s.affiliateRepo.ShiftPendingToApproved(tx, entry.AffiliateID, entry.Amount)
	})
	if err != nil {
		return err
	}

	affiliate, aerr := s.affiliateRepo.GetByID(entry.AffiliateID)
	if aerr == nil {
		s.hub.Publish(ws.Event{
			Type:        "commission.approved",
			AffiliateID: affiliate.ID,
			UserID:      affiliate.UserID,
			Data:        map[string]interface{}{"commission_id": commissionID, "amount": entry.Amount},
		})
	}
	return nil
}

// Reject moves a pending entry to rejected and backs its amount out of both
// the pending and the lifetime total buckets: a rejected commission is
// treated as if it never existed, unlike approval which keeps it in the
// total. Rejecting an already rejected entry is an idempotent no-op.
func (s *LedgerService) Reject(commissionID, adminID uint, reason string) error {
	entry, err := s.commissionRepo.GetByID(commissionID)
	if err != nil {
		return err
	}
	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		n, err := s.commissionRepo.TransitionToRejected(tx, commissionID, adminID, reason, now)
		if err != nil {
			return err
		}
		if n == 0 {
			current, err := s.commissionRepo.GetByID(commissionID)
			if err != nil {
				return err
			}
			if current.Status == domain.CommissionRejected {
				return nil
			}
			return domain.ErrInvalidTransition
		}
		return s.affiliateRepo.RemoveRejectedCommission(tx, entry.AffiliateID, entry.Amount)
	})
	if err != nil {
		return err
	}

	affiliate, aerr := s.affiliateRepo.GetByID(entry.AffiliateID)
	if aerr == nil {
		s.hub.Publish(ws.Event{
			Type:        "commission.rejected",
			AffiliateID: affiliate.ID,
			UserID:      affiliate.UserID,
			Data:        map[string]interface{}{"commission_id": commissionID, "amount": entry.Amount, "reason": reason},
		})
	}
	return nil
}

// isDuplicateKey matches both gorm's translated error and the raw driver
// messages for unique constraint violations.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
