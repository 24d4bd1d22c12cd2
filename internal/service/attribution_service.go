package service

import (
	"errors"
	"log"
	"time"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"
	"affiliate-service/internal/repository"

	"gorm.io/gorm"
)

// AttributionService maintains the causal link between a marketing click and
// an eventual order, bounded by the configurable attribution window.
type AttributionService struct {
	db              *gorm.DB
	attributionRepo *repository.AttributionRepository
	affiliateRepo   *repository.AffiliateRepository
	settingRepo     *repository.SettingRepository
}

func NewAttributionService(
	db *gorm.DB,
	attributionRepo *repository.AttributionRepository,
	affiliateRepo *repository.AffiliateRepository,
	settingRepo *repository.SettingRepository,
) *AttributionService {
	return &AttributionService{
		db:              db,
		attributionRepo: attributionRepo,
		affiliateRepo:   affiliateRepo,
		settingRepo:     settingRepo,
	}
}

// TrackClick records a storefront visit carrying a referral code: it creates
// the attribution for a first click on a (visitor, code) pair, refreshes the
// window on a repeat click, and bumps the affiliate's click counter. The
// attribution write and the counter increment share one transaction.
func (s *AttributionService) TrackClick(code, visitorID, sessionID string) (*models.Attribution, error) {
	if code == "" || visitorID == "" {
		return nil, domain.ErrInvalidReferralCode
	}
	affiliate, err := s.affiliateRepo.GetByCode(code)
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
	now := time.Now()
	expiresAt := now.AddDate(0, 0, settings.AttributionWindowDays)

	var attribution *models.Attribution
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.attributionRepo.GetByVisitorAndCode(tx, visitorID, code)
		switch {
		case err == nil:
			if err := s.attributionRepo.Refresh(tx, existing.ID, sessionID, now, expiresAt); err != nil {
				return err
			}
			existing.SessionID = sessionID
			existing.LastClickAt = now
			existing.ExpiresAt = expiresAt
			existing.IsActive = true
			attribution = existing
		case errors.Is(err, domain.ErrNotFound):
			a := &models.Attribution{
				VisitorID:    visitorID,
				SessionID:    sessionID,
				ReferralCode: code,
				AffiliateID:  affiliate.ID,
				FirstClickAt: now,
				LastClickAt:  now,
				ExpiresAt:    expiresAt,
				IsActive:     true,
			}
			if err := s.attributionRepo.Create(tx, a); err != nil {
				return err
			}
			attribution = a
		default:
			return err
		}
		return s.affiliateRepo.IncrementClicks(tx, affiliate.ID)
	})
	if err != nil {
		return nil, err
	}
	return attribution, nil
}

// ActiveAttribution returns the visitor's most recent attribution whose
// window has not lapsed. Lapsed rows encountered on the way are deactivated
// lazily, complementing the background sweep.
func (s *AttributionService) ActiveAttribution(visitorID string) (*models.Attribution, error) {
	list, err := s.attributionRepo.ListActiveByVisitor(visitorID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var expired []uint
	var current *models.Attribution
	for i := range list {
		a := &list[i]
		if a.Expired(now) {
			expired = append(expired, a.ID)
			continue
		}
		if current == nil {
			current = a
		}
	}
	if len(expired) > 0 {
		if err := s.attributionRepo.Deactivate(expired); err != nil {
			log.Printf("[attribution] lazy expiry of %d rows: %v", len(expired), err)
		}
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	return current, nil
}

// Bind stamps a registered user onto the visitor's active attribution, e.g.
// when the visitor signs up or identifies at checkout. Also counts the signup
// as a referral for the attributing affiliate the first time around.
func (s *AttributionService) Bind(visitorID string, userID uint, email string) (*models.Attribution, error) {
	current, err := s.ActiveAttribution(visitorID)
	if err != nil {
		return nil, err
	}
	firstBind := current.BoundAt == nil
	now := time.Now()
	if err := s.attributionRepo.Bind(s.db, current.ID, userID, email, now); err != nil {
		return nil, err
	}
	current.BoundUserID = &userID
	current.BoundEmail = email
	current.BoundAt = &now
	if firstBind {
		if err := s.affiliateRepo.IncrementReferrals(s.db, current.AffiliateID); err != nil {
			log.Printf("[attribution] referral counter for affiliate %d: %v", current.AffiliateID, err)
		}
	}
	return current, nil
}

// SweepExpired deactivates every attribution whose window has lapsed. Run by
// the cron sweeper so rows that are never read again do not stay active in
// storage indefinitely.
func (s *AttributionService) SweepExpired() (int64, error) {
	return s.attributionRepo.DeactivateExpired(time.Now())
}
