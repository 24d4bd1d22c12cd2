package service

import (
	"crypto/rand"
	"errors"
	"fmt"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"
	"affiliate-service/internal/repository"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ReferralService issues referral codes and enrolls users into the program.
type ReferralService struct {
	affiliateRepo *repository.AffiliateRepository
}

func NewReferralService(affiliateRepo *repository.AffiliateRepository) *ReferralService {
	return &ReferralService{affiliateRepo: affiliateRepo}
}

// generateCode returns a random 8-character uppercase alphanumeric code.
func generateCode() (string, error) {
	b := make([]byte, domain.ReferralCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}

// Enroll creates an affiliate record with a fresh unique referral code.
// Uniqueness is guaranteed by the unique index on referral_code: a collision
// fails the insert and we retry with a new candidate, so two concurrent
// enrollments can never end up sharing a code. Enrolling an already enrolled
// user returns the existing record.
func (s *ReferralService) Enroll(userID uint, displayName, email string) (*models.Affiliate, error) {
	if a, err := s.affiliateRepo.GetByUserID(userID); err == nil {
		return a, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	for i := 0; i < 10; i++ {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		a := &models.Affiliate{
			UserID:       userID,
			DisplayName:  displayName,
			Email:        email,
			ReferralCode: code,
			IsActive:     true,
			Tier:         domain.TierBronze,
			BankCurrency: "JPY",
		}
		err = s.affiliateRepo.Create(a)
		if err == nil {
			return a, nil
		}
		if !isDuplicateKey(err) {
			return nil, err
		}
		// Could be a code collision (retry) or a concurrent enrollment of
		// the same user (return theirs).
		if existing, gerr := s.affiliateRepo.GetByUserID(userID); gerr == nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("could not allocate a unique referral code after retries")
}

// Resolve maps a referral code to its affiliate.
func (s *ReferralService) Resolve(code string) (*models.Affiliate, error) {
	return s.affiliateRepo.GetByCode(code)
}
