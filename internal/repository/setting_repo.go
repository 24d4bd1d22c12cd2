package repository

import (
	"time"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"

	"gorm.io/gorm"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns the singleton settings row, creating it with the centralized
// defaults if it does not exist yet.
func (r *SettingRepository) Get() (*models.AffiliateSettings, error) {
	var s models.AffiliateSettings
	err := r.db.First(&s).Error
	if err == nil {
		return &s, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	s = models.AffiliateSettings{
		CommissionRatePercent: domain.DefaultCommissionRatePercent,
		MinPayoutAmount:       domain.DefaultMinPayoutAmount,
		AttributionWindowDays: domain.DefaultAttributionWindowDays,
		TaxRatePercent:        domain.DefaultTaxRatePercent,
		EnabledPayoutMethods:  domain.PayoutMethodBankJP + "," + domain.PayoutMethodBankIntl,
	}
	if err := r.db.Create(&s).Error; err != nil {
		// Lost a create race with another instance; re-read.
		if rerr := r.db.First(&s).Error; rerr == nil {
			return &s, nil
		}
		return nil, err
	}
	return &s, nil
}

// UpdateFields merges the given columns into the settings row and stamps
// updated_at.
func (r *SettingRepository) UpdateFields(fields map[string]interface{}) (*models.AffiliateSettings, error) {
	s, err := r.Get()
	if err != nil {
		return nil, err
	}
	fields["updated_at"] = time.Now()
	if err := r.db.Model(s).Updates(fields).Error; err != nil {
		return nil, err
	}
	return r.Get()
}
