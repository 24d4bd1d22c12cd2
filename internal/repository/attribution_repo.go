package repository

import (
	"errors"
	"time"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"

	"gorm.io/gorm"
)

type AttributionRepository struct {
	db *gorm.DB
}

func NewAttributionRepository(db *gorm.DB) *AttributionRepository {
	return &AttributionRepository{db: db}
}

func (r *AttributionRepository) Create(tx *gorm.DB, a *models.Attribution) error {
	return tx.Create(a).Error
}

func (r *AttributionRepository) GetByID(id uint) (*models.Attribution, error) {
	var a models.Attribution
	if err := r.db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetByVisitorAndCode looks up the attribution row for one (visitor, code)
// pair regardless of its active state.
func (r *AttributionRepository) GetByVisitorAndCode(tx *gorm.DB, visitorID, code string) (*models.Attribution, error) {
	var a models.Attribution
	err := tx.Where("visitor_id = ? AND referral_code = ?", visitorID, code).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Refresh extends an attribution on a repeat click: new last-click time, new
// expiry, and the row is reactivated if a previous window had lapsed.
func (r *AttributionRepository) Refresh(tx *gorm.DB, id uint, sessionID string, lastClick, expiresAt time.Time) error {
	return tx.Model(&models.Attribution{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"session_id":    sessionID,
			"last_click_at": lastClick,
			"expires_at":    expiresAt,
			"is_active":     true,
		}).Error
}

// ListActiveByVisitor returns the visitor's active attributions newest first.
// Rows whose window has lapsed are not filtered here; callers decide whether
// to deactivate them lazily.
func (r *AttributionRepository) ListActiveByVisitor(visitorID string) ([]models.Attribution, error) {
	var list []models.Attribution
	err := r.db.Where("visitor_id = ? AND is_active = ?", visitorID, true).
		Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *AttributionRepository) Deactivate(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Attribution{}).Where("id IN ?", ids).
		Update("is_active", false).Error
}

// Bind stamps the registered user onto an attribution. Binding does not
// change the active flag.
func (r *AttributionRepository) Bind(tx *gorm.DB, id uint, userID uint, email string, at time.Time) error {
	return tx.Model(&models.Attribution{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"bound_user_id": userID,
			"bound_email":   email,
			"bound_at":      at,
		}).Error
}

// AddOrderTotals bumps the attribution's running order counters for a newly
// credited order.
func (r *AttributionRepository) AddOrderTotals(tx *gorm.DB, id uint, gmv, commission int64) error {
	return tx.Model(&models.Attribution{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"order_count":      gorm.Expr("order_count + 1"),
			"total_gmv":        gorm.Expr("total_gmv + ?", gmv),
			"total_commission": gorm.Expr("total_commission + ?", commission),
		}).Error
}

// DeactivateExpired flips every lapsed-but-active attribution, returning the
// number of rows swept. Run on a schedule so rows that are never read again
// do not stay active in storage indefinitely.
func (r *AttributionRepository) DeactivateExpired(now time.Time) (int64, error) {
	res := r.db.Model(&models.Attribution{}).
		Where("is_active = ? AND expires_at < ?", true, now).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
