package repository

import (
	"errors"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"

	"gorm.io/gorm"
)

// AffiliateRepository owns the affiliate aggregate. Every balance mutation is
// a single guarded UPDATE with column arithmetic so that concurrent writers
// cannot clobber each other's deltas; methods taking a tx compose into the
// caller's transaction.
type AffiliateRepository struct {
	db *gorm.DB
}

func NewAffiliateRepository(db *gorm.DB) *AffiliateRepository {
	return &AffiliateRepository{db: db}
}

func (r *AffiliateRepository) Create(a *models.Affiliate) error {
	return r.db.Create(a).Error
}

func (r *AffiliateRepository) GetByID(id uint) (*models.Affiliate, error) {
	var a models.Affiliate
	if err := r.db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AffiliateRepository) GetByUserID(userID uint) (*models.Affiliate, error) {
	var a models.Affiliate
	if err := r.db.Where("user_id = ?", userID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetByCode resolves a referral code to its owning affiliate.
func (r *AffiliateRepository) GetByCode(code string) (*models.Affiliate, error) {
	var a models.Affiliate
	if err := r.db.Where("referral_code = ?", code).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidReferralCode
		}
		return nil, err
	}
	return &a, nil
}

func (r *AffiliateRepository) List(search string, activeOnly bool, limit, offset int) ([]models.Affiliate, int64, error) {
	q := r.db.Model(&models.Affiliate{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("display_name LIKE ? OR email LIKE ? OR referral_code LIKE ?", like, like, like)
	}
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Affiliate
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *AffiliateRepository) UpdateBankInfo(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Affiliate{}).Where("id = ?", id).Updates(fields).Error
}

func (r *AffiliateRepository) SetActive(id uint, active bool) error {
	res := r.db.Model(&models.Affiliate{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// IncrementClicks bumps the lifetime click counter.
func (r *AffiliateRepository) IncrementClicks(tx *gorm.DB, id uint) error {
	return tx.Model(&models.Affiliate{}).Where("id = ?", id).
		UpdateColumn("total_clicks", gorm.Expr("total_clicks + 1")).Error
}

// IncrementReferrals bumps the lifetime referred-signup counter.
func (r *AffiliateRepository) IncrementReferrals(tx *gorm.DB, id uint) error {
	return tx.Model(&models.Affiliate{}).Where("id = ?", id).
		UpdateColumn("total_referrals", gorm.Expr("total_referrals + 1")).Error
}

// AddPendingCommission credits a freshly recorded order: one more order,
// its GMV, and the commission amount into both total and pending buckets.
func (r *AffiliateRepository) AddPendingCommission(tx *gorm.DB, id uint, amount, gmv int64) error {
	return tx.Model(&models.Affiliate{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"total_orders":       gorm.Expr("total_orders + 1"),
			"total_gmv":          gorm.Expr("total_gmv + ?", gmv),
			"total_commission":   gorm.Expr("total_commission + ?", amount),
			"pending_commission": gorm.Expr("pending_commission + ?", amount),
		}).Error
}

// ShiftPendingToApproved moves an approved commission amount between buckets;
// total commission is unchanged.
func (r *AffiliateRepository) ShiftPendingToApproved(tx *gorm.DB, id uint, amount int64) error {
	return tx.Model(&models.Affiliate{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"pending_commission":  gorm.Expr("pending_commission - ?", amount),
			"approved_commission": gorm.Expr("approved_commission + ?", amount),
		}).Error
}

// RemoveRejectedCommission backs a rejected entry out of the ledger. A
// rejected commission is treated as if it never existed for lifetime-total
// purposes, so it leaves both the pending and the total bucket.
func (r *AffiliateRepository) RemoveRejectedCommission(tx *gorm.DB, id uint, amount int64) error {
	return tx.Model(&models.Affiliate{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"pending_commission": gorm.Expr("pending_commission - ?", amount),
			"total_commission":   gorm.Expr("total_commission - ?", amount),
		}).Error
}

// Reserve holds amount against the approved balance for an open payout
// request. The guard makes concurrent over-requests race-free: the UPDATE
// only applies while approved - reserved still covers the amount, so of two
// racing requests whose sum exceeds the balance at most one wins.
func (r *AffiliateRepository) Reserve(tx *gorm.DB, id uint, amount int64) error {
	res := tx.Model(&models.Affiliate{}).
		Where("id = ? AND approved_commission - reserved_commission >= ?", id, amount).
		UpdateColumn("reserved_commission", gorm.Expr("reserved_commission + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// ReleaseReservation returns a reserved amount to the withdrawable balance
// (payout rejected before completion).
func (r *AffiliateRepository) ReleaseReservation(tx *gorm.DB, id uint, amount int64) error {
	return tx.Model(&models.Affiliate{}).Where("id = ?", id).
		UpdateColumn("reserved_commission",
			gorm.Expr("CASE WHEN reserved_commission >= ? THEN reserved_commission - ? ELSE 0 END", amount, amount)).Error
}

// SettlePayout finalizes a completed payout: the amount leaves the approved
// (and reserved) buckets and lands in paid. Floored at zero per the ledger
// rules.
func (r *AffiliateRepository) SettlePayout(tx *gorm.DB, id uint, amount int64) error {
	return tx.Model(&models.Affiliate{}).Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"approved_commission": gorm.Expr("CASE WHEN approved_commission >= ? THEN approved_commission - ? ELSE 0 END", amount, amount),
			"reserved_commission": gorm.Expr("CASE WHEN reserved_commission >= ? THEN reserved_commission - ? ELSE 0 END", amount, amount),
			"paid_commission":     gorm.Expr("paid_commission + ?", amount),
		}).Error
}
