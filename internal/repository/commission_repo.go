package repository

import (
	"errors"
	"time"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"

	"gorm.io/gorm"
)

type CommissionRepository struct {
	db *gorm.DB
}

func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

func (r *CommissionRepository) Create(tx *gorm.DB, e *models.CommissionEntry) error {
	return tx.Create(e).Error
}

func (r *CommissionRepository) GetByID(id uint) (*models.CommissionEntry, error) {
	var e models.CommissionEntry
	if err := r.db.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *CommissionRepository) GetByOrderID(orderID string) (*models.CommissionEntry, error) {
	var e models.CommissionEntry
	if err := r.db.Where("order_id = ?", orderID).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *CommissionRepository) ListByAffiliate(affiliateID uint, status string, limit, offset int) ([]models.CommissionEntry, int64, error) {
	q := r.db.Model(&models.CommissionEntry{}).Where("affiliate_id = ?", affiliateID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.CommissionEntry
	err := q.Order("ordered_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *CommissionRepository) ListAll(status string, limit, offset int) ([]models.CommissionEntry, int64, error) {
	q := r.db.Model(&models.CommissionEntry{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.CommissionEntry
	err := q.Order("ordered_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// TransitionToApproved flips a pending entry to approved. The WHERE guard on
// the current status makes the transition race-free; zero rows affected means
// the entry was not pending (caller decides between idempotent no-op and
// invalid transition).
func (r *CommissionRepository) TransitionToApproved(tx *gorm.DB, id, adminID uint, at time.Time) (int64, error) {
	res := tx.Model(&models.CommissionEntry{}).
		Where("id = ? AND status = ?", id, domain.CommissionPending).
		Updates(map[string]interface{}{
			"status":      domain.CommissionApproved,
			"approved_by": adminID,
			"approved_at": at,
		})
	return res.RowsAffected, res.Error
}

func (r *CommissionRepository) TransitionToRejected(tx *gorm.DB, id, adminID uint, reason string, at time.Time) (int64, error) {
	res := tx.Model(&models.CommissionEntry{}).
		Where("id = ? AND status = ?", id, domain.CommissionPending).
		Updates(map[string]interface{}{
			"status":        domain.CommissionRejected,
			"rejected_by":   adminID,
			"rejected_at":   at,
			"reject_reason": reason,
		})
	return res.RowsAffected, res.Error
}

// MarkPaidUpTo marks the affiliate's oldest approved entries as paid by the
// given payout, consuming entries oldest first while their amounts fit within
// the payout amount. An entry larger than the remaining coverage is skipped
// rather than flipped terminal by a partial payout; it stays approved for a
// later payout. Returns the entries marked.
func (r *CommissionRepository) MarkPaidUpTo(tx *gorm.DB, affiliateID uint, amount int64, payoutID uint, at time.Time) ([]models.CommissionEntry, error) {
	var entries []models.CommissionEntry
	err := tx.Where("affiliate_id = ? AND status = ?", affiliateID, domain.CommissionApproved).
		Order("approved_at ASC").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	var covered int64
	var marked []models.CommissionEntry
	for _, e := range entries {
		if covered >= amount {
			break
		}
		if covered+e.Amount > amount {
			continue
		}
		res := tx.Model(&models.CommissionEntry{}).
			Where("id = ? AND status = ?", e.ID, domain.CommissionApproved).
			Updates(map[string]interface{}{
				"status":    domain.CommissionPaid,
				"payout_id": payoutID,
				"paid_at":   at,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		covered += e.Amount
		e.Status = domain.CommissionPaid
		marked = append(marked, e)
	}
	return marked, nil
}

// CountByStatus returns per-status entry counts for the admin dashboard.
func (r *CommissionRepository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := r.db.Model(&models.CommissionEntry{}).
		Select("status, COUNT(*) AS n").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, rw := range rows {
		out[rw.Status] = rw.N
	}
	return out, nil
}
