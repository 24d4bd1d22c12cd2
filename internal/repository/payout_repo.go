package repository

import (
	"errors"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"

	"gorm.io/gorm"
)

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

func (r *PayoutRepository) Create(tx *gorm.DB, p *models.PayoutRequest) error {
	return tx.Create(p).Error
}

func (r *PayoutRepository) GetByID(id uint) (*models.PayoutRequest, error) {
	var p models.PayoutRequest
	if err := r.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PayoutRepository) ListByAffiliate(affiliateID uint, limit, offset int) ([]models.PayoutRequest, int64, error) {
	q := r.db.Model(&models.PayoutRequest{}).Where("affiliate_id = ?", affiliateID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.PayoutRequest
	err := q.Order("requested_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *PayoutRepository) ListAll(status string, limit, offset int) ([]models.PayoutRequest, int64, error) {
	q := r.db.Model(&models.PayoutRequest{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.PayoutRequest
	err := q.Order("requested_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// Transition moves a payout from one of the given statuses into next,
// applying the extra columns. Zero rows affected means the payout was not in
// an allowed source state.
func (r *PayoutRepository) Transition(tx *gorm.DB, id uint, from []string, next string, extra map[string]interface{}) (int64, error) {
	fields := map[string]interface{}{"status": next}
	for k, v := range extra {
		fields[k] = v
	}
	res := tx.Model(&models.PayoutRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	return res.RowsAffected, res.Error
}

// SumOpenByAffiliate totals the non-terminal payout amounts for an affiliate;
// used for dashboard display of held funds.
func (r *PayoutRepository) SumOpenByAffiliate(affiliateID uint) (int64, error) {
	var sum *int64
	err := r.db.Model(&models.PayoutRequest{}).
		Where("affiliate_id = ? AND status IN ?", affiliateID,
			[]string{domain.PayoutPending, domain.PayoutApproved, domain.PayoutProcessing}).
		Select("SUM(amount)").Scan(&sum).Error
	if err != nil || sum == nil {
		return 0, err
	}
	return *sum, nil
}

// CountByStatus returns per-status payout counts for the admin dashboard.
func (r *PayoutRepository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		N      int64
	}
	var rows []row
	err := r.db.Model(&models.PayoutRequest{}).
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
