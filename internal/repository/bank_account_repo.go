package repository

import (
	"errors"

	"affiliate-service/internal/domain"
	"affiliate-service/internal/models"

	"gorm.io/gorm"
)

type BankAccountRepository struct {
	db *gorm.DB
}

func NewBankAccountRepository(db *gorm.DB) *BankAccountRepository {
	return &BankAccountRepository{db: db}
}

func (r *BankAccountRepository) Create(b *models.BankAccount) error {
	return r.db.Create(b).Error
}

func (r *BankAccountRepository) GetByID(id uint) (*models.BankAccount, error) {
	var b models.BankAccount
	if err := r.db.First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BankAccountRepository) List(activeOnly bool) ([]models.BankAccount, error) {
	q := r.db.Model(&models.BankAccount{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var list []models.BankAccount
	err := q.Order("is_default DESC, bank_name ASC").Find(&list).Error
	return list, err
}

func (r *BankAccountRepository) Update(id uint, fields map[string]interface{}) error {
	res := r.db.Model(&models.BankAccount{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BankAccountRepository) Delete(id uint) error {
	res := r.db.Delete(&models.BankAccount{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetDefault makes the account the single default within its country scope.
// Clear-then-set runs inside one transaction so two admins racing cannot
// leave two defaults behind.
func (r *BankAccountRepository) SetDefault(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var b models.BankAccount
		if err := tx.First(&b, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if err := tx.Model(&models.BankAccount{}).
			Where("country_code = ? AND id <> ?", b.CountryCode, id).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.BankAccount{}).Where("id = ?", id).
			Update("is_default", true).Error
	})
}
