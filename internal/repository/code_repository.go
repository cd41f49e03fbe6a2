package repository

import (
	"errors"
	"medqcm_backend/internal/model"

	"gorm.io/gorm"
)

type CodeRepository struct {
	DB *gorm.DB
}

func NewCodeRepository(db *gorm.DB) *CodeRepository {
	return &CodeRepository{DB: db}
}

func (r *CodeRepository) FindByCode(code string) (*model.SubscriptionCode, error) {
	var c model.SubscriptionCode
	err := r.DB.Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CodeRepository) Exists(code string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.SubscriptionCode{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *CodeRepository) Create(tx *gorm.DB, code *model.SubscriptionCode) error {
	db := tx
	if db == nil {
		db = r.DB
	}
	return db.Create(code).Error
}
