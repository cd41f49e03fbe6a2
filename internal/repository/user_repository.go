package repository

import (
	"errors"
	"medqcm_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var u model.User
	if err := r.DB.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var u model.User
	err := r.DB.Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ExistsByEmailOrUsername reports whether another user (excluding
// excludeID, 0 for none) already holds the email or username.
func (r *UserRepository) ExistsByEmailOrUsername(email, username string, excludeID uint) (bool, error) {
	var count int64
	q := r.DB.Model(&model.User{}).Where("email = ? OR username = ?", email, username)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) UpdateLastLogin(userID uint) error {
	now := time.Now()
	return r.DB.Model(&model.User{}).Where("id = ?", userID).
		Update("last_login_at", now).Error
}

// UpdateLastSeen feeds the activity middleware; piggybacks on the
// last_login_at column.
func (r *UserRepository) UpdateLastSeen(userID uint) error {
	return r.UpdateLastLogin(userID)
}

func (r *UserRepository) ListByLevel(level model.UserLevel) ([]model.User, error) {
	var users []model.User
	err := r.DB.Where("level = ?", level).Order("created_at DESC").Find(&users).Error
	return users, err
}

// CountsByLevel returns how many activated users exist per level.
func (r *UserRepository) CountsByLevel() (map[model.UserLevel]int64, error) {
	type row struct {
		Level model.UserLevel
		Count int64
	}
	var rows []row
	err := r.DB.Model(&model.User{}).
		Select("level, COUNT(*) as count").
		Where("level <> ''").
		Group("level").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.UserLevel]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Level] = rw.Count
	}
	return counts, nil
}

func (r *UserRepository) SetActive(userID uint, active bool) (*model.User, error) {
	var u model.User
	if err := r.DB.First(&u, userID).Error; err != nil {
		return nil, err
	}
	u.IsActive = active
	if err := r.DB.Save(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) PromoteByEmail(email string) (*model.User, error) {
	var u model.User
	if err := r.DB.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	u.IsAdmin = true
	if err := r.DB.Save(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
