package repository

import (
	"medqcm_backend/internal/model"

	"gorm.io/gorm"
)

type ModuleRepository struct {
	DB *gorm.DB
}

func NewModuleRepository(db *gorm.DB) *ModuleRepository {
	return &ModuleRepository{DB: db}
}

// ModuleWithCount is a module row joined with its question count, as the
// student catalog endpoint serves it.
type ModuleWithCount struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Level    model.UserLevel `json:"level"`
	QcmCount int             `json:"qcmCount"`
}

func (r *ModuleRepository) FindByID(id uint) (*model.Module, error) {
	var m model.Module
	if err := r.DB.First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// ListActiveForLevels returns active modules restricted to the given
// levels, each with its question count, ordered by name.
func (r *ModuleRepository) ListActiveForLevels(levels []model.UserLevel) ([]ModuleWithCount, error) {
	var rows []ModuleWithCount
	err := r.DB.Model(&model.Module{}).
		Select("modules.id, modules.name, modules.slug, modules.level, COUNT(qcm.id) as qcm_count").
		Joins("LEFT JOIN qcm ON qcm.module_id = modules.id AND qcm.deleted_at IS NULL").
		Where("modules.is_active = ? AND modules.level IN ?", true, levels).
		Group("modules.id, modules.name, modules.slug, modules.level").
		Order("modules.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *ModuleRepository) List(level model.UserLevel) ([]model.Module, error) {
	var modules []model.Module
	q := r.DB.Order("name ASC")
	if level != "" {
		q = q.Where("level = ?", level)
	}
	err := q.Find(&modules).Error
	return modules, err
}

// UpsertBySlug creates the module or, when the slug exists, refreshes its
// name and level and reactivates it.
func (r *ModuleRepository) UpsertBySlug(m *model.Module) error {
	var existing model.Module
	err := r.DB.Where("slug = ?", m.Slug).Limit(1).Find(&existing).Error
	if err != nil {
		return err
	}
	if existing.ID == 0 {
		return r.DB.Create(m).Error
	}
	existing.Name = m.Name
	existing.Level = m.Level
	existing.IsActive = true
	if err := r.DB.Save(&existing).Error; err != nil {
		return err
	}
	*m = existing
	return nil
}

func (r *ModuleRepository) Delete(id uint) (int64, error) {
	res := r.DB.Delete(&model.Module{}, id)
	return res.RowsAffected, res.Error
}
