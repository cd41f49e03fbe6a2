package repository

import (
	"medqcm_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// OverallProgress sums every counter pair the user owns.
type OverallProgress struct {
	TotalSolved int `json:"totalSolved"`
	CorrectSum  int `json:"correctSum"`
	WrongSum    int `json:"wrongSum"`
}

// ModuleProgressRow is one counter pair joined with its module name.
type ModuleProgressRow struct {
	ModuleID     uint   `json:"moduleId"`
	ModuleName   string `json:"moduleName"`
	CorrectCount int    `json:"correctCount"`
	WrongCount   int    `json:"wrongCount"`
}

// UpsertDelta folds one finished session into the (user, module) counter
// pair: insert on first finish, increment both counters afterwards. Must
// run inside the same transaction that completes the session.
func (r *ProgressRepository) UpsertDelta(tx *gorm.DB, userID, moduleID uint, correct, wrong int, at time.Time) error {
	db := tx
	if db == nil {
		db = r.DB
	}
	row := model.ModuleProgress{
		UserID:         userID,
		ModuleID:       moduleID,
		CorrectCount:   correct,
		WrongCount:     wrong,
		LastActivityAt: at,
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"correct_count":    gorm.Expr("user_progress.correct_count + excluded.correct_count"),
			"wrong_count":      gorm.Expr("user_progress.wrong_count + excluded.wrong_count"),
			"last_activity_at": at,
			"updated_at":       at,
		}),
	}).Create(&row).Error
}

func (r *ProgressRepository) Overall(userID uint) (*OverallProgress, error) {
	var row OverallProgress
	err := r.DB.Model(&model.ModuleProgress{}).
		Select(`COALESCE(SUM(correct_count + wrong_count), 0) as total_solved,
			COALESCE(SUM(correct_count), 0) as correct_sum,
			COALESCE(SUM(wrong_count), 0) as wrong_sum`).
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ProgressRepository) ByModule(userID uint) ([]ModuleProgressRow, error) {
	var rows []ModuleProgressRow
	err := r.DB.Model(&model.ModuleProgress{}).
		Select(`modules.id as module_id, modules.name as module_name,
			user_progress.correct_count, user_progress.wrong_count`).
		Joins("JOIN modules ON modules.id = user_progress.module_id").
		Where("user_progress.user_id = ?", userID).
		Order("modules.name ASC").
		Scan(&rows).Error
	return rows, err
}
