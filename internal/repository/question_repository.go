package repository

import (
	"errors"
	"medqcm_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func orderedChoices(db *gorm.DB) *gorm.DB {
	return db.Order("qcm_choices.position ASC")
}

// FindByID loads a question with its choices in display order. Returns
// (nil, nil) when the question does not exist.
func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.Preload("Choices", orderedChoices).First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListByModule returns a page of questions with ordered choices, oldest
// first so quiz order is stable.
func (r *QuestionRepository) ListByModule(moduleID uint, limit, offset int) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Preload("Choices", orderedChoices).
		Where("module_id = ?", moduleID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

// CreateBatch inserts questions with their choices in one transaction, for
// CSV import.
func (r *QuestionRepository) CreateBatch(questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for i := range questions {
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Update replaces the question row and its full choice set atomically.
func (r *QuestionRepository) Update(q *model.Question, choices []model.Choice) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Question{}).Where("id = ?", q.ID).
			Updates(map[string]interface{}{
				"question":     q.Question,
				"explanation":  q.Explanation,
				"difficulty":   q.Difficulty,
				"answer_index": q.AnswerIndex,
			}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("question_id = ?", q.ID).Delete(&model.Choice{}).Error; err != nil {
			return err
		}
		for i := range choices {
			choices[i].ID = 0
			choices[i].QuestionID = q.ID
			if err := tx.Create(&choices[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *QuestionRepository) Delete(id uint) (int64, error) {
	res := r.DB.Delete(&model.Question{}, id)
	return res.RowsAffected, res.Error
}
