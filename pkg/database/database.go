package database

import (
	"fmt"
	"log"
	"medqcm_backend/internal/config"
	"medqcm_backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.SubscriptionCode{},
		&model.Module{},
		&model.Question{},
		&model.Choice{},
		&model.QuizSession{},
		&model.SessionAnswer{},
		&model.ModuleProgress{},
	)
}

// Seed inserts a starter catalog so a fresh deployment has something to
// quiz against. Modules are upserted by slug; questions are only added to
// modules that have none yet.
func Seed(db *gorm.DB) error {
	modules := []model.Module{
		{Name: "Cardiology", Slug: "cardiology", Level: model.Level4A, IsActive: true},
		{Name: "Neurology", Slug: "neurology", Level: model.Level4A, IsActive: true},
		{Name: "Orthopedics", Slug: "orthopedics", Level: model.Level5A, IsActive: true},
		{Name: "Dermatology", Slug: "dermatology", Level: model.Level6A, IsActive: true},
	}
	byRef := func(i int) *int { return &i }

	for i := range modules {
		var existing model.Module
		err := db.Where("slug = ?", modules[i].Slug).Limit(1).Find(&existing).Error
		if err != nil {
			return err
		}
		if existing.ID != 0 {
			modules[i] = existing
			continue
		}
		if err := db.Create(&modules[i]).Error; err != nil {
			return err
		}
	}

	seed := map[string][]model.Question{
		"cardiology": {
			{
				Question:    "Which medication reduces mortality in HFrEF?",
				Explanation: "ACE inhibitors reduce afterload and improve survival.",
				Difficulty:  "Easy",
				AnswerIndex: byRef(0),
				Choices: []model.Choice{
					{Text: "ACE inhibitors", Position: 0, IsCorrect: true},
					{Text: "Short-acting nitrates", Position: 1},
					{Text: "Digoxin", Position: 2},
					{Text: "Loop diuretics", Position: 3},
				},
			},
			{
				Question:    "STEMI management: next step after aspirin?",
				Explanation: "Dual antiplatelet therapy is recommended.",
				Difficulty:  "Medium",
				AnswerIndex: byRef(2),
				Choices: []model.Choice{
					{Text: "Warfarin", Position: 0},
					{Text: "Amiodarone", Position: 1},
					{Text: "P2Y12 inhibitor (e.g., clopidogrel)", Position: 2, IsCorrect: true},
					{Text: "Atropine", Position: 3},
				},
			},
		},
		"neurology": {
			{
				Question:    "First-line therapy for status epilepticus?",
				Explanation: "Benzodiazepines are first-line.",
				Difficulty:  "Easy",
				AnswerIndex: byRef(1),
				Choices: []model.Choice{
					{Text: "Phenytoin", Position: 0},
					{Text: "Lorazepam", Position: 1, IsCorrect: true},
					{Text: "Levetiracetam", Position: 2},
					{Text: "Valproate", Position: 3},
				},
			},
		},
		"orthopedics": {
			{
				Question:    "Best initial imaging for suspected fracture?",
				Explanation: "Plain radiograph is typically first.",
				Difficulty:  "Easy",
				AnswerIndex: byRef(0),
				Choices: []model.Choice{
					{Text: "X-ray", Position: 0, IsCorrect: true},
					{Text: "MRI", Position: 1},
					{Text: "CT with contrast", Position: 2},
					{Text: "Ultrasound", Position: 3},
				},
			},
		},
	}

	for i := range modules {
		questions, ok := seed[modules[i].Slug]
		if !ok {
			continue
		}
		var count int64
		if err := db.Model(&model.Question{}).Where("module_id = ?", modules[i].ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		for j := range questions {
			questions[j].ModuleID = modules[i].ID
			if err := db.Create(&questions[j]).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
