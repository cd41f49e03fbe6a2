package service

import (
	"context"
	"encoding/json"
	"fmt"
	"medqcm_backend/internal/model"
	"medqcm_backend/internal/repository"
	"medqcm_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const moduleCacheTTL = 5 * time.Minute

// allowedLevels maps a user's level to the module levels they may see.
// Residents (RES) see everything.
var allowedLevels = map[model.UserLevel][]model.UserLevel{
	model.Level4A:  {model.Level4A},
	model.Level5A:  {model.Level5A},
	model.Level6A:  {model.Level6A},
	model.LevelRES: {model.Level4A, model.Level5A, model.Level6A, model.LevelRES},
}

// ContentService serves the read-only quiz catalog: modules filtered by
// academic level and questions with the answer key withheld.
type ContentService struct {
	Modules   *repository.ModuleRepository
	Questions *repository.QuestionRepository
	Redis     *redis.Client
}

func NewContentService(modules *repository.ModuleRepository, questions *repository.QuestionRepository, rdb *redis.Client) *ContentService {
	return &ContentService{Modules: modules, Questions: questions, Redis: rdb}
}

// QuestionResp is a question as served to quiz takers: choices in display
// order, no answer key.
type QuestionResp struct {
	ID       uint     `json:"id"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
}

func moduleCacheKey(level model.UserLevel) string {
	return fmt.Sprintf("modules:level:%s", level)
}

// ModulesForLevel lists the active modules the level allows, with question
// counts, cached per level.
func (s *ContentService) ModulesForLevel(level model.UserLevel) ([]repository.ModuleWithCount, error) {
	levels, ok := allowedLevels[level]
	if !ok {
		return []repository.ModuleWithCount{}, nil
	}

	ctx := context.Background()
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, moduleCacheKey(level)).Result(); err == nil {
			var rows []repository.ModuleWithCount
			if json.Unmarshal([]byte(cached), &rows) == nil {
				return rows, nil
			}
		}
	}

	rows, err := s.Modules.ListActiveForLevels(levels)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if payload, err := json.Marshal(rows); err == nil {
			if err := s.Redis.Set(ctx, moduleCacheKey(level), payload, moduleCacheTTL).Err(); err != nil {
				logger.Log.Warn("module cache write failed", zap.Error(err))
			}
		}
	}
	return rows, nil
}

// InvalidateModuleCache drops every level's cached catalog; called after
// admin writes.
func (s *ContentService) InvalidateModuleCache() {
	if s.Redis == nil {
		return
	}
	ctx := context.Background()
	keys := make([]string, 0, len(allowedLevels))
	for level := range allowedLevels {
		keys = append(keys, moduleCacheKey(level))
	}
	if err := s.Redis.Del(ctx, keys...).Err(); err != nil {
		logger.Log.Warn("module cache invalidation failed", zap.Error(err))
	}
}

// QuestionsForModule returns a page of quiz questions without answers.
func (s *ContentService) QuestionsForModule(moduleID uint, limit, offset int) ([]QuestionResp, error) {
	questions, err := s.Questions.ListByModule(moduleID, limit, offset)
	if err != nil {
		return nil, err
	}

	resp := make([]QuestionResp, 0, len(questions))
	for i := range questions {
		choices := make([]string, 0, len(questions[i].Choices))
		for _, c := range questions[i].Choices {
			choices = append(choices, c.Text)
		}
		resp = append(resp, QuestionResp{
			ID:       questions[i].ID,
			Question: questions[i].Question,
			Choices:  choices,
		})
	}
	return resp, nil
}
