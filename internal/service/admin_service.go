package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math/rand"
	"medqcm_backend/internal/model"
	"medqcm_backend/internal/repository"
	"medqcm_backend/internal/util"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminService backs the admin surface: user management and the
// module/question catalog, including CSV bulk import.
type AdminService struct {
	Users     *repository.UserRepository
	Codes     *repository.CodeRepository
	Modules   *repository.ModuleRepository
	Questions *repository.QuestionRepository
	Sessions  *repository.SessionRepository
	Content   *ContentService
	DB        *gorm.DB
}

func NewAdminService(users *repository.UserRepository, codes *repository.CodeRepository, modules *repository.ModuleRepository, questions *repository.QuestionRepository, sessions *repository.SessionRepository, content *ContentService, db *gorm.DB) *AdminService {
	return &AdminService{
		Users:     users,
		Codes:     codes,
		Modules:   modules,
		Questions: questions,
		Sessions:  sessions,
		Content:   content,
		DB:        db,
	}
}

type CreateUserReq struct {
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Name      string          `json:"name"`
	Email     string          `json:"email" binding:"required,email"`
	Password  string          `json:"password" binding:"required,min=6"`
	Level     model.UserLevel `json:"level" binding:"required"`
	Code      string          `json:"code" binding:"required"`
}

type UserListResp struct {
	Users  []model.User              `json:"users"`
	Counts map[model.UserLevel]int64 `json:"counts"`
}

type UserDetailResp struct {
	User           *model.User                 `json:"user"`
	Stats          *repository.UserStats       `json:"stats"`
	RecentActivity []repository.SessionSummary `json:"recentActivity"`
}

func (s *AdminService) ListUsers(level model.UserLevel) (*UserListResp, error) {
	counts, err := s.Users.CountsByLevel()
	if err != nil {
		return nil, err
	}

	users := []model.User{}
	if level != "" {
		users, err = s.Users.ListByLevel(level)
		if err != nil {
			return nil, err
		}
	}
	return &UserListResp{Users: users, Counts: counts}, nil
}

// CreateUser provisions an activated account together with its dedicated
// subscription code, atomically: no account without a bound code.
func (s *AdminService) CreateUser(req CreateUserReq) (*model.User, error) {
	if !model.ValidLevel(req.Level) {
		return nil, util.ErrInvalidLevel
	}

	firstName, lastName := req.FirstName, req.LastName
	if firstName == "" && lastName == "" && req.Name != "" {
		parts := strings.Fields(req.Name)
		firstName = parts[0]
		if len(parts) > 1 {
			lastName = strings.Join(parts[1:], " ")
		}
	}

	username := usernameFromEmail(req.Email)

	taken, err := s.Users.ExistsByEmailOrUsername(req.Email, username, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrDuplicateUser
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.Codes.Exists(code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrCodeTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:  username,
		Email:     req.Email,
		Password:  string(hash),
		FirstName: firstName,
		LastName:  lastName,
		Level:     req.Level,
		IsActive:  true,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		now := time.Now()
		return s.Codes.Create(tx, &model.SubscriptionCode{
			Code:   code,
			Level:  req.Level,
			UsedBy: &user.ID,
			UsedAt: &now,
		})
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AdminService) SetUserActive(userID uint, active bool) (*model.User, error) {
	user, err := s.Users.SetActive(userID, active)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

func (s *AdminService) PromoteUser(email string) (*model.User, error) {
	user, err := s.Users.PromoteByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

func (s *AdminService) UserDetail(userID uint) (*UserDetailResp, error) {
	user, err := s.Users.FindByID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	stats, err := s.Sessions.StatsByUser(userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.Sessions.ListByUser(userID, 10)
	if err != nil {
		return nil, err
	}
	return &UserDetailResp{User: user, Stats: stats, RecentActivity: recent}, nil
}

type ModuleReq struct {
	Name  string          `json:"name" binding:"required"`
	Level model.UserLevel `json:"level" binding:"required"`
}

func (s *AdminService) UpsertModule(req ModuleReq) (*model.Module, error) {
	if !model.ValidLevel(req.Level) {
		return nil, util.ErrInvalidLevel
	}
	m := &model.Module{
		Name:     req.Name,
		Slug:     util.Slugify(req.Name),
		Level:    req.Level,
		IsActive: true,
	}
	if err := s.Modules.UpsertBySlug(m); err != nil {
		return nil, err
	}
	s.Content.InvalidateModuleCache()
	return m, nil
}

func (s *AdminService) ListModules(level model.UserLevel) ([]model.Module, error) {
	return s.Modules.List(level)
}

func (s *AdminService) DeleteModule(id uint) (int64, error) {
	deleted, err := s.Modules.Delete(id)
	if err == nil {
		s.Content.InvalidateModuleCache()
	}
	return deleted, err
}

type QuestionReq struct {
	ModuleID    uint     `json:"moduleId" binding:"required"`
	Question    string   `json:"question" binding:"required"`
	Choices     []string `json:"choices" binding:"required,min=2"`
	AnswerIndex *int     `json:"answerIndex" binding:"required"`
	Explanation string   `json:"explanation"`
	Difficulty  string   `json:"difficulty"`
}

func buildChoices(texts []string, answerIndex int) []model.Choice {
	choices := make([]model.Choice, 0, len(texts))
	for i, text := range texts {
		choices = append(choices, model.Choice{
			Text:      text,
			Position:  i,
			IsCorrect: i == answerIndex,
		})
	}
	return choices
}

func (s *AdminService) CreateQuestion(req QuestionReq) (*model.Question, error) {
	if *req.AnswerIndex < 0 || *req.AnswerIndex >= len(req.Choices) {
		return nil, util.ErrBadAnswerIndex
	}
	q := &model.Question{
		ModuleID:    req.ModuleID,
		Question:    req.Question,
		Explanation: req.Explanation,
		Difficulty:  req.Difficulty,
		AnswerIndex: req.AnswerIndex,
		Choices:     buildChoices(req.Choices, *req.AnswerIndex),
	}
	if err := s.Questions.Create(q); err != nil {
		return nil, err
	}
	s.Content.InvalidateModuleCache()
	return q, nil
}

func (s *AdminService) ListQuestions(moduleID uint, limit, offset int) ([]model.Question, error) {
	return s.Questions.ListByModule(moduleID, limit, offset)
}

type UpdateQuestionReq struct {
	Question    string   `json:"question" binding:"required"`
	Choices     []string `json:"choices" binding:"required,min=2"`
	AnswerIndex *int     `json:"answerIndex" binding:"required"`
	Explanation string   `json:"explanation"`
	Difficulty  string   `json:"difficulty"`
}

func (s *AdminService) UpdateQuestion(id uint, req UpdateQuestionReq) error {
	if *req.AnswerIndex < 0 || *req.AnswerIndex >= len(req.Choices) {
		return util.ErrBadAnswerIndex
	}
	existing, err := s.Questions.FindByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return util.ErrQuestionNotFound
	}
	existing.Question = req.Question
	existing.Explanation = req.Explanation
	existing.Difficulty = req.Difficulty
	existing.AnswerIndex = req.AnswerIndex
	return s.Questions.Update(existing, buildChoices(req.Choices, *req.AnswerIndex))
}

func (s *AdminService) DeleteQuestion(id uint) (int64, error) {
	deleted, err := s.Questions.Delete(id)
	if err == nil && deleted > 0 {
		s.Content.InvalidateModuleCache()
	}
	return deleted, err
}

type ImportReq struct {
	ModuleID uint   `json:"moduleId" binding:"required"`
	CSV      string `json:"csv" binding:"required"`
}

// ImportQuestions parses CSV rows of the form
// question,choice1,choice2,choice3,choice4,answerIndex(1-based)[,difficulty[,explanation]]
// and inserts them in one transaction. Rows with fewer than six columns
// are skipped, matching the historical import format.
func (s *AdminService) ImportQuestions(req ImportReq) (int, error) {
	reader := csv.NewReader(strings.NewReader(req.CSV))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("parse csv: %w", err)
	}

	questions := make([]model.Question, 0, len(records))
	for _, record := range records {
		if len(record) < 6 {
			continue
		}

		texts := make([]string, 0, 4)
		for _, col := range record[1:5] {
			if col = strings.TrimSpace(col); col != "" {
				texts = append(texts, col)
			}
		}
		if len(texts) < 2 {
			continue
		}

		// The import format is 1-based; clamp bad values to the first choice.
		oneBased, _ := strconv.Atoi(strings.TrimSpace(record[5]))
		answerIndex := oneBased - 1
		if answerIndex < 0 || answerIndex >= len(texts) {
			answerIndex = 0
		}

		q := model.Question{
			ModuleID:    req.ModuleID,
			Question:    strings.TrimSpace(record[0]),
			AnswerIndex: &answerIndex,
			Choices:     buildChoices(texts, answerIndex),
		}
		if len(record) > 6 {
			q.Difficulty = strings.TrimSpace(record[6])
		}
		if len(record) > 7 {
			q.Explanation = strings.TrimSpace(record[7])
		}
		questions = append(questions, q)
	}

	if err := s.Questions.CreateBatch(questions); err != nil {
		return 0, err
	}
	s.Content.InvalidateModuleCache()
	return len(questions), nil
}

func usernameFromEmail(email string) string {
	local := strings.ToLower(strings.SplitN(email, "@", 2)[0])
	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	username := strings.Trim(b.String(), "_")
	if username == "" {
		username = fmt.Sprintf("user_%06d", rand.Intn(1000000))
	}
	return username
}
