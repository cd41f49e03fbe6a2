package service

import (
	"testing"

	"medqcm_backend/internal/model"
	"medqcm_backend/internal/repository"
	"medqcm_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAdminService(db *gorm.DB) *AdminService {
	return NewAdminService(
		repository.NewUserRepository(db),
		repository.NewCodeRepository(db),
		repository.NewModuleRepository(db),
		repository.NewQuestionRepository(db),
		repository.NewSessionRepository(db),
		newContentService(db),
		db,
	)
}

func TestCreateUser_BindsCodeAtomically(t *testing.T) {
	db := newTestDB(t)
	svc := newAdminService(db)

	user, err := svc.CreateUser(CreateUserReq{
		Name:     "Marie Curie",
		Email:    "marie.curie@example.com",
		Password: "secret1",
		Level:    model.Level4A,
		Code:     "med-2024-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "Marie", user.FirstName)
	assert.Equal(t, "Curie", user.LastName)
	assert.Equal(t, "marie_curie", user.Username)
	assert.True(t, user.IsActive)
	assert.Equal(t, model.Level4A, user.Level)

	var code model.SubscriptionCode
	require.NoError(t, db.Where("code = ?", "MED-2024-001").First(&code).Error)
	require.NotNil(t, code.UsedBy)
	assert.Equal(t, user.ID, *code.UsedBy)
	assert.Equal(t, model.Level4A, code.Level)
}

func TestCreateUser_DuplicateAndTakenCode(t *testing.T) {
	db := newTestDB(t)
	svc := newAdminService(db)

	req := CreateUserReq{
		FirstName: "Marie",
		Email:     "marie@example.com",
		Password:  "secret1",
		Level:     model.Level4A,
		Code:      "MED-001",
	}
	_, err := svc.CreateUser(req)
	require.NoError(t, err)

	_, err = svc.CreateUser(req)
	assert.ErrorIs(t, err, util.ErrDuplicateUser)

	req.Email = "marie2@example.com"
	_, err = svc.CreateUser(req)
	assert.ErrorIs(t, err, util.ErrCodeTaken)
}

func TestCreateUser_InvalidLevel(t *testing.T) {
	db := newTestDB(t)
	svc := newAdminService(db)

	_, err := svc.CreateUser(CreateUserReq{
		Email:    "x@example.com",
		Password: "secret1",
		Level:    "9Z",
		Code:     "MED-001",
	})
	assert.ErrorIs(t, err, util.ErrInvalidLevel)
}

func TestUpsertModule(t *testing.T) {
	db := newTestDB(t)
	svc := newAdminService(db)

	m, err := svc.UpsertModule(ModuleReq{Name: "Internal Medicine", Level: model.Level5A})
	require.NoError(t, err)
	assert.Equal(t, "internal-medicine", m.Slug)

	// Same name updates in place instead of duplicating.
	m2, err := svc.UpsertModule(ModuleReq{Name: "Internal Medicine", Level: model.Level6A})
	require.NoError(t, err)
	assert.Equal(t, m.ID, m2.ID)
	assert.Equal(t, model.Level6A, m2.Level)

	var count int64
	require.NoError(t, db.Model(&model.Module{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateQuestion_ValidatesAnswerIndex(t *testing.T) {
	db := newTestDB(t)
	svc := newAdminService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)

	_, err := svc.CreateQuestion(QuestionReq{
		ModuleID:    module.ID,
		Question:    "Q1",
		Choices:     []string{"A", "B"},
		AnswerIndex: intPtr(5),
	})
	assert.ErrorIs(t, err, util.ErrBadAnswerIndex)

	q, err := svc.CreateQuestion(QuestionReq{
		ModuleID:    module.ID,
		Question:    "Q1",
		Choices:     []string{"A", "B", "C"},
		AnswerIndex: intPtr(1),
	})
	require.NoError(t, err)
	require.Len(t, q.Choices, 3)
	assert.False(t, q.Choices[0].IsCorrect)
	assert.True(t, q.Choices[1].IsCorrect)
	assert.Equal(t, 1, q.Choices[1].Position)
}

func TestUpdateQuestion_ReplacesChoices(t *testing.T) {
	db := newTestDB(t)
	svc := newAdminService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)
	q := createQuestion(t, db, module.ID, "Q1", intPtr(0))

	err := svc.UpdateQuestion(q.ID, UpdateQuestionReq{
		Question:    "Q1 revised",
		Choices:     []string{"New A", "New B"},
		AnswerIndex: intPtr(1),
	})
	require.NoError(t, err)

	updated, err := svc.Questions.FindByID(q.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q1 revised", updated.Question)
	require.Len(t, updated.Choices, 2)
	assert.Equal(t, "New A", updated.Choices[0].Text)
	assert.True(t, updated.Choices[1].IsCorrect)

	err = svc.UpdateQuestion(9999, UpdateQuestionReq{
		Question:    "X",
		Choices:     []string{"A", "B"},
		AnswerIndex: intPtr(0),
	})
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)
}

func TestImportQuestions_CSV(t *testing.T) {
	db := newTestDB(t)
	svc := newAdminService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)

	csv := `Which valve separates the left atrium and ventricle?,Mitral,Tricuspid,Aortic,Pulmonary,1,Easy,The mitral valve sits between them.
First-line for stable angina?,Beta blockers,Opioids,Steroids,Antibiotics,1
short row,only one choice
Out of range answer?,A,B,C,D,9`

	n, err := svc.ImportQuestions(ImportReq{ModuleID: module.ID, CSV: csv})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	questions, err := svc.Questions.ListByModule(module.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, questions, 3)

	first := questions[0]
	assert.Equal(t, "Which valve separates the left atrium and ventricle?", first.Question)
	assert.Equal(t, "Easy", first.Difficulty)
	assert.Equal(t, "The mitral valve sits between them.", first.Explanation)
	require.NotNil(t, first.AnswerIndex)
	assert.Equal(t, 0, *first.AnswerIndex)
	require.Len(t, first.Choices, 4)
	assert.True(t, first.Choices[0].IsCorrect)

	// Bad 1-based answer values fall back to the first choice.
	last := questions[2]
	require.NotNil(t, last.AnswerIndex)
	assert.Equal(t, 0, *last.AnswerIndex)
}

func TestImportQuestions_BadCSV(t *testing.T) {
	db := newTestDB(t)
	svc := newAdminService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)

	_, err := svc.ImportQuestions(ImportReq{ModuleID: module.ID, CSV: `"unterminated`})
	assert.Error(t, err)
}

func TestSetUserActiveAndPromote(t *testing.T) {
	db := newTestDB(t)
	svc := newAdminService(db)

	user, err := svc.CreateUser(CreateUserReq{
		FirstName: "Marie",
		Email:     "marie@example.com",
		Password:  "secret1",
		Level:     model.Level4A,
		Code:      "MED-001",
	})
	require.NoError(t, err)

	disabled, err := svc.SetUserActive(user.ID, false)
	require.NoError(t, err)
	assert.False(t, disabled.IsActive)

	promoted, err := svc.PromoteUser("marie@example.com")
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)

	_, err = svc.PromoteUser("nobody@example.com")
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestUserDetail_Stats(t *testing.T) {
	db := newTestDB(t)
	svc := newAdminService(db)
	sessions := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)
	q1 := createQuestion(t, db, module.ID, "Q1", intPtr(0))
	q2 := createQuestion(t, db, module.ID, "Q2", intPtr(0))

	user, err := svc.CreateUser(CreateUserReq{
		FirstName: "Marie",
		Email:     "marie@example.com",
		Password:  "secret1",
		Level:     model.Level4A,
		Code:      "MED-001",
	})
	require.NoError(t, err)

	s, err := sessions.Start(user.ID, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)
	_, err = sessions.Answer(user.ID, AnswerReq{SessionID: s.ID, QuestionID: q1.ID, SelectedIndex: intPtr(0)})
	require.NoError(t, err)
	_, err = sessions.Answer(user.ID, AnswerReq{SessionID: s.ID, QuestionID: q2.ID, SelectedIndex: intPtr(1)})
	require.NoError(t, err)
	_, err = sessions.Finish(user.ID, s.ID)
	require.NoError(t, err)

	// One still-open session on top.
	_, err = sessions.Start(user.ID, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)

	detail, err := svc.UserDetail(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.Stats.TotalSessions)
	assert.Equal(t, 1, detail.Stats.CompletedSessions)
	assert.InDelta(t, 50.0, detail.Stats.AverageScore, 0.01)
	assert.Len(t, detail.RecentActivity, 2)
}
