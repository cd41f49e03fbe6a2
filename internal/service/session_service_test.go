package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"medqcm_backend/internal/model"
	"medqcm_backend/internal/repository"
	"medqcm_backend/internal/util"
	"medqcm_backend/pkg/database"
	"medqcm_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

// newTestDB opens a uniquely named shared in-memory database so every
// connection in gorm's pool sees the same data.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps concurrent test writers from tripping
	// sqlite's locking.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func newSessionService(db *gorm.DB) *SessionService {
	return NewSessionService(
		repository.NewSessionRepository(db),
		repository.NewQuestionRepository(db),
		repository.NewProgressRepository(db),
		db,
	)
}

func intPtr(i int) *int { return &i }

func createModule(t *testing.T, db *gorm.DB, name string, level model.UserLevel) *model.Module {
	t.Helper()
	m := &model.Module{Name: name, Slug: util.Slugify(name), Level: level, IsActive: true}
	require.NoError(t, db.Create(m).Error)
	return m
}

func createQuestion(t *testing.T, db *gorm.DB, moduleID uint, text string, answerIndex *int) *model.Question {
	t.Helper()
	q := &model.Question{
		ModuleID:    moduleID,
		Question:    text,
		AnswerIndex: answerIndex,
		Choices: []model.Choice{
			{Text: "Choice A", Position: 0, IsCorrect: answerIndex != nil && *answerIndex == 0},
			{Text: "Choice B", Position: 1, IsCorrect: answerIndex != nil && *answerIndex == 1},
			{Text: "Choice C", Position: 2, IsCorrect: answerIndex != nil && *answerIndex == 2},
		},
	}
	require.NoError(t, db.Create(q).Error)
	return q
}

func TestStartAndActive(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)

	session, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	assert.Equal(t, uint(1), session.UserID)
	assert.Nil(t, session.CompletedAt)
	assert.Equal(t, 0, session.Score)

	active, err := svc.Active(1)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, session.ID, active.ID)

	// Another user has no active session.
	active, err = svc.Active(2)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestAnswer_Feedback(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)
	q := createQuestion(t, db, module.ID, "Q1", intPtr(1))

	session, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)

	fb, err := svc.Answer(1, AnswerReq{SessionID: session.ID, QuestionID: q.ID, SelectedIndex: intPtr(1)})
	require.NoError(t, err)
	require.NotNil(t, fb.IsCorrect)
	assert.True(t, *fb.IsCorrect)
	require.NotNil(t, fb.CorrectIndex)
	assert.Equal(t, 1, *fb.CorrectIndex)
	require.NotNil(t, fb.CorrectText)
	assert.Equal(t, "Choice B", *fb.CorrectText)

	fb, err = svc.Answer(1, AnswerReq{SessionID: session.ID, QuestionID: q.ID, SelectedIndex: intPtr(0)})
	require.NoError(t, err)
	require.NotNil(t, fb.IsCorrect)
	assert.False(t, *fb.IsCorrect)
}

func TestAnswer_QuestionWithoutKey(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)
	q := createQuestion(t, db, module.ID, "Q1", nil)

	session, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)

	fb, err := svc.Answer(1, AnswerReq{SessionID: session.ID, QuestionID: q.ID, SelectedIndex: intPtr(2)})
	require.NoError(t, err)
	assert.Nil(t, fb.IsCorrect)
	assert.Nil(t, fb.CorrectIndex)
	assert.Nil(t, fb.CorrectText)

	var answers []model.SessionAnswer
	require.NoError(t, db.Where("session_id = ?", session.ID).Find(&answers).Error)
	require.Len(t, answers, 1)
	assert.Nil(t, answers[0].IsCorrect)
}

func TestAnswer_UnknownQuestion(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)

	session, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)

	_, err = svc.Answer(1, AnswerReq{SessionID: session.ID, QuestionID: 9999, SelectedIndex: intPtr(0)})
	assert.ErrorIs(t, err, util.ErrQuestionNotFound)

	// Nothing was appended to the answer log.
	var count int64
	require.NoError(t, db.Model(&model.SessionAnswer{}).Where("session_id = ?", session.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAnswer_OwnershipAndState(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)
	q := createQuestion(t, db, module.ID, "Q1", intPtr(0))

	session, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)

	_, err = svc.Answer(2, AnswerReq{SessionID: session.ID, QuestionID: q.ID, SelectedIndex: intPtr(0)})
	assert.ErrorIs(t, err, util.ErrNotSessionOwner)

	_, err = svc.Answer(1, AnswerReq{SessionID: "missing-session", QuestionID: q.ID, SelectedIndex: intPtr(0)})
	assert.ErrorIs(t, err, util.ErrSessionNotFound)

	_, err = svc.Finish(1, session.ID)
	require.NoError(t, err)

	_, err = svc.Answer(1, AnswerReq{SessionID: session.ID, QuestionID: q.ID, SelectedIndex: intPtr(0)})
	assert.ErrorIs(t, err, util.ErrSessionFinished)
}

func TestFinish_ScoresFromAnswerLog(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)
	q1 := createQuestion(t, db, module.ID, "Q1", intPtr(0))
	q2 := createQuestion(t, db, module.ID, "Q2", intPtr(1))
	q3 := createQuestion(t, db, module.ID, "Q3", intPtr(2))

	session, err := svc.Start(7, StartSessionReq{ModuleID: module.ID, Mode: "exam"})
	require.NoError(t, err)

	_, err = svc.Answer(7, AnswerReq{SessionID: session.ID, QuestionID: q1.ID, SelectedIndex: intPtr(0)})
	require.NoError(t, err)
	_, err = svc.Answer(7, AnswerReq{SessionID: session.ID, QuestionID: q2.ID, SelectedIndex: intPtr(1)})
	require.NoError(t, err)
	_, err = svc.Answer(7, AnswerReq{SessionID: session.ID, QuestionID: q3.ID, SelectedIndex: intPtr(0)})
	require.NoError(t, err)

	finished, err := svc.Finish(7, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, finished.Score)
	assert.Equal(t, 3, finished.Total)
	require.NotNil(t, finished.CompletedAt)

	var stored model.QuizSession
	require.NoError(t, db.First(&stored, "id = ?", session.ID).Error)
	assert.Equal(t, 2, stored.Score)
	assert.Equal(t, 3, stored.Total)
	require.NotNil(t, stored.CompletedAt)

	var progress model.ModuleProgress
	require.NoError(t, db.Where("user_id = ? AND module_id = ?", 7, module.ID).First(&progress).Error)
	assert.Equal(t, 2, progress.CorrectCount)
	assert.Equal(t, 1, progress.WrongCount)
	assert.Equal(t, 67, progress.SuccessRate())
}

func TestFinish_EmptySession(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)

	session, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)

	finished, err := svc.Finish(1, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, finished.Score)
	assert.Equal(t, 0, finished.Total)
	require.NotNil(t, finished.CompletedAt)
}

func TestFinish_Twice_Rejected(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)
	q := createQuestion(t, db, module.ID, "Q1", intPtr(0))

	session, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)
	_, err = svc.Answer(1, AnswerReq{SessionID: session.ID, QuestionID: q.ID, SelectedIndex: intPtr(0)})
	require.NoError(t, err)

	_, err = svc.Finish(1, session.ID)
	require.NoError(t, err)

	_, err = svc.Finish(1, session.ID)
	assert.ErrorIs(t, err, util.ErrSessionFinished)

	// The counters absorbed the session exactly once.
	var progress model.ModuleProgress
	require.NoError(t, db.Where("user_id = ? AND module_id = ?", 1, module.ID).First(&progress).Error)
	assert.Equal(t, 1, progress.CorrectCount)
	assert.Equal(t, 0, progress.WrongCount)
}

func TestFinish_NotOwnerAndMissing(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)

	session, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)

	_, err = svc.Finish(2, session.ID)
	assert.ErrorIs(t, err, util.ErrNotSessionOwner)

	_, err = svc.Finish(1, "missing-session")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestFinish_ProgressAccumulatesAcrossSessions(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)
	q1 := createQuestion(t, db, module.ID, "Q1", intPtr(0))
	q2 := createQuestion(t, db, module.ID, "Q2", intPtr(0))
	q3 := createQuestion(t, db, module.ID, "Q3", intPtr(0))

	// First session: 2 of 3.
	s1, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)
	for _, ans := range []struct {
		q        *model.Question
		selected int
	}{{q1, 0}, {q2, 0}, {q3, 1}} {
		_, err = svc.Answer(1, AnswerReq{SessionID: s1.ID, QuestionID: ans.q.ID, SelectedIndex: intPtr(ans.selected)})
		require.NoError(t, err)
	}
	_, err = svc.Finish(1, s1.ID)
	require.NoError(t, err)

	// Second session: 1 of 2.
	s2, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)
	_, err = svc.Answer(1, AnswerReq{SessionID: s2.ID, QuestionID: q1.ID, SelectedIndex: intPtr(0)})
	require.NoError(t, err)
	_, err = svc.Answer(1, AnswerReq{SessionID: s2.ID, QuestionID: q2.ID, SelectedIndex: intPtr(2)})
	require.NoError(t, err)
	_, err = svc.Finish(1, s2.ID)
	require.NoError(t, err)

	var progress model.ModuleProgress
	require.NoError(t, db.Where("user_id = ? AND module_id = ?", 1, module.ID).First(&progress).Error)
	assert.Equal(t, 3, progress.CorrectCount)
	assert.Equal(t, 2, progress.WrongCount)
	assert.Equal(t, 60, progress.SuccessRate())
}

func TestAnsweredQuestionIDs(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)
	q1 := createQuestion(t, db, module.ID, "Q1", intPtr(0))
	q2 := createQuestion(t, db, module.ID, "Q2", intPtr(0))

	session, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)

	_, err = svc.Answer(1, AnswerReq{SessionID: session.ID, QuestionID: q2.ID, SelectedIndex: intPtr(0)})
	require.NoError(t, err)
	_, err = svc.Answer(1, AnswerReq{SessionID: session.ID, QuestionID: q1.ID, SelectedIndex: intPtr(1)})
	require.NoError(t, err)
	// Duplicate submission for the same question stays a single id.
	_, err = svc.Answer(1, AnswerReq{SessionID: session.ID, QuestionID: q1.ID, SelectedIndex: intPtr(0)})
	require.NoError(t, err)

	ids, err := svc.AnsweredQuestionIDs(1, session.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{q1.ID, q2.ID}, ids)

	_, err = svc.AnsweredQuestionIDs(2, session.ID)
	assert.ErrorIs(t, err, util.ErrNotSessionOwner)

	_, err = svc.AnsweredQuestionIDs(1, "missing-session")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestListMine_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)

	old := &model.QuizSession{UserID: 1, ModuleID: module.ID, Mode: "practice", StartedAt: time.Now().Add(-2 * time.Hour)}
	require.NoError(t, db.Create(old).Error)
	recent := &model.QuizSession{UserID: 1, ModuleID: module.ID, Mode: "exam", StartedAt: time.Now().Add(-10 * time.Minute)}
	require.NoError(t, db.Create(recent).Error)
	other := &model.QuizSession{UserID: 2, ModuleID: module.ID, Mode: "practice", StartedAt: time.Now()}
	require.NoError(t, db.Create(other).Error)

	rows, err := svc.ListMine(1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, recent.ID, rows[0].ID)
	assert.Equal(t, old.ID, rows[1].ID)
	assert.Equal(t, "Cardiology", rows[0].ModuleName)
}

func TestAnswer_ConcurrentSubmissionsAllLogged(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)
	questions := make([]*model.Question, 8)
	for i := range questions {
		questions[i] = createQuestion(t, db, module.ID, fmt.Sprintf("Q%d", i), intPtr(0))
	}

	session, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, len(questions))
	for _, q := range questions {
		wg.Add(1)
		go func(qid uint) {
			defer wg.Done()
			_, err := svc.Answer(1, AnswerReq{SessionID: session.ID, QuestionID: qid, SelectedIndex: intPtr(0)})
			errs <- err
		}(q.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	finished, err := svc.Finish(1, session.ID)
	require.NoError(t, err)
	assert.Equal(t, len(questions), finished.Total)
	assert.Equal(t, len(questions), finished.Score)
}

func TestFinish_CountsUnknownCorrectnessInTotal(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)
	keyed := createQuestion(t, db, module.ID, "Q1", intPtr(0))
	wrong := createQuestion(t, db, module.ID, "Q2", intPtr(1))
	keyless := createQuestion(t, db, module.ID, "Q3", nil)

	session, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)

	_, err = svc.Answer(1, AnswerReq{SessionID: session.ID, QuestionID: keyed.ID, SelectedIndex: intPtr(0)})
	require.NoError(t, err)
	_, err = svc.Answer(1, AnswerReq{SessionID: session.ID, QuestionID: wrong.ID, SelectedIndex: intPtr(2)})
	require.NoError(t, err)
	_, err = svc.Answer(1, AnswerReq{SessionID: session.ID, QuestionID: keyless.ID, SelectedIndex: intPtr(1)})
	require.NoError(t, err)

	// The keyless answer counts toward total but never toward score.
	finished, err := svc.Finish(1, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, finished.Total)
	assert.Equal(t, 1, finished.Score)

	var progress model.ModuleProgress
	require.NoError(t, db.Where("user_id = ? AND module_id = ?", 1, module.ID).First(&progress).Error)
	assert.Equal(t, 1, progress.CorrectCount)
	assert.Equal(t, 2, progress.WrongCount)
}

func TestAppendAnswer_RejectedOnceFinished(t *testing.T) {
	db := newTestDB(t)
	svc := newSessionService(db)
	module := createModule(t, db, "Cardiology", model.Level4A)
	q := createQuestion(t, db, module.ID, "Q1", intPtr(0))

	session, err := svc.Start(1, StartSessionReq{ModuleID: module.ID, Mode: "practice"})
	require.NoError(t, err)

	correct := true
	appended, err := svc.Sessions.AppendAnswer(&model.SessionAnswer{
		SessionID:     session.ID,
		QuestionID:    q.ID,
		SelectedIndex: 0,
		IsCorrect:     &correct,
	})
	require.NoError(t, err)
	assert.True(t, appended)

	finished, err := svc.Finish(1, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, finished.Total)

	// The append revalidates the session inside its own transaction, so
	// a row racing a committed finish is rejected, not silently logged.
	appended, err = svc.Sessions.AppendAnswer(&model.SessionAnswer{
		SessionID:     session.ID,
		QuestionID:    q.ID,
		SelectedIndex: 0,
		IsCorrect:     &correct,
	})
	require.NoError(t, err)
	assert.False(t, appended)

	var count int64
	require.NoError(t, db.Model(&model.SessionAnswer{}).Where("session_id = ?", session.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
