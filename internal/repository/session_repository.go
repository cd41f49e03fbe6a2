package repository

import (
	"errors"
	"medqcm_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

// SessionSummary is a session row joined with its module name, as the
// history endpoint serves it.
type SessionSummary struct {
	ID          string     `json:"id"`
	Mode        string     `json:"mode"`
	Score       int        `json:"score"`
	Total       int        `json:"total"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	ModuleID    uint       `json:"moduleId"`
	ModuleName  string     `json:"moduleName"`
}

func (r *SessionRepository) Create(s *model.QuizSession) error {
	return r.DB.Create(s).Error
}

// FindByID returns (nil, nil) when the session does not exist.
func (r *SessionRepository) FindByID(id string) (*model.QuizSession, error) {
	var s model.QuizSession
	err := r.DB.Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Active returns the most recently started unfinished session for the
// user, or nil when every session is finished.
func (r *SessionRepository) Active(userID uint) (*model.QuizSession, error) {
	var s model.QuizSession
	err := r.DB.Where("user_id = ? AND completed_at IS NULL", userID).
		Order("started_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByUser returns the user's recent sessions, newest first by
// completion time falling back to start time.
func (r *SessionRepository) ListByUser(userID uint, limit int) ([]SessionSummary, error) {
	var rows []SessionSummary
	err := r.DB.Model(&model.QuizSession{}).
		Select(`quiz_sessions.id, quiz_sessions.mode, quiz_sessions.score, quiz_sessions.total,
			quiz_sessions.started_at, quiz_sessions.completed_at,
			quiz_sessions.module_id, modules.name as module_name`).
		Joins("LEFT JOIN modules ON modules.id = quiz_sessions.module_id").
		Where("quiz_sessions.user_id = ?", userID).
		Order("COALESCE(quiz_sessions.completed_at, quiz_sessions.started_at) DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// UserStats summarizes a user's attempt history for the admin surface.
type UserStats struct {
	TotalSessions     int     `json:"totalSessions"`
	CompletedSessions int     `json:"completedSessions"`
	AverageScore      float64 `json:"averageScore"`
}

func (r *SessionRepository) StatsByUser(userID uint) (*UserStats, error) {
	var stats UserStats
	err := r.DB.Model(&model.QuizSession{}).
		Select(`COUNT(*) as total_sessions,
			COUNT(completed_at) as completed_sessions,
			COALESCE(AVG(CASE WHEN completed_at IS NOT NULL AND total > 0
				THEN score * 100.0 / total END), 0) as average_score`).
		Where("user_id = ?", userID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// AppendAnswer logs one answer after revalidating inside the same
// transaction that the session is still open. The conditional touch takes
// the session row lock, so a concurrent finish either waits and counts
// this row or commits first, in which case the append reports false and
// nothing is logged. Answer rows themselves are never updated or deleted;
// a retried or duplicate submission simply adds another row.
func (r *SessionRepository) AppendAnswer(a *model.SessionAnswer) (bool, error) {
	appended := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.QuizSession{}).
			Where("id = ? AND completed_at IS NULL", a.SessionID).
			UpdateColumn("updated_at", time.Now())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Create(a).Error; err != nil {
			return err
		}
		appended = true
		return nil
	})
	return appended, err
}

// AnsweredQuestionIDs lists the distinct questions already answered in a
// session, so clients can skip them on resume.
func (r *SessionRepository) AnsweredQuestionIDs(sessionID string) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.SessionAnswer{}).
		Distinct("question_id").
		Where("session_id = ?", sessionID).
		Order("question_id ASC").
		Pluck("question_id", &ids).Error
	return ids, err
}

// AggregateAnswers recomputes a session's score from the full answer log:
// total is every logged row, correct only those with is_correct true
// (false and unknown both count as not correct). One statement, so both
// counts come from the same snapshot of the log.
func (r *SessionRepository) AggregateAnswers(tx *gorm.DB, sessionID string) (total int, correct int, err error) {
	db := tx
	if db == nil {
		db = r.DB
	}
	var row struct {
		Total   int64
		Correct int64
	}
	err = db.Model(&model.SessionAnswer{}).
		Select(`COUNT(*) as total,
			COALESCE(SUM(CASE WHEN is_correct THEN 1 ELSE 0 END), 0) as correct`).
		Where("session_id = ?", sessionID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return int(row.Total), int(row.Correct), nil
}

// Claim stamps completed_at if and only if the session is still open.
// The conditional update is the double-finish guard: a concurrent or
// repeated finish sees zero rows affected. It also takes the session row
// lock for the rest of the transaction, so pending answer appends wait
// and then see the session closed.
func (r *SessionRepository) Claim(tx *gorm.DB, sessionID string, at time.Time) (bool, error) {
	db := tx
	if db == nil {
		db = r.DB
	}
	res := db.Model(&model.QuizSession{}).
		Where("id = ? AND completed_at IS NULL", sessionID).
		Update("completed_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetScore writes the aggregated counters on a claimed session.
func (r *SessionRepository) SetScore(tx *gorm.DB, sessionID string, score, total int) error {
	db := tx
	if db == nil {
		db = r.DB
	}
	return db.Model(&model.QuizSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"score": score,
			"total": total,
		}).Error
}
