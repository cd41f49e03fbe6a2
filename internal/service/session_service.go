package service

import (
	"medqcm_backend/internal/model"
	"medqcm_backend/internal/repository"
	"medqcm_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// SessionService runs the quiz attempt lifecycle: start, per-answer
// scoring against the answer key, and the transactional finish that
// aggregates the answer log and folds it into the progress counters.
type SessionService struct {
	Sessions  *repository.SessionRepository
	Questions *repository.QuestionRepository
	Progress  *repository.ProgressRepository
	DB        *gorm.DB
}

func NewSessionService(sessions *repository.SessionRepository, questions *repository.QuestionRepository, progress *repository.ProgressRepository, db *gorm.DB) *SessionService {
	return &SessionService{
		Sessions:  sessions,
		Questions: questions,
		Progress:  progress,
		DB:        db,
	}
}

type StartSessionReq struct {
	ModuleID uint   `json:"moduleId" binding:"required"`
	Mode     string `json:"mode" binding:"required"`
}

type AnswerReq struct {
	SessionID     string `json:"sessionId" binding:"required"`
	QuestionID    uint   `json:"questionId" binding:"required"`
	SelectedIndex *int   `json:"selectedIndex" binding:"required"`
}

// AnswerFeedback reveals the answer key to the client right after an
// answer is logged. All fields are nil when the question has no key.
type AnswerFeedback struct {
	IsCorrect    *bool   `json:"isCorrect"`
	CorrectIndex *int    `json:"correctIndex"`
	CorrectText  *string `json:"correctText"`
}

// Start opens a new attempt. The module is not validated against the
// catalog; a session against an empty module simply finishes 0/0.
func (s *SessionService) Start(userID uint, req StartSessionReq) (*model.QuizSession, error) {
	session := &model.QuizSession{
		UserID:    userID,
		ModuleID:  req.ModuleID,
		Mode:      req.Mode,
		StartedAt: time.Now(),
	}
	if err := s.Sessions.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Active(userID uint) (*model.QuizSession, error) {
	return s.Sessions.Active(userID)
}

func (s *SessionService) ListMine(userID uint) ([]repository.SessionSummary, error) {
	return s.Sessions.ListByUser(userID, util.SessionHistoryLimit)
}

// AnsweredQuestionIDs lists the caller's answered questions for a
// session; finished sessions stay readable.
func (s *SessionService) AnsweredQuestionIDs(userID uint, sessionID string) ([]uint, error) {
	session, err := s.Sessions.FindByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, util.ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, util.ErrNotSessionOwner
	}
	return s.Sessions.AnsweredQuestionIDs(sessionID)
}

// ownedOpenSession loads the session and verifies the caller owns it and
// has not finished it yet.
func (s *SessionService) ownedOpenSession(userID uint, sessionID string) (*model.QuizSession, error) {
	session, err := s.Sessions.FindByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, util.ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, util.ErrNotSessionOwner
	}
	if session.CompletedAt != nil {
		return nil, util.ErrSessionFinished
	}
	return session, nil
}

// Answer scores one submission against the stored answer key and appends
// it to the session's answer log. Questions without a key are logged with
// unknown correctness and produce empty feedback.
func (s *SessionService) Answer(userID uint, req AnswerReq) (*AnswerFeedback, error) {
	if _, err := s.ownedOpenSession(userID, req.SessionID); err != nil {
		return nil, err
	}

	question, err := s.Questions.FindByID(req.QuestionID)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, util.ErrQuestionNotFound
	}

	feedback := &AnswerFeedback{}
	var isCorrect *bool
	if question.AnswerIndex != nil {
		correct := *question.AnswerIndex == *req.SelectedIndex
		isCorrect = &correct

		feedback.IsCorrect = &correct
		feedback.CorrectIndex = question.AnswerIndex
		for i := range question.Choices {
			if question.Choices[i].Position == *question.AnswerIndex {
				feedback.CorrectText = &question.Choices[i].Text
				break
			}
		}
	}

	answer := &model.SessionAnswer{
		SessionID:     req.SessionID,
		QuestionID:    req.QuestionID,
		SelectedIndex: *req.SelectedIndex,
		IsCorrect:     isCorrect,
	}
	appended, err := s.Sessions.AppendAnswer(answer)
	if err != nil {
		return nil, err
	}
	if !appended {
		// Finish committed between the ownership check and the append.
		return nil, util.ErrSessionFinished
	}

	return feedback, nil
}

// Finish completes a session inside one transaction: claim the session
// via a compare-and-swap on completed_at, re-derive score and total from
// the full answer log, then increment the (user, module) progress
// counters. Claiming first takes the row lock, so the aggregate sees
// every answer that made it in and later appends are rejected. Any
// failure rolls the whole step back, leaving the session open so finish
// can be retried. A second finish on a completed session is rejected and
// leaves the counters untouched.
func (s *SessionService) Finish(userID uint, sessionID string) (*model.QuizSession, error) {
	session, err := s.Sessions.FindByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, util.ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, util.ErrNotSessionOwner
	}
	if session.CompletedAt != nil {
		return nil, util.ErrSessionFinished
	}

	now := time.Now()
	var score, total int
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		claimed, txErr := s.Sessions.Claim(tx, sessionID, now)
		if txErr != nil {
			return txErr
		}
		if !claimed {
			// Lost the race against a concurrent finish.
			return util.ErrSessionFinished
		}

		total, score, txErr = s.Sessions.AggregateAnswers(tx, sessionID)
		if txErr != nil {
			return txErr
		}

		if txErr = s.Sessions.SetScore(tx, sessionID, score, total); txErr != nil {
			return txErr
		}

		return s.Progress.UpsertDelta(tx, session.UserID, session.ModuleID, score, total-score, now)
	})
	if err != nil {
		return nil, err
	}

	session.Score = score
	session.Total = total
	session.CompletedAt = &now
	return session, nil
}
