package model

import "time"

// QuizSession is one quiz attempt by a user against a module. Score and
// Total stay 0 until Finish aggregates the answer log; CompletedAt is nil
// exactly until then and immutable afterwards.
type QuizSession struct {
	UUIDBase
	UserID      uint       `gorm:"index;not null" json:"userId"`
	ModuleID    uint       `gorm:"index;not null" json:"moduleId"`
	Mode        string     `gorm:"size:30;not null" json:"mode"`
	Score       int        `gorm:"default:0" json:"score"`
	Total       int        `gorm:"default:0" json:"total"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (QuizSession) TableName() string {
	return "quiz_sessions"
}

// SessionAnswer is one logged response within a session. Append-only:
// rows are never updated or deleted, and duplicates for the same question
// are all kept. IsCorrect is nil when the question had no answer key.
type SessionAnswer struct {
	BaseModel
	SessionID     string `gorm:"index;type:varchar(36);not null" json:"sessionId"`
	QuestionID    uint   `gorm:"index;not null" json:"questionId"`
	SelectedIndex int    `gorm:"not null" json:"selectedIndex"`
	IsCorrect     *bool  `json:"isCorrect"`
}

func (SessionAnswer) TableName() string {
	return "session_answers"
}
