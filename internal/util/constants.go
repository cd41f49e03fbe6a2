package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// Page caps for listing endpoints.
const (
	SessionHistoryLimit = 30
	DefaultQuestionPage = 25
	MaxQuestionPage     = 100
	DefaultAdminPage    = 50
	MaxAdminPage        = 200
)
