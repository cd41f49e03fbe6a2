package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateUser      = errors.New("email or username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid subscription code")
	ErrInvalidLevel       = errors.New("invalid academic level")
	ErrCodeNotBound       = errors.New("code is not associated with this account")
	ErrCodeLevelMismatch  = errors.New("code not valid for this level")
	ErrCodeTaken          = errors.New("code already in use")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrBadAnswerIndex     = errors.New("answer index out of range")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionFinished    = errors.New("session already finished")
	ErrNotSessionOwner    = errors.New("session belongs to another user")
)
