package model

import "time"

// ModuleProgress is the durable per-(user, module) mastery counter pair.
// Only Finish writes it, inside the same transaction that completes the
// session, so correct+wrong is monotonically non-decreasing.
type ModuleProgress struct {
	BaseModel
	UserID         uint      `gorm:"uniqueIndex:uq_user_module;not null" json:"userId"`
	ModuleID       uint      `gorm:"uniqueIndex:uq_user_module;not null" json:"moduleId"`
	CorrectCount   int       `gorm:"default:0" json:"correctCount"`
	WrongCount     int       `gorm:"default:0" json:"wrongCount"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}

func (ModuleProgress) TableName() string {
	return "user_progress"
}

// SuccessRate returns the rounded percentage of correct answers, 0 when
// nothing has been answered yet.
func (p ModuleProgress) SuccessRate() int {
	return SuccessRate(p.CorrectCount, p.WrongCount)
}

func SuccessRate(correct, wrong int) int {
	total := correct + wrong
	if total == 0 {
		return 0
	}
	return int((100*int64(correct) + int64(total)/2) / int64(total))
}
