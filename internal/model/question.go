package model

// Question is one multiple-choice question. AnswerIndex points into the
// question's choices ordered by Choice.Position; a nil AnswerIndex means
// the question has no answer key yet and correctness cannot be judged.
type Question struct {
	BaseModel
	ModuleID    uint     `gorm:"index;not null" json:"moduleId"`
	Question    string   `gorm:"type:text;not null" json:"question"`
	Explanation string   `gorm:"type:text" json:"explanation,omitempty"`
	Difficulty  string   `gorm:"size:20" json:"difficulty,omitempty"`
	AnswerIndex *int     `json:"answerIndex,omitempty"`
	Choices     []Choice `gorm:"foreignKey:QuestionID" json:"choices,omitempty"`
}

func (Question) TableName() string {
	return "qcm"
}

// Choice carries an explicit Position so the displayed order never depends
// on row insertion order.
type Choice struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Text       string `gorm:"type:text;not null" json:"text"`
	Position   int    `gorm:"not null" json:"position"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
}

func (Choice) TableName() string {
	return "qcm_choices"
}
