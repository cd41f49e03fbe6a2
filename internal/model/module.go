package model

// Module is a named collection of questions scoped to an academic level.
type Module struct {
	BaseModel
	Name     string    `gorm:"size:255;not null" json:"name"`
	Slug     string    `gorm:"size:60;uniqueIndex;not null" json:"slug"`
	Level    UserLevel `gorm:"size:10;index;not null" json:"level"`
	IsActive bool      `gorm:"default:true" json:"isActive"`
}

func (Module) TableName() string {
	return "modules"
}
