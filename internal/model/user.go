package model

import "time"

// UserLevel is the academic level a subscription grants. RES (residents)
// can access modules of every level.
type UserLevel string

const (
	Level4A  UserLevel = "4A"
	Level5A  UserLevel = "5A"
	Level6A  UserLevel = "6A"
	LevelRES UserLevel = "RES"
)

func ValidLevel(l UserLevel) bool {
	switch l {
	case Level4A, Level5A, Level6A, LevelRES:
		return true
	}
	return false
}

type User struct {
	BaseModel
	Username    string     `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email       string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"size:100;not null" json:"-"`
	FirstName   string     `gorm:"size:100" json:"firstName"`
	LastName    string     `gorm:"size:100" json:"lastName"`
	Level       UserLevel  `gorm:"size:10;index" json:"level"`
	IsActive    bool       `gorm:"default:false" json:"isActive"`
	IsAdmin     bool       `gorm:"default:false" json:"isAdmin"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// SubscriptionCode gates account access. A code is issued for one level
// and, once bound to a user, cannot be reused by anyone else.
type SubscriptionCode struct {
	BaseModel
	Code     string     `gorm:"size:60;uniqueIndex;not null" json:"code"`
	Level    UserLevel  `gorm:"size:10" json:"level"`
	IsActive bool       `gorm:"default:true" json:"isActive"`
	UsedBy   *uint      `gorm:"uniqueIndex" json:"usedBy,omitempty"`
	UsedAt   *time.Time `json:"usedAt,omitempty"`
}

func (SubscriptionCode) TableName() string {
	return "subscription_codes"
}
