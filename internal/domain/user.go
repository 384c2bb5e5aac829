package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User owns transactions and budget settings.
type User struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// UserSetting holds a user's budget preferences. One row per user.
type UserSetting struct {
	ID                 string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	DailySpendingLimit float64   `json:"daily_spending_limit"`
	MonthlyIncome      float64   `json:"monthly_income"`
	NotifyOverBudget   bool      `json:"notify_over_budget"`
	NotifyLowSaving    bool      `json:"notify_low_saving"`
	GoalDescription    string    `gorm:"size:1000" json:"goal_description"`
	ConclusionRoutine  string    `gorm:"size:32" json:"conclusion_routine"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:last_modified" json:"last_modified"`
}

func (UserSetting) TableName() string {
	return "user_settings"
}

func (s *UserSetting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
