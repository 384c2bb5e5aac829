package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/receipt-ledger/internal/domain"
)

// CreateUserSetting inserts settings for a user. A user has at most one row.
func (r *Repository) CreateUserSetting(ctx context.Context, s *domain.UserSetting) error {
	return mapError("CreateUserSetting", r.db.WithContext(ctx).Create(s).Error)
}

// GetUserSetting returns the settings of a user or domain.ErrNotFound.
func (r *Repository) GetUserSetting(ctx context.Context, userID string) (*domain.UserSetting, error) {
	var s domain.UserSetting
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		return nil, mapError("GetUserSetting", err)
	}
	return &s, nil
}

// UpdateUserSetting overwrites the settings of s.UserID.
func (r *Repository) UpdateUserSetting(ctx context.Context, s *domain.UserSetting) error {
	s.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).
		Model(&domain.UserSetting{}).
		Where("user_id = ?", s.UserID).
		Updates(map[string]any{
			"daily_spending_limit": s.DailySpendingLimit,
			"monthly_income":       s.MonthlyIncome,
			"notify_over_budget":   s.NotifyOverBudget,
			"notify_low_saving":    s.NotifyLowSaving,
			"goal_description":     s.GoalDescription,
			"conclusion_routine":   s.ConclusionRoutine,
			"last_modified":        s.UpdatedAt,
		})
	if res.Error != nil {
		return mapError("UpdateUserSetting", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("UpdateUserSetting: %w", domain.ErrNotFound)
	}
	return nil
}

// DeleteUserSetting removes the settings of a user.
func (r *Repository) DeleteUserSetting(ctx context.Context, userID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.UserSetting{})
	if res.Error != nil {
		return mapError("DeleteUserSetting", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteUserSetting: %w", domain.ErrNotFound)
	}
	return nil
}
