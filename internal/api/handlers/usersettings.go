package handlers

import (
	"net/http"

	"github.com/dvloznov/receipt-ledger/internal/api/middleware"
	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/logger"
)

// UserSettingsHandler handles budget settings endpoints.
type UserSettingsHandler struct {
	store UserSettingStore
}

// NewUserSettingsHandler creates a new settings handler.
func NewUserSettingsHandler(store UserSettingStore) *UserSettingsHandler {
	return &UserSettingsHandler{store: store}
}

type userSettingRequest struct {
	UserID             string  `json:"user_id" validate:"omitempty,uuid"`
	DailySpendingLimit float64 `json:"daily_spending_limit" validate:"gte=0"`
	MonthlyIncome      float64 `json:"monthly_income" validate:"gte=0"`
	NotifyOverBudget   bool    `json:"notify_over_budget"`
	NotifyLowSaving    bool    `json:"notify_low_saving"`
	GoalDescription    string  `json:"goal_description" validate:"max=1000"`
	ConclusionRoutine  string  `json:"conclusion_routine" validate:"max=32"`
}

func (req userSettingRequest) toSetting(userID string) *domain.UserSetting {
	return &domain.UserSetting{
		UserID:             userID,
		DailySpendingLimit: req.DailySpendingLimit,
		MonthlyIncome:      req.MonthlyIncome,
		NotifyOverBudget:   req.NotifyOverBudget,
		NotifyLowSaving:    req.NotifyLowSaving,
		GoalDescription:    req.GoalDescription,
		ConclusionRoutine:  req.ConclusionRoutine,
	}
}

// CreateUserSetting handles POST /api/usersettings
func (h *UserSettingsHandler) CreateUserSetting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req userSettingRequest
	if err := decodeAndValidate(r, "CreateUserSetting", &req); err != nil {
		middleware.WriteAppError(w, err)
		return
	}
	if err := requireUUID("CreateUserSetting", "user_id", req.UserID); err != nil {
		middleware.WriteAppError(w, err)
		return
	}
	if _, err := h.store.GetUser(ctx, req.UserID); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	s := req.toSetting(req.UserID)
	if err := h.store.CreateUserSetting(ctx, s); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("user_id", req.UserID).Msg("Failed to create financial settings")
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, Envelope{Body: s, Message: "Financial settings created", Success: true})
}

// GetUserSetting handles GET /api/usersettings/{user_id}
func (h *UserSettingsHandler) GetUserSetting(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if err := requireUUID("GetUserSetting", "user_id", userID); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	s, err := h.store.GetUserSetting(r.Context(), userID)
	if err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, Envelope{Body: s, Message: "Financial settings retrieved successfully", Success: true})
}

// UpdateUserSetting handles PUT /api/usersettings/{user_id}
func (h *UserSettingsHandler) UpdateUserSetting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.PathValue("user_id")
	if err := requireUUID("UpdateUserSetting", "user_id", userID); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	var req userSettingRequest
	if err := decodeAndValidate(r, "UpdateUserSetting", &req); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	if err := h.store.UpdateUserSetting(ctx, req.toSetting(userID)); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update financial settings")
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, Envelope{Message: "Financial settings updated successfully", Success: true})
}

// DeleteUserSetting handles DELETE /api/usersettings/{user_id}
func (h *UserSettingsHandler) DeleteUserSetting(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	if err := requireUUID("DeleteUserSetting", "user_id", userID); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	if err := h.store.DeleteUserSetting(r.Context(), userID); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, Envelope{Message: "Financial settings deleted successfully", Success: true})
}
