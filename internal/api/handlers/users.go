package handlers

import (
	"fmt"
	"net/http"

	"github.com/dvloznov/receipt-ledger/internal/api/middleware"
	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/logger"
)

// UsersHandler handles user endpoints.
type UsersHandler struct {
	store UserStore
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(store UserStore) *UsersHandler {
	return &UsersHandler{store: store}
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// ListUsers handles GET /api/users
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.store.ListUsers(ctx)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to list users")
		middleware.WriteAppError(w, err)
		return
	}
	if users == nil {
		users = []*domain.User{}
	}

	middleware.WriteJSON(w, http.StatusOK, Envelope{
		Body:    users,
		Message: fmt.Sprintf("Retrieved %d users from database", len(users)),
		Success: true,
	})
}

// CreateUser handles POST /api/users
func (h *UsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createUserRequest
	if err := decodeAndValidate(r, "CreateUser", &req); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	user := &domain.User{Username: req.Username, Email: req.Email, Password: req.Password}
	if err := h.store.CreateUser(ctx, user); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("username", req.Username).Msg("Failed to create user")
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, Envelope{Body: user, Message: "User created", Success: true})
}

// GetUser handles GET /api/users/{id}
func (h *UsersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireUUID("GetUser", "id", id); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, Envelope{Body: user, Message: "Retrieved user " + id, Success: true})
}

// DeleteUser handles DELETE /api/users/{id}
func (h *UsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireUUID("DeleteUser", "id", id); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	log := logger.FromContext(r.Context())
	log.Info().Str("user_id", id).Msg("User deleted")
	middleware.WriteJSON(w, http.StatusOK, Envelope{Message: "User deleted", Success: true})
}
