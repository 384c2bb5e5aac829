package handlers

import (
	"net/http"
)

// Handlers groups every HTTP handler served by the API.
type Handlers struct {
	Users        *UsersHandler
	Transactions *TransactionsHandler
	UserSettings *UserSettingsHandler
	AI           *AIHandler
}

// NewRouter registers all routes on a new ServeMux.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", Health)
	mux.HandleFunc("GET /api/health", Health)

	mux.HandleFunc("GET /api/users", h.Users.ListUsers)
	mux.HandleFunc("POST /api/users", h.Users.CreateUser)
	mux.HandleFunc("GET /api/users/{id}", h.Users.GetUser)
	mux.HandleFunc("DELETE /api/users/{id}", h.Users.DeleteUser)

	mux.HandleFunc("GET /api/transactions", h.Transactions.ListTransactions)
	mux.HandleFunc("POST /api/transactions", h.Transactions.CreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", h.Transactions.GetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", h.Transactions.UpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", h.Transactions.DeleteTransaction)

	mux.HandleFunc("POST /api/usersettings", h.UserSettings.CreateUserSetting)
	mux.HandleFunc("GET /api/usersettings/{user_id}", h.UserSettings.GetUserSetting)
	mux.HandleFunc("PUT /api/usersettings/{user_id}", h.UserSettings.UpdateUserSetting)
	mux.HandleFunc("DELETE /api/usersettings/{user_id}", h.UserSettings.DeleteUserSetting)

	mux.HandleFunc("GET /api/ai", h.AI.Status)
	mux.HandleFunc("POST /api/ai/prompt", h.AI.Prompt)
	mux.HandleFunc("POST /api/ai/analyze-receipt", h.AI.AnalyzeReceipt)
	mux.HandleFunc("GET /api/ai/analyze-transaction", h.AI.AnalyzeTransactions)

	return mux
}
