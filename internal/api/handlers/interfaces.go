package handlers

import (
	"context"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/pipeline"
)

// UserStore is the user persistence the handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// TransactionStore is the transaction persistence the handlers need.
type TransactionStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context) ([]*domain.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

// UserSettingStore is the settings persistence the handlers need.
type UserSettingStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	CreateUserSetting(ctx context.Context, s *domain.UserSetting) error
	GetUserSetting(ctx context.Context, userID string) (*domain.UserSetting, error)
	UpdateUserSetting(ctx context.Context, s *domain.UserSetting) error
	DeleteUserSetting(ctx context.Context, userID string) error
}

// ReceiptIngester runs the receipt pipeline.
type ReceiptIngester interface {
	Ingest(ctx context.Context, userID string, uploads []domain.ReceiptUpload) (*pipeline.IngestionResult, error)
}

// FinanceAdvisor answers free-text model requests.
type FinanceAdvisor interface {
	Summarize(ctx context.Context, userID string) (string, error)
	Prompt(ctx context.Context, prompt string) (string, error)
	Status(ctx context.Context) (string, error)
}
