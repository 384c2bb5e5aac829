package handlers_test

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dvloznov/receipt-ledger/internal/api/handlers"
	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/pipeline"
)

const (
	testUserID = "3f2b6c1e-8a4d-4c7e-9b1a-2d5e6f7a8b9c"
	testTxID   = "9d1c4b7a-2e3f-4a5b-8c6d-7e8f9a0b1c2d"
)

// MockStore implements every store interface of the handlers package.
// Unset funcs return ErrNotFound for lookups and nil otherwise.
type MockStore struct {
	CreateUserFunc             func(ctx context.Context, user *domain.User) error
	GetUserFunc                func(ctx context.Context, id string) (*domain.User, error)
	ListUsersFunc              func(ctx context.Context) ([]*domain.User, error)
	DeleteUserFunc             func(ctx context.Context, id string) error
	CreateTransactionFunc      func(ctx context.Context, tx *domain.Transaction) error
	GetTransactionFunc         func(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactionsFunc       func(ctx context.Context) ([]*domain.Transaction, error)
	ListTransactionsByUserFunc func(ctx context.Context, userID string) ([]*domain.Transaction, error)
	UpdateTransactionFunc      func(ctx context.Context, tx *domain.Transaction) error
	DeleteTransactionFunc      func(ctx context.Context, id string) error
	CreateUserSettingFunc      func(ctx context.Context, s *domain.UserSetting) error
	GetUserSettingFunc         func(ctx context.Context, userID string) (*domain.UserSetting, error)
	UpdateUserSettingFunc      func(ctx context.Context, s *domain.UserSetting) error
	DeleteUserSettingFunc      func(ctx context.Context, userID string) error
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
}

func (m *MockStore) CreateUser(ctx context.Context, user *domain.User) error {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(ctx, user)
	}
	return nil
}

func (m *MockStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, notFound("GetUser")
}

func (m *MockStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) DeleteUser(ctx context.Context, id string) error {
	if m.DeleteUserFunc != nil {
		return m.DeleteUserFunc(ctx, id)
	}
	return nil
}

func (m *MockStore) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, tx)
	}
	return nil
}

func (m *MockStore) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetTransactionFunc != nil {
		return m.GetTransactionFunc(ctx, id)
	}
	return nil, notFound("GetTransaction")
}

func (m *MockStore) ListTransactions(ctx context.Context) ([]*domain.Transaction, error) {
	if m.ListTransactionsFunc != nil {
		return m.ListTransactionsFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	if m.ListTransactionsByUserFunc != nil {
		return m.ListTransactionsByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockStore) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if m.UpdateTransactionFunc != nil {
		return m.UpdateTransactionFunc(ctx, tx)
	}
	return nil
}

func (m *MockStore) DeleteTransaction(ctx context.Context, id string) error {
	if m.DeleteTransactionFunc != nil {
		return m.DeleteTransactionFunc(ctx, id)
	}
	return nil
}

func (m *MockStore) CreateUserSetting(ctx context.Context, s *domain.UserSetting) error {
	if m.CreateUserSettingFunc != nil {
		return m.CreateUserSettingFunc(ctx, s)
	}
	return nil
}

func (m *MockStore) GetUserSetting(ctx context.Context, userID string) (*domain.UserSetting, error) {
	if m.GetUserSettingFunc != nil {
		return m.GetUserSettingFunc(ctx, userID)
	}
	return nil, notFound("GetUserSetting")
}

func (m *MockStore) UpdateUserSetting(ctx context.Context, s *domain.UserSetting) error {
	if m.UpdateUserSettingFunc != nil {
		return m.UpdateUserSettingFunc(ctx, s)
	}
	return nil
}

func (m *MockStore) DeleteUserSetting(ctx context.Context, userID string) error {
	if m.DeleteUserSettingFunc != nil {
		return m.DeleteUserSettingFunc(ctx, userID)
	}
	return nil
}

// withUser makes GetUser succeed for testUserID.
func (m *MockStore) withUser() *MockStore {
	m.GetUserFunc = func(ctx context.Context, id string) (*domain.User, error) {
		if id == testUserID {
			return &domain.User{ID: id, Username: "alice"}, nil
		}
		return nil, notFound("GetUser")
	}
	return m
}

// MockIngester is a mock implementation of ReceiptIngester.
type MockIngester struct {
	IngestFunc func(ctx context.Context, userID string, uploads []domain.ReceiptUpload) (*pipeline.IngestionResult, error)

	LastUserID  string
	LastUploads []domain.ReceiptUpload
}

func (m *MockIngester) Ingest(ctx context.Context, userID string, uploads []domain.ReceiptUpload) (*pipeline.IngestionResult, error) {
	m.LastUserID = userID
	m.LastUploads = uploads
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, userID, uploads)
	}
	return &pipeline.IngestionResult{Stage: pipeline.StageCompleted, Transactions: []*domain.Transaction{}}, nil
}

// MockAdvisor is a mock implementation of FinanceAdvisor.
type MockAdvisor struct {
	SummarizeFunc func(ctx context.Context, userID string) (string, error)
	PromptFunc    func(ctx context.Context, prompt string) (string, error)
	StatusFunc    func(ctx context.Context) (string, error)
}

func (m *MockAdvisor) Summarize(ctx context.Context, userID string) (string, error) {
	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, userID)
	}
	return "", nil
}

func (m *MockAdvisor) Prompt(ctx context.Context, prompt string) (string, error) {
	if m.PromptFunc != nil {
		return m.PromptFunc(ctx, prompt)
	}
	return "", nil
}

func (m *MockAdvisor) Status(ctx context.Context) (string, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx)
	}
	return "hello", nil
}

// newTestRouter wires every handler onto the given mocks.
func newTestRouter(store *MockStore, ingester *MockIngester, advisor *MockAdvisor) http.Handler {
	return handlers.NewRouter(handlers.Handlers{
		Users:        handlers.NewUsersHandler(store),
		Transactions: handlers.NewTransactionsHandler(store),
		UserSettings: handlers.NewUserSettingsHandler(store),
		AI:           handlers.NewAIHandler(ingester, advisor),
	})
}
