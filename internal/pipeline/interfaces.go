package pipeline

import (
	"context"

	"github.com/dvloznov/receipt-ledger/internal/domain"
)

// AIClient provides an interface for the multimodal model.
// This interface enables mocking and testing of the model call.
type AIClient interface {
	// Generate sends the prompt followed by the images and returns raw text.
	Generate(ctx context.Context, prompt string, images ...domain.ReceiptImage) (string, error)
}

// TransactionStore is the persistence capability the pipeline relies on.
type TransactionStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)

	// CreateTransactions inserts every row in order, all or nothing.
	CreateTransactions(ctx context.Context, txs []*domain.Transaction) error

	ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error)
}
