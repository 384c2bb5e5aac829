package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"gorm.io/gorm"
)

// CreateTransaction inserts a single transaction.
func (r *Repository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return mapError("CreateTransaction", r.db.WithContext(ctx).Create(tx).Error)
}

// CreateTransactions inserts rows one at a time, in order, inside a single
// database transaction. Any failure rolls back the whole batch.
func (r *Repository) CreateTransactions(ctx context.Context, txs []*domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		for i, row := range txs {
			if err := db.Create(row).Error; err != nil {
				return domain.NewError(domain.KindPersistenceError, "CreateTransactions",
					fmt.Sprintf("inserting transaction %d of %d", i+1, len(txs)), err)
			}
		}
		return nil
	})
}

// GetTransaction returns the transaction with the given id or domain.ErrNotFound.
func (r *Repository) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error; err != nil {
		return nil, mapError("GetTransaction", err)
	}
	return &tx, nil
}

// ListTransactionsByUser returns a user's transactions, oldest first.
func (r *Repository) ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&txs).Error; err != nil {
		return nil, mapError("ListTransactionsByUser", err)
	}
	return txs, nil
}

// ListTransactions returns every transaction, oldest first.
func (r *Repository) ListTransactions(ctx context.Context) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&txs).Error; err != nil {
		return nil, mapError("ListTransactions", err)
	}
	return txs, nil
}

// ListTransactionsModifiedSince returns transactions changed after since,
// ordered by modification time. Used by the export and sync commands.
func (r *Repository) ListTransactionsModifiedSince(ctx context.Context, since time.Time) ([]*domain.Transaction, error) {
	var txs []*domain.Transaction
	if err := r.db.WithContext(ctx).
		Where("last_modified > ?", since).
		Order("last_modified ASC").
		Find(&txs).Error; err != nil {
		return nil, mapError("ListTransactionsModifiedSince", err)
	}
	return txs, nil
}

// UpdateTransaction overwrites the editable fields of an existing row.
func (r *Repository) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	tx.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("id = ?", tx.ID).
		Select("amount", "type", "detail", "tag", "last_modified").
		Updates(map[string]any{
			"amount":        tx.Amount,
			"type":          tx.Type,
			"detail":        tx.Detail,
			"tag":           tx.Tag,
			"last_modified": tx.UpdatedAt,
		})
	if res.Error != nil {
		return mapError("UpdateTransaction", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("UpdateTransaction: %w", domain.ErrNotFound)
	}
	return nil
}

// DeleteTransaction removes a transaction.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Transaction{})
	if res.Error != nil {
		return mapError("DeleteTransaction", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteTransaction: %w", domain.ErrNotFound)
	}
	return nil
}
