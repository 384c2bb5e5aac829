package pipeline

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// candidateFromObject applies the field defaults. Unknown keys are ignored.
func candidateFromObject(obj map[string]any) domain.TransactionCandidate {
	return domain.TransactionCandidate{
		Amount: getFloat64Field(obj, "amount"),
		Type:   normalizeType(getStringField(obj, "type")),
		Detail: getStringField(obj, "detail"),
		Tag:    getStringField(obj, "tag"),
	}
}

// normalizeType lower-cases the model's type. Anything other than expense or
// income becomes DefaultTransactionType.
func normalizeType(raw string) string {
	switch t := strings.ToLower(strings.TrimSpace(raw)); t {
	case domain.TypeExpense, domain.TypeIncome:
		return t
	default:
		return DefaultTransactionType
	}
}

// getStringField returns the string under key, or "" when absent or not a string.
func getStringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// getFloat64Field returns a number or numeric string under key, or 0.
func getFloat64Field(m map[string]any, key string) float64 {
	var f float64
	switch val := m[key].(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Materialize maps candidates to rows and stores them in one atomic batch.
// Zero candidates means no store call at all.
func Materialize(ctx context.Context, store TransactionStore, candidates []domain.TransactionCandidate) ([]*domain.Transaction, error) {
	txs := make([]*domain.Transaction, 0, len(candidates))
	for i, c := range candidates {
		tx := c.ToTransaction()
		if err := validate.Struct(tx); err != nil {
			return nil, domain.NewError(domain.KindPersistenceError, "Materialize",
				fmt.Sprintf("candidate %d violates transaction constraints", i), err)
		}
		txs = append(txs, tx)
	}

	if len(txs) == 0 {
		return txs, nil
	}

	if err := store.CreateTransactions(ctx, txs); err != nil {
		if domain.KindOf(err) == domain.KindPersistenceError {
			return nil, err
		}
		return nil, domain.NewError(domain.KindPersistenceError, "Materialize", "storing transactions", err)
	}

	return txs, nil
}
