package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/logger"
)

// Advisor answers free-text questions about a user's finances. Its output is
// returned verbatim; no structured extraction happens.
type Advisor struct {
	ai    AIClient
	store TransactionStore
}

// NewAdvisor creates a new Advisor.
func NewAdvisor(ai AIClient, store TransactionStore) *Advisor {
	return &Advisor{ai: ai, store: store}
}

// Summarize fetches every transaction of the user and asks the model for an
// analysis. A missing user or an empty history is NotFound.
func (a *Advisor) Summarize(ctx context.Context, userID string) (string, error) {
	if err := ValidateUserID(userID); err != nil {
		return "", err
	}
	if err := ensureUserExists(ctx, a.store, userID); err != nil {
		return "", err
	}

	txs, err := a.store.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return "", domain.NewError(domain.KindPersistenceError, "Summarize", "listing transactions", err)
	}
	if len(txs) == 0 {
		return "", domain.NewError(domain.KindNotFound, "Summarize", fmt.Sprintf("user %s has no transactions", userID), nil)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("user_id", userID).
		Int("transactions", len(txs)).
		Msg("Requesting financial summary")

	text, err := a.ai.Generate(ctx, BuildSummaryPrompt(RenderTransactions(txs)))
	if err != nil {
		return "", modelError("Summarize", err)
	}
	return text, nil
}

// Prompt forwards a caller supplied prompt to the model.
func (a *Advisor) Prompt(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", domain.InvalidInputf("Prompt", "prompt is required")
	}
	text, err := a.ai.Generate(ctx, prompt)
	if err != nil {
		return "", modelError("Prompt", err)
	}
	return text, nil
}

// Status asks the model for a short greeting to prove it is reachable.
func (a *Advisor) Status(ctx context.Context) (string, error) {
	text, err := a.ai.Generate(ctx, StatusPrompt)
	if err != nil {
		return "", modelError("Status", err)
	}
	return text, nil
}

// RenderTransactions formats one transaction per line as
// "date | type | amount | tag | detail".
func RenderTransactions(txs []*domain.Transaction) string {
	var b strings.Builder
	for _, tx := range txs {
		tag := tx.Tag
		if tag == "" {
			tag = "-"
		}
		b.WriteString(tx.CreatedAt.Format("2006-01-02"))
		b.WriteString(" | ")
		b.WriteString(tx.Type)
		b.WriteString(" | ")
		b.WriteString(strconv.FormatFloat(tx.Amount, 'f', 2, 64))
		b.WriteString(" | ")
		b.WriteString(tag)
		b.WriteString(" | ")
		b.WriteString(strings.ReplaceAll(tx.Detail, "\n", " "))
		b.WriteString("\n")
	}
	return b.String()
}
