package bigquery

import (
	"math"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/receipt-ledger/internal/domain"
)

const transactionsTable = "transactions"

// TransactionRow is the analytics shape of a persisted transaction.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	UserID        string `bigquery:"user_id"`        // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED

	Amount *big.Rat `bigquery:"amount"` // NUMERIC
	Type   string   `bigquery:"type"`   // REQUIRED

	Detail bigquery.NullString `bigquery:"detail"` // NULLABLE
	Tag    bigquery.NullString `bigquery:"tag"`    // NULLABLE

	CreatedTS    time.Time              `bigquery:"created_ts"`    // REQUIRED
	LastModified bigquery.NullTimestamp `bigquery:"last_modified"` // NULLABLE
	ExportedTS   time.Time              `bigquery:"exported_ts"`   // REQUIRED
}

// ToTransactionRow converts a stored transaction into its BigQuery row.
// Empty strings and zero timestamps become NULL.
func ToTransactionRow(tx *domain.Transaction, exportedAt time.Time) *TransactionRow {
	return &TransactionRow{
		TransactionID:   tx.ID,
		UserID:          tx.UserID,
		TransactionDate: civil.DateOf(tx.CreatedAt.UTC()),
		Amount:          numeric(tx.Amount),
		Type:            tx.Type,
		Detail:          nullString(tx.Detail),
		Tag:             nullString(tx.Tag),
		CreatedTS:       tx.CreatedAt.UTC(),
		LastModified:    bigquery.NullTimestamp{Timestamp: tx.UpdatedAt.UTC(), Valid: !tx.UpdatedAt.IsZero()},
		ExportedTS:      exportedAt.UTC(),
	}
}

// numeric converts an amount to a NUMERIC value rounded to cents.
func numeric(f float64) *big.Rat {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return new(big.Rat)
	}
	return big.NewRat(int64(math.Round(f*100)), 100)
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
