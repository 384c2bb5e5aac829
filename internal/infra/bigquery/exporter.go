package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/logger"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// DefaultDataset is used when no dataset is configured.
const DefaultDataset = "finance"

// insertBatchSize bounds the rows sent in one streaming insert call.
const insertBatchSize = 500

// Exporter streams transactions into a BigQuery table. It holds a shared
// BigQuery client to avoid creating a new connection for each operation.
type Exporter struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewExporter creates a new Exporter for the given project and dataset.
func NewExporter(ctx context.Context, projectID, datasetID string) (*Exporter, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewExporter: project id is required")
	}
	if datasetID == "" {
		datasetID = DefaultDataset
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewExporter: creating client: %w", err)
	}
	return &Exporter{client: client, projectID: projectID, datasetID: datasetID}, nil
}

// Close closes the BigQuery client connection.
func (e *Exporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// TransactionSchema is the table schema inferred from TransactionRow.
func TransactionSchema() (bigquery.Schema, error) {
	schema, err := bigquery.InferSchema(TransactionRow{})
	if err != nil {
		return nil, fmt.Errorf("TransactionSchema: %w", err)
	}
	return schema, nil
}

// EnsureTable creates the transactions table, partitioned by
// transaction_date, when it does not exist yet.
func (e *Exporter) EnsureTable(ctx context.Context) error {
	table := e.client.Dataset(e.datasetID).Table(transactionsTable)

	_, err := table.Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("EnsureTable: reading table metadata: %w", err)
	}

	schema, err := TransactionSchema()
	if err != nil {
		return err
	}
	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "transaction_date",
		},
	}
	if err := table.Create(ctx, meta); err != nil {
		return fmt.Errorf("EnsureTable: creating table: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("dataset", e.datasetID).
		Str("table", transactionsTable).
		Msg("Created BigQuery table")
	return nil
}

// Export streams the transactions in batches and returns how many rows were
// sent. Each row carries an insert id of transaction id plus modification
// time so BigQuery can drop retried duplicates.
func (e *Exporter) Export(ctx context.Context, txs []*domain.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	schema, err := TransactionSchema()
	if err != nil {
		return 0, err
	}

	inserter := e.client.Dataset(e.datasetID).Table(transactionsTable).Inserter()
	now := time.Now()

	sent := 0
	for start := 0; start < len(txs); start += insertBatchSize {
		end := min(start+insertBatchSize, len(txs))

		savers := make([]*bigquery.StructSaver, 0, end-start)
		for _, tx := range txs[start:end] {
			savers = append(savers, &bigquery.StructSaver{
				Schema:   schema,
				InsertID: InsertID(tx),
				Struct:   ToTransactionRow(tx, now),
			})
		}

		if err := inserter.Put(ctx, savers); err != nil {
			return sent, fmt.Errorf("Export: inserting rows %d-%d: %w", start, end-1, err)
		}
		sent += len(savers)
	}

	return sent, nil
}

// LatestModified returns the greatest last_modified already exported, or the
// zero time when the table is empty.
func (e *Exporter) LatestModified(ctx context.Context) (time.Time, error) {
	query := fmt.Sprintf("SELECT MAX(last_modified) AS latest FROM `%s.%s.%s`",
		e.projectID, e.datasetID, transactionsTable)

	it, err := e.client.Query(query).Read(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("LatestModified: reading query: %w", err)
	}

	var row struct {
		Latest bigquery.NullTimestamp `bigquery:"latest"`
	}
	err = it.Next(&row)
	if err == iterator.Done || (err == nil && !row.Latest.Valid) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("LatestModified: iterating: %w", err)
	}

	return row.Latest.Timestamp, nil
}

// InsertID identifies one version of a transaction.
func InsertID(tx *domain.Transaction) string {
	return fmt.Sprintf("%s-%d", tx.ID, tx.UpdatedAt.UnixNano())
}
