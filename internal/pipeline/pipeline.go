package pipeline

import (
	"context"
	"errors"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/logger"
)

// Ingester turns receipt photos into persisted transactions.
type Ingester struct {
	pipeline *Pipeline
}

// NewIngester wires the standard receipt pipeline.
func NewIngester(ai AIClient, store TransactionStore) *Ingester {
	return &Ingester{pipeline: NewReceiptIngestionPipeline(ai, store)}
}

// Ingest runs one ingestion request. The result is always non-nil; on
// failure it carries the failed stage and the error is classified.
func (i *Ingester) Ingest(ctx context.Context, userID string, uploads []domain.ReceiptUpload) (*IngestionResult, error) {
	log := logger.FromContext(ctx).With().Str("user_id", userID).Int("images", len(uploads)).Logger()
	ctx = logger.WithContext(ctx, log)

	state := &PipelineState{
		UserID:  userID,
		Uploads: uploads,
		Stage:   StageReceived,
	}

	log.Info().Msg("Starting receipt ingestion")

	if err := i.pipeline.Execute(ctx, state); err != nil {
		failed := state.FailedStage
		var se *StageError
		if errors.As(err, &se) {
			failed = se.Stage
		}

		log.Error().
			Err(err).
			Str("failed_stage", string(failed)).
			Str("kind", string(domain.KindOf(err))).
			Msg("Receipt ingestion failed")

		return &IngestionResult{
			Stage:        StageFailed,
			FailedStage:  failed,
			Transactions: []*domain.Transaction{},
			Persisted:    0,
		}, err
	}

	log.Info().
		Int("candidates", len(state.Candidates)).
		Int("persisted", len(state.Transactions)).
		Msg("Receipt ingestion completed")

	return &IngestionResult{
		Stage:        StageCompleted,
		Transactions: state.Transactions,
		Persisted:    len(state.Transactions),
	}, nil
}
