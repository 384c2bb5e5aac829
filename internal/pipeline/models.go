package pipeline

import (
	"github.com/dvloznov/receipt-ledger/internal/domain"
)

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	UserID  string
	Uploads []domain.ReceiptUpload

	Images         []domain.ReceiptImage
	Prompt         string
	RawModelOutput string
	Candidates     []domain.TransactionCandidate
	Transactions   []*domain.Transaction

	Stage       Stage
	FailedStage Stage
}

// IngestionResult is what a caller gets back from one ingestion request.
// On failure Transactions is empty and FailedStage names where it stopped.
type IngestionResult struct {
	Stage        Stage                 `json:"stage"`
	FailedStage  Stage                 `json:"failed_stage,omitempty"`
	Transactions []*domain.Transaction `json:"transactions"`
	Persisted    int                   `json:"persisted"`
}

// StageError ties a step failure to the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
