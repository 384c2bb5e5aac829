package pipeline

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/logger"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Stage() Stage
	Execute(ctx context.Context, state *PipelineState) error
}

// Step 1: ReceiveRequestStep validates the request shape and that the user exists.
type ReceiveRequestStep struct {
	Store TransactionStore
}

func (s *ReceiveRequestStep) Stage() Stage { return StageReceived }

func (s *ReceiveRequestStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := ValidateUserID(state.UserID); err != nil {
		return err
	}
	if len(state.Uploads) == 0 {
		return domain.InvalidInputf("ReceiveRequest", "at least one receipt image is required")
	}
	return ensureUserExists(ctx, s.Store, state.UserID)
}

// Step 2: DecodeImagesStep decodes every upload into a ReceiptImage.
type DecodeImagesStep struct{}

func (s *DecodeImagesStep) Stage() Stage { return StageDecoding }

func (s *DecodeImagesStep) Execute(ctx context.Context, state *PipelineState) error {
	images, err := DecodeImages(state.Uploads)
	if err != nil {
		return err
	}
	state.Images = images
	return nil
}

// Step 3: BuildPromptStep renders the extraction instruction for the user.
type BuildPromptStep struct{}

func (s *BuildPromptStep) Stage() Stage { return StagePrompting }

func (s *BuildPromptStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Prompt = BuildReceiptPrompt(state.UserID)
	return nil
}

// Step 4: CallModelStep sends the prompt and images to the model.
type CallModelStep struct {
	AI AIClient
}

func (s *CallModelStep) Stage() Stage { return StageAwaitingModel }

func (s *CallModelStep) Execute(ctx context.Context, state *PipelineState) error {
	raw, err := s.AI.Generate(ctx, state.Prompt, state.Images...)
	if err != nil {
		return modelError("CallModel", err)
	}
	state.RawModelOutput = raw
	return nil
}

// Step 5: ExtractCandidatesStep parses the raw model text.
type ExtractCandidatesStep struct{}

func (s *ExtractCandidatesStep) Stage() Stage { return StageExtracting }

func (s *ExtractCandidatesStep) Execute(ctx context.Context, state *PipelineState) error {
	candidates, err := ExtractCandidates(state.RawModelOutput, state.UserID)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			log := logger.FromContext(ctx)
			log.Warn().
				Str("raw_output", truncate(de.Raw, 2000)).
				Msg("Model output could not be parsed")
		}
		return err
	}
	state.Candidates = candidates
	return nil
}

// Step 6: PersistTransactionsStep stores every candidate as one atomic batch.
type PersistTransactionsStep struct {
	Store TransactionStore
}

func (s *PersistTransactionsStep) Stage() Stage { return StagePersisting }

func (s *PersistTransactionsStep) Execute(ctx context.Context, state *PipelineState) error {
	txs, err := Materialize(ctx, s.Store, state.Candidates)
	if err != nil {
		return err
	}
	state.Transactions = txs
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially. The first failure
// moves the state to Failed and records the stage it happened in.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	for i, step := range p.steps {
		state.Stage = step.Stage()
		log.Debug().Str("stage", string(state.Stage)).Str("user_id", state.UserID).Msg("Pipeline stage started")

		if err := step.Execute(ctx, state); err != nil {
			state.FailedStage = state.Stage
			state.Stage = StageFailed
			return &StageError{
				Stage: state.FailedStage,
				Err:   fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, state.FailedStage, err),
			}
		}
	}

	state.Stage = StageCompleted
	return nil
}

// NewReceiptIngestionPipeline creates the standard six-step receipt pipeline.
func NewReceiptIngestionPipeline(ai AIClient, store TransactionStore) *Pipeline {
	return NewPipeline(
		&ReceiveRequestStep{Store: store},
		&DecodeImagesStep{},
		&BuildPromptStep{},
		&CallModelStep{AI: ai},
		&ExtractCandidatesStep{},
		&PersistTransactionsStep{Store: store},
	)
}

// ensureUserExists maps a missing user to NotFound and any other lookup
// failure to PersistenceError.
func ensureUserExists(ctx context.Context, store TransactionStore, userID string) error {
	if _, err := store.GetUser(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) || domain.KindOf(err) == domain.KindNotFound {
			return domain.NewError(domain.KindNotFound, "GetUser", fmt.Sprintf("user %s not found", userID), err)
		}
		return domain.NewError(domain.KindPersistenceError, "GetUser", "looking up user", err)
	}
	return nil
}

// modelError classifies an AIClient failure as AIServiceUnavailable unless
// the client already did.
func modelError(op string, err error) error {
	if domain.KindOf(err) == domain.KindAIServiceUnavailable {
		return err
	}
	return domain.NewError(domain.KindAIServiceUnavailable, op, "model call failed", err)
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
