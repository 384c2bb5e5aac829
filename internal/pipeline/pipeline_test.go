package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/pipeline"
)

func twoReceipts(t *testing.T) []domain.ReceiptUpload {
	return []domain.ReceiptUpload{
		{Filename: "cafe.png", ContentType: "image/png", Data: pngBytes(t)},
		{Filename: "taxi.jpg", ContentType: "image/jpeg", Data: jpegBytes(t)},
	}
}

func TestIngest_TwoReceiptsPersistInOrder(t *testing.T) {
	ai := respondWith(`[{"amount":12.5,"type":"expense","detail":"coffee","tag":"food"},{"amount":40,"type":"expense","detail":"taxi","tag":"transport"}]`)
	store := newFakeStore(testUserID)

	result, err := pipeline.NewIngester(ai, store).Ingest(context.Background(), testUserID, twoReceipts(t))
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}

	if result.Stage != pipeline.StageCompleted {
		t.Errorf("Stage = %s, want Completed", result.Stage)
	}
	if result.Persisted != 2 || store.count() != 2 {
		t.Fatalf("expected 2 persisted rows, result=%d store=%d", result.Persisted, store.count())
	}

	wantDetails := []string{"coffee", "taxi"}
	wantAmounts := []float64{12.5, 40}
	for i, tx := range result.Transactions {
		if tx.UserID != testUserID {
			t.Errorf("row %d UserID = %q", i, tx.UserID)
		}
		if tx.Detail != wantDetails[i] || tx.Amount != wantAmounts[i] {
			t.Errorf("row %d = %+v, want detail %q amount %v", i, tx, wantDetails[i], wantAmounts[i])
		}
		if tx.ID == "" {
			t.Errorf("row %d has no ID", i)
		}
	}

	if ai.Calls != 1 {
		t.Errorf("expected exactly one model call, got %d", ai.Calls)
	}
	if len(ai.LastImages) != 2 || ai.LastImages[0].Filename != "cafe.png" || ai.LastImages[1].Filename != "taxi.jpg" {
		t.Errorf("images not forwarded in order: %+v", ai.LastImages)
	}
	if ai.LastPrompt != pipeline.BuildReceiptPrompt(testUserID) {
		t.Error("model did not receive the receipt prompt for this user")
	}
}

func TestIngest_ApologyIsMalformed(t *testing.T) {
	ai := respondWith("I'm sorry, I could not read the receipt.")
	store := newFakeStore(testUserID)

	result, err := pipeline.NewIngester(ai, store).Ingest(context.Background(), testUserID, twoReceipts(t))

	if domain.KindOf(err) != domain.KindMalformedAIOutput {
		t.Fatalf("expected MalformedAIOutput, got %v", err)
	}
	if result.Stage != pipeline.StageFailed || result.FailedStage != pipeline.StageExtracting {
		t.Errorf("got stage %s/%s, want Failed/Extracting", result.Stage, result.FailedStage)
	}
	if store.count() != 0 || store.CreateCalls != 0 {
		t.Errorf("expected no persistence, rows=%d calls=%d", store.count(), store.CreateCalls)
	}
}

func TestIngest_FencedEmptyArraySucceeds(t *testing.T) {
	ai := respondWith("```json\n[]\n```")
	store := newFakeStore(testUserID)

	result, err := pipeline.NewIngester(ai, store).Ingest(context.Background(), testUserID, twoReceipts(t))
	if err != nil {
		t.Fatalf("Ingest() error: %v", err)
	}
	if result.Stage != pipeline.StageCompleted {
		t.Errorf("Stage = %s, want Completed", result.Stage)
	}
	if len(result.Transactions) != 0 || result.Persisted != 0 {
		t.Errorf("expected zero transactions, got %d", len(result.Transactions))
	}
	if store.CreateCalls != 0 {
		t.Errorf("expected no store call for zero candidates, got %d", store.CreateCalls)
	}
}

func TestIngest_EmptyImageListNeverCallsModel(t *testing.T) {
	ai := &MockAIClient{}
	store := newFakeStore(testUserID)

	for _, uploads := range [][]domain.ReceiptUpload{nil, {}} {
		result, err := pipeline.NewIngester(ai, store).Ingest(context.Background(), testUserID, uploads)
		if domain.KindOf(err) != domain.KindInvalidInput {
			t.Fatalf("expected InvalidInput, got %v", err)
		}
		if result.FailedStage != pipeline.StageReceived {
			t.Errorf("FailedStage = %s, want Received", result.FailedStage)
		}
	}
	if ai.Calls != 0 {
		t.Errorf("expected zero model calls, got %d", ai.Calls)
	}
}

func TestIngest_FailurePaths(t *testing.T) {
	unavailable := &MockAIClient{
		GenerateFunc: func(ctx context.Context, prompt string, images ...domain.ReceiptImage) (string, error) {
			return "", domain.NewError(domain.KindAIServiceUnavailable, "Generate", "AI service not configured", nil)
		},
	}
	transportErr := &MockAIClient{
		GenerateFunc: func(ctx context.Context, prompt string, images ...domain.ReceiptImage) (string, error) {
			return "", errors.New("dial tcp: connection refused")
		},
	}
	goodModel := `[{"amount":1,"detail":"a"},{"amount":2,"detail":"b"},{"amount":3,"detail":"c"}]`

	tests := []struct {
		name       string
		userID     string
		uploads    func(t *testing.T) []domain.ReceiptUpload
		ai         *MockAIClient
		failAt     int
		wantKind   domain.ErrorKind
		wantStage  pipeline.Stage
		wantModel  int
		knownUsers []string
	}{
		{
			name:      "invalid user id",
			userID:    "not-a-uuid",
			uploads:   twoReceipts,
			ai:        respondWith(goodModel),
			wantKind:  domain.KindInvalidInput,
			wantStage: pipeline.StageReceived,
		},
		{
			name:      "unknown user",
			userID:    testUserID,
			uploads:   twoReceipts,
			ai:        respondWith(goodModel),
			wantKind:  domain.KindNotFound,
			wantStage: pipeline.StageReceived,
		},
		{
			name:   "undecodable image",
			userID: testUserID,
			uploads: func(t *testing.T) []domain.ReceiptUpload {
				return []domain.ReceiptUpload{{Filename: "x.heic", ContentType: "image/heic", Data: []byte("nope")}}
			},
			ai:         respondWith(goodModel),
			wantKind:   domain.KindInvalidInput,
			wantStage:  pipeline.StageDecoding,
			knownUsers: []string{testUserID},
		},
		{
			name:       "model not configured",
			userID:     testUserID,
			uploads:    twoReceipts,
			ai:         unavailable,
			wantKind:   domain.KindAIServiceUnavailable,
			wantStage:  pipeline.StageAwaitingModel,
			wantModel:  1,
			knownUsers: []string{testUserID},
		},
		{
			name:       "model transport error",
			userID:     testUserID,
			uploads:    twoReceipts,
			ai:         transportErr,
			wantKind:   domain.KindAIServiceUnavailable,
			wantStage:  pipeline.StageAwaitingModel,
			wantModel:  1,
			knownUsers: []string{testUserID},
		},
		{
			name:       "mid batch persistence failure rolls back",
			userID:     testUserID,
			uploads:    twoReceipts,
			ai:         respondWith(goodModel),
			failAt:     1,
			wantKind:   domain.KindPersistenceError,
			wantStage:  pipeline.StagePersisting,
			wantModel:  1,
			knownUsers: []string{testUserID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(tt.knownUsers...)
			if tt.failAt > 0 {
				store.FailAt = tt.failAt
			}

			result, err := pipeline.NewIngester(tt.ai, store).Ingest(context.Background(), tt.userID, tt.uploads(t))

			if domain.KindOf(err) != tt.wantKind {
				t.Fatalf("kind = %s, want %s (err: %v)", domain.KindOf(err), tt.wantKind, err)
			}
			var se *pipeline.StageError
			if !errors.As(err, &se) || se.Stage != tt.wantStage {
				t.Errorf("expected StageError at %s, got %v", tt.wantStage, err)
			}
			if result.Stage != pipeline.StageFailed || result.FailedStage != tt.wantStage {
				t.Errorf("result stage %s/%s, want Failed/%s", result.Stage, result.FailedStage, tt.wantStage)
			}
			if result.Persisted != 0 || store.count() != 0 {
				t.Errorf("expected zero persisted rows, result=%d store=%d", result.Persisted, store.count())
			}
			if tt.ai.Calls != tt.wantModel {
				t.Errorf("model calls = %d, want %d", tt.ai.Calls, tt.wantModel)
			}
		})
	}
}

func TestMaterialize_RejectsOversizedDetail(t *testing.T) {
	store := newFakeStore(testUserID)
	long := make([]byte, 10001)
	for i := range long {
		long[i] = 'x'
	}

	_, err := pipeline.Materialize(context.Background(), store, []domain.TransactionCandidate{
		{Amount: 1, Type: "expense", Detail: "ok", UserID: testUserID},
		{Amount: 2, Type: "expense", Detail: string(long), UserID: testUserID},
	})

	if domain.KindOf(err) != domain.KindPersistenceError {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if store.CreateCalls != 0 || store.count() != 0 {
		t.Error("no rows should be written when a candidate is invalid")
	}
}

func TestMaterialize_RejectsUnknownType(t *testing.T) {
	store := newFakeStore(testUserID)

	_, err := pipeline.Materialize(context.Background(), store, []domain.TransactionCandidate{
		{Amount: 1, Type: "refund", UserID: testUserID},
	})

	if domain.KindOf(err) != domain.KindPersistenceError {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if store.CreateCalls != 0 {
		t.Error("an unknown type must not reach the store")
	}
}
