package pipeline_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/receipt-ledger/internal/domain"
)

const testUserID = "3f2b6c1e-8a4d-4c7e-9b1a-2d5e6f7a8b9c"

// MockAIClient is a mock implementation of AIClient for testing.
type MockAIClient struct {
	GenerateFunc func(ctx context.Context, prompt string, images ...domain.ReceiptImage) (string, error)

	Calls      int
	LastPrompt string
	LastImages []domain.ReceiptImage
}

func (m *MockAIClient) Generate(ctx context.Context, prompt string, images ...domain.ReceiptImage) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	m.LastImages = images
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, images...)
	}
	return "[]", nil
}

// respondWith returns a mock that always answers with text.
func respondWith(text string) *MockAIClient {
	return &MockAIClient{
		GenerateFunc: func(ctx context.Context, prompt string, images ...domain.ReceiptImage) (string, error) {
			return text, nil
		},
	}
}

// fakeStore is an in-memory TransactionStore with all-or-nothing batches.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*domain.User
	rows  []*domain.Transaction

	// FailAt makes CreateTransactions fail when inserting the row at this index.
	FailAt      int
	CreateCalls int
}

func newFakeStore(userIDs ...string) *fakeStore {
	s := &fakeStore{users: map[string]*domain.User{}, FailAt: -1}
	for _, id := range userIDs {
		s.users[id] = &domain.User{ID: id, Username: "user-" + id[:4]}
	}
	return s
}

func (s *fakeStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) CreateTransactions(ctx context.Context, txs []*domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++

	staged := make([]*domain.Transaction, 0, len(txs))
	for i, tx := range txs {
		if i == s.FailAt {
			return domain.NewError(domain.KindPersistenceError, "CreateTransactions", "constraint violation", nil)
		}
		tx.CreatedAt = time.Now()
		tx.UpdatedAt = tx.CreatedAt
		staged = append(staged, tx)
	}
	s.rows = append(s.rows, staged...)
	return nil
}

func (s *fakeStore) ListTransactionsByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Transaction
	for _, r := range s.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// pngWithSize returns a small PNG whose header claims width x height pixels.
func pngWithSize(t *testing.T, width, height uint32) []byte {
	t.Helper()
	data := append([]byte(nil), pngBytes(t)...)
	// IHDR data starts after the 8 byte signature, 4 byte length and 4 byte type.
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(), nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	return buf.Bytes()
}
