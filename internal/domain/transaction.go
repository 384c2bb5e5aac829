package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Transaction type values.
const (
	TypeExpense = "expense"
	TypeIncome  = "income"
)

// Transaction is one persisted income or expense row owned by a user.
// Rows created by receipt ingestion originate from exactly one TransactionCandidate.
type Transaction struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id" validate:"required,uuid"`
	Amount    float64   `gorm:"not null;default:0" json:"amount"`
	Type      string    `gorm:"size:32;not null" json:"type" validate:"required,oneof=expense income"`
	Detail    string    `gorm:"size:10000" json:"detail" validate:"max=10000"`
	Tag       string    `gorm:"size:64" json:"tag" validate:"max=64"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"column:last_modified" json:"last_modified"`
}

// BeforeCreate assigns an identifier when the caller left it empty.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TransactionCandidate is a provisional transaction decoded from model output.
// UserID is always stamped by the pipeline, never taken from the model.
type TransactionCandidate struct {
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
	Detail string  `json:"detail"`
	Tag    string  `json:"tag"`
	UserID string  `json:"user_id"`
}

// ToTransaction maps the candidate into a row ready for insertion.
func (c TransactionCandidate) ToTransaction() *Transaction {
	return &Transaction{
		ID:     uuid.NewString(),
		UserID: c.UserID,
		Amount: c.Amount,
		Type:   c.Type,
		Detail: c.Detail,
		Tag:    c.Tag,
	}
}
