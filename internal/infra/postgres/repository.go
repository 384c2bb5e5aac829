package postgres

import (
	"gorm.io/gorm"
)

// Repository is the GORM backed store for users, transactions and settings.
// It satisfies the persistence interfaces of the pipeline and the HTTP handlers.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new Repository on an open connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying connection for callers that manage its lifetime.
func (r *Repository) DB() *gorm.DB {
	return r.db
}
