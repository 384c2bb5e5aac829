package postgres

import (
	"context"
	"fmt"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser hashes the plain text password held in user.Password and inserts the user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("CreateUser: hashing password: %w", err)
	}
	user.Password = string(hash)

	return mapError("CreateUser", r.db.WithContext(ctx).Create(user).Error)
}

// GetUser returns the user with the given id or domain.ErrNotFound.
func (r *Repository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, mapError("GetUser", err)
	}
	return &user, nil
}

// ListUsers returns every user ordered by creation time.
func (r *Repository) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&users).Error; err != nil {
		return nil, mapError("ListUsers", err)
	}
	return users, nil
}

// DeleteUser removes the user together with their transactions and settings.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{})
	if res.Error != nil {
		return mapError("DeleteUser", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteUser: %w", domain.ErrNotFound)
	}
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func CheckPassword(user *domain.User, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plain)) == nil
}
