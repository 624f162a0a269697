// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a user is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Unique violations (handle, email) surface as ErrDuplicate.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/moodlink/go-social-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates that an insert violated a uniqueness constraint
// (user handle, email, or an idempotency key).
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation detects unique-constraint failures across drivers.
// glebarez/sqlite often reports them as plain-text errors rather than
// gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}

// CreateUser inserts a new user row. The caller supplies the already-hashed
// credential; this layer never sees plaintext secrets. Returns ErrDuplicate
// when the handle or email is already registered.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUser fetches a single user by id, or ErrNotFound if missing.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByHandle fetches a single user by its unique external handle,
// or ErrNotFound if missing.
func GetUserByHandle(ctx context.Context, db *gorm.DB, handle string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "handle = ?", handle).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a single user by email, or ErrNotFound if missing.
// Used by the login path.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users ordered by id ascending. It returns an empty
// slice when the table is empty.
func ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}

// UpdateUser persists the merged user record. If no row was touched the user
// does not exist and ErrNotFound is returned.
func UpdateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]any{
			"handle":            u.Handle,
			"display_name":      u.DisplayName,
			"email":             u.Email,
			"hashed_password":   u.HashedPassword,
			"status":            u.Status,
			"status_changed_at": u.StatusChangedAt,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteUser removes a user row by id. Missing rows return ErrNotFound.
func DeleteUser(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountUsersByID reports whether every given id resolves to an existing user.
// Used by edge inserts to enforce referential existence at call time.
func CountUsersByID(ctx context.Context, db *gorm.DB, ids ...uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id IN ?", ids).
		Count(&n).Error
	return n, err
}
