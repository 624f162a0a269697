// Package services – AccountService
//
// This file implements the AccountService, which owns account registration,
// lookup, credential verification, and deletion. Credentials are hashed with
// SHA-256 before they reach the repository; the plaintext secret never leaves
// this service and the stored hash is never serialized back to clients.
//
// Service-level errors (ErrDuplicateHandle, ErrUserNotFound,
// ErrInvalidCredentials) are returned for predictable cases so handlers can
// map them to HTTP results consistently.
package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/moodlink/go-social-backend/internal/domain"
	"github.com/moodlink/go-social-backend/internal/repo"
)

// AccountRepo defines the repository contract required by AccountService.
type AccountRepo interface {
	CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error
	GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error)
	GetUserByHandle(ctx context.Context, db *gorm.DB, handle string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)
	ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error)
	DeleteUser(ctx context.Context, db *gorm.DB, id uint) error
}

// AccountService provides account lifecycle operations.
type AccountService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo AccountRepo
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *gorm.DB, r AccountRepo) *AccountService {
	return &AccountService{DB: db, Repo: r}
}

// Register creates a new account. The handle must be unique; a duplicate
// yields ErrDuplicateHandle. The secret is hashed before persistence.
func (s *AccountService) Register(ctx context.Context, handle, displayName, email, secret string, status int) (*domain.User, error) {
	handle = strings.TrimSpace(handle)

	// Pre-check for a friendlier error; the unique index is the authority.
	if _, err := s.Repo.GetUserByHandle(ctx, s.DB, handle); err == nil {
		return nil, ErrDuplicateHandle
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	u := &domain.User{
		Handle:         handle,
		DisplayName:    strings.TrimSpace(displayName),
		Email:          strings.TrimSpace(email),
		HashedPassword: hashSecret(secret),
		Status:         status,
	}
	if err := s.Repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateHandle
		}
		return nil, err
	}
	return u, nil
}

// Get fetches one account by id.
func (s *AccountService) Get(ctx context.Context, id uint) (*domain.User, error) {
	u, err := s.Repo.GetUser(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// List returns every account, id ascending.
func (s *AccountService) List(ctx context.Context) ([]domain.User, error) {
	return s.Repo.ListUsers(ctx, s.DB)
}

// Login verifies an email/secret pair and returns the account on success.
// Unknown emails and wrong secrets both yield ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, secret string) (*domain.User, error) {
	u, err := s.Repo.GetUserByEmail(ctx, s.DB, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(hashSecret(secret)), []byte(u.HashedPassword)) != 1 {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Delete removes an account by id.
func (s *AccountService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteUser(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// hashSecret returns the lowercase hex SHA-256 digest of a secret. The same
// digest is used at registration, login, and password change so verification
// is a straight comparison of stored and computed hashes.
func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
