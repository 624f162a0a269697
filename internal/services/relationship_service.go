// Package services – RelationshipService
//
// This file implements the RelationshipService, which manages friendship and
// favorite edges and the read-only recommendation view over them. Friendship
// creation is symmetric (two directed edges in one transaction, done in the
// repository); favorites stay one-directional. The service rejects
// self-edges and maps missing users to ErrUserNotFound.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/moodlink/go-social-backend/internal/domain"
	"github.com/moodlink/go-social-backend/internal/repo"
)

// RelationshipRepo defines the repository contract required by
// RelationshipService.
type RelationshipRepo interface {
	CreateFriendship(ctx context.Context, db *gorm.DB, userA, userB uint) error
	ListFriends(ctx context.Context, db *gorm.DB, userID uint) ([]repo.FriendSummary, error)
	ListFriendsWithStatus(ctx context.Context, db *gorm.DB, userID uint, status int) ([]repo.FriendSummary, error)
	CreateFavorite(ctx context.Context, db *gorm.DB, owner, target uint) error
	ListFavorites(ctx context.Context, db *gorm.DB, ownerID uint) ([]repo.FriendSummary, error)
	GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error)
	ListMemberships(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Membership, error)
}

// RelationshipService provides edge mutations and relationship reads.
type RelationshipService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the relationship repository used by this service.
	Repo RelationshipRepo
}

// NewRelationshipService constructs a RelationshipService.
func NewRelationshipService(db *gorm.DB, r RelationshipRepo) *RelationshipService {
	return &RelationshipService{DB: db, Repo: r}
}

// Befriend connects two users symmetrically. Self-edges are rejected with
// ErrSelfRelation; unknown users yield ErrUserNotFound. Repeated calls insert
// duplicate edge pairs (the transport's Idempotency-Key guard covers
// retries).
func (s *RelationshipService) Befriend(ctx context.Context, userA, userB uint) error {
	if userA == userB {
		return ErrSelfRelation
	}
	if err := s.Repo.CreateFriendship(ctx, s.DB, userA, userB); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// Friends lists the users connected to userID over friend edges, each with
// its current status.
func (s *RelationshipService) Friends(ctx context.Context, userID uint) ([]repo.FriendSummary, error) {
	return s.Repo.ListFriends(ctx, s.DB, userID)
}

// Favorite records "owner favorites target". One-directional; same guards as
// Befriend.
func (s *RelationshipService) Favorite(ctx context.Context, owner, target uint) error {
	if owner == target {
		return ErrSelfRelation
	}
	if err := s.Repo.CreateFavorite(ctx, s.DB, owner, target); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// Favorites lists the users that ownerID has favorited.
func (s *RelationshipService) Favorites(ctx context.Context, ownerID uint) ([]repo.FriendSummary, error) {
	return s.Repo.ListFavorites(ctx, s.DB, ownerID)
}

// Recommend returns every friend of userID currently sharing its status,
// lowest id first. This is the diagnostic, plural form of the predicate the
// Matchmaker uses; it never provisions anything.
func (s *RelationshipService) Recommend(ctx context.Context, userID uint) ([]repo.FriendSummary, error) {
	u, err := s.Repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Repo.ListFriendsWithStatus(ctx, s.DB, userID, u.Status)
}

// Memberships returns userID's chat-room memberships, pending and otherwise.
func (s *RelationshipService) Memberships(ctx context.Context, userID uint) ([]domain.Membership, error) {
	return s.Repo.ListMemberships(ctx, s.DB, userID)
}
