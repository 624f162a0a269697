// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for friendship and
// favorite edges.
//
// Friendship is stored as two directed rows: creating a friendship between A
// and B inserts (A,B) and (B,A) in a single transaction so that a concurrent
// reader never observes half a pair. Favorites are a single directed row with
// no symmetric counterpart.
//
// Neither insert checks for pre-existing edges: repeated calls produce
// duplicate rows. The transport layer offers Idempotency-Key replay detection
// as the guard against client retries.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/moodlink/go-social-backend/internal/domain"
)

// FriendSummary is the read shape for relationship listings: the related
// user's identity plus its current status, joined from the users table.
type FriendSummary struct {
	ID          uint   `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Status      int    `json:"status"`
}

// CreateFriendship inserts the directed edges (userA,userB) and (userB,userA)
// atomically. It returns ErrNotFound when either id does not resolve to an
// existing user at call time. Duplicate friendships are not rejected here.
func CreateFriendship(ctx context.Context, db *gorm.DB, userA, userB uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := CountUsersByID(ctx, tx, userA, userB)
		if err != nil {
			return err
		}
		if n != 2 {
			return ErrNotFound
		}
		if err := tx.Create(&domain.FriendEdge{OwnerID: userA, OtherID: userB}).Error; err != nil {
			return err
		}
		return tx.Create(&domain.FriendEdge{OwnerID: userB, OtherID: userA}).Error
	})
}

// ListFriends returns the users reachable from userID over friend edges,
// each with its current status. Ordering is unspecified; callers must not
// rely on it.
func ListFriends(ctx context.Context, db *gorm.DB, userID uint) ([]FriendSummary, error) {
	var out []FriendSummary
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Select("users.id, users.handle, users.display_name, users.status").
		Joins("JOIN friend_edges ON friend_edges.other_id = users.id").
		Where("friend_edges.owner_id = ?", userID).
		Scan(&out).Error
	return out, err
}

// FindFriendWithStatus returns at most one friend of userID whose status
// equals status and whose id differs from userID. When several friends
// qualify the lowest user id wins; the tie-break is deterministic so the
// matcher behaves identically on retries. A nil summary with nil error means
// no friend qualified.
func FindFriendWithStatus(ctx context.Context, db *gorm.DB, userID uint, status int) (*FriendSummary, error) {
	var rows []FriendSummary
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Select("users.id, users.handle, users.display_name, users.status").
		Joins("JOIN friend_edges ON friend_edges.other_id = users.id").
		Where("friend_edges.owner_id = ? AND users.status = ? AND users.id <> ?", userID, status, userID).
		Order("users.id asc").
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ListFriendsWithStatus returns every friend of userID sharing status, lowest
// id first. This is the plural, read-only form of the matching predicate used
// by the recommend endpoint.
func ListFriendsWithStatus(ctx context.Context, db *gorm.DB, userID uint, status int) ([]FriendSummary, error) {
	var out []FriendSummary
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Select("users.id, users.handle, users.display_name, users.status").
		Joins("JOIN friend_edges ON friend_edges.other_id = users.id").
		Where("friend_edges.owner_id = ? AND users.status = ? AND users.id <> ?", userID, status, userID).
		Order("users.id asc").
		Scan(&out).Error
	return out, err
}

// CreateFavorite inserts one directed "owner favorites target" edge. Same
// existence rule as CreateFriendship, but single-directional.
func CreateFavorite(ctx context.Context, db *gorm.DB, owner, target uint) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := CountUsersByID(ctx, tx, owner, target)
		if err != nil {
			return err
		}
		if n != 2 {
			return ErrNotFound
		}
		return tx.Create(&domain.FavoriteEdge{OwnerID: owner, TargetID: target}).Error
	})
}

// ListFavorites returns the users that ownerID has favorited.
func ListFavorites(ctx context.Context, db *gorm.DB, ownerID uint) ([]FriendSummary, error) {
	var out []FriendSummary
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Select("users.id, users.handle, users.display_name, users.status").
		Joins("JOIN favorite_edges ON favorite_edges.target_id = users.id").
		Where("favorite_edges.owner_id = ?", ownerID).
		Scan(&out).Error
	return out, err
}
