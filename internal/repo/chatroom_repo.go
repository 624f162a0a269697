// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for chat rooms and
// their memberships, including the match provisioning write.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/moodlink/go-social-backend/internal/domain"
)

// ProvisionMatch creates one chat room plus two pending memberships, one per
// matched user, in a single transaction. Either the room and both membership
// rows commit together or nothing does; a room with fewer than two members is
// never observable. The operation is not idempotent by itself: callers must
// run the pending-membership pre-check first (see services.Matchmaker).
func ProvisionMatch(ctx context.Context, db *gorm.DB, userA, userB uint) (*domain.ChatRoom, error) {
	room := &domain.ChatRoom{Deleted: false}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		members := []domain.Membership{
			{ChatRoomID: room.ID, UserID: userA, Valid: domain.MembershipPending},
			{ChatRoomID: room.ID, UserID: userB, Valid: domain.MembershipPending},
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return nil, err
	}
	return room, nil
}

// CountPendingMemberships returns the number of pending (valid=0) membership
// rows held by userID. The matcher requires zero before provisioning a new
// room.
func CountPendingMemberships(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("user_id = ? AND valid = ?", userID, domain.MembershipPending).
		Count(&n).Error
	return n, err
}

// ListMemberships returns all membership rows for userID, newest room first.
func ListMemberships(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Membership, error) {
	var out []domain.Membership
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("chat_room_id desc").
		Find(&out).Error
	return out, err
}

// RoomMembers returns the membership rows of a single chat room.
func RoomMembers(ctx context.Context, db *gorm.DB, roomID uint) ([]domain.Membership, error) {
	var out []domain.Membership
	err := db.WithContext(ctx).
		Where("chat_room_id = ?", roomID).
		Order("user_id asc").
		Find(&out).Error
	return out, err
}
