// Package services – Matchmaker
//
// This file implements the Matchmaker, the decision component behind chat
// room auto-provisioning. Given a user whose status just changed, it decides
// whether a new room should be created and with whom:
//
//  1. if the user already holds any pending membership, do nothing;
//  2. otherwise pick the friend sharing the new status (lowest id wins);
//  3. if one exists, create the room plus two pending invitations.
//
// The sequence is a pure function over current store state: no in-process
// memory of past matches, so concurrent calls for different users are safe.
// The whole check-and-provision sequence runs inside one database
// transaction, which closes the check-then-act window between two
// simultaneous status updates for the same user.
//
// Observability: TryMatch is OpenTelemetry-instrumented; spans carry the
// user id, the status value, and the outcome.
package services

import (
	"context"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moodlink/go-social-backend/internal/domain"
	"github.com/moodlink/go-social-backend/internal/repo"
)

// MatchStore defines the persistence operations the Matchmaker needs.
type MatchStore interface {
	CountPendingMemberships(ctx context.Context, db *gorm.DB, userID uint) (int64, error)
	FindFriendWithStatus(ctx context.Context, db *gorm.DB, userID uint, status int) (*repo.FriendSummary, error)
	ProvisionMatch(ctx context.Context, db *gorm.DB, userA, userB uint) (*domain.ChatRoom, error)
}

// MatchResult reports a successful provisioning: the new room and the friend
// it was provisioned with.
type MatchResult struct {
	Room   *domain.ChatRoom    `json:"room"`
	Friend *repo.FriendSummary `json:"friend"`
}

// Matchmaker runs the status-match provisioning rule.
type Matchmaker struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Store is the membership/matching repository used by this service.
	Store MatchStore
}

// NewMatchmaker constructs a Matchmaker.
func NewMatchmaker(db *gorm.DB, st MatchStore) *Matchmaker {
	return &Matchmaker{DB: db, Store: st}
}

// TryMatch applies the provisioning rule for userID after a status change to
// status. It returns (nil, nil) in the two expected negative cases: the user
// already holds a pending invitation, or no friend shares the status. A
// non-nil result means a room with exactly two pending memberships was
// committed.
func (m *Matchmaker) TryMatch(ctx context.Context, userID uint, status int) (*MatchResult, error) {
	tr := otel.Tracer("services/Matchmaker")
	ctx, span := tr.Start(ctx, "TryMatch",
		trace.WithAttributes(
			attribute.Int64("user.id", int64(userID)),
			attribute.Int("user.status", status),
		),
	)
	defer span.End()

	var result *MatchResult
	err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, err := m.Store.CountPendingMemberships(ctx, tx, userID)
		if err != nil {
			return err
		}
		if pending > 0 {
			// At most one pending invitation set per user; repeated status
			// churn must not stack rooms.
			span.SetAttributes(attribute.String("match.outcome", "pending_exists"))
			return nil
		}

		friend, err := m.Store.FindFriendWithStatus(ctx, tx, userID, status)
		if err != nil {
			return err
		}
		if friend == nil {
			span.SetAttributes(attribute.String("match.outcome", "no_candidate"))
			return nil
		}

		room, err := m.Store.ProvisionMatch(ctx, tx, userID, friend.ID)
		if err != nil {
			return err
		}
		span.SetAttributes(
			attribute.String("match.outcome", "provisioned"),
			attribute.Int64("room.id", int64(room.ID)),
			attribute.Int64("friend.id", int64(friend.ID)),
		)
		result = &MatchResult{Room: room, Friend: friend}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
