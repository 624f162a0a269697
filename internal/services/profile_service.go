// Package services – ProfileService
//
// This file implements the ProfileService, the entry point for partial
// profile updates and the trigger for status matching. An update request
// carries pointer fields: nil means "keep the stored value", never "set to
// empty". When the merged status differs from the stored one the service
// stamps StatusChangedAt with the current date (day precision) and hands the
// new status to the Matchmaker after the write has been confirmed.
//
// The matcher's outcome never affects the update's own success: the update
// succeeds or fails on the persistence of the user record alone. A matcher
// failure after a confirmed write is logged and reported as an empty match.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/moodlink/go-social-backend/internal/domain"
)

// statusDateLayout is the day-precision format persisted in StatusChangedAt.
const statusDateLayout = "2006/01/02"

// ProfilePatch is a partial update of a user record. Nil fields retain the
// stored value.
type ProfilePatch struct {
	Handle      *string
	DisplayName *string
	Email       *string
	Secret      *string
	Status      *int
}

// ProfileRepo defines the repository contract required by ProfileService.
type ProfileRepo interface {
	GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error)
	UpdateUser(ctx context.Context, db *gorm.DB, u *domain.User) error
}

// StatusMatcher is the matching trigger consumed by ProfileService.
// *Matchmaker satisfies it.
type StatusMatcher interface {
	TryMatch(ctx context.Context, userID uint, status int) (*MatchResult, error)
}

// ProfileService orchestrates user updates and status-transition detection.
type ProfileService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo ProfileRepo
	// Matcher runs after a confirmed write that changed the status field.
	Matcher StatusMatcher

	// Now is the clock used for StatusChangedAt stamping. Defaults to
	// time.Now when nil; tests pin it.
	Now func() time.Time
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB, r ProfileRepo, m StatusMatcher) *ProfileService {
	return &ProfileService{DB: db, Repo: r, Matcher: m, Now: time.Now}
}

// Update merges patch into the stored record for userID and persists it.
// Missing users yield ErrUserNotFound; persistence failures abort before the
// matcher runs. On a status transition the matcher is invoked with the new
// status; its result (possibly nil) is returned alongside the updated user.
func (s *ProfileService) Update(ctx context.Context, userID uint, patch ProfilePatch) (*domain.User, *MatchResult, error) {
	tr := otel.Tracer("services/ProfileService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(attribute.Int64("user.id", int64(userID))),
	)
	defer span.End()

	stored, err := s.Repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	merged := *stored
	if patch.Handle != nil {
		merged.Handle = *patch.Handle
	}
	if patch.DisplayName != nil {
		merged.DisplayName = *patch.DisplayName
	}
	if patch.Email != nil {
		merged.Email = *patch.Email
	}
	if patch.Secret != nil {
		merged.HashedPassword = hashSecret(*patch.Secret)
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
	}

	statusChanged := merged.Status != stored.Status
	if statusChanged {
		now := s.Now
		if now == nil {
			now = time.Now
		}
		merged.StatusChangedAt = now().Format(statusDateLayout)
	}

	if err := s.Repo.UpdateUser(ctx, s.DB, &merged); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	if !statusChanged || s.Matcher == nil {
		return &merged, nil, nil
	}

	match, err := s.Matcher.TryMatch(ctx, userID, merged.Status)
	if err != nil {
		// The profile write is already durable; the failed match attempt is
		// retried naturally on the next status transition.
		log.Error().
			Err(err).
			Uint("user_id", userID).
			Int("status", merged.Status).
			Msg("status match failed after profile update")
		return &merged, nil, nil
	}
	return &merged, match, nil
}
