package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/moodlink/go-social-backend/internal/domain"
	"github.com/moodlink/go-social-backend/internal/repo"
)

// gormStore proxies MatchStore to the real repository functions so the
// transaction wrapping in TryMatch is exercised against actual SQL.
type gormStore struct{}

func (gormStore) CountPendingMemberships(ctx context.Context, db *gorm.DB, userID uint) (int64, error) {
	return repo.CountPendingMemberships(ctx, db, userID)
}

func (gormStore) FindFriendWithStatus(ctx context.Context, db *gorm.DB, userID uint, status int) (*repo.FriendSummary, error) {
	return repo.FindFriendWithStatus(ctx, db, userID, status)
}

func (gormStore) ProvisionMatch(ctx context.Context, db *gorm.DB, userA, userB uint) (*domain.ChatRoom, error) {
	return repo.ProvisionMatch(ctx, db, userA, userB)
}

func newMatchDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("matchmaker_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(
		&domain.User{}, &domain.FriendEdge{},
		&domain.ChatRoom{}, &domain.Membership{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func matchUser(t *testing.T, db *gorm.DB, handle string, status int) *domain.User {
	t.Helper()
	u := &domain.User{Handle: handle, Email: handle + "@x", HashedPassword: "h", Status: status}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", handle, err)
	}
	return u
}

func befriend(t *testing.T, db *gorm.DB, a, b uint) {
	t.Helper()
	if err := repo.CreateFriendship(context.Background(), db, a, b); err != nil {
		t.Fatalf("seed friendship: %v", err)
	}
}

func TestTryMatch_ProvisionsRoomForMatchingFriend(t *testing.T) {
	db := newMatchDB(t)
	u := matchUser(t, db, "u", 2)
	f := matchUser(t, db, "f", 2)
	befriend(t, db, u.ID, f.ID)

	m := NewMatchmaker(db, gormStore{})
	res, err := m.TryMatch(context.Background(), u.ID, 2)
	if err != nil {
		t.Fatalf("TryMatch: %v", err)
	}
	if res == nil || res.Room == nil || res.Friend == nil {
		t.Fatalf("expected provisioned result, got %+v", res)
	}
	if res.Friend.ID != f.ID {
		t.Fatalf("expected friend %d, got %d", f.ID, res.Friend.ID)
	}

	members, err := repo.RoomMembers(context.Background(), db, res.Room.ID)
	if err != nil {
		t.Fatalf("RoomMembers: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 memberships, got %d", len(members))
	}
	for _, mm := range members {
		if mm.Valid != domain.MembershipPending {
			t.Fatalf("membership must be pending: %+v", mm)
		}
	}
}

func TestTryMatch_NoCandidate(t *testing.T) {
	db := newMatchDB(t)
	u := matchUser(t, db, "u", 2)
	f := matchUser(t, db, "f", 9) // different status
	befriend(t, db, u.ID, f.ID)

	m := NewMatchmaker(db, gormStore{})
	res, err := m.TryMatch(context.Background(), u.ID, 2)
	if err != nil {
		t.Fatalf("TryMatch: %v", err)
	}
	if res != nil {
		t.Fatalf("expected nil result without candidate, got %+v", res)
	}

	var rooms int64
	if err := db.Model(&domain.ChatRoom{}).Count(&rooms).Error; err != nil {
		t.Fatalf("count rooms: %v", err)
	}
	if rooms != 0 {
		t.Fatalf("no room must be created, found %d", rooms)
	}
}

func TestTryMatch_PendingMembershipBlocksNewRoom(t *testing.T) {
	db := newMatchDB(t)
	u := matchUser(t, db, "u", 2)
	f := matchUser(t, db, "f", 2)
	befriend(t, db, u.ID, f.ID)

	m := NewMatchmaker(db, gormStore{})

	first, err := m.TryMatch(context.Background(), u.ID, 2)
	if err != nil || first == nil {
		t.Fatalf("first TryMatch: res=%+v err=%v", first, err)
	}

	// A second transition while the invitation is still pending must not
	// stack another room.
	second, err := m.TryMatch(context.Background(), u.ID, 2)
	if err != nil {
		t.Fatalf("second TryMatch: %v", err)
	}
	if second != nil {
		t.Fatalf("expected nil result while pending, got %+v", second)
	}

	var rooms int64
	if err := db.Model(&domain.ChatRoom{}).Count(&rooms).Error; err != nil {
		t.Fatalf("count rooms: %v", err)
	}
	if rooms != 1 {
		t.Fatalf("expected exactly 1 room, found %d", rooms)
	}
}

func TestTryMatch_ResolvedInvitationAllowsNewRoom(t *testing.T) {
	db := newMatchDB(t)
	u := matchUser(t, db, "u", 2)
	f := matchUser(t, db, "f", 2)
	befriend(t, db, u.ID, f.ID)

	m := NewMatchmaker(db, gormStore{})
	if res, err := m.TryMatch(context.Background(), u.ID, 2); err != nil || res == nil {
		t.Fatalf("first TryMatch: res=%+v err=%v", res, err)
	}

	// Accepting the invitation clears the pending guard for u (f's own
	// pending row does not block u's next match).
	if err := db.Model(&domain.Membership{}).
		Where("user_id = ?", u.ID).
		Update("valid", domain.MembershipAccepted).Error; err != nil {
		t.Fatalf("accept: %v", err)
	}

	res, err := m.TryMatch(context.Background(), u.ID, 2)
	if err != nil {
		t.Fatalf("second TryMatch: %v", err)
	}
	if res == nil {
		t.Fatalf("expected new room after invitation resolved")
	}
}

func TestTryMatch_StoreErrorPropagates(t *testing.T) {
	db := newMatchDB(t)
	u := matchUser(t, db, "u", 2)

	// Dropping the membership table makes the pending-count query fail.
	if err := db.Migrator().DropTable(&domain.Membership{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	m := NewMatchmaker(db, gormStore{})
	if _, err := m.TryMatch(context.Background(), u.ID, 2); err == nil {
		t.Fatalf("expected error from failing store")
	}
}
